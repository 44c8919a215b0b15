/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package engine defines the document engine contract the overlays consume:
// the events it publishes, the queries it answers and the commands it
// accepts. It also ships the synchronous Bus, the cooperative Loop and an
// in-memory reference engine.
package engine

import (
	"annotview/internal/annot"
	"annotview/internal/geometry"
)

// DrawModeTwoClicks is the draw mode of tools that place a shape with two
// discrete clicks instead of a continuous drag.
const DrawModeTwoClicks = "twoClicks"

// Queries are read-only questions about the document and the active tool.
type Queries interface {
	// ObjectAt returns the top-most object under the pointer, or nil.
	ObjectAt(p Pointer) *annot.Object
	Selected() annot.Selection
	IsSelected(o *annot.Object) bool
	CanModify(o *annot.Object) bool
	CanModifyContents(o *annot.Object) bool
	IsRedactable(o *annot.Object) bool
	GroupCount(objs []*annot.Object) int
	ActiveToolName() string
	// DrawMode is empty when the active tool has no draw mode.
	DrawMode() string
	// DraftObject is the active tool's uncommitted object, or nil.
	DraftObject() *annot.Object
	ObjectByID(id string) *annot.Object
	// Bounds returns the object's rectangle in screen coordinates.
	Bounds(o *annot.Object) geometry.Rect
	Viewport() geometry.Size
	FreeTextEditing() bool
	WidgetEditing() bool
}

// Commands mutate the document. The engine owns and serializes every change.
type Commands interface {
	Select(objs ...*annot.Object)
	Deselect(objs ...*annot.Object)
	Delete(objs []*annot.Object)
	Group(primary *annot.Object, objs []*annot.Object)
	Ungroup(objs []*annot.Object)
	DeleteCustomData(o *annot.Object, key string)
	// DeleteBatch deletes objs in one change; cascade also removes objects
	// linked to them.
	DeleteBatch(objs []*annot.Object, cascade bool)
	TriggerDoubleClick(o *annot.Object)
	ApplyCrop()
	ApplyRedactions(objs []*annot.Object)
}

// Engine is the full contract.
type Engine interface {
	Queries
	Commands
}
