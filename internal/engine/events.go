/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package engine

import (
	"annotview/internal/annot"
	"annotview/internal/geometry"
)

// Topic names an event stream on the Bus.
type Topic string

const (
	TopicObjectSelected    Topic = "objectSelected"
	TopicObjectChanged     Topic = "objectChanged"
	TopicPermissionChanged Topic = "permissionChanged"
	TopicDocumentUnloaded  Topic = "documentUnloaded"
	TopicPointerDown       Topic = "pointerDown"
	TopicPointerUp         Topic = "pointerUp"
	TopicPointerMove       Topic = "pointerMove"
	TopicWindowResized     Topic = "windowResized"
)

// Event is anything published on the Bus.
type Event interface {
	Topic() Topic
}

// SelectAction tells whether objects entered or left the selection.
type SelectAction int

const (
	Selected SelectAction = iota
	Deselected
)

func (a SelectAction) String() string {
	if a == Deselected {
		return "deselected"
	}
	return "selected"
}

// ChangeAction is the kind of document mutation.
type ChangeAction int

const (
	Add ChangeAction = iota
	Modify
	Delete
)

func (a ChangeAction) String() string {
	switch a {
	case Add:
		return "add"
	case Modify:
		return "modify"
	case Delete:
		return "delete"
	}
	return "unknown"
}

// Pointer describes a pointer sample in screen coordinates. Target is the id
// of the UI element under the pointer, empty when it is over the canvas.
type Pointer struct {
	Pos    geometry.Pt
	Target string
	Touch  bool
}

type ObjectSelected struct {
	Objects []*annot.Object
	Action  SelectAction
}

type ObjectChanged struct {
	Objects []*annot.Object
	Action  ChangeAction
}

type PermissionChanged struct{}

type DocumentUnloaded struct{}

type PointerDown struct{ Pointer }

type PointerUp struct{ Pointer }

type PointerMove struct{ Pointer }

type WindowResized struct{ Size geometry.Size }

func (ObjectSelected) Topic() Topic    { return TopicObjectSelected }
func (ObjectChanged) Topic() Topic     { return TopicObjectChanged }
func (PermissionChanged) Topic() Topic { return TopicPermissionChanged }
func (DocumentUnloaded) Topic() Topic  { return TopicDocumentUnloaded }
func (PointerDown) Topic() Topic       { return TopicPointerDown }
func (PointerUp) Topic() Topic         { return TopicPointerUp }
func (PointerMove) Topic() Topic       { return TopicPointerMove }
func (WindowResized) Topic() Topic     { return TopicWindowResized }

// Includes reports whether the event names o.
func (e ObjectSelected) Includes(o *annot.Object) bool { return annot.Selection(e.Objects).Contains(o) }

// Includes reports whether the event names o.
func (e ObjectChanged) Includes(o *annot.Object) bool { return annot.Selection(e.Objects).Contains(o) }

// Only reports whether the event names exactly o and nothing else.
func (e ObjectChanged) Only(o *annot.Object) bool {
	return len(e.Objects) == 1 && annot.Same(e.Objects[0], o)
}
