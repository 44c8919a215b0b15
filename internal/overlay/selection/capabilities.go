/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package selection

import (
	"slices"

	"annotview/internal/annot"
)

// CapabilityInput is everything the action set depends on.
type CapabilityInput struct {
	Subject   *annot.Object
	Selection annot.Selection
	// GroupCount is the engine's group count for Selection.
	GroupCount int

	CanModify         bool
	CanModifyContents bool
	Redactable        bool
	HasLink           bool

	FreeTextEditing bool
	WidgetEditing   bool

	NotesPanelDisabled  bool
	StyleEditorDisabled bool

	LinkExcludedTools    []string
	CommentExcludedTools []string
}

// Capabilities tells which actions apply. Every field defaults to false.
type Capabilities struct {
	HasStyle   bool
	CanGroup   bool
	CanUngroup bool

	Comment bool
	// CommentInline routes the comment action to inline free text editing
	// instead of the notes panel.
	CommentInline bool
	StyleEdit     bool
	Crop          bool
	Redact        bool
	Group         bool
	Ungroup       bool
	Delete        bool
	Calibrate     bool
	Link          bool
	// Unlink is set when the link action removes links instead of adding one.
	Unlink   bool
	Download bool
}

// Compute derives the capabilities for in. A nil subject yields none.
func Compute(in CapabilityInput) Capabilities {
	o := in.Subject
	if o == nil {
		return Capabilities{}
	}
	count := in.Selection.Count()
	multiple := count > 1

	var c Capabilities
	c.HasStyle = o.HasStyle()
	c.CanGroup = in.GroupCount > 1
	c.CanUngroup = in.GroupCount == 1 && count > 1

	c.Comment = !in.NotesPanelDisabled &&
		!multiple &&
		!in.WidgetEditing &&
		!slices.Contains(in.CommentExcludedTools, o.ToolName)
	c.CommentInline = c.Comment && o.Kind == annot.KindFreeText && in.FreeTextEditing && in.CanModifyContents

	c.StyleEdit = in.CanModify &&
		c.HasStyle &&
		!in.StyleEditorDisabled &&
		!in.WidgetEditing &&
		(!multiple || c.CanUngroup) &&
		o.ToolName != annot.ToolCropPage

	c.Crop = o.ToolName == annot.ToolCropPage
	c.Redact = in.Redactable && count == 1
	c.Group = c.CanGroup && !in.WidgetEditing
	c.Ungroup = c.CanUngroup && !in.WidgetEditing
	c.Delete = in.CanModify && !o.NoDelete
	c.Calibrate = in.CanModify && o.Measure && o.Kind == annot.KindLine
	c.Link = !in.WidgetEditing && !slices.Contains(in.LinkExcludedTools, o.ToolName)
	c.Unlink = c.Link && in.HasLink
	c.Download = o.Kind == annot.KindFileAttachment
	return c
}
