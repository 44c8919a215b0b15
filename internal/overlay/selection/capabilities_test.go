/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package selection

import (
	"testing"

	"annotview/internal/annot"
)

func styled(id string) *annot.Object {
	o := obj(id)
	o.Style = map[string]string{"stroke": "#e44"}
	return o
}

func baseInput(sel ...*annot.Object) CapabilityInput {
	return CapabilityInput{
		Subject:              sel[0],
		Selection:            sel,
		GroupCount:           annot.Selection(sel).GroupCount(),
		CanModify:            true,
		CanModifyContents:    true,
		LinkExcludedTools:    annot.DefaultLinkExcludedTools(),
		CommentExcludedTools: annot.DefaultCommentExcludedTools(),
	}
}

func TestComputeNilSubject(t *testing.T) {
	if c := Compute(CapabilityInput{}); c != (Capabilities{}) {
		t.Fatalf("nil subject should have no capabilities, got %+v", c)
	}
}

func TestComputeSingleStyledObject(t *testing.T) {
	c := Compute(baseInput(styled("a")))
	if !c.Comment || !c.StyleEdit || !c.Delete || !c.Link {
		t.Fatalf("expected comment, style, delete and link, got %+v", c)
	}
	if c.Group || c.Ungroup || c.Redact || c.Calibrate || c.Download || c.Crop || c.Unlink {
		t.Fatalf("unexpected capability in %+v", c)
	}
}

func TestComputeGroupingIsExclusive(t *testing.T) {
	grouped := func(id, g string) *annot.Object {
		o := obj(id)
		o.GroupID = g
		return o
	}
	cases := []struct {
		name           string
		sel            []*annot.Object
		group, ungroup bool
	}{
		{"single", []*annot.Object{obj("a")}, false, false},
		{"single grouped", []*annot.Object{grouped("a", "g")}, false, false},
		{"two loose", []*annot.Object{obj("a"), obj("b")}, true, false},
		{"one group", []*annot.Object{grouped("a", "g"), grouped("b", "g")}, false, true},
		{"two groups", []*annot.Object{grouped("a", "g"), grouped("b", "h")}, true, false},
		{"group plus loose", []*annot.Object{grouped("a", "g"), grouped("b", "g"), obj("c")}, true, false},
	}
	for _, tc := range cases {
		c := Compute(baseInput(tc.sel...))
		if c.CanGroup != tc.group || c.CanUngroup != tc.ungroup {
			t.Fatalf("%s: canGroup=%v canUngroup=%v", tc.name, c.CanGroup, c.CanUngroup)
		}
		if c.CanGroup && c.CanUngroup {
			t.Fatalf("%s: group and ungroup both offered", tc.name)
		}
	}
}

func TestComputeWidgetEditingHidesGroupingAndLink(t *testing.T) {
	in := baseInput(styled("a"), styled("b"))
	in.WidgetEditing = true
	c := Compute(in)
	if !c.CanGroup {
		t.Fatalf("canGroup is derived from the selection alone")
	}
	if c.Group || c.Ungroup || c.Link || c.StyleEdit || c.Comment {
		t.Fatalf("widget editing must hide group, link, style and comment: %+v", c)
	}
}

func TestComputeStyleEdit(t *testing.T) {
	a, b := styled("a"), styled("b")
	a.GroupID, b.GroupID = "g", "g"
	if c := Compute(baseInput(a, b)); !c.StyleEdit {
		t.Fatalf("a single selected group can be styled")
	}
	if c := Compute(baseInput(styled("x"), styled("y"))); c.StyleEdit {
		t.Fatalf("a loose multi-selection cannot be styled")
	}
	if c := Compute(baseInput(obj("plain"))); c.StyleEdit {
		t.Fatalf("an object without style has nothing to edit")
	}
	in := baseInput(styled("a"))
	in.StyleEditorDisabled = true
	if Compute(in).StyleEdit {
		t.Fatalf("disabled style editor")
	}
	in = baseInput(styled("a"))
	in.CanModify = false
	if c := Compute(in); c.StyleEdit || c.Delete || c.Calibrate {
		t.Fatalf("read-only subject: %+v", c)
	}
	crop := styled("c")
	crop.ToolName = annot.ToolCropPage
	if c := Compute(baseInput(crop)); c.StyleEdit || c.Comment || c.Link || !c.Crop {
		t.Fatalf("crop subject: %+v", c)
	}
}

func TestComputeComment(t *testing.T) {
	ft := obj("ft")
	ft.Kind = annot.KindFreeText
	in := baseInput(ft)
	in.FreeTextEditing = true
	if c := Compute(in); !c.Comment || !c.CommentInline {
		t.Fatalf("editable free text comments inline: %+v", c)
	}
	in.CanModifyContents = false
	if c := Compute(in); !c.Comment || c.CommentInline {
		t.Fatalf("locked free text goes to the notes panel: %+v", c)
	}
	in = baseInput(obj("a"))
	in.NotesPanelDisabled = true
	if Compute(in).Comment {
		t.Fatalf("disabled notes panel hides comment")
	}
	if Compute(baseInput(obj("a"), obj("b"))).Comment {
		t.Fatalf("multi-selection hides comment")
	}
}

func TestComputeKindSpecificActions(t *testing.T) {
	line := obj("l")
	line.Kind, line.Measure = annot.KindLine, true
	if !Compute(baseInput(line)).Calibrate {
		t.Fatalf("measurement line can be calibrated")
	}
	line.Measure = false
	if Compute(baseInput(line)).Calibrate {
		t.Fatalf("plain line cannot be calibrated")
	}

	file := obj("f")
	file.Kind = annot.KindFileAttachment
	if !Compute(baseInput(file)).Download {
		t.Fatalf("file attachment offers download")
	}

	red := obj("r")
	red.Kind = annot.KindRedaction
	in := baseInput(red, obj("x"))
	in.Redactable = true
	if Compute(in).Redact {
		t.Fatalf("redact requires a single selection")
	}
	in = baseInput(red)
	in.Redactable = true
	if !Compute(in).Redact {
		t.Fatalf("single redactable object")
	}

	nd := obj("nd")
	nd.NoDelete = true
	if Compute(baseInput(nd)).Delete {
		t.Fatalf("non-deletable object")
	}
}

func TestComputeLinkToggle(t *testing.T) {
	in := baseInput(obj("a"))
	in.HasLink = true
	if c := Compute(in); !c.Link || !c.Unlink {
		t.Fatalf("linked subject offers unlink: %+v", c)
	}
	for _, tool := range annot.DefaultLinkExcludedTools() {
		o := obj("a")
		o.ToolName = tool
		if Compute(baseInput(o)).Link {
			t.Fatalf("tool %s must not offer link", tool)
		}
	}
}
