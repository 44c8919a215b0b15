/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"testing"

	"annotview/internal/annot"
	"annotview/internal/overlay/proximity"
	"annotview/internal/overlay/selection"
)

func TestWrapBreaksOnWidth(t *testing.T) {
	box := Wrap(BasicProvider{}, FontSpec{}, "Hello world from Go", 50)
	if len(box.Lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %q", box.Lines)
	}
	if box.Width <= 0 || box.Height <= 0 {
		t.Fatalf("expected positive box size: %+v", box)
	}
	one := Wrap(BasicProvider{}, FontSpec{}, "Hello world", 0)
	if len(one.Lines) != 1 || one.Lines[0] != "Hello world" {
		t.Fatalf("zero width must not wrap: %q", one.Lines)
	}
	nl := Wrap(BasicProvider{}, FontSpec{}, "a\nb", 0)
	if len(nl.Lines) != 2 {
		t.Fatalf("newline must break: %q", nl.Lines)
	}
}

func TestMeasureIsAdditive(t *testing.T) {
	w1, h1 := Measure(BasicProvider{}, FontSpec{}, "ABC")
	wa, _ := Measure(BasicProvider{}, FontSpec{}, "A")
	wbc, h2 := Measure(BasicProvider{}, FontSpec{}, "BC")
	if w1 != wa+wbc || h1 != h2 {
		t.Fatalf("basicfont is monospaced: %v != %v + %v", w1, wa, wbc)
	}
	if wa != 7 {
		t.Fatalf("Face7x13 advance = %v", wa)
	}
}

func TestSizerActionBar(t *testing.T) {
	s := DefaultSizer()
	if got := s.ActionBar(nil); !got.Empty() {
		t.Fatalf("no buttons should have no size, got %+v", got)
	}
	one := s.ActionBar([]string{"Delete"})
	two := s.ActionBar([]string{"Delete", "Comment"})
	if two.W <= one.W || two.H != one.H {
		t.Fatalf("buttons should grow the bar horizontally: %+v %+v", one, two)
	}
}

func TestSizerMeasurers(t *testing.T) {
	s := DefaultSizer()
	if _, ok := s.PopupSize(selection.Snapshot{}); ok {
		t.Fatalf("an empty action bar is not measurable")
	}
	size, ok := s.PopupSize(selection.Snapshot{Actions: []selection.Action{{ID: selection.ActionDelete, Label: "action.delete"}}})
	if !ok || size.Empty() {
		t.Fatalf("expected a size, got %+v %v", size, ok)
	}
	if sz, ok := s.PopupSize(selection.Snapshot{Mode: selection.ModeStyleEditor}); !ok || sz.Empty() {
		t.Fatalf("style editor has a fixed size")
	}
	line := &annot.Object{ID: "l", Kind: annot.KindLine, Measure: true, Contents: "a rather long note that should wrap inside the panel"}
	panel, ok := s.OverlaySize(proximity.Snapshot{Subject: line, View: proximity.Resolve(nil, line)})
	if !ok || panel.W > s.MaxPanelWidth+2*s.Padding {
		t.Fatalf("panel not wrapped: %+v %v", panel, ok)
	}
}
