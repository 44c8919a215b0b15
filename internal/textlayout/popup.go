/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"annotview/internal/geometry"
	"annotview/internal/overlay/proximity"
	"annotview/internal/overlay/selection"
)

// Sizer computes popup sizes in pixels.
type Sizer struct {
	Provider Provider
	Font     FontSpec
	// Padding is applied on every side of the popup and of each button.
	Padding float32
	// IconWidth is reserved in front of each button label.
	IconWidth float32
	// MaxPanelWidth wraps measurement panel lines; zero disables wrapping.
	MaxPanelWidth float32
}

// DefaultSizer matches the desktop theme.
func DefaultSizer() Sizer {
	return Sizer{Provider: BasicProvider{}, Padding: 6, IconWidth: 16, MaxPanelWidth: 240}
}

// ActionBar sizes a single row of buttons with the given titles.
func (s Sizer) ActionBar(titles []string) geometry.Size {
	if len(titles) == 0 {
		return geometry.Size{}
	}
	var w, lineH float32
	for _, t := range titles {
		tw, th := Measure(s.Provider, s.Font, t)
		w += s.IconWidth + tw + 2*s.Padding
		lineH = max(lineH, th)
	}
	return geometry.Size{W: w + 2*s.Padding, H: lineH + 4*s.Padding}
}

// Panel sizes a block of text lines.
func (s Sizer) Panel(lines []string) geometry.Size {
	var w, h float32
	for _, l := range lines {
		b := Wrap(s.Provider, s.Font, l, s.MaxPanelWidth)
		w = max(w, b.Width)
		h += b.Height
	}
	if h == 0 {
		return geometry.Size{}
	}
	return geometry.Size{W: w + 2*s.Padding, H: h + 2*s.Padding}
}

// PopupSize implements selection.Measurer. The style editor has a fixed
// minimum size since its content is drawn by the host.
func (s Sizer) PopupSize(snap selection.Snapshot) (geometry.Size, bool) {
	if snap.Mode == selection.ModeStyleEditor {
		return geometry.Size{W: 220, H: 180}, true
	}
	titles := make([]string, 0, len(snap.Actions))
	for _, a := range snap.Actions {
		titles = append(titles, a.Title())
	}
	size := s.ActionBar(titles)
	return size, !size.Empty()
}

// OverlaySize implements proximity.Measurer.
func (s Sizer) OverlaySize(snap proximity.Snapshot) (geometry.Size, bool) {
	size := s.Panel(proximity.InfoLines(snap))
	return size, !size.Empty()
}
