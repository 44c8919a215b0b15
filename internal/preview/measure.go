/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package preview

import (
	"github.com/charmbracelet/lipgloss"

	"annotview/internal/geometry"
	"annotview/internal/overlay/proximity"
	"annotview/internal/overlay/selection"
)

// CellMeasurer sizes popups from their rendered terminal cells. It lets a
// terminal session position overlays in cell units.
type CellMeasurer struct {
	Renderer *Renderer
	CellW    float32
	CellH    float32
}

// NewCellMeasurer measures in whole cells.
func NewCellMeasurer(r *Renderer) CellMeasurer {
	return CellMeasurer{Renderer: r, CellW: 1, CellH: 1}
}

// PopupSize implements selection.Measurer.
func (m CellMeasurer) PopupSize(s selection.Snapshot) (geometry.Size, bool) {
	return m.size(m.Renderer.popup(s))
}

// OverlaySize implements proximity.Measurer.
func (m CellMeasurer) OverlaySize(s proximity.Snapshot) (geometry.Size, bool) {
	return m.size(m.Renderer.panel(s))
}

func (m CellMeasurer) size(out string) (geometry.Size, bool) {
	if out == "" {
		return geometry.Size{}, false
	}
	return geometry.Size{
		W: float32(lipgloss.Width(out)) * m.CellW,
		H: float32(lipgloss.Height(out)) * m.CellH,
	}, true
}
