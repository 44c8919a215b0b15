/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package preview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"annotview/internal/annot"
	"annotview/internal/geometry"
	"annotview/internal/overlay/proximity"
	"annotview/internal/overlay/selection"
)

// Renderer turns controller snapshots into terminal text.
type Renderer struct {
	styles *Styles
}

func NewRenderer(styles *Styles) *Renderer {
	if styles == nil {
		styles = NewStyles()
	}
	return &Renderer{styles: styles}
}

// Selection renders the action bar or style editor. It returns an empty
// string while the popup is hidden.
func (r *Renderer) Selection(s selection.Snapshot) string {
	if !s.Visible {
		return ""
	}
	return r.popup(s)
}

func (r *Renderer) popup(s selection.Snapshot) string {
	if s.Mode == selection.ModeStyleEditor {
		body := r.styles.Title.Render("Style") + "\n" + r.styles.Dim.Render(describe(s.Subject))
		return r.styles.Editor.Render(body)
	}
	if len(s.Actions) == 0 {
		return ""
	}
	buttons := make([]string, 0, len(s.Actions))
	for _, a := range s.Actions {
		buttons = append(buttons, r.styles.Button.Render(a.Title()))
	}
	return r.styles.Bar.Render(lipgloss.JoinHorizontal(lipgloss.Center, buttons...))
}

// Proximity renders the measurement panel. A transparent panel keeps its
// place but drops the border and is drawn faint.
func (r *Renderer) Proximity(s proximity.Snapshot) string {
	if !s.Visible {
		return ""
	}
	return r.panel(s)
}

func (r *Renderer) panel(s proximity.Snapshot) string {
	lines := proximity.InfoLines(s)
	if len(lines) == 0 {
		return ""
	}
	lines[0] = r.styles.Title.Render(lines[0])
	body := strings.Join(lines, "\n")
	if s.Transparent {
		return r.styles.Transparent.Render(body)
	}
	return r.styles.Panel.Render(body)
}

// Frame renders both overlays under headers with their screen positions.
func (r *Renderer) Frame(sel selection.Snapshot, prox proximity.Snapshot) string {
	var b strings.Builder
	b.WriteString(r.styles.Header.Render("selection") + " " + r.styles.Dim.Render(sel.Phase.String()))
	if out := r.Selection(sel); out != "" {
		b.WriteString(" " + r.styles.Dim.Render(at(sel.Position)) + "\n" + out)
	}
	b.WriteString("\n")
	b.WriteString(r.styles.Header.Render("measurement"))
	if out := r.Proximity(prox); out != "" {
		state := at(prox.Position)
		if prox.Transparent {
			state += " transparent"
		}
		b.WriteString(" " + r.styles.Dim.Render(state) + "\n" + out)
	} else {
		b.WriteString(" " + r.styles.Dim.Render("hidden"))
	}
	return b.String()
}

func describe(o *annot.Object) string {
	if o == nil {
		return ""
	}
	return fmt.Sprintf("%s %s", o.Kind, o.ID)
}

func at(p geometry.Pt) string {
	return fmt.Sprintf("@%g,%g", p.X, p.Y)
}
