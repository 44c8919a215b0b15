/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package preview renders the overlays as terminal text so scripted sessions
// can be inspected without a desktop front-end.
package preview

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles of every overlay element.
type Styles struct {
	Header      lipgloss.Style
	Bar         lipgloss.Style
	Button      lipgloss.Style
	Editor      lipgloss.Style
	Panel       lipgloss.Style
	Transparent lipgloss.Style
	Title       lipgloss.Style
	Dim         lipgloss.Style
}

// NewStyles returns the default palette.
func NewStyles() *Styles {
	return &Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		Bar: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")),
		Button: lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("252")),
		Editor: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1),
		Transparent: lipgloss.NewStyle().
			Border(lipgloss.HiddenBorder()).
			Padding(0, 1).
			Faint(true),
		Title: lipgloss.NewStyle().Bold(true),
		Dim:   lipgloss.NewStyle().Faint(true),
	}
}
