/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package selection

import (
	"annotview/internal/engine"
	"annotview/internal/uistate"
)

// Exclusion marks a UI surface where a pointer-down does not count as a
// click outside the popup.
type Exclusion struct {
	ElementID string
	Matches   func(p engine.Pointer) bool
}

// DefaultExclusions covers the notes panel, which drives selection itself,
// and the warning dialog and color picker, which float over the popup.
func DefaultExclusions(store uistate.Store) []Exclusion {
	return []Exclusion{
		{
			ElementID: uistate.NotesPanel,
			Matches:   func(p engine.Pointer) bool { return p.Target == uistate.NotesPanel },
		},
		{
			ElementID: uistate.WarningDialog,
			Matches:   func(engine.Pointer) bool { return store.IsOpen(uistate.WarningDialog) },
		},
		{
			ElementID: uistate.ColorPicker,
			Matches:   func(engine.Pointer) bool { return store.IsOpen(uistate.ColorPicker) },
		},
	}
}

func excluded(list []Exclusion, p engine.Pointer) (string, bool) {
	for _, e := range list {
		if e.Matches != nil && e.Matches(p) {
			return e.ElementID, true
		}
	}
	return "", false
}
