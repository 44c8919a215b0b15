/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package uistate

import "testing"

func TestOpenCloseAndDisabled(t *testing.T) {
	s := NewMemoryStore(MeasurementOverlay)
	s.Open(ActionBar)
	if !s.IsOpen(ActionBar) {
		t.Fatalf("action bar should be open")
	}
	s.Open(MeasurementOverlay)
	if s.IsOpen(MeasurementOverlay) {
		t.Fatalf("disabled element must not open")
	}
	s.Close(ActionBar)
	if s.IsOpen(ActionBar) {
		t.Fatalf("action bar should be closed")
	}
	s.Enable(MeasurementOverlay)
	s.Open(MeasurementOverlay)
	if !s.IsOpen(MeasurementOverlay) {
		t.Fatalf("enabled element should open")
	}
	s.Disable(MeasurementOverlay)
	if s.IsOpen(MeasurementOverlay) || !s.IsDisabled(MeasurementOverlay) {
		t.Fatalf("disable must close the element")
	}
}

func TestListenersSeeOnlyRealChanges(t *testing.T) {
	s := NewMemoryStore()
	var got []Change
	stop := s.Listen(func(c Change) { got = append(got, c) })
	s.Open(NotesPanel)
	s.Open(NotesPanel)
	s.Close(SearchPanel)
	s.Close(NotesPanel)
	if len(got) != 2 || !got[0].Open || got[1].Open {
		t.Fatalf("unexpected changes: %+v", got)
	}
	stop()
	s.Open(NotesPanel)
	if len(got) != 2 {
		t.Fatalf("listener still called after removal")
	}
}

func TestOpenIDsSorted(t *testing.T) {
	s := NewMemoryStore()
	s.Open(SearchPanel)
	s.Open(ActionBar)
	ids := s.OpenIDs()
	if len(ids) != 2 || ids[0] != ActionBar {
		t.Fatalf("unexpected ids %v", ids)
	}
}
