/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package uistate is the application-wide record of which named UI elements
// are open and which are disabled.
package uistate

import (
	"slices"
	"sync"
)

// Element ids.
const (
	ActionBar          = "annotationPopup"
	StyleEditor        = "annotationStylePopup"
	MeasurementOverlay = "measurementOverlay"
	NotesPanel         = "notesPanel"
	SearchPanel        = "searchPanel"
	LinkDialog         = "linkModal"
	CalibrationDialog  = "calibrationModal"
	ConnectorLine      = "annotationNoteConnectorLine"
	WarningDialog      = "warningModal"
	ColorPicker        = "ColorPickerModal"
)

// Store is the contract overlays use.
type Store interface {
	Open(id string)
	Close(id string)
	IsOpen(id string) bool
	IsDisabled(id string) bool
}

// Change is delivered to listeners after an element's state changes.
type Change struct {
	ID       string
	Open     bool
	Disabled bool
}

// MemoryStore is a concurrency-safe Store. Opening a disabled element is a no-op.
type MemoryStore struct {
	mu        sync.Mutex
	open      map[string]bool
	disabled  map[string]bool
	listeners map[int]func(Change)
	nextID    int
	// noteEdits counts requests to focus the note editor of the selected object.
	noteEdits int
}

func NewMemoryStore(disabled ...string) *MemoryStore {
	s := &MemoryStore{
		open:      make(map[string]bool),
		disabled:  make(map[string]bool),
		listeners: make(map[int]func(Change)),
	}
	for _, id := range disabled {
		s.disabled[id] = true
	}
	return s
}

func (s *MemoryStore) Open(id string) {
	s.set(id, func() bool {
		if s.disabled[id] || s.open[id] {
			return false
		}
		s.open[id] = true
		return true
	})
}

func (s *MemoryStore) Close(id string) {
	s.set(id, func() bool {
		if !s.open[id] {
			return false
		}
		delete(s.open, id)
		return true
	})
}

func (s *MemoryStore) IsOpen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open[id]
}

func (s *MemoryStore) IsDisabled(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabled[id]
}

// Disable closes id and keeps it closed until Enable.
func (s *MemoryStore) Disable(id string) {
	s.set(id, func() bool {
		if s.disabled[id] {
			return false
		}
		s.disabled[id] = true
		delete(s.open, id)
		return true
	})
}

func (s *MemoryStore) Enable(id string) {
	s.set(id, func() bool {
		if !s.disabled[id] {
			return false
		}
		delete(s.disabled, id)
		return true
	})
}

// OpenIDs returns the open element ids in sorted order.
func (s *MemoryStore) OpenIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.open))
	for id := range s.open {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// RequestNoteEditing asks the notes panel to focus the selected object's note.
func (s *MemoryStore) RequestNoteEditing() {
	s.mu.Lock()
	s.noteEdits++
	s.mu.Unlock()
}

// NoteEditRequests returns how often RequestNoteEditing was called.
func (s *MemoryStore) NoteEditRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.noteEdits
}

// Listen registers fn for state changes and returns its removal function.
// fn runs without the store lock held.
func (s *MemoryStore) Listen(fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *MemoryStore) set(id string, mutate func() bool) {
	s.mu.Lock()
	if !mutate() {
		s.mu.Unlock()
		return
	}
	c := Change{ID: id, Open: s.open[id], Disabled: s.disabled[id]}
	fns := make([]func(Change), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}
