/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package history keeps per-page undo/redo stacks of document changes made
// through the engine, such as deletes issued from the action bar.
package history

import (
	"sync"
	"time"
)

// Change is one reversible edit of a page. Before and After are opaque
// encodings of the page's objects around the edit; size is estimated as
// their combined length.
type Change struct {
	Page   int
	Label  string
	Before []byte
	After  []byte
	TS     time.Time
}

func (c Change) size() int { return len(c.Before) + len(c.After) }

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; older entries are pruned when exceeded.
	MaxBytes int
	// MaxPerPage limits the number of changes kept per page (0 means unlimited).
	MaxPerPage int
	// MinInterval merges a change into the previous one on the same page when
	// both carry the same label and arrive within the interval.
	MinInterval time.Duration
}

// Manager is safe for concurrent use.
type Manager struct {
	cfg  Config
	mu   sync.Mutex
	undo map[int][]Change
	redo map[int][]Change

	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 4 * 1024 * 1024
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	return &Manager{cfg: cfg, undo: make(map[int][]Change), redo: make(map[int][]Change)}
}

// Record pushes c and clears the page's redo stack. A change merged into its
// predecessor keeps the predecessor's Before.
func (m *Manager) Record(c Change) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[c.Page]
	m.dropRedoLocked(c.Page)
	if n := len(stack); n > 0 && m.cfg.MinInterval > 0 {
		last := stack[n-1]
		if last.Label == c.Label && c.TS.Sub(last.TS) < m.cfg.MinInterval {
			m.totalBytes -= last.size()
			c.Before = last.Before
			stack[n-1] = c
			m.totalBytes += c.size()
			m.enforceCapsLocked(c.Page)
			return
		}
	}
	m.undo[c.Page] = append(stack, c)
	m.totalBytes += c.size()
	m.enforceCapsLocked(c.Page)
}

// Undo pops the latest change of page and moves it to the redo stack.
func (m *Manager) Undo(page int) (Change, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[page]
	if len(stack) == 0 {
		return Change{}, false
	}
	c := stack[len(stack)-1]
	m.undo[page] = stack[:len(stack)-1]
	if len(m.undo[page]) == 0 {
		delete(m.undo, page)
	}
	m.redo[page] = append(m.redo[page], c)
	return c, true
}

// Redo pops from redo and pushes back to undo.
func (m *Manager) Redo(page int) (Change, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[page]
	if len(r) == 0 {
		return Change{}, false
	}
	c := r[len(r)-1]
	m.redo[page] = r[:len(r)-1]
	m.undo[page] = append(m.undo[page], c)
	m.enforceCapsLocked(page)
	return c, true
}

// Clear drops every page's history, e.g. when the document is unloaded.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = make(map[int][]Change)
	m.redo = make(map[int][]Change)
	m.totalBytes = 0
}

// ClearPage clears undo/redo stacks for a page.
func (m *Manager) ClearPage(page int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.undo[page] {
		m.totalBytes -= c.size()
	}
	m.dropRedoLocked(page)
	delete(m.undo, page)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics. Redo entries count towards
// totalBytes but not towards changes.
func (m *Manager) Stats() (totalBytes int, pages int, changes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pages = len(m.undo)
	for _, v := range m.undo {
		changes += len(v)
	}
	return m.totalBytes, pages, changes
}

func (m *Manager) dropRedoLocked(page int) {
	for _, c := range m.redo[page] {
		m.totalBytes -= c.size()
	}
	delete(m.redo, page)
}

func (m *Manager) enforceCapsLocked(page int) {
	if m.cfg.MaxPerPage > 0 {
		stack := m.undo[page]
		if len(stack) > m.cfg.MaxPerPage {
			toDrop := len(stack) - m.cfg.MaxPerPage
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= stack[i].size()
			}
			m.undo[page] = append([]Change{}, stack[toDrop:]...)
		}
	}
	// prune oldest across all pages
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes {
		oldestPage, found := 0, false
		var oldestTS time.Time
		for p, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if !found || stack[0].TS.Before(oldestTS) {
				oldestPage, oldestTS, found = p, stack[0].TS, true
			}
		}
		if !found {
			break
		}
		stack := m.undo[oldestPage]
		m.totalBytes -= stack[0].size()
		m.undo[oldestPage] = stack[1:]
		if len(m.undo[oldestPage]) == 0 {
			delete(m.undo, oldestPage)
		}
	}
}
