/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package schedule runs deferred callbacks on the event loop.
package schedule

import (
	"sort"
	"sync"
	"time"
)

// Timer is a pending callback.
type Timer interface {
	// Stop cancels the callback and reports whether it was still pending.
	Stop() bool
}

// Scheduler defers fn by d.
type Scheduler interface {
	After(d time.Duration, fn func()) Timer
}

// Poster runs a function on the event loop; engine.Loop satisfies it.
type Poster interface {
	Post(fn func()) bool
}

// LoopScheduler fires timers by posting their callback to a loop, so the
// callback runs between events like any other handler.
type LoopScheduler struct {
	loop Poster
}

func NewLoopScheduler(loop Poster) *LoopScheduler { return &LoopScheduler{loop: loop} }

type loopTimer struct {
	mu      sync.Mutex
	t       *time.Timer
	stopped bool
	fired   bool
}

func (s *LoopScheduler) After(d time.Duration, fn func()) Timer {
	lt := &loopTimer{}
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.t = time.AfterFunc(d, func() {
		s.loop.Post(func() {
			lt.mu.Lock()
			if lt.stopped {
				lt.mu.Unlock()
				return
			}
			lt.fired = true
			lt.mu.Unlock()
			fn()
		})
	})
	return lt
}

// Stop also suppresses a callback that was already posted but has not run.
func (lt *loopTimer) Stop() bool {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	if lt.stopped || lt.fired {
		return false
	}
	lt.stopped = true
	lt.t.Stop()
	return true
}

// Manual is a Scheduler driven by Advance, for tests and replays.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []*manualTimer
}

type manualTimer struct {
	m    *Manual
	at   time.Duration
	seq  int
	fn   func()
	done bool
}

func NewManual() *Manual { return &Manual{} }

func (m *Manual) After(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{m: m, at: m.now + d, seq: m.seq, fn: fn}
	m.pending = append(m.pending, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// Advance moves the clock forward by d and runs every due callback in
// deadline order on the calling goroutine. It returns the number run.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	m.now += d
	now := m.now
	m.mu.Unlock()
	n := 0
	for {
		t := m.popDue(now)
		if t == nil {
			return n
		}
		t.fn()
		n++
	}
}

func (m *Manual) popDue(now time.Duration) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	live := m.pending[:0]
	for _, t := range m.pending {
		if !t.done {
			live = append(live, t)
		}
	}
	m.pending = live
	sort.SliceStable(m.pending, func(i, j int) bool {
		if m.pending[i].at != m.pending[j].at {
			return m.pending[i].at < m.pending[j].at
		}
		return m.pending[i].seq < m.pending[j].seq
	})
	if len(m.pending) == 0 || m.pending[0].at > now {
		return nil
	}
	t := m.pending[0]
	t.done = true
	m.pending = m.pending[1:]
	return t
}

// Pending returns the number of callbacks not yet run or stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.pending {
		if !t.done {
			n++
		}
	}
	return n
}
