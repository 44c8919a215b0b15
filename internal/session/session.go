/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package session wires a document engine, the UI store and both overlay
// controllers into one unit driven from a single goroutine.
package session

import (
	"fmt"
	"strings"

	"annotview/internal/config"
	"annotview/internal/engine"
	"annotview/internal/geometry"
	"annotview/internal/overlay/proximity"
	"annotview/internal/overlay/selection"
	"annotview/internal/schedule"
	"annotview/internal/uistate"
)

// Measurer sizes both overlays.
type Measurer interface {
	selection.Measurer
	proximity.Measurer
}

type Options struct {
	Overlay config.OverlayConfig
	Engine  engine.Options
	// Descriptors register custom measurement views.
	Descriptors []proximity.Descriptor
	// Scheduler defaults to a manual clock, see Session.Clock.
	Scheduler schedule.Scheduler
	Measurer  Measurer
	// SelectionMeasurer and ProximityMeasurer override Measurer per overlay.
	// A nil selection measurer leaves sizing to Selection.Measured.
	SelectionMeasurer selection.Measurer
	ProximityMeasurer proximity.Measurer
	OnAction          func(id string)
	OnChange          func()
}

type Session struct {
	Bus       *engine.Bus
	Engine    *engine.Memory
	Store     *uistate.MemoryStore
	Selection *selection.Controller
	Proximity *proximity.Controller
	// Clock is set when no Scheduler was given.
	Clock *schedule.Manual
}

func New(opts Options) *Session {
	bus := engine.NewBus()
	s := &Session{
		Bus:   bus,
		Store: uistate.NewMemoryStore(append(append([]string(nil), opts.Overlay.DisabledElements...), opts.Overlay.DisabledActions...)...),
	}
	s.Engine = engine.NewMemory(bus, opts.Engine)

	sched := opts.Scheduler
	if sched == nil {
		s.Clock = schedule.NewManual()
		sched = s.Clock
	}
	gap := opts.Overlay.PopupGap
	if gap <= 0 {
		gap = geometry.DefaultGap
	}
	var selMeasurer selection.Measurer
	var proxMeasurer proximity.Measurer
	if opts.Measurer != nil {
		selMeasurer, proxMeasurer = opts.Measurer, opts.Measurer
	}
	if opts.SelectionMeasurer != nil {
		selMeasurer = opts.SelectionMeasurer
	}
	if opts.ProximityMeasurer != nil {
		proxMeasurer = opts.ProximityMeasurer
	}
	s.Selection = selection.New(s.Engine, bus, s.Store, sched, selection.Options{
		ConnectorDelay:       opts.Overlay.ConnectorDelay(),
		LinkExcludedTools:    opts.Overlay.LinkExcludedTools,
		CommentExcludedTools: opts.Overlay.CommentExcludedTools,
		Measurer:             selMeasurer,
		Placer: func(a geometry.Rect, p, v geometry.Size) geometry.Pt {
			return geometry.Place(a, p, v, gap)
		},
		OnAction: opts.OnAction,
		OnChange: opts.OnChange,
	})
	s.Proximity = proximity.New(s.Engine, bus, s.Store, proximity.Options{
		Descriptors: opts.Descriptors,
		Measurer:    proxMeasurer,
		OnChange:    opts.OnChange,
	})
	return s
}

// Mount subscribes both controllers.
func (s *Session) Mount() {
	s.Selection.Mount()
	s.Proximity.Mount()
}

// Unmount detaches both controllers and resets them.
func (s *Session) Unmount() {
	s.Selection.Unmount()
	s.Proximity.Unmount()
}

// Action returns the visible action with id.
func (s *Session) Action(id string) (selection.Action, bool) {
	for _, a := range s.Selection.Snapshot().Actions {
		if a.ID == id {
			return a, true
		}
	}
	return selection.Action{}, false
}

// Activate runs the action bar button id.
func (s *Session) Activate(id string) error {
	a, ok := s.Action(id)
	if !ok {
		return fmt.Errorf("action %q is not available", id)
	}
	a.Activate()
	return nil
}

// CrashDump summarizes the overlay state for crash reports.
func (s *Session) CrashDump() string {
	var b strings.Builder
	sel := s.Selection.Snapshot()
	fmt.Fprintf(&b, "selection: phase=%s mode=%s visible=%t", sel.Phase, sel.Mode, sel.Visible)
	if sel.Subject != nil {
		fmt.Fprintf(&b, " subject=%s(%s)", sel.Subject.ID, sel.Subject.Kind)
	}
	ids := make([]string, 0, len(sel.Actions))
	for _, a := range sel.Actions {
		ids = append(ids, a.ID)
	}
	fmt.Fprintf(&b, " actions=[%s]\n", strings.Join(ids, " "))
	prox := s.Proximity.Snapshot()
	fmt.Fprintf(&b, "measurement: visible=%t transparent=%t view=%s", prox.Visible, prox.Transparent, prox.View.View)
	if prox.Subject != nil {
		fmt.Fprintf(&b, " subject=%s draft=%t", prox.Subject.ID, prox.Draft)
	}
	fmt.Fprintf(&b, "\nopen elements: %s", strings.Join(s.Store.OpenIDs(), " "))
	return b.String()
}
