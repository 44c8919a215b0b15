/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package proximity drives the measurement panel that floats near the
// pointer. It follows either a finalized measurement object or the draft
// object of the active tool, and fades out of the way while drawing.
package proximity

import (
	"log/slog"
	"slices"

	"annotview/internal/annot"
	"annotview/internal/engine"
	"annotview/internal/geometry"
	applog "annotview/internal/log"
	"annotview/internal/uistate"
)

// RegionInput is the region id of the panel's input controls. Drags that
// start there edit the input instead of moving the panel.
const RegionInput = "input"

// Measurer reports the rendered panel size; ok is false before layout.
type Measurer interface {
	OverlaySize(s Snapshot) (geometry.Size, bool)
}

type Options struct {
	// Descriptors are tried in order; the first match wins.
	Descriptors []Descriptor
	Measurer    Measurer
	// Origin is the panel position before the first drag.
	Origin geometry.Pt
	// InputRegions defaults to RegionInput.
	InputRegions []string
	OnChange     func()
}

// Snapshot is the derived state a view renders from.
type Snapshot struct {
	Subject     *annot.Object
	Draft       bool
	Visible     bool
	Position    geometry.Pt
	Transparent bool
	View        Resolution
	// Revision changes whenever the subject's derived info should be redrawn.
	Revision int
}

// Controller is not safe for concurrent use; call it on the loop goroutine.
type Controller struct {
	eng   engine.Queries
	bus   engine.Subscriber
	store uistate.Store
	opts  Options
	log   *slog.Logger

	subject     *annot.Object
	isDraft     bool
	position    geometry.Pt
	transparent bool
	revision    int
	size        geometry.Size
	measured    bool

	unsubscribes []func()
}

func New(eng engine.Queries, bus engine.Subscriber, store uistate.Store, opts Options) *Controller {
	if opts.InputRegions == nil {
		opts.InputRegions = []string{RegionInput}
	}
	return &Controller{
		eng:      eng,
		bus:      bus,
		store:    store,
		opts:     opts,
		log:      applog.WithComponent("proximity-overlay"),
		position: opts.Origin,
	}
}

// Mount subscribes to the engine events. Mounting twice is a no-op.
func (c *Controller) Mount() {
	if c.unsubscribes != nil {
		return
	}
	c.unsubscribes = []func(){
		c.bus.Subscribe(engine.TopicPointerMove, c.onPointerMove),
		c.bus.Subscribe(engine.TopicObjectChanged, c.onChanged),
		c.bus.Subscribe(engine.TopicObjectSelected, c.onSelected),
		c.bus.Subscribe(engine.TopicDocumentUnloaded, func(engine.Event) { c.Close() }),
	}
}

// Unmount removes every subscription made by Mount and closes the panel.
func (c *Controller) Unmount() {
	for _, unsub := range c.unsubscribes {
		unsub()
	}
	c.unsubscribes = nil
	c.Close()
}

func (c *Controller) onPointerMove(e engine.Event) {
	p := e.(engine.PointerMove).Pointer
	if c.subject != nil {
		inside := c.inside(p.Pos)
		var transparent bool
		if c.isDraft {
			transparent = inside && c.eng.DrawMode() != engine.DrawModeTwoClicks
		} else {
			transparent = inside && annot.Same(c.eng.ObjectAt(p), c.subject)
		}
		c.transparent = transparent
		c.revision++
		c.notify()
		return
	}
	draft := c.eng.DraftObject()
	if !c.qualifies(draft) {
		return
	}
	c.log.Debug("tracking draft", "tool", c.eng.ActiveToolName(), "key", annot.Key(draft))
	c.capture(draft, true)
}

func (c *Controller) qualifies(o *annot.Object) bool {
	_, ok := Match(c.opts.Descriptors, o)
	return ok
}

func (c *Controller) inside(p geometry.Pt) bool {
	size, ok := c.measure()
	if !ok {
		return false
	}
	return geometry.RectAt(c.position, size).Contains(p)
}

func (c *Controller) measure() (geometry.Size, bool) {
	if c.opts.Measurer != nil {
		if s, ok := c.opts.Measurer.OverlaySize(c.snapshot()); ok && !s.Empty() {
			return s, true
		}
		return geometry.Size{}, false
	}
	return c.size, c.measured
}

func (c *Controller) onChanged(e engine.Event) {
	if c.subject == nil {
		return
	}
	ev := e.(engine.ObjectChanged)
	switch ev.Action {
	case engine.Add:
		if ev.Only(c.subject) {
			c.log.Debug("draft committed, closing", "id", c.subject.ID)
			c.Close()
		}
	case engine.Modify:
		if ev.Only(c.subject) {
			c.revision++
			c.notify()
		}
	case engine.Delete:
		if ev.Includes(c.subject) {
			c.Close()
		}
	}
}

func (c *Controller) onSelected(e engine.Event) {
	ev := e.(engine.ObjectSelected)
	switch ev.Action {
	case engine.Selected:
		if len(ev.Objects) == 1 && (annot.IsMeasurement(ev.Objects[0]) || c.qualifies(ev.Objects[0])) {
			c.capture(ev.Objects[0], false)
			return
		}
		if c.subject != nil && !c.isDraft {
			c.Close()
		}
	case engine.Deselected:
		if c.subject != nil && !c.isDraft && ev.Includes(c.subject) {
			c.Close()
		}
	}
}

// SetSubject shows the panel for a finalized object. A nil object closes it.
func (c *Controller) SetSubject(o *annot.Object) {
	if o == nil {
		c.Close()
		return
	}
	c.capture(o, false)
}

func (c *Controller) capture(o *annot.Object, draft bool) {
	c.subject, c.isDraft = o, draft
	c.transparent = false
	c.revision++
	c.store.Open(uistate.MeasurementOverlay)
	c.notify()
}

// Close hides the panel and drops the subject. The dragged position is kept.
func (c *Controller) Close() {
	if c.subject == nil && !c.store.IsOpen(uistate.MeasurementOverlay) {
		return
	}
	c.subject, c.isDraft, c.transparent = nil, false, false
	c.store.Close(uistate.MeasurementOverlay)
	c.revision++
	c.notify()
}

// Drag moves the panel to pos. Drags that start on an input region are
// ignored and false is returned.
func (c *Controller) Drag(pos geometry.Pt, region string) bool {
	if slices.Contains(c.opts.InputRegions, region) {
		return false
	}
	c.position = pos
	c.notify()
	return true
}

// Measured records the laid out panel size.
func (c *Controller) Measured(size geometry.Size) {
	c.size, c.measured = size, !size.Empty()
}

func (c *Controller) notify() {
	if c.opts.OnChange != nil {
		c.opts.OnChange()
	}
}

func (c *Controller) Subject() *annot.Object { return c.subject }

func (c *Controller) Snapshot() Snapshot { return c.snapshot() }

func (c *Controller) snapshot() Snapshot {
	s := Snapshot{
		Subject:     c.subject,
		Draft:       c.isDraft,
		Position:    c.position,
		Transparent: c.transparent,
		Revision:    c.revision,
	}
	if c.subject != nil {
		s.View = Resolve(c.opts.Descriptors, c.subject)
		s.Visible = c.store.IsOpen(uistate.MeasurementOverlay) && !c.store.IsDisabled(uistate.MeasurementOverlay)
	}
	return s
}
