/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package selection drives the action bar that follows the selected
// annotation. The Controller turns engine events into inputs for the pure
// Step function and carries out the resulting effects.
package selection

import (
	"log/slog"
	"time"

	"annotview/internal/annot"
	"annotview/internal/engine"
	"annotview/internal/geometry"
	applog "annotview/internal/log"
	"annotview/internal/schedule"
	"annotview/internal/uistate"
)

// Measurer reports the rendered popup size for a snapshot; ok is false
// until the popup has been laid out.
type Measurer interface {
	PopupSize(s Snapshot) (geometry.Size, bool)
}

// Placer positions a popup of size popup next to anchor within viewport.
type Placer func(anchor geometry.Rect, popup geometry.Size, viewport geometry.Size) geometry.Pt

// Options configures a Controller. Zero values pick the defaults.
type Options struct {
	ConnectorDelay       time.Duration
	LinkExcludedTools    []string
	CommentExcludedTools []string
	// Exclusions defaults to DefaultExclusions(store).
	Exclusions []Exclusion
	// Measurer is optional; without it the size reported through
	// Controller.Measured is used.
	Measurer Measurer
	// Placer defaults to geometry.Place with geometry.DefaultGap.
	Placer Placer
	// OnAction is called after an action button ran.
	OnAction func(id string)
	// OnChange is called after every state change.
	OnChange func()
}

// Snapshot is the derived state a view renders from.
type Snapshot struct {
	Phase     Phase
	Mode      Mode
	Visible   bool
	Position  geometry.Pt
	Subject   *annot.Object
	CanModify bool
	HasLink   bool
	Actions   []Action
}

// Controller is not safe for concurrent use; call it on the loop goroutine.
type Controller struct {
	eng   engine.Engine
	bus   engine.Subscriber
	store uistate.Store
	sched schedule.Scheduler
	opts  Options
	log   *slog.Logger

	state     State
	position  geometry.Pt
	size      geometry.Size
	measured  bool
	canModify bool
	hasLink   bool

	connector    schedule.Timer
	unsubscribes []func()
}

func New(eng engine.Engine, bus engine.Subscriber, store uistate.Store, sched schedule.Scheduler, opts Options) *Controller {
	if opts.ConnectorDelay <= 0 {
		opts.ConnectorDelay = 300 * time.Millisecond
	}
	if opts.LinkExcludedTools == nil {
		opts.LinkExcludedTools = annot.DefaultLinkExcludedTools()
	}
	if opts.CommentExcludedTools == nil {
		opts.CommentExcludedTools = annot.DefaultCommentExcludedTools()
	}
	if opts.Exclusions == nil {
		opts.Exclusions = DefaultExclusions(store)
	}
	if opts.Placer == nil {
		opts.Placer = func(a geometry.Rect, p, v geometry.Size) geometry.Pt {
			return geometry.Place(a, p, v, geometry.DefaultGap)
		}
	}
	return &Controller{
		eng:   eng,
		bus:   bus,
		store: store,
		sched: sched,
		opts:  opts,
		log:   applog.WithComponent("selection-overlay"),
	}
}

// Mount subscribes to the engine events. Mounting twice is a no-op.
func (c *Controller) Mount() {
	if c.unsubscribes != nil {
		return
	}
	c.unsubscribes = []func(){
		c.bus.Subscribe(engine.TopicObjectSelected, c.onSelected),
		c.bus.Subscribe(engine.TopicObjectChanged, c.onChanged),
		c.bus.Subscribe(engine.TopicPermissionChanged, func(engine.Event) { c.dispatch(PermissionsChanged{}) }),
		c.bus.Subscribe(engine.TopicDocumentUnloaded, func(engine.Event) { c.dispatch(Unloaded{}) }),
		c.bus.Subscribe(engine.TopicWindowResized, func(engine.Event) { c.dispatch(Resized{}) }),
		c.bus.Subscribe(engine.TopicPointerDown, c.onPointerDown),
		c.bus.Subscribe(engine.TopicPointerUp, c.onPointerUp),
	}
}

// Unmount removes every subscription made by Mount and resets the state.
func (c *Controller) Unmount() {
	for _, unsub := range c.unsubscribes {
		unsub()
	}
	c.unsubscribes = nil
	c.cancelConnector()
	if c.state.Phase != Idle {
		c.state = State{Phase: Idle}
		c.reset()
	}
}

func (c *Controller) onSelected(e engine.Event) {
	ev := e.(engine.ObjectSelected)
	if ev.Action == engine.Selected {
		c.dispatch(Selected{Objects: ev.Objects})
		return
	}
	c.dispatch(Deselected{Objects: ev.Objects})
}

func (c *Controller) onChanged(e engine.Event) {
	ev := e.(engine.ObjectChanged)
	selected := c.state.Subject != nil && c.eng.IsSelected(c.state.Subject)
	c.dispatch(Changed{Objects: ev.Objects, Action: ev.Action, SubjectSelected: selected})
}

func (c *Controller) onPointerDown(e engine.Event) {
	if c.state.Phase != Open && c.state.Phase != Positioning {
		return
	}
	p := e.(engine.PointerDown).Pointer
	if c.inside(p) {
		return
	}
	if id, ok := excluded(c.opts.Exclusions, p); ok {
		c.log.Debug("click on excluded surface", "element", id)
		return
	}
	c.dispatch(OutsideClick{})
}

func (c *Controller) inside(p engine.Pointer) bool {
	if p.Target == uistate.ActionBar || p.Target == uistate.StyleEditor {
		return true
	}
	return c.state.Phase == Open && c.measured && geometry.RectAt(c.position, c.size).Contains(p.Pos)
}

func (c *Controller) onPointerUp(e engine.Event) {
	if c.state.Phase == Idle {
		return
	}
	p := e.(engine.PointerUp).Pointer
	c.dispatch(PointerReleased{Hit: c.eng.ObjectAt(p)})
}

// OpenStyleEditor switches the open popup to the style editor.
func (c *Controller) OpenStyleEditor() { c.dispatch(StyleEditorRequested{}) }

// Close hides the popup as if an action had run.
func (c *Controller) Close() { c.dispatch(Dismiss{}) }

// Measured records the laid out popup size. It retries a pending placement
// and re-places an open popup whose size changed; an unchanged size is a
// no-op outside Positioning.
func (c *Controller) Measured(size geometry.Size) {
	measured := !size.Empty()
	if c.measured == measured && c.size == size && c.state.Phase != Positioning {
		return
	}
	c.size, c.measured = size, measured
	c.dispatch(Measured{})
}

func (c *Controller) dispatch(in Input) {
	prev := c.state
	t := Step(c.state, in)
	c.state = t.Next
	if prev.Phase != t.Next.Phase || !annot.Same(prev.Subject, t.Next.Subject) {
		c.log.Debug("transition", "from", prev.Phase.String(), "to", t.Next.Phase.String(), "input", inputName(in))
	}
	for _, eff := range t.Effects {
		c.run(eff)
	}
	c.notify()
}

func (c *Controller) notify() {
	if c.opts.OnChange != nil {
		c.opts.OnChange()
	}
}

func (c *Controller) run(eff Effect) {
	switch eff {
	case EffectPlace:
		c.place()
	case EffectReset:
		c.reset()
	case EffectHide:
		c.hide()
	case EffectRefreshPermission:
		c.canModify = c.eng.CanModify(c.state.Subject)
	case EffectRefreshLink:
		c.hasLink = annot.HasLinks(c.state.Subject)
	case EffectLinkAdded:
		c.hasLink = true
	case EffectLinkRemoved:
		c.hasLink = false
	case EffectScheduleConnector:
		c.scheduleConnector()
	}
}

func (c *Controller) place() {
	if c.state.Phase != Positioning {
		return
	}
	snap := c.snapshot()
	if snap.Mode == ModeActionBar && len(snap.Actions) == 0 {
		c.log.Debug("no actions for subject", "id", c.state.Subject.ID)
		return
	}
	size, ok := c.measure(snap)
	if !ok {
		c.log.Debug("popup not measured yet, placement deferred", "id", c.state.Subject.ID)
		return
	}
	c.size, c.measured = size, true
	c.position = c.opts.Placer(c.eng.Bounds(c.state.Subject), size, c.eng.Viewport())
	if c.state.StyleEditor {
		c.store.Open(uistate.StyleEditor)
	} else {
		c.store.Close(uistate.StyleEditor)
	}
	c.store.Open(uistate.ActionBar)
	next := Step(c.state, Placed{})
	c.state = next.Next
}

func (c *Controller) measure(s Snapshot) (geometry.Size, bool) {
	if c.opts.Measurer != nil {
		return c.opts.Measurer.PopupSize(s)
	}
	return c.size, c.measured
}

func (c *Controller) hide() {
	c.cancelConnector()
	c.store.Close(uistate.ActionBar)
	c.store.Close(uistate.StyleEditor)
	c.position = geometry.Pt{}
}

func (c *Controller) reset() {
	c.hide()
	c.canModify = false
	c.hasLink = false
}

func (c *Controller) scheduleConnector() {
	if c.sched == nil || !c.store.IsOpen(uistate.NotesPanel) {
		return
	}
	subject := c.state.Subject
	c.connector = c.sched.After(c.opts.ConnectorDelay, func() {
		c.connector = nil
		if c.state.Phase == Idle || !annot.Same(c.state.Subject, subject) || !c.eng.IsSelected(subject) {
			c.log.Debug("connector line skipped, subject changed", "id", subject.ID)
			return
		}
		if !c.store.IsOpen(uistate.NotesPanel) {
			return
		}
		c.store.Open(uistate.ConnectorLine)
	})
}

func (c *Controller) cancelConnector() {
	if c.connector != nil {
		c.connector.Stop()
		c.connector = nil
	}
}

// State returns the current tagged state.
func (c *Controller) State() State { return c.state }

// Visible reports whether the popup should be drawn.
func (c *Controller) Visible() bool { return c.snapshot().Visible }

// Actions returns the action bar buttons, computed fresh on every call.
func (c *Controller) Actions() []Action {
	if c.state.Phase == Idle {
		return nil
	}
	return c.buildActions(c.Capabilities())
}

// Capabilities evaluates the capability set for the current subject.
func (c *Controller) Capabilities() Capabilities {
	subject := c.state.Subject
	if subject == nil {
		return Capabilities{}
	}
	sel := c.eng.Selected()
	return Compute(CapabilityInput{
		Subject:              subject,
		Selection:            sel,
		GroupCount:           c.eng.GroupCount(sel),
		CanModify:            c.canModify,
		CanModifyContents:    c.eng.CanModifyContents(subject),
		Redactable:           c.eng.IsRedactable(subject),
		HasLink:              c.hasLink,
		FreeTextEditing:      c.eng.FreeTextEditing(),
		WidgetEditing:        c.eng.WidgetEditing(),
		NotesPanelDisabled:   c.store.IsDisabled(uistate.NotesPanel),
		StyleEditorDisabled:  c.store.IsDisabled(uistate.StyleEditor),
		LinkExcludedTools:    c.opts.LinkExcludedTools,
		CommentExcludedTools: c.opts.CommentExcludedTools,
	})
}

// Snapshot returns the derived state for rendering.
func (c *Controller) Snapshot() Snapshot { return c.snapshot() }

func (c *Controller) snapshot() Snapshot {
	s := Snapshot{
		Phase:     c.state.Phase,
		Mode:      c.state.Mode(),
		Position:  c.position,
		Subject:   c.state.Subject,
		CanModify: c.canModify,
		HasLink:   c.hasLink,
		Actions:   c.Actions(),
	}
	s.Visible = s.Phase == Open &&
		c.store.IsOpen(uistate.ActionBar) &&
		!c.store.IsDisabled(uistate.ActionBar) &&
		(s.Mode == ModeStyleEditor || len(s.Actions) > 0)
	return s
}

func inputName(in Input) string {
	switch in.(type) {
	case Selected:
		return "selected"
	case Deselected:
		return "deselected"
	case Changed:
		return "changed"
	case PointerReleased:
		return "pointerUp"
	case OutsideClick:
		return "outsideClick"
	case Unloaded:
		return "unloaded"
	case Resized:
		return "resized"
	case PermissionsChanged:
		return "permissions"
	case StyleEditorRequested:
		return "styleEditor"
	case Measured:
		return "measured"
	case Placed:
		return "placed"
	case Dismiss:
		return "dismiss"
	}
	return "unknown"
}
