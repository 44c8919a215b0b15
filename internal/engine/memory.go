/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package engine

import (
	"encoding/json"
	"log/slog"
	"slices"
	"time"

	"annotview/internal/annot"
	"annotview/internal/geometry"
	"annotview/internal/history"
	applog "annotview/internal/log"
)

// Options configures a Memory engine.
type Options struct {
	Viewport geometry.Size
	PageSize geometry.Size
	PageGap  float32
	Zoom     float32
	Scroll   geometry.Pt

	User     string
	Admin    bool
	ReadOnly bool

	DisableRedaction bool
	FreeTextEditing  bool

	History history.Config
	// OnDoubleClick observes TriggerDoubleClick, e.g. to save an attachment.
	OnDoubleClick func(o *annot.Object)
}

// DefaultOptions returns a US-letter page layout in an 1280x800 viewport.
func DefaultOptions() Options {
	return Options{
		Viewport:        geometry.Size{W: 1280, H: 800},
		PageSize:        geometry.Size{W: 612, H: 792},
		PageGap:         16,
		Zoom:            1,
		FreeTextEditing: true,
	}
}

// Memory is an in-memory document engine. It is not safe for concurrent
// use; drive it from the Loop goroutine.
type Memory struct {
	bus  *Bus
	opts Options
	log  *slog.Logger
	now  func() time.Time

	objects  []*annot.Object
	selected annot.Selection

	tool     string
	drawMode string
	draft    *annot.Object
	widgets  bool
	editing  string

	crops    map[int]geometry.Rect
	redacted map[int][]geometry.Rect
	history  *history.Manager
}

func NewMemory(bus *Bus, opts Options) *Memory {
	def := DefaultOptions()
	if opts.Viewport.Empty() {
		opts.Viewport = def.Viewport
	}
	if opts.PageSize.Empty() {
		opts.PageSize = def.PageSize
	}
	if opts.Zoom <= 0 {
		opts.Zoom = 1
	}
	return &Memory{
		bus:      bus,
		opts:     opts,
		log:      applog.WithComponent("engine"),
		now:      time.Now,
		tool:     annot.ToolEdit,
		crops:    make(map[int]geometry.Rect),
		redacted: make(map[int][]geometry.Rect),
		history:  history.NewManager(opts.History),
	}
}

// Bus returns the bus the engine publishes on.
func (m *Memory) Bus() *Bus { return m.bus }

// Load replaces the document. Loading over an existing document unloads it first.
func (m *Memory) Load(objs []*annot.Object) {
	if len(m.objects) > 0 {
		m.Unload()
	}
	m.objects = make([]*annot.Object, 0, len(objs))
	for _, o := range objs {
		if o != nil {
			m.objects = append(m.objects, o)
		}
	}
	m.log.Debug("document loaded", "objects", len(m.objects))
}

// Unload drops the document and publishes DocumentUnloaded.
func (m *Memory) Unload() {
	m.objects = nil
	m.selected = nil
	m.draft = nil
	m.editing = ""
	clear(m.crops)
	clear(m.redacted)
	m.history.Clear()
	m.bus.Publish(DocumentUnloaded{})
}

// Objects returns the document's objects bottom-most first.
func (m *Memory) Objects() []*annot.Object { return slices.Clone(m.objects) }

// Add appends o on top of the z-order.
func (m *Memory) Add(o *annot.Object) {
	m.record(pagesOf(o), "add", func() { m.objects = append(m.objects, o) })
	m.bus.Publish(ObjectChanged{Objects: []*annot.Object{o}, Action: Add})
}

// Update applies fn to o and publishes a modify change.
func (m *Memory) Update(o *annot.Object, fn func(*annot.Object)) {
	if m.index(o) < 0 {
		return
	}
	cur := m.objects[m.index(o)]
	m.record(pagesOf(cur), "modify", func() { fn(cur) })
	m.bus.Publish(ObjectChanged{Objects: []*annot.Object{cur}, Action: Modify})
}

// SetTool switches the active tool; any draft is discarded.
func (m *Memory) SetTool(name, drawMode string) {
	m.tool, m.drawMode, m.draft = name, drawMode, nil
}

// SetDraft sets the active tool's uncommitted object.
func (m *Memory) SetDraft(o *annot.Object) { m.draft = o }

// CommitDraft adds the draft to the document.
func (m *Memory) CommitDraft() *annot.Object {
	d := m.draft
	if d == nil {
		return nil
	}
	m.draft = nil
	m.Add(d)
	return d
}

func (m *Memory) SetWidgetEditing(on bool) { m.widgets = on }

func (m *Memory) SetFreeTextEditing(on bool) { m.opts.FreeTextEditing = on }

// SetReadOnly toggles document-wide modify permission.
func (m *Memory) SetReadOnly(ro bool) {
	if m.opts.ReadOnly == ro {
		return
	}
	m.opts.ReadOnly = ro
	m.bus.Publish(PermissionChanged{})
}

// SetUser changes the current user and republishes permissions.
func (m *Memory) SetUser(user string, admin bool) {
	m.opts.User, m.opts.Admin = user, admin
	m.bus.Publish(PermissionChanged{})
}

// Resize changes the viewport and publishes WindowResized.
func (m *Memory) Resize(s geometry.Size) {
	m.opts.Viewport = s
	m.bus.Publish(WindowResized{Size: s})
}

// ScrollTo moves the visible area without publishing anything.
func (m *Memory) ScrollTo(p geometry.Pt) { m.opts.Scroll = p }

// Editing returns the id of the free text object in inline edit, if any.
func (m *Memory) Editing() string { return m.editing }

// Crop returns the crop applied to page, if any.
func (m *Memory) Crop(page int) (geometry.Rect, bool) {
	r, ok := m.crops[page]
	return r, ok
}

// Redacted returns the regions burned into page.
func (m *Memory) Redacted(page int) []geometry.Rect { return slices.Clone(m.redacted[page]) }

// Click simulates a primary click: pointer down, selection update, pointer up.
// Clicks landing on UI chrome (non-empty Target) leave the selection alone.
func (m *Memory) Click(p Pointer) {
	m.bus.Publish(PointerDown{p})
	if p.Target == "" {
		if o := m.ObjectAt(p); o != nil {
			if !m.IsSelected(o) {
				m.SelectOnly(o)
			}
		} else {
			m.DeselectAll()
		}
	}
	m.bus.Publish(PointerUp{p})
}

// Move publishes a pointer move.
func (m *Memory) Move(p Pointer) { m.bus.Publish(PointerMove{p}) }

// Queries

func (m *Memory) ObjectAt(p Pointer) *annot.Object {
	for i := len(m.objects) - 1; i >= 0; i-- {
		if m.Bounds(m.objects[i]).Contains(p.Pos) {
			return m.objects[i]
		}
	}
	return nil
}

func (m *Memory) Selected() annot.Selection { return slices.Clone(m.selected) }

func (m *Memory) IsSelected(o *annot.Object) bool { return m.selected.Contains(o) }

func (m *Memory) CanModify(o *annot.Object) bool {
	if o == nil || m.opts.ReadOnly || o.Locked {
		return false
	}
	return m.opts.Admin || o.Author == "" || m.opts.User == "" || o.Author == m.opts.User
}

func (m *Memory) CanModifyContents(o *annot.Object) bool {
	return m.CanModify(o) && !o.LockedContents
}

func (m *Memory) IsRedactable(o *annot.Object) bool {
	return o != nil && o.Kind == annot.KindRedaction && !m.opts.DisableRedaction
}

func (m *Memory) GroupCount(objs []*annot.Object) int { return annot.Selection(objs).GroupCount() }

func (m *Memory) ActiveToolName() string { return m.tool }

func (m *Memory) DrawMode() string { return m.drawMode }

func (m *Memory) DraftObject() *annot.Object { return m.draft }

func (m *Memory) ObjectByID(id string) *annot.Object {
	for _, o := range m.objects {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func (m *Memory) Bounds(o *annot.Object) geometry.Rect {
	if o == nil {
		return geometry.Rect{}
	}
	return m.pageToScreen(o.Page).ApplyRect(o.Rect)
}

func (m *Memory) pageToScreen(page int) geometry.Affine2D {
	if page < 1 {
		page = 1
	}
	pageTop := float32(page-1) * (m.opts.PageSize.H + m.opts.PageGap)
	z := m.opts.Zoom
	return geometry.Translate(-m.opts.Scroll.X, -m.opts.Scroll.Y).
		Mul(geometry.Scale(z, z)).
		Mul(geometry.Translate(0, pageTop))
}

func (m *Memory) Viewport() geometry.Size { return m.opts.Viewport }

func (m *Memory) FreeTextEditing() bool { return m.opts.FreeTextEditing }

func (m *Memory) WidgetEditing() bool { return m.widgets }

// Commands

func (m *Memory) Select(objs ...*annot.Object) {
	var added []*annot.Object
	for _, o := range objs {
		if o == nil || m.index(o) < 0 || m.selected.Contains(o) {
			continue
		}
		cur := m.objects[m.index(o)]
		m.selected = append(m.selected, cur)
		added = append(added, cur)
	}
	if len(added) > 0 {
		m.bus.Publish(ObjectSelected{Objects: added, Action: Selected})
	}
}

// SelectOnly replaces the selection with objs.
func (m *Memory) SelectOnly(objs ...*annot.Object) {
	var drop []*annot.Object
	for _, s := range m.selected {
		if !annot.Selection(objs).Contains(s) {
			drop = append(drop, s)
		}
	}
	m.Deselect(drop...)
	m.Select(objs...)
}

func (m *Memory) Deselect(objs ...*annot.Object) {
	var removed []*annot.Object
	kept := m.selected[:0:0]
	for _, s := range m.selected {
		if annot.Selection(objs).Contains(s) {
			removed = append(removed, s)
			continue
		}
		kept = append(kept, s)
	}
	m.selected = kept
	if len(removed) > 0 {
		m.bus.Publish(ObjectSelected{Objects: removed, Action: Deselected})
	}
}

func (m *Memory) DeselectAll() { m.Deselect(m.selected...) }

func (m *Memory) Delete(objs []*annot.Object) {
	m.remove(objs, false, "delete")
}

func (m *Memory) DeleteBatch(objs []*annot.Object, cascade bool) {
	m.remove(objs, cascade, "delete")
}

func (m *Memory) Group(primary *annot.Object, objs []*annot.Object) {
	if primary == nil || len(objs) < 2 {
		return
	}
	m.modify(objs, "group", func(o *annot.Object) { o.GroupID = primary.ID })
}

func (m *Memory) Ungroup(objs []*annot.Object) {
	m.modify(objs, "ungroup", func(o *annot.Object) { o.GroupID = "" })
}

func (m *Memory) DeleteCustomData(o *annot.Object, key string) {
	i := m.index(o)
	if i < 0 {
		return
	}
	cur := m.objects[i]
	m.record(pagesOf(cur), "customData", func() {
		if err := cur.DeleteCustomData(key); err != nil {
			m.log.Warn("delete custom data failed", "id", cur.ID, "key", key, "err", err)
		}
	})
}

func (m *Memory) TriggerDoubleClick(o *annot.Object) {
	if o == nil {
		return
	}
	switch o.Kind {
	case annot.KindFreeText:
		if m.opts.FreeTextEditing && m.CanModifyContents(o) {
			m.editing = o.ID
		}
	case annot.KindFileAttachment:
		m.log.Info("file attachment requested", "id", o.ID)
	default:
	}
	if m.opts.OnDoubleClick != nil {
		m.opts.OnDoubleClick(o)
	}
}

// ApplyCrop applies every crop-tool rectangle to its page and removes it.
func (m *Memory) ApplyCrop() {
	var crops []*annot.Object
	for _, o := range m.objects {
		if o.ToolName == annot.ToolCropPage {
			crops = append(crops, o)
		}
	}
	if len(crops) == 0 {
		return
	}
	for _, c := range crops {
		m.crops[c.Page] = c.Rect
	}
	m.remove(crops, false, "crop")
}

// ApplyRedactions removes the redaction objects and everything they overlap.
func (m *Memory) ApplyRedactions(objs []*annot.Object) {
	var victims []*annot.Object
	for _, r := range objs {
		if !m.IsRedactable(r) || m.index(r) < 0 {
			continue
		}
		m.redacted[r.Page] = append(m.redacted[r.Page], r.Rect)
		victims = append(victims, r)
		for _, o := range m.objects {
			if o.Page == r.Page && !annot.Same(o, r) && o.Rect.Intersects(r.Rect) {
				victims = append(victims, o)
			}
		}
	}
	m.remove(victims, false, "redact")
}

// Undo reverts the latest change on page.
func (m *Memory) Undo(page int) bool {
	c, ok := m.history.Undo(page)
	if ok {
		m.restore(page, c.Before)
	}
	return ok
}

// Redo reapplies the latest undone change on page.
func (m *Memory) Redo(page int) bool {
	c, ok := m.history.Redo(page)
	if ok {
		m.restore(page, c.After)
	}
	return ok
}

func (m *Memory) index(o *annot.Object) int {
	if o == nil {
		return -1
	}
	return slices.IndexFunc(m.objects, func(x *annot.Object) bool { return x.ID == o.ID })
}

func (m *Memory) modify(objs []*annot.Object, label string, fn func(*annot.Object)) {
	var changed []*annot.Object
	for _, o := range objs {
		if i := m.index(o); i >= 0 {
			changed = append(changed, m.objects[i])
		}
	}
	if len(changed) == 0 {
		return
	}
	m.record(pagesOf(changed...), label, func() {
		for _, o := range changed {
			fn(o)
		}
	})
	m.bus.Publish(ObjectChanged{Objects: changed, Action: Modify})
}

// remove deletes objs plus their replies, and their link targets when cascade is set.
func (m *Memory) remove(objs []*annot.Object, cascade bool, label string) {
	doomed := make(map[string]bool)
	var queue []*annot.Object
	for _, o := range objs {
		if i := m.index(o); i >= 0 {
			queue = append(queue, m.objects[i])
		}
	}
	for len(queue) > 0 {
		o := queue[0]
		queue = queue[1:]
		if doomed[o.ID] {
			continue
		}
		doomed[o.ID] = true
		for _, r := range m.objects {
			if r.InReplyTo == o.ID {
				queue = append(queue, r)
			}
		}
		if cascade {
			for _, id := range annot.LinkIDs(o) {
				if t := m.ObjectByID(id); t != nil {
					queue = append(queue, t)
				}
			}
		}
	}
	if len(doomed) == 0 {
		return
	}
	var gone []*annot.Object
	for _, o := range m.objects {
		if doomed[o.ID] {
			gone = append(gone, o)
		}
	}
	var unselect []*annot.Object
	for _, o := range gone {
		if m.selected.Contains(o) {
			unselect = append(unselect, o)
		}
	}
	m.Deselect(unselect...)
	m.record(pagesOf(gone...), label, func() {
		m.objects = slices.DeleteFunc(m.objects, func(o *annot.Object) bool { return doomed[o.ID] })
	})
	m.bus.Publish(ObjectChanged{Objects: gone, Action: Delete})
}

func pagesOf(objs ...*annot.Object) []int {
	var pages []int
	for _, o := range objs {
		if !slices.Contains(pages, o.Page) {
			pages = append(pages, o.Page)
		}
	}
	return pages
}

// record runs fn and stores one history change per affected page.
func (m *Memory) record(pages []int, label string, fn func()) {
	before := make(map[int][]byte, len(pages))
	for _, p := range pages {
		before[p] = m.encodePage(p)
	}
	fn()
	ts := m.now()
	for _, p := range pages {
		m.history.Record(history.Change{Page: p, Label: label, Before: before[p], After: m.encodePage(p), TS: ts})
	}
}

func (m *Memory) encodePage(page int) []byte {
	var objs []*annot.Object
	for _, o := range m.objects {
		if o.Page == page {
			objs = append(objs, o)
		}
	}
	b, err := json.Marshal(objs)
	if err != nil {
		m.log.Error("encode page failed", "page", page, "err", err)
		return nil
	}
	return b
}

func (m *Memory) restore(page int, blob []byte) {
	var objs []*annot.Object
	if err := json.Unmarshal(blob, &objs); err != nil {
		m.log.Error("decode page failed", "page", page, "err", err)
		return
	}
	m.DeselectAll()
	want := make(map[string]*annot.Object, len(objs))
	for _, o := range objs {
		want[o.ID] = o
	}
	var removed, modified, added []*annot.Object
	next := m.objects[:0:0]
	for _, o := range m.objects {
		if o.Page != page {
			next = append(next, o)
			continue
		}
		if w, ok := want[o.ID]; ok {
			next = append(next, w)
			modified = append(modified, w)
			delete(want, o.ID)
			continue
		}
		removed = append(removed, o)
	}
	for _, o := range objs {
		if _, ok := want[o.ID]; ok {
			next = append(next, o)
			added = append(added, o)
		}
	}
	m.objects = next
	if len(removed) > 0 {
		m.bus.Publish(ObjectChanged{Objects: removed, Action: Delete})
	}
	if len(added) > 0 {
		m.bus.Publish(ObjectChanged{Objects: added, Action: Add})
	}
	if len(modified) > 0 {
		m.bus.Publish(ObjectChanged{Objects: modified, Action: Modify})
	}
}
