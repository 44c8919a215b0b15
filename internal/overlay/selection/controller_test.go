/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package selection

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"annotview/internal/annot"
	"annotview/internal/engine"
	"annotview/internal/geometry"
	"annotview/internal/schedule"
	"annotview/internal/uistate"
)

var popupSize = geometry.Size{W: 160, H: 32}

type fixedSize geometry.Size

func (f fixedSize) PopupSize(Snapshot) (geometry.Size, bool) { return geometry.Size(f), true }

type world struct {
	bus   *engine.Bus
	eng   *engine.Memory
	store *uistate.MemoryStore
	sched *schedule.Manual
	c     *Controller
	ran   []string
}

func newWorld(t *testing.T, objs ...*annot.Object) *world {
	t.Helper()
	return newWorldWith(t, Options{Measurer: fixedSize(popupSize)}, objs...)
}

func newWorldWith(t *testing.T, opts Options, objs ...*annot.Object) *world {
	t.Helper()
	w := &world{
		bus:   engine.NewBus(),
		store: uistate.NewMemoryStore(),
		sched: schedule.NewManual(),
	}
	w.eng = engine.NewMemory(w.bus, engine.DefaultOptions())
	w.eng.Load(objs)
	opts.OnAction = func(id string) { w.ran = append(w.ran, id) }
	w.c = New(w.eng, w.bus, w.store, w.sched, opts)
	w.c.Mount()
	t.Cleanup(w.c.Unmount)
	return w
}

func (w *world) action(t *testing.T, id string) Action {
	t.Helper()
	for _, a := range w.c.Actions() {
		if a.ID == id {
			return a
		}
	}
	t.Fatalf("action %s not offered, have %v", id, actionIDs(w.c.Actions()))
	return Action{}
}

func actionIDs(actions []Action) []string {
	ids := make([]string, 0, len(actions))
	for _, a := range actions {
		ids = append(ids, a.ID)
	}
	return ids
}

func rect(id string, x, y float32) *annot.Object {
	return &annot.Object{
		ID:      id,
		Kind:    annot.KindRectangle,
		Page:    1,
		Rect:    geometry.R(x, y, 50, 50),
		Opacity: 1,
		Style:   map[string]string{"stroke": "#e44"},
	}
}

func TestSelectOpensActionBar(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorld(t, a)
	require.False(t, w.c.Visible())

	w.eng.Select(a)

	snap := w.c.Snapshot()
	require.Equal(t, Open, snap.Phase)
	require.True(t, snap.Visible)
	require.Equal(t, ModeActionBar, snap.Mode)
	require.Equal(t, "a", snap.Subject.ID)
	require.True(t, snap.CanModify)
	require.Equal(t, []string{ActionComment, ActionStyleEdit, ActionDelete, ActionLink}, actionIDs(snap.Actions))
	require.Equal(t, geometry.Place(w.eng.Bounds(a), popupSize, w.eng.Viewport(), geometry.DefaultGap), snap.Position)
	require.True(t, w.store.IsOpen(uistate.ActionBar))
	require.False(t, w.store.IsOpen(uistate.StyleEditor))
}

func TestEmptySelectionIsNeverVisible(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorld(t, a)
	w.eng.Select(a)
	w.eng.Deselect(a)

	require.False(t, w.c.Visible())
	require.Equal(t, State{}, w.c.State())
	require.Equal(t, geometry.Pt{}, w.c.Snapshot().Position)
	require.Empty(t, w.c.Actions())
	require.False(t, w.store.IsOpen(uistate.ActionBar))
}

func TestDeselectingAnotherObjectKeepsPopup(t *testing.T) {
	a, b := rect("a", 100, 100), rect("b", 300, 100)
	w := newWorld(t, a, b)
	w.eng.Select(a, b)
	before := w.c.Snapshot()

	w.eng.Deselect(b)

	after := w.c.Snapshot()
	require.Equal(t, before.Phase, after.Phase)
	require.Equal(t, before.Position, after.Position)
	require.Same(t, before.Subject, after.Subject)
	require.True(t, after.Visible)
}

func TestSharedGroupOffersUngroup(t *testing.T) {
	a, b := rect("a", 100, 100), rect("b", 300, 100)
	a.Style, b.Style = nil, nil
	a.GroupID, b.GroupID = "g", "g"
	w := newWorld(t, a, b)

	w.eng.Select(a, b)

	caps := w.c.Capabilities()
	require.True(t, caps.CanUngroup)
	require.False(t, caps.CanGroup)
	require.Equal(t, []string{ActionUngroup, ActionDelete, ActionLink}, actionIDs(w.c.Actions()))
}

func TestStyledGroupCanBeStyled(t *testing.T) {
	a, b := rect("a", 100, 100), rect("b", 300, 100)
	a.GroupID, b.GroupID = "g", "g"
	w := newWorld(t, a, b)
	w.eng.Select(a, b)
	require.Contains(t, actionIDs(w.c.Actions()), ActionStyleEdit)

	loose1, loose2 := rect("x", 100, 300), rect("y", 300, 300)
	w2 := newWorld(t, loose1, loose2)
	w2.eng.Select(loose1, loose2)
	require.NotContains(t, actionIDs(w2.c.Actions()), ActionStyleEdit)
}

func TestGroupKeepsPopupOpen(t *testing.T) {
	a, b := rect("a", 100, 100), rect("b", 300, 100)
	w := newWorld(t, a, b)
	w.eng.Select(a, b)

	w.action(t, ActionGroup).Activate()

	require.Equal(t, Open, w.c.State().Phase)
	require.True(t, w.c.Visible())
	require.Equal(t, "a", a.GroupID)
	require.Equal(t, "a", b.GroupID)
	require.Contains(t, actionIDs(w.c.Actions()), ActionUngroup)

	w.action(t, ActionUngroup).Activate()
	require.Equal(t, Open, w.c.State().Phase)
	require.Empty(t, a.GroupID)
	require.Equal(t, []string{ActionGroup, ActionUngroup}, w.ran)
}

func TestDeleteClosesPopup(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorld(t, a)
	w.eng.Select(a)

	w.action(t, ActionDelete).Activate()

	require.Empty(t, w.eng.Objects())
	require.Equal(t, Idle, w.c.State().Phase)
	require.False(t, w.c.Visible())
	require.Equal(t, []string{ActionDelete}, w.ran)
}

func TestOutsideClickDismisses(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorld(t, a)
	w.eng.Select(a)

	w.bus.Publish(engine.PointerDown{Pointer: engine.Pointer{Pos: geometry.Pt{X: 900, Y: 600}}})

	require.Equal(t, Dismissed, w.c.State().Phase)
	require.Same(t, a, w.c.State().Subject)
	require.False(t, w.c.Visible())
	require.False(t, w.store.IsOpen(uistate.ActionBar))
	require.Equal(t, geometry.Pt{}, w.c.Snapshot().Position)
}

func TestClickInsidePopupIsNotOutside(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorld(t, a)
	w.eng.Select(a)
	pos := w.c.Snapshot().Position

	w.bus.Publish(engine.PointerDown{Pointer: engine.Pointer{Pos: geometry.Pt{X: pos.X + 5, Y: pos.Y + 5}}})
	require.Equal(t, Open, w.c.State().Phase)

	w.bus.Publish(engine.PointerDown{Pointer: engine.Pointer{Pos: geometry.Pt{X: 900, Y: 600}, Target: uistate.ActionBar}})
	require.Equal(t, Open, w.c.State().Phase)
}

func TestClickOnSelectedSubjectReopens(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorld(t, a)
	w.eng.Select(a)

	// The pointer-down lands outside the popup, the pointer-up on the subject.
	w.eng.Click(engine.Pointer{Pos: geometry.Pt{X: 110, Y: 110}})

	require.Equal(t, Open, w.c.State().Phase)
	require.True(t, w.c.Visible())
	require.True(t, w.eng.IsSelected(a))
}

func TestClickOnEmptyCanvasCloses(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorld(t, a)
	w.eng.Select(a)

	w.eng.Click(engine.Pointer{Pos: geometry.Pt{X: 900, Y: 600}})

	require.Equal(t, State{}, w.c.State())
	require.False(t, w.c.Visible())
}

func TestClickInNotesPanelKeepsPopup(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorld(t, a)
	w.store.Open(uistate.NotesPanel)
	w.eng.Select(a)

	w.eng.Click(engine.Pointer{Pos: geometry.Pt{X: 1200, Y: 300}, Target: uistate.NotesPanel})

	require.Equal(t, Open, w.c.State().Phase)
	require.True(t, w.c.Visible())
}

func TestFloatingDialogsKeepPopup(t *testing.T) {
	for _, id := range []string{uistate.WarningDialog, uistate.ColorPicker} {
		a := rect("a", 100, 100)
		w := newWorld(t, a)
		w.eng.Select(a)
		w.store.Open(id)

		w.bus.Publish(engine.PointerDown{Pointer: engine.Pointer{Pos: geometry.Pt{X: 900, Y: 600}}})

		require.Equal(t, Open, w.c.State().Phase, id)
	}
}

func TestCustomExclusion(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorldWith(t, Options{
		Measurer: fixedSize(popupSize),
		Exclusions: []Exclusion{{
			ElementID: "toolbar",
			Matches:   func(p engine.Pointer) bool { return p.Pos.Y < 40 },
		}},
	}, a)
	w.eng.Select(a)

	w.bus.Publish(engine.PointerDown{Pointer: engine.Pointer{Pos: geometry.Pt{X: 10, Y: 10}}})
	require.Equal(t, Open, w.c.State().Phase)

	w.bus.Publish(engine.PointerDown{Pointer: engine.Pointer{Pos: geometry.Pt{X: 10, Y: 700}, Target: uistate.NotesPanel}})
	require.Equal(t, Dismissed, w.c.State().Phase)
}

func TestUnloadResetsEverything(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorld(t, a)
	w.eng.Select(a)
	w.c.OpenStyleEditor()

	w.eng.Unload()

	snap := w.c.Snapshot()
	require.Equal(t, Idle, snap.Phase)
	require.Nil(t, snap.Subject)
	require.Equal(t, geometry.Pt{}, snap.Position)
	require.False(t, snap.Visible)
	require.False(t, snap.CanModify)
	require.False(t, w.store.IsOpen(uistate.ActionBar))
	require.False(t, w.store.IsOpen(uistate.StyleEditor))
}

func TestResizeResets(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorld(t, a)
	w.eng.Select(a)

	w.eng.Resize(geometry.Size{W: 800, H: 600})

	require.Equal(t, State{}, w.c.State())
}

func TestModifyRepositions(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorld(t, a)
	w.eng.Select(a)

	w.eng.Update(a, func(o *annot.Object) { o.Rect = geometry.R(400, 500, 80, 20) })

	require.Equal(t, Open, w.c.State().Phase)
	require.Equal(t, geometry.Place(w.eng.Bounds(a), popupSize, w.eng.Viewport(), geometry.DefaultGap), w.c.Snapshot().Position)
}

func TestUnmeasuredPopupWaits(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorldWith(t, Options{}, a)

	w.eng.Select(a)
	require.Equal(t, Positioning, w.c.State().Phase)
	require.False(t, w.c.Visible())

	w.c.Measured(geometry.Size{})
	require.Equal(t, Positioning, w.c.State().Phase)

	w.c.Measured(popupSize)
	require.Equal(t, Open, w.c.State().Phase)
	require.True(t, w.c.Visible())
}

func TestResizedPopupIsPlacedAgain(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorldWith(t, Options{}, a)
	w.eng.Select(a)
	w.c.Measured(popupSize)
	require.Equal(t, geometry.Place(w.eng.Bounds(a), popupSize, w.eng.Viewport(), geometry.DefaultGap), w.c.Snapshot().Position)

	wide := geometry.Size{W: 420, H: 32}
	w.c.Measured(wide)

	require.Equal(t, Open, w.c.State().Phase)
	require.Equal(t, geometry.Place(w.eng.Bounds(a), wide, w.eng.Viewport(), geometry.DefaultGap), w.c.Snapshot().Position)

	changes := 0
	w.c.opts.OnChange = func() { changes++ }
	w.c.Measured(wide)
	require.Zero(t, changes)
}

func TestNoActionsNoPopup(t *testing.T) {
	a := rect("a", 100, 100)
	a.Locked = true
	a.ToolName = annot.ToolSignature
	w := newWorld(t, a)
	w.store.Disable(uistate.NotesPanel)

	w.eng.Select(a)

	require.Empty(t, w.c.Actions())
	require.False(t, w.c.Visible())
	require.False(t, w.store.IsOpen(uistate.ActionBar))
}

func TestDisabledActionBarStaysHidden(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorld(t, a)
	w.store.Disable(uistate.ActionBar)

	w.eng.Select(a)

	require.False(t, w.c.Visible())
}

func TestDisabledActionIsSkipped(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorld(t, a)
	w.store.Disable(ActionDelete)

	w.eng.Select(a)

	require.NotContains(t, actionIDs(w.c.Actions()), ActionDelete)
}

func TestStyleEditorReplacesActionBar(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorld(t, a)
	w.eng.Select(a)

	w.action(t, ActionStyleEdit).Activate()

	snap := w.c.Snapshot()
	require.Equal(t, ModeStyleEditor, snap.Mode)
	require.True(t, snap.Visible)
	require.True(t, w.store.IsOpen(uistate.StyleEditor))

	w.c.Close()
	require.Equal(t, Dismissed, w.c.State().Phase)
	require.False(t, w.store.IsOpen(uistate.StyleEditor))

	w.eng.Deselect(a)
	w.eng.Select(a)
	require.Equal(t, ModeActionBar, w.c.Snapshot().Mode)
}

func TestFreshSelectionDropsPreviousPopup(t *testing.T) {
	a := rect("a", 100, 100)
	b := rect("b", 300, 300)
	b.Locked = true
	b.ToolName = annot.ToolSignature
	w := newWorld(t, a, b)
	w.store.Disable(uistate.NotesPanel)
	w.eng.Select(a)
	w.action(t, ActionStyleEdit).Activate()
	require.True(t, w.store.IsOpen(uistate.StyleEditor))
	require.NotEqual(t, geometry.Pt{}, w.c.Snapshot().Position)
	w.eng.SetWidgetEditing(true)

	w.eng.Select(b)

	snap := w.c.Snapshot()
	require.Equal(t, Positioning, snap.Phase)
	require.Equal(t, "b", snap.Subject.ID)
	require.Empty(t, snap.Actions)
	require.False(t, snap.Visible)
	require.Equal(t, geometry.Pt{}, snap.Position)
	require.False(t, w.store.IsOpen(uistate.StyleEditor))
	require.False(t, w.store.IsOpen(uistate.ActionBar))
}

func TestPermissionChangeRefreshesActions(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorld(t, a)
	w.eng.Select(a)
	require.Contains(t, actionIDs(w.c.Actions()), ActionDelete)

	w.eng.SetReadOnly(true)

	require.False(t, w.c.Snapshot().CanModify)
	require.NotContains(t, actionIDs(w.c.Actions()), ActionDelete)
	require.NotContains(t, actionIDs(w.c.Actions()), ActionStyleEdit)
}

func TestCommentOpensNotesPanel(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorld(t, a)
	w.store.Open(uistate.SearchPanel)
	w.eng.Select(a)

	w.action(t, ActionComment).Activate()

	require.True(t, w.store.IsOpen(uistate.NotesPanel))
	require.False(t, w.store.IsOpen(uistate.SearchPanel))
	require.Equal(t, 1, w.store.NoteEditRequests())
	require.Equal(t, Dismissed, w.c.State().Phase)
}

func TestCommentOnFreeTextEditsInline(t *testing.T) {
	ft := rect("ft", 100, 100)
	ft.Kind = annot.KindFreeText
	w := newWorld(t, ft)
	w.eng.Select(ft)

	w.action(t, ActionComment).Activate()

	require.Equal(t, "ft", w.eng.Editing())
	require.False(t, w.store.IsOpen(uistate.NotesPanel))
}

func TestCalibrateOpensDialog(t *testing.T) {
	line := rect("l", 100, 100)
	line.Kind, line.Measure = annot.KindLine, true
	w := newWorld(t, line)
	w.eng.Select(line)

	w.action(t, ActionCalibrate).Activate()

	require.True(t, w.store.IsOpen(uistate.CalibrationDialog))
	require.Equal(t, Dismissed, w.c.State().Phase)
}

func TestCropApplies(t *testing.T) {
	crop := rect("c", 100, 100)
	crop.ToolName = annot.ToolCropPage
	w := newWorld(t, crop)
	w.eng.Select(crop)
	require.Equal(t, []string{ActionCrop, ActionDelete}, actionIDs(w.c.Actions()))

	w.action(t, ActionCrop).Activate()

	r, ok := w.eng.Crop(1)
	require.True(t, ok)
	require.Equal(t, crop.Rect, r)
	require.Equal(t, Idle, w.c.State().Phase)
}

func TestRedactApplies(t *testing.T) {
	red := rect("r", 100, 100)
	red.Kind = annot.KindRedaction
	under := rect("u", 120, 120)
	w := newWorld(t, under, red)
	w.eng.Select(red)

	w.action(t, ActionRedact).Activate()

	require.Empty(t, w.eng.Objects())
	require.Len(t, w.eng.Redacted(1), 1)
	require.Equal(t, Idle, w.c.State().Phase)
}

func TestDownloadDelegatesToDoubleClick(t *testing.T) {
	file := rect("f", 100, 100)
	file.Kind = annot.KindFileAttachment
	bus := engine.NewBus()
	var clicked []string
	opts := engine.DefaultOptions()
	opts.OnDoubleClick = func(o *annot.Object) { clicked = append(clicked, o.ID) }
	eng := engine.NewMemory(bus, opts)
	eng.Load([]*annot.Object{file})
	c := New(eng, bus, uistate.NewMemoryStore(), schedule.NewManual(), Options{Measurer: fixedSize(popupSize)})
	c.Mount()
	defer c.Unmount()
	eng.Select(file)

	var download Action
	for _, a := range c.Actions() {
		if a.ID == ActionDownload {
			download = a
		}
	}
	require.NotNil(t, download.Activate)
	download.Activate()

	require.Equal(t, []string{"f"}, clicked)
	require.Equal(t, Dismissed, c.State().Phase)
}

func TestLinkDialogAndLinkEvents(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorld(t, a)
	w.eng.Select(a)
	require.False(t, w.c.Snapshot().HasLink)

	w.eng.Add(&annot.Object{ID: "lnk", Kind: annot.KindLink, Page: 1, Rect: geometry.R(0, 0, 10, 10)})
	require.True(t, w.c.Snapshot().HasLink)
	require.Equal(t, "icon-tool-unlink", w.action(t, ActionLink).Icon)
	require.Equal(t, Open, w.c.State().Phase)

	w.eng.Delete([]*annot.Object{{ID: "lnk"}})
	require.False(t, w.c.Snapshot().HasLink)

	w.action(t, ActionLink).Activate()
	require.True(t, w.store.IsOpen(uistate.LinkDialog))
	require.Equal(t, Dismissed, w.c.State().Phase)
}

func TestUnlinkTransparentHighlightDeletesPair(t *testing.T) {
	target := rect("t", 300, 300)
	other := rect("o", 500, 300)
	hl := rect("h", 100, 100)
	hl.Kind, hl.Opacity = annot.KindTextHighlight, 0
	require.NoError(t, hl.SetCustomData(annot.LinkIDKey, []string{"t", "o"}))
	w := newWorld(t, target, other, hl)
	w.eng.Select(hl)
	require.True(t, w.c.Snapshot().HasLink)

	w.action(t, ActionLink).Activate()

	require.Empty(t, w.eng.Objects())
	require.Equal(t, Idle, w.c.State().Phase)
	require.Equal(t, []string{ActionLink}, w.ran)
}

func TestMalformedLinkDataMeansNoLink(t *testing.T) {
	a := rect("a", 100, 100)
	require.NoError(t, a.SetCustomData(annot.LinkIDKey, "t"))
	w := newWorld(t, a)
	w.eng.Select(a)

	require.False(t, w.c.Snapshot().HasLink)
	require.Equal(t, "icon-tool-link", w.action(t, ActionLink).Icon)
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type unlinkCall struct {
	op  string
	ids []string
}

type recordingEngine struct {
	selected annot.Selection
	objects  map[string]*annot.Object
	calls    []unlinkCall
}

func (r *recordingEngine) Selected() annot.Selection { return r.selected }

func (r *recordingEngine) ObjectByID(id string) *annot.Object { return r.objects[id] }

func (r *recordingEngine) DeleteCustomData(o *annot.Object, key string) {
	r.calls = append(r.calls, unlinkCall{"clear", []string{o.ID}})
}

func (r *recordingEngine) Delete(objs []*annot.Object) {
	r.calls = append(r.calls, unlinkCall{"delete", annot.Selection(objs).IDs()})
}

func (r *recordingEngine) DeleteBatch(objs []*annot.Object, cascade bool) {
	op := "batch"
	if !cascade {
		op = "batch-flat"
	}
	r.calls = append(r.calls, unlinkCall{op, annot.Selection(objs).IDs()})
}

func TestUnlinkCallCounts(t *testing.T) {
	objects := map[string]*annot.Object{}
	for _, id := range []string{"t1", "t2", "t3", "t4"} {
		objects[id] = obj(id)
	}
	plain := obj("p")
	require.NoError(t, plain.SetCustomData(annot.LinkIDKey, []string{"t1", "t2"}))
	hl := obj("h")
	hl.Kind, hl.Opacity = annot.KindTextHighlight, 0
	require.NoError(t, hl.SetCustomData(annot.LinkIDKey, []string{"t3", "t4"}))
	eng := &recordingEngine{selected: annot.Selection{plain, hl}, objects: objects}

	Unlink(eng, discardLogger())

	require.Equal(t, []unlinkCall{
		{"clear", []string{"p"}},
		{"delete", []string{"t1"}},
		{"delete", []string{"t2"}},
		{"clear", []string{"h"}},
		{"batch", []string{"t3", "h"}},
		{"delete", []string{"t4"}},
	}, eng.calls)
}

func TestUnlinkSkipsUnresolvedTargets(t *testing.T) {
	a := obj("a")
	require.NoError(t, a.SetCustomData(annot.LinkIDKey, []string{"gone", "t"}))
	eng := &recordingEngine{selected: annot.Selection{a}, objects: map[string]*annot.Object{"t": obj("t")}}

	Unlink(eng, discardLogger())

	require.Equal(t, []unlinkCall{{"clear", []string{"a"}}, {"delete", []string{"t"}}}, eng.calls)
}

func TestUnlinkPairsOnlyTheStoredFirstSlot(t *testing.T) {
	hl := obj("h")
	hl.Kind, hl.Opacity = annot.KindTextHighlight, 0
	require.NoError(t, hl.SetCustomData(annot.LinkIDKey, []string{"", "x"}))
	eng := &recordingEngine{selected: annot.Selection{hl}, objects: map[string]*annot.Object{"x": obj("x")}}

	Unlink(eng, discardLogger())

	require.Equal(t, []unlinkCall{{"clear", []string{"h"}}, {"delete", []string{"x"}}}, eng.calls)
}

func TestConnectorLineOpensAfterDelay(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorld(t, a)
	w.store.Open(uistate.NotesPanel)

	w.eng.Select(a)
	require.Equal(t, 1, w.sched.Pending())
	w.sched.Advance(299 * time.Millisecond)
	require.False(t, w.store.IsOpen(uistate.ConnectorLine))

	w.sched.Advance(time.Millisecond)
	require.True(t, w.store.IsOpen(uistate.ConnectorLine))
}

func TestConnectorLineNeedsNotesPanel(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorld(t, a)

	w.eng.Select(a)

	require.Zero(t, w.sched.Pending())
}

func TestReselectCancelsConnectorLine(t *testing.T) {
	a, b := rect("a", 100, 100), rect("b", 300, 100)
	w := newWorld(t, a, b)
	w.store.Open(uistate.NotesPanel)

	w.eng.Select(a)
	w.sched.Advance(100 * time.Millisecond)
	w.eng.SelectOnly(b)
	require.Equal(t, 1, w.sched.Pending())

	require.Equal(t, 0, w.sched.Advance(200*time.Millisecond))
	require.False(t, w.store.IsOpen(uistate.ConnectorLine))
	require.Equal(t, 1, w.sched.Advance(100*time.Millisecond))
	require.True(t, w.store.IsOpen(uistate.ConnectorLine))
}

func TestDeselectCancelsConnectorLine(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorld(t, a)
	w.store.Open(uistate.NotesPanel)

	w.eng.Select(a)
	w.eng.Deselect(a)

	require.Zero(t, w.sched.Pending())
	w.sched.Advance(time.Second)
	require.False(t, w.store.IsOpen(uistate.ConnectorLine))
}

func TestConnectorLineRevalidatesAtFireTime(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorld(t, a)
	w.store.Open(uistate.NotesPanel)
	w.eng.Select(a)

	w.store.Close(uistate.NotesPanel)
	w.sched.Advance(time.Second)

	require.False(t, w.store.IsOpen(uistate.ConnectorLine))
}

func TestUnmountReleasesEverything(t *testing.T) {
	a := rect("a", 100, 100)
	bus := engine.NewBus()
	eng := engine.NewMemory(bus, engine.DefaultOptions())
	eng.Load([]*annot.Object{a})
	store := uistate.NewMemoryStore()
	store.Open(uistate.NotesPanel)
	sched := schedule.NewManual()
	c := New(eng, bus, store, sched, Options{Measurer: fixedSize(popupSize)})

	c.Mount()
	c.Mount()
	require.Equal(t, 7, bus.HandlerCount())
	eng.Select(a)
	require.True(t, c.Visible())

	c.Unmount()

	require.Zero(t, bus.HandlerCount())
	require.Zero(t, sched.Pending())
	require.Equal(t, State{}, c.State())
	require.False(t, store.IsOpen(uistate.ActionBar))

	eng.Deselect(a)
	eng.Select(a)
	require.Equal(t, Idle, c.State().Phase)
}

func TestActionsIgnoredWhenIdle(t *testing.T) {
	a := rect("a", 100, 100)
	w := newWorld(t, a)
	w.eng.Select(a)
	del := w.action(t, ActionDelete)
	w.eng.Deselect(a)

	del.Activate()

	require.Len(t, w.eng.Objects(), 1)
	require.Empty(t, w.ran)
}
