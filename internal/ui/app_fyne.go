//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"image/color"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"annotview/internal/annot"
	"annotview/internal/crash"
	"annotview/internal/docstore"
	"annotview/internal/engine"
	"annotview/internal/geometry"
	applog "annotview/internal/log"
	"annotview/internal/overlay/proximity"
	"annotview/internal/overlay/selection"
	"annotview/internal/schedule"
	"annotview/internal/session"
	"annotview/internal/textlayout"
	"annotview/internal/uistate"
)

// Run opens the viewer window and blocks until it is closed.
func Run(opts Options) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	fyneApp := app.NewWithID("annotview")
	w := fyneApp.NewWindow("AnnotView")
	prefs := fyneApp.Preferences()
	w.Resize(fyne.NewSize(
		float32(max(prefs.IntWithFallback("window.width", 1280), 800)),
		float32(max(prefs.IntWithFallback("window.height", 800), 600)),
	))

	c := NewAnnotCanvas(opts)
	defer crash.Recover(crash.Options{Dir: opts.CrashDir, Dumper: c.sess})
	if opts.Document != "" {
		if err := c.Open(opts.Document); err != nil {
			return err
		}
		w.SetTitle("AnnotView - " + opts.Document)
	}

	status := widget.NewLabel("Ready")
	c.OnStatus = func(s string) { status.SetText(s) }
	notes := widget.NewCheck("Notes panel", func(on bool) {
		if on {
			c.sess.Store.Open(uistate.NotesPanel)
		} else {
			c.sess.Store.Close(uistate.NotesPanel)
		}
	})
	readOnly := widget.NewCheck("Read only", func(on bool) { c.sess.Engine.SetReadOnly(on) })
	undo := widget.NewButton("Undo", func() {
		if !c.sess.Engine.Undo(1) {
			status.SetText("Nothing to undo")
		}
	})
	toolbar := container.NewHBox(notes, readOnly, undo)

	w.SetContent(container.NewBorder(toolbar, status, nil, nil, c))
	w.SetOnClosed(func() {
		size := w.Canvas().Size()
		prefs.SetInt("window.width", int(size.Width))
		prefs.SetInt("window.height", int(size.Height))
		c.sess.Unmount()
	})
	w.ShowAndRun()
	return nil
}

// mainThread posts scheduler callbacks onto the Fyne event goroutine.
type mainThread struct{}

func (mainThread) Post(fn func()) bool {
	fyne.Do(fn)
	return true
}

// AnnotCanvas draws the document's annotations and both overlays. Taps and
// pointer moves are fed into the engine as pointer events.
type AnnotCanvas struct {
	widget.BaseWidget

	sess     *session.Session
	log      *slog.Logger
	viewport geometry.Size

	bar   *fyne.Container
	panel *widget.Label

	// dragging is set while a drag that started on the measurement panel
	// is moving it.
	dragging bool

	OnStatus func(string)
}

func NewAnnotCanvas(opts Options) *AnnotCanvas {
	c := &AnnotCanvas{
		log:   applog.WithComponent("ui"),
		bar:   container.NewHBox(),
		panel: widget.NewLabel(""),
	}
	c.sess = session.New(session.Options{
		Overlay: opts.Config.Overlay,
		Engine: engine.Options{
			User:            opts.Config.General.User,
			Admin:           opts.Config.General.Admin,
			FreeTextEditing: true,
		},
		Descriptors:       opts.Descriptors,
		Scheduler:         schedule.NewLoopScheduler(mainThread{}),
		ProximityMeasurer: textlayout.DefaultSizer(),
		OnAction:          opts.OnAction,
		OnChange:          c.overlaysChanged,
	})
	c.sess.Mount()
	c.ExtendBaseWidget(c)
	return c
}

// Open loads an annotation document file.
func (c *AnnotCanvas) Open(path string) error {
	doc, err := docstore.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	c.sess.Engine.Load(doc.Objects)
	c.log.Info("document opened", slog.String("path", path), slog.Int("objects", len(doc.Objects)))
	c.Refresh()
	return nil
}

func (c *AnnotCanvas) overlaysChanged() {
	sel := c.sess.Selection.Snapshot()
	buttons := make([]fyne.CanvasObject, 0, len(sel.Actions))
	for _, a := range sel.Actions {
		buttons = append(buttons, widget.NewButton(a.Title(), a.Activate))
	}
	if sel.Mode == selection.ModeStyleEditor && sel.Subject != nil {
		buttons = []fyne.CanvasObject{widget.NewLabel("Style: " + sel.Subject.ID)}
	}
	c.bar.Objects = buttons
	c.bar.Refresh()

	prox := c.sess.Proximity.Snapshot()
	text := ""
	for i, line := range proximity.InfoLines(prox) {
		if i > 0 {
			text += "\n"
		}
		text += line
	}
	c.panel.SetText(text)
	if c.OnStatus != nil {
		c.OnStatus(fmt.Sprintf("selection: %s", sel.Phase))
	}
	c.Refresh()
}

func toPt(p fyne.Position) geometry.Pt { return geometry.Pt{X: p.X, Y: p.Y} }

func (c *AnnotCanvas) Tapped(e *fyne.PointEvent) {
	c.sess.Engine.Click(engine.Pointer{Pos: toPt(e.Position)})
}

func (c *AnnotCanvas) MouseIn(e *desktop.MouseEvent) {}

func (c *AnnotCanvas) MouseMoved(e *desktop.MouseEvent) {
	c.sess.Engine.Move(engine.Pointer{Pos: toPt(e.Position)})
}

func (c *AnnotCanvas) MouseOut() {}

func (c *AnnotCanvas) Dragged(e *fyne.DragEvent) {
	prox := c.sess.Proximity.Snapshot()
	if !prox.Visible {
		return
	}
	if !c.dragging {
		start := e.Position.Subtract(e.Dragged)
		size := c.panel.MinSize()
		if !geometry.RectAt(prox.Position, geometry.Size{W: size.Width, H: size.Height}).Contains(toPt(start)) {
			return
		}
		c.dragging = true
	}
	next := geometry.Pt{X: prox.Position.X + e.Dragged.DX, Y: prox.Position.Y + e.Dragged.DY}
	c.sess.Proximity.Drag(next, "")
}

func (c *AnnotCanvas) DragEnd() { c.dragging = false }

func (c *AnnotCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})
	panelBg := canvas.NewRectangle(color.RGBA{R: 250, G: 250, B: 250, A: 235})
	panelBg.StrokeColor = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	panelBg.StrokeWidth = 1
	r := &annotCanvasRenderer{c: c, bg: bg, panelBg: panelBg}
	r.Layout(c.Size())
	return r
}

type annotCanvasRenderer struct {
	c       *AnnotCanvas
	bg      *canvas.Rectangle
	shapes  []*canvas.Rectangle
	panelBg *canvas.Rectangle
	objects []fyne.CanvasObject
}

func (r *annotCanvasRenderer) Destroy()                     {}
func (r *annotCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *annotCanvasRenderer) MinSize() fyne.Size           { return fyne.NewSize(800, 600) }
func (r *annotCanvasRenderer) Refresh()                     { r.Layout(r.c.Size()); canvas.Refresh(r.c) }

func (r *annotCanvasRenderer) Layout(size fyne.Size) {
	c := r.c
	if vp := (geometry.Size{W: size.Width, H: size.Height}); !vp.Empty() && vp != c.viewport {
		c.viewport = vp
		c.sess.Engine.Resize(vp)
	}
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))

	objs := c.sess.Engine.Objects()
	for len(r.shapes) < len(objs) {
		r.shapes = append(r.shapes, canvas.NewRectangle(color.Transparent))
	}
	r.shapes = r.shapes[:len(objs)]
	for i, o := range objs {
		b := c.sess.Engine.Bounds(o)
		rect := r.shapes[i]
		rect.FillColor = fillFor(o)
		rect.StrokeWidth = 1
		rect.StrokeColor = color.RGBA{R: 60, G: 60, B: 60, A: 255}
		if c.sess.Engine.IsSelected(o) {
			rect.StrokeWidth = 2
			rect.StrokeColor = color.RGBA{R: 0, G: 170, B: 255, A: 255}
		}
		rect.Move(fyne.NewPos(b.X, b.Y))
		rect.Resize(fyne.NewSize(b.W, b.H))
	}

	if c.sess.Selection.State().Phase != selection.Idle && len(c.bar.Objects) > 0 {
		bar := c.bar.MinSize()
		c.sess.Selection.Measured(geometry.Size{W: bar.Width, H: bar.Height})
	}
	sel := c.sess.Selection.Snapshot()
	c.bar.Hidden = !sel.Visible
	c.bar.Move(fyne.NewPos(sel.Position.X, sel.Position.Y))
	c.bar.Resize(c.bar.MinSize())

	prox := c.sess.Proximity.Snapshot()
	c.panel.Hidden = !prox.Visible
	r.panelBg.Hidden = !prox.Visible
	alpha := uint8(235)
	if prox.Transparent {
		alpha = 60
	}
	r.panelBg.FillColor = color.RGBA{R: 250, G: 250, B: 250, A: alpha}
	pos := fyne.NewPos(prox.Position.X, prox.Position.Y)
	c.panel.Move(pos)
	c.panel.Resize(c.panel.MinSize())
	r.panelBg.Move(pos)
	r.panelBg.Resize(c.panel.MinSize())

	r.objects = r.objects[:0]
	r.objects = append(r.objects, r.bg)
	for _, s := range r.shapes {
		r.objects = append(r.objects, s)
	}
	r.objects = append(r.objects, c.bar, r.panelBg, c.panel)
}

func fillFor(o *annot.Object) color.Color {
	a := uint8(o.Opacity * 120)
	switch o.Kind {
	case annot.KindRedaction:
		return color.RGBA{A: 200}
	case annot.KindTextHighlight:
		return color.RGBA{R: 255, G: 230, B: 0, A: a}
	case annot.KindCountMarker:
		return color.RGBA{R: 220, G: 60, B: 60, A: 200}
	}
	return color.RGBA{R: 220, G: 120, B: 120, A: a}
}
