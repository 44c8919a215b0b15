/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package replay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"annotview/internal/annot"
	"annotview/internal/config"
	"annotview/internal/docstore"
	"annotview/internal/engine"
	"annotview/internal/geometry"
	applog "annotview/internal/log"
	"annotview/internal/plugin"
	"annotview/internal/preview"
	"annotview/internal/session"
	"annotview/internal/textlayout"
)

// Options configure a run.
type Options struct {
	Overlay config.OverlayConfig
	// Out receives printed frames; nil discards them.
	Out io.Writer
	// OnAction observes activated actions, e.g. telemetry.
	OnAction func(id string)
}

// StepError reports the failing step.
type StepError struct {
	Script string
	Index  int
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: step %d: %v", e.Script, e.Index+1, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Result summarizes a finished run.
type Result struct {
	Steps   int
	Checks  int
	Actions []string
}

type runner struct {
	script   *Script
	sess     *session.Session
	renderer *preview.Renderer
	out      io.Writer
	log      *slog.Logger
	res      Result
}

// Run plays the script against a fresh in-memory session.
func Run(ctx context.Context, s *Script, opts Options) (Result, error) {
	l := applog.WithOperation(applog.WithComponent("replay"), "run")

	r := &runner{
		script:   s,
		renderer: preview.NewRenderer(nil),
		out:      opts.Out,
		log:      l.With("script", s.Name),
	}
	if r.out == nil {
		r.out = io.Discard
	}

	sessOpts := session.Options{
		Overlay: opts.Overlay,
		Engine: engine.Options{
			Viewport:        s.Viewport,
			User:            s.User,
			Admin:           s.Admin,
			ReadOnly:        s.ReadOnly,
			FreeTextEditing: true,
		},
		Measurer: textlayout.DefaultSizer(),
		OnAction: func(id string) {
			r.res.Actions = append(r.res.Actions, id)
			if opts.OnAction != nil {
				opts.OnAction(id)
			}
		},
	}
	switch s.Measurer {
	case "", "pixels":
	case "cells":
		sessOpts.Measurer = preview.NewCellMeasurer(r.renderer)
	default:
		return r.res, fmt.Errorf("%s: unknown measurer %q", s.Name, s.Measurer)
	}

	plugins := append(slices.Clone(opts.Overlay.PluginFiles), s.Plugins...)
	if len(plugins) > 0 {
		for i, p := range plugins {
			plugins[i] = s.resolve(p)
		}
		host, err := plugin.Load(plugins...)
		if err != nil {
			return r.res, fmt.Errorf("%s: %w", s.Name, err)
		}
		defer host.Close()
		sessOpts.Descriptors = host.Descriptors()
	}

	objs, err := r.objects()
	if err != nil {
		return r.res, err
	}

	r.sess = session.New(sessOpts)
	r.sess.Engine.Load(objs)
	r.sess.Mount()
	defer r.sess.Unmount()
	r.log.Debug("replay started", "objects", len(objs), "steps", len(s.Steps))

	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return r.res, err
		}
		if err := r.step(i, st); err != nil {
			return r.res, &StepError{Script: s.Name, Index: i, Err: err}
		}
		r.res.Steps++
	}
	r.log.Debug("replay finished", "steps", r.res.Steps, "checks", r.res.Checks)
	return r.res, nil
}

func (r *runner) objects() ([]*annot.Object, error) {
	var objs []*annot.Object
	if r.script.Document != "" {
		doc, err := docstore.ReadFile(r.script.resolve(r.script.Document))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.script.Name, err)
		}
		objs = append(objs, doc.Objects...)
	}
	return append(objs, r.script.Objects...), nil
}

func (r *runner) object(id string) (*annot.Object, error) {
	o := r.sess.Engine.ObjectByID(id)
	if o == nil {
		return nil, fmt.Errorf("unknown object %q", id)
	}
	return o, nil
}

func (r *runner) objectList(ids []string) ([]*annot.Object, error) {
	out := make([]*annot.Object, 0, len(ids))
	for _, id := range ids {
		o, err := r.object(id)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *runner) pointer(p Point) (engine.Pointer, error) {
	pos := geometry.Pt{X: p.X, Y: p.Y}
	if p.On != "" {
		o, err := r.object(p.On)
		if err != nil {
			return engine.Pointer{}, err
		}
		b := r.sess.Engine.Bounds(o)
		pos = geometry.Pt{X: b.X + b.W/2, Y: b.Y + b.H/2}
	}
	return engine.Pointer{Pos: pos, Target: p.Target, Touch: p.Touch}, nil
}

func (r *runner) step(i int, st Step) error {
	eng := r.sess.Engine
	switch {
	case st.Select != nil:
		objs, err := r.objectList(st.Select)
		if err != nil {
			return err
		}
		eng.Select(objs...)
	case st.Deselect != nil:
		objs, err := r.objectList(st.Deselect)
		if err != nil {
			return err
		}
		eng.Deselect(objs...)
	case st.Click != nil:
		p, err := r.pointer(*st.Click)
		if err != nil {
			return err
		}
		eng.Click(p)
	case st.Move != nil:
		p, err := r.pointer(*st.Move)
		if err != nil {
			return err
		}
		eng.Move(p)
	case st.Modify != nil:
		o, err := r.object(st.Modify.ID)
		if err != nil {
			return err
		}
		m := *st.Modify
		eng.Update(o, func(o *annot.Object) {
			o.Rect.X += m.DX
			o.Rect.Y += m.DY
			if m.Contents != nil {
				o.Contents = *m.Contents
			}
		})
	case st.Delete != nil:
		objs, err := r.objectList(st.Delete)
		if err != nil {
			return err
		}
		eng.Delete(objs)
	case st.Unload:
		eng.Unload()
	case st.Resize != nil:
		eng.Resize(*st.Resize)
	case st.Tool != nil:
		eng.SetTool(st.Tool.Name, st.Tool.DrawMode)
	case st.Draft != nil:
		eng.SetDraft(st.Draft)
	case st.Commit:
		if eng.CommitDraft() == nil {
			return fmt.Errorf("no draft to commit")
		}
	case st.Activate != "":
		return r.sess.Activate(st.Activate)
	case st.Open != "":
		r.sess.Store.Open(st.Open)
	case st.Close != "":
		r.sess.Store.Close(st.Close)
	case st.Disable != "":
		r.sess.Store.Disable(st.Disable)
	case st.Enable != "":
		r.sess.Store.Enable(st.Enable)
	case st.ReadOnly != nil:
		eng.SetReadOnly(*st.ReadOnly)
	case st.Drag != nil:
		r.sess.Proximity.Drag(geometry.Pt{X: st.Drag.X, Y: st.Drag.Y}, st.Drag.Region)
	case st.Advance > 0:
		if r.sess.Clock == nil {
			return fmt.Errorf("advance needs the manual clock")
		}
		r.sess.Clock.Advance(time.Duration(st.Advance))
	case st.Undo != nil:
		if !eng.Undo(*st.Undo) {
			return fmt.Errorf("nothing to undo on page %d", *st.Undo)
		}
	case st.Print:
		r.print(i)
	case st.Expect != nil:
		r.res.Checks++
		return r.check(*st.Expect)
	default:
		return fmt.Errorf("empty step")
	}
	return nil
}

func (r *runner) print(i int) {
	frame := r.renderer.Frame(r.sess.Selection.Snapshot(), r.sess.Proximity.Snapshot())
	_, _ = fmt.Fprintf(r.out, "-- %s step %d --\n%s\n", r.script.Name, i+1, frame)
}
