/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package plugin loads custom measurement panel descriptors from Lua files.
//
// A plugin file registers descriptors by calling overlay with a table:
//
//	overlay {
//	  name = "distance",
//	  props = { title = "Distance", unit = "mm" },
//	  validate = function(obj) return obj.key == "distanceMeasurement" end,
//	}
//
// The validate function receives a read-only view of the object with the
// fields id, kind, key, tool, page, measure, author, contents and custom
// (the raw custom data JSON). Only the base, table, string and math
// libraries are available.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"annotview/internal/annot"
	applog "annotview/internal/log"
	"annotview/internal/overlay/proximity"
)

// DefaultCallTimeout bounds a single validate call.
const DefaultCallTimeout = 50 * time.Millisecond

var (
	ErrNoDescriptors = errors.New("plugin: no overlay descriptors registered")
	ErrClosed        = errors.New("plugin: host closed")
)

// Host owns one Lua state and the descriptors registered in it.
type Host struct {
	mu      sync.Mutex
	L       *lua.LState
	timeout time.Duration
	log     *slog.Logger
	descs   []proximity.Descriptor
	closed  bool
}

type Option func(*Host)

// WithCallTimeout overrides DefaultCallTimeout.
func WithCallTimeout(d time.Duration) Option { return func(h *Host) { h.timeout = d } }

func NewHost(opts ...Option) *Host {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	h := &Host{L: L, timeout: DefaultCallTimeout, log: applog.WithComponent("plugin")}
	for _, o := range opts {
		o(h)
	}
	L.SetGlobal("overlay", L.NewFunction(h.register))
	return h
}

// Load creates a host and runs every file in paths. It fails with
// ErrNoDescriptors when the files register nothing.
func Load(paths ...string) (*Host, error) {
	h := NewHost()
	for _, p := range paths {
		if err := h.LoadFile(p); err != nil {
			h.Close()
			return nil, err
		}
	}
	if len(h.descs) == 0 {
		h.Close()
		return nil, ErrNoDescriptors
	}
	return h, nil
}

// LoadFile runs the Lua file at path.
func (h *Host) LoadFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read plugin %s: %w", path, err)
	}
	return h.LoadString(path, string(src))
}

// LoadString runs src; name is used in error messages.
func (h *Host) LoadString(name, src string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	before := len(h.descs)
	fn, err := h.L.Load(strings.NewReader(src), name)
	if err != nil {
		return fmt.Errorf("compile plugin %s: %w", name, err)
	}
	h.L.Push(fn)
	if err := h.call(0, 0); err != nil {
		h.descs = h.descs[:before]
		return fmt.Errorf("run plugin %s: %w", name, err)
	}
	h.log.Debug("plugin loaded", "name", name, "descriptors", len(h.descs)-before)
	return nil
}

// Descriptors returns the registered descriptors in registration order.
func (h *Host) Descriptors() []proximity.Descriptor {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]proximity.Descriptor(nil), h.descs...)
}

func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		h.L.Close()
	}
}

// call runs the function on top of the stack with a deadline.
func (h *Host) call(nargs, nret int) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	h.L.SetContext(ctx)
	defer h.L.RemoveContext()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return h.L.PCall(nargs, nret, nil)
}

func (h *Host) register(L *lua.LState) int {
	tbl := L.CheckTable(1)
	name := lua.LVAsString(tbl.RawGetString("name"))
	if name == "" {
		name = fmt.Sprintf("overlay-%d", len(h.descs)+1)
	}
	validate, ok := tbl.RawGetString("validate").(*lua.LFunction)
	if !ok {
		L.ArgError(1, "overlay "+name+": validate must be a function")
		return 0
	}
	props := map[string]any{}
	if pt, ok := tbl.RawGetString("props").(*lua.LTable); ok {
		if m, ok := toGo(pt).(map[string]any); ok {
			props = m
		}
	}
	h.descs = append(h.descs, proximity.Descriptor{
		Name:     name,
		Props:    props,
		Validate: h.validator(name, validate),
	})
	return 0
}

func (h *Host) validator(name string, fn *lua.LFunction) func(*annot.Object) bool {
	return func(o *annot.Object) bool {
		if o == nil {
			return false
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.closed {
			return false
		}
		h.L.Push(fn)
		h.L.Push(objectTable(h.L, o))
		if err := h.call(1, 1); err != nil {
			h.log.Debug("validate failed", "overlay", name, "id", o.ID, "err", err)
			return false
		}
		ret := h.L.Get(-1)
		h.L.Pop(1)
		return lua.LVAsBool(ret)
	}
}

func objectTable(L *lua.LState, o *annot.Object) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(o.ID))
	t.RawSetString("kind", lua.LString(o.Kind.String()))
	t.RawSetString("key", lua.LString(annot.Key(o)))
	t.RawSetString("tool", lua.LString(o.ToolName))
	t.RawSetString("page", lua.LNumber(o.Page))
	t.RawSetString("measure", lua.LBool(o.Measure))
	t.RawSetString("author", lua.LString(o.Author))
	t.RawSetString("contents", lua.LString(o.Contents))
	t.RawSetString("custom", lua.LString(o.CustomData))
	return t
}

// toGo converts a Lua value to plain Go values. Tables with only the keys
// 1..n become slices, other tables maps keyed by their string form.
func toGo(v lua.LValue) any {
	switch v := v.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if n := v.Len(); n > 0 && countKeys(v) == n {
			out := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				out = append(out, toGo(v.RawGetInt(i)))
			}
			return out
		}
		out := map[string]any{}
		v.ForEach(func(k, val lua.LValue) {
			out[k.String()] = toGo(val)
		})
		return out
	}
	return nil
}

func countKeys(t *lua.LTable) int {
	n := 0
	t.ForEach(func(lua.LValue, lua.LValue) { n++ })
	return n
}
