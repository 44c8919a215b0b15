/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package replay drives scripted overlay sessions. A script is a YAML file
// holding a document and a list of steps; each step is one engine event,
// UI store change, clock advance, action activation or expectation.
package replay

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"annotview/internal/annot"
	"annotview/internal/geometry"
)

var ErrEmptyScript = errors.New("replay script has no steps")

// Script is the on-disk scenario format.
type Script struct {
	Name     string        `yaml:"name"`
	Viewport geometry.Size `yaml:"viewport"`
	User     string        `yaml:"user"`
	Admin    bool          `yaml:"admin"`
	ReadOnly bool          `yaml:"readOnly"`
	// Measurer is "pixels" (default) or "cells".
	Measurer string `yaml:"measurer"`
	// Document is a JSON annotation document, relative to the script.
	Document string          `yaml:"document"`
	Objects  []*annot.Object `yaml:"objects"`
	Plugins  []string        `yaml:"plugins"`
	Steps    []Step          `yaml:"steps"`

	dir string
}

// Point is a screen position, or the centre of object On when set.
type Point struct {
	X      float32 `yaml:"x"`
	Y      float32 `yaml:"y"`
	On     string  `yaml:"on"`
	Target string  `yaml:"target"`
	Touch  bool    `yaml:"touch"`
}

type Modify struct {
	ID       string  `yaml:"id"`
	DX       float32 `yaml:"dx"`
	DY       float32 `yaml:"dy"`
	Contents *string `yaml:"contents"`
}

type Tool struct {
	Name     string `yaml:"name"`
	DrawMode string `yaml:"drawMode"`
}

type Drag struct {
	X      float32 `yaml:"x"`
	Y      float32 `yaml:"y"`
	Region string  `yaml:"region"`
}

// Step holds exactly one instruction.
type Step struct {
	Select   []string       `yaml:"select"`
	Deselect []string       `yaml:"deselect"`
	Click    *Point         `yaml:"click"`
	Move     *Point         `yaml:"move"`
	Modify   *Modify        `yaml:"modify"`
	Delete   []string       `yaml:"delete"`
	Unload   bool           `yaml:"unload"`
	Resize   *geometry.Size `yaml:"resize"`
	Tool     *Tool          `yaml:"tool"`
	Draft    *annot.Object  `yaml:"draft"`
	Commit   bool           `yaml:"commit"`
	Activate string         `yaml:"activate"`
	Open     string         `yaml:"open"`
	Close    string         `yaml:"close"`
	Disable  string         `yaml:"disable"`
	Enable   string         `yaml:"enable"`
	ReadOnly *bool          `yaml:"readOnly"`
	Drag     *Drag          `yaml:"drag"`
	Advance  Duration       `yaml:"advance"`
	Undo     *int           `yaml:"undo"`
	Print    bool           `yaml:"print"`
	Expect   *Expect        `yaml:"expect"`
}

// Expect checks the overlay state; unset fields are not checked.
type Expect struct {
	Phase       string         `yaml:"phase"`
	Mode        string         `yaml:"mode"`
	Visible     *bool          `yaml:"visible"`
	Subject     *string        `yaml:"subject"`
	Actions     *[]string      `yaml:"actions"`
	Open        []string       `yaml:"open"`
	Closed      []string       `yaml:"closed"`
	Measurement *MeasureExpect `yaml:"measurement"`
}

type MeasureExpect struct {
	Visible     *bool        `yaml:"visible"`
	Transparent *bool        `yaml:"transparent"`
	Draft       *bool        `yaml:"draft"`
	Subject     *string      `yaml:"subject"`
	View        string       `yaml:"view"`
	Position    *geometry.Pt `yaml:"position"`
}

// Duration accepts Go duration strings such as "300ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*d = Duration(v)
	return nil
}

// Parse decodes a script. Unknown keys are rejected so typos in step names
// fail loudly.
func Parse(data []byte) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse replay script: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, ErrEmptyScript
	}
	return &s, nil
}

// Load reads a script file. Relative document and plugin paths resolve
// against the script's directory.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read replay script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	s.dir = filepath.Dir(path)
	if s.Name == "" {
		s.Name = filepath.Base(path)
	}
	return s, nil
}

func (s *Script) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || s.dir == "" {
		return p
	}
	return filepath.Join(s.dir, p)
}
