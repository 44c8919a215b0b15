/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout measures overlay text so that popups can be sized
// before they are drawn. All measurement sits behind Provider so tests and
// headless runs get deterministic metrics from basicfont.
package textlayout

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string
	SizePt float32
	Bold   bool
}

// Metrics are font metrics in pixels.
type Metrics struct {
	Ascent, Descent, LineGap float32
}

// LineHeight is the distance between two baselines.
func (m Metrics) LineHeight() float32 { return m.Ascent + m.Descent + m.LineGap }

// Provider maps a FontSpec to a face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider always resolves to basicfont.Face7x13.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	m := f.Metrics()
	return f, Metrics{
		Ascent:  float32(m.Ascent.Round()),
		Descent: float32(m.Descent.Round()),
		LineGap: float32(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

// Box is text broken into lines.
type Box struct {
	Lines  []string
	Width  float32
	Height float32
}

// Measure returns the advance width of s and the line height of spec.
func Measure(p Provider, spec FontSpec, s string) (w, h float32) {
	if p == nil {
		p = BasicProvider{}
	}
	face, met := p.Resolve(spec)
	return advance(&font.Drawer{Face: face}, s), met.Ascent + met.Descent
}

// Wrap breaks text on spaces and newlines so that no line is wider than
// maxWidth, except single words that do not fit on their own. A maxWidth
// of zero disables wrapping.
func Wrap(p Provider, spec FontSpec, text string, maxWidth float32) Box {
	if p == nil {
		p = BasicProvider{}
	}
	face, met := p.Resolve(spec)
	d := &font.Drawer{Face: face}
	space := advance(d, " ")
	var box Box
	flush := func(line string, w float32) {
		box.Lines = append(box.Lines, line)
		box.Width = max(box.Width, w)
		box.Height += met.LineHeight()
	}
	for _, para := range strings.Split(text, "\n") {
		var cur []string
		var curW float32
		for _, word := range strings.Fields(para) {
			w := advance(d, word)
			if len(cur) > 0 && maxWidth > 0 && curW+space+w > maxWidth {
				flush(strings.Join(cur, " "), curW)
				cur, curW = nil, 0
			}
			if len(cur) > 0 {
				curW += space
			}
			cur = append(cur, word)
			curW += w
		}
		flush(strings.Join(cur, " "), curW)
	}
	return box
}

func advance(d *font.Drawer, s string) float32 {
	return float32(d.MeasureString(s).Ceil())
}
