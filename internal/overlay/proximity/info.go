/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package proximity

import (
	"fmt"
	"math"
	"strconv"

	"annotview/internal/annot"
	"annotview/internal/geometry"
)

var keyTitles = map[string]string{
	annot.KeyCountMeasurement:     "Count",
	annot.KeyDistanceMeasurement:  "Distance",
	annot.KeyPerimeterMeasurement: "Perimeter",
	annot.KeyAreaMeasurement:      "Area",
	annot.KeyRectangularArea:      "Rectangular area",
	annot.KeyEllipseArea:          "Ellipse area",
}

// Title is the panel heading for a resolution. Custom views may set a
// "title" prop; otherwise the descriptor name is used.
func Title(r Resolution) string {
	if r.View == ViewCustom && r.Descriptor != nil {
		if t, ok := r.Descriptor.Props["title"].(string); ok && t != "" {
			return t
		}
		return r.Descriptor.Name
	}
	if t, ok := keyTitles[r.Key]; ok {
		return t
	}
	return r.Key
}

// InfoLines renders the derived info shown in the panel, one entry per line.
func InfoLines(s Snapshot) []string {
	o := s.Subject
	if o == nil {
		return nil
	}
	lines := []string{Title(s.View)}
	if s.Draft {
		lines[0] += " (drawing)"
	}
	w, h := geometry.FloatRound(o.Rect.W, 2), geometry.FloatRound(o.Rect.H, 2)
	switch s.View.Key {
	case annot.KeyDistanceMeasurement:
		lines = append(lines, "Length: "+num(max(w, h)))
	case annot.KeyRectangularArea, annot.KeyAreaMeasurement:
		lines = append(lines, "Area: "+num(w*h))
	case annot.KeyEllipseArea:
		lines = append(lines, "Area: "+num(geometry.FloatRound(math.Pi*w*h/4, 2)))
	case annot.KeyCountMeasurement:
	default:
		lines = append(lines, fmt.Sprintf("Size: %s x %s", num(w), num(h)))
	}
	if unit, ok := s.View.Descriptor.prop("unit"); ok {
		lines[len(lines)-1] += " " + unit
	}
	lines = append(lines, "Page "+strconv.Itoa(max(o.Page, 1)))
	if o.Contents != "" {
		lines = append(lines, o.Contents)
	}
	return lines
}

func (d *Descriptor) prop(key string) (string, bool) {
	if d == nil {
		return "", false
	}
	s, ok := d.Props[key].(string)
	return s, ok && s != ""
}

func num(v float32) string { return strconv.FormatFloat(float64(v), 'f', -1, 32) }
