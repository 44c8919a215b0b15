/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package proximity

import "annotview/internal/annot"

// View is the face the measurement panel shows for its subject.
type View int

const (
	ViewGeneric View = iota
	ViewCustom
	ViewCount
)

func (v View) String() string {
	switch v {
	case ViewCustom:
		return "custom"
	case ViewCount:
		return "count"
	default:
		return "generic"
	}
}

// Descriptor is a host supplied custom view. Validate selects the objects
// it applies to; Props are handed to the renderer untouched.
type Descriptor struct {
	Name     string
	Validate func(o *annot.Object) bool
	Props    map[string]any
}

// Resolution is the outcome of view selection for one subject.
type Resolution struct {
	View View
	// Key is the measurement key of the subject, see annot.Key.
	Key string
	// Descriptor is set for ViewCustom.
	Descriptor *Descriptor
}

// Match returns the first descriptor whose Validate accepts o. Count
// markers never match a custom view.
func Match(descs []Descriptor, o *annot.Object) (*Descriptor, bool) {
	if o == nil || annot.Key(o) == annot.KeyCountMeasurement {
		return nil, false
	}
	for i := range descs {
		if descs[i].Validate != nil && descs[i].Validate(o) {
			return &descs[i], true
		}
	}
	return nil, false
}

// Resolve picks the view for o: a matching custom descriptor first, then the
// built-in count view, then the generic view.
func Resolve(descs []Descriptor, o *annot.Object) Resolution {
	r := Resolution{View: ViewGeneric, Key: annot.Key(o)}
	if d, ok := Match(descs, o); ok {
		r.View, r.Descriptor = ViewCustom, d
		return r
	}
	if r.Key == annot.KeyCountMeasurement {
		r.View = ViewCount
	}
	return r
}
