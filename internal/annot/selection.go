/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package annot

// SelectionState is the cardinality class of a selection.
type SelectionState int

const (
	SelectionNone SelectionState = iota
	SelectionSingle
	SelectionMultiple
)

// Selection is an ordered set of selected objects.
type Selection []*Object

func (s Selection) Count() int { return len(s) }

func (s Selection) State() SelectionState {
	switch {
	case len(s) == 0:
		return SelectionNone
	case len(s) == 1:
		return SelectionSingle
	default:
		return SelectionMultiple
	}
}

// Primary returns the first member that is not a reply, or nil.
func (s Selection) Primary() *Object {
	for _, o := range s {
		if o != nil && o.InReplyTo == "" {
			return o
		}
	}
	return nil
}

// GroupCount returns the number of distinct groups among the members. An
// ungrouped object forms its own group.
func (s Selection) GroupCount() int {
	seen := make(map[string]struct{}, len(s))
	for _, o := range s {
		if o == nil {
			continue
		}
		seen[groupKey(o)] = struct{}{}
	}
	return len(seen)
}

func groupKey(o *Object) string {
	if o.GroupID != "" {
		return "g:" + o.GroupID
	}
	return "o:" + o.ID
}

func (s Selection) Contains(o *Object) bool {
	for _, m := range s {
		if Same(m, o) {
			return true
		}
	}
	return false
}

func (s Selection) IDs() []string {
	ids := make([]string, 0, len(s))
	for _, o := range s {
		if o != nil {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// AnyKind reports whether any member is of kind k.
func (s Selection) AnyKind(k Kind) bool {
	for _, o := range s {
		if o != nil && o.Kind == k {
			return true
		}
	}
	return false
}
