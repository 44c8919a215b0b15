/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package replay

import (
	"fmt"
	"slices"
	"strings"
)

func (r *runner) check(e Expect) error {
	var problems []string
	fail := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	sel := r.sess.Selection.Snapshot()
	if e.Phase != "" && e.Phase != sel.Phase.String() {
		fail("phase is %s, want %s", sel.Phase, e.Phase)
	}
	if e.Mode != "" && e.Mode != sel.Mode.String() {
		fail("mode is %s, want %s", sel.Mode, e.Mode)
	}
	if e.Visible != nil && *e.Visible != sel.Visible {
		fail("popup visible is %t, want %t", sel.Visible, *e.Visible)
	}
	if e.Subject != nil {
		got := ""
		if sel.Subject != nil {
			got = sel.Subject.ID
		}
		if got != *e.Subject {
			fail("subject is %q, want %q", got, *e.Subject)
		}
	}
	if e.Actions != nil {
		got := make([]string, 0, len(sel.Actions))
		for _, a := range sel.Actions {
			got = append(got, a.ID)
		}
		if !slices.Equal(got, *e.Actions) {
			fail("actions are %v, want %v", got, *e.Actions)
		}
	}
	for _, id := range e.Open {
		if !r.sess.Store.IsOpen(id) {
			fail("%s is closed, want open", id)
		}
	}
	for _, id := range e.Closed {
		if r.sess.Store.IsOpen(id) {
			fail("%s is open, want closed", id)
		}
	}
	if m := e.Measurement; m != nil {
		prox := r.sess.Proximity.Snapshot()
		if m.Visible != nil && *m.Visible != prox.Visible {
			fail("measurement visible is %t, want %t", prox.Visible, *m.Visible)
		}
		if m.Transparent != nil && *m.Transparent != prox.Transparent {
			fail("measurement transparent is %t, want %t", prox.Transparent, *m.Transparent)
		}
		if m.Draft != nil && *m.Draft != prox.Draft {
			fail("measurement draft is %t, want %t", prox.Draft, *m.Draft)
		}
		if m.Subject != nil {
			got := ""
			if prox.Subject != nil {
				got = prox.Subject.ID
			}
			if got != *m.Subject {
				fail("measurement subject is %q, want %q", got, *m.Subject)
			}
		}
		if m.View != "" && m.View != prox.View.View.String() {
			fail("measurement view is %s, want %s", prox.View.View, m.View)
		}
		if m.Position != nil && *m.Position != prox.Position {
			fail("measurement position is %v, want %v", prox.Position, *m.Position)
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("expectation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}
