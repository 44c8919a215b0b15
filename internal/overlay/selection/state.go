/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package selection

import (
	"annotview/internal/annot"
	"annotview/internal/engine"
)

// Phase tags the controller state.
type Phase int

const (
	// Idle holds no subject.
	Idle Phase = iota
	// Positioning holds a subject whose popup has not been placed yet.
	Positioning
	// Open shows the popup for the subject.
	Open
	// Dismissed keeps the subject but hides the popup, e.g. after an
	// outside click. Clicking the subject again brings it back.
	Dismissed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Positioning:
		return "positioning"
	case Open:
		return "open"
	case Dismissed:
		return "dismissed"
	}
	return "unknown"
}

// Mode is the face the popup shows.
type Mode int

const (
	ModeActionBar Mode = iota
	ModeStyleEditor
)

func (m Mode) String() string {
	if m == ModeStyleEditor {
		return "styleEditor"
	}
	return "actionBar"
}

// State is the controller's tagged state. Subject is nil exactly when Phase
// is Idle; StyleEditor is only meaningful while Positioning or Open.
type State struct {
	Phase       Phase
	Subject     *annot.Object
	StyleEditor bool
}

func (s State) Mode() Mode {
	if s.StyleEditor {
		return ModeStyleEditor
	}
	return ModeActionBar
}

// Input is anything that can move the state machine.
type Input interface{ input() }

// Selected reports objects entering the selection.
type Selected struct{ Objects []*annot.Object }

// Deselected reports objects leaving the selection.
type Deselected struct{ Objects []*annot.Object }

// Changed reports a document mutation. SubjectSelected tells whether the
// held subject is still part of the engine's selection.
type Changed struct {
	Objects         []*annot.Object
	Action          engine.ChangeAction
	SubjectSelected bool
}

// PointerReleased carries the object under a pointer-up, possibly nil.
type PointerReleased struct{ Hit *annot.Object }

// OutsideClick is a pointer-down outside the popup and every excluded surface.
type OutsideClick struct{}

type Unloaded struct{}

type Resized struct{}

type PermissionsChanged struct{}

// StyleEditorRequested is the user asking for the style editor face.
type StyleEditorRequested struct{}

// Measured tells that the popup size is now known or has changed.
type Measured struct{}

// Placed confirms that the popup was positioned and opened.
type Placed struct{}

// Dismiss hides the popup after an action ran.
type Dismiss struct{}

func (Selected) input()             {}
func (Deselected) input()           {}
func (Changed) input()              {}
func (PointerReleased) input()      {}
func (OutsideClick) input()         {}
func (Unloaded) input()             {}
func (Resized) input()              {}
func (PermissionsChanged) input()   {}
func (StyleEditorRequested) input() {}
func (Measured) input()             {}
func (Placed) input()               {}
func (Dismiss) input()              {}

// Effect is a side effect the controller performs after a transition.
type Effect int

const (
	// EffectPlace measures and positions the popup, then feeds Placed back.
	EffectPlace Effect = iota
	// EffectReset closes the popup and clears position and derived flags.
	EffectReset
	// EffectHide closes the popup and clears its position, keeping the subject.
	EffectHide
	EffectRefreshPermission
	EffectRefreshLink
	EffectLinkAdded
	EffectLinkRemoved
	EffectScheduleConnector
)

func (e Effect) String() string {
	switch e {
	case EffectPlace:
		return "place"
	case EffectReset:
		return "reset"
	case EffectHide:
		return "hide"
	case EffectRefreshPermission:
		return "refreshPermission"
	case EffectRefreshLink:
		return "refreshLink"
	case EffectLinkAdded:
		return "linkAdded"
	case EffectLinkRemoved:
		return "linkRemoved"
	case EffectScheduleConnector:
		return "scheduleConnector"
	}
	return "unknown"
}

// Transition is the result of Step.
type Transition struct {
	Next    State
	Effects []Effect
}

func stay(s State) Transition { return Transition{Next: s} }

func idle() Transition {
	return Transition{Next: State{Phase: Idle}, Effects: []Effect{EffectReset}}
}

func reposition(s State) Transition {
	s.Phase = Positioning
	return Transition{Next: s, Effects: []Effect{EffectPlace}}
}

// Step computes the next state for input in. It has no side effects.
func Step(s State, in Input) Transition {
	switch ev := in.(type) {
	case Selected:
		if len(ev.Objects) == 0 {
			return idle()
		}
		return Transition{
			Next: State{Phase: Positioning, Subject: ev.Objects[0]},
			Effects: []Effect{
				EffectHide,
				EffectRefreshPermission,
				EffectRefreshLink,
				EffectScheduleConnector,
				EffectPlace,
			},
		}
	case Deselected:
		if s.Phase == Idle {
			return stay(s)
		}
		if !annot.Selection(ev.Objects).Contains(s.Subject) {
			return stay(s)
		}
		return idle()
	case Changed:
		if s.Phase == Idle || !ev.SubjectSelected {
			return stay(s)
		}
		switch ev.Action {
		case engine.Modify:
			if annot.Selection(ev.Objects).Contains(s.Subject) {
				return reposition(s)
			}
		case engine.Add:
			if annot.Selection(ev.Objects).AnyKind(annot.KindLink) {
				return Transition{Next: s, Effects: []Effect{EffectLinkAdded}}
			}
		case engine.Delete:
			if annot.Selection(ev.Objects).AnyKind(annot.KindLink) {
				return Transition{Next: s, Effects: []Effect{EffectLinkRemoved}}
			}
		}
		return stay(s)
	case PointerReleased:
		if s.Phase == Idle || !annot.Same(ev.Hit, s.Subject) {
			return stay(s)
		}
		return reposition(s)
	case OutsideClick, Dismiss:
		if s.Phase != Open && s.Phase != Positioning {
			return stay(s)
		}
		return Transition{
			Next:    State{Phase: Dismissed, Subject: s.Subject},
			Effects: []Effect{EffectHide},
		}
	case Unloaded, Resized:
		if s.Phase == Idle {
			return stay(s)
		}
		return idle()
	case PermissionsChanged:
		if s.Phase == Idle {
			return stay(s)
		}
		return Transition{Next: s, Effects: []Effect{EffectRefreshPermission}}
	case StyleEditorRequested:
		if s.Phase != Open {
			return stay(s)
		}
		s.StyleEditor = true
		return reposition(s)
	case Measured:
		switch s.Phase {
		case Positioning:
			return Transition{Next: s, Effects: []Effect{EffectPlace}}
		case Open:
			return reposition(s)
		}
		return stay(s)
	case Placed:
		if s.Phase != Positioning {
			return stay(s)
		}
		s.Phase = Open
		return stay(s)
	}
	return stay(s)
}
