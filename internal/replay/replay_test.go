/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package replay

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"annotview/internal/config"
	"annotview/internal/overlay/selection"
)

const selectionScript = `
name: selection
objects:
  - {id: r1, kind: rectangle, page: 1, rect: {x: 100, y: 120, w: 80, h: 40}, style: {stroke: "#e44"}}
steps:
  - select: [r1]
  - expect:
      phase: open
      mode: actionBar
      visible: true
      subject: r1
      actions: [annotationCommentButton, annotationStyleEditButton, annotationDeleteButton, linkButton]
      open: [annotationPopup]
  - print: true
  - click: {x: 1200, y: 780, target: toolbar}
  - expect: {phase: dismissed, visible: false, subject: r1}
  - click: {on: r1}
  - expect: {phase: open, visible: true}
  - activate: annotationDeleteButton
  - expect: {phase: idle, subject: "", closed: [annotationPopup]}
  - undo: 1
  - select: [r1]
  - expect: {phase: open, visible: true}
`

func run(t *testing.T, src string, opts Options) (Result, error) {
	t.Helper()
	s, err := Parse([]byte(src))
	require.NoError(t, err)
	if opts.Overlay.ConnectorDelayMs == 0 {
		opts.Overlay = config.Defaults().Overlay
	}
	return Run(context.Background(), s, opts)
}

func TestSelectionScript(t *testing.T) {
	var out bytes.Buffer
	res, err := run(t, selectionScript, Options{Out: &out})
	require.NoError(t, err)
	require.Equal(t, 12, res.Steps)
	require.Equal(t, 5, res.Checks)
	require.Equal(t, []string{selection.ActionDelete}, res.Actions)
	require.Contains(t, out.String(), "selection step 3")
	require.Contains(t, out.String(), "Delete")
}

func TestMeasurementScriptFromFile(t *testing.T) {
	s, err := Load("testdata/measure.yaml")
	require.NoError(t, err)
	var out bytes.Buffer
	res, err := Run(context.Background(), s, Options{Overlay: config.Defaults().Overlay, Out: &out})
	require.NoError(t, err)
	require.Equal(t, len(s.Steps), res.Steps)
	require.Contains(t, out.String(), "Distance (drawing)")
	require.Contains(t, out.String(), "transparent")
}

func TestCellMeasurerScript(t *testing.T) {
	src := strings.Replace(selectionScript, "name: selection", "name: cells\nmeasurer: cells", 1)
	_, err := run(t, src, Options{})
	require.NoError(t, err)
}

func TestDisabledActionsComeFromConfig(t *testing.T) {
	ov := config.Defaults().Overlay
	ov.DisabledActions = []string{selection.ActionComment, selection.ActionDelete}
	_, err := run(t, `
objects:
  - {id: r1, kind: rectangle, page: 1, rect: {x: 100, y: 120, w: 80, h: 40}, style: {stroke: "#e44"}}
steps:
  - select: [r1]
  - expect: {actions: [annotationStyleEditButton, linkButton]}
  - activate: annotationDeleteButton
`, Options{Overlay: ov})
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	require.Equal(t, 2, stepErr.Index)
	require.Contains(t, err.Error(), "not available")
}

func TestFailedExpectationNamesTheStep(t *testing.T) {
	_, err := run(t, `
name: wrong
objects:
  - {id: r1, kind: rectangle, page: 1, rect: {x: 100, y: 120, w: 80, h: 40}}
steps:
  - select: [r1]
  - expect: {phase: idle, measurement: {visible: true}}
`, Options{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "wrong: step 2")
	require.Contains(t, err.Error(), "phase is open, want idle")
	require.Contains(t, err.Error(), "measurement visible is false, want true")
}

func TestUnknownObjectFails(t *testing.T) {
	_, err := run(t, "steps:\n  - select: [ghost]\n", Options{})
	require.ErrorContains(t, err, `unknown object "ghost"`)
}

func TestParseRejectsBadScripts(t *testing.T) {
	_, err := Parse([]byte("name: empty\n"))
	require.True(t, errors.Is(err, ErrEmptyScript))

	_, err = Parse([]byte("steps:\n  - selekt: [r1]\n"))
	require.Error(t, err)

	_, err = Parse([]byte("steps:\n  - advance: soon\n"))
	require.Error(t, err)
}

func TestAdvanceRunsTheConnectorTimer(t *testing.T) {
	_, err := run(t, `
objects:
  - {id: r1, kind: rectangle, page: 1, rect: {x: 100, y: 120, w: 80, h: 40}}
steps:
  - open: notesPanel
  - select: [r1]
  - expect: {closed: [annotationNoteConnectorLine]}
  - advance: 300ms
  - expect: {open: [annotationNoteConnectorLine]}
`, Options{})
	require.NoError(t, err)
}
