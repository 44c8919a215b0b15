/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic at the CLI boundary into a report file that
// includes the overlay state at the time of the crash.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "annotview/internal/log"
	"annotview/internal/telemetry"
	"annotview/internal/version"
)

// exitFn is swapped in tests.
var exitFn = os.Exit

// Dumper describes live state for the report.
type Dumper interface {
	CrashDump() string
}

// Options for Recover. Dir defaults to the system temp dir.
type Options struct {
	Dir    string
	Dumper Dumper
}

// Recover must be deferred directly:
//
//	defer crash.Recover(opts)
func Recover(opts Options) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	reportPath, err := writeReport(opts, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err), slog.String("path", reportPath))
	}
	_, _ = fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath)
	_, _ = fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

func writeReport(opts Options, panicVal any, stack []byte) (string, error) {
	dir := opts.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", time.Now().Format("20060102-150405")))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return path, fmt.Errorf("create crash dir: %w", err)
	}

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "AnnotView Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n", panicVal)
	if opts.Dumper != nil {
		_, _ = fmt.Fprintf(&buf, "\nState:\n%s\n", dumpSafely(opts.Dumper))
	}
	_, _ = fmt.Fprintf(&buf, "\nStack:\n%s\n", stack)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, fmt.Errorf("write crash report: %w", err)
	}
	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}

// dumpSafely guards against a Dumper that panics on broken state.
func dumpSafely(d Dumper) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = fmt.Sprintf("<state dump failed: %v>", r)
		}
	}()
	return d.CrashDump()
}
