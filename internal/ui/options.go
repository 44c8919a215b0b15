/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"annotview/internal/config"
	"annotview/internal/overlay/proximity"
)

// Options configure the desktop front-end.
type Options struct {
	Config config.AppConfig
	// Document is an optional annotation document to open on start.
	Document    string
	Descriptors []proximity.Descriptor
	OnAction    func(id string)
	// CrashDir receives crash reports; empty means the temp dir.
	CrashDir string
}
