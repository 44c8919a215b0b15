/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package docstore keeps annotation documents: JSON files checked against
// an embedded JSON schema, and SQLite or Postgres tables behind one Store.
package docstore

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"annotview/internal/annot"
)

// CurrentVersion is written into saved documents.
const CurrentVersion = 1

//go:embed schema/document.schema.json
var schemaJSON []byte

var (
	ErrNotFound = errors.New("docstore: document not found")
	ErrInvalid  = errors.New("docstore: document does not match schema")
)

// Document is a named set of annotations.
type Document struct {
	Name    string          `json:"name"`
	Version int             `json:"version,omitempty"`
	Objects []*annot.Object `json:"objects"`
}

// ValidationError lists every schema violation of a document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalid.Error(), strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Schema returns the embedded document schema.
func Schema() []byte { return append([]byte(nil), schemaJSON...) }

// Validate checks data against the document schema.
func Validate(data []byte) error {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate document: %w", err)
	}
	if res.Valid() {
		return nil
	}
	ve := &ValidationError{}
	for _, e := range res.Errors() {
		ve.Problems = append(ve.Problems, e.String())
	}
	return ve
}

// Decode validates data and decodes it into a Document.
func Decode(data []byte) (Document, error) {
	if err := Validate(data); err != nil {
		return Document{}, err
	}
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	if d.Version == 0 {
		d.Version = CurrentVersion
	}
	return d, nil
}

// Encode renders d as indented JSON.
func Encode(d Document) ([]byte, error) {
	if d.Version == 0 {
		d.Version = CurrentVersion
	}
	if d.Objects == nil {
		d.Objects = []*annot.Object{}
	}
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return append(b, '\n'), nil
}

// ReadFile loads and validates the document at path.
func ReadFile(path string) (Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Document{}, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return Document{}, fmt.Errorf("read document: %w", err)
	}
	d, err := Decode(b)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// WriteFile writes d to path through a temp file and rename.
func WriteFile(path string, d Document) error {
	data, err := Encode(d)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if err := os.WriteFile(temp, data, 0o644); err != nil {
		return fmt.Errorf("write temp document: %w", err)
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}
