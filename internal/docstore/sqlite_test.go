/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package docstore

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"annotview/internal/annot"
	"annotview/internal/config"
)

func openTemp(t *testing.T) (Store, string) {
	t.Helper()
	p := filepath.Join(t.TempDir(), "store", "annotations.db")
	s, err := Open(context.Background(), config.StoreConfig{Driver: "sqlite", Path: p})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, p
}

func TestSQLiteSaveLoadList(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)

	if err := s.Save(ctx, sampleDoc()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	d, err := s.Load(ctx, "contract")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(d.Objects) != 3 || !annot.HasLinks(d.Objects[1]) {
		t.Fatalf("unexpected document: %+v", d)
	}

	d.Objects = d.Objects[:1]
	if err := s.Save(ctx, d); err != nil {
		t.Fatalf("Save over: %v", err)
	}
	if err := s.Save(ctx, Document{Name: "blank"}); err != nil {
		t.Fatalf("Save blank: %v", err)
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Name != "blank" || list[1].Name != "contract" || list[1].Objects != 1 {
		t.Fatalf("unexpected list: %+v", list)
	}
	if list[1].Updated.IsZero() {
		t.Fatalf("updated time not parsed")
	}
}

func TestSQLiteErrors(t *testing.T) {
	ctx := context.Background()
	s, _ := openTemp(t)
	if _, err := s.Load(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Save(ctx, Document{}); err == nil {
		t.Fatalf("expected an error for an unnamed document")
	}
	bad := sampleDoc()
	bad.Objects[0].Opacity = 2
	if err := s.Save(ctx, bad); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestSQLiteMigratesAndReopens(t *testing.T) {
	ctx := context.Background()
	s, p := openTemp(t)
	if err := s.Save(ctx, sampleDoc()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := OpenSQLite(ctx, p)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if _, err := s2.Load(ctx, "contract"); err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var v int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if v != sqliteSchemaVersion {
		t.Fatalf("schema version = %d, want %d", v, sqliteSchemaVersion)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.StoreConfig{Driver: "mongo"}); err == nil {
		t.Fatalf("expected an error for an unknown driver")
	}
}

func TestRebind(t *testing.T) {
	pg := &sqlStore{driver: "pgx"}
	if got := pg.rebind(`a = ? AND b = ?`); got != `a = $1 AND b = $2` {
		t.Fatalf("rebind = %q", got)
	}
	lite := &sqlStore{driver: "sqlite"}
	if got := lite.rebind(`a = ?`); got != `a = ?` {
		t.Fatalf("sqlite rebind = %q", got)
	}
}
