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
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"annotview/internal/config"
	applog "annotview/internal/log"
)

// Summary describes a stored document without decoding it.
type Summary struct {
	Name    string
	Objects int
	Updated time.Time
}

// Store persists annotation documents by name.
type Store interface {
	Load(ctx context.Context, name string) (Document, error)
	Save(ctx context.Context, d Document) error
	List(ctx context.Context) ([]Summary, error)
	Close() error
}

// Open connects to the store selected by cfg.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "sqlite":
		return OpenSQLite(ctx, cfg.Path)
	case "postgres", "pgx":
		dsn, err := withPassword(cfg.DSN, cfg.Password)
		if err != nil {
			return nil, err
		}
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// sqlStore is shared by both drivers; only placeholders and setup differ.
type sqlStore struct {
	db     *sql.DB
	driver string
	log    *slog.Logger
}

// rebind turns ? placeholders into $n for Postgres.
func (s *sqlStore) rebind(q string) string {
	if s.driver != "pgx" {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) Load(ctx context.Context, name string) (Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT body FROM documents WHERE name = ?`), name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("load document %s: %w", name, err)
	}
	return Decode([]byte(body))
}

func (s *sqlStore) Save(ctx context.Context, d Document) error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("document name is required")
	}
	body, err := Encode(d)
	if err != nil {
		return err
	}
	if err := Validate(body); err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	q := s.rebind(`INSERT INTO documents (name, body, objects, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, objects = excluded.objects, updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, q, d.Name, string(body), len(d.Objects), now); err != nil {
		return fmt.Errorf("save document %s: %w", d.Name, err)
	}
	s.log.Debug("document saved", "name", d.Name, "objects", len(d.Objects))
	return nil
}

func (s *sqlStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, objects, updated_at FROM documents ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.log.Warn("rows close", "err", err)
		}
	}()
	var out []Summary
	for rows.Next() {
		var sum Summary
		var updated string
		if err := rows.Scan(&sum.Name, &sum.Objects, &updated); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
			sum.Updated = t
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *sqlStore) Close() error { return s.db.Close() }

func newSQLStore(db *sql.DB, driver string) *sqlStore {
	return &sqlStore{db: db, driver: driver, log: applog.WithComponent("docstore").With(slog.String("driver", driver))}
}
