// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stats

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const createStatsTableSQL = `
CREATE TABLE IF NOT EXISTS chatguard_stats (
    bucket VARCHAR(12) NOT NULL,
    route VARCHAR(128) NOT NULL,
    outcome VARCHAR(64) NOT NULL,
    hits BIGINT NOT NULL DEFAULT 0,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (bucket, route, outcome)
)`

// SQLStore keeps one row per (minute bucket, route, outcome).
// It supports Postgres, MySQL, and SQLite.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// NewSQLStore creates the stats table if needed.
// Supported dialects: "postgres", "mysql", "sqlite".
func NewSQLStore(ctx context.Context, db *sql.DB, dialect string) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	switch dialect {
	case "postgres", "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported dialect: %s (supported: postgres, mysql, sqlite)", dialect)
	}

	s := &SQLStore{
		db:      db,
		dialect: dialect,
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, createStatsTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create chatguard_stats table: %w", err)
	}

	return s, nil
}

func (s *SQLStore) upsertQuery() string {
	switch s.dialect {
	case "postgres":
		return `
			INSERT INTO chatguard_stats (bucket, route, outcome, hits, updated_at)
			VALUES ($1, $2, $3, 1, $4)
			ON CONFLICT (bucket, route, outcome)
			DO UPDATE SET hits = chatguard_stats.hits + 1, updated_at = EXCLUDED.updated_at`
	case "mysql":
		return `
			INSERT INTO chatguard_stats (bucket, route, outcome, hits, updated_at)
			VALUES (?, ?, ?, 1, ?)
			ON DUPLICATE KEY UPDATE hits = hits + 1, updated_at = VALUES(updated_at)`
	default:
		return `
			INSERT INTO chatguard_stats (bucket, route, outcome, hits, updated_at)
			VALUES (?, ?, ?, 1, ?)
			ON CONFLICT (bucket, route, outcome)
			DO UPDATE SET hits = hits + 1, updated_at = excluded.updated_at`
	}
}

// Record upserts the row for the event's bucket.
// Identifiers are not stored.
func (s *SQLStore) Record(ctx context.Context, ev Event) error {
	if ev.Outcome.field() == "" {
		return fmt.Errorf("unknown outcome %q", ev.Outcome)
	}

	at := eventTime(ev)
	route := strings.TrimSpace(ev.Route)

	if _, err := s.db.ExecContext(ctx, s.upsertQuery(), minuteBucket(at), route, string(ev.Outcome), at); err != nil {
		return fmt.Errorf("failed to record stats: %w", err)
	}
	return nil
}

// Snapshot sums all buckets.
func (s *SQLStore) Snapshot(ctx context.Context) (Snapshot, error) {
	snap := newSnapshot()

	rows, err := s.db.QueryContext(ctx,
		`SELECT route, outcome, SUM(hits) FROM chatguard_stats GROUP BY route, outcome`)
	if err != nil {
		return snap, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var route, outcome string
		var hits int64
		if err := rows.Scan(&route, &outcome, &hits); err != nil {
			return snap, fmt.Errorf("failed to scan stats row: %w", err)
		}

		o := Outcome(outcome)
		snap.Total.Add(o, hits)
		if route != "" {
			c := snap.ByRoute[route]
			c.Add(o, hits)
			snap.ByRoute[route] = c
		}
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("failed to read stats rows: %w", err)
	}
	return snap, nil
}

// Prune deletes buckets older than before and returns the number of rows removed.
func (s *SQLStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM chatguard_stats WHERE bucket < ?`
	if s.dialect == "postgres" {
		query = `DELETE FROM chatguard_stats WHERE bucket < $1`
	}

	res, err := s.db.ExecContext(ctx, query, minuteBucket(before))
	if err != nil {
		return 0, fmt.Errorf("failed to prune stats: %w", err)
	}
	return res.RowsAffected()
}

// Close is a no-op; the connection belongs to the DBPool.
func (s *SQLStore) Close() error {
	return nil
}

var _ Store = (*SQLStore)(nil)
