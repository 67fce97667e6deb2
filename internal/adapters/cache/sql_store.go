package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"route-optimizer-service/internal/ports"
)

// sqlStore runs the road_distance_cache reads and writes shared by the
// Postgres and SQLite caches. Only the statement text differs per dialect.
type sqlStore struct {
	db      *sql.DB
	dialect Dialect
}

func (s sqlStore) check(origin string) error {
	if s.db == nil {
		return errors.New("distance cache: db is nil")
	}
	if origin == "" {
		return errors.New("distance cache: origin must not be empty")
	}
	return nil
}

func (s sqlStore) getMany(ctx context.Context, origin string, destinations []string) (map[string]ports.DistanceResult, error) {
	if err := s.check(origin); err != nil {
		return nil, err
	}

	dests := uniqueKeys(destinations)
	out := make(map[string]ports.DistanceResult, len(dests))
	if len(dests) == 0 {
		return out, nil
	}

	q, args := s.selectQuery(origin, dests)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("distance cache %s: select: %w", s.dialect, err)
	}
	defer rows.Close()

	for rows.Next() {
		var dest string
		var r ports.DistanceResult
		if err := rows.Scan(&dest, &r.DistanceMeters, &r.DurationSeconds); err != nil {
			return nil, fmt.Errorf("distance cache %s: scan: %w", s.dialect, err)
		}
		out[dest] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("distance cache %s: rows: %w", s.dialect, err)
	}
	return out, nil
}

// putMany upserts every result for origin in one transaction.
func (s sqlStore) putMany(ctx context.Context, origin string, results map[string]ports.DistanceResult) error {
	if err := s.check(origin); err != nil {
		return err
	}
	if len(results) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("distance cache %s: begin: %w", s.dialect, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.upsertQuery())
	if err != nil {
		return fmt.Errorf("distance cache %s: prepare: %w", s.dialect, err)
	}
	defer stmt.Close()

	for dest, r := range results {
		if strings.TrimSpace(dest) == "" {
			return errors.New("distance cache: empty destination key")
		}
		if _, err := stmt.ExecContext(ctx, origin, dest, r.DistanceMeters, r.DurationSeconds); err != nil {
			return fmt.Errorf("distance cache %s: upsert %q: %w", s.dialect, dest, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("distance cache %s: commit: %w", s.dialect, err)
	}
	return nil
}

func (s sqlStore) selectQuery(origin string, dests []string) (string, []any) {
	if s.dialect == DialectPostgres {
		return `SELECT destination, distance_meters, duration_seconds
	FROM road_distance_cache
	WHERE origin = $1 AND destination = ANY($2::text[])`, []any{origin, dests}
	}

	// SQLite cannot bind a slice, so one placeholder is generated per key.
	args := make([]any, 0, 1+len(dests))
	args = append(args, origin)
	for _, d := range dests {
		args = append(args, d)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(dests)), ",")
	return `SELECT destination, distance_meters, duration_seconds
	FROM road_distance_cache
	WHERE origin = ? AND destination IN (` + placeholders + `)`, args
}

func (s sqlStore) upsertQuery() string {
	if s.dialect == DialectPostgres {
		return `INSERT INTO road_distance_cache (origin, destination, distance_meters, duration_seconds)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (origin, destination) DO UPDATE
	SET distance_meters = EXCLUDED.distance_meters,
		duration_seconds = EXCLUDED.duration_seconds,
		updated_at = now()`
	}
	return `INSERT INTO road_distance_cache (origin, destination, distance_meters, duration_seconds)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (origin, destination) DO UPDATE
	SET distance_meters = excluded.distance_meters,
		duration_seconds = excluded.duration_seconds,
		updated_at = CURRENT_TIMESTAMP`
}

// uniqueKeys trims keys and drops blanks and duplicates, keeping first-seen order.
func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
