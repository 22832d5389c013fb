// Package sqlite implements db.Store on a single SQLite table of hash fields.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kailas-cloud/tiles/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS hashes (
	key   TEXT NOT NULL,
	field TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (key, field)
);
`

// Config holds SQLite connection parameters.
type Config struct {
	// Path is a database file path or ":memory:".
	Path string
}

// Store implements db.Store via database/sql and go-sqlite3.
type Store struct {
	db *sql.DB
}

// NewStore opens the database and creates the schema.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	conn, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" gets its own database.
	if cfg.Path == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: conn}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() {
	s.db.Close()
}

// WaitForReady polls Ping until the database responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	if err := db.PollReady(ctx, timeout, s.Ping); err != nil {
		return fmt.Errorf("timeout waiting for database: %w", err)
	}
	return nil
}

// HGet returns one hash field.
func (s *Store) HGet(ctx context.Context, key, field string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM hashes WHERE key = ? AND field = ?", key, field).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", db.ErrKeyNotFound
	}
	if err != nil {
		return "", &db.Error{Op: db.OpHGet, Err: err}
	}
	return v, nil
}

// HSet upserts hash fields in one transaction.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for f, v := range fields {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO hashes (key, field, value) VALUES (?, ?, ?)
			ON CONFLICT (key, field) DO UPDATE SET value = excluded.value`, key, f, v)
		if err != nil {
			return &db.Error{Op: db.OpHSet, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// HGetAll returns all fields of a hash. A missing key yields an empty map.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT field, value FROM hashes WHERE key = ?", key)
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var f, v string
		if err := rows.Scan(&f, &v); err != nil {
			return nil, &db.Error{Op: db.OpHGetAll, Err: err}
		}
		out[f] = v
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	return out, nil
}

// HDel removes specific fields from a hash.
func (s *Store) HDel(ctx context.Context, key string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	args := make([]any, 0, len(fields)+1)
	args = append(args, key)
	for _, f := range fields {
		args = append(args, f)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(fields)), ",")
	q := "DELETE FROM hashes WHERE key = ? AND field IN (" + placeholders + ")"
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return &db.Error{Op: db.OpHDel, Err: err}
	}
	return nil
}

// Del deletes a key with all its fields.
func (s *Store) Del(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM hashes WHERE key = ?", key); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Exists checks if a key has any fields.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM hashes WHERE key = ?", key).Scan(&n)
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return n > 0, nil
}

// Scan returns keys matching a glob pattern.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT key FROM hashes WHERE key GLOB ? ORDER BY key", pattern)
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}
	return keys, nil
}
