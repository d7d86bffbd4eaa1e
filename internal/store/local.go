// ABOUTME: SQLite-backed local cache using modernc.org/sqlite
// ABOUTME: Persists thread history and layout preferences with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/2389/familiar/internal/session"
)

// layoutKey is the preference row holding the conversation panel split.
const layoutKey = "layout:global-chat"

// DefaultLayout is the panel split used when no preference is stored:
// 70% conversation, 30% context.
var DefaultLayout = []int{70, 30}

// LocalStore is the on-disk cache. It is intentionally auth-agnostic: layout
// preferences must be readable before sign-in completes, since the panel
// renders while credentials are still being resolved.
type LocalStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewLocalStore opens (or creates) the cache at the given path. Parent
// directories are created if needed.
func NewLocalStore(path string) (*LocalStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// WAL keeps readers unblocked while the refresh loop writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &LocalStore{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("local cache initialized", "path", path)
	return s, nil
}

// createSchema creates the cache tables if they don't exist.
func (s *LocalStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS threads (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			agent_id TEXT NOT NULL DEFAULT '',
			agent_name TEXT NOT NULL DEFAULT '',
			last_activity INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_threads_last_activity
			ON threads(last_activity DESC);

		CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveThreads replaces the cached thread history with the given records.
func (s *LocalStore) SaveThreads(ctx context.Context, threads []session.ThreadRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM threads"); err != nil {
		return fmt.Errorf("clearing cached threads: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO threads (id, title, agent_id, agent_name, last_activity) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range threads {
		if _, err := stmt.ExecContext(ctx, t.ID, t.Title, t.AgentID, t.AgentName, t.LastActivity.UnixMilli()); err != nil {
			return fmt.Errorf("inserting thread %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing thread cache: %w", err)
	}
	return nil
}

// LoadThreads returns cached threads, most recent first.
func (s *LocalStore) LoadThreads(ctx context.Context, limit int) ([]session.ThreadRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, agent_id, agent_name, last_activity FROM threads ORDER BY last_activity DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying cached threads: %w", err)
	}
	defer rows.Close()

	var out []session.ThreadRecord
	for rows.Next() {
		var rec session.ThreadRecord
		var activityMs int64
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.AgentID, &rec.AgentName, &activityMs); err != nil {
			return nil, fmt.Errorf("scanning thread row: %w", err)
		}
		rec.LastActivity = time.UnixMilli(activityMs)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ClearThreads drops all cached thread history.
func (s *LocalStore) ClearThreads(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM threads"); err != nil {
		return fmt.Errorf("clearing cached threads: %w", err)
	}
	return nil
}

// Layout returns the stored panel split, or DefaultLayout when unset or
// unreadable.
func (s *LocalStore) Layout(ctx context.Context) []int {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM preferences WHERE key = ?", layoutKey).Scan(&value)
	if err != nil {
		return append([]int(nil), DefaultLayout...)
	}

	var sizes []int
	if err := json.Unmarshal([]byte(value), &sizes); err != nil || len(sizes) != 2 {
		s.logger.Warn("discarding malformed layout preference", "value", value)
		return append([]int(nil), DefaultLayout...)
	}
	return sizes
}

// SaveLayout persists the panel split.
func (s *LocalStore) SaveLayout(ctx context.Context, sizes []int) error {
	value, err := json.Marshal(sizes)
	if err != nil {
		return fmt.Errorf("encoding layout: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		layoutKey, string(value), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("saving layout: %w", err)
	}
	return nil
}

// ClearLayout removes the stored panel split so the next session starts from
// the default. Called on sign-out.
func (s *LocalStore) ClearLayout(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM preferences WHERE key = ?", layoutKey); err != nil {
		return fmt.Errorf("clearing layout: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *LocalStore) Close() error {
	return s.db.Close()
}
