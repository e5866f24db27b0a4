// Package sqlite persists the bookmark collection in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MrSnakeDoc/bookaimark/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS bookmarks (
    position INTEGER PRIMARY KEY,
    id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    url TEXT NOT NULL,
    site_health TEXT,
    health_check_count INTEGER NOT NULL DEFAULT 0,
    data TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bookmarks_user ON bookmarks(user_id);
CREATE INDEX IF NOT EXISTS idx_bookmarks_id ON bookmarks(id);
`

// Store keeps one row per bookmark. The full record is stored as JSON in
// data so fields unknown to this service survive; the other columns exist
// for ad-hoc queries. Row order is the collection order.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) dataDir/bookmarks.db and applies the schema.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		dataDir = "./data"
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "bookmarks.db")
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) LoadAll(ctx context.Context) ([]domain.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM bookmarks ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookmarks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	bookmarks := []domain.Bookmark{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		var b domain.Bookmark
		if err := json.Unmarshal([]byte(data), &b); err != nil {
			return nil, fmt.Errorf("failed to decode bookmark: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookmarks: %w", err)
	}

	return bookmarks, nil
}

// SaveAll replaces every row inside one transaction.
func (s *Store) SaveAll(ctx context.Context, bookmarks []domain.Bookmark) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bookmarks`); err != nil {
		return fmt.Errorf("failed to clear bookmarks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bookmarks (position, id, user_id, url, site_health, health_check_count, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for i := range bookmarks {
		b := &bookmarks[i]
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("failed to marshal bookmark %s: %w", b.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, i, string(b.ID), b.UserID, b.URL, string(b.SiteHealth), b.HealthCheckCount, string(data)); err != nil {
			return fmt.Errorf("failed to insert bookmark %s: %w", b.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bookmarks: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
