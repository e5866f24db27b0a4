// Package file persists the bookmark collection as a single JSON array on
// disk, the format the web app has always written to data/bookmarks.json.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/MrSnakeDoc/bookaimark/internal/domain"
)

// Store reads and writes one JSON file.
//
// A missing file loads as an empty collection; anything else that keeps
// the file from being read or decoded is an error.
type Store struct {
	path string
}

// New returns a store backed by path. The parent directory is created on
// first save.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

func (s *Store) LoadAll(ctx context.Context) ([]domain.Bookmark, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.Bookmark{}, nil
		}
		return nil, fmt.Errorf("failed to read bookmarks file: %w", err)
	}

	var bookmarks []domain.Bookmark
	if err := json.Unmarshal(data, &bookmarks); err != nil {
		return nil, fmt.Errorf("failed to parse bookmarks file %s: %w", s.path, err)
	}
	if bookmarks == nil {
		bookmarks = []domain.Bookmark{}
	}
	return bookmarks, nil
}

// SaveAll writes to a temp file in the same directory and renames it over
// the target, so readers see the old or the new file, never a partial one.
func (s *Store) SaveAll(ctx context.Context, bookmarks []domain.Bookmark) error {
	if bookmarks == nil {
		bookmarks = []domain.Bookmark{}
	}
	data, err := json.MarshalIndent(bookmarks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal bookmarks: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".bookmarks-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath) // no-op after a successful rename
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write bookmarks: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync bookmarks: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace bookmarks file: %w", err)
	}
	return nil
}

// Ping verifies the file is readable and decodes.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.LoadAll(ctx)
	return err
}
