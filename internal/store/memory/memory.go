// Package memory is an in-process Store used in tests and for
// throwaway development servers.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/MrSnakeDoc/bookaimark/internal/domain"
)

// ErrInjected is returned by operations configured to fail.
var ErrInjected = errors.New("injected store failure")

// Store keeps the collection in memory. Loads and saves deep-copy, so
// callers can never mutate the stored state in place.
type Store struct {
	mu        sync.RWMutex
	bookmarks []domain.Bookmark
	loads     int
	saves     int
	failLoad  error
	failSave  error
}

// New creates a store holding a copy of bookmarks.
func New(bookmarks ...domain.Bookmark) *Store {
	return &Store{bookmarks: domain.CloneAll(bookmarks)}
}

func (s *Store) LoadAll(ctx context.Context) ([]domain.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loads++
	if s.failLoad != nil {
		return nil, s.failLoad
	}
	return domain.CloneAll(s.bookmarks), nil
}

func (s *Store) SaveAll(ctx context.Context, bookmarks []domain.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saves++
	if s.failSave != nil {
		return s.failSave
	}
	s.bookmarks = domain.CloneAll(bookmarks)
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failLoad
}

// FailLoad makes subsequent LoadAll calls return err (nil to clear).
func (s *Store) FailLoad(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLoad = err
}

// FailSave makes subsequent SaveAll calls return err (nil to clear).
func (s *Store) FailSave(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSave = err
}

// Loads returns how many times LoadAll was called.
func (s *Store) Loads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loads
}

// Saves returns how many times SaveAll was called, including failed calls.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Get returns a copy of the stored bookmark with the given id.
func (s *Store) Get(id domain.BookmarkID) (domain.Bookmark, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.bookmarks {
		if s.bookmarks[i].ID == id {
			return s.bookmarks[i].Clone(), true
		}
	}
	return domain.Bookmark{}, false
}
