// Package store defines the whole-collection persistence contract for
// bookmarks and the write-serializing Collection wrapper every writer uses.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/bookaimark/internal/domain"
)

// Store loads and replaces the full bookmark collection.
//
// LoadAll must fail loudly on I/O or decode errors rather than return an
// empty collection. SaveAll must replace the persisted collection
// atomically: subsequent loads observe either the old or the new
// collection, never a mix.
type Store interface {
	LoadAll(ctx context.Context) ([]domain.Bookmark, error)
	SaveAll(ctx context.Context, bookmarks []domain.Bookmark) error
}

// Pinger is implemented by backends that can report liveness cheaply.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Collection serializes read-modify-write cycles against a Store.
//
// Whole-collection saves are last-writer-wins, so every writer in the
// process goes through Update. Separate processes sharing one backend are
// not coordinated.
type Collection struct {
	store Store
	mu    sync.Mutex
}

// NewCollection wraps s.
func NewCollection(s Store) *Collection {
	return &Collection{store: s}
}

// Snapshot loads the current collection without taking the write lock.
func (c *Collection) Snapshot(ctx context.Context) ([]domain.Bookmark, error) {
	bookmarks, err := c.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookmarks: %w", err)
	}
	return bookmarks, nil
}

// Update loads the collection, hands it to fn and saves what fn returns,
// all under the write lock. If fn returns an error nothing is saved.
// If fn returns changed=false the save is skipped.
func (c *Collection) Update(ctx context.Context, fn func(bookmarks []domain.Bookmark) (updated []domain.Bookmark, changed bool, err error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	bookmarks, err := c.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load bookmarks: %w", err)
	}

	updated, changed, err := fn(bookmarks)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if err := c.store.SaveAll(ctx, updated); err != nil {
		return fmt.Errorf("failed to save bookmarks: %w", err)
	}
	return nil
}

// Ping checks the backend when it supports it.
func (c *Collection) Ping(ctx context.Context) error {
	if p, ok := c.store.(Pinger); ok {
		return p.Ping(ctx)
	}
	_, err := c.store.LoadAll(ctx)
	return err
}
