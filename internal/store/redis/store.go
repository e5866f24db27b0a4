package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookaimark/internal/domain"
)

// ErrConcurrentWrite is returned when another writer touched the order list
// between SaveAll reading it and committing. It does not cover writes made
// after this process's LoadAll and before SaveAll started.
var ErrConcurrentWrite = errors.New("bookmark collection modified concurrently")

// Store handles Redis persistence of the bookmark collection.
//
// Each bookmark lives under its own key; the order list records membership
// and collection order. SaveAll replaces both in a single MULTI/EXEC, so
// readers never see a half-written collection. This is an atomic replace,
// not load-to-save conflict detection: the last SaveAll wins.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// LoadAll retrieves every bookmark. A listed ID without a value is an error.
func (s *Store) LoadAll(ctx context.Context) ([]domain.Bookmark, error) {
	ids, err := s.client.LRange(ctx, OrderKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark IDs: %w", err)
	}

	if len(ids) == 0 {
		return []domain.Bookmark{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = BookmarkKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmarks: %w", err)
	}

	bookmarks := make([]domain.Bookmark, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("bookmark %s listed but missing", ids[i])
		}
		var b domain.Bookmark
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bookmark %s: %w", ids[i], err)
		}
		bookmarks = append(bookmarks, b)
	}

	return bookmarks, nil
}

// SaveAll atomically replaces the collection.
func (s *Store) SaveAll(ctx context.Context, bookmarks []domain.Bookmark) error {
	ids := make([]any, 0, len(bookmarks))
	values := make(map[string][]byte, len(bookmarks))
	for i := range bookmarks {
		id := string(bookmarks[i].ID)
		if _, dup := values[id]; dup {
			return fmt.Errorf("duplicate bookmark id %s", id)
		}
		data, err := json.Marshal(&bookmarks[i])
		if err != nil {
			return fmt.Errorf("failed to marshal bookmark %s: %w", id, err)
		}
		values[id] = data
		ids = append(ids, id)
	}

	txf := func(tx *redis.Tx) error {
		previous, err := tx.LRange(ctx, OrderKey(), 0, -1).Result()
		if err != nil {
			return fmt.Errorf("failed to get bookmark IDs: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, old := range previous {
				if _, keep := values[old]; !keep {
					pipe.Del(ctx, BookmarkKey(old))
				}
			}
			for id, data := range values {
				pipe.Set(ctx, BookmarkKey(id), data, 0)
			}
			pipe.Del(ctx, OrderKey())
			if len(ids) > 0 {
				pipe.RPush(ctx, OrderKey(), ids...)
			}
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txf, OrderKey())
	if errors.Is(err, redis.TxFailedErr) {
		return ErrConcurrentWrite
	}
	if err != nil {
		return fmt.Errorf("failed to save bookmarks: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
