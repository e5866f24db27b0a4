package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bookmark is a saved URL owned by a single user.
//
// Only the pipeline in internal/healthcheck mutates SiteHealth,
// LastHealthCheck and HealthCheckCount. Fields this service does not
// know about (AI summaries, visit counters, ...) are kept in Extra so a
// load/save round-trip never drops data written by other producers.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is assigned at creation and never changes.
	ID BookmarkID `json:"id"`

	// UserID is the owning user. Every health-check and CRUD
	// operation is scoped to bookmarks matching the caller's user.
	UserID string `json:"user_id"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	Title       string   `json:"title,omitempty"`
	URL         string   `json:"url"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Notes       string   `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`

	// ─────────────────────────────
	// Health
	// ─────────────────────────────

	// SiteHealth is the tier assigned by the most recent check.
	SiteHealth HealthTier `json:"site_health,omitempty"`

	// LastHealthCheck is set every time a check runs for this bookmark.
	LastHealthCheck time.Time `json:"last_health_check,omitzero"`

	// HealthCheckCount never decreases.
	HealthCheckCount int64 `json:"healthCheckCount,omitempty"`

	// Extra holds unknown JSON fields, verbatim.
	Extra map[string]json.RawMessage `json:"-"`
}

// bookmarkFields is Bookmark without its JSON methods.
type bookmarkFields Bookmark

var knownBookmarkKeys = []string{
	"id", "user_id", "title", "url", "description", "category", "tags", "notes",
	"created_at", "updated_at", "site_health", "last_health_check", "healthCheckCount",
}

func (b *Bookmark) UnmarshalJSON(data []byte) error {
	var fields bookmarkFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("failed to decode bookmark: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode bookmark: %w", err)
	}
	for _, k := range knownBookmarkKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		fields.Extra = raw
	}

	*b = Bookmark(fields)
	return nil
}

func (b Bookmark) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(bookmarkFields(b))
	if err != nil {
		return nil, err
	}
	if len(b.Extra) == 0 {
		return data, nil
	}

	merged := make(map[string]json.RawMessage, len(b.Extra)+len(knownBookmarkKeys))
	for k, v := range b.Extra {
		merged[k] = v
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(data, &known); err != nil {
		return nil, err
	}
	for k, v := range known {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// Clone returns a deep copy so callers can mutate it without touching
// a shared collection.
func (b Bookmark) Clone() Bookmark {
	c := b
	if b.Tags != nil {
		c.Tags = append([]string(nil), b.Tags...)
	}
	if b.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(b.Extra))
		for k, v := range b.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return c
}

// CloneAll deep-copies a collection.
func CloneAll(bookmarks []Bookmark) []Bookmark {
	out := make([]Bookmark, len(bookmarks))
	for i := range bookmarks {
		out[i] = bookmarks[i].Clone()
	}
	return out
}

// OwnedBy reports whether the bookmark belongs to userID.
func (b *Bookmark) OwnedBy(userID string) bool {
	return b.UserID == userID
}

// FilterByUser returns the bookmarks owned by userID, in collection order.
func FilterByUser(bookmarks []Bookmark, userID string) []Bookmark {
	owned := make([]Bookmark, 0)
	for i := range bookmarks {
		if bookmarks[i].OwnedBy(userID) {
			owned = append(owned, bookmarks[i])
		}
	}
	return owned
}
