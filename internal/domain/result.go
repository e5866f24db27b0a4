package domain

import "time"

// NotFoundError is the per-item error for an ID the caller does not own.
const NotFoundError = "Bookmark not found"

// HealthCheckResult is the per-bookmark outcome of one batch. It is never
// persisted on its own; only Status and LastChecked are folded into the
// bookmark.
type HealthCheckResult struct {
	BookmarkID   BookmarkID `json:"bookmarkId"`
	Status       HealthTier `json:"status"`
	StatusCode   int        `json:"statusCode,omitempty"`
	ResponseTime *int64     `json:"responseTime,omitempty"` // milliseconds
	Error        string     `json:"error,omitempty"`
	LastChecked  time.Time  `json:"lastChecked"`
}

// NotFoundResult builds the result for an unresolvable ID.
func NotFoundResult(id BookmarkID, now time.Time) HealthCheckResult {
	return HealthCheckResult{
		BookmarkID:  id,
		Status:      TierBroken,
		Error:       NotFoundError,
		LastChecked: now,
	}
}

// ApplyHealth folds a result into the bookmark.
func (b *Bookmark) ApplyHealth(r HealthCheckResult) {
	b.SiteHealth = r.Status
	b.LastHealthCheck = r.LastChecked
	b.HealthCheckCount++
}
