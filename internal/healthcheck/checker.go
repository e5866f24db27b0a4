// Package healthcheck runs health-check batches: it resolves bookmark IDs
// for a user, probes the URLs with bounded concurrency, classifies each
// outcome and persists every update in a single write.
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/bookaimark/internal/domain"
	"github.com/MrSnakeDoc/bookaimark/internal/logger"
	"github.com/MrSnakeDoc/bookaimark/internal/probe"
	"github.com/MrSnakeDoc/bookaimark/internal/store"
)

// DefaultConcurrency is the number of probes in flight per batch.
const DefaultConcurrency = 4

// ErrUserRequired is returned when a request carries no user and no
// default user is configured.
var ErrUserRequired = errors.New("userId is required")

// Request is one batch.
type Request struct {
	UserID      string
	BookmarkIDs []domain.BookmarkID
}

// Report is the outcome of a batch. Results follow the request order.
type Report struct {
	UserID  string
	Results []domain.HealthCheckResult
	Summary Summary
}

// Options tunes a Checker. Zero values pick the defaults.
type Options struct {
	// DefaultUserID is used when a request has no user. Empty means the
	// user is mandatory.
	DefaultUserID string
	Concurrency   int
	Now           func() time.Time
}

// Checker executes batches against a bookmark collection.
type Checker struct {
	coll          *store.Collection
	prober        probe.Prober
	log           logger.Logger
	defaultUserID string
	concurrency   int
	now           func() time.Time
}

func New(coll *store.Collection, prober probe.Prober, log logger.Logger, opts Options) *Checker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Checker{
		coll:          coll,
		prober:        prober,
		log:           log,
		defaultUserID: opts.DefaultUserID,
		concurrency:   opts.Concurrency,
		now:           opts.Now,
	}
}

// ResolveUser trims userID and applies the default user policy.
func (c *Checker) ResolveUser(userID string) (string, error) {
	if userID = strings.TrimSpace(userID); userID != "" {
		return userID, nil
	}
	if c.defaultUserID != "" {
		return c.defaultUserID, nil
	}
	return "", ErrUserRequired
}

// target is a bookmark resolved from the request, probed at most once per
// request position.
type target struct {
	found bool
	url   string
}

// Run executes one batch. Not-found IDs and probe failures are reported per
// item; only store failures fail the batch, and then nothing is persisted.
//
// The batch is detached from ctx cancellation: once accepted it runs to
// completion even if the caller goes away. Each probe still has its own
// deadline.
func (c *Checker) Run(ctx context.Context, req Request) (Report, error) {
	userID, err := c.ResolveUser(req.UserID)
	if err != nil {
		return Report{}, err
	}

	report := Report{UserID: userID, Results: []domain.HealthCheckResult{}}
	if len(req.BookmarkIDs) == 0 {
		return report, nil
	}

	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	snapshot, err := c.coll.Snapshot(ctx)
	if err != nil {
		return Report{}, err
	}
	targets := resolve(snapshot, userID, req.BookmarkIDs)

	results := make([]domain.HealthCheckResult, len(req.BookmarkIDs))
	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, id := range req.BookmarkIDs {
		t := targets[i]
		if !t.found {
			results[i] = domain.NotFoundResult(id, c.now().UTC())
			continue
		}
		g.Go(func() error {
			out := c.prober.Probe(ctx, t.url)
			results[i] = toResult(id, out, c.now().UTC())
			c.log.Debug("probed bookmark",
				logger.String("bookmark_id", id.String()),
				logger.String("url", t.url),
				logger.String("status", string(results[i].Status)),
				logger.Int("status_code", out.StatusCode),
				logger.Duration("elapsed", out.Elapsed))
			return nil
		})
	}
	_ = g.Wait() // probes never fail the group

	if err := c.persist(ctx, userID, req.BookmarkIDs, targets, results); err != nil {
		return Report{}, err
	}

	report.Results = results
	report.Summary = Summarize(results)
	c.log.Info("health check completed",
		logger.String("user_id", userID),
		logger.Int("requested", len(req.BookmarkIDs)),
		logger.Int("not_found", report.Summary.NotFound),
		logger.Int("broken", report.Summary.Broken),
		logger.Duration("elapsed", time.Since(start)))
	return report, nil
}

// persist reloads the collection under the write lock and folds the
// results in, in request order, so repeated IDs count once per occurrence
// and the last occurrence sets the tier. A bookmark deleted while the
// batch ran keeps its result but is not recreated.
func (c *Checker) persist(ctx context.Context, userID string, ids []domain.BookmarkID, targets []target, results []domain.HealthCheckResult) error {
	err := c.coll.Update(ctx, func(bookmarks []domain.Bookmark) ([]domain.Bookmark, bool, error) {
		changed := false
		for i, id := range ids {
			if !targets[i].found {
				continue
			}
			if pos := indexOf(bookmarks, userID, id); pos >= 0 {
				bookmarks[pos].ApplyHealth(results[i])
				changed = true
			}
		}
		return bookmarks, changed, nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist health results: %w", err)
	}
	return nil
}

func resolve(bookmarks []domain.Bookmark, userID string, ids []domain.BookmarkID) []target {
	targets := make([]target, len(ids))
	for i, id := range ids {
		if pos := indexOf(bookmarks, userID, id); pos >= 0 {
			targets[i] = target{found: true, url: bookmarks[pos].URL}
		}
	}
	return targets
}

func indexOf(bookmarks []domain.Bookmark, userID string, id domain.BookmarkID) int {
	for i := range bookmarks {
		if bookmarks[i].ID == id && bookmarks[i].OwnedBy(userID) {
			return i
		}
	}
	return -1
}

func toResult(id domain.BookmarkID, out probe.Outcome, now time.Time) domain.HealthCheckResult {
	ms := out.Elapsed.Milliseconds()
	r := domain.HealthCheckResult{
		BookmarkID:   id,
		Status:       domain.Classify(out.StatusCode, out.Elapsed, out.TimedOut),
		ResponseTime: &ms,
		LastChecked:  now,
	}
	switch {
	case out.Err != nil:
		r.Error = out.FailureReason()
	case out.StatusCode >= 400:
		r.StatusCode = out.StatusCode
		r.Error = fmt.Sprintf("HTTP %d", out.StatusCode)
	default:
		r.StatusCode = out.StatusCode
	}
	return r
}
