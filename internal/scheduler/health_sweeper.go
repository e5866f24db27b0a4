package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/MrSnakeDoc/bookaimark/internal/domain"
	"github.com/MrSnakeDoc/bookaimark/internal/healthcheck"
	"github.com/MrSnakeDoc/bookaimark/internal/logger"
	"github.com/MrSnakeDoc/bookaimark/internal/store"
)

// SweepStats summarizes one sweep.
type SweepStats struct {
	Users   int
	Checked int
	Broken  int
	Failed  int // users whose batch failed
}

// HealthSweeper health-checks every bookmark of every user, on a cron
// schedule and on demand. Sweeps never overlap: triggers that arrive
// while one is queued are dropped.
type HealthSweeper struct {
	checker  *healthcheck.Checker
	coll     *store.Collection
	logger   logger.Logger
	schedule string
	cron     *cron.Cron
	trigger  chan struct{}
	stopCh   chan struct{}
	done     chan struct{}

	mu      sync.Mutex
	lastRun time.Time
}

// NewHealthSweeper creates a sweeper. An empty schedule means manual
// triggers only.
func NewHealthSweeper(checker *healthcheck.Checker, coll *store.Collection, log logger.Logger, schedule string) (*HealthSweeper, error) {
	hs := &HealthSweeper{
		checker:  checker,
		coll:     coll,
		logger:   log,
		schedule: schedule,
		cron:     cron.New(),
		trigger:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	if schedule != "" {
		if _, err := hs.cron.AddFunc(schedule, func() { hs.Trigger() }); err != nil {
			return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
		}
	}
	return hs, nil
}

// Start runs the sweep loop in the background until Stop or ctx is done.
func (hs *HealthSweeper) Start(ctx context.Context) {
	if hs.schedule != "" {
		hs.cron.Start()
		hs.logger.Info("health sweeper scheduled", logger.String("schedule", hs.schedule))
	}

	go func() {
		defer close(hs.done)
		for {
			select {
			case <-hs.trigger:
				if _, err := hs.Sweep(ctx); err != nil {
					hs.logger.Error("health sweep failed", logger.Error(err))
				}
			case <-hs.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (hs *HealthSweeper) Stop() {
	<-hs.cron.Stop().Done()
	close(hs.stopCh)
	<-hs.done
}

// Trigger queues a sweep. It returns false if one is already queued.
func (hs *HealthSweeper) Trigger() bool {
	select {
	case hs.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// LastRun returns when the last sweep finished.
func (hs *HealthSweeper) LastRun() time.Time {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return hs.lastRun
}

// Sweep checks all bookmarks, one batch per user. A failing batch does
// not stop the others.
func (hs *HealthSweeper) Sweep(ctx context.Context) (SweepStats, error) {
	start := time.Now()
	all, err := hs.coll.Snapshot(ctx)
	if err != nil {
		return SweepStats{}, err
	}

	users, byUser := groupByUser(all)
	stats := SweepStats{Users: len(users)}
	var errs []error

	for _, userID := range users {
		report, err := hs.checker.Run(ctx, healthcheck.Request{UserID: userID, BookmarkIDs: byUser[userID]})
		if err != nil {
			stats.Failed++
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		stats.Checked += report.Summary.Total
		stats.Broken += report.Summary.Broken
	}

	hs.mu.Lock()
	hs.lastRun = time.Now()
	hs.mu.Unlock()

	hs.logger.Info("health sweep completed",
		logger.Int("users", stats.Users),
		logger.Int("checked", stats.Checked),
		logger.Int("broken", stats.Broken),
		logger.Int("failed_users", stats.Failed),
		logger.Duration("elapsed", time.Since(start)))

	return stats, errors.Join(errs...)
}

// groupByUser returns user IDs in first-seen order and each user's
// bookmark IDs in collection order. Bookmarks without an owner are skipped.
func groupByUser(bookmarks []domain.Bookmark) ([]string, map[string][]domain.BookmarkID) {
	var users []string
	byUser := make(map[string][]domain.BookmarkID)
	for _, b := range bookmarks {
		if b.UserID == "" {
			continue
		}
		if _, seen := byUser[b.UserID]; !seen {
			users = append(users, b.UserID)
		}
		byUser[b.UserID] = append(byUser[b.UserID], b.ID)
	}
	return users, byUser
}
