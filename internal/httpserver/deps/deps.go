package deps

import (
	"time"

	"github.com/MrSnakeDoc/bookaimark/internal/healthcheck"
	"github.com/MrSnakeDoc/bookaimark/internal/httpserver/mw"
	"github.com/MrSnakeDoc/bookaimark/internal/logger"
	"github.com/MrSnakeDoc/bookaimark/internal/store"
)

// Sweeper is the part of the background sweeper the HTTP layer needs.
type Sweeper interface {
	// Trigger requests a sweep; false when one is already queued.
	Trigger() bool
	// LastRun reports when the last sweep finished (zero if never).
	LastRun() time.Time
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time   // for testing, defaults to time.Now
	AllowedHosts   []string           // Host headers allowed on operator endpoints
	AllowedCIDRS   []string           // IPs allowed to access readyz/infra/sweep
	TrustProxy     bool               // true if running behind a trusted reverse proxy (e.g., cloudflared)
	StoreBackend   string             // Name of the configured store backend
	Bookmarks      *store.Collection  // Bookmark collection shared by all writers
	Checker        *healthcheck.Checker
	Sweeper        Sweeper            // nil when sweeping is disabled
	HealthLimit    mw.RateLimitConfig // Rate limit for POST /api/bookmarks/health
	RequestTimeout time.Duration      // Timeout for CRUD and search routes
}

// Now returns the current time, honoring TimeNow.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
