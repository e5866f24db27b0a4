package config

import (
	"errors"
	"fmt"
	"log"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	WriteTimeout    time.Duration // HTTP write timeout; health batches clear it
	RequestTimeout  time.Duration // timeout for CRUD and search routes

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	StoreBackend string // memory | file | sqlite | redis
	DataFile     string // JSON file for the file backend
	SQLiteDir    string // directory holding bookmarks.db for the sqlite backend

	ProbeTimeout     time.Duration // per-URL probe deadline (default: 10s)
	ProbeUserAgent   string        // User-Agent sent with every probe
	ProbeConcurrency int           // probes in flight per batch (default: 4)

	DefaultUserID string // used when a request has no userId; empty = userId required
	SweepSchedule string // cron spec for background sweeps; empty = disabled

	SeedFile  string // homepage bookmarks.yaml imported at startup (optional)
	SeedOwner string // owner of seeded bookmarks (defaults to DefaultUserID)

	RateLimitBurst        int // burst of health-check requests per IP
	RateLimitRefillPerMin int // sustained health-check requests per IP per minute

	// Redis (only read when StoreBackend is redis)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)

	AllowedHosts []string // optional, restrict operator endpoints to specific Host headers
	AllowedCIDRS []string // optional, restrict operator endpoints to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	CORSOrigins  []string // optional, browser origins allowed to call the API
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("BOOKAIMARK_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("BOOKAIMARK_SHUTDOWN_TIMEOUT", 5*time.Second),
		WriteTimeout:    mustDuration("BOOKAIMARK_WRITE_TIMEOUT", 5*time.Minute),
		RequestTimeout:  mustDuration("BOOKAIMARK_REQUEST_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("BOOKAIMARK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("BOOKAIMARK_PRETTY_LOG", false),

		// Storage
		StoreBackend: strings.ToLower(getenv("BOOKAIMARK_STORE", BackendFile)),
		DataFile:     getenv("BOOKAIMARK_DATA_FILE", "data/bookmarks.json"),
		SQLiteDir:    getenv("BOOKAIMARK_SQLITE_DIR", "data"),

		// Probing
		ProbeTimeout:     mustDuration("BOOKAIMARK_PROBE_TIMEOUT", 10*time.Second),
		ProbeUserAgent:   getenv("BOOKAIMARK_PROBE_USER_AGENT", ""),
		ProbeConcurrency: getenvInt("BOOKAIMARK_PROBE_CONCURRENCY", 4),

		DefaultUserID: getenv("BOOKAIMARK_DEFAULT_USER_ID", ""),
		SweepSchedule: getenv("BOOKAIMARK_SWEEP_SCHEDULE", ""),

		SeedFile:  getenv("BOOKAIMARK_SEED_FILE", ""),
		SeedOwner: getenv("BOOKAIMARK_SEED_OWNER", ""),

		RateLimitBurst:        getenvInt("BOOKAIMARK_RATE_LIMIT_BURST", 10),
		RateLimitRefillPerMin: getenvInt("BOOKAIMARK_RATE_LIMIT_PER_MIN", 30),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("BOOKAIMARK_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("BOOKAIMARK_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("BOOKAIMARK_TRUST_PROXY", false),
		CORSOrigins:  splitAndTrim(getenv("BOOKAIMARK_CORS_ORIGINS", "")),
	}

	if cfg.SeedOwner == "" {
		cfg.SeedOwner = cfg.DefaultUserID
	}

	if cfg.StoreBackend == BackendRedis {
		loadRedis(cfg)
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: invalid configuration: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

func loadRedis(cfg *Config) {
	cfg.RedisAddr = requireEnv("BOOKAIMARK_REDIS_ADDR")
	cfg.RedisUser = getenv("BOOKAIMARK_REDIS_USERNAME", "")
	cfg.RedisPasswordRequired = mustBool("BOOKAIMARK_REDIS_PASSWORD_REQUIRED", false)
	cfg.RedisPassword = getenv("BOOKAIMARK_REDIS_PASSWORD", "")
	cfg.RedisDB = getenvInt("BOOKAIMARK_REDIS_DB", 0)
	cfg.RedisDT = mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.RedisRT = mustDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.RedisWT = mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.RedisMaxWait = mustDuration("REDIS_MAX_WAIT", 10*time.Second)
	cfg.RedisPingTimeout = mustDuration("REDIS_PING_TIMEOUT", 5*time.Second)
	cfg.RedisPoolSize = getenvInt("REDIS_POOL_SIZE", 10)
	cfg.RedisConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second)
	cfg.RedisRetryInterval = mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second)

	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: BOOKAIMARK_REDIS_PASSWORD is required when BOOKAIMARK_REDIS_PASSWORD_REQUIRED=true")
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case BackendMemory, BackendRedis:
	case BackendFile:
		if c.DataFile == "" {
			errs = append(errs, errors.New("data file is required for the file store"))
		}
	case BackendSQLite:
		if c.SQLiteDir == "" {
			errs = append(errs, errors.New("sqlite directory is required for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.StoreBackend))
	}

	if c.ProbeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("probe timeout must be > 0, got %v", c.ProbeTimeout))
	}
	if c.ProbeConcurrency < 1 {
		errs = append(errs, fmt.Errorf("probe concurrency must be >= 1, got %d", c.ProbeConcurrency))
	}
	if c.WriteTimeout > 0 && c.WriteTimeout <= c.ProbeTimeout {
		errs = append(errs, fmt.Errorf("write timeout %v must exceed probe timeout %v", c.WriteTimeout, c.ProbeTimeout))
	}
	if c.SweepSchedule != "" {
		if _, err := cron.ParseStandard(c.SweepSchedule); err != nil {
			errs = append(errs, fmt.Errorf("invalid sweep schedule %q: %w", c.SweepSchedule, err))
		}
	}
	for _, entry := range c.AllowedCIDRS {
		if _, err := netip.ParsePrefix(entry); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(entry); err != nil {
			errs = append(errs, fmt.Errorf("invalid allowed CIDR or IP %q", entry))
		}
	}
	if c.SeedFile != "" && c.SeedOwner == "" {
		errs = append(errs, errors.New("seed owner (or default user id) is required when a seed file is set"))
	}

	return errors.Join(errs...)
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
