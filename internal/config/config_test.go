package config

import (
	"strings"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "test_value")
	if got := requireEnv("TEST_VAR"); got != "test_value" {
		t.Errorf("requireEnv() = %v, want test_value", got)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("requireEnv() should have panicked")
		}
	}()
	requireEnv("TEST_VAR_MISSING")
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{name: "valid duration", value: "30s", def: time.Second, expected: 30 * time.Second},
		{name: "invalid falls back", value: "soon", def: time.Second, expected: time.Second},
		{name: "unset falls back", value: "", def: 2 * time.Minute, expected: 2 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			if got := mustDuration("TEST_DURATION", tt.def); got != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      bool
		expected bool
	}{
		{name: "true", value: "true", def: false, expected: true},
		{name: "numeric false", value: "0", def: true, expected: false},
		{name: "invalid falls back", value: "maybe", def: true, expected: true},
		{name: "unset falls back", value: "", def: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			if got := mustBool("TEST_BOOL", tt.def); got != tt.expected {
				t.Errorf("mustBool() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(` a.example.com , "b.example.com",, 'c' `)
	want := []string{"a.example.com", "b.example.com", "c"}
	if len(got) != len(want) {
		t.Fatalf("splitAndTrim() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitAndTrim()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.StoreBackend != BackendFile || cfg.DataFile != "data/bookmarks.json" {
		t.Errorf("store = %s %s", cfg.StoreBackend, cfg.DataFile)
	}
	if cfg.ProbeTimeout != 10*time.Second || cfg.ProbeConcurrency != 4 {
		t.Errorf("probe = %v x%d", cfg.ProbeTimeout, cfg.ProbeConcurrency)
	}
	if cfg.DefaultUserID != "" {
		t.Errorf("DefaultUserID = %q, want empty", cfg.DefaultUserID)
	}
	if cfg.SweepSchedule != "" || cfg.SeedFile != "" {
		t.Errorf("optional features enabled by default: %+v", cfg)
	}
}

func TestLoadSeedOwnerFallsBackToDefaultUser(t *testing.T) {
	t.Setenv("BOOKAIMARK_DEFAULT_USER_ID", "dev-user-123")
	t.Setenv("BOOKAIMARK_SEED_FILE", "/app/bookmarks.yaml")

	cfg := Load()
	if cfg.SeedOwner != "dev-user-123" {
		t.Errorf("SeedOwner = %q, want dev-user-123", cfg.SeedOwner)
	}
}

func TestLoadRedisRequiresAddr(t *testing.T) {
	t.Setenv("BOOKAIMARK_STORE", "redis")

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Load() should panic without BOOKAIMARK_REDIS_ADDR")
		}
	}()
	Load()
}

func TestValidate(t *testing.T) {
	valid := Config{
		StoreBackend:     BackendMemory,
		ProbeTimeout:     10 * time.Second,
		ProbeConcurrency: 4,
		WriteTimeout:     time.Minute,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"unknown backend", func(c *Config) { c.StoreBackend = "postgres" }, "unknown store backend"},
		{"zero concurrency", func(c *Config) { c.ProbeConcurrency = 0 }, "probe concurrency"},
		{"write timeout too short", func(c *Config) { c.WriteTimeout = 5 * time.Second }, "write timeout"},
		{"bad cron", func(c *Config) { c.SweepSchedule = "every day" }, "invalid sweep schedule"},
		{"seed without owner", func(c *Config) { c.SeedFile = "bookmarks.yaml" }, "seed owner"},
		{"file backend without path", func(c *Config) { c.StoreBackend = BackendFile }, "data file"},
		{"bad cidr", func(c *Config) { c.AllowedCIDRS = []string{"10.0.0.0/8", "10.0.0.300"} }, "invalid allowed CIDR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}
