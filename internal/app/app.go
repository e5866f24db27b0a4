package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/bookaimark/internal/config"
	"github.com/MrSnakeDoc/bookaimark/internal/healthcheck"
	"github.com/MrSnakeDoc/bookaimark/internal/httpserver"
	"github.com/MrSnakeDoc/bookaimark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookaimark/internal/httpserver/mw"
	"github.com/MrSnakeDoc/bookaimark/internal/logger"
	"github.com/MrSnakeDoc/bookaimark/internal/probe"
	"github.com/MrSnakeDoc/bookaimark/internal/redis"
	"github.com/MrSnakeDoc/bookaimark/internal/scheduler"
	"github.com/MrSnakeDoc/bookaimark/internal/sources/homepage"
	"github.com/MrSnakeDoc/bookaimark/internal/store"
	"github.com/MrSnakeDoc/bookaimark/internal/store/file"
	"github.com/MrSnakeDoc/bookaimark/internal/store/memory"
	"github.com/MrSnakeDoc/bookaimark/internal/store/sqlite"
	redisstore "github.com/MrSnakeDoc/bookaimark/internal/store/redis"
	"github.com/MrSnakeDoc/bookaimark/internal/version"
)

type App struct {
	cfg        *config.Config
	logger     logger.Logger
	server     *httpserver.Server
	bookmarks  *store.Collection
	sweeper    *scheduler.HealthSweeper
	closeStore func() error
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Open the store early - fail fast if unavailable
	backend, closeStore, err := openStore(context.Background(), cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open %s store: %v", cfg.StoreBackend, err)
		os.Exit(1)
	}
	bookmarks := store.NewCollection(backend)
	loggerClient.Info("bookmark store ready", logger.String("backend", cfg.StoreBackend))

	prober := probe.New(probe.Options{
		Timeout:   cfg.ProbeTimeout,
		UserAgent: cfg.ProbeUserAgent,
	})
	checker := healthcheck.New(bookmarks, prober, loggerClient, healthcheck.Options{
		DefaultUserID: cfg.DefaultUserID,
		Concurrency:   cfg.ProbeConcurrency,
	})
	if cfg.DefaultUserID == "" {
		loggerClient.Info("no default user configured, requests must carry a userId")
	} else {
		loggerClient.Warn("requests without a userId act as the default user",
			logger.String("default_user_id", cfg.DefaultUserID))
	}

	sweeper, err := scheduler.NewHealthSweeper(checker, bookmarks, loggerClient, cfg.SweepSchedule)
	if err != nil {
		loggerClient.Errorf("Failed to create health sweeper: %v", err)
		os.Exit(1)
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedHosts: cfg.AllowedHosts,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		StoreBackend: cfg.StoreBackend,
		Bookmarks:    bookmarks,
		Checker:      checker,
		Sweeper:      sweeper,
		HealthLimit: mw.RateLimitConfig{
			Burst:             cfg.RateLimitBurst,
			RefillPerIPPerMin: cfg.RateLimitRefillPerMin,
			MaxEntries:        10000,
			TrustProxy:        cfg.TrustProxy,
		},
		RequestTimeout: cfg.RequestTimeout,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:        cfg,
		logger:     loggerClient,
		server:     server,
		bookmarks:  bookmarks,
		sweeper:    sweeper,
		closeStore: closeStore,
	}
}

// openStore builds the configured backend and returns its closer.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreBackend {
	case config.BackendMemory:
		log.Warn("using in-memory store, bookmarks are lost on restart")
		return memory.New(), noop, nil

	case config.BackendFile:
		s := file.New(cfg.DataFile)
		if err := s.Ping(ctx); err != nil {
			return nil, nil, err
		}
		return s, noop, nil

	case config.BackendSQLite:
		s, err := sqlite.Open(cfg.SQLiteDir)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case config.BackendRedis:
		client, err := redis.Connect(ctx, redis.Options{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			PoolSize:       cfg.RedisPoolSize,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return redisstore.NewStore(client), client.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting %s %s on %s", version.ServiceName, version.Version, a.cfg.ListenPort)
	a.logger.Infof("bookaimark %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Seed from homepage bookmarks.yaml (optional)
	if a.cfg.SeedFile != "" {
		importer := homepage.NewImporter(a.cfg.SeedFile, a.cfg.SeedOwner, a.logger)
		if _, err := importer.Import(ctx, a.bookmarks); err != nil {
			a.logger.Warn("failed to import seed bookmarks, continuing without them",
				logger.String("file", a.cfg.SeedFile),
				logger.Error(err))
		}
	}

	a.sweeper.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	// Waits for an in-flight sweep so its single write is not cut short.
	a.sweeper.Stop()

	if err := a.closeStore(); err != nil {
		a.logger.Warnf("failed to close store: %v", err)
	} else {
		a.logger.Info("✅ Store closed cleanly")
	}

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ bookaimark stopped cleanly")
	return nil
}
