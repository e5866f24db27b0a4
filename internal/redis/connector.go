// Package redis opens the go-redis client used by the redis store backend.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/bookaimark/internal/logger"
	"github.com/redis/go-redis/v9"
)

// Options configures the client and the startup connection policy.
type Options struct {
	Addr     string
	User     string
	Password string
	DB       int
	PoolSize int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// ConnectTimeout bounds the whole startup wait.
	ConnectTimeout time.Duration
	// RetryInterval is the first wait between pings; it doubles up to MaxWait.
	RetryInterval time.Duration
	MaxWait       time.Duration
	PingTimeout   time.Duration
}

func (o Options) validate() error {
	var errs []error
	if o.Addr == "" {
		errs = append(errs, errors.New("redis address is required"))
	}
	if o.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("connect timeout must be > 0, got %v", o.ConnectTimeout))
	}
	if o.RetryInterval <= 0 {
		errs = append(errs, fmt.Errorf("retry interval must be > 0, got %v", o.RetryInterval))
	}
	if o.MaxWait < o.RetryInterval {
		errs = append(errs, fmt.Errorf("max wait %v must be >= retry interval %v", o.MaxWait, o.RetryInterval))
	}
	if o.PingTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ping timeout must be > 0, got %v", o.PingTimeout))
	}
	return errors.Join(errs...)
}

// backoff doubles the wait after each failed attempt, capped at max.
type backoff struct {
	next time.Duration
	max  time.Duration
}

func (b *backoff) wait() time.Duration {
	w := b.next
	b.next = min(b.next*2, b.max)
	return w
}

// Connect creates a client and pings it until it answers, ctx is done or
// ConnectTimeout elapses. The client is closed on failure.
func Connect(ctx context.Context, opts Options, log logger.Logger) (*redis.Client, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid redis options: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	if err := waitForPing(ctx, client, opts, log); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func waitForPing(ctx context.Context, client *redis.Client, opts Options, log logger.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	log.Info("connecting to redis",
		logger.String("addr", opts.Addr),
		logger.Duration("timeout", opts.ConnectTimeout))

	start := time.Now()
	bo := backoff{next: opts.RetryInterval, max: opts.MaxWait}

	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, opts.PingTimeout)
		err := client.Ping(pingCtx).Err()
		pingCancel()

		if err == nil {
			fields := []logger.Field{logger.String("addr", opts.Addr)}
			if attempt > 1 {
				fields = append(fields, logger.Int("attempts", attempt), logger.Duration("elapsed", time.Since(start)))
			}
			log.Info("connected to redis", fields...)
			return nil
		}

		wait := bo.wait()
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Error("redis unavailable",
				logger.String("addr", opts.Addr),
				logger.Int("attempts", attempt),
				logger.Error(err))
			return fmt.Errorf("redis unavailable at %s after %d attempts: %w", opts.Addr, attempt, err)
		case <-timer.C:
			log.Warn("redis ping failed, retrying",
				logger.String("addr", opts.Addr),
				logger.Int("attempt", attempt),
				logger.Duration("next_retry_in", wait),
				logger.Error(err))
		}
	}
}
