package kv

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
)

// OpenOptions tune how Open connects to remote backends
type OpenOptions struct {
	Attempts uint
	Delay    time.Duration
	Logger   *zap.Logger
}

// Open selects a backend from the URL scheme:
//
//	sqlite://<path>   local SQLite file
//	postgres://...    PostgreSQL (also postgresql://)
//	redis://...       Redis (also rediss://)
//	memory://         process memory
//
// Remote backends are retried with a fixed delay since they may still be starting.
func Open(ctx context.Context, storeURL string, opts OpenOptions) (Store, error) {
	if opts.Attempts == 0 {
		opts.Attempts = 1
	}
	if opts.Delay <= 0 {
		opts.Delay = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	scheme, rest, ok := strings.Cut(storeURL, "://")
	if !ok {
		return nil, fmt.Errorf("invalid store URL %q: missing scheme", storeURL)
	}

	switch scheme {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if rest == "" {
			return nil, fmt.Errorf("invalid store URL %q: missing database path", storeURL)
		}
		return NewSQLStore(ctx, DialectSQLite, rest)
	case "postgres", "postgresql":
		return connectWithRetry(ctx, opts, scheme, func() (Store, error) {
			return NewSQLStore(ctx, DialectPostgres, storeURL)
		})
	case "redis", "rediss":
		return connectWithRetry(ctx, opts, scheme, func() (Store, error) {
			return NewRedisStore(ctx, storeURL)
		})
	default:
		return nil, fmt.Errorf("unsupported store scheme: %s", scheme)
	}
}

func connectWithRetry(ctx context.Context, opts OpenOptions, backend string, connect func() (Store, error)) (Store, error) {
	var store Store
	err := retry.Do(
		func() error {
			s, err := connect()
			if err != nil {
				return err
			}
			store = s
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(opts.Attempts),
		retry.Delay(opts.Delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			opts.Logger.Warn("failed_to_connect_to_store_retrying",
				zap.String("backend", backend),
				zap.Uint("attempt", n+1),
				zap.Uint("max_attempts", opts.Attempts),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s store: %w", backend, err)
	}
	return store, nil
}
