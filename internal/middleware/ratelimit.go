package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

const rateLimitPrefix = "drome_ratelimit"

// NewRateLimitStore returns a Redis-backed counter store when client is set
// and an in-process store otherwise
func NewRateLimitStore(client *redis.Client) (limiter.Store, error) {
	opts := limiter.StoreOptions{
		Prefix:          rateLimitPrefix,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	}
	if client == nil {
		return memorystore.NewStoreWithOptions(opts), nil
	}
	store, err := redisstore.NewStoreWithOptions(client, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
	}
	return store, nil
}

// RateLimit limits requests per client IP. rate uses the limiter format, e.g. "50-S".
func RateLimit(store limiter.Store, rate string, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}
	instance := limiter.New(store, parsed)
	mw := stdlibmw.NewMiddleware(instance,
		stdlibmw.WithKeyGetter(ClientIP),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, r, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded", logger)
		}),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			if logger != nil {
				logger.Error("rate_limit_store_failed", zap.Error(err))
			}
			writeError(w, r, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred", logger)
		}),
	)
	return mw.Handler, nil
}

// ClientIP returns the originating client address, preferring proxy headers
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
