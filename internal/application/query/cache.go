package query

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("query: cache miss")

// Cache is the optional query-result cache. The Redis implementation
// lives in infrastructure/persistence/redis; a nil Cache disables
// caching entirely.
type Cache interface {
	// Get unmarshals the cached value into dest or returns ErrCacheMiss.
	Get(ctx context.Context, key string, dest any) error

	// Set stores the value under key for ttl.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// Cache keys and TTL for the report queries. Write paths call
// InvalidateReports after any lesson/payment/child mutation.
const (
	cacheKeyBalance   = "report:balance"
	cacheKeyDashboard = "report:dashboard"

	reportCacheTTL = 5 * time.Minute
)

// InvalidateReports drops the cached balance and dashboard reports.
// Safe to call with a nil cache.
func InvalidateReports(ctx context.Context, cache Cache) {
	if cache == nil {
		return
	}
	// Best-effort: a failed invalidation only shortens cache accuracy,
	// the TTL still bounds staleness.
	_ = cache.Delete(ctx, cacheKeyBalance, cacheKeyDashboard)
}
