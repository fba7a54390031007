package middleware

import (
	"fmt"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER MIDDLEWARE
// Token bucket per operator. The allowlist keeps the audience small, so
// this guards against accidental button mashing rather than abuse.
// ══════════════════════════════════════════════════════════════════════════════

// RateLimitConfig holds configuration for the rate limiter.
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained request rate per operator.
	RequestsPerMinute int

	// BurstSize is the bucket capacity.
	BurstSize int

	// CleanupInterval is how often idle buckets are dropped.
	CleanupInterval time.Duration

	// OnRateLimited renders the message sent when the limit is hit.
	OnRateLimited func(retryAfter time.Duration) string
}

// DefaultRateLimitConfig returns sensible defaults for rate limiting.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 30,
		BurstSize:         8,
		CleanupInterval:   5 * time.Minute,
		OnRateLimited: func(retryAfter time.Duration) string {
			seconds := int(retryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			return fmt.Sprintf("Забагато запитів. Зачекайте %d с і спробуйте ще раз.", seconds)
		},
	}
}

// RateLimiter implements per-operator rate limiting with token buckets.
type RateLimiter struct {
	config  RateLimitConfig
	mu      sync.Mutex
	buckets map[int64]*tokenBucket
}

type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter creates a rate limiter and starts its cleanup loop.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		buckets: make(map[int64]*tokenBucket),
	}
	go rl.cleanupLoop()
	return rl
}

// RateLimitResult is the outcome of one rate limit check.
type RateLimitResult struct {
	// Allowed indicates if the request may proceed.
	Allowed bool

	// RetryAfter is how long to wait before the next request.
	RetryAfter time.Duration

	// ResponseMessage is the message to send when limited.
	ResponseMessage string
}

// Check consumes one token for the operator if available.
func (rl *RateLimiter) Check(telegramID int64) RateLimitResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	refillRate := float64(rl.config.RequestsPerMinute) / 60.0

	b, ok := rl.buckets[telegramID]
	if !ok {
		b = &tokenBucket{
			tokens:     float64(rl.config.BurstSize),
			lastRefill: now,
		}
		rl.buckets[telegramID] = b
	}

	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * refillRate
	if b.tokens > float64(rl.config.BurstSize) {
		b.tokens = float64(rl.config.BurstSize)
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return RateLimitResult{Allowed: true}
	}

	retryAfter := time.Duration((1-b.tokens)/refillRate*float64(time.Second)) + time.Millisecond
	return RateLimitResult{
		Allowed:         false,
		RetryAfter:      retryAfter,
		ResponseMessage: rl.config.OnRateLimited(retryAfter),
	}
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.config.CleanupInterval)
		for id, b := range rl.buckets {
			if b.lastRefill.Before(cutoff) {
				delete(rl.buckets, id)
			}
		}
		rl.mu.Unlock()
	}
}
