package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTH
// ══════════════════════════════════════════════════════════════════════════════

func TestAuthMiddleware_AllowlistDecision(t *testing.T) {
	m := NewAuthMiddleware(AuthConfig{
		AllowedOperators: []int64{100, 200},
		Admins:           []int64{900},
	})

	allowed := m.Authorize(100)
	assert.True(t, allowed.Allowed)
	assert.False(t, allowed.IsAdmin)
	assert.Empty(t, allowed.ResponseMessage)

	admin := m.Authorize(900)
	assert.True(t, admin.Allowed)
	assert.True(t, admin.IsAdmin)

	denied := m.Authorize(42)
	assert.False(t, denied.Allowed)
	assert.Equal(t, DeniedMessage, denied.ResponseMessage)
}

func TestAuthMiddleware_OperatorsIncludeAdmins(t *testing.T) {
	m := NewAuthMiddleware(AuthConfig{
		AllowedOperators: []int64{100},
		Admins:           []int64{900},
	})

	ops := m.Operators()
	assert.ElementsMatch(t, []shared.OperatorID{100, 900}, ops)
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, shared.OperatorID(0), OperatorIDFromContext(ctx))
	assert.False(t, IsAdminFromContext(ctx))

	ctx = ContextWithOperatorID(ctx, 100)
	ctx = ContextWithAdmin(ctx, true)
	assert.Equal(t, shared.OperatorID(100), OperatorIDFromContext(ctx))
	assert.True(t, IsAdminFromContext(ctx))
}

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER
// ══════════════════════════════════════════════════════════════════════════════

func TestRateLimiter_BurstThenLimited(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	cfg.RequestsPerMinute = 6
	cfg.BurstSize = 3
	rl := NewRateLimiter(cfg)

	for i := 0; i < 3; i++ {
		res := rl.Check(100)
		require.True(t, res.Allowed, "request %d inside the burst", i+1)
	}

	limited := rl.Check(100)
	assert.False(t, limited.Allowed)
	assert.Greater(t, limited.RetryAfter, time.Duration(0))
	assert.Contains(t, limited.ResponseMessage, "Забагато запитів")
}

func TestRateLimiter_BucketsAreIndependent(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	cfg.BurstSize = 1
	rl := NewRateLimiter(cfg)

	require.True(t, rl.Check(100).Allowed)
	assert.False(t, rl.Check(100).Allowed)
	assert.True(t, rl.Check(200).Allowed, "another operator has their own bucket")
}

func TestRateLimiter_Refills(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	// 600 rpm = 10 tokens/second, so a drained bucket recovers quickly.
	cfg.RequestsPerMinute = 600
	cfg.BurstSize = 1
	rl := NewRateLimiter(cfg)

	require.True(t, rl.Check(100).Allowed)
	require.False(t, rl.Check(100).Allowed)

	time.Sleep(150 * time.Millisecond)
	assert.True(t, rl.Check(100).Allowed)
}

// ══════════════════════════════════════════════════════════════════════════════
// RECOVERY
// ══════════════════════════════════════════════════════════════════════════════

func TestRecovery_PassesThroughResult(t *testing.T) {
	m := NewRecoveryMiddleware(DefaultRecoveryConfig())

	res, err := m.RecoverWithHandler(100, "command", func() error { return nil })
	require.NoError(t, err)
	assert.False(t, res.Recovered)

	boom := errors.New("boom")
	_, err = m.RecoverWithHandler(100, "command", func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestRecovery_CatchesPanic(t *testing.T) {
	m := NewRecoveryMiddleware(DefaultRecoveryConfig())

	res, err := m.RecoverWithHandler(100, "callback", func() error {
		panic("handler exploded")
	})
	require.NoError(t, err)
	assert.True(t, res.Recovered)
	assert.Equal(t, DefaultRecoveryConfig().UserErrorMessage, res.UserMessage)
}
