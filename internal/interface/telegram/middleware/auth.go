// Package middleware contains Telegram bot middlewares for request
// processing. Every incoming update passes through the chain
// (auth -> rate limit -> recovery) before it reaches a handler.
package middleware

import (
	"context"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT KEYS
// ══════════════════════════════════════════════════════════════════════════════

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// OperatorIDContextKey is the context key for the operator's Telegram ID.
	OperatorIDContextKey contextKey = "operator_id"

	// AdminContextKey is the context key for the admin flag.
	AdminContextKey contextKey = "is_admin"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTH MIDDLEWARE
// The bot serves a closed workspace: a fixed allowlist of operator IDs
// from configuration. There is no registration path; anyone outside the
// list gets the same short denial regardless of what they sent.
// ══════════════════════════════════════════════════════════════════════════════

// DeniedMessage is the fixed reply to anyone outside the allowlist.
const DeniedMessage = "Вибачте, у вас немає доступу до цього бота."

// AuthConfig holds the allowlists for the auth middleware.
type AuthConfig struct {
	// AllowedOperators are Telegram IDs permitted to use the bot.
	// Admins are implicitly allowed.
	AllowedOperators []int64

	// Admins are Telegram IDs with access to administrative commands.
	Admins []int64
}

// AuthMiddleware decides access for every update before routing.
type AuthMiddleware struct {
	allowed map[int64]bool
	admins  map[int64]bool
}

// NewAuthMiddleware creates an auth middleware from the configured
// allowlists.
func NewAuthMiddleware(config AuthConfig) *AuthMiddleware {
	m := &AuthMiddleware{
		allowed: make(map[int64]bool, len(config.AllowedOperators)+len(config.Admins)),
		admins:  make(map[int64]bool, len(config.Admins)),
	}
	for _, id := range config.AllowedOperators {
		m.allowed[id] = true
	}
	for _, id := range config.Admins {
		m.allowed[id] = true
		m.admins[id] = true
	}
	return m
}

// AuthResult is the access decision for one update.
type AuthResult struct {
	// Allowed reports whether the update may be processed at all.
	Allowed bool

	// IsAdmin reports whether the sender is an administrator.
	IsAdmin bool

	// ResponseMessage is the denial to send when not allowed.
	ResponseMessage string
}

// Authorize checks the sender against the allowlist. Denied senders all
// receive the same message; nothing is logged about what they asked for.
func (m *AuthMiddleware) Authorize(telegramID int64) AuthResult {
	if !m.allowed[telegramID] {
		return AuthResult{
			Allowed:         false,
			ResponseMessage: DeniedMessage,
		}
	}
	return AuthResult{
		Allowed: true,
		IsAdmin: m.admins[telegramID],
	}
}

// Operators returns the full allowlist as domain operator IDs. Queries
// use it as the shared-workspace visibility set.
func (m *AuthMiddleware) Operators() []shared.OperatorID {
	ids := make([]shared.OperatorID, 0, len(m.allowed))
	for id := range m.allowed {
		ids = append(ids, shared.OperatorID(id))
	}
	return ids
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// ContextWithOperatorID adds the sender's Telegram ID to the context.
func ContextWithOperatorID(ctx context.Context, id shared.OperatorID) context.Context {
	return context.WithValue(ctx, OperatorIDContextKey, id)
}

// OperatorIDFromContext retrieves the operator ID from context.
// Returns 0 if not found.
func OperatorIDFromContext(ctx context.Context) shared.OperatorID {
	id, ok := ctx.Value(OperatorIDContextKey).(shared.OperatorID)
	if !ok {
		return 0
	}
	return id
}

// ContextWithAdmin marks the context as belonging to an administrator.
func ContextWithAdmin(ctx context.Context, isAdmin bool) context.Context {
	return context.WithValue(ctx, AdminContextKey, isAdmin)
}

// IsAdminFromContext retrieves the admin flag from context.
func IsAdminFromContext(ctx context.Context) bool {
	isAdmin, ok := ctx.Value(AdminContextKey).(bool)
	return ok && isAdmin
}
