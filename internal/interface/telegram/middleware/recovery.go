package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOVERY MIDDLEWARE
// Catches panics in handlers so a single bad update cannot take down the
// polling loop. The operator gets a short apology, the log gets the
// stack trace.
// ══════════════════════════════════════════════════════════════════════════════

// RecoveryConfig holds configuration for the recovery middleware.
type RecoveryConfig struct {
	// UserErrorMessage is sent to the operator when a panic occurs.
	UserErrorMessage string

	// Logger for panic reports.
	Logger *slog.Logger
}

// DefaultRecoveryConfig returns sensible defaults for recovery middleware.
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		UserErrorMessage: "Сталася помилка. Спробуйте ще раз за хвилину.",
	}
}

// RecoveryMiddleware recovers from panics in update handlers.
type RecoveryMiddleware struct {
	config RecoveryConfig
	logger *slog.Logger
}

// NewRecoveryMiddleware creates a new recovery middleware.
func NewRecoveryMiddleware(config RecoveryConfig) *RecoveryMiddleware {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RecoveryMiddleware{
		config: config,
		logger: logger.With("component", "recovery"),
	}
}

// RecoveryResult reports whether a panic was caught.
type RecoveryResult struct {
	// Recovered indicates if a panic was recovered.
	Recovered bool

	// UserMessage is the message to show the operator when recovered.
	UserMessage string
}

// RecoverWithHandler executes fn, converting any panic into a logged
// RecoveryResult. The returned error is fn's error when no panic occurred.
func (m *RecoveryMiddleware) RecoverWithHandler(telegramID int64, operation string, fn func() error) (result RecoveryResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("panic recovered",
				"operation", operation,
				"telegram_id", telegramID,
				"panic", fmt.Sprintf("%v", r),
				"time", time.Now().UTC().Format(time.RFC3339),
				"stack", string(debug.Stack()),
			)
			result = RecoveryResult{
				Recovered:   true,
				UserMessage: m.config.UserErrorMessage,
			}
			err = nil
		}
	}()

	return RecoveryResult{}, fn()
}
