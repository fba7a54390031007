package operator

import (
	"context"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// Repository defines storage operations for operator profiles.
type Repository interface {
	// Upsert inserts the profile or refreshes username/name/last-seen
	// fields of an existing one. FirstSeenAt is never overwritten.
	Upsert(ctx context.Context, o *Operator) error

	// GetByTelegramID returns the profile for the given Telegram ID.
	// Returns shared.ErrOperatorNotFound when absent.
	GetByTelegramID(ctx context.Context, id shared.OperatorID) (*Operator, error)

	// List returns all known operator profiles.
	List(ctx context.Context) ([]*Operator, error)
}
