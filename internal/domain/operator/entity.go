// Package operator contains the operator profile model. An operator is a
// Telegram user interacting with the bot. Authorization is decided by the
// configured allowlist, not by this record: the profile exists for display
// names and first/last-seen bookkeeping only.
package operator

import (
	"strings"
	"time"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// Operator is a Telegram user profile, upserted on every /start.
type Operator struct {
	// TelegramID is the primary identifier; there is no surrogate key.
	TelegramID shared.OperatorID

	// Username is the Telegram @username, may be empty.
	Username string

	// FirstName and LastName come from the Telegram profile.
	FirstName string
	LastName  string

	FirstSeenAt time.Time
	LastSeenAt  time.Time
}

// NewOperator creates a profile from Telegram user data.
func NewOperator(id shared.OperatorID, username, firstName, lastName string) (*Operator, error) {
	if !id.IsValid() {
		return nil, shared.ErrInvalidTelegramID
	}
	now := time.Now().UTC()
	return &Operator{
		TelegramID:  id,
		Username:    strings.TrimSpace(username),
		FirstName:   strings.TrimSpace(firstName),
		LastName:    strings.TrimSpace(lastName),
		FirstSeenAt: now,
		LastSeenAt:  now,
	}, nil
}

// DisplayName returns the best available human-readable name.
func (o *Operator) DisplayName() string {
	switch {
	case o.FirstName != "" && o.LastName != "":
		return o.FirstName + " " + o.LastName
	case o.FirstName != "":
		return o.FirstName
	case o.Username != "":
		return "@" + o.Username
	default:
		return o.TelegramID.String()
	}
}

// Touch refreshes profile fields and the last-seen timestamp.
func (o *Operator) Touch(username, firstName, lastName string) {
	o.Username = strings.TrimSpace(username)
	o.FirstName = strings.TrimSpace(firstName)
	o.LastName = strings.TrimSpace(lastName)
	o.LastSeenAt = time.Now().UTC()
}
