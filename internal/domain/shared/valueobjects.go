// Package shared contains common domain types, errors, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// OperatorID represents a unique Telegram user identifier of an operator
// (a tutor or parent allowed to use the bot).
type OperatorID int64

// IsValid checks if the operator ID is valid (positive number).
func (o OperatorID) IsValid() bool {
	return o > 0
}

// Int64 returns the underlying int64 value.
func (o OperatorID) Int64() int64 {
	return int64(o)
}

// String returns the string representation.
func (o OperatorID) String() string {
	return fmt.Sprintf("%d", o)
}

// NewOperatorID creates a new OperatorID with validation.
func NewOperatorID(id int64) (OperatorID, error) {
	if id <= 0 {
		return 0, ErrInvalidTelegramID
	}
	return OperatorID(id), nil
}

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsUUID reports whether s looks like a UUID. Entity ID types in the
// child/lesson/payment packages use this for their IsValid checks.
func IsUUID(s string) bool {
	return uuidRegex.MatchString(s)
}

// ═══════════════════════════════════════════════════════════════════════════
// Date and time value objects
//
// Dates and times-of-day cross every module boundary as fixed-width
// strings: dates are "YYYY-MM-DD", times are zero-padded "HH:MM".
// Both orderings coincide with lexicographic string order, which the
// ledger and the lesson invariants rely on.
// ═══════════════════════════════════════════════════════════════════════════

// ISODate is a calendar date in "YYYY-MM-DD" form.
type ISODate string

var isoDateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsValid checks the fixed-width format; calendar validity is checked at
// parse time by pkg/timeutil.
func (d ISODate) IsValid() bool {
	return isoDateRegex.MatchString(string(d))
}

// String returns the string representation.
func (d ISODate) String() string {
	return string(d)
}

// Before reports whether d sorts before other. Valid because both are
// fixed-width zero-padded.
func (d ISODate) Before(other ISODate) bool {
	return string(d) < string(other)
}

// After reports whether d sorts after other.
func (d ISODate) After(other ISODate) bool {
	return string(d) > string(other)
}

// ClockTime is a time of day in zero-padded 24-hour "HH:MM" form.
type ClockTime string

var clockTimeRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// IsValid checks format and range.
func (t ClockTime) IsValid() bool {
	return clockTimeRegex.MatchString(string(t))
}

// String returns the string representation.
func (t ClockTime) String() string {
	return string(t)
}

// After reports whether t is strictly later than other. String comparison
// is valid for zero-padded "HH:MM".
func (t ClockTime) After(other ClockTime) bool {
	return string(t) > string(other)
}
