package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronExpression(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"0 19 * * *", false},
		{"0 10 * * 1", false},
		{"*/5 * * * *", false},
		{"0,30 9-18 * * 1-5", false},
		{"0 19 * *", true},     // 4 fields
		{"0 19 * * * *", true}, // 6 fields
		{"60 * * * *", true},   // minute out of range
		{"* 24 * * *", true},   // hour out of range
		{"* * * * 7", true},    // weekday out of range
		{"abc * * * *", true},  // not a number
		{"*/0 * * * *", true},  // zero step
	}

	for _, tt := range tests {
		_, err := ParseCronExpression(tt.expr)
		if tt.wantErr {
			assert.Error(t, err, "expr %q", tt.expr)
		} else {
			assert.NoError(t, err, "expr %q", tt.expr)
		}
	}
}

func TestCronNext_Daily(t *testing.T) {
	ce, err := ParseCronExpression("0 19 * * *")
	require.NoError(t, err)

	// Before today's slot: fires today.
	after := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 7, 19, 0, 0, 0, time.UTC), ce.Next(after))

	// Exactly at the slot: strictly after, so tomorrow.
	at := time.Date(2026, 9, 7, 19, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 8, 19, 0, 0, 0, time.UTC), ce.Next(at))
}

func TestCronNext_Weekly(t *testing.T) {
	ce, err := ParseCronExpression("0 10 * * 1")
	require.NoError(t, err)

	// 2026-09-07 is a Monday.
	sunday := time.Date(2026, 9, 6, 12, 0, 0, 0, time.UTC)
	next := ce.Next(sunday)
	assert.Equal(t, time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC), next)
	assert.Equal(t, time.Monday, next.Weekday())

	// Monday after the slot rolls over a full week.
	monday := time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC), ce.Next(monday))
}

func TestCronNext_DayAndWeekdayBothRestricted(t *testing.T) {
	// Both date fields restricted: either one matching selects the day.
	ce, err := ParseCronExpression("0 9 15 * 1")
	require.NoError(t, err)

	// 2026-09-07 is a Monday; it fires there even though it is not the 15th.
	after := time.Date(2026, 9, 6, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC), ce.Next(after))

	// Tuesday the 15th fires on the day-of-month leg.
	after = time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	next := ce.Next(after)
	assert.Equal(t, time.Date(2026, 9, 15, 9, 0, 0, 0, time.UTC), next)
	assert.Equal(t, time.Tuesday, next.Weekday())

	// With the weekday unrestricted, only the 15th matches.
	ce, err = ParseCronExpression("0 9 15 * *")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 15, 9, 0, 0, 0, time.UTC),
		ce.Next(time.Date(2026, 9, 6, 12, 0, 0, 0, time.UTC)))
}

func TestCronNext_Step(t *testing.T) {
	ce, err := ParseCronExpression("*/15 * * * *")
	require.NoError(t, err)

	after := time.Date(2026, 9, 7, 10, 7, 30, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 9, 7, 10, 15, 0, 0, time.UTC), ce.Next(after))
}

func TestCronString(t *testing.T) {
	ce, err := ParseCronExpression("0 19 * * *")
	require.NoError(t, err)
	assert.Equal(t, "0 19 * * *", ce.String())
}

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(10 * time.Minute)

	now := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(10*time.Minute), s.Next(now))
	assert.Equal(t, "@every 10m0s", s.String())
}
