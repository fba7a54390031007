package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 8, 31, 12, 0, 0, 0, KyivTZ)

func TestParseUserDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		iso     string
		display string
		wantErr bool
	}{
		{name: "full date", input: "05.09.2026", iso: "2026-09-05", display: "05.09.2026"},
		{name: "short date uses current year", input: "05.09", iso: "2026-09-05", display: "05.09.2026"},
		{name: "single digit day and month", input: "5.9", iso: "2026-09-05", display: "05.09.2026"},
		{name: "surrounding spaces", input: "  14.02.2027 ", iso: "2027-02-14", display: "14.02.2027"},
		{name: "impossible date", input: "31.02.2026", wantErr: true},
		{name: "garbage", input: "tomorrow", wantErr: true},
		{name: "iso form rejected", input: "2026-09-05", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iso, display, err := ParseUserDate(tt.input, fixedNow)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.iso, iso)
			assert.Equal(t, tt.display, display)
		})
	}
}

func TestParseUserTime(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "14:30", want: "14:30"},
		{input: "9:05", want: "09:05"},
		{input: "1430", want: "14:30"},
		{input: "0905", want: "09:05"},
		{input: "00:00", want: "00:00"},
		{input: "23:59", want: "23:59"},
		{input: "24:00", wantErr: true},
		{input: "12:60", wantErr: true},
		{input: "2460", wantErr: true},
		{input: "930", wantErr: true}, // compact form requires four digits
		{input: "abc", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseUserTime(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadTime)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddMinutes(t *testing.T) {
	got, err := AddMinutes("10:00", 30)
	require.NoError(t, err)
	assert.Equal(t, "10:30", got)

	got, err = AddMinutes("10:05", 55)
	require.NoError(t, err)
	assert.Equal(t, "11:00", got)

	// Wraps within the day.
	got, err = AddMinutes("23:40", 30)
	require.NoError(t, err)
	assert.Equal(t, "00:10", got)

	_, err = AddMinutes("junk", 30)
	assert.ErrorIs(t, err, ErrBadTime)
}

func TestQuickDates(t *testing.T) {
	dates := QuickDates(fixedNow)
	assert.Equal(t, [3]string{"2026-08-31", "2026-09-01", "2026-09-02"}, dates)
}

func TestRecurrenceDates(t *testing.T) {
	dates, err := RecurrenceDates("2026-08-31")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-09-07", "2026-09-14", "2026-09-21", "2026-09-28"}, dates)

	// Every candidate keeps the base weekday (Monday).
	for _, d := range dates {
		assert.Equal(t, "понеділок", WeekdayName(d))
	}

	_, err = RecurrenceDates("31.08.2026")
	assert.ErrorIs(t, err, ErrBadDate)
}

func TestWeekdayName(t *testing.T) {
	assert.Equal(t, "понеділок", WeekdayName("2026-08-31"))
	assert.Equal(t, "неділя", WeekdayName("2026-09-06"))
	assert.Equal(t, "", WeekdayName("not-a-date"))
}

func TestShiftDate(t *testing.T) {
	got, err := ShiftDate("2026-08-31", 7)
	require.NoError(t, err)
	assert.Equal(t, "2026-09-07", got)
}

func TestWeekRange(t *testing.T) {
	from, to := WeekRange(fixedNow)
	assert.Equal(t, "2026-08-31", from)
	assert.Equal(t, "2026-09-06", to)
}
