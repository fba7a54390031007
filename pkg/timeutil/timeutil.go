// Package timeutil provides timezone-aware date and time-of-day handling
// for the lesson ledger. All operator-facing dates are interpreted in the
// Kyiv timezone; normalized values cross module boundaries as fixed-width
// strings ("YYYY-MM-DD" dates, "HH:MM" times) whose lexicographic order
// matches chronological order.
// No external dependencies - uses only standard library.
package timeutil

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// KyivTZ is the Kyiv timezone. The IANA database handles the EET/EEST
// switch; the fixed UTC+2 fallback only matters on hosts without tzdata.
var KyivTZ = loadKyivTZ()

func loadKyivTZ() *time.Location {
	loc, err := time.LoadLocation("Europe/Kyiv")
	if err != nil {
		return time.FixedZone("Europe/Kyiv", 2*60*60)
	}
	return loc
}

// Now returns the current time in Kyiv timezone.
func Now() time.Time {
	return time.Now().In(KyivTZ)
}

// Today returns today's date as "YYYY-MM-DD" in Kyiv timezone.
func Today() string {
	return Now().Format(ISODateLayout)
}

// Layouts for normalized values.
const (
	ISODateLayout = "2006-01-02"
	ClockLayout   = "15:04"
)

// Parse errors.
var (
	ErrBadDate = errors.New("timeutil: unrecognized date")
	ErrBadTime = errors.New("timeutil: unrecognized time")
)

// ══════════════════════════════════════════════════════════════════════════════
// DATE PARSING
// Operators type dates as "DD.MM.YYYY" or "DD.MM" (current year assumed).
// ══════════════════════════════════════════════════════════════════════════════

var userDateRegex = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})(?:\.(\d{4}))?$`)

// ParseUserDate parses operator-typed input into a normalized
// "YYYY-MM-DD" value and a "DD.MM.YYYY" display string. The year
// defaults to the current year in Kyiv when omitted. Impossible calendar
// dates (31.02 etc.) are rejected.
func ParseUserDate(input string, now time.Time) (iso string, display string, err error) {
	m := userDateRegex.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return "", "", ErrBadDate
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year := now.In(KyivTZ).Year()
	if m[3] != "" {
		year, _ = strconv.Atoi(m[3])
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, KyivTZ)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", "", ErrBadDate
	}
	return t.Format(ISODateLayout), t.Format("02.01.2006"), nil
}

// DisplayDate converts a normalized "YYYY-MM-DD" value back to the
// "DD.MM.YYYY" form operators read.
func DisplayDate(iso string) string {
	t, err := time.ParseInLocation(ISODateLayout, iso, KyivTZ)
	if err != nil {
		return iso
	}
	return t.Format("02.01.2006")
}

// ShiftDate returns the "YYYY-MM-DD" value days away from iso.
func ShiftDate(iso string, days int) (string, error) {
	t, err := time.ParseInLocation(ISODateLayout, iso, KyivTZ)
	if err != nil {
		return "", ErrBadDate
	}
	return t.AddDate(0, 0, days).Format(ISODateLayout), nil
}

// QuickDates returns the quick-pick dates: today, tomorrow and the day
// after, as normalized "YYYY-MM-DD" values.
func QuickDates(now time.Time) [3]string {
	base := now.In(KyivTZ)
	var out [3]string
	for i := 0; i < 3; i++ {
		out[i] = base.AddDate(0, 0, i).Format(ISODateLayout)
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// TIME-OF-DAY PARSING
// Accepts "HH:MM" and the compact four-digit "HHMM".
// ══════════════════════════════════════════════════════════════════════════════

var (
	clockRegex   = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	compactRegex = regexp.MustCompile(`^(\d{2})(\d{2})$`)
)

// ParseUserTime parses operator-typed input into a zero-padded "HH:MM"
// value.
func ParseUserTime(input string) (string, error) {
	s := strings.TrimSpace(input)

	m := clockRegex.FindStringSubmatch(s)
	if m == nil {
		m = compactRegex.FindStringSubmatch(s)
	}
	if m == nil {
		return "", ErrBadTime
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return "", ErrBadTime
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// AddMinutes shifts a normalized "HH:MM" value by the given number of
// minutes, wrapping within the day. Used by the end-time quick picks
// (start+30, start+55).
func AddMinutes(clock string, minutes int) (string, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return "", ErrBadTime
	}
	return t.Add(time.Duration(minutes) * time.Minute).Format(ClockLayout), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RECURRENCE & WEEKDAYS
// ══════════════════════════════════════════════════════════════════════════════

// RecurrenceWeeks is the number of weekly copies the recurrence preview
// offers after a lesson is created.
const RecurrenceWeeks = 4

// RecurrenceDates returns the weekly-spaced candidate dates following
// base: base+7, base+14, base+21 and base+28 days. Each candidate keeps
// the base lesson's weekday.
func RecurrenceDates(baseISO string) ([]string, error) {
	t, err := time.ParseInLocation(ISODateLayout, baseISO, KyivTZ)
	if err != nil {
		return nil, ErrBadDate
	}
	dates := make([]string, 0, RecurrenceWeeks)
	for week := 1; week <= RecurrenceWeeks; week++ {
		dates = append(dates, t.AddDate(0, 0, 7*week).Format(ISODateLayout))
	}
	return dates, nil
}

// Ukrainian weekday names, indexed by time.Weekday (Sunday first).
var weekdayNames = [7]string{
	"неділя", "понеділок", "вівторок", "середа", "четвер", "п'ятниця", "субота",
}

// WeekdayName returns the Ukrainian weekday name for a normalized
// "YYYY-MM-DD" date, or an empty string for malformed input.
func WeekdayName(iso string) string {
	t, err := time.ParseInLocation(ISODateLayout, iso, KyivTZ)
	if err != nil {
		return ""
	}
	return weekdayNames[t.Weekday()]
}

// WeekRange returns today's date and the date six days ahead, the
// inclusive window that the week timetable view covers.
func WeekRange(now time.Time) (from, to string) {
	base := now.In(KyivTZ)
	return base.Format(ISODateLayout), base.AddDate(0, 0, 6).Format(ISODateLayout)
}
