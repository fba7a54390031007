// Package billing reconciles delivered lessons against purchased lessons
// and computes monetary balances. Everything here is a pure function over
// already-loaded slices: the package never touches the store and carries
// no state, which keeps the arithmetic trivially testable.
package billing

import (
	"sort"
	"time"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/lesson"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/payment"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PER-CHILD BALANCE
// ══════════════════════════════════════════════════════════════════════════════

// ChildBalance is the reconciliation result for one child.
type ChildBalance struct {
	Child *child.Child

	// PaidLessons is the sum of lessons_count over the child's payments.
	PaidLessons int

	// DeliveredLessons is the count of lessons with completed=true and
	// cancelled=false.
	DeliveredLessons int

	// Balance in lesson units: PaidLessons - DeliveredLessons.
	// Positive = credit (overpaid), negative = debt, zero = settled.
	Balance int

	// Money is Balance × the child's current unit price. Zero when the
	// child has no price set, regardless of Balance.
	Money float64
}

// BalanceFor computes the balance for a single child given its lessons
// and payments. The result is invariant under reordering of the inputs.
func BalanceFor(c *child.Child, lessons []*lesson.Lesson, payments []*payment.Payment) ChildBalance {
	b := ChildBalance{Child: c}
	for _, p := range payments {
		if p.ChildID == c.ID {
			b.PaidLessons += p.LessonsCount
		}
	}
	for _, l := range lessons {
		if l.ChildID == c.ID && l.IsDelivered() {
			b.DeliveredLessons++
		}
	}
	b.Balance = b.PaidLessons - b.DeliveredLessons
	if c.UnitPrice.IsSet() {
		b.Money = float64(b.Balance) * float64(c.UnitPrice)
	}
	return b
}

// Totals aggregates monetary balances across children. A child's surplus
// never offsets another child's deficit, so the two sums are kept apart.
type Totals struct {
	// Overpaid is the sum of positive monetary balances.
	Overpaid float64

	// Underpaid is the sum of absolute values of negative monetary
	// balances.
	Underpaid float64
}

// Balances computes per-child balances for every child in the slice and
// the aggregate totals. Children keep their input order.
func Balances(children []*child.Child, lessons []*lesson.Lesson, payments []*payment.Payment) ([]ChildBalance, Totals) {
	balances := make([]ChildBalance, 0, len(children))
	var totals Totals
	for _, c := range children {
		b := BalanceFor(c, lessons, payments)
		balances = append(balances, b)
		switch {
		case b.Money > 0:
			totals.Overpaid += b.Money
		case b.Money < 0:
			totals.Underpaid += -b.Money
		}
	}
	return balances, totals
}

// ══════════════════════════════════════════════════════════════════════════════
// MONTHLY REPORT
// ══════════════════════════════════════════════════════════════════════════════

// MonthWindow is an inclusive [First, Last] date range of one calendar
// month. Fixed-width "YYYY-MM-DD" strings make the containment check a
// plain string comparison.
type MonthWindow struct {
	First shared.ISODate
	Last  shared.ISODate
}

// Contains reports whether d falls inside the window.
func (w MonthWindow) Contains(d shared.ISODate) bool {
	return string(d) >= string(w.First) && string(d) <= string(w.Last)
}

// CurrentMonth returns the window of the calendar month containing now.
func CurrentMonth(now time.Time) MonthWindow {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	last := first.AddDate(0, 1, -1)
	return MonthWindow{
		First: shared.ISODate(first.Format("2006-01-02")),
		Last:  shared.ISODate(last.Format("2006-01-02")),
	}
}

// MonthlyReport is the dashboard aggregate for one month window.
type MonthlyReport struct {
	Window MonthWindow

	// DeliveredCount is the number of delivered lessons inside the window.
	DeliveredCount int

	// CancelledCount is the number of cancelled lessons inside the window.
	CancelledCount int

	// PaymentsTotal is the sum of payment amounts recorded inside the
	// window.
	PaymentsTotal float64

	// Totals are the all-time over/underpay sums, not restricted to the
	// window.
	Totals Totals
}

// ReportForMonth builds the monthly dashboard report.
func ReportForMonth(window MonthWindow, children []*child.Child, lessons []*lesson.Lesson, payments []*payment.Payment) MonthlyReport {
	report := MonthlyReport{Window: window}
	for _, l := range lessons {
		if !window.Contains(l.Date) {
			continue
		}
		if l.Cancelled {
			report.CancelledCount++
		} else if l.Completed {
			report.DeliveredCount++
		}
	}
	for _, p := range payments {
		if window.Contains(p.Date) {
			report.PaymentsTotal += p.Amount
		}
	}
	_, report.Totals = Balances(children, lessons, payments)
	return report
}

// ══════════════════════════════════════════════════════════════════════════════
// INCOME BREAKDOWNS
// ══════════════════════════════════════════════════════════════════════════════

// IncomeLine is one row of an income breakdown.
type IncomeLine struct {
	// Key is a date ("YYYY-MM-DD") or a child name, depending on the
	// grouping.
	Key string

	// Sessions is the number of delivered lessons in the group.
	Sessions int

	// Amount is Sessions × the child's current unit price, summed over
	// the group. Children without a price contribute zero.
	Amount float64
}

// IncomeByDay groups delivered in-window lessons by calendar date.
// Lines are sorted by date ascending.
func IncomeByDay(window MonthWindow, children []*child.Child, lessons []*lesson.Lesson) []IncomeLine {
	prices := priceIndex(children)
	byDay := make(map[string]*IncomeLine)
	for _, l := range lessons {
		if !l.IsDelivered() || !window.Contains(l.Date) {
			continue
		}
		key := l.Date.String()
		line, ok := byDay[key]
		if !ok {
			line = &IncomeLine{Key: key}
			byDay[key] = line
		}
		line.Sessions++
		line.Amount += prices[l.ChildID]
	}
	return sortedLines(byDay)
}

// IncomeByChild groups delivered in-window lessons by child. Lines are
// sorted by child name ascending.
func IncomeByChild(window MonthWindow, children []*child.Child, lessons []*lesson.Lesson) []IncomeLine {
	prices := priceIndex(children)
	names := make(map[child.ID]string, len(children))
	for _, c := range children {
		names[c.ID] = c.Name.String()
	}

	byChild := make(map[string]*IncomeLine)
	for _, l := range lessons {
		if !l.IsDelivered() || !window.Contains(l.Date) {
			continue
		}
		name, ok := names[l.ChildID]
		if !ok {
			// Lesson of a child outside the loaded set (e.g. archived):
			// skipped, matching the listing scope.
			continue
		}
		line, ok := byChild[name]
		if !ok {
			line = &IncomeLine{Key: name}
			byChild[name] = line
		}
		line.Sessions++
		line.Amount += prices[l.ChildID]
	}
	return sortedLines(byChild)
}

// priceIndex maps child ID to its current unit price; unset prices map
// to zero so the lesson still counts as a session but adds no money.
func priceIndex(children []*child.Child) map[child.ID]float64 {
	prices := make(map[child.ID]float64, len(children))
	for _, c := range children {
		if c.UnitPrice.IsSet() {
			prices[c.ID] = float64(c.UnitPrice)
		} else {
			prices[c.ID] = 0
		}
	}
	return prices
}

func sortedLines(groups map[string]*IncomeLine) []IncomeLine {
	lines := make([]IncomeLine, 0, len(groups))
	for _, line := range groups {
		lines = append(lines, *line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Key < lines[j].Key })
	return lines
}
