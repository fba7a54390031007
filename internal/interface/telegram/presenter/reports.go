package presenter

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/lessonhub/lesson-ledger-bot/internal/application/query"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/lesson"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/payment"
	"github.com/lessonhub/lesson-ledger-bot/pkg/timeutil"
)

// Money formats an amount without trailing zeros (1500, 1500.5).
func Money(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// Esc escapes operator-provided text for HTML parse mode.
func Esc(s string) string {
	return html.EscapeString(s)
}

// ══════════════════════════════════════════════════════════════════════════════
// TIMETABLE
// ══════════════════════════════════════════════════════════════════════════════

// lessonStatus renders the status glyphs of a timetable line.
func lessonStatus(l *lesson.Lesson) string {
	var marks []string
	if l.Cancelled {
		marks = append(marks, "🚫 скасовано")
	} else if l.Completed {
		marks = append(marks, "✅ проведено")
	}
	if l.Paid {
		marks = append(marks, "💰")
	}
	if len(marks) == 0 {
		return ""
	}
	return " — " + strings.Join(marks, " ")
}

// TimetableLine renders one timetable entry.
func TimetableLine(e query.TimetableEntry) string {
	l := e.Lesson
	return fmt.Sprintf("%s %s–%s %s%s",
		timeutil.DisplayDate(l.Date.String()),
		l.StartTime.String(),
		l.EndTime.String(),
		Esc(e.ChildName),
		lessonStatus(l),
	)
}

// Timetable renders a date range grouped by day. A one-day range (the
// today/tomorrow views) gets a single-date header.
func Timetable(entries []query.TimetableEntry, from, to string) string {
	if len(entries) == 0 {
		if from == to {
			return fmt.Sprintf("Розклад на %s порожній.", timeutil.DisplayDate(from))
		}
		return fmt.Sprintf("Розклад на %s – %s порожній.",
			timeutil.DisplayDate(from), timeutil.DisplayDate(to))
	}

	var b strings.Builder
	if from == to {
		fmt.Fprintf(&b, "<b>Розклад на %s, %s</b>\n",
			timeutil.DisplayDate(from), timeutil.WeekdayName(from))
	} else {
		fmt.Fprintf(&b, "<b>Розклад %s – %s</b>\n",
			timeutil.DisplayDate(from), timeutil.DisplayDate(to))
	}

	currentDate := ""
	for _, e := range entries {
		date := e.Lesson.Date.String()
		if date != currentDate && from != to {
			currentDate = date
			fmt.Fprintf(&b, "\n<b>%s, %s</b>\n",
				timeutil.DisplayDate(date), timeutil.WeekdayName(date))
		}
		fmt.Fprintf(&b, "%s–%s %s%s\n",
			e.Lesson.StartTime.String(),
			e.Lesson.EndTime.String(),
			Esc(e.ChildName),
			lessonStatus(e.Lesson),
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

// TimetableButtonLabel is the per-lesson toggle caption under the
// timetable message.
func TimetableButtonLabel(e query.TimetableEntry) (mark, cancel string) {
	short := fmt.Sprintf("%s %s %s",
		timeutil.DisplayDate(e.Lesson.Date.String()),
		e.Lesson.StartTime.String(),
		e.ChildName,
	)
	if e.Lesson.Completed {
		mark = "↩️ " + short
	} else {
		mark = "✅ " + short
	}
	if e.Lesson.Cancelled {
		cancel = "🔄 " + short
	} else {
		cancel = "🚫 " + short
	}
	return mark, cancel
}

// ══════════════════════════════════════════════════════════════════════════════
// BALANCE AND DASHBOARD
// ══════════════════════════════════════════════════════════════════════════════

// Balance renders the per-child reconciliation.
func Balance(report *query.BalanceReport) string {
	if len(report.Balances) == 0 {
		return TextNoChildren
	}

	var b strings.Builder
	b.WriteString("<b>Баланс занять</b>\n\n")
	for _, cb := range report.Balances {
		fmt.Fprintf(&b, "%s: оплачено %d, проведено %d → ",
			Esc(cb.Child.Name.String()), cb.PaidLessons, cb.DeliveredLessons)
		switch {
		case cb.Balance > 0:
			fmt.Fprintf(&b, "передплата %d зан.", cb.Balance)
		case cb.Balance < 0:
			fmt.Fprintf(&b, "борг %d зан.", -cb.Balance)
		default:
			b.WriteString("рівно")
		}
		if cb.Child.UnitPrice.IsSet() && cb.Balance != 0 {
			fmt.Fprintf(&b, " (%s грн)", Money(cb.Money))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nРазом передплачено: %s грн\nРазом заборговано: %s грн",
		Money(report.Totals.Overpaid), Money(report.Totals.Underpaid))
	return b.String()
}

// Dashboard renders the current-month summary.
func Dashboard(d *query.Dashboard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Підсумки %s – %s</b>\n\n",
		timeutil.DisplayDate(d.Report.Window.First.String()),
		timeutil.DisplayDate(d.Report.Window.Last.String()))
	fmt.Fprintf(&b, "Проведено занять: %d\n", d.Report.DeliveredCount)
	fmt.Fprintf(&b, "Скасовано занять: %d\n", d.Report.CancelledCount)
	fmt.Fprintf(&b, "Надійшло оплат: %s грн\n", Money(d.Report.PaymentsTotal))

	if len(d.ByDay) > 0 {
		b.WriteString("\n<b>Дохід за днями</b>\n")
		for _, line := range d.ByDay {
			fmt.Fprintf(&b, "%s (%s): %d зан., %s грн\n",
				timeutil.DisplayDate(line.Key), timeutil.WeekdayName(line.Key),
				line.Sessions, Money(line.Amount))
		}
	}
	if len(d.ByChild) > 0 {
		b.WriteString("\n<b>Дохід за дітьми</b>\n")
		for _, line := range d.ByChild {
			fmt.Fprintf(&b, "%s: %d зан., %s грн\n",
				Esc(line.Key), line.Sessions, Money(line.Amount))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// ══════════════════════════════════════════════════════════════════════════════
// CONFIRMATIONS
// ══════════════════════════════════════════════════════════════════════════════

// LessonCreated renders the confirmation after a lesson is stored.
func LessonCreated(childName string, l *lesson.Lesson) string {
	date := l.Date.String()
	return fmt.Sprintf("Заняття додано: %s, %s (%s) %s–%s.",
		Esc(childName),
		timeutil.DisplayDate(date),
		timeutil.WeekdayName(date),
		l.StartTime.String(),
		l.EndTime.String(),
	)
}

// RecurrencePreview renders the weekly candidate dates before the
// operator confirms the fan-out.
func RecurrencePreview(dates []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Буде додано %d заняття:\n", len(dates))
	for _, iso := range dates {
		fmt.Fprintf(&b, "• %s (%s)\n", timeutil.DisplayDate(iso), timeutil.WeekdayName(iso))
	}
	b.WriteString("\nПідтвердити?")
	return b.String()
}

// RecurrenceSummary renders the weekly fan-out outcome, including the
// partial-success case.
func RecurrenceSummary(planned, created []string) string {
	var b strings.Builder
	if len(created) == len(planned) {
		b.WriteString("Повтор увімкнено. Додано заняття:\n")
	} else {
		fmt.Fprintf(&b, "Додано %d із %d повторів (решту зберегти не вдалося):\n",
			len(created), len(planned))
	}
	for _, iso := range created {
		fmt.Fprintf(&b, "• %s (%s)\n", timeutil.DisplayDate(iso), timeutil.WeekdayName(iso))
	}
	return strings.TrimRight(b.String(), "\n")
}

// PaymentRecorded renders the confirmation after a payment is stored.
func PaymentRecorded(childName string, p *payment.Payment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Оплату збережено: %s, %s грн за %d зан., %s.",
		Esc(childName), Money(p.Amount), p.LessonsCount,
		timeutil.DisplayDate(p.Date.String()))
	if p.Note != "" {
		fmt.Fprintf(&b, "\nНотатка: %s", Esc(p.Note))
	}
	return b.String()
}

// AmountNotDivisible tells the operator why the amount was rejected and
// what the unit price is.
func AmountNotDivisible(unitPrice float64) string {
	return fmt.Sprintf("Сума має ділитися на вартість заняття (%s грн) без залишку. Введіть іншу суму:",
		Money(unitPrice))
}

// AmountPrompt asks for the payment amount; when the child has a unit
// price the expected total for the chosen lesson count is suggested.
func AmountPrompt(count int, unitPrice float64) string {
	if unitPrice <= 0 {
		return TextAskPaymentAmount
	}
	return fmt.Sprintf("%s\nЗа %d зан. по %s грн це %s грн.",
		TextAskPaymentAmount, count, Money(unitPrice), Money(unitPrice*float64(count)))
}

// PaymentPreview renders the step-by-step wizard's confirmation screen.
func PaymentPreview(childName string, amount float64, count int, dateISO, note string) string {
	var b strings.Builder
	b.WriteString("Перевірте оплату:\n")
	fmt.Fprintf(&b, "Дитина: %s\n", Esc(childName))
	fmt.Fprintf(&b, "Сума: %s грн\n", Money(amount))
	fmt.Fprintf(&b, "Занять: %d\n", count)
	fmt.Fprintf(&b, "Дата: %s", timeutil.DisplayDate(dateISO))
	if note != "" {
		fmt.Fprintf(&b, "\nНотатка: %s", Esc(note))
	}
	return b.String()
}

// ══════════════════════════════════════════════════════════════════════════════
// CHILDREN
// ══════════════════════════════════════════════════════════════════════════════

// ChildLine renders one child with age and price.
func ChildLine(c *child.Child) string {
	line := fmt.Sprintf("%s, %d р.", Esc(c.Name.String()), int(c.Age))
	if c.UnitPrice.IsSet() {
		line += fmt.Sprintf(", %s грн/зан.", Money(float64(c.UnitPrice)))
	} else {
		line += ", ціну не задано"
	}
	if c.Archived {
		line += " (архів)"
	}
	return line
}

// ChildList renders active and archived children.
func ChildList(active, archived []*child.Child) string {
	if len(active) == 0 && len(archived) == 0 {
		return TextNoChildren
	}
	var b strings.Builder
	b.WriteString("<b>Діти</b>\n")
	for _, c := range active {
		b.WriteString("• " + ChildLine(c) + "\n")
	}
	for _, c := range archived {
		b.WriteString("• " + ChildLine(c) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// ChildSaved renders the confirmation after creating or editing a child.
func ChildSaved(c *child.Child) string {
	return "Збережено: " + ChildLine(c)
}
