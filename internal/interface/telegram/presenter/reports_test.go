package presenter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lessonhub/lesson-ledger-bot/internal/application/query"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/billing"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/lesson"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/payment"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

func sampleChild(name string, price float64) *child.Child {
	return &child.Child{
		ID:         child.ID("11111111-1111-1111-1111-111111111111"),
		OperatorID: 100,
		Name:       child.Name(name),
		Age:        9,
		UnitPrice:  child.UnitPrice(price),
	}
}

func sampleLesson(date, start, end string) *lesson.Lesson {
	return &lesson.Lesson{
		ID:         lesson.ID("22222222-2222-2222-2222-222222222222"),
		OperatorID: 100,
		ChildID:    child.ID("11111111-1111-1111-1111-111111111111"),
		Date:       shared.ISODate(date),
		StartTime:  shared.ClockTime(start),
		EndTime:    shared.ClockTime(end),
	}
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "1500", Money(1500))
	assert.Equal(t, "1500.5", Money(1500.5))
	assert.Equal(t, "0", Money(0))
	assert.Equal(t, "-300", Money(-300))
}

func TestTimetableLine_EscapesAndMarksStatus(t *testing.T) {
	l := sampleLesson("2026-09-07", "10:00", "11:00")
	l.Completed = true
	l.Paid = true

	line := TimetableLine(query.TimetableEntry{Lesson: l, ChildName: "Марійка <3"})

	assert.Contains(t, line, "07.09.2026")
	assert.Contains(t, line, "10:00–11:00")
	assert.Contains(t, line, "Марійка &lt;3")
	assert.Contains(t, line, "✅ проведено")
	assert.Contains(t, line, "💰")
}

func TestTimetableLine_CancelledWinsOverCompleted(t *testing.T) {
	l := sampleLesson("2026-09-07", "10:00", "11:00")
	l.Completed = true
	l.Cancelled = true

	line := TimetableLine(query.TimetableEntry{Lesson: l, ChildName: "Олесь"})

	assert.Contains(t, line, "🚫 скасовано")
	assert.NotContains(t, line, "проведено")
}

func TestTimetable_GroupsByDay(t *testing.T) {
	entries := []query.TimetableEntry{
		{Lesson: sampleLesson("2026-09-07", "10:00", "11:00"), ChildName: "Марійка"},
		{Lesson: sampleLesson("2026-09-07", "12:00", "13:00"), ChildName: "Олесь"},
		{Lesson: sampleLesson("2026-09-08", "10:00", "11:00"), ChildName: "Марійка"},
	}

	out := Timetable(entries, "2026-09-07", "2026-09-13")

	assert.Contains(t, out, "<b>Розклад 07.09.2026 – 13.09.2026</b>")
	assert.Contains(t, out, "<b>07.09.2026, понеділок</b>")
	assert.Contains(t, out, "<b>08.09.2026, вівторок</b>")
	// The day header appears once even though Monday has two lessons.
	assert.Equal(t, 1, strings.Count(out, "понеділок"))
}

func TestTimetable_Empty(t *testing.T) {
	out := Timetable(nil, "2026-09-07", "2026-09-13")
	assert.Equal(t, "Розклад на 07.09.2026 – 13.09.2026 порожній.", out)

	out = Timetable(nil, "2026-09-07", "2026-09-07")
	assert.Equal(t, "Розклад на 07.09.2026 порожній.", out)
}

func TestTimetable_SingleDayHeader(t *testing.T) {
	entries := []query.TimetableEntry{
		{Lesson: sampleLesson("2026-09-07", "10:00", "11:00"), ChildName: "Марійка"},
	}

	out := Timetable(entries, "2026-09-07", "2026-09-07")
	assert.Contains(t, out, "<b>Розклад на 07.09.2026, понеділок</b>")
	// No per-day group header inside a one-day view.
	assert.Equal(t, 1, strings.Count(out, "понеділок"))
}

func TestTimetableButtonLabel_TogglesWithState(t *testing.T) {
	e := query.TimetableEntry{Lesson: sampleLesson("2026-09-07", "10:00", "11:00"), ChildName: "Марійка"}

	mark, cancel := TimetableButtonLabel(e)
	assert.Contains(t, mark, "✅")
	assert.Contains(t, cancel, "🚫")

	e.Lesson.Completed = true
	e.Lesson.Cancelled = true
	mark, cancel = TimetableButtonLabel(e)
	assert.Contains(t, mark, "↩️")
	assert.Contains(t, cancel, "🔄")
}

func TestBalance_DebtCreditAndSettled(t *testing.T) {
	debtor := sampleChild("Марійка", 300)
	creditor := sampleChild("Олесь", 0)

	report := &query.BalanceReport{
		Balances: []billing.ChildBalance{
			{Child: debtor, PaidLessons: 2, DeliveredLessons: 5, Balance: -3, Money: -900},
			{Child: creditor, PaidLessons: 4, DeliveredLessons: 2, Balance: 2},
			{Child: sampleChild("Соля", 250), PaidLessons: 3, DeliveredLessons: 3},
		},
		Totals: billing.Totals{Overpaid: 0, Underpaid: 900},
	}

	out := Balance(report)

	assert.Contains(t, out, "Марійка: оплачено 2, проведено 5 → борг 3 зан. (-900 грн)")
	// No unit price set, so no monetary tail.
	assert.Contains(t, out, "Олесь: оплачено 4, проведено 2 → передплата 2 зан.\n")
	assert.Contains(t, out, "Соля: оплачено 3, проведено 3 → рівно")
	assert.Contains(t, out, "Разом заборговано: 900 грн")
}

func TestBalance_NoChildren(t *testing.T) {
	out := Balance(&query.BalanceReport{})
	assert.Equal(t, TextNoChildren, out)
}

func TestDashboard_RendersBreakdowns(t *testing.T) {
	d := &query.Dashboard{
		Report: billing.MonthlyReport{
			Window:         billing.MonthWindow{First: "2026-09-01", Last: "2026-09-30"},
			DeliveredCount: 12,
			CancelledCount: 1,
			PaymentsTotal:  3600,
		},
		ByDay: []billing.IncomeLine{
			{Key: "2026-09-07", Sessions: 2, Amount: 600},
		},
		ByChild: []billing.IncomeLine{
			{Key: "Марійка", Sessions: 8, Amount: 2400},
		},
	}

	out := Dashboard(d)

	assert.Contains(t, out, "<b>Підсумки 01.09.2026 – 30.09.2026</b>")
	assert.Contains(t, out, "Проведено занять: 12")
	assert.Contains(t, out, "Скасовано занять: 1")
	assert.Contains(t, out, "Надійшло оплат: 3600 грн")
	assert.Contains(t, out, "07.09.2026 (понеділок): 2 зан., 600 грн")
	assert.Contains(t, out, "Марійка: 8 зан., 2400 грн")
}

func TestDashboard_OmitsEmptyBreakdowns(t *testing.T) {
	d := &query.Dashboard{
		Report: billing.MonthlyReport{
			Window: billing.MonthWindow{First: "2026-09-01", Last: "2026-09-30"},
		},
	}

	out := Dashboard(d)
	assert.NotContains(t, out, "Дохід за днями")
	assert.NotContains(t, out, "Дохід за дітьми")
}

func TestLessonCreated(t *testing.T) {
	out := LessonCreated("Марійка", sampleLesson("2026-09-07", "10:00", "11:00"))
	assert.Equal(t, "Заняття додано: Марійка, 07.09.2026 (понеділок) 10:00–11:00.", out)
}

func TestRecurrencePreview_ListsDatesAndAsksToConfirm(t *testing.T) {
	out := RecurrencePreview([]string{"2026-09-14", "2026-09-21"})
	assert.Contains(t, out, "Буде додано 2 заняття")
	assert.Contains(t, out, "• 14.09.2026 (понеділок)")
	assert.Contains(t, out, "• 21.09.2026 (понеділок)")
	assert.Contains(t, out, "Підтвердити?")
}

func TestRecurrenceSummary_FullAndPartial(t *testing.T) {
	planned := []string{"2026-09-14", "2026-09-21"}

	full := RecurrenceSummary(planned, planned)
	assert.Contains(t, full, "Повтор увімкнено")
	assert.Contains(t, full, "• 14.09.2026 (понеділок)")
	assert.Contains(t, full, "• 21.09.2026 (понеділок)")

	partial := RecurrenceSummary(planned, planned[:1])
	assert.Contains(t, partial, "Додано 1 із 2 повторів")
	assert.NotContains(t, partial, "21.09.2026")
}

func TestPaymentRecorded_WithAndWithoutNote(t *testing.T) {
	p := &payment.Payment{
		Amount:       1500,
		LessonsCount: 5,
		Date:         shared.ISODate("2026-09-07"),
	}

	out := PaymentRecorded("Марійка", p)
	assert.Equal(t, "Оплату збережено: Марійка, 1500 грн за 5 зан., 07.09.2026.", out)

	p.Note = "аванс <за вересень>"
	out = PaymentRecorded("Марійка", p)
	assert.Contains(t, out, "Нотатка: аванс &lt;за вересень&gt;")
}

func TestAmountNotDivisible(t *testing.T) {
	out := AmountNotDivisible(300)
	assert.Contains(t, out, "300 грн")
	assert.Contains(t, out, "без залишку")
}

func TestAmountPrompt(t *testing.T) {
	assert.Equal(t, TextAskPaymentAmount, AmountPrompt(3, 0))

	out := AmountPrompt(3, 300)
	assert.Contains(t, out, TextAskPaymentAmount)
	assert.Contains(t, out, "За 3 зан. по 300 грн це 900 грн.")
}

func TestPaymentPreview(t *testing.T) {
	out := PaymentPreview("Марійка", 850, 3, "2026-09-07", "")
	assert.Contains(t, out, "Сума: 850 грн")
	assert.Contains(t, out, "Занять: 3")
	assert.Contains(t, out, "Дата: 07.09.2026")
	assert.NotContains(t, out, "Нотатка")

	out = PaymentPreview("Марійка", 850, 3, "2026-09-07", "борг за серпень")
	assert.Contains(t, out, "Нотатка: борг за серпень")
}

func TestChildLine(t *testing.T) {
	priced := sampleChild("Марійка", 300)
	assert.Equal(t, "Марійка, 9 р., 300 грн/зан.", ChildLine(priced))

	unpriced := sampleChild("Олесь", 0)
	unpriced.Archived = true
	assert.Equal(t, "Олесь, 9 р., ціну не задано (архів)", ChildLine(unpriced))
}

func TestChildList(t *testing.T) {
	assert.Equal(t, TextNoChildren, ChildList(nil, nil))

	out := ChildList(
		[]*child.Child{sampleChild("Марійка", 300)},
		[]*child.Child{sampleChild("Олесь", 0)},
	)
	assert.Contains(t, out, "<b>Діти</b>")
	assert.Contains(t, out, "• Марійка, 9 р., 300 грн/зан.")
	assert.Contains(t, out, "• Олесь, 9 р., ціну не задано")
}

