// Package lesson містить доменну модель заняття. Заняття прив'язане до
// дитини, має календарну дату та часовий проміжок і три незалежні
// прапорці стану: проведене, скасоване, оплачене.
package lesson

import (
	"time"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// ID - унікальний ідентифікатор заняття (UUID у рядковому форматі).
type ID string

// IsValid перевіряє, що ідентифікатор має формат UUID.
func (id ID) IsValid() bool {
	return shared.IsUUID(string(id))
}

// String повертає рядкове представлення.
func (id ID) String() string {
	return string(id)
}

// Lesson - одне заняття з дитиною.
type Lesson struct {
	// ID - внутрішній унікальний ідентифікатор.
	ID ID

	// OperatorID - оператор, що створив запис.
	OperatorID shared.OperatorID

	// ChildID - дитина, з якою проводиться заняття.
	ChildID child.ID

	// Date - календарна дата у форматі "YYYY-MM-DD".
	Date shared.ISODate

	// StartTime, EndTime - межі заняття у форматі "HH:MM".
	// Інваріант: EndTime строго пізніше за StartTime.
	StartTime shared.ClockTime
	EndTime   shared.ClockTime

	// Completed - заняття проведене.
	Completed bool

	// Cancelled - заняття скасоване. Скасоване заняття не враховується
	// як проведене, навіть якщо Completed=true.
	Cancelled bool

	// Paid - заняття позначене як оплачене.
	Paid bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewLessonParams - параметри створення заняття.
type NewLessonParams struct {
	ID         ID
	OperatorID shared.OperatorID
	ChildID    child.ID
	Date       shared.ISODate
	StartTime  shared.ClockTime
	EndTime    shared.ClockTime
}

// NewLesson створює нове заняття з валідацією всіх полів.
func NewLesson(params NewLessonParams) (*Lesson, error) {
	if !params.ID.IsValid() {
		return nil, shared.NewDomainError("lesson", "Create", shared.ErrInvalidID, "lesson ID must be a UUID")
	}
	if !params.OperatorID.IsValid() {
		return nil, shared.ErrInvalidTelegramID
	}
	if !params.ChildID.IsValid() {
		return nil, shared.NewDomainError("lesson", "Create", shared.ErrInvalidID, "child ID must be a UUID")
	}
	if !params.Date.IsValid() {
		return nil, shared.ErrInvalidDate
	}
	if !params.StartTime.IsValid() || !params.EndTime.IsValid() {
		return nil, shared.ErrInvalidTime
	}
	if !params.EndTime.After(params.StartTime) {
		return nil, shared.ErrInvalidTimeSpan
	}

	now := time.Now().UTC()
	return &Lesson{
		ID:         params.ID,
		OperatorID: params.OperatorID,
		ChildID:    params.ChildID,
		Date:       params.Date,
		StartTime:  params.StartTime,
		EndTime:    params.EndTime,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// IsDelivered повертає true, якщо заняття враховується як проведене:
// Completed і не Cancelled. Саме ця ознака протиставляється оплатам
// у білінгу.
func (l *Lesson) IsDelivered() bool {
	return l.Completed && !l.Cancelled
}

// Reschedule змінює дату й час заняття, зберігаючи інваріант
// EndTime > StartTime.
func (l *Lesson) Reschedule(date shared.ISODate, start, end shared.ClockTime) error {
	if !date.IsValid() {
		return shared.ErrInvalidDate
	}
	if !start.IsValid() || !end.IsValid() {
		return shared.ErrInvalidTime
	}
	if !end.After(start) {
		return shared.ErrInvalidTimeSpan
	}
	l.Date = date
	l.StartTime = start
	l.EndTime = end
	l.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkCompleted позначає заняття проведеним.
func (l *Lesson) MarkCompleted() {
	l.Completed = true
	l.UpdatedAt = time.Now().UTC()
}

// UnmarkCompleted знімає позначку "проведене".
func (l *Lesson) UnmarkCompleted() {
	l.Completed = false
	l.UpdatedAt = time.Now().UTC()
}

// Cancel позначає заняття скасованим. Прапорець Completed при цьому
// не змінюється: скасування має пріоритет у підрахунках.
func (l *Lesson) Cancel() {
	l.Cancelled = true
	l.UpdatedAt = time.Now().UTC()
}

// Uncancel знімає позначку скасування.
func (l *Lesson) Uncancel() {
	l.Cancelled = false
	l.UpdatedAt = time.Now().UTC()
}

// MarkPaid позначає заняття оплаченим.
func (l *Lesson) MarkPaid() {
	l.Paid = true
	l.UpdatedAt = time.Now().UTC()
}

// CopyShiftedDays повертає нове заняття-копію, зсунуте на days днів
// уперед: та сама дитина, той самий часовий проміжок, нова дата та
// новий ідентифікатор. Використовується генерацією повторюваних занять.
func (l *Lesson) CopyShiftedDays(newID ID, days int) (*Lesson, error) {
	t, err := time.Parse("2006-01-02", l.Date.String())
	if err != nil {
		return nil, shared.ErrInvalidDate
	}
	shifted := shared.ISODate(t.AddDate(0, 0, days).Format("2006-01-02"))
	return NewLesson(NewLessonParams{
		ID:         newID,
		OperatorID: l.OperatorID,
		ChildID:    l.ChildID,
		Date:       shifted,
		StartTime:  l.StartTime,
		EndTime:    l.EndTime,
	})
}
