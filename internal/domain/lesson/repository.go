package lesson

import (
	"context"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// Repository визначає операції над записами занять.
type Repository interface {
	// Create створює новий запис заняття.
	Create(ctx context.Context, l *Lesson) error

	// GetByID повертає заняття за ідентифікатором.
	// Повертає shared.ErrLessonNotFound, якщо запис не знайдено.
	GetByID(ctx context.Context, id ID) (*Lesson, error)

	// Update зберігає змінені поля запису.
	// Повертає shared.ErrLessonNotFound, якщо запис не знайдено.
	Update(ctx context.Context, l *Lesson) error

	// Delete остаточно видаляє запис.
	Delete(ctx context.Context, id ID) error

	// List повертає заняття операторів зі списку відповідно до фільтра,
	// відсортовані за (date, start_time).
	List(ctx context.Context, operators []shared.OperatorID, filter ListFilter) ([]*Lesson, error)

	// CountByChild повертає кількість занять, що посилаються на дитину.
	// Використовується перевіркою перед остаточним видаленням дитини.
	CountByChild(ctx context.Context, childID child.ID) (int, error)
}

// ListFilter обмежує вибірку занять. Порожній фільтр означає "всі".
type ListFilter struct {
	// ChildID обмежує вибірку однією дитиною.
	ChildID child.ID

	// DateFrom, DateTo - включний діапазон дат "YYYY-MM-DD".
	// Порожній рядок означає відсутність межі.
	DateFrom shared.ISODate
	DateTo   shared.ISODate
}

// ForDate повертає фільтр на один календарний день.
func ForDate(date shared.ISODate) ListFilter {
	return ListFilter{DateFrom: date, DateTo: date}
}

// ForRange повертає фільтр на включний діапазон дат.
func ForRange(from, to shared.ISODate) ListFilter {
	return ListFilter{DateFrom: from, DateTo: to}
}
