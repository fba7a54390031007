package child

import (
	"context"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Контракт для роботи зі сховищем. Реалізація - в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository визначає операції над записами дітей.
type Repository interface {
	// Create створює новий запис.
	Create(ctx context.Context, c *Child) error

	// GetByID повертає дитину за ідентифікатором.
	// Повертає shared.ErrChildNotFound, якщо запис не знайдено.
	GetByID(ctx context.Context, id ID) (*Child, error)

	// Update зберігає змінені поля запису.
	// Повертає shared.ErrChildNotFound, якщо запис не знайдено.
	Update(ctx context.Context, c *Child) error

	// Delete остаточно видаляє запис. Перевірку використання
	// (заняття/оплати) виконує шар застосунку, не репозиторій.
	// Повертає shared.ErrChildNotFound, якщо запис не знайдено.
	Delete(ctx context.Context, id ID) error

	// List повертає дітей, що належать будь-якому з операторів зі
	// списку, відповідно до фільтра.
	List(ctx context.Context, operators []shared.OperatorID, filter ListFilter) ([]*Child, error)

	// Count повертає кількість дітей за тим самим фільтром.
	Count(ctx context.Context, operators []shared.OperatorID, filter ListFilter) (int, error)
}

// ListFilter обмежує вибірку списку дітей.
type ListFilter struct {
	// Archived: nil - усі, false - лише активні, true - лише архівні.
	Archived *bool
}

// ActiveOnly повертає фільтр "лише активні" - типовий для списків
// вибору та підсумків.
func ActiveOnly() ListFilter {
	archived := false
	return ListFilter{Archived: &archived}
}

// ArchivedOnly повертає фільтр "лише архівні".
func ArchivedOnly() ListFilter {
	archived := true
	return ListFilter{Archived: &archived}
}

// All повертає фільтр без обмежень.
func All() ListFilter {
	return ListFilter{}
}
