package payment

import (
	"context"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// Repository визначає операції над записами оплат.
type Repository interface {
	// Create створює новий запис оплати.
	Create(ctx context.Context, p *Payment) error

	// GetByID повертає оплату за ідентифікатором.
	// Повертає shared.ErrPaymentNotFound, якщо запис не знайдено.
	GetByID(ctx context.Context, id ID) (*Payment, error)

	// Update зберігає змінені поля запису.
	Update(ctx context.Context, p *Payment) error

	// Delete остаточно видаляє запис.
	Delete(ctx context.Context, id ID) error

	// List повертає оплати операторів зі списку відповідно до фільтра,
	// відсортовані за датою.
	List(ctx context.Context, operators []shared.OperatorID, filter ListFilter) ([]*Payment, error)

	// CountByChild повертає кількість оплат, що посилаються на дитину.
	// Використовується перевіркою перед остаточним видаленням дитини.
	CountByChild(ctx context.Context, childID child.ID) (int, error)
}

// ListFilter обмежує вибірку оплат. Порожній фільтр означає "всі".
type ListFilter struct {
	// ChildID обмежує вибірку однією дитиною.
	ChildID child.ID

	// DateFrom, DateTo - включний діапазон дат "YYYY-MM-DD".
	DateFrom shared.ISODate
	DateTo   shared.ISODate
}
