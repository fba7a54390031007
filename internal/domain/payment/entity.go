// Package payment містить доменну модель оплати. Оплата фіксує суму та
// кількість занять, які ця сума купує; саме lessons_count (а не сума)
// протиставляється проведеним заняттям у білінгу.
package payment

import (
	"math"
	"strings"
	"time"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// ID - унікальний ідентифікатор оплати (UUID у рядковому форматі).
type ID string

// IsValid перевіряє, що ідентифікатор має формат UUID.
func (id ID) IsValid() bool {
	return shared.IsUUID(string(id))
}

// String повертає рядкове представлення.
func (id ID) String() string {
	return string(id)
}

// Допуск при перевірці подільності суми на ціну заняття.
const divisibilityEpsilon = 1e-6

// Payment - одна зафіксована оплата за заняття.
type Payment struct {
	// ID - внутрішній унікальний ідентифікатор.
	ID ID

	// OperatorID - оператор, що зафіксував оплату.
	OperatorID shared.OperatorID

	// ChildID - дитина, за яку внесено оплату.
	ChildID child.ID

	// Amount - сума оплати, строго додатна.
	Amount float64

	// LessonsCount - кількість занять, які купує ця сума, строго додатна.
	LessonsCount int

	// Date - дата оплати у форматі "YYYY-MM-DD".
	Date shared.ISODate

	// Note - необов'язковий коментар оператора.
	Note string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPaymentParams - параметри створення оплати.
type NewPaymentParams struct {
	ID           ID
	OperatorID   shared.OperatorID
	ChildID      child.ID
	Amount       float64
	LessonsCount int
	Date         shared.ISODate
	Note         string
}

// NewPayment створює нову оплату з валідацією всіх полів.
func NewPayment(params NewPaymentParams) (*Payment, error) {
	if !params.ID.IsValid() {
		return nil, shared.NewDomainError("payment", "Create", shared.ErrInvalidID, "payment ID must be a UUID")
	}
	if !params.OperatorID.IsValid() {
		return nil, shared.ErrInvalidTelegramID
	}
	if !params.ChildID.IsValid() {
		return nil, shared.NewDomainError("payment", "Create", shared.ErrInvalidID, "child ID must be a UUID")
	}
	if params.Amount <= 0 {
		return nil, shared.ErrInvalidAmount
	}
	if params.LessonsCount <= 0 {
		return nil, shared.ErrInvalidLessonsCount
	}
	if !params.Date.IsValid() {
		return nil, shared.ErrInvalidDate
	}

	now := time.Now().UTC()
	return &Payment{
		ID:           params.ID,
		OperatorID:   params.OperatorID,
		ChildID:      params.ChildID,
		Amount:       params.Amount,
		LessonsCount: params.LessonsCount,
		Date:         params.Date,
		Note:         strings.TrimSpace(params.Note),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// DeriveLessonsCount обчислює кількість занять із суми за ціною одного
// заняття. Сума має бути цілим кратним ціни (в межах допуску на похибку
// float64) - інакше shared.ErrAmountNotDivisible: система ніколи не
// округлює мовчки. Нульова або незадана ціна дає shared.ErrPriceNotSet.
func DeriveLessonsCount(amount float64, unitPrice child.UnitPrice) (int, error) {
	if !unitPrice.IsSet() {
		return 0, shared.ErrPriceNotSet
	}
	if amount <= 0 {
		return 0, shared.ErrInvalidAmount
	}

	quotient := amount / float64(unitPrice)
	rounded := math.Round(quotient)
	if rounded < 1 || math.Abs(quotient-rounded) > divisibilityEpsilon {
		return 0, shared.ErrAmountNotDivisible
	}
	return int(rounded), nil
}

// SuggestAmount пропонує суму для заданої кількості занять за поточною
// ціною. Для незаданої ціни повертає нуль - оператор вводить суму сам.
func SuggestAmount(count int, unitPrice child.UnitPrice) float64 {
	if count <= 0 || !unitPrice.IsSet() {
		return 0
	}
	return float64(count) * float64(unitPrice)
}

// SetNote змінює коментар до оплати.
func (p *Payment) SetNote(note string) {
	p.Note = strings.TrimSpace(note)
	p.UpdatedAt = time.Now().UTC()
}
