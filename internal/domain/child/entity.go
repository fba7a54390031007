// Package child містить доменну модель дитини (учня), для якої ведеться
// облік занять і оплат. Тут немає зовнішніх залежностей.
package child

import (
	"strings"
	"time"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// ID - унікальний ідентифікатор дитини (UUID у рядковому форматі).
// Окремий тип, щоб ідентифікатор дитини не можна було сплутати
// з ідентифікатором заняття чи оплати.
type ID string

// IsValid перевіряє, що ідентифікатор має формат UUID.
func (id ID) IsValid() bool {
	return shared.IsUUID(string(id))
}

// String повертає рядкове представлення.
func (id ID) String() string {
	return string(id)
}

// Name - ім'я дитини.
type Name string

// Межі довжини імені.
const (
	minNameLen = 1
	maxNameLen = 100
)

// IsValid перевіряє коректність імені.
func (n Name) IsValid() bool {
	s := strings.TrimSpace(string(n))
	return len(s) >= minNameLen && len(s) <= maxNameLen
}

// String повертає рядкове представлення.
func (n Name) String() string {
	return string(n)
}

// Age - вік дитини в роках.
type Age int

// Допустимий діапазон віку.
const (
	MinAge Age = 0
	MaxAge Age = 18
)

// IsValid перевіряє, що вік у діапазоні [0, 18].
func (a Age) IsValid() bool {
	return a >= MinAge && a <= MaxAge
}

// UnitPrice - вартість одного заняття. Нуль означає "ціна не задана":
// така дитина не бере участі в грошових підсумках і блокує оплату
// "від суми".
type UnitPrice float64

// IsValid перевіряє, що ціна невід'ємна.
func (p UnitPrice) IsValid() bool {
	return p >= 0
}

// IsSet повертає true, якщо ціну задано.
func (p UnitPrice) IsSet() bool {
	return p > 0
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: CHILD
// ══════════════════════════════════════════════════════════════════════════════

// Child - дитина, для якої ведеться облік занять та оплат.
type Child struct {
	// ID - внутрішній унікальний ідентифікатор.
	ID ID

	// OperatorID - Telegram-ідентифікатор оператора, що створив запис.
	// Видимість при цьому спільна для всього списку дозволених
	// операторів (спільний робочий простір команди).
	OperatorID shared.OperatorID

	// Name - ім'я дитини.
	Name Name

	// Age - вік у роках.
	Age Age

	// UnitPrice - вартість одного заняття.
	UnitPrice UnitPrice

	// Archived - архівний стан. Архівація оборотна і не змінює
	// пов'язані заняття та оплати; архівована дитина не з'являється
	// у типових списках і не бере участі в підсумках.
	Archived bool

	// CreatedAt, UpdatedAt - часові мітки життєвого циклу запису.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewChildParams - параметри створення дитини.
type NewChildParams struct {
	ID         ID
	OperatorID shared.OperatorID
	Name       Name
	Age        Age
	UnitPrice  UnitPrice
}

// NewChild створює нову дитину з валідацією всіх полів.
func NewChild(params NewChildParams) (*Child, error) {
	if !params.ID.IsValid() {
		return nil, shared.NewDomainError("child", "Create", shared.ErrInvalidID, "child ID must be a UUID")
	}
	if !params.OperatorID.IsValid() {
		return nil, shared.ErrInvalidTelegramID
	}
	if !params.Name.IsValid() {
		return nil, shared.NewDomainError("child", "Create", shared.ErrEmptyValue, "child name is required")
	}
	if !params.Age.IsValid() {
		return nil, shared.ErrInvalidChildAge
	}
	if !params.UnitPrice.IsValid() {
		return nil, shared.ErrInvalidPrice
	}

	now := time.Now().UTC()
	return &Child{
		ID:         params.ID,
		OperatorID: params.OperatorID,
		Name:       Name(strings.TrimSpace(params.Name.String())),
		Age:        params.Age,
		UnitPrice:  params.UnitPrice,
		Archived:   false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Rename змінює ім'я дитини.
func (c *Child) Rename(name Name) error {
	if !name.IsValid() {
		return shared.NewDomainError("child", "Rename", shared.ErrEmptyValue, "child name is required")
	}
	c.Name = Name(strings.TrimSpace(name.String()))
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// SetAge змінює вік дитини.
func (c *Child) SetAge(age Age) error {
	if !age.IsValid() {
		return shared.ErrInvalidChildAge
	}
	c.Age = age
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// SetUnitPrice змінює вартість заняття. Історичні записи не
// перераховуються: підсумки завжди використовують поточну ціну.
func (c *Child) SetUnitPrice(price UnitPrice) error {
	if !price.IsValid() {
		return shared.ErrInvalidPrice
	}
	c.UnitPrice = price
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Archive переводить дитину в архівний стан. Операція ідемпотентна.
func (c *Child) Archive() {
	if c.Archived {
		return
	}
	c.Archived = true
	c.UpdatedAt = time.Now().UTC()
}

// Unarchive повертає дитину з архіву. Усі поля залишаються незмінними.
func (c *Child) Unarchive() {
	if !c.Archived {
		return
	}
	c.Archived = false
	c.UpdatedAt = time.Now().UTC()
}
