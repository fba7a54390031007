package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/lesson"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/payment"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHILD LIFECYCLE
// active ⇄ archived → (deleted). Archive/unarchive are always permitted
// and reversible. Hard delete requires a zero usage count over lessons
// and payments - for archived children too; archiving never unlocks
// deletion by itself.
// ══════════════════════════════════════════════════════════════════════════════

// CreateChildCommand contains the data for a new child record.
type CreateChildCommand struct {
	OperatorID shared.OperatorID
	Name       child.Name
	Age        child.Age
	UnitPrice  child.UnitPrice
}

// EditChildField names one editable child attribute.
type EditChildField string

const (
	EditName  EditChildField = "name"
	EditAge   EditChildField = "age"
	EditPrice EditChildField = "price"
)

// ChildLifecycleHandler implements create/edit/archive/delete for
// children.
type ChildLifecycleHandler struct {
	childRepo   child.Repository
	lessonRepo  lesson.Repository
	paymentRepo payment.Repository
	logger      *slog.Logger
}

// NewChildLifecycleHandler creates a new ChildLifecycleHandler.
func NewChildLifecycleHandler(
	childRepo child.Repository,
	lessonRepo lesson.Repository,
	paymentRepo payment.Repository,
	logger *slog.Logger,
) *ChildLifecycleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChildLifecycleHandler{
		childRepo:   childRepo,
		lessonRepo:  lessonRepo,
		paymentRepo: paymentRepo,
		logger:      logger.With("component", "child_lifecycle"),
	}
}

// Create stores a new child record.
func (h *ChildLifecycleHandler) Create(ctx context.Context, cmd CreateChildCommand) (*child.Child, error) {
	c, err := child.NewChild(child.NewChildParams{
		ID:         child.ID(uuid.NewString()),
		OperatorID: cmd.OperatorID,
		Name:       cmd.Name,
		Age:        cmd.Age,
		UnitPrice:  cmd.UnitPrice,
	})
	if err != nil {
		return nil, err
	}
	if err := h.childRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create child: %w", err)
	}
	h.logger.Info("child created", "child_id", c.ID.String(), "name", c.Name.String())
	return c, nil
}

// Edit updates one attribute of the child.
func (h *ChildLifecycleHandler) Edit(ctx context.Context, id child.ID, field EditChildField, value string) (*child.Child, error) {
	c, err := h.childRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("edit child: %w", err)
	}

	switch field {
	case EditName:
		err = c.Rename(child.Name(value))
	case EditAge:
		var age int
		if _, scanErr := fmt.Sscanf(value, "%d", &age); scanErr != nil {
			return nil, shared.ErrInvalidChildAge
		}
		err = c.SetAge(child.Age(age))
	case EditPrice:
		var price float64
		if _, scanErr := fmt.Sscanf(value, "%g", &price); scanErr != nil {
			return nil, shared.ErrInvalidPrice
		}
		err = c.SetUnitPrice(child.UnitPrice(price))
	default:
		return nil, fmt.Errorf("edit child: unknown field %q", field)
	}
	if err != nil {
		return nil, err
	}

	if err := h.childRepo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("edit child: %w", err)
	}
	h.logger.Info("child updated", "child_id", id.String(), "field", string(field))
	return c, nil
}

// Archive moves the child out of default listings. Linked lessons and
// payments are untouched.
func (h *ChildLifecycleHandler) Archive(ctx context.Context, id child.ID) (*child.Child, error) {
	return h.setArchived(ctx, id, true)
}

// Unarchive returns the child to default listings with all fields
// unchanged.
func (h *ChildLifecycleHandler) Unarchive(ctx context.Context, id child.ID) (*child.Child, error) {
	return h.setArchived(ctx, id, false)
}

func (h *ChildLifecycleHandler) setArchived(ctx context.Context, id child.ID, archived bool) (*child.Child, error) {
	c, err := h.childRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("archive child: %w", err)
	}
	if archived {
		c.Archive()
	} else {
		c.Unarchive()
	}
	if err := h.childRepo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("archive child: %w", err)
	}
	h.logger.Info("child archive state changed", "child_id", id.String(), "archived", archived)
	return c, nil
}

// Usage is the delete-guard count of records referencing a child.
type Usage struct {
	Lessons  int
	Payments int
}

// Total returns the combined reference count.
func (u Usage) Total() int {
	return u.Lessons + u.Payments
}

// UsageOf counts lessons and payments referencing the child.
func (h *ChildLifecycleHandler) UsageOf(ctx context.Context, id child.ID) (Usage, error) {
	lessons, err := h.lessonRepo.CountByChild(ctx, id)
	if err != nil {
		return Usage{}, fmt.Errorf("usage check: lessons: %w", err)
	}
	payments, err := h.paymentRepo.CountByChild(ctx, id)
	if err != nil {
		return Usage{}, fmt.Errorf("usage check: payments: %w", err)
	}
	return Usage{Lessons: lessons, Payments: payments}, nil
}

// Delete hard-deletes the child when nothing references it. Otherwise it
// returns shared.ErrChildInUse with the usage counts attached, and the
// caller points the operator at archiving instead.
func (h *ChildLifecycleHandler) Delete(ctx context.Context, id child.ID) (Usage, error) {
	usage, err := h.UsageOf(ctx, id)
	if err != nil {
		return Usage{}, err
	}
	if usage.Total() > 0 {
		h.logger.Warn("child delete refused",
			"child_id", id.String(),
			"lessons", usage.Lessons,
			"payments", usage.Payments,
		)
		return usage, shared.ErrChildInUse
	}
	if err := h.childRepo.Delete(ctx, id); err != nil {
		return usage, fmt.Errorf("delete child: %w", err)
	}
	h.logger.Info("child deleted", "child_id", id.String())
	return usage, nil
}
