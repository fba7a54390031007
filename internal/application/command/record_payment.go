package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/payment"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD PAYMENT COMMAND
// Both payment flows terminate here: amount-first derives the lesson
// count beforehand, count-first carries an operator-chosen amount.
// ══════════════════════════════════════════════════════════════════════════════

// RecordPaymentCommand contains one payment to store.
type RecordPaymentCommand struct {
	OperatorID   shared.OperatorID
	ChildID      child.ID
	Amount       float64
	LessonsCount int
	Date         shared.ISODate
	Note         string
}

// RecordPaymentResult is the stored payment plus presentation data.
type RecordPaymentResult struct {
	Payment   *payment.Payment
	ChildName string
}

// RecordPaymentHandler validates the child reference and stores payments.
type RecordPaymentHandler struct {
	paymentRepo payment.Repository
	childRepo   child.Repository
	logger      *slog.Logger
}

// NewRecordPaymentHandler creates a new RecordPaymentHandler.
func NewRecordPaymentHandler(paymentRepo payment.Repository, childRepo child.Repository, logger *slog.Logger) *RecordPaymentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordPaymentHandler{
		paymentRepo: paymentRepo,
		childRepo:   childRepo,
		logger:      logger.With("component", "record_payment"),
	}
}

// Handle stores one payment record.
func (h *RecordPaymentHandler) Handle(ctx context.Context, cmd RecordPaymentCommand) (*RecordPaymentResult, error) {
	c, err := h.childRepo.GetByID(ctx, cmd.ChildID)
	if err != nil {
		return nil, fmt.Errorf("record payment: resolve child: %w", err)
	}

	p, err := payment.NewPayment(payment.NewPaymentParams{
		ID:           payment.ID(uuid.NewString()),
		OperatorID:   cmd.OperatorID,
		ChildID:      c.ID,
		Amount:       cmd.Amount,
		LessonsCount: cmd.LessonsCount,
		Date:         cmd.Date,
		Note:         cmd.Note,
	})
	if err != nil {
		return nil, err
	}

	if err := h.paymentRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	h.logger.Info("payment recorded",
		"payment_id", p.ID.String(),
		"child_id", c.ID.String(),
		"amount", p.Amount,
		"lessons_count", p.LessonsCount,
	)
	return &RecordPaymentResult{Payment: p, ChildName: c.Name.String()}, nil
}

// DeriveFromAmount derives the lesson count the amount purchases at the
// child's current unit price. Returns shared.ErrPriceNotSet for children
// without a price and shared.ErrAmountNotDivisible when the amount is not
// an exact multiple - the caller re-prompts instead of rounding.
func (h *RecordPaymentHandler) DeriveFromAmount(ctx context.Context, childID child.ID, amount float64) (count int, unitPrice float64, err error) {
	c, err := h.childRepo.GetByID(ctx, childID)
	if err != nil {
		return 0, 0, fmt.Errorf("derive payment: resolve child: %w", err)
	}
	count, err = payment.DeriveLessonsCount(amount, c.UnitPrice)
	if err != nil {
		return 0, float64(c.UnitPrice), err
	}
	return count, float64(c.UnitPrice), nil
}
