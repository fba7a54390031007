package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

func TestRecordPaymentHandler_Handle(t *testing.T) {
	childRepo := newFakeChildRepo(newTestChild(testChildID, "Марійка", 300))
	paymentRepo := newFakePaymentRepo()
	h := NewRecordPaymentHandler(paymentRepo, childRepo, nil)

	result, err := h.Handle(context.Background(), RecordPaymentCommand{
		OperatorID:   100,
		ChildID:      testChildID,
		Amount:       1500,
		LessonsCount: 5,
		Date:         "2026-08-31",
		Note:         " передоплата за вересень ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Марійка", result.ChildName)
	assert.Equal(t, "передоплата за вересень", result.Payment.Note)

	n, _ := paymentRepo.CountByChild(context.Background(), testChildID)
	assert.Equal(t, 1, n)
}

func TestRecordPaymentHandler_Validation(t *testing.T) {
	childRepo := newFakeChildRepo(newTestChild(testChildID, "Марійка", 300))
	h := NewRecordPaymentHandler(newFakePaymentRepo(), childRepo, nil)
	ctx := context.Background()

	_, err := h.Handle(ctx, RecordPaymentCommand{
		OperatorID: 100, ChildID: testChildID,
		Amount: 0, LessonsCount: 5, Date: "2026-08-31",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidAmount)

	_, err = h.Handle(ctx, RecordPaymentCommand{
		OperatorID: 100, ChildID: testChildID,
		Amount: 1500, LessonsCount: 0, Date: "2026-08-31",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidLessonsCount)
}

func TestRecordPaymentHandler_DeriveFromAmount(t *testing.T) {
	childRepo := newFakeChildRepo(
		newTestChild(testChildID, "Марійка", 300),
		newTestChild("55555555-5555-5555-5555-555555555555", "Петрик", 0),
	)
	h := NewRecordPaymentHandler(newFakePaymentRepo(), childRepo, nil)
	ctx := context.Background()

	// 1500 / 300 = exactly 5 lessons.
	count, price, err := h.DeriveFromAmount(ctx, testChildID, 1500)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.InDelta(t, 300.0, price, 1e-9)

	// 1600 / 300 ≈ 5.33 - rejected, never silently rounded.
	_, price, err = h.DeriveFromAmount(ctx, testChildID, 1600)
	assert.ErrorIs(t, err, shared.ErrAmountNotDivisible)
	assert.InDelta(t, 300.0, price, 1e-9)

	// Unset unit price blocks amount-first entry.
	_, _, err = h.DeriveFromAmount(ctx, "55555555-5555-5555-5555-555555555555", 1500)
	assert.ErrorIs(t, err, shared.ErrPriceNotSet)
}
