package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/lesson"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/payment"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

func newLifecycleHandler(children ...*child.Child) (*ChildLifecycleHandler, *fakeChildRepo, *fakeLessonRepo, *fakePaymentRepo) {
	childRepo := newFakeChildRepo(children...)
	lessonRepo := newFakeLessonRepo()
	paymentRepo := newFakePaymentRepo()
	return NewChildLifecycleHandler(childRepo, lessonRepo, paymentRepo, nil), childRepo, lessonRepo, paymentRepo
}

func TestChildLifecycle_Create(t *testing.T) {
	h, repo, _, _ := newLifecycleHandler()

	c, err := h.Create(context.Background(), CreateChildCommand{
		OperatorID: 100,
		Name:       "  Марійка ",
		Age:        9,
		UnitPrice:  300,
	})
	require.NoError(t, err)
	assert.Equal(t, child.Name("Марійка"), c.Name)
	assert.False(t, c.Archived)

	stored, err := repo.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, stored.ID)
}

func TestChildLifecycle_CreateValidation(t *testing.T) {
	h, _, _, _ := newLifecycleHandler()

	_, err := h.Create(context.Background(), CreateChildCommand{OperatorID: 100, Name: "  ", Age: 9, UnitPrice: 300})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	_, err = h.Create(context.Background(), CreateChildCommand{OperatorID: 100, Name: "Петрик", Age: 19, UnitPrice: 300})
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	_, err = h.Create(context.Background(), CreateChildCommand{OperatorID: 100, Name: "Петрик", Age: 9, UnitPrice: -1})
	assert.ErrorIs(t, err, shared.ErrNegativeValue)
}

func TestChildLifecycle_Edit(t *testing.T) {
	h, _, _, _ := newLifecycleHandler(newTestChild(testChildID, "Марійка", 300))
	ctx := context.Background()

	c, err := h.Edit(ctx, testChildID, EditName, "Марія")
	require.NoError(t, err)
	assert.Equal(t, child.Name("Марія"), c.Name)

	c, err = h.Edit(ctx, testChildID, EditAge, "10")
	require.NoError(t, err)
	assert.Equal(t, child.Age(10), c.Age)

	c, err = h.Edit(ctx, testChildID, EditPrice, "350")
	require.NoError(t, err)
	assert.Equal(t, child.UnitPrice(350), c.UnitPrice)

	_, err = h.Edit(ctx, testChildID, EditAge, "not-a-number")
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}

func TestChildLifecycle_ArchiveRoundTrip(t *testing.T) {
	h, repo, _, _ := newLifecycleHandler(newTestChild(testChildID, "Марійка", 300))
	ctx := context.Background()

	c, err := h.Archive(ctx, testChildID)
	require.NoError(t, err)
	assert.True(t, c.Archived)

	// Unarchiving returns it to the default listing with fields intact.
	c, err = h.Unarchive(ctx, testChildID)
	require.NoError(t, err)
	assert.False(t, c.Archived)
	assert.Equal(t, child.Name("Марійка"), c.Name)
	assert.Equal(t, child.UnitPrice(300), c.UnitPrice)

	active, err := repo.List(ctx, nil, child.ActiveOnly())
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestChildLifecycle_DeleteGuard(t *testing.T) {
	h, childRepo, lessonRepo, paymentRepo := newLifecycleHandler(newTestChild(testChildID, "Марійка", 300))
	ctx := context.Background()

	l, err := lesson.NewLesson(lesson.NewLessonParams{
		ID: "33333333-3333-3333-3333-333333333333", OperatorID: 100, ChildID: testChildID,
		Date: "2026-09-07", StartTime: "10:00", EndTime: "11:00",
	})
	require.NoError(t, err)
	require.NoError(t, lessonRepo.Create(ctx, l))

	usage, err := h.Delete(ctx, testChildID)
	assert.ErrorIs(t, err, shared.ErrEntityInUse)
	assert.Equal(t, Usage{Lessons: 1}, usage)

	// Archiving never unlocks deletion by itself.
	_, err = h.Archive(ctx, testChildID)
	require.NoError(t, err)
	_, err = h.Delete(ctx, testChildID)
	assert.ErrorIs(t, err, shared.ErrEntityInUse)

	// A payment alone also blocks deletion.
	require.NoError(t, lessonRepo.Delete(ctx, l.ID))
	p, err := payment.NewPayment(payment.NewPaymentParams{
		ID: "44444444-4444-4444-4444-444444444444", OperatorID: 100, ChildID: testChildID,
		Amount: 300, LessonsCount: 1, Date: "2026-09-07",
	})
	require.NoError(t, err)
	require.NoError(t, paymentRepo.Create(ctx, p))
	_, err = h.Delete(ctx, testChildID)
	assert.ErrorIs(t, err, shared.ErrEntityInUse)

	// With zero usage the delete goes through, archived or not.
	require.NoError(t, paymentRepo.Delete(ctx, p.ID))
	usage, err = h.Delete(ctx, testChildID)
	require.NoError(t, err)
	assert.Zero(t, usage.Total())
	_, err = childRepo.GetByID(ctx, testChildID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
