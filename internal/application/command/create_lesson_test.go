package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/lesson"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

const testChildID = child.ID("11111111-1111-1111-1111-111111111111")

func TestCreateLessonHandler_Handle(t *testing.T) {
	childRepo := newFakeChildRepo(newTestChild(testChildID, "Марійка", 300))
	lessonRepo := newFakeLessonRepo()
	h := NewCreateLessonHandler(lessonRepo, childRepo, nil)

	cmd := CreateLessonCommand{
		OperatorID: 100,
		ChildID:    testChildID,
		Date:       "2026-09-07",
		StartTime:  "10:00",
		EndTime:    "11:00",
	}

	result, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "Марійка", result.ChildName)
	assert.True(t, result.Lesson.ID.IsValid())
	assert.False(t, result.Lesson.Completed)

	// No deduplication: identical inputs create a second record.
	again, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	assert.NotEqual(t, result.Lesson.ID, again.Lesson.ID)
	n, _ := lessonRepo.CountByChild(context.Background(), testChildID)
	assert.Equal(t, 2, n)
}

func TestCreateLessonHandler_RejectsBadTimeSpan(t *testing.T) {
	childRepo := newFakeChildRepo(newTestChild(testChildID, "Марійка", 300))
	h := NewCreateLessonHandler(newFakeLessonRepo(), childRepo, nil)

	_, err := h.Handle(context.Background(), CreateLessonCommand{
		OperatorID: 100,
		ChildID:    testChildID,
		Date:       "2026-09-07",
		StartTime:  "11:00",
		EndTime:    "11:00",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidTimeSpan)
}

func TestCreateLessonHandler_StaleChild(t *testing.T) {
	h := NewCreateLessonHandler(newFakeLessonRepo(), newFakeChildRepo(), nil)

	_, err := h.Handle(context.Background(), CreateLessonCommand{
		OperatorID: 100,
		ChildID:    testChildID,
		Date:       "2026-09-07",
		StartTime:  "10:00",
		EndTime:    "11:00",
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPreviewRecurrence(t *testing.T) {
	childRepo := newFakeChildRepo(newTestChild(testChildID, "Марійка", 300))
	h := NewCreateLessonHandler(newFakeLessonRepo(), childRepo, nil)

	result, err := h.Handle(context.Background(), CreateLessonCommand{
		OperatorID: 100,
		ChildID:    testChildID,
		Date:       "2026-08-31",
		StartTime:  "10:00",
		EndTime:    "11:00",
	})
	require.NoError(t, err)

	preview, err := PreviewRecurrence(result.Lesson)
	require.NoError(t, err)
	assert.Equal(t, []shared.ISODate{"2026-09-07", "2026-09-14", "2026-09-21", "2026-09-28"}, preview.Dates)
}

func TestPreview_ResolvesBaseLesson(t *testing.T) {
	childRepo := newFakeChildRepo(newTestChild(testChildID, "Марійка", 300))
	lessonRepo := newFakeLessonRepo()
	h := NewCreateLessonHandler(lessonRepo, childRepo, nil)

	result, err := h.Handle(context.Background(), CreateLessonCommand{
		OperatorID: 100,
		ChildID:    testChildID,
		Date:       "2026-08-31",
		StartTime:  "10:00",
		EndTime:    "11:00",
	})
	require.NoError(t, err)

	preview, err := h.Preview(context.Background(), result.Lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Lesson.ID, preview.BaseLessonID)
	assert.Len(t, preview.Dates, 4)

	// The preview must not touch the store.
	n, _ := lessonRepo.CountByChild(context.Background(), testChildID)
	assert.Equal(t, 1, n)

	_, err = h.Preview(context.Background(), lesson.ID("missing"))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestHandleRecurrence_AllSucceed(t *testing.T) {
	childRepo := newFakeChildRepo(newTestChild(testChildID, "Марійка", 300))
	lessonRepo := newFakeLessonRepo()
	h := NewCreateLessonHandler(lessonRepo, childRepo, nil)

	base, err := h.Handle(context.Background(), CreateLessonCommand{
		OperatorID: 100,
		ChildID:    testChildID,
		Date:       "2026-08-31",
		StartTime:  "10:00",
		EndTime:    "11:00",
	})
	require.NoError(t, err)

	result, err := h.HandleRecurrence(context.Background(), base.Lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Planned)
	assert.Equal(t, 4, result.Inserted)
	require.Len(t, result.Created, 4)

	// Copies keep the base time span and child.
	for _, l := range result.Created {
		assert.Equal(t, base.Lesson.ChildID, l.ChildID)
		assert.Equal(t, base.Lesson.StartTime, l.StartTime)
		assert.Equal(t, base.Lesson.EndTime, l.EndTime)
	}
}

func TestHandleRecurrence_PartialSuccess(t *testing.T) {
	childRepo := newFakeChildRepo(newTestChild(testChildID, "Марійка", 300))
	lessonRepo := newFakeLessonRepo()
	// Week 2 insert fails; the other three must still go through.
	lessonRepo.failDates["2026-09-14"] = true
	h := NewCreateLessonHandler(lessonRepo, childRepo, nil)

	base, err := h.Handle(context.Background(), CreateLessonCommand{
		OperatorID: 100,
		ChildID:    testChildID,
		Date:       "2026-08-31",
		StartTime:  "10:00",
		EndTime:    "11:00",
	})
	require.NoError(t, err)

	result, err := h.HandleRecurrence(context.Background(), base.Lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Planned)
	assert.Equal(t, 3, result.Inserted)

	// 1 base + 3 copies stored.
	n, _ := lessonRepo.CountByChild(context.Background(), testChildID)
	assert.Equal(t, 4, n)
}

func TestHandleRecurrence_MissingBase(t *testing.T) {
	h := NewCreateLessonHandler(newFakeLessonRepo(), newFakeChildRepo(), nil)
	_, err := h.HandleRecurrence(context.Background(), "22222222-2222-2222-2222-222222222222")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
