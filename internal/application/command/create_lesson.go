// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/lesson"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
	"github.com/lessonhub/lesson-ledger-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE LESSON COMMAND
// Creates a single lesson; the recurrence variant fans out weekly copies
// with a partial-success policy.
// ══════════════════════════════════════════════════════════════════════════════

// CreateLessonCommand contains the data for one new lesson.
type CreateLessonCommand struct {
	OperatorID shared.OperatorID
	ChildID    child.ID
	Date       shared.ISODate
	StartTime  shared.ClockTime
	EndTime    shared.ClockTime
}

// CreateLessonResult is the outcome of a single-lesson creation.
type CreateLessonResult struct {
	Lesson *lesson.Lesson

	// ChildName is resolved for presentation.
	ChildName string
}

// CreateLessonHandler handles lesson creation.
type CreateLessonHandler struct {
	lessonRepo lesson.Repository
	childRepo  child.Repository
	logger     *slog.Logger
}

// NewCreateLessonHandler creates a new CreateLessonHandler.
func NewCreateLessonHandler(lessonRepo lesson.Repository, childRepo child.Repository, logger *slog.Logger) *CreateLessonHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateLessonHandler{
		lessonRepo: lessonRepo,
		childRepo:  childRepo,
		logger:     logger.With("component", "create_lesson"),
	}
}

// Handle validates the child reference and stores the lesson. Repeating
// the command with identical inputs creates another independent record:
// two physically distinct sessions may share every parameter.
func (h *CreateLessonHandler) Handle(ctx context.Context, cmd CreateLessonCommand) (*CreateLessonResult, error) {
	c, err := h.childRepo.GetByID(ctx, cmd.ChildID)
	if err != nil {
		return nil, fmt.Errorf("create lesson: resolve child: %w", err)
	}

	l, err := lesson.NewLesson(lesson.NewLessonParams{
		ID:         lesson.ID(uuid.NewString()),
		OperatorID: cmd.OperatorID,
		ChildID:    c.ID,
		Date:       cmd.Date,
		StartTime:  cmd.StartTime,
		EndTime:    cmd.EndTime,
	})
	if err != nil {
		return nil, err
	}

	if err := h.lessonRepo.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("create lesson: %w", err)
	}

	h.logger.Info("lesson created",
		"lesson_id", l.ID.String(),
		"child_id", c.ID.String(),
		"date", l.Date.String(),
	)
	return &CreateLessonResult{Lesson: l, ChildName: c.Name.String()}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RECURRING LESSONS
// ══════════════════════════════════════════════════════════════════════════════

// RecurrencePreview lists the weekly-spaced candidate dates for a base
// lesson before the operator confirms the bulk insert.
type RecurrencePreview struct {
	BaseLessonID lesson.ID
	Dates        []shared.ISODate
}

// PreviewRecurrence computes the candidate dates (base+7, +14, +21, +28
// days) without touching the store.
func PreviewRecurrence(base *lesson.Lesson) (RecurrencePreview, error) {
	dates, err := timeutil.RecurrenceDates(base.Date.String())
	if err != nil {
		return RecurrencePreview{}, shared.ErrInvalidDate
	}
	preview := RecurrencePreview{BaseLessonID: base.ID, Dates: make([]shared.ISODate, 0, len(dates))}
	for _, d := range dates {
		preview.Dates = append(preview.Dates, shared.ISODate(d))
	}
	return preview, nil
}

// Preview resolves the base lesson and computes its weekly candidates
// without inserting anything.
func (h *CreateLessonHandler) Preview(ctx context.Context, baseID lesson.ID) (RecurrencePreview, error) {
	base, err := h.lessonRepo.GetByID(ctx, baseID)
	if err != nil {
		return RecurrencePreview{}, fmt.Errorf("recurrence preview: resolve base lesson: %w", err)
	}
	return PreviewRecurrence(base)
}

// RecurrenceResult reports the partial-success outcome of the bulk insert.
type RecurrenceResult struct {
	// Planned is the number of candidates attempted.
	Planned int

	// Inserted is how many of them were stored.
	Inserted int

	// Created holds the stored copies in date order.
	Created []*lesson.Lesson
}

// HandleRecurrence inserts the weekly copies of the base lesson. Each
// candidate is inserted independently: one failure is logged and skipped
// without rolling back the copies already stored.
func (h *CreateLessonHandler) HandleRecurrence(ctx context.Context, baseID lesson.ID) (*RecurrenceResult, error) {
	base, err := h.lessonRepo.GetByID(ctx, baseID)
	if err != nil {
		return nil, fmt.Errorf("recurrence: resolve base lesson: %w", err)
	}

	result := &RecurrenceResult{Planned: timeutil.RecurrenceWeeks}
	for week := 1; week <= timeutil.RecurrenceWeeks; week++ {
		copyLesson, err := base.CopyShiftedDays(lesson.ID(uuid.NewString()), 7*week)
		if err != nil {
			h.logger.Error("recurrence candidate skipped",
				"base_lesson_id", baseID.String(),
				"week", week,
				"error", err,
			)
			continue
		}
		if err := h.lessonRepo.Create(ctx, copyLesson); err != nil {
			h.logger.Error("recurrence insert failed",
				"base_lesson_id", baseID.String(),
				"date", copyLesson.Date.String(),
				"error", err,
			)
			continue
		}
		result.Inserted++
		result.Created = append(result.Created, copyLesson)
	}

	h.logger.Info("recurrence completed",
		"base_lesson_id", baseID.String(),
		"planned", result.Planned,
		"inserted", result.Inserted,
	)
	return result, nil
}
