package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/lesson"
)

// ══════════════════════════════════════════════════════════════════════════════
// LESSON FLAG COMMANDS
// Completed / cancelled / paid are three independent flags; the timetable
// view toggles the first two. Cancelling never clears Completed - a
// cancelled lesson is excluded from delivered counts regardless.
// ══════════════════════════════════════════════════════════════════════════════

// LessonFlagAction names one toggle.
type LessonFlagAction string

const (
	ActionMarkCompleted   LessonFlagAction = "mark"
	ActionUnmarkCompleted LessonFlagAction = "unmark"
	ActionCancel          LessonFlagAction = "cancel"
	ActionUncancel        LessonFlagAction = "uncancel"
	ActionMarkPaid        LessonFlagAction = "paid"
)

// SetLessonFlagHandler toggles lesson status flags.
type SetLessonFlagHandler struct {
	lessonRepo lesson.Repository
	logger     *slog.Logger
}

// NewSetLessonFlagHandler creates a new SetLessonFlagHandler.
func NewSetLessonFlagHandler(lessonRepo lesson.Repository, logger *slog.Logger) *SetLessonFlagHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SetLessonFlagHandler{
		lessonRepo: lessonRepo,
		logger:     logger.With("component", "lesson_flags"),
	}
}

// Handle applies the action and returns the updated lesson.
func (h *SetLessonFlagHandler) Handle(ctx context.Context, id lesson.ID, action LessonFlagAction) (*lesson.Lesson, error) {
	l, err := h.lessonRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lesson flag %s: %w", action, err)
	}

	switch action {
	case ActionMarkCompleted:
		l.MarkCompleted()
	case ActionUnmarkCompleted:
		l.UnmarkCompleted()
	case ActionCancel:
		l.Cancel()
	case ActionUncancel:
		l.Uncancel()
	case ActionMarkPaid:
		l.MarkPaid()
	default:
		return nil, fmt.Errorf("lesson flag: unknown action %q", action)
	}

	if err := h.lessonRepo.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("lesson flag %s: %w", action, err)
	}

	h.logger.Info("lesson flag updated",
		"lesson_id", id.String(),
		"action", string(action),
	)
	return l, nil
}
