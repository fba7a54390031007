package flow

import (
	"context"
	"errors"

	"github.com/lessonhub/lesson-ledger-bot/internal/application/command"
	"github.com/lessonhub/lesson-ledger-bot/internal/conversation"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/lesson"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
	"github.com/lessonhub/lesson-ledger-bot/internal/interface/telegram/presenter"
	"github.com/lessonhub/lesson-ledger-bot/pkg/timeutil"
)

// newAddLessonFlow builds the lesson wizard:
// дитина → дата → час початку → час завершення → повтор → підтвердження.
// The lesson is stored as soon as the time span validates; the repeat
// branch previews the weekly dates and fans them out only after an
// explicit confirm press.
func newAddLessonFlow(deps Deps) *conversation.Flow {
	return &conversation.Flow{
		Name:  AddLesson,
		Entry: "select_child",
		States: []conversation.State{
			childPickerState(deps, "select_child", presenter.TextAskLessonChild, presenter.PrefixLessonChild, "date"),

			{
				Name: "date",
				Prompt: func(ctx context.Context, s *conversation.Session) (conversation.Reply, error) {
					return conversation.WithKeyboard(presenter.TextAskLessonDate, presenter.DatePicker(timeutil.Now())), nil
				},
				OnChoice: func(ctx context.Context, s *conversation.Session, input string) (conversation.Result, error) {
					iso, ok := cutPrefix(input, presenter.PrefixDate)
					if !ok {
						return conversation.Retry(conversation.Text(presenter.TextUnexpectedInput)), nil
					}
					s.Set(fieldDate, iso)
					return conversation.Advance("start_time"), nil
				},
				OnText: func(ctx context.Context, s *conversation.Session, input string) (conversation.Result, error) {
					iso, _, err := timeutil.ParseUserDate(input, timeutil.Now())
					if err != nil {
						return conversation.Retry(conversation.Text(presenter.TextBadDate)), nil
					}
					s.Set(fieldDate, iso)
					return conversation.Advance("start_time"), nil
				},
			},

			{
				Name: "start_time",
				Prompt: func(ctx context.Context, s *conversation.Session) (conversation.Reply, error) {
					return conversation.Text(presenter.TextAskStartTime), nil
				},
				OnText: func(ctx context.Context, s *conversation.Session, input string) (conversation.Result, error) {
					clock, err := timeutil.ParseUserTime(input)
					if err != nil {
						return conversation.Retry(conversation.Text(presenter.TextBadTime)), nil
					}
					s.Set(fieldStart, clock)
					return conversation.Advance("end_time"), nil
				},
			},

			{
				Name: "end_time",
				Prompt: func(ctx context.Context, s *conversation.Session) (conversation.Reply, error) {
					return conversation.WithKeyboard(presenter.TextAskEndTime, presenter.EndTimePicker(s.Get(fieldStart))), nil
				},
				OnChoice: func(ctx context.Context, s *conversation.Session, input string) (conversation.Result, error) {
					end, ok := cutPrefix(input, presenter.PrefixEndTime)
					if !ok {
						return conversation.Retry(conversation.Text(presenter.TextUnexpectedInput)), nil
					}
					return createLesson(ctx, deps, s, end)
				},
				OnText: func(ctx context.Context, s *conversation.Session, input string) (conversation.Result, error) {
					end, err := timeutil.ParseUserTime(input)
					if err != nil {
						return conversation.Retry(conversation.Text(presenter.TextBadTime)), nil
					}
					return createLesson(ctx, deps, s, end)
				},
			},

			{
				Name: "ask_repeat",
				Prompt: func(ctx context.Context, s *conversation.Session) (conversation.Reply, error) {
					return conversation.WithKeyboard(presenter.TextAskRepeat, presenter.RepeatPicker()), nil
				},
				OnChoice: func(ctx context.Context, s *conversation.Session, input string) (conversation.Result, error) {
					switch input {
					case presenter.DataRepeatNo:
						return conversation.Finish(), nil
					case presenter.DataRepeatYes:
						return conversation.Advance("confirm_repeat"), nil
					default:
						return conversation.Retry(conversation.Text(presenter.TextUnexpectedInput)), nil
					}
				},
			},

			{
				Name: "confirm_repeat",
				Prompt: func(ctx context.Context, s *conversation.Session) (conversation.Reply, error) {
					preview, err := deps.CreateLesson.Preview(ctx, lesson.ID(s.Get(fieldBaseLesson)))
					if err != nil {
						return conversation.Reply{}, err
					}
					dates := make([]string, 0, len(preview.Dates))
					for _, d := range preview.Dates {
						dates = append(dates, d.String())
					}
					return conversation.WithKeyboard(presenter.RecurrencePreview(dates), presenter.ConfirmRepeatKeyboard()), nil
				},
				OnChoice: func(ctx context.Context, s *conversation.Session, input string) (conversation.Result, error) {
					if input != presenter.DataConfirmRepeat {
						return conversation.Retry(conversation.Text(presenter.TextUnexpectedInput)), nil
					}
					return repeatLesson(ctx, deps, s)
				},
			},
		},
	}
}

// createLesson validates the collected span and stores the lesson.
// Дедуплікації немає: повторний прохід з тими самими даними створює ще
// один незалежний запис.
func createLesson(ctx context.Context, deps Deps, s *conversation.Session, end string) (conversation.Result, error) {
	start := s.Get(fieldStart)
	if end <= start {
		return conversation.Retry(conversation.Text(presenter.TextEndNotAfter)), nil
	}
	s.Set(fieldEnd, end)

	result, err := deps.CreateLesson.Handle(ctx, command.CreateLessonCommand{
		OperatorID: s.OperatorID,
		ChildID:    childID(s.Get(fieldChildID)),
		Date:       shared.ISODate(s.Get(fieldDate)),
		StartTime:  shared.ClockTime(start),
		EndTime:    shared.ClockTime(end),
	})
	if err != nil {
		if shared.IsNotFound(err) {
			return conversation.Fail(conversation.Text(presenter.TextChildGone)), nil
		}
		if errors.Is(err, shared.ErrInvalidTimeSpan) {
			return conversation.Retry(conversation.Text(presenter.TextEndNotAfter)), nil
		}
		return conversation.Result{}, err
	}

	deps.invalidate(ctx)
	s.Set(fieldBaseLesson, result.Lesson.ID.String())
	return conversation.Advance("ask_repeat",
		conversation.Text(presenter.LessonCreated(result.ChildName, result.Lesson))), nil
}

// repeatLesson fans the stored lesson out weekly. Partial success is
// reported as-is: copies already inserted stay.
func repeatLesson(ctx context.Context, deps Deps, s *conversation.Session) (conversation.Result, error) {
	baseID := lesson.ID(s.Get(fieldBaseLesson))
	result, err := deps.CreateLesson.HandleRecurrence(ctx, baseID)
	if err != nil {
		return conversation.Result{}, err
	}

	deps.invalidate(ctx)
	planned := make([]string, 0, result.Planned)
	created := make([]string, 0, len(result.Created))
	for _, l := range result.Created {
		created = append(created, l.Date.String())
	}
	if dates, err := timeutil.RecurrenceDates(s.Get(fieldDate)); err == nil {
		planned = dates
	}
	return conversation.Finish(conversation.Text(presenter.RecurrenceSummary(planned, created))), nil
}
