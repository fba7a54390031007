// Package flow defines the bot's conversational wizards on top of the
// conversation engine: adding lessons, recording payments and managing
// children. Each flow collects validated fields step by step and calls
// the application layer at its terminal state.
package flow

import (
	"context"
	"log/slog"

	"github.com/lessonhub/lesson-ledger-bot/internal/application/command"
	"github.com/lessonhub/lesson-ledger-bot/internal/application/query"
	"github.com/lessonhub/lesson-ledger-bot/internal/conversation"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/interface/telegram/presenter"
)

// Flow names. The router starts them by name.
const (
	AddLesson     = "add_lesson"
	PaymentAmount = "payment_amount"
	PaymentCount  = "payment_count"
	AddChild      = "add_child"
	EditChild     = "edit_child"
)

// Session field keys shared across flows.
const (
	fieldChildID    = "child_id"
	fieldChildName  = "child_name"
	fieldAge        = "age"
	fieldDate       = "date"
	fieldStart      = "start_time"
	fieldEnd        = "end_time"
	fieldBaseLesson = "base_lesson_id"
	fieldAmount     = "amount"
	fieldCount      = "count"
	fieldNote       = "note"
	fieldEditField  = "edit_field"
)

// Deps are the application-layer dependencies the flows call into.
type Deps struct {
	Children      *query.ChildrenQuery
	CreateLesson  *command.CreateLessonHandler
	RecordPayment *command.RecordPaymentHandler
	Lifecycle     *command.ChildLifecycleHandler

	// Cache is invalidated after every successful write. May be nil.
	Cache query.Cache

	Logger *slog.Logger
}

// Register adds every wizard to the engine.
func Register(engine *conversation.Engine, deps Deps) error {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	for _, f := range []*conversation.Flow{
		newAddLessonFlow(deps),
		newPaymentAmountFlow(deps),
		newPaymentCountFlow(deps),
		newAddChildFlow(deps),
		newEditChildFlow(deps),
	} {
		if err := engine.Register(f); err != nil {
			return err
		}
	}
	return nil
}

// invalidate drops cached reports after a successful write.
func (d Deps) invalidate(ctx context.Context) {
	query.InvalidateReports(ctx, d.Cache)
}

// childPickerState builds the shared "select a child" entry state. The
// child list re-renders on every retry, so a child archived mid-flow
// simply disappears from the keyboard.
func childPickerState(deps Deps, name, promptText, dataPrefix, next string) conversation.State {
	return conversation.State{
		Name: name,
		Prompt: func(ctx context.Context, s *conversation.Session) (conversation.Reply, error) {
			children, err := deps.Children.Visible(ctx)
			if err != nil {
				return conversation.Reply{}, err
			}
			if len(children) == 0 {
				return conversation.Text(presenter.TextNoChildren), nil
			}
			return conversation.WithKeyboard(promptText, presenter.ChildPicker(children, dataPrefix)), nil
		},
		OnChoice: func(ctx context.Context, s *conversation.Session, input string) (conversation.Result, error) {
			id, ok := cutPrefix(input, dataPrefix)
			if !ok {
				return conversation.Retry(conversation.Text(presenter.TextUnexpectedInput)), nil
			}
			c, err := deps.Children.VisibleByID(ctx, childID(id))
			if err != nil {
				return conversation.Retry(conversation.Text(presenter.TextChildGone)), nil
			}
			s.Set(fieldChildID, c.ID.String())
			s.Set(fieldChildName, c.Name.String())
			return conversation.Advance(next), nil
		},
	}
}

func cutPrefix(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):], true
	}
	return "", false
}

func childID(s string) child.ID {
	return child.ID(s)
}
