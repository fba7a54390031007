package flow

import (
	"context"
	"strconv"
	"strings"

	"github.com/lessonhub/lesson-ledger-bot/internal/application/command"
	"github.com/lessonhub/lesson-ledger-bot/internal/conversation"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
	"github.com/lessonhub/lesson-ledger-bot/internal/interface/telegram/presenter"
)

// newAddChildFlow collects ім'я → вік → вартість and creates the record.
// A zero price is accepted and means "ціну не задано": the amount-first
// payment path will refuse such children until a price is set.
func newAddChildFlow(deps Deps) *conversation.Flow {
	return &conversation.Flow{
		Name:  AddChild,
		Entry: "name",
		States: []conversation.State{
			{
				Name: "name",
				Prompt: func(ctx context.Context, s *conversation.Session) (conversation.Reply, error) {
					return conversation.Text(presenter.TextAskChildName), nil
				},
				OnText: func(ctx context.Context, s *conversation.Session, input string) (conversation.Result, error) {
					name := strings.TrimSpace(input)
					if !child.Name(name).IsValid() {
						return conversation.Retry(conversation.Text(presenter.TextBadChildName)), nil
					}
					s.Set(fieldChildName, name)
					return conversation.Advance("age"), nil
				},
			},

			{
				Name: "age",
				Prompt: func(ctx context.Context, s *conversation.Session) (conversation.Reply, error) {
					return conversation.Text(presenter.TextAskChildAge), nil
				},
				OnText: func(ctx context.Context, s *conversation.Session, input string) (conversation.Result, error) {
					age, err := strconv.Atoi(strings.TrimSpace(input))
					if err != nil || !child.Age(age).IsValid() {
						return conversation.Retry(conversation.Text(presenter.TextBadChildAge)), nil
					}
					s.Set(fieldAge, strconv.Itoa(age))
					return conversation.Advance("price"), nil
				},
			},

			{
				Name: "price",
				Prompt: func(ctx context.Context, s *conversation.Session) (conversation.Reply, error) {
					return conversation.Text(presenter.TextAskChildPrice), nil
				},
				OnText: func(ctx context.Context, s *conversation.Session, input string) (conversation.Result, error) {
					price, err := parsePrice(input)
					if err != nil {
						return conversation.Retry(conversation.Text(presenter.TextBadChildPrice)), nil
					}

					age, _ := strconv.Atoi(s.Get(fieldAge))
					created, err := deps.Lifecycle.Create(ctx, command.CreateChildCommand{
						OperatorID: s.OperatorID,
						Name:       child.Name(s.Get(fieldChildName)),
						Age:        child.Age(age),
						UnitPrice:  child.UnitPrice(price),
					})
					if err != nil {
						return conversation.Result{}, err
					}

					deps.invalidate(ctx)
					return conversation.Finish(conversation.Text(presenter.ChildSaved(created))), nil
				},
			},
		},
	}
}

// newEditChildFlow edits one attribute: дитина → поле → нове значення.
func newEditChildFlow(deps Deps) *conversation.Flow {
	return &conversation.Flow{
		Name:  EditChild,
		Entry: "select_child",
		States: []conversation.State{
			childPickerState(deps, "select_child", presenter.TextAskEditChild, presenter.PrefixEditChild, "field"),

			{
				Name: "field",
				Prompt: func(ctx context.Context, s *conversation.Session) (conversation.Reply, error) {
					return conversation.WithKeyboard(presenter.TextAskEditField, presenter.FieldPicker()), nil
				},
				OnChoice: func(ctx context.Context, s *conversation.Session, input string) (conversation.Result, error) {
					field, ok := cutPrefix(input, presenter.PrefixEditField)
					if !ok || !validEditField(field) {
						return conversation.Retry(conversation.Text(presenter.TextUnexpectedInput)), nil
					}
					s.Set(fieldEditField, field)
					return conversation.Advance("value"), nil
				},
			},

			{
				Name: "value",
				Prompt: func(ctx context.Context, s *conversation.Session) (conversation.Reply, error) {
					return conversation.Text(presenter.TextAskNewValue), nil
				},
				OnText: func(ctx context.Context, s *conversation.Session, input string) (conversation.Result, error) {
					field := command.EditChildField(s.Get(fieldEditField))
					value := strings.TrimSpace(input)

					updated, err := deps.Lifecycle.Edit(ctx, childID(s.Get(fieldChildID)), field, value)
					if err != nil {
						if shared.IsNotFound(err) {
							return conversation.Fail(conversation.Text(presenter.TextChildGone)), nil
						}
						if shared.IsValidation(err) {
							return conversation.Retry(conversation.Text(editFieldError(field))), nil
						}
						return conversation.Result{}, err
					}

					deps.invalidate(ctx)
					return conversation.Finish(conversation.Text(presenter.ChildSaved(updated))), nil
				},
			},
		},
	}
}

func validEditField(field string) bool {
	switch command.EditChildField(field) {
	case command.EditName, command.EditAge, command.EditPrice:
		return true
	}
	return false
}

func editFieldError(field command.EditChildField) string {
	switch field {
	case command.EditAge:
		return presenter.TextBadChildAge
	case command.EditPrice:
		return presenter.TextBadChildPrice
	default:
		return presenter.TextBadChildName
	}
}

// parsePrice accepts a non-negative number with a dot or comma decimal.
func parsePrice(input string) (float64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(input), ",", ".")
	price, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, err
	}
	if price < 0 {
		return 0, strconv.ErrRange
	}
	return price, nil
}
