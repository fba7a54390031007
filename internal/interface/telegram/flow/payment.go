package flow

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/lessonhub/lesson-ledger-bot/internal/application/command"
	"github.com/lessonhub/lesson-ledger-bot/internal/conversation"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
	"github.com/lessonhub/lesson-ledger-bot/internal/interface/telegram/presenter"
	"github.com/lessonhub/lesson-ledger-bot/pkg/timeutil"
)

// newPaymentAmountFlow is the short path (/payment): дитина → сума. The
// lesson count is derived from the child's unit price, the date defaults
// to today and the note stays empty.
func newPaymentAmountFlow(deps Deps) *conversation.Flow {
	return &conversation.Flow{
		Name:  PaymentAmount,
		Entry: "select_child",
		States: []conversation.State{
			childPickerState(deps, "select_child", presenter.TextAskPaymentChild, presenter.PrefixPayChild, "amount"),

			{
				Name: "amount",
				Prompt: func(ctx context.Context, s *conversation.Session) (conversation.Reply, error) {
					return conversation.Text(presenter.TextAskPaymentAmount), nil
				},
				OnText: func(ctx context.Context, s *conversation.Session, input string) (conversation.Result, error) {
					amount, err := parseAmount(input)
					if err != nil {
						return conversation.Retry(conversation.Text(presenter.TextBadAmount)), nil
					}

					count, unitPrice, err := deps.RecordPayment.DeriveFromAmount(ctx, childID(s.Get(fieldChildID)), amount)
					switch {
					case errors.Is(err, shared.ErrPriceNotSet):
						return conversation.Fail(conversation.Text(presenter.TextPriceNotSet)), nil
					case errors.Is(err, shared.ErrAmountNotDivisible):
						return conversation.Retry(conversation.Text(presenter.AmountNotDivisible(unitPrice))), nil
					case shared.IsNotFound(err):
						return conversation.Fail(conversation.Text(presenter.TextChildGone)), nil
					case err != nil:
						return conversation.Result{}, err
					}

					result, err := deps.RecordPayment.Handle(ctx, command.RecordPaymentCommand{
						OperatorID:   s.OperatorID,
						ChildID:      childID(s.Get(fieldChildID)),
						Amount:       amount,
						LessonsCount: count,
						Date:         shared.ISODate(timeutil.Today()),
					})
					if err != nil {
						if shared.IsNotFound(err) {
							return conversation.Fail(conversation.Text(presenter.TextChildGone)), nil
						}
						return conversation.Result{}, err
					}

					deps.invalidate(ctx)
					return conversation.Finish(
						conversation.Text(presenter.PaymentRecorded(result.ChildName, result.Payment))), nil
				},
			},
		},
	}
}

// newPaymentCountFlow is the full wizard (/addpayment): дитина →
// кількість занять → сума → дата → нотатка → підтвердження. It works
// for children without a unit price too.
func newPaymentCountFlow(deps Deps) *conversation.Flow {
	return &conversation.Flow{
		Name:  PaymentCount,
		Entry: "select_child",
		States: []conversation.State{
			childPickerState(deps, "select_child", presenter.TextAskPaymentChild, presenter.PrefixPayChild, "count"),

			{
				Name: "count",
				Prompt: func(ctx context.Context, s *conversation.Session) (conversation.Reply, error) {
					return conversation.Text(presenter.TextAskLessonsCount), nil
				},
				OnText: func(ctx context.Context, s *conversation.Session, input string) (conversation.Result, error) {
					count, err := strconv.Atoi(strings.TrimSpace(input))
					if err != nil || count < 1 {
						return conversation.Retry(conversation.Text(presenter.TextBadLessonsCount)), nil
					}
					s.Set(fieldCount, strconv.Itoa(count))
					return conversation.Advance("amount"), nil
				},
			},

			{
				Name: "amount",
				Prompt: func(ctx context.Context, s *conversation.Session) (conversation.Reply, error) {
					count, _ := strconv.Atoi(s.Get(fieldCount))
					var unitPrice float64
					if c, err := deps.Children.VisibleByID(ctx, childID(s.Get(fieldChildID))); err == nil {
						unitPrice = float64(c.UnitPrice)
					}
					return conversation.Text(presenter.AmountPrompt(count, unitPrice)), nil
				},
				OnText: func(ctx context.Context, s *conversation.Session, input string) (conversation.Result, error) {
					amount, err := parseAmount(input)
					if err != nil {
						return conversation.Retry(conversation.Text(presenter.TextBadAmount)), nil
					}
					s.Set(fieldAmount, strconv.FormatFloat(amount, 'f', -1, 64))
					return conversation.Advance("date"), nil
				},
			},

			{
				Name: "date",
				Prompt: func(ctx context.Context, s *conversation.Session) (conversation.Reply, error) {
					return conversation.WithKeyboard(presenter.TextAskPaymentDate, presenter.DatePicker(timeutil.Now())), nil
				},
				OnChoice: func(ctx context.Context, s *conversation.Session, input string) (conversation.Result, error) {
					iso, ok := cutPrefix(input, presenter.PrefixDate)
					if !ok {
						return conversation.Retry(conversation.Text(presenter.TextUnexpectedInput)), nil
					}
					s.Set(fieldDate, iso)
					return conversation.Advance("note"), nil
				},
				OnText: func(ctx context.Context, s *conversation.Session, input string) (conversation.Result, error) {
					iso, _, err := timeutil.ParseUserDate(input, timeutil.Now())
					if err != nil {
						return conversation.Retry(conversation.Text(presenter.TextBadDate)), nil
					}
					s.Set(fieldDate, iso)
					return conversation.Advance("note"), nil
				},
			},

			{
				Name: "note",
				Prompt: func(ctx context.Context, s *conversation.Session) (conversation.Reply, error) {
					return conversation.WithKeyboard(presenter.TextAskPaymentNote, presenter.NoteSkipKeyboard()), nil
				},
				OnChoice: func(ctx context.Context, s *conversation.Session, input string) (conversation.Result, error) {
					if input != presenter.DataSkipNote {
						return conversation.Retry(conversation.Text(presenter.TextUnexpectedInput)), nil
					}
					s.Set(fieldNote, "")
					return conversation.Advance("confirm"), nil
				},
				OnText: func(ctx context.Context, s *conversation.Session, input string) (conversation.Result, error) {
					s.Set(fieldNote, strings.TrimSpace(input))
					return conversation.Advance("confirm"), nil
				},
			},

			{
				Name: "confirm",
				Prompt: func(ctx context.Context, s *conversation.Session) (conversation.Reply, error) {
					amount, _ := strconv.ParseFloat(s.Get(fieldAmount), 64)
					count, _ := strconv.Atoi(s.Get(fieldCount))
					preview := presenter.PaymentPreview(
						s.Get(fieldChildName), amount, count, s.Get(fieldDate), s.Get(fieldNote))
					return conversation.WithKeyboard(preview, presenter.ConfirmPaymentKeyboard()), nil
				},
				OnChoice: func(ctx context.Context, s *conversation.Session, input string) (conversation.Result, error) {
					if input != presenter.DataConfirmPay {
						return conversation.Retry(conversation.Text(presenter.TextUnexpectedInput)), nil
					}

					amount, _ := strconv.ParseFloat(s.Get(fieldAmount), 64)
					count, _ := strconv.Atoi(s.Get(fieldCount))
					result, err := deps.RecordPayment.Handle(ctx, command.RecordPaymentCommand{
						OperatorID:   s.OperatorID,
						ChildID:      childID(s.Get(fieldChildID)),
						Amount:       amount,
						LessonsCount: count,
						Date:         shared.ISODate(s.Get(fieldDate)),
						Note:         s.Get(fieldNote),
					})
					if err != nil {
						if shared.IsNotFound(err) {
							return conversation.Fail(conversation.Text(presenter.TextChildGone)), nil
						}
						return conversation.Result{}, err
					}

					deps.invalidate(ctx)
					return conversation.Finish(
						conversation.Text(presenter.PaymentRecorded(result.ChildName, result.Payment))), nil
				},
			},
		},
	}
}

// parseAmount accepts "1500", "1500.50" and the comma form "1500,50".
func parseAmount(input string) (float64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(input), ",", ".")
	amount, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, strconv.ErrRange
	}
	return amount, nil
}
