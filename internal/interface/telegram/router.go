// Package telegram is the bot's transport layer: it polls updates,
// authorizes operators and routes commands, free text and callback
// presses into the conversation engine and the application layer.
package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/lessonhub/lesson-ledger-bot/internal/application/command"
	"github.com/lessonhub/lesson-ledger-bot/internal/application/query"
	"github.com/lessonhub/lesson-ledger-bot/internal/conversation"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/lesson"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
	"github.com/lessonhub/lesson-ledger-bot/internal/interface/telegram/flow"
	"github.com/lessonhub/lesson-ledger-bot/internal/interface/telegram/presenter"
	"github.com/lessonhub/lesson-ledger-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// ══════════════════════════════════════════════════════════════════════════════

// RouterDeps are the application-layer dependencies the router calls.
type RouterDeps struct {
	Engine *conversation.Engine

	Children  *query.ChildrenQuery
	Balance   *query.BalanceQuery
	Dashboard *query.DashboardQuery
	Timetable *query.TimetableQuery

	RegisterOperator *command.RegisterOperatorHandler
	LessonFlags      *command.SetLessonFlagHandler
	Lifecycle        *command.ChildLifecycleHandler

	// Cache is invalidated after timetable and lifecycle writes. May be
	// nil.
	Cache query.Cache

	Logger *slog.Logger
}

// Response is what one routed input produces. Replies become new
// messages; Edit, when set, replaces the message the pressed button was
// attached to; Ack answers the callback query (as an alert when
// AckAlert is set).
type Response struct {
	Replies  []conversation.Reply
	Edit     *conversation.Reply
	Ack      string
	AckAlert bool
}

func text(s string) Response {
	return Response{Replies: []conversation.Reply{conversation.Text(s)}}
}

func replies(rs []conversation.Reply) Response {
	return Response{Replies: rs}
}

// CommandInput is one /command message plus the sender identity needed
// for operator registration.
type CommandInput struct {
	Command string
	Args    string

	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
}

// Router dispatches authorized operator input.
type Router struct {
	deps   RouterDeps
	logger *slog.Logger
}

// NewRouter creates a Router.
func NewRouter(deps RouterDeps) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{deps: deps, logger: logger.With("component", "router")}
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// HandleCommand routes one slash command.
func (r *Router) HandleCommand(ctx context.Context, op shared.OperatorID, in CommandInput) (Response, error) {
	switch in.Command {
	case "start":
		if _, err := r.deps.RegisterOperator.Handle(ctx, command.RegisterOperatorCommand{
			TelegramID: shared.OperatorID(in.TelegramID),
			Username:   in.Username,
			FirstName:  in.FirstName,
			LastName:   in.LastName,
		}); err != nil {
			return Response{}, err
		}
		return text(presenter.TextWelcome), nil

	case "help":
		return text(presenter.TextHelp), nil

	case "cancel":
		if rs, ok := r.deps.Engine.Cancel(op); ok {
			return replies(rs), nil
		}
		return text(presenter.TextNoActiveAction), nil

	case "addlesson":
		return r.startChildFlow(ctx, op, flow.AddLesson)

	case "payment":
		return r.startChildFlow(ctx, op, flow.PaymentAmount)

	case "addpayment":
		return r.startChildFlow(ctx, op, flow.PaymentCount)

	case "timetable":
		return r.timetable(ctx)

	case "balance":
		report, err := r.deps.Balance.Handle(ctx)
		if err != nil {
			return Response{}, err
		}
		return text(presenter.Balance(report)), nil

	case "dashboard":
		d, err := r.deps.Dashboard.Handle(ctx)
		if err != nil {
			return Response{}, err
		}
		return text(presenter.Dashboard(d)), nil

	case "settings":
		return Response{Replies: []conversation.Reply{
			conversation.WithKeyboard(presenter.TextSettingsMenu, presenter.SettingsMenu()),
		}}, nil

	default:
		return text(presenter.TextUnknownCommand), nil
	}
}

// startChildFlow begins a flow whose entry state needs at least one
// visible child. Checking here keeps the operator out of a wizard that
// could only be cancelled.
func (r *Router) startChildFlow(ctx context.Context, op shared.OperatorID, name string) (Response, error) {
	children, err := r.deps.Children.Visible(ctx)
	if err != nil {
		return Response{}, err
	}
	if len(children) == 0 {
		return text(presenter.TextNoChildren), nil
	}
	rs, err := r.deps.Engine.Start(ctx, name, op)
	if err != nil {
		return Response{}, err
	}
	return replies(rs), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// FREE TEXT
// ══════════════════════════════════════════════════════════════════════════════

// HandleText feeds free text into the active flow. Text outside any flow
// gets the generic hint.
func (r *Router) HandleText(ctx context.Context, op shared.OperatorID, input string) (Response, error) {
	rs, handled, err := r.deps.Engine.HandleText(ctx, op, input)
	if err != nil {
		return Response{}, err
	}
	if !handled {
		return text(presenter.TextUnexpectedInput), nil
	}
	return replies(rs), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CALLBACKS
// ══════════════════════════════════════════════════════════════════════════════

// HandleCallback routes one button press. The active flow gets the first
// look (cancellation included); the remaining patterns are the timetable
// toggles and the settings menu, which work without any flow state.
func (r *Router) HandleCallback(ctx context.Context, op shared.OperatorID, data string) (Response, error) {
	rs, handled, err := r.deps.Engine.HandleChoice(ctx, op, data)
	if err != nil {
		return Response{}, err
	}
	if handled {
		return replies(rs), nil
	}

	switch {
	case strings.HasPrefix(data, presenter.PrefixMark):
		return r.toggleLesson(ctx, data, presenter.PrefixMark, command.ActionMarkCompleted)
	case strings.HasPrefix(data, presenter.PrefixUnmark):
		return r.toggleLesson(ctx, data, presenter.PrefixUnmark, command.ActionUnmarkCompleted)
	case strings.HasPrefix(data, presenter.PrefixUncancel):
		return r.toggleLesson(ctx, data, presenter.PrefixUncancel, command.ActionUncancel)
	case strings.HasPrefix(data, presenter.PrefixCancelLesson):
		return r.toggleLesson(ctx, data, presenter.PrefixCancelLesson, command.ActionCancel)

	case data == presenter.DataViewToday, data == presenter.DataViewTomorrow, data == presenter.DataViewWeek:
		return r.switchTimetableView(ctx, data)

	case data == presenter.DataSettingsAdd:
		rs, err := r.deps.Engine.Start(ctx, flow.AddChild, op)
		if err != nil {
			return Response{}, err
		}
		return replies(rs), nil

	case data == presenter.DataSettingsEdit:
		children, err := r.deps.Children.Visible(ctx)
		if err != nil {
			return Response{}, err
		}
		if len(children) == 0 {
			return text(presenter.TextNothingToEdit), nil
		}
		rs, err := r.deps.Engine.Start(ctx, flow.EditChild, op)
		if err != nil {
			return Response{}, err
		}
		return replies(rs), nil

	case data == presenter.DataSettingsArch:
		return r.archiveMenu(ctx)

	case data == presenter.DataSettingsDel:
		return r.deleteMenu(ctx)

	case data == presenter.DataSettingsList:
		active, archived, err := r.allChildren(ctx)
		if err != nil {
			return Response{}, err
		}
		return text(presenter.ChildList(active, archived)), nil

	case strings.HasPrefix(data, presenter.PrefixArchive):
		return r.setArchived(ctx, strings.TrimPrefix(data, presenter.PrefixArchive), true)
	case strings.HasPrefix(data, presenter.PrefixUnarchive):
		return r.setArchived(ctx, strings.TrimPrefix(data, presenter.PrefixUnarchive), false)

	case strings.HasPrefix(data, presenter.PrefixDelete):
		return r.deleteChild(ctx, strings.TrimPrefix(data, presenter.PrefixDelete))

	default:
		// A button from a finished flow or an old message.
		return Response{Ack: presenter.TextStaleButton}, nil
	}
}

// toggleLesson flips one lesson flag and re-renders the week timetable
// in place of the message the button lives on.
func (r *Router) toggleLesson(ctx context.Context, data, prefix string, action command.LessonFlagAction) (Response, error) {
	id := lesson.ID(strings.TrimPrefix(data, prefix))
	if _, err := r.deps.LessonFlags.Handle(ctx, id, action); err != nil {
		if shared.IsNotFound(err) {
			return Response{Ack: presenter.TextStaleButton, AckAlert: true}, nil
		}
		return Response{}, err
	}
	query.InvalidateReports(ctx, r.deps.Cache)

	view, err := r.timetableView(ctx, presenter.DataViewWeek)
	if err != nil {
		return Response{}, err
	}
	return Response{Edit: &view.Replies[0], Ack: presenter.TextUpdated}, nil
}

// switchTimetableView re-renders the timetable message for the chosen
// range.
func (r *Router) switchTimetableView(ctx context.Context, view string) (Response, error) {
	resp, err := r.timetableView(ctx, view)
	if err != nil {
		return Response{}, err
	}
	return Response{Edit: &resp.Replies[0]}, nil
}

// timetable renders the default week view.
func (r *Router) timetable(ctx context.Context) (Response, error) {
	return r.timetableView(ctx, presenter.DataViewWeek)
}

// timetableView renders one of the three ranges with per-lesson toggle
// buttons and the range switcher row.
func (r *Router) timetableView(ctx context.Context, view string) (Response, error) {
	var from, to string
	switch view {
	case presenter.DataViewToday:
		from = timeutil.QuickDates(timeutil.Now())[0]
		to = from
	case presenter.DataViewTomorrow:
		from = timeutil.QuickDates(timeutil.Now())[1]
		to = from
	default:
		from, to = timeutil.WeekRange(timeutil.Now())
	}

	entries, err := r.deps.Timetable.ForRange(ctx, shared.ISODate(from), shared.ISODate(to))
	if err != nil {
		return Response{}, err
	}

	body := presenter.Timetable(entries, from, to)
	return Response{Replies: []conversation.Reply{
		conversation.WithKeyboard(body, timetableKeyboard(entries)),
	}}, nil
}

// timetableKeyboard builds the completed/cancelled toggles, one row per
// lesson, with the data prefix chosen from the lesson's current flags.
// The last row switches the range, so an empty day still has a keyboard.
func timetableKeyboard(entries []query.TimetableEntry) *conversation.Keyboard {
	kb := conversation.NewKeyboard()
	for _, e := range entries {
		markLabel, cancelLabel := presenter.TimetableButtonLabel(e)
		id := e.Lesson.ID.String()

		markData := presenter.PrefixMark + id
		if e.Lesson.Completed {
			markData = presenter.PrefixUnmark + id
		}
		cancelData := presenter.PrefixCancelLesson + id
		if e.Lesson.Cancelled {
			cancelData = presenter.PrefixUncancel + id
		}
		kb.Row(conversation.Btn(markLabel, markData), conversation.Btn(cancelLabel, cancelData))
	}
	kb.Row(presenter.ViewSwitchRow()...)
	return kb
}

// ══════════════════════════════════════════════════════════════════════════════
// SETTINGS ACTIONS
// ══════════════════════════════════════════════════════════════════════════════

func (r *Router) allChildren(ctx context.Context) (active, archived []*child.Child, err error) {
	if active, err = r.deps.Children.Visible(ctx); err != nil {
		return nil, nil, err
	}
	if archived, err = r.deps.Children.Archived(ctx); err != nil {
		return nil, nil, err
	}
	return active, archived, nil
}

func (r *Router) archiveMenu(ctx context.Context) (Response, error) {
	active, archived, err := r.allChildren(ctx)
	if err != nil {
		return Response{}, err
	}
	if len(active) == 0 && len(archived) == 0 {
		return text(presenter.TextNoChildren), nil
	}
	return Response{Replies: []conversation.Reply{
		conversation.WithKeyboard(presenter.TextAskArchive, presenter.ArchiveToggleKeyboard(active, archived)),
	}}, nil
}

// setArchived toggles one child and refreshes the archive menu in place.
func (r *Router) setArchived(ctx context.Context, id string, archived bool) (Response, error) {
	var err error
	if archived {
		_, err = r.deps.Lifecycle.Archive(ctx, child.ID(id))
	} else {
		_, err = r.deps.Lifecycle.Unarchive(ctx, child.ID(id))
	}
	if err != nil {
		if shared.IsNotFound(err) {
			return Response{Ack: presenter.TextStaleButton, AckAlert: true}, nil
		}
		return Response{}, err
	}
	query.InvalidateReports(ctx, r.deps.Cache)

	menu, err := r.archiveMenu(ctx)
	if err != nil {
		return Response{}, err
	}
	return Response{Edit: &menu.Replies[0], Ack: presenter.TextUpdated}, nil
}

func (r *Router) deleteMenu(ctx context.Context) (Response, error) {
	active, archived, err := r.allChildren(ctx)
	if err != nil {
		return Response{}, err
	}
	children := append(active, archived...)
	if len(children) == 0 {
		return text(presenter.TextNoChildren), nil
	}
	return Response{Replies: []conversation.Reply{
		conversation.WithKeyboard(presenter.TextAskDelete, presenter.DeletePicker(children)),
	}}, nil
}

// deleteChild hard-deletes when nothing references the child, otherwise
// points the operator at archiving. Archived children are held to the
// same guard.
func (r *Router) deleteChild(ctx context.Context, id string) (Response, error) {
	_, err := r.deps.Lifecycle.Delete(ctx, child.ID(id))
	switch {
	case errors.Is(err, shared.ErrChildInUse):
		return Response{Ack: presenter.TextChildInUse, AckAlert: true}, nil
	case shared.IsNotFound(err):
		return Response{Ack: presenter.TextStaleButton, AckAlert: true}, nil
	case err != nil:
		return Response{}, err
	}
	query.InvalidateReports(ctx, r.deps.Cache)

	menu, err := r.deleteMenu(ctx)
	if err != nil {
		return Response{}, err
	}
	return Response{Edit: &menu.Replies[0], Ack: presenter.TextChildDeleted}, nil
}
