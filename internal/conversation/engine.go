package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FLOW DEFINITION
// ══════════════════════════════════════════════════════════════════════════════

// HandlerFunc processes one operator input at one state. It must either
// advance, retry the same state with a validation reason, or terminate
// the flow (finish or fail). Malformed input must never mutate context
// beyond the field being edited.
type HandlerFunc func(ctx context.Context, s *Session, input string) (Result, error)

// PromptFunc renders the question the state asks. It runs on state entry
// and again after every retry.
type PromptFunc func(ctx context.Context, s *Session) (Reply, error)

// State is one step of a flow.
type State struct {
	// Name identifies the state within its flow.
	Name string

	// Prompt renders the state's question.
	Prompt PromptFunc

	// OnText handles free-text input. Nil means text is not accepted at
	// this state and re-prompts.
	OnText HandlerFunc

	// OnChoice handles a discrete choice (button press). Nil means
	// choices are not accepted at this state.
	OnChoice HandlerFunc
}

// Flow is a named ordered set of states.
type Flow struct {
	// Name identifies the flow ("add_lesson", "payment_amount", ...).
	Name string

	// Entry is the name of the initial state.
	Entry string

	// States in declaration order.
	States []State
}

func (f *Flow) state(name string) (State, bool) {
	for _, st := range f.States {
		if st.Name == name {
			return st, true
		}
	}
	return State{}, false
}

// ══════════════════════════════════════════════════════════════════════════════
// STEP RESULTS
// ══════════════════════════════════════════════════════════════════════════════

// Outcome classifies what a handler decided.
type Outcome int

const (
	// OutcomeAdvance moves the session to the Next state.
	OutcomeAdvance Outcome = iota
	// OutcomeRetry re-enters the same state after a validation error.
	OutcomeRetry
	// OutcomeFinish terminates the flow successfully and clears context.
	OutcomeFinish
	// OutcomeFail terminates the flow with an operator-visible error
	// (stale entity, policy violation) and clears context.
	OutcomeFail
)

// Result is a handler's decision plus the replies to render before the
// next prompt.
type Result struct {
	Outcome Outcome
	Next    string
	Replies []Reply
}

// Advance moves to the named state. Replies (if any) are rendered before
// the next state's prompt.
func Advance(next string, replies ...Reply) Result {
	return Result{Outcome: OutcomeAdvance, Next: next, Replies: replies}
}

// Retry keeps the current state; reason is rendered, then the state's
// prompt again.
func Retry(reason Reply) Result {
	return Result{Outcome: OutcomeRetry, Replies: []Reply{reason}}
}

// Finish terminates the flow successfully.
func Finish(replies ...Reply) Result {
	return Result{Outcome: OutcomeFinish, Replies: replies}
}

// Fail terminates the flow with an operator-visible error.
func Fail(replies ...Reply) Result {
	return Result{Outcome: OutcomeFail, Replies: replies}
}

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// CancelData is the reserved callback payload that cancels the active
// flow from any state. The engine checks it before dispatching to state
// handlers, so it wins over any other pattern.
const CancelData = "fsm:cancel"

// Engine errors.
var (
	ErrUnknownFlow    = errors.New("conversation: unknown flow")
	ErrDuplicateFlow  = errors.New("conversation: flow already registered")
	ErrUnknownState   = errors.New("conversation: session is at an unknown state")
	ErrNoActiveFlow   = errors.New("conversation: operator has no active flow")
	ErrInputsRejected = errors.New("conversation: state does not accept this input kind")
)

// Engine drives registered flows over a session store.
type Engine struct {
	store  Store
	flows  map[string]*Flow
	logger *slog.Logger

	// cancelReply is rendered whenever a flow is cancelled.
	cancelReply Reply
}

// NewEngine creates an engine over the given session store.
func NewEngine(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:       store,
		flows:       make(map[string]*Flow),
		logger:      logger.With("component", "conversation"),
		cancelReply: Text("Дію скасовано."),
	}
}

// SetCancelReply overrides the message rendered on cancellation.
func (e *Engine) SetCancelReply(r Reply) {
	e.cancelReply = r
}

// Register adds a flow. Flow names must be unique; every state needs a
// prompt and the entry state must exist.
func (e *Engine) Register(f *Flow) error {
	if _, ok := e.flows[f.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateFlow, f.Name)
	}
	if _, ok := f.state(f.Entry); !ok {
		return fmt.Errorf("conversation: flow %s: entry state %q not defined", f.Name, f.Entry)
	}
	for _, st := range f.States {
		if st.Prompt == nil {
			return fmt.Errorf("conversation: flow %s: state %q has no prompt", f.Name, st.Name)
		}
	}
	e.flows[f.Name] = f
	return nil
}

// Active reports whether the operator has a flow in progress.
func (e *Engine) Active(id shared.OperatorID) bool {
	_, ok := e.store.Get(id)
	return ok
}

// Start enters a flow for the operator, overwriting any session already
// in progress (last-write-wins), and returns the entry prompt.
func (e *Engine) Start(ctx context.Context, flowName string, id shared.OperatorID) ([]Reply, error) {
	flow, ok := e.flows[flowName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFlow, flowName)
	}

	if old, ok := e.store.Get(id); ok {
		e.logger.Debug("replacing active flow",
			"operator_id", id.Int64(),
			"old_flow", old.Flow,
			"new_flow", flowName,
		)
	}

	now := time.Now().UTC()
	session := &Session{
		OperatorID: id,
		Flow:       flow.Name,
		State:      flow.Entry,
		Fields:     make(Fields),
		StartedAt:  now,
		UpdatedAt:  now,
	}

	entry, _ := flow.state(flow.Entry)
	prompt, err := entry.Prompt(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("conversation: flow %s: entry prompt: %w", flowName, err)
	}

	e.store.Put(session)
	return []Reply{prompt}, nil
}

// Cancel aborts the operator's active flow, clearing its context. The
// returned bool is false when no flow was active.
func (e *Engine) Cancel(id shared.OperatorID) ([]Reply, bool) {
	s, ok := e.store.Get(id)
	if !ok {
		return nil, false
	}
	e.store.Delete(id)
	e.logger.Info("flow cancelled",
		"operator_id", id.Int64(),
		"flow", s.Flow,
		"state", s.State,
	)
	return []Reply{e.cancelReply}, true
}

// HandleText dispatches free-text input into the operator's active flow.
// The bool is false when the operator has no active flow, letting the
// router fall through to other handlers.
func (e *Engine) HandleText(ctx context.Context, id shared.OperatorID, text string) ([]Reply, bool, error) {
	return e.dispatch(ctx, id, text, false)
}

// HandleChoice dispatches a discrete choice (callback payload) into the
// operator's active flow. CancelData cancels from any state before any
// handler runs.
func (e *Engine) HandleChoice(ctx context.Context, id shared.OperatorID, data string) ([]Reply, bool, error) {
	if data == CancelData {
		replies, ok := e.Cancel(id)
		return replies, ok, nil
	}
	return e.dispatch(ctx, id, data, true)
}

func (e *Engine) dispatch(ctx context.Context, id shared.OperatorID, input string, choice bool) ([]Reply, bool, error) {
	session, ok := e.store.Get(id)
	if !ok {
		return nil, false, nil
	}

	flow, ok := e.flows[session.Flow]
	if !ok {
		// Session from a flow that is no longer registered; drop it.
		e.store.Delete(id)
		return nil, true, fmt.Errorf("%w: %s", ErrUnknownFlow, session.Flow)
	}
	state, ok := flow.state(session.State)
	if !ok {
		e.store.Delete(id)
		return nil, true, fmt.Errorf("%w: %s/%s", ErrUnknownState, session.Flow, session.State)
	}

	handler := state.OnText
	if choice {
		handler = state.OnChoice
	}
	if handler == nil {
		// Wrong input kind for this state: re-prompt, do not advance.
		prompt, err := state.Prompt(ctx, session)
		if err != nil {
			e.store.Delete(id)
			return nil, true, err
		}
		return []Reply{prompt}, true, nil
	}

	result, err := handler(ctx, session, input)
	if err != nil {
		// Error termination clears context unconditionally.
		e.store.Delete(id)
		e.logger.Error("flow handler failed",
			"operator_id", id.Int64(),
			"flow", session.Flow,
			"state", session.State,
			"error", err,
		)
		return nil, true, err
	}

	switch result.Outcome {
	case OutcomeAdvance:
		next, ok := flow.state(result.Next)
		if !ok {
			e.store.Delete(id)
			return nil, true, fmt.Errorf("%w: %s/%s", ErrUnknownState, session.Flow, result.Next)
		}
		session.State = next.Name
		session.UpdatedAt = time.Now().UTC()
		prompt, err := next.Prompt(ctx, session)
		if err != nil {
			e.store.Delete(id)
			return nil, true, err
		}
		e.store.Put(session)
		return append(result.Replies, prompt), true, nil

	case OutcomeRetry:
		prompt, err := state.Prompt(ctx, session)
		if err != nil {
			e.store.Delete(id)
			return nil, true, err
		}
		e.store.Put(session)
		return append(result.Replies, prompt), true, nil

	case OutcomeFinish:
		e.store.Delete(id)
		e.logger.Info("flow finished",
			"operator_id", id.Int64(),
			"flow", session.Flow,
			"duration", time.Since(session.StartedAt).String(),
		)
		return result.Replies, true, nil

	case OutcomeFail:
		e.store.Delete(id)
		e.logger.Warn("flow terminated with error",
			"operator_id", id.Int64(),
			"flow", session.Flow,
			"state", session.State,
		)
		return result.Replies, true, nil

	default:
		e.store.Delete(id)
		return nil, true, fmt.Errorf("conversation: flow %s: unknown outcome %d", session.Flow, result.Outcome)
	}
}
