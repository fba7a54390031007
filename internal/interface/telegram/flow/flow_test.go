package flow

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonhub/lesson-ledger-bot/internal/application/command"
	"github.com/lessonhub/lesson-ledger-bot/internal/application/query"
	"github.com/lessonhub/lesson-ledger-bot/internal/conversation"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/lesson"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/payment"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
	"github.com/lessonhub/lesson-ledger-bot/internal/interface/telegram/presenter"
)

const (
	testChildID  = child.ID("11111111-1111-1111-1111-111111111111")
	testOperator = shared.OperatorID(100)
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKES AND FIXTURE
// ══════════════════════════════════════════════════════════════════════════════

type fakeChildRepo struct {
	mu       sync.Mutex
	children map[child.ID]*child.Child
}

func newFakeChildRepo(children ...*child.Child) *fakeChildRepo {
	r := &fakeChildRepo{children: make(map[child.ID]*child.Child)}
	for _, c := range children {
		r.children[c.ID] = c
	}
	return r
}

func (r *fakeChildRepo) Create(_ context.Context, c *child.Child) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.children[c.ID] = c
	return nil
}

func (r *fakeChildRepo) GetByID(_ context.Context, id child.ID) (*child.Child, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.children[id]
	if !ok {
		return nil, shared.ErrChildNotFound
	}
	return c, nil
}

func (r *fakeChildRepo) Update(_ context.Context, c *child.Child) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.children[c.ID]; !ok {
		return shared.ErrChildNotFound
	}
	r.children[c.ID] = c
	return nil
}

func (r *fakeChildRepo) Delete(_ context.Context, id child.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.children, id)
	return nil
}

func (r *fakeChildRepo) List(_ context.Context, _ []shared.OperatorID, filter child.ListFilter) ([]*child.Child, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*child.Child
	for _, c := range r.children {
		if filter.Archived != nil && c.Archived != *filter.Archived {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeChildRepo) Count(ctx context.Context, operators []shared.OperatorID, filter child.ListFilter) (int, error) {
	children, err := r.List(ctx, operators, filter)
	return len(children), err
}

type fakeLessonRepo struct {
	mu      sync.Mutex
	lessons map[lesson.ID]*lesson.Lesson
}

func newFakeLessonRepo() *fakeLessonRepo {
	return &fakeLessonRepo{lessons: make(map[lesson.ID]*lesson.Lesson)}
}

func (r *fakeLessonRepo) Create(_ context.Context, l *lesson.Lesson) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lessons[l.ID] = l
	return nil
}

func (r *fakeLessonRepo) GetByID(_ context.Context, id lesson.ID) (*lesson.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lessons[id]
	if !ok {
		return nil, shared.ErrLessonNotFound
	}
	return l, nil
}

func (r *fakeLessonRepo) Update(_ context.Context, l *lesson.Lesson) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lessons[l.ID] = l
	return nil
}

func (r *fakeLessonRepo) Delete(_ context.Context, id lesson.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lessons, id)
	return nil
}

func (r *fakeLessonRepo) List(context.Context, []shared.OperatorID, lesson.ListFilter) ([]*lesson.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*lesson.Lesson
	for _, l := range r.lessons {
		out = append(out, l)
	}
	return out, nil
}

func (r *fakeLessonRepo) CountByChild(_ context.Context, childID child.ID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.lessons {
		if l.ChildID == childID {
			n++
		}
	}
	return n, nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[payment.ID]*payment.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[payment.ID]*payment.Payment)}
}

func (r *fakePaymentRepo) Create(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.ID] = p
	return nil
}

func (r *fakePaymentRepo) GetByID(_ context.Context, id payment.ID) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, shared.ErrPaymentNotFound
	}
	return p, nil
}

func (r *fakePaymentRepo) Update(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.ID] = p
	return nil
}

func (r *fakePaymentRepo) Delete(_ context.Context, id payment.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.payments, id)
	return nil
}

func (r *fakePaymentRepo) List(context.Context, []shared.OperatorID, payment.ListFilter) ([]*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*payment.Payment
	for _, p := range r.payments {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePaymentRepo) CountByChild(_ context.Context, childID child.ID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.payments {
		if p.ChildID == childID {
			n++
		}
	}
	return n, nil
}

type env struct {
	engine   *conversation.Engine
	children *fakeChildRepo
	lessons  *fakeLessonRepo
	payments *fakePaymentRepo
}

func newEnv(t *testing.T, children ...*child.Child) *env {
	t.Helper()

	childRepo := newFakeChildRepo(children...)
	lessonRepo := newFakeLessonRepo()
	paymentRepo := newFakePaymentRepo()

	engine := conversation.NewEngine(conversation.NewMemoryStore(), nil)
	err := Register(engine, Deps{
		Children:      query.NewChildrenQuery(childRepo, []shared.OperatorID{testOperator}),
		CreateLesson:  command.NewCreateLessonHandler(lessonRepo, childRepo, nil),
		RecordPayment: command.NewRecordPaymentHandler(paymentRepo, childRepo, nil),
		Lifecycle:     command.NewChildLifecycleHandler(childRepo, lessonRepo, paymentRepo, nil),
	})
	require.NoError(t, err)

	return &env{engine: engine, children: childRepo, lessons: lessonRepo, payments: paymentRepo}
}

func testChild(price float64) *child.Child {
	return &child.Child{
		ID:         testChildID,
		OperatorID: testOperator,
		Name:       "Марійка",
		Age:        9,
		UnitPrice:  child.UnitPrice(price),
	}
}

func (e *env) choose(t *testing.T, data string) []conversation.Reply {
	t.Helper()
	replies, handled, err := e.engine.HandleChoice(context.Background(), testOperator, data)
	require.NoError(t, err)
	require.True(t, handled)
	return replies
}

func (e *env) text(t *testing.T, input string) []conversation.Reply {
	t.Helper()
	replies, handled, err := e.engine.HandleText(context.Background(), testOperator, input)
	require.NoError(t, err)
	require.True(t, handled)
	return replies
}

func joined(replies []conversation.Reply) string {
	var b strings.Builder
	for _, r := range replies {
		b.WriteString(r.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// ══════════════════════════════════════════════════════════════════════════════
// ADD LESSON
// ══════════════════════════════════════════════════════════════════════════════

func TestAddLessonFlow_HappyPath(t *testing.T) {
	e := newEnv(t, testChild(300))

	replies, err := e.engine.Start(context.Background(), AddLesson, testOperator)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, presenter.TextAskLessonChild, replies[0].Text)
	assert.False(t, replies[0].Keyboard.IsEmpty())

	e.choose(t, presenter.PrefixLessonChild+testChildID.String())
	e.choose(t, presenter.PrefixDate+"2026-09-07")
	e.text(t, "10:00")

	replies = e.text(t, "11:00")
	out := joined(replies)
	assert.Contains(t, out, "Марійка")
	assert.Contains(t, out, presenter.TextAskRepeat)

	e.choose(t, presenter.DataRepeatNo)
	assert.False(t, e.engine.Active(testOperator))

	n, _ := e.lessons.CountByChild(context.Background(), testChildID)
	assert.Equal(t, 1, n)
}

func TestAddLessonFlow_EndBeforeStartRetries(t *testing.T) {
	e := newEnv(t, testChild(300))

	_, err := e.engine.Start(context.Background(), AddLesson, testOperator)
	require.NoError(t, err)
	e.choose(t, presenter.PrefixLessonChild+testChildID.String())
	e.choose(t, presenter.PrefixDate+"2026-09-07")
	e.text(t, "10:00")

	// Equal end time is rejected; the state re-prompts.
	replies := e.text(t, "10:00")
	assert.Contains(t, joined(replies), presenter.TextEndNotAfter)
	assert.True(t, e.engine.Active(testOperator))

	n, _ := e.lessons.CountByChild(context.Background(), testChildID)
	assert.Equal(t, 0, n)

	e.text(t, "11:00")
	n, _ = e.lessons.CountByChild(context.Background(), testChildID)
	assert.Equal(t, 1, n)
}

func TestAddLessonFlow_WeeklyRepeat(t *testing.T) {
	e := newEnv(t, testChild(300))

	_, err := e.engine.Start(context.Background(), AddLesson, testOperator)
	require.NoError(t, err)
	e.choose(t, presenter.PrefixLessonChild+testChildID.String())
	e.choose(t, presenter.PrefixDate+"2026-09-07")
	e.text(t, "10:00")
	e.text(t, "11:00")

	// "Yes" only shows the preview; nothing is inserted yet.
	replies := e.choose(t, presenter.DataRepeatYes)
	out := joined(replies)
	assert.Contains(t, out, "14.09.2026 (понеділок)")
	assert.Contains(t, out, "05.10.2026")
	assert.Contains(t, out, "Підтвердити")
	assert.True(t, e.engine.Active(testOperator))

	n, _ := e.lessons.CountByChild(context.Background(), testChildID)
	assert.Equal(t, 1, n)

	replies = e.choose(t, presenter.DataConfirmRepeat)
	assert.Contains(t, joined(replies), "14.09.2026 (понеділок)")
	assert.False(t, e.engine.Active(testOperator))

	// Base lesson plus four weekly copies.
	n, _ = e.lessons.CountByChild(context.Background(), testChildID)
	assert.Equal(t, 5, n)
}

func TestAddLessonFlow_BadDateRetries(t *testing.T) {
	e := newEnv(t, testChild(300))

	_, err := e.engine.Start(context.Background(), AddLesson, testOperator)
	require.NoError(t, err)
	e.choose(t, presenter.PrefixLessonChild+testChildID.String())

	replies := e.text(t, "31.02")
	assert.Contains(t, joined(replies), presenter.TextBadDate)
	assert.True(t, e.engine.Active(testOperator))
}

// ══════════════════════════════════════════════════════════════════════════════
// PAYMENTS
// ══════════════════════════════════════════════════════════════════════════════

func TestPaymentAmountFlow_DerivesCount(t *testing.T) {
	e := newEnv(t, testChild(300))

	_, err := e.engine.Start(context.Background(), PaymentAmount, testOperator)
	require.NoError(t, err)
	e.choose(t, presenter.PrefixPayChild+testChildID.String())

	replies := e.text(t, "1500")
	assert.Contains(t, joined(replies), "Марійка")
	assert.False(t, e.engine.Active(testOperator))

	stored, err := e.payments.List(context.Background(), nil, payment.ListFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 5, stored[0].LessonsCount)
	assert.Equal(t, 1500.0, stored[0].Amount)
	assert.Empty(t, stored[0].Note)
}

func TestPaymentAmountFlow_NotDivisibleRetries(t *testing.T) {
	e := newEnv(t, testChild(300))

	_, err := e.engine.Start(context.Background(), PaymentAmount, testOperator)
	require.NoError(t, err)
	e.choose(t, presenter.PrefixPayChild+testChildID.String())

	replies := e.text(t, "1600")
	assert.Contains(t, joined(replies), "300")
	assert.True(t, e.engine.Active(testOperator))

	stored, _ := e.payments.List(context.Background(), nil, payment.ListFilter{})
	assert.Empty(t, stored)

	// A divisible amount still completes the same session.
	e.text(t, "1500")
	assert.False(t, e.engine.Active(testOperator))
}

func TestPaymentAmountFlow_PriceNotSetFails(t *testing.T) {
	e := newEnv(t, testChild(0))

	_, err := e.engine.Start(context.Background(), PaymentAmount, testOperator)
	require.NoError(t, err)
	e.choose(t, presenter.PrefixPayChild+testChildID.String())

	replies := e.text(t, "1500")
	assert.Contains(t, joined(replies), presenter.TextPriceNotSet)
	assert.False(t, e.engine.Active(testOperator))
}

func TestPaymentCountFlow_FullWizard(t *testing.T) {
	e := newEnv(t, testChild(300))

	_, err := e.engine.Start(context.Background(), PaymentCount, testOperator)
	require.NoError(t, err)
	e.choose(t, presenter.PrefixPayChild+testChildID.String())

	// The amount prompt suggests count × unit price.
	replies := e.text(t, "3")
	assert.Contains(t, joined(replies), "900")

	e.text(t, "850") // any positive amount, not necessarily the suggestion
	e.choose(t, presenter.PrefixDate+"2026-09-07")
	e.text(t, "аванс за вересень")

	replies = e.choose(t, presenter.DataConfirmPay)
	assert.Contains(t, joined(replies), "Марійка")
	assert.False(t, e.engine.Active(testOperator))

	stored, _ := e.payments.List(context.Background(), nil, payment.ListFilter{})
	require.Len(t, stored, 1)
	assert.Equal(t, 3, stored[0].LessonsCount)
	assert.Equal(t, 850.0, stored[0].Amount)
	assert.Equal(t, shared.ISODate("2026-09-07"), stored[0].Date)
	assert.Equal(t, "аванс за вересень", stored[0].Note)
}

func TestPaymentCountFlow_SkipNote(t *testing.T) {
	e := newEnv(t, testChild(0)) // works without a unit price

	_, err := e.engine.Start(context.Background(), PaymentCount, testOperator)
	require.NoError(t, err)
	e.choose(t, presenter.PrefixPayChild+testChildID.String())
	e.text(t, "2")
	e.text(t, "700")
	e.choose(t, presenter.PrefixDate+"2026-09-07")
	e.choose(t, presenter.DataSkipNote)
	e.choose(t, presenter.DataConfirmPay)

	stored, _ := e.payments.List(context.Background(), nil, payment.ListFilter{})
	require.Len(t, stored, 1)
	assert.Empty(t, stored[0].Note)
}

// ══════════════════════════════════════════════════════════════════════════════
// CHILD MANAGEMENT
// ══════════════════════════════════════════════════════════════════════════════

func TestAddChildFlow(t *testing.T) {
	e := newEnv(t)

	_, err := e.engine.Start(context.Background(), AddChild, testOperator)
	require.NoError(t, err)

	e.text(t, "Олесь")
	e.text(t, "7")
	replies := e.text(t, "350")
	assert.Contains(t, joined(replies), "Олесь")
	assert.False(t, e.engine.Active(testOperator))

	n, _ := e.children.Count(context.Background(), nil, child.All())
	assert.Equal(t, 1, n)
}

func TestAddChildFlow_InvalidAgeRetries(t *testing.T) {
	e := newEnv(t)

	_, err := e.engine.Start(context.Background(), AddChild, testOperator)
	require.NoError(t, err)
	e.text(t, "Олесь")

	replies := e.text(t, "сім")
	assert.Contains(t, joined(replies), presenter.TextBadChildAge)
	assert.True(t, e.engine.Active(testOperator))
}

func TestEditChildFlow_ChangesPrice(t *testing.T) {
	e := newEnv(t, testChild(300))

	_, err := e.engine.Start(context.Background(), EditChild, testOperator)
	require.NoError(t, err)
	e.choose(t, presenter.PrefixEditChild+testChildID.String())
	e.choose(t, presenter.PrefixEditField+"price")
	e.text(t, "400")

	assert.False(t, e.engine.Active(testOperator))
	updated, err := e.children.GetByID(context.Background(), testChildID)
	require.NoError(t, err)
	assert.Equal(t, child.UnitPrice(400), updated.UnitPrice)
}

// ══════════════════════════════════════════════════════════════════════════════
// CANCELLATION AND WRONG INPUT
// ══════════════════════════════════════════════════════════════════════════════

func TestCancelMidFlow(t *testing.T) {
	e := newEnv(t, testChild(300))

	_, err := e.engine.Start(context.Background(), AddLesson, testOperator)
	require.NoError(t, err)
	e.choose(t, presenter.PrefixLessonChild+testChildID.String())

	replies := e.choose(t, conversation.CancelData)
	assert.NotEmpty(t, replies)
	assert.False(t, e.engine.Active(testOperator))

	n, _ := e.lessons.CountByChild(context.Background(), testChildID)
	assert.Equal(t, 0, n)
}

func TestWrongInputKindReprompts(t *testing.T) {
	e := newEnv(t, testChild(300))

	_, err := e.engine.Start(context.Background(), AddLesson, testOperator)
	require.NoError(t, err)

	// The child picker only accepts choices; free text re-prompts.
	replies := e.text(t, "Марійка")
	assert.Contains(t, joined(replies), presenter.TextAskLessonChild)
	assert.True(t, e.engine.Active(testOperator))
}

func TestStaleChildSelectionRetries(t *testing.T) {
	e := newEnv(t, testChild(300))

	_, err := e.engine.Start(context.Background(), AddLesson, testOperator)
	require.NoError(t, err)

	replies := e.choose(t, presenter.PrefixLessonChild+"99999999-9999-9999-9999-999999999999")
	assert.Contains(t, joined(replies), presenter.TextChildGone)
	assert.True(t, e.engine.Active(testOperator))
}
