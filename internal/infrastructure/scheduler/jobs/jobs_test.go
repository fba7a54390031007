package jobs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lessonhub/lesson-ledger-bot/internal/application/query"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/lesson"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/operator"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/payment"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
	tgclient "github.com/lessonhub/lesson-ledger-bot/internal/infrastructure/external/telegram"
	"github.com/lessonhub/lesson-ledger-bot/pkg/timeutil"
)

const testChildID = child.ID("11111111-1111-1111-1111-111111111111")

// ══════════════════════════════════════════════════════════════════════════════
// FAKES
// ══════════════════════════════════════════════════════════════════════════════

type fakeOperatorRepo struct {
	operators []*operator.Operator
}

func (r *fakeOperatorRepo) Upsert(context.Context, *operator.Operator) error { return nil }

func (r *fakeOperatorRepo) GetByTelegramID(_ context.Context, id shared.OperatorID) (*operator.Operator, error) {
	for _, o := range r.operators {
		if o.TelegramID == id {
			return o, nil
		}
	}
	return nil, shared.ErrOperatorNotFound
}

func (r *fakeOperatorRepo) List(context.Context) ([]*operator.Operator, error) {
	return r.operators, nil
}

type fakeSender struct {
	mu      sync.Mutex
	sent    map[int64][]string
	failFor map[int64]error
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: make(map[int64][]string), failFor: make(map[int64]error)}
}

func (s *fakeSender) SendHTML(_ context.Context, chatID int64, html string) (*tgclient.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failFor[chatID]; err != nil {
		return nil, err
	}
	s.sent[chatID] = append(s.sent[chatID], html)
	return &tgclient.Message{MessageID: 1}, nil
}

type fakeChildRepo struct {
	children []*child.Child
}

func (r *fakeChildRepo) Create(context.Context, *child.Child) error { return nil }
func (r *fakeChildRepo) Update(context.Context, *child.Child) error { return nil }
func (r *fakeChildRepo) Delete(context.Context, child.ID) error     { return nil }

func (r *fakeChildRepo) GetByID(_ context.Context, id child.ID) (*child.Child, error) {
	for _, c := range r.children {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, shared.ErrChildNotFound
}

func (r *fakeChildRepo) List(_ context.Context, _ []shared.OperatorID, filter child.ListFilter) ([]*child.Child, error) {
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
	lessons []*lesson.Lesson
}

func (r *fakeLessonRepo) Create(context.Context, *lesson.Lesson) error { return nil }
func (r *fakeLessonRepo) Update(context.Context, *lesson.Lesson) error { return nil }
func (r *fakeLessonRepo) Delete(context.Context, lesson.ID) error      { return nil }

func (r *fakeLessonRepo) GetByID(context.Context, lesson.ID) (*lesson.Lesson, error) {
	return nil, shared.ErrLessonNotFound
}

func (r *fakeLessonRepo) List(_ context.Context, _ []shared.OperatorID, filter lesson.ListFilter) ([]*lesson.Lesson, error) {
	var out []*lesson.Lesson
	for _, l := range r.lessons {
		if filter.DateFrom != "" && l.Date < filter.DateFrom {
			continue
		}
		if filter.DateTo != "" && l.Date > filter.DateTo {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *fakeLessonRepo) CountByChild(context.Context, child.ID) (int, error) {
	return len(r.lessons), nil
}

type fakePaymentRepo struct {
	payments []*payment.Payment
}

func (r *fakePaymentRepo) Create(context.Context, *payment.Payment) error { return nil }
func (r *fakePaymentRepo) Update(context.Context, *payment.Payment) error { return nil }
func (r *fakePaymentRepo) Delete(context.Context, payment.ID) error       { return nil }

func (r *fakePaymentRepo) GetByID(context.Context, payment.ID) (*payment.Payment, error) {
	return nil, shared.ErrPaymentNotFound
}

func (r *fakePaymentRepo) List(context.Context, []shared.OperatorID, payment.ListFilter) ([]*payment.Payment, error) {
	return r.payments, nil
}

func (r *fakePaymentRepo) CountByChild(context.Context, child.ID) (int, error) {
	return len(r.payments), nil
}

func testChild(name string, price float64) *child.Child {
	return &child.Child{
		ID:         testChildID,
		OperatorID: 100,
		Name:       child.Name(name),
		Age:        9,
		UnitPrice:  child.UnitPrice(price),
	}
}

func lessonOn(date string, completed bool) *lesson.Lesson {
	return &lesson.Lesson{
		ID:         lesson.ID("22222222-2222-2222-2222-222222222222"),
		OperatorID: 100,
		ChildID:    testChildID,
		Date:       shared.ISODate(date),
		StartTime:  "10:00",
		EndTime:    "11:00",
		Completed:  completed,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DAILY DIGEST
// ══════════════════════════════════════════════════════════════════════════════

func TestDailyDigestJob_SendsTomorrowsTimetable(t *testing.T) {
	tomorrow := timeutil.QuickDates(timeutil.Now())[1]

	timetable := query.NewTimetableQuery(
		&fakeLessonRepo{lessons: []*lesson.Lesson{lessonOn(tomorrow, false)}},
		&fakeChildRepo{children: []*child.Child{testChild("Марійка", 300)}},
		[]shared.OperatorID{100},
	)
	operators := &fakeOperatorRepo{operators: []*operator.Operator{
		{TelegramID: 100, FirstSeenAt: time.Now(), LastSeenAt: time.Now()},
		{TelegramID: 200, FirstSeenAt: time.Now(), LastSeenAt: time.Now()},
	}}
	sender := newFakeSender()

	job := NewDailyDigestJob(operators, timetable, sender, DefaultDailyDigestConfig(), nil)
	require.NoError(t, job.Run(context.Background()))

	require.Len(t, sender.sent[100], 1)
	require.Len(t, sender.sent[200], 1)
	assert.Contains(t, sender.sent[100][0], "Нагадування на завтра")
	assert.Contains(t, sender.sent[100][0], "Марійка")
}

func TestDailyDigestJob_SkipsEmptyDay(t *testing.T) {
	timetable := query.NewTimetableQuery(
		&fakeLessonRepo{},
		&fakeChildRepo{},
		[]shared.OperatorID{100},
	)
	operators := &fakeOperatorRepo{operators: []*operator.Operator{{TelegramID: 100}}}
	sender := newFakeSender()

	job := NewDailyDigestJob(operators, timetable, sender, DailyDigestConfig{SkipEmpty: true}, nil)
	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, sender.sent)
}

func TestDailyDigestJob_PartialDeliveryFailure(t *testing.T) {
	tomorrow := timeutil.QuickDates(timeutil.Now())[1]

	timetable := query.NewTimetableQuery(
		&fakeLessonRepo{lessons: []*lesson.Lesson{lessonOn(tomorrow, false)}},
		&fakeChildRepo{children: []*child.Child{testChild("Марійка", 300)}},
		[]shared.OperatorID{100},
	)
	operators := &fakeOperatorRepo{operators: []*operator.Operator{
		{TelegramID: 100},
		{TelegramID: 200},
	}}
	sender := newFakeSender()
	sender.failFor[200] = errors.New("blocked by user")

	job := NewDailyDigestJob(operators, timetable, sender, DefaultDailyDigestConfig(), nil)

	// One delivery out of two succeeded; the run is not a failure.
	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, sender.sent[100], 1)
}

func TestDailyDigestJob_AllDeliveriesFailed(t *testing.T) {
	tomorrow := timeutil.QuickDates(timeutil.Now())[1]

	timetable := query.NewTimetableQuery(
		&fakeLessonRepo{lessons: []*lesson.Lesson{lessonOn(tomorrow, false)}},
		&fakeChildRepo{children: []*child.Child{testChild("Марійка", 300)}},
		[]shared.OperatorID{100},
	)
	operators := &fakeOperatorRepo{operators: []*operator.Operator{{TelegramID: 100}}}
	sender := newFakeSender()
	sender.failFor[100] = errors.New("blocked by user")

	job := NewDailyDigestJob(operators, timetable, sender, DefaultDailyDigestConfig(), nil)
	assert.Error(t, job.Run(context.Background()))
}

// ══════════════════════════════════════════════════════════════════════════════
// BALANCE REMINDER
// ══════════════════════════════════════════════════════════════════════════════

func balanceFixture(t *testing.T, paidLessons int, delivered int) *query.BalanceQuery {
	t.Helper()

	var lessons []*lesson.Lesson
	for i := 0; i < delivered; i++ {
		lessons = append(lessons, lessonOn("2026-09-01", true))
	}

	var payments []*payment.Payment
	if paidLessons > 0 {
		payments = append(payments, &payment.Payment{
			ID:           payment.ID("33333333-3333-3333-3333-333333333333"),
			OperatorID:   100,
			ChildID:      testChildID,
			Amount:       float64(paidLessons) * 300,
			LessonsCount: paidLessons,
			Date:         "2026-09-01",
		})
	}

	return query.NewBalanceQuery(
		&fakeChildRepo{children: []*child.Child{testChild("Марійка", 300)}},
		&fakeLessonRepo{lessons: lessons},
		&fakePaymentRepo{payments: payments},
		[]shared.OperatorID{100},
		nil,
		nil,
	)
}

func TestBalanceReminderJob_SendsWhenInDebt(t *testing.T) {
	balance := balanceFixture(t, 1, 3) // balance -2
	operators := &fakeOperatorRepo{operators: []*operator.Operator{{TelegramID: 100}}}
	sender := newFakeSender()

	job := NewBalanceReminderJob(operators, balance, sender, DefaultBalanceReminderConfig(), nil)
	require.NoError(t, job.Run(context.Background()))

	require.Len(t, sender.sent[100], 1)
	assert.True(t, strings.Contains(sender.sent[100][0], "Марійка"))
}

func TestBalanceReminderJob_SkipsWhenSettled(t *testing.T) {
	balance := balanceFixture(t, 2, 2) // balance 0
	operators := &fakeOperatorRepo{operators: []*operator.Operator{{TelegramID: 100}}}
	sender := newFakeSender()

	job := NewBalanceReminderJob(operators, balance, sender, BalanceReminderConfig{OnlyDebts: true}, nil)
	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, sender.sent)
}

func TestBalanceReminderJob_SendsSettledWhenConfigured(t *testing.T) {
	balance := balanceFixture(t, 2, 2)
	operators := &fakeOperatorRepo{operators: []*operator.Operator{{TelegramID: 100}}}
	sender := newFakeSender()

	job := NewBalanceReminderJob(operators, balance, sender, BalanceReminderConfig{OnlyDebts: false}, nil)
	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, sender.sent[100], 1)
}
