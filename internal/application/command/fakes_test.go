package command

import (
	"context"
	"errors"
	"sync"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/lesson"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/payment"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// In-memory repository fakes shared by the command tests.

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
	if _, ok := r.children[id]; !ok {
		return shared.ErrChildNotFound
	}
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

	// failDates makes Create fail for the given dates, for the
	// partial-success tests.
	failDates map[shared.ISODate]bool
}

func newFakeLessonRepo() *fakeLessonRepo {
	return &fakeLessonRepo{
		lessons:   make(map[lesson.ID]*lesson.Lesson),
		failDates: make(map[shared.ISODate]bool),
	}
}

func (r *fakeLessonRepo) Create(_ context.Context, l *lesson.Lesson) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDates[l.Date] {
		return errors.New("fake: insert failed")
	}
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
	if _, ok := r.lessons[l.ID]; !ok {
		return shared.ErrLessonNotFound
	}
	r.lessons[l.ID] = l
	return nil
}

func (r *fakeLessonRepo) Delete(_ context.Context, id lesson.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lessons, id)
	return nil
}

func (r *fakeLessonRepo) List(_ context.Context, _ []shared.OperatorID, filter lesson.ListFilter) ([]*lesson.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*lesson.Lesson
	for _, l := range r.lessons {
		if filter.ChildID != "" && l.ChildID != filter.ChildID {
			continue
		}
		if filter.DateFrom != "" && l.Date.Before(filter.DateFrom) {
			continue
		}
		if filter.DateTo != "" && l.Date.After(filter.DateTo) {
			continue
		}
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
	if _, ok := r.payments[p.ID]; !ok {
		return shared.ErrPaymentNotFound
	}
	r.payments[p.ID] = p
	return nil
}

func (r *fakePaymentRepo) Delete(_ context.Context, id payment.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.payments, id)
	return nil
}

func (r *fakePaymentRepo) List(_ context.Context, _ []shared.OperatorID, filter payment.ListFilter) ([]*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*payment.Payment
	for _, p := range r.payments {
		if filter.ChildID != "" && p.ChildID != filter.ChildID {
			continue
		}
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

func newTestChild(id child.ID, name string, price float64) *child.Child {
	return &child.Child{
		ID:         id,
		OperatorID: 100,
		Name:       child.Name(name),
		Age:        9,
		UnitPrice:  child.UnitPrice(price),
	}
}
