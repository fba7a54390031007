package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/lesson"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// TimetableEntry is one lesson with its child's name resolved.
type TimetableEntry struct {
	Lesson    *lesson.Lesson
	ChildName string
}

// TimetableQuery lists lessons for a date window, chronologically.
type TimetableQuery struct {
	lessonRepo lesson.Repository
	childRepo  child.Repository
	operators  []shared.OperatorID
}

// NewTimetableQuery creates a TimetableQuery.
func NewTimetableQuery(lessonRepo lesson.Repository, childRepo child.Repository, operators []shared.OperatorID) *TimetableQuery {
	return &TimetableQuery{
		lessonRepo: lessonRepo,
		childRepo:  childRepo,
		operators:  operators,
	}
}

// ForRange returns the lessons in the inclusive [from, to] window,
// sorted by (date, start time). Names of archived children still
// resolve: the timetable shows history as it was.
func (q *TimetableQuery) ForRange(ctx context.Context, from, to shared.ISODate) ([]TimetableEntry, error) {
	lessons, err := q.lessonRepo.List(ctx, q.operators, lesson.ForRange(from, to))
	if err != nil {
		return nil, fmt.Errorf("timetable: list lessons: %w", err)
	}

	children, err := q.childRepo.List(ctx, q.operators, child.All())
	if err != nil {
		return nil, fmt.Errorf("timetable: list children: %w", err)
	}
	names := make(map[child.ID]string, len(children))
	for _, c := range children {
		names[c.ID] = c.Name.String()
	}

	entries := make([]TimetableEntry, 0, len(lessons))
	for _, l := range lessons {
		name, ok := names[l.ChildID]
		if !ok {
			name = "?"
		}
		entries = append(entries, TimetableEntry{Lesson: l, ChildName: name})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Lesson, entries[j].Lesson
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		return string(a.StartTime) < string(b.StartTime)
	})
	return entries, nil
}

// ForDate returns the lessons of one calendar day.
func (q *TimetableQuery) ForDate(ctx context.Context, date shared.ISODate) ([]TimetableEntry, error) {
	return q.ForRange(ctx, date, date)
}
