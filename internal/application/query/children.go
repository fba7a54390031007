// Package query contains read operations (CQRS - Queries). Every listing
// is scoped to the full allowed-operator set: the allowlist is a team
// membership list and the workspace is shared.
package query

import (
	"context"
	"fmt"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// ChildrenQuery lists and resolves child records.
type ChildrenQuery struct {
	childRepo child.Repository
	operators []shared.OperatorID
}

// NewChildrenQuery creates a ChildrenQuery scoped to the allowed
// operators.
func NewChildrenQuery(childRepo child.Repository, operators []shared.OperatorID) *ChildrenQuery {
	return &ChildrenQuery{childRepo: childRepo, operators: operators}
}

// Visible returns the non-archived children - the set offered in child
// pickers and aggregated by the ledger.
func (q *ChildrenQuery) Visible(ctx context.Context) ([]*child.Child, error) {
	children, err := q.childRepo.List(ctx, q.operators, child.ActiveOnly())
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return children, nil
}

// Archived returns the archived children.
func (q *ChildrenQuery) Archived(ctx context.Context) ([]*child.Child, error) {
	children, err := q.childRepo.List(ctx, q.operators, child.ArchivedOnly())
	if err != nil {
		return nil, fmt.Errorf("list archived children: %w", err)
	}
	return children, nil
}

// ByID resolves one child. A stale or foreign id yields
// shared.ErrChildNotFound, which terminates the calling flow.
func (q *ChildrenQuery) ByID(ctx context.Context, id child.ID) (*child.Child, error) {
	return q.childRepo.GetByID(ctx, id)
}

// VisibleByID resolves one child and additionally requires it to be in
// the currently visible (non-archived) set. Selecting an id outside that
// set is an error, not a silent no-op.
func (q *ChildrenQuery) VisibleByID(ctx context.Context, id child.ID) (*child.Child, error) {
	c, err := q.childRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Archived {
		return nil, shared.ErrChildNotFound
	}
	return c, nil
}
