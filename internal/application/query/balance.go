package query

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/billing"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/lesson"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/payment"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
)

// BalanceReport is the /balance view: per-child reconciliation plus the
// aggregate over/underpay split.
type BalanceReport struct {
	Balances []billing.ChildBalance
	Totals   billing.Totals
}

// BalanceQuery computes the balance report over the shared workspace.
type BalanceQuery struct {
	childRepo   child.Repository
	lessonRepo  lesson.Repository
	paymentRepo payment.Repository
	operators   []shared.OperatorID
	cache       Cache
	logger      *slog.Logger
}

// NewBalanceQuery creates a BalanceQuery. cache may be nil.
func NewBalanceQuery(
	childRepo child.Repository,
	lessonRepo lesson.Repository,
	paymentRepo payment.Repository,
	operators []shared.OperatorID,
	cache Cache,
	logger *slog.Logger,
) *BalanceQuery {
	if logger == nil {
		logger = slog.Default()
	}
	return &BalanceQuery{
		childRepo:   childRepo,
		lessonRepo:  lessonRepo,
		paymentRepo: paymentRepo,
		operators:   operators,
		cache:       cache,
		logger:      logger.With("component", "balance_query"),
	}
}

// Handle loads the visible children with all their lessons and payments
// and runs the ledger.
func (q *BalanceQuery) Handle(ctx context.Context) (*BalanceReport, error) {
	if q.cache != nil {
		var cached BalanceReport
		if err := q.cache.Get(ctx, cacheKeyBalance, &cached); err == nil {
			return &cached, nil
		}
	}

	children, err := q.childRepo.List(ctx, q.operators, child.ActiveOnly())
	if err != nil {
		return nil, fmt.Errorf("balance: list children: %w", err)
	}
	lessons, err := q.lessonRepo.List(ctx, q.operators, lesson.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("balance: list lessons: %w", err)
	}
	payments, err := q.paymentRepo.List(ctx, q.operators, payment.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("balance: list payments: %w", err)
	}

	balances, totals := billing.Balances(children, lessons, payments)
	report := &BalanceReport{Balances: balances, Totals: totals}

	if q.cache != nil {
		if err := q.cache.Set(ctx, cacheKeyBalance, report, reportCacheTTL); err != nil {
			q.logger.Warn("balance cache write failed", "error", err)
		}
	}
	return report, nil
}
