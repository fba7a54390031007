package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lessonhub/lesson-ledger-bot/internal/domain/billing"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/lesson"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/payment"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
	"github.com/lessonhub/lesson-ledger-bot/pkg/timeutil"
)

// Dashboard is the /dashboard view: the current-month report plus income
// breakdowns by day and by child.
type Dashboard struct {
	Report  billing.MonthlyReport
	ByDay   []billing.IncomeLine
	ByChild []billing.IncomeLine
}

// DashboardQuery builds the monthly dashboard.
type DashboardQuery struct {
	childRepo   child.Repository
	lessonRepo  lesson.Repository
	paymentRepo payment.Repository
	operators   []shared.OperatorID
	cache       Cache
	logger      *slog.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewDashboardQuery creates a DashboardQuery. cache may be nil.
func NewDashboardQuery(
	childRepo child.Repository,
	lessonRepo lesson.Repository,
	paymentRepo payment.Repository,
	operators []shared.OperatorID,
	cache Cache,
	logger *slog.Logger,
) *DashboardQuery {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardQuery{
		childRepo:   childRepo,
		lessonRepo:  lessonRepo,
		paymentRepo: paymentRepo,
		operators:   operators,
		cache:       cache,
		logger:      logger.With("component", "dashboard_query"),
		now:         timeutil.Now,
	}
}

// Handle computes the dashboard for the calendar month containing now.
func (q *DashboardQuery) Handle(ctx context.Context) (*Dashboard, error) {
	if q.cache != nil {
		var cached Dashboard
		if err := q.cache.Get(ctx, cacheKeyDashboard, &cached); err == nil {
			return &cached, nil
		}
	}

	children, err := q.childRepo.List(ctx, q.operators, child.ActiveOnly())
	if err != nil {
		return nil, fmt.Errorf("dashboard: list children: %w", err)
	}
	lessons, err := q.lessonRepo.List(ctx, q.operators, lesson.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("dashboard: list lessons: %w", err)
	}
	payments, err := q.paymentRepo.List(ctx, q.operators, payment.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("dashboard: list payments: %w", err)
	}

	window := billing.CurrentMonth(q.now())
	dashboard := &Dashboard{
		Report:  billing.ReportForMonth(window, children, lessons, payments),
		ByDay:   billing.IncomeByDay(window, children, lessons),
		ByChild: billing.IncomeByChild(window, children, lessons),
	}

	if q.cache != nil {
		if err := q.cache.Set(ctx, cacheKeyDashboard, dashboard, reportCacheTTL); err != nil {
			q.logger.Warn("dashboard cache write failed", "error", err)
		}
	}
	return dashboard, nil
}
