package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lessonhub/lesson-ledger-bot/internal/application/query"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/operator"
	"github.com/lessonhub/lesson-ledger-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// BALANCE REMINDER JOB
// ══════════════════════════════════════════════════════════════════════════════

// BalanceReminderConfig configures the weekly reminder.
type BalanceReminderConfig struct {
	// OnlyDebts suppresses the reminder when no child owes lessons.
	OnlyDebts bool
}

// DefaultBalanceReminderConfig returns sensible defaults.
func DefaultBalanceReminderConfig() BalanceReminderConfig {
	return BalanceReminderConfig{OnlyDebts: true}
}

// BalanceReminderJob sends the per-child lesson balance to operators,
// so unpaid lessons do not go unnoticed between sessions.
type BalanceReminderJob struct {
	operators operator.Repository
	balance   *query.BalanceQuery
	sender    Sender
	config    BalanceReminderConfig
	logger    *slog.Logger
}

// NewBalanceReminderJob creates the reminder job.
func NewBalanceReminderJob(
	operators operator.Repository,
	balance *query.BalanceQuery,
	sender Sender,
	config BalanceReminderConfig,
	logger *slog.Logger,
) *BalanceReminderJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &BalanceReminderJob{
		operators: operators,
		balance:   balance,
		sender:    sender,
		config:    config,
		logger:    logger.With("component", "balance_reminder"),
	}
}

// Name returns the job name.
func (j *BalanceReminderJob) Name() string { return "balance_reminder" }

// Description returns a short summary.
func (j *BalanceReminderJob) Description() string {
	return "sends the lesson balance report to every registered operator"
}

// Run builds the balance report and fans it out.
func (j *BalanceReminderJob) Run(ctx context.Context) error {
	report, err := j.balance.Handle(ctx)
	if err != nil {
		return fmt.Errorf("balance reminder: %w", err)
	}
	if len(report.Balances) == 0 {
		j.logger.Info("reminder skipped, no children")
		return nil
	}

	if j.config.OnlyDebts && !hasDebt(report) {
		j.logger.Info("reminder skipped, no debts")
		return nil
	}

	return fanOut(ctx, j.operators, j.sender, j.logger, presenter.Balance(report))
}

func hasDebt(report *query.BalanceReport) bool {
	for _, cb := range report.Balances {
		if cb.Balance < 0 {
			return true
		}
	}
	return false
}
