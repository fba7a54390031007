// Package jobs contains the bot's scheduled jobs: the evening timetable
// digest and the weekly balance reminder. Jobs send directly through
// the Telegram client; a failed delivery to one operator never blocks
// the others.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lessonhub/lesson-ledger-bot/internal/application/query"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/operator"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
	tgclient "github.com/lessonhub/lesson-ledger-bot/internal/infrastructure/external/telegram"
	"github.com/lessonhub/lesson-ledger-bot/internal/interface/telegram/presenter"
	"github.com/lessonhub/lesson-ledger-bot/pkg/timeutil"
)

// Sender delivers one HTML message to a chat. *telegram.Client
// implements it.
type Sender interface {
	SendHTML(ctx context.Context, chatID int64, html string) (*tgclient.Message, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// DAILY DIGEST JOB
// ══════════════════════════════════════════════════════════════════════════════

// DailyDigestConfig configures the evening digest.
type DailyDigestConfig struct {
	// SkipEmpty suppresses the digest on days without lessons.
	SkipEmpty bool
}

// DefaultDailyDigestConfig returns sensible defaults.
func DefaultDailyDigestConfig() DailyDigestConfig {
	return DailyDigestConfig{SkipEmpty: true}
}

// DailyDigestJob sends every registered operator tomorrow's timetable.
type DailyDigestJob struct {
	operators operator.Repository
	timetable *query.TimetableQuery
	sender    Sender
	config    DailyDigestConfig
	logger    *slog.Logger
}

// NewDailyDigestJob creates the digest job.
func NewDailyDigestJob(
	operators operator.Repository,
	timetable *query.TimetableQuery,
	sender Sender,
	config DailyDigestConfig,
	logger *slog.Logger,
) *DailyDigestJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &DailyDigestJob{
		operators: operators,
		timetable: timetable,
		sender:    sender,
		config:    config,
		logger:    logger.With("component", "daily_digest"),
	}
}

// Name returns the job name.
func (j *DailyDigestJob) Name() string { return "daily_digest" }

// Description returns a short summary.
func (j *DailyDigestJob) Description() string {
	return "sends tomorrow's timetable to every registered operator"
}

// Run builds tomorrow's timetable once and fans it out. The workspace
// is shared, so every operator receives the same digest.
func (j *DailyDigestJob) Run(ctx context.Context) error {
	tomorrow := timeutil.QuickDates(timeutil.Now())[1]
	entries, err := j.timetable.ForDate(ctx, shared.ISODate(tomorrow))
	if err != nil {
		return fmt.Errorf("daily digest: timetable: %w", err)
	}
	if len(entries) == 0 && j.config.SkipEmpty {
		j.logger.Info("digest skipped, no lessons", "date", tomorrow)
		return nil
	}

	body := "<b>Нагадування на завтра</b>\n" + presenter.Timetable(entries, tomorrow, tomorrow)
	return fanOut(ctx, j.operators, j.sender, j.logger, body)
}

// fanOut sends one message to every registered operator, counting
// failures instead of aborting.
func fanOut(ctx context.Context, operators operator.Repository, sender Sender, logger *slog.Logger, body string) error {
	recipients, err := operators.List(ctx)
	if err != nil {
		return fmt.Errorf("list operators: %w", err)
	}

	var failed int
	for _, op := range recipients {
		if _, err := sender.SendHTML(ctx, op.TelegramID.Int64(), body); err != nil {
			failed++
			logger.Error("digest delivery failed",
				"operator_id", op.TelegramID.Int64(),
				"error", err,
			)
		}
	}

	logger.Info("digest delivered", "recipients", len(recipients)-failed, "failed", failed)
	if failed == len(recipients) && failed > 0 {
		return fmt.Errorf("all %d deliveries failed", failed)
	}
	return nil
}
