// Package main - воркер фонових розсилок журналу занять.
//
// Процес живе поруч із ботом і виконує заплановані задачі: вечірній
// дайджест розкладу на завтра та щотижневе нагадування про баланси.
// Розклад задається cron-виразами в конфігурації та обчислюється в
// часовому поясі застосунку.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lessonhub/lesson-ledger-bot/config"
	"github.com/lessonhub/lesson-ledger-bot/internal/application/query"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
	tgclient "github.com/lessonhub/lesson-ledger-bot/internal/infrastructure/external/telegram"
	"github.com/lessonhub/lesson-ledger-bot/internal/infrastructure/persistence/postgres"
	"github.com/lessonhub/lesson-ledger-bot/internal/infrastructure/persistence/redis"
	"github.com/lessonhub/lesson-ledger-bot/internal/infrastructure/scheduler"
	"github.com/lessonhub/lesson-ledger-bot/internal/infrastructure/scheduler/jobs"
	"github.com/lessonhub/lesson-ledger-bot/pkg/logger"
)

func main() {
	runOnce := flag.String("run-once", "", "run the named job immediately and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *runOnce); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, runOnce string) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION AND LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	})
	slog.SetDefault(log)

	log.Info("starting lesson ledger worker",
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. STORAGE
	// ─────────────────────────────────────────────────────────────────────────
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	var cache query.Cache
	if !cfg.Redis.Disabled {
		redisCache, err := redis.NewCache(redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Warn("redis unavailable, report caching disabled", "error", err)
		} else {
			defer redisCache.Close()
			cache = redisCache
		}
	}

	childRepo := postgres.NewChildRepository(dbConn)
	lessonRepo := postgres.NewLessonRepository(dbConn)
	paymentRepo := postgres.NewPaymentRepository(dbConn)
	operatorRepo := postgres.NewOperatorRepository(dbConn)

	operators := operatorScope(cfg)
	timetableQuery := query.NewTimetableQuery(lessonRepo, childRepo, operators)
	balanceQuery := query.NewBalanceQuery(childRepo, lessonRepo, paymentRepo, operators, cache, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. TELEGRAM SENDER
	// ─────────────────────────────────────────────────────────────────────────
	client := tgclient.NewClient(tgclient.ClientConfig{
		Token:   cfg.Telegram.Token,
		Timeout: 30 * time.Second,
		Logger:  log,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 4. SCHEDULER AND JOBS
	// ─────────────────────────────────────────────────────────────────────────
	digestCron, err := scheduler.ParseCronExpression(cfg.Scheduler.DigestCron)
	if err != nil {
		return fmt.Errorf("invalid SCHEDULER_DIGEST_CRON: %w", err)
	}
	reminderCron, err := scheduler.ParseCronExpression(cfg.Scheduler.ReminderCron)
	if err != nil {
		return fmt.Errorf("invalid SCHEDULER_REMINDER_CRON: %w", err)
	}

	sched := scheduler.New(log, cfg.App.Location)

	digest := jobs.NewDailyDigestJob(operatorRepo, timetableQuery, client,
		jobs.DailyDigestConfig{SkipEmpty: cfg.Scheduler.DigestSkipEmpty}, log)
	if err := sched.Register(digest, digestCron); err != nil {
		return fmt.Errorf("register digest job: %w", err)
	}

	reminder := jobs.NewBalanceReminderJob(operatorRepo, balanceQuery, client,
		jobs.BalanceReminderConfig{OnlyDebts: cfg.Scheduler.ReminderOnlyDebts}, log)
	if err := sched.Register(reminder, reminderCron); err != nil {
		return fmt.Errorf("register reminder job: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. RUN
	// ─────────────────────────────────────────────────────────────────────────
	if runOnce != "" {
		jobCtx, cancel := context.WithTimeout(ctx, cfg.Scheduler.JobTimeout)
		defer cancel()

		result, err := sched.RunNow(jobCtx, runOnce)
		if err != nil {
			return fmt.Errorf("run job %q: %w", runOnce, err)
		}
		log.Info("job completed", "job", runOnce, "duration", result.Duration)
		return nil
	}

	if !cfg.Scheduler.Enabled {
		return fmt.Errorf("scheduler is disabled; nothing to do")
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	for _, info := range sched.ListJobs() {
		log.Info("job scheduled", "job", info.Name, "schedule", info.Schedule, "next_run", info.NextRun)
	}

	<-ctx.Done()
	log.Info("shutdown signal received")

	if err := sched.Stop(); err != nil {
		log.Warn("scheduler stop failed", "error", err)
	}

	log.Info("worker stopped")
	return nil
}

// operatorScope builds the shared workspace scope from the access lists.
func operatorScope(cfg *config.Config) []shared.OperatorID {
	seen := make(map[int64]bool, len(cfg.Telegram.AllowedOperatorIDs)+len(cfg.Telegram.AdminIDs))
	var ids []shared.OperatorID
	for _, id := range cfg.Telegram.AllowedOperatorIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, shared.OperatorID(id))
		}
	}
	for _, id := range cfg.Telegram.AdminIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, shared.OperatorID(id))
		}
	}
	return ids
}
