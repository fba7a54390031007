// Package main - точка входу Telegram-бота обліку занять та оплат.
//
// Бот веде спільний журнал репетитора: діти, заняття, оплати та баланс.
// Уся взаємодія йде через приватні чати з операторами зі списку доступу.
//
// Шари застосунку:
// - Domain: бізнес-правила журналу без зовнішніх залежностей
// - Application: команди та запити (CQRS)
// - Infrastructure: PostgreSQL, Redis, Telegram Bot API
// - Interface: маршрутизація апдейтів, діалогові сценарії, HTTP-проби
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lessonhub/lesson-ledger-bot/config"
	"github.com/lessonhub/lesson-ledger-bot/internal/application/command"
	"github.com/lessonhub/lesson-ledger-bot/internal/application/query"
	"github.com/lessonhub/lesson-ledger-bot/internal/conversation"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
	tgclient "github.com/lessonhub/lesson-ledger-bot/internal/infrastructure/external/telegram"
	"github.com/lessonhub/lesson-ledger-bot/internal/infrastructure/persistence/postgres"
	"github.com/lessonhub/lesson-ledger-bot/internal/infrastructure/persistence/redis"
	httpserver "github.com/lessonhub/lesson-ledger-bot/internal/interface/http"
	"github.com/lessonhub/lesson-ledger-bot/internal/interface/telegram"
	"github.com/lessonhub/lesson-ledger-bot/internal/interface/telegram/flow"
	"github.com/lessonhub/lesson-ledger-bot/internal/interface/telegram/middleware"
	"github.com/lessonhub/lesson-ledger-bot/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION AND LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Level:     cfg.Observability.LogLevel,
		Format:    cfg.Observability.LogFormat,
		AddSource: cfg.App.Debug,
	})
	slog.SetDefault(log)

	log.Info("starting lesson ledger bot",
		"version", cfg.App.Version,
		"env", cfg.App.Environment,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. DATABASE
	// ─────────────────────────────────────────────────────────────────────────
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()
	log.Info("database connection established")

	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("migrations completed")

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (optional report cache)
	// ─────────────────────────────────────────────────────────────────────────
	var cache query.Cache
	var redisCache *redis.Cache

	if !cfg.Redis.Disabled {
		redisCache, err = redis.NewCache(redis.Config{
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
			// The cache is an optimization; reports fall back to the
			// database when Redis is down.
			log.Warn("redis unavailable, report caching disabled", "error", err)
		} else {
			defer redisCache.Close()
			cache = redisCache
			log.Info("redis connection established")
		}
	} else {
		log.Info("redis disabled by configuration")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REPOSITORIES AND APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	childRepo := postgres.NewChildRepository(dbConn)
	lessonRepo := postgres.NewLessonRepository(dbConn)
	paymentRepo := postgres.NewPaymentRepository(dbConn)
	operatorRepo := postgres.NewOperatorRepository(dbConn)

	operators := operatorScope(cfg)

	createLesson := command.NewCreateLessonHandler(lessonRepo, childRepo, log)
	recordPayment := command.NewRecordPaymentHandler(paymentRepo, childRepo, log)
	lessonFlags := command.NewSetLessonFlagHandler(lessonRepo, log)
	registerOperator := command.NewRegisterOperatorHandler(operatorRepo, log)
	lifecycle := command.NewChildLifecycleHandler(childRepo, lessonRepo, paymentRepo, log)

	childrenQuery := query.NewChildrenQuery(childRepo, operators)
	balanceQuery := query.NewBalanceQuery(childRepo, lessonRepo, paymentRepo, operators, cache, log)
	dashboardQuery := query.NewDashboardQuery(childRepo, lessonRepo, paymentRepo, operators, cache, log)
	timetableQuery := query.NewTimetableQuery(lessonRepo, childRepo, operators)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. CONVERSATION ENGINE AND ROUTER
	// ─────────────────────────────────────────────────────────────────────────
	engine := conversation.NewEngine(conversation.NewMemoryStore(), log)
	if err := flow.Register(engine, flow.Deps{
		Children:      childrenQuery,
		CreateLesson:  createLesson,
		RecordPayment: recordPayment,
		Lifecycle:     lifecycle,
		Cache:         cache,
		Logger:        log,
	}); err != nil {
		return fmt.Errorf("failed to register flows: %w", err)
	}

	router := telegram.NewRouter(telegram.RouterDeps{
		Engine:           engine,
		Children:         childrenQuery,
		Balance:          balanceQuery,
		Dashboard:        dashboardQuery,
		Timetable:        timetableQuery,
		RegisterOperator: registerOperator,
		LessonFlags:      lessonFlags,
		Lifecycle:        lifecycle,
		Cache:            cache,
		Logger:           log,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 6. MIDDLEWARE AND BOT
	// ─────────────────────────────────────────────────────────────────────────
	auth := middleware.NewAuthMiddleware(middleware.AuthConfig{
		AllowedOperators: cfg.Telegram.AllowedOperatorIDs,
		Admins:           cfg.Telegram.AdminIDs,
	})

	rateLimitCfg := middleware.DefaultRateLimitConfig()
	rateLimitCfg.RequestsPerMinute = cfg.Telegram.UserRateLimit
	limiter := middleware.NewRateLimiter(rateLimitCfg)

	recoveryCfg := middleware.DefaultRecoveryConfig()
	recoveryCfg.Logger = log
	recovery := middleware.NewRecoveryMiddleware(recoveryCfg)

	client := tgclient.NewClient(tgclient.ClientConfig{
		Token: cfg.Telegram.Token,
		// The HTTP timeout must outlast a long-polling cycle.
		Timeout: cfg.Telegram.PollingTimeout + 30*time.Second,
		Logger:  log,
	})

	bot := telegram.NewBot(client, router, auth, limiter, recovery, telegram.BotConfig{
		MaxConcurrentUpdates: cfg.Telegram.MaxConcurrentUpdates,
		Logger:               log,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HEALTH PROBES
	// ─────────────────────────────────────────────────────────────────────────
	checks := map[string]httpserver.Pinger{
		"postgres": httpserver.PingerFunc(dbConn.Ping),
	}
	if redisCache != nil {
		checks["redis"] = httpserver.PingerFunc(redisCache.Ping)
	}

	probeCfg := httpserver.DefaultConfig()
	probeCfg.Port = cfg.HTTP.Port
	probeCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	probeCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	probes := httpserver.NewServer(probeCfg, httpserver.Dependencies{
		Checks: checks,
		Logger: log,
	})
	probeErrCh := probes.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. RUN UNTIL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("bot started", "operators", len(operators))

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- bot.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-probeErrCh:
		if err != nil {
			log.Error("http server failed", "error", err)
		}
	case err := <-runErrCh:
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("bot stopped unexpectedly: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := probes.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server shutdown failed", "error", err)
	}

	// Wait for in-flight updates to drain.
	select {
	case <-runErrCh:
	case <-shutdownCtx.Done():
		log.Warn("shutdown timeout exceeded, exiting with updates in flight")
	}

	log.Info("bot stopped")
	return nil
}

// operatorScope builds the shared workspace scope from the access lists.
// Admins are operators too.
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
