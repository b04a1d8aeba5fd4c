// Package main - точка входа фонового worker'а Lorebound.
//
// Worker выполняет периодические задачи по расписанию:
// - снапшоты лидербордов после смены суток (UTC)
// - закрытие зависших забегов как abandoned
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lorebound/lorebound-backend/config"
	"github.com/lorebound/lorebound-backend/internal/infrastructure/persistence/postgres"
	"github.com/lorebound/lorebound-backend/internal/infrastructure/scheduler"
	"github.com/lorebound/lorebound-backend/internal/infrastructure/scheduler/jobs"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Lorebound worker",
		slog.String("env", string(cfg.App.Environment)),
		slog.String("version", cfg.App.Version),
	)

	if !cfg.Scheduler.Enabled {
		log.Warn("scheduler is disabled, nothing to do")
		return nil
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. РЕГИСТРАЦИЯ ЗАДАЧ
	// ─────────────────────────────────────────────────────────────────────────
	runRepo := postgres.NewRunRepository(dbConn)
	leaderboardRepo := postgres.NewLeaderboardRepository(dbConn)

	sched := scheduler.NewScheduler(log)

	snapshotJob := jobs.NewSnapshotLeaderboardsJob(leaderboardRepo, log)
	snapshotSchedule := scheduler.NewDailySchedule(cfg.Scheduler.SnapshotHour, cfg.Scheduler.SnapshotMinute)
	if err := sched.Register(snapshotJob, snapshotSchedule); err != nil {
		return fmt.Errorf("failed to register snapshot job: %w", err)
	}

	expireJob := jobs.NewExpireStaleRunsJob(runRepo, log)
	expireSchedule := scheduler.NewIntervalSchedule(cfg.Scheduler.ExpireStaleRunsInterval)
	if err := sched.Register(expireJob, expireSchedule); err != nil {
		return fmt.Errorf("failed to register expire job: %w", err)
	}

	for _, info := range sched.ListJobs() {
		log.Info("registered job",
			slog.String("name", info.Name),
			slog.String("schedule", info.Schedule),
			slog.Time("next_run", info.NextRun),
		)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	log.Info("worker is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", slog.String("signal", sig.String()))

	if err := sched.Stop(); err != nil {
		log.Error("failed to stop scheduler", slog.String("error", err.Error()))
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}

// setupLogger настраивает slog для worker-процесса.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.App.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}
