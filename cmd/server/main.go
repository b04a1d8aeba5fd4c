// Package main - точка входа HTTP API сервера Lorebound.
//
// Сервер принимает забеги мобильного клиента, защищает их анти-чит
// конвейером и отдаёт лидерборды трёх временных срезов.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: PostgreSQL, Redis, фоновые задачи
// - Interface: HTTP endpoints
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lorebound/lorebound-backend/config"
	"github.com/lorebound/lorebound-backend/internal/application/command"
	"github.com/lorebound/lorebound-backend/internal/application/query"
	"github.com/lorebound/lorebound-backend/internal/domain/leaderboard"
	"github.com/lorebound/lorebound-backend/internal/domain/run"
	"github.com/lorebound/lorebound-backend/internal/infrastructure/persistence/postgres"
	"github.com/lorebound/lorebound-backend/internal/infrastructure/persistence/redis"
	httpserver "github.com/lorebound/lorebound-backend/internal/interface/http"
	"github.com/lorebound/lorebound-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := runServer(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(ctx context.Context) error {
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
	log.Info("starting Lorebound backend",
		logger.String("env", string(cfg.App.Environment)),
		logger.Bool("debug", cfg.App.Debug),
		logger.String("version", cfg.App.Version),
	)

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
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if applied, err := migrator.GetAppliedMigrations(ctx); err == nil {
		log.Info("migrations completed", logger.Int("applied", len(applied)))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var leaderboardCache leaderboard.Cache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err := redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
		} else {
			defer redisCache.Close()
			leaderboardCache = redis.NewLeaderboardCache(redisCache, log)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	runRepo := postgres.NewRunRepository(dbConn)
	leaderboardRepo := postgres.NewLeaderboardRepository(dbConn)
	profileRepo := postgres.NewProfileRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ ДОМЕННЫХ СЕРВИСОВ
	// ─────────────────────────────────────────────────────────────────────────
	tokenIssuer, err := run.NewTokenIssuer(cfg.Game.SessionSecret)
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}
	validator := run.NewValidator()
	calculator := run.NewCalculator()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	startRunCmd := command.NewStartRunHandler(runRepo, tokenIssuer, log)
	submitRunCmd := command.NewSubmitRunHandler(runRepo, validator, calculator, profileRepo, leaderboardCache, log)
	abandonRunCmd := command.NewAbandonRunHandler(runRepo, log)

	leaderboardQuery := query.NewGetLeaderboardHandler(leaderboardRepo, leaderboardCache, log)
	userRankQuery := query.NewGetUserRankHandler(leaderboardRepo, leaderboardCache, log)
	statsQuery := query.NewGetLeaderboardStatsHandler(leaderboardRepo, leaderboardCache, log)
	userRunsQuery := query.NewGetUserRunsHandler(runRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. СОЗДАНИЕ HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.Server.Host
	httpConfig.Port = cfg.Server.Port
	httpConfig.ReadTimeout = cfg.Server.ReadTimeout
	httpConfig.WriteTimeout = cfg.Server.WriteTimeout
	httpConfig.IdleTimeout = cfg.Server.IdleTimeout
	httpConfig.EnableCORS = cfg.Server.EnableCORS
	httpConfig.AllowedOrigins = cfg.Server.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.Server.RateLimitPerMinute

	httpDeps := httpserver.Dependencies{
		StartRunHandler:            startRunCmd,
		SubmitRunHandler:           submitRunCmd,
		AbandonRunHandler:          abandonRunCmd,
		GetLeaderboardHandler:      leaderboardQuery,
		GetUserRankHandler:         userRankQuery,
		GetLeaderboardStatsHandler: statsQuery,
		GetUserRunsHandler:         userRunsQuery,
		Logger:                     log,
		HealthChecker:              &healthChecker{db: dbConn},
	}

	server := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	log.Info("Lorebound backend is running", logger.String("http_address", server.Address()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("service error", logger.Err(err))
		return err
	}

	log.Info("starting graceful shutdown...", logger.Duration("timeout", cfg.App.ShutdownTimeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}

	log := logger.New(opts)

	// slog используется пакетом scheduler; держим уровни согласованными.
	slogLevel := slog.LevelInfo
	if cfg.App.Debug {
		slogLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel})))

	return log
}

// healthChecker сообщает готовность зависимостей для проб.
type healthChecker struct {
	db *postgres.Connection
}

func (h *healthChecker) Check(ctx context.Context) httpserver.HealthStatus {
	status := httpserver.HealthStatus{
		Healthy: true,
		Ready:   true,
		Checks:  map[string]string{},
	}

	if err := h.db.Ping(ctx); err != nil {
		status.Healthy = false
		status.Ready = false
		status.Message = "database unreachable"
		status.Checks["postgres"] = err.Error()
		return status
	}
	status.Checks["postgres"] = "ok"

	return status
}
