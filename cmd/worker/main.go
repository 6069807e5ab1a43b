package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/bistrohq/bistroboard/internal/app"
	"github.com/bistrohq/bistroboard/internal/dashboard"
	"github.com/bistrohq/bistroboard/internal/imports"
	"github.com/bistrohq/bistroboard/internal/kpi"
	"github.com/bistrohq/bistroboard/internal/platform/cache"
	"github.com/bistrohq/bistroboard/internal/platform/db"
	"github.com/bistrohq/bistroboard/internal/scope"
	"github.com/bistrohq/bistroboard/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	scopeSvc := scope.NewService(scope.NewRepository(pool))
	dashCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	kpiSvc := kpi.NewService(kpi.NewRepository(pool), scopeSvc, dashCache, logger)
	importsSvc := imports.NewService(logger, imports.NewRepository(pool), cfg.UploadDir)

	nightlyRebuild, err := jobs.NewKPIRebuildTask(jobs.KPIRebuildPayload{})
	if err != nil {
		logger.Error("build rebuild task", slog.Any("error", err))
		os.Exit(1)
	}

	cron := cfg.KPIRebuildCron
	if cron == "" {
		cron = jobs.KPIRebuildCron
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskKPIRebuild, Handler: jobs.NewKPIRebuildHandler(kpiSvc, logger)},
			{Type: jobs.TaskImportRun, Handler: jobs.NewImportRunHandler(importsSvc, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cron, Task: nightlyRebuild, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
