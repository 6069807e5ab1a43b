package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bistrohq/bistroboard/internal/analysis"
	"github.com/bistrohq/bistroboard/internal/app"
	"github.com/bistrohq/bistroboard/internal/audit"
	"github.com/bistrohq/bistroboard/internal/auth"
	"github.com/bistrohq/bistroboard/internal/budgets"
	"github.com/bistrohq/bistroboard/internal/dashboard"
	"github.com/bistrohq/bistroboard/internal/expenses"
	"github.com/bistrohq/bistroboard/internal/imports"
	"github.com/bistrohq/bistroboard/internal/kpi"
	"github.com/bistrohq/bistroboard/internal/orders"
	"github.com/bistrohq/bistroboard/internal/platform/cache"
	"github.com/bistrohq/bistroboard/internal/platform/db"
	"github.com/bistrohq/bistroboard/internal/rbac"
	"github.com/bistrohq/bistroboard/internal/reports"
	"github.com/bistrohq/bistroboard/internal/scope"
	"github.com/bistrohq/bistroboard/internal/stores"
	"github.com/bistrohq/bistroboard/internal/users"
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
		// Dashboards degrade to uncached loads without Redis; imports
		// still need it for the queue.
		logger.Warn("redis unavailable", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	auditSvc := audit.NewService(audit.NewRepository(pool), logger)

	usersRepo := users.NewRepository(pool)
	usersSvc := users.NewService(usersRepo)

	rbacSvc := rbac.NewService(rbac.NewRepository(pool))
	if err := rbacSvc.SyncCorePermissions(ctx); err != nil {
		logger.Error("sync core permissions", slog.Any("error", err))
		os.Exit(1)
	}
	rbacMW := rbac.Middleware{Service: rbacSvc, Logger: logger}
	guard := rbacMW.RequireAny

	scopeRepo := scope.NewRepository(pool)
	scopeSvc := scope.NewService(scopeRepo)
	scopeAdmin := scope.NewAdmin(scopeRepo)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	authSvc := auth.NewService(usersRepo, tokens)
	authMW := auth.Middleware{Tokens: tokens}

	storesSvc := stores.NewService(stores.NewRepository(pool))
	ordersSvc := orders.NewService(orders.NewRepository(pool), scopeSvc)
	expensesRepo := expenses.NewRepository(pool)
	expensesSvc := expenses.NewService(expensesRepo, expensesRepo, scopeSvc)
	budgetsSvc := budgets.NewService(budgets.NewRepository(pool), scopeSvc)

	dashCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashSvc := dashboard.NewService(logger, dashboard.NewRepository(pool), scopeSvc, dashCache)

	kpiRepo := kpi.NewRepository(pool)
	kpiSvc := kpi.NewService(kpiRepo, scopeSvc, dashCache, logger)
	kpiTrend := kpi.NewTrend(kpiRepo, scopeSvc)

	reportsSvc := reports.NewService(reports.NewRepository(pool), scopeSvc)

	analysisRepo := analysis.NewRepository(pool)
	cvpSvc := analysis.NewCVPService(analysisRepo, scopeSvc)
	abcSvc := analysis.NewABCService(analysisRepo, scopeSvc)
	compareSvc := analysis.NewCompareService(analysisRepo, scopeSvc)

	importsSvc := imports.NewService(logger, imports.NewRepository(pool), cfg.UploadDir)
	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		AuthMiddleware: authMW,

		AuthHandler:      auth.NewHandler(logger, authSvc, auditSvc, authMW),
		UsersHandler:     users.NewHandler(logger, usersSvc, rbacSvc, scopeAdmin, auditSvc, guard),
		RolesHandler:     rbac.NewHandler(logger, rbacSvc, auditSvc, guard),
		StoresHandler:    stores.NewHandler(logger, storesSvc, auditSvc, guard),
		OrdersHandler:    orders.NewHandler(logger, ordersSvc, auditSvc, guard),
		ExpensesHandler:  expenses.NewHandler(logger, expensesSvc, auditSvc, guard),
		BudgetsHandler:   budgets.NewHandler(logger, budgetsSvc, auditSvc, guard),
		KPIHandler:       kpi.NewHandler(logger, kpiSvc, kpiTrend, auditSvc, guard),
		ReportsHandler:   reports.NewHandler(logger, reportsSvc, guard),
		AnalysisHandler:  analysis.NewHandler(logger, cvpSvc, abcSvc, compareSvc, guard),
		DashboardHandler: dashboard.NewHandler(logger, dashSvc, guard),
		ImportsHandler:   imports.NewHandler(logger, importsSvc, jobsClient.EnqueueImportRun, auditSvc, guard),
		AuditHandler:     audit.NewHandler(logger, auditSvc, guard),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
