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
	"github.com/stocklens/stocklens/internal/analysis"
	"github.com/stocklens/stocklens/internal/app"
	jobmetrics "github.com/stocklens/stocklens/internal/jobs"
	"github.com/stocklens/stocklens/internal/ledger"
	"github.com/stocklens/stocklens/internal/observability"
	"github.com/stocklens/stocklens/internal/platform/cache"
	"github.com/stocklens/stocklens/internal/platform/db"
	"github.com/stocklens/stocklens/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

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
		logger.Error("connect database", slog.Any("error", err))
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

	ledgerRepo := ledger.NewRepository(pool)
	engine := analysis.NewEngine(analysis.Config{
		ProjectTag: cfg.ProjectTag,
		Workers:    cfg.AnalysisWorkers,
		Rounding:   analysis.NewCategoryRounding(cfg.ReelCategories),
	})
	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())

	analysisCache := analysis.NewCache(redisClient, cfg.AnalysisCacheTTL)
	analysisService := analysis.NewService(ledgerRepo, engine, analysisCache)
	analysisService.WithObserver(metrics)

	warmupJob := jobs.NewAnalysisWarmupJob(analysisService, ledgerRepo, logger, jobMetrics)
	deadStockJob := jobs.NewDeadStockScanJob(analysisService, logger, jobMetrics)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metricsMux}
	go func() {
		logger.Info("starting metrics server", slog.String("addr", cfg.WorkerMetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics shutdown", slog.Any("error", err))
		}
	}()

	warmupTask, err := jobs.NewAnalysisWarmupTask(12)
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	deadStockTask, err := jobs.NewDeadStockScanTask(12, 70)
	if err != nil {
		logger.Error("build dead stock task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAnalysisWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskDeadStockScan, Handler: deadStockJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "45 1 * * *", Task: deadStockTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
