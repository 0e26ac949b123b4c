package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stocklens/stocklens/internal/analysis"
	jobmetrics "github.com/stocklens/stocklens/internal/jobs"
	"github.com/stocklens/stocklens/internal/ledger"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// CategorySource lists the distinct item categories to warm.
type CategorySource interface {
	DistinctCategories(ctx context.Context) ([]string, error)
}

// AnalysisService is the slice of the analysis service the jobs consume.
type AnalysisService interface {
	Analyze(ctx context.Context, filter analysis.Filter) ([]analysis.Result, error)
}

// AnalysisWarmupJob pre-populates the analysis cache for the unscoped
// dashboard view and for every item category.
type AnalysisWarmupJob struct {
	Service    AnalysisService
	Categories CategorySource
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	clock      func() time.Time
}

// NewAnalysisWarmupJob wires dependencies for the warmup handler.
func NewAnalysisWarmupJob(service AnalysisService, categories CategorySource, logger *slog.Logger, metrics *jobmetrics.Metrics) *AnalysisWarmupJob {
	return &AnalysisWarmupJob{
		Service:    service,
		Categories: categories,
		Logger:     logger,
		Metrics:    metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes analysis warmup tasks.
func (j *AnalysisWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("analysis warmup: handler not configured")
	}
	var payload AnalysisWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowMonths <= 0 {
		payload.WindowMonths = 12
	}

	tracker := j.metrics().Track(TaskAnalysisWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	now := j.now()
	window := trailingWindow(now, payload.WindowMonths)
	logger := j.logger().With(
		slog.String("run_id", payload.RunID),
		slog.Int("window_months", payload.WindowMonths),
	)
	logger.Info("starting analysis warmup")

	warmed := 0
	if err := j.warmScope(ctx, analysis.Filter{Window: window}); err != nil {
		resultErr = err
		logger.Error("warm unscoped view", slog.Any("error", err))
		return resultErr
	}
	warmed++

	categories, err := j.fetchCategories(ctx)
	if err != nil {
		resultErr = err
		logger.Error("load categories", slog.Any("error", err))
		return resultErr
	}
	for _, category := range categories {
		if err := j.warmScope(ctx, analysis.Filter{Window: window, Category: category}); err != nil {
			resultErr = err
			logger.Error("warm category", slog.String("category", category), slog.Any("error", err))
			return resultErr
		}
		warmed++
	}

	logger.Info("completed analysis warmup",
		slog.Int("scopes", warmed),
		slog.Duration("duration", time.Since(now)),
	)
	return resultErr
}

func (j *AnalysisWarmupJob) warmScope(ctx context.Context, filter analysis.Filter) error {
	// Tighten each scope execution with a timeout to avoid long-running jobs.
	scopeCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	_, err := j.Service.Analyze(scopeCtx, filter)
	return err
}

func (j *AnalysisWarmupJob) fetchCategories(ctx context.Context) ([]string, error) {
	if j.Categories == nil {
		return nil, nil
	}
	return j.Categories.DistinctCategories(ctx)
}

func (j *AnalysisWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAnalysisWarmup))
	}
	return slog.Default().With(slog.String("job", TaskAnalysisWarmup))
}

func (j *AnalysisWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *AnalysisWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// trailingWindow builds the dashboard's default analysis window: the
// last N calendar months ending today.
func trailingWindow(now time.Time, months int) ledger.PeriodWindow {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return ledger.PeriodWindow{
		Start:  end.AddDate(0, -months, 0),
		End:    end,
		Months: float64(months),
	}
}
