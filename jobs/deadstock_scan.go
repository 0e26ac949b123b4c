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
)

// DeadStockScanJob walks the current analysis results and reports items
// whose capital is sitting still: dead stock with quantity on hand, and
// seasonal items whose coverage will not survive the approaching peak.
type DeadStockScanJob struct {
	Service AnalysisService
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewDeadStockScanJob initialises the dead stock scan handler.
func NewDeadStockScanJob(service AnalysisService, logger *slog.Logger, metrics *jobmetrics.Metrics) *DeadStockScanJob {
	return &DeadStockScanJob{
		Service: service,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the dead stock scan logic.
func (j *DeadStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("dead stock scan: handler not configured")
	}
	var payload DeadStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowMonths <= 0 {
		payload.WindowMonths = 12
	}
	if payload.MinRisk <= 0 {
		payload.MinRisk = 70
	}

	tracker := j.metrics().Track(TaskDeadStockScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	now := j.now()
	logger := j.logger().With(
		slog.String("run_id", payload.RunID),
		slog.Int("window_months", payload.WindowMonths),
		slog.Int("min_risk", payload.MinRisk),
	)
	logger.Info("starting dead stock scan")

	results, err := j.Service.Analyze(ctx, analysis.Filter{Window: trailingWindow(now, payload.WindowMonths)})
	if err != nil {
		resultErr = err
		logger.Error("scan failed", slog.Any("error", err))
		return resultErr
	}

	findings := j.report(logger, results, payload.MinRisk)

	logger.Info("completed dead stock scan",
		slog.Int("items", len(results)),
		slog.Int("findings", findings),
		slog.Duration("duration", time.Since(now)),
	)
	return resultErr
}

// report logs each finding and feeds the metrics counters. Dead items
// still holding stock are critical; seasonal items with thin coverage
// and high risk scores are warnings.
func (j *DeadStockScanJob) report(logger *slog.Logger, results []analysis.Result, minRisk int) int {
	findings := 0
	for _, r := range results {
		switch {
		case r.MovementStatus == analysis.StatusDead && r.RemainingQty > 0:
			logger.Warn("dead stock holding quantity",
				slog.String("item_id", r.ItemID),
				slog.Float64("remaining_qty", r.RemainingQty),
				slog.String("reason", string(r.OrderReason)),
			)
			j.addFinding("critical", r)
			findings++
		case r.SeasonalPattern == analysis.PatternSeasonal && r.SeasonalRisk >= minRisk && r.MonthsOfCoverage < 2:
			logger.Warn("seasonal shortage risk",
				slog.String("item_id", r.ItemID),
				slog.Int("risk_score", r.SeasonalRisk),
				slog.Float64("months_of_coverage", r.MonthsOfCoverage),
				slog.Int("peak_month", int(r.PeakMonth)),
			)
			j.addFinding("warning", r)
			findings++
		}
	}
	return findings
}

func (j *DeadStockScanJob) addFinding(severity string, r analysis.Result) {
	j.metrics().AddFindings(severity, r.Category, 1)
}

func (j *DeadStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDeadStockScan))
	}
	return slog.Default().With(slog.String("job", TaskDeadStockScan))
}

func (j *DeadStockScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DeadStockScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
