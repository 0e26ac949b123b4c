package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/stocklens/stocklens/internal/analysis"
)

type stubAnalysis struct {
	results []analysis.Result
	err     error
	calls   int
	filters []analysis.Filter
}

func (s *stubAnalysis) Analyze(ctx context.Context, filter analysis.Filter) ([]analysis.Result, error) {
	s.calls++
	s.filters = append(s.filters, filter)
	return s.results, s.err
}

func deadStockTask(t *testing.T, payload DeadStockScanPayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(TaskDeadStockScan, data)
}

func TestDeadStockScanReportsFindings(t *testing.T) {
	svc := &stubAnalysis{results: []analysis.Result{
		{ItemID: "DEAD-1", MovementStatus: analysis.StatusDead, RemainingQty: 40},
		{ItemID: "SEAS-1", SeasonalPattern: analysis.PatternSeasonal, SeasonalRisk: 90, MonthsOfCoverage: 1.2},
		{ItemID: "OK-1", MovementStatus: analysis.StatusActive, RemainingQty: 10},
		// Dead but empty: nothing to liquidate, not a finding.
		{ItemID: "DEAD-EMPTY", MovementStatus: analysis.StatusDead, RemainingQty: 0},
		// Risky but well covered.
		{ItemID: "SEAS-OK", SeasonalPattern: analysis.PatternSeasonal, SeasonalRisk: 90, MonthsOfCoverage: 4},
	}}
	job := NewDeadStockScanJob(svc, nil, nil)
	job.clock = func() time.Time { return time.Date(2025, 7, 1, 6, 0, 0, 0, time.UTC) }

	err := job.Handle(context.Background(), deadStockTask(t, DeadStockScanPayload{RunID: "run-1"}))
	require.NoError(t, err)
	require.Equal(t, 1, svc.calls)

	// Defaults: trailing 12 months ending today.
	window := svc.filters[0].Window
	require.Equal(t, 12.0, window.Months)
	require.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), window.End)
	require.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), window.Start)

	findings := job.report(job.logger(), svc.results, 70)
	require.Equal(t, 2, findings)
}

func TestDeadStockScanPropagatesAnalysisError(t *testing.T) {
	svc := &stubAnalysis{err: errors.New("cache down")}
	job := NewDeadStockScanJob(svc, nil, nil)

	err := job.Handle(context.Background(), deadStockTask(t, DeadStockScanPayload{RunID: "run-2"}))
	require.Error(t, err)
}

func TestDeadStockScanRejectsMalformedPayload(t *testing.T) {
	job := NewDeadStockScanJob(&stubAnalysis{}, nil, nil)
	task := asynq.NewTask(TaskDeadStockScan, []byte("{not json"))

	err := job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}
