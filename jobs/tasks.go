package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAnalysisWarmup pre-computes analysis result sets so dashboard
	// requests hit a warm cache.
	TaskAnalysisWarmup = "analysis:warmup"
	// TaskDeadStockScan walks the latest analysis looking for dead stock
	// and seasonal shortage risks.
	TaskDeadStockScan = "analysis:deadstock_scan"
)

// AnalysisWarmupPayload scopes a warmup run.
type AnalysisWarmupPayload struct {
	RunID        string `json:"run_id"`
	WindowMonths int    `json:"window_months"`
}

// NewAnalysisWarmupTask constructs an Asynq task with a fresh run id.
func NewAnalysisWarmupTask(windowMonths int) (*asynq.Task, error) {
	data, err := json.Marshal(AnalysisWarmupPayload{
		RunID:        uuid.NewString(),
		WindowMonths: windowMonths,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalysisWarmup, data, asynq.Queue(QueueDefault)), nil
}

// DeadStockScanPayload scopes a dead stock scan run.
type DeadStockScanPayload struct {
	RunID        string `json:"run_id"`
	WindowMonths int    `json:"window_months"`
	MinRisk      int    `json:"min_risk"`
}

// NewDeadStockScanTask constructs an Asynq task with a fresh run id.
func NewDeadStockScanTask(windowMonths, minRisk int) (*asynq.Task, error) {
	data, err := json.Marshal(DeadStockScanPayload{
		RunID:        uuid.NewString(),
		WindowMonths: windowMonths,
		MinRisk:      minRisk,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDeadStockScan, data, asynq.Queue(QueueDefault)), nil
}
