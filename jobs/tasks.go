// Package jobs holds the background task definitions and the asynq
// worker that executes them.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bistrohq/bistroboard/internal/imports"
	"github.com/bistrohq/bistroboard/internal/kpi"
	"github.com/bistrohq/bistroboard/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskKPIRebuild recomputes the daily KPI snapshot for a range.
	TaskKPIRebuild = "kpi:rebuild"
	// TaskImportRun executes a pending import job.
	TaskImportRun = "import:run"

	// KPIRebuildCron triggers the nightly rebuild of the previous day.
	KPIRebuildCron = "30 2 * * *"
)

// KPIRebuildPayload selects the range to rebuild. Empty dates mean
// "yesterday", which is what the nightly cron relies on.
type KPIRebuildPayload struct {
	DateFrom string `json:"date_from,omitempty"`
	DateTo   string `json:"date_to,omitempty"`
	StoreID  *int64 `json:"store_id,omitempty"`
}

// NewKPIRebuildTask constructs an asynq task.
func NewKPIRebuildTask(payload KPIRebuildPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskKPIRebuild, data), nil
}

// ImportRunPayload identifies the import job to execute.
type ImportRunPayload struct {
	JobID int64 `json:"job_id"`
}

// NewImportRunTask constructs an asynq task.
func NewImportRunTask(payload ImportRunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskImportRun, data), nil
}

// NewKPIRebuildHandler processes TaskKPIRebuild tasks.
func NewKPIRebuildHandler(svc *kpi.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload KPIRebuildPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}

		yesterday := time.Now().UTC().AddDate(0, 0, -1).Truncate(24 * time.Hour)
		from, to := yesterday, yesterday
		var err error
		if payload.DateFrom != "" {
			if from, err = time.Parse(time.DateOnly, payload.DateFrom); err != nil {
				return asynq.SkipRetry
			}
		}
		if payload.DateTo != "" {
			if to, err = time.Parse(time.DateOnly, payload.DateTo); err != nil {
				return asynq.SkipRetry
			}
		}

		result, err := svc.Rebuild(ctx, nil, from, to, payload.StoreID)
		if err != nil {
			logger.Error("kpi rebuild task", slog.Any("error", err))
			return err
		}
		logger.Info("kpi rebuild task complete",
			slog.String("from", from.Format(time.DateOnly)),
			slog.String("to", to.Format(time.DateOnly)),
			slog.Int("rows", result.RowsWritten))
		return nil
	}
}

// NewImportRunHandler processes TaskImportRun tasks.
func NewImportRunHandler(svc *imports.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ImportRunPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		job, err := svc.Run(ctx, payload.JobID)
		if err != nil {
			logger.Error("import run task", slog.Int64("job_id", payload.JobID), slog.Any("error", err))
			// Guard violations and vanished jobs are not retryable.
			switch {
			case errors.Is(err, imports.ErrJobRunning),
				errors.Is(err, imports.ErrJobFinished),
				errors.Is(err, shared.ErrNotFound):
				return asynq.SkipRetry
			}
			return err
		}
		logger.Info("import run task complete",
			slog.Int64("job_id", job.ID),
			slog.String("status", job.Status),
			slog.Int("success_rows", job.SuccessRows),
			slog.Int("fail_rows", job.FailRows))
		return nil
	}
}
