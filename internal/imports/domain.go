// Package imports handles spreadsheet ingestion of orders and expense
// records: upload, async execution, per-row error capture.
package imports

import (
	"errors"
	"time"
)

// Import targets.
const (
	TargetOrders   = "orders"
	TargetExpenses = "expense_records"
)

// Source file kinds, inferred from the upload extension.
const (
	SourceExcel = "excel"
	SourceCSV   = "csv"
)

// Job statuses.
const (
	StatusPending     = "pending"
	StatusRunning     = "running"
	StatusSuccess     = "success"
	StatusPartialFail = "partial_fail"
	StatusFailed      = "failed"
)

// Upload limits.
const (
	MaxFileSize = 50 << 20
	MaxRows     = 10000
)

var (
	ErrUnsupportedFile = errors.New("imports: only .xlsx, .xls and .csv files are supported")
	ErrFileTooLarge    = errors.New("imports: file exceeds the 50MB limit")
	ErrStoreRequired   = errors.New("imports: store_id is required for this target")
	ErrBadTarget       = errors.New("imports: unsupported import target")
	ErrTooManyRows     = errors.New("imports: row count exceeds the per-job limit")
	ErrJobRunning      = errors.New("imports: job is already running")
	ErrJobFinished     = errors.New("imports: job has already completed")
)

// Job is one import task.
type Job struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	SourceType  string    `json:"source_type"`
	TargetType  string    `json:"target_type"`
	Status      string    `json:"status"`
	FileName    string    `json:"file_name"`
	FilePath    string    `json:"-"`
	StoreID     *int64    `json:"store_id,omitempty"`
	TotalRows   int       `json:"total_rows"`
	SuccessRows int       `json:"success_rows"`
	FailRows    int       `json:"fail_rows"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RowError is one failed row of a job.
type RowError struct {
	ID        int64          `json:"id"`
	JobID     int64          `json:"job_id"`
	RowNo     int            `json:"row_no"`
	Field     string         `json:"field,omitempty"`
	Message   string         `json:"message"`
	RawData   map[string]any `json:"raw_data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ListFilters narrows the job listing.
type ListFilters struct {
	TargetType string
	Status     string
	CreatedBy  *int64
	Page       int
	PerPage    int
}

// CreateJobInput captures a new upload.
type CreateJobInput struct {
	Name       string
	FileName   string
	Content    []byte
	TargetType string
	StoreID    *int64
}
