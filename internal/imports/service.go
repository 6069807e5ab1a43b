package imports

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bistrohq/bistroboard/internal/shared"
)

// Store is the persistence the service needs; satisfied by *Repository.
type Store interface {
	InsertJob(ctx context.Context, j Job) (Job, error)
	GetJob(ctx context.Context, id int64) (Job, error)
	ListJobs(ctx context.Context, f ListFilters) ([]Job, int, error)
	MarkRunning(ctx context.Context, id int64) error
	FinishJob(ctx context.Context, id int64, status string, totalRows, successRows, failRows int) error
	InsertRowErrors(ctx context.Context, jobID int64, rowErrs []RowError) error
	ClearRowErrors(ctx context.Context, jobID int64) error
	ListRowErrors(ctx context.Context, jobID int64, page, perPage int) ([]RowError, int, error)

	StoreExists(ctx context.Context, storeID int64) (bool, error)
	ExistingOrderNos(ctx context.Context, orderNos []string) (map[string]struct{}, error)
	InsertImportedOrder(ctx context.Context, o InsertedOrder) error
	ExpenseTypeIDsByName(ctx context.Context) (map[string]int64, error)
	ExistingExpenseKeys(ctx context.Context, storeID int64) (map[ExpenseKey]struct{}, error)
	InsertImportedExpense(ctx context.Context, e InsertedExpense) error
}

// Service runs the import pipeline.
type Service struct {
	logger    *slog.Logger
	repo      Store
	uploadDir string
}

// NewService builds the service.
func NewService(logger *slog.Logger, repo Store, uploadDir string) *Service {
	return &Service{logger: logger, repo: repo, uploadDir: uploadDir}
}

var allowedExtensions = map[string]string{
	".xlsx": SourceExcel,
	".xls":  SourceExcel,
	".csv":  SourceCSV,
}

// CreateJob validates the upload, stores the file and records a
// pending job.
func (s *Service) CreateJob(ctx context.Context, user *shared.Principal, in CreateJobInput) (Job, error) {
	ext := strings.ToLower(filepath.Ext(in.FileName))
	sourceType, ok := allowedExtensions[ext]
	if !ok {
		return Job{}, ErrUnsupportedFile
	}
	if len(in.Content) == 0 {
		return Job{}, fmt.Errorf("%w: empty file", ErrUnsupportedFile)
	}
	if len(in.Content) > MaxFileSize {
		return Job{}, ErrFileTooLarge
	}
	if in.TargetType != TargetOrders && in.TargetType != TargetExpenses {
		return Job{}, ErrBadTarget
	}
	if in.StoreID == nil {
		return Job{}, ErrStoreRequired
	}
	exists, err := s.repo.StoreExists(ctx, *in.StoreID)
	if err != nil {
		return Job{}, err
	}
	if !exists {
		return Job{}, fmt.Errorf("store %d: %w", *in.StoreID, shared.ErrNotFound)
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return Job{}, fmt.Errorf("imports: create upload dir: %w", err)
	}
	path := filepath.Join(s.uploadDir, uuid.NewString()+ext)
	if err := os.WriteFile(path, in.Content, 0o644); err != nil {
		return Job{}, fmt.Errorf("imports: store upload: %w", err)
	}

	name := in.Name
	if name == "" {
		name = in.TargetType + "_import_" + time.Now().Format("20060102_150405")
	}
	return s.repo.InsertJob(ctx, Job{
		Name:       name,
		SourceType: sourceType,
		TargetType: in.TargetType,
		Status:     StatusPending,
		FileName:   in.FileName,
		FilePath:   path,
		StoreID:    in.StoreID,
		CreatedBy:  user.ID,
	})
}

// Get fetches a job.
func (s *Service) Get(ctx context.Context, id int64) (Job, error) {
	return s.repo.GetJob(ctx, id)
}

// List returns a page of jobs.
func (s *Service) List(ctx context.Context, f ListFilters) ([]Job, shared.Pagination, error) {
	items, total, err := s.repo.ListJobs(ctx, f)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(f.Page, f.PerPage, total), nil
}

// Errors returns a page of a job's row errors.
func (s *Service) Errors(ctx context.Context, jobID int64, page, perPage int) ([]RowError, shared.Pagination, error) {
	if _, err := s.repo.GetJob(ctx, jobID); err != nil {
		return nil, shared.Pagination{}, err
	}
	items, total, err := s.repo.ListRowErrors(ctx, jobID, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// Run executes the job. Pending and failed jobs may run; running and
// completed jobs may not.
func (s *Service) Run(ctx context.Context, jobID int64) (Job, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return Job{}, err
	}
	switch job.Status {
	case StatusRunning:
		return Job{}, ErrJobRunning
	case StatusSuccess, StatusPartialFail:
		return Job{}, ErrJobFinished
	}

	if err := s.repo.ClearRowErrors(ctx, jobID); err != nil {
		return Job{}, err
	}
	if err := s.repo.MarkRunning(ctx, jobID); err != nil {
		return Job{}, err
	}

	rows, err := parseFile(job.FilePath, job.SourceType)
	if err != nil {
		s.fail(ctx, jobID, 0)
		return Job{}, err
	}
	if len(rows) > MaxRows {
		s.fail(ctx, jobID, len(rows))
		return Job{}, fmt.Errorf("%w: %d rows, limit %d", ErrTooManyRows, len(rows), MaxRows)
	}

	var success int
	var rowErrs []RowError
	switch job.TargetType {
	case TargetOrders:
		success, rowErrs, err = s.importOrders(ctx, job, rows)
	case TargetExpenses:
		success, rowErrs, err = s.importExpenses(ctx, job, rows)
	default:
		err = ErrBadTarget
	}
	if err != nil {
		s.fail(ctx, jobID, len(rows))
		return Job{}, err
	}

	if len(rowErrs) > 0 {
		if err := s.repo.InsertRowErrors(ctx, jobID, rowErrs); err != nil {
			return Job{}, err
		}
	}

	status := StatusSuccess
	switch {
	case len(rowErrs) == 0:
	case success > 0:
		status = StatusPartialFail
	default:
		status = StatusFailed
	}
	if err := s.repo.FinishJob(ctx, jobID, status, len(rows), success, len(rowErrs)); err != nil {
		return Job{}, err
	}
	s.logger.Info("import finished",
		slog.Int64("job_id", jobID),
		slog.String("status", status),
		slog.Int("rows", len(rows)),
		slog.Int("failed", len(rowErrs)))
	return s.repo.GetJob(ctx, jobID)
}

func (s *Service) fail(ctx context.Context, jobID int64, totalRows int) {
	if err := s.repo.FinishJob(ctx, jobID, StatusFailed, totalRows, 0, 0); err != nil {
		s.logger.Error("mark import failed", slog.Int64("job_id", jobID), slog.Any("error", err))
	}
}

func (s *Service) importOrders(ctx context.Context, job Job, rows []Row) (int, []RowError, error) {
	orderNos := make([]string, 0, len(rows))
	for _, row := range rows {
		if no := row.get("order_no"); no != "" {
			orderNos = append(orderNos, no)
		}
	}
	existing, err := s.repo.ExistingOrderNos(ctx, orderNos)
	if err != nil {
		return 0, nil, err
	}

	var success int
	var rowErrs []RowError
	for _, row := range rows {
		order, err := buildOrderRow(job, row, existing)
		if err != nil {
			rowErrs = append(rowErrs, RowError{JobID: job.ID, RowNo: row.RowNo, Message: err.Error(), RawData: row.raw()})
			continue
		}
		if err := s.repo.InsertImportedOrder(ctx, order); err != nil {
			return success, rowErrs, err
		}
		existing[order.OrderNo] = struct{}{}
		success++
	}
	return success, rowErrs, nil
}

func buildOrderRow(job Job, row Row, existing map[string]struct{}) (InsertedOrder, error) {
	orderNo := row.get("order_no")
	if orderNo == "" {
		return InsertedOrder{}, fmt.Errorf("order_no is required")
	}
	if _, taken := existing[orderNo]; taken {
		return InsertedOrder{}, fmt.Errorf("order_no %s already exists", orderNo)
	}
	bizDateRaw := row.get("biz_date")
	if bizDateRaw == "" {
		return InsertedOrder{}, fmt.Errorf("biz_date is required")
	}
	bizDate, err := time.Parse(time.DateOnly, bizDateRaw)
	if err != nil {
		return InsertedOrder{}, fmt.Errorf("biz_date must be YYYY-MM-DD, got %q", bizDateRaw)
	}

	grossRaw := row.get("gross_amount")
	netRaw := row.get("net_amount")
	if grossRaw == "" && netRaw == "" {
		return InsertedOrder{}, fmt.Errorf("gross_amount or net_amount is required")
	}
	gross, err := parseAmount(grossRaw, decimal.Zero)
	if err != nil {
		return InsertedOrder{}, fmt.Errorf("gross_amount: %v", err)
	}
	discount, err := parseAmount(row.get("discount_amount"), decimal.Zero)
	if err != nil {
		return InsertedOrder{}, fmt.Errorf("discount_amount: %v", err)
	}
	net, err := parseAmount(netRaw, gross.Sub(discount))
	if err != nil {
		return InsertedOrder{}, fmt.Errorf("net_amount: %v", err)
	}
	if gross.IsNegative() || discount.IsNegative() || net.IsNegative() {
		return InsertedOrder{}, fmt.Errorf("amounts must not be negative")
	}

	channel := row.get("channel")
	if channel == "" {
		channel = "dine_in"
	}
	return InsertedOrder{
		OrderNo:        orderNo,
		StoreID:        *job.StoreID,
		BizDate:        bizDate,
		Channel:        channel,
		GrossAmount:    gross,
		DiscountAmount: discount,
		NetAmount:      net,
	}, nil
}

func (s *Service) importExpenses(ctx context.Context, job Job, rows []Row) (int, []RowError, error) {
	types, err := s.repo.ExpenseTypeIDsByName(ctx)
	if err != nil {
		return 0, nil, err
	}
	existing, err := s.repo.ExistingExpenseKeys(ctx, *job.StoreID)
	if err != nil {
		return 0, nil, err
	}

	var success int
	var rowErrs []RowError
	for _, row := range rows {
		expense, key, err := buildExpenseRow(job, row, types, existing)
		if err != nil {
			rowErrs = append(rowErrs, RowError{JobID: job.ID, RowNo: row.RowNo, Message: err.Error(), RawData: row.raw()})
			continue
		}
		if err := s.repo.InsertImportedExpense(ctx, expense); err != nil {
			return success, rowErrs, err
		}
		existing[key] = struct{}{}
		success++
	}
	return success, rowErrs, nil
}

func buildExpenseRow(job Job, row Row, types map[string]int64, existing map[ExpenseKey]struct{}) (InsertedExpense, ExpenseKey, error) {
	typeName := row.get("expense_type")
	if typeName == "" {
		return InsertedExpense{}, ExpenseKey{}, fmt.Errorf("expense_type is required")
	}
	typeID, ok := types[typeName]
	if !ok {
		return InsertedExpense{}, ExpenseKey{}, fmt.Errorf("expense type %q does not exist", typeName)
	}
	bizDateRaw := row.get("biz_date")
	if bizDateRaw == "" {
		return InsertedExpense{}, ExpenseKey{}, fmt.Errorf("biz_date is required")
	}
	bizDate, err := time.Parse(time.DateOnly, bizDateRaw)
	if err != nil {
		return InsertedExpense{}, ExpenseKey{}, fmt.Errorf("biz_date must be YYYY-MM-DD, got %q", bizDateRaw)
	}
	amountRaw := row.get("amount")
	if amountRaw == "" {
		return InsertedExpense{}, ExpenseKey{}, fmt.Errorf("amount is required")
	}
	amount, err := decimal.NewFromString(amountRaw)
	if err != nil {
		return InsertedExpense{}, ExpenseKey{}, fmt.Errorf("amount: not a number: %q", amountRaw)
	}
	if amount.IsNegative() {
		return InsertedExpense{}, ExpenseKey{}, fmt.Errorf("amount must not be negative")
	}
	remark := row.get("description")

	key := ExpenseKey{
		StoreID:       *job.StoreID,
		BizDate:       bizDate.Format(time.DateOnly),
		ExpenseTypeID: typeID,
		Amount:        amount.StringFixed(2),
		Remark:        remark,
	}
	if _, dup := existing[key]; dup {
		return InsertedExpense{}, ExpenseKey{}, fmt.Errorf("identical record already exists for this store, date, type and amount")
	}

	return InsertedExpense{
		StoreID:       *job.StoreID,
		ExpenseTypeID: typeID,
		BizDate:       bizDate,
		Amount:        amount,
		Remark:        remark,
		CreatedBy:     job.CreatedBy,
	}, key, nil
}

func parseAmount(raw string, fallback decimal.Decimal) (decimal.Decimal, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("not a number: %q", raw)
	}
	return d, nil
}
