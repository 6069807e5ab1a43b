package imports

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bistrohq/bistroboard/internal/shared"
)

type stubStore struct {
	jobs     map[int64]Job
	nextID   int64
	rowErrs  map[int64][]RowError
	storeOK  bool
	orderNos map[string]struct{}
	orders   []InsertedOrder
	typeIDs  map[string]int64
	expKeys  map[ExpenseKey]struct{}
	expenses []InsertedExpense
}

func newStubStore() *stubStore {
	return &stubStore{
		jobs:     map[int64]Job{},
		rowErrs:  map[int64][]RowError{},
		storeOK:  true,
		orderNos: map[string]struct{}{},
		typeIDs:  map[string]int64{},
		expKeys:  map[ExpenseKey]struct{}{},
	}
}

func (s *stubStore) InsertJob(_ context.Context, j Job) (Job, error) {
	s.nextID++
	j.ID = s.nextID
	s.jobs[j.ID] = j
	return j, nil
}

func (s *stubStore) GetJob(_ context.Context, id int64) (Job, error) {
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, shared.ErrNotFound
	}
	return j, nil
}

func (s *stubStore) ListJobs(_ context.Context, _ ListFilters) ([]Job, int, error) {
	var out []Job
	for _, j := range s.jobs {
		out = append(out, j)
	}
	return out, len(out), nil
}

func (s *stubStore) MarkRunning(_ context.Context, id int64) error {
	j := s.jobs[id]
	j.Status = StatusRunning
	s.jobs[id] = j
	return nil
}

func (s *stubStore) FinishJob(_ context.Context, id int64, status string, total, success, fail int) error {
	j := s.jobs[id]
	j.Status, j.TotalRows, j.SuccessRows, j.FailRows = status, total, success, fail
	s.jobs[id] = j
	return nil
}

func (s *stubStore) InsertRowErrors(_ context.Context, jobID int64, rowErrs []RowError) error {
	s.rowErrs[jobID] = append(s.rowErrs[jobID], rowErrs...)
	return nil
}

func (s *stubStore) ClearRowErrors(_ context.Context, jobID int64) error {
	delete(s.rowErrs, jobID)
	return nil
}

func (s *stubStore) ListRowErrors(_ context.Context, jobID int64, _, _ int) ([]RowError, int, error) {
	errs := s.rowErrs[jobID]
	return errs, len(errs), nil
}

func (s *stubStore) StoreExists(_ context.Context, _ int64) (bool, error) {
	return s.storeOK, nil
}

func (s *stubStore) ExistingOrderNos(_ context.Context, _ []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(s.orderNos))
	for no := range s.orderNos {
		out[no] = struct{}{}
	}
	return out, nil
}

func (s *stubStore) InsertImportedOrder(_ context.Context, o InsertedOrder) error {
	s.orders = append(s.orders, o)
	return nil
}

func (s *stubStore) ExpenseTypeIDsByName(_ context.Context) (map[string]int64, error) {
	return s.typeIDs, nil
}

func (s *stubStore) ExistingExpenseKeys(_ context.Context, _ int64) (map[ExpenseKey]struct{}, error) {
	out := make(map[ExpenseKey]struct{}, len(s.expKeys))
	for k := range s.expKeys {
		out[k] = struct{}{}
	}
	return out, nil
}

func (s *stubStore) InsertImportedExpense(_ context.Context, e InsertedExpense) error {
	s.expenses = append(s.expenses, e)
	return nil
}

func newTestService(t *testing.T) (*Service, *stubStore) {
	t.Helper()
	repo := newStubStore()
	return NewService(slog.New(slog.DiscardHandler), repo, t.TempDir()), repo
}

func storeID(id int64) *int64 { return &id }

func TestCreateJobRejectsUnknownExtension(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateJob(context.Background(), &shared.Principal{ID: 1}, CreateJobInput{
		FileName:   "orders.pdf",
		Content:    []byte("x"),
		TargetType: TargetOrders,
		StoreID:    storeID(1),
	})
	require.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestCreateJobRequiresStore(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateJob(context.Background(), &shared.Principal{ID: 1}, CreateJobInput{
		FileName:   "orders.csv",
		Content:    []byte("order_no\n"),
		TargetType: TargetOrders,
	})
	require.ErrorIs(t, err, ErrStoreRequired)
}

func TestCreateJobUnknownStore(t *testing.T) {
	svc, repo := newTestService(t)
	repo.storeOK = false
	_, err := svc.CreateJob(context.Background(), &shared.Principal{ID: 1}, CreateJobInput{
		FileName:   "orders.csv",
		Content:    []byte("order_no\n"),
		TargetType: TargetOrders,
		StoreID:    storeID(99),
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateJobStoresFile(t *testing.T) {
	svc, repo := newTestService(t)
	job, err := svc.CreateJob(context.Background(), &shared.Principal{ID: 7}, CreateJobInput{
		Name:       "march orders",
		FileName:   "orders.csv",
		Content:    []byte("order_no,biz_date,net_amount\n"),
		TargetType: TargetOrders,
		StoreID:    storeID(3),
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, job.Status)
	require.Equal(t, SourceCSV, job.SourceType)
	require.Equal(t, int64(7), job.CreatedBy)

	stored, err := os.ReadFile(repo.jobs[job.ID].FilePath)
	require.NoError(t, err)
	require.Contains(t, string(stored), "order_no")
}

func writeCSVJob(t *testing.T, svc *Service, repo *stubStore, target, csv string) Job {
	t.Helper()
	job, err := svc.CreateJob(context.Background(), &shared.Principal{ID: 1}, CreateJobInput{
		FileName:   "upload.csv",
		Content:    []byte(csv),
		TargetType: target,
		StoreID:    storeID(3),
	})
	require.NoError(t, err)
	return job
}

func TestRunImportsOrders(t *testing.T) {
	svc, repo := newTestService(t)
	repo.orderNos["A-001"] = struct{}{}
	job := writeCSVJob(t, svc, repo, TargetOrders,
		"order_no,biz_date,gross_amount,discount_amount,channel\n"+
			"A-001,2026-03-01,100,0,dine_in\n"+ // duplicate
			"A-002,2026-03-01,150,10,takeout\n"+
			"A-003,bad-date,80,0,\n"+
			"A-004,2026-03-02,90,0,\n")

	done, err := svc.Run(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPartialFail, done.Status)
	require.Equal(t, 4, done.TotalRows)
	require.Equal(t, 2, done.SuccessRows)
	require.Equal(t, 2, done.FailRows)

	require.Len(t, repo.orders, 2)
	require.Equal(t, "A-002", repo.orders[0].OrderNo)
	require.True(t, repo.orders[0].NetAmount.Equal(repo.orders[0].GrossAmount.Sub(repo.orders[0].DiscountAmount)))
	require.Equal(t, "dine_in", repo.orders[1].Channel)

	errs := repo.rowErrs[job.ID]
	require.Len(t, errs, 2)
	require.Equal(t, 1, errs[0].RowNo)
	require.Contains(t, errs[0].Message, "already exists")
	require.Equal(t, 3, errs[1].RowNo)
}

func TestRunImportsExpenses(t *testing.T) {
	svc, repo := newTestService(t)
	repo.typeIDs["Rent"] = 11
	job := writeCSVJob(t, svc, repo, TargetExpenses,
		"expense_type,biz_date,amount,description\n"+
			"Rent,2026-03-01,5000,march rent\n"+
			"Utilities,2026-03-01,300,power\n"+
			"Rent,2026-03-01,5000,march rent\n") // duplicate of row 1

	done, err := svc.Run(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPartialFail, done.Status)
	require.Equal(t, 1, done.SuccessRows)
	require.Equal(t, 2, done.FailRows)

	require.Len(t, repo.expenses, 1)
	require.Equal(t, int64(11), repo.expenses[0].ExpenseTypeID)

	errs := repo.rowErrs[job.ID]
	require.Contains(t, errs[0].Message, "does not exist")
	require.Contains(t, errs[1].Message, "already exists")
}

func TestRunAllRowsFail(t *testing.T) {
	svc, repo := newTestService(t)
	job := writeCSVJob(t, svc, repo, TargetOrders, "order_no,biz_date\n,2026-03-01\n")

	done, err := svc.Run(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, done.Status)
	require.Equal(t, 0, done.SuccessRows)
}

func TestRunGuardsRepeatedExecution(t *testing.T) {
	svc, repo := newTestService(t)
	job := writeCSVJob(t, svc, repo, TargetOrders, "order_no,biz_date,net_amount\nA-1,2026-03-01,10\n")

	j := repo.jobs[job.ID]
	j.Status = StatusRunning
	repo.jobs[job.ID] = j
	_, err := svc.Run(context.Background(), job.ID)
	require.ErrorIs(t, err, ErrJobRunning)

	j.Status = StatusSuccess
	repo.jobs[job.ID] = j
	_, err = svc.Run(context.Background(), job.ID)
	require.ErrorIs(t, err, ErrJobFinished)
}

func TestRunParsesExcel(t *testing.T) {
	svc, repo := newTestService(t)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "order_no"))
	require.NoError(t, f.SetCellValue(sheet, "B1", "biz_date"))
	require.NoError(t, f.SetCellValue(sheet, "C1", "net_amount"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "X-100"))
	require.NoError(t, f.SetCellValue(sheet, "B2", "2026-03-05"))
	require.NoError(t, f.SetCellValue(sheet, "C2", "42.50"))
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	require.NoError(t, f.SaveAs(path))
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	job, err := svc.CreateJob(context.Background(), &shared.Principal{ID: 1}, CreateJobInput{
		FileName:   "orders.xlsx",
		Content:    content,
		TargetType: TargetOrders,
		StoreID:    storeID(3),
	})
	require.NoError(t, err)
	require.Equal(t, SourceExcel, job.SourceType)

	done, err := svc.Run(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, done.Status)
	require.Len(t, repo.orders, 1)
	require.Equal(t, "X-100", repo.orders[0].OrderNo)
	require.Equal(t, "42.5", repo.orders[0].NetAmount.String())
}
