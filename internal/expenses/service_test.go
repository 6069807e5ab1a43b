package expenses

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bistrohq/bistroboard/internal/scope"
	"github.com/bistrohq/bistroboard/internal/shared"
)

type stubTypes struct {
	types map[int64]Type
}

func (s *stubTypes) ListTypes(context.Context) ([]Type, error) { return nil, nil }

func (s *stubTypes) GetType(_ context.Context, id int64) (Type, error) {
	t, ok := s.types[id]
	if !ok {
		return Type{}, shared.ErrNotFound
	}
	return t, nil
}

func (s *stubTypes) InsertType(_ context.Context, t Type) (Type, error) {
	t.ID = int64(len(s.types) + 1)
	s.types[t.ID] = t
	return t, nil
}

func (s *stubTypes) UpdateType(_ context.Context, t Type) (Type, error) {
	s.types[t.ID] = t
	return t, nil
}

type stubRecords struct {
	records map[int64]Record
	nextID  int64
}

func (s *stubRecords) ListRecords(context.Context, RecordFilters, *scope.StoreSet) ([]Record, int, error) {
	return nil, 0, nil
}

func (s *stubRecords) GetRecord(_ context.Context, id int64) (Record, error) {
	rec, ok := s.records[id]
	if !ok {
		return Record{}, shared.ErrNotFound
	}
	return rec, nil
}

func (s *stubRecords) InsertRecord(_ context.Context, rec Record) (Record, error) {
	s.nextID++
	rec.ID = s.nextID
	s.records[rec.ID] = rec
	return rec, nil
}

func (s *stubRecords) UpdateRecord(_ context.Context, rec Record) (Record, error) {
	s.records[rec.ID] = rec
	return rec, nil
}

func (s *stubRecords) UpdateRecordStatus(_ context.Context, id int64, status string, approverID *int64) (Record, error) {
	rec := s.records[id]
	rec.Status = status
	rec.ApprovedBy = approverID
	s.records[id] = rec
	return rec, nil
}

func (s *stubRecords) SoftDeleteRecord(_ context.Context, id int64) error {
	delete(s.records, id)
	return nil
}

type openScope struct{}

func (openScope) FilterRequestedStore(context.Context, *shared.Principal, *int64) (*scope.StoreSet, error) {
	return nil, nil
}

func (openScope) AssertCanAccessStore(context.Context, *shared.Principal, int64) error {
	return nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestService() (*Service, *stubTypes, *stubRecords) {
	types := &stubTypes{types: map[int64]Type{
		1: {ID: 1, Name: "Ingredients", CostBehavior: BehaviorVariable, KPIMapping: "material", IsActive: true},
	}}
	records := &stubRecords{records: map[int64]Record{}}
	return NewService(types, records, openScope{}), types, records
}

func TestCreateRecordStartsAsDraft(t *testing.T) {
	svc, _, _ := newTestService()
	actor := &shared.Principal{ID: 7, Username: "clerk"}

	rec, err := svc.CreateRecord(context.Background(), actor, CreateRecordInput{
		StoreID:       3,
		ExpenseTypeID: 1,
		BizDate:       "2026-03-15",
		Amount:        dec("120.50"),
	})
	require.NoError(t, err)
	require.Equal(t, StatusDraft, rec.Status)
	require.Equal(t, int64(7), rec.CreatedBy)
}

func TestCreateRecordRejectsNonPositiveAmount(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.CreateRecord(context.Background(), nil, CreateRecordInput{
		StoreID:       3,
		ExpenseTypeID: 1,
		BizDate:       "2026-03-15",
		Amount:        dec("0"),
	})
	require.Error(t, err)
}

func TestApprovalFlow(t *testing.T) {
	svc, _, records := newTestService()
	approver := &shared.Principal{ID: 9, Username: "manager"}
	records.records[1] = Record{ID: 1, StoreID: 3, Status: StatusDraft}

	rec, err := svc.Transition(context.Background(), approver, 1, StatusSubmitted)
	require.NoError(t, err)
	require.Equal(t, StatusSubmitted, rec.Status)
	require.Nil(t, rec.ApprovedBy, "submitting does not stamp an approver")

	rec, err = svc.Transition(context.Background(), approver, 1, StatusApproved)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, rec.Status)
	require.NotNil(t, rec.ApprovedBy)
	require.Equal(t, int64(9), *rec.ApprovedBy)

	rec, err = svc.Transition(context.Background(), approver, 1, StatusPaid)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, rec.Status)
}

func TestTransitionRejectsSkippingApproval(t *testing.T) {
	svc, _, records := newTestService()
	records.records[1] = Record{ID: 1, StoreID: 3, Status: StatusDraft}

	_, err := svc.Transition(context.Background(), nil, 1, StatusPaid)
	require.ErrorIs(t, err, ErrBadTransition)

	_, err = svc.Transition(context.Background(), nil, 1, StatusApproved)
	require.ErrorIs(t, err, ErrBadTransition, "draft must be submitted before approval")
}

func TestRejectedReturnsToDraft(t *testing.T) {
	svc, _, records := newTestService()
	records.records[1] = Record{ID: 1, StoreID: 3, Status: StatusRejected}

	rec, err := svc.Transition(context.Background(), nil, 1, StatusDraft)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, rec.Status)
}

func TestUpdateRecordDraftOnly(t *testing.T) {
	svc, _, records := newTestService()
	records.records[1] = Record{ID: 1, StoreID: 3, Status: StatusApproved, ExpenseTypeID: 1}

	amount := dec("99")
	_, err := svc.UpdateRecord(context.Background(), nil, 1, UpdateRecordInput{Amount: &amount})
	require.ErrorIs(t, err, ErrNotEditable)
}

func TestDeleteRecordApprovedRefused(t *testing.T) {
	svc, _, records := newTestService()
	records.records[1] = Record{ID: 1, StoreID: 3, Status: StatusPaid}
	require.ErrorIs(t, svc.DeleteRecord(context.Background(), nil, 1), ErrNotEditable)

	records.records[2] = Record{ID: 2, StoreID: 3, Status: StatusDraft}
	require.NoError(t, svc.DeleteRecord(context.Background(), nil, 2))
}

func TestUpdateCostBehavior(t *testing.T) {
	svc, types, _ := newTestService()

	got, err := svc.UpdateCostBehavior(context.Background(), 1, BehaviorFixed)
	require.NoError(t, err)
	require.Equal(t, BehaviorFixed, got.CostBehavior)
	require.Equal(t, BehaviorFixed, types.types[1].CostBehavior)

	_, err = svc.UpdateCostBehavior(context.Background(), 1, "stepped")
	require.Error(t, err)
}
