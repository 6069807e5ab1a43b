package expenses

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bistrohq/bistroboard/internal/scope"
	"github.com/bistrohq/bistroboard/internal/shared"
)

// TypeStore is the type-tree persistence surface; satisfied by *Repository.
type TypeStore interface {
	ListTypes(ctx context.Context) ([]Type, error)
	GetType(ctx context.Context, id int64) (Type, error)
	InsertType(ctx context.Context, t Type) (Type, error)
	UpdateType(ctx context.Context, t Type) (Type, error)
}

// RecordStore is the record persistence surface; satisfied by *Repository.
type RecordStore interface {
	ListRecords(ctx context.Context, f RecordFilters, stores *scope.StoreSet) ([]Record, int, error)
	GetRecord(ctx context.Context, id int64) (Record, error)
	InsertRecord(ctx context.Context, rec Record) (Record, error)
	UpdateRecord(ctx context.Context, rec Record) (Record, error)
	UpdateRecordStatus(ctx context.Context, id int64, status string, approverID *int64) (Record, error)
	SoftDeleteRecord(ctx context.Context, id int64) error
}

// ScopeGuard is the data-scope surface; satisfied by *scope.Service.
type ScopeGuard interface {
	FilterRequestedStore(ctx context.Context, user *shared.Principal, requested *int64) (*scope.StoreSet, error)
	AssertCanAccessStore(ctx context.Context, user *shared.Principal, storeID int64) error
}

// Service orchestrates expense types and records.
type Service struct {
	types   TypeStore
	records RecordStore
	scope   ScopeGuard
}

// NewService builds the service.
func NewService(types TypeStore, records RecordStore, scopeSvc ScopeGuard) *Service {
	return &Service{types: types, records: records, scope: scopeSvc}
}

// ListTypes returns the full type tree.
func (s *Service) ListTypes(ctx context.Context) ([]Type, error) {
	return s.types.ListTypes(ctx)
}

// CreateType adds a node to the type tree.
func (s *Service) CreateType(ctx context.Context, input CreateTypeInput) (Type, error) {
	if input.ParentID != nil {
		if _, err := s.types.GetType(ctx, *input.ParentID); err != nil {
			return Type{}, fmt.Errorf("expenses: parent type: %w", err)
		}
	}
	return s.types.InsertType(ctx, Type{
		Name:         strings.TrimSpace(input.Name),
		ParentID:     input.ParentID,
		CostBehavior: input.CostBehavior,
		KPIMapping:   input.KPIMapping,
		IsActive:     true,
	})
}

// UpdateType applies partial changes to a type.
func (s *Service) UpdateType(ctx context.Context, id int64, input UpdateTypeInput) (Type, error) {
	t, err := s.types.GetType(ctx, id)
	if err != nil {
		return Type{}, err
	}
	if input.Name != nil {
		t.Name = strings.TrimSpace(*input.Name)
	}
	if input.KPIMapping != nil {
		t.KPIMapping = *input.KPIMapping
	}
	if input.IsActive != nil {
		t.IsActive = *input.IsActive
	}
	return s.types.UpdateType(ctx, t)
}

// UpdateCostBehavior flips a type between fixed and variable. Kept as
// its own operation because it changes how CVP analysis classifies
// every record of this type, past and future.
func (s *Service) UpdateCostBehavior(ctx context.Context, id int64, behavior string) (Type, error) {
	if behavior != BehaviorFixed && behavior != BehaviorVariable {
		return Type{}, fmt.Errorf("expenses: cost_behavior must be fixed or variable")
	}
	t, err := s.types.GetType(ctx, id)
	if err != nil {
		return Type{}, err
	}
	t.CostBehavior = behavior
	return s.types.UpdateType(ctx, t)
}

// ListRecords returns a filtered page within the caller's scope.
func (s *Service) ListRecords(ctx context.Context, user *shared.Principal, f RecordFilters) ([]Record, shared.Pagination, error) {
	stores, err := s.scope.FilterRequestedStore(ctx, user, f.StoreID)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	f.StoreID = nil
	items, total, err := s.records.ListRecords(ctx, f, stores)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(f.Page, f.PerPage, total), nil
}

// GetRecord fetches one record inside the caller's scope.
func (s *Service) GetRecord(ctx context.Context, user *shared.Principal, id int64) (Record, error) {
	rec, err := s.records.GetRecord(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if err := s.scope.AssertCanAccessStore(ctx, user, rec.StoreID); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// CreateRecord stores a new draft record.
func (s *Service) CreateRecord(ctx context.Context, user *shared.Principal, input CreateRecordInput) (Record, error) {
	if err := s.scope.AssertCanAccessStore(ctx, user, input.StoreID); err != nil {
		return Record{}, err
	}
	if !input.Amount.IsPositive() {
		return Record{}, fmt.Errorf("expenses: amount must be positive")
	}
	bizDate, err := time.Parse(time.DateOnly, input.BizDate)
	if err != nil {
		return Record{}, fmt.Errorf("expenses: biz_date must be YYYY-MM-DD")
	}
	if _, err := s.types.GetType(ctx, input.ExpenseTypeID); err != nil {
		return Record{}, fmt.Errorf("expenses: expense type: %w", err)
	}
	var createdBy int64
	if user != nil {
		createdBy = user.ID
	}
	return s.records.InsertRecord(ctx, Record{
		StoreID:       input.StoreID,
		ExpenseTypeID: input.ExpenseTypeID,
		BizDate:       bizDate,
		Amount:        input.Amount,
		Status:        StatusDraft,
		Remark:        strings.TrimSpace(input.Remark),
		CreatedBy:     createdBy,
	})
}

// UpdateRecord edits a draft record.
func (s *Service) UpdateRecord(ctx context.Context, user *shared.Principal, id int64, input UpdateRecordInput) (Record, error) {
	rec, err := s.GetRecord(ctx, user, id)
	if err != nil {
		return Record{}, err
	}
	if rec.Status != StatusDraft {
		return Record{}, ErrNotEditable
	}
	if input.ExpenseTypeID != nil {
		if _, err := s.types.GetType(ctx, *input.ExpenseTypeID); err != nil {
			return Record{}, fmt.Errorf("expenses: expense type: %w", err)
		}
		rec.ExpenseTypeID = *input.ExpenseTypeID
	}
	if input.BizDate != nil {
		d, err := time.Parse(time.DateOnly, *input.BizDate)
		if err != nil {
			return Record{}, fmt.Errorf("expenses: biz_date must be YYYY-MM-DD")
		}
		rec.BizDate = d
	}
	if input.Amount != nil {
		if !input.Amount.IsPositive() {
			return Record{}, fmt.Errorf("expenses: amount must be positive")
		}
		rec.Amount = *input.Amount
	}
	if input.Remark != nil {
		rec.Remark = strings.TrimSpace(*input.Remark)
	}
	return s.records.UpdateRecord(ctx, rec)
}

// transitions maps each status to the statuses it may move to.
var transitions = map[string][]string{
	StatusDraft:     {StatusSubmitted},
	StatusSubmitted: {StatusApproved, StatusRejected},
	StatusApproved:  {StatusPaid},
	StatusRejected:  {StatusDraft},
}

// Transition moves a record along the approval flow. Approvals and
// rejections stamp the acting user as approver.
func (s *Service) Transition(ctx context.Context, user *shared.Principal, id int64, status string) (Record, error) {
	rec, err := s.GetRecord(ctx, user, id)
	if err != nil {
		return Record{}, err
	}
	allowed := false
	for _, next := range transitions[rec.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return Record{}, fmt.Errorf("%w: %s -> %s", ErrBadTransition, rec.Status, status)
	}
	var approver *int64
	if user != nil && (status == StatusApproved || status == StatusRejected) {
		approver = &user.ID
	}
	return s.records.UpdateRecordStatus(ctx, id, status, approver)
}

// DeleteRecord soft-deletes a draft or rejected record.
func (s *Service) DeleteRecord(ctx context.Context, user *shared.Principal, id int64) error {
	rec, err := s.GetRecord(ctx, user, id)
	if err != nil {
		return err
	}
	if rec.Status != StatusDraft && rec.Status != StatusRejected {
		return ErrNotEditable
	}
	return s.records.SoftDeleteRecord(ctx, id)
}
