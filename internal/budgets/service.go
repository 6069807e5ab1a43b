package budgets

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/bistrohq/bistroboard/internal/shared"
)

// Store is the persistence surface; satisfied by *Repository.
type Store interface {
	ListMonth(ctx context.Context, storeID int64, year, month int) ([]Entry, error)
	ReplaceMonth(ctx context.Context, storeID int64, year, month int, items []BatchItem) error
	BudgetByType(ctx context.Context, storeID int64, year, month int) (map[int64]TypeAmount, error)
	ActualByType(ctx context.Context, storeID int64, year, month int) (map[int64]TypeAmount, error)
}

// ScopeGuard is the data-scope surface; satisfied by *scope.Service.
type ScopeGuard interface {
	AssertCanAccessStore(ctx context.Context, user *shared.Principal, storeID int64) error
}

// Service orchestrates budget entry and variance analysis.
type Service struct {
	store Store
	scope ScopeGuard
}

// NewService builds the service.
func NewService(store Store, scopeSvc ScopeGuard) *Service {
	return &Service{store: store, scope: scopeSvc}
}

// ListMonth returns the stored budget for (store, year, month).
func (s *Service) ListMonth(ctx context.Context, user *shared.Principal, storeID int64, year, month int) ([]Entry, error) {
	if err := s.scope.AssertCanAccessStore(ctx, user, storeID); err != nil {
		return nil, err
	}
	return s.store.ListMonth(ctx, storeID, year, month)
}

// BatchSave upserts a full month's budget for one store. Lines for
// types not present in the batch are left untouched.
func (s *Service) BatchSave(ctx context.Context, user *shared.Principal, input BatchSaveInput) error {
	if err := s.scope.AssertCanAccessStore(ctx, user, input.StoreID); err != nil {
		return err
	}
	return s.store.ReplaceMonth(ctx, input.StoreID, input.Year, input.Month, input.Items)
}

// Analyze compares budget to actual approved spend for the month.
func (s *Service) Analyze(ctx context.Context, user *shared.Principal, storeID int64, year, month int) (Analysis, error) {
	if err := s.scope.AssertCanAccessStore(ctx, user, storeID); err != nil {
		return Analysis{}, err
	}
	budget, err := s.store.BudgetByType(ctx, storeID, year, month)
	if err != nil {
		return Analysis{}, err
	}
	actual, err := s.store.ActualByType(ctx, storeID, year, month)
	if err != nil {
		return Analysis{}, err
	}

	rows := ComputeVariance(budget, actual)
	totalBudget, totalActual := decimal.Zero, decimal.Zero
	for _, row := range rows {
		totalBudget = totalBudget.Add(row.Budget)
		totalActual = totalActual.Add(row.Actual)
	}
	return Analysis{
		StoreID:     storeID,
		Year:        year,
		Month:       month,
		TotalBudget: totalBudget,
		TotalActual: totalActual,
		Rows:        rows,
	}, nil
}
