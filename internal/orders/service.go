package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bistrohq/bistroboard/internal/scope"
	"github.com/bistrohq/bistroboard/internal/shared"
)

// Store is the persistence surface the service needs; satisfied by
// *Repository.
type Store interface {
	List(ctx context.Context, f ListFilters, stores *scope.StoreSet) ([]Order, int, error)
	Get(ctx context.Context, id int64) (Order, error)
	Insert(ctx context.Context, o Order) (Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) (Order, error)
	Delete(ctx context.Context, id int64) error
}

// ScopeGuard is the data-scope surface; satisfied by *scope.Service.
type ScopeGuard interface {
	FilterRequestedStore(ctx context.Context, user *shared.Principal, requested *int64) (*scope.StoreSet, error)
	AssertCanAccessStore(ctx context.Context, user *shared.Principal, storeID int64) error
}

// Service orchestrates order CRUD with data-scope enforcement.
type Service struct {
	repo  Store
	scope ScopeGuard
}

// NewService builds the service.
func NewService(repo Store, scopeSvc ScopeGuard) *Service {
	return &Service{repo: repo, scope: scopeSvc}
}

// List returns a filtered page within the caller's accessible stores.
func (s *Service) List(ctx context.Context, user *shared.Principal, f ListFilters) ([]Order, shared.Pagination, error) {
	stores, err := s.scope.FilterRequestedStore(ctx, user, f.StoreID)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	// The scope set already reflects the explicit store filter, so the
	// repository only needs the set.
	f.StoreID = nil
	items, total, err := s.repo.List(ctx, f, stores)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(f.Page, f.PerPage, total), nil
}

// Get fetches one order, checking the order's store against the
// caller's scope after the row is loaded.
func (s *Service) Get(ctx context.Context, user *shared.Principal, id int64) (Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if err := s.scope.AssertCanAccessStore(ctx, user, o.StoreID); err != nil {
		return Order{}, err
	}
	return o, nil
}

// Create records a completed order with its items. Line amounts and
// header totals are derived here, never trusted from the request.
func (s *Service) Create(ctx context.Context, user *shared.Principal, input CreateOrderInput) (Order, error) {
	if err := s.scope.AssertCanAccessStore(ctx, user, input.StoreID); err != nil {
		return Order{}, err
	}
	bizDate, err := time.Parse(time.DateOnly, input.BizDate)
	if err != nil {
		return Order{}, fmt.Errorf("orders: biz_date must be YYYY-MM-DD")
	}

	gross := decimal.Zero
	items := make([]Item, 0, len(input.Items))
	for _, in := range input.Items {
		amount := in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity)))
		gross = gross.Add(amount)
		items = append(items, Item{
			ProductID: in.ProductID,
			Name:      strings.TrimSpace(in.Name),
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
			Amount:    amount,
		})
	}
	if input.DiscountAmount.IsNegative() {
		return Order{}, fmt.Errorf("orders: discount_amount must not be negative")
	}
	net := gross.Sub(input.DiscountAmount)
	if net.IsNegative() {
		return Order{}, fmt.Errorf("orders: discount exceeds gross amount")
	}

	return s.repo.Insert(ctx, Order{
		OrderNo:        strings.TrimSpace(input.OrderNo),
		StoreID:        input.StoreID,
		BizDate:        bizDate,
		Channel:        input.Channel,
		Status:         StatusCompleted,
		GrossAmount:    gross,
		DiscountAmount: input.DiscountAmount,
		NetAmount:      net,
		Remark:         strings.TrimSpace(input.Remark),
		Items:          items,
	})
}

// transitions maps each status to the statuses it may move to.
var transitions = map[string][]string{
	StatusDraft:     {StatusCompleted, StatusCancelled},
	StatusCompleted: {StatusRefunded},
}

// UpdateStatus moves an order along the allowed transitions.
func (s *Service) UpdateStatus(ctx context.Context, user *shared.Principal, id int64, status string) (Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if err := s.scope.AssertCanAccessStore(ctx, user, o.StoreID); err != nil {
		return Order{}, err
	}
	allowed := false
	for _, next := range transitions[o.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return Order{}, fmt.Errorf("%w: %s -> %s", ErrBadTransition, o.Status, status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// Delete removes a draft order. Completed orders are immutable history
// and can only be refunded, never deleted.
func (s *Service) Delete(ctx context.Context, user *shared.Principal, id int64) error {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.scope.AssertCanAccessStore(ctx, user, o.StoreID); err != nil {
		return err
	}
	if o.Status != StatusDraft {
		return ErrNotDraft
	}
	return s.repo.Delete(ctx, id)
}
