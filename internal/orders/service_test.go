package orders

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bistrohq/bistroboard/internal/scope"
	"github.com/bistrohq/bistroboard/internal/shared"
)

type stubStore struct {
	orders   map[int64]Order
	inserted *Order
}

func (s *stubStore) List(_ context.Context, _ ListFilters, _ *scope.StoreSet) ([]Order, int, error) {
	return nil, 0, nil
}

func (s *stubStore) Get(_ context.Context, id int64) (Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return Order{}, shared.ErrNotFound
	}
	return o, nil
}

func (s *stubStore) Insert(_ context.Context, o Order) (Order, error) {
	o.ID = 1
	s.inserted = &o
	return o, nil
}

func (s *stubStore) UpdateStatus(_ context.Context, id int64, status string) (Order, error) {
	o := s.orders[id]
	o.Status = status
	return o, nil
}

func (s *stubStore) Delete(_ context.Context, id int64) error {
	delete(s.orders, id)
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

func TestCreateDerivesTotals(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, openScope{})

	o, err := svc.Create(context.Background(), nil, CreateOrderInput{
		OrderNo: "S01-0042",
		StoreID: 1,
		BizDate: "2026-03-15",
		Channel: "dine_in",
		Items: []CreateItemInput{
			{ProductID: 10, Name: "Ramen", Quantity: 2, UnitPrice: dec("45")},
			{ProductID: 11, Name: "Gyoza", Quantity: 1, UnitPrice: dec("18")},
		},
		DiscountAmount: dec("8"),
	})
	require.NoError(t, err)
	require.True(t, o.GrossAmount.Equal(dec("108")))
	require.True(t, o.NetAmount.Equal(dec("100")))
	require.Equal(t, StatusCompleted, o.Status)
	require.Len(t, o.Items, 2)
	require.True(t, o.Items[0].Amount.Equal(dec("90")), "line amount is qty * unit price")
}

func TestCreateRejectsExcessiveDiscount(t *testing.T) {
	svc := NewService(&stubStore{}, openScope{})
	_, err := svc.Create(context.Background(), nil, CreateOrderInput{
		OrderNo: "S01-0043",
		StoreID: 1,
		BizDate: "2026-03-15",
		Channel: "takeout",
		Items: []CreateItemInput{
			{ProductID: 10, Name: "Ramen", Quantity: 1, UnitPrice: dec("45")},
		},
		DiscountAmount: dec("50"),
	})
	require.Error(t, err)
}

func TestUpdateStatusTransitions(t *testing.T) {
	store := &stubStore{orders: map[int64]Order{
		1: {ID: 1, StoreID: 3, Status: StatusCompleted},
		2: {ID: 2, StoreID: 3, Status: StatusRefunded},
	}}
	svc := NewService(store, openScope{})

	o, err := svc.UpdateStatus(context.Background(), nil, 1, StatusRefunded)
	require.NoError(t, err)
	require.Equal(t, StatusRefunded, o.Status)

	_, err = svc.UpdateStatus(context.Background(), nil, 2, StatusCompleted)
	require.ErrorIs(t, err, ErrBadTransition)
}

func TestDeleteOnlyDrafts(t *testing.T) {
	store := &stubStore{orders: map[int64]Order{
		1: {ID: 1, StoreID: 3, Status: StatusCompleted},
		2: {ID: 2, StoreID: 3, Status: StatusDraft},
	}}
	svc := NewService(store, openScope{})

	require.ErrorIs(t, svc.Delete(context.Background(), nil, 1), ErrNotDraft)
	require.NoError(t, svc.Delete(context.Background(), nil, 2))
}

type denyScope struct{ openScope }

func (denyScope) AssertCanAccessStore(_ context.Context, _ *shared.Principal, storeID int64) error {
	return &scope.ForbiddenError{StoreID: storeID, Permitted: []int64{1}}
}

func TestGetChecksOrderStore(t *testing.T) {
	store := &stubStore{orders: map[int64]Order{
		1: {ID: 1, StoreID: 9, Status: StatusCompleted},
	}}
	svc := NewService(store, denyScope{})

	_, err := svc.Get(context.Background(), nil, 1)
	require.ErrorIs(t, err, scope.ErrStoreForbidden)
}
