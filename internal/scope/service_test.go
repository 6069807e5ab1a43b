package scope

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bistrohq/bistroboard/internal/shared"
)

type stubGrants struct {
	byUser map[int64][]int64
}

func (s stubGrants) GrantedStoreIDs(_ context.Context, userID int64) ([]int64, error) {
	return s.byUser[userID], nil
}

func TestResolveAccessibleStoresSuperuser(t *testing.T) {
	svc := NewService(stubGrants{byUser: map[int64][]int64{1: {3, 7}}})
	set, err := svc.ResolveAccessibleStores(context.Background(), &shared.Principal{ID: 1, IsSuperuser: true})
	require.NoError(t, err)
	// Grant rows present, but superusers bypass scoping entirely.
	require.Nil(t, set)
}

func TestResolveAccessibleStoresNoGrantsMeansUnrestricted(t *testing.T) {
	svc := NewService(stubGrants{byUser: map[int64][]int64{}})
	set, err := svc.ResolveAccessibleStores(context.Background(), &shared.Principal{ID: 2})
	require.NoError(t, err)
	// Zero grants is the backward-compatible "unrestricted" case, not deny-all.
	require.Nil(t, set)
}

func TestResolveAccessibleStoresWithGrants(t *testing.T) {
	svc := NewService(stubGrants{byUser: map[int64][]int64{2: {3, 7}}})
	set, err := svc.ResolveAccessibleStores(context.Background(), &shared.Principal{ID: 2})
	require.NoError(t, err)
	require.NotNil(t, set)
	require.Equal(t, []int64{3, 7}, set.IDs())
}

func TestAssertCanAccessStore(t *testing.T) {
	svc := NewService(stubGrants{byUser: map[int64][]int64{2: {3, 7}}})
	user := &shared.Principal{ID: 2}

	require.NoError(t, svc.AssertCanAccessStore(context.Background(), user, 3))

	err := svc.AssertCanAccessStore(context.Background(), user, 5)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrStoreForbidden)

	var forbidden *ForbiddenError
	require.True(t, errors.As(err, &forbidden))
	require.Equal(t, int64(5), forbidden.StoreID)
	require.Equal(t, []int64{3, 7}, forbidden.Permitted)
}

func TestFilterRequestedStoreRestricted(t *testing.T) {
	svc := NewService(stubGrants{byUser: map[int64][]int64{2: {3, 7}}})
	user := &shared.Principal{ID: 2}
	five := int64(5)
	seven := int64(7)

	_, err := svc.FilterRequestedStore(context.Background(), user, &five)
	require.ErrorIs(t, err, ErrStoreForbidden)

	set, err := svc.FilterRequestedStore(context.Background(), user, &seven)
	require.NoError(t, err)
	require.Equal(t, []int64{7}, set.IDs())

	set, err = svc.FilterRequestedStore(context.Background(), user, nil)
	require.NoError(t, err)
	require.Equal(t, []int64{3, 7}, set.IDs())
}

func TestFilterRequestedStoreUnrestrictedNarrows(t *testing.T) {
	svc := NewService(stubGrants{byUser: map[int64][]int64{}})
	user := &shared.Principal{ID: 9}
	five := int64(5)

	// An explicit request narrows even an unrestricted user to one store.
	set, err := svc.FilterRequestedStore(context.Background(), user, &five)
	require.NoError(t, err)
	require.NotNil(t, set)
	require.Equal(t, []int64{5}, set.IDs())

	set, err = svc.FilterRequestedStore(context.Background(), user, nil)
	require.NoError(t, err)
	require.Nil(t, set)
}

func TestStoreSetContainsNilIsUnrestricted(t *testing.T) {
	var set *StoreSet
	require.True(t, set.Contains(42))
	require.Zero(t, set.Len())
	require.Nil(t, set.IDs())
}
