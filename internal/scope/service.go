package scope

import (
	"context"

	"github.com/bistrohq/bistroboard/internal/shared"
)

// GrantReader is the lookup the filter needs; satisfied by *Repository.
type GrantReader interface {
	GrantedStoreIDs(ctx context.Context, userID int64) ([]int64, error)
}

// Service resolves effective store restrictions for a principal.
type Service struct {
	grants GrantReader
}

// NewService builds the service.
func NewService(grants GrantReader) *Service {
	return &Service{grants: grants}
}

// ResolveAccessibleStores returns the stores the user may see.
//
// nil means no restriction. Superusers are always unrestricted. A
// non-superuser with zero grant rows is also unrestricted: grants were
// added after the fact, and users predating them keep full visibility.
// Empty-set-means-deny is deliberately NOT the policy here.
func (s *Service) ResolveAccessibleStores(ctx context.Context, user *shared.Principal) (*StoreSet, error) {
	if user.IsSuperuser {
		return nil, nil
	}
	ids, err := s.grants.GrantedStoreIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return NewStoreSet(ids...), nil
}

// AssertCanAccessStore fails with a ForbiddenError when the store is
// outside the user's resolved scope. Used for single-entity lookups
// where the entity's store must be checked after the fetch.
func (s *Service) AssertCanAccessStore(ctx context.Context, user *shared.Principal, storeID int64) error {
	set, err := s.ResolveAccessibleStores(ctx, user)
	if err != nil {
		return err
	}
	if set == nil {
		return nil
	}
	if !set.Contains(storeID) {
		return &ForbiddenError{StoreID: storeID, Permitted: set.IDs()}
	}
	return nil
}

// FilterRequestedStore narrows the resolved scope by an optional
// explicitly requested store, for list and report endpoints.
//
// Unrestricted + no request  -> nil (no filter)
// Unrestricted + request     -> singleton of the requested store
// Restricted + request       -> singleton if granted, ForbiddenError otherwise
// Restricted + no request    -> the full granted set
func (s *Service) FilterRequestedStore(ctx context.Context, user *shared.Principal, requestedStoreID *int64) (*StoreSet, error) {
	set, err := s.ResolveAccessibleStores(ctx, user)
	if err != nil {
		return nil, err
	}
	if set == nil {
		if requestedStoreID != nil {
			return NewStoreSet(*requestedStoreID), nil
		}
		return nil, nil
	}
	if requestedStoreID != nil {
		if !set.Contains(*requestedStoreID) {
			return nil, &ForbiddenError{StoreID: *requestedStoreID, Permitted: set.IDs()}
		}
		return NewStoreSet(*requestedStoreID), nil
	}
	return set, nil
}

// GrantWriter extends GrantReader with the admin write path.
type GrantWriter interface {
	ListGrants(ctx context.Context, userID int64) ([]Grant, error)
	ReplaceGrants(ctx context.Context, userID int64, storeIDs []int64) error
}

// Admin wraps the grant write operations exposed to administrators.
type Admin struct {
	grants GrantWriter
}

// NewAdmin builds the admin facade.
func NewAdmin(grants GrantWriter) *Admin {
	return &Admin{grants: grants}
}

// ListGrants returns the grant rows for a user.
func (a *Admin) ListGrants(ctx context.Context, userID int64) ([]Grant, error) {
	return a.grants.ListGrants(ctx, userID)
}

// AssignStores replaces the user's grants with the given stores.
// This is a full replace, not an incremental diff.
func (a *Admin) AssignStores(ctx context.Context, userID int64, storeIDs []int64) error {
	seen := make(map[int64]struct{}, len(storeIDs))
	unique := make([]int64, 0, len(storeIDs))
	for _, id := range storeIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return a.grants.ReplaceGrants(ctx, userID, unique)
}
