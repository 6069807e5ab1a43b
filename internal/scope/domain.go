// Package scope computes the set of stores a user may see data for.
//
// The resolved scope is the value every report and list query ANDs into
// its WHERE clause: nil means no restriction, a concrete set means the
// query is limited to exactly those stores.
package scope

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrStoreForbidden indicates the caller explicitly named a store
// outside their granted set. It is the only failure mode of the filter.
var ErrStoreForbidden = errors.New("scope: store access forbidden")

// ForbiddenError carries the offending store and the permitted set for
// the user-visible message.
type ForbiddenError struct {
	StoreID   int64
	Permitted []int64
}

func (e *ForbiddenError) Error() string {
	ids := make([]string, len(e.Permitted))
	for i, id := range e.Permitted {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("you may not access store %d; you may access stores: %s",
		e.StoreID, strings.Join(ids, ", "))
}

func (e *ForbiddenError) Unwrap() error { return ErrStoreForbidden }

// StoreSet is a resolved store restriction. A nil *StoreSet means the
// caller is unrestricted; a non-nil set is never empty by construction.
type StoreSet struct {
	ids map[int64]struct{}
}

// NewStoreSet builds a set from the given ids.
func NewStoreSet(ids ...int64) *StoreSet {
	s := &StoreSet{ids: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Contains reports membership.
func (s *StoreSet) Contains(id int64) bool {
	if s == nil {
		return true
	}
	_, ok := s.ids[id]
	return ok
}

// IDs returns the members sorted ascending, for stable SQL and messages.
func (s *StoreSet) IDs() []int64 {
	if s == nil {
		return nil
	}
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of members, 0 for the unrestricted set.
func (s *StoreSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// Grant records that a user may access a specific store's data.
type Grant struct {
	UserID    int64     `json:"user_id"`
	StoreID   int64     `json:"store_id"`
	CreatedAt time.Time `json:"created_at"`
}
