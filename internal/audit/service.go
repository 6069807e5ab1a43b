package audit

import (
	"context"
	"log/slog"

	"github.com/bistrohq/bistroboard/internal/shared"
)

// Store persists and lists entries; satisfied by *Repository.
type Store interface {
	Insert(ctx context.Context, e Entry) error
	List(ctx context.Context, f ListFilters) ([]Entry, int, error)
}

// Service records and lists audit entries. Recording is best-effort:
// a failed audit write is logged but never fails the caller's request.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService builds the service.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Record writes an entry attributed to the given principal.
func (s *Service) Record(ctx context.Context, actor *shared.Principal, e Entry) {
	if actor != nil {
		e.UserID = &actor.ID
		e.Username = actor.Username
	}
	if err := s.store.Insert(ctx, e); err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.String("action", e.Action), slog.Any("error", err))
	}
}

// List returns entries matching the filters.
func (s *Service) List(ctx context.Context, f ListFilters) ([]Entry, int, error) {
	return s.store.List(ctx, f)
}
