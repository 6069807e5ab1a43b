package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/bistrohq/bistroboard/internal/shared"
	"github.com/bistrohq/bistroboard/internal/users"
)

// UserLookup resolves accounts for login; satisfied by *users.Repository.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (users.User, error)
}

// Service authenticates credentials and issues tokens.
type Service struct {
	lookup UserLookup
	tokens *TokenManager
}

// NewService builds the service.
func NewService(lookup UserLookup, tokens *TokenManager) *Service {
	return &Service{lookup: lookup, tokens: tokens}
}

// Login verifies credentials and returns a signed token plus the principal.
func (s *Service) Login(ctx context.Context, username, password string) (string, *shared.Principal, error) {
	u, err := s.lookup.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", nil, shared.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !u.IsActive {
		return "", nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}
	principal := shared.Principal{ID: u.ID, Username: u.Username, IsSuperuser: u.IsSuperuser}
	token, err := s.tokens.Issue(principal)
	if err != nil {
		return "", nil, err
	}
	return token, &principal, nil
}
