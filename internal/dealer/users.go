package dealer

import (
	"context"
	"fmt"

	"github.com/dealerops/dealerctl/internal/store"
)

// Credentials is what sign-in needs to know about a user.
type Credentials struct {
	ID           string
	Username     string
	Role         string
	Active       bool
	PasswordHash string
}

func (s *Service) users() (*Entity, error) {
	e, ok := s.registry.Lookup(UserEntityName)
	if !ok {
		return nil, fmt.Errorf("entity %q is not registered", UserEntityName)
	}
	return e, nil
}

// UserCredentials looks up a user by username, returning store.ErrNotFound
// when there is none.
func (s *Service) UserCredentials(ctx context.Context, username string) (Credentials, error) {
	e, err := s.users()
	if err != nil {
		return Credentials{}, err
	}
	rows, err := s.db.Table(e.Schema()).FindBy(ctx, "username", username)
	if err != nil {
		return Credentials{}, err
	}
	if len(rows) == 0 {
		return Credentials{}, fmt.Errorf("user %s: %w", username, store.ErrNotFound)
	}
	row := rows[0]
	hash, _ := row.Fields["password"].(string)
	role, _ := row.Fields["role"].(string)
	return Credentials{
		ID:           row.ID,
		Username:     username,
		Role:         role,
		Active:       row.Fields["status"] == StatusActive,
		PasswordHash: hash,
	}, nil
}

// UserCount returns the number of users, used to allow creating the first
// user before anyone can sign in.
func (s *Service) UserCount(ctx context.Context) (int, error) {
	e, err := s.users()
	if err != nil {
		return 0, err
	}
	return s.db.Table(e.Schema()).Count(ctx)
}
