package ports

import (
	"context"

	"github.com/techchallenge/usuarios-api/internal/core/domain"
)

// CreateUserInput carries the self-registration payload.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Address  string
}

// UpdateUserInput carries the editable profile fields.
type UpdateUserInput struct {
	Name    string
	Email   string
	Address string
}

// UpdatePasswordInput carries a password change request.
type UpdatePasswordInput struct {
	Current string
	New     string
}

// UserService defines use-case operations on user accounts. Authorization is
// applied by the caller; the service only enforces data invariants.
type UserService interface {
	Create(ctx context.Context, in CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, id int64, in UpdateUserInput) (*domain.User, error)
	// UpdateRole parses idStr as an integer id and roleStr case-insensitively.
	UpdateRole(ctx context.Context, idStr, roleStr string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, in UpdatePasswordInput) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByNameContaining(ctx context.Context, name string) ([]*domain.User, error)
	ListAll(ctx context.Context) ([]*domain.User, error)
}
