package ports

import (
	"context"

	"github.com/techchallenge/usuarios-api/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
// Email lookups are case-insensitive and email is unique across users.
type UserRepository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// FindByEmail returns domain.ErrUserNotFound on miss.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByID returns domain.ErrUserNotFound on miss.
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByNameContaining(ctx context.Context, substring string, ignoreCase bool) ([]*domain.User, error)
	// Save inserts when user.ID is zero and updates otherwise. A duplicate
	// email surfaces as domain.ErrConflict; updating a missing id as
	// domain.ErrUserNotFound.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	DeleteByID(ctx context.Context, id int64) error
	ListAll(ctx context.Context) ([]*domain.User, error)
}
