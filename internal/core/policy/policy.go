// Package policy holds the role and ownership gates applied to user endpoints.
package policy

import (
	"context"

	"github.com/techchallenge/usuarios-api/internal/core/domain"
)

var (
	// AdminOnly guards listing and role management.
	AdminOnly = []domain.Role{domain.RoleAdmin}
	// AnyUser guards self-service endpoints.
	AnyUser = []domain.Role{domain.RoleAdmin, domain.RoleClient, domain.RoleDono}
)

// RequireAnyRole fails with domain.ErrAccessDenied unless p holds one of roles.
func RequireAnyRole(p domain.Principal, roles ...domain.Role) error {
	if p.HasAnyRole(roles...) {
		return nil
	}
	return domain.ErrAccessDenied
}

// CheckOwnership lets administrators through and otherwise requires the
// principal to be the target user.
func CheckOwnership(p domain.Principal, target *domain.User) error {
	if p.IsAdmin() {
		return nil
	}
	if target != nil && target.OwnedBy(p.Email) {
		return nil
	}
	return domain.ErrForbidden
}

// UserFinder is the lookup the guard needs to resolve a target.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}

// Guard resolves a target user and applies the ownership gate.
type Guard struct {
	users UserFinder
}

func NewGuard(users UserFinder) *Guard {
	return &Guard{users: users}
}

// LoadOwned loads user id and checks that p may act on it. A missing user
// yields domain.ErrUserNotFound before ownership is evaluated.
func (g *Guard) LoadOwned(ctx context.Context, p domain.Principal, id int64) (*domain.User, error) {
	target, err := g.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckOwnership(p, target); err != nil {
		return nil, err
	}
	return target, nil
}
