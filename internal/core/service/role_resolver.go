package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/techchallenge/usuarios-api/internal/core/domain"
	"github.com/techchallenge/usuarios-api/internal/core/ports"
)

// RoleResolver reads a user's current role from the store, going through
// the cache first when one is configured.
type RoleResolver struct {
	users ports.UserRepository
	cache ports.RoleCache
	log   zerolog.Logger
}

func NewRoleResolver(users ports.UserRepository, cache ports.RoleCache, log zerolog.Logger) *RoleResolver {
	return &RoleResolver{users: users, cache: cache, log: log}
}

// CurrentRole returns domain.ErrUserNotFound when email no longer exists.
func (r *RoleResolver) CurrentRole(ctx context.Context, email string) (domain.Role, error) {
	if r.cache != nil {
		role, ok, err := r.cache.Get(ctx, email)
		if err != nil {
			r.log.Warn().Err(err).Msg("role cache read failed")
		} else if ok {
			return role, nil
		}
	}

	user, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, email, user.Role); err != nil {
			r.log.Warn().Err(err).Msg("role cache write failed")
		}
	}
	return user.Role, nil
}
