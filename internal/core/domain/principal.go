package domain

import (
	"context"
	"time"
)

const authorityPrefix = "ROLE_"

// Principal is the authenticated identity bound to a request.
type Principal struct {
	Email       string
	Role        Role
	Authorities []string
}

// NewPrincipal builds a principal holding the single authority "ROLE_<role>".
func NewPrincipal(email string, role Role) Principal {
	return Principal{
		Email:       email,
		Role:        role,
		Authorities: []string{authorityPrefix + string(role)},
	}
}

// IsAdmin reports whether the principal carries the ADMIN authority.
func (p Principal) IsAdmin() bool {
	return p.HasAnyRole(RoleAdmin)
}

// HasAnyRole reports whether at least one granted authority matches roles.
func (p Principal) HasAnyRole(roles ...Role) bool {
	for _, granted := range p.Authorities {
		for _, r := range roles {
			if granted == authorityPrefix+string(r) {
				return true
			}
		}
	}
	return false
}

// TokenClaims is what the token codec recovers from a valid token.
type TokenClaims struct {
	Subject   string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Identity is the view of the caller returned by the "me" endpoint.
type Identity struct {
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Role      string
	ID        int64
	Name      string
	Address   string
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom extracts the principal stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
