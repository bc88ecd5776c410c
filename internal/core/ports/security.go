package ports

import (
	"context"
	"time"

	"github.com/techchallenge/usuarios-api/internal/core/domain"
)

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Matches(plaintext, hash string) bool
}

// TokenCodec mints and parses signed access tokens.
type TokenCodec interface {
	Issue(subject, role string, now time.Time) (string, error)
	// Parse fails with domain.ErrTokenMalformed, domain.ErrTokenBadSignature
	// or domain.ErrTokenExpired.
	Parse(token string, now time.Time) (domain.TokenClaims, error)
}

// RoleCache holds recently resolved roles keyed by email.
type RoleCache interface {
	Get(ctx context.Context, email string) (domain.Role, bool, error)
	Set(ctx context.Context, email string, role domain.Role) error
	Invalidate(ctx context.Context, email string) error
}
