package ports

import (
	"context"

	"github.com/techchallenge/usuarios-api/internal/core/domain"
)

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Status  string
	Message string
	Token   string
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	IdentityFromAuthHeader(ctx context.Context, header string) (*domain.Identity, error)
}
