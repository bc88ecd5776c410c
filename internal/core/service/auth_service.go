package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/techchallenge/usuarios-api/internal/core/domain"
	"github.com/techchallenge/usuarios-api/internal/core/ports"
)

const bearerPrefix = "Bearer "

// AuthService implements login and token-based identity lookup.
type AuthService struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenCodec
	log    zerolog.Logger
	now    func() time.Time
}

func NewAuthService(users ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenCodec, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		log:    log,
		now:    time.Now,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrEmailNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	if !s.hasher.Matches(password, user.PasswordHash) {
		s.log.Debug().Int64("user_id", user.ID).Msg("login rejected: password mismatch")
		return nil, domain.ErrInvalidPassword
	}

	token, err := s.tokens.Issue(user.Email, user.Role.String(), s.now())
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Str("role", user.Role.String()).Msg("user logged in")
	return &ports.LoginResult{Status: "ok", Message: "logged", Token: token}, nil
}

func (s *AuthService) IdentityFromAuthHeader(ctx context.Context, header string) (*domain.Identity, error) {
	raw, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, domain.ErrInvalidToken
	}

	claims, err := s.tokens.Parse(strings.TrimSpace(raw), s.now())
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrInvalidToken
	}

	user, err := s.users.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	return &domain.Identity{
		Email:     claims.Subject,
		IssuedAt:  claims.IssuedAt,
		ExpiresAt: claims.ExpiresAt,
		Role:      claims.Role,
		ID:        user.ID,
		Name:      user.Name,
		Address:   user.Address,
	}, nil
}
