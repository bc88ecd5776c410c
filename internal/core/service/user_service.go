package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/techchallenge/usuarios-api/internal/core/domain"
	"github.com/techchallenge/usuarios-api/internal/core/ports"
)

// UserService implements account management on top of a UserRepository.
// The role cache is optional; when set, entries are dropped whenever a
// user's role or email may have changed.
type UserService struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	roles  ports.RoleCache
	log    zerolog.Logger
	now    func() time.Time
}

func NewUserService(users ports.UserRepository, hasher ports.PasswordHasher, roles ports.RoleCache, log zerolog.Logger) *UserService {
	return &UserService{
		users:  users,
		hasher: hasher,
		roles:  roles,
		log:    log,
		now:    time.Now,
	}
}

func (s *UserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	email := strings.TrimSpace(in.Email)

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, domain.ErrEmailInUse
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	saved, err := s.users.Save(ctx, &domain.User{
		Name:          in.Name,
		Email:         email,
		PasswordHash:  hash,
		Address:       in.Address,
		Role:          domain.RoleClient,
		LastUpdatedAt: s.timestamp(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.ErrEmailInUse
		}
		return nil, fmt.Errorf("save user: %w", err)
	}

	s.log.Info().Int64("user_id", saved.ID).Msg("user registered")
	return saved, nil
}

func (s *UserService) Update(ctx context.Context, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previousEmail := user.Email
	email := strings.TrimSpace(in.Email)
	if !strings.EqualFold(email, previousEmail) {
		exists, err := s.users.ExistsByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if exists {
			return nil, domain.ErrEmailInUse
		}
	}

	user.Name = in.Name
	user.Email = email
	user.Address = in.Address
	user.LastUpdatedAt = s.timestamp()

	saved, err := s.persist(ctx, user)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, previousEmail)
	return saved, nil
}

func (s *UserService) UpdateRole(ctx context.Context, idStr, roleStr string) (*domain.User, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
	if err != nil || id <= 0 {
		return nil, domain.ErrInvalidUserID
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	role, err := domain.ParseRole(roleStr)
	if err != nil {
		return nil, err
	}

	user.Role = role
	user.LastUpdatedAt = s.timestamp()

	saved, err := s.persist(ctx, user)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, saved.Email)

	s.log.Info().Int64("user_id", saved.ID).Str("role", role.String()).Msg("user role changed")
	return saved, nil
}

func (s *UserService) UpdatePassword(ctx context.Context, id int64, in ports.UpdatePasswordInput) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !s.hasher.Matches(in.Current, user.PasswordHash) {
		return domain.ErrWrongCurrentPassword
	}

	hash, err := s.hasher.Hash(in.New)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.LastUpdatedAt = s.timestamp()

	_, err = s.persist(ctx, user)
	return err
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, user.Email)

	s.log.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

func (s *UserService) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) FindByNameContaining(ctx context.Context, name string) ([]*domain.User, error) {
	term := strings.TrimSpace(name)
	if term == "" {
		return nil, domain.ErrNameRequired
	}
	return s.users.FindByNameContaining(ctx, term, true)
}

func (s *UserService) ListAll(ctx context.Context) ([]*domain.User, error) {
	return s.users.ListAll(ctx)
}

func (s *UserService) persist(ctx context.Context, user *domain.User) (*domain.User, error) {
	saved, err := s.users.Save(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.ErrEmailInUse
		}
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("save user: %w", err)
	}
	return saved, nil
}

func (s *UserService) invalidate(ctx context.Context, email string) {
	if s.roles == nil {
		return
	}
	if err := s.roles.Invalidate(ctx, email); err != nil {
		s.log.Warn().Err(err).Msg("role cache invalidation failed")
	}
}

// Stores keep millisecond precision at best.
func (s *UserService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}
