package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/techchallenge/usuarios-api/internal/core/domain"
	"github.com/techchallenge/usuarios-api/internal/core/ports"
)

type stubAuthService struct {
	loginFn    func(ctx context.Context, email, password string) (*ports.LoginResult, error)
	identityFn func(ctx context.Context, header string) (*domain.Identity, error)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) IdentityFromAuthHeader(ctx context.Context, header string) (*domain.Identity, error) {
	return s.identityFn(ctx, header)
}

// stubUserService keeps users in a map and records the last call.
type stubUserService struct {
	users map[int64]*domain.User
	err   error

	created   *ports.CreateUserInput
	updated   *ports.UpdateUserInput
	password  *ports.UpdatePasswordInput
	deletedID int64
	roleArgs  [2]string
	searched  string
}

func newStubUserService(users ...*domain.User) *stubUserService {
	s := &stubUserService{users: make(map[int64]*domain.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *stubUserService) Create(_ context.Context, in ports.CreateUserInput) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = &in
	return &domain.User{ID: 10, Name: in.Name, Email: in.Email, Address: in.Address, Role: domain.RoleClient, LastUpdatedAt: fixedTime}, nil
}

func (s *stubUserService) Update(_ context.Context, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.updated = &in
	u := *s.users[id]
	u.Name, u.Email, u.Address = in.Name, in.Email, in.Address
	return &u, nil
}

func (s *stubUserService) UpdateRole(_ context.Context, idStr, roleStr string) (*domain.User, error) {
	s.roleArgs = [2]string{idStr, roleStr}
	if s.err != nil {
		return nil, s.err
	}
	return &domain.User{ID: 2, Email: "ana@x.com", Role: domain.Role(strings.ToUpper(roleStr))}, nil
}

func (s *stubUserService) UpdatePassword(_ context.Context, _ int64, in ports.UpdatePasswordInput) error {
	s.password = &in
	return s.err
}

func (s *stubUserService) Delete(_ context.Context, id int64) error {
	s.deletedID = id
	return s.err
}

func (s *stubUserService) FindByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *stubUserService) FindByNameContaining(_ context.Context, name string) ([]*domain.User, error) {
	s.searched = name
	if strings.TrimSpace(name) == "" {
		return nil, domain.ErrNameRequired
	}
	var out []*domain.User
	for _, u := range s.users {
		if strings.Contains(strings.ToLower(u.Name), strings.ToLower(name)) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *stubUserService) ListAll(context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, s.err
}

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

var (
	adminUser  = &domain.User{ID: 1, Name: "Root", Email: "root@x.com", Address: "Sede", Role: domain.RoleAdmin, LastUpdatedAt: fixedTime}
	clientUser = &domain.User{ID: 2, Name: "Ana", Email: "ana@x.com", Address: "Rua A", Role: domain.RoleClient, LastUpdatedAt: fixedTime}
	otherUser  = &domain.User{ID: 3, Name: "Bia", Email: "bia@x.com", Address: "Rua B", Role: domain.RoleClient, LastUpdatedAt: fixedTime}
)

// newContext builds an echo context with the validator installed and, when
// principal is non-nil, the principal bound as the Auth middleware would.
func newContext(method, target, body string, principal *domain.Principal) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if principal != nil {
		req = req.WithContext(domain.WithPrincipal(req.Context(), *principal))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func principalOf(u *domain.User) *domain.Principal {
	p := domain.NewPrincipal(u.Email, u.Role)
	return &p
}
