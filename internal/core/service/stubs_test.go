package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/techchallenge/usuarios-api/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu     sync.Mutex
	byID   map[int64]*domain.User
	nextID int64
	err    error // if set, every call returns this error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[int64]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) findEmailLocked(email string) *domain.User {
	for _, u := range r.byID {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func (r *stubUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	return r.findEmailLocked(email) != nil, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u := r.findEmailLocked(email)
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByNameContaining(_ context.Context, substring string, ignoreCase bool) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.byID {
		name, sub := u.Name, substring
		if ignoreCase {
			name, sub = strings.ToLower(name), strings.ToLower(sub)
		}
		if strings.Contains(name, sub) {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubUserRepo) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if other := r.findEmailLocked(user.Email); other != nil && other.ID != user.ID {
		return nil, domain.ErrConflict
	}
	clone := cloneUser(user)
	if clone.IsNew() {
		r.nextID++
		clone.ID = r.nextID
	} else if _, ok := r.byID[clone.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	r.byID[clone.ID] = clone
	return cloneUser(clone), nil
}

func (r *stubUserRepo) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubUserRepo) ListAll(_ context.Context) ([]*domain.User, error) {
	return r.FindByNameContaining(context.Background(), "", false)
}

// seed stores u directly and returns the assigned id.
func (r *stubUserRepo) seed(u *domain.User) int64 {
	saved, err := r.Save(context.Background(), u)
	if err != nil {
		panic(err)
	}
	return saved.ID
}

// ---------------------------------------------------------------------------
// Security stubs
// ---------------------------------------------------------------------------

type fakeHasher struct{}

func (fakeHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }

func (fakeHasher) Matches(p, hash string) bool { return hash == "hashed:"+p }

type issued struct {
	subject, role string
	now           time.Time
}

type stubCodec struct {
	issued  []issued
	parseFn func(token string, now time.Time) (domain.TokenClaims, error)
}

func (c *stubCodec) Issue(subject, role string, now time.Time) (string, error) {
	c.issued = append(c.issued, issued{subject, role, now})
	return "token-for-" + subject, nil
}

func (c *stubCodec) Parse(token string, now time.Time) (domain.TokenClaims, error) {
	return c.parseFn(token, now)
}

type stubRoleCache struct {
	mu          sync.Mutex
	roles       map[string]domain.Role
	invalidated []string
	getErr      error
}

func newStubRoleCache() *stubRoleCache {
	return &stubRoleCache{roles: make(map[string]domain.Role)}
}

func (c *stubRoleCache) Get(_ context.Context, email string) (domain.Role, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return "", false, c.getErr
	}
	r, ok := c.roles[domain.NormalizeEmail(email)]
	return r, ok, nil
}

func (c *stubRoleCache) Set(_ context.Context, email string, role domain.Role) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roles[domain.NormalizeEmail(email)] = role
	return nil
}

func (c *stubRoleCache) Invalidate(_ context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.roles, domain.NormalizeEmail(email))
	c.invalidated = append(c.invalidated, email)
	return nil
}
