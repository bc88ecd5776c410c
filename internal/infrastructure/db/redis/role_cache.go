package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/techchallenge/usuarios-api/internal/core/domain"
	"github.com/techchallenge/usuarios-api/internal/core/ports"
)

var _ ports.RoleCache = (*RoleCache)(nil)

const defaultRoleTTL = 30 * time.Second

// RoleCache keeps the current role of recently seen users.
// Key format: auth:role:<lowercased email>
type RoleCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRoleCache(client redis.Cmdable, ttl time.Duration) *RoleCache {
	if ttl <= 0 {
		ttl = defaultRoleTTL
	}
	return &RoleCache{client: client, ttl: ttl}
}

func (c *RoleCache) Get(ctx context.Context, email string) (domain.Role, bool, error) {
	val, err := c.client.Get(ctx, c.key(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("role cache get: %w", err)
	}

	role := domain.Role(val)
	if !role.Valid() {
		return "", false, nil
	}
	return role, true, nil
}

func (c *RoleCache) Set(ctx context.Context, email string, role domain.Role) error {
	if err := c.client.Set(ctx, c.key(email), string(role), c.ttl).Err(); err != nil {
		return fmt.Errorf("role cache set: %w", err)
	}
	return nil
}

func (c *RoleCache) Invalidate(ctx context.Context, email string) error {
	if err := c.client.Del(ctx, c.key(email)).Err(); err != nil {
		return fmt.Errorf("role cache del: %w", err)
	}
	return nil
}

func (c *RoleCache) key(email string) string {
	return "auth:role:" + domain.NormalizeEmail(email)
}
