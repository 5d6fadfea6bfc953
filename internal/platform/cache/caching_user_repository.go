// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"contacts_backend/internal/feature/auth/domain/entity"
	authusecase "contacts_backend/internal/feature/auth/usecase"
	usersusecase "contacts_backend/internal/feature/users/usecase"
)

// UserStore is the full user directory: everything the auth and users
// features read and write.
type UserStore interface {
	authusecase.UserRepository
	UpdateAvatar(ctx context.Context, email, url string) (*entity.User, error)
}

// CachingUserRepository decorates a UserStore with a Redis read-through
// cache for FindByEmail. Every mutation drops the user's entry. Cached
// entries never carry the password hash or the refresh token, so a stale
// entry cannot take part in a credential check.
type CachingUserRepository struct {
	inner     UserStore
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var (
	_ authusecase.UserRepository  = (*CachingUserRepository)(nil)
	_ usersusecase.UserRepository = (*CachingUserRepository)(nil)
)

// NewCachingUserRepository decorates inner with Redis caching.
// If ttl is 0, it defaults to 15 minutes. If namespace is empty, it uses "users".
// A nil rdb disables caching.
func NewCachingUserRepository(rdb *redis.Client, ttl time.Duration, inner UserStore, namespace string) *CachingUserRepository {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if namespace == "" {
		namespace = "users"
	}
	return &CachingUserRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// FindByEmail checks the cache first, then falls back to the inner store.
// Misses are not cached.
func (c *CachingUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if c.rdb == nil {
		return c.inner.FindByEmail(ctx, email)
	}

	key := c.cacheKey(email)
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var u entity.User
		if err := json.Unmarshal(b, &u); err == nil {
			return &u, nil
		}
		// corrupted entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	u, err := c.inner.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(withoutSecrets(u)); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return u, nil
}

// FindByEmailUncached always reads the inner store.
func (c *CachingUserRepository) FindByEmailUncached(ctx context.Context, email string) (*entity.User, error) {
	return c.inner.FindByEmailUncached(ctx, email)
}

func withoutSecrets(u *entity.User) *entity.User {
	cp := *u
	cp.Password = ""
	cp.RefreshToken = nil
	return &cp
}

// Create inserts the user.
func (c *CachingUserRepository) Create(ctx context.Context, u *entity.User) error {
	if err := c.inner.Create(ctx, u); err != nil {
		return err
	}
	c.invalidate(ctx, u.Email)
	return nil
}

// UpdateRefreshToken stores the token and invalidates the user's entry.
func (c *CachingUserRepository) UpdateRefreshToken(ctx context.Context, u *entity.User, token *string) error {
	if err := c.inner.UpdateRefreshToken(ctx, u, token); err != nil {
		return err
	}
	c.invalidate(ctx, u.Email)
	return nil
}

// MarkConfirmed confirms the user and invalidates the user's entry.
func (c *CachingUserRepository) MarkConfirmed(ctx context.Context, email string) error {
	if err := c.inner.MarkConfirmed(ctx, email); err != nil {
		return err
	}
	c.invalidate(ctx, email)
	return nil
}

// UpdatePassword stores the hash and invalidates the user's entry.
func (c *CachingUserRepository) UpdatePassword(ctx context.Context, email, hash string) (*entity.User, error) {
	u, err := c.inner.UpdatePassword(ctx, email, hash)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, email)
	return u, nil
}

// UpdateAvatar stores the URL and invalidates the user's entry.
func (c *CachingUserRepository) UpdateAvatar(ctx context.Context, email, url string) (*entity.User, error) {
	u, err := c.inner.UpdateAvatar(ctx, email, url)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, email)
	return u, nil
}

// invalidate is best effort: a failed delete leaves the entry to expire.
func (c *CachingUserRepository) invalidate(ctx context.Context, email string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, c.cacheKey(email)).Err(); err != nil {
		slog.Warn("user cache invalidation failed", "error", err, "email", email)
	}
}

// cacheKey matches the store's exact-match email lookup.
func (c *CachingUserRepository) cacheKey(email string) string {
	return c.namespace + ":" + safe(email)
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
