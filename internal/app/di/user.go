// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authadapters "contacts_backend/internal/feature/auth/adapters"
	"contacts_backend/internal/platform/cache"
)

// NewUserRepository creates the user directory. When Redis is available,
// lookups are cached for ttl; otherwise every call reaches the database.
func NewUserRepository(rdb *redis.Client, db *gorm.DB, ttl time.Duration) *cache.CachingUserRepository {
	return cache.NewCachingUserRepository(rdb, ttl, authadapters.NewUserGorm(db), "users")
}
