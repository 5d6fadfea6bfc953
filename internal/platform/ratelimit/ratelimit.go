// Package ratelimit enforces fixed-window request quotas backed by Redis.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"contacts_backend/internal/api"
	jwtmw "contacts_backend/internal/platform/jwt"
)

// Policy is a named quota of Limit requests per Window.
type Policy struct {
	Name   string
	Limit  int64
	Window time.Duration
}

// Recorder counts rejected requests.
type Recorder interface {
	IncRateLimited(policy string)
}

// Limiter counts requests per (policy, caller) in Redis. A Limiter with a nil
// client allows everything.
type Limiter struct {
	rdb      *redis.Client
	prefix   string
	recorder Recorder
}

// New creates a Limiter. rdb and recorder may be nil.
func New(rdb *redis.Client, recorder Recorder) *Limiter {
	return &Limiter{rdb: rdb, prefix: "ratelimit", recorder: recorder}
}

// Allow counts one request for caller and reports whether it fits the
// policy. When it does not, retryAfter is the time left in the window.
func (l *Limiter) Allow(ctx context.Context, p Policy, caller string) (bool, time.Duration, error) {
	if l.rdb == nil || p.Limit <= 0 {
		return true, 0, nil
	}
	key := fmt.Sprintf("%s:%s:%s", l.prefix, p.Name, caller)

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return true, 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, p.Window).Err(); err != nil {
			return true, 0, fmt.Errorf("expire %s: %w", key, err)
		}
	}
	if count <= p.Limit {
		return true, 0, nil
	}

	ttl, err := l.rdb.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		ttl = p.Window
	}
	return false, ttl, nil
}

// Middleware rejects requests over the policy with 429. The caller is the
// authenticated user when present, the client IP otherwise. Redis errors
// let the request through.
func (l *Limiter) Middleware(p Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter, err := l.Allow(c.Request.Context(), p, callerKey(c))
		if err != nil {
			slog.Warn("rate limiter unavailable, allowing request", "policy", p.Name, "error", err)
		}
		if allowed {
			c.Next()
			return
		}

		if l.recorder != nil {
			l.recorder.IncRateLimited(p.Name)
		}
		slog.Warn("rate limit exceeded", "policy", p.Name, "remote_addr", c.ClientIP())
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, api.ErrorResponse{Detail: "Too Many Requests"})
	}
}

func callerKey(c *gin.Context) string {
	if user, ok := jwtmw.CurrentUser(c); ok {
		return "user:" + strconv.FormatUint(uint64(user.ID), 10)
	}
	return "ip:" + c.ClientIP()
}
