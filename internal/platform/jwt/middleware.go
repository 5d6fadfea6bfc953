// Package jwtmw issues and verifies JWTs and provides the gin authentication gate.
package jwtmw

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"contacts_backend/internal/api"
	"contacts_backend/internal/feature/auth/domain/entity"
)

// ContextUser is the gin context key holding the authenticated *entity.User.
const ContextUser = "currentUser"

const credentialsDetail = "Could not validate credentials"

// Authenticator resolves a bearer access token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*entity.User, error)
}

// AuthRequired returns a Gin middleware that rejects requests without a valid
// access token and stores the resolved user in the context.
func AuthRequired(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			Unauthorized(c, credentialsDetail)
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			slog.Warn("authentication failed", "error", err, "remote_addr", c.ClientIP())
			Unauthorized(c, credentialsDetail)
			return
		}

		c.Set(ContextUser, user)
		c.Next()
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return token, token != ""
}

// Unauthorized aborts with 401 and a Bearer challenge.
func Unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Detail: detail})
}

// CurrentUser returns the user stored by AuthRequired.
func CurrentUser(c *gin.Context) (*entity.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*entity.User)
	return u, ok && u != nil
}
