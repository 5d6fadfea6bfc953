// Package handler はusersフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"contacts_backend/internal/api"
	"contacts_backend/internal/feature/auth/domain/entity"
	"contacts_backend/internal/feature/auth/transport/http/dto"
	"contacts_backend/internal/feature/users/usecase"
	jwtmw "contacts_backend/internal/platform/jwt"
)

// UserUsecase はプロフィールのユースケースを定義します。
type UserUsecase interface {
	Me(ctx context.Context, user *entity.User) *entity.User
	UpdateAvatar(ctx context.Context, user *entity.User, data []byte) (*entity.User, error)
}

// UserHandler は /users を処理します。
type UserHandler struct {
	users UserUsecase
}

// NewUserHandler はUserHandlerを生成します。
func NewUserHandler(users UserUsecase) *UserHandler {
	return &UserHandler{users: users}
}

// Me は GET /users/me を処理します。
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := jwtmw.CurrentUser(c)
	if !ok {
		jwtmw.Unauthorized(c, "Could not validate credentials")
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(h.users.Me(c.Request.Context(), user)))
}

// UpdateAvatar は PATCH /users/avatar を処理します。
//
// Content-Type: multipart/form-data
// Field: file（画像、最大 usecase.MaxAvatarBytes）
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	user, ok := jwtmw.CurrentUser(c)
	if !ok {
		jwtmw.Unauthorized(c, "Could not validate credentials")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		slog.Warn("avatar file missing", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: "file is required"})
		return
	}
	if file.Size > usecase.MaxAvatarBytes {
		c.JSON(http.StatusRequestEntityTooLarge, api.ErrorResponse{Detail: "File too large"})
		return
	}

	f, err := file.Open()
	if err != nil {
		slog.Error("failed to open avatar file", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: "internal server error"})
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close avatar file", "error", err)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(f, usecase.MaxAvatarBytes+1))
	if err != nil {
		slog.Error("failed to read avatar file", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: "internal server error"})
		return
	}

	updated, err := h.users.UpdateAvatar(c.Request.Context(), user, data)
	if err != nil {
		writeError(c, err)
		return
	}
	slog.Info("avatar updated", "user_id", user.ID)
	c.JSON(http.StatusOK, dto.NewUserResponse(updated))
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrAvatarTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, api.ErrorResponse{Detail: "File too large"})
	case errors.Is(err, usecase.ErrUnsupportedImage):
		c.JSON(http.StatusUnsupportedMediaType, api.ErrorResponse{Detail: "File must be an image"})
	case errors.Is(err, usecase.ErrAvatarUpload):
		slog.Error("avatar upload failed", "error", err)
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Detail: "Avatar upload failed"})
	default:
		slog.Error("avatar update failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: "internal server error"})
	}
}
