// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"contacts_backend/internal/api"
	"contacts_backend/internal/feature/auth/domain/entity"
	"contacts_backend/internal/feature/auth/transport/http/dto"
	"contacts_backend/internal/feature/auth/usecase"
	jwtmw "contacts_backend/internal/platform/jwt"
)

const (
	msgSignedUp          = "User successfully created. Check your email for confirmation."
	msgPasswordReset     = "Password successfully reset. Check your email for confirmation."
	msgEmailConfirmed    = "Email confirmed"
	msgAlreadyConfirmed  = "Your email is already confirmed"
	msgCheckConfirmation = "Check your email for confirmation."
	msgCheckReset        = "Check your email for reset password."
	msgLoggedOut         = "Successfully logged out"
	tokenTypeBearer      = "bearer"
)

// AuthUsecase は認証のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	Signup(ctx context.Context, username, email, password, baseURL string) (*entity.User, error)
	Login(ctx context.Context, email, password string) (*entity.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*entity.TokenPair, error)
	ConfirmEmail(ctx context.Context, token string) (bool, error)
	RequestConfirmation(ctx context.Context, email, baseURL string) (bool, error)
	ForgetPassword(ctx context.Context, email, baseURL string) error
	ResetPassword(ctx context.Context, token, newPassword, baseURL string) (*entity.User, error)
	Logout(ctx context.Context, user *entity.User) error
}

// AuthHandler は認証関連のHTTPリクエストを処理します。
type AuthHandler struct {
	auth    AuthUsecase
	baseURL string
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
// baseURL はメール内リンクに使う設定済みの scheme://host/ で、リクエストヘッダーでは変わりません。
func NewAuthHandler(auth AuthUsecase, baseURL string) *AuthHandler {
	return &AuthHandler{auth: auth, baseURL: baseURL}
}

// Signup は POST /auth/signup を処理します。
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("signup validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: err.Error()})
		return
	}

	user, err := h.auth.Signup(c.Request.Context(), req.Username, req.Email, req.Password, h.baseURL)
	if err != nil {
		slog.Warn("signup failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
		writeError(c, err)
		return
	}
	slog.Info("user signup successful", "email", req.Email, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, api.UserDetailResponse{User: dto.NewUserResponse(user), Detail: msgSignedUp})
}

// Login は OAuth2 パスワードフォームで POST /auth/login を処理します。
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBind(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: err.Error()})
		return
	}

	pair, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		slog.Warn("login failed", "error", err, "email", req.Username, "remote_addr", c.ClientIP())
		writeError(c, err)
		return
	}
	slog.Info("user login successful", "email", req.Username, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, tokenResponse(pair))
}

// RefreshToken はリフレッシュトークンをBearerとして GET /auth/refresh_token を処理します。
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, ok := jwtmw.BearerToken(c)
	if !ok {
		jwtmw.Unauthorized(c, "Not authenticated")
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		slog.Warn("token refresh failed", "error", err, "remote_addr", c.ClientIP())
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse(pair))
}

// ConfirmedEmail は GET /auth/confirmed_email/:token を処理します。
func (h *AuthHandler) ConfirmedEmail(c *gin.Context) {
	already, err := h.auth.ConfirmEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		slog.Warn("email confirmation failed", "error", err, "remote_addr", c.ClientIP())
		writeError(c, err)
		return
	}
	if already {
		c.JSON(http.StatusOK, api.MessageResponse{Message: msgAlreadyConfirmed})
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: msgEmailConfirmed})
}

// RequestEmail は POST /auth/request_email を処理します。
func (h *AuthHandler) RequestEmail(c *gin.Context) {
	var req dto.EmailReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: err.Error()})
		return
	}

	already, err := h.auth.RequestConfirmation(c.Request.Context(), req.Email, h.baseURL)
	if err != nil {
		writeError(c, err)
		return
	}
	if already {
		c.JSON(http.StatusOK, api.MessageResponse{Message: msgAlreadyConfirmed})
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: msgCheckConfirmation})
}

// ForgetPassword は POST /auth/forget_password を処理します。
// レスポンスからアカウントの有無は分かりません。
func (h *AuthHandler) ForgetPassword(c *gin.Context) {
	var req dto.EmailReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: err.Error()})
		return
	}

	if err := h.auth.ForgetPassword(c.Request.Context(), req.Email, h.baseURL); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: msgCheckReset})
}

// ResetPassword は POST /auth/reset_password/:token を処理します。
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: err.Error()})
		return
	}

	user, err := h.auth.ResetPassword(c.Request.Context(), c.Param("token"), req.Password, h.baseURL)
	if err != nil {
		slog.Warn("password reset failed", "error", err, "remote_addr", c.ClientIP())
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.UserDetailResponse{User: dto.NewUserResponse(user), Detail: msgPasswordReset})
}

// Logout は POST /auth/logout を処理します。jwtmw.AuthRequired が前提です。
func (h *AuthHandler) Logout(c *gin.Context) {
	user, ok := jwtmw.CurrentUser(c)
	if !ok {
		jwtmw.Unauthorized(c, "Could not validate credentials")
		return
	}
	if err := h.auth.Logout(c.Request.Context(), user); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: msgLoggedOut})
}

func tokenResponse(p *entity.TokenPair) api.TokenResponse {
	return api.TokenResponse{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken, TokenType: tokenTypeBearer}
}

// writeError はユースケースのエラーをHTTPステータスと detail に変換します。
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrEmailAlreadyExists):
		c.JSON(http.StatusConflict, api.ErrorResponse{Detail: "Account already exists"})
	case errors.Is(err, usecase.ErrInvalidEmail):
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Detail: "Invalid email"})
	case errors.Is(err, usecase.ErrEmailNotConfirmed):
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Detail: "Email not confirmed"})
	case errors.Is(err, usecase.ErrInvalidPassword):
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Detail: "Invalid password"})
	case errors.Is(err, usecase.ErrInvalidScope):
		jwtmw.Unauthorized(c, "Invalid scope for token")
	case errors.Is(err, usecase.ErrInvalidToken), errors.Is(err, usecase.ErrInvalidCredentials):
		jwtmw.Unauthorized(c, "Could not validate credentials")
	case errors.Is(err, usecase.ErrInvalidRefreshToken):
		jwtmw.Unauthorized(c, "Invalid refresh token")
	case errors.Is(err, usecase.ErrPasswordTooLong):
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: "Password must be at most 72 bytes"})
	case errors.Is(err, usecase.ErrInvalidResetToken):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: "Invalid token"})
	case errors.Is(err, usecase.ErrUnprocessableToken):
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Detail: "Invalid token for email verification"})
	case errors.Is(err, usecase.ErrVerification):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Detail: "Verification error"})
	case errors.Is(err, usecase.ErrUserNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Detail: "User not found"})
	default:
		slog.Error("auth request failed", "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Detail: "internal server error"})
	}
}
