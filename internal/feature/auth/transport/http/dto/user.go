package dto

import (
	"contacts_backend/internal/api"
	"contacts_backend/internal/feature/auth/domain/entity"
)

// NewUserResponse はユーザーを公開用のレスポンスに変換します。
func NewUserResponse(u *entity.User) api.UserResponse {
	return api.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		Avatar:    u.Avatar,
		Confirmed: u.Confirmed,
	}
}
