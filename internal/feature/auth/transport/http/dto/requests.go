// Package dto はauthフィーチャーのHTTPトランスポート層で使うDTOを定義します。
package dto

// SignupReq は POST /auth/signup のリクエストボディです。
type SignupReq struct {
	Username string `json:"username" binding:"required,min=5,max=16"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// LoginReq は POST /auth/login のフォームボディです。Username にはメールアドレスが入ります。
type LoginReq struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// EmailReq は request_email と forget_password のリクエストボディです。
type EmailReq struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordReq は POST /auth/reset_password/:token のリクエストボディです。
type ResetPasswordReq struct {
	Password string `json:"password" binding:"required,min=6,max=72"`
}
