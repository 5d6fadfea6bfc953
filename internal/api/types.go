// Package api defines the JSON request/response shapes shared by the HTTP handlers.
package api

import "time"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MessageResponse carries a human-readable status message.
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// UserResponse is the public representation of a user. Password hash and
// refresh token are never serialized.
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	Avatar    *string   `json:"avatar"`
	Confirmed bool      `json:"confirmed"`
}

// UserDetailResponse wraps a user together with an instruction for the client.
type UserDetailResponse struct {
	User   UserResponse `json:"user"`
	Detail string       `json:"detail"`
}

// ContactResponse is the public representation of a contact.
type ContactResponse struct {
	ID               uint      `json:"id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Birthday         time.Time `json:"birthday"`
	OtherInformation *string   `json:"other_information"`
	Done             bool      `json:"done"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
