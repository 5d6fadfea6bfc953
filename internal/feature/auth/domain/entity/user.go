// Package entity defines the domain entities for the auth feature.
package entity

import "time"

// User represents a registered user in the system.
type User struct {
	// ID is the unique identifier for the user.
	ID uint `gorm:"primaryKey"`

	// Username is the display name, 5 to 16 characters.
	Username string `gorm:"size:50;not null"`

	// Email is the login identifier. It must be unique across all users.
	Email string `gorm:"uniqueIndex;size:255;not null"`

	// Password is the bcrypt hash. Plaintext is never stored.
	Password string `gorm:"size:255;not null"`

	// CreatedAt is set once on insert and never updated.
	CreatedAt time.Time `gorm:"<-:create"`

	// RefreshToken is the last refresh token issued. nil means logged out.
	RefreshToken *string `gorm:"size:512"`

	// Confirmed gates login. It only ever moves from false to true.
	Confirmed bool `gorm:"not null;default:false"`

	// Avatar is the URL of the hosted profile image.
	Avatar *string `gorm:"size:255"`
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
