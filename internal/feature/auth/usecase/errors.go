// Package usecase implements the business logic for the auth feature.
package usecase

import "errors"

var (
	// ErrUserNotFound is returned when a user cannot be found by email.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists is returned when attempting to create a user with an email that already exists.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrInvalidEmail is returned by login when no account matches the email.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrEmailNotConfirmed is returned by login for an unconfirmed account.
	ErrEmailNotConfirmed = errors.New("email not confirmed")

	// ErrInvalidPassword is returned by login on a password mismatch.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrInvalidToken is returned when a token cannot be decoded, has a bad signature or has expired.
	ErrInvalidToken = errors.New("could not validate credentials")

	// ErrInvalidScope is returned when a token carries the wrong scope for the operation.
	ErrInvalidScope = errors.New("invalid scope for token")

	// ErrUnprocessableToken is returned when an emailed action token cannot be decoded.
	ErrUnprocessableToken = errors.New("invalid token for email verification")

	// ErrInvalidCredentials is returned when an access token is valid but its user no longer exists.
	ErrInvalidCredentials = errors.New("could not validate credentials")

	// ErrInvalidRefreshToken is returned when a refresh token does not match the stored one.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrVerification is returned when a confirmation token names an unknown user.
	ErrVerification = errors.New("verification error")

	// ErrPasswordTooLong is returned when a new password exceeds MaxPasswordBytes.
	ErrPasswordTooLong = errors.New("password too long")

	// ErrInvalidResetToken is returned when a password reset token cannot be decoded.
	ErrInvalidResetToken = errors.New("invalid token")
)
