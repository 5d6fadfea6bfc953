package usecase

import "errors"

var (
	// ErrUnsupportedImage is returned when an uploaded avatar is not an image.
	ErrUnsupportedImage = errors.New("avatar must be an image")

	// ErrAvatarTooLarge is returned when an uploaded avatar exceeds MaxAvatarBytes.
	ErrAvatarTooLarge = errors.New("avatar is too large")

	// ErrAvatarUpload is returned when the image host rejects the upload.
	ErrAvatarUpload = errors.New("avatar upload failed")
)
