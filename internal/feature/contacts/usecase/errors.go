// Package usecase implements the business logic for the contacts feature.
package usecase

import "errors"

var (
	// ErrContactNotFound is returned when a contact does not exist or belongs to another user.
	ErrContactNotFound = errors.New("contact not found")

	// ErrContactsNotFound is returned when a search or birthday query matches nothing.
	ErrContactsNotFound = errors.New("contacts not found")

	// ErrContactEmailTaken is returned when the email uniqueness policy rejects a write.
	ErrContactEmailTaken = errors.New("contact with this email already exists")

	// ErrInvalidSearchField is returned for a search on a non-searchable column.
	ErrInvalidSearchField = errors.New("invalid search field")

	// ErrInvalidDays is returned for a negative birthday window.
	ErrInvalidDays = errors.New("days must not be negative")
)
