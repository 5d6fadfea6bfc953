// Package entity defines the domain entities for the contacts feature.
package entity

import "time"

// Contact is an address-book entry. Every contact belongs to exactly one user
// and is only visible to that user.
type Contact struct {
	ID               uint      `gorm:"primaryKey"`
	FirstName        string    `gorm:"size:50;not null;index"`
	LastName         string    `gorm:"size:50;not null;index"`
	Email            string    `gorm:"size:255;not null;index"`
	Phone            string    `gorm:"size:50;not null"`
	Birthday         time.Time `gorm:"not null"`
	OtherInformation *string   `gorm:"size:250"`
	Done             bool      `gorm:"not null;default:false"`
	CreatedAt        time.Time `gorm:"<-:create"`
	UpdatedAt        time.Time
	OwnerID          uint `gorm:"not null;index"`
}
