package models

import (
	"time"
)

// User represents a person who signs in to the tracker.
// Users are never hard-deleted by organization workflows.
type User struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Username       string    `gorm:"uniqueIndex;not null" json:"username"` // Email address used to sign in
	DisplayName    string    `gorm:"not null" json:"display_name"`
	PasswordHash   string    `json:"-"`
	PreferredLang  string    `gorm:"type:varchar(8);default:'en'" json:"preferred_lang"`
	EmailValidated bool      `gorm:"default:false" json:"email_validated"`
	PhoneValidated bool      `gorm:"default:false" json:"phone_validated"`
	TFAValidated   bool      `gorm:"default:false" json:"tfa_validated"`

	// Relationships
	Affiliations []Affiliation `gorm:"foreignKey:UserID" json:"affiliations,omitempty"`
}
