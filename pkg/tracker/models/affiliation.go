package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Permission is a user's standing within one organization.
type Permission string

const (
	PermissionUser       Permission = "user"
	PermissionAdmin      Permission = "admin"
	PermissionSuperAdmin Permission = "super_admin"
)

// ErrInvalidPermission is returned when an affiliation carries a permission
// outside the three known tiers.
var ErrInvalidPermission = errors.New("invalid affiliation permission")

// Valid reports whether p is one of the three known tiers.
func (p Permission) Valid() bool {
	switch p {
	case PermissionUser, PermissionAdmin, PermissionSuperAdmin:
		return true
	}
	return false
}

// Affiliation is the edge between an organization and a user.
// There is at most one affiliation per (organization, user) pair. Owner marks
// the organization owner and is independent of domain ownership.
type Affiliation struct {
	ID             uint       `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	OrganizationID uint       `gorm:"not null;uniqueIndex:idx_org_user" json:"organization_id"`
	UserID         uint       `gorm:"not null;uniqueIndex:idx_org_user;index" json:"user_id"`
	Permission     Permission `gorm:"type:varchar(20);not null;default:'user'" json:"permission"`
	Owner          bool       `gorm:"default:false" json:"owner"`

	// Relationships
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	User         User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// BeforeCreate rejects affiliations with an unknown permission.
func (a *Affiliation) BeforeCreate(tx *gorm.DB) error {
	if !a.Permission.Valid() {
		return ErrInvalidPermission
	}
	return nil
}

// RoleChange records a permission transition applied to an affiliation.
type RoleChange struct {
	ID             uint       `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	OrganizationID uint       `gorm:"not null;index" json:"organization_id"`
	ActorID        uint       `gorm:"not null" json:"actor_id"`
	TargetUserID   uint       `gorm:"not null;index" json:"target_user_id"`
	Previous       Permission `gorm:"type:varchar(20);not null" json:"previous"`
	Current        Permission `gorm:"type:varchar(20);not null" json:"current"`
	RequestID      string     `json:"request_id,omitempty"`
}
