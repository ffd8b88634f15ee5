package models

import (
	"time"
)

// Domain represents a scanned internet domain. Names are globally unique.
type Domain struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Name      string     `gorm:"uniqueIndex;not null" json:"name"`
	Selectors string     `json:"selectors,omitempty"` // Comma-separated DKIM selectors
	LastRan   *time.Time `json:"last_ran,omitempty"`

	// Relationships
	Claims []Claim `gorm:"foreignKey:DomainID" json:"claims,omitempty"`
}

// Claim is the many-to-many edge asserting an organization's stake in a domain.
type Claim struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	OrganizationID uint      `gorm:"not null;uniqueIndex:idx_claim_org_domain" json:"organization_id"`
	DomainID       uint      `gorm:"not null;uniqueIndex:idx_claim_org_domain;index" json:"domain_id"`

	// Relationships
	Domain Domain `gorm:"foreignKey:DomainID" json:"domain,omitempty"`
}

// Ownership designates the single organization authoritative for a domain's
// DMARC summaries. The unique index on DomainID keeps it at one per domain.
type Ownership struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	OrganizationID uint      `gorm:"not null;index" json:"organization_id"`
	DomainID       uint      `gorm:"not null;uniqueIndex" json:"domain_id"`
}
