package models

import (
	"time"
)

// Locales an organization carries display details for.
const (
	LocaleEnglish = "en"
	LocaleFrench  = "fr"
)

// Organization represents a tenant that claims domains.
// Display details are stored per locale; Verified organizations can only be
// removed by a super admin.
type Organization struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Verified  bool      `gorm:"default:false" json:"verified"`

	// Relationships
	Details      []OrganizationDetail `gorm:"foreignKey:OrganizationID" json:"details,omitempty"`
	Affiliations []Affiliation        `gorm:"foreignKey:OrganizationID" json:"affiliations,omitempty"`
	Claims       []Claim              `gorm:"foreignKey:OrganizationID" json:"claims,omitempty"`
}

// OrganizationDetail holds the locale-specific display fields of an organization.
type OrganizationDetail struct {
	ID             uint   `gorm:"primarykey" json:"id"`
	OrganizationID uint   `gorm:"not null;uniqueIndex:idx_org_locale" json:"organization_id"`
	Locale         string `gorm:"type:varchar(8);not null;uniqueIndex:idx_org_locale" json:"locale"`
	Slug           string `gorm:"not null;index" json:"slug"`
	Name           string `gorm:"not null" json:"name"`
	Acronym        string `json:"acronym"`
	Zone           string `json:"zone"`
	Sector         string `json:"sector"`
	Country        string `json:"country"`
	Province       string `json:"province"`
	City           string `json:"city"`
}

// Detail returns the details for a locale, falling back to English and then
// to whatever locale is present.
func (o Organization) Detail(locale string) OrganizationDetail {
	var fallback *OrganizationDetail
	for i := range o.Details {
		d := o.Details[i]
		if d.Locale == locale {
			return d
		}
		if d.Locale == LocaleEnglish || fallback == nil {
			fallback = &o.Details[i]
		}
	}
	if fallback == nil {
		return OrganizationDetail{}
	}
	return *fallback
}

// Names returns the organization name keyed by locale.
func (o Organization) Names() map[string]string {
	names := make(map[string]string, len(o.Details))
	for _, d := range o.Details {
		names[d.Locale] = d.Name
	}
	return names
}
