package store

import (
	"context"

	"github.com/mikepea/tracker/pkg/tracker/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type idRow struct {
	ID uint
}

type permissionRow struct {
	Permission models.Permission
}

// ClaimedDomain is a domain claimed by an organization.
type ClaimedDomain struct {
	DomainID uint
	Name     string
}

// FindUser returns the user with the given key, or nil.
func (s *Store) FindUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	found, err := first("FindUser", s.conn(ctx).Where("id = ?", userID), &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// FindUserByUsername returns the user with the given username, or nil.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	found, err := first("FindUserByUsername", s.conn(ctx).Where("username = ?", username), &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// FindOrganization returns the organization with its locale details, or nil.
func (s *Store) FindOrganization(ctx context.Context, orgID uint) (*models.Organization, error) {
	var org models.Organization
	found, err := first("FindOrganization", s.conn(ctx).Preload("Details").Where("id = ?", orgID), &org)
	if err != nil || !found {
		return nil, err
	}
	return &org, nil
}

// FindAffiliation returns the affiliation of userID in orgID, or nil.
func (s *Store) FindAffiliation(ctx context.Context, orgID, userID uint) (*models.Affiliation, error) {
	var aff models.Affiliation
	q := s.conn(ctx).Where("organization_id = ? AND user_id = ?", orgID, userID)
	found, err := first("FindAffiliation", q, &aff)
	if err != nil || !found {
		return nil, err
	}
	return &aff, nil
}

// AffiliationsForUser lists the user's affiliations with organization details.
func (s *Store) AffiliationsForUser(ctx context.Context, userID uint) ([]models.Affiliation, error) {
	var affs []models.Affiliation
	err := s.conn(ctx).
		Preload("Organization.Details").
		Where("user_id = ?", userID).
		Order("organization_id").
		Find(&affs).Error
	if err != nil {
		return nil, newError(ErrQuery, "AffiliationsForUser", err)
	}
	return affs, nil
}

// AffiliationsInOrganization lists the organization's affiliations with users.
func (s *Store) AffiliationsInOrganization(ctx context.Context, orgID uint) ([]models.Affiliation, error) {
	var affs []models.Affiliation
	err := s.conn(ctx).
		Preload("User").
		Where("organization_id = ?", orgID).
		Order("user_id").
		Find(&affs).Error
	if err != nil {
		return nil, newError(ErrQuery, "AffiliationsInOrganization", err)
	}
	return affs, nil
}

// CountAffiliations counts affiliations into orgID.
func (s *Store) CountAffiliations(ctx context.Context, orgID uint) (int64, error) {
	return count("CountAffiliations",
		s.conn(ctx).Model(&models.Affiliation{}).Where("organization_id = ?", orgID))
}

// SharedPermissions returns the acting user's permission in every
// organization the target user is also affiliated with.
func (s *Store) SharedPermissions(ctx context.Context, actingID, targetID uint) ([]models.Permission, error) {
	q := s.conn(ctx).
		Table("affiliations AS acting").
		Select("acting.permission AS permission").
		Joins("JOIN affiliations AS target ON target.organization_id = acting.organization_id").
		Where("acting.user_id = ? AND target.user_id = ?", actingID, targetID)

	rows, err := collect[permissionRow](s, "SharedPermissions", q)
	if err != nil {
		return nil, err
	}
	perms := make([]models.Permission, len(rows))
	for i, r := range rows {
		perms[i] = r.Permission
	}
	return perms, nil
}

// HasSuperAdminOwnership reports whether userID is a super admin of the
// organization holding the ownership edge of domainID.
func (s *Store) HasSuperAdminOwnership(ctx context.Context, userID, domainID uint) (bool, error) {
	q := s.ownershipAffiliations(ctx, userID, domainID).
		Where("affiliations.permission = ?", models.PermissionSuperAdmin)
	rows, err := collect[idRow](s, "HasSuperAdminOwnership", q)
	return len(rows) > 0, err
}

// HasAffiliatedOwnership reports whether userID holds any affiliation in the
// organization holding the ownership edge of domainID.
func (s *Store) HasAffiliatedOwnership(ctx context.Context, userID, domainID uint) (bool, error) {
	rows, err := collect[idRow](s, "HasAffiliatedOwnership", s.ownershipAffiliations(ctx, userID, domainID))
	return len(rows) > 0, err
}

func (s *Store) ownershipAffiliations(ctx context.Context, userID, domainID uint) *gorm.DB {
	return s.conn(ctx).
		Table("affiliations").
		Select("affiliations.id AS id").
		Joins("JOIN ownerships ON ownerships.organization_id = affiliations.organization_id").
		Where("affiliations.user_id = ? AND ownerships.domain_id = ?", userID, domainID).
		Limit(1)
}

// ClaimedDomains lists the domains claimed by orgID.
func (s *Store) ClaimedDomains(ctx context.Context, orgID uint) ([]ClaimedDomain, error) {
	q := s.conn(ctx).
		Table("claims").
		Select("claims.domain_id AS domain_id, domains.name AS name").
		Joins("JOIN domains ON domains.id = claims.domain_id").
		Where("claims.organization_id = ?", orgID).
		Order("claims.domain_id")
	return collect[ClaimedDomain](s, "ClaimedDomains", q)
}

// LockDomain takes a row lock on domainID for the rest of the enclosing
// transaction and reports whether the domain exists. Dialects without row
// locks (sqlite) serialize writers on the database instead.
func (s *Store) LockDomain(ctx context.Context, domainID uint) (bool, error) {
	var row idRow
	q := s.conn(ctx).
		Model(&models.Domain{}).
		Select("id").
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("id = ?", domainID)
	return first("LockDomain", q, &row)
}

// CountOtherClaims counts claims on domainID held by organizations other
// than orgID.
func (s *Store) CountOtherClaims(ctx context.Context, domainID, orgID uint) (int64, error) {
	return count("CountOtherClaims",
		s.conn(ctx).Model(&models.Claim{}).Where("domain_id = ? AND organization_id <> ?", domainID, orgID))
}

// FindOwnership returns the ownership edge of domainID, or nil.
func (s *Store) FindOwnership(ctx context.Context, domainID uint) (*models.Ownership, error) {
	var own models.Ownership
	found, err := first("FindOwnership", s.conn(ctx).Where("domain_id = ?", domainID), &own)
	if err != nil || !found {
		return nil, err
	}
	return &own, nil
}

// FindDomain returns the domain with the given key, or nil.
func (s *Store) FindDomain(ctx context.Context, domainID uint) (*models.Domain, error) {
	var domain models.Domain
	found, err := first("FindDomain", s.conn(ctx).Where("id = ?", domainID), &domain)
	if err != nil || !found {
		return nil, err
	}
	return &domain, nil
}

// SummariesForDomain lists the DMARC summaries linked to domainID.
func (s *Store) SummariesForDomain(ctx context.Context, domainID uint) ([]models.DmarcSummary, error) {
	q := s.conn(ctx).
		Model(&models.DmarcSummary{}).
		Select("dmarc_summaries.*").
		Joins("JOIN domain_summaries ON domain_summaries.summary_id = dmarc_summaries.id").
		Where("domain_summaries.domain_id = ?", domainID).
		Order("dmarc_summaries.id")
	return collect[models.DmarcSummary](s, "SummariesForDomain", q)
}

// RoleChangesForOrganization lists recorded role changes in orgID, oldest first.
func (s *Store) RoleChangesForOrganization(ctx context.Context, orgID uint) ([]models.RoleChange, error) {
	q := s.conn(ctx).
		Model(&models.RoleChange{}).
		Where("organization_id = ?", orgID).
		Order("id")
	return collect[models.RoleChange](s, "RoleChangesForOrganization", q)
}
