package store

import (
	"fmt"

	"github.com/mikepea/tracker/pkg/tracker/models"
	"gorm.io/gorm"
)

// DeleteSummaries removes the DMARC summaries linked to domainID and their edges.
func DeleteSummaries(domainID uint) StepFunc {
	return func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.DomainSummary{}).Where("domain_id = ?", domainID).Pluck("summary_id", &ids).Error; err != nil {
			return err
		}
		if len(ids) > 0 {
			if err := tx.Where("id IN ?", ids).Delete(&models.DmarcSummary{}).Error; err != nil {
				return err
			}
		}
		return tx.Where("domain_id = ?", domainID).Delete(&models.DomainSummary{}).Error
	}
}

// DeleteOwnership removes the ownership edge of domainID held by orgID.
func DeleteOwnership(orgID, domainID uint) StepFunc {
	return func(tx *gorm.DB) error {
		return tx.Where("organization_id = ? AND domain_id = ?", orgID, domainID).Delete(&models.Ownership{}).Error
	}
}

// DeleteScans removes the scan artifacts of one kind linked to domainID and
// their edges.
func DeleteScans(domainID uint, kind models.ScanKind) StepFunc {
	return func(tx *gorm.DB) error {
		model := models.ScanModel(kind)
		if model == nil {
			return fmt.Errorf("unknown scan kind %q", kind)
		}
		var ids []uint
		edges := tx.Model(&models.DomainScan{}).Where("domain_id = ? AND kind = ?", domainID, kind)
		if err := edges.Pluck("scan_id", &ids).Error; err != nil {
			return err
		}
		if len(ids) > 0 {
			if err := tx.Where("id IN ?", ids).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Where("domain_id = ? AND kind = ?", domainID, kind).Delete(&models.DomainScan{}).Error
	}
}

// DeleteClaim removes orgID's claim on domainID.
func DeleteClaim(orgID, domainID uint) StepFunc {
	return func(tx *gorm.DB) error {
		return tx.Where("organization_id = ? AND domain_id = ?", orgID, domainID).Delete(&models.Claim{}).Error
	}
}

// DeleteDomain removes the domain node.
func DeleteDomain(domainID uint) StepFunc {
	return func(tx *gorm.DB) error {
		return tx.Where("id = ?", domainID).Delete(&models.Domain{}).Error
	}
}

// DeleteAffiliation removes userID's affiliation to orgID.
func DeleteAffiliation(orgID, userID uint) StepFunc {
	return func(tx *gorm.DB) error {
		return tx.Where("organization_id = ? AND user_id = ?", orgID, userID).Delete(&models.Affiliation{}).Error
	}
}

// DeleteAffiliations removes every affiliation into orgID.
func DeleteAffiliations(orgID uint) StepFunc {
	return func(tx *gorm.DB) error {
		return tx.Where("organization_id = ?", orgID).Delete(&models.Affiliation{}).Error
	}
}

// DeleteOrganization removes the organization node and its locale details.
func DeleteOrganization(orgID uint) StepFunc {
	return func(tx *gorm.DB) error {
		return deleteOrganization(tx, orgID)
	}
}

// DeleteOrganizationIfEmpty removes the organization when no affiliations
// into it remain, reporting the outcome through removed.
func DeleteOrganizationIfEmpty(orgID uint, removed *bool) StepFunc {
	return func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Affiliation{}).Where("organization_id = ?", orgID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		if err := deleteOrganization(tx, orgID); err != nil {
			return err
		}
		*removed = true
		return nil
	}
}

func deleteOrganization(tx *gorm.DB, orgID uint) error {
	if err := tx.Where("organization_id = ?", orgID).Delete(&models.OrganizationDetail{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", orgID).Delete(&models.Organization{}).Error
}

// UpdatePermission sets the permission of an affiliation.
func UpdatePermission(affiliationID uint, perm models.Permission) StepFunc {
	return func(tx *gorm.DB) error {
		if !perm.Valid() {
			return models.ErrInvalidPermission
		}
		return tx.Model(&models.Affiliation{}).Where("id = ?", affiliationID).Update("permission", perm).Error
	}
}

// RecordRoleChange appends a role change to the audit trail.
func RecordRoleChange(change *models.RoleChange) StepFunc {
	return func(tx *gorm.DB) error {
		return tx.Create(change).Error
	}
}
