package models

import "gorm.io/gorm"

// AllModels returns all models for migration
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Organization{},
		&OrganizationDetail{},
		&Affiliation{},
		&RoleChange{},
		&Domain{},
		&Claim{},
		&Ownership{},
		&DomainScan{},
		&DKIMScan{},
		&DMARCScan{},
		&SPFScan{},
		&HTTPSScan{},
		&TLSScan{},
		&DmarcSummary{},
		&DomainSummary{},
	}
}

// AutoMigrate runs GORM auto-migration for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
