package database

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mikepea/tracker/pkg/tracker/auth"
	"github.com/mikepea/tracker/pkg/tracker/config"
	"github.com/mikepea/tracker/pkg/tracker/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EnsureSuperAdmin creates the verified super admin organization and its
// first super admin when no super admin affiliation exists yet. When no
// password is configured a random one is generated and logged once.
func EnsureSuperAdmin(db *gorm.DB, cfg config.SeedConfig, log *zap.Logger) error {
	var count int64
	if err := db.Model(&models.Affiliation{}).
		Where("permission = ?", models.PermissionSuperAdmin).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := cfg.AdminPassword
	generated := password == ""
	if generated {
		password = uuid.NewString()
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Where("username = ?", cfg.AdminUsername).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{
				Username:       cfg.AdminUsername,
				DisplayName:    "Super Admin",
				PasswordHash:   hash,
				PreferredLang:  models.LocaleEnglish,
				EmailValidated: true,
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		}

		org := models.Organization{Verified: true}
		if err := tx.Create(&org).Error; err != nil {
			return err
		}
		for _, locale := range []string{models.LocaleEnglish, models.LocaleFrench} {
			detail := models.OrganizationDetail{
				OrganizationID: org.ID,
				Locale:         locale,
				Slug:           fmt.Sprintf("super-admin-%s", locale),
				Name:           cfg.AdminOrg,
				Acronym:        "SA",
			}
			if err := tx.Create(&detail).Error; err != nil {
				return err
			}
		}

		aff := models.Affiliation{
			OrganizationID: org.ID,
			UserID:         user.ID,
			Permission:     models.PermissionSuperAdmin,
			Owner:          true,
		}
		if err := tx.Create(&aff).Error; err != nil {
			return err
		}

		fields := []zap.Field{zap.String("username", user.Username), zap.Uint("org_key", org.ID)}
		if generated {
			fields = append(fields, zap.String("password", password))
		}
		log.Info("created super admin", fields...)
		return nil
	})
}
