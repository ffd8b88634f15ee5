package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	keyLeftOrganization    = "status.left_organization"
	keyRemovedOrganization = "status.removed_organization"
	keyUpdatedRole         = "status.updated_role"

	keyNotAffiliated         = "denial.not_affiliated"
	keyUnknownUser           = "denial.unknown_user"
	keyUnknownOrganization   = "denial.unknown_organization"
	keyUserNotInOrganization = "denial.user_not_in_organization"
	keySelfModification      = "denial.self_modification"
	keyInsufficient          = "denial.insufficient_permission"
	keyCannotLowerSuperAdmin = "denial.cannot_lower_super_admin"
	keyVerifiedRemoval       = "denial.verified_requires_super_admin"
	keyNoStanding            = "denial.no_standing"

	keyLeaveFailed  = "failure.leave_organization"
	keyRemoveFailed = "failure.remove_organization"
	keyRoleFailed   = "failure.update_user_role"
	keyGenericError = "failure.generic"
)

var messages = map[language.Tag]map[string]string{
	language.English: {
		keyLeftOrganization:    "Successfully left organization: %s.",
		keyRemovedOrganization: "Successfully removed organization: %s.",
		keyUpdatedRole:         "User role was updated successfully.",

		keyNotAffiliated:         "Unable to leave organization. You are not affiliated with it.",
		keyUnknownUser:           "Unable to update role: user unknown.",
		keyUnknownOrganization:   "Unable to find the requested organization.",
		keyUserNotInOrganization: "Unable to update role: user does not belong to this organization.",
		keySelfModification:      "Unable to update your own role.",
		keyInsufficient:          "Permission Denied: Please contact organization admin for help with user role changes.",
		keyCannotLowerSuperAdmin: "Permission Denied: Please contact super admin for help with user role changes.",
		keyVerifiedRemoval:       "Permission Denied: Please contact super admin for help with removing organization.",
		keyNoStanding:            "Permission Denied: Please contact organization admin for help with removing organization.",

		keyLeaveFailed:  "Unable to leave organization. Please try again.",
		keyRemoveFailed: "Unable to remove organization. Please try again.",
		keyRoleFailed:   "Unable to update user's role. Please try again.",
		keyGenericError: "An error occurred. Please try again.",
	},
	language.French: {
		keyLeftOrganization:    "L'organisation a été quittée avec succès : %s.",
		keyRemovedOrganization: "L'organisation a été supprimée avec succès : %s.",
		keyUpdatedRole:         "Le rôle de l'utilisateur a été mis à jour avec succès.",

		keyNotAffiliated:         "Impossible de quitter l'organisation. Vous n'y êtes pas affilié.",
		keyUnknownUser:           "Impossible de mettre à jour le rôle : utilisateur inconnu.",
		keyUnknownOrganization:   "Impossible de trouver l'organisation demandée.",
		keyUserNotInOrganization: "Impossible de mettre à jour le rôle : l'utilisateur n'appartient pas à cette organisation.",
		keySelfModification:      "Impossible de mettre à jour votre propre rôle.",
		keyInsufficient:          "Permission refusée : Veuillez contacter l'administrateur de l'organisation pour obtenir de l'aide concernant les changements de rôle.",
		keyCannotLowerSuperAdmin: "Permission refusée : Veuillez contacter le super administrateur pour obtenir de l'aide concernant les changements de rôle.",
		keyVerifiedRemoval:       "Permission refusée : Veuillez contacter le super administrateur pour obtenir de l'aide concernant la suppression de l'organisation.",
		keyNoStanding:            "Permission refusée : Veuillez contacter l'administrateur de l'organisation pour obtenir de l'aide concernant la suppression de l'organisation.",

		keyLeaveFailed:  "Impossible de quitter l'organisation. Veuillez réessayer.",
		keyRemoveFailed: "Impossible de supprimer l'organisation. Veuillez réessayer.",
		keyRoleFailed:   "Impossible de mettre à jour le rôle de l'utilisateur. Veuillez réessayer.",
		keyGenericError: "Une erreur s'est produite. Veuillez réessayer.",
	},
}

func buildCatalog() (*catalog.Builder, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, entries := range messages {
		for key, msg := range entries {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}
