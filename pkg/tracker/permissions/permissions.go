// Package permissions evaluates per-organization permission tiers.
package permissions

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikepea/tracker/pkg/tracker/models"
	"github.com/mikepea/tracker/pkg/tracker/outcome"
	"github.com/mikepea/tracker/pkg/tracker/store"
	"go.uber.org/zap"
)

// Tier is a totally ordered permission level. TierNone means no affiliation.
type Tier int

const (
	TierNone Tier = iota
	TierUser
	TierAdmin
	TierSuperAdmin
)

func (t Tier) String() string {
	switch t {
	case TierUser:
		return "USER"
	case TierAdmin:
		return "ADMIN"
	case TierSuperAdmin:
		return "SUPER_ADMIN"
	}
	return "NONE"
}

// FromPermission maps a stored permission to its tier. Unknown values map to
// TierNone.
func FromPermission(p models.Permission) Tier {
	switch p {
	case models.PermissionUser:
		return TierUser
	case models.PermissionAdmin:
		return TierAdmin
	case models.PermissionSuperAdmin:
		return TierSuperAdmin
	}
	return TierNone
}

// Permission maps the tier back to its stored value. TierNone has none.
func (t Tier) Permission() models.Permission {
	switch t {
	case TierUser:
		return models.PermissionUser
	case TierAdmin:
		return models.PermissionAdmin
	case TierSuperAdmin:
		return models.PermissionSuperAdmin
	}
	return ""
}

// ParseTier accepts either the stored form ("super_admin") or the symbolic
// form ("SUPER_ADMIN").
func ParseTier(s string) (Tier, error) {
	if t := FromPermission(models.Permission(strings.ToLower(strings.TrimSpace(s)))); t != TierNone {
		return t, nil
	}
	return TierNone, fmt.Errorf("unknown permission tier %q", s)
}

// EvaluationError reports a store failure during a permission lookup. It is
// never used for an absent affiliation.
type EvaluationError struct {
	UserID uint
	Err    error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("permission evaluation for user %d: %v", e.UserID, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// Evaluator answers tier and reach questions against the store.
type Evaluator struct {
	store *store.Store
	log   *zap.Logger
}

// NewEvaluator creates an evaluator.
func NewEvaluator(s *store.Store, log *zap.Logger) *Evaluator {
	return &Evaluator{store: s, log: log}
}

// TierOf returns userID's tier in orgID.
func (e *Evaluator) TierOf(ctx context.Context, userID, orgID uint) (Tier, error) {
	aff, err := e.store.FindAffiliation(ctx, orgID, userID)
	if err != nil {
		e.log.Error(store.Message(err, "checking tier"),
			zap.Uint("user_key", userID),
			zap.Uint("org_key", orgID),
			zap.Error(err),
		)
		return TierNone, &EvaluationError{UserID: userID, Err: err}
	}
	if aff == nil {
		return TierNone, nil
	}
	return FromPermission(aff.Permission), nil
}

// CanActOnUser reports whether actingID holds ADMIN or SUPER_ADMIN in an
// organization targetID also belongs to.
func (e *Evaluator) CanActOnUser(ctx context.Context, actingID, targetID uint) (bool, error) {
	perms, err := e.store.SharedPermissions(ctx, actingID, targetID)
	if err != nil {
		e.log.Error(store.Message(err, "checking user permission"),
			zap.Uint("user_key", actingID),
			zap.Uint("target_key", targetID),
			zap.Error(err),
		)
		return false, &EvaluationError{UserID: actingID, Err: err}
	}
	for _, p := range perms {
		if FromPermission(p) >= TierAdmin {
			return true, nil
		}
	}
	return false, nil
}

// CanChangeRole decides whether a user at acting may move a target from
// current to requested. It returns outcome.ReasonNone when allowed.
func CanChangeRole(acting, current, requested Tier, isSelf bool) outcome.Reason {
	if isSelf {
		return outcome.ReasonSelfModification
	}
	if acting <= TierUser {
		return outcome.ReasonInsufficientPermission
	}
	if current == TierSuperAdmin {
		return outcome.ReasonCannotLowerSuperAdmin
	}
	if requested == TierNone || (current != TierUser && current != TierAdmin) {
		return outcome.ReasonInsufficientPermission
	}
	switch acting {
	case TierSuperAdmin:
		return outcome.ReasonNone
	case TierAdmin:
		if requested == TierUser || requested == TierAdmin {
			return outcome.ReasonNone
		}
	}
	return outcome.ReasonInsufficientPermission
}
