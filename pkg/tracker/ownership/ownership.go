// Package ownership resolves domain-scoped rights through ownership edges.
package ownership

import (
	"context"
	"fmt"

	"github.com/mikepea/tracker/pkg/tracker/store"
	"go.uber.org/zap"
)

// Phase is the resolution step that was running when a check failed.
type Phase string

const (
	PhaseSuperAdmin  Phase = "super_admin"
	PhaseAffiliation Phase = "affiliation"
)

// OwnershipCheckError reports a store failure during CanActOnDomain. Phase is
// for diagnostics; the message does not reveal it.
type OwnershipCheckError struct {
	Phase    Phase
	UserID   uint
	DomainID uint
	Err      error
}

func (e *OwnershipCheckError) Error() string {
	return fmt.Sprintf("unable to check permission for domain %d", e.DomainID)
}

func (e *OwnershipCheckError) Unwrap() error {
	return e.Err
}

// Resolver answers whether a user may act on a domain.
type Resolver struct {
	store *store.Store
	log   *zap.Logger
}

// NewResolver creates a resolver.
func NewResolver(s *store.Store, log *zap.Logger) *Resolver {
	return &Resolver{store: s, log: log}
}

// CanActOnDomain grants when userID is a super admin of, or otherwise
// affiliated with, the organization that owns domainID. A domain without an
// ownership edge is denied.
func (r *Resolver) CanActOnDomain(ctx context.Context, userID, domainID uint) (bool, error) {
	ok, err := r.store.HasSuperAdminOwnership(ctx, userID, domainID)
	if err != nil {
		return false, r.fail(PhaseSuperAdmin, userID, domainID, err)
	}
	if ok {
		return true, nil
	}

	ok, err = r.store.HasAffiliatedOwnership(ctx, userID, domainID)
	if err != nil {
		return false, r.fail(PhaseAffiliation, userID, domainID, err)
	}
	return ok, nil
}

func (r *Resolver) fail(phase Phase, userID, domainID uint, err error) error {
	r.log.Error(store.Message(err, "checking domain ownership"),
		zap.String("phase", string(phase)),
		zap.Uint("user_key", userID),
		zap.Uint("domain_key", domainID),
		zap.Error(err),
	)
	return &OwnershipCheckError{Phase: phase, UserID: userID, DomainID: domainID, Err: err}
}
