package lifecycle

import (
	"context"

	"github.com/mikepea/tracker/pkg/tracker/outcome"
	"github.com/mikepea/tracker/pkg/tracker/permissions"
	"github.com/mikepea/tracker/pkg/tracker/store"
)

// RemoveOrganization deletes orgID with every affiliation into it, releasing
// each claimed domain the same way LeaveOrganization does. Verified
// organizations require SUPER_ADMIN; unverified ones ADMIN or SUPER_ADMIN.
func (e *Engine) RemoveOrganization(ctx context.Context, userID, orgID uint) (outcome.Result, error) {
	r := e.newRun(ctx, outcome.OpRemoveOrganization, userID, orgID)

	org, err := e.store.FindOrganization(ctx, orgID)
	if err != nil {
		return r.fail(PhaseAuthorize, "loading organization", err)
	}
	if org == nil {
		return r.deny(outcome.Denied(outcome.ReasonUnknownOrganization))
	}
	tier, err := e.evaluator.TierOf(ctx, userID, orgID)
	if err != nil {
		return r.fail(PhaseAuthorize, "checking tier", err)
	}
	if org.Verified && tier != permissions.TierSuperAdmin {
		return r.deny(outcome.DeniedWith(outcome.ReasonPermissionDenied, outcome.DetailVerifiedRequiresSuperAdmin))
	}
	if tier < permissions.TierAdmin {
		return r.deny(outcome.DeniedWith(outcome.ReasonPermissionDenied, outcome.DetailNoStanding))
	}
	r.advance(StateAuthorized)

	r.advance(StateGathering)
	uow, err := e.store.Begin(ctx, string(outcome.OpRemoveOrganization))
	if err != nil {
		return r.fail(StepPhase("begin"), activity(r.op), err)
	}
	defer uow.Rollback()

	plans, err := gather(ctx, uow.Store(), orgID)
	if err != nil {
		return r.failGather(err)
	}

	r.advance(StateExecuting)
	if err := applyAll(uow, orgID, plans); err != nil {
		return r.failStep(err)
	}
	if err := uow.Step("removeAffiliations", store.DeleteAffiliations(orgID)); err != nil {
		return r.failStep(err)
	}
	if err := uow.Step("removeOrganization", store.DeleteOrganization(orgID)); err != nil {
		return r.failStep(err)
	}

	r.advance(StateCommitting)
	if err := uow.Commit(); err != nil {
		return r.fail(PhaseCommit, activity(r.op), err)
	}
	return r.succeed(outcome.Succeeded(outcome.StatusRemovedOrganization, org.Names()))
}
