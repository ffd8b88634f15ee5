package lifecycle

import (
	"context"

	"github.com/mikepea/tracker/pkg/tracker/outcome"
	"github.com/mikepea/tracker/pkg/tracker/store"
)

// LeaveOrganization removes the acting user's affiliation to orgID. Every
// domain the organization claims is released first: summaries and ownership
// go when the organization is the designated owner, and the domain with its
// scan data, summaries and ownership goes when no other organization claims
// it. The organization itself is deleted once no affiliations remain.
func (e *Engine) LeaveOrganization(ctx context.Context, userID, orgID uint) (outcome.Result, error) {
	r := e.newRun(ctx, outcome.OpLeaveOrganization, userID, orgID)

	aff, err := e.store.FindAffiliation(ctx, orgID, userID)
	if err != nil {
		return r.fail(PhaseAuthorize, "checking affiliation", err)
	}
	if aff == nil {
		return r.deny(outcome.Denied(outcome.ReasonNotAffiliated))
	}
	org, err := e.store.FindOrganization(ctx, orgID)
	if err != nil {
		return r.fail(PhaseAuthorize, "loading organization", err)
	}
	if org == nil {
		return r.deny(outcome.Denied(outcome.ReasonUnknownOrganization))
	}
	r.advance(StateAuthorized)

	r.advance(StateGathering)
	uow, err := e.store.Begin(ctx, string(outcome.OpLeaveOrganization))
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
	if err := uow.Step("removeAffiliation", store.DeleteAffiliation(orgID, userID)); err != nil {
		return r.failStep(err)
	}
	orgRemoved := false
	if err := uow.Step("removeOrganizationIfEmpty", store.DeleteOrganizationIfEmpty(orgID, &orgRemoved)); err != nil {
		return r.failStep(err)
	}

	r.advance(StateCommitting)
	if err := uow.Commit(); err != nil {
		return r.fail(PhaseCommit, activity(r.op), err)
	}

	res := outcome.Succeeded(outcome.StatusLeftOrganization, org.Names())
	if orgRemoved {
		r.log.Info("organization removed after last affiliation left")
	}
	return r.succeed(res)
}
