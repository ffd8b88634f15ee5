// Package lifecycle removes memberships and organizations, cascading through
// claims, ownership, domains and scan data inside a single transaction.
package lifecycle

import (
	"context"
	"errors"

	"github.com/mikepea/tracker/pkg/tracker/models"
	"github.com/mikepea/tracker/pkg/tracker/outcome"
	"github.com/mikepea/tracker/pkg/tracker/permissions"
	"github.com/mikepea/tracker/pkg/tracker/store"
	"go.uber.org/zap"
)

// Engine runs LeaveOrganization and RemoveOrganization.
type Engine struct {
	store     *store.Store
	evaluator *permissions.Evaluator
	log       *zap.Logger
	recorder  outcome.Recorder
}

// NewEngine creates an engine. recorder may be nil.
func NewEngine(s *store.Store, evaluator *permissions.Evaluator, log *zap.Logger, recorder outcome.Recorder) *Engine {
	return &Engine{store: s, evaluator: evaluator, log: log, recorder: recorder}
}

// domainPlan is what the engine learned about one claimed domain inside the
// transaction, after locking it.
type domainPlan struct {
	DomainID        uint
	Name            string
	RemainingClaims int64
	OwnerID         uint // 0 when the domain has no ownership edge
}

// Gather steps, reported in logs when the GATHERING phase fails.
const (
	gatherDomainInfo   = "domain-info"
	gatherSummaryCheck = "summary-check"
)

type gatherError struct {
	step     string
	domainID uint
	err      error
}

func (e *gatherError) Error() string { return e.err.Error() }
func (e *gatherError) Unwrap() error { return e.err }

// gather plans the cascade for every domain orgID claims. s must be bound to
// the unit of work that applies the plan: each domain is locked before its
// claims are counted, so a concurrent cascade over the same domain waits for
// this one and then sees its result.
func gather(ctx context.Context, s *store.Store, orgID uint) ([]domainPlan, error) {
	claimed, err := s.ClaimedDomains(ctx, orgID)
	if err != nil {
		return nil, &gatherError{step: gatherDomainInfo, err: err}
	}

	plans := make([]domainPlan, 0, len(claimed))
	for _, d := range claimed {
		found, err := s.LockDomain(ctx, d.DomainID)
		if err != nil {
			return nil, &gatherError{step: gatherDomainInfo, domainID: d.DomainID, err: err}
		}
		if !found {
			continue
		}
		remaining, err := s.CountOtherClaims(ctx, d.DomainID, orgID)
		if err != nil {
			return nil, &gatherError{step: gatherDomainInfo, domainID: d.DomainID, err: err}
		}
		own, err := s.FindOwnership(ctx, d.DomainID)
		if err != nil {
			return nil, &gatherError{step: gatherSummaryCheck, domainID: d.DomainID, err: err}
		}
		plan := domainPlan{DomainID: d.DomainID, Name: d.Name, RemainingClaims: remaining}
		if own != nil {
			plan.OwnerID = own.OrganizationID
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func (r *run) failGather(err error) (outcome.Result, error) {
	var ge *gatherError
	if errors.As(err, &ge) {
		activity := "gathering domain info"
		if ge.step == gatherSummaryCheck {
			activity = "checking dmarc summaries"
		}
		return r.fail(PhaseGathering, activity, ge.err,
			zap.String("gather_step", ge.step),
			zap.Uint("domain_key", ge.domainID),
		)
	}
	return r.fail(PhaseGathering, "gathering domain info", err)
}

// applyDomainSteps removes orgID's stake in one domain. When no other
// organization claims it the whole domain goes: summaries and ownership of
// whichever organization owns it, every scan artifact, the claim and the
// domain node. Otherwise only orgID's claim goes, along with summaries and
// ownership when orgID is the designated owner.
func applyDomainSteps(uow *store.UnitOfWork, orgID uint, plan domainPlan) error {
	purge := plan.RemainingClaims == 0
	if plan.OwnerID != 0 && (plan.OwnerID == orgID || purge) {
		if err := uow.Step("removeDmarcSummaries", store.DeleteSummaries(plan.DomainID)); err != nil {
			return err
		}
		if err := uow.Step("removeOwnership", store.DeleteOwnership(plan.OwnerID, plan.DomainID)); err != nil {
			return err
		}
	}

	if !purge {
		return uow.Step("removeClaim", store.DeleteClaim(orgID, plan.DomainID))
	}

	for _, kind := range models.ScanKinds {
		if err := uow.Step("removeScans:"+string(kind), store.DeleteScans(plan.DomainID, kind)); err != nil {
			return err
		}
	}
	if err := uow.Step("removeClaim", store.DeleteClaim(orgID, plan.DomainID)); err != nil {
		return err
	}
	return uow.Step("removeDomain", store.DeleteDomain(plan.DomainID))
}

type domainStepError struct {
	plan domainPlan
	err  error
}

func (e *domainStepError) Error() string { return e.err.Error() }
func (e *domainStepError) Unwrap() error { return e.err }

// applyAll runs applyDomainSteps for every plan, stopping at the first
// failed step.
func applyAll(uow *store.UnitOfWork, orgID uint, plans []domainPlan) error {
	for _, plan := range plans {
		if err := applyDomainSteps(uow, orgID, plan); err != nil {
			return &domainStepError{plan: plan, err: err}
		}
	}
	return nil
}

func (r *run) failStep(err error) (outcome.Result, error) {
	var fields []zap.Field
	var de *domainStepError
	if errors.As(err, &de) {
		fields = append(fields, zap.Uint("domain_key", de.plan.DomainID), zap.String("domain", de.plan.Name))
		err = de.err
	}

	step := "unknown"
	var se *store.Error
	if errors.As(err, &se) {
		step = se.Op
	}
	fields = append(fields, zap.String("step", step))
	return r.fail(StepPhase(step), activity(r.op), err, fields...)
}

func activity(op outcome.Operation) string {
	switch op {
	case outcome.OpLeaveOrganization:
		return "leaving organization"
	case outcome.OpRemoveOrganization:
		return "removing organization"
	}
	return string(op)
}
