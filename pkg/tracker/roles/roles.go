// Package roles applies permission changes to existing affiliations.
package roles

import (
	"context"
	"time"

	"github.com/mikepea/tracker/pkg/tracker/logger"
	"github.com/mikepea/tracker/pkg/tracker/metrics"
	"github.com/mikepea/tracker/pkg/tracker/models"
	"github.com/mikepea/tracker/pkg/tracker/outcome"
	"github.com/mikepea/tracker/pkg/tracker/permissions"
	"github.com/mikepea/tracker/pkg/tracker/store"
	"go.uber.org/zap"
)

// Request asks to move TargetUsername to Requested within OrganizationID.
type Request struct {
	ActingUserID   uint
	TargetUsername string
	OrganizationID uint
	Requested      permissions.Tier
}

// Service runs the role-update workflow.
type Service struct {
	store     *store.Store
	evaluator *permissions.Evaluator
	log       *zap.Logger
	recorder  outcome.Recorder
}

// NewService creates a role service. recorder may be nil.
func NewService(s *store.Store, evaluator *permissions.Evaluator, log *zap.Logger, recorder outcome.Recorder) *Service {
	return &Service{store: s, evaluator: evaluator, log: log, recorder: recorder}
}

// UpdateUserRole validates and applies a role change, recording it in the
// audit trail within the same transaction.
func (s *Service) UpdateUserRole(ctx context.Context, req Request) (outcome.Result, error) {
	started := time.Now()
	log := s.log.With(append(logger.ContextFields(ctx),
		zap.Uint("user_key", req.ActingUserID),
		zap.String("target_username", req.TargetUsername),
		zap.Uint("org_key", req.OrganizationID),
	)...)

	observe := func(result, phase string) {
		if s.recorder != nil {
			s.recorder.ObserveOperation(outcome.OpUpdateUserRole, result, phase, time.Since(started))
		}
	}
	deny := func(reason outcome.Reason) (outcome.Result, error) {
		log.Info("role update denied", zap.String("reason", string(reason)))
		observe(metrics.ResultDenied, "")
		return outcome.Denied(reason), nil
	}
	fail := func(phase, activity string, err error) (outcome.Result, error) {
		log.Error(store.Message(err, activity), zap.String("phase", phase), zap.Error(err))
		observe(metrics.ResultFailed, phase)
		return outcome.Result{}, &outcome.Failure{Op: outcome.OpUpdateUserRole, Phase: phase, Err: err}
	}

	target, err := s.store.FindUserByUsername(ctx, req.TargetUsername)
	if err != nil {
		return fail("LOOKUP", "finding user", err)
	}
	if target == nil {
		return deny(outcome.ReasonUnknownUser)
	}

	org, err := s.store.FindOrganization(ctx, req.OrganizationID)
	if err != nil {
		return fail("LOOKUP", "finding organization", err)
	}
	if org == nil {
		return deny(outcome.ReasonUnknownOrganization)
	}

	aff, err := s.store.FindAffiliation(ctx, org.ID, target.ID)
	if err != nil {
		return fail("LOOKUP", "finding affiliation", err)
	}
	if aff == nil {
		return deny(outcome.ReasonUserNotInOrganization)
	}

	acting, err := s.evaluator.TierOf(ctx, req.ActingUserID, org.ID)
	if err != nil {
		return fail("LOOKUP", "checking tier", err)
	}
	current := permissions.FromPermission(aff.Permission)
	isSelf := target.ID == req.ActingUserID
	if reason := permissions.CanChangeRole(acting, current, req.Requested, isSelf); reason != outcome.ReasonNone {
		return deny(reason)
	}

	uow, err := s.store.Begin(ctx, string(outcome.OpUpdateUserRole))
	if err != nil {
		return fail("STEP:begin", "updating role", err)
	}
	defer uow.Rollback()

	next := req.Requested.Permission()
	if err := uow.Step("updatePermission", store.UpdatePermission(aff.ID, next)); err != nil {
		return fail("STEP:updatePermission", "updating role", err)
	}
	change := &models.RoleChange{
		OrganizationID: org.ID,
		ActorID:        req.ActingUserID,
		TargetUserID:   target.ID,
		Previous:       aff.Permission,
		Current:        next,
		RequestID:      logger.RequestID(ctx),
	}
	if err := uow.Step("recordRoleChange", store.RecordRoleChange(change)); err != nil {
		return fail("STEP:recordRoleChange", "updating role", err)
	}
	if err := uow.Commit(); err != nil {
		return fail("COMMIT", "updating role", err)
	}

	log.Info("role updated",
		zap.Uint("target_key", target.ID),
		zap.String("from", string(aff.Permission)),
		zap.String("to", string(next)),
	)
	observe(metrics.ResultSucceeded, "")

	res := outcome.Succeeded(outcome.StatusUpdatedRole, org.Names())
	res.Username = target.Username
	res.Permission = string(next)
	return res, nil
}
