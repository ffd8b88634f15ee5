package lifecycle

import (
	"context"
	"time"

	"github.com/mikepea/tracker/pkg/tracker/logger"
	"github.com/mikepea/tracker/pkg/tracker/metrics"
	"github.com/mikepea/tracker/pkg/tracker/outcome"
	"github.com/mikepea/tracker/pkg/tracker/store"
	"go.uber.org/zap"
)

// run tracks a single request through the state machine.
type run struct {
	op       outcome.Operation
	state    State
	started  time.Time
	log      *zap.Logger
	recorder outcome.Recorder
}

func (e *Engine) newRun(ctx context.Context, op outcome.Operation, userID, orgID uint) *run {
	fields := append(logger.ContextFields(ctx),
		zap.String("operation", string(op)),
		zap.Uint("user_key", userID),
		zap.Uint("org_key", orgID),
	)
	return &run{
		op:       op,
		state:    StateRequested,
		started:  time.Now(),
		log:      e.log.With(fields...),
		recorder: e.recorder,
	}
}

func (r *run) advance(next State) {
	if !r.state.CanTransitionTo(next) {
		r.log.DPanic("invalid lifecycle transition",
			zap.String("from", string(r.state)),
			zap.String("to", string(next)),
		)
	}
	r.log.Debug("lifecycle transition",
		zap.String("from", string(r.state)),
		zap.String("to", string(next)),
	)
	r.state = next
}

func (r *run) observe(result, phase string) {
	if r.recorder != nil {
		r.recorder.ObserveOperation(r.op, result, phase, time.Since(r.started))
	}
}

func (r *run) deny(res outcome.Result) (outcome.Result, error) {
	r.advance(StateDenied)
	r.log.Info("operation denied",
		zap.String("reason", string(res.Reason)),
		zap.String("detail", string(res.Detail)),
	)
	r.observe(metrics.ResultDenied, "")
	return res, nil
}

// fail moves the run to FAILED and returns the caller-facing failure. The
// transaction, if any, has already been rolled back by the unit of work or
// is rolled back by the caller's deferred Rollback.
func (r *run) fail(phase, activity string, err error, fields ...zap.Field) (outcome.Result, error) {
	r.advance(StateFailed)
	fields = append(fields, zap.String("phase", phase), zap.Error(err))
	r.log.Error(store.Message(err, activity), fields...)
	r.observe(metrics.ResultFailed, phase)
	return outcome.Result{}, &outcome.Failure{Op: r.op, Phase: phase, Err: err}
}

func (r *run) succeed(res outcome.Result) (outcome.Result, error) {
	r.advance(StateSucceeded)
	r.log.Info("operation succeeded", zap.String("status", string(res.Status)))
	r.observe(metrics.ResultSucceeded, "")
	return res, nil
}
