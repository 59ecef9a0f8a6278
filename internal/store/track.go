package store

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/xRamax/scrapper-violet-wave/internal/model"
)

// Alerter is notified of runs that failed or degraded.
type Alerter interface {
	RunAlert(ctx context.Context, run model.Run) error
}

// Outcome is what a tracked operation reports back.
type Outcome struct {
	Detail   any
	Degraded error // set when the operation swallowed a store failure
}

// Tracker records each operation as a run and alerts on bad outcomes. Both
// the store and the alerter are optional; recording problems are logged and
// never fail the operation.
type Tracker struct {
	store   Store
	alerter Alerter
}

// NewTracker returns a Tracker. Either argument may be nil.
func NewTracker(s Store, a Alerter) *Tracker {
	return &Tracker{store: s, alerter: a}
}

// Track runs fn as a run of the given kind and returns fn's error.
func (t *Tracker) Track(ctx context.Context, kind model.RunKind, fn func(ctx context.Context) (Outcome, error)) (model.Run, error) {
	log := zap.L().With(zap.String("run_kind", string(kind)))

	run := model.Run{Kind: kind, Status: model.RunStatusRunning, CreatedAt: time.Now().UTC()}
	if t.store != nil {
		created, err := t.store.CreateRun(ctx, kind)
		if err != nil {
			log.Warn("store: could not record run start", zap.Error(err))
		} else {
			run = *created
		}
	}

	out, fnErr := fn(ctx)

	run.UpdatedAt = time.Now().UTC()
	switch {
	case fnErr != nil:
		run.Status = model.RunStatusFailed
		run.Error = fnErr.Error()
	case out.Degraded != nil:
		run.Status = model.RunStatusDegraded
		run.Error = out.Degraded.Error()
	default:
		run.Status = model.RunStatusComplete
	}
	if detail, err := marshalDetail(out.Detail); err == nil && detail != nil {
		run.Detail = json.RawMessage(detail)
	}

	// Record the result even when the operation was cancelled.
	ctx = context.WithoutCancel(ctx)

	if t.store != nil && run.ID != "" {
		if err := t.store.FinishRun(ctx, run.ID, run.Status, run.Detail, run.Error); err != nil {
			log.Warn("store: could not record run result", zap.String("run_id", run.ID), zap.Error(err))
		}
	}

	if t.alerter != nil && run.Status != model.RunStatusComplete {
		if err := t.alerter.RunAlert(ctx, run); err != nil {
			log.Error("store: run alert failed", zap.String("run_id", run.ID), zap.Error(err))
		}
	}

	return run, fnErr
}
