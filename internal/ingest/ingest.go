// Package ingest merges candidate leads into the lead store, skipping any
// whose normalized phone is already present.
package ingest

import (
	"context"

	"go.uber.org/zap"

	"github.com/xRamax/scrapper-violet-wave/internal/model"
	"github.com/xRamax/scrapper-violet-wave/internal/phone"
)

// Store is the subset of leadstore.Adapter used by ingest.
type Store interface {
	ExistingPhones(ctx context.Context) ([]string, error)
	AppendRows(ctx context.Context, leads []model.Lead) error
}

// Engine deduplicates and appends candidates.
//
// Known race: the read of existing phones and the append are separate store
// calls. Two Ingest calls running at the same time, in this process or
// another, can both see a phone as new and both append it. Nothing here
// serializes them.
type Engine struct {
	store Store
}

// New returns an Engine writing to store.
func New(store Store) *Engine {
	return &Engine{store: store}
}

// Ingest appends every candidate whose normalized phone is not in the store
// and not already taken by an earlier candidate of the same batch. New rows
// get Status "New" and keep the raw phone. All new rows go out in one append.
//
// Store failures never surface as errors: the result has zero counts and a
// Failure describing what went wrong.
func (e *Engine) Ingest(ctx context.Context, candidates []model.Candidate) model.IngestResult {
	if len(candidates) == 0 {
		return model.IngestResult{}
	}

	existing, err := e.store.ExistingPhones(ctx)
	if err != nil {
		return degraded(model.ReasonStoreRead, err, len(candidates))
	}

	seen := make(map[string]struct{}, len(existing)+len(candidates))
	for _, p := range existing {
		seen[phone.Normalize(p)] = struct{}{}
	}

	queue := make([]model.Lead, 0, len(candidates))
	for _, c := range candidates {
		key := phone.Normalize(c.Phone)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		queue = append(queue, model.Lead{
			Name:   c.Name,
			Phone:  c.Phone,
			Status: model.StatusNew,
			Notes:  c.Notes,
		})
	}

	if len(queue) > 0 {
		if err := e.store.AppendRows(ctx, queue); err != nil {
			return degraded(model.ReasonStoreWrite, err, len(candidates))
		}
	}

	res := model.IngestResult{
		Added:      len(queue),
		Duplicates: len(candidates) - len(queue),
	}
	zap.L().Info("ingest: complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("added", res.Added),
		zap.Int("duplicates", res.Duplicates),
	)
	return res
}

func degraded(reason model.FailureReason, err error, candidates int) model.IngestResult {
	zap.L().Error("ingest: store failure, nothing ingested",
		zap.String("reason", string(reason)),
		zap.Int("candidates", candidates),
		zap.Error(err),
	)
	return model.IngestResult{Failure: &model.Failure{Reason: reason, Err: err}}
}
