package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/xRamax/scrapper-violet-wave/internal/model"
	"github.com/xRamax/scrapper-violet-wave/internal/store"
)

// MetricsSnapshot holds a point-in-time view of run health.
type MetricsSnapshot struct {
	Total    int     `json:"total"`
	Running  int     `json:"running"`
	Complete int     `json:"complete"`
	Degraded int     `json:"degraded"`
	Failed   int     `json:"failed"`
	FailRate float64 `json:"fail_rate"` // failed / finished

	ByKind       map[model.RunKind]int `json:"by_kind"`
	FailedByKind map[model.RunKind]int `json:"failed_by_kind"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// RunLister is the part of the run store the collector reads.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error)
}

// Collector gathers metrics from the run store.
type Collector struct {
	runs RunLister
}

// NewCollector creates a new metrics collector.
func NewCollector(runs RunLister) *Collector {
	return &Collector{runs: runs}
}

// Collect gathers a snapshot of run metrics over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	now := time.Now().UTC()
	snap := &MetricsSnapshot{
		ByKind:        make(map[model.RunKind]int),
		FailedByKind:  make(map[model.RunKind]int),
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}

	runs, err := c.runs.ListRuns(ctx, store.RunFilter{
		CreatedAfter: now.Add(-time.Duration(lookbackHours) * time.Hour),
		Limit:        10000,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap.Total = len(runs)
	for _, r := range runs {
		snap.ByKind[r.Kind]++
		switch r.Status {
		case model.RunStatusRunning:
			snap.Running++
		case model.RunStatusComplete:
			snap.Complete++
		case model.RunStatusDegraded:
			snap.Degraded++
		case model.RunStatusFailed:
			snap.Failed++
			snap.FailedByKind[r.Kind]++
		}
	}

	if finished := snap.Complete + snap.Degraded + snap.Failed; finished > 0 {
		snap.FailRate = float64(snap.Failed) / float64(finished)
	}
	return snap, nil
}
