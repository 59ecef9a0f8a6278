// Package reconcile updates a lead's status from an inbound phone number.
package reconcile

import (
	"context"

	"go.uber.org/zap"

	"github.com/xRamax/scrapper-violet-wave/internal/leadstore"
	"github.com/xRamax/scrapper-violet-wave/internal/model"
	"github.com/xRamax/scrapper-violet-wave/internal/phone"
)

// DefaultPhoneColumn is used when no Phone header can be found.
const DefaultPhoneColumn = 2

// phoneHeaders are tried in order when resolving the phone column.
var phoneHeaders = []string{model.ColumnPhone, "phone", "PHONE"}

// Store is the subset of leadstore.Adapter used by the reconciler.
type Store interface {
	Header(ctx context.Context) ([]string, error)
	ColumnValues(ctx context.Context, col int) ([]string, error)
	SetCell(ctx context.Context, row, col int, value string) error
}

// Reconciler matches inbound numbers to stored leads.
type Reconciler struct {
	store Store
}

// New returns a Reconciler over store.
func New(store Store) *Reconciler {
	return &Reconciler{store: store}
}

// ReconcileByPhone sets the status of the first lead whose stored phone
// matches target on the last phone.MatchDigits digits. Unmatched targets
// write nothing.
//
// The suffix rule tolerates a country code or prefix on the inbound number
// but can match two distinct numbers that share their last eight digits.
//
// Errors are reported on the result, never returned: a missing Status column
// or a store failure yields Updated=false with a Failure.
func (r *Reconciler) ReconcileByPhone(ctx context.Context, target, status string) model.ReconcileResult {
	normalized := phone.Normalize(target)

	// One header read resolves both columns for this call.
	header, err := r.store.Header(ctx)
	if err != nil {
		return degraded(model.ReasonStoreRead, err, target)
	}
	statusCol := column(header, model.ColumnStatus)
	if statusCol == 0 {
		return degraded(model.ReasonColumnNotFound, &leadstore.ColumnNotFoundError{Name: model.ColumnStatus}, target)
	}
	phoneCol := phoneColumn(header)

	values, err := r.store.ColumnValues(ctx, phoneCol)
	if err != nil {
		return degraded(model.ReasonStoreRead, err, target)
	}

	for i := 1; i < len(values); i++ {
		if !phone.SuffixMatch(normalized, values[i]) {
			continue
		}
		if err := r.store.SetCell(ctx, i+1, statusCol, status); err != nil {
			return degraded(model.ReasonStoreWrite, err, target)
		}
		zap.L().Info("reconcile: status updated",
			zap.Int("row", i-1),
			zap.String("status", status),
		)
		return model.ReconcileResult{Updated: true, Row: i - 1}
	}

	zap.L().Info("reconcile: no matching lead", zap.Int("rows_scanned", max(len(values)-1, 0)))
	return model.ReconcileResult{Row: -1}
}

// phoneColumn resolves the Phone header, trying case variants, and falls back
// to DefaultPhoneColumn.
func phoneColumn(header []string) int {
	for _, name := range phoneHeaders {
		if col := column(header, name); col > 0 {
			return col
		}
	}
	return DefaultPhoneColumn
}

// column returns the 1-based position of name in header, or 0.
func column(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i + 1
		}
	}
	return 0
}

func degraded(reason model.FailureReason, err error, target string) model.ReconcileResult {
	zap.L().Error("reconcile: failed, no status written",
		zap.String("reason", string(reason)),
		zap.Int("target_digits", len(phone.Normalize(target))),
		zap.Error(err),
	)
	return model.ReconcileResult{Row: -1, Failure: &model.Failure{Reason: reason, Err: err}}
}
