package outreach

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xRamax/scrapper-violet-wave/internal/model"
	"github.com/xRamax/scrapper-violet-wave/internal/resilience"
	"github.com/xRamax/scrapper-violet-wave/pkg/twilio"
)

// Store is the subset of leadstore.Adapter used by outreach.
type Store interface {
	LoadNew(ctx context.Context) ([]model.Lead, error)
	UpdateStatusAt(ctx context.Context, index int, status string) error
}

// RunnerConfig tunes a Runner.
type RunnerConfig struct {
	BatchLimit      int    // 0 means no limit
	ContactedStatus string // default model.StatusContacted
	Retry           resilience.RetryConfig
	Breaker         resilience.CircuitBreakerConfig
}

// Runner contacts every New lead once.
//
// Run writes statuses by the Row index observed in its own LoadNew. Another
// writer appending or reordering rows during a run can make those indexes
// point at different leads; nothing here detects that.
type Runner struct {
	store    Store
	composer *Composer
	sender   twilio.Client
	breaker  *resilience.CircuitBreaker
	retry    resilience.RetryConfig
	cfg      RunnerConfig
}

// NewRunner returns a Runner.
func NewRunner(store Store, composer *Composer, sender twilio.Client, cfg RunnerConfig) *Runner {
	if cfg.ContactedStatus == "" {
		cfg.ContactedStatus = model.StatusContacted
	}

	breakerCfg := cfg.Breaker
	if breakerCfg.ShouldTrip == nil {
		breakerCfg.ShouldTrip = isProviderFailure
	}
	if breakerCfg.OnStateChange == nil {
		breakerCfg.OnStateChange = func(from, to resilience.CircuitState) {
			zap.L().Warn("outreach: messaging circuit changed state",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		}
	}

	// Sends are not idempotent, so only throttling responses are retried.
	retry := cfg.Retry
	retry.ShouldRetry = isThrottled
	retry.OnRetry = resilience.RetryLogger("twilio", "send_message")

	return &Runner{
		store:    store,
		composer: composer,
		sender:   sender,
		breaker:  resilience.NewCircuitBreaker(breakerCfg),
		retry:    retry,
		cfg:      cfg,
	}
}

// Run loads the New leads and messages them in store order, up to the batch
// limit. Each lead that is sent is marked contacted right away. Send failures
// leave the lead New; an open messaging circuit stops the batch. Only a
// failure to load leads is returned as an error.
func (r *Runner) Run(ctx context.Context) (model.OutreachReport, error) {
	var report model.OutreachReport

	leads, err := r.store.LoadNew(ctx)
	if err != nil {
		return report, eris.Wrap(err, "outreach: load new leads")
	}
	if r.cfg.BatchLimit > 0 && len(leads) > r.cfg.BatchLimit {
		leads = leads[:r.cfg.BatchLimit]
	}
	report.Candidates = len(leads)

	for _, lead := range leads {
		if ctx.Err() != nil {
			report.Aborted = true
			break
		}

		log := zap.L().With(zap.String("lead", lead.Name), zap.Int("row", lead.Row))

		if strings.TrimSpace(lead.Phone) == "" {
			report.Skipped++
			log.Debug("outreach: lead has no phone")
			continue
		}

		body, err := r.composer.Compose(ctx, lead)
		if err != nil {
			report.Failed++
			log.Error("outreach: compose failed", zap.Error(err))
			continue
		}

		err = r.breaker.Execute(ctx, func(ctx context.Context) error {
			return resilience.Do(ctx, r.retry, func(ctx context.Context) error {
				_, err := r.sender.SendMessage(ctx, lead.Phone, body)
				return err
			})
		})
		if errors.Is(err, resilience.ErrCircuitOpen) {
			report.Aborted = true
			log.Warn("outreach: messaging circuit open, stopping batch")
			break
		}
		if err != nil {
			report.Failed++
			log.Error("outreach: send failed", zap.Error(err))
			continue
		}
		report.Sent++

		if err := r.store.UpdateStatusAt(ctx, lead.Row, r.cfg.ContactedStatus); err != nil {
			report.UpdateFailed++
			log.Error("outreach: message sent but status not updated", zap.Error(err))
		}
	}

	zap.L().Info("outreach: batch complete",
		zap.Int("candidates", report.Candidates),
		zap.Int("sent", report.Sent),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("update_failed", report.UpdateFailed),
		zap.Bool("aborted", report.Aborted),
	)

	return report, nil
}

// isProviderFailure reports whether a send error says something about the
// provider rather than the recipient. Rejected numbers do not trip the
// breaker.
func isProviderFailure(err error) bool {
	var apiErr *twilio.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusBadRequest, http.StatusNotFound:
			return false
		}
	}
	return err != nil
}

func isThrottled(err error) bool {
	var apiErr *twilio.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}
