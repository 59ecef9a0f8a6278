package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xRamax/scrapper-violet-wave/internal/config"
	"github.com/xRamax/scrapper-violet-wave/internal/ingest"
	"github.com/xRamax/scrapper-violet-wave/internal/leadstore"
	"github.com/xRamax/scrapper-violet-wave/internal/model"
	"github.com/xRamax/scrapper-violet-wave/internal/monitoring"
	"github.com/xRamax/scrapper-violet-wave/internal/outreach"
	"github.com/xRamax/scrapper-violet-wave/internal/reconcile"
	"github.com/xRamax/scrapper-violet-wave/internal/resilience"
	"github.com/xRamax/scrapper-violet-wave/internal/scrape"
	"github.com/xRamax/scrapper-violet-wave/internal/store"
	"github.com/xRamax/scrapper-violet-wave/pkg/anthropic"
	"github.com/xRamax/scrapper-violet-wave/pkg/google"
	"github.com/xRamax/scrapper-violet-wave/pkg/twilio"
)

// errOutreachDisabled is returned when messaging credentials are missing.
var errOutreachDisabled = eris.New("outreach is not configured (twilio.account_sid, twilio.auth_token, twilio.from)")

// errScrapeDisabled is returned when no Places API key is configured.
var errScrapeDisabled = eris.New("scraping is not configured (google.key)")

// leadOpener opens the lead store for an id; empty selects the default.
type leadOpener func(ctx context.Context, id string) (*leadstore.Adapter, error)

// appEnv holds the components shared by commands and the server. Every
// operation runs through the tracker so it lands in the run history.
type appEnv struct {
	cfg      *config.Config
	open     leadOpener
	runs     store.Store // nil when store.driver is none
	tracker  *store.Tracker
	alerter  *monitoring.Alerter
	scraper  *scrape.Service // nil without google.key
	composer *outreach.Composer
	sender   twilio.Client // nil without twilio credentials
}

// initEnv wires the components selected by c.
func initEnv(ctx context.Context, c *config.Config) (*appEnv, error) {
	env := &appEnv{cfg: c}
	env.open = func(ctx context.Context, id string) (*leadstore.Adapter, error) {
		return leadstore.Open(ctx, c, id)
	}

	runs, err := store.Open(ctx, c.Store)
	if err != nil {
		return nil, eris.Wrap(err, "init run store")
	}
	if runs != nil {
		if err := runs.Migrate(ctx); err != nil {
			runs.Close() //nolint:errcheck
			return nil, eris.Wrap(err, "migrate run store")
		}
		env.runs = runs
	}

	env.alerter = monitoring.NewAlerter(c.Monitoring)
	env.tracker = store.NewTracker(env.runs, env.alerter)

	if c.Google.Key != "" {
		client := google.NewClient(c.Google.Key, google.WithBaseURL(c.Google.BaseURL))
		source := scrape.NewPlacesSource(client, c.Google.Language, c.Google.MaxLimit, resilience.FromConfig(c.Retry))
		env.scraper = scrape.NewService(source, env.ingestOpener(), c.Outreach.Niche)
	}

	var opts []outreach.ComposerOption
	if c.Anthropic.Key != "" {
		opts = append(opts, outreach.WithAI(anthropic.NewClient(c.Anthropic.Key), c.Anthropic.Model, c.Anthropic.MaxTokens))
	}
	composer, err := outreach.NewComposer(outreach.IdentityFromConfig(c.Outreach), c.Outreach.Template, opts...)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.composer = composer

	if c.Twilio.AccountSID != "" && c.Twilio.AuthToken != "" && c.Twilio.From != "" {
		env.sender = twilio.NewClient(c.Twilio.AccountSID, c.Twilio.AuthToken, c.Twilio.From,
			twilio.WithBaseURL(c.Twilio.BaseURL))
	}

	zap.L().Debug("environment ready",
		zap.String("leadstore", c.LeadStore.Driver),
		zap.Bool("run_history", env.runs != nil),
		zap.Bool("scrape", env.scraper != nil),
		zap.Bool("outreach", env.sender != nil),
		zap.Bool("ai_composer", c.Anthropic.Key != ""),
	)
	return env, nil
}

// Close releases the run store.
func (e *appEnv) Close() {
	if e.runs != nil {
		if err := e.runs.Close(); err != nil {
			zap.L().Warn("close run store", zap.Error(err))
		}
	}
}

func (e *appEnv) ingestOpener() scrape.Opener {
	return func(ctx context.Context, id string) (ingest.Store, error) {
		a, err := e.open(ctx, id)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
}

// ingestCandidates merges candidates into the lead store id.
func (e *appEnv) ingestCandidates(ctx context.Context, id string, candidates []model.Candidate) (model.IngestResult, error) {
	var res model.IngestResult
	_, err := e.tracker.Track(ctx, model.RunKindIngest, func(ctx context.Context) (store.Outcome, error) {
		a, err := e.open(ctx, id)
		if err != nil {
			return store.Outcome{}, eris.Wrap(err, "open lead store")
		}
		res = ingest.New(a).Ingest(ctx, candidates)
		out := store.Outcome{Detail: res}
		if res.Failure != nil {
			out.Degraded = res.Failure
		}
		return out, nil
	})
	return res, err
}

// reconcilePhone sets the status of the lead matching phoneNumber.
func (e *appEnv) reconcilePhone(ctx context.Context, id, phoneNumber, status string) (model.ReconcileResult, error) {
	res := model.ReconcileResult{Row: -1}
	_, err := e.tracker.Track(ctx, model.RunKindReconcile, func(ctx context.Context) (store.Outcome, error) {
		a, err := e.open(ctx, id)
		if err != nil {
			return store.Outcome{}, eris.Wrap(err, "open lead store")
		}
		res = reconcile.New(a).ReconcileByPhone(ctx, phoneNumber, status)
		out := store.Outcome{Detail: res}
		if res.Failure != nil {
			out.Degraded = res.Failure
		}
		return out, nil
	})
	return res, err
}

// scrapeAndSave runs one scrape into the requested spreadsheet.
func (e *appEnv) scrapeAndSave(ctx context.Context, req model.ScrapeRequest) (model.ScrapeReport, error) {
	if e.scraper == nil {
		return model.ScrapeReport{}, errScrapeDisabled
	}
	var report model.ScrapeReport
	_, err := e.tracker.Track(ctx, model.RunKindScrape, func(ctx context.Context) (store.Outcome, error) {
		var err error
		report, err = e.scraper.ScrapeAndSave(ctx, req)
		out := store.Outcome{Detail: report}
		if report.Failure != nil {
			out.Degraded = report.Failure
		}
		return out, err
	})
	return report, err
}

// runOutreach messages every New lead in the default lead store.
func (e *appEnv) runOutreach(ctx context.Context) (model.OutreachReport, error) {
	if e.sender == nil {
		return model.OutreachReport{}, errOutreachDisabled
	}
	var report model.OutreachReport
	_, err := e.tracker.Track(ctx, model.RunKindOutreach, func(ctx context.Context) (store.Outcome, error) {
		a, err := e.open(ctx, "")
		if err != nil {
			return store.Outcome{}, eris.Wrap(err, "open lead store")
		}
		runner := outreach.NewRunner(a, e.composer, e.sender, outreach.RunnerConfig{
			BatchLimit:      e.cfg.Outreach.BatchLimit,
			ContactedStatus: e.cfg.Outreach.ContactedStatus,
			Retry:           resilience.FromConfig(e.cfg.Retry),
			Breaker:         resilience.FromCircuitConfig(e.cfg.Retry),
		})
		report, err = runner.Run(ctx)
		out := store.Outcome{Detail: report}
		if err == nil && report.Aborted {
			out.Degraded = eris.New("outreach batch aborted before all leads were tried")
		}
		return out, err
	})
	return report, err
}

// newLeads lists the leads still in the New status.
func (e *appEnv) newLeads(ctx context.Context, id string) ([]model.Lead, error) {
	a, err := e.open(ctx, id)
	if err != nil {
		return nil, eris.Wrap(err, "open lead store")
	}
	return a.LoadNew(ctx)
}
