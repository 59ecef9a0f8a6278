package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xRamax/scrapper-violet-wave/internal/ingest"
	"github.com/xRamax/scrapper-violet-wave/internal/model"
)

// ErrInvalidRequest is returned for requests missing a city or niche.
var ErrInvalidRequest = eris.New("scrape: invalid request")

// Opener opens the lead store for a spreadsheet. An empty id selects the
// configured default.
type Opener func(ctx context.Context, spreadsheetID string) (ingest.Store, error)

// Service searches a Source and ingests the listings that have a phone.
type Service struct {
	source       Source
	open         Opener
	defaultNiche string
}

// NewService returns a Service. defaultNiche fills requests without a niche.
func NewService(source Source, open Opener, defaultNiche string) *Service {
	return &Service{source: source, open: open, defaultNiche: defaultNiche}
}

// Query builds the text query "<niche> in <city>, <country>".
func Query(niche, city, country string) string {
	q := strings.TrimSpace(niche) + " in " + strings.TrimSpace(city)
	if c := strings.TrimSpace(country); c != "" {
		q += ", " + c
	}
	return q
}

// ScrapeAndSave searches for listings matching req and ingests them into the
// requested lead store. The store is opened before searching so an
// unreachable store fails fast; open errors are returned. Store read and
// write failures during ingest are reported on the result, not as errors.
func (s *Service) ScrapeAndSave(ctx context.Context, req model.ScrapeRequest) (model.ScrapeReport, error) {
	niche := req.Niche
	if strings.TrimSpace(niche) == "" {
		niche = s.defaultNiche
	}
	if strings.TrimSpace(req.City) == "" || strings.TrimSpace(niche) == "" {
		return model.ScrapeReport{}, eris.Wrap(ErrInvalidRequest, "city and niche are required")
	}

	report := model.ScrapeReport{Query: Query(niche, req.City, req.Country)}

	store, err := s.open(ctx, req.SpreadsheetID)
	if err != nil {
		return report, eris.Wrap(err, "scrape: open lead store")
	}

	found, err := s.source.Search(ctx, report.Query, req.Limit)
	if err != nil {
		return report, eris.Wrapf(err, "scrape: search %s", s.source.Name())
	}
	report.Found = len(found)

	withPhone := make([]model.Candidate, 0, len(found))
	for _, c := range found {
		if strings.TrimSpace(c.Phone) == "" {
			continue
		}
		withPhone = append(withPhone, c)
	}

	res := ingest.New(store).Ingest(ctx, withPhone)
	report.Added = res.Added
	report.Duplicates = res.Duplicates
	report.Degraded = res.Degraded()
	report.Failure = res.Failure

	zap.L().Info("scrape: saved listings",
		zap.String("source", s.source.Name()),
		zap.String("query", report.Query),
		zap.Int("found", report.Found),
		zap.Int("with_phone", len(withPhone)),
		zap.Int("added", report.Added),
		zap.Int("duplicates", report.Duplicates),
		zap.Bool("degraded", report.Degraded),
	)

	return report, nil
}
