// Package scrape finds business listings and saves them as leads.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xRamax/scrapper-violet-wave/internal/model"
	"github.com/xRamax/scrapper-violet-wave/internal/resilience"
	"github.com/xRamax/scrapper-violet-wave/pkg/google"
)

// DefaultLimit is used when a request does not ask for a number of listings.
const DefaultLimit = 20

// Source searches a listings provider.
type Source interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]model.Candidate, error)
}

// PlacesSource searches Google Places Text Search.
type PlacesSource struct {
	client   google.Client
	language string
	maxLimit int
	retry    resilience.RetryConfig
}

// NewPlacesSource returns a Source backed by client. maxLimit caps the number
// of listings per search; 0 means no cap.
func NewPlacesSource(client google.Client, language string, maxLimit int, retry resilience.RetryConfig) *PlacesSource {
	retry.ShouldRetry = isRetryable
	retry.OnRetry = resilience.RetryLogger("google", "text_search")
	return &PlacesSource{
		client:   client,
		language: language,
		maxLimit: maxLimit,
		retry:    retry,
	}
}

// Name implements Source.
func (s *PlacesSource) Name() string { return "google_places" }

// Search pages through Text Search until limit listings are collected or the
// results run out. Every listing is returned, with or without a phone.
func (s *PlacesSource) Search(ctx context.Context, query string, limit int) ([]model.Candidate, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if s.maxLimit > 0 && limit > s.maxLimit {
		limit = s.maxLimit
	}

	req := google.TextSearchRequest{
		TextQuery:    query,
		LanguageCode: s.language,
		PageSize:     min(limit, google.MaxPageSize),
	}

	var out []model.Candidate
	for page := 1; len(out) < limit; page++ {
		resp, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) (*google.TextSearchResponse, error) {
			return s.client.TextSearch(ctx, req)
		})
		if err != nil {
			return nil, eris.Wrapf(err, "scrape: text search page %d", page)
		}

		for _, p := range resp.Places {
			if len(out) == limit {
				break
			}
			out = append(out, candidateFromPlace(p))
		}

		zap.L().Debug("scrape: text search page",
			zap.String("query", query),
			zap.Int("page", page),
			zap.Int("places", len(resp.Places)),
			zap.Bool("more", resp.NextPageToken != ""),
		)

		if resp.NextPageToken == "" || len(resp.Places) == 0 {
			break
		}
		req.PageToken = resp.NextPageToken
	}

	return out, nil
}

func candidateFromPlace(p google.Place) model.Candidate {
	var notes []string
	if p.FormattedAddress != "" {
		notes = append(notes, p.FormattedAddress)
	}
	if p.WebsiteURI != "" {
		notes = append(notes, p.WebsiteURI)
	}
	if p.Rating > 0 {
		notes = append(notes, fmt.Sprintf("★ %.1f (%d)", p.Rating, p.UserRatingCount))
	}
	return model.Candidate{
		Name:  strings.TrimSpace(p.DisplayName.Text),
		Phone: p.Phone(),
		Notes: strings.Join(notes, " · "),
	}
}

func isRetryable(err error) bool {
	var se *google.StatusError
	if errors.As(err, &se) {
		return resilience.IsTransientHTTPStatus(se.StatusCode)
	}
	return resilience.IsTransient(err)
}
