package leadstore

import (
	"errors"
	"net/http"

	"github.com/jomei/notionapi"
	"google.golang.org/api/googleapi"

	"github.com/xRamax/scrapper-violet-wave/internal/resilience"
)

// apiStatus extracts the HTTP status from a Sheets or Notion API error.
func apiStatus(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	var nerr *notionapi.Error
	if errors.As(err, &nerr) {
		return nerr.Status
	}
	return 0
}

func isRetryable(err error) bool {
	if code := apiStatus(err); code != 0 {
		return resilience.IsTransientHTTPStatus(code)
	}
	return resilience.IsTransient(err)
}

// isRateLimited guards non-idempotent writes: a 429 means nothing was written.
func isRateLimited(err error) bool {
	return apiStatus(err) == http.StatusTooManyRequests
}
