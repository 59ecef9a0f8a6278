package model

// FailureReason tags why an ingest or reconcile produced a degraded result.
type FailureReason string

const (
	ReasonStoreRead      FailureReason = "store_read"
	ReasonStoreWrite     FailureReason = "store_write"
	ReasonColumnNotFound FailureReason = "column_not_found"
)

// Failure explains a degraded result. The counts on the result it is attached
// to are always the zero-effect values.
type Failure struct {
	Reason FailureReason
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Reason)
	}
	return string(f.Reason) + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// IngestResult reports the outcome of merging candidates into the store.
type IngestResult struct {
	Added      int      `json:"added"`
	Duplicates int      `json:"duplicates"`
	Failure    *Failure `json:"-"`
}

// Degraded reports whether a store failure was swallowed.
func (r IngestResult) Degraded() bool {
	return r.Failure != nil
}

// ReconcileResult reports the outcome of a phone-keyed status update.
type ReconcileResult struct {
	Updated bool     `json:"updated"`
	Row     int      `json:"row"` // 0-based data row, -1 when nothing was updated
	Failure *Failure `json:"-"`
}

// Degraded reports whether a store or schema failure was swallowed.
func (r ReconcileResult) Degraded() bool {
	return r.Failure != nil
}

// ScrapeRequest describes a listing search whose results are ingested into a
// spreadsheet.
type ScrapeRequest struct {
	City          string `json:"city"`
	Country       string `json:"country"`
	Niche         string `json:"niche"`
	SpreadsheetID string `json:"spreadsheet_id"`
	Limit         int    `json:"limit"`
}

// ScrapeReport summarizes one scrape-and-save run.
type ScrapeReport struct {
	Query      string   `json:"query"`
	Found      int      `json:"found"`
	Added      int      `json:"added"`
	Duplicates int      `json:"duplicates"`
	Degraded   bool     `json:"degraded,omitempty"`
	Failure    *Failure `json:"-"`
}

// OutreachReport summarizes one outreach batch.
type OutreachReport struct {
	Candidates   int  `json:"candidates"`
	Sent         int  `json:"sent"`
	Skipped      int  `json:"skipped"`       // no phone
	Failed       int  `json:"failed"`        // compose or send failed; lead stays New
	UpdateFailed int  `json:"update_failed"` // sent, but the status write failed
	Aborted      bool `json:"aborted,omitempty"`
}
