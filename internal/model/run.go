package model

import (
	"encoding/json"
	"time"
)

// RunKind identifies which operation a recorded run belongs to.
type RunKind string

const (
	RunKindScrape    RunKind = "scrape"
	RunKindIngest    RunKind = "ingest"
	RunKindReconcile RunKind = "reconcile"
	RunKindOutreach  RunKind = "outreach"
)

// RunStatus represents the current state of a recorded run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusDegraded RunStatus = "degraded"
	RunStatusFailed   RunStatus = "failed"
)

// Run is the audit record of one lead operation.
type Run struct {
	ID        string          `json:"id"`
	Kind      RunKind         `json:"kind"`
	Status    RunStatus       `json:"status"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
