package model

// Header names of the lead store columns.
const (
	ColumnName   = "Name"
	ColumnPhone  = "Phone"
	ColumnStatus = "Status"
	ColumnNotes  = "Notes"
)

// Columns is the canonical header row written to an empty lead store.
var Columns = []string{ColumnName, ColumnPhone, ColumnStatus, ColumnNotes}

// Well-known lead statuses. Status is free text; any string is accepted.
const (
	StatusNew       = "New"
	StatusContacted = "Contacted"
	StatusReplied   = "Replied"
)

// Lead is one data row of the lead store.
type Lead struct {
	// Row is the 0-based data row index (header excluded) observed by the read
	// that produced this lead. It is only valid until the next write to the
	// store by any process.
	Row    int               `json:"row"`
	Name   string            `json:"name"`
	Phone  string            `json:"phone"`
	Status string            `json:"status"`
	Notes  string            `json:"notes"`
	Extra  map[string]string `json:"extra,omitempty"` // columns beyond the canonical four
}

// Field returns the value of the named column.
func (l Lead) Field(name string) string {
	switch name {
	case ColumnName:
		return l.Name
	case ColumnPhone:
		return l.Phone
	case ColumnStatus:
		return l.Status
	case ColumnNotes:
		return l.Notes
	}
	return l.Extra[name]
}

// LeadFromRecord builds a Lead from a header-keyed record.
func LeadFromRecord(row int, rec map[string]string) Lead {
	l := Lead{
		Row:    row,
		Name:   rec[ColumnName],
		Phone:  rec[ColumnPhone],
		Status: rec[ColumnStatus],
		Notes:  rec[ColumnNotes],
	}
	for k, v := range rec {
		switch k {
		case ColumnName, ColumnPhone, ColumnStatus, ColumnNotes:
			continue
		}
		if l.Extra == nil {
			l.Extra = make(map[string]string)
		}
		l.Extra[k] = v
	}
	return l
}

// Candidate is a freshly scraped or imported lead offered to ingest.
type Candidate struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
}
