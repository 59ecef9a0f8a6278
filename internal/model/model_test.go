package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadFromRecord(t *testing.T) {
	l := LeadFromRecord(3, map[string]string{
		"Name":   "Acme",
		"Phone":  "555",
		"Status": "New",
		"Notes":  "n",
		"City":   "Lima",
	})

	assert.Equal(t, 3, l.Row)
	assert.Equal(t, "Acme", l.Name)
	assert.Equal(t, "555", l.Phone)
	assert.Equal(t, "New", l.Status)
	assert.Equal(t, "n", l.Notes)
	assert.Equal(t, map[string]string{"City": "Lima"}, l.Extra)
}

func TestLeadFromRecord_NoExtra(t *testing.T) {
	l := LeadFromRecord(0, map[string]string{"Name": "Acme"})
	assert.Nil(t, l.Extra)
}

func TestLeadField(t *testing.T) {
	l := Lead{Name: "A", Phone: "1", Status: "New", Notes: "x", Extra: map[string]string{"City": "Lima"}}

	assert.Equal(t, "A", l.Field(ColumnName))
	assert.Equal(t, "1", l.Field(ColumnPhone))
	assert.Equal(t, "New", l.Field(ColumnStatus))
	assert.Equal(t, "x", l.Field(ColumnNotes))
	assert.Equal(t, "Lima", l.Field("City"))
	assert.Empty(t, l.Field("Missing"))
}

func TestFailure(t *testing.T) {
	cause := errors.New("quota exceeded")
	f := &Failure{Reason: ReasonStoreRead, Err: cause}

	assert.Equal(t, "store_read: quota exceeded", f.Error())
	assert.True(t, errors.Is(f, cause))
	assert.Equal(t, "column_not_found", (&Failure{Reason: ReasonColumnNotFound}).Error())
}

func TestDegraded(t *testing.T) {
	assert.False(t, IngestResult{Added: 1}.Degraded())
	assert.True(t, IngestResult{Failure: &Failure{Reason: ReasonStoreWrite}}.Degraded())
	assert.False(t, ReconcileResult{Row: -1}.Degraded())
	assert.True(t, ReconcileResult{Row: -1, Failure: &Failure{Reason: ReasonStoreRead}}.Degraded())
}
