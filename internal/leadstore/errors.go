package leadstore

import (
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
)

var (
	// ErrAuthentication means neither inline nor file credentials were usable.
	ErrAuthentication = eris.New("leadstore: no usable credentials")

	// ErrStoreOpen means the configured spreadsheet, workbook or database
	// could not be opened.
	ErrStoreOpen = eris.New("leadstore: cannot open store")

	// ErrInvalidIndex is returned for a negative data row index.
	ErrInvalidIndex = eris.New("leadstore: invalid row index")
)

// ColumnNotFoundError reports a header that is absent from the store. Callers
// treat it as "operation unsupported on this schema".
type ColumnNotFoundError struct {
	Name string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("leadstore: column %q not found", e.Name)
}

// IsColumnNotFound reports whether err is or wraps a ColumnNotFoundError.
func IsColumnNotFound(err error) bool {
	var cnf *ColumnNotFoundError
	return errors.As(err, &cnf)
}
