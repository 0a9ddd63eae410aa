package roster

import (
	"errors"
	"fmt"
)

// ErrRaggedRow is reported when a CSV row's width differs from the header's,
// or an XLSX row is wider than it.
var ErrRaggedRow = errors.New("row width does not match the header")

// ParseError means the raw input could not be tabulated. No collection is
// produced alongside it.
type ParseError struct {
	// Line is the 1-based source line (or sheet row), 0 when unknown.
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse failure at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse failure: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
