package transport

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound reports that a source has no export for the requested week.
var ErrNotFound = errors.New("week not found")

// Error is a transport failure: the source could not supply raw text for a
// week. It is distinct from a parse failure of text that was delivered.
type Error struct {
	Week       string
	Source     string
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return "transport error"
	}
	msg := fmt.Sprintf("fetch week %s", e.Week)
	if e.Source != "" {
		msg += " from " + e.Source
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status=%d", e.StatusCode)
	}
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(" (retry after %ds)", int(e.RetryAfter.Seconds()))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Temporary reports whether retrying later could succeed.
func (e *Error) Temporary() bool {
	return e.StatusCode == 429 || (e.StatusCode >= 500 && e.StatusCode <= 599)
}
