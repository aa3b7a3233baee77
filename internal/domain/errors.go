package domain

import (
	"errors"
	"fmt"
)

// ErrTitleNotFound is returned when the title resolver knows nothing about an identifier
var ErrTitleNotFound = errors.New("title not found")

// LookupHTTPError is returned when the title resolver answered with an unexpected HTTP status
type LookupHTTPError struct {
	Code   int
	Reason string
}

func (e *LookupHTTPError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.Code, e.Reason)
}
