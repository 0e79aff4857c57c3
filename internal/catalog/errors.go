package catalog

import (
	"fmt"
	"net/http"
)

// FetchError reports a transport failure or a non-success HTTP status.
// Status is 0 when no response was received.
type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("failed to fetch items: HTTP %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("failed to fetch items: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a response body that is not a JSON array of items.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("failed to parse items: %v", e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }
