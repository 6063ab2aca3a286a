package client

import (
	"errors"
	"fmt"
)

// Client-level errors. Fatal conditions abort the whole export; the
// non-fatal ones are absorbed by the Try* fetch variants.
var (
	// ErrInvalidToken is returned when neither authentication scheme is
	// accepted by the upstream. Fatal.
	ErrInvalidToken = errors.New("authentication token is invalid")

	// ErrMissingIntent is returned when a bot token cannot read message
	// content because the application lacks the message-content intent.
	// Fatal.
	ErrMissingIntent = errors.New("application is missing the message content intent")

	// ErrNotFound marks a 403/404 on a Try* endpoint; callers translate it
	// to a nil result.
	ErrNotFound = errors.New("resource not found or inaccessible")
)

// StatusError is an unexpected HTTP status that survived the retry policy.
type StatusError struct {
	Status int
	Path   string
}

// Error renders the status and request path.
func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d for %s", e.Status, e.Path)
}
