package crossref

import (
	"errors"
	"fmt"
)

// Common errors returned by the Crossref client.
var (
	// ErrNotFound indicates the work does not exist in Crossref.
	ErrNotFound = errors.New("not found in Crossref")

	// ErrRateLimited indicates Crossref answered 429.
	ErrRateLimited = errors.New("Crossref rate limit exceeded")

	// ErrNetworkError indicates the request never produced a response.
	ErrNetworkError = errors.New("network error communicating with Crossref")

	// ErrInvalidResponse indicates a body that is not the expected JSON envelope.
	ErrInvalidResponse = errors.New("invalid response from Crossref")
)

// APIError is a non-success HTTP status from Crossref.
type APIError struct {
	StatusCode int
	Message    string
	DOI        string
}

func (e *APIError) Error() string {
	if e.DOI != "" {
		return fmt.Sprintf("Crossref API error (status %d): %s (doi: %s)", e.StatusCode, e.Message, e.DOI)
	}
	return fmt.Sprintf("Crossref API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error indicates the work was not found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 429
}
