package domain

import "errors"

var (
	// ErrFetchTimeout is returned when the awaited element did not appear in time
	ErrFetchTimeout = errors.New("timed out waiting for page element")
	// ErrMalformedPage is returned when embedded page data is missing or incomplete
	ErrMalformedPage = errors.New("malformed page")
	// ErrNotFound is returned when neither a listing container nor a product grid is present
	ErrNotFound = errors.New("listing not found")
	// ErrPersistence wraps query and connection failures
	ErrPersistence = errors.New("persistence failure")
	// ErrBlocked is returned while the site serves a bot-check page
	ErrBlocked = errors.New("blocked by site")
)
