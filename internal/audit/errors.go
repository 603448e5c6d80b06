package audit

import "errors"

// Input validation errors surfaced to the caller before any crawl starts.
var (
	ErrInvalidURL      = errors.New("invalid_url")
	ErrInvalidMaxPages = errors.New("invalid_max_pages")
)
