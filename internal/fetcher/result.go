// Package fetcher performs HTTP GETs with redirect tracing and a bounded
// error taxonomy. Failures never propagate as errors to the caller; they
// are encoded on the FetchResult.
package fetcher

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorClass classifies a terminal fetch failure.
type ErrorClass string

const (
	ErrNone             ErrorClass = ""
	ErrTimeout          ErrorClass = "timeout"
	ErrDNS              ErrorClass = "dns_error"
	ErrTLS              ErrorClass = "tls_error"
	ErrRefused          ErrorClass = "refused"
	ErrNetwork          ErrorClass = "network_error"
	ErrLoop             ErrorClass = "loop"
	ErrTooManyRedirects ErrorClass = "too_many_redirects"
)

// RedirectHop records a single redirect in the chain.
type RedirectHop struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
	Location   string `json:"location"`
}

// FetchResult is the outcome of fetching a single URL.
type FetchResult struct {
	// Original requested URL
	RequestURL string

	// Final URL after following redirects
	FinalURL string

	// HTTP status code of the terminal response (0 on network failure)
	StatusCode int

	// Response headers of the terminal response
	Headers http.Header

	// Content-Type without parameters (e.g. "text/html")
	ContentType string

	// Decoded response body
	Body []byte

	// True when the body hit the size cap and was cut off
	BodyTruncated bool

	// Redirect chain, one hop per 3xx response followed
	RedirectChain []RedirectHop

	// Wall-clock duration of the fetch including retries
	Elapsed time.Duration

	// Failure classification; ErrNone on success
	Class ErrorClass

	// Underlying error, if any
	Err error

	// Whether the failure is transient and worth one retry
	Retryable bool
}

// IsSuccess returns true for 2xx terminal responses.
func (r *FetchResult) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsServerError returns true for 5xx terminal responses.
func (r *FetchResult) IsServerError() bool {
	return r.StatusCode >= 500 && r.StatusCode < 600
}

// IsHTML returns true if the terminal response is an HTML document.
func (r *FetchResult) IsHTML() bool {
	return strings.HasPrefix(r.ContentType, "text/html")
}

// Failed returns true when no terminal response was obtained.
func (r *FetchResult) Failed() bool {
	return r.Class == ErrTimeout || r.Class == ErrDNS || r.Class == ErrTLS ||
		r.Class == ErrRefused || r.Class == ErrNetwork
}

// StatusKey returns the key under which this result is counted in the
// status-code distribution. Network failures count under pseudo-statuses.
func (r *FetchResult) StatusKey() string {
	switch r.Class {
	case ErrTimeout:
		return "timeout"
	case ErrDNS, ErrTLS, ErrRefused, ErrNetwork:
		return "network_error"
	}
	if r.StatusCode == 0 {
		return "network_error"
	}
	return strconv.Itoa(r.StatusCode)
}

// GetHeader returns a header value from the terminal response.
func (r *FetchResult) GetHeader(name string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers.Get(name)
}
