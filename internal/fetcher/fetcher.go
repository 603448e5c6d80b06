package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/seo-audit/auditor/internal/config"
)

// Fetcher handles HTTP requests with redirect tracking.
type Fetcher struct {
	client       *http.Client
	transport    *http.Transport
	userAgent    string
	maxRedirects int
	maxBodySize  int64
	retryBackoff time.Duration
}

// NewFetcher creates a new HTTP fetcher from the audit configuration.
func NewFetcher(cfg *config.AuditConfig) *Fetcher {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.Concurrency,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Stop automatic redirects; the chain is followed manually.
				return http.ErrUseLastResponse
			},
		},
		transport:    transport,
		userAgent:    cfg.UserAgent,
		maxRedirects: cfg.MaxRedirects,
		maxBodySize:  cfg.MaxBodySize,
		retryBackoff: cfg.RetryBackoff,
	}
}

// Fetch fetches a URL, following redirects and retrying once on transient
// network failures. It never returns an error; failures are encoded on the
// result.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) *FetchResult {
	start := time.Now()

	result := f.fetchOnce(ctx, rawURL)
	if result.Retryable {
		select {
		case <-ctx.Done():
		case <-time.After(f.retryBackoff):
			result = f.fetchOnce(ctx, rawURL)
		}
	}

	result.Elapsed = time.Since(start)
	return result
}

// fetchOnce performs a single attempt, following up to maxRedirects hops.
func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) *FetchResult {
	result := &FetchResult{
		RequestURL:    rawURL,
		RedirectChain: make([]RedirectHop, 0),
	}

	currentURL := rawURL
	seen := map[string]struct{}{currentURL: {}}

	for hop := 0; ; hop++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, currentURL, nil)
		if err != nil {
			result.Err = fmt.Errorf("failed to create request: %w", err)
			result.Class = ErrNetwork
			result.FinalURL = currentURL
			return result
		}
		f.setRequestHeaders(req)

		resp, err := f.client.Do(req)
		if err != nil {
			result.FinalURL = currentURL
			result.Class, result.Retryable = classifyNetError(err)
			result.Err = err
			return result
		}

		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			location := resp.Header.Get("Location")
			resp.Body.Close()

			result.RedirectChain = append(result.RedirectChain, RedirectHop{
				URL:        currentURL,
				StatusCode: resp.StatusCode,
				Location:   location,
			})

			if location == "" {
				// Redirect without Location is terminal.
				result.FinalURL = currentURL
				result.StatusCode = resp.StatusCode
				result.Headers = resp.Header
				return result
			}

			next, err := resolveRedirectURL(currentURL, location)
			if err != nil {
				result.Err = fmt.Errorf("invalid redirect location: %w", err)
				result.Class = ErrNetwork
				result.FinalURL = currentURL
				result.StatusCode = resp.StatusCode
				return result
			}

			if _, repeated := seen[next]; repeated {
				result.Err = fmt.Errorf("redirect loop via %s", next)
				result.Class = ErrLoop
				result.FinalURL = currentURL
				result.StatusCode = resp.StatusCode
				return result
			}
			if hop+1 > f.maxRedirects {
				result.Err = fmt.Errorf("more than %d redirects", f.maxRedirects)
				result.Class = ErrTooManyRedirects
				result.FinalURL = currentURL
				result.StatusCode = resp.StatusCode
				return result
			}

			seen[next] = struct{}{}
			currentURL = next
			continue
		}

		// Terminal response.
		result.FinalURL = currentURL
		result.StatusCode = resp.StatusCode
		result.Headers = resp.Header
		result.ContentType = extractContentType(resp.Header.Get("Content-Type"))

		body, truncated, err := f.readBody(resp)
		resp.Body.Close()
		if err != nil {
			result.Err = fmt.Errorf("failed to read body: %w", err)
			result.Class, result.Retryable = classifyNetError(err)
		} else {
			result.Body = body
			result.BodyTruncated = truncated
		}
		return result
	}
}

// setRequestHeaders sets common request headers.
func (f *Fetcher) setRequestHeaders(req *http.Request) {
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip")
}

// readBody reads the response body up to the size cap, decoding gzip and
// the declared charset (UTF-8 default, BOM-aware).
func (f *Fetcher) readBody(resp *http.Response) ([]byte, bool, error) {
	var reader io.Reader = resp.Body

	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, false, fmt.Errorf("gzip decode error: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	}

	// Read one byte past the cap to detect truncation. The cap applies to
	// the raw stream; charset decoding below may change the byte count.
	raw, err := io.ReadAll(io.LimitReader(reader, f.maxBodySize+1))
	if err != nil {
		return nil, false, err
	}
	truncated := int64(len(raw)) > f.maxBodySize
	if truncated {
		raw = raw[:f.maxBodySize]
	}

	decoded, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		return raw, truncated, nil
	}
	body, err := io.ReadAll(decoded)
	if err != nil {
		return nil, false, err
	}
	return body, truncated, nil
}

// classifyNetError maps a transport error to an ErrorClass and whether a
// single retry is worthwhile.
func classifyNetError(err error) (ErrorClass, bool) {
	if err == nil {
		return ErrNone, false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout, true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout, true
	}
	if errors.Is(err, context.Canceled) {
		return ErrTimeout, false
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrDNS, false
	}

	var certErr *tls.CertificateVerificationError
	var unknownAuthErr x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	if errors.As(err, &certErr) || errors.As(err, &unknownAuthErr) || errors.As(err, &hostErr) ||
		strings.Contains(err.Error(), "tls:") {
		return ErrTLS, false
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return ErrRefused, true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return ErrRefused, true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{"connection reset", "broken pipe", "eof"} {
		if strings.Contains(errStr, pattern) {
			return ErrNetwork, true
		}
	}

	return ErrNetwork, false
}

// Close releases pooled connections.
func (f *Fetcher) Close() {
	f.transport.CloseIdleConnections()
}

func resolveRedirectURL(baseURL, location string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	loc, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(loc).String(), nil
}

func extractContentType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx != -1 {
		return strings.ToLower(strings.TrimSpace(contentType[:idx]))
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
