// Package crawler coordinates site discovery: it seeds from the homepage
// and sitemap URLs, pulls from a shared work queue with a bounded worker
// pool, enforces per-host rate limits and the page budget, and emits one
// CrawlRecord per processed URL.
package crawler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/seo-audit/auditor/internal/config"
	"github.com/seo-audit/auditor/internal/fetcher"
	"github.com/seo-audit/auditor/internal/parser"
	"github.com/seo-audit/auditor/internal/robots"
	"github.com/seo-audit/auditor/internal/urlutil"
)

// CrawlRecord is the immutable outcome of processing one URL.
type CrawlRecord struct {
	// Canonical URL of the page
	URL string

	// Fetch outcome, always present
	Fetch *fetcher.FetchResult

	// Extracted facts; nil for non-HTML responses and fetch failures
	Facts *parser.PageFacts
}

// Crawler runs a bounded, polite crawl of a single site.
type Crawler struct {
	cfg     *config.AuditConfig
	fetcher *fetcher.Fetcher
	logger  *slog.Logger
}

// NewCrawler creates a crawler sharing the given fetcher.
func NewCrawler(cfg *config.AuditConfig, f *fetcher.Fetcher, logger *slog.Logger) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{cfg: cfg, fetcher: f, logger: logger}
}

// Crawl discovers and fetches pages starting from the seed URL. The seed
// must already be canonicalized. Sitemap URLs on the seed's host are added
// to the initial queue. Record ordering is not guaranteed.
func (c *Crawler) Crawl(ctx context.Context, seedURL string, resolution *robots.Resolution) []*CrawlRecord {
	baseHost, err := urlutil.ExtractHost(seedURL)
	if err != nil {
		return nil
	}

	front := newFrontier()
	front.Push(seedURL)

	limiter := newHostRateLimiter(c.cfg.PerHostRPS)
	if c.cfg.RespectRobots {
		if delay := resolution.Robots.GetCrawlDelay(c.cfg.UserAgent); delay > 0 {
			limiter.SetHostRate(baseHost, 1/delay.Seconds())
		}
	}

	for sitemapURL := range resolution.SitemapURLs {
		if urlutil.IsSameHost(sitemapURL, seedURL) {
			front.Push(sitemapURL)
		}
	}

	var (
		mu        sync.Mutex
		records   []*CrawlRecord
		processed atomic.Int64
		active    atomic.Int32
		wg        sync.WaitGroup
	)

	// handleURL processes one popped URL and reports whether the worker
	// should stop. The caller keeps the worker counted active for the
	// whole call, rate-limit wait included, so idle workers cannot see
	// active==0 while links may still be produced.
	handleURL := func(currentURL string) (stop bool) {
		if c.cfg.RespectRobots {
			path := robots.ExtractPathFromURL(currentURL)
			if !resolution.Robots.IsAllowed(c.cfg.UserAgent, path) {
				c.logger.Debug("skipped by robots.txt", "url", currentURL)
				return false
			}
		}

		if processed.Add(1) > int64(c.cfg.MaxPages) {
			return true
		}

		host, err := urlutil.ExtractHost(currentURL)
		if err != nil {
			return false
		}
		if err := limiter.Wait(ctx, host); err != nil {
			return true
		}

		record := c.processURL(ctx, currentURL, baseHost)

		mu.Lock()
		records = append(records, record)
		mu.Unlock()

		if record.Facts != nil && record.Fetch.IsSuccess() {
			for _, link := range record.Facts.Links {
				if !link.IsInternal {
					continue
				}
				canonical, err := urlutil.Canonicalize(link.Href)
				if err != nil {
					continue
				}
				front.Push(canonical)
			}
		}
		return false
	}

	run := func() {
		defer wg.Done()

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			currentURL, ok := front.Pop()
			if !ok {
				// Queue drained; exit once no worker can still produce links.
				if active.Load() == 0 && front.IsEmpty() {
					return
				}
				time.Sleep(50 * time.Millisecond)
				continue
			}

			active.Add(1)
			stop := handleURL(currentURL)
			active.Add(-1)
			if stop {
				return
			}
		}
	}

	for i := 0; i < c.cfg.Concurrency; i++ {
		wg.Add(1)
		go run()
	}
	wg.Wait()

	c.logger.Info("crawl finished", "pages", len(records), "host", baseHost)
	return records
}

// processURL fetches one URL and parses its body when it is an HTML page.
func (c *Crawler) processURL(ctx context.Context, currentURL, baseHost string) *CrawlRecord {
	record := &CrawlRecord{URL: currentURL}
	record.Fetch = c.fetcher.Fetch(ctx, currentURL)

	if record.Fetch.IsHTML() && record.Fetch.Body != nil {
		facts, err := parser.ParseFacts(record.Fetch.FinalURL, baseHost, record.Fetch.Body, record.Fetch.Headers)
		if err != nil {
			c.logger.Debug("parse failed", "url", currentURL, "error", err)
		} else {
			record.Facts = facts
		}
	}

	return record
}
