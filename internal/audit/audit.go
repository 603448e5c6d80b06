package audit

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"time"

	"github.com/seo-audit/auditor/internal/config"
	"github.com/seo-audit/auditor/internal/crawler"
	"github.com/seo-audit/auditor/internal/fetcher"
	"github.com/seo-audit/auditor/internal/robots"
	"github.com/seo-audit/auditor/internal/urlutil"
)

// Options are the caller-facing knobs of one audit run.
type Options struct {
	// Seed URL; must be absolute http or https
	URL string

	// Page budget; nil uses the configured default. An explicit value
	// must be >= 1.
	MaxPages *int

	// Skip robots.txt-disallowed URLs and honor Crawl-delay
	RespectRobots bool

	// Base configuration; nil uses DefaultConfig
	Config *config.AuditConfig

	// Structured logger; nil uses slog.Default
	Logger *slog.Logger
}

// PageResult is the scored outcome for one crawled URL.
type PageResult struct {
	URL        string  `json:"url"`
	StatusCode int     `json:"status_code"`
	StatusKey  string  `json:"status"`
	Score      int     `json:"score"`
	Issues     []Issue `json:"issues"`
}

// Result is the aggregated outcome of an audit run; the report package
// shapes it into the external document.
type Result struct {
	// Canonical seed URL
	BaseURL string

	// Pages sorted lexicographically by URL
	Pages []*PageResult

	// Site-level reported-only issues (crawlability, performance headers)
	SiteIssues []Issue

	// Robots/sitemap resolution
	Resolution *robots.Resolution

	// Mean of page scores, two decimals
	AverageScore float64

	// Count of all issues, scored and reported
	TotalIssues int

	// Issue counts per severity
	SeverityCounts map[Severity]int

	// Terminal status (or pseudo-status) -> page count
	StatusDistribution map[string]int

	// Wall-clock duration of the run in seconds
	ExecutionTime float64
}

// Run executes the full audit pipeline: validate, resolve robots and
// sitemaps, crawl, join site context, evaluate rules, score, aggregate.
// It returns a successful Result whenever the crawl could begin; per-URL
// failures are encoded in the result.
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	homepage, err := validateSeed(opts.URL)
	if err != nil {
		return nil, err
	}
	if opts.MaxPages != nil && *opts.MaxPages < 1 {
		return nil, fmt.Errorf("%w: max_pages must be >= 1", ErrInvalidMaxPages)
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	} else {
		cfg = cfg.Clone()
	}
	if opts.MaxPages != nil {
		cfg.MaxPages = *opts.MaxPages
	}
	cfg.RespectRobots = opts.RespectRobots
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Deadline)
		defer cancel()
	}

	f := fetcher.NewFetcher(cfg)
	defer f.Close()

	logger.Info("starting audit", "url", homepage, "max_pages", cfg.MaxPages)

	resolution := robots.NewResolver(f, cfg, logger).Resolve(ctx, homepage)
	records := crawler.NewCrawler(cfg, f, logger).Crawl(ctx, homepage, resolution)

	siteCtx := BuildSiteContext(records, resolution, homepage)

	sort.Slice(records, func(i, j int) bool { return records[i].URL < records[j].URL })

	result := &Result{
		BaseURL:            homepage,
		Pages:              make([]*PageResult, 0, len(records)),
		Resolution:         resolution,
		SeverityCounts:     make(map[Severity]int),
		StatusDistribution: make(map[string]int),
	}

	scores := make([]int, 0, len(records))
	for _, record := range records {
		issues := EvaluatePage(record, siteCtx)
		score := PageScore(issues)
		scores = append(scores, score)

		result.Pages = append(result.Pages, &PageResult{
			URL:        record.URL,
			StatusCode: record.Fetch.StatusCode,
			StatusKey:  record.Fetch.StatusKey(),
			Score:      score,
			Issues:     issues,
		})

		result.StatusDistribution[record.Fetch.StatusKey()]++
		for _, issue := range issues {
			result.SeverityCounts[issue.Severity]++
			result.TotalIssues++
		}
	}

	result.SiteIssues = siteIssues(records, siteCtx)
	SortIssues(result.SiteIssues)
	for _, issue := range result.SiteIssues {
		result.SeverityCounts[issue.Severity]++
		result.TotalIssues++
	}

	result.AverageScore = AverageScore(scores)
	result.ExecutionTime = time.Since(start).Seconds()

	logger.Info("audit finished",
		"pages", len(result.Pages),
		"issues", result.TotalIssues,
		"average_score", result.AverageScore,
		"elapsed", result.ExecutionTime)

	return result, nil
}

// validateSeed checks and canonicalizes the seed URL.
func validateSeed(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	canonical, err := urlutil.Canonicalize(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return canonical, nil
}
