package robots

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/xml"
	"io"
	"log/slog"
	"strings"

	"github.com/seo-audit/auditor/internal/config"
	"github.com/seo-audit/auditor/internal/fetcher"
	"github.com/seo-audit/auditor/internal/urlutil"
)

// Common sitemap locations probed when robots.txt declares none.
var commonSitemapPaths = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/sitemap-index.xml",
	"/sitemaps.xml",
	"/wp-sitemap.xml",
}

// Resolution is the outcome of resolving robots.txt and sitemaps for a site.
type Resolution struct {
	// Parsed robots.txt; empty rules when the file is absent
	Robots *RobotsTxt

	// Whether /robots.txt returned 2xx
	RobotsExists bool

	// Sitemap document URLs that were successfully fetched
	SitemapsFound []string

	// Flat set of page URLs collected from all sitemaps (canonicalized)
	SitemapURLs map[string]struct{}

	// Whether /llms.txt returned 2xx
	LLMsTxtExists bool
}

// Resolver discovers robots.txt, sitemaps, and llms.txt for a site.
type Resolver struct {
	fetcher  *fetcher.Fetcher
	maxDepth int
	maxURLs  int
	logger   *slog.Logger
}

// NewResolver creates a resolver using the shared fetcher.
func NewResolver(f *fetcher.Fetcher, cfg *config.AuditConfig, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		fetcher:  f,
		maxDepth: cfg.SitemapMaxDepth,
		maxURLs:  cfg.SitemapMaxURLs,
		logger:   logger,
	}
}

// Resolve fetches and parses robots.txt for the base URL, enumerates
// sitemaps (declared plus common locations), expands sitemap indexes to a
// flat URL set, and probes /llms.txt.
func (r *Resolver) Resolve(ctx context.Context, baseURL string) *Resolution {
	res := &Resolution{
		Robots:        NewRobotsTxt(),
		SitemapsFound: make([]string, 0),
		SitemapURLs:   make(map[string]struct{}),
	}

	robotsURL, err := urlutil.ResolveURL(baseURL, "/robots.txt")
	if err != nil {
		return res
	}

	result := r.fetcher.Fetch(ctx, robotsURL)
	if result.IsSuccess() {
		res.RobotsExists = true
		res.Robots = Parse(string(result.Body))
	}

	// Sitemaps declared in robots.txt, then the common locations.
	candidates := make([]string, 0, len(res.Robots.Sitemaps)+len(commonSitemapPaths))
	candidates = append(candidates, res.Robots.Sitemaps...)
	for _, path := range commonSitemapPaths {
		if u, err := urlutil.ResolveURL(baseURL, path); err == nil {
			candidates = append(candidates, u)
		}
	}

	seen := make(map[string]struct{})
	for _, sitemapURL := range candidates {
		if _, dup := seen[sitemapURL]; dup {
			continue
		}
		seen[sitemapURL] = struct{}{}
		r.expandSitemap(ctx, sitemapURL, 0, seen, res)
	}

	llmsURL, err := urlutil.ResolveURL(baseURL, "/llms.txt")
	if err == nil {
		llms := r.fetcher.Fetch(ctx, llmsURL)
		res.LLMsTxtExists = llms.IsSuccess()
	}

	r.logger.Debug("robots/sitemap resolution done",
		"robots_exists", res.RobotsExists,
		"sitemaps_found", len(res.SitemapsFound),
		"sitemap_urls", len(res.SitemapURLs))

	return res
}

// expandSitemap fetches one sitemap document and collects its URLs,
// recursing into sitemap indexes up to the depth and total URL caps.
func (r *Resolver) expandSitemap(ctx context.Context, sitemapURL string, depth int, seen map[string]struct{}, res *Resolution) {
	if depth >= r.maxDepth || len(res.SitemapURLs) >= r.maxURLs {
		return
	}

	result := r.fetcher.Fetch(ctx, sitemapURL)
	if !result.IsSuccess() {
		return
	}

	body := gunzipIfNeeded(result.Body)
	if !looksLikeSitemap(body) {
		return
	}

	res.SitemapsFound = append(res.SitemapsFound, sitemapURL)

	doc, err := parseSitemapXML(body)
	if err != nil {
		r.logger.Debug("sitemap parse failed", "url", sitemapURL, "error", err)
		return
	}

	if doc.isIndex {
		for _, child := range doc.locs {
			if _, dup := seen[child]; dup {
				continue
			}
			seen[child] = struct{}{}
			r.expandSitemap(ctx, child, depth+1, seen, res)
			if len(res.SitemapURLs) >= r.maxURLs {
				return
			}
		}
		return
	}

	for _, loc := range doc.locs {
		if len(res.SitemapURLs) >= r.maxURLs {
			return
		}
		canonical, err := urlutil.Canonicalize(loc)
		if err != nil {
			continue
		}
		res.SitemapURLs[canonical] = struct{}{}
	}
}

// sitemapDoc holds the <loc> entries of one sitemap document.
type sitemapDoc struct {
	isIndex bool
	locs    []string
}

// parseSitemapXML parses a urlset or sitemapindex document.
func parseSitemapXML(body []byte) (*sitemapDoc, error) {
	type loc struct {
		Loc string `xml:"loc"`
	}
	type urlset struct {
		XMLName xml.Name `xml:"urlset"`
		URLs    []loc    `xml:"url"`
	}
	type sitemapindex struct {
		XMLName  xml.Name `xml:"sitemapindex"`
		Sitemaps []loc    `xml:"sitemap"`
	}

	var index sitemapindex
	if err := xml.Unmarshal(body, &index); err == nil && len(index.Sitemaps) > 0 {
		doc := &sitemapDoc{isIndex: true}
		for _, s := range index.Sitemaps {
			if u := strings.TrimSpace(s.Loc); u != "" {
				doc.locs = append(doc.locs, u)
			}
		}
		return doc, nil
	}

	var set urlset
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, err
	}
	doc := &sitemapDoc{}
	for _, u := range set.URLs {
		if loc := strings.TrimSpace(u.Loc); loc != "" {
			doc.locs = append(doc.locs, loc)
		}
	}
	return doc, nil
}

// gunzipIfNeeded transparently decodes .xml.gz sitemap bodies.
func gunzipIfNeeded(body []byte) []byte {
	if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
		return body
	}
	gz, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return body
	}
	defer gz.Close()
	decoded, err := io.ReadAll(gz)
	if err != nil {
		return body
	}
	return decoded
}

// looksLikeSitemap reports whether a body is a sitemap XML document.
func looksLikeSitemap(body []byte) bool {
	head := body
	if len(head) > 1024 {
		head = head[:1024]
	}
	s := string(head)
	return strings.Contains(s, "<urlset") || strings.Contains(s, "<sitemapindex")
}
