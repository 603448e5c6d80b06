package audit

import (
	"strings"

	"github.com/seo-audit/auditor/internal/crawler"
	"github.com/seo-audit/auditor/internal/robots"
	"github.com/seo-audit/auditor/internal/urlutil"
)

// SiteContext holds the cross-page joins computed once after the crawl:
// duplicate maps, the internal link graph's in-degrees, the sitemap URL
// set, and per-URL terminal statuses. It is immutable after construction.
type SiteContext struct {
	// Host of the audited site
	BaseHost string

	// Canonical homepage URL (the seed)
	Homepage string

	// Normalized title -> canonical URLs sharing it (entries with >1 URL)
	DuplicateTitles map[string][]string

	// Normalized description -> canonical URLs sharing it (entries with >1 URL)
	DuplicateDescriptions map[string][]string

	// Canonical URL -> count of distinct internal pages linking to it
	InboundLinks map[string]int

	// Canonical URLs declared in any discovered sitemap
	SitemapURLs map[string]struct{}

	// Canonical URL -> terminal HTTP status of its crawl record
	StatusByURL map[string]int

	// Robots/sitemap resolution for the site
	Resolution *robots.Resolution
}

// BuildSiteContext computes the SiteContext from the completed crawl.
func BuildSiteContext(records []*crawler.CrawlRecord, resolution *robots.Resolution, homepage string) *SiteContext {
	baseHost, _ := urlutil.ExtractHost(homepage)

	ctx := &SiteContext{
		BaseHost:              baseHost,
		Homepage:              homepage,
		DuplicateTitles:       make(map[string][]string),
		DuplicateDescriptions: make(map[string][]string),
		InboundLinks:          make(map[string]int),
		SitemapURLs:           resolution.SitemapURLs,
		StatusByURL:           make(map[string]int),
		Resolution:            resolution,
	}

	titles := make(map[string][]string)
	descriptions := make(map[string][]string)
	inbound := make(map[string]map[string]struct{})

	for _, record := range records {
		ctx.StatusByURL[record.URL] = record.Fetch.StatusCode

		if record.Facts == nil {
			continue
		}

		if record.Facts.HasTitle {
			if key := normalizeForDuplicates(record.Facts.Title); key != "" {
				titles[key] = append(titles[key], record.URL)
			}
		}
		if record.Facts.HasMetaDescription {
			if key := normalizeForDuplicates(record.Facts.MetaDescription); key != "" {
				descriptions[key] = append(descriptions[key], record.URL)
			}
		}

		for _, link := range record.Facts.Links {
			if !link.IsInternal {
				continue
			}
			target, err := urlutil.Canonicalize(link.Href)
			if err != nil || target == record.URL {
				continue
			}
			if inbound[target] == nil {
				inbound[target] = make(map[string]struct{})
			}
			inbound[target][record.URL] = struct{}{}
		}
	}

	for key, urls := range titles {
		if len(urls) > 1 {
			ctx.DuplicateTitles[key] = urls
		}
	}
	for key, urls := range descriptions {
		if len(urls) > 1 {
			ctx.DuplicateDescriptions[key] = urls
		}
	}
	for target, sources := range inbound {
		ctx.InboundLinks[target] = len(sources)
	}

	return ctx
}

// normalizeForDuplicates lowercases and collapses whitespace so that
// duplicate comparison ignores case and formatting.
func normalizeForDuplicates(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// IsDuplicateTitle reports whether a title recurs on another page.
func (c *SiteContext) IsDuplicateTitle(title string) bool {
	_, ok := c.DuplicateTitles[normalizeForDuplicates(title)]
	return ok
}

// IsDuplicateDescription reports whether a description recurs on another page.
func (c *SiteContext) IsDuplicateDescription(desc string) bool {
	_, ok := c.DuplicateDescriptions[normalizeForDuplicates(desc)]
	return ok
}
