package audit

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/seo-audit/auditor/internal/crawler"
	"github.com/seo-audit/auditor/internal/urlutil"
)

// URL shape thresholds.
const (
	maxURLLength = 100
	maxPathDepth = 5
)

// reportedRules are per-page checks that appear in the report but carry
// no penalty.
var reportedRules = []ruleFunc{
	checkURLShape,
	checkViewport,
	check404,
}

// checkURLShape flags URL hygiene problems: underscores, uppercase,
// excessive length or depth, and unusual characters.
func checkURLShape(rec *crawler.CrawlRecord, ctx *SiteContext) []Issue {
	var issues []Issue

	u, err := url.Parse(rec.URL)
	if err != nil {
		return nil
	}

	if strings.Contains(u.Path, "_") {
		issues = append(issues, newIssue(rec.URL, CodeURLsContainUnderscore, "URL path contains underscores"))
	}
	if u.Path != strings.ToLower(u.Path) {
		issues = append(issues, newIssue(rec.URL, CodeURLsContainUppercase, "URL path contains uppercase characters"))
	}
	if len(rec.URL) > maxURLLength {
		issues = append(issues, newIssue(rec.URL, CodeURLsTooLong,
			fmt.Sprintf("URL too long (%d chars, recommended: <=%d)", len(rec.URL), maxURLLength)))
	}
	if urlutil.PathDepth(rec.URL) > maxPathDepth {
		issues = append(issues, newIssue(rec.URL, CodeURLsTooDeep,
			fmt.Sprintf("URL path too deep (%d segments, recommended: <=%d)", urlutil.PathDepth(rec.URL), maxPathDepth)))
	}
	if hasSpecialCharacters(u.Path) {
		issues = append(issues, newIssue(rec.URL, CodeURLsSpecialCharacters, "URL path contains special characters"))
	}

	return issues
}

// hasSpecialCharacters reports characters outside [a-z0-9-_./] in the
// lowercased path. Uppercase is covered by its own check.
func hasSpecialCharacters(path string) bool {
	for _, r := range strings.ToLower(path) {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.' || r == '/':
		default:
			return true
		}
	}
	return false
}

// checkViewport flags HTML pages without a viewport meta tag.
func checkViewport(rec *crawler.CrawlRecord, ctx *SiteContext) []Issue {
	if rec.Facts == nil || rec.Facts.ViewportPresent {
		return nil
	}
	return []Issue{newIssue(rec.URL, CodeMissingViewport, "Missing viewport meta tag")}
}

// check404 flags pages returning 404.
func check404(rec *crawler.CrawlRecord, ctx *SiteContext) []Issue {
	if rec.Fetch.StatusCode != 404 {
		return nil
	}
	return []Issue{newIssue(rec.URL, CodeStatus404, "Page returns 404 Not Found")}
}

// siteIssues are site-level reported-only findings attached to the homepage
// URL: crawlability gaps and performance headers missing on most pages.
func siteIssues(records []*crawler.CrawlRecord, ctx *SiteContext) []Issue {
	var issues []Issue

	if !ctx.Resolution.RobotsExists {
		issues = append(issues, newIssue(ctx.Homepage, CodeMissingRobotsTxt, "robots.txt file is missing"))
	}
	if len(ctx.Resolution.SitemapsFound) == 0 {
		issues = append(issues, newIssue(ctx.Homepage, CodeNoSitemapsFound, "No XML sitemaps were found"))
	}
	if !ctx.Resolution.LLMsTxtExists {
		issues = append(issues, newIssue(ctx.Homepage, CodeMissingLLMsTxt, "llms.txt file is missing"))
	}

	missingCache := 0
	missingCompression := 0
	for _, rec := range records {
		if rec.Fetch.GetHeader("Cache-Control") == "" {
			missingCache++
		}
		encoding := strings.ToLower(rec.Fetch.GetHeader("Content-Encoding"))
		switch encoding {
		case "gzip", "deflate", "br", "brotli":
		default:
			missingCompression++
		}
	}

	// Only flag when the majority of pages are affected.
	if total := len(records); total > 0 {
		if missingCache*2 > total {
			issues = append(issues, newIssue(ctx.Homepage, CodeMissingCacheControl,
				fmt.Sprintf("%d page(s) are missing Cache-Control headers", missingCache)))
		}
		if missingCompression*2 > total {
			issues = append(issues, newIssue(ctx.Homepage, CodeMissingContentCompression,
				fmt.Sprintf("%d page(s) are not using content compression", missingCompression)))
		}
	}

	return issues
}
