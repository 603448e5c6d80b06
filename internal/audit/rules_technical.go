package audit

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/seo-audit/auditor/internal/crawler"
	"github.com/seo-audit/auditor/internal/urlutil"
)

// ruleFunc is one pure check over a crawl record and the site context.
type ruleFunc func(rec *crawler.CrawlRecord, ctx *SiteContext) []Issue

// technicalRules is the fixed ordered list of technical checks.
var technicalRules = []ruleFunc{
	checkNoindex,
	checkRedirectLoop,
	checkHTTPS,
	checkCanonical,
	checkServerError,
	checkRedirectChain,
	checkMixedContent,
	checkRobotsConflict,
	checkNofollow,
	checkStructuredData,
}

// checkNoindex flags noindex directives in meta robots or X-Robots-Tag.
func checkNoindex(rec *crawler.CrawlRecord, ctx *SiteContext) []Issue {
	if rec.Facts == nil {
		return nil
	}
	for _, t := range rec.Facts.MetaRobots {
		if t == "noindex" {
			return []Issue{newIssue(rec.URL, CodeNoindexOnIndexable, "Meta robots tag contains 'noindex'")}
		}
	}
	for _, t := range rec.Facts.XRobots {
		if t == "noindex" {
			return []Issue{newIssue(rec.URL, CodeNoindexOnIndexable, "X-Robots-Tag header contains 'noindex'")}
		}
	}
	return nil
}

// checkRedirectLoop flags a repeated URL in the redirect chain.
func checkRedirectLoop(rec *crawler.CrawlRecord, ctx *SiteContext) []Issue {
	if rec.Fetch.Class == "loop" {
		return []Issue{newIssue(rec.URL, CodeRedirectLoop, "Redirect loop detected")}
	}
	seen := make(map[string]struct{}, len(rec.Fetch.RedirectChain))
	for _, hop := range rec.Fetch.RedirectChain {
		if _, dup := seen[hop.URL]; dup {
			return []Issue{newIssue(rec.URL, CodeRedirectLoop, "Redirect loop detected")}
		}
		seen[hop.URL] = struct{}{}
	}
	return nil
}

// checkHTTPS flags pages whose final URL is plain http.
func checkHTTPS(rec *crawler.CrawlRecord, ctx *SiteContext) []Issue {
	u, err := url.Parse(rec.Fetch.FinalURL)
	if err != nil {
		return nil
	}
	if u.Scheme == "http" {
		return []Issue{newIssue(rec.URL, CodeNotHTTPS, "Page is not served over HTTPS")}
	}
	return nil
}

// checkCanonical flags canonical tags pointing at 404s, the homepage, or
// a different URL.
func checkCanonical(rec *crawler.CrawlRecord, ctx *SiteContext) []Issue {
	if rec.Facts == nil || rec.Facts.Canonical == "" {
		return nil
	}

	canonical, err := urlutil.Canonicalize(rec.Facts.Canonical)
	if err != nil {
		return nil
	}

	if status, crawled := ctx.StatusByURL[canonical]; crawled && status == 404 {
		return []Issue{newIssue(rec.URL, CodeCanonical404, "Canonical points to a URL returning 404")}
	}
	if canonical == ctx.Homepage && rec.URL != ctx.Homepage {
		return []Issue{newIssue(rec.URL, CodeCanonicalToHomepage, "Canonical points to homepage instead of current page")}
	}
	if canonical != rec.URL {
		return []Issue{newIssue(rec.URL, CodeCanonicalDifferentURL,
			fmt.Sprintf("Canonical points to different URL: %s", rec.Facts.Canonical))}
	}
	return nil
}

// checkServerError flags 5xx terminal statuses.
func checkServerError(rec *crawler.CrawlRecord, ctx *SiteContext) []Issue {
	if rec.Fetch.IsServerError() {
		return []Issue{newIssue(rec.URL, CodeServerError5xx,
			fmt.Sprintf("Server error: %d", rec.Fetch.StatusCode))}
	}
	return nil
}

// checkRedirectChain flags chains ending in 404, overly long chains, and
// 302 hops.
func checkRedirectChain(rec *crawler.CrawlRecord, ctx *SiteContext) []Issue {
	chain := rec.Fetch.RedirectChain
	var issues []Issue

	if len(chain) >= 1 && rec.Fetch.StatusCode == 404 {
		issues = append(issues, newIssue(rec.URL, CodeRedirectChainEnds404, "Redirect chain ends in 404"))
	}
	if len(chain) > 3 {
		issues = append(issues, newIssue(rec.URL, CodeRedirectChainTooLong,
			fmt.Sprintf("Redirect chain too long (%d hops)", len(chain))))
	}
	for _, hop := range chain {
		if hop.StatusCode == 302 {
			issues = append(issues, newIssue(rec.URL, CodeRedirect302, "Uses 302 (temporary) redirect instead of 301"))
			break
		}
	}
	return issues
}

// checkMixedContent flags http:// subresources on HTTPS pages.
func checkMixedContent(rec *crawler.CrawlRecord, ctx *SiteContext) []Issue {
	if rec.Facts == nil || !rec.Facts.HTTPS || len(rec.Facts.MixedContent) == 0 {
		return nil
	}
	return []Issue{newIssue(rec.URL, CodeMixedContentJSCSS,
		fmt.Sprintf("%d resource(s) loaded via HTTP on an HTTPS page", len(rec.Facts.MixedContent)))}
}

// checkRobotsConflict flags disagreement between meta robots and the
// X-Robots-Tag header on index/noindex.
func checkRobotsConflict(rec *crawler.CrawlRecord, ctx *SiteContext) []Issue {
	if rec.Facts == nil || len(rec.Facts.MetaRobots) == 0 || len(rec.Facts.XRobots) == 0 {
		return nil
	}
	metaNoindex := containsToken(rec.Facts.MetaRobots, "noindex")
	headerNoindex := containsToken(rec.Facts.XRobots, "noindex")
	if metaNoindex != headerNoindex {
		return []Issue{newIssue(rec.URL, CodeMetaRobotsConflict,
			"Conflict between meta robots tag and X-Robots-Tag header")}
	}
	return nil
}

// checkNofollow flags nofollow directives.
func checkNofollow(rec *crawler.CrawlRecord, ctx *SiteContext) []Issue {
	if rec.Facts == nil {
		return nil
	}
	if rec.Facts.HasRobotsToken("nofollow") {
		return []Issue{newIssue(rec.URL, CodeNofollowDirective, "Page carries a 'nofollow' directive")}
	}
	return nil
}

// checkStructuredData flags missing structured data on 2xx HTML pages and
// duplicated type labels.
func checkStructuredData(rec *crawler.CrawlRecord, ctx *SiteContext) []Issue {
	if rec.Facts == nil || !rec.Fetch.IsSuccess() {
		return nil
	}

	if len(rec.Facts.StructuredData) == 0 {
		return []Issue{newIssue(rec.URL, CodeMissingStructuredData, "No structured data found")}
	}

	// First repeated label in document order keeps the output stable.
	labels := make(map[string]int)
	for _, block := range rec.Facts.StructuredData {
		labels[block.TypeLabel]++
		if labels[block.TypeLabel] == 2 {
			msg := "Duplicate structured data types detected"
			if block.TypeLabel != "" {
				msg = fmt.Sprintf("Duplicate structured data type: %s", block.TypeLabel)
			}
			return []Issue{newIssue(rec.URL, CodeDuplicateStructuredData, msg)}
		}
	}
	return nil
}

func containsToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if strings.TrimSpace(t) == want {
			return true
		}
	}
	return false
}
