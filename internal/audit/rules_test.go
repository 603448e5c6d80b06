package audit

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-audit/auditor/internal/crawler"
	"github.com/seo-audit/auditor/internal/fetcher"
	"github.com/seo-audit/auditor/internal/parser"
	"github.com/seo-audit/auditor/internal/robots"
)

func emptyResolution() *robots.Resolution {
	return &robots.Resolution{
		Robots:      robots.NewRobotsTxt(),
		SitemapURLs: make(map[string]struct{}),
	}
}

func htmlRecord(url string, status int, facts *parser.PageFacts) *crawler.CrawlRecord {
	return &crawler.CrawlRecord{
		URL: url,
		Fetch: &fetcher.FetchResult{
			RequestURL:  url,
			FinalURL:    url,
			StatusCode:  status,
			ContentType: "text/html",
			Headers:     http.Header{},
		},
		Facts: facts,
	}
}

// cleanFacts returns facts that trigger no issue on their own.
func cleanFacts(pageURL string) *parser.PageFacts {
	return &parser.PageFacts{
		HasTitle:           true,
		Title:              strings.Repeat("t", 40),
		HasMetaDescription: true,
		MetaDescription:    strings.Repeat("d", 140),
		Canonical:          pageURL,
		HeadingCounts:      [6]int{1},
		H1Texts:            []string{"Main Heading"},
		StructuredData:     []parser.StructuredBlock{{Kind: parser.KindJSONLD, TypeLabel: "WebSite"}},
		ViewportPresent:    true,
		HTTPS:              true,
	}
}

func siteContextFor(records ...*crawler.CrawlRecord) *SiteContext {
	return BuildSiteContext(records, emptyResolution(), "https://a.test/")
}

func codesOf(issues []Issue) []string {
	var codes []string
	for _, issue := range issues {
		codes = append(codes, issue.Code)
	}
	return codes
}

func TestTitleLengthBoundaries(t *testing.T) {
	tests := []struct {
		length int
		want   string
	}{
		{29, CodeTitleTooShort},
		{30, ""},
		{70, ""},
		{71, CodeTitleTooLong},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("len_%d", tt.length), func(t *testing.T) {
			url := "https://a.test/p"
			facts := cleanFacts(url)
			facts.Title = strings.Repeat("x", tt.length)
			rec := htmlRecord(url, 200, facts)

			issues := EvaluatePage(rec, siteContextFor(rec))
			if tt.want == "" {
				assert.NotContains(t, codesOf(issues), CodeTitleTooShort)
				assert.NotContains(t, codesOf(issues), CodeTitleTooLong)
			} else {
				assert.Contains(t, codesOf(issues), tt.want)
			}
		})
	}
}

func TestDescriptionLengthBoundaries(t *testing.T) {
	tests := []struct {
		length int
		want   string
	}{
		{119, CodeMetaDescriptionTooShort},
		{120, ""},
		{160, ""},
		{161, CodeMetaDescriptionTooLong},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("len_%d", tt.length), func(t *testing.T) {
			url := "https://a.test/p"
			facts := cleanFacts(url)
			facts.MetaDescription = strings.Repeat("x", tt.length)
			rec := htmlRecord(url, 200, facts)

			issues := EvaluatePage(rec, siteContextFor(rec))
			if tt.want == "" {
				assert.NotContains(t, codesOf(issues), CodeMetaDescriptionTooShort)
				assert.NotContains(t, codesOf(issues), CodeMetaDescriptionTooLong)
			} else {
				assert.Contains(t, codesOf(issues), tt.want)
			}
		})
	}
}

func TestTitleLengthCountsRunes(t *testing.T) {
	url := "https://a.test/p"
	facts := cleanFacts(url)
	facts.Title = strings.Repeat("ü", 30)
	rec := htmlRecord(url, 200, facts)

	issues := EvaluatePage(rec, siteContextFor(rec))
	assert.NotContains(t, codesOf(issues), CodeTitleTooShort)
}

func TestMissingAndEmptyTitle(t *testing.T) {
	url := "https://a.test/p"

	facts := cleanFacts(url)
	facts.HasTitle = false
	facts.Title = ""
	issues := EvaluatePage(htmlRecord(url, 200, facts), siteContextFor())
	assert.Contains(t, codesOf(issues), CodeMissingTitle)

	facts = cleanFacts(url)
	facts.Title = "   "
	issues = EvaluatePage(htmlRecord(url, 200, facts), siteContextFor())
	assert.Contains(t, codesOf(issues), CodeTitleEmpty)
	assert.NotContains(t, codesOf(issues), CodeTitleTooShort)
}

func TestH1Boundaries(t *testing.T) {
	url := "https://a.test/p"

	facts := cleanFacts(url)
	facts.HeadingCounts[0] = 0
	facts.H1Texts = nil
	issues := EvaluatePage(htmlRecord(url, 200, facts), siteContextFor())
	assert.Contains(t, codesOf(issues), CodeNoH1)

	facts = cleanFacts(url)
	issues = EvaluatePage(htmlRecord(url, 200, facts), siteContextFor())
	assert.NotContains(t, codesOf(issues), CodeNoH1)
	assert.NotContains(t, codesOf(issues), CodeMultipleH1)

	facts = cleanFacts(url)
	facts.HeadingCounts[0] = 2
	facts.H1Texts = []string{"One", "Two"}
	issues = EvaluatePage(htmlRecord(url, 200, facts), siteContextFor())
	assert.Contains(t, codesOf(issues), CodeMultipleH1)
}

func TestH1IdenticalToTitle(t *testing.T) {
	url := "https://a.test/p"
	facts := cleanFacts(url)
	facts.Title = "Exactly The Same Heading For This Page"
	facts.H1Texts = []string{"exactly the same heading for this page"}

	issues := EvaluatePage(htmlRecord(url, 200, facts), siteContextFor())
	assert.Contains(t, codesOf(issues), CodeH1IdenticalToTitle)
}

func TestEmptyH1IsFlagged(t *testing.T) {
	url := "https://a.test/p"
	facts := cleanFacts(url)
	facts.HeadingCounts[0] = 2
	facts.H1Texts = []string{"Real heading", "  "}

	issues := EvaluatePage(htmlRecord(url, 200, facts), siteContextFor())
	assert.Contains(t, codesOf(issues), CodeH1Other)
}

func TestImageAltCaps(t *testing.T) {
	url := "https://a.test/p"
	facts := cleanFacts(url)
	for i := 0; i < 10; i++ {
		facts.Images = append(facts.Images, parser.Image{Src: fmt.Sprintf("/img-%d.jpg", i)})
	}
	for i := 0; i < 5; i++ {
		facts.Images = append(facts.Images, parser.Image{Src: fmt.Sprintf("/empty-%d.jpg", i), HasAlt: true, Alt: ""})
	}
	// SVGs are exempt from alt checks.
	facts.Images = append(facts.Images, parser.Image{Src: "/icon.svg", IsSVG: true})

	issues := EvaluatePage(htmlRecord(url, 200, facts), siteContextFor())

	missing, empty, penalty := 0, 0, 0
	for _, issue := range issues {
		switch issue.Code {
		case CodeImagesMissingAlt:
			missing++
			penalty += issue.Weight
		case CodeImagesEmptyAlt:
			empty++
			penalty += issue.Weight
		}
	}
	assert.Equal(t, 3, missing)
	assert.Equal(t, 2, empty)
	assert.Equal(t, -16, penalty) // 3*-4 + 2*-2
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 80))

	// 27 three-byte runes are 81 bytes; byte 80 falls inside a rune, so
	// the cut backs up to the previous boundary.
	s := strings.Repeat("…", 27)
	out := truncate(s, 80)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, 26, utf8.RuneCountInString(out))
}

func TestImageIssueMessageIsValidUTF8(t *testing.T) {
	url := "https://a.test/p"
	facts := cleanFacts(url)
	facts.Images = []parser.Image{{Src: "/" + strings.Repeat("é", 60) + ".jpg"}}

	issues := EvaluatePage(htmlRecord(url, 200, facts), siteContextFor())
	require.Len(t, issues, 1)
	assert.Equal(t, CodeImagesMissingAlt, issues[0].Code)
	assert.True(t, utf8.ValidString(issues[0].Message))
}

func TestInternalLinkBoundaries(t *testing.T) {
	build := func(n int) *crawler.CrawlRecord {
		url := "https://a.test/p"
		facts := cleanFacts(url)
		for i := 0; i < n; i++ {
			facts.Links = append(facts.Links, parser.Link{
				Href:       fmt.Sprintf("https://a.test/l%d", i),
				AnchorText: "link",
				IsInternal: true,
			})
		}
		return htmlRecord(url, 200, facts)
	}

	issues := EvaluatePage(build(100), siteContextFor())
	assert.NotContains(t, codesOf(issues), CodeExcessiveInternalLinks)

	issues = EvaluatePage(build(101), siteContextFor())
	assert.Contains(t, codesOf(issues), CodeExcessiveInternalLinks)
}

func TestBrokenInternalLinks(t *testing.T) {
	url := "https://a.test/p"
	facts := cleanFacts(url)
	facts.Links = []parser.Link{
		{Href: "https://a.test/gone", AnchorText: "gone", IsInternal: true},
		{Href: "https://a.test/ok", AnchorText: "ok", IsInternal: true},
	}
	rec := htmlRecord(url, 200, facts)

	ctx := siteContextFor(rec)
	ctx.StatusByURL["https://a.test/gone"] = 404
	ctx.StatusByURL["https://a.test/ok"] = 200

	issues := EvaluatePage(rec, ctx)
	assert.Contains(t, codesOf(issues), CodeBrokenInternalLinks)
}

func TestLinkWithoutAnchorText(t *testing.T) {
	url := "https://a.test/p"
	facts := cleanFacts(url)
	facts.Links = []parser.Link{
		{Href: "https://a.test/labeled", IsInternal: true, HasAriaLabel: true},
		{Href: "https://a.test/bare", IsInternal: true},
	}

	issues := EvaluatePage(htmlRecord(url, 200, facts), siteContextFor())
	assert.Contains(t, codesOf(issues), CodeLinkWithoutAnchorText)
}

func TestNofollowInternalLink(t *testing.T) {
	url := "https://a.test/p"
	facts := cleanFacts(url)
	facts.Links = []parser.Link{
		{Href: "https://a.test/x", AnchorText: "x", IsInternal: true, RelTokens: []string{"nofollow"}},
	}

	issues := EvaluatePage(htmlRecord(url, 200, facts), siteContextFor())
	assert.Contains(t, codesOf(issues), CodeInternalLinksOther)
}

func TestOrphanDetection(t *testing.T) {
	homepage := "https://a.test/"
	orphanURL := "https://a.test/orphan"
	linkedURL := "https://a.test/linked"

	home := htmlRecord(homepage, 200, cleanFacts(homepage))
	home.Facts.Links = []parser.Link{{Href: linkedURL, AnchorText: "x", IsInternal: true}}
	orphan := htmlRecord(orphanURL, 200, cleanFacts(orphanURL))
	linked := htmlRecord(linkedURL, 200, cleanFacts(linkedURL))

	resolution := emptyResolution()
	resolution.SitemapURLs[orphanURL] = struct{}{}
	resolution.SitemapURLs[linkedURL] = struct{}{}
	resolution.SitemapURLs[homepage] = struct{}{}
	ctx := BuildSiteContext([]*crawler.CrawlRecord{home, orphan, linked}, resolution, homepage)

	assert.Contains(t, codesOf(EvaluatePage(orphan, ctx)), CodeOrphanPage)
	assert.NotContains(t, codesOf(EvaluatePage(linked, ctx)), CodeOrphanPage)
	// The homepage is never an orphan.
	assert.NotContains(t, codesOf(EvaluatePage(home, ctx)), CodeOrphanPage)
}

func TestOrphanRequiresSitemapMembership(t *testing.T) {
	url := "https://a.test/standalone"
	rec := htmlRecord(url, 200, cleanFacts(url))

	issues := EvaluatePage(rec, siteContextFor(rec))
	assert.NotContains(t, codesOf(issues), CodeOrphanPage)
}

func TestDuplicateTitlesAcrossSite(t *testing.T) {
	urls := []string{"https://a.test/1", "https://a.test/2", "https://a.test/3"}
	var records []*crawler.CrawlRecord
	for _, u := range urls {
		facts := cleanFacts(u)
		facts.Title = "Home"
		records = append(records, htmlRecord(u, 200, facts))
	}

	ctx := siteContextFor(records...)
	for _, rec := range records {
		issues := EvaluatePage(rec, ctx)
		assert.Contains(t, codesOf(issues), CodeDuplicateTitle, rec.URL)
	}
}

func TestDuplicateNormalizationIgnoresCaseAndWhitespace(t *testing.T) {
	a := htmlRecord("https://a.test/1", 200, cleanFacts("https://a.test/1"))
	a.Facts.Title = "My  Great   Page"
	b := htmlRecord("https://a.test/2", 200, cleanFacts("https://a.test/2"))
	b.Facts.Title = "my great page"

	ctx := siteContextFor(a, b)
	assert.True(t, ctx.IsDuplicateTitle(a.Facts.Title))
	assert.True(t, ctx.IsDuplicateTitle(b.Facts.Title))
}

func TestNoindexDetection(t *testing.T) {
	url := "https://a.test/p"

	facts := cleanFacts(url)
	facts.MetaRobots = []string{"noindex", "follow"}
	issues := EvaluatePage(htmlRecord(url, 200, facts), siteContextFor())
	assert.Contains(t, codesOf(issues), CodeNoindexOnIndexable)

	facts = cleanFacts(url)
	facts.XRobots = []string{"noindex"}
	issues = EvaluatePage(htmlRecord(url, 200, facts), siteContextFor())
	assert.Contains(t, codesOf(issues), CodeNoindexOnIndexable)
}

func TestRobotsConflict(t *testing.T) {
	url := "https://a.test/p"
	facts := cleanFacts(url)
	facts.MetaRobots = []string{"index"}
	facts.XRobots = []string{"noindex"}

	issues := EvaluatePage(htmlRecord(url, 200, facts), siteContextFor())
	assert.Contains(t, codesOf(issues), CodeMetaRobotsConflict)
}

func TestCanonicalRules(t *testing.T) {
	homepage := "https://a.test/"
	url := "https://a.test/p"

	facts := cleanFacts(url)
	facts.Canonical = homepage
	rec := htmlRecord(url, 200, facts)
	ctx := BuildSiteContext([]*crawler.CrawlRecord{rec}, emptyResolution(), homepage)
	assert.Contains(t, codesOf(EvaluatePage(rec, ctx)), CodeCanonicalToHomepage)

	facts = cleanFacts(url)
	facts.Canonical = "https://a.test/other"
	rec = htmlRecord(url, 200, facts)
	ctx = BuildSiteContext([]*crawler.CrawlRecord{rec}, emptyResolution(), homepage)
	assert.Contains(t, codesOf(EvaluatePage(rec, ctx)), CodeCanonicalDifferentURL)

	facts = cleanFacts(url)
	facts.Canonical = "https://a.test/gone"
	rec = htmlRecord(url, 200, facts)
	ctx = BuildSiteContext([]*crawler.CrawlRecord{rec}, emptyResolution(), homepage)
	ctx.StatusByURL["https://a.test/gone"] = 404
	assert.Contains(t, codesOf(EvaluatePage(rec, ctx)), CodeCanonical404)
}

func TestRedirectChainBoundaries(t *testing.T) {
	build := func(hops int, last int) *crawler.CrawlRecord {
		url := "https://a.test/p"
		rec := htmlRecord(url, last, cleanFacts(url))
		for i := 0; i < hops; i++ {
			rec.Fetch.RedirectChain = append(rec.Fetch.RedirectChain, fetcher.RedirectHop{
				URL:        fmt.Sprintf("https://a.test/hop-%d", i),
				StatusCode: 301,
			})
		}
		return rec
	}

	issues := EvaluatePage(build(3, 200), siteContextFor())
	assert.NotContains(t, codesOf(issues), CodeRedirectChainTooLong)

	issues = EvaluatePage(build(4, 200), siteContextFor())
	assert.Contains(t, codesOf(issues), CodeRedirectChainTooLong)

	issues = EvaluatePage(build(1, 404), siteContextFor())
	assert.Contains(t, codesOf(issues), CodeRedirectChainEnds404)
}

func TestRedirect302Hop(t *testing.T) {
	url := "https://a.test/p"
	rec := htmlRecord(url, 200, cleanFacts(url))
	rec.Fetch.RedirectChain = []fetcher.RedirectHop{
		{URL: "https://a.test/old", StatusCode: 302},
	}

	issues := EvaluatePage(rec, siteContextFor())
	assert.Contains(t, codesOf(issues), CodeRedirect302)
}

func TestRedirectLoopRecord(t *testing.T) {
	url := "https://c.test/a"
	rec := &crawler.CrawlRecord{
		URL: url,
		Fetch: &fetcher.FetchResult{
			RequestURL: url,
			FinalURL:   url,
			StatusCode: 302,
			Class:      fetcher.ErrLoop,
			RedirectChain: []fetcher.RedirectHop{
				{URL: "https://c.test/a", StatusCode: 301},
				{URL: "https://c.test/b", StatusCode: 301},
			},
		},
	}

	issues := EvaluatePage(rec, siteContextFor())
	assert.Contains(t, codesOf(issues), CodeRedirectLoop)
	assert.Equal(t, 85, PageScore(issues))
}

func TestMixedContent(t *testing.T) {
	url := "https://a.test/p"
	facts := cleanFacts(url)
	facts.MixedContent = []string{"http://cdn.test/app.js", "http://cdn.test/style.css"}

	issues := EvaluatePage(htmlRecord(url, 200, facts), siteContextFor())
	assert.Contains(t, codesOf(issues), CodeMixedContentJSCSS)
}

func TestServerError(t *testing.T) {
	url := "https://a.test/p"
	rec := htmlRecord(url, 503, nil)

	issues := EvaluatePage(rec, siteContextFor())
	assert.Contains(t, codesOf(issues), CodeServerError5xx)
}

func TestURLShapeChecks(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://a.test/my_page", CodeURLsContainUnderscore},
		{"https://a.test/MyPage", CodeURLsContainUppercase},
		{"https://a.test/" + strings.Repeat("x", 100), CodeURLsTooLong},
		{"https://a.test/a/b/c/d/e/f", CodeURLsTooDeep},
		{"https://a.test/page(1)", CodeURLsSpecialCharacters},
	}

	for _, tt := range tests {
		rec := htmlRecord(tt.url, 200, nil)
		issues := EvaluatePage(rec, siteContextFor())
		assert.Contains(t, codesOf(issues), tt.want, tt.url)
	}
}

func TestMissingViewportAnd404(t *testing.T) {
	url := "https://a.test/p"

	facts := cleanFacts(url)
	facts.ViewportPresent = false
	issues := EvaluatePage(htmlRecord(url, 200, facts), siteContextFor())
	assert.Contains(t, codesOf(issues), CodeMissingViewport)

	issues = EvaluatePage(htmlRecord(url, 404, nil), siteContextFor())
	assert.Contains(t, codesOf(issues), CodeStatus404)
}

func TestReportedIssuesDoNotChangeScore(t *testing.T) {
	url := "https://a.test/my_page"
	facts := cleanFacts(url)
	facts.ViewportPresent = false
	facts.Canonical = url

	issues := EvaluatePage(htmlRecord(url, 200, facts), siteContextFor())
	require.Contains(t, codesOf(issues), CodeMissingViewport)
	require.Contains(t, codesOf(issues), CodeURLsContainUnderscore)
	assert.Equal(t, 100, PageScore(issues))
}

func TestSiteIssues(t *testing.T) {
	homepage := "https://a.test/"
	rec := htmlRecord(homepage, 200, cleanFacts(homepage))

	ctx := BuildSiteContext([]*crawler.CrawlRecord{rec}, emptyResolution(), homepage)
	issues := siteIssues([]*crawler.CrawlRecord{rec}, ctx)

	codes := codesOf(issues)
	assert.Contains(t, codes, CodeMissingRobotsTxt)
	assert.Contains(t, codes, CodeNoSitemapsFound)
	assert.Contains(t, codes, CodeMissingLLMsTxt)
	// No Cache-Control or Content-Encoding on any page.
	assert.Contains(t, codes, CodeMissingCacheControl)
	assert.Contains(t, codes, CodeMissingContentCompression)

	for _, issue := range issues {
		assert.Equal(t, homepage, issue.URL)
		assert.Zero(t, issue.Weight)
	}
}

func TestSiteIssuesMajorityThreshold(t *testing.T) {
	homepage := "https://a.test/"
	good := htmlRecord(homepage, 200, cleanFacts(homepage))
	good.Fetch.Headers.Set("Cache-Control", "max-age=3600")
	good.Fetch.Headers.Set("Content-Encoding", "gzip")
	bad := htmlRecord("https://a.test/b", 200, cleanFacts("https://a.test/b"))

	records := []*crawler.CrawlRecord{good, bad}
	ctx := BuildSiteContext(records, emptyResolution(), homepage)

	// Exactly half affected is below the majority threshold.
	codes := codesOf(siteIssues(records, ctx))
	assert.NotContains(t, codes, CodeMissingCacheControl)
	assert.NotContains(t, codes, CodeMissingContentCompression)
}
