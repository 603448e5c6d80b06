package audit

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/seo-audit/auditor/internal/crawler"
	"github.com/seo-audit/auditor/internal/urlutil"
)

// Title and description length thresholds (characters).
const (
	titleMinLength = 30
	titleMaxLength = 70
	descMinLength  = 120
	descMaxLength  = 160

	maxInternalLinks = 100
)

// Titles that look like template or default placeholders.
var templateTitles = map[string]struct{}{
	"home":     {},
	"page":     {},
	"untitled": {},
	"new page": {},
}

// onPageRules is the fixed ordered list of on-page checks.
var onPageRules = []ruleFunc{
	checkTitle,
	checkMetaDescription,
	checkHeadings,
	checkImages,
	checkInternalLinks,
	checkOrphan,
}

// checkTitle evaluates the title tag: presence, length, duplicates, and
// template defaults.
func checkTitle(rec *crawler.CrawlRecord, ctx *SiteContext) []Issue {
	if rec.Facts == nil {
		return nil
	}

	if !rec.Facts.HasTitle {
		return []Issue{newIssue(rec.URL, CodeMissingTitle, "Missing title tag")}
	}

	title := strings.TrimSpace(rec.Facts.Title)
	if title == "" {
		return []Issue{newIssue(rec.URL, CodeTitleEmpty, "Title tag is empty")}
	}

	var issues []Issue
	length := utf8.RuneCountInString(title)

	if length < titleMinLength {
		issues = append(issues, newIssue(rec.URL, CodeTitleTooShort,
			fmt.Sprintf("Title too short (%d chars, recommended: %d-%d)", length, titleMinLength, titleMaxLength)))
	} else if length > titleMaxLength {
		issues = append(issues, newIssue(rec.URL, CodeTitleTooLong,
			fmt.Sprintf("Title too long (%d chars, recommended: %d-%d)", length, titleMinLength, titleMaxLength)))
	}

	if _, templated := templateTitles[strings.ToLower(title)]; templated && length < 20 {
		issues = append(issues, newIssue(rec.URL, CodeTitleTemplateDefault, "Title appears to be a template/default"))
	}

	if ctx.IsDuplicateTitle(title) {
		issues = append(issues, newIssue(rec.URL, CodeDuplicateTitle,
			fmt.Sprintf("Duplicate title shared with %d other page(s)", len(ctx.DuplicateTitles[normalizeForDuplicates(title)])-1)))
	}

	return issues
}

// checkMetaDescription evaluates the meta description analogously.
func checkMetaDescription(rec *crawler.CrawlRecord, ctx *SiteContext) []Issue {
	if rec.Facts == nil {
		return nil
	}

	if !rec.Facts.HasMetaDescription {
		return []Issue{newIssue(rec.URL, CodeMissingMetaDescription, "Missing meta description")}
	}

	desc := strings.TrimSpace(rec.Facts.MetaDescription)
	if desc == "" {
		return []Issue{newIssue(rec.URL, CodeMetaDescriptionEmpty, "Meta description is empty")}
	}

	var issues []Issue
	length := utf8.RuneCountInString(desc)

	if length < descMinLength {
		issues = append(issues, newIssue(rec.URL, CodeMetaDescriptionTooShort,
			fmt.Sprintf("Meta description too short (%d chars, recommended: %d-%d)", length, descMinLength, descMaxLength)))
	} else if length > descMaxLength {
		issues = append(issues, newIssue(rec.URL, CodeMetaDescriptionTooLong,
			fmt.Sprintf("Meta description too long (%d chars, recommended: %d-%d)", length, descMinLength, descMaxLength)))
	}

	if ctx.IsDuplicateDescription(desc) {
		issues = append(issues, newIssue(rec.URL, CodeDuplicateDescription,
			fmt.Sprintf("Duplicate meta description shared with %d other page(s)",
				len(ctx.DuplicateDescriptions[normalizeForDuplicates(desc)])-1)))
	}

	return issues
}

// checkHeadings evaluates H1 usage.
func checkHeadings(rec *crawler.CrawlRecord, ctx *SiteContext) []Issue {
	if rec.Facts == nil {
		return nil
	}

	h1Count := rec.Facts.HeadingCounts[0]
	if h1Count == 0 {
		return []Issue{newIssue(rec.URL, CodeNoH1, "No H1 tag found")}
	}

	var issues []Issue
	if h1Count > 1 {
		issues = append(issues, newIssue(rec.URL, CodeMultipleH1,
			fmt.Sprintf("Multiple H1 tags found (%d)", h1Count)))
	}

	// An H1 present but without text is an anomaly the other checks miss.
	for _, text := range rec.Facts.H1Texts {
		if strings.TrimSpace(text) == "" {
			issues = append(issues, newIssue(rec.URL, CodeH1Other, "H1 tag has no text content"))
			break
		}
	}

	if h1Count == 1 && rec.Facts.HasTitle {
		h1 := strings.TrimSpace(rec.Facts.H1Texts[0])
		title := strings.TrimSpace(rec.Facts.Title)
		if h1 != "" && strings.EqualFold(h1, title) {
			issues = append(issues, newIssue(rec.URL, CodeH1IdenticalToTitle,
				"H1 is identical to title tag (may indicate over-templating)"))
		}
	}

	return issues
}

// checkImages flags missing and empty alt attributes on non-SVG images.
// Penalties are capped: at most 3 missing-alt and 2 empty-alt issues.
func checkImages(rec *crawler.CrawlRecord, ctx *SiteContext) []Issue {
	if rec.Facts == nil {
		return nil
	}

	var issues []Issue
	missing, empty := 0, 0

	for _, img := range rec.Facts.Images {
		if img.IsSVG {
			continue
		}
		if !img.HasAlt {
			if missing < maxMissingAltIssues {
				issues = append(issues, newIssue(rec.URL, CodeImagesMissingAlt,
					fmt.Sprintf("Image missing alt attribute: %s", truncate(img.Src, 80))))
			}
			missing++
		} else if strings.TrimSpace(img.Alt) == "" {
			if empty < maxEmptyAltIssues {
				issues = append(issues, newIssue(rec.URL, CodeImagesEmptyAlt,
					fmt.Sprintf("Image with empty alt attribute: %s", truncate(img.Src, 80))))
			}
			empty++
		}
	}

	return issues
}

// checkInternalLinks evaluates link volume, broken targets, anchor text,
// and nofollow anomalies.
func checkInternalLinks(rec *crawler.CrawlRecord, ctx *SiteContext) []Issue {
	if rec.Facts == nil {
		return nil
	}

	var issues []Issue
	internalCount := 0
	brokenCount := 0
	nofollowInternal := false
	emptyAnchor := ""

	for _, link := range rec.Facts.Links {
		if link.AnchorText == "" && !link.HasAriaLabel && emptyAnchor == "" {
			emptyAnchor = link.Href
		}

		if !link.IsInternal {
			continue
		}
		internalCount++

		if target, err := urlutil.Canonicalize(link.Href); err == nil {
			if status, crawled := ctx.StatusByURL[target]; crawled && status >= 400 {
				brokenCount++
			}
		}

		for _, rel := range link.RelTokens {
			if rel == "nofollow" {
				nofollowInternal = true
			}
		}
	}

	if brokenCount > 0 {
		issues = append(issues, newIssue(rec.URL, CodeBrokenInternalLinks,
			fmt.Sprintf("%d potentially broken internal link(s)", brokenCount)))
	}
	if internalCount > maxInternalLinks {
		issues = append(issues, newIssue(rec.URL, CodeExcessiveInternalLinks,
			fmt.Sprintf("Excessive internal links (%d, recommended: <%d)", internalCount, maxInternalLinks)))
	}
	if emptyAnchor != "" {
		issues = append(issues, newIssue(rec.URL, CodeLinkWithoutAnchorText,
			fmt.Sprintf("Link without anchor text: %s", truncate(emptyAnchor, 50))))
	}
	if nofollowInternal {
		issues = append(issues, newIssue(rec.URL, CodeInternalLinksOther, "Internal link(s) marked rel=\"nofollow\""))
	}

	return issues
}

// checkOrphan flags sitemap-listed pages with no internal inbound links.
func checkOrphan(rec *crawler.CrawlRecord, ctx *SiteContext) []Issue {
	if rec.URL == ctx.Homepage {
		return nil
	}
	if _, inSitemap := ctx.SitemapURLs[rec.URL]; !inSitemap {
		return nil
	}
	if ctx.InboundLinks[rec.URL] > 0 {
		return nil
	}
	return []Issue{newIssue(rec.URL, CodeOrphanPage, "Orphan page (no internal in-links)")}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
