package parser

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title> Welcome to the Example Store </title>
<title>Second title is ignored</title>
<meta name="description" content="First description">
<meta name="description" content="Second description is ignored">
<meta name="robots" content="INDEX, Follow">
<link rel="canonical" href="/canonical-page">
<link rel="stylesheet" href="http://cdn.example.com/style.css">
<script type="application/ld+json">
{"@context": "https://schema.org", "@type": "Organization", "name": "Example"}
</script>
<script type="application/ld+json">
{"@graph": [{"@type": "WebSite"}, {"@type": ["Article", "NewsArticle"]}]}
</script>
<script src="http://cdn.example.com/app.js"></script>
</head>
<body>
<h1>Main Heading</h1>
<h1></h1>
<h2>Sub</h2>
<h2>Other sub</h2>
<h3>Deep</h3>
<div itemscope itemtype="https://schema.org/Product"><span>thing</span></div>
<p typeof="schema:Person">person</p>
<a href="/internal-page">Internal link</a>
<a href="https://other.example.org/ext" rel="NoFollow external">External</a>
<a href="/no-text" aria-label="labeled"></a>
<a href="mailto:x@example.com">mail</a>
<a href="#top">anchor</a>
<a href="javascript:void(0)">js</a>
<img src="/photo.jpg" alt="A photo">
<img src="/missing-alt.jpg">
<img src="/empty-alt.jpg" alt="">
<img src="/logo.svg" >
<img src="http://cdn.example.com/insecure.png" alt="x">
</body>
</html>`

func parseFixture(t *testing.T) *PageFacts {
	t.Helper()
	headers := http.Header{}
	headers.Set("X-Robots-Tag", "noarchive, NOSNIPPET")
	facts, err := ParseFacts("https://shop.example.com/page", "shop.example.com", []byte(fixtureHTML), headers)
	require.NoError(t, err)
	return facts
}

func TestParseHeadTags(t *testing.T) {
	facts := parseFixture(t)

	assert.True(t, facts.HasTitle)
	assert.Equal(t, "Welcome to the Example Store", facts.Title)

	assert.True(t, facts.HasMetaDescription)
	assert.Equal(t, "First description", facts.MetaDescription)

	assert.Equal(t, []string{"index", "follow"}, facts.MetaRobots)
	assert.Equal(t, []string{"noarchive", "nosnippet"}, facts.XRobots)

	assert.Equal(t, "https://shop.example.com/canonical-page", facts.Canonical)
	assert.True(t, facts.ViewportPresent)
	assert.Equal(t, "en", facts.LangAttr)
	assert.Equal(t, "utf-8", facts.Charset)
	assert.True(t, facts.HTTPS)
}

func TestParseHeadings(t *testing.T) {
	facts := parseFixture(t)

	assert.Equal(t, 2, facts.HeadingCounts[0])
	assert.Equal(t, 2, facts.HeadingCounts[1])
	assert.Equal(t, 1, facts.HeadingCounts[2])
	assert.Equal(t, []string{"Main Heading", ""}, facts.H1Texts)
}

func TestParseLinks(t *testing.T) {
	facts := parseFixture(t)

	// mailto, tel, fragment, and javascript targets are skipped.
	require.Len(t, facts.Links, 3)

	internal := facts.Links[0]
	assert.Equal(t, "https://shop.example.com/internal-page", internal.Href)
	assert.Equal(t, "Internal link", internal.AnchorText)
	assert.True(t, internal.IsInternal)

	external := facts.Links[1]
	assert.False(t, external.IsInternal)
	assert.Equal(t, []string{"nofollow", "external"}, external.RelTokens)

	labeled := facts.Links[2]
	assert.Empty(t, labeled.AnchorText)
	assert.True(t, labeled.HasAriaLabel)
	assert.True(t, labeled.IsInternal)

	// The aria-labeled link is same-host and counts alongside the first.
	assert.Equal(t, 2, facts.InternalLinkCount())
}

func TestParseImages(t *testing.T) {
	facts := parseFixture(t)

	require.Len(t, facts.Images, 5)

	assert.True(t, facts.Images[0].HasAlt)
	assert.Equal(t, "A photo", facts.Images[0].Alt)

	assert.False(t, facts.Images[1].HasAlt)

	assert.True(t, facts.Images[2].HasAlt)
	assert.Empty(t, facts.Images[2].Alt)

	assert.True(t, facts.Images[3].IsSVG)
	assert.False(t, facts.Images[0].IsSVG)
}

func TestParseStructuredData(t *testing.T) {
	facts := parseFixture(t)

	var labels []string
	var kinds []StructuredDataKind
	for _, block := range facts.StructuredData {
		labels = append(labels, block.TypeLabel)
		kinds = append(kinds, block.Kind)
	}

	assert.Contains(t, labels, "Organization")
	assert.Contains(t, labels, "WebSite")
	assert.Contains(t, labels, "Article")
	assert.Contains(t, labels, "https://schema.org/Product")
	assert.Contains(t, labels, "schema:Person")

	assert.Contains(t, kinds, KindJSONLD)
	assert.Contains(t, kinds, KindMicrodata)
	assert.Contains(t, kinds, KindRDFa)
}

func TestParseMixedContent(t *testing.T) {
	facts := parseFixture(t)

	assert.Contains(t, facts.MixedContent, "http://cdn.example.com/style.css")
	assert.Contains(t, facts.MixedContent, "http://cdn.example.com/app.js")
	assert.Contains(t, facts.MixedContent, "http://cdn.example.com/insecure.png")
	assert.Len(t, facts.MixedContent, 3)
}

func TestParseHTTPPageHasNoMixedContent(t *testing.T) {
	facts, err := ParseFacts("http://shop.example.com/page", "shop.example.com", []byte(fixtureHTML), nil)
	require.NoError(t, err)
	assert.False(t, facts.HTTPS)
	assert.Empty(t, facts.MixedContent)
}

func TestParseMalformedHTMLIsBestEffort(t *testing.T) {
	facts, err := ParseFacts("https://a.test/", "a.test", []byte("<html><head><title>Broken</title><body><h1>Still here"), nil)
	require.NoError(t, err)
	assert.True(t, facts.HasTitle)
	assert.Equal(t, 1, facts.HeadingCounts[0])
}

func TestInvalidJSONLDCountsAsOneBlock(t *testing.T) {
	body := `<html><head><script type="application/ld+json">{not json</script></head></html>`
	facts, err := ParseFacts("https://a.test/", "a.test", []byte(body), nil)
	require.NoError(t, err)
	require.Len(t, facts.StructuredData, 1)
	assert.Equal(t, KindJSONLD, facts.StructuredData[0].Kind)
	assert.Empty(t, facts.StructuredData[0].TypeLabel)
}

func TestBaseTagChangesResolution(t *testing.T) {
	body := `<html><head><base href="https://cdn.example.com/assets/"></head>
<body><a href="page">rel</a></body></html>`
	facts, err := ParseFacts("https://shop.example.com/", "shop.example.com", []byte(body), nil)
	require.NoError(t, err)
	require.Len(t, facts.Links, 1)
	assert.Equal(t, "https://cdn.example.com/assets/page", facts.Links[0].Href)
	assert.False(t, facts.Links[0].IsInternal)
}
