package parser

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Parser parses HTML content into PageFacts.
type Parser struct {
	baseURL  *url.URL
	baseHost string
}

// NewParser creates a parser for pages of one site. pageURL is the final
// URL of the page being parsed; baseHost is the audited site's host.
func NewParser(pageURL, baseHost string) (*Parser, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u, baseHost: strings.ToLower(baseHost)}, nil
}

// Parse extracts PageFacts from an HTML body and the response headers.
// Parsing is lenient: malformed HTML yields best-effort facts.
func (p *Parser) Parse(htmlContent []byte, headers http.Header) (*PageFacts, error) {
	doc, err := html.Parse(bytes.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	facts := &PageFacts{
		H1Texts:        make([]string, 0),
		Images:         make([]Image, 0),
		Links:          make([]Link, 0),
		StructuredData: make([]StructuredBlock, 0),
		HTTPS:          p.baseURL.Scheme == "https",
	}

	if headers != nil {
		facts.XRobots = splitDirectiveTokens(headers.Get("X-Robots-Tag"))
	}

	p.traverse(doc, facts)
	return facts, nil
}

// traverse recursively walks the HTML tree.
func (p *Parser) traverse(n *html.Node, facts *PageFacts) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "html":
			facts.LangAttr = getAttr(n, "lang")

		case "base":
			if href := getAttr(n, "href"); href != "" {
				if u, err := url.Parse(href); err == nil {
					p.baseURL = p.baseURL.ResolveReference(u)
				}
			}

		case "title":
			if !facts.HasTitle {
				facts.HasTitle = true
				facts.Title = strings.TrimSpace(getTextContent(n))
			}

		case "meta":
			p.parseMeta(n, facts)

		case "link":
			p.parseLinkTag(n, facts)

		case "a":
			if link, ok := p.parseAnchor(n); ok {
				facts.Links = append(facts.Links, link)
			}

		case "img":
			facts.Images = append(facts.Images, p.parseImage(n, facts))

		case "script":
			p.parseScript(n, facts)

		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(n.Data[1] - '0')
			facts.HeadingCounts[level-1]++
			if level == 1 {
				facts.H1Texts = append(facts.H1Texts, strings.TrimSpace(getTextContent(n)))
			}
		}

		// Microdata and RDFa blocks can sit on any element.
		if hasAttr(n, "itemscope") {
			facts.StructuredData = append(facts.StructuredData, StructuredBlock{
				Kind:      KindMicrodata,
				TypeLabel: getAttr(n, "itemtype"),
			})
		}
		if typeOf := getAttr(n, "typeof"); typeOf != "" {
			facts.StructuredData = append(facts.StructuredData, StructuredBlock{
				Kind:      KindRDFa,
				TypeLabel: typeOf,
			})
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.traverse(c, facts)
	}
}

// parseMeta handles <meta> tags.
func (p *Parser) parseMeta(n *html.Node, facts *PageFacts) {
	name := strings.ToLower(getAttr(n, "name"))
	content := getAttr(n, "content")
	httpEquiv := strings.ToLower(getAttr(n, "http-equiv"))

	switch {
	case name == "description":
		if !facts.HasMetaDescription {
			facts.HasMetaDescription = true
			facts.MetaDescription = content
		}
	case name == "robots" || name == "googlebot":
		if len(facts.MetaRobots) == 0 {
			facts.MetaRobots = splitDirectiveTokens(content)
		}
	case name == "viewport":
		facts.ViewportPresent = true
	case httpEquiv == "content-type":
		if idx := strings.Index(strings.ToLower(content), "charset="); idx != -1 {
			facts.Charset = strings.TrimSpace(content[idx+len("charset="):])
		}
	}

	if cs := getAttr(n, "charset"); cs != "" {
		facts.Charset = cs
	}
}

// parseLinkTag handles <link> tags: canonical and stylesheet references.
func (p *Parser) parseLinkTag(n *html.Node, facts *PageFacts) {
	rel := strings.ToLower(getAttr(n, "rel"))
	href := getAttr(n, "href")

	if rel == "canonical" && facts.Canonical == "" && href != "" {
		facts.Canonical = p.resolveURL(href)
	}

	if strings.Contains(rel, "stylesheet") && facts.HTTPS && strings.HasPrefix(href, "http://") {
		facts.MixedContent = append(facts.MixedContent, href)
	}
}

// parseAnchor handles <a href> tags, skipping non-navigational targets.
func (p *Parser) parseAnchor(n *html.Node) (Link, bool) {
	href := getAttr(n, "href")
	if href == "" || strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "#") {
		return Link{}, false
	}

	absolute := p.resolveURL(href)
	targetHost, err := url.Parse(absolute)
	if err != nil {
		return Link{}, false
	}

	var relTokens []string
	for _, t := range strings.Fields(strings.ToLower(getAttr(n, "rel"))) {
		relTokens = append(relTokens, t)
	}

	return Link{
		Href:         absolute,
		AnchorText:   strings.TrimSpace(getTextContent(n)),
		RelTokens:    relTokens,
		IsInternal:   strings.ToLower(targetHost.Host) == p.baseHost,
		HasAriaLabel: strings.TrimSpace(getAttr(n, "aria-label")) != "",
	}, true
}

// parseImage handles <img> tags and mixed-content detection for them.
func (p *Parser) parseImage(n *html.Node, facts *PageFacts) Image {
	src := getAttr(n, "src")

	if facts.HTTPS && strings.HasPrefix(src, "http://") {
		facts.MixedContent = append(facts.MixedContent, src)
	}

	return Image{
		Src:    p.resolveURL(src),
		Alt:    getAttr(n, "alt"),
		HasAlt: hasAttr(n, "alt"),
		Width:  getAttr(n, "width"),
		Height: getAttr(n, "height"),
		IsSVG:  isSVGSource(src),
	}
}

// parseScript handles <script> tags: JSON-LD blocks and mixed content.
func (p *Parser) parseScript(n *html.Node, facts *PageFacts) {
	if src := getAttr(n, "src"); src != "" {
		if facts.HTTPS && strings.HasPrefix(src, "http://") {
			facts.MixedContent = append(facts.MixedContent, src)
		}
		return
	}

	if strings.ToLower(getAttr(n, "type")) != "application/ld+json" {
		return
	}

	raw := getTextContent(n)
	for _, label := range jsonLDTypeLabels(raw) {
		facts.StructuredData = append(facts.StructuredData, StructuredBlock{
			Kind:      KindJSONLD,
			TypeLabel: label,
		})
	}
}

// jsonLDTypeLabels extracts @type labels from a JSON-LD payload. An invalid
// payload still counts as one unlabeled block.
func jsonLDTypeLabels(raw string) []string {
	var payload interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return []string{""}
	}

	var labels []string
	var collect func(v interface{})
	collect = func(v interface{}) {
		switch val := v.(type) {
		case map[string]interface{}:
			if graph, ok := val["@graph"].([]interface{}); ok {
				for _, item := range graph {
					collect(item)
				}
				return
			}
			labels = append(labels, typeLabelOf(val["@type"]))
		case []interface{}:
			for _, item := range val {
				collect(item)
			}
		}
	}
	collect(payload)

	if len(labels) == 0 {
		labels = []string{""}
	}
	return labels
}

func typeLabelOf(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []interface{}:
		if len(t) > 0 {
			if s, ok := t[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// splitDirectiveTokens splits a robots directive string into lowercased tokens.
func splitDirectiveTokens(content string) []string {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	var tokens []string
	for _, t := range strings.Split(strings.ToLower(content), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// isSVGSource reports whether an image src points at an SVG file.
func isSVGSource(src string) bool {
	if src == "" {
		return false
	}
	path := src
	if idx := strings.IndexAny(path, "?#"); idx != -1 {
		path = path[:idx]
	}
	return strings.HasSuffix(strings.ToLower(path), ".svg")
}

// resolveURL resolves a relative URL against the page's base URL.
func (p *Parser) resolveURL(href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return p.baseURL.ResolveReference(ref).String()
}

// Helper functions

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}

func getTextContent(n *html.Node) string {
	var buf bytes.Buffer
	collectText(n, &buf)
	return buf.String()
}

func collectText(n *html.Node, buf *bytes.Buffer) {
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, buf)
	}
}

// ParseFacts is a convenience wrapper for single-shot parsing.
func ParseFacts(pageURL, baseHost string, body []byte, headers http.Header) (*PageFacts, error) {
	p, err := NewParser(pageURL, baseHost)
	if err != nil {
		return nil, err
	}
	return p.Parse(body, headers)
}
