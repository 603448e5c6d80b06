// Package parser extracts SEO-relevant facts from HTML documents.
package parser

// PageFacts contains everything the rule engine needs from one page.
type PageFacts struct {
	// Title tag; HasTitle distinguishes a missing tag from an empty one
	HasTitle bool
	Title    string

	// Meta description
	HasMetaDescription bool
	MetaDescription    string

	// Canonical URL, resolved to absolute; empty when absent
	Canonical string

	// Lowercased directive tokens from <meta name="robots"> and the
	// X-Robots-Tag response header
	MetaRobots []string
	XRobots    []string

	// Heading counts indexed by level-1 (HeadingCounts[0] = H1 count)
	HeadingCounts [6]int

	// Trimmed H1 texts in document order
	H1Texts []string

	// Images found on the page
	Images []Image

	// Links found on the page
	Links []Link

	// Structured data blocks
	StructuredData []StructuredBlock

	// Meta viewport tag present
	ViewportPresent bool

	// lang attribute of <html>
	LangAttr string

	// Declared charset (meta charset or http-equiv content-type)
	Charset string

	// Raw http:// subresource URLs referenced from an HTTPS page
	MixedContent []string

	// Whether the final page URL uses HTTPS
	HTTPS bool
}

// Image represents an <img> element.
type Image struct {
	Src    string
	Alt    string
	HasAlt bool
	Width  string
	Height string
	IsSVG  bool
}

// Link represents an <a href> element.
type Link struct {
	// Absolute target URL
	Href string

	// Trimmed anchor text
	AnchorText string

	// Lowercased rel tokens
	RelTokens []string

	// Target host equals the audited site's host
	IsInternal bool

	// aria-label attribute present and non-empty
	HasAriaLabel bool
}

// StructuredDataKind identifies a structured data syntax.
type StructuredDataKind string

const (
	KindJSONLD    StructuredDataKind = "jsonld"
	KindMicrodata StructuredDataKind = "microdata"
	KindRDFa      StructuredDataKind = "rdfa"
)

// StructuredBlock is one detected structured data block.
type StructuredBlock struct {
	Kind      StructuredDataKind
	TypeLabel string
}

// HasRobotsToken reports whether token appears in meta robots or X-Robots-Tag.
func (f *PageFacts) HasRobotsToken(token string) bool {
	for _, t := range f.MetaRobots {
		if t == token {
			return true
		}
	}
	for _, t := range f.XRobots {
		if t == token {
			return true
		}
	}
	return false
}

// InternalLinkCount returns the number of internal links on the page.
func (f *PageFacts) InternalLinkCount() int {
	n := 0
	for _, l := range f.Links {
		if l.IsInternal {
			n++
		}
	}
	return n
}
