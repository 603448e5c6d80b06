// Package audit evaluates crawled pages against a fixed rule catalog and
// produces scored, severity-ranked findings.
package audit

// Severity is the coarse rank of an issue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// severityRank orders severities for deterministic sorting.
func severityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	}
	return 4
}

// Category groups issues into the two report sections.
type Category string

const (
	CategoryTechnical Category = "technical"
	CategoryOnPage    Category = "onpage"
)

// Issue is a single finding on a URL.
type Issue struct {
	URL      string   `json:"url"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`

	// Category and Weight drive grouping and scoring; they are not part
	// of the issue's external shape.
	Category Category `json:"-"`
	Weight   int      `json:"-"`
}

// newIssue creates an Issue with severity, category, and weight filled in
// from the catalog.
func newIssue(url, code, message string) Issue {
	info := catalog[code]
	return Issue{
		URL:      url,
		Code:     code,
		Message:  message,
		Severity: info.Severity,
		Category: info.Category,
		Weight:   info.Weight,
	}
}
