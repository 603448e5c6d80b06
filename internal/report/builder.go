// Package report shapes audit results into the external two-part JSON
// document and exports them to CSV, XLSX, and JSON files.
package report

import (
	"github.com/seo-audit/auditor/internal/audit"
)

// SiteOverview carries the headline numbers of an audit run.
type SiteOverview struct {
	BaseURL             string  `json:"base_url"`
	TotalCrawledPages   int     `json:"total_crawled_pages"`
	AverageSEOScore     float64 `json:"average_seo_score"`
	TotalIssues         int     `json:"total_issues"`
	CriticalIssuesCount int     `json:"critical_issues_count"`
	HighIssuesCount     int     `json:"high_issues_count"`
	MediumIssuesCount   int     `json:"medium_issues_count"`
	LowIssuesCount      int     `json:"low_issues_count"`
}

// Crawlability describes the robots.txt and sitemap situation of the site.
type Crawlability struct {
	RobotsTxtExists  bool     `json:"robots_txt_exists"`
	RobotsTxtContent string   `json:"robots_txt_content,omitempty"`
	SitemapExists    bool     `json:"sitemap_exists"`
	SitemapsFound    []string `json:"sitemaps_found"`
}

// Stats is the numeric half of the report.
type Stats struct {
	SiteOverview           SiteOverview   `json:"site_overview"`
	Crawlability           Crawlability   `json:"crawlability"`
	StatusCodeDistribution map[string]int `json:"status_code_distribution"`
	TechnicalSEO           map[string]int `json:"technical_seo"`
	OnPageSEO              map[string]int `json:"onpage_seo"`
}

// IssuesSummary buckets every issue by severity.
type IssuesSummary struct {
	Critical []audit.Issue `json:"critical"`
	High     []audit.Issue `json:"high"`
	Medium   []audit.Issue `json:"medium"`
	Low      []audit.Issue `json:"low"`
}

// Issues is the categorized half of the report.
type Issues struct {
	SiteOverview  SiteOverview             `json:"site_overview"`
	Crawlability  Crawlability             `json:"crawlability"`
	IssuesSummary IssuesSummary            `json:"issues_summary"`
	TechnicalSEO  map[string][]audit.Issue `json:"technical_seo"`
	OnPageSEO     map[string][]audit.Issue `json:"onpage_seo"`
}

// Report is the full external document.
type Report struct {
	AuditStats    Stats   `json:"audit_stats"`
	AuditIssues   Issues  `json:"audit_issues"`
	ExecutionTime float64 `json:"execution_time"`
}

// Build shapes an audit result into the external report document. Issues
// are grouped by severity and by rule code within their category; the
// input ordering (pages sorted by URL, issues sorted within each page)
// carries through, so identical results build identical reports.
func Build(result *audit.Result) *Report {
	overview := SiteOverview{
		BaseURL:             result.BaseURL,
		TotalCrawledPages:   len(result.Pages),
		AverageSEOScore:     result.AverageScore,
		TotalIssues:         result.TotalIssues,
		CriticalIssuesCount: result.SeverityCounts[audit.SeverityCritical],
		HighIssuesCount:     result.SeverityCounts[audit.SeverityHigh],
		MediumIssuesCount:   result.SeverityCounts[audit.SeverityMedium],
		LowIssuesCount:      result.SeverityCounts[audit.SeverityLow],
	}

	crawlability := Crawlability{
		SitemapsFound: []string{},
	}
	if result.Resolution != nil {
		crawlability.RobotsTxtExists = result.Resolution.RobotsExists
		if result.Resolution.RobotsExists && result.Resolution.Robots != nil {
			crawlability.RobotsTxtContent = result.Resolution.Robots.Raw
		}
		if len(result.Resolution.SitemapsFound) > 0 {
			crawlability.SitemapExists = true
			crawlability.SitemapsFound = append(crawlability.SitemapsFound, result.Resolution.SitemapsFound...)
		}
	}

	report := &Report{
		AuditStats: Stats{
			SiteOverview:           overview,
			Crawlability:           crawlability,
			StatusCodeDistribution: make(map[string]int),
			TechnicalSEO:           make(map[string]int),
			OnPageSEO:              make(map[string]int),
		},
		AuditIssues: Issues{
			SiteOverview: overview,
			Crawlability: crawlability,
			IssuesSummary: IssuesSummary{
				Critical: []audit.Issue{},
				High:     []audit.Issue{},
				Medium:   []audit.Issue{},
				Low:      []audit.Issue{},
			},
			TechnicalSEO: make(map[string][]audit.Issue),
			OnPageSEO:    make(map[string][]audit.Issue),
		},
		ExecutionTime: result.ExecutionTime,
	}

	for key, count := range result.StatusDistribution {
		report.AuditStats.StatusCodeDistribution[key] = count
	}

	for _, issue := range AllIssues(result) {
		report.addIssue(issue)
	}

	return report
}

// AllIssues flattens a result's issues into one slice: page issues in URL
// order followed by site-level issues.
func AllIssues(result *audit.Result) []audit.Issue {
	var issues []audit.Issue
	for _, page := range result.Pages {
		issues = append(issues, page.Issues...)
	}
	issues = append(issues, result.SiteIssues...)
	return issues
}

func (r *Report) addIssue(issue audit.Issue) {
	switch issue.Severity {
	case audit.SeverityCritical:
		r.AuditIssues.IssuesSummary.Critical = append(r.AuditIssues.IssuesSummary.Critical, issue)
	case audit.SeverityHigh:
		r.AuditIssues.IssuesSummary.High = append(r.AuditIssues.IssuesSummary.High, issue)
	case audit.SeverityMedium:
		r.AuditIssues.IssuesSummary.Medium = append(r.AuditIssues.IssuesSummary.Medium, issue)
	case audit.SeverityLow:
		r.AuditIssues.IssuesSummary.Low = append(r.AuditIssues.IssuesSummary.Low, issue)
	}

	switch issue.Category {
	case audit.CategoryTechnical:
		r.AuditStats.TechnicalSEO[issue.Code]++
		r.AuditIssues.TechnicalSEO[issue.Code] = append(r.AuditIssues.TechnicalSEO[issue.Code], issue)
	case audit.CategoryOnPage:
		r.AuditStats.OnPageSEO[issue.Code]++
		r.AuditIssues.OnPageSEO[issue.Code] = append(r.AuditIssues.OnPageSEO[issue.Code], issue)
	}
}
