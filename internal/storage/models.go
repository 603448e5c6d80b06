// Package storage persists audit runs and their findings in SQLite.
package storage

import "time"

// AuditRecord is a stored audit run.
type AuditRecord struct {
	ID            int64     `json:"id"`
	BaseURL       string    `json:"base_url"`
	CreatedAt     time.Time `json:"created_at"`
	TotalPages    int       `json:"total_pages"`
	TotalIssues   int       `json:"total_issues"`
	AverageScore  float64   `json:"average_score"`
	ExecutionTime float64   `json:"execution_time"`

	// Full report document (stored as JSON)
	ReportJSON string `json:"report_json,omitempty"`
}

// PageRecord is one crawled page of a stored audit.
type PageRecord struct {
	ID         int64  `json:"id"`
	AuditID    int64  `json:"audit_id"`
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
	Status     string `json:"status"`
	Score      int    `json:"score"`
	IssueCount int    `json:"issue_count"`
}

// IssueRecord is one finding of a stored audit.
type IssueRecord struct {
	ID       int64  `json:"id"`
	AuditID  int64  `json:"audit_id"`
	URL      string `json:"url"`
	Code     string `json:"code"`
	Category string `json:"category"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}
