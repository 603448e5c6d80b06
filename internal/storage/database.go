package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/seo-audit/auditor/internal/audit"
	"github.com/seo-audit/auditor/internal/report"
)

// Database handles all database operations.
type Database struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewDatabase creates a new database connection.
func NewDatabase(path string) (*Database, error) {
	// SQLite connection with optimizations
	dsn := fmt.Sprintf("%s?_journal=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	return &Database{db: db}, nil
}

// Initialize creates tables and views.
func (d *Database) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if _, err := d.db.Exec(ViewsSchema); err != nil {
		return fmt.Errorf("failed to create views: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// SaveAudit stores an audit result with its pages and issues in one
// transaction and returns the audit ID.
func (d *Database) SaveAudit(result *audit.Result) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	reportJSON, err := json.Marshal(report.Build(result))
	if err != nil {
		return 0, fmt.Errorf("failed to marshal report: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO audits (base_url, total_pages, total_issues, average_score, execution_time, report_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`, result.BaseURL, len(result.Pages), result.TotalIssues, result.AverageScore, result.ExecutionTime, string(reportJSON))
	if err != nil {
		return 0, err
	}

	auditID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	pageStmt, err := tx.Prepare(`
		INSERT INTO audit_pages (audit_id, url, status_code, status, score, issue_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer pageStmt.Close()

	for _, page := range result.Pages {
		if _, err := pageStmt.Exec(auditID, page.URL, page.StatusCode, page.StatusKey, page.Score, len(page.Issues)); err != nil {
			return 0, err
		}
	}

	issueStmt, err := tx.Prepare(`
		INSERT INTO audit_issues (audit_id, url, code, category, severity, message)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer issueStmt.Close()

	for _, issue := range report.AllIssues(result) {
		if _, err := issueStmt.Exec(auditID, issue.URL, issue.Code, string(issue.Category), string(issue.Severity), issue.Message); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return auditID, nil
}

// GetAudit retrieves a stored audit by ID, including the report document.
func (d *Database) GetAudit(id int64) (*AuditRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var rec AuditRecord
	err := d.db.QueryRow(`
		SELECT id, base_url, created_at, total_pages, total_issues, average_score, execution_time, report_json
		FROM audits WHERE id = ?
	`, id).Scan(
		&rec.ID, &rec.BaseURL, &rec.CreatedAt, &rec.TotalPages, &rec.TotalIssues,
		&rec.AverageScore, &rec.ExecutionTime, &rec.ReportJSON,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListAudits retrieves the most recent audits, newest first, without the
// report documents.
func (d *Database) ListAudits(limit int) ([]*AuditRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.Query(`
		SELECT id, base_url, created_at, total_pages, total_issues, average_score, execution_time
		FROM audits
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var audits []*AuditRecord
	for rows.Next() {
		var rec AuditRecord
		if err := rows.Scan(
			&rec.ID, &rec.BaseURL, &rec.CreatedAt, &rec.TotalPages, &rec.TotalIssues,
			&rec.AverageScore, &rec.ExecutionTime,
		); err != nil {
			return nil, err
		}
		audits = append(audits, &rec)
	}
	return audits, rows.Err()
}

// GetPages retrieves the pages of a stored audit sorted by URL.
func (d *Database) GetPages(auditID int64) ([]*PageRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.Query(`
		SELECT id, audit_id, url, status_code, status, score, issue_count
		FROM audit_pages
		WHERE audit_id = ?
		ORDER BY url
	`, auditID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []*PageRecord
	for rows.Next() {
		var page PageRecord
		if err := rows.Scan(&page.ID, &page.AuditID, &page.URL, &page.StatusCode, &page.Status, &page.Score, &page.IssueCount); err != nil {
			return nil, err
		}
		pages = append(pages, &page)
	}
	return pages, rows.Err()
}

// GetIssues retrieves the issues of a stored audit.
func (d *Database) GetIssues(auditID int64) ([]*IssueRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.Query(`
		SELECT id, audit_id, url, code, category, severity, message
		FROM audit_issues
		WHERE audit_id = ?
		ORDER BY id
	`, auditID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var issues []*IssueRecord
	for rows.Next() {
		var issue IssueRecord
		if err := rows.Scan(&issue.ID, &issue.AuditID, &issue.URL, &issue.Code, &issue.Category, &issue.Severity, &issue.Message); err != nil {
			return nil, err
		}
		issues = append(issues, &issue)
	}
	return issues, rows.Err()
}

// Stats holds database statistics.
type Stats struct {
	TotalAudits int
	TotalPages  int
	TotalIssues int
	Severities  map[string]int
}

// GetStats retrieves database statistics.
func (d *Database) GetStats() (*Stats, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stats := &Stats{
		Severities: make(map[string]int),
	}

	d.db.QueryRow(`SELECT COUNT(*) FROM audits`).Scan(&stats.TotalAudits)
	d.db.QueryRow(`SELECT COUNT(*) FROM audit_pages`).Scan(&stats.TotalPages)
	d.db.QueryRow(`SELECT COUNT(*) FROM audit_issues`).Scan(&stats.TotalIssues)

	rows, err := d.db.Query(`SELECT severity, COUNT(*) FROM audit_issues GROUP BY severity`)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var severity string
			var count int
			rows.Scan(&severity, &count)
			stats.Severities[severity] = count
		}
	}

	return stats, nil
}
