package storage

// Schema contains SQL statements to create database tables.
const Schema = `
-- Audits table: one row per audit run
CREATE TABLE IF NOT EXISTS audits (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    base_url TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    total_pages INTEGER DEFAULT 0,
    total_issues INTEGER DEFAULT 0,
    average_score REAL DEFAULT 0,
    execution_time REAL DEFAULT 0,
    report_json TEXT
);

CREATE INDEX IF NOT EXISTS idx_audits_base_url ON audits(base_url);
CREATE INDEX IF NOT EXISTS idx_audits_created_at ON audits(created_at);

-- Audit pages table: crawled pages with their scores
CREATE TABLE IF NOT EXISTS audit_pages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    audit_id INTEGER NOT NULL REFERENCES audits(id),
    url TEXT NOT NULL,
    status_code INTEGER,
    status TEXT,
    score INTEGER DEFAULT 0,
    issue_count INTEGER DEFAULT 0,
    UNIQUE(audit_id, url)
);

CREATE INDEX IF NOT EXISTS idx_audit_pages_audit ON audit_pages(audit_id);
CREATE INDEX IF NOT EXISTS idx_audit_pages_score ON audit_pages(score);

-- Audit issues table: individual findings
CREATE TABLE IF NOT EXISTS audit_issues (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    audit_id INTEGER NOT NULL REFERENCES audits(id),
    url TEXT NOT NULL,
    code TEXT NOT NULL,
    category TEXT,
    severity TEXT NOT NULL,
    message TEXT
);

CREATE INDEX IF NOT EXISTS idx_audit_issues_audit ON audit_issues(audit_id);
CREATE INDEX IF NOT EXISTS idx_audit_issues_code ON audit_issues(code);
CREATE INDEX IF NOT EXISTS idx_audit_issues_severity ON audit_issues(severity);
`

// ViewsSchema contains SQL for useful views
const ViewsSchema = `
-- View: Issue counts by code and severity within each audit
CREATE VIEW IF NOT EXISTS v_issue_summary AS
SELECT
    audit_id,
    code,
    severity,
    COUNT(*) as count
FROM audit_issues
GROUP BY audit_id, code, severity
ORDER BY
    CASE severity
        WHEN 'critical' THEN 1
        WHEN 'high' THEN 2
        WHEN 'medium' THEN 3
        WHEN 'low' THEN 4
    END,
    count DESC;

-- View: Lowest scoring pages per audit
CREATE VIEW IF NOT EXISTS v_worst_pages AS
SELECT
    p.audit_id,
    p.url,
    p.score,
    p.issue_count
FROM audit_pages p
ORDER BY p.score ASC, p.issue_count DESC;

-- View: Score history per site
CREATE VIEW IF NOT EXISTS v_score_history AS
SELECT
    base_url,
    created_at,
    average_score,
    total_pages,
    total_issues
FROM audits
ORDER BY base_url, created_at;
`
