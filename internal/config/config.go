// Package config defines audit configuration options.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// AuditConfig holds all configuration for an audit run.
type AuditConfig struct {
	// === Basic Settings ===

	// User-Agent string identifying the auditor
	UserAgent string `json:"user_agent"`

	// === Limits ===

	// Maximum number of distinct pages to process
	MaxPages int `json:"max_pages"`

	// Maximum response body size in bytes; oversize bodies are truncated
	MaxBodySize int64 `json:"max_body_size"`

	// Global audit deadline (0 = unbounded)
	Deadline time.Duration `json:"deadline"`

	// === Speed & Concurrency ===

	// Number of concurrent fetch workers
	Concurrency int `json:"concurrency"`

	// Per-host rate limit (requests per second per host)
	PerHostRPS float64 `json:"per_host_rps"`

	// Connect timeout (DNS + dial + TLS handshake)
	ConnectTimeout time.Duration `json:"connect_timeout"`

	// Overall per-request timeout
	RequestTimeout time.Duration `json:"request_timeout"`

	// Backoff before the single retry on transient network errors
	RetryBackoff time.Duration `json:"retry_backoff"`

	// === Redirects ===

	// Maximum number of redirects to follow per URL
	MaxRedirects int `json:"max_redirects"`

	// === Robots ===

	// Skip URLs disallowed by robots.txt and honor Crawl-delay
	RespectRobots bool `json:"respect_robots"`

	// === Sitemaps ===

	// Maximum sitemap index recursion depth
	SitemapMaxDepth int `json:"sitemap_max_depth"`

	// Maximum URLs collected across all sitemaps
	SitemapMaxURLs int `json:"sitemap_max_urls"`
}

// DefaultConfig returns an AuditConfig with the standard defaults.
func DefaultConfig() *AuditConfig {
	return &AuditConfig{
		UserAgent: "SEO-Audit-Bot/1.0 (Technical SEO Audit Tool)",

		MaxPages:    9999,
		MaxBodySize: 10 * 1024 * 1024, // 10MB
		Deadline:    0,                // unbounded

		Concurrency:    10,
		PerHostRPS:     2,
		ConnectTimeout: 10 * time.Second,
		RequestTimeout: 30 * time.Second,
		RetryBackoff:   500 * time.Millisecond,

		MaxRedirects: 10,

		RespectRobots: false,

		SitemapMaxDepth: 5,
		SitemapMaxURLs:  50000,
	}
}

// Validate clamps out-of-range values to safe minimums.
func (c *AuditConfig) Validate() error {
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.MaxPages < 1 {
		c.MaxPages = 1
	}
	if c.PerHostRPS <= 0 {
		c.PerHostRPS = 2
	}
	if c.ConnectTimeout < time.Second {
		c.ConnectTimeout = time.Second
	}
	if c.RequestTimeout < time.Second {
		c.RequestTimeout = time.Second
	}
	if c.MaxRedirects < 0 {
		c.MaxRedirects = 0
	}
	if c.MaxBodySize < 1 {
		c.MaxBodySize = 10 * 1024 * 1024
	}
	if c.SitemapMaxDepth < 1 {
		c.SitemapMaxDepth = 1
	}
	if c.SitemapMaxURLs < 1 {
		c.SitemapMaxURLs = 1
	}
	return nil
}

// Save saves the configuration to a JSON file.
func (c *AuditConfig) Save(filePath string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load loads configuration from a JSON file, applying defaults for
// missing fields.
func Load(filePath string) (*AuditConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// Clone creates a copy of the configuration.
func (c *AuditConfig) Clone() *AuditConfig {
	clone := *c
	return &clone
}
