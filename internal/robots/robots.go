// Package robots handles robots.txt parsing and sitemap discovery.
package robots

import (
	"bufio"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RobotsTxt represents a parsed robots.txt file.
type RobotsTxt struct {
	// Rules per user-agent
	rules map[string]*AgentRules

	// Sitemap URLs declared in robots.txt
	Sitemaps []string

	// Raw content
	Raw string
}

// AgentRules contains rules for a specific user-agent.
type AgentRules struct {
	UserAgent  string
	Allow      []string
	Disallow   []string
	CrawlDelay time.Duration

	// Compiled patterns for faster matching
	allowPatterns    []*regexp.Regexp
	disallowPatterns []*regexp.Regexp
}

// NewRobotsTxt creates an empty RobotsTxt.
func NewRobotsTxt() *RobotsTxt {
	return &RobotsTxt{
		rules:    make(map[string]*AgentRules),
		Sitemaps: make([]string, 0),
	}
}

// Parse parses robots.txt content.
func Parse(content string) *RobotsTxt {
	robots := NewRobotsTxt()
	robots.Raw = content

	scanner := bufio.NewScanner(strings.NewReader(content))
	var currentAgents []string
	lastWasAgent := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Remove inline comments
		if idx := strings.Index(line, "#"); idx != -1 {
			line = strings.TrimSpace(line[:idx])
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}

		directive := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])

		switch directive {
		case "user-agent":
			agent := strings.ToLower(value)
			// Consecutive User-agent lines form a group sharing rules.
			if lastWasAgent {
				currentAgents = append(currentAgents, agent)
			} else {
				currentAgents = []string{agent}
			}
			if _, exists := robots.rules[agent]; !exists {
				robots.rules[agent] = &AgentRules{
					UserAgent: agent,
					Allow:     make([]string, 0),
					Disallow:  make([]string, 0),
				}
			}
			lastWasAgent = true
			continue

		case "disallow":
			for _, agent := range currentAgents {
				if rules, exists := robots.rules[agent]; exists {
					rules.Disallow = append(rules.Disallow, value)
					if pattern := compilePattern(value); pattern != nil {
						rules.disallowPatterns = append(rules.disallowPatterns, pattern)
					}
				}
			}

		case "allow":
			for _, agent := range currentAgents {
				if rules, exists := robots.rules[agent]; exists {
					rules.Allow = append(rules.Allow, value)
					if pattern := compilePattern(value); pattern != nil {
						rules.allowPatterns = append(rules.allowPatterns, pattern)
					}
				}
			}

		case "crawl-delay":
			delay, err := strconv.ParseFloat(value, 64)
			if err == nil {
				for _, agent := range currentAgents {
					if rules, exists := robots.rules[agent]; exists {
						rules.CrawlDelay = time.Duration(delay * float64(time.Second))
					}
				}
			}

		case "sitemap":
			robots.Sitemaps = append(robots.Sitemaps, value)
		}

		lastWasAgent = false
	}

	return robots
}

// IsAllowed checks if a URL path is allowed for a given user-agent.
func (r *RobotsTxt) IsAllowed(userAgent, urlPath string) bool {
	rules := r.getRulesForAgent(userAgent)
	if rules == nil {
		return true // No rules = allowed
	}

	if urlPath == "" {
		urlPath = "/"
	}

	allowMatch := findBestMatch(rules.Allow, rules.allowPatterns, urlPath)
	disallowMatch := findBestMatch(rules.Disallow, rules.disallowPatterns, urlPath)

	if disallowMatch == "" {
		return true
	}
	if allowMatch == "" {
		return false
	}

	// Both match - longer (more specific) wins
	return len(allowMatch) >= len(disallowMatch)
}

// GetCrawlDelay returns the crawl delay for a user-agent.
func (r *RobotsTxt) GetCrawlDelay(userAgent string) time.Duration {
	rules := r.getRulesForAgent(userAgent)
	if rules == nil {
		return 0
	}
	return rules.CrawlDelay
}

// getRulesForAgent finds rules for a specific user-agent.
func (r *RobotsTxt) getRulesForAgent(userAgent string) *AgentRules {
	userAgent = strings.ToLower(userAgent)

	if rules, exists := r.rules[userAgent]; exists {
		return rules
	}

	// Partial match: "SEO-Audit-Bot/1.0" matches a "seo-audit-bot" group.
	for agent, rules := range r.rules {
		if agent != "*" && strings.Contains(userAgent, agent) {
			return rules
		}
	}

	if rules, exists := r.rules["*"]; exists {
		return rules
	}

	return nil
}

// findBestMatch finds the longest matching pattern.
func findBestMatch(patterns []string, compiled []*regexp.Regexp, path string) string {
	var bestMatch string

	for i, pattern := range patterns {
		if pattern == "" {
			continue
		}

		var matched bool
		if i < len(compiled) && compiled[i] != nil {
			matched = compiled[i].MatchString(path)
		} else {
			matched = strings.HasPrefix(path, pattern)
		}

		if matched && len(pattern) > len(bestMatch) {
			bestMatch = pattern
		}
	}

	return bestMatch
}

// compilePattern converts a robots.txt pattern to a regex. Patterns anchor
// at the path start; * matches any sequence and a trailing $ anchors the end.
func compilePattern(pattern string) *regexp.Regexp {
	if pattern == "" {
		return nil
	}

	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, `\*`, `.*`)
	if strings.HasSuffix(escaped, `\$`) {
		escaped = escaped[:len(escaped)-2] + "$"
	}
	escaped = "^" + escaped

	re, err := regexp.Compile(escaped)
	if err != nil {
		return nil
	}
	return re
}

// ExtractPathFromURL extracts the path (with query) for robots.txt matching.
func ExtractPathFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "/"
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	return path
}
