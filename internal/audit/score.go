package audit

import (
	"math"
	"sort"

	"github.com/seo-audit/auditor/internal/crawler"
)

// Scoring constants: every page starts at the base and can never fall
// below the floor.
const (
	baseScore  = 100
	floorScore = 20
)

// EvaluatePage runs the full rule catalog against one crawl record and
// returns its issues in deterministic order: severity rank, then code,
// then message.
func EvaluatePage(rec *crawler.CrawlRecord, ctx *SiteContext) []Issue {
	var issues []Issue

	for _, rule := range technicalRules {
		issues = append(issues, rule(rec, ctx)...)
	}
	for _, rule := range onPageRules {
		issues = append(issues, rule(rec, ctx)...)
	}
	for _, rule := range reportedRules {
		issues = append(issues, rule(rec, ctx)...)
	}

	SortIssues(issues)
	return issues
}

// SortIssues orders issues by severity, then code, then message.
func SortIssues(issues []Issue) {
	sort.Slice(issues, func(i, j int) bool {
		ri, rj := severityRank(issues[i].Severity), severityRank(issues[j].Severity)
		if ri != rj {
			return ri < rj
		}
		if issues[i].Code != issues[j].Code {
			return issues[i].Code < issues[j].Code
		}
		return issues[i].Message < issues[j].Message
	})
}

// PageScore computes the final score for a page from its issues:
// max(floor, base + sum of penalty weights). Reported-only issues carry
// weight 0 and do not move the score.
func PageScore(issues []Issue) int {
	score := baseScore
	for _, issue := range issues {
		score += issue.Weight
	}
	if score < floorScore {
		return floorScore
	}
	return score
}

// AverageScore is the arithmetic mean of page scores rounded to two
// decimals. No scaling factor is applied.
func AverageScore(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	mean := float64(sum) / float64(len(scores))
	return math.Round(mean*100) / 100
}
