package search

import (
	"regexp"
	"strings"
)

// Tier is a discrete evidence classification.
type Tier string

const (
	TierStrong      Tier = "strong"
	TierModerate    Tier = "moderate"
	TierPreliminary Tier = "preliminary"
)

// Evidence is the classification of a free-text evidence field.
type Evidence struct {
	Tier  Tier   `json:"tier"`
	Score int    `json:"score"`
	Label string `json:"label"`
}

var (
	strongEvidence      = Evidence{Tier: TierStrong, Score: 3, Label: "Strong"}
	moderateEvidence    = Evidence{Tier: TierModerate, Score: 2, Label: "Moderate"}
	preliminaryEvidence = Evidence{Tier: TierPreliminary, Score: 1, Label: "Preliminary"}
	// Unrated sorts below every classified record but displays the same.
	unratedEvidence = Evidence{Tier: TierPreliminary, Score: 0, Label: "Preliminary"}
)

type evidenceRule struct {
	name   string
	match  func(text string) bool
	result Evidence
}

// evidenceRules are evaluated in order against lower-cased text; the first
// match wins.
var evidenceRules = []evidenceRule{
	{"systematic", matchesPattern(`meta[-\s]?analy|systematic`), strongEvidence},
	{"strong", containsAny("strong", "high", "grade a"), strongEvidence},
	{"moderate", containsAny("moderate", "grade b"), moderateEvidence},
	{"limited", containsAny("limited", "mixed", "low", "grade c"), preliminaryEvidence},
	{"empty", func(text string) bool { return text == "" }, unratedEvidence},
	{"fallback", func(string) bool { return true }, preliminaryEvidence},
}

func matchesPattern(expr string) func(string) bool {
	re := regexp.MustCompile(expr)
	return re.MatchString
}

func containsAny(needles ...string) func(string) bool {
	return func(text string) bool {
		for _, n := range needles {
			if strings.Contains(text, n) {
				return true
			}
		}
		return false
	}
}

// ClassifyEvidence maps an evidence-level description to a tier and score.
func ClassifyEvidence(text string) Evidence {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, rule := range evidenceRules {
		if rule.match(t) {
			return rule.result
		}
	}
	return preliminaryEvidence
}
