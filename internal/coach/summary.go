// Package coach builds coaching summaries for supplements: a deterministic
// summary derived from dataset fields, a group summary over a result list
// and optional generated text from a chat-completions API.
package coach

import (
	"strings"

	"github.com/BrainPreserve/supplements/internal/card"
	"github.com/BrainPreserve/supplements/internal/config"
	"github.com/BrainPreserve/supplements/internal/dataset"
	"github.com/BrainPreserve/supplements/internal/search"
)

// Tier is the coaching confidence tier. It is coarser than search.Tier and
// reads study-design words rather than grades.
type Tier string

const (
	TierStrong      Tier = "Strong"
	TierModerate    Tier = "Moderate"
	TierPreliminary Tier = "Preliminary"
	TierSpeculative Tier = "Speculative"
	TierUnspecified Tier = "Unspecified"
)

// Rank orders tiers for display, strongest first.
func (t Tier) Rank() int {
	switch t {
	case TierStrong:
		return 1
	case TierModerate:
		return 2
	case TierPreliminary:
		return 3
	case TierSpeculative:
		return 4
	case TierUnspecified:
		return 5
	default:
		return 9
	}
}

type tierRule struct {
	needles []string
	tier    Tier
}

// tierRules are checked in order against lower-cased text.
var tierRules = []tierRule{
	{[]string{"meta", "systematic"}, TierStrong},
	{[]string{"multiple rct", "large rct"}, TierStrong},
	{[]string{"rct", "randomized"}, TierModerate},
	{[]string{"pilot", "open-label", "case", "animal", "preliminary"}, TierPreliminary},
	{[]string{"speculative", "mechanistic"}, TierSpeculative},
}

// DeriveTier classifies an evidence-level description.
func DeriveTier(levelText string) Tier {
	s := strings.ToLower(strings.TrimSpace(levelText))
	if s == "" {
		return TierUnspecified
	}
	for _, rule := range tierRules {
		for _, n := range rule.needles {
			if strings.Contains(s, n) {
				return rule.tier
			}
		}
	}
	return TierPreliminary
}

// TrialWindow is the suggested length of a time-boxed trial for a tier.
func TrialWindow(t Tier) string {
	switch t {
	case TierStrong:
		return "8–12 weeks"
	case TierModerate:
		return "6–8 weeks"
	case TierPreliminary:
		return "4–6 weeks"
	case TierSpeculative:
		return "2–4 weeks"
	default:
		return "4–6 weeks"
	}
}

const defaultMonitor = "Track relevant symptoms and simple cognitive tasks."

// monitorRules map lower-cased badge labels to what to track.
var monitorRules = []struct {
	badges []string
	text   string
}{
	{[]string{"sleep"}, "Sleep: sleep quality, latency, awakenings"},
	{[]string{"metabolic"}, "Metabolic: CGM variability, fasting glucose, waist circumference"},
	{[]string{"cardiovascular"}, "Cardiovascular: BP (home/ABPM), HRV, resting HR"},
	{[]string{"immune"}, "Immune/Inflammation: symptoms, illness days"},
	{[]string{"anti inflammatory", "anti-inflammatory"}, "Inflammation: hs-CRP (if available), joint pain, morning stiffness"},
}

// MonitorPlan lists what to track for the given badges. It is never empty.
func MonitorPlan(badges []card.Badge) []string {
	have := make(map[string]bool, len(badges))
	for _, b := range badges {
		have[strings.ToLower(b.Label)] = true
	}

	var plan []string
	for _, rule := range monitorRules {
		for _, b := range rule.badges {
			if have[b] {
				plan = append(plan, rule.text)
				break
			}
		}
	}
	if len(plan) == 0 {
		return []string{defaultMonitor}
	}
	return plan
}

// Summary is the deterministic coaching summary of one supplement.
type Summary struct {
	Name          string   `json:"name"`
	Tier          Tier     `json:"tier"`
	LevelText     string   `json:"levelText,omitempty"`
	Mechanisms    string   `json:"mechanisms,omitempty"`
	TrialProtocol string   `json:"trialProtocol"`
	Monitor       []string `json:"monitor"`
	Benefits      []string `json:"benefits,omitempty"`
	Risks         string   `json:"risks,omitempty"`
	CoachTip      string   `json:"coachTip,omitempty"`
	Brand         string   `json:"brand,omitempty"`
}

// Summarize builds the summary for a ranked result.
func Summarize(res search.Result, cols config.CoachColumns) Summary {
	r := res.Record
	field := func(col string) string { return strings.TrimSpace(r.Field(col)) }

	level := field(cols.LevelOfEvidence)
	tier := DeriveTier(level)

	protocol := "Time-boxed trial: " + TrialWindow(tier)
	if dose := field(cols.SuggestedDosage); dose != "" {
		protocol = dose + " • " + protocol
	}

	var benefits []string
	for _, b := range []string{field(cols.DirectBenefits), field(cols.IndirectBenefits)} {
		if b != "" {
			benefits = append(benefits, b)
		}
	}

	return Summary{
		Name:          res.PrettyKey,
		Tier:          tier,
		LevelText:     level,
		Mechanisms:    field(cols.Mechanisms),
		TrialProtocol: protocol,
		Monitor:       MonitorPlan(card.Badges(r, flagCols(r))),
		Benefits:      benefits,
		Risks:         field(cols.PotentialRisks),
		CoachTip:      field(cols.WhyTopChoice),
		Brand:         field(cols.RecommendedBrand),
	}
}

func flagCols(r dataset.Record) []string {
	if s := r.Schema(); s != nil {
		return s.FlagCols
	}
	return nil
}
