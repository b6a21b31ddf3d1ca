package coach

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/BrainPreserve/supplements/internal/config"
	"github.com/BrainPreserve/supplements/internal/search"
)

// Fields are the dataset values the model may draw on.
type Fields struct {
	SupplementKey             string `json:"supplement_key,omitempty"`
	SupplementName            string `json:"supplement_name,omitempty"`
	LevelOfEvidence           string `json:"level_of_evidence"`
	Mechanisms                string `json:"mechanisms"`
	DirectCognitiveBenefits   string `json:"direct_cognitive_benefits"`
	IndirectCognitiveBenefits string `json:"indirect_cognitive_benefits"`
	SuggestedDosage           string `json:"suggested_dosage"`
	PotentialRisks            string `json:"potential_risks"`
	WhyTopChoice              string `json:"why_top_choice"`
}

// Request asks for coaching text about one supplement.
type Request struct {
	SupplementName string   `json:"supplement_name"`
	Fields         *Fields  `json:"fields"`
	SelectedGoals  []string `json:"selected_goals"`
	// Refresh drops any cached text for this request and regenerates it.
	Refresh bool `json:"refresh,omitempty"`
}

// Response is always well formed; failures carry a Reason and empty Text.
type Response struct {
	OK     bool   `json:"ok"`
	Reason Reason `json:"reason,omitempty"`
	Text   string `json:"text"`
}

// DefaultAugment holds the clinician-approved facts the model may add beyond
// the dataset, keyed by normalized supplement key.
var DefaultAugment = map[string][]string{
	"creatine": {
		"Creatine consistently supports maintenance and accrual of lean muscle mass when combined with progressive resistance training.",
		"Preserving muscle mass reduces frailty risk and supports glucose handling and physical activity, which indirectly benefits brain health.",
	},
	"protein": {
		"Adequate daily protein (distributed across meals) preserves and builds muscle, supporting strength, function, and metabolic health.",
		"Protein intake complements resistance training and may indirectly protect cognition by reducing sarcopenia and metabolic stress.",
	},
	"whey_protein": {
		"Whey is rapidly absorbed and leucine-rich, useful post-exercise to stimulate muscle protein synthesis.",
		"Consider lactose tolerance and overall daily protein targets.",
	},
	"omega_3": {
		"EPA/DHA support cardiometabolic health and recovery perception; they are not a substitute for sufficient protein or training.",
		"Improved cardiometabolic health indirectly benefits brain function.",
	},
	"magnesium": {
		"Magnesium participates in neuromuscular excitability and may aid sleep quality, especially if intake is suboptimal.",
		"Correcting deficiency can improve energy metabolism and reduce cramps or sleep fragmentation.",
	},
}

var goalLabels = map[string]string{
	"sleep":             "Sleep",
	"metabolic":         "Metabolic",
	"cardiovascular":    "Cardiovascular",
	"immune":            "Immune",
	"anti_inflammatory": "Inflammation",
}

var systemPrompt = strings.Join([]string{
	"You are a conservative clinical summarizer for brain-health supplements.",
	"Use ONLY the provided CSV fields and clinician-approved AUGMENT bullets.",
	"Do not invent new claims, dosages, risks, or mechanisms beyond those sources.",
	"Paraphrase; avoid repeating CSV sentences verbatim.",
	"Write ~120–160 words total as exactly 3 short paragraphs separated by a blank line.",
	"Para 1: Evidence confidence (based on level_of_evidence) + one sentence tailored to selected goals if provided.",
	"Para 2: Mechanistic rationale and expected pathway; mention dose only if provided.",
	"Para 3: Monitoring focus tied to goals + one practical coaching tip from why_top_choice or AUGMENT.",
	"If AUGMENT exists for this supplement, you MUST include at least one augmentation fact that is not simply restating the CSV.",
}, "\n")

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonKeyChar    = regexp.MustCompile(`[^a-z0-9_]`)
	blankLines    = regexp.MustCompile(`\n\s*\n`)
)

// NormalizeKey lower-cases s, turns whitespace runs into '_' and drops
// anything outside [a-z0-9_].
func NormalizeKey(s string) string {
	s = whitespaceRun.ReplaceAllString(strings.ToLower(s), "_")
	return nonKeyChar.ReplaceAllString(s, "")
}

// MapGoals turns goal keys into prompt labels, dropping unknown goals.
func MapGoals(goals []string) []string {
	out := make([]string, 0, len(goals))
	for _, g := range goals {
		if label, ok := goalLabels[strings.ToLower(strings.TrimSpace(g))]; ok {
			out = append(out, label)
		}
	}
	return out
}

// userMessage is the JSON document sent as the user turn.
type userMessage struct {
	SupplementName string   `json:"supplement_name"`
	Goals          []string `json:"goals"`
	Fields         Fields   `json:"fields"`
	Augment        []string `json:"AUGMENT"`
}

func buildUserMessage(name string, goals []string, f Fields, augment []string) (string, error) {
	// The key and name travel outside the fields block.
	f.SupplementKey = ""
	f.SupplementName = ""
	if augment == nil {
		augment = []string{}
	}

	b, err := json.Marshal(userMessage{
		SupplementName: name,
		Goals:          goals,
		Fields:         f,
		Augment:        augment,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Paragraphs splits generated text on blank lines, dropping empty blocks.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range blankLines.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// PayloadFromRecord builds a coaching request for a ranked result. Goals are
// the selected flag columns without their "_flag" suffix, kept only when
// listed in goalKeys.
func PayloadFromRecord(res search.Result, cols config.CoachColumns, selectedFlags, goalKeys []string) Request {
	r := res.Record
	field := func(col string) string { return strings.TrimSpace(r.Field(col)) }

	name := res.PrettyKey
	if name == "" {
		name = "Unknown supplement"
	}
	key := r.Key()
	if key == "" {
		key = whitespaceRun.ReplaceAllString(strings.ToLower(name), "_")
	}

	return Request{
		SupplementName: name,
		Fields: &Fields{
			SupplementKey:             key,
			SupplementName:            name,
			LevelOfEvidence:           field(cols.LevelOfEvidence),
			Mechanisms:                field(cols.Mechanisms),
			DirectCognitiveBenefits:   field(cols.DirectBenefits),
			IndirectCognitiveBenefits: field(cols.IndirectBenefits),
			SuggestedDosage:           field(cols.SuggestedDosage),
			PotentialRisks:            field(cols.PotentialRisks),
			WhyTopChoice:              field(cols.WhyTopChoice),
		},
		SelectedGoals: selectedGoals(selectedFlags, goalKeys),
	}
}

func selectedGoals(flags, goalKeys []string) []string {
	allowed := make(map[string]bool, len(goalKeys))
	for _, g := range goalKeys {
		allowed[g] = true
	}
	goals := make([]string, 0, len(flags))
	for _, f := range flags {
		g := strings.Replace(strings.ToLower(f), "_flag", "", 1)
		if allowed[g] {
			goals = append(goals, g)
		}
	}
	return goals
}

