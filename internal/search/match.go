package search

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/BrainPreserve/supplements/internal/dataset"
)

// fieldSeparator joins searchable fields so word-bounded patterns never
// straddle two fields.
const fieldSeparator = " | "

type vitaminLetterRule struct {
	letter   string
	patterns []*regexp.Regexp
}

// vitaminLetterRules decide what a single-letter vitamin query may match.
// Any pattern of the letter's rule is sufficient.
var vitaminLetterRules = []vitaminLetterRule{
	{"b", []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bvitamin\s*b(\b|[-\s]?\d{1,2}\b)`),
		regexp.MustCompile(`(?i)\bb[-\s]?\d{1,2}\b`),
	}},
	{"c", []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bvitamin\s*c\b`),
	}},
	{"d", []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bvitamin\s*d(\b|[-\s]?\d\b)`),
		regexp.MustCompile(`(?i)\bd[-\s]?\d\b`),
	}},
	{"e", []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bvitamin\s*e\b`),
	}},
	{"k", []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bvitamin\s*k(\b|[-\s]?\d\b)`),
		regexp.MustCompile(`(?i)\bk[-\s]?\d\b`),
	}},
}

var vitaminCodeQuery = regexp.MustCompile(`(?i)^(?:vitamin\s*)?([bdk])[-\s]?(\d{1,2})$`)

func vitaminLetterRuleFor(letter string) (vitaminLetterRule, bool) {
	letter = strings.ToLower(letter)
	for _, rule := range vitaminLetterRules {
		if rule.letter == letter {
			return rule, true
		}
	}
	return vitaminLetterRule{}, false
}

// IsVitaminLetter reports whether q is one of the single vitamin letters
// b, c, d, e or k.
func IsVitaminLetter(q string) bool {
	_, ok := vitaminLetterRuleFor(q)
	return ok
}

// VitaminLetterMatch reports whether text mentions a vitamin for letter.
func VitaminLetterMatch(text, letter string) bool {
	rule, ok := vitaminLetterRuleFor(letter)
	if !ok {
		return false
	}
	text = strings.ToLower(text)
	for _, p := range rule.patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// VitaminCodePattern parses queries like "B12", "d3", "k 2" or "vitamin b-6"
// into a word-bounded pattern. It returns nil when q is not a vitamin code.
func VitaminCodePattern(q string) *regexp.Regexp {
	m := vitaminCodeQuery.FindStringSubmatch(strings.TrimSpace(q))
	if m == nil {
		return nil
	}
	letter := strings.ToLower(m[1])
	return regexp.MustCompile(`(?i)\b(?:vitamin\s*)?` + letter + `[-\s]?` + m[2] + `\b`)
}

// StartsWithSafe is a prefix test that refuses to split a number: when q
// ends in a digit, the candidate character right after the prefix must not
// be a digit, so "b1" does not match "b12".
func StartsWithSafe(candidate, q string) bool {
	if candidate == "" || q == "" {
		return false
	}
	if !strings.HasPrefix(candidate, q) {
		return false
	}
	if isDigit(q[len(q)-1]) && len(candidate) > len(q) && isDigit(candidate[len(q)]) {
		return false
	}
	return true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// searchFields are the lower-cased texts a record is matched on.
type searchFields struct {
	key     string
	name    string
	pretty  string
	aliases []string
}

func fieldsOf(r dataset.Record) searchFields {
	key := r.Key()
	aliases := r.Aliases()
	for i, a := range aliases {
		aliases[i] = strings.ToLower(a)
	}
	return searchFields{
		key:     strings.ToLower(key),
		name:    strings.ToLower(r.Name()),
		pretty:  strings.ToLower(PrettifyKey(key)),
		aliases: aliases,
	}
}

func (f searchFields) combined() string {
	parts := make([]string, 0, 3+len(f.aliases))
	parts = append(parts, f.key, f.name, f.pretty)
	parts = append(parts, f.aliases...)
	return strings.Join(parts, fieldSeparator)
}

func (f searchFields) anyStartsWith(q string) bool {
	if StartsWithSafe(f.name, q) || StartsWithSafe(f.key, q) || StartsWithSafe(f.pretty, q) {
		return true
	}
	for _, a := range f.aliases {
		if StartsWithSafe(a, q) {
			return true
		}
	}
	return false
}

// Matcher decides whether a record matches the text part of one query.
// Build one per query and reuse it across records.
type Matcher struct {
	text          string
	flagsSelected bool
	vitaminLetter bool
	singleLetter  bool
	code          *regexp.Regexp
	mechanism     bool
}

// NewMatcher prepares q for matching.
func NewMatcher(q Query, opts Options) *Matcher {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	single := utf8.RuneCountInString(text) == 1
	return &Matcher{
		text:          text,
		flagsSelected: len(q.Flags) > 0,
		vitaminLetter: single && IsVitaminLetter(text),
		singleLetter:  single,
		code:          VitaminCodePattern(text),
		mechanism:     opts.MechanismMatch,
	}
}

// Match applies, in order: empty query, vitamin letter, other single letter,
// safe prefix on name/key/pretty key/aliases, vitamin code and finally
// mechanism substring.
func (m *Matcher) Match(r dataset.Record) bool {
	if m.text == "" {
		return true
	}

	if m.vitaminLetter {
		return VitaminLetterMatch(fieldsOf(r).combined(), m.text)
	}

	if m.singleLetter {
		// Too broad on its own.
		return m.flagsSelected
	}

	f := fieldsOf(r)
	if f.anyStartsWith(m.text) {
		return true
	}

	if m.code != nil && m.code.MatchString(f.combined()) {
		return true
	}

	if m.mechanism {
		if mech := r.Mechanism(); mech != "" && strings.Contains(strings.ToLower(mech), m.text) {
			return true
		}
	}

	return false
}
