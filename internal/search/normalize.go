// Package search implements supplement matching, classification and ranking.
// Everything here is pure: no I/O, no logging, no shared mutable state.
package search

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type vitaminKeyRule struct {
	pattern *regexp.Regexp
	letter  string
}

// B allows any number of digits; D and K take a single digit.
var vitaminKeyRules = []vitaminKeyRule{
	{regexp.MustCompile(`(?i)^vitamin\s*b\s*([0-9]+)$`), "B"},
	{regexp.MustCompile(`(?i)^vitamin\s*d\s*([0-9])$`), "D"},
	{regexp.MustCompile(`(?i)^vitamin\s*k\s*([0-9])$`), "K"},
}

var (
	coq10Pattern     = regexp.MustCompile(`(?i)\bcoq\s*10\b`)
	vitaminCodeToken = regexp.MustCompile(`(?i)^[bdk]\d+$`)
	digitsToken      = regexp.MustCompile(`^\d+$`)
)

// PrettifyKey turns a raw key such as "vitamin_b12" or "omega_3_fatty_acids"
// into its display form. It is idempotent and total.
func PrettifyKey(raw string) string {
	s := strings.Join(strings.Fields(strings.ReplaceAll(raw, "_", " ")), " ")
	if s == "" {
		return ""
	}

	for _, rule := range vitaminKeyRules {
		if m := rule.pattern.FindStringSubmatch(s); m != nil {
			s = "Vitamin " + rule.letter + m[1]
			break
		}
	}

	// Only the first occurrence is rewritten.
	if loc := coq10Pattern.FindStringIndex(s); loc != nil {
		s = s[:loc[0]] + "CoQ10" + s[loc[1]:]
	}

	words := strings.Split(s, " ")
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	switch {
	case vitaminCodeToken.MatchString(w):
		return strings.ToUpper(w)
	case digitsToken.MatchString(w):
		return w
	case strings.EqualFold(w, "and"):
		return "and"
	}

	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + w[size:]
}
