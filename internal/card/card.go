// Package card turns ranked results into display-ready view models shared by
// the HTTP API and the CLI.
package card

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/BrainPreserve/supplements/internal/dataset"
	"github.com/BrainPreserve/supplements/internal/search"
)

const (
	PromptStatus  = "Type at least 1 letter or choose an indication to begin."
	NoMatchStatus = "No matches. Adjust your search or indications."
	NoneFlagged   = "None flagged"

	subtitleJoin = " • "
)

var (
	linkPattern = regexp.MustCompile(`(?i)^https?://`)
	wordStart   = regexp.MustCompile(`\b\w`)
)

// Badge is a truthy indication flag.
type Badge struct {
	Column string `json:"column"`
	Label  string `json:"label"`
}

// Field is one labelled value in the details or brands section.
type Field struct {
	Column string `json:"column"`
	Label  string `json:"label"`
	Value  string `json:"value"`
	Link   bool   `json:"link,omitempty"`
	Empty  bool   `json:"empty,omitempty"`
}

// Card is the view model of one supplement.
type Card struct {
	Key         string          `json:"key"`
	Title       string          `json:"title"`
	Subtitle    string          `json:"subtitle,omitempty"`
	Name        string          `json:"name,omitempty"`
	Aliases     []string        `json:"aliases,omitempty"`
	Badges      []Badge         `json:"badges"`
	Details     []Field         `json:"details"`
	Brands      []Field         `json:"brands"`
	Indications string          `json:"indications"`
	Evidence    search.Evidence `json:"evidence"`
	Cost        search.Cost     `json:"cost"`
}

// Build derives the card for a ranked result.
func Build(res search.Result) Card {
	r := res.Record
	schema := r.Schema()
	if schema == nil {
		schema = &dataset.Schema{}
	}

	c := Card{
		Key:      r.Key(),
		Title:    res.PrettyKey,
		Name:     r.Name(),
		Aliases:  r.Aliases(),
		Badges:   Badges(r, schema.FlagCols),
		Details:  fields(r, schema.DetailCols),
		Brands:   fields(r, schema.BrandCols),
		Evidence: res.Evidence,
		Cost:     res.Cost,
	}
	c.Subtitle = subtitle(c.Name, c.Title, c.Aliases)
	c.Indications = indications(r.IndicationsDisplay(), c.Badges)
	return c
}

// BuildAll derives cards in result order.
func BuildAll(results []search.Result) []Card {
	cards := make([]Card, len(results))
	for i, res := range results {
		cards[i] = Build(res)
	}
	return cards
}

// Badges lists the flag columns that are set on r, in column order.
func Badges(r dataset.Record, flagCols []string) []Badge {
	badges := make([]Badge, 0, len(flagCols))
	for _, col := range flagCols {
		if r.Flag(col) {
			badges = append(badges, Badge{Column: col, Label: BadgeLabel(col)})
		}
	}
	return badges
}

// BadgeLabel turns "anti_inflammatory_flag" into "Anti inflammatory".
func BadgeLabel(col string) string {
	s := strings.ReplaceAll(strings.Replace(col, "_flag", "", 1), "_", " ")
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// FieldLabel turns "why_top_choice" into "Why Top Choice".
func FieldLabel(col string) string {
	return wordStart.ReplaceAllStringFunc(strings.ReplaceAll(col, "_", " "), strings.ToUpper)
}

func fields(r dataset.Record, cols []string) []Field {
	out := make([]Field, 0, len(cols))
	for _, col := range cols {
		if col == "" {
			continue
		}
		v := strings.TrimSpace(r.Field(col))
		out = append(out, Field{
			Column: col,
			Label:  FieldLabel(col),
			Value:  v,
			Link:   linkPattern.MatchString(v),
			Empty:  v == "",
		})
	}
	return out
}

func subtitle(name, title string, aliases []string) string {
	var parts []string
	if name != "" && !strings.EqualFold(name, title) {
		parts = append(parts, name)
	}
	if len(aliases) > 0 {
		parts = append(parts, "Aliases: "+strings.Join(aliases, ", "))
	}
	return strings.Join(parts, subtitleJoin)
}

func indications(display string, badges []Badge) string {
	if display != "" {
		return display
	}
	if len(badges) == 0 {
		return NoneFlagged
	}
	labels := make([]string, len(badges))
	for i, b := range badges {
		labels[i] = b.Label
	}
	return strings.Join(labels, ", ")
}

// StatusLine is the message shown above a result list.
func StatusLine(count int, blank bool) string {
	switch {
	case blank:
		return PromptStatus
	case count == 0:
		return NoMatchStatus
	case count == 1:
		return "1 match."
	default:
		return strconv.Itoa(count) + " matches."
	}
}
