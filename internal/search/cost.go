package search

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// Cost is the price band derived from a free-text cost field. Band is empty
// when the field is empty.
type Cost struct {
	Band  string `json:"band"`
	Label string `json:"label"`
}

var (
	budgetCost   = Cost{Band: "$", Label: "Budget"}
	moderateCost = Cost{Band: "$$", Label: "Moderate"}
	premiumCost  = Cost{Band: "$$$", Label: "Premium"}
)

var costNumber = regexp.MustCompile(`\d+(?:[ ,]\d{3})*(?:\.\d+)?`)

type costRule struct {
	name  string
	apply func(text string) (Cost, bool)
}

// costRules are evaluated in order; the first rule that applies wins.
var costRules = []costRule{
	{"dollar_run_3", dollarRun("$$$", premiumCost)},
	{"dollar_run_2", dollarRun("$$", moderateCost)},
	{"amount", costFromAmount},
	{"fallback", func(string) (Cost, bool) { return budgetCost, true }},
}

func dollarRun(run string, c Cost) func(string) (Cost, bool) {
	return func(text string) (Cost, bool) {
		return c, strings.Contains(text, run)
	}
}

func costFromAmount(text string) (Cost, bool) {
	tok := costNumber.FindString(text)
	if tok == "" {
		return Cost{}, false
	}
	tok = strings.NewReplacer(",", "", " ", "").Replace(tok)
	// Out-of-range amounts come back as +Inf and land in the premium band.
	n, err := strconv.ParseFloat(tok, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return Cost{}, false
	}
	switch {
	case n < 20:
		return budgetCost, true
	case n <= 50:
		return moderateCost, true
	default:
		return premiumCost, true
	}
}

// ClassifyCost maps a cost description to a $, $$ or $$$ band.
func ClassifyCost(text string) Cost {
	t := strings.TrimSpace(text)
	if t == "" {
		return Cost{}
	}
	for _, rule := range costRules {
		if c, ok := rule.apply(t); ok {
			return c
		}
	}
	return budgetCost
}
