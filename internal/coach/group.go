package coach

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/BrainPreserve/supplements/internal/config"
	"github.com/BrainPreserve/supplements/internal/search"
)

const groupSize = 5

// GroupItem is one pick in a group summary.
type GroupItem struct {
	Name      string `json:"name"`
	Tier      Tier   `json:"tier"`
	LevelText string `json:"levelText,omitempty"`
	Why       string `json:"why,omitempty"`
}

// GroupSummary lists the top picks of a result list by coaching tier.
type GroupSummary struct {
	Context string      `json:"context"`
	Items   []GroupItem `json:"items"`
}

// Group summarizes up to five results, strongest tier first and then by
// name. The context names what the list was filtered by.
func Group(results []search.Result, q search.Query, cols config.CoachColumns) GroupSummary {
	items := make([]GroupItem, 0, len(results))
	for _, res := range results {
		level := strings.TrimSpace(res.Record.Field(cols.LevelOfEvidence))
		why := strings.TrimSpace(res.Record.Field(cols.WhyTopChoice))
		if why == "" {
			why = strings.TrimSpace(res.Record.Field(cols.DirectBenefits))
		}
		items = append(items, GroupItem{
			Name:      res.PrettyKey,
			Tier:      DeriveTier(level),
			LevelText: level,
			Why:       why,
		})
	}

	c := collate.New(language.English)
	sort.SliceStable(items, func(i, j int) bool {
		if ri, rj := items[i].Tier.Rank(), items[j].Tier.Rank(); ri != rj {
			return ri < rj
		}
		return c.CompareString(items[i].Name, items[j].Name) < 0
	})

	if len(items) > groupSize {
		items = items[:groupSize]
	}

	return GroupSummary{Context: groupContext(q), Items: items}
}

func groupContext(q search.Query) string {
	switch {
	case len(q.Flags) > 0:
		return "selected indication(s)"
	case q.Text != "":
		return "current search"
	default:
		return "current view"
	}
}
