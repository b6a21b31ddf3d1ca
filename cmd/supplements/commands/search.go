package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/BrainPreserve/supplements/internal/card"
	"github.com/BrainPreserve/supplements/internal/coach"
)

func newSearchCmd(opts *globalOptions) *cobra.Command {
	var (
		qf    queryFlags
		limit int
		group bool
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search supplements by name, alias, vitamin code or indication",
		Example: `  supplements search mag
  supplements search b12
  supplements search --flag sleep_flag --sort az`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			q := qf.query(args)
			if !cmd.Flags().Changed("limit") {
				limit = s.app.Config.Search.DefaultLimit
			}

			if q.IsBlank() {
				if s.ui.JSONMode() {
					return s.ui.JSON(map[string]any{"status": card.PromptStatus, "count": 0, "results": []card.Card{}})
				}
				s.ui.Info("%s", card.PromptStatus)
				return nil
			}

			start := time.Now()
			results := s.app.Engine.Search(q)
			s.ui.Debug("ranked %d of %d records in %s", len(results), s.app.Engine.Len(), time.Since(start))

			count := len(results)
			summary := coach.Group(results, q, s.app.Config.Coach.Columns)
			if limit > 0 && len(results) > limit {
				results = results[:limit]
			}

			if s.ui.JSONMode() {
				return s.ui.JSON(map[string]any{
					"status":       card.StatusLine(count, false),
					"count":        count,
					"results":      card.BuildAll(results),
					"groupSummary": summary,
				})
			}

			s.ui.Info("%s", card.StatusLine(count, false))
			if count == 0 {
				return nil
			}
			s.ui.Table([]string{"NAME", "EVIDENCE", "COST", "INDICATIONS"}, resultRows(s.ui, results))

			if group && len(summary.Items) > 0 {
				s.ui.Section("Top picks for " + summary.Context)
				for _, it := range summary.Items {
					line := it.Name + " (" + string(it.Tier) + ")"
					if it.Why != "" {
						line += ": " + it.Why
					}
					s.ui.List([]string{line})
				}
			}
			return nil
		},
	}

	qf.register(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum results to print (0 prints all)")
	cmd.Flags().BoolVar(&group, "group", false, "print a group summary of the top picks")

	return cmd
}
