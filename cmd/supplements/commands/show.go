package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/BrainPreserve/supplements/internal/card"
	"github.com/BrainPreserve/supplements/internal/coach"
)

func newShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <key>",
		Short: "Show the card and coaching summary of one supplement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.lookup(args[0])
			if err != nil {
				return err
			}

			c := card.Build(res)
			summary := coach.Summarize(res, s.app.Config.Coach.Columns)

			if s.ui.JSONMode() {
				return s.ui.JSON(map[string]any{"card": c, "summary": summary})
			}

			s.ui.Section(c.Title)
			s.ui.KeyValue("Also known as", c.Subtitle)
			s.ui.KeyValue("Evidence", s.ui.Tier(string(c.Evidence.Tier), c.Evidence.Label))
			s.ui.KeyValue("Cost", strings.TrimSpace(c.Cost.Band+" "+c.Cost.Label))
			s.ui.KeyValue("Indications", c.Indications)

			s.ui.Section("Details")
			for _, f := range c.Details {
				if !f.Empty {
					s.ui.KeyValue(f.Label, f.Value)
				}
			}
			for _, f := range c.Brands {
				if !f.Empty {
					s.ui.KeyValue(f.Label, f.Value)
				}
			}

			s.ui.Section("Coaching summary")
			s.ui.KeyValue("Tier", string(summary.Tier))
			s.ui.KeyValue("Trial", summary.TrialProtocol)
			s.ui.KeyValue("Tip", summary.CoachTip)
			s.ui.List(summary.Monitor)
			return nil
		},
	}
}
