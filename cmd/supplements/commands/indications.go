package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/BrainPreserve/supplements/internal/card"
)

func newIndicationsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "indications",
		Short: "List the indication flags and how many supplements carry each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			type indication struct {
				Column string `json:"column"`
				Label  string `json:"label"`
				Count  uint64 `json:"count"`
			}

			var out []indication
			for _, col := range s.app.Engine.Schema().FlagCols {
				out = append(out, indication{
					Column: col,
					Label:  card.BadgeLabel(col),
					Count:  s.app.Engine.FlagCount(col),
				})
			}

			if s.ui.JSONMode() {
				return s.ui.JSON(out)
			}

			rows := make([][]string, len(out))
			for i, ind := range out {
				rows[i] = []string{ind.Column, ind.Label, strconv.FormatUint(ind.Count, 10)}
			}
			s.ui.Table([]string{"FLAG", "LABEL", "COUNT"}, rows)
			return nil
		},
	}
}
