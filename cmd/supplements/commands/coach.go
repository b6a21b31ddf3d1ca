package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/BrainPreserve/supplements/internal/coach"
)

func newCoachCmd(opts *globalOptions) *cobra.Command {
	var (
		flags   []string
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "coach <key>",
		Short: "Generate coaching text for one supplement",
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

			cfg := s.app.Config.Coach
			req := coach.PayloadFromRecord(res, cfg.Columns, flags, cfg.GoalKeys)
			req.Refresh = refresh

			ctx, cancel := context.WithTimeout(cmd.Context(), coachBudget(cfg.Timeout, cfg.MaxRetries))
			defer cancel()

			spin := s.ui.NewSpinner("Generating summary for " + req.SupplementName + "...")
			spin.Start()
			resp := s.app.Coach.Generate(ctx, req)
			spin.Stop()

			return printCoachResponse(s, req.SupplementName, resp)
		},
	}

	cmd.Flags().StringSliceVarP(&flags, "flag", "f", nil, "selected indication flags used as goals")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached text and regenerate")
	return cmd
}

func newCoachTopCmd(opts *globalOptions) *cobra.Command {
	var (
		qf          queryFlags
		top         int
		concurrency int
		refresh     bool
	)

	cmd := &cobra.Command{
		Use:   "coach-top [query]",
		Short: "Generate coaching text for the top search results",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			q := qf.query(args)
			if q.IsBlank() {
				s.ui.Warning("give a query or at least one --flag")
				return nil
			}

			results := s.app.Engine.Search(q)
			if top > 0 && len(results) > top {
				results = results[:top]
			}
			if len(results) == 0 {
				s.ui.Info("No matches.")
				return nil
			}

			cfg := s.app.Config.Coach
			reqs := make([]coach.Request, len(results))
			for i, res := range results {
				reqs[i] = coach.PayloadFromRecord(res, cfg.Columns, q.Flags, cfg.GoalKeys)
				reqs[i].Refresh = refresh
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), coachBudget(cfg.Timeout, cfg.MaxRetries)*time.Duration(len(reqs)))
			defer cancel()

			bar := s.ui.NewProgressBar(len(reqs), "Coaching")
			resps := s.app.Coach.GenerateBatch(ctx, reqs, concurrency, func(int, coach.Response) {
				bar.Add(1)
			})
			bar.Finish()

			if s.ui.JSONMode() {
				out := make([]map[string]any, len(reqs))
				for i := range reqs {
					out[i] = map[string]any{"name": reqs[i].SupplementName, "response": resps[i]}
				}
				return s.ui.JSON(out)
			}

			for i := range reqs {
				if err := printCoachResponse(s, reqs[i].SupplementName, resps[i]); err != nil {
					return err
				}
			}
			return nil
		},
	}

	qf.register(cmd)
	cmd.Flags().IntVarP(&top, "top", "n", 3, "number of results to coach")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel requests (defaults to coach.batch_limit)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached text and regenerate")
	return cmd
}

func printCoachResponse(s *session, name string, resp coach.Response) error {
	if s.ui.JSONMode() {
		return s.ui.JSON(resp)
	}

	s.ui.Section(name)
	if !resp.OK {
		s.ui.Warning("coaching text unavailable (%s)", resp.Reason)
		return nil
	}
	s.ui.Paragraphs(coach.Paragraphs(resp.Text))
	return nil
}

// coachBudget covers every attempt of one request plus backoff slack.
func coachBudget(timeout time.Duration, retries int) time.Duration {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return timeout*time.Duration(retries+1) + 5*time.Second
}
