package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BrainPreserve/supplements/cmd/supplements/ui"
	"github.com/BrainPreserve/supplements/internal/app"
	"github.com/BrainPreserve/supplements/internal/card"
	"github.com/BrainPreserve/supplements/internal/config"
	"github.com/BrainPreserve/supplements/internal/search"
)

// session is what every command runs with.
type session struct {
	app *app.App
	ui  *ui.UI
}

// openSession loads configuration and the dataset. Logs go to stderr only
// in verbose mode.
func openSession(cmd *cobra.Command, opts *globalOptions) (*session, error) {
	cfgPath := opts.cfgFile
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	appOpts := app.Options{LogOutput: io.Discard, LogLevel: "disabled"}
	if opts.verbose {
		appOpts = app.Options{LogOutput: cmd.ErrOrStderr(), LogLevel: "debug", LogFormat: "console"}
	}

	a, err := app.New(cfg, appOpts)
	if err != nil {
		return nil, err
	}

	return &session{
		app: a,
		ui:  ui.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.noColor, opts.jsonMode, opts.verbose),
	}, nil
}

func (s *session) Close() {
	_ = s.app.Close()
}

// queryFlags are the search options shared by search and coach-top.
type queryFlags struct {
	flags    []string
	evidence string
	sort     string
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.flags, "flag", "f", nil, "indication flag column to require (repeatable)")
	cmd.Flags().StringVarP(&f.evidence, "evidence", "e", "all", "evidence filter: all, strong, moderate, preliminary")
	cmd.Flags().StringVarP(&f.sort, "sort", "s", "evidence", "sort order: evidence or az")
}

func (f *queryFlags) query(args []string) search.Query {
	return search.NewQuery(strings.Join(args, " "), f.flags, f.evidence, f.sort)
}

func resultRows(u *ui.UI, results []search.Result) [][]string {
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		c := card.Build(res)
		rows = append(rows, []string{
			c.Title,
			u.Tier(string(c.Evidence.Tier), c.Evidence.Label),
			c.Cost.Band,
			c.Indications,
		})
	}
	return rows
}

// lookup resolves a raw or pretty key.
func (s *session) lookup(key string) (search.Result, error) {
	res, ok := s.app.Engine.Lookup(key)
	if !ok {
		return search.Result{}, fmt.Errorf("no supplement with key %q", key)
	}
	return res, nil
}
