// Package commands implements the supplements CLI.
package commands

import (
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	cfgFile  string
	verbose  bool
	noColor  bool
	jsonMode bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "supplements",
		Short: "Search and coach brain-health supplements",
		Long: `supplements searches the supplement catalogue by name, alias, vitamin code
or indication, ranks results by evidence, and produces coaching summaries.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "config file path (defaults to $CONFIG_PATH)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().BoolVar(&opts.jsonMode, "json", false, "print JSON instead of text")

	root.AddCommand(
		newSearchCmd(opts),
		newShowCmd(opts),
		newCoachCmd(opts),
		newCoachTopCmd(opts),
		newIndicationsCmd(opts),
	)

	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
