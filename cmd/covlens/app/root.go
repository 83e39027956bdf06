package app

import (
	"github.com/spf13/cobra"

	"github.com/zjy-dev/covlens/internal/logger"
)

// Options are the persistent flags shared by every subcommand.
type Options struct {
	ConfigPath string
	Root       string
	Format     string
	LogLevel   string
}

// NewCovlensCommand creates the root command for the covlens tool.
func NewCovlensCommand() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "covlens",
		Short: "Coverage intelligence for LCOV reports.",
		Long: `covlens reads LCOV coverage reports and answers questions about them:
which files lag behind, where a source file's coverage entry is, how
platform runs combine, what each test suite contributes and how coverage
moves over time.

Settings are read from covlens.yaml (searched in ., configs/, ../configs/)
under the 'config' section. COVLENS_* environment variables override file
values, e.g. COVLENS_REPORT_PATH=coverage/lcov.info.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "Config file (default: covlens.yaml in the search paths)")
	flags.StringVar(&opts.Root, "root", "", "Workspace root (overrides config.workspace.root)")
	flags.StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json or yaml")
	flags.StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn or error")

	cmd.AddCommand(NewSummaryCommand(opts))
	cmd.AddCommand(NewMatchCommand(opts))
	cmd.AddCommand(NewLocateCommand(opts))
	cmd.AddCommand(NewMergeCommand(opts))
	cmd.AddCommand(NewPlatformsCommand(opts))
	cmd.AddCommand(NewSuggestCommand(opts))
	cmd.AddCommand(NewSuitesCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewDiffCommand(opts))

	return cmd
}
