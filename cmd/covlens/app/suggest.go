package app

import (
	"github.com/spf13/cobra"

	"github.com/zjy-dev/covlens/internal/render"
	"github.com/zjy-dev/covlens/internal/suggest"
)

// NewSuggestCommand creates the "suggest" subcommand.
func NewSuggestCommand(opts *Options) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "suggest [report]",
		Short: "Rank files by where new tests pay off most.",
		Long: `Score every partially covered file by its uncovered lines, its
coverage gap and its size, and print the highest ranked ones with
advice on what to test.

Examples:
  covlens suggest
  covlens suggest --top 5 -f json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("top") {
				top = e.cfg.Suggestions.TopN
			}

			report, err := e.loadReport(cmd.Context(), e.reportPath(args))
			if err != nil {
				return err
			}

			suggestions := suggest.Rank(report.Files, top)
			return e.write(suggestions, func() string { return render.SuggestionsTable(suggestions) })
		},
	}

	cmd.Flags().IntVarP(&top, "top", "n", 10, "Number of suggestions to show (0 = all)")

	return cmd
}
