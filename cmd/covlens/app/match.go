package app

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/covlens/internal/pathmatch"
	"github.com/zjy-dev/covlens/internal/render"
)

type matchResult struct {
	Target string          `json:"target" yaml:"target"`
	Found  bool            `json:"found" yaml:"found"`
	Match  pathmatch.Match `json:"match,omitempty" yaml:"match,omitempty"`
}

// NewMatchCommand creates the "match" subcommand.
func NewMatchCommand(opts *Options) *cobra.Command {
	var reportPath string

	cmd := &cobra.Command{
		Use:   "match <file>...",
		Short: "Find the coverage entry of source files.",
		Long: `Resolve each path to its entry in the report. Paths may be absolute
or relative to the workspace root. An exact path match wins over a
suffix match, which wins over a bare file name match.

Examples:
  covlens match lib/src/auth/login.dart
  covlens match /work/app/lib/main.dart --report coverage/web.info`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			report, err := e.loadReport(cmd.Context(), e.reportPath([]string{reportPath}))
			if err != nil {
				return err
			}

			results := make([]matchResult, 0, len(args))
			for _, target := range args {
				m, ok := pathmatch.MatchFile(report, target, e.root)
				results = append(results, matchResult{Target: target, Found: ok, Match: m})
			}

			return e.write(results, func() string {
				texts := make([]string, len(results))
				for i, r := range results {
					texts[i] = render.MatchText(r.Target, r.Match, r.Found)
				}
				return strings.Join(texts, "\n\n")
			})
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "Report to search (default: config.report.path)")

	return cmd
}
