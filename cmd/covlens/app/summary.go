package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/covlens/internal/coverage"
	"github.com/zjy-dev/covlens/internal/logger"
	"github.com/zjy-dev/covlens/internal/render"
	"github.com/zjy-dev/covlens/internal/suggest"
)

// ErrBelowThreshold is returned when overall coverage misses the configured minimum.
var ErrBelowThreshold = errors.New("coverage below threshold")

// NewSummaryCommand creates the "summary" subcommand.
func NewSummaryCommand(opts *Options) *cobra.Command {
	var (
		minCoverage float64
		record      bool
		platform    string
		markdownDir string
	)

	cmd := &cobra.Command{
		Use:   "summary [report]",
		Short: "Show per-file and overall coverage of a report.",
		Long: `Parse an LCOV report and print the coverage of every file with the
overall total. Without an argument the configured report path is used.

With --record the result is appended to the coverage history and with
--markdown a markdown report including test suggestions is saved. When a
minimum coverage is set (flag or config.thresholds.min_coverage) the
command fails if the overall coverage is lower.

Examples:
  covlens summary
  covlens summary coverage/lcov.info --record --platform web
  covlens summary --min-coverage 80 -f json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			path := e.reportPath(args)
			report, err := e.loadReport(cmd.Context(), path)
			if err != nil {
				return err
			}
			if err := e.write(report, func() string { return render.ReportTable(report) }); err != nil {
				return err
			}

			if markdownDir != "" {
				reporter := render.NewMarkdownReporter(markdownDir)
				path, err := reporter.Save(report, suggest.Rank(report.Files, e.cfg.Suggestions.TopN))
				if err != nil {
					return err
				}
				logger.Info("Wrote markdown report %s", path)
			}

			if record {
				if err := recordSnapshot(e, report, platform); err != nil {
					return err
				}
			}

			threshold := e.cfg.Thresholds.MinCoverage
			if cmd.Flags().Changed("min-coverage") {
				threshold = minCoverage
			}
			return checkThreshold(report.Overall, threshold)
		},
	}

	cmd.Flags().Float64Var(&minCoverage, "min-coverage", 0, "Fail when overall coverage is below this percentage")
	cmd.Flags().BoolVar(&record, "record", false, "Append the result to the coverage history")
	cmd.Flags().StringVar(&platform, "platform", "", "Platform label stored with the snapshot")
	cmd.Flags().StringVar(&markdownDir, "markdown", "", "Also save a markdown report with test suggestions into this directory")

	return cmd
}

func recordSnapshot(e *env, report coverage.Report, platform string) error {
	tracker, store, err := e.tracker()
	if err != nil {
		return err
	}

	snap := tracker.Record(report, platform)
	if e.cfg.History.RetentionDays > 0 {
		if n := tracker.Prune(e.cfg.History.RetentionDays); n > 0 {
			logger.Info("Pruned %d snapshots older than %d days", n, e.cfg.History.RetentionDays)
		}
	}
	if err := store.Save(tracker.Snapshots()); err != nil {
		return err
	}
	logger.Info("Recorded snapshot %.2f%% to %s (%d snapshots)", snap.OverallPercentage, store.Path(), tracker.Len())
	return nil
}

func checkThreshold(overall coverage.Summary, threshold float64) error {
	if threshold <= 0 || overall.Percentage >= threshold {
		return nil
	}
	return fmt.Errorf("%w: %s < %s", ErrBelowThreshold, render.Percent(overall.Percentage), render.Percent(threshold))
}
