package app

import (
	"github.com/spf13/cobra"

	"github.com/zjy-dev/covlens/internal/history"
	"github.com/zjy-dev/covlens/internal/logger"
	"github.com/zjy-dev/covlens/internal/render"
)

type trendResult struct {
	Trend *history.Trend `json:"trend,omitempty" yaml:"trend,omitempty"`
	Stats *history.Stats `json:"stats,omitempty" yaml:"stats,omitempty"`
}

// NewHistoryCommand creates the "history" command group.
func NewHistoryCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the coverage history.",
		Long: `Snapshots are appended by "covlens summary --record" and kept in
config.history.path, capped at config.history.max_snapshots.

Examples:
  covlens history list -n 5
  covlens history trend --days 14
  covlens history prune --days 90`,
	}

	cmd.AddCommand(newHistoryListCommand(opts))
	cmd.AddCommand(newHistoryTrendCommand(opts))
	cmd.AddCommand(newHistoryPruneCommand(opts))

	return cmd
}

func newHistoryListCommand(opts *Options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			tracker, _, err := e.tracker()
			if err != nil {
				return err
			}

			snaps := tracker.History()
			if limit > 0 && limit < len(snaps) {
				snaps = snaps[:limit]
			}
			now := e.now()
			return e.write(snaps, func() string { return render.HistoryTable(snaps, now) })
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most n snapshots (0 = all)")

	return cmd
}

func newHistoryTrendCommand(opts *Options) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Show the coverage trend and statistics.",
		Long: `Compare the earliest and latest snapshot inside the window. A change
under 0.1 points counts as stable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("days") {
				days = e.cfg.History.TrendWindowDays
			}
			tracker, _, err := e.tracker()
			if err != nil {
				return err
			}

			tr, hasTrend := tracker.Trend(days)
			st, hasStats := tracker.Stats()

			var res trendResult
			if hasTrend {
				res.Trend = &tr
			}
			if hasStats {
				res.Stats = &st
			}
			return e.write(res, func() string { return render.TrendText(tr, hasTrend, st, hasStats) })
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Trend window in days (default: config.history.trend_window_days)")

	return cmd
}

func newHistoryPruneCommand(opts *Options) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Drop snapshots older than the retention period.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("days") {
				days = e.cfg.History.RetentionDays
			}
			tracker, store, err := e.tracker()
			if err != nil {
				return err
			}

			removed := tracker.Prune(days)
			if removed == 0 {
				logger.Info("No snapshots older than %d days", days)
				return nil
			}
			if err := store.Save(tracker.Snapshots()); err != nil {
				return err
			}
			logger.Info("Removed %d snapshots, %d left", removed, tracker.Len())
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 90, "Retention in days (default: config.history.retention_days)")

	return cmd
}
