package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/covlens/internal/aggregate"
	"github.com/zjy-dev/covlens/internal/coverage"
	"github.com/zjy-dev/covlens/internal/logger"
	"github.com/zjy-dev/covlens/internal/render"
)

// NewMergeCommand creates the "merge" subcommand.
func NewMergeCommand(opts *Options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "merge <report>...",
		Short: "Merge several reports into one.",
		Long: `Merge LCOV reports, e.g. from sharded or per-platform test runs. A
line is covered when any input covers it. Without --output the merged
coverage is printed; with it an LCOV file is written.

Examples:
  covlens merge shard1.info shard2.info -o coverage/lcov.info`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			reports := make([]coverage.Report, 0, len(args))
			for _, p := range args {
				r, err := e.loadReport(cmd.Context(), p)
				if err != nil {
					return err
				}
				reports = append(reports, r)
			}
			merged := aggregate.Merge(reports...)
			logger.Info("Merged %d reports: %d files, %.2f%%", len(reports), len(merged.Files), merged.Overall.Percentage)

			if output == "" {
				return e.write(merged, func() string { return render.ReportTable(merged) })
			}
			return writeLCOVFile(output, merged)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the merged report to this LCOV file")

	return cmd
}

func writeLCOVFile(path string, report coverage.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := coverage.WriteLCOV(f, report); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	logger.Info("Wrote %s", path)
	return nil
}
