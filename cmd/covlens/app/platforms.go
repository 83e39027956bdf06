package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/covlens/internal/aggregate"
	"github.com/zjy-dev/covlens/internal/coverage"
	"github.com/zjy-dev/covlens/internal/render"
)

type platformsResult struct {
	Platforms map[string]coverage.Summary `json:"platforms" yaml:"platforms"`
	Merged    coverage.Report             `json:"merged" yaml:"merged"`
}

// NewPlatformsCommand creates the "platforms" subcommand.
func NewPlatformsCommand(opts *Options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "platforms [name=report]...",
		Short: "Combine the coverage of several platforms.",
		Long: `Load one report per platform concurrently and show each platform's
coverage next to the merged result. Platforms come from the arguments
or, without any, from config.platforms.

Examples:
  covlens platforms
  covlens platforms android=coverage/android.info web=coverage/web.info -o coverage/all.info`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			sources, err := platformSources(e, args)
			if err != nil {
				return err
			}
			if len(sources) == 0 {
				return fmt.Errorf("no platforms configured")
			}

			agg := aggregate.NewPlatformAggregator(e.loader, e.cfg.Report.Concurrency)
			if err := agg.Load(cmd.Context(), sources); err != nil {
				return err
			}

			reports := make(map[string]coverage.Report, len(sources))
			result := platformsResult{Platforms: make(map[string]coverage.Summary, len(sources))}
			for _, name := range agg.Platforms() {
				r, _ := agg.Platform(name)
				filtered, err := coverage.Filter(r, e.cfg.Report.Include, e.cfg.Report.Exclude)
				if err != nil {
					return fmt.Errorf("failed to filter report: %w", err)
				}
				agg.Set(name, filtered)
				reports[name] = filtered
				result.Platforms[name] = filtered.Overall
			}
			result.Merged = agg.Merged()

			if output != "" {
				if err := writeLCOVFile(output, result.Merged); err != nil {
					return err
				}
			}
			return e.write(result, func() string { return render.PlatformsTable(reports, result.Merged) })
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Also write the merged report to this LCOV file")

	return cmd
}

func platformSources(e *env, args []string) (map[string]string, error) {
	sources := make(map[string]string)
	if len(args) == 0 {
		for name, p := range e.cfg.Platforms {
			sources[name] = e.resolve(p)
		}
		return sources, nil
	}
	for _, arg := range args {
		name, p, ok := strings.Cut(arg, "=")
		if !ok || name == "" || p == "" {
			return nil, fmt.Errorf("invalid platform %q, want name=report", arg)
		}
		sources[name] = p
	}
	return sources, nil
}
