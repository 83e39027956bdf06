package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/covlens/internal/logger"
	"github.com/zjy-dev/covlens/internal/pathmatch"
	"github.com/zjy-dev/covlens/internal/render"
	"github.com/zjy-dev/covlens/internal/suite"
)

// NewSuitesCommand creates the "suites" command group.
func NewSuitesCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suites",
		Short: "Analyze the coverage of individual test suites.",
		Long: `Each suite in config.suites names the report(s) its run produced.
These commands load every configured suite and compare them.

Examples:
  covlens suites list --below 80
  covlens suites covering lib/src/auth/login.dart
  covlens suites overlap auth checkout
  covlens suites group --by feature
  covlens suites aggregate`,
	}

	cmd.AddCommand(newSuitesListCommand(opts))
	cmd.AddCommand(newSuitesCoveringCommand(opts))
	cmd.AddCommand(newSuitesOverlapCommand(opts))
	cmd.AddCommand(newSuitesGroupCommand(opts))
	cmd.AddCommand(newSuitesOwnersCommand(opts))
	cmd.AddCommand(newSuitesUniqueCommand(opts))
	cmd.AddCommand(newSuitesAggregateCommand(opts))

	return cmd
}

// loadSuites records every configured suite into a new manager. Suites
// whose reports cannot be read are skipped with a warning.
func loadSuites(ctx context.Context, e *env) (*suite.Manager, error) {
	m := suite.NewManager(e.root, suite.WithLoader(e.loader), suite.WithClock(e.now))

	for _, sc := range e.cfg.Suites {
		if len(sc.Reports) == 0 {
			logger.Warn("Suite %s has no reports configured, skipping", sc.Name)
			continue
		}
		paths := make([]string, len(sc.Reports))
		for i, p := range sc.Reports {
			paths[i] = e.resolve(p)
		}

		data, err := m.RecordFile(ctx, sc.Name, sc.Path, paths...)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("Skipping suite %s: %v", sc.Name, err)
			continue
		}
		if sc.Feature != "" {
			data.Feature = sc.Feature
			if err := m.Record(data); err != nil {
				return nil, err
			}
		}
	}

	if m.Len() == 0 {
		return nil, fmt.Errorf("no suite coverage could be loaded, check config.suites")
	}
	logger.Debug("Loaded %d of %d suites", m.Len(), len(e.cfg.Suites))
	return m, nil
}

func newSuitesListCommand(opts *Options) *cobra.Command {
	var (
		below float64
		top   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List suites with their coverage.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			m, err := loadSuites(cmd.Context(), e)
			if err != nil {
				return err
			}

			var suites []suite.SuiteCoverageData
			switch {
			case cmd.Flags().Changed("below"):
				suites = m.BelowThreshold(below)
			case top > 0:
				suites = m.Top(top)
			default:
				suites = m.Suites()
			}

			if lagging := m.BelowThreshold(e.cfg.Thresholds.Suite); len(lagging) > 0 {
				names := make([]string, len(lagging))
				for i, s := range lagging {
					names[i] = s.SuiteName
				}
				logger.Warn("Suites below %s: %s", render.Percent(e.cfg.Thresholds.Suite), strings.Join(names, ", "))
			}

			now := e.now()
			return e.write(suites, func() string { return render.SuitesTable(suites, now) })
		},
	}

	cmd.Flags().Float64Var(&below, "below", 0, "Only list suites under this coverage, least covered first")
	cmd.Flags().IntVarP(&top, "top", "n", 0, "Only list the n best covered suites")

	return cmd
}

func newSuitesCoveringCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "covering <file>",
		Short: "List the suites that cover a source file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			m, err := loadSuites(cmd.Context(), e)
			if err != nil {
				return err
			}

			suites := m.SuitesCovering(args[0])
			now := e.now()
			return e.write(suites, func() string { return render.SuitesTable(suites, now) })
		},
	}
}

func newSuitesOverlapCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "overlap <suite1> <suite2>",
		Short: "Count the lines two suites both cover.",
		Long: `Count the lines covered by both suites in the files they share. The
percentage is relative to the first suite's covered lines.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			m, err := loadSuites(cmd.Context(), e)
			if err != nil {
				return err
			}

			o, err := m.Overlap(args[0], args[1])
			if err != nil {
				return err
			}
			return e.write(o, func() string { return render.OverlapText(o) })
		},
	}
}

func newSuitesGroupCommand(opts *Options) *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:   "group",
		Short: "Group suites by directory or by feature.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			m, err := loadSuites(cmd.Context(), e)
			if err != nil {
				return err
			}

			var groups map[string][]suite.SuiteCoverageData
			switch by {
			case "directory", "dir":
				groups = m.GroupByDirectory()
			case "feature":
				groups, err = m.GroupByFeature(e.cfg.Features)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown grouping %q, want directory or feature", by)
			}
			return e.write(groups, func() string { return render.GroupsTable(groups) })
		},
	}

	cmd.Flags().StringVar(&by, "by", "directory", "Grouping: directory or feature")

	return cmd
}

func newSuitesOwnersCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "owners <file>",
		Short: "Show which suites cover each line of a file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			m, err := loadSuites(cmd.Context(), e)
			if err != nil {
				return err
			}

			owners := m.LineOwners(args[0])
			return e.write(owners, func() string { return render.LineOwnersTable(owners) })
		},
	}
}

func newSuitesUniqueCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "unique",
		Short: "Count the lines only one suite covers.",
		Long: `For each suite, count the covered lines no other suite covers. Suites
with zero unique lines add nothing to the combined coverage.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			m, err := loadSuites(cmd.Context(), e)
			if err != nil {
				return err
			}

			counts := m.UniqueLines()
			return e.write(counts, func() string { return render.UniqueLinesTable(counts) })
		},
	}
}

func newSuitesAggregateCommand(opts *Options) *cobra.Command {
	var glob string

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Combine all suites and list source files no suite covers.",
		Long: `Union the coverage of every suite. Source files matching the source
glob (config.source_glob) that no suite covers are listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			m, err := loadSuites(cmd.Context(), e)
			if err != nil {
				return err
			}

			if glob == "" {
				glob = e.cfg.SourceGlob
			}
			var known []string
			if glob != "" {
				known, err = pathmatch.DiscoverFiles(e.root, glob)
				if err != nil {
					return err
				}
			}

			agg := m.Aggregate(known)
			return e.write(agg, func() string { return render.AggregateText(agg) })
		},
	}

	cmd.Flags().StringVar(&glob, "sources", "", "Source glob (default: config.source_glob)")

	return cmd
}
