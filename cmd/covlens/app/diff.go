package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/covlens/internal/coverage"
	"github.com/zjy-dev/covlens/internal/diffcov"
	"github.com/zjy-dev/covlens/internal/exec"
	"github.com/zjy-dev/covlens/internal/render"
)

// NewDiffCommand creates the "diff" subcommand.
func NewDiffCommand(opts *Options) *cobra.Command {
	var (
		lineSpecs   []string
		before      string
		after       string
		file        string
		gitBase     string
		reportPath  string
		minCoverage float64
	)

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Measure the coverage of changed lines.",
		Long: `Restrict coverage to the lines a change touched. Changed lines are
given explicitly with --lines file:ranges, computed from two versions
of one file with --before and --after, or taken from "git diff" of the
workspace against a base revision with --git-base. Changed lines the
report does not instrument are listed but do not count.

Examples:
  covlens diff --git-base origin/main
  covlens diff --lines lib/src/auth/login.dart:10-24,31
  covlens diff --before old/login.dart --after lib/src/auth/login.dart
  covlens diff --lines lib/a.dart:1-40 --min-coverage 80`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			changes := make(map[string][]int)
			for _, spec := range lineSpecs {
				path, ls, err := parseLineSpec(spec)
				if err != nil {
					return err
				}
				changes[path] = append(changes[path], ls...)
			}
			if before != "" || after != "" {
				if before == "" || after == "" {
					return fmt.Errorf("--before and --after must be given together")
				}
				target := file
				if target == "" {
					target = after
				}
				ls, err := changedFileLines(before, after)
				if err != nil {
					return err
				}
				changes[target] = append(changes[target], ls...)
			}
			if gitBase != "" {
				gitChanges, err := exec.GitChanges(cmd.Context(), exec.NewCommandRunner(), e.root, gitBase)
				if err != nil {
					return err
				}
				for p, ls := range gitChanges {
					changes[p] = append(changes[p], ls...)
				}
			}
			if len(changes) == 0 {
				return fmt.Errorf("no changes given, use --lines, --before/--after or --git-base")
			}
			for p, ls := range changes {
				changes[p] = coverage.SortedUnique(ls)
			}

			report, err := e.loadReport(cmd.Context(), e.reportPath([]string{reportPath}))
			if err != nil {
				return err
			}

			res := diffcov.Analyze(report, changes, e.root)
			if err := e.write(res, func() string { return render.DiffTable(res) }); err != nil {
				return err
			}
			return checkThreshold(res.Overall, minCoverage)
		},
	}

	cmd.Flags().StringArrayVar(&lineSpecs, "lines", nil, "Changed lines as file:ranges, e.g. lib/a.dart:3-9,12 (repeatable)")
	cmd.Flags().StringVar(&before, "before", "", "Previous version of the changed file")
	cmd.Flags().StringVar(&after, "after", "", "Current version of the changed file")
	cmd.Flags().StringVar(&file, "file", "", "Path to match in the report for --before/--after (default: --after)")
	cmd.Flags().StringVar(&gitBase, "git-base", "", "Diff the workspace against this git revision")
	cmd.Flags().StringVar(&reportPath, "report", "", "Report to use (default: config.report.path)")
	cmd.Flags().Float64Var(&minCoverage, "min-coverage", 0, "Fail when changed-line coverage is below this percentage")

	return cmd
}

func changedFileLines(before, after string) ([]int, error) {
	old, err := os.ReadFile(before)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", before, err)
	}
	cur, err := os.ReadFile(after)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", after, err)
	}
	return diffcov.ChangedLines(string(old), string(cur)), nil
}

// parseLineSpec parses "path:1-3,7" into the path and its line numbers.
func parseLineSpec(spec string) (string, []int, error) {
	i := strings.LastIndex(spec, ":")
	if i <= 0 || i == len(spec)-1 {
		return "", nil, fmt.Errorf("invalid line spec %q, want file:ranges", spec)
	}
	path, ranges := spec[:i], spec[i+1:]

	var out []int
	for _, part := range strings.Split(ranges, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(lo)
		if err != nil || start < 1 {
			return "", nil, fmt.Errorf("invalid line %q in %q", part, spec)
		}
		end := start
		if isRange {
			end, err = strconv.Atoi(hi)
			if err != nil || end < start {
				return "", nil, fmt.Errorf("invalid range %q in %q", part, spec)
			}
		}
		for l := start; l <= end; l++ {
			out = append(out, l)
		}
	}
	return path, out, nil
}
