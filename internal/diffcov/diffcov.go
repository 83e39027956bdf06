// Package diffcov measures coverage restricted to changed lines.
package diffcov

import (
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/zjy-dev/covlens/internal/coverage"
	"github.com/zjy-dev/covlens/internal/logger"
	"github.com/zjy-dev/covlens/internal/pathmatch"
)

// FileResult is the coverage of the changed lines of one file.
type FileResult struct {
	File string `json:"file" yaml:"file"`
	// ReportFile is the matched report entry, empty when nothing matched.
	ReportFile string         `json:"reportFile,omitempty" yaml:"reportFile,omitempty"`
	Tier       pathmatch.Tier `json:"tier" yaml:"tier"`
	Changed    []int          `json:"changed" yaml:"changed"`
	Covered    []int          `json:"covered" yaml:"covered"`
	Uncovered  []int          `json:"uncovered" yaml:"uncovered"`
	// NotInstrumented lines are changed but absent from the report.
	NotInstrumented []int            `json:"notInstrumented" yaml:"notInstrumented"`
	Summary         coverage.Summary `json:"summary" yaml:"summary"`
}

// Result is diff coverage over all changed files.
type Result struct {
	Overall coverage.Summary `json:"overall" yaml:"overall"`
	Files   []FileResult     `json:"files" yaml:"files"`
}

// Analyze classifies every changed line against report. changes maps a
// file path to its changed line numbers; files are matched with
// pathmatch.MatchFile and reported in path order. Only instrumented lines
// count toward the summaries.
func Analyze(report coverage.Report, changes map[string][]int, root string) Result {
	paths := make([]string, 0, len(changes))
	for p := range changes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	files := make([]FileResult, 0, len(paths))
	found, hit := 0, 0
	for _, p := range paths {
		fr := analyzeFile(report, p, changes[p], root)
		found += fr.Summary.LinesFound
		hit += fr.Summary.LinesHit
		files = append(files, fr)
	}

	return Result{
		Overall: coverage.NewSummary(found, hit),
		Files:   files,
	}
}

func analyzeFile(report coverage.Report, file string, changed []int, root string) FileResult {
	fr := FileResult{
		File:            file,
		Changed:         coverage.SortedUnique(changed),
		Covered:         []int{},
		Uncovered:       []int{},
		NotInstrumented: []int{},
	}

	m, ok := pathmatch.MatchFile(report, file, root)
	if !ok {
		logger.Debug("No coverage entry for changed file %s", file)
		fr.NotInstrumented = append(fr.NotInstrumented, fr.Changed...)
		return fr
	}
	fr.ReportFile = m.File.File
	fr.Tier = m.Tier

	covered := toSet(m.File.Covered())
	uncovered := toSet(m.File.UncoveredLines)
	for _, l := range fr.Changed {
		switch {
		case covered[l]:
			fr.Covered = append(fr.Covered, l)
		case uncovered[l]:
			fr.Uncovered = append(fr.Uncovered, l)
		default:
			fr.NotInstrumented = append(fr.NotInstrumented, l)
		}
	}

	fr.Summary = coverage.NewSummary(len(fr.Covered)+len(fr.Uncovered), len(fr.Covered))
	return fr
}

func toSet(lines []int) map[int]bool {
	set := make(map[int]bool, len(lines))
	for _, l := range lines {
		set[l] = true
	}
	return set
}

// ChangedLines returns the 1-based line numbers of after that are new or
// modified relative to before.
func ChangedLines(before, after string) []int {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	changed := make([]int, 0)
	line := 1
	for _, d := range diffs {
		n := countLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			line += n
		case diffmatchpatch.DiffInsert:
			for i := 0; i < n; i++ {
				changed = append(changed, line+i)
			}
			line += n
		case diffmatchpatch.DiffDelete:
		}
	}
	return changed
}

// countLines counts lines in text, including a final line without a
// trailing newline.
func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
