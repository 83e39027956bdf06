package suite

import (
	"time"

	"github.com/zjy-dev/covlens/internal/coverage"
	"github.com/zjy-dev/covlens/internal/logger"
	"github.com/zjy-dev/covlens/internal/pathmatch"
)

// fileFromReport converts a report entry into suite-scoped coverage under
// the given key.
func fileFromReport(key string, f coverage.FileCoverageData) FileCoverage {
	covered := coverage.SortedUnique(f.Covered())
	if len(covered) == 0 && f.LinesHit > 0 {
		logger.Debug("Report entry %s has no line data; its hits are not attributed", f.File)
	}

	var hits map[int]int
	if len(f.LineHits) > 0 {
		hits = make(map[int]int, len(f.LineHits))
		for l, n := range f.LineHits {
			hits[l] = n
		}
	}

	return newFileCoverage(key, f.LinesFound, covered, f.UncoveredLines, hits)
}

// newFileCoverage builds a FileCoverage whose covered and uncovered sets are
// disjoint and together span 1..TotalLines. TotalLines is widened to the
// highest known line; every line up to it that is not covered counts as
// uncovered.
func newFileCoverage(path string, totalLines int, covered, uncovered []int, hits map[int]int) FileCoverage {
	total := totalLines
	coveredSet := make(map[int]struct{}, len(covered))
	for _, l := range covered {
		if l < 1 {
			continue
		}
		coveredSet[l] = struct{}{}
		total = max(total, l)
	}
	for _, l := range uncovered {
		total = max(total, l)
	}

	cov := make([]int, 0, len(coveredSet))
	unc := make([]int, 0, total-len(coveredSet))
	for l := 1; l <= total; l++ {
		if _, ok := coveredSet[l]; ok {
			cov = append(cov, l)
		} else {
			unc = append(unc, l)
		}
	}

	return FileCoverage{
		FilePath:        path,
		TotalLines:      total,
		CoveredLines:    cov,
		UncoveredLines:  unc,
		CoveragePercent: coverage.Percent(len(cov), total),
		HitCounts:       hits,
	}
}

// MergeFileMaps combines per-file coverage maps attributed to one suite.
// Covered lines are the union across inputs; hit counts, where present, are
// summed rather than maximized.
func MergeFileMaps(maps ...map[string]FileCoverage) map[string]FileCoverage {
	return mergeFileMaps(func(a, b int) int { return a + b }, maps...)
}

// unionFileMaps combines file maps of different suites. Covered lines are
// the union and each line keeps its highest hit count.
func unionFileMaps(maps ...map[string]FileCoverage) map[string]FileCoverage {
	return mergeFileMaps(func(a, b int) int { return max(a, b) }, maps...)
}

func mergeFileMaps(combine func(a, b int) int, maps ...map[string]FileCoverage) map[string]FileCoverage {
	type acc struct {
		total     int
		covered   []int
		uncovered []int
		hits      map[int]int
	}

	accs := make(map[string]*acc)
	for _, m := range maps {
		for key, fc := range m {
			a, ok := accs[key]
			if !ok {
				a = &acc{}
				accs[key] = a
			}
			a.total = max(a.total, fc.TotalLines)
			a.covered = append(a.covered, fc.CoveredLines...)
			a.uncovered = append(a.uncovered, fc.UncoveredLines...)
			for l, n := range fc.HitCounts {
				if a.hits == nil {
					a.hits = make(map[int]int)
				}
				a.hits[l] = combine(a.hits[l], n)
			}
		}
	}

	out := make(map[string]FileCoverage, len(accs))
	for key, a := range accs {
		out[key] = newFileCoverage(key, a.total, a.covered, a.uncovered, a.hits)
	}
	return out
}

// filesFromReport keys each report entry by its path relative to root.
// Entries that normalize to the same key are merged.
func filesFromReport(report coverage.Report, root string) map[string]FileCoverage {
	out := make(map[string]FileCoverage, len(report.Files))
	for _, f := range report.Files {
		key := pathmatch.Key(f.File, root)
		if key == "" {
			continue
		}
		fc := fileFromReport(key, f)
		if prev, ok := out[key]; ok {
			fc = MergeFileMaps(map[string]FileCoverage{key: prev}, map[string]FileCoverage{key: fc})[key]
		}
		out[key] = fc
	}
	return out
}

// NewSuiteData builds the record of one suite run from its file map.
// A zero runAt leaves LastRun unset.
func NewSuiteData(name, suitePath string, files map[string]FileCoverage, runAt time.Time) SuiteCoverageData {
	if files == nil {
		files = make(map[string]FileCoverage)
	}

	total, covered := 0, 0
	for _, fc := range files {
		total += fc.TotalLines
		covered += len(fc.CoveredLines)
	}

	data := SuiteCoverageData{
		SuiteName:       name,
		SuitePath:       suitePath,
		TotalLines:      total,
		CoveredLines:    covered,
		CoveragePercent: coverage.Percent(covered, total),
		CoveredFiles:    files,
	}
	if !runAt.IsZero() {
		t := runAt
		data.LastRun = &t
	}
	return data
}
