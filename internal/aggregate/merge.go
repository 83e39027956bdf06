// Package aggregate merges coverage reports of the same code base produced
// by different sources, such as one report per build platform.
package aggregate

import (
	"github.com/zjy-dev/covlens/internal/coverage"
	"github.com/zjy-dev/covlens/internal/pattern"
)

// fileAcc accumulates one logical file across reports.
type fileAcc struct {
	name       string
	maxFound   int
	summaryHit int
	covered    map[int]struct{}
	uncovered  map[int]struct{}
	hits       map[int]int
}

func newFileAcc(name string) *fileAcc {
	return &fileAcc{
		name:      name,
		covered:   make(map[int]struct{}),
		uncovered: make(map[int]struct{}),
	}
}

func (a *fileAcc) add(f coverage.FileCoverageData) {
	if f.LinesFound > a.maxFound {
		a.maxFound = f.LinesFound
	}

	covered := f.Covered()
	if len(covered) < f.LinesHit && f.LinesHit > a.summaryHit {
		// Hits without line numbers: summary-only or gcovr records.
		a.summaryHit = f.LinesHit
	}

	for _, l := range covered {
		a.covered[l] = struct{}{}
	}
	for _, l := range f.UncoveredLines {
		a.uncovered[l] = struct{}{}
	}

	for l, n := range f.LineHits {
		if a.hits == nil {
			a.hits = make(map[int]int)
		}
		if cur, ok := a.hits[l]; !ok || n > cur {
			a.hits[l] = n
		}
	}
}

func (a *fileAcc) result() coverage.FileCoverageData {
	covered := make([]int, 0, len(a.covered))
	for l := range a.covered {
		covered = append(covered, l)
	}
	uncovered := make([]int, 0, len(a.uncovered))
	for l := range a.uncovered {
		uncovered = append(uncovered, l)
	}

	f := coverage.NewFileCoverage(a.name, covered, uncovered, a.hits)

	found := max(a.maxFound, f.LinesFound)
	hit := min(max(f.LinesHit, a.summaryHit), found)
	f.LinesFound = found
	f.LinesHit = hit
	f.Percentage = coverage.Percent(hit, found)
	return f
}

// Merge combines reports by per-line union. A line is covered when any
// report covers it. A file's line count is the largest any report declares,
// widened only when the union of known lines is larger. Files are keyed by
// their slash-normalized path and keep the order in which they first appear.
// Zero reports yield an empty report.
func Merge(reports ...coverage.Report) coverage.Report {
	var order []string
	accs := make(map[string]*fileAcc)

	for _, r := range reports {
		for _, f := range r.Files {
			key := pattern.Normalize(f.File)
			acc, ok := accs[key]
			if !ok {
				acc = newFileAcc(f.File)
				accs[key] = acc
				order = append(order, key)
			}
			acc.add(f)
		}
	}

	files := make([]coverage.FileCoverageData, 0, len(order))
	for _, key := range order {
		files = append(files, accs[key].result())
	}
	return coverage.NewReport(files)
}
