// Package coverage parses line-coverage reports and holds the shared report model.
package coverage

import (
	"math"
	"sort"
)

// Summary holds aggregate line counts for a file or a whole report.
type Summary struct {
	LinesFound int     `json:"linesFound" yaml:"linesFound"`
	LinesHit   int     `json:"linesHit" yaml:"linesHit"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// NewSummary builds a Summary and derives its percentage.
func NewSummary(found, hit int) Summary {
	return Summary{
		LinesFound: found,
		LinesHit:   hit,
		Percentage: Percent(hit, found),
	}
}

// FileCoverageData is the coverage of one file as written in a report.
type FileCoverageData struct {
	// File is the path exactly as the report wrote it.
	File       string  `json:"file" yaml:"file"`
	LinesFound int     `json:"linesFound" yaml:"linesFound"`
	LinesHit   int     `json:"linesHit" yaml:"linesHit"`
	Percentage float64 `json:"percentage" yaml:"percentage"`

	// UncoveredLines is strictly ascending.
	UncoveredLines []int `json:"uncoveredLines" yaml:"uncoveredLines"`

	// CoveredLines is strictly ascending. Nil means the covered set was not
	// recorded and is inferred from LinesFound and UncoveredLines.
	CoveredLines []int `json:"coveredLines,omitempty" yaml:"coveredLines,omitempty"`

	// LineHits maps a line number to its execution count, when known.
	LineHits map[int]int `json:"lineHits,omitempty" yaml:"lineHits,omitempty"`
}

// Covered returns the ascending covered line numbers of the file.
func (f FileCoverageData) Covered() []int {
	if f.CoveredLines != nil {
		return f.CoveredLines
	}

	uncovered := make(map[int]struct{}, len(f.UncoveredLines))
	for _, l := range f.UncoveredLines {
		uncovered[l] = struct{}{}
	}

	covered := make([]int, 0, f.LinesHit)
	for l := 1; l <= f.LinesFound; l++ {
		if _, ok := uncovered[l]; !ok {
			covered = append(covered, l)
		}
	}
	return covered
}

// Summary returns the file's counts as a Summary.
func (f FileCoverageData) Summary() Summary {
	return Summary{LinesFound: f.LinesFound, LinesHit: f.LinesHit, Percentage: f.Percentage}
}

// Report is a parsed coverage report. Files keep their first-seen order.
type Report struct {
	Overall Summary            `json:"overall" yaml:"overall"`
	Files   []FileCoverageData `json:"files" yaml:"files"`
}

// IsEmpty reports whether the report carries no file records.
func (r Report) IsEmpty() bool {
	return len(r.Files) == 0
}

// File returns the record whose path is exactly name.
func (r Report) File(name string) (FileCoverageData, bool) {
	for _, f := range r.Files {
		if f.File == name {
			return f, true
		}
	}
	return FileCoverageData{}, false
}

// NewReport builds a report from file records, summing the overall counts.
func NewReport(files []FileCoverageData) Report {
	found, hit := 0, 0
	for _, f := range files {
		found += f.LinesFound
		hit += f.LinesHit
	}
	if files == nil {
		files = []FileCoverageData{}
	}
	return Report{
		Overall: NewSummary(found, hit),
		Files:   files,
	}
}

// NewFileCoverage builds a file record from explicit covered and uncovered
// line sets. Both inputs may be unsorted and may contain duplicates; a line
// present in both is counted as covered.
func NewFileCoverage(file string, covered, uncovered []int, hits map[int]int) FileCoverageData {
	cov := SortedUnique(covered)
	coveredSet := make(map[int]struct{}, len(cov))
	for _, l := range cov {
		coveredSet[l] = struct{}{}
	}

	unc := make([]int, 0, len(uncovered))
	for _, l := range SortedUnique(uncovered) {
		if _, ok := coveredSet[l]; !ok {
			unc = append(unc, l)
		}
	}

	found := len(cov) + len(unc)
	return FileCoverageData{
		File:           file,
		LinesFound:     found,
		LinesHit:       len(cov),
		Percentage:     Percent(len(cov), found),
		UncoveredLines: unc,
		CoveredLines:   cov,
		LineHits:       hits,
	}
}

// Percent returns 100*hit/found rounded to two decimals, or 0 when found is 0.
func Percent(hit, found int) float64 {
	if found <= 0 {
		return 0
	}
	return Round2(100 * float64(hit) / float64(found))
}

// Round2 rounds to two decimal places. Every percentage in covlens uses it.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SortedUnique returns an ascending copy of lines without duplicates.
func SortedUnique(lines []int) []int {
	if len(lines) == 0 {
		return []int{}
	}
	out := make([]int, len(lines))
	copy(out, lines)
	sort.Ints(out)

	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}
