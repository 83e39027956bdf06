// Package suggest ranks files by how much they would gain from new tests.
package suggest

import (
	"fmt"
	"math"
	"path"
	"sort"
	"strings"

	"github.com/zjy-dev/covlens/internal/coverage"
	"github.com/zjy-dev/covlens/internal/pattern"
)

// Priority buckets a priority score.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Complexity buckets a file by its number of instrumented lines.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Score thresholds and caps.
const (
	highScore     = 40.0
	mediumScore   = 15.0
	uncoveredCap  = 100
	sizeCap       = 10.0
	complexLines  = 200
	moderateLines = 100
	wideGap       = 50.0
)

// TestSuggestion is one ranked file with advice on what to test.
type TestSuggestion struct {
	File               string     `json:"file" yaml:"file"`
	FileName           string     `json:"fileName" yaml:"fileName"`
	Priority           Priority   `json:"priority" yaml:"priority"`
	PriorityScore      float64    `json:"priorityScore" yaml:"priorityScore"`
	UncoveredCount     int        `json:"uncoveredCount" yaml:"uncoveredCount"`
	CoveragePercentage float64    `json:"coveragePercentage" yaml:"coveragePercentage"`
	Complexity         Complexity `json:"complexity" yaml:"complexity"`
	Suggestions        []string   `json:"suggestions" yaml:"suggestions"`
}

// roleHint pairs file name keywords with advice for that kind of file.
type roleHint struct {
	keywords []string
	hint     string
}

// roleHints is checked in order; the first keyword found in the
// lower-cased file name selects the hint.
var roleHints = []roleHint{
	{[]string{"widget"}, "Write widget tests that render the widget and verify its output and interactions"},
	{[]string{"repository"}, "Mock the data sources and test both success and failure paths of each repository method"},
	{[]string{"service", "usecase"}, "Unit test the business logic with mocked dependencies, including edge cases"},
	{[]string{"controller", "cubit", "bloc"}, "Test the state transitions triggered by each event or action"},
	{[]string{"model", "entity"}, "Test construction, equality and serialization round trips"},
}

const genericHint = "Add unit tests for the public API and its error handling paths"

// Score computes the priority score of a file.
func Score(uncoveredCount int, percentage float64, linesFound int) float64 {
	unc := float64(min(uncoveredCount, uncoveredCap))
	size := math.Min(float64(linesFound)/100, sizeCap)
	return coverage.Round2(0.4*unc + 0.3*(100-percentage) + 0.3*size)
}

// PriorityOf buckets a score.
func PriorityOf(score float64) Priority {
	switch {
	case score >= highScore:
		return PriorityHigh
	case score >= mediumScore:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// ComplexityOf buckets a line count.
func ComplexityOf(linesFound int) Complexity {
	switch {
	case linesFound > complexLines:
		return ComplexityComplex
	case linesFound > moderateLines:
		return ComplexityModerate
	default:
		return ComplexitySimple
	}
}

// uncoveredCount prefers the listed uncovered lines and falls back to the
// counts for records without line data.
func uncoveredCount(f coverage.FileCoverageData) int {
	if n := len(f.UncoveredLines); n > 0 {
		return n
	}
	return max(f.LinesFound-f.LinesHit, 0)
}

// Suggest builds the suggestion for one file.
func Suggest(f coverage.FileCoverageData) TestSuggestion {
	unc := uncoveredCount(f)
	score := Score(unc, f.Percentage, f.LinesFound)
	name := path.Base(pattern.Normalize(f.File))

	return TestSuggestion{
		File:               f.File,
		FileName:           name,
		Priority:           PriorityOf(score),
		PriorityScore:      score,
		UncoveredCount:     unc,
		CoveragePercentage: f.Percentage,
		Complexity:         ComplexityOf(f.LinesFound),
		Suggestions:        advice(name, unc, f.Percentage, f.LinesFound),
	}
}

func advice(name string, unc int, percentage float64, linesFound int) []string {
	out := []string{fmt.Sprintf("Cover %d uncovered lines", unc)}

	gap := 100 - percentage
	if gap > wideGap {
		out = append(out, fmt.Sprintf("Increase coverage by %.2f%%", coverage.Round2(gap)))
	} else {
		cases := int(math.Ceil(gap * float64(linesFound) / 100))
		out = append(out, fmt.Sprintf("Add ~%d more test cases to close the gap", cases))
	}

	return append(out, hintFor(name))
}

func hintFor(name string) string {
	lower := strings.ToLower(name)
	for _, rh := range roleHints {
		for _, kw := range rh.keywords {
			if strings.Contains(lower, kw) {
				return rh.hint
			}
		}
	}
	return genericHint
}

// Rank scores every file that is not fully covered and returns them by
// descending score. Equal scores keep their input order. topN <= 0 returns
// all of them.
func Rank(files []coverage.FileCoverageData, topN int) []TestSuggestion {
	out := make([]TestSuggestion, 0, len(files))
	for _, f := range files {
		if f.LinesFound == 0 || f.Percentage >= 100 {
			continue
		}
		out = append(out, Suggest(f))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PriorityScore > out[j].PriorityScore
	})

	if topN > 0 && topN < len(out) {
		out = out[:topN]
	}
	return out
}
