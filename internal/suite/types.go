// Package suite tracks coverage per test suite and answers questions across
// suites: who covers a file, how much two suites overlap, which suites lag.
package suite

import (
	"errors"
	"time"
)

var (
	// ErrUnknownSuite is returned when a named suite has no recorded data.
	ErrUnknownSuite = errors.New("unknown suite")
	// ErrEmptySuiteName is returned when recording data without a suite name.
	ErrEmptySuiteName = errors.New("suite name is empty")
)

// UncategorizedFeature collects suites that match no feature pattern.
const UncategorizedFeature = "Uncategorized"

// FileCoverage is the coverage one suite contributes to one file.
type FileCoverage struct {
	FilePath        string  `json:"filePath" yaml:"filePath"`
	TotalLines      int     `json:"totalLines" yaml:"totalLines"`
	CoveredLines    []int   `json:"coveredLines" yaml:"coveredLines"`
	UncoveredLines  []int   `json:"uncoveredLines" yaml:"uncoveredLines"`
	CoveragePercent float64 `json:"coveragePercent" yaml:"coveragePercent"`
	// HitCounts maps line numbers to execution counts when the report has them.
	HitCounts map[int]int `json:"hitCounts,omitempty" yaml:"hitCounts,omitempty"`
}

// SuiteCoverageData is the result of one run of one suite. A new run
// replaces it as a whole.
type SuiteCoverageData struct {
	SuiteName       string                  `json:"suiteName" yaml:"suiteName"`
	SuitePath       string                  `json:"suitePath" yaml:"suitePath"`
	TotalLines      int                     `json:"totalLines" yaml:"totalLines"`
	CoveredLines    int                     `json:"coveredLines" yaml:"coveredLines"`
	CoveragePercent float64                 `json:"coveragePercent" yaml:"coveragePercent"`
	CoveredFiles    map[string]FileCoverage `json:"coveredFiles" yaml:"coveredFiles"`
	Feature         string                  `json:"feature,omitempty" yaml:"feature,omitempty"`
	LastRun         *time.Time              `json:"lastRun,omitempty" yaml:"lastRun,omitempty"`
}

// AggregateSuiteCoverage is the union of all recorded suites.
type AggregateSuiteCoverage struct {
	Suites               map[string]SuiteCoverageData `json:"suites" yaml:"suites"`
	TotalCoveragePercent float64                      `json:"totalCoveragePercent" yaml:"totalCoveragePercent"`
	TotalLines           int                          `json:"totalLines" yaml:"totalLines"`
	TotalCoveredLines    int                          `json:"totalCoveredLines" yaml:"totalCoveredLines"`
	// UncoveredFiles are known source files no suite covers a line of.
	UncoveredFiles []string  `json:"uncoveredFiles" yaml:"uncoveredFiles"`
	AnalyzedAt     time.Time `json:"analyzedAt" yaml:"analyzedAt"`
}

// Overlap describes lines two suites both cover. Percent is relative to
// Suite1's covered lines, so it is not symmetric.
type Overlap struct {
	Suite1         string   `json:"suite1" yaml:"suite1"`
	Suite2         string   `json:"suite2" yaml:"suite2"`
	OverlapLines   int      `json:"overlapLines" yaml:"overlapLines"`
	OverlapPercent float64  `json:"overlapPercent" yaml:"overlapPercent"`
	SharedFiles    []string `json:"sharedFiles" yaml:"sharedFiles"`
}

// Feature names a group of suites by the glob patterns of their paths.
type Feature struct {
	Name     string   `mapstructure:"name" json:"name" yaml:"name"`
	Patterns []string `mapstructure:"patterns" json:"patterns" yaml:"patterns"`
}

// LineOwners lists the suites covering one line of a file.
type LineOwners struct {
	Line   int      `json:"line" yaml:"line"`
	Suites []string `json:"suites" yaml:"suites"`
}
