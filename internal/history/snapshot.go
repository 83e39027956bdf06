// Package history keeps a capped, append-only log of coverage snapshots and
// derives trends and statistics from it.
package history

import (
	"time"

	"github.com/zjy-dev/covlens/internal/coverage"
)

// FileSnapshot is the coverage of one file at snapshot time.
type FileSnapshot struct {
	File       string  `json:"file" yaml:"file"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
	LinesHit   int     `json:"linesHit" yaml:"linesHit"`
	LinesFound int     `json:"linesFound" yaml:"linesFound"`
}

// Snapshot is the overall coverage of one report at a point in time.
type Snapshot struct {
	Timestamp         time.Time      `json:"timestamp" yaml:"timestamp"`
	OverallPercentage float64        `json:"overallPercentage" yaml:"overallPercentage"`
	LinesHit          int            `json:"linesHit" yaml:"linesHit"`
	LinesFound        int            `json:"linesFound" yaml:"linesFound"`
	Platform          string         `json:"platform,omitempty" yaml:"platform,omitempty"`
	Files             []FileSnapshot `json:"files" yaml:"files"`
}

// NewSnapshot captures report as a snapshot taken at ts.
func NewSnapshot(report coverage.Report, platform string, ts time.Time) Snapshot {
	files := make([]FileSnapshot, 0, len(report.Files))
	for _, f := range report.Files {
		files = append(files, FileSnapshot{
			File:       f.File,
			Percentage: f.Percentage,
			LinesHit:   f.LinesHit,
			LinesFound: f.LinesFound,
		})
	}

	return Snapshot{
		Timestamp:         ts,
		OverallPercentage: report.Overall.Percentage,
		LinesHit:          report.Overall.LinesHit,
		LinesFound:        report.Overall.LinesFound,
		Platform:          platform,
		Files:             files,
	}
}
