package coverage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/zjy-dev/gcovr-json-util/v2/pkg/gcovr"
)

// IsGcovrJSON reports whether data looks like a JSON document rather than
// a line-oriented report.
func IsGcovrJSON(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("{"))
}

// ParseGcovrUncovered decodes a gcovr-json-util uncovered report, as written
// by its JSON output, and converts it with FromGcovrUncovered.
func ParseGcovrUncovered(data []byte) (Report, error) {
	var report gcovr.UncoveredReport
	if err := json.Unmarshal(data, &report); err != nil {
		return Report{}, fmt.Errorf("failed to decode gcovr uncovered report: %w", err)
	}
	return FromGcovrUncovered(&report, ""), nil
}

// FromGcovrUncovered converts gcovr-json-util's per-function uncovered
// report into a line-level report. Function line totals are summed per file
// and the uncovered line numbers of all functions are merged. Covered line
// numbers are unknown, so CoveredLines is empty.
//
// sourceParentPath, when set, is joined in front of every gcovr file path.
func FromGcovrUncovered(report *gcovr.UncoveredReport, sourceParentPath string) Report {
	if report == nil {
		return NewReport(nil)
	}

	files := make([]FileCoverageData, 0, len(report.Files))
	for _, gcovrFile := range report.Files {
		filePath := gcovrFile.FilePath
		if sourceParentPath != "" {
			filePath = filepath.Join(sourceParentPath, gcovrFile.FilePath)
		}

		found, hit := 0, 0
		var uncovered []int
		for _, fn := range gcovrFile.UncoveredFunctions {
			found += fn.TotalLines
			hit += fn.CoveredLines
			uncovered = append(uncovered, fn.UncoveredLineNumbers...)
		}
		hit = min(hit, found)

		// gcovr lists only the uncovered line numbers.
		files = append(files, FileCoverageData{
			File:           filePath,
			LinesFound:     found,
			LinesHit:       hit,
			Percentage:     Percent(hit, found),
			UncoveredLines: SortedUnique(uncovered),
			CoveredLines:   []int{},
		})
	}
	return NewReport(files)
}
