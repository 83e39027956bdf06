package coverage

import (
	"github.com/zjy-dev/covlens/internal/pattern"
)

// Filter keeps the files matching any include pattern (all files when
// include is empty) and none of the exclude patterns. The overall summary is
// recomputed from the kept files.
func Filter(report Report, include, exclude []string) (Report, error) {
	inc, err := pattern.CompileAll(include)
	if err != nil {
		return Report{}, err
	}
	exc, err := pattern.CompileAll(exclude)
	if err != nil {
		return Report{}, err
	}

	kept := make([]FileCoverageData, 0, len(report.Files))
	for _, f := range report.Files {
		if len(inc) > 0 && !inc.Match(f.File) {
			continue
		}
		if exc.Match(f.File) {
			continue
		}
		kept = append(kept, f)
	}
	return NewReport(kept), nil
}
