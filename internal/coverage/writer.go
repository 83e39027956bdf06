package coverage

import (
	"bufio"
	"fmt"
	"io"
)

// WriteLCOV writes report in LCOV form. Hit counts are taken from LineHits
// when present; otherwise covered lines are written with a count of 1.
// Files whose line data does not add up to LinesFound are written as
// LF/LH summaries only.
func WriteLCOV(w io.Writer, report Report) error {
	bw := bufio.NewWriter(w)

	for _, f := range report.Files {
		fmt.Fprintf(bw, "SF:%s\n", f.File)

		covered := f.Covered()
		if len(covered)+len(f.UncoveredLines) != f.LinesFound {
			// The line data does not describe every line; keep the counts only.
			fmt.Fprintf(bw, "LF:%d\n", f.LinesFound)
			fmt.Fprintf(bw, "LH:%d\n", f.LinesHit)
			fmt.Fprintln(bw, endOfRecord)
			continue
		}

		lines := mergeAscending(covered, f.UncoveredLines)
		uncovered := make(map[int]struct{}, len(f.UncoveredLines))
		for _, l := range f.UncoveredLines {
			uncovered[l] = struct{}{}
		}
		for _, l := range lines {
			hits := 0
			if _, ok := uncovered[l]; !ok {
				hits = 1
				if h, ok := f.LineHits[l]; ok && h > 0 {
					hits = h
				}
			}
			fmt.Fprintf(bw, "DA:%d,%d\n", l, hits)
		}

		fmt.Fprintf(bw, "LF:%d\n", f.LinesFound)
		fmt.Fprintf(bw, "LH:%d\n", f.LinesHit)
		fmt.Fprintln(bw, endOfRecord)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write lcov report: %w", err)
	}
	return nil
}

// mergeAscending merges two ascending slices into one ascending slice
// without duplicates.
func mergeAscending(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		var next int
		switch {
		case j >= len(b) || (i < len(a) && a[i] < b[j]):
			next = a[i]
			i++
		case i >= len(a) || b[j] < a[i]:
			next = b[j]
			j++
		default:
			next = a[i]
			i++
			j++
		}
		if len(out) == 0 || out[len(out)-1] != next {
			out = append(out, next)
		}
	}
	return out
}
