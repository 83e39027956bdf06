package coverage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zjy-dev/covlens/internal/logger"
)

// LCOV record prefixes understood by the parser. Every other record type
// (TN, FN, FNDA, FNF, FNH, BRDA, BRF, BRH, ...) is skipped.
const (
	prefixSourceFile = "SF:"
	prefixLineData   = "DA:"
	prefixLinesFound = "LF:"
	prefixLinesHit   = "LH:"
	endOfRecord      = "end_of_record"
)

// record accumulates one SF..end_of_record block.
type record struct {
	file          string
	hits          map[int]int
	declaredFound int
	declaredHit   int
	hasFound      bool
}

func newRecord(file string) *record {
	return &record{file: file, hits: make(map[int]int)}
}

// Parse parses LCOV text. Malformed fragments are skipped, so Parse never
// fails; empty or garbage input yields an empty report.
func Parse(text string) Report {
	// A strings.Reader never returns a read error other than io.EOF.
	report, _ := ParseReader(strings.NewReader(text))
	return report
}

// ParseReader parses LCOV data from r. Only a read failure of r itself is
// returned as an error; content problems are skipped.
func ParseReader(r io.Reader) (Report, error) {
	br := bufio.NewReader(r)

	var (
		order   []string
		byFile  = make(map[string]*record)
		current *record
		skipped int
	)

	for {
		raw, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return Report{}, fmt.Errorf("failed to read coverage data: %w", readErr)
		}

		line := strings.TrimSpace(raw)
		switch {
		case line == "":
		case strings.HasPrefix(line, prefixSourceFile):
			if current != nil {
				logger.Debug("Discarding unterminated record for %s", current.file)
			}
			current = newRecord(strings.TrimSpace(strings.TrimPrefix(line, prefixSourceFile)))

		case current == nil:
			// Data outside of an SF block carries no file; ignore it.

		case strings.HasPrefix(line, prefixLineData):
			lineNo, hits, ok := parseLineData(strings.TrimPrefix(line, prefixLineData))
			if !ok {
				skipped++
				continue
			}
			current.hits[lineNo] += hits

		case strings.HasPrefix(line, prefixLinesFound):
			if n, ok := parseCount(strings.TrimPrefix(line, prefixLinesFound)); ok {
				current.declaredFound = n
				current.hasFound = true
			}

		case strings.HasPrefix(line, prefixLinesHit):
			if n, ok := parseCount(strings.TrimPrefix(line, prefixLinesHit)); ok {
				current.declaredHit = n
			}

		case line == endOfRecord:
			if current.file != "" {
				if prev, exists := byFile[current.file]; exists {
					prev.absorb(current)
				} else {
					byFile[current.file] = current
					order = append(order, current.file)
				}
			}
			current = nil
		}

		if readErr != nil {
			break
		}
	}

	if current != nil {
		logger.Debug("Discarding truncated record for %s", current.file)
	}
	if skipped > 0 {
		logger.Debug("Skipped %d malformed DA lines", skipped)
	}

	files := make([]FileCoverageData, 0, len(order))
	for _, name := range order {
		files = append(files, byFile[name].finish())
	}
	return NewReport(files), nil
}

// absorb folds a repeated record for the same file into r, summing hits.
func (r *record) absorb(other *record) {
	for l, h := range other.hits {
		r.hits[l] += h
	}
	if other.hasFound && other.declaredFound > r.declaredFound {
		r.declaredFound = other.declaredFound
		r.hasFound = true
	}
	if other.declaredHit > r.declaredHit {
		r.declaredHit = other.declaredHit
	}
}

// finish applies the canonical count rule: accepted DA lines define the
// counts; declared LF/LH only stand in for records without any DA line.
func (r *record) finish() FileCoverageData {
	if len(r.hits) == 0 {
		found, hit := 0, 0
		if r.hasFound {
			found = r.declaredFound
			hit = min(r.declaredHit, found)
		}
		return FileCoverageData{
			File:           r.file,
			LinesFound:     found,
			LinesHit:       hit,
			Percentage:     Percent(hit, found),
			UncoveredLines: []int{},
			CoveredLines:   []int{},
		}
	}

	covered := make([]int, 0, len(r.hits))
	uncovered := make([]int, 0)
	for l, h := range r.hits {
		if h > 0 {
			covered = append(covered, l)
		} else {
			uncovered = append(uncovered, l)
		}
	}
	return NewFileCoverage(r.file, covered, uncovered, r.hits)
}

// parseLineData parses the body of a DA line: exactly "<line>,<hits>".
func parseLineData(body string) (int, int, bool) {
	parts := strings.Split(body, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lineNo, ok := parseCount(parts[0])
	if !ok {
		return 0, 0, false
	}
	hits, ok := parseCount(parts[1])
	if !ok {
		return 0, 0, false
	}
	return lineNo, hits, true
}

// parseCount parses a non-negative decimal integer.
func parseCount(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
