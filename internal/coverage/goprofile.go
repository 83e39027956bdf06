package coverage

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/tools/cover"

	"github.com/zjy-dev/covlens/internal/logger"
)

// IsGoProfile reports whether data looks like a Go coverprofile.
func IsGoProfile(data []byte) bool {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		return strings.HasPrefix(line, "mode:")
	}
	return false
}

// ParseGoProfile converts a Go coverprofile into a line-level report.
// A line is covered when any block spanning it ran; a profile the cover
// package rejects yields an empty report, like malformed LCOV does.
func ParseGoProfile(r io.Reader) (Report, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Report{}, fmt.Errorf("failed to read go coverage profile: %w", err)
	}

	data = bytes.TrimLeft(data, " \t\r\n")
	profiles, err := cover.ParseProfilesFromReader(bytes.NewReader(data))
	if err != nil {
		logger.Warn("Ignoring malformed go coverage profile: %v", err)
		return NewReport(nil), nil
	}

	files := make([]FileCoverageData, 0, len(profiles))
	for _, p := range profiles {
		files = append(files, profileToFile(p))
	}
	return NewReport(files), nil
}

func profileToFile(p *cover.Profile) FileCoverageData {
	hits := make(map[int]int)
	for _, b := range p.Blocks {
		if b.NumStmt == 0 {
			continue
		}
		for line := b.StartLine; line <= b.EndLine; line++ {
			if cur, ok := hits[line]; !ok || b.Count > cur {
				hits[line] = b.Count
			}
		}
	}

	var covered, uncovered []int
	for line, count := range hits {
		if count > 0 {
			covered = append(covered, line)
		} else {
			uncovered = append(uncovered, line)
		}
	}
	return NewFileCoverage(p.FileName, covered, uncovered, hits)
}
