package suite

import (
	"fmt"
	"path"
	"sort"

	"github.com/zjy-dev/covlens/internal/coverage"
	"github.com/zjy-dev/covlens/internal/pathmatch"
	"github.com/zjy-dev/covlens/internal/pattern"
)

// byCoverageDesc orders suites by coverage, then covered lines, then name.
func byCoverageDesc(s []SuiteCoverageData) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].CoveragePercent != s[j].CoveragePercent {
			return s[i].CoveragePercent > s[j].CoveragePercent
		}
		if s[i].CoveredLines != s[j].CoveredLines {
			return s[i].CoveredLines > s[j].CoveredLines
		}
		return s[i].SuiteName < s[j].SuiteName
	})
}

// SuitesCovering returns the suites whose file map contains file, best
// covered first.
func (m *Manager) SuitesCovering(file string) []SuiteCoverageData {
	key := pathmatch.Key(file, m.root)
	if key == "" {
		return nil
	}

	var out []SuiteCoverageData
	for _, s := range m.Suites() {
		if _, ok := s.CoveredFiles[key]; ok {
			out = append(out, s)
		}
	}
	byCoverageDesc(out)
	return out
}

// Overlap counts the lines both suites cover in the files they share.
func (m *Manager) Overlap(suite1, suite2 string) (Overlap, error) {
	s1, ok := m.Get(suite1)
	if !ok {
		return Overlap{}, fmt.Errorf("%w: %s", ErrUnknownSuite, suite1)
	}
	s2, ok := m.Get(suite2)
	if !ok {
		return Overlap{}, fmt.Errorf("%w: %s", ErrUnknownSuite, suite2)
	}
	return ComputeOverlap(s1, s2), nil
}

// ComputeOverlap is Overlap over two suite records.
func ComputeOverlap(s1, s2 SuiteCoverageData) Overlap {
	shared := make([]string, 0)
	lines := 0

	for key, f1 := range s1.CoveredFiles {
		f2, ok := s2.CoveredFiles[key]
		if !ok {
			continue
		}
		shared = append(shared, key)

		in2 := make(map[int]struct{}, len(f2.CoveredLines))
		for _, l := range f2.CoveredLines {
			in2[l] = struct{}{}
		}
		for _, l := range f1.CoveredLines {
			if _, ok := in2[l]; ok {
				lines++
			}
		}
	}
	sort.Strings(shared)

	pct := 0.0
	if s1.CoveredLines > 0 {
		pct = coverage.Round2(100 * float64(lines) / float64(s1.CoveredLines))
	}

	return Overlap{
		Suite1:         s1.SuiteName,
		Suite2:         s2.SuiteName,
		OverlapLines:   lines,
		OverlapPercent: pct,
		SharedFiles:    shared,
	}
}

// GroupByDirectory groups suites by the directory of their suite path.
// Suites inside a group are ordered by name.
func (m *Manager) GroupByDirectory() map[string][]SuiteCoverageData {
	groups := make(map[string][]SuiteCoverageData)
	for _, s := range m.Suites() {
		dir := path.Dir(pathmatch.Key(s.SuitePath, m.root))
		groups[dir] = append(groups[dir], s)
	}
	return groups
}

// GroupByFeature assigns each suite to the first feature with a pattern
// matching its suite path. Features are tried in order, then patterns in
// order. A suite carrying its own Feature tag keeps it. Suites matching
// nothing land in UncategorizedFeature.
func (m *Manager) GroupByFeature(features []Feature) (map[string][]SuiteCoverageData, error) {
	sets := make([]pattern.Set, len(features))
	for i, f := range features {
		set, err := pattern.CompileAll(f.Patterns)
		if err != nil {
			return nil, fmt.Errorf("failed to compile patterns of feature %s: %w", f.Name, err)
		}
		sets[i] = set
	}

	groups := make(map[string][]SuiteCoverageData)
	for _, s := range m.Suites() {
		name := s.Feature
		if name == "" {
			name = UncategorizedFeature
			p := pathmatch.Key(s.SuitePath, m.root)
			for i, set := range sets {
				if set.Match(p) {
					name = features[i].Name
					break
				}
			}
		}
		groups[name] = append(groups[name], s)
	}
	return groups, nil
}

// BelowThreshold returns suites whose coverage is under pct, least covered
// first.
func (m *Manager) BelowThreshold(pct float64) []SuiteCoverageData {
	var out []SuiteCoverageData
	for _, s := range m.Suites() {
		if s.CoveragePercent < pct {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CoveragePercent < out[j].CoveragePercent
	})
	return out
}

// Top returns the n best covered suites. n <= 0 returns all of them.
func (m *Manager) Top(n int) []SuiteCoverageData {
	out := m.Suites()
	byCoverageDesc(out)
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Aggregate merges the file maps of every suite, keeping the highest hit
// count per line, and lists the knownFiles
// that no suite covers a single line of.
func (m *Manager) Aggregate(knownFiles []string) AggregateSuiteCoverage {
	snap := m.suites.Snapshot()

	fileMaps := make([]map[string]FileCoverage, 0, len(snap))
	for _, s := range snap {
		fileMaps = append(fileMaps, s.CoveredFiles)
	}
	merged := unionFileMaps(fileMaps...)

	total, covered := 0, 0
	for _, fc := range merged {
		total += fc.TotalLines
		covered += len(fc.CoveredLines)
	}

	uncovered := make([]string, 0)
	seen := make(map[string]struct{}, len(knownFiles))
	for _, f := range knownFiles {
		key := pathmatch.Key(f, m.root)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if fc, ok := merged[key]; !ok || len(fc.CoveredLines) == 0 {
			uncovered = append(uncovered, key)
		}
	}
	sort.Strings(uncovered)

	return AggregateSuiteCoverage{
		Suites:               snap,
		TotalCoveragePercent: coverage.Percent(covered, total),
		TotalLines:           total,
		TotalCoveredLines:    covered,
		UncoveredFiles:       uncovered,
		AnalyzedAt:           m.now(),
	}
}

// LineOwners reports, for each covered line of file, the suites covering
// it, ordered by line.
func (m *Manager) LineOwners(file string) []LineOwners {
	key := pathmatch.Key(file, m.root)
	owners := make(map[int][]string)
	for _, s := range m.Suites() {
		fc, ok := s.CoveredFiles[key]
		if !ok {
			continue
		}
		for _, l := range fc.CoveredLines {
			owners[l] = append(owners[l], s.SuiteName)
		}
	}

	out := make([]LineOwners, 0, len(owners))
	for l, names := range owners {
		out = append(out, LineOwners{Line: l, Suites: names})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Line < out[j].Line
	})
	return out
}

// UniqueLines returns, per suite, how many covered lines no other suite
// covers. A suite with no unique lines adds nothing to the aggregate.
func (m *Manager) UniqueLines() map[string]int {
	counts := make(map[string]int, m.Len())
	for _, s := range m.Suites() {
		counts[s.SuiteName] = 0
	}

	for _, s := range m.Suites() {
		for key := range s.CoveredFiles {
			for _, lo := range m.LineOwners(key) {
				if len(lo.Suites) == 1 && lo.Suites[0] == s.SuiteName {
					counts[s.SuiteName]++
				}
			}
		}
	}
	return counts
}
