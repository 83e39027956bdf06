package suite

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/zjy-dev/covlens/internal/cache"
	"github.com/zjy-dev/covlens/internal/coverage"
	"github.com/zjy-dev/covlens/internal/logger"
)

// ReportLoader reads one coverage report. *coverage.Loader implements it.
type ReportLoader interface {
	Load(ctx context.Context, path string) (coverage.Report, error)
}

type readFileLoader struct{}

func (readFileLoader) Load(ctx context.Context, path string) (coverage.Report, error) {
	return coverage.ReadFile(ctx, path)
}

// Manager holds the latest SuiteCoverageData of every suite. Records are
// replaced whole; readers always see a complete set.
type Manager struct {
	root   string
	loader ReportLoader
	suites *cache.Store[string, SuiteCoverageData]
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLoader sets the loader used by RecordFile.
func WithLoader(l ReportLoader) Option {
	return func(m *Manager) {
		if l != nil {
			m.loader = l
		}
	}
}

// WithClock sets the time source for run and analysis timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a Manager. root is the workspace root that report
// paths are made relative to.
func NewManager(root string, opts ...Option) *Manager {
	m := &Manager{
		root:   root,
		loader: readFileLoader{},
		suites: cache.New[string, SuiteCoverageData](),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Record stores data as the suite's latest run, replacing any earlier one.
func (m *Manager) Record(data SuiteCoverageData) error {
	if data.SuiteName == "" {
		return ErrEmptySuiteName
	}
	m.suites.Put(data.SuiteName, data)
	logger.Debug("Recorded suite %s: %.2f%% (%d/%d lines)",
		data.SuiteName, data.CoveragePercent, data.CoveredLines, data.TotalLines)
	return nil
}

// RecordReport builds the suite's data from one or more parsed reports and
// records it. Several reports are merged with MergeFileMaps. Nothing of an
// earlier record, its Feature included, carries over.
func (m *Manager) RecordReport(name, suitePath string, runAt time.Time, reports ...coverage.Report) (SuiteCoverageData, error) {
	fileMaps := make([]map[string]FileCoverage, 0, len(reports))
	for _, r := range reports {
		fileMaps = append(fileMaps, filesFromReport(r, m.root))
	}

	var files map[string]FileCoverage
	if len(fileMaps) == 1 {
		files = fileMaps[0]
	} else {
		files = MergeFileMaps(fileMaps...)
	}

	data := NewSuiteData(name, suitePath, files, runAt)
	if err := m.Record(data); err != nil {
		return SuiteCoverageData{}, err
	}
	return data, nil
}

// RecordFile reads the suite's report files and records the result. The
// run time is taken from the manager's clock. Nothing is recorded if any
// read fails.
func (m *Manager) RecordFile(ctx context.Context, name, suitePath string, reportPaths ...string) (SuiteCoverageData, error) {
	reports := make([]coverage.Report, 0, len(reportPaths))
	for _, p := range reportPaths {
		r, err := m.loader.Load(ctx, p)
		if err != nil {
			return SuiteCoverageData{}, fmt.Errorf("failed to load coverage for suite %s: %w", name, err)
		}
		reports = append(reports, r)
	}
	return m.RecordReport(name, suitePath, m.now(), reports...)
}

// Get returns the recorded data of a suite.
func (m *Manager) Get(name string) (SuiteCoverageData, bool) {
	return m.suites.Get(name)
}

// Remove forgets a suite.
func (m *Manager) Remove(name string) {
	m.suites.Delete(name)
}

// ReplaceAll swaps in a whole new set of suites.
func (m *Manager) ReplaceAll(suites []SuiteCoverageData) error {
	next := make(map[string]SuiteCoverageData, len(suites))
	for _, s := range suites {
		if s.SuiteName == "" {
			return ErrEmptySuiteName
		}
		next[s.SuiteName] = s
	}
	m.suites.ReplaceAll(next)
	return nil
}

// Suites returns every recorded suite ordered by name.
func (m *Manager) Suites() []SuiteCoverageData {
	snap := m.suites.Snapshot()
	out := make([]SuiteCoverageData, 0, len(snap))
	for _, s := range snap {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SuiteName < out[j].SuiteName
	})
	return out
}

// Len returns the number of recorded suites.
func (m *Manager) Len() int {
	return m.suites.Len()
}
