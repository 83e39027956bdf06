package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zjy-dev/covlens/internal/coverage"
	"github.com/zjy-dev/covlens/internal/diffcov"
	"github.com/zjy-dev/covlens/internal/history"
	"github.com/zjy-dev/covlens/internal/pathmatch"
	"github.com/zjy-dev/covlens/internal/suggest"
	"github.com/zjy-dev/covlens/internal/suite"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatTable},
		{"table", FormatTable},
		{"JSON", FormatJSON},
		{"yml", FormatYAML},
		{" yaml ", FormatYAML},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWrite(t *testing.T) {
	report := coverage.Parse("SF:lib/a.dart\nDA:1,1\nDA:2,0\nend_of_record\n")

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, report, nil))
	var decoded coverage.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report.Overall, decoded.Overall)

	buf.Reset()
	require.NoError(t, Write(&buf, FormatYAML, report.Overall, nil))
	var summary coverage.Summary
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &summary))
	assert.Equal(t, report.Overall, summary)

	buf.Reset()
	require.NoError(t, Write(&buf, FormatTable, report, func() string { return "table!" }))
	assert.Equal(t, "table!\n", buf.String())
}

func TestWrite_TierAsText(t *testing.T) {
	var buf bytes.Buffer
	m := pathmatch.Match{Tier: pathmatch.TierBasename}
	require.NoError(t, Write(&buf, FormatJSON, m, nil))
	assert.Contains(t, buf.String(), `"tier": "basename"`)
}

func TestBar(t *testing.T) {
	assert.Equal(t, "░░░░░░░░░░░░░░░░░░░░", Bar(0))
	assert.Equal(t, "██████████░░░░░░░░░░", Bar(50))
	assert.Equal(t, "████████████████████", Bar(100))
	assert.Equal(t, "████████████████████", Bar(150))
}

func TestLineRanges(t *testing.T) {
	assert.Equal(t, "none", LineRanges(nil))
	assert.Equal(t, "4", LineRanges([]int{4}))
	assert.Equal(t, "1-3, 7, 9-10", LineRanges([]int{1, 2, 3, 7, 9, 10}))
}

func TestReportTable(t *testing.T) {
	out := ReportTable(coverage.Parse("SF:lib/a.dart\nDA:1,1\nDA:2,0\nend_of_record\n"))
	assert.Contains(t, out, "lib/a.dart")
	assert.Contains(t, out, "50.00%")
	assert.Contains(t, out, "Total: 1 files")

	assert.Equal(t, "No coverage data", ReportTable(coverage.NewReport(nil)))
}

func TestMatchText(t *testing.T) {
	m := pathmatch.Match{
		File: coverage.NewFileCoverage("weird/foo.dart", []int{1}, []int{2, 3}, nil),
		Tier: pathmatch.TierBasename,
	}
	out := MatchText("lib/foo.dart", m, true)
	assert.Contains(t, out, "weird/foo.dart (basename match)")
	assert.Contains(t, out, "Uncovered: 2-3")

	assert.Equal(t, "lib/x.dart: no coverage entry", MatchText("lib/x.dart", pathmatch.Match{}, false))
}

func TestHistoryTable(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	out := HistoryTable([]history.Snapshot{
		{Timestamp: now.Add(-48 * time.Hour), OverallPercentage: 61.5, LinesFound: 12000, LinesHit: 7380, Platform: "web"},
	}, now)
	assert.Contains(t, out, "2 days ago")
	assert.Contains(t, out, "12,000")
	assert.Contains(t, out, "61.50%")

	assert.Equal(t, "No snapshots recorded", HistoryTable(nil, now))
}

func TestSuitesAndGroups(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	ran := now.Add(-3 * time.Hour)
	suites := []suite.SuiteCoverageData{
		{SuiteName: "auth", SuitePath: "test/auth_test.dart", TotalLines: 10, CoveredLines: 5, CoveragePercent: 50, LastRun: &ran},
		{SuiteName: "cart", SuitePath: "test/cart_test.dart", CoveragePercent: 70},
	}

	out := SuitesTable(suites, now)
	assert.Contains(t, out, "3 hours ago")
	assert.Contains(t, out, "never")

	groups := GroupsTable(map[string][]suite.SuiteCoverageData{"test": suites})
	assert.Contains(t, groups, "auth, cart")
	assert.Contains(t, groups, "60.00%")
}

func TestTrendText(t *testing.T) {
	st := history.Stats{Current: 70, Peak: 75, Low: 60, Average: 68.33, Count: 3}
	out := TrendText(history.Trend{Direction: history.Improving, Change: 2.5, Samples: 3}, true, st, true)
	assert.Contains(t, out, "average 68.33%")
	assert.Contains(t, out, "improving (+2.50 points")

	out = TrendText(history.Trend{}, false, st, true)
	assert.Contains(t, out, "not enough snapshots")
	assert.Equal(t, "No snapshots recorded", TrendText(history.Trend{}, false, history.Stats{}, false))
}

func TestSuggestionsAndDiff(t *testing.T) {
	s := suggest.Rank([]coverage.FileCoverageData{
		{File: "lib/a_service.dart", LinesFound: 10, LinesHit: 2, Percentage: 20, UncoveredLines: []int{3, 4, 5, 6, 7, 8, 9, 10}},
	}, 0)
	out := SuggestionsTable(s)
	assert.Contains(t, out, "lib/a_service.dart")
	assert.Contains(t, out, "medium")

	res := diffcov.Analyze(coverage.Parse("SF:lib/a.dart\nDA:1,1\nDA:2,0\nend_of_record\n"),
		map[string][]int{"lib/a.dart": {1, 2}}, "")
	out = DiffTable(res)
	assert.Contains(t, out, "exact")
	assert.Contains(t, out, "50.00%")

	assert.Equal(t, "No changed lines", DiffTable(diffcov.Result{}))
}

func TestMarkdown(t *testing.T) {
	report := coverage.Parse("SF:lib/a_widget.dart\nDA:1,1\nDA:2,0\nend_of_record\n")
	ts := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	md := Markdown(report, suggest.Rank(report.Files, 0), ts)
	assert.Contains(t, md, "# Coverage Report")
	assert.Contains(t, md, "Generated 2026-01-10T12:00:00Z")
	assert.Contains(t, md, "**Overall:** 50.00% (1 of 2 lines in 1 files)")
	assert.Contains(t, md, "| lib/a_widget.dart | 2 | 1 | 50.00% |")
	assert.Contains(t, md, "### 1. lib/a_widget.dart")

	md = Markdown(report, nil, ts)
	assert.NotContains(t, md, "Suggested Tests")
}

func TestMarkdownReporter_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	r := NewMarkdownReporter(dir)
	ts := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return ts }
	report := coverage.Parse("SF:a.go\nDA:1,1\nend_of_record\n")

	path, err := r.Save(report, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, fmt.Sprintf("coverage_20260110_120000_%d.md", ts.UnixNano())), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "100.00%")

	ts = ts.Add(time.Millisecond)
	second, err := r.Save(report, nil)
	require.NoError(t, err)
	assert.NotEqual(t, path, second)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
