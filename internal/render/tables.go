package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/zjy-dev/covlens/internal/coverage"
	"github.com/zjy-dev/covlens/internal/diffcov"
	"github.com/zjy-dev/covlens/internal/history"
	"github.com/zjy-dev/covlens/internal/pathmatch"
	"github.com/zjy-dev/covlens/internal/suggest"
	"github.com/zjy-dev/covlens/internal/suite"
)

func lines(n int) string {
	return humanize.Comma(int64(n))
}

// ReportTable lists every file of a report with a total footer.
func ReportTable(report coverage.Report) string {
	if report.IsEmpty() {
		return "No coverage data"
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"File", "Lines", "Hit", "Coverage", ""})
	for _, f := range report.Files {
		tbl.AppendRow(table.Row{f.File, lines(f.LinesFound), lines(f.LinesHit), Percent(f.Percentage), Bar(f.Percentage)})
	}
	o := report.Overall
	tbl.AppendFooter(table.Row{
		fmt.Sprintf("Total: %d files", len(report.Files)),
		lines(o.LinesFound), lines(o.LinesHit), Percent(o.Percentage), Bar(o.Percentage),
	})
	return tbl.Render()
}

// PlatformsTable shows each platform's overall coverage next to the merged result.
func PlatformsTable(platforms map[string]coverage.Report, merged coverage.Report) string {
	names := make([]string, 0, len(platforms))
	for name := range platforms {
		names = append(names, name)
	}
	sort.Strings(names)

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Platform", "Files", "Lines", "Hit", "Coverage"})
	for _, name := range names {
		o := platforms[name].Overall
		tbl.AppendRow(table.Row{name, len(platforms[name].Files), lines(o.LinesFound), lines(o.LinesHit), Percent(o.Percentage)})
	}
	o := merged.Overall
	tbl.AppendFooter(table.Row{"Merged", len(merged.Files), lines(o.LinesFound), lines(o.LinesHit), Percent(o.Percentage)})
	return tbl.Render()
}

// MatchText describes which report entry a path resolved to.
func MatchText(target string, m pathmatch.Match, ok bool) string {
	if !ok {
		return fmt.Sprintf("%s: no coverage entry", target)
	}
	f := m.File
	return fmt.Sprintf("%s -> %s (%s match)\n%s of %s lines covered, %s\nUncovered: %s",
		target, f.File, m.Tier, lines(f.LinesHit), lines(f.LinesFound), Percent(f.Percentage),
		LineRanges(f.UncoveredLines))
}

// LineRanges compresses ascending line numbers into "1-3, 7, 9-10".
func LineRanges(ls []int) string {
	if len(ls) == 0 {
		return "none"
	}

	var parts []string
	start, prev := ls[0], ls[0]
	flush := func() {
		if start == prev {
			parts = append(parts, fmt.Sprint(start))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", start, prev))
		}
	}
	for _, l := range ls[1:] {
		if l == prev+1 {
			prev = l
			continue
		}
		flush()
		start, prev = l, l
	}
	flush()
	return strings.Join(parts, ", ")
}

// SuggestionsTable lists ranked suggestions.
func SuggestionsTable(s []suggest.TestSuggestion) string {
	if len(s) == 0 {
		return "Nothing to suggest: every file is fully covered"
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"#", "File", "Priority", "Score", "Uncovered", "Coverage", "Complexity", "Suggestions"})
	for i, sg := range s {
		tbl.AppendRow(table.Row{
			i + 1, sg.File, sg.Priority, fmt.Sprintf("%.2f", sg.PriorityScore),
			lines(sg.UncoveredCount), Percent(sg.CoveragePercentage), sg.Complexity,
			strings.Join(sg.Suggestions, "\n"),
		})
	}
	return tbl.Render()
}

// SuitesTable lists suites with their coverage and last run.
func SuitesTable(suites []suite.SuiteCoverageData, now time.Time) string {
	if len(suites) == 0 {
		return "No suites recorded"
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Suite", "Path", "Files", "Lines", "Covered", "Coverage", "Last run"})
	for _, s := range suites {
		lastRun := "never"
		if s.LastRun != nil {
			lastRun = humanize.RelTime(*s.LastRun, now, "ago", "from now")
		}
		tbl.AppendRow(table.Row{
			s.SuiteName, s.SuitePath, len(s.CoveredFiles), lines(s.TotalLines), lines(s.CoveredLines),
			Percent(s.CoveragePercent), lastRun,
		})
	}
	return tbl.Render()
}

// GroupsTable shows suites grouped by directory or feature.
func GroupsTable(groups map[string][]suite.SuiteCoverageData) string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Group", "Suites", "Mean coverage"})
	for _, name := range names {
		members := groups[name]
		suiteNames := make([]string, len(members))
		sum := 0.0
		for i, s := range members {
			suiteNames[i] = s.SuiteName
			sum += s.CoveragePercent
		}
		mean := 0.0
		if len(members) > 0 {
			mean = coverage.Round2(sum / float64(len(members)))
		}
		tbl.AppendRow(table.Row{name, strings.Join(suiteNames, ", "), Percent(mean)})
	}
	return tbl.Render()
}

// OverlapText describes the overlap between two suites.
func OverlapText(o suite.Overlap) string {
	return fmt.Sprintf("%s and %s share %d files; %s lines covered by both (%s of %s)",
		o.Suite1, o.Suite2, len(o.SharedFiles), lines(o.OverlapLines), Percent(o.OverlapPercent), o.Suite1)
}

// AggregateText summarizes the union of all suites.
func AggregateText(a suite.AggregateSuiteCoverage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d suites cover %s of %s lines (%s)\n",
		len(a.Suites), lines(a.TotalCoveredLines), lines(a.TotalLines), Percent(a.TotalCoveragePercent))
	if len(a.UncoveredFiles) == 0 {
		b.WriteString("Every known file is covered by at least one suite")
		return b.String()
	}
	fmt.Fprintf(&b, "%d files covered by no suite:", len(a.UncoveredFiles))
	for _, f := range a.UncoveredFiles {
		b.WriteString("\n  " + f)
	}
	return b.String()
}

// LineOwnersTable lists which suites cover each line of a file.
func LineOwnersTable(owners []suite.LineOwners) string {
	if len(owners) == 0 {
		return "No suite covers this file"
	}
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Line", "Suites"})
	for _, o := range owners {
		tbl.AppendRow(table.Row{o.Line, strings.Join(o.Suites, ", ")})
	}
	return tbl.Render()
}

// UniqueLinesTable lists how many lines only each suite covers.
func UniqueLinesTable(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Suite", "Unique lines"})
	for _, name := range names {
		tbl.AppendRow(table.Row{name, lines(counts[name])})
	}
	return tbl.Render()
}

// HistoryTable lists snapshots newest first with relative timestamps.
func HistoryTable(snaps []history.Snapshot, now time.Time) string {
	if len(snaps) == 0 {
		return "No snapshots recorded"
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"When", "Platform", "Lines", "Hit", "Coverage"})
	for _, s := range snaps {
		tbl.AppendRow(table.Row{
			humanize.RelTime(s.Timestamp, now, "ago", "from now"), s.Platform,
			lines(s.LinesFound), lines(s.LinesHit), Percent(s.OverallPercentage),
		})
	}
	return tbl.Render()
}

// TrendText describes a trend and the overall statistics.
func TrendText(tr history.Trend, hasTrend bool, st history.Stats, hasStats bool) string {
	if !hasStats {
		return "No snapshots recorded"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Current %s, peak %s, low %s, average %s over %d snapshots",
		Percent(st.Current), Percent(st.Peak), Percent(st.Low), Percent(st.Average), st.Count)
	if hasTrend {
		fmt.Fprintf(&b, "\nTrend: %s (%+.2f points across %d snapshots)", tr.Direction, tr.Change, tr.Samples)
	} else {
		b.WriteString("\nTrend: not enough snapshots in the window")
	}
	return b.String()
}

// DiffTable lists diff coverage per changed file.
func DiffTable(res diffcov.Result) string {
	if len(res.Files) == 0 {
		return "No changed lines"
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"File", "Match", "Changed", "Covered", "Uncovered lines", "Coverage"})
	for _, f := range res.Files {
		tbl.AppendRow(table.Row{
			f.File, f.Tier, len(f.Changed), len(f.Covered), LineRanges(f.Uncovered), Percent(f.Summary.Percentage),
		})
	}
	o := res.Overall
	tbl.AppendFooter(table.Row{"Total", "", "", lines(o.LinesHit), "", Percent(o.Percentage)})
	return tbl.Render()
}
