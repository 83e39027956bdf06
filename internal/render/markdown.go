package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/zjy-dev/covlens/internal/coverage"
	"github.com/zjy-dev/covlens/internal/suggest"
)

// MarkdownReporter saves coverage reports as markdown files.
type MarkdownReporter struct {
	outputDir string
	now       func() time.Time
}

// NewMarkdownReporter creates a MarkdownReporter writing into outputDir.
func NewMarkdownReporter(outputDir string) *MarkdownReporter {
	return &MarkdownReporter{
		outputDir: outputDir,
		now:       time.Now,
	}
}

// Save writes report and its suggestions to a new file named after the
// current time and returns its path.
func (r *MarkdownReporter) Save(report coverage.Report, suggestions []suggest.TestSuggestion) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	ts := r.now()
	name := fmt.Sprintf("coverage_%s_%d.md", ts.Format("20060102_150405"), ts.UnixNano())
	reportPath := filepath.Join(r.outputDir, name)
	if err := os.WriteFile(reportPath, []byte(Markdown(report, suggestions, ts)), 0644); err != nil {
		return "", fmt.Errorf("failed to write markdown report: %w", err)
	}
	return reportPath, nil
}

// Markdown renders a coverage report as a markdown document.
func Markdown(report coverage.Report, suggestions []suggest.TestSuggestion, ts time.Time) string {
	var b strings.Builder
	o := report.Overall

	b.WriteString("# Coverage Report\n\n")
	fmt.Fprintf(&b, "Generated %s\n\n", ts.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "**Overall:** %s (%s of %s lines in %d files)\n\n",
		Percent(o.Percentage), lines(o.LinesHit), lines(o.LinesFound), len(report.Files))

	b.WriteString("## Files\n\n")
	files := table.NewWriter()
	files.AppendHeader(table.Row{"File", "Lines", "Hit", "Coverage"})
	for _, f := range report.Files {
		files.AppendRow(table.Row{f.File, lines(f.LinesFound), lines(f.LinesHit), Percent(f.Percentage)})
	}
	b.WriteString(files.RenderMarkdown())
	b.WriteString("\n")

	if len(suggestions) == 0 {
		return b.String()
	}

	b.WriteString("\n## Suggested Tests\n\n")
	for i, s := range suggestions {
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, s.File)
		fmt.Fprintf(&b, "**Priority:** %s (score %.2f), **Complexity:** %s, **Uncovered lines:** %d\n\n",
			s.Priority, s.PriorityScore, s.Complexity, s.UncoveredCount)
		for _, advice := range s.Suggestions {
			fmt.Fprintf(&b, "- %s\n", advice)
		}
		b.WriteString("\n")
	}
	return b.String()
}
