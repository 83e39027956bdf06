package aggregate

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

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

// PlatformAggregator keeps the last loaded report of each platform.
type PlatformAggregator struct {
	loader      ReportLoader
	concurrency int
	reports     *cache.Store[string, coverage.Report]
}

// NewPlatformAggregator creates an aggregator. A nil loader reads files
// directly without caching. concurrency <= 0 means unlimited.
func NewPlatformAggregator(loader ReportLoader, concurrency int) *PlatformAggregator {
	if loader == nil {
		loader = readFileLoader{}
	}
	return &PlatformAggregator{
		loader:      loader,
		concurrency: concurrency,
		reports:     cache.New[string, coverage.Report](),
	}
}

// Load reads the report of every platform in sources (platform -> path)
// concurrently. Only when all reads succeed does the loaded set replace the
// previous one; on failure the previous set stays in place.
func (a *PlatformAggregator) Load(ctx context.Context, sources map[string]string) error {
	platforms := sortedKeys(sources)
	results := make([]coverage.Report, len(platforms))

	g, gctx := errgroup.WithContext(ctx)
	if a.concurrency > 0 {
		g.SetLimit(a.concurrency)
	}
	for i, p := range platforms {
		g.Go(func() error {
			report, err := a.loader.Load(gctx, sources[p])
			if err != nil {
				return fmt.Errorf("failed to load %s coverage: %w", p, err)
			}
			results[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	next := make(map[string]coverage.Report, len(platforms))
	for i, p := range platforms {
		next[p] = results[i]
	}
	a.reports.ReplaceAll(next)

	logger.Info("Loaded coverage for %d platforms", len(platforms))
	return nil
}

// Set replaces the report of one platform.
func (a *PlatformAggregator) Set(platform string, report coverage.Report) {
	a.reports.Put(platform, report)
}

// Platform returns the last loaded report of platform.
func (a *PlatformAggregator) Platform(name string) (coverage.Report, bool) {
	return a.reports.Get(name)
}

// Platforms returns the loaded platform names, sorted.
func (a *PlatformAggregator) Platforms() []string {
	return sortedKeys(a.reports.Snapshot())
}

// Merged unions the reports of all loaded platforms, visiting platforms in
// name order so the merged file order is stable.
func (a *PlatformAggregator) Merged() coverage.Report {
	snap := a.reports.Snapshot()
	reports := make([]coverage.Report, 0, len(snap))
	for _, p := range sortedKeys(snap) {
		reports = append(reports, snap[p])
	}
	return Merge(reports...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
