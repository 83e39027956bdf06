package coverage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/zjy-dev/covlens/internal/logger"
)

// DefaultLoaderCacheSize is the number of parsed reports a Loader keeps.
const DefaultLoaderCacheSize = 64

// ctxReader stops reading as soon as its context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// ReadFile reads and parses the report at path. The whole file is read
// before parsing starts, so a cancelled or failed read never yields a
// partial report. Go coverprofiles are detected by their "mode:" header and
// gcovr uncovered reports by being JSON; anything else is parsed as LCOV.
func ReadFile(ctx context.Context, path string) (Report, error) {
	data, err := readAll(ctx, path)
	if err != nil {
		return Report{}, err
	}
	return parseData(data)
}

func readAll(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("failed to read coverage report: empty path")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open coverage report %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(ctxReader{ctx: ctx, r: f})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to read coverage report %s: %w", path, err)
	}
	return data, nil
}

func parseData(data []byte) (Report, error) {
	switch {
	case IsGoProfile(data):
		return ParseGoProfile(bytes.NewReader(data))
	case IsGcovrJSON(data):
		return ParseGcovrUncovered(data)
	}
	return ParseReader(bytes.NewReader(data))
}

type cachedReport struct {
	modTime time.Time
	size    int64
	report  Report
}

// Loader reads reports from disk and keeps recently parsed ones, keyed by
// path and invalidated when the file's size or modification time changes.
// Reports returned from the cache are shared and must not be modified.
type Loader struct {
	cache *lru.Cache[string, cachedReport]
}

// NewLoader creates a Loader caching up to size parsed reports.
func NewLoader(size int) (*Loader, error) {
	if size <= 0 {
		size = DefaultLoaderCacheSize
	}
	cache, err := lru.New[string, cachedReport](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create report cache: %w", err)
	}
	return &Loader{cache: cache}, nil
}

// Load returns the parsed report at path, reusing a cached parse when the
// file is unchanged.
func (l *Loader) Load(ctx context.Context, path string) (Report, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Report{}, fmt.Errorf("failed to stat coverage report %s: %w", path, err)
	}

	if c, ok := l.cache.Get(path); ok && c.size == info.Size() && c.modTime.Equal(info.ModTime()) {
		logger.Debug("Using cached coverage report %s", path)
		return c.report, nil
	}

	report, err := ReadFile(ctx, path)
	if err != nil {
		return Report{}, err
	}
	l.cache.Add(path, cachedReport{modTime: info.ModTime(), size: info.Size(), report: report})
	logger.Debug("Parsed coverage report %s: %d files, %.2f%%", path, len(report.Files), report.Overall.Percentage)
	return report, nil
}

// Forget drops any cached parse of path.
func (l *Loader) Forget(path string) {
	l.cache.Remove(path)
}
