package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/zjy-dev/covlens/internal/config"
	"github.com/zjy-dev/covlens/internal/coverage"
	"github.com/zjy-dev/covlens/internal/history"
	"github.com/zjy-dev/covlens/internal/logger"
	"github.com/zjy-dev/covlens/internal/render"
)

// env is the state every command builds from its flags and the config.
type env struct {
	cfg    *config.Config
	root   string
	format render.Format
	loader *coverage.Loader
	out    io.Writer
	now    func() time.Time
}

// setup loads the config, initializes logging and resolves the workspace.
func (o *Options) setup(out io.Writer) (*env, error) {
	cfg, err := config.LoadConfigFile(o.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Log.Level
	if o.LogLevel != "" {
		level = o.LogLevel
	}
	if cfg.Log.Dir != "" {
		if err := logger.InitWithFile(level, cfg.Log.Dir); err != nil {
			return nil, err
		}
	} else {
		logger.SetLevel(level)
	}

	format, err := render.ParseFormat(o.Format)
	if err != nil {
		return nil, err
	}

	loader, err := coverage.NewLoader(cfg.Report.CacheSize)
	if err != nil {
		return nil, err
	}

	root := cfg.Workspace.Root
	if o.Root != "" {
		root = o.Root
	}
	// Report paths are often absolute; an absolute root lets them be made relative.
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	logger.Debug("Workspace root: %s", root)

	return &env{cfg: cfg, root: root, format: format, loader: loader, out: out, now: time.Now}, nil
}

// resolve makes a configured path relative to the workspace root.
func (e *env) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(e.root, p)
}

// reportPath picks the report given on the command line, or the configured one.
func (e *env) reportPath(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return e.resolve(e.cfg.Report.Path)
}

// loadReport reads a report and applies the configured include and
// exclude patterns.
func (e *env) loadReport(ctx context.Context, path string) (coverage.Report, error) {
	report, err := e.loader.Load(ctx, path)
	if err != nil {
		return coverage.Report{}, err
	}
	filtered, err := coverage.Filter(report, e.cfg.Report.Include, e.cfg.Report.Exclude)
	if err != nil {
		return coverage.Report{}, fmt.Errorf("failed to filter report: %w", err)
	}
	if dropped := len(report.Files) - len(filtered.Files); dropped > 0 {
		logger.Debug("Filtered out %d files of %s", dropped, path)
	}
	return filtered, nil
}

// historyStore returns the configured snapshot store.
func (e *env) historyStore() *history.FileStore {
	return history.NewFileStore(e.resolve(e.cfg.History.Path))
}

// tracker loads the stored snapshot log into a tracker.
func (e *env) tracker() (*history.Tracker, *history.FileStore, error) {
	store := e.historyStore()
	snaps, err := store.Load()
	if err != nil {
		return nil, nil, err
	}
	t := history.NewTracker(e.cfg.History.MaxSnapshots, history.WithClock(e.now))
	t.Restore(snaps)
	return t, store, nil
}

func (e *env) write(v any, tableFn func() string) error {
	return render.Write(e.out, e.format, v, tableFn)
}
