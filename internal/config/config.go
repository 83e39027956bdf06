package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/zjy-dev/covlens/internal/pathmatch"
	"github.com/zjy-dev/covlens/internal/suite"
)

const (
	// DefaultConfigName is the config file searched for, without extension.
	DefaultConfigName = "covlens"

	// envPrefix prefixes environment overrides, e.g. COVLENS_REPORT_PATH.
	envPrefix = "COVLENS"

	// rootKey is the top-level object every config file nests under.
	rootKey = "config"
)

// Validation errors.
var (
	ErrInvalidMaxSnapshots = errors.New("history.max_snapshots must be at least 1")
	ErrInvalidThreshold    = errors.New("thresholds must be between 0 and 100")
	ErrInvalidRetention    = errors.New("history.retention_days must not be negative")
)

// WorkspaceConfig locates the project being analyzed.
type WorkspaceConfig struct {
	Root string `mapstructure:"root"`
}

// ReportConfig describes the default coverage report and how to read it.
type ReportConfig struct {
	Path        string   `mapstructure:"path"`
	Include     []string `mapstructure:"include"`
	Exclude     []string `mapstructure:"exclude"`
	CacheSize   int      `mapstructure:"cache_size"`
	Concurrency int      `mapstructure:"concurrency"`
}

// SuiteConfig binds a test suite to the reports its runs produce.
type SuiteConfig struct {
	Name    string   `mapstructure:"name"`
	Path    string   `mapstructure:"path"`
	Reports []string `mapstructure:"reports"`
	Feature string   `mapstructure:"feature"`
}

// HistoryConfig controls the snapshot log.
type HistoryConfig struct {
	Path            string `mapstructure:"path"`
	MaxSnapshots    int    `mapstructure:"max_snapshots"`
	RetentionDays   int    `mapstructure:"retention_days"`
	TrendWindowDays int    `mapstructure:"trend_window_days"`
}

// SuggestionsConfig controls test suggestions.
type SuggestionsConfig struct {
	TopN int `mapstructure:"top_n"`
}

// ThresholdsConfig holds coverage gates, in percent.
type ThresholdsConfig struct {
	// MinCoverage fails the summary command when overall coverage is lower.
	MinCoverage float64 `mapstructure:"min_coverage"`
	// Suite is the level below which a suite is reported as lagging.
	Suite float64 `mapstructure:"suite"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
	Dir   string `mapstructure:"dir"`
}

// Config is the full covlens configuration.
type Config struct {
	Workspace   WorkspaceConfig      `mapstructure:"workspace"`
	Conventions pathmatch.Convention `mapstructure:"conventions"`
	SourceGlob  string               `mapstructure:"source_glob"`
	Report      ReportConfig         `mapstructure:"report"`
	// Platforms maps a platform name to its report path.
	Platforms   map[string]string `mapstructure:"platforms"`
	Suites      []SuiteConfig     `mapstructure:"suites"`
	Features    []suite.Feature   `mapstructure:"features"`
	History     HistoryConfig     `mapstructure:"history"`
	Suggestions SuggestionsConfig `mapstructure:"suggestions"`
	Thresholds  ThresholdsConfig  `mapstructure:"thresholds"`
	Log         LogConfig         `mapstructure:"log"`
}

// file is the on-disk layout: everything lives under the "config" key.
type file struct {
	Config Config `mapstructure:"config"`
}

// Load reads a configuration file from the "configs" directory into a struct.
// The configName parameter should be the base name of the file without the extension (e.g., "covlens").
// The result parameter should be a pointer to a struct that the configuration will be unmarshaled into.
// Defaults and COVLENS_* environment overrides apply to the covlens config keys.
func Load(configName string, result interface{}) error {
	v := newViper()
	v.SetConfigName(configName)
	addSearchPaths(v)
	return decode(v, result)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(rootKey+".", "", ".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper, result interface{}) error {
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := v.Unmarshal(result); err != nil {
		return fmt.Errorf("failed to unmarshal config data: %w", err)
	}
	return nil
}

// addSearchPaths lets commands and package tests find configs/ from the
// module root or from a package directory.
func addSearchPaths(v *viper.Viper) {
	v.AddConfigPath(".")
	v.AddConfigPath("configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")
}

// LoadConfig loads covlens.yaml from the search paths, falling back to
// defaults when no file exists.
func LoadConfig() (*Config, error) {
	return LoadConfigFile("")
}

// LoadConfigFile loads configuration from path, or from the search paths
// when path is empty. A .env file in the working directory is loaded first
// and COVLENS_* environment variables override file values, e.g.
// COVLENS_REPORT_PATH for config.report.path.
func LoadConfigFile(path string) (*Config, error) {
	_ = godotenv.Load()

	var f file
	if path != "" {
		v := newViper()
		v.SetConfigFile(path)
		if err := decode(v, &f); err != nil {
			return nil, err
		}
	} else if err := Load(DefaultConfigName, &f); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		f = file{}
		if err := newViper().Unmarshal(&f); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
		}
	}

	cfg := f.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var f file
	// Defaults are static and always decode.
	_ = v.Unmarshal(&f)
	return &f.Config
}

func setDefaults(v *viper.Viper) {
	conv := pathmatch.DefaultConvention()

	v.SetDefault("config.workspace.root", ".")

	v.SetDefault("config.conventions.source_root", conv.SourceRoot)
	v.SetDefault("config.conventions.test_root", conv.TestRoot)
	v.SetDefault("config.conventions.src_segment", conv.SrcSegment)
	v.SetDefault("config.conventions.test_suffix", conv.TestSuffix)

	v.SetDefault("config.source_glob", "lib/**/*.dart")

	v.SetDefault("config.report.path", "coverage/lcov.info")
	v.SetDefault("config.report.cache_size", 64)
	v.SetDefault("config.report.concurrency", 4)

	v.SetDefault("config.history.path", ".covlens/coverage_history.json")
	v.SetDefault("config.history.max_snapshots", 100)
	v.SetDefault("config.history.retention_days", 90)
	v.SetDefault("config.history.trend_window_days", 30)

	v.SetDefault("config.suggestions.top_n", 10)

	v.SetDefault("config.thresholds.min_coverage", 0.0)
	v.SetDefault("config.thresholds.suite", 80.0)

	v.SetDefault("config.log.level", "info")
	v.SetDefault("config.log.dir", "")
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.History.MaxSnapshots < 1 {
		return ErrInvalidMaxSnapshots
	}
	if c.History.RetentionDays < 0 {
		return ErrInvalidRetention
	}
	for _, t := range []float64{c.Thresholds.MinCoverage, c.Thresholds.Suite} {
		if t < 0 || t > 100 {
			return ErrInvalidThreshold
		}
	}
	return nil
}

// SuiteByName returns the configured suite called name.
func (c *Config) SuiteByName(name string) (SuiteConfig, bool) {
	for _, s := range c.Suites {
		if s.Name == name {
			return s, true
		}
	}
	return SuiteConfig{}, false
}
