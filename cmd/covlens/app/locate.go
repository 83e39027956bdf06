package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type locateResult struct {
	Path       string   `json:"path" yaml:"path"`
	Kind       string   `json:"kind" yaml:"kind"`
	Source     string   `json:"source,omitempty" yaml:"source,omitempty"`
	Candidates []string `json:"candidates,omitempty" yaml:"candidates,omitempty"`
	TestFile   string   `json:"testFile,omitempty" yaml:"testFile,omitempty"`
	Exists     bool     `json:"exists" yaml:"exists"`
}

// NewLocateCommand creates the "locate" subcommand.
func NewLocateCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locate <file>...",
		Short: "Map test files to sources and sources to their tests.",
		Long: `For a test file, print the source file it exercises. For a source
file, print where its test lives, or where it should be created.
Locations follow config.conventions.

Examples:
  covlens locate test/auth/login_test.dart
  covlens locate lib/src/auth/login.dart`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			conv := e.cfg.Conventions
			results := make([]locateResult, 0, len(args))
			for _, p := range args {
				if src, exists := conv.ResolveSourceFile(p, e.root); src != "" {
					results = append(results, locateResult{Path: p, Kind: "test", Source: src, Exists: exists})
					continue
				}
				candidates := conv.TestCandidates(p, e.root)
				if len(candidates) == 0 {
					results = append(results, locateResult{Path: p, Kind: "unknown"})
					continue
				}
				testFile, exists := conv.ResolveTestFile(p, e.root)
				results = append(results, locateResult{
					Path: p, Kind: "source", Candidates: candidates, TestFile: testFile, Exists: exists,
				})
			}

			return e.write(results, func() string { return locateText(results) })
		},
	}

	return cmd
}

func locateText(results []locateResult) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		switch r.Kind {
		case "test":
			fmt.Fprintf(&b, "%s tests %s", r.Path, r.Source)
			if !r.Exists {
				b.WriteString(" (missing)")
			}
		case "source":
			state := "missing, create it at"
			if r.Exists {
				state = "found at"
			}
			fmt.Fprintf(&b, "%s: test %s %s", r.Path, state, r.TestFile)
		default:
			fmt.Fprintf(&b, "%s: follows no source or test convention", r.Path)
		}
	}
	return b.String()
}
