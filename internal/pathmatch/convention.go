// Package pathmatch maps source files to their tests and resolves a file
// against the entries of a coverage report.
package pathmatch

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/zjy-dev/covlens/internal/pattern"
)

// Convention describes where sources and tests live, relative to the
// workspace root. Tests mirror sources under TestRoot and carry TestSuffix
// before the file extension.
type Convention struct {
	SourceRoot string `mapstructure:"source_root" json:"sourceRoot" yaml:"sourceRoot"`
	TestRoot   string `mapstructure:"test_root" json:"testRoot" yaml:"testRoot"`
	SrcSegment string `mapstructure:"src_segment" json:"srcSegment" yaml:"srcSegment"`
	TestSuffix string `mapstructure:"test_suffix" json:"testSuffix" yaml:"testSuffix"`
}

// DefaultConvention is lib/ (with an optional src/ segment) mirrored by test/
// with a _test suffix.
func DefaultConvention() Convention {
	return Convention{
		SourceRoot: "lib",
		TestRoot:   "test",
		SrcSegment: "src",
		TestSuffix: "_test",
	}
}

// Relative returns p relative to root in forward-slash form. Relative
// inputs are only normalized; absolute inputs outside root are returned
// normalized but unchanged, with ok=false.
func Relative(p, root string) (string, bool) {
	if p == "" {
		return "", false
	}
	norm := pattern.Normalize(p)
	if !isAbs(norm) {
		return norm, true
	}
	if root == "" {
		return norm, false
	}

	r := strings.TrimSuffix(pattern.Normalize(root), "/")
	if norm == r {
		return ".", true
	}
	if strings.HasPrefix(norm, r+"/") {
		return norm[len(r)+1:], true
	}
	return norm, false
}

// isAbs recognizes both unix and windows drive-letter absolute paths, since
// report paths may come from another OS.
func isAbs(p string) bool {
	if strings.HasPrefix(p, "/") {
		return true
	}
	return len(p) >= 3 && p[1] == ':' && p[2] == '/'
}

// hasDirPrefix reports whether p lies under dir and returns the remainder.
func hasDirPrefix(p, dir string) (string, bool) {
	if dir == "" {
		return p, true
	}
	if strings.HasPrefix(p, dir+"/") {
		return p[len(dir)+1:], true
	}
	return "", false
}

// DeduceSource maps a test file to the source file it exercises. It returns
// false when testPath does not follow the test convention.
func (c Convention) DeduceSource(testPath, root string) (string, bool) {
	rel, ok := Relative(testPath, root)
	if !ok {
		return "", false
	}

	rest, ok := hasDirPrefix(rel, c.TestRoot)
	if !ok || rest == "" {
		return "", false
	}

	ext := path.Ext(rest)
	stem := strings.TrimSuffix(rest, ext)
	if c.TestSuffix == "" || !strings.HasSuffix(stem, c.TestSuffix) {
		return "", false
	}
	stem = strings.TrimSuffix(stem, c.TestSuffix)
	if stem == "" || strings.HasSuffix(stem, "/") {
		return "", false
	}

	return path.Join(c.SourceRoot, stem+ext), true
}

// SourceCandidates lists the source paths a test file may exercise, most
// specific first: the deduced mirror, then the same path under the src
// segment. Paths are relative to root. A path that is not a test has none.
func (c Convention) SourceCandidates(testPath, root string) []string {
	src, ok := c.DeduceSource(testPath, root)
	if !ok {
		return nil
	}
	candidates := []string{src}

	if c.SrcSegment != "" {
		rest, _ := hasDirPrefix(src, c.SourceRoot)
		if _, inSrc := hasDirPrefix(rest, c.SrcSegment); !inSrc {
			candidates = append(candidates, path.Join(c.SourceRoot, c.SrcSegment, rest))
		}
	}
	return candidates
}

// ResolveSourceFile returns the first source candidate that exists under
// root, relative to root. When none exists, the deduced mirror is returned
// with exists=false. An empty path means testPath is not a test.
func (c Convention) ResolveSourceFile(testPath, root string) (string, bool) {
	candidates := c.SourceCandidates(testPath, root)
	if len(candidates) == 0 {
		return "", false
	}
	for _, cand := range candidates {
		if isFile(filepath.Join(root, filepath.FromSlash(cand))) {
			return cand, true
		}
	}
	return candidates[0], false
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// TestCandidates lists the test paths a source file may have, most specific
// first: the direct mirror under TestRoot, then, for sources under the src
// segment, the mirror with that segment dropped. Paths are relative to root.
// A path outside SourceRoot has no candidates.
func (c Convention) TestCandidates(sourcePath, root string) []string {
	rel, ok := Relative(sourcePath, root)
	if !ok {
		return nil
	}
	rest, ok := hasDirPrefix(rel, c.SourceRoot)
	if !ok || rest == "" {
		return nil
	}

	ext := path.Ext(rest)
	stem := strings.TrimSuffix(rest, ext)
	candidates := []string{path.Join(c.TestRoot, stem+c.TestSuffix+ext)}

	if c.SrcSegment != "" {
		if inner, ok := hasDirPrefix(stem, c.SrcSegment); ok && inner != "" {
			candidates = append(candidates, path.Join(c.TestRoot, inner+c.TestSuffix+ext))
		}
	}
	return candidates
}

// ResolveTestFile returns the first candidate test file that exists under
// root. When none exists, the first candidate is returned as the canonical
// place to create one, with exists=false. An empty path means the source
// follows no convention.
func (c Convention) ResolveTestFile(sourcePath, root string) (string, bool) {
	candidates := c.TestCandidates(sourcePath, root)
	if len(candidates) == 0 {
		return "", false
	}
	for _, cand := range candidates {
		full := filepath.Join(root, filepath.FromSlash(cand))
		if isFile(full) {
			return full, true
		}
	}
	return filepath.Join(root, filepath.FromSlash(candidates[0])), false
}
