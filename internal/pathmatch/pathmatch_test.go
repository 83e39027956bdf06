package pathmatch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjy-dev/covlens/internal/coverage"
)

func TestDeduceSource(t *testing.T) {
	conv := DefaultConvention()

	tests := []struct {
		name     string
		testPath string
		root     string
		want     string
		ok       bool
	}{
		{"relative mirror", "test/auth/login_test.dart", "/ws", "lib/auth/login.dart", true},
		{"absolute under root", "/ws/test/a/b_test.dart", "/ws", "lib/a/b.dart", true},
		{"windows separators", `test\auth\login_test.dart`, "/ws", "lib/auth/login.dart", true},
		{"missing suffix", "test/auth/login.dart", "/ws", "", false},
		{"outside test root", "lib/auth/login_test.dart", "/ws", "", false},
		{"absolute outside root", "/other/test/a_test.dart", "/ws", "", false},
		{"suffix only", "test/_test.dart", "/ws", "", false},
		{"empty", "", "/ws", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := conv.DeduceSource(tt.testPath, tt.root)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTestCandidates(t *testing.T) {
	conv := DefaultConvention()

	assert.Equal(t,
		[]string{"test/src/auth/login_test.dart", "test/auth/login_test.dart"},
		conv.TestCandidates("lib/src/auth/login.dart", "/ws"))

	assert.Equal(t,
		[]string{"test/auth/login_test.dart"},
		conv.TestCandidates("/ws/lib/auth/login.dart", "/ws"))

	assert.Empty(t, conv.TestCandidates("bin/main.dart", "/ws"))
	assert.Empty(t, conv.TestCandidates("/elsewhere/lib/a.dart", "/ws"))
}

func TestDeduceSource_RoundTrip(t *testing.T) {
	conv := DefaultConvention()
	for _, src := range []string{"lib/a.dart", "lib/x/y/z.dart", "lib/src/m.dart"} {
		cands := conv.TestCandidates(src, "/ws")
		require.NotEmpty(t, cands)
		got, ok := conv.DeduceSource(cands[0], "/ws")
		require.True(t, ok)
		assert.Equal(t, src, got)
	}
}

func TestResolveTestFile(t *testing.T) {
	root := t.TempDir()
	conv := DefaultConvention()

	got, exists := conv.ResolveTestFile("lib/src/auth/login.dart", root)
	assert.False(t, exists)
	assert.Equal(t, filepath.Join(root, "test", "src", "auth", "login_test.dart"), got)

	second := filepath.Join(root, "test", "auth", "login_test.dart")
	require.NoError(t, os.MkdirAll(filepath.Dir(second), 0o755))
	require.NoError(t, os.WriteFile(second, []byte("void main() {}"), 0o644))

	got, exists = conv.ResolveTestFile("lib/src/auth/login.dart", root)
	assert.True(t, exists)
	assert.Equal(t, second, got)

	got, exists = conv.ResolveTestFile("README.md", root)
	assert.False(t, exists)
	assert.Empty(t, got)
}

func TestSourceCandidates(t *testing.T) {
	conv := DefaultConvention()

	assert.Equal(t,
		[]string{"lib/auth/login.dart", "lib/src/auth/login.dart"},
		conv.SourceCandidates("test/auth/login_test.dart", "/ws"))
	assert.Equal(t,
		[]string{"lib/src/m.dart"},
		conv.SourceCandidates("test/src/m_test.dart", "/ws"))
	assert.Empty(t, conv.SourceCandidates("lib/a.dart", "/ws"))
}

func TestResolveSourceFile(t *testing.T) {
	root := t.TempDir()
	conv := DefaultConvention()

	got, exists := conv.ResolveSourceFile("test/auth/login_test.dart", root)
	assert.False(t, exists)
	assert.Equal(t, "lib/auth/login.dart", got)

	srcVariant := filepath.Join(root, "lib", "src", "auth", "login.dart")
	require.NoError(t, os.MkdirAll(filepath.Dir(srcVariant), 0o755))
	require.NoError(t, os.WriteFile(srcVariant, []byte("class Login {}"), 0o644))

	got, exists = conv.ResolveSourceFile("test/auth/login_test.dart", root)
	assert.True(t, exists)
	assert.Equal(t, "lib/src/auth/login.dart", got)

	got, exists = conv.ResolveSourceFile("README.md", root)
	assert.False(t, exists)
	assert.Empty(t, got)
}

func reportOf(paths ...string) coverage.Report {
	files := make([]coverage.FileCoverageData, len(paths))
	for i, p := range paths {
		files[i] = coverage.FileCoverageData{File: p, LinesFound: 1, LinesHit: 1, Percentage: 100}
	}
	return coverage.NewReport(files)
}

func TestMatchFile_Tiers(t *testing.T) {
	tests := []struct {
		name      string
		report    coverage.Report
		target    string
		wantFile  string
		wantTier  Tier
		wantFound bool
	}{
		{
			name:      "exact",
			report:    reportOf("lib/other/foo.dart", "lib/foo.dart"),
			target:    "lib/foo.dart",
			wantFile:  "lib/foo.dart",
			wantTier:  TierExact,
			wantFound: true,
		},
		{
			name:      "absolute under root becomes exact",
			report:    reportOf("/ws/lib/foo.dart"),
			target:    "lib/foo.dart",
			wantFile:  "/ws/lib/foo.dart",
			wantTier:  TierExact,
			wantFound: true,
		},
		{
			name:      "windows path exact",
			report:    reportOf(`lib\foo.dart`),
			target:    "lib/foo.dart",
			wantFile:  `lib\foo.dart`,
			wantTier:  TierExact,
			wantFound: true,
		},
		{
			name:      "absolute outside root is suffix",
			report:    reportOf("/build/agent/lib/foo.dart"),
			target:    "lib/foo.dart",
			wantFile:  "/build/agent/lib/foo.dart",
			wantTier:  TierSuffix,
			wantFound: true,
		},
		{
			name:      "basename only",
			report:    reportOf("weird/path/structure/foo.dart"),
			target:    "lib/foo.dart",
			wantFile:  "weird/path/structure/foo.dart",
			wantTier:  TierBasename,
			wantFound: true,
		},
		{
			name:      "suffix beats earlier basename",
			report:    reportOf("other/foo.dart", "pkg/lib/foo.dart"),
			target:    "lib/foo.dart",
			wantFile:  "pkg/lib/foo.dart",
			wantTier:  TierSuffix,
			wantFound: true,
		},
		{
			name:      "suffix needs a segment boundary",
			report:    reportOf("xlib/foo.dart"),
			target:    "lib/foo.dart",
			wantFile:  "xlib/foo.dart",
			wantTier:  TierBasename,
			wantFound: true,
		},
		{
			name:      "first in report order wins",
			report:    reportOf("a/foo.dart", "b/foo.dart"),
			target:    "lib/foo.dart",
			wantFile:  "a/foo.dart",
			wantTier:  TierBasename,
			wantFound: true,
		},
		{
			name:      "case sensitive",
			report:    reportOf("lib/Foo.dart"),
			target:    "lib/foo.dart",
			wantFound: false,
		},
		{
			name:      "empty report",
			report:    coverage.NewReport(nil),
			target:    "lib/foo.dart",
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := MatchFile(tt.report, tt.target, "/ws")
			require.Equal(t, tt.wantFound, ok)
			if !ok {
				assert.Equal(t, TierNone, m.Tier)
				return
			}
			assert.Equal(t, tt.wantFile, m.File.File)
			assert.Equal(t, tt.wantTier, m.Tier)
		})
	}
}

func TestMatchFile_EmptyTarget(t *testing.T) {
	_, ok := MatchFile(reportOf("a.dart"), "", "/ws")
	assert.False(t, ok)
}

func TestTier_String(t *testing.T) {
	assert.Equal(t, "exact", TierExact.String())
	assert.Equal(t, "suffix", TierSuffix.String())
	assert.Equal(t, "basename", TierBasename.String())
	assert.Equal(t, "none", TierNone.String())

	text, err := TierSuffix.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "suffix", string(text))
}

func TestSameFile(t *testing.T) {
	assert.True(t, SameFile("/ws/lib/a.dart", `lib\a.dart`, "/ws"))
	assert.True(t, SameFile("./lib/a.dart", "lib/a.dart", ""))
	assert.False(t, SameFile("lib/a.dart", "lib/b.dart", "/ws"))
	assert.False(t, SameFile("", "", "/ws"))
}

func TestDiscoverFiles(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{"lib/a.dart", "lib/src/b.dart", "lib/src/c.txt", "test/a_test.dart"} {
		full := filepath.Join(root, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, nil, 0o644))
	}

	got, err := DiscoverFiles(root, "lib/**/*.dart")
	require.NoError(t, err)
	assert.Equal(t, []string{"lib/a.dart", "lib/src/b.dart"}, got)

	_, err = DiscoverFiles(root, "lib/[")
	assert.Error(t, err)

	_, err = DiscoverFiles(filepath.Join(root, "missing"), "**")
	assert.Error(t, err)
}
