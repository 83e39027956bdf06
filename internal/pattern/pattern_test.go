package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Semantics(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"*", "a/b/c.dart", true},
		{"test/*", "test/auth/login_test.dart", true},
		{"test/*_test.dart", "test/auth/login_test.dart", true},
		{"test/**/login_test.dart", "test/auth/login_test.dart", true},
		{"test/**", "test/a/b/c", true},
		{"test/?.dart", "test/a.dart", true},
		{"test/?.dart", "test/ab.dart", false},
		{"test/a?b", "test/a/b", true},
		{"lib/*.dart", "test/a.dart", false},
		{"*auth*", `test\auth\x_test.dart`, true},
		{"test/{auth,login}/*", "test/login/x", true},
		{"Test/*", "test/x", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.path, func(t *testing.T) {
			g, err := Compile(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.Match(tt.path))
		})
	}
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile("lib/[a")
	assert.Error(t, err)

	_, err = CompileAll([]string{"ok/*", "bad/[x"})
	assert.Error(t, err)
}

func TestSet_First(t *testing.T) {
	set, err := CompileAll([]string{"test/auth/*", "test/*", "lib/*"})
	require.NoError(t, err)

	i, ok := set.First("test/auth/login_test.dart")
	assert.True(t, ok)
	assert.Equal(t, 0, i)

	i, ok = set.First("test/profile/x_test.dart")
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = set.First("bin/main.dart")
	assert.False(t, ok)
	assert.False(t, Set(nil).Match("anything"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a/b/c", Normalize(`a\b\c`))
	assert.Equal(t, "a/c", Normalize("./a/b/../c"))
	assert.Equal(t, "/abs/x", Normalize("/abs//x"))
	assert.Equal(t, "", Normalize(""))
}

func TestGlob_String(t *testing.T) {
	g, err := Compile("lib/**")
	require.NoError(t, err)
	assert.Equal(t, "lib/**", g.String())
}
