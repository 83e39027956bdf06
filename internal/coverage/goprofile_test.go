package coverage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goProfile = `mode: set
example.com/m/a.go:3.14,5.2 2 1
example.com/m/a.go:7.10,9.2 1 0
example.com/m/b.go:1.1,2.2 1 0
example.com/m/b.go:2.5,2.20 1 1
`

func TestIsGoProfile(t *testing.T) {
	assert.True(t, IsGoProfile([]byte(goProfile)))
	assert.True(t, IsGoProfile([]byte("\n\nmode: atomic\n")))
	assert.False(t, IsGoProfile([]byte("SF:a\nend_of_record\n")))
	assert.False(t, IsGoProfile(nil))
}

func TestParseGoProfile(t *testing.T) {
	report, err := ParseGoProfile(strings.NewReader(goProfile))
	require.NoError(t, err)
	require.Len(t, report.Files, 2)

	a := report.Files[0]
	assert.Equal(t, "example.com/m/a.go", a.File)
	assert.Equal(t, []int{3, 4, 5}, a.CoveredLines)
	assert.Equal(t, []int{7, 8, 9}, a.UncoveredLines)
	assert.Equal(t, 50.0, a.Percentage)

	// Line 2 is shared by an unexecuted and an executed block; covered wins.
	b := report.Files[1]
	assert.Equal(t, []int{2}, b.CoveredLines)
	assert.Equal(t, []int{1}, b.UncoveredLines)

	assert.Equal(t, Summary{LinesFound: 8, LinesHit: 4, Percentage: 50}, report.Overall)
}

func TestParseGoProfile_Malformed(t *testing.T) {
	report, err := ParseGoProfile(strings.NewReader("mode: set\nnot a block line\n"))
	require.NoError(t, err)
	assert.Empty(t, report.Files)
}
