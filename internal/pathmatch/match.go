package pathmatch

import (
	"path"
	"strings"

	"github.com/zjy-dev/covlens/internal/coverage"
)

// Tier says how strongly a report entry matched a target path.
type Tier int

const (
	// TierNone means nothing matched.
	TierNone Tier = iota
	// TierExact is equality after normalization.
	TierExact
	// TierSuffix means the report path ends with the target on a segment boundary.
	TierSuffix
	// TierBasename means only the file names agree.
	TierBasename
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierSuffix:
		return "suffix"
	case TierBasename:
		return "basename"
	default:
		return "none"
	}
}

// MarshalText renders the tier by name in json and yaml output.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Match is a report entry associated with a target path.
type Match struct {
	File coverage.FileCoverageData `json:"file" yaml:"file"`
	// Index is the position of File in the report.
	Index int  `json:"index" yaml:"index"`
	Tier  Tier `json:"tier" yaml:"tier"`
}

// MatchFile finds the report entry for target. Report paths are normalized
// to forward slashes and, when absolute under root, made relative to it.
// Tiers are tried strongest first and within a tier the earliest entry in
// report order wins.
func MatchFile(report coverage.Report, target, root string) (Match, bool) {
	want, _ := Relative(target, root)
	if want == "" || want == "." {
		return Match{}, false
	}

	keys := make([]string, len(report.Files))
	for i, f := range report.Files {
		keys[i], _ = Relative(f.File, root)
	}

	for i, k := range keys {
		if k == want {
			return Match{File: report.Files[i], Index: i, Tier: TierExact}, true
		}
	}

	for i, k := range keys {
		if hasPathSuffix(k, want) {
			return Match{File: report.Files[i], Index: i, Tier: TierSuffix}, true
		}
	}

	base := path.Base(want)
	for i, k := range keys {
		if k != "" && path.Base(k) == base {
			return Match{File: report.Files[i], Index: i, Tier: TierBasename}, true
		}
	}

	return Match{}, false
}

// hasPathSuffix reports whether p ends with suffix at a segment boundary,
// so "lib/foo.dart" does not match "lib/barfoo.dart".
func hasPathSuffix(p, suffix string) bool {
	suffix = strings.TrimPrefix(suffix, "/")
	if suffix == "" || !strings.HasSuffix(p, suffix) {
		return false
	}
	if len(p) == len(suffix) {
		return true
	}
	return p[len(p)-len(suffix)-1] == '/'
}

// Key is the normalized form under which a path is compared against other
// paths, relative to root where possible.
func Key(p, root string) string {
	k, _ := Relative(p, root)
	return k
}

// SameFile reports whether a and b name the same file after normalization.
func SameFile(a, b, root string) bool {
	ka, kb := Key(a, root), Key(b, root)
	return ka != "" && ka == kb
}
