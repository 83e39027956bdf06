package pathmatch

import (
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/zjy-dev/covlens/internal/logger"
)

// DiscoverFiles lists the files under root matching a doublestar pattern
// such as "lib/**/*.dart". Results are root-relative slash paths, sorted.
func DiscoverFiles(root, glob string) ([]string, error) {
	if !doublestar.ValidatePattern(glob) {
		return nil, fmt.Errorf("invalid source glob %q", glob)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root %s is not a directory", root)
	}

	matches, err := doublestar.Glob(os.DirFS(root), glob, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	sort.Strings(matches)

	logger.Debug("Discovered %d files under %s matching %s", len(matches), root, glob)
	return matches, nil
}
