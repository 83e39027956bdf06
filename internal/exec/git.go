package exec

import (
	"context"
	"fmt"

	"github.com/zjy-dev/covlens/internal/diffcov"
	"github.com/zjy-dev/covlens/internal/logger"
)

// GitChanges returns the lines added or modified in the working tree of dir
// relative to base, keyed by path relative to dir.
func GitChanges(ctx context.Context, r Runner, dir, base string) (map[string][]int, error) {
	if base == "" {
		return nil, fmt.Errorf("git base revision is empty")
	}
	out, err := Output(ctx, r, dir, "git", "diff", "--unified=0", "--no-color", "--no-ext-diff", "--relative", base)
	if err != nil {
		return nil, fmt.Errorf("failed to diff against %s: %w", base, err)
	}
	changes := diffcov.ParseUnifiedDiff(out)
	logger.Debug("git diff %s touched %d files", base, len(changes))
	return changes, nil
}
