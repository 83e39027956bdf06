package diffcov

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/zjy-dev/covlens/internal/coverage"
)

// ParseUnifiedDiff extracts the added line numbers of every file in a
// unified diff. Deleted files are skipped and files with only removals map
// to no lines.
func ParseUnifiedDiff(diff string) map[string][]int {
	changes := make(map[string][]int)

	var (
		file             string
		line             int
		oldLeft, newLeft int
	)
	inHunk := func() bool { return oldLeft > 0 || newLeft > 0 }

	scanner := bufio.NewScanner(strings.NewReader(diff))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		text := strings.TrimSuffix(scanner.Text(), "\r")
		if !inHunk() {
			switch {
			case strings.HasPrefix(text, "diff --git "):
				file = ""
			case strings.HasPrefix(text, "+++ "):
				file = newFilePath(strings.TrimPrefix(text, "+++ "))
				if _, ok := changes[file]; file != "" && !ok {
					changes[file] = []int{}
				}
			case strings.HasPrefix(text, "@@"):
				h, ok := parseHunk(text)
				if !ok {
					continue
				}
				line, oldLeft, newLeft = h.newStart, h.oldCount, h.newCount
			}
			continue
		}

		switch {
		case strings.HasPrefix(text, "+"):
			if file != "" {
				changes[file] = append(changes[file], line)
			}
			line++
			newLeft--
		case strings.HasPrefix(text, "-"):
			oldLeft--
		case strings.HasPrefix(text, " "), text == "":
			line++
			oldLeft--
			newLeft--
		}
	}

	for f, ls := range changes {
		changes[f] = coverage.SortedUnique(ls)
	}
	return changes
}

// newFilePath strips the b/ prefix from a "+++" header path. /dev/null
// yields "".
func newFilePath(p string) string {
	p = strings.TrimSpace(p)
	if i := strings.IndexByte(p, '\t'); i >= 0 {
		p = p[:i]
	}
	if p == "/dev/null" {
		return ""
	}
	return strings.TrimPrefix(p, "b/")
}

type hunk struct {
	newStart, oldCount, newCount int
}

// parseHunk parses "@@ -a,b +c,d @@". An omitted count is 1.
func parseHunk(header string) (hunk, bool) {
	fields := strings.Fields(header)
	if len(fields) < 3 || !strings.HasPrefix(fields[1], "-") || !strings.HasPrefix(fields[2], "+") {
		return hunk{}, false
	}
	_, oldCount, ok := parseRange(fields[1][1:])
	if !ok {
		return hunk{}, false
	}
	newStart, newCount, ok := parseRange(fields[2][1:])
	if !ok {
		return hunk{}, false
	}
	return hunk{newStart: newStart, oldCount: oldCount, newCount: newCount}, true
}

func parseRange(s string) (start, count int, ok bool) {
	first, rest, hasCount := strings.Cut(s, ",")
	start, err := strconv.Atoi(first)
	if err != nil {
		return 0, 0, false
	}
	count = 1
	if hasCount {
		if count, err = strconv.Atoi(rest); err != nil {
			return 0, 0, false
		}
	}
	return start, count, true
}
