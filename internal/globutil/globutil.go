// Package globutil expands glob patterns against a base directory, yielding
// the relative paths of matched files in lexical order.
package globutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FS expands patterns against the real filesystem.
type FS struct{}

// Expand matches pattern inside baseDir and returns the matches relative to
// baseDir, forward-slashed, directories excluded. filepath.Glob guarantees
// lexical ordering, which keeps glob-declared tags deterministic.
func (FS) Expand(pattern, baseDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(baseDir, pattern))
	if err != nil {
		return nil, fmt.Errorf("matching %q in %q: %w", pattern, baseDir, err)
	}

	rel := make([]string, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return nil, fmt.Errorf("inspecting match %q: %w", m, err)
		}
		if info.IsDir() {
			continue
		}
		r, err := filepath.Rel(baseDir, m)
		if err != nil {
			return nil, fmt.Errorf("relativizing match %q: %w", m, err)
		}
		rel = append(rel, strings.ReplaceAll(r, string(filepath.Separator), "/"))
	}
	return rel, nil
}
