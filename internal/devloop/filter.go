package devloop

import (
	"path/filepath"
	"sort"
	"strings"
)

// Directory names whose contents never trigger a reload.
var ignoredParts = map[string]struct{}{
	"__pycache__":   {},
	".pytest_cache": {},
	".ruff_cache":   {},
	".mypy_cache":   {},
	".pyright":      {},
	".venv":         {},
	".git":          {},
	"node_modules":  {},
}

var ignoredSuffixes = []string{".pyc", ".pyo", ".swp", ".tmp", "~"}

// IsIgnored reports whether a changed path is build output, a cache or an
// editor artefact.
func IsIgnored(path string) bool {
	slashed := filepath.ToSlash(path)

	for _, part := range strings.Split(slashed, "/") {
		if _, ok := ignoredParts[part]; ok {
			return true
		}
	}

	for _, suffix := range ignoredSuffixes {
		if strings.HasSuffix(slashed, suffix) {
			return true
		}
	}

	return false
}

// FilterRelevantPaths drops ignored paths, makes the rest relative to root
// (when they live under it) and returns them deduplicated and sorted in
// slash form.
func FilterRelevantPaths(root string, paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))

	for _, p := range paths {
		rel := p
		if root != "" && filepath.IsAbs(p) {
			if r, err := filepath.Rel(root, p); err == nil && r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator)) {
				rel = r
			}
		}

		rel = filepath.ToSlash(filepath.Clean(rel))

		if IsIgnored(rel) {
			continue
		}

		if _, dup := seen[rel]; dup {
			continue
		}

		seen[rel] = struct{}{}
		out = append(out, rel)
	}

	sort.Strings(out)

	return out
}
