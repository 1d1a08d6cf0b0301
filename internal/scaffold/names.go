package scaffold

import (
	"strings"
	"unicode"
)

// NormalizePackageName turns a free-form project name into an importable
// Python package name: lowercase, runs of non-alphanumerics collapsed into a
// single underscore, no leading or trailing underscores. Names starting with
// a digit are prefixed with "app_"; names with nothing usable become "app".
func NormalizePackageName(name string) string {
	var b strings.Builder

	pendingSep := false

	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}

			pendingSep = false

			b.WriteRune(r)

			continue
		}

		pendingSep = true
	}

	out := b.String()
	if out == "" {
		return "app"
	}

	if out[0] >= '0' && out[0] <= '9' {
		return "app_" + out
	}

	return out
}
