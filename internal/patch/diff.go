package patch

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff renders a unified diff between the file on disk and op's content.
// Created files are diffed against /dev/null.
func Diff(root string, op Operation) (string, error) {
	var current string

	fromFile := "a/" + op.Path

	data, err := os.ReadFile(target(root, op.Path))

	switch {
	case errors.Is(err, os.ErrNotExist):
		fromFile = "/dev/null"
	case err != nil:
		return "", fmt.Errorf("reading %s: %w", op.Path, err)
	default:
		current = string(data)
	}

	diff := difflib.UnifiedDiff{
		A:        splitLines(current),
		B:        splitLines(string(op.Content)),
		FromFile: fromFile,
		ToFile:   "b/" + op.Path,
		Context:  3,
	}

	unified, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("computing diff: %w", err)
	}

	return unified, nil
}

// splitLines keeps line terminators and yields no lines for empty input.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}

	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}
