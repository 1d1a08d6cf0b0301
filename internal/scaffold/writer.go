package scaffold

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Destination check failures.
var (
	ErrDestinationNotDir   = errors.New("destination exists and is not a directory")
	ErrDestinationNotEmpty = errors.New("destination already exists and is not empty")
)

// CheckDestination verifies that dest is absent or an empty directory.
func CheckDestination(dest string) error {
	info, err := os.Stat(dest)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("inspecting %s: %w", dest, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%s: %w", filepath.Base(dest), ErrDestinationNotDir)
	}

	f, err := os.Open(dest)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dest, err)
	}
	defer f.Close()

	if _, err := f.Readdirnames(1); !errors.Is(err, io.EOF) {
		if err != nil {
			return fmt.Errorf("reading %s: %w", dest, err)
		}

		return fmt.Errorf("%s: %w", filepath.Base(dest), ErrDestinationNotEmpty)
	}

	return nil
}

// WriteOption configures Write.
type WriteOption func(*writeOptions)

type writeOptions struct {
	filePerm os.FileMode
	dirPerm  os.FileMode
	logger   *slog.Logger
}

// WithFilePermissions overrides the default file permissions (0644).
func WithFilePermissions(perm os.FileMode) WriteOption {
	return func(o *writeOptions) {
		o.filePerm = perm
	}
}

// WithLogger sets the logger used to report written files.
func WithLogger(logger *slog.Logger) WriteOption {
	return func(o *writeOptions) {
		o.logger = logger
	}
}

// Write materialises files under dest in sorted path order, creating parent
// directories as needed. Paths that would escape dest are rejected before
// anything is written.
func Write(dest string, files Files, opts ...WriteOption) error {
	o := writeOptions{filePerm: 0o644, dirPerm: 0o755, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	paths := files.Paths()

	targets := make([]string, len(paths))
	for i, p := range paths {
		target, err := safeJoin(dest, p)
		if err != nil {
			return err
		}

		targets[i] = target
	}

	if err := os.MkdirAll(dest, o.dirPerm); err != nil {
		return fmt.Errorf("creating directory %s: %w", dest, err)
	}

	for i, target := range targets {
		if err := os.MkdirAll(filepath.Dir(target), o.dirPerm); err != nil {
			return fmt.Errorf("creating directory %s: %w", filepath.Dir(target), err)
		}

		if err := os.WriteFile(target, []byte(files[paths[i]]), o.filePerm); err != nil {
			return fmt.Errorf("writing file %s: %w", target, err)
		}

		o.logger.Debug("wrote scaffold file", slog.String("path", paths[i]))
	}

	return nil
}

func safeJoin(root, rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("invalid scaffold path %q", rel)
	}

	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("scaffold path %q escapes the destination", rel)
	}

	return filepath.Join(root, clean), nil
}
