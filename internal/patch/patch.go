// Package patch materialises optional project features (pre-commit hooks,
// CI workflows) as file operations that can be previewed, applied and
// rolled back.
package patch

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hupe1980/pyqck/internal/project"
)

// OpType is the kind of file operation.
type OpType string

// Operation types.
const (
	OpCreate OpType = "create"
	OpUpdate OpType = "update"
)

// Feature target paths, relative to the project root.
const (
	PreCommitPath  = ".pre-commit-config.yaml"
	GitHubCIPath   = ".github/workflows/ci.yml"
	ProviderGitHub = "github"
)

// Operation is a pending change to one file.
type Operation struct {
	Type        OpType
	Path        string
	Description string
	Content     []byte
}

// Result records what Apply did with one operation.
type Result struct {
	Operation Operation
	Applied   bool
	Message   string
}

// Plan computes the operations needed to bring the project in line with
// the enabled [features]. Files that already match are skipped; files that
// exist with other content become updates.
func Plan(cfg *project.Config) ([]Operation, error) {
	var ops []Operation

	if cfg.Features.PreCommit {
		content, err := preCommitContent(cfg)
		if err != nil {
			return nil, fmt.Errorf("pre-commit config: %w", err)
		}

		ops = append(ops, Operation{Path: PreCommitPath, Description: "pre-commit hooks", Content: content})
	}

	if cfg.Features.CI && cfg.CI.Provider == ProviderGitHub {
		content, err := ciWorkflowContent(cfg)
		if err != nil {
			return nil, fmt.Errorf("CI workflow: %w", err)
		}

		ops = append(ops, Operation{Path: GitHubCIPath, Description: "GitHub Actions workflow", Content: content})
	}

	planned := ops[:0]

	for _, op := range ops {
		current, err := os.ReadFile(target(cfg.RootDir, op.Path))

		switch {
		case errors.Is(err, os.ErrNotExist):
			op.Type = OpCreate
		case err != nil:
			return nil, fmt.Errorf("reading %s: %w", op.Path, err)
		case bytes.Equal(current, op.Content):
			continue
		default:
			op.Type = OpUpdate
		}

		planned = append(planned, op)
	}

	return planned, nil
}

// Applied tracks the changes made by Apply so they can be undone.
type Applied struct {
	root    string
	Results []Result
	undo    []undoEntry
}

type undoEntry struct {
	path     string
	previous []byte // nil for created files
	dirs     []string
}

// Apply performs ops under root in order. With dryRun nothing is written.
// When an operation fails, the operations already applied are rolled back
// and the error is returned.
func Apply(root string, ops []Operation, dryRun bool) (*Applied, error) {
	a := &Applied{root: root}

	for _, op := range ops {
		if dryRun {
			a.Results = append(a.Results, Result{Operation: op, Message: "would " + string(op.Type) + " " + op.Path})
			continue
		}

		if err := a.apply(op); err != nil {
			if rbErr := a.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}

			return nil, fmt.Errorf("applying %s: %w", op.Path, err)
		}

		verb := "created"
		if op.Type == OpUpdate {
			verb = "updated"
		}

		a.Results = append(a.Results, Result{Operation: op, Applied: true, Message: verb + " " + op.Path})
	}

	return a, nil
}

func (a *Applied) apply(op Operation) error {
	path := target(a.root, op.Path)
	entry := undoEntry{path: path}

	switch op.Type {
	case OpUpdate:
		previous, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		entry.previous = previous
	case OpCreate:
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", op.Path)
		}

		dirs, err := mkdirs(filepath.Dir(path))
		if err != nil {
			return err
		}

		entry.dirs = dirs
	default:
		return fmt.Errorf("unsupported operation %q", op.Type)
	}

	if err := os.WriteFile(path, op.Content, 0o644); err != nil { //nolint:gosec // project files are world-readable
		return err
	}

	a.undo = append(a.undo, entry)

	return nil
}

// Rollback restores updated files and removes created ones (and the
// directories created for them) in reverse order.
func (a *Applied) Rollback() error {
	var errs []error

	for i := len(a.undo) - 1; i >= 0; i-- {
		e := a.undo[i]

		if e.previous != nil {
			if err := os.WriteFile(e.path, e.previous, 0o644); err != nil { //nolint:gosec // restores original mode class
				errs = append(errs, err)
			}

			continue
		}

		if err := os.Remove(e.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}

		for j := len(e.dirs) - 1; j >= 0; j-- {
			_ = os.Remove(e.dirs[j])
		}
	}

	a.undo = nil

	return errors.Join(errs...)
}

// mkdirs creates dir and returns the directories that did not exist yet,
// outermost first.
func mkdirs(dir string) ([]string, error) {
	var missing []string

	for d := dir; ; d = filepath.Dir(d) {
		if _, err := os.Stat(d); err == nil {
			break
		}

		missing = append([]string{d}, missing...)

		if parent := filepath.Dir(d); parent == d {
			break
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	return missing, nil
}

func target(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}
