package devloop

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hupe1980/pyqck/internal/project"
	"github.com/hupe1980/pyqck/internal/tooling"
	"github.com/hupe1980/pyqck/internal/ui"
)

// Targets are the paths handed to path-aware check steps. Empty Test means
// the test runner's own discovery.
type Targets struct {
	Lint []string
	Test []string
}

// FullTargets checks the whole project.
func FullTargets() Targets {
	return Targets{Lint: []string{"."}}
}

// SelectTargets narrows the checks to the changed files in incremental mode.
// Batches larger than threshold, or without Python files, fall back to a
// full run. Tests are narrowed only when every changed file is a test.
func SelectTargets(mode string, threshold int, changed []string) Targets {
	if mode != project.ChecksModeIncremental || len(changed) == 0 || len(changed) > threshold {
		return FullTargets()
	}

	var py []string

	allTests := true

	for _, p := range changed {
		if strings.HasSuffix(p, ".py") {
			py = append(py, p)
		}

		if !isTestFile(p) {
			allTests = false
		}
	}

	if len(py) == 0 {
		return FullTargets()
	}

	t := Targets{Lint: py}
	if allTests {
		t.Test = py
	}

	return t
}

// missingPaths returns the changed paths that no longer exist under root.
// Deleted or renamed modules cannot be linted by name and may break their
// importers, so callers check the whole project instead.
func missingPaths(root string, changed []string) []string {
	var gone []string

	for _, p := range changed {
		abs := filepath.FromSlash(p)
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(root, abs)
		}

		if _, err := os.Stat(abs); errors.Is(err, fs.ErrNotExist) {
			gone = append(gone, p)
		}
	}

	return gone
}

func isTestFile(p string) bool {
	if !strings.HasSuffix(p, ".py") {
		return false
	}

	base := path.Base(p)
	if strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py") {
		return true
	}

	return strings.HasPrefix(p, "tests/") || strings.Contains(p, "/tests/")
}

// StepResult is the outcome of one pipeline step.
type StepResult struct {
	Step     string
	Command  []string
	ExitCode int
}

// Report summarises a pipeline run.
type Report struct {
	Steps []StepResult
	// Err is set when a step could not run at all; the pipeline stops there.
	Err error
}

// OK reports whether every step ran and exited zero.
func (r Report) OK() bool {
	if r.Err != nil {
		return false
	}

	for _, s := range r.Steps {
		if s.ExitCode != 0 {
			return false
		}
	}

	return true
}

// Checker runs the [checks] pipeline through the tool adapters.
type Checker struct {
	adapters *tooling.Adapters
	reporter *ui.Reporter
	logger   *slog.Logger
}

// NewChecker creates a Checker.
func NewChecker(adapters *tooling.Adapters, reporter *ui.Reporter, logger *slog.Logger) *Checker {
	return &Checker{adapters: adapters, reporter: reporter, logger: logger}
}

// Run executes each configured step in order, echoing its output. A tool
// error aborts the run; a failing step aborts it only when
// stop_on_first_failure is set.
func (c *Checker) Run(ctx context.Context, targets Targets) Report {
	cfg := c.adapters.Config().Checks

	var report Report

	for _, step := range cfg.Pipeline {
		key, args := stepCommand(step, targets)

		res, err := c.adapters.Run(ctx, key, args, tooling.RunOptions{})
		if err != nil {
			report.Err = err

			var toolErr *tooling.ToolError
			if errors.As(err, &toolErr) {
				c.reporter.Error("tooling", toolErr.Message, toolErr.Hint)
			} else if ctx.Err() == nil {
				c.reporter.Error("tooling", err.Error(), "")
			}

			return report
		}

		c.reporter.Output(res.Stdout)
		c.reporter.Output(res.Stderr)

		report.Steps = append(report.Steps, StepResult{Step: step, Command: res.Command, ExitCode: res.ExitCode})

		c.logger.Debug("check step finished",
			slog.String("step", step),
			slog.Int("exitCode", res.ExitCode),
		)

		if res.ExitCode != 0 {
			c.reporter.Failed(step, res.ExitCode)

			if cfg.StopOnFirstFailure {
				return report
			}

			continue
		}

		c.reporter.OK("%s", step)
	}

	return report
}

func stepCommand(step string, t Targets) (tooling.ToolKey, []string) {
	switch step {
	case project.StepLint:
		return tooling.Linting, append([]string{"check"}, t.Lint...)
	case project.StepFormat:
		return tooling.Formatting, append([]string{"format", "--check"}, t.Lint...)
	case project.StepTest:
		return tooling.Testing, append([]string(nil), t.Test...)
	default:
		return tooling.Typing, nil
	}
}
