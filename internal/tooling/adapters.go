// Package tooling maps logical tool roles (packaging, linting, testing...) to
// the executables configured in pyquick.toml and runs them through the
// packaging tool.
package tooling

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"github.com/hupe1980/pyqck/internal/project"
)

// ToolKey names a tool role from [tooling].
type ToolKey string

// Supported tool roles.
const (
	Packaging  ToolKey = "packaging"
	Linting    ToolKey = "linting"
	Formatting ToolKey = "formatting"
	Testing    ToolKey = "testing"
	Typing     ToolKey = "typing"
	Running    ToolKey = "running"
)

// Keys lists every tool role in [tooling] order.
func Keys() []ToolKey {
	return []ToolKey{Packaging, Linting, Formatting, Testing, Typing, Running}
}

// Spec describes the executable behind a tool role.
type Spec struct {
	Key        ToolKey
	Executable string
	Hint       string
}

// CommandResult is a finished tool invocation.
type CommandResult struct {
	Command  []string
	ExitCode int
	Stdout   string
	Stderr   string
}

// OK reports whether the command exited zero.
func (r *CommandResult) OK() bool { return r.ExitCode == 0 }

// RunOptions customise a single Run call.
type RunOptions struct {
	// Dir overrides the project root as working directory.
	Dir string
	// Stdout and Stderr stream output when set; otherwise it is captured.
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
}

// Adapters resolves tool roles against a project config.
type Adapters struct {
	cfg      *project.Config
	runner   Runner
	lookPath func(string) (string, error)
}

// Option configures Adapters.
type Option func(*Adapters)

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return func(a *Adapters) {
		a.runner = r
	}
}

// WithLookPath replaces the PATH lookup used by EnsureAvailable.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(a *Adapters) {
		a.lookPath = fn
	}
}

// New creates Adapters for cfg.
func New(cfg *project.Config, opts ...Option) *Adapters {
	a := &Adapters{
		cfg:      cfg,
		runner:   NewExecRunner(),
		lookPath: exec.LookPath,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Config returns the project config the adapters were built from.
func (a *Adapters) Config() *project.Config { return a.cfg }

// Spec returns the configured executable for key.
func (a *Adapters) Spec(key ToolKey) (Spec, error) {
	t := a.cfg.Tooling

	var exe string

	switch key {
	case Packaging:
		exe = t.Packaging
	case Linting:
		exe = t.Linting
	case Formatting:
		exe = t.Formatting
	case Testing:
		exe = t.Testing
	case Typing:
		exe = t.Typing
	case Running:
		exe = t.Running
	default:
		return Spec{}, &ToolError{
			Kind:    UnknownTool,
			Message: fmt.Sprintf("Unknown tool key `%s`.", key),
			Hint:    "Use one of: packaging, linting, formatting, testing, typing, running.",
		}
	}

	return Spec{
		Key:        key,
		Executable: exe,
		Hint:       fmt.Sprintf("Install `%s` and retry, or set `[tooling].%s` to a valid executable.", exe, key),
	}, nil
}

// EnsureAvailable checks that key can be executed. Every role other than
// packaging runs through the packaging tool, so it is the packaging
// executable that must be on PATH.
func (a *Adapters) EnsureAvailable(key ToolKey) error {
	spec, err := a.Spec(key)
	if err != nil {
		return err
	}

	pkg := a.cfg.Tooling.Packaging
	if _, err := a.lookPath(pkg); err != nil {
		hint := spec.Hint
		msg := fmt.Sprintf("Configured tool for `%s` not found: `%s`.", key, pkg)

		if key != Packaging {
			hint = fmt.Sprintf("Install `%s` and retry, or set `[tooling].packaging` to a valid executable.", pkg)
			msg = fmt.Sprintf("Configured runner for `%s` not found: `%s`.", key, pkg)
		}

		return &ToolError{
			Kind:    NotAvailable,
			Message: msg,
			Hint:    hint,
			Err:     err,
		}
	}

	return nil
}

// EnsureAll checks each key in order and returns the first failure.
func (a *Adapters) EnsureAll(keys ...ToolKey) error {
	for _, k := range keys {
		if err := a.EnsureAvailable(k); err != nil {
			return err
		}
	}

	return nil
}

// Command builds the argv for key. Packaging commands call the packaging
// executable directly; everything else goes through `<packaging> run`.
func (a *Adapters) Command(key ToolKey, args ...string) ([]string, error) {
	spec, err := a.Spec(key)
	if err != nil {
		return nil, err
	}

	pkg := a.cfg.Tooling.Packaging
	if key == Packaging {
		return append([]string{pkg}, args...), nil
	}

	return append([]string{pkg, "run", spec.Executable}, args...), nil
}

// ServerArgs returns the arguments that start the dev server for [run].
// Flask takes its app through --app; uvicorn-style runners take it
// positionally.
func (a *Adapters) ServerArgs() []string {
	r := a.cfg.Run
	port := strconv.Itoa(r.Port)

	if a.cfg.Tooling.Running == "flask" {
		return []string{"--app", r.App, "run", "--host", r.Host, "--port", port, "--debug"}
	}

	return []string{r.App, "--host", r.Host, "--port", port}
}

// ServerCommand is the full argv of the dev server.
func (a *Adapters) ServerCommand() ([]string, error) {
	return a.Command(Running, a.ServerArgs()...)
}

// Run executes key with args in the project root. A non-zero exit code is
// not an error.
func (a *Adapters) Run(ctx context.Context, key ToolKey, args []string, opts RunOptions) (*CommandResult, error) {
	if err := a.EnsureAvailable(key); err != nil {
		return nil, err
	}

	argv, err := a.Command(key, args...)
	if err != nil {
		return nil, err
	}

	return a.Exec(ctx, argv, opts)
}

// Exec runs a prepared argv in the project root.
func (a *Adapters) Exec(ctx context.Context, argv []string, opts RunOptions) (*CommandResult, error) {
	dir := opts.Dir
	if dir == "" {
		dir = a.cfg.RootDir
	}

	res, err := a.runner.Run(ctx, argv[0], argv[1:], RunOpts{
		Dir:    dir,
		Stdin:  opts.Stdin,
		Stdout: opts.Stdout,
		Stderr: opts.Stderr,
	})
	if err != nil {
		kind := ExecFailed
		if errors.Is(err, exec.ErrNotFound) {
			kind = NotAvailable
		}

		return nil, &ToolError{
			Kind:    kind,
			Message: fmt.Sprintf("Failed to run `%s`: %v.", argv[0], err),
			Hint:    "Check that the tool is installed and the project directory is accessible.",
			Err:     err,
		}
	}

	return &CommandResult{
		Command:  argv,
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
	}, nil
}
