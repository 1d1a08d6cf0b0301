package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/pyqck/internal/config"
	"github.com/hupe1980/pyqck/internal/devloop"
	"github.com/hupe1980/pyqck/internal/project"
	"github.com/hupe1980/pyqck/internal/tooling"
	"github.com/hupe1980/pyqck/internal/ui"
)

// Option customises the command tree, mainly so tests can replace process
// execution.
type Option func(*deps)

// WatcherFactory builds the dev loop's file watcher for a project.
type WatcherFactory func(cfg *project.Config, r *ui.Reporter, logger *slog.Logger) devloop.Watcher

type deps struct {
	toolOpts   []tooling.Option
	starter    devloop.ProcessStarter
	newWatcher WatcherFactory
}

// WithToolingOptions passes options to every tooling.Adapters the commands
// create.
func WithToolingOptions(opts ...tooling.Option) Option {
	return func(d *deps) {
		d.toolOpts = append(d.toolOpts, opts...)
	}
}

// WithProcessStarter replaces how the dev server is launched.
func WithProcessStarter(s devloop.ProcessStarter) Option {
	return func(d *deps) {
		d.starter = s
	}
}

// WithWatcherFactory replaces the file watcher used by `dev`.
func WithWatcherFactory(fn WatcherFactory) Option {
	return func(d *deps) {
		d.newWatcher = fn
	}
}

func newDeps(opts []Option) *deps {
	d := &deps{newWatcher: fsWatcher}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func fsWatcher(cfg *project.Config, r *ui.Reporter, logger *slog.Logger) devloop.Watcher {
	return devloop.NewFSWatcher(cfg.RootDir, cfg.Dev.Watch,
		devloopDebounce(cfg),
		devloop.WithWatchLogger(logger),
		devloop.WithWarnFunc(r.Warn),
	)
}

func (d *deps) adapters(cfg *project.Config) *tooling.Adapters {
	return tooling.New(cfg, d.toolOpts...)
}

type reporterKey struct{}

func newReporterContext(ctx context.Context, r *ui.Reporter) context.Context {
	return context.WithValue(ctx, reporterKey{}, r)
}

// reporterFrom returns the command's reporter, falling back to plain
// stdout/stderr output.
func reporterFrom(ctx context.Context) *ui.Reporter {
	if r, ok := ctx.Value(reporterKey{}).(*ui.Reporter); ok {
		return r
	}

	return ui.NewReporter(os.Stdout, os.Stderr)
}

// loadProject reads the project config file from the configured project
// directory.
func loadProject(cmd *cobra.Command) (*project.Config, error) {
	cfg := config.FromContext(cmd.Context())

	dir, err := cfg.ProjectDir()
	if err != nil {
		return nil, &ExitError{Code: 2, Err: err}
	}

	return project.Load(dir, cfg.ProjectFile)
}

// streaming wires a passthrough command to the terminal.
func streaming(cmd *cobra.Command) tooling.RunOptions {
	return tooling.RunOptions{
		Stdin:  cmd.InOrStdin(),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	}
}

// exitWith turns a non-zero subprocess exit into a silent ExitError.
func exitWith(res *tooling.CommandResult) error {
	if res.ExitCode != 0 {
		return &ExitError{Code: res.ExitCode}
	}

	return nil
}
