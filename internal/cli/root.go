// Package cli implements the cobra command tree for pyqck.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/pyqck/internal/config"
	"github.com/hupe1980/pyqck/internal/logging"
	"github.com/hupe1980/pyqck/internal/project"
	"github.com/hupe1980/pyqck/internal/scaffold"
	"github.com/hupe1980/pyqck/internal/tooling"
	"github.com/hupe1980/pyqck/internal/ui"
)

// Error categories printed in front of user-facing failures.
const (
	categoryUsage   = "usage"
	categoryConfig  = "config"
	categoryTooling = "tooling"
)

// ExitError wraps an error with a specific process exit code. An ExitError
// without Err exits silently, which is how subprocess exit codes are passed
// through.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	return run(NewRootCommand())
}

// run executes cmd, renders any error on its stderr and maps it to an exit
// code.
func run(cmd *cobra.Command) int {
	err := cmd.Execute()
	if err == nil {
		return 0
	}

	noColor, _ := cmd.PersistentFlags().GetBool("no-color")
	if os.Getenv("NO_COLOR") != "" {
		noColor = true
	}

	reportError(ui.NewReporter(cmd.OutOrStdout(), cmd.ErrOrStderr(), ui.WithNoColor(noColor)), err)

	return exitCode(err)
}

// reportError prints err as "ERROR [category] message" plus its hint.
func reportError(r *ui.Reporter, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	var (
		cfgErr    *project.ConfigError
		toolErr   *tooling.ToolError
		lookupErr *scaffold.LookupError
		usageErr  *usageError
	)

	switch {
	case errors.As(err, &usageErr):
		r.Error(categoryUsage, usageErr.msg, usageErr.hint)
	case errors.As(err, &cfgErr):
		r.Error(categoryConfig, cfgErr.Message, cfgErr.Hint)
	case errors.As(err, &lookupErr):
		r.Error(categoryUsage, lookupErr.Message, lookupErr.Hint)
	case errors.As(err, &toolErr):
		r.Error(categoryTooling, toolErr.Message, toolErr.Hint)
	case exitCode(err) == 2:
		r.Error(categoryUsage, err.Error(), "Run with --help for usage.")
	default:
		r.Error(categoryTooling, err.Error(), "")
	}
}

// exitCode maps err to a process exit code: 2 for usage and configuration
// problems, 1 for tool and check failures.
func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var (
		cfgErr    *project.ConfigError
		lookupErr *scaffold.LookupError
	)

	if errors.As(err, &cfgErr) || errors.As(err, &lookupErr) {
		return 2
	}

	// cobra reports unknown subcommands as plain errors.
	if strings.HasPrefix(err.Error(), "unknown command ") {
		return 2
	}

	return 1
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand(opts ...Option) *cobra.Command {
	var cfgFile string

	d := newDeps(opts)

	cmd := &cobra.Command{
		Use:   "pyqck",
		Short: "Scaffold Python projects and run their development tasks",
		Long: `pyqck creates new Python projects from built-in templates and drives
their day-to-day tasks: a dev loop that restarts the server and re-runs
lint, type and test checks on every change, plus one-shot commands for
running, testing, linting, formatting and building.

Project settings live in pyquick.toml; pyqck's own settings can be set by
flags, PYQCK_* environment variables or .pyqck.yaml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}

			logger := logging.Setup(cfg)

			reporter := ui.NewReporter(cmd.OutOrStdout(), cmd.ErrOrStderr(),
				ui.WithNoColor(!cfg.Color()),
				ui.WithQuiet(cfg.Quiet),
			)

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = logging.NewContext(ctx, logger)
			ctx = newReporterContext(ctx, reporter)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("logFormat", cfg.LogFormat),
				slog.String("dir", cfg.Dir),
				slog.String("projectFile", cfg.ProjectFile),
			)

			return nil
		},
	}

	// Global persistent flags.
	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .pyqck.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")
	pf.StringP("dir", "C", "", "project directory (default: current directory)")
	pf.String("project-file", config.DefaultProjectFile, "project config file name inside the project directory")

	// Flag parsing errors return exit code 2.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Err: err}
	})

	cmd.AddCommand(
		newNewCommand(),
		newDevCommand(d),
		newRunCommand(d),
		newTestCommand(d),
		newLintCommand(d),
		newFmtCommand(d),
		newTypecheckCommand(d),
		newCheckCommand(d),
		newInstallCommand(d),
		newBuildCommand(d),
		newSyncCommand(),
		newConfigCommand(),
		newVersionCommand(),
		newCompletionCommand(),
	)

	usageArgs(cmd)

	return cmd
}

// usageArgs makes positional argument errors exit with code 2 across the
// command tree.
func usageArgs(cmd *cobra.Command) {
	if validate := cmd.Args; validate != nil {
		cmd.Args = func(c *cobra.Command, args []string) error {
			if err := validate(c, args); err != nil {
				return &ExitError{Code: 2, Err: err}
			}

			return nil
		}
	}

	for _, sub := range cmd.Commands() {
		usageArgs(sub)
	}
}
