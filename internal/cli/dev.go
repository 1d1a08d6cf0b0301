package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/pyqck/internal/devloop"
	"github.com/hupe1980/pyqck/internal/logging"
	"github.com/hupe1980/pyqck/internal/project"
	"github.com/hupe1980/pyqck/internal/tooling"
)

func newDevCommand(d *deps) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Run the dev server and re-check on every change",
		Long: `Dev starts the development server (api projects) and watches the
[dev].watch paths. After each burst of changes the server is restarted
(when [dev].reload is true) and the [checks].pipeline runs again, limited
to the changed files when [dev].checks_mode is incremental.

With --once the checks run a single time against the whole project,
without server or watcher, and the exit code reflects the result.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDev(cmd, d, once)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "run the checks once and exit")

	return cmd
}

func newCheckCommand(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run the checks pipeline once",
		Long:  "Check runs every step of [checks].pipeline against the whole project and exits 1 on failure.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDev(cmd, d, true)
		},
	}
}

func runDev(cmd *cobra.Command, d *deps, once bool) error {
	ctx := cmd.Context()
	reporter := reporterFrom(ctx)
	logger := logging.Component(ctx, "devloop")

	cfg, err := loadProject(cmd)
	if err != nil {
		return err
	}

	adapters := d.adapters(cfg)

	keys := pipelineTools(cfg)
	if !once && cfg.IsAPI() {
		keys = append([]tooling.ToolKey{tooling.Running}, keys...)
	}

	if err := adapters.EnsureAll(keys...); err != nil {
		return err
	}

	starter := d.starter
	if starter == nil {
		starter = devloop.ExecStarter{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}
	}

	opts := devloop.Options{
		Adapters:      adapters,
		Starter:       starter,
		Reporter:      reporter,
		Logger:        logger,
		HandleSignals: true,
	}

	if once {
		report := devloop.New(opts).RunOnce(ctx)
		if report.Err != nil {
			var toolErr *tooling.ToolError
			if errors.As(report.Err, &toolErr) {
				// Already reported by the checker.
				return &ExitError{Code: 1}
			}

			return report.Err
		}

		if !report.OK() {
			return &ExitError{Code: 1}
		}

		reporter.OK("All checks passed")

		return nil
	}

	opts.Watcher = d.newWatcher(cfg, reporter, logger)

	if err := devloop.New(opts).Run(ctx); err != nil {
		if errors.Is(err, devloop.ErrNothingToWatch) {
			return &project.ConfigError{
				Message: "None of the `[dev].watch` paths exist.",
				Hint:    "Create the directories or update `[dev].watch` in pyquick.toml.",
				Err:     err,
			}
		}

		return err
	}

	return nil
}

// pipelineTools lists the tools the configured checks need.
func pipelineTools(cfg *project.Config) []tooling.ToolKey {
	keys := make([]tooling.ToolKey, 0, len(cfg.Checks.Pipeline))

	for _, step := range cfg.Checks.Pipeline {
		switch step {
		case project.StepLint:
			keys = append(keys, tooling.Linting)
		case project.StepFormat:
			keys = append(keys, tooling.Formatting)
		case project.StepType:
			keys = append(keys, tooling.Typing)
		case project.StepTest:
			keys = append(keys, tooling.Testing)
		}
	}

	return keys
}

func devloopDebounce(cfg *project.Config) time.Duration {
	return time.Duration(cfg.Dev.DebounceMS) * time.Millisecond
}
