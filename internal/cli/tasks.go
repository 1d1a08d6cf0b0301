package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/pyqck/internal/entry"
	"github.com/hupe1980/pyqck/internal/logging"
	"github.com/hupe1980/pyqck/internal/tooling"
)

// passthrough describes a command that runs one tool with fixed leading
// arguments followed by whatever the user passes after "--".
type passthrough struct {
	use   string
	short string
	long  string
	key   tooling.ToolKey
	args  func(cmd *cobra.Command) []string
}

func (p passthrough) command(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   p.use,
		Short: p.short,
		Long:  p.long,
		Args:  argsAfterDash,
		RunE: func(cmd *cobra.Command, args []string) error {
			var lead []string
			if p.args != nil {
				lead = p.args(cmd)
			}

			return runTool(cmd, d, p.key, append(lead, args...))
		},
	}

	return cmd
}

// argsAfterDash accepts positional arguments only after "--", so that tool
// arguments are never mistaken for pyqck arguments.
func argsAfterDash(cmd *cobra.Command, args []string) error {
	before := len(args)
	if at := cmd.ArgsLenAtDash(); at >= 0 {
		before = at
	}

	if before == 0 {
		return nil
	}

	return &usageError{
		msg:  fmt.Sprintf("Unexpected argument(s) before `--`: %s.", "`"+strings.Join(args[:before], "`, `")+"`"),
		hint: fmt.Sprintf("Pass tool arguments after `--`, e.g. `%s -- %s`.", cmd.CommandPath(), strings.Join(args[:before], " ")),
	}
}

func runTool(cmd *cobra.Command, d *deps, key tooling.ToolKey, args []string) error {
	cfg, err := loadProject(cmd)
	if err != nil {
		return err
	}

	adapters := d.adapters(cfg)

	argv, err := adapters.Command(key, args...)
	if err != nil {
		return err
	}

	logging.Component(cmd.Context(), "tooling").Debug("running tool",
		slog.String("key", string(key)),
		logging.Command(argv),
	)

	res, err := adapters.Run(cmd.Context(), key, args, streaming(cmd))
	if err != nil {
		return err
	}

	return exitWith(res)
}

func newTestCommand(d *deps) *cobra.Command {
	return passthrough{
		use:   "test [-- pytest-args...]",
		short: "Run the test suite",
		long:  "Test runs the [tooling].testing executable through the packaging tool. Arguments after -- are passed on.",
		key:   tooling.Testing,
	}.command(d)
}

func newLintCommand(d *deps) *cobra.Command {
	return passthrough{
		use:   "lint [-- linter-args...]",
		short: "Lint the project",
		long:  "Lint runs `<linting> check .` through the packaging tool. Arguments after -- are passed on.",
		key:   tooling.Linting,
		args:  func(*cobra.Command) []string { return []string{"check", "."} },
	}.command(d)
}

func newFmtCommand(d *deps) *cobra.Command {
	var check bool

	cmd := passthrough{
		use:   "fmt [--check] [-- formatter-args...]",
		short: "Format the project",
		long:  "Fmt runs `<formatting> format .`; with --check files are only verified, not rewritten.",
		key:   tooling.Formatting,
		args: func(*cobra.Command) []string {
			if check {
				return []string{"format", "--check", "."}
			}

			return []string{"format", "."}
		},
	}.command(d)

	cmd.Flags().BoolVar(&check, "check", false, "verify formatting without writing changes")

	return cmd
}

func newTypecheckCommand(d *deps) *cobra.Command {
	return passthrough{
		use:   "typecheck [-- checker-args...]",
		short: "Type-check the project",
		long:  "Typecheck runs the [tooling].typing executable through the packaging tool.",
		key:   tooling.Typing,
	}.command(d)
}

func newInstallCommand(d *deps) *cobra.Command {
	return passthrough{
		use:   "install [-- sync-args...]",
		short: "Install project dependencies",
		long:  "Install runs `<packaging> sync` to create the environment and install dependencies.",
		key:   tooling.Packaging,
		args:  func(*cobra.Command) []string { return []string{"sync"} },
	}.command(d)
}

func newBuildCommand(d *deps) *cobra.Command {
	var wheel, sdist bool

	cmd := passthrough{
		use:   "build [--wheel] [--sdist]",
		short: "Build distributions",
		long:  "Build runs `<packaging> build`. Without --wheel or --sdist both are built.",
		key:   tooling.Packaging,
		args: func(*cobra.Command) []string {
			both := !wheel && !sdist

			args := []string{"build"}
			if sdist || both {
				args = append(args, "--sdist")
			}

			if wheel || both {
				args = append(args, "--wheel")
			}

			return args
		},
	}.command(d)

	cmd.Flags().BoolVar(&wheel, "wheel", false, "build a wheel")
	cmd.Flags().BoolVar(&sdist, "sdist", false, "build a source distribution")

	return cmd
}

func newRunCommand(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "run [-- args...]",
		Short: "Run the project",
		Long: `Run starts the project's entry point: the dev server for api projects,
otherwise the first [project.scripts] entry in pyproject.toml, otherwise
` + "`python -m <package>`" + ` when src/<package>/__main__.py exists.`,
		Args: argsAfterDash,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProject(cmd)
			if err != nil {
				return err
			}

			adapters := d.adapters(cfg)

			target, err := entry.Resolve(adapters)
			if err != nil {
				return err
			}

			key := tooling.Packaging
			if target.Kind == entry.KindServer {
				key = tooling.Running
			}

			if err := adapters.EnsureAvailable(key); err != nil {
				return err
			}

			reporterFrom(cmd.Context()).Info("Running %s", strings.Join(target.Command, " "))

			res, err := adapters.Exec(cmd.Context(), append(target.Command, args...), streaming(cmd))
			if err != nil {
				return err
			}

			return exitWith(res)
		},
	}
}
