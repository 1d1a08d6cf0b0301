package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hupe1980/pyqck/internal/config"
	"github.com/hupe1980/pyqck/internal/logging"
	"github.com/hupe1980/pyqck/internal/project"
	"github.com/hupe1980/pyqck/internal/scaffold"
)

type newOptions struct {
	profile  string
	template string
	python   string
}

func newNewCommand() *cobra.Command {
	opts := &newOptions{}
	registry := scaffold.DefaultRegistry()

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a new Python project from a template",
		Long: `New scaffolds a Python project into a directory called <name>.

The profile selects the kind of project (api or lib) and the template the
concrete layout; without --template the profile's default template is used.
Every project gets pyproject.toml, pyquick.toml, a src/ package and tests.`,
		Example: `  pyqck new billing-api
  pyqck new orders --template flask
  pyqck new mylib --profile lib`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(cmd, registry, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.profile, "profile", scaffold.ProfileAPI, "project profile")
	f.StringVar(&opts.template, "template", "", "template (default: the profile's default)")
	f.StringVar(&opts.python, "python", scaffold.DefaultPython, "minimum Python version (MAJOR.MINOR)")

	_ = cmd.RegisterFlagCompletionFunc("profile", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return registry.Profiles(), cobra.ShellCompDirectiveNoFileComp
	})

	_ = cmd.RegisterFlagCompletionFunc("template", func(c *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		profile, _ := c.Flags().GetString("profile")
		return registry.Templates(profile), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runNew(cmd *cobra.Command, registry *scaffold.Registry, name string, opts *newOptions) error {
	ctx := cmd.Context()
	reporter := reporterFrom(ctx)
	logger := logging.Component(ctx, "scaffold")

	if err := project.ValidatePython(opts.python); err != nil {
		var cfgErr *project.ConfigError
		if errors.As(err, &cfgErr) {
			err = &usageError{msg: cfgErr.Message, hint: cfgErr.Hint}
		}

		return &ExitError{Code: 2, Err: err}
	}

	root, err := config.FromContext(ctx).ProjectDir()
	if err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	dest := filepath.Join(root, name)

	if err := scaffold.CheckDestination(dest); err != nil {
		if errors.Is(err, scaffold.ErrDestinationNotDir) || errors.Is(err, scaffold.ErrDestinationNotEmpty) {
			return &ExitError{Code: 2, Err: &usageError{
				msg:  fmt.Sprintf("Cannot create project in `%s`: %v.", name, unwrapReason(err)),
				hint: "Choose a new project name or remove the existing directory.",
			}}
		}

		return err
	}

	sel, err := registry.Build(scaffold.Request{
		ProjectName: name,
		Profile:     opts.profile,
		Template:    opts.template,
		Python:      opts.python,
	})
	if err != nil {
		return err
	}

	if err := scaffold.Write(dest, sel.Files, scaffold.WithLogger(logger)); err != nil {
		return fmt.Errorf("writing project: %w", err)
	}

	reporter.OK("Created %s project `%s` (template %s, %d files)", sel.Profile, name, sel.Template, len(sel.Files))
	reporter.Info("Next steps:")
	reporter.Info("  cd %s", name)
	reporter.Info("  pyqck install")

	if sel.Profile == scaffold.ProfileAPI {
		reporter.Info("  pyqck dev")
	} else {
		reporter.Info("  pyqck check")
	}

	return nil
}

func unwrapReason(err error) error {
	switch {
	case errors.Is(err, scaffold.ErrDestinationNotDir):
		return scaffold.ErrDestinationNotDir
	case errors.Is(err, scaffold.ErrDestinationNotEmpty):
		return scaffold.ErrDestinationNotEmpty
	default:
		return err
	}
}
