package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	sigsyaml "sigs.k8s.io/yaml"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the project configuration",
	}

	cmd.AddCommand(newConfigValidateCommand(), newConfigShowCommand())

	return cmd
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate pyquick.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadProject(cmd)
			if err != nil {
				return err
			}

			reporter := reporterFrom(cmd.Context())

			if !cfg.Exists {
				reporter.OK("No %s in %s; defaults apply", filepath.Base(cfg.FilePath), cfg.RootDir)
				return nil
			}

			reporter.OK("%s is valid", cfg.FilePath)

			for _, w := range watchPathWarnings(cfg.Dev.Watch) {
				reporter.Warn("%s", w)
			}

			return nil
		},
	}
}

// watchPathWarnings flags [dev].watch entries that may reach outside the
// project root. They are legal, so validation still passes.
func watchPathWarnings(watch []string) []string {
	var warnings []string

	for _, p := range watch {
		switch {
		case filepath.IsAbs(p) || strings.HasPrefix(p, "/"):
			warnings = append(warnings, fmt.Sprintf("`[dev].watch` entry `%s` is absolute; prefer a path relative to the project root.", p))
		case slices.Contains(strings.Split(filepath.ToSlash(p), "/"), ".."):
			warnings = append(warnings, fmt.Sprintf("`[dev].watch` entry `%s` contains `..` and may point outside the project root.", p))
		}
	}

	return warnings
}

func newConfigShowCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective project configuration",
		Long:  "Show prints pyquick.toml with all defaults filled in.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadProject(cmd)
			if err != nil {
				return err
			}

			var out []byte

			switch format {
			case "yaml":
				out, err = sigsyaml.Marshal(cfg)
			case "json":
				out, err = json.MarshalIndent(cfg, "", "  ")
				out = append(out, '\n')
			default:
				return &ExitError{Code: 2, Err: &usageError{
					msg:  fmt.Sprintf("Unsupported output format `%s`.", format),
					hint: "Use -o yaml or -o json.",
				}}
			}

			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}

			_, err = cmd.OutOrStdout().Write(out)

			return err
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "output format: yaml, json")

	return cmd
}
