package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/pyqck/internal/patch"
)

func newSyncCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Generate files for the enabled [features]",
		Long: `Sync creates or updates the files that back the features enabled in
pyquick.toml: .pre-commit-config.yaml for pre_commit and a GitHub Actions
workflow for ci. Files that already match are left alone.

With --dry-run the pending changes are shown as unified diffs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadProject(cmd)
			if err != nil {
				return err
			}

			reporter := reporterFrom(cmd.Context())

			if cfg.Features.CI && cfg.CI.Provider != patch.ProviderGitHub {
				reporter.Warn("CI provider `%s` has no generated workflow; only `github` is supported.", cfg.CI.Provider)
			}

			ops, err := patch.Plan(cfg)
			if err != nil {
				return err
			}

			if len(ops) == 0 {
				reporter.OK("Project files are up to date")
				return nil
			}

			if dryRun {
				for _, op := range ops {
					diff, err := patch.Diff(cfg.RootDir, op)
					if err != nil {
						return err
					}

					reporter.Info("would %s %s (%s)", op.Type, op.Path, op.Description)
					reporter.Output(diff)
				}

				return nil
			}

			applied, err := patch.Apply(cfg.RootDir, ops, false)
			if err != nil {
				return fmt.Errorf("syncing features: %w", err)
			}

			for _, res := range applied.Results {
				reporter.OK("%s", res.Message)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show changes without writing files")

	return cmd
}
