package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-deploy/internal/cli/render"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	var (
		tags            []string
		requireMatch    bool
		continueOnError bool
		selectTags      bool
	)

	cmd := &cobra.Command{
		Use:   "deploy [tags...]",
		Short: "Run deployment tasks on the selected network",
		Long: `Run every task whose tags intersect the requested tags, in registration
order. Without tags every registered task runs.

Contracts that are already recorded with the same fingerprint and enough
confirmations are reused; everything else is deployed, confirmed and recorded.

With --dry-run nothing is sent or recorded. A task that references a
deployment planned earlier in the same dry run sees the zero address in
its place.

Exit codes: 0 success, 1 task failure, 2 no matching task (--require-match),
3 confirmation timeout, 4 registry write failure, 5 configuration error.`,
		Example: `  # Deploy everything to sepolia
  treb-deploy deploy --network sepolia

  # Deploy tasks tagged Transport or core
  treb-deploy deploy --tags Transport,core

  # Show what would be deployed
  treb-deploy deploy --tags all --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			tags = append(tags, args...)

			if selectTags {
				if app.Config.NonInteractive {
					return fmt.Errorf("--select cannot be used in non-interactive mode")
				}
				listed, err := app.ListTasks.Run(cmd.Context(), usecase.ListTasksParams{})
				if err != nil {
					return err
				}
				chosen, err := SelectTags(listed.Tags, "Select tags to deploy")
				if err != nil {
					return err
				}
				tags = append(tags, chosen...)
			}

			result, err := app.RunDeployments.Run(cmd.Context(), usecase.RunDeploymentsParams{
				Tags:            tags,
				RequireMatch:    requireMatch,
				ContinueOnError: continueOnError,
				DryRun:          app.Config.DryRun,
			})
			if result == nil {
				return err
			}

			if app.Config.JSON {
				if renderErr := render.NewJSONRenderer[render.RunResultView](cmd.OutOrStdout()).Render(render.NewRunResultView(result)); renderErr != nil {
					return renderErr
				}
			} else {
				renderer := render.NewRunRenderer(cmd.OutOrStdout(), !color.NoColor)
				if renderErr := renderer.RenderRunResult(result); renderErr != nil {
					return renderErr
				}
			}

			if err != nil {
				return reportedError{err}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&tags, "tags", "t", nil, "Only run tasks carrying one of these tags (comma separated)")
	cmd.Flags().BoolVar(&requireMatch, "require-match", false, "Fail when no task matches the requested tags")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "Keep running the remaining tasks after a task fails")
	cmd.Flags().Bool("dry-run", false, "Report what would be deployed without sending transactions")
	cmd.Flags().BoolVar(&selectTags, "select", false, "Pick tags interactively")

	return cmd
}
