package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-deploy/internal/cli/render"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var (
		contractName string
		task         string
		tag          string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List deployments recorded for the selected network",
		Example: `  # List all deployments on sepolia
  treb-deploy list --network sepolia

  # List deployments made by tasks tagged core
  treb-deploy list --tag core`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ListDeployments.Run(cmd.Context(), usecase.ListDeploymentsParams{
				ContractName: contractName,
				Task:         task,
				Tag:          tag,
			})
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.NewJSONRenderer[[]*models.Deployment](cmd.OutOrStdout()).Render(result.Deployments)
			}

			renderer := render.NewDeploymentsRenderer(cmd.OutOrStdout(), !color.NoColor)
			return renderer.RenderDeploymentList(result)
		},
	}

	cmd.Flags().StringVar(&contractName, "contract", "", "Filter by contract name")
	cmd.Flags().StringVar(&task, "task", "", "Filter by the task that recorded the deployment")
	cmd.Flags().StringVar(&tag, "tag", "", "Filter by task tag")

	return cmd
}
