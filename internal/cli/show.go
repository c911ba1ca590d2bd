package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-deploy/internal/cli/render"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [contract|address]",
		Short: "Show a recorded deployment",
		Long: `Show detailed information about a recorded deployment of the selected
network. The deployment can be given by contract name or by address; without
an argument a picker lists every recorded deployment.

Examples:
  treb-deploy show Transport
  treb-deploy show 0x1234567890abcdef...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			var ref string
			if len(args) == 1 {
				ref = args[0]
			}

			deployment, err := app.ShowDeployment.Run(cmd.Context(), usecase.ShowDeploymentParams{Ref: ref})
			if err != nil {
				return fmt.Errorf("failed to resolve deployment: %w", err)
			}

			if app.Config.JSON {
				return render.NewJSONRenderer[*models.Deployment](cmd.OutOrStdout()).Render(deployment)
			}

			renderer := render.NewDeploymentRenderer(cmd.OutOrStdout(), !color.NoColor)
			return renderer.RenderDeployment(deployment)
		},
	}

	return cmd
}
