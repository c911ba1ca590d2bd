package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-deploy/internal/cli/render"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// NewResetCmd creates the reset command
func NewResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Remove every recorded deployment of the selected network",
		Long: `Remove every recorded deployment of the selected network.

The next deploy redeploys every contract on that network. The network is
determined from the current configuration context (set via
'treb-deploy config set network' or the --network flag).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			if app.Config.Network == nil {
				return domain.ErrNoNetwork
			}
			network := app.Config.Network

			result, err := app.ResetRegistry.Run(cmd.Context(), usecase.ResetRegistryParams{DryRun: true})
			if err != nil {
				return err
			}

			if len(result.Deployments) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Nothing to reset. No deployments recorded on network '%s'.\n", network.Name)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Found %d deployment(s) to reset on network '%s' (chain %d):\n\n",
				len(result.Deployments), network.Name, network.ChainID)
			for _, d := range result.Deployments {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-30s %s\n", d.ContractName, d.Address)
			}
			fmt.Fprintln(cmd.OutOrStdout())

			if !app.Config.NonInteractive {
				ok, err := app.Selector.Confirm(cmd.Context(),
					fmt.Sprintf("Reset the registry of network '%s'? This cannot be undone", network.Name))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Reset cancelled.")
					return nil
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Running in non-interactive mode. Proceeding with reset...")
			}

			result, err = app.ResetRegistry.Run(cmd.Context(), usecase.ResetRegistryParams{DryRun: false})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), render.FormatSuccess(fmt.Sprintf("Removed %d deployment(s) from network '%s'", result.Removed, network.Name)))
			return nil
		},
	}

	return cmd
}
