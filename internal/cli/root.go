package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-deploy/internal/adapters/progress"
	"github.com/trebuchet-org/treb-deploy/internal/app"
	"github.com/trebuchet-org/treb-deploy/internal/config"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
	// releaseKey is the context key for the func releasing the app instance
	releaseKey contextKey = "release"
)

// reportedError marks an error whose details were already rendered
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error {
	return e.error
}

// IsReported reports whether err was already rendered by the command
func IsReported(err error) bool {
	var reported reportedError
	return errors.As(err, &reported)
}

// skipsApp lists commands that run without a project
var skipsApp = map[string]bool{
	"version":    true,
	"help":       true,
	"completion": true,
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "treb-deploy",
		Short: "Declarative, idempotent contract deployments",
		Long: `treb-deploy runs tagged deployment tasks against a network.

Each deployment is fingerprinted from its bytecode and constructor arguments.
A contract whose fingerprint is already recorded with enough confirmations
is reused; anything new or changed is deployed, confirmed and recorded in
.treb/deployments/<network>.json.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipsApp[cmd.Name()] {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
			}

			v := config.SetupViper(projectRoot, cmd)

			appInstance, err := app.InitApp(v, newProgressSink(cmd, v))
			if err != nil {
				return fmt.Errorf("%w: failed to initialize app: %w", domain.ErrInvalidConfig, err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)

			cancel := context.CancelFunc(func() {})
			if appInstance.Config.Timeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
			}
			ctx = context.WithValue(ctx, releaseKey, func() {
				cancel()
				appInstance.Close()
			})

			cmd.SetContext(ctx)

			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network to use (a [networks.<name>] entry of treb.toml)")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	for _, cmd := range []*cobra.Command{NewDeployCmd(), NewTasksCmd(), NewListCmd(), NewShowCmd()} {
		cmd.GroupID = "main"
		rootCmd.AddCommand(cmd)
	}

	for _, cmd := range []*cobra.Command{NewNetworksCmd(), NewResetCmd(), NewConfigCmd()} {
		cmd.GroupID = "management"
		rootCmd.AddCommand(cmd)
	}

	rootCmd.AddCommand(NewVersionCmd())

	releaseAfterRun(rootCmd)

	return rootCmd
}

// releaseAfterRun wraps every RunE so the app is released whether or not the
// command fails; cobra skips PostRun hooks after an error
func releaseAfterRun(cmd *cobra.Command) {
	for _, sub := range cmd.Commands() {
		releaseAfterRun(sub)
	}
	if cmd.RunE == nil {
		return
	}
	run := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		defer release(cmd)
		return run(cmd, args)
	}
}

// release cancels the command context and closes the app, if one was built
func release(cmd *cobra.Command) {
	if f, ok := cmd.Context().Value(releaseKey).(func()); ok {
		f()
	}
}

// newProgressSink picks the spinner for interactive deploys and a no-op sink otherwise
func newProgressSink(cmd *cobra.Command, v *viper.Viper) usecase.ProgressSink {
	if cmd.Name() != "deploy" || v.GetBool("json") {
		return progress.NewNopSink()
	}
	return progress.NewSpinnerProgressReporter()
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}
