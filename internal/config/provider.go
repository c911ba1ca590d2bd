package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
)

// projectMarkers identify a project root, in order of preference
var projectMarkers = []string{DeployFileName, "foundry.toml"}

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        filepath.Join(projectRoot, ".treb"),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		JSON:           v.GetBool("json"),
		Timeout:        v.GetDuration("timeout"),
		DryRun:         v.GetBool("dry_run"),
	}

	deployFile, err := LoadDeployFile(projectRoot)
	if err != nil {
		return nil, err
	}
	cfg.DeployConfig = deployFile

	cfg.ArtifactsDir = resolvePath(projectRoot, v.GetString("artifacts_dir"), deployFile.Defaults.ArtifactsDir, config.DefaultArtifactsDir)
	cfg.TasksFile = resolvePath(projectRoot, v.GetString("tasks_file"), deployFile.Defaults.TasksFile, config.DefaultTasksFile)

	if networkName := v.GetString("network"); networkName != "" {
		resolver := ProvideNetworkResolver(cfg)
		network, err := resolver.ResolveNetwork(context.Background(), networkName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve network %s: %w", networkName, err)
		}
		cfg.Network = network
	}

	return cfg, nil
}

func resolvePath(projectRoot string, candidates ...string) string {
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(projectRoot, p)
	}
	return projectRoot
}

// FindProjectRoot walks up from current directory to find treb.toml or foundry.toml
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return findProjectRootFrom(dir)
}

func findProjectRootFrom(dir string) (string, error) {
	for {
		for _, marker := range projectMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a project (%s not found)", strings.Join(projectMarkers, " or "))
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance. Precedence is flags,
// then TREB_* environment variables, then .treb/config.local.json, then
// defaults.
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	v.SetConfigName("config.local")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(projectRoot, ".treb"))

	v.SetEnvPrefix("TREB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault("timeout", "30m")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("project_root", projectRoot)

	// Try to read config file (ignore error if not found)
	_ = v.ReadInConfig()

	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil {
				panic(err)
			}
		})
	}

	return v
}

// ProvideNetworkResolver creates a NetworkResolver for Wire dependency injection
func ProvideNetworkResolver(cfg *config.RuntimeConfig) *NetworkResolver {
	return NewNetworkResolver(filepath.Join(cfg.DataDir, "cache"), cfg.DeployConfig, nil)
}
