package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
)

// DeployFileName is the project configuration file
const DeployFileName = "treb.toml"

// loadEnvFiles loads .env.local and .env from the project root. Variables
// already present in the environment are never overridden, so .env.local
// wins over .env.
func loadEnvFiles(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env.local"),
		filepath.Join(projectRoot, ".env"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

// LoadDeployFile parses treb.toml from the project root. A missing file is
// an empty configuration; ${VAR} references in RPC URLs and account values
// are expanded from the environment.
func LoadDeployFile(projectRoot string) (*config.DeployFileConfig, error) {
	loadEnvFiles(projectRoot)

	cfg := &config.DeployFileConfig{}
	path := filepath.Join(projectRoot, DeployFileName)

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return normalizeDeployFile(cfg), nil
		}
		return nil, fmt.Errorf("failed to parse %s: %w", DeployFileName, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in %s: %v", DeployFileName, undecoded)
	}

	return normalizeDeployFile(cfg), nil
}

func normalizeDeployFile(cfg *config.DeployFileConfig) *config.DeployFileConfig {
	if cfg.Networks == nil {
		cfg.Networks = make(map[string]config.NetworkConfig)
	}
	if cfg.Accounts == nil {
		cfg.Accounts = make(map[string]map[string]string)
	}

	for name, network := range cfg.Networks {
		network.RPCURL = os.ExpandEnv(network.RPCURL)
		cfg.Networks[name] = network
	}

	for role, entries := range cfg.Accounts {
		for key, value := range entries {
			entries[key] = os.ExpandEnv(value)
		}
		cfg.Accounts[role] = entries
	}

	return cfg
}
