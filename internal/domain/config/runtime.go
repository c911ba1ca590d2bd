package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Context settings
	Network *Network // nil if not specified

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool // Output in JSON format
	Timeout        time.Duration

	// Command-specific settings (only populated for relevant commands)
	DryRun bool

	// Resolved paths
	ArtifactsDir string
	TasksFile    string

	// Parsed treb.toml
	DeployConfig *DeployFileConfig
}

// Network represents the network a run targets
type Network struct {
	Name                  string        `json:"name"`
	RPCURL                string        `json:"rpcUrl"`
	ChainID               uint64        `json:"chainId"`
	RequiredConfirmations uint64        `json:"requiredConfirmations"`
	ConfirmationTimeout   time.Duration `json:"confirmationTimeout"`
	PollInterval          time.Duration `json:"pollInterval"`
	GasLimit              uint64        `json:"gasLimit,omitempty"`
}
