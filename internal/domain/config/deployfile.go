package config

import "time"

const (
	DefaultConfirmations       uint64 = 1
	DefaultConfirmationTimeout        = 5 * time.Minute
	DefaultPollInterval               = 2 * time.Second
	DefaultArtifactsDir               = "out"
	DefaultTasksFile                  = "deploy/tasks.yaml"

	// DefaultAccountKey is the fallback entry of an account role
	DefaultAccountKey = "default"
)

// DeployFileConfig is the raw structure of treb.toml
//
//	[defaults]
//	confirmations = 1
//
//	[networks.sepolia]
//	rpc_url = "${SEPOLIA_RPC_URL}"
//	confirmations = 6
//
//	[accounts.deployer]
//	default = "${DEPLOYER_PRIVATE_KEY}"
type DeployFileConfig struct {
	Defaults DefaultsConfig           `toml:"defaults"`
	Networks map[string]NetworkConfig `toml:"networks"`
	// Accounts maps role -> network (or "default") -> address or private key
	Accounts map[string]map[string]string `toml:"accounts"`
}

// DefaultsConfig holds values applied to every network unless overridden
type DefaultsConfig struct {
	Confirmations       *uint64 `toml:"confirmations"`
	ConfirmationTimeout string  `toml:"confirmation_timeout"`
	PollInterval        string  `toml:"poll_interval"`
	ArtifactsDir        string  `toml:"artifacts_dir"`
	TasksFile           string  `toml:"tasks_file"`
	// DisableBuiltinTasks leaves only the tasks of the tasks file
	DisableBuiltinTasks bool `toml:"disable_builtin_tasks"`
}

// NetworkConfig is a [networks.<name>] section
type NetworkConfig struct {
	RPCURL              string  `toml:"rpc_url"`
	ChainID             uint64  `toml:"chain_id"`
	Confirmations       *uint64 `toml:"confirmations"`
	ConfirmationTimeout string  `toml:"confirmation_timeout"`
	PollInterval        string  `toml:"poll_interval"`
	GasLimit            uint64  `toml:"gas_limit"`
}
