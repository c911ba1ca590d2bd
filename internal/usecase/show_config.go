package usecase

import (
	"context"

	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
)

// ShowConfigResult contains the result of showing configuration
type ShowConfigResult struct {
	Config     *config.LocalConfig
	ConfigPath string
	Exists     bool
	// Network is the resolved network of this invocation, if any
	Network *config.Network
	// Roles are the account roles declared in treb.toml
	Roles []string
}

// ShowConfig is a use case for showing configuration
type ShowConfig struct {
	config   *config.RuntimeConfig
	store    LocalConfigRepository
	accounts AccountResolver
}

// NewShowConfig creates a new ShowConfig use case
func NewShowConfig(cfg *config.RuntimeConfig, store LocalConfigRepository, accounts AccountResolver) *ShowConfig {
	return &ShowConfig{
		config:   cfg,
		store:    store,
		accounts: accounts,
	}
}

// Run executes the show config use case
func (uc *ShowConfig) Run(ctx context.Context) (*ShowConfigResult, error) {
	exists := uc.store.Exists()

	local, err := uc.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	return &ShowConfigResult{
		Config:     local,
		ConfigPath: uc.store.GetPath(),
		Exists:     exists,
		Network:    uc.config.Network,
		Roles:      uc.accounts.Roles(),
	}, nil
}
