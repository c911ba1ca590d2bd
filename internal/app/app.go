package app

import (
	"github.com/trebuchet-org/treb-deploy/internal/adapters/blockchain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig

	// Shared dependencies
	Selector usecase.DeploymentSelector

	// Use cases
	RunDeployments  *usecase.RunDeployments
	ListTasks       *usecase.ListTasks
	ListDeployments *usecase.ListDeployments
	ShowDeployment  *usecase.ShowDeployment
	ListNetworks    *usecase.ListNetworks
	ResetRegistry   *usecase.ResetRegistry
	ShowConfig      *usecase.ShowConfig
	SetConfig       *usecase.SetConfig
	RemoveConfig    *usecase.RemoveConfig

	backend *blockchain.Backend
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	selector usecase.DeploymentSelector,
	runDeployments *usecase.RunDeployments,
	listTasks *usecase.ListTasks,
	listDeployments *usecase.ListDeployments,
	showDeployment *usecase.ShowDeployment,
	listNetworks *usecase.ListNetworks,
	resetRegistry *usecase.ResetRegistry,
	showConfig *usecase.ShowConfig,
	setConfig *usecase.SetConfig,
	removeConfig *usecase.RemoveConfig,
	backend *blockchain.Backend,
) (*App, error) {
	return &App{
		Config:          cfg,
		Selector:        selector,
		RunDeployments:  runDeployments,
		ListTasks:       listTasks,
		ListDeployments: listDeployments,
		ShowDeployment:  showDeployment,
		ListNetworks:    listNetworks,
		ResetRegistry:   resetRegistry,
		ShowConfig:      showConfig,
		SetConfig:       setConfig,
		RemoveConfig:    removeConfig,
		backend:         backend,
	}, nil
}

// Close releases RPC connections opened during the command
func (a *App) Close() {
	if a.backend != nil {
		a.backend.Close()
	}
}
