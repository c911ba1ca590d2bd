package adapters

import (
	"github.com/google/wire"
	"github.com/trebuchet-org/treb-deploy/internal/adapters/accounts"
	"github.com/trebuchet-org/treb-deploy/internal/adapters/artifacts"
	"github.com/trebuchet-org/treb-deploy/internal/adapters/blockchain"
	"github.com/trebuchet-org/treb-deploy/internal/adapters/fs"
	"github.com/trebuchet-org/treb-deploy/internal/adapters/interactive"
	"github.com/trebuchet-org/treb-deploy/internal/config"
	"github.com/trebuchet-org/treb-deploy/internal/tasks"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	fs.NewRegistryStore,
	wire.Bind(new(usecase.ArtifactRegistry), new(*fs.RegistryStore)),

	fs.NewLocalConfigStoreAdapter,
	wire.Bind(new(usecase.LocalConfigRepository), new(*fs.LocalConfigStoreAdapter)),

	artifacts.NewRepository,
	wire.Bind(new(usecase.ArtifactRepository), new(*artifacts.Repository)),
)

// AccountsSet provides the named account resolver
var AccountsSet = wire.NewSet(
	accounts.NewResolver,
	wire.Bind(new(usecase.AccountResolver), new(*accounts.Resolver)),
)

// TasksSet provides the task catalog
var TasksSet = wire.NewSet(
	tasks.NewCatalog,
	wire.Bind(new(usecase.TaskCatalog), new(*tasks.Catalog)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.DeploymentSelector), new(*interactive.SelectorAdapter)),
)

// ConfigSet provides configuration-based implementations
var ConfigSet = wire.NewSet(
	config.ProvideNetworkResolver,
	wire.Bind(new(usecase.NetworkResolver), new(*config.NetworkResolver)),
)

// BlockchainSet provides blockchain-based implementations
var BlockchainSet = wire.NewSet(
	blockchain.NewBackend,
	wire.Bind(new(usecase.DeploymentBackend), new(*blockchain.Backend)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	FSSet,
	AccountsSet,
	TasksSet,
	InteractiveSet,
	ConfigSet,
	BlockchainSet,
)
