package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// MockDeploymentSelector is a testify mock of the interactive selector
type MockDeploymentSelector struct {
	mock.Mock
}

func (m *MockDeploymentSelector) SelectDeployment(ctx context.Context, deployments []*models.Deployment, prompt string) (*models.Deployment, error) {
	args := m.Called(ctx, deployments, prompt)
	if d := args.Get(0); d != nil {
		return d.(*models.Deployment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDeploymentSelector) Confirm(ctx context.Context, prompt string) (bool, error) {
	args := m.Called(ctx, prompt)
	return args.Bool(0), args.Error(1)
}

func seededRegistry(t *testing.T) *memRegistry {
	t.Helper()
	registry := newMemRegistry()
	records := []*models.Deployment{
		{ContractName: "Transport", Address: "0x00000000000000000000000000000000000000a1", Task: "Transport", Tags: []string{"all", "Transport"}},
		{ContractName: "Registry", Address: "0x00000000000000000000000000000000000000b2", Task: "Core", Tags: []string{"all", "core"}},
		{ContractName: "Vault", Address: "0x00000000000000000000000000000000000000c3", Task: "Core", Tags: []string{"all", "core"}},
	}
	for _, r := range records {
		require.NoError(t, registry.Put(context.Background(), "sepolia", r))
	}
	return registry
}

func TestListDeployments(t *testing.T) {
	ctx := context.Background()
	cfg := &config.RuntimeConfig{Network: testNetwork()}
	uc := usecase.NewListDeployments(cfg, seededRegistry(t), usecase.NopProgress{})

	t.Run("all", func(t *testing.T) {
		result, err := uc.Run(ctx, usecase.ListDeploymentsParams{})
		require.NoError(t, err)
		assert.Equal(t, "sepolia", result.Network)
		require.Len(t, result.Deployments, 3)
		assert.Equal(t, "Registry", result.Deployments[0].ContractName)
		assert.Equal(t, 3, result.Summary.Total)
		assert.Equal(t, 2, result.Summary.ByTask["Core"])
		assert.Equal(t, 3, result.Summary.ByTag["all"])
	})

	t.Run("filters", func(t *testing.T) {
		result, err := uc.Run(ctx, usecase.ListDeploymentsParams{ContractName: "vault"})
		require.NoError(t, err)
		require.Len(t, result.Deployments, 1)
		assert.Equal(t, "Vault", result.Deployments[0].ContractName)

		result, err = uc.Run(ctx, usecase.ListDeploymentsParams{Tag: "core"})
		require.NoError(t, err)
		assert.Len(t, result.Deployments, 2)

		result, err = uc.Run(ctx, usecase.ListDeploymentsParams{Task: "Transport"})
		require.NoError(t, err)
		assert.Len(t, result.Deployments, 1)
	})

	t.Run("requires network", func(t *testing.T) {
		_, err := usecase.NewListDeployments(&config.RuntimeConfig{}, newMemRegistry(), usecase.NopProgress{}).
			Run(ctx, usecase.ListDeploymentsParams{})
		assert.ErrorIs(t, err, domain.ErrNoNetwork)
	})
}

func TestShowDeployment(t *testing.T) {
	ctx := context.Background()
	registry := seededRegistry(t)

	t.Run("by name", func(t *testing.T) {
		uc := usecase.NewShowDeployment(&config.RuntimeConfig{Network: testNetwork()}, registry, &MockDeploymentSelector{}, usecase.NopProgress{})
		d, err := uc.Run(ctx, usecase.ShowDeploymentParams{Ref: "Vault"})
		require.NoError(t, err)
		assert.Equal(t, "0x00000000000000000000000000000000000000c3", d.Address)
	})

	t.Run("case-insensitive name and address", func(t *testing.T) {
		uc := usecase.NewShowDeployment(&config.RuntimeConfig{Network: testNetwork()}, registry, &MockDeploymentSelector{}, usecase.NopProgress{})
		d, err := uc.Run(ctx, usecase.ShowDeploymentParams{Ref: "transport"})
		require.NoError(t, err)
		assert.Equal(t, "Transport", d.ContractName)

		d, err = uc.Run(ctx, usecase.ShowDeploymentParams{Ref: "0x00000000000000000000000000000000000000B2"})
		require.NoError(t, err)
		assert.Equal(t, "Registry", d.ContractName)
	})

	t.Run("not found", func(t *testing.T) {
		uc := usecase.NewShowDeployment(&config.RuntimeConfig{Network: testNetwork()}, registry, &MockDeploymentSelector{}, usecase.NopProgress{})
		_, err := uc.Run(ctx, usecase.ShowDeploymentParams{Ref: "Missing"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("interactive pick", func(t *testing.T) {
		selector := &MockDeploymentSelector{}
		selector.On("SelectDeployment", mock.Anything, mock.MatchedBy(func(ds []*models.Deployment) bool {
			return len(ds) == 3 && ds[0].ContractName == "Registry"
		}), "Select deployment").Return(&models.Deployment{ContractName: "Registry"}, nil)

		uc := usecase.NewShowDeployment(&config.RuntimeConfig{Network: testNetwork()}, registry, selector, usecase.NopProgress{})
		d, err := uc.Run(ctx, usecase.ShowDeploymentParams{})
		require.NoError(t, err)
		assert.Equal(t, "Registry", d.ContractName)
		selector.AssertExpectations(t)
	})

	t.Run("non-interactive needs a ref", func(t *testing.T) {
		selector := &MockDeploymentSelector{}
		uc := usecase.NewShowDeployment(&config.RuntimeConfig{Network: testNetwork(), NonInteractive: true}, registry, selector, usecase.NopProgress{})
		_, err := uc.Run(ctx, usecase.ShowDeploymentParams{})
		assert.ErrorContains(t, err, "non-interactive")
		selector.AssertNotCalled(t, "SelectDeployment", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestResetRegistry(t *testing.T) {
	ctx := context.Background()
	cfg := &config.RuntimeConfig{Network: testNetwork()}

	t.Run("dry run keeps records", func(t *testing.T) {
		registry := seededRegistry(t)
		result, err := usecase.NewResetRegistry(cfg, registry).Run(ctx, usecase.ResetRegistryParams{DryRun: true})
		require.NoError(t, err)
		assert.Len(t, result.Deployments, 3)
		assert.Zero(t, result.Removed)

		remaining, _ := registry.List(ctx, "sepolia")
		assert.Len(t, remaining, 3)
	})

	t.Run("removes every record", func(t *testing.T) {
		registry := seededRegistry(t)
		result, err := usecase.NewResetRegistry(cfg, registry).Run(ctx, usecase.ResetRegistryParams{})
		require.NoError(t, err)
		assert.Equal(t, 3, result.Removed)

		remaining, _ := registry.List(ctx, "sepolia")
		assert.Empty(t, remaining)
	})
}

// fakeNetworks is a NetworkResolver over a fixed set of networks
type fakeNetworks map[string]*config.Network

func (f fakeNetworks) GetNetworks(ctx context.Context) []string {
	return []string{"anvil", "sepolia"}
}

func (f fakeNetworks) ResolveNetwork(ctx context.Context, name string) (*config.Network, error) {
	if n, ok := f[name]; ok {
		return n, nil
	}
	return nil, errors.New("connection refused")
}

func TestListNetworks(t *testing.T) {
	networks := fakeNetworks{"sepolia": testNetwork()}
	result, err := usecase.NewListNetworks(networks, seededRegistry(t)).Run(context.Background(), usecase.ListNetworksParams{})
	require.NoError(t, err)
	require.Len(t, result.Networks, 2)

	anvil, sepolia := result.Networks[0], result.Networks[1]
	assert.Equal(t, "anvil", anvil.Name)
	assert.Error(t, anvil.Error)
	assert.Zero(t, anvil.Deployments)

	assert.NoError(t, sepolia.Error)
	assert.Equal(t, uint64(11155111), sepolia.ChainID)
	assert.Equal(t, uint64(2), sepolia.Confirmations)
	assert.Equal(t, 3, sepolia.Deployments)
}

func TestListTasks(t *testing.T) {
	noop := func(context.Context, domain.TaskEnv) error { return nil }
	catalog := staticCatalog{
		{Name: "Transport", Tags: []string{"all", "Transport"}, Func: noop},
		{Name: "Core", Tags: []string{"all", "core"}, Func: noop},
	}

	result, err := usecase.NewListTasks(catalog).Run(context.Background(), usecase.ListTasksParams{Tags: []string{"core"}})
	require.NoError(t, err)
	require.Len(t, result.Tasks, 1)
	assert.Equal(t, "Core", result.Tasks[0].Name)
	assert.Equal(t, []string{"core"}, result.Requested)
	assert.ElementsMatch(t, []string{"all", "core", "Transport"}, result.Tags)
}
