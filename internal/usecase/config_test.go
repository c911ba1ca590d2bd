package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

// memLocalConfig is an in-memory LocalConfigRepository
type memLocalConfig struct {
	saved *config.LocalConfig
}

func (m *memLocalConfig) Exists() bool { return m.saved != nil }

func (m *memLocalConfig) Load(ctx context.Context) (*config.LocalConfig, error) {
	if m.saved == nil {
		return config.DefaultLocalConfig(), nil
	}
	clone := *m.saved
	return &clone, nil
}

func (m *memLocalConfig) Save(ctx context.Context, cfg *config.LocalConfig) error {
	clone := *cfg
	m.saved = &clone
	return nil
}

func (m *memLocalConfig) GetPath() string { return "/project/.treb/config.local.json" }

func TestSetConfig(t *testing.T) {
	ctx := context.Background()
	networks := fakeNetworks{}

	t.Run("sets network via alias", func(t *testing.T) {
		store := &memLocalConfig{}
		result, err := usecase.NewSetConfig(store, networks).Run(ctx, usecase.SetConfigParams{Key: "NET", Value: "sepolia"})
		require.NoError(t, err)
		assert.Equal(t, config.ConfigKeyNetwork, result.Key)
		assert.Equal(t, "sepolia", store.saved.Network)
	})

	t.Run("rejects unconfigured network", func(t *testing.T) {
		store := &memLocalConfig{}
		_, err := usecase.NewSetConfig(store, networks).Run(ctx, usecase.SetConfigParams{Key: "network", Value: "mainnet"})
		assert.ErrorContains(t, err, "not configured")
		assert.Nil(t, store.saved)
	})

	t.Run("rejects unknown key", func(t *testing.T) {
		_, err := usecase.NewSetConfig(&memLocalConfig{}, networks).Run(ctx, usecase.SetConfigParams{Key: "namespace", Value: "x"})
		assert.ErrorContains(t, err, "unknown config key")
		assert.ErrorContains(t, err, "network (net)")
	})
}

func TestRemoveConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("clears network", func(t *testing.T) {
		store := &memLocalConfig{saved: &config.LocalConfig{Network: "sepolia"}}
		result, err := usecase.NewRemoveConfig(store).Run(ctx, usecase.RemoveConfigParams{Key: "network"})
		require.NoError(t, err)
		assert.Equal(t, "sepolia", result.RemovedValue)
		assert.Empty(t, store.saved.Network)
	})

	t.Run("no config file", func(t *testing.T) {
		_, err := usecase.NewRemoveConfig(&memLocalConfig{}).Run(ctx, usecase.RemoveConfigParams{Key: "network"})
		assert.ErrorContains(t, err, "no config file found")
	})
}

func TestShowConfig(t *testing.T) {
	store := &memLocalConfig{saved: &config.LocalConfig{Network: "anvil"}}
	cfg := &config.RuntimeConfig{Network: testNetwork()}

	result, err := usecase.NewShowConfig(cfg, store, fakeAccounts{"owner": {}, "deployer": {}}).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Exists)
	assert.Equal(t, "anvil", result.Config.Network)
	assert.Equal(t, "sepolia", result.Network.Name)
	assert.Equal(t, store.GetPath(), result.ConfigPath)
	assert.Equal(t, []string{"deployer", "owner"}, result.Roles)
}
