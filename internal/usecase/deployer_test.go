package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

type deployerHarness struct {
	registry *memRegistry
	backend  *fakeBackend
	progress *MockProgressSink
	deployer *usecase.Deployer
	from     models.Account
	task     *domain.Task
}

func newDeployerHarness(t *testing.T) *deployerHarness {
	t.Helper()
	h := &deployerHarness{
		registry: newMemRegistry(),
		backend:  &fakeBackend{},
		progress: &MockProgressSink{},
		task:     &domain.Task{Name: "Transport", Tags: []string{"all", "Transport"}},
	}
	key := deployerKey(t)
	h.from = models.Account{Role: "deployer", Network: "sepolia", Address: crypto.PubkeyToAddress(key.PublicKey), Key: key}

	artifacts := fakeArtifacts{
		"Transport": ownableArtifact(t, "Transport", common.FromHex("0x6080604052348015600f57600080fd5b50")),
	}
	waiter := usecase.NewConfirmationWaiter(h.backend, h.progress, discardLogger())
	h.deployer = usecase.NewDeployer(h.registry, artifacts, h.backend, waiter, h.progress, discardLogger())
	return h
}

func (h *deployerHarness) deploy(ctx context.Context, args ...any) (*models.DeployResult, error) {
	return h.deployer.Deploy(ctx, usecase.DeployRequest{
		Network: testNetwork(),
		Task:    h.task,
		Name:    "Transport",
		From:    h.from,
		Options: domain.DeployOptions{Args: args},
	})
}

func TestDeployer_Idempotent(t *testing.T) {
	ctx := context.Background()
	h := newDeployerHarness(t)

	first, err := h.deploy(ctx, ownerAddress)
	require.NoError(t, err)
	assert.Equal(t, models.DeploymentStatusDeployed, first.Status)
	assert.Equal(t, 1, h.backend.submitCount())
	assert.GreaterOrEqual(t, first.Deployment.Confirmations, uint64(2))

	second, err := h.deploy(ctx, ownerAddress)
	require.NoError(t, err)
	assert.Equal(t, models.DeploymentStatusSkipped, second.Status)
	assert.Equal(t, 1, h.backend.submitCount(), "second run must not submit a transaction")
	assert.Equal(t, first.Deployment.Address, second.Deployment.Address)
	assert.Equal(t, first.Deployment.Fingerprint, second.Deployment.Fingerprint)
	assert.Equal(t, 1, h.registry.puts)
}

func TestDeployer_RecordContents(t *testing.T) {
	h := newDeployerHarness(t)

	result, err := h.deploy(context.Background(), ownerAddress)
	require.NoError(t, err)

	record, err := h.registry.Get(context.Background(), "sepolia", "Transport")
	require.NoError(t, err)
	assert.Equal(t, result.Deployment.Address, record.Address)
	assert.Equal(t, "sepolia", record.Network)
	assert.Equal(t, uint64(11155111), record.ChainID)
	assert.Equal(t, h.from.Address.Hex(), record.Deployer)
	assert.Equal(t, []string{common.HexToAddress(ownerAddress).Hex()}, record.ConstructorArgs)
	assert.Equal(t, "Transport", record.Task)
	assert.Equal(t, []string{"all", "Transport"}, record.Tags)
	assert.NotEmpty(t, record.TransactionHash)
	assert.False(t, record.DeployedAt.IsZero())

	assert.Contains(t, h.progress.stages(), usecase.StageSubmitting)
	assert.Contains(t, h.progress.stages(), usecase.StageConfirming)
	assert.Contains(t, h.progress.stages(), usecase.StageRecorded)
}

func TestDeployer_FingerprintSensitivity(t *testing.T) {
	ctx := context.Background()
	h := newDeployerHarness(t)

	first, err := h.deploy(ctx, ownerAddress)
	require.NoError(t, err)

	second, err := h.deploy(ctx, "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	require.NoError(t, err)

	assert.Equal(t, models.DeploymentStatusDeployed, second.Status)
	assert.Equal(t, 2, h.backend.submitCount())
	assert.NotEqual(t, first.Deployment.Fingerprint, second.Deployment.Fingerprint)
	assert.Equal(t, first.Deployment.BytecodeHash, second.Deployment.BytecodeHash)
	require.NotNil(t, second.Previous)
	assert.Equal(t, first.Deployment.Address, second.Previous.Address)

	record, err := h.registry.Get(ctx, "sepolia", "Transport")
	require.NoError(t, err)
	assert.Equal(t, second.Deployment.Address, record.Address)
}

func TestDeployer_RedeploysWhenUnderConfirmed(t *testing.T) {
	ctx := context.Background()
	h := newDeployerHarness(t)

	first, err := h.deploy(ctx, ownerAddress)
	require.NoError(t, err)

	stale := *first.Deployment
	stale.Confirmations = 1
	require.NoError(t, h.registry.Put(ctx, "sepolia", &stale))

	second, err := h.deploy(ctx, ownerAddress)
	require.NoError(t, err)
	assert.Equal(t, models.DeploymentStatusDeployed, second.Status)
	assert.Equal(t, 2, h.backend.submitCount())
}

func TestDeployer_WaitConfirmationsOverride(t *testing.T) {
	ctx := context.Background()
	h := newDeployerHarness(t)

	five := uint64(5)
	result, err := h.deployer.Deploy(ctx, usecase.DeployRequest{
		Network: testNetwork(),
		Task:    h.task,
		Name:    "Transport",
		From:    h.from,
		Options: domain.DeployOptions{Args: []any{ownerAddress}, WaitConfirmations: &five},
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Deployment.Confirmations, uint64(5))
}

func TestDeployer_ZeroConfirmationsRequireReceipt(t *testing.T) {
	h := newDeployerHarness(t)
	h.backend.reverted = true

	zero := uint64(0)
	result, err := h.deployer.Deploy(context.Background(), usecase.DeployRequest{
		Network: testNetwork(),
		Task:    h.task,
		Name:    "Transport",
		From:    h.from,
		Options: domain.DeployOptions{Args: []any{ownerAddress}, WaitConfirmations: &zero},
	})
	require.ErrorIs(t, err, domain.ErrTransactionReverted)
	assert.Nil(t, result)
	assert.Equal(t, 0, h.registry.puts)
	assert.Equal(t, 1, h.backend.polls)
}

func TestDeployer_DryRun(t *testing.T) {
	h := newDeployerHarness(t)

	result, err := h.deployer.Deploy(context.Background(), usecase.DeployRequest{
		Network: testNetwork(),
		Task:    h.task,
		Name:    "Transport",
		From:    h.from,
		Options: domain.DeployOptions{Args: []any{ownerAddress}},
		DryRun:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.DeploymentStatusPending, result.Status)
	assert.NotEmpty(t, result.Deployment.Fingerprint)
	assert.Equal(t, 0, h.backend.submitCount())
	assert.Equal(t, 0, h.registry.puts)
}

func TestDeployer_Failures(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(h *deployerHarness)
		args     []any
		contract string
		check    func(t *testing.T, h *deployerHarness, err error)
	}{
		{
			name:     "missing artifact",
			args:     []any{ownerAddress},
			contract: "Missing",
			check: func(t *testing.T, h *deployerHarness, err error) {
				assert.ErrorIs(t, err, domain.ErrNotFound)
				assert.Equal(t, 0, h.backend.submitCount())
			},
		},
		{
			name: "wrong argument count",
			args: nil,
			check: func(t *testing.T, h *deployerHarness, err error) {
				assert.Contains(t, err.Error(), "expects 1 arguments, got 0")
				assert.Equal(t, 0, h.backend.submitCount())
			},
		},
		{
			name: "invalid address argument",
			args: []any{"not-an-address"},
			check: func(t *testing.T, h *deployerHarness, err error) {
				assert.ErrorIs(t, err, domain.ErrInvalidAddress)
			},
		},
		{
			name: "read-only account",
			args: []any{ownerAddress},
			setup: func(h *deployerHarness) {
				h.from.Key = nil
			},
			check: func(t *testing.T, h *deployerHarness, err error) {
				assert.ErrorIs(t, err, domain.ErrNoSigner)
				assert.Equal(t, 0, h.backend.submitCount())
			},
		},
		{
			name: "submit fails",
			args: []any{ownerAddress},
			setup: func(h *deployerHarness) {
				h.backend.submitErr = errors.New("insufficient funds for gas * price + value")
			},
			check: func(t *testing.T, h *deployerHarness, err error) {
				assert.Contains(t, err.Error(), "insufficient funds")
				assert.Equal(t, 0, h.registry.puts)
			},
		},
		{
			name: "reverted",
			args: []any{ownerAddress},
			setup: func(h *deployerHarness) {
				h.backend.reverted = true
			},
			check: func(t *testing.T, h *deployerHarness, err error) {
				assert.ErrorIs(t, err, domain.ErrTransactionReverted)
				assert.Equal(t, 0, h.registry.puts)
			},
		},
		{
			name: "registry write fails",
			args: []any{ownerAddress},
			setup: func(h *deployerHarness) {
				h.registry.putErr = errors.New("no space left on device")
			},
			check: func(t *testing.T, h *deployerHarness, err error) {
				var writeErr *domain.RegistryWriteError
				require.ErrorAs(t, err, &writeErr)
				assert.Equal(t, "Transport", writeErr.ContractName)
				assert.Equal(t, domain.ExitRegistryWrite, domain.ExitCode(err))
				assert.Equal(t, 1, h.backend.submitCount())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newDeployerHarness(t)
			if tt.setup != nil {
				tt.setup(h)
			}

			_, err := h.deployer.Deploy(context.Background(), usecase.DeployRequest{
				Network: testNetwork(),
				Task:    h.task,
				Name:    "Transport",
				From:    h.from,
				Options: domain.DeployOptions{Contract: tt.contract, Args: tt.args},
			})
			require.Error(t, err)

			var deployErr *domain.DeploymentError
			require.ErrorAs(t, err, &deployErr)
			assert.Equal(t, "Transport", deployErr.Task)
			assert.Equal(t, "Transport", deployErr.Contract)

			_, getErr := h.registry.Get(context.Background(), "sepolia", "Transport")
			assert.ErrorIs(t, getErr, domain.ErrNotFound)

			tt.check(t, h, err)
		})
	}
}
