package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/renameio/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
)

func newTestRegistryStore(t *testing.T) *RegistryStore {
	t.Helper()
	return NewRegistryStore(&config.RuntimeConfig{DataDir: t.TempDir()})
}

func testRecord(name, address string) *models.Deployment {
	return &models.Deployment{
		ContractName:    name,
		Network:         "sepolia",
		ChainID:         11155111,
		Address:         address,
		Deployer:        "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		ConstructorArgs: []string{"0x70997970C51812dc3A010C7d01b50e0d17dc79C8"},
		Fingerprint:     "0x" + fmt.Sprintf("%064x", len(name)),
		TransactionHash: "0x" + fmt.Sprintf("%064x", 1),
		BlockNumber:     42,
		Confirmations:   2,
		Task:            name,
		Tags:            []string{"all", name},
		DeployedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestRegistryStore_GetMissing(t *testing.T) {
	store := newTestRegistryStore(t)

	_, err := store.Get(context.Background(), "sepolia", "Transport")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := store.List(context.Background(), "sepolia")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRegistryStore_RoundTripAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := NewRegistryStoreAt(dir)
	record := testRecord("Transport", "0x5FbDB2315678afecb367f032d93F642f64180aa3")
	require.NoError(t, first.Put(ctx, "sepolia", record))

	second := NewRegistryStoreAt(dir)
	got, err := second.Get(ctx, "sepolia", "Transport")
	require.NoError(t, err)
	assert.Equal(t, record, got)

	_, err = second.Get(ctx, "mainnet", "Transport")
	assert.ErrorIs(t, err, domain.ErrNotFound, "records are scoped per network")

	raw, err := os.ReadFile(filepath.Join(dir, "sepolia.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"version": "1"`)
	assert.Contains(t, string(raw), `"chainId": 11155111`)
}

func TestRegistryStore_PutReplaces(t *testing.T) {
	store := newTestRegistryStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sepolia", testRecord("Transport", "0x1111111111111111111111111111111111111111")))
	require.NoError(t, store.Put(ctx, "sepolia", testRecord("Transport", "0x2222222222222222222222222222222222222222")))

	list, err := store.List(ctx, "sepolia")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "0x2222222222222222222222222222222222222222", list[0].Address)
}

func TestRegistryStore_InterruptedWriteKeepsPriorState(t *testing.T) {
	store := newTestRegistryStore(t)
	ctx := context.Background()

	original := testRecord("Transport", "0x1111111111111111111111111111111111111111")
	require.NoError(t, store.Put(ctx, "sepolia", original))

	store.commit = func(f *renameio.PendingFile) error {
		return errors.New("simulated crash")
	}

	err := store.Put(ctx, "sepolia", testRecord("Transport", "0x2222222222222222222222222222222222222222"))
	var writeErr *domain.RegistryWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "sepolia", writeErr.Network)
	assert.Equal(t, "Transport", writeErr.ContractName)

	err = store.Put(ctx, "sepolia", testRecord("Registry", "0x3333333333333333333333333333333333333333"))
	require.Error(t, err)

	reopened := NewRegistryStoreAt(store.Dir())
	got, err := reopened.Get(ctx, "sepolia", "Transport")
	require.NoError(t, err)
	assert.Equal(t, original.Address, got.Address)

	_, err = reopened.Get(ctx, "sepolia", "Registry")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up after a failed write")
}

func TestRegistryStore_FileIsWorldReadable(t *testing.T) {
	store := newTestRegistryStore(t)

	require.NoError(t, store.Put(context.Background(), "sepolia", testRecord("Transport", "0x1111111111111111111111111111111111111111")))

	info, err := os.Stat(filepath.Join(store.Dir(), "sepolia.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestRegistryStore_IgnoresStrayTempFiles(t *testing.T) {
	store := newTestRegistryStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sepolia", testRecord("Transport", "0x1111111111111111111111111111111111111111")))
	stray := filepath.Join(store.Dir(), ".sepolia.json.123456.tmp")
	require.NoError(t, os.WriteFile(stray, []byte(`{"deployments": {"Transp`), 0644))

	list, err := store.List(ctx, "sepolia")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, store.Put(ctx, "sepolia", testRecord("Registry", "0x2222222222222222222222222222222222222222")))
	list, err = store.List(ctx, "sepolia")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestRegistryStore_ConcurrentPutsDoNotLoseUpdates(t *testing.T) {
	store := newTestRegistryStore(t)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.Put(ctx, "sepolia", testRecord(fmt.Sprintf("Contract%02d", i), fmt.Sprintf("0x%040x", i+1)))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	list, err := store.List(ctx, "sepolia")
	require.NoError(t, err)
	assert.Len(t, list, n)
	assert.Equal(t, "Contract00", list[0].ContractName)
}

func TestRegistryStore_Reset(t *testing.T) {
	store := newTestRegistryStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sepolia", testRecord("Transport", "0x1111111111111111111111111111111111111111")))
	require.NoError(t, store.Put(ctx, "sepolia", testRecord("Registry", "0x2222222222222222222222222222222222222222")))
	require.NoError(t, store.Put(ctx, "mainnet", testRecord("Transport", "0x3333333333333333333333333333333333333333")))

	removed, err := store.Reset(ctx, "sepolia")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	list, err := store.List(ctx, "sepolia")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = store.Get(ctx, "mainnet", "Transport")
	assert.NoError(t, err)

	removed, err = store.Reset(ctx, "sepolia")
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestRegistryStore_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid network name", func(t *testing.T) {
		store := newTestRegistryStore(t)
		err := store.Put(ctx, "../escape", testRecord("Transport", "0x1111111111111111111111111111111111111111"))
		var writeErr *domain.RegistryWriteError
		assert.ErrorAs(t, err, &writeErr)

		_, err = store.Get(ctx, "", "Transport")
		assert.ErrorIs(t, err, domain.ErrNoNetwork)
	})

	t.Run("corrupt registry file", func(t *testing.T) {
		store := newTestRegistryStore(t)
		require.NoError(t, os.MkdirAll(store.Dir(), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "sepolia.json"), []byte("{not json"), 0644))

		_, err := store.Get(ctx, "sepolia", "Transport")
		assert.ErrorContains(t, err, "failed to parse registry")

		err = store.Put(ctx, "sepolia", testRecord("Transport", "0x1111111111111111111111111111111111111111"))
		var writeErr *domain.RegistryWriteError
		assert.ErrorAs(t, err, &writeErr)

		raw, err := os.ReadFile(filepath.Join(store.Dir(), "sepolia.json"))
		require.NoError(t, err)
		assert.Equal(t, "{not json", string(raw), "a corrupt file is never overwritten blindly")
	})

	t.Run("canceled context", func(t *testing.T) {
		store := newTestRegistryStore(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := store.Put(cctx, "sepolia", testRecord("Transport", "0x1111111111111111111111111111111111111111"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}
