package usecase_test

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

const (
	deployerKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	ownerAddress   = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	ownableABI     = `[{"type":"constructor","stateMutability":"nonpayable","inputs":[{"name":"owner","type":"address"}]}]`
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testNetwork() *config.Network {
	return &config.Network{
		Name:                  "sepolia",
		RPCURL:                "http://localhost:8545",
		ChainID:               11155111,
		RequiredConfirmations: 2,
		ConfirmationTimeout:   500 * time.Millisecond,
		PollInterval:          5 * time.Millisecond,
	}
}

func deployerKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.HexToECDSA(deployerKeyHex)
	require.NoError(t, err)
	return key
}

func ownableArtifact(t *testing.T, name string, bytecode []byte) *models.Artifact {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(ownableABI))
	require.NoError(t, err)
	return &models.Artifact{
		Name:     name,
		Path:     fmt.Sprintf("out/%s.sol/%s.json", name, name),
		Bytecode: bytecode,
		ABI:      &parsed,
	}
}

// MockProgressSink records everything reported to it
type MockProgressSink struct {
	mu     sync.Mutex
	events []usecase.ProgressEvent
	infos  []string
	errors []string
}

func (m *MockProgressSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MockProgressSink) Info(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, message)
}

func (m *MockProgressSink) Error(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, message)
}

func (m *MockProgressSink) stages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	stages := make([]string, len(m.events))
	for i, e := range m.events {
		stages[i] = e.Stage
	}
	return stages
}

// memRegistry is an in-memory ArtifactRegistry
type memRegistry struct {
	mu      sync.Mutex
	records map[string]map[string]*models.Deployment
	putErr  error
	puts    int
}

func newMemRegistry() *memRegistry {
	return &memRegistry{records: make(map[string]map[string]*models.Deployment)}
}

func (r *memRegistry) Get(ctx context.Context, network, name string) (*models.Deployment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.records[network][name]; ok {
		clone := *d
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memRegistry) Put(ctx context.Context, network string, record *models.Deployment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.putErr != nil {
		return r.putErr
	}
	if r.records[network] == nil {
		r.records[network] = make(map[string]*models.Deployment)
	}
	clone := *record
	r.records[network][record.ContractName] = &clone
	r.puts++
	return nil
}

func (r *memRegistry) List(ctx context.Context, network string) ([]*models.Deployment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Deployment
	for _, d := range r.records[network] {
		clone := *d
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ContractName < out[j].ContractName })
	return out, nil
}

func (r *memRegistry) Reset(ctx context.Context, network string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.records[network])
	delete(r.records, network)
	return n, nil
}

// fakeArtifacts serves artifacts from a map
type fakeArtifacts map[string]*models.Artifact

func (f fakeArtifacts) GetArtifact(ctx context.Context, name string) (*models.Artifact, error) {
	if a, ok := f[name]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("artifact %s: %w", name, domain.ErrNotFound)
}

// fakeAccounts resolves roles from a map, regardless of network
type fakeAccounts map[string]models.Account

func (f fakeAccounts) Resolve(ctx context.Context, role, network string) (models.Account, error) {
	a, ok := f[role]
	if !ok {
		return models.Account{}, &domain.UnknownRoleError{Role: role, Network: network}
	}
	a.Role = role
	a.Network = network
	return a, nil
}

func (f fakeAccounts) Roles() []string {
	roles := make([]string, 0, len(f))
	for role := range f {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// fakeBackend mines every submitted transaction on the first poll and adds
// one confirmation per poll after that
type fakeBackend struct {
	mu sync.Mutex

	submits   int
	polls     int
	initCodes [][]byte

	// transientErrs fails the first n polls with a connection error
	transientErrs int
	// pendingPolls reports "not mined" for n polls after the transient errors
	pendingPolls int
	reverted     bool
	stuck        bool
	submitErr    error
}

func (b *fakeBackend) Submit(ctx context.Context, network *config.Network, from models.Account, initCode []byte) (*models.Submission, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.submitErr != nil {
		return nil, b.submitErr
	}
	b.submits++
	b.polls = 0
	b.initCodes = append(b.initCodes, initCode)
	nonce := uint64(b.submits - 1)
	return &models.Submission{
		TxHash:  fmt.Sprintf("0x%064x", b.submits),
		Address: crypto.CreateAddress(from.Address, nonce).Hex(),
		Nonce:   nonce,
	}, nil
}

func (b *fakeBackend) Confirmations(ctx context.Context, network *config.Network, txHash string) (*models.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.polls++
	switch {
	case b.polls <= b.transientErrs:
		return nil, errors.New("dial tcp 127.0.0.1:8545: connection refused")
	case b.reverted:
		return nil, domain.ErrTransactionReverted
	case b.stuck || b.polls <= b.transientErrs+b.pendingPolls:
		return nil, nil
	}
	return &models.Receipt{
		TxHash:        txHash,
		BlockHash:     fmt.Sprintf("0x%064x", 1000+b.submits),
		BlockNumber:   uint64(100 + b.submits),
		Confirmations: uint64(b.polls - b.transientErrs - b.pendingPolls),
	}, nil
}

func (b *fakeBackend) submitCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.submits
}

// staticCatalog returns a fixed list of tasks
type staticCatalog []*domain.Task

func (c staticCatalog) Tasks(ctx context.Context) ([]*domain.Task, error) {
	return c, nil
}
