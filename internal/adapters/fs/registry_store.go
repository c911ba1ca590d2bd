package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
	"github.com/trebuchet-org/treb-deploy/internal/usecase"
)

const (
	TrebDir         = ".treb"
	DeploymentsDir  = "deployments"
	RegistryVersion = "1"
)

// registryFile is the on-disk document of one network
type registryFile struct {
	Version     string                        `json:"version"`
	Network     string                        `json:"network"`
	ChainID     uint64                        `json:"chainId"`
	Deployments map[string]*models.Deployment `json:"deployments"`
}

// RegistryStore keeps one JSON document per network under .treb/deployments.
// Writes replace the whole document through renameio, so a reader sees either
// the previous or the next state and never a partial one.
type RegistryStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// commit is swapped in tests to simulate a crash before the replace
	commit func(f *renameio.PendingFile) error
}

// NewRegistryStore creates a registry rooted at <projectRoot>/.treb/deployments
func NewRegistryStore(cfg *config.RuntimeConfig) *RegistryStore {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = filepath.Join(cfg.ProjectRoot, TrebDir)
	}
	return NewRegistryStoreAt(filepath.Join(dataDir, DeploymentsDir))
}

// NewRegistryStoreAt creates a registry storing its files in dir
func NewRegistryStoreAt(dir string) *RegistryStore {
	return &RegistryStore{
		dir:    dir,
		locks:  make(map[string]*sync.Mutex),
		commit: (*renameio.PendingFile).CloseAtomicallyReplace,
	}
}

// Dir returns the directory holding the network files
func (s *RegistryStore) Dir() string {
	return s.dir
}

// Get returns the record of contractName on network
func (s *RegistryStore) Get(ctx context.Context, network string, contractName string) (*models.Deployment, error) {
	doc, err := s.load(network)
	if err != nil {
		return nil, err
	}
	record, ok := doc.Deployments[contractName]
	if !ok || record == nil {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

// List returns every record of network sorted by contract name
func (s *RegistryStore) List(ctx context.Context, network string) ([]*models.Deployment, error) {
	doc, err := s.load(network)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(doc.Deployments))
	for name := range doc.Deployments {
		names = append(names, name)
	}
	sort.Strings(names)

	deployments := make([]*models.Deployment, 0, len(names))
	for _, name := range names {
		if d := doc.Deployments[name]; d != nil {
			deployments = append(deployments, d)
		}
	}
	return deployments, nil
}

// Put replaces the record of record.ContractName on network
func (s *RegistryStore) Put(ctx context.Context, network string, record *models.Deployment) error {
	fail := func(err error) error {
		return &domain.RegistryWriteError{Network: network, ContractName: record.ContractName, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if record.ContractName == "" {
		return fail(errors.New("contract name is required"))
	}

	unlock, err := s.lock(network)
	if err != nil {
		return fail(err)
	}
	defer unlock()

	doc, err := s.load(network)
	if err != nil {
		return fail(err)
	}

	doc.Deployments[record.ContractName] = record
	if record.ChainID != 0 {
		doc.ChainID = record.ChainID
	}

	if err := s.save(network, doc); err != nil {
		return fail(err)
	}
	return nil
}

// Reset removes the registry file of network and returns the number of
// records it held
func (s *RegistryStore) Reset(ctx context.Context, network string) (int, error) {
	unlock, err := s.lock(network)
	if err != nil {
		return 0, err
	}
	defer unlock()

	doc, err := s.load(network)
	if err != nil {
		return 0, err
	}
	if err := os.Remove(s.path(network)); err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("failed to remove registry file: %w", err)
	}
	return len(doc.Deployments), nil
}

// lock serializes writers of one network within the process
func (s *RegistryStore) lock(network string) (func(), error) {
	if err := validateNetworkName(network); err != nil {
		return nil, err
	}

	s.mu.Lock()
	l, ok := s.locks[network]
	if !ok {
		l = &sync.Mutex{}
		s.locks[network] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock, nil
}

func (s *RegistryStore) path(network string) string {
	return filepath.Join(s.dir, network+".json")
}

// load reads the document of network, returning an empty one if it does not exist
func (s *RegistryStore) load(network string) (*registryFile, error) {
	if err := validateNetworkName(network); err != nil {
		return nil, err
	}

	doc := &registryFile{
		Version:     RegistryVersion,
		Network:     network,
		Deployments: make(map[string]*models.Deployment),
	}

	data, err := os.ReadFile(s.path(network))
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse registry %s: %w", s.path(network), err)
	}
	if doc.Deployments == nil {
		doc.Deployments = make(map[string]*models.Deployment)
	}
	return doc, nil
}

// save writes doc to a pending file in the registry directory and
// atomically replaces the network file with it
func (s *RegistryStore) save(network string, doc *registryFile) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	f, err := renameio.NewPendingFile(s.path(network), renameio.WithTempDir(s.dir), renameio.WithPermissions(0644))
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer f.Cleanup()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := s.commit(f); err != nil {
		return fmt.Errorf("failed to replace registry file: %w", err)
	}

	// Persist the rename itself; not every platform supports syncing a directory
	if dir, err := os.Open(s.dir); err == nil {
		_ = dir.Sync()
		_ = dir.Close()
	}
	return nil
}

func validateNetworkName(network string) error {
	if network == "" {
		return domain.ErrNoNetwork
	}
	if strings.ContainsAny(network, `/\`) || network == "." || network == ".." || strings.HasPrefix(network, ".") {
		return fmt.Errorf("invalid network name %q", network)
	}
	return nil
}

var _ usecase.ArtifactRegistry = (*RegistryStore)(nil)
