package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
)

// ChainIDFetcher asks an RPC endpoint for its chain ID
type ChainIDFetcher func(ctx context.Context, rpcURL string) (uint64, error)

// NetworkResolver resolves network names to configurations with caching
type NetworkResolver struct {
	cacheDir string
	deploy   *config.DeployFileConfig
	fetch    ChainIDFetcher
	cache    *NetworkCache
	mu       sync.RWMutex
}

// NetworkCache caches chain ID lookups
type NetworkCache struct {
	RPCs      map[string]uint64 `json:"rpcs"` // rpcURL -> chainID
	UpdatedAt time.Time         `json:"updatedAt"`
}

// NewNetworkResolver creates a new network resolver. cacheDir may be empty
// to keep chain IDs in memory only.
func NewNetworkResolver(cacheDir string, deploy *config.DeployFileConfig, fetch ChainIDFetcher) *NetworkResolver {
	if deploy == nil {
		deploy = &config.DeployFileConfig{}
	}
	if fetch == nil {
		fetch = fetchChainID
	}
	r := &NetworkResolver{
		cacheDir: cacheDir,
		deploy:   deploy,
		fetch:    fetch,
	}

	r.loadCache()

	return r
}

// GetNetworks returns all configured network names, sorted
func (r *NetworkResolver) GetNetworks(ctx context.Context) []string {
	names := lo.Keys(r.deploy.Networks)
	sort.Strings(names)
	return names
}

// ResolveNetwork resolves a network name to its configuration, applying
// [defaults] and asking the RPC for the chain ID when none is configured
func (r *NetworkResolver) ResolveNetwork(ctx context.Context, networkName string) (*config.Network, error) {
	nc, exists := r.deploy.Networks[networkName]
	if !exists {
		return nil, fmt.Errorf("network '%s' not found in %s [networks]", networkName, DeployFileName)
	}
	if nc.RPCURL == "" {
		return nil, fmt.Errorf("network '%s' has no rpc_url", networkName)
	}

	defaults := r.deploy.Defaults
	network := &config.Network{
		Name:                  networkName,
		RPCURL:                nc.RPCURL,
		ChainID:               nc.ChainID,
		RequiredConfirmations: config.DefaultConfirmations,
		ConfirmationTimeout:   config.DefaultConfirmationTimeout,
		PollInterval:          config.DefaultPollInterval,
		GasLimit:              nc.GasLimit,
	}

	switch {
	case nc.Confirmations != nil:
		network.RequiredConfirmations = *nc.Confirmations
	case defaults.Confirmations != nil:
		network.RequiredConfirmations = *defaults.Confirmations
	}

	var err error
	if network.ConfirmationTimeout, err = pickDuration(nc.ConfirmationTimeout, defaults.ConfirmationTimeout, config.DefaultConfirmationTimeout); err != nil {
		return nil, fmt.Errorf("network '%s': invalid confirmation_timeout: %w", networkName, err)
	}
	if network.PollInterval, err = pickDuration(nc.PollInterval, defaults.PollInterval, config.DefaultPollInterval); err != nil {
		return nil, fmt.Errorf("network '%s': invalid poll_interval: %w", networkName, err)
	}

	if network.ChainID == 0 {
		chainID, err := r.chainID(ctx, nc.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch chain ID for network %s: %w", networkName, err)
		}
		network.ChainID = chainID
	}

	return network, nil
}

func pickDuration(value, fallback string, def time.Duration) (time.Duration, error) {
	raw := value
	if raw == "" {
		raw = fallback
	}
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", raw)
	}
	return d, nil
}

func (r *NetworkResolver) chainID(ctx context.Context, rpcURL string) (uint64, error) {
	r.mu.RLock()
	chainID, cached := r.cache.RPCs[rpcURL]
	r.mu.RUnlock()
	if cached {
		return chainID, nil
	}

	chainID, err := r.fetch(ctx, rpcURL)
	if err != nil {
		return 0, err
	}

	r.updateCache(rpcURL, chainID)
	return chainID, nil
}

// fetchChainID dials rpcURL and asks for eth_chainId
func fetchChainID(ctx context.Context, rpcURL string) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	defer client.Close()

	id, err := client.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("eth_chainId failed: %w", err)
	}
	return id.Uint64(), nil
}

func (r *NetworkResolver) cachePath() string {
	return filepath.Join(r.cacheDir, "chainIds.json")
}

// loadCache loads the chain ID cache from disk
func (r *NetworkResolver) loadCache() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache = &NetworkCache{
		RPCs:      make(map[string]uint64),
		UpdatedAt: time.Now(),
	}

	if r.cacheDir == "" {
		return
	}

	data, err := os.ReadFile(r.cachePath())
	if err != nil {
		return
	}

	var loaded NetworkCache
	if err := json.Unmarshal(data, &loaded); err != nil || loaded.RPCs == nil {
		return
	}
	r.cache = &loaded
}

// updateCache records a chain ID and persists the cache
func (r *NetworkResolver) updateCache(rpcURL string, chainID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.RPCs[rpcURL] = chainID
	r.cache.UpdatedAt = time.Now()

	// cache is only a shortcut; a failed write costs one RPC call next time
	_ = r.saveCache()
}

func (r *NetworkResolver) saveCache() error {
	if r.cacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(r.cacheDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(r.cache, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(r.cachePath(), data, 0644)
}
