package usecase

import (
	"context"
	"fmt"

	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
)

// ResetRegistryParams contains parameters for resetting the registry
type ResetRegistryParams struct {
	DryRun bool // If true, only collect items without executing reset
}

// ResetRegistryResult contains the result of resetting the registry
type ResetRegistryResult struct {
	Network     string
	Deployments []*models.Deployment
	Removed     int
	DryRun      bool
}

// ResetRegistry is a use case for removing every record of the selected network
type ResetRegistry struct {
	config   *config.RuntimeConfig
	registry ArtifactRegistry
}

// NewResetRegistry creates a new ResetRegistry use case
func NewResetRegistry(config *config.RuntimeConfig, registry ArtifactRegistry) *ResetRegistry {
	return &ResetRegistry{
		config:   config,
		registry: registry,
	}
}

// Run executes the reset registry use case
func (uc *ResetRegistry) Run(ctx context.Context, params ResetRegistryParams) (*ResetRegistryResult, error) {
	if uc.config.Network == nil {
		return nil, domain.ErrNoNetwork
	}
	network := uc.config.Network.Name

	deployments, err := uc.registry.List(ctx, network)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}
	sortDeployments(deployments)

	result := &ResetRegistryResult{
		Network:     network,
		Deployments: deployments,
		DryRun:      params.DryRun,
	}
	if len(deployments) == 0 || params.DryRun {
		return result, nil
	}

	removed, err := uc.registry.Reset(ctx, network)
	if err != nil {
		return nil, fmt.Errorf("failed to reset registry: %w", err)
	}
	result.Removed = removed

	return result, nil
}
