package usecase

import (
	"context"
)

// ListNetworksParams contains parameters for listing networks
type ListNetworksParams struct {
	// Currently no parameters, but we keep the struct for future extensibility
}

// ListNetworksResult contains the result of listing networks
type ListNetworksResult struct {
	Networks []NetworkStatus
}

// NetworkStatus represents the status of a network
type NetworkStatus struct {
	Name          string
	ChainID       uint64
	Confirmations uint64
	Deployments   int
	Error         error
}

// ListNetworks is a use case for listing available networks
type ListNetworks struct {
	resolver NetworkResolver
	registry ArtifactRegistry
}

// NewListNetworks creates a new ListNetworks use case
func NewListNetworks(resolver NetworkResolver, registry ArtifactRegistry) *ListNetworks {
	return &ListNetworks{
		resolver: resolver,
		registry: registry,
	}
}

// Run executes the use case
func (uc *ListNetworks) Run(ctx context.Context, params ListNetworksParams) (*ListNetworksResult, error) {
	networkNames := uc.resolver.GetNetworks(ctx)

	networks := make([]NetworkStatus, 0, len(networkNames))
	for _, name := range networkNames {
		status := NetworkStatus{
			Name: name,
		}

		// Resolving may dial the node to learn the chain ID
		info, err := uc.resolver.ResolveNetwork(ctx, name)
		if err != nil {
			status.Error = err
		} else {
			status.ChainID = info.ChainID
			status.Confirmations = info.RequiredConfirmations
		}

		if deployments, err := uc.registry.List(ctx, name); err == nil {
			status.Deployments = len(deployments)
		}

		networks = append(networks, status)
	}

	return &ListNetworksResult{
		Networks: networks,
	}, nil
}
