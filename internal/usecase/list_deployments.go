package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
)

// ListDeploymentsParams contains parameters for listing deployments
type ListDeploymentsParams struct {
	// Filter parameters (the network comes from RuntimeConfig)
	ContractName string
	Task         string
	Tag          string
}

// DeploymentListResult contains the recorded deployments of a network
type DeploymentListResult struct {
	Network     string
	Deployments []*models.Deployment
	Summary     DeploymentSummary
}

// DeploymentSummary contains summary statistics
type DeploymentSummary struct {
	Total  int
	ByTask map[string]int
	ByTag  map[string]int
}

// ListDeployments is the use case for listing deployments
type ListDeployments struct {
	config   *config.RuntimeConfig
	registry ArtifactRegistry
	sink     ProgressSink
}

// NewListDeployments creates a new ListDeployments use case
func NewListDeployments(cfg *config.RuntimeConfig, registry ArtifactRegistry, sink ProgressSink) *ListDeployments {
	return &ListDeployments{
		config:   cfg,
		registry: registry,
		sink:     sink,
	}
}

// Run executes the list deployments use case
func (uc *ListDeployments) Run(ctx context.Context, params ListDeploymentsParams) (*DeploymentListResult, error) {
	if uc.config.Network == nil {
		return nil, domain.ErrNoNetwork
	}

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "loading",
		Message: "Loading deployments from registry",
		Spinner: true,
	})

	deployments, err := uc.registry.List(ctx, uc.config.Network.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	deployments = filterDeployments(deployments, domain.DeploymentFilter{
		ContractName: params.ContractName,
		Task:         params.Task,
		Tag:          params.Tag,
	})
	sortDeployments(deployments)

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "complete",
		Current: len(deployments),
		Total:   len(deployments),
		Message: "Deployments loaded",
	})

	return &DeploymentListResult{
		Network:     uc.config.Network.Name,
		Deployments: deployments,
		Summary:     calculateSummary(deployments),
	}, nil
}

func filterDeployments(deployments []*models.Deployment, filter domain.DeploymentFilter) []*models.Deployment {
	return lo.Filter(deployments, func(d *models.Deployment, _ int) bool {
		if filter.ContractName != "" && !strings.EqualFold(d.ContractName, filter.ContractName) {
			return false
		}
		if filter.Task != "" && d.Task != filter.Task {
			return false
		}
		if filter.Tag != "" && !lo.Contains(d.Tags, filter.Tag) {
			return false
		}
		return true
	})
}

// sortDeployments sorts deployments by contract name
func sortDeployments(deployments []*models.Deployment) {
	sort.Slice(deployments, func(i, j int) bool {
		return deployments[i].ContractName < deployments[j].ContractName
	})
}

// calculateSummary calculates summary statistics for deployments
func calculateSummary(deployments []*models.Deployment) DeploymentSummary {
	summary := DeploymentSummary{
		Total:  len(deployments),
		ByTask: make(map[string]int),
		ByTag:  make(map[string]int),
	}

	for _, dep := range deployments {
		if dep.Task != "" {
			summary.ByTask[dep.Task]++
		}
		for _, tag := range dep.Tags {
			summary.ByTag[tag]++
		}
	}

	return summary
}
