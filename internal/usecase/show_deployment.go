package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
)

// ShowDeploymentParams contains parameters for showing a deployment
type ShowDeploymentParams struct {
	// Ref is a contract name or a deployed address; empty picks interactively
	Ref string
}

// ShowDeployment is the use case for showing deployment details
type ShowDeployment struct {
	config   *config.RuntimeConfig
	registry ArtifactRegistry
	selector DeploymentSelector
	sink     ProgressSink
}

// NewShowDeployment creates a new ShowDeployment use case
func NewShowDeployment(
	cfg *config.RuntimeConfig,
	registry ArtifactRegistry,
	selector DeploymentSelector,
	sink ProgressSink,
) *ShowDeployment {
	return &ShowDeployment{
		config:   cfg,
		registry: registry,
		selector: selector,
		sink:     sink,
	}
}

// Run executes the show deployment use case
func (uc *ShowDeployment) Run(ctx context.Context, params ShowDeploymentParams) (*models.Deployment, error) {
	if uc.config.Network == nil {
		return nil, domain.ErrNoNetwork
	}
	network := uc.config.Network.Name

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "loading",
		Message: "Loading deployment details",
		Spinner: true,
	})

	if params.Ref != "" && !common.IsHexAddress(params.Ref) {
		deployment, err := uc.registry.Get(ctx, network, params.Ref)
		if err == nil {
			return deployment, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	deployments, err := uc.registry.List(ctx, network)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	if params.Ref == "" {
		if uc.config.NonInteractive {
			return nil, fmt.Errorf("a contract name or address is required in non-interactive mode")
		}
		if len(deployments) == 0 {
			return nil, fmt.Errorf("no deployments recorded on %s", network)
		}
		sortDeployments(deployments)
		return uc.selector.SelectDeployment(ctx, deployments, "Select deployment")
	}

	var matches []*models.Deployment
	for _, d := range deployments {
		if strings.EqualFold(d.Address, params.Ref) || strings.EqualFold(d.ContractName, params.Ref) {
			matches = append(matches, d)
		}
	}

	switch {
	case len(matches) == 1:
		return matches[0], nil
	case len(matches) == 0:
		return nil, fmt.Errorf("deployment %s on %s: %w", params.Ref, network, domain.ErrNotFound)
	case uc.config.NonInteractive:
		return nil, fmt.Errorf("multiple deployments match %s", params.Ref)
	default:
		return uc.selector.SelectDeployment(ctx, matches, fmt.Sprintf("Multiple deployments match %s", params.Ref))
	}
}
