package usecase

import (
	"context"

	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
)

// AccountResolver maps logical roles ("deployer", "owner") to accounts on a network
type AccountResolver interface {
	Resolve(ctx context.Context, role string, network string) (models.Account, error)
	Roles() []string
}

// ArtifactRegistry persists one deployment record per (network, contract name)
type ArtifactRegistry interface {
	Get(ctx context.Context, network string, contractName string) (*models.Deployment, error)
	Put(ctx context.Context, network string, record *models.Deployment) error
	List(ctx context.Context, network string) ([]*models.Deployment, error)
	Reset(ctx context.Context, network string) (int, error)
}

// ArtifactRepository provides compiled contract artifacts
type ArtifactRepository interface {
	GetArtifact(ctx context.Context, name string) (*models.Artifact, error)
}

// DeploymentBackend submits creation transactions and reports their confirmation depth
type DeploymentBackend interface {
	Submit(ctx context.Context, network *config.Network, from models.Account, initCode []byte) (*models.Submission, error)
	// Confirmations returns a nil receipt and no error while the transaction is not mined yet
	Confirmations(ctx context.Context, network *config.Network, txHash string) (*models.Receipt, error)
}

// TaskCatalog is the explicit registry of tasks assembled at startup
type TaskCatalog interface {
	Tasks(ctx context.Context) ([]*domain.Task, error)
}

// NetworkResolver handles network configuration resolution
type NetworkResolver interface {
	GetNetworks(ctx context.Context) []string
	ResolveNetwork(ctx context.Context, networkName string) (*config.Network, error)
}

// LocalConfigRepository manages local configuration persistence
type LocalConfigRepository interface {
	Exists() bool
	Load(ctx context.Context) (*config.LocalConfig, error)
	Save(ctx context.Context, config *config.LocalConfig) error
	GetPath() string
}

// DeploymentSelector handles interactive selection of deployments
type DeploymentSelector interface {
	SelectDeployment(ctx context.Context, deployments []*models.Deployment, prompt string) (*models.Deployment, error)
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}

// Progress stages reported by the runner
const (
	StageTask       = "task"
	StageSubmitting = "submitting"
	StageConfirming = "confirming"
	StageRecorded   = "recorded"
	StageSkipped    = "skipped"
)
