package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
)

// DefaultDeployerRole signs deployments that do not name a role
const DefaultDeployerRole = "deployer"

// DeployRequest is a single deploy-or-skip call made by a task
type DeployRequest struct {
	Network *config.Network
	Task    *domain.Task
	Name    string
	From    models.Account
	Options domain.DeployOptions
	DryRun  bool
}

// Deployer implements the deploy-or-skip primitive: it fingerprints the
// init code, reuses an identical confirmed deployment when there is one and
// otherwise deploys, waits for confirmations and records the result
type Deployer struct {
	registry  ArtifactRegistry
	artifacts ArtifactRepository
	backend   DeploymentBackend
	waiter    *ConfirmationWaiter
	progress  ProgressSink
	log       *slog.Logger
}

// NewDeployer creates a new deployer
func NewDeployer(
	registry ArtifactRegistry,
	artifacts ArtifactRepository,
	backend DeploymentBackend,
	waiter *ConfirmationWaiter,
	progress ProgressSink,
	log *slog.Logger,
) *Deployer {
	return &Deployer{
		registry:  registry,
		artifacts: artifacts,
		backend:   backend,
		waiter:    waiter,
		progress:  progress,
		log:       log,
	}
}

// Deploy deploys req.Name unless an identical deployment with enough
// confirmations is already recorded. Nothing is written to the registry
// unless the deployment is confirmed.
func (d *Deployer) Deploy(ctx context.Context, req DeployRequest) (*models.DeployResult, error) {
	network := req.Network
	contract := req.Options.Contract
	if contract == "" {
		contract = req.Name
	}

	fail := func(fingerprint string, err error) error {
		return &domain.DeploymentError{
			Task:        req.Task.Name,
			Contract:    req.Name,
			Fingerprint: fingerprint,
			Err:         err,
		}
	}

	artifact, err := d.artifacts.GetArtifact(ctx, contract)
	if err != nil {
		return nil, fail("", err)
	}

	initCode, err := BuildInitCode(artifact, req.Options.Args)
	if err != nil {
		return nil, fail("", err)
	}
	fingerprint := initCode.Fingerprint

	required := network.RequiredConfirmations
	if req.Options.WaitConfirmations != nil {
		required = *req.Options.WaitConfirmations
	}

	existing, err := d.registry.Get(ctx, network.Name, req.Name)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fail(fingerprint, fmt.Errorf("failed to read registry: %w", err))
	}

	log := d.log.With("task", req.Task.Name, "contract", req.Name, "network", network.Name, "fingerprint", fingerprint)

	if existing != nil && existing.Fingerprint == fingerprint && existing.Confirmations >= required {
		log.Debug("deployment up to date", "address", existing.Address, "confirmations", existing.Confirmations)
		d.progress.OnProgress(ctx, ProgressEvent{
			Stage:    StageSkipped,
			Message:  fmt.Sprintf("Reusing %s at %s", req.Name, existing.Address),
			Metadata: existing,
		})
		if req.Options.Log {
			d.progress.Info(fmt.Sprintf("reusing %q at %s", req.Name, existing.Address))
		}
		return &models.DeployResult{Status: models.DeploymentStatusSkipped, Deployment: existing}, nil
	}

	if existing != nil {
		log.Debug("deployment changed", "previous", existing.Fingerprint, "previousConfirmations", existing.Confirmations)
	}

	record := &models.Deployment{
		ContractName:    req.Name,
		Network:         network.Name,
		ChainID:         network.ChainID,
		Deployer:        req.From.Address.Hex(),
		ConstructorArgs: initCode.Args,
		Fingerprint:     fingerprint,
		BytecodeHash:    initCode.BytecodeHash,
		Task:            req.Task.Name,
		Tags:            req.Task.Tags,
		ArtifactPath:    artifact.Path,
	}

	if req.DryRun {
		return &models.DeployResult{Status: models.DeploymentStatusPending, Deployment: record, Previous: existing}, nil
	}

	if !req.From.CanSign() {
		return nil, fail(fingerprint, fmt.Errorf("%w: %s (%s)", domain.ErrNoSigner, req.From.Role, req.From.Address.Hex()))
	}

	d.progress.OnProgress(ctx, ProgressEvent{
		Stage:   StageSubmitting,
		Message: fmt.Sprintf("Deploying %s from %s", req.Name, req.From.Address.Hex()),
		Spinner: true,
	})

	submission, err := d.backend.Submit(ctx, network, req.From, initCode.Code)
	if err != nil {
		return nil, fail(fingerprint, fmt.Errorf("failed to submit deployment: %w", err))
	}
	log.Debug("deployment submitted", "tx", submission.TxHash, "nonce", submission.Nonce, "address", submission.Address)

	receipt, err := d.waiter.Wait(ctx, network, submission.TxHash, required)
	if err != nil {
		return nil, fail(fingerprint, err)
	}

	record.Address = submission.Address
	if receipt.ContractAddress != "" {
		record.Address = receipt.ContractAddress
	}
	record.TransactionHash = submission.TxHash
	record.BlockHash = receipt.BlockHash
	record.BlockNumber = receipt.BlockNumber
	record.Confirmations = receipt.Confirmations
	record.DeployedAt = time.Now().UTC()

	if err := d.registry.Put(ctx, network.Name, record); err != nil {
		var writeErr *domain.RegistryWriteError
		if !errors.As(err, &writeErr) {
			err = &domain.RegistryWriteError{Network: network.Name, ContractName: req.Name, Err: err}
		}
		return nil, fail(fingerprint, err)
	}

	d.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageRecorded,
		Message:  fmt.Sprintf("Deployed %s at %s", req.Name, record.Address),
		Metadata: record,
	})
	if req.Options.Log {
		d.progress.Info(fmt.Sprintf("deploying %q (tx: %s)...: deployed at %s", req.Name, record.TransactionHash, record.Address))
	}
	log.Debug("deployment recorded", "address", record.Address, "tx", record.TransactionHash, "confirmations", record.Confirmations)

	return &models.DeployResult{Status: models.DeploymentStatusDeployed, Deployment: record, Previous: existing}, nil
}
