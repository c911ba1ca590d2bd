package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
)

// RunDeploymentsParams contains parameters for a deployment run
type RunDeploymentsParams struct {
	// Tags selects tasks; empty selects every task
	Tags []string
	// RequireMatch turns an empty selection into a NoMatchingTaskError
	RequireMatch bool
	// ContinueOnError keeps running the remaining tasks after a task failure.
	// Configuration errors (unknown roles) always halt the run.
	ContinueOnError bool
	// DryRun computes fingerprints and reports what would be deployed
	DryRun bool
}

// TaskResult is the outcome of one task
type TaskResult struct {
	Task        *domain.Task
	Deployments []*models.DeployResult
	Err         error
	Duration    time.Duration
}

// RunDeploymentsResult contains the outcome of a run
type RunDeploymentsResult struct {
	Network  *config.Network
	Tags     []string
	DryRun   bool
	Selected int
	Tasks    []*TaskResult
	// Halted is set when the run stopped before every selected task ran
	Halted bool
	// Err joins every task failure
	Err error
}

// ExitCode returns the exit code of the worst failure observed
func (r *RunDeploymentsResult) ExitCode() int {
	return domain.ExitCode(r.Err)
}

// RunDeployments selects tasks by tag and runs them in registration order
type RunDeployments struct {
	config   *config.RuntimeConfig
	catalog  TaskCatalog
	accounts AccountResolver
	registry ArtifactRegistry
	deployer *Deployer
	progress ProgressSink
	log      *slog.Logger
}

// NewRunDeployments creates a new RunDeployments use case
func NewRunDeployments(
	cfg *config.RuntimeConfig,
	catalog TaskCatalog,
	accounts AccountResolver,
	registry ArtifactRegistry,
	deployer *Deployer,
	progress ProgressSink,
	log *slog.Logger,
) *RunDeployments {
	return &RunDeployments{
		config:   cfg,
		catalog:  catalog,
		accounts: accounts,
		registry: registry,
		deployer: deployer,
		progress: progress,
		log:      log,
	}
}

// Run executes the selected tasks sequentially
func (uc *RunDeployments) Run(ctx context.Context, params RunDeploymentsParams) (*RunDeploymentsResult, error) {
	network := uc.config.Network
	if network == nil {
		return nil, domain.ErrNoNetwork
	}

	tasks, err := uc.catalog.Tasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	selected, err := domain.SelectTasks(tasks, params.Tags, params.RequireMatch)
	if err != nil {
		return nil, err
	}

	dryRun := params.DryRun || uc.config.DryRun
	result := &RunDeploymentsResult{
		Network:  network,
		Tags:     domain.NormalizeTags(params.Tags),
		DryRun:   dryRun,
		Selected: len(selected),
	}

	uc.log.Debug("running tasks", "network", network.Name, "tags", result.Tags, "selected", len(selected), "dryRun", dryRun)

	// pending holds the dry-run deployments of this run for later tasks to reference
	pending := make(map[string]*models.Deployment)

	var errs []error
	for i, task := range selected {
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   StageTask,
			Current: i + 1,
			Total:   len(selected),
			Message: task.Name,
		})

		taskResult := uc.runTask(ctx, network, task, dryRun, pending)
		result.Tasks = append(result.Tasks, taskResult)

		if taskResult.Err == nil {
			continue
		}

		errs = append(errs, taskResult.Err)
		uc.progress.Error(taskResult.Err.Error())
		uc.log.Debug("task failed", "task", task.Name, "error", taskResult.Err)

		if domain.IsFatal(taskResult.Err) || !params.ContinueOnError || ctx.Err() != nil {
			result.Halted = i < len(selected)-1
			break
		}
	}

	result.Err = errors.Join(errs...)
	return result, result.Err
}

func (uc *RunDeployments) runTask(ctx context.Context, network *config.Network, task *domain.Task, dryRun bool, pending map[string]*models.Deployment) *TaskResult {
	start := time.Now()
	env := &taskEnv{
		uc:       uc,
		network:  network,
		task:     task,
		dryRun:   dryRun,
		accounts: make(map[string]models.Account),
		pending:  pending,
	}
	result := &TaskResult{Task: task}

	// Every declared role must resolve before anything is submitted
	for _, role := range task.Roles {
		if _, err := env.Account(ctx, role); err != nil {
			result.Err = &domain.DeploymentError{Task: task.Name, Err: err}
			result.Duration = time.Since(start)
			return result
		}
	}

	err := task.Func(ctx, env)
	if err != nil {
		var deployErr *domain.DeploymentError
		if !errors.As(err, &deployErr) {
			err = &domain.DeploymentError{Task: task.Name, Err: err}
		}
	}

	result.Deployments = env.results
	result.Err = err
	result.Duration = time.Since(start)
	return result
}

// taskEnv is the domain.TaskEnv handed to one task body
type taskEnv struct {
	uc       *RunDeployments
	network  *config.Network
	task     *domain.Task
	dryRun   bool
	accounts map[string]models.Account
	pending  map[string]*models.Deployment
	results  []*models.DeployResult
}

func (e *taskEnv) Network() *config.Network {
	return e.network
}

func (e *taskEnv) Account(ctx context.Context, role string) (models.Account, error) {
	if account, ok := e.accounts[role]; ok {
		return account, nil
	}
	account, err := e.uc.accounts.Resolve(ctx, role, e.network.Name)
	if err != nil {
		return models.Account{}, err
	}
	e.accounts[role] = account
	return account, nil
}

func (e *taskEnv) Deploy(ctx context.Context, name string, opts domain.DeployOptions) (*models.DeployResult, error) {
	role := opts.From
	if role == "" {
		role = DefaultDeployerRole
	}

	from, err := e.Account(ctx, role)
	if err != nil {
		return nil, &domain.DeploymentError{Task: e.task.Name, Contract: name, Err: err}
	}

	result, err := e.uc.deployer.Deploy(ctx, DeployRequest{
		Network: e.network,
		Task:    e.task,
		Name:    name,
		From:    from,
		Options: opts,
		DryRun:  e.dryRun,
	})
	if err != nil {
		return nil, err
	}
	if result.Status == models.DeploymentStatusPending {
		e.pending[name] = result.Deployment
	}
	e.results = append(e.results, result)
	return result, nil
}

// Get returns the recorded deployment of name. In a dry run a deployment
// planned earlier in the same run takes precedence, with the zero address
// standing in for the address it would get.
func (e *taskEnv) Get(ctx context.Context, name string) (*models.Deployment, error) {
	if planned, ok := e.pending[name]; ok {
		placeholder := *planned
		placeholder.Address = common.Address{}.Hex()
		return &placeholder, nil
	}
	return e.uc.registry.Get(ctx, e.network.Name, name)
}

func (e *taskEnv) Log(format string, args ...any) {
	e.uc.progress.Info(fmt.Sprintf(format, args...))
}
