package domain

import (
	"context"
	"fmt"
	"slices"

	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
)

// TaskFunc is the body of a deployment task
type TaskFunc func(ctx context.Context, env TaskEnv) error

// Task is a named, tagged unit of deployment work. Tasks are assembled once
// at startup and never mutated afterwards.
type Task struct {
	Name string
	Tags []string
	// Roles are resolved before Func runs; a missing role fails the task
	// before anything is submitted.
	Roles []string
	Func  TaskFunc
	// Source is "builtin" or the file the task was declared in
	Source string
}

// HasTag reports whether the task carries the given tag
func (t *Task) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// Validate checks the task is well formed
func (t *Task) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("task name is required")
	}
	if len(t.Tags) == 0 {
		return fmt.Errorf("task %s: at least one tag is required", t.Name)
	}
	if t.Func == nil {
		return fmt.Errorf("task %s: no task function", t.Name)
	}
	return nil
}

// DeployOptions configures a single deploy-or-skip call
type DeployOptions struct {
	// Contract is the artifact name; defaults to the deployment name
	Contract string
	// From is the account role that signs the creation transaction
	From string
	// Args are the constructor arguments, coerced to the constructor's ABI types
	Args []any
	// WaitConfirmations overrides the network's required confirmations
	WaitConfirmations *uint64
	// Log reports the outcome through the progress sink
	Log bool
}

// TaskEnv is what a task body sees of the run it belongs to
type TaskEnv interface {
	Network() *config.Network
	Account(ctx context.Context, role string) (models.Account, error)
	Deploy(ctx context.Context, name string, opts DeployOptions) (*models.DeployResult, error)
	Get(ctx context.Context, name string) (*models.Deployment, error)
	Log(format string, args ...any)
}
