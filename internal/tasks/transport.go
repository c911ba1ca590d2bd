// Package tasks holds the deployment tasks compiled into the binary.
package tasks

import (
	"context"

	"github.com/trebuchet-org/treb-deploy/internal/domain"
)

// SourceBuiltin marks tasks compiled into the binary
const SourceBuiltin = "builtin"

// Builtin returns the compiled-in tasks in registration order
func Builtin() []*domain.Task {
	return []*domain.Task{
		Transport(),
	}
}

// Transport deploys the Transport contract from the deployer account with
// the owner account as its only constructor argument
func Transport() *domain.Task {
	return &domain.Task{
		Name:   "Transport",
		Tags:   []string{"all", "Transport"},
		Roles:  []string{"deployer", "owner"},
		Source: SourceBuiltin,
		Func:   deployTransport,
	}
}

func deployTransport(ctx context.Context, env domain.TaskEnv) error {
	owner, err := env.Account(ctx, "owner")
	if err != nil {
		return err
	}

	_, err = env.Deploy(ctx, "Transport", domain.DeployOptions{
		From: "deployer",
		Args: []any{owner.Address},
		Log:  true,
	})
	return err
}
