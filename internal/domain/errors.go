package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrNoNetwork is returned when a command needs a network and none was selected
	ErrNoNetwork = errors.New("no network selected (use --network or `treb-deploy config set network <name>`)")

	// ErrInvalidAddress is returned when an Ethereum address is invalid
	ErrInvalidAddress = errors.New("invalid address")

	// ErrNoSigner is returned when an account without a private key is asked to sign
	ErrNoSigner = errors.New("account has no signing key")

	// ErrTransactionReverted is returned when a deployment transaction was mined but failed
	ErrTransactionReverted = errors.New("transaction reverted")

	// ErrDuplicateTask is returned when two tasks are registered under the same name
	ErrDuplicateTask = errors.New("duplicate task")

	// ErrInvalidConfig is returned when treb.toml, the tasks file or the selected network cannot be loaded
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Exit codes, ordered by severity. A run exits with the highest code observed.
const (
	ExitOK                  = 0
	ExitFailure             = 1
	ExitNoMatchingTask      = 2
	ExitConfirmationTimeout = 3
	ExitRegistryWrite       = 4
	ExitConfiguration       = 5
)

// UnknownRoleError is returned when an account role has no mapping on a network
type UnknownRoleError struct {
	Role    string
	Network string
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("unknown account role %q on network %q", e.Role, e.Network)
}

// ConfirmationTimeoutError is returned when a deployment transaction did not
// reach the required confirmation depth in time
type ConfirmationTimeoutError struct {
	TxHash        string
	Required      uint64
	Confirmations uint64
	Timeout       time.Duration
	LastErr       error
}

func (e *ConfirmationTimeoutError) Error() string {
	msg := fmt.Sprintf("transaction %s reached %d/%d confirmations within %s",
		e.TxHash, e.Confirmations, e.Required, e.Timeout)
	if e.LastErr != nil {
		msg += fmt.Sprintf(" (last error: %v)", e.LastErr)
	}
	return msg
}

func (e *ConfirmationTimeoutError) Unwrap() error {
	return e.LastErr
}

// RegistryWriteError is returned when a deployment record could not be persisted
type RegistryWriteError struct {
	Network      string
	ContractName string
	Err          error
}

func (e *RegistryWriteError) Error() string {
	return fmt.Sprintf("failed to write %s to %s registry: %v", e.ContractName, e.Network, e.Err)
}

func (e *RegistryWriteError) Unwrap() error {
	return e.Err
}

// NoMatchingTaskError is returned when a selection was required to match at least one task
type NoMatchingTaskError struct {
	Tags []string
}

func (e *NoMatchingTaskError) Error() string {
	if len(e.Tags) == 0 {
		return "no tasks registered"
	}
	return fmt.Sprintf("no tasks match tags: %s", strings.Join(e.Tags, ", "))
}

// DeploymentError reports a failed task together with what it was deploying
type DeploymentError struct {
	Task        string
	Contract    string
	Fingerprint string
	Err         error
}

func (e *DeploymentError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "task %s", e.Task)
	if e.Contract != "" {
		fmt.Fprintf(&b, ": deploy %s", e.Contract)
	}
	if e.Fingerprint != "" {
		fmt.Fprintf(&b, " (fingerprint %s)", shortHash(e.Fingerprint))
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *DeploymentError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		roleErr     *UnknownRoleError
		registryErr *RegistryWriteError
		timeoutErr  *ConfirmationTimeoutError
		noMatchErr  *NoMatchingTaskError
	)

	switch {
	case errors.As(err, &roleErr), errors.Is(err, ErrNoNetwork), errors.Is(err, ErrDuplicateTask), errors.Is(err, ErrInvalidConfig):
		return ExitConfiguration
	case errors.As(err, &registryErr):
		return ExitRegistryWrite
	case errors.As(err, &timeoutErr):
		return ExitConfirmationTimeout
	case errors.As(err, &noMatchErr):
		return ExitNoMatchingTask
	default:
		return ExitFailure
	}
}

// IsFatal reports whether an error must stop the run regardless of the
// continue-on-error policy
func IsFatal(err error) bool {
	var roleErr *UnknownRoleError
	return errors.As(err, &roleErr) || errors.Is(err, ErrNoNetwork) || errors.Is(err, ErrInvalidConfig)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:10] + "…"
	}
	return h
}
