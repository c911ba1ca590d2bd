package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/trebuchet-org/treb-deploy/internal/domain"
	"github.com/trebuchet-org/treb-deploy/internal/domain/config"
	"github.com/trebuchet-org/treb-deploy/internal/domain/models"
)

var (
	errNotMined     = errors.New("transaction not mined yet")
	errNotConfirmed = errors.New("not enough confirmations yet")
)

// ConfirmationWaiter polls the backend until a transaction is buried deep enough
type ConfirmationWaiter struct {
	backend  DeploymentBackend
	progress ProgressSink
	log      *slog.Logger
}

// NewConfirmationWaiter creates a new confirmation waiter
func NewConfirmationWaiter(backend DeploymentBackend, progress ProgressSink, log *slog.Logger) *ConfirmationWaiter {
	return &ConfirmationWaiter{
		backend:  backend,
		progress: progress,
		log:      log,
	}
}

// Wait blocks until txHash is mined with at least required confirmations.
// A required depth of 0 still waits for the receipt. Transient backend
// errors are retried with exponential backoff; the wait gives up with a
// ConfirmationTimeoutError once the network's confirmation timeout has
// elapsed. A reverted transaction fails immediately.
func (w *ConfirmationWaiter) Wait(ctx context.Context, network *config.Network, txHash string, required uint64) (*models.Receipt, error) {
	timeout := network.ConfirmationTimeout
	if timeout <= 0 {
		timeout = config.DefaultConfirmationTimeout
	}
	interval := network.PollInterval
	if interval <= 0 {
		interval = config.DefaultPollInterval
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = interval
	policy.MaxInterval = 4 * interval
	policy.Multiplier = 1.5

	var (
		last    *models.Receipt
		lastErr error
	)

	operation := func() (*models.Receipt, error) {
		receipt, err := w.backend.Confirmations(waitCtx, network, txHash)
		if err != nil {
			if errors.Is(err, domain.ErrTransactionReverted) {
				return nil, backoff.Permanent(err)
			}
			lastErr = err
			return nil, err
		}
		if receipt == nil {
			return nil, errNotMined
		}

		last = receipt
		w.progress.OnProgress(ctx, ProgressEvent{
			Stage:   StageConfirming,
			Current: int(min(receipt.Confirmations, required)),
			Total:   int(required),
			Message: fmt.Sprintf("Waiting for confirmations (%d/%d) %s", min(receipt.Confirmations, required), required, txHash),
			Spinner: true,
		})
		if receipt.Confirmations < required {
			return nil, errNotConfirmed
		}
		return receipt, nil
	}

	receipt, err := backoff.Retry(waitCtx, operation,
		backoff.WithBackOff(policy),
		// the context deadline bounds the wait; this only has to outlast it
		backoff.WithMaxElapsedTime(timeout+policy.MaxInterval+time.Second),
		backoff.WithNotify(func(err error, next time.Duration) {
			w.log.Debug("confirmation poll", "tx", txHash, "reason", err, "next", next)
		}),
	)
	if err == nil {
		return receipt, nil
	}

	if errors.Is(err, domain.ErrTransactionReverted) {
		return nil, err
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, fmt.Errorf("waiting for confirmations of %s: %w", txHash, ctx.Err())
	}
	if waitCtx.Err() == nil {
		// the retry loop stopped early; a timeout is only reported once it has elapsed
		<-waitCtx.Done()
	}

	timeoutErr := &domain.ConfirmationTimeoutError{
		TxHash:   txHash,
		Required: required,
		Timeout:  timeout,
		LastErr:  lastErr,
	}
	if last != nil {
		timeoutErr.Confirmations = last.Confirmations
	}
	return nil, timeoutErr
}
