package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-job/queue"
)

const defaultRetryDelay = 30 * time.Second

// Worker drains maintenance messages from a go-job queue and runs them.
// Failed runs are requeued after a delay; unknown jobs are dead-lettered.
type Worker struct {
	dequeuer   queue.Dequeuer
	runner     *Runner
	retryDelay time.Duration
}

func NewWorker(dequeuer queue.Dequeuer, runner *Runner) (*Worker, error) {
	if dequeuer == nil {
		return nil, fmt.Errorf("maintenance: dequeuer is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("maintenance: runner is required")
	}
	return &Worker{
		dequeuer:   dequeuer,
		runner:     runner,
		retryDelay: defaultRetryDelay,
	}, nil
}

// RunOnce processes a single delivery. The run error is returned even
// when the nack succeeds so callers can observe the failure.
func (w *Worker) RunOnce(ctx context.Context) error {
	if w == nil || w.dequeuer == nil || w.runner == nil {
		return fmt.Errorf("maintenance: worker is not configured")
	}
	delivery, err := w.dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}

	runErr := w.runner.Run(ctx, delivery.Message())
	if runErr == nil {
		return delivery.Ack(ctx)
	}

	opts := queue.NackOptions{
		Delay:       w.retryDelay,
		Disposition: queue.NackDispositionRetry,
		Reason:      runErr.Error(),
	}
	if errors.Is(runErr, ErrUnknownJob) {
		opts.Disposition = queue.NackDispositionDeadLetter
	}
	if nackErr := delivery.Nack(ctx, opts); nackErr != nil {
		return nackErr
	}
	return runErr
}
