package maintenance

import (
	"context"
	"fmt"
	"strings"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

// PruneMessage builds the execution message for an audit prune run. A
// non-positive retention defers to the runner's configured window.
func PruneMessage(retention time.Duration) *job.ExecutionMessage {
	params := map[string]any{}
	if retention > 0 {
		params[ParamRetention] = retention.String()
	}
	return &job.ExecutionMessage{
		JobID:          JobIDAuditPrune,
		Parameters:     params,
		IdempotencyKey: JobIDAuditPrune,
		DedupPolicy:    "drop",
	}
}

// RefreshMessage builds the execution message for a static list refresh.
// An empty list name refreshes every configured list.
func RefreshMessage(listName string) *job.ExecutionMessage {
	listName = strings.TrimSpace(listName)
	params := map[string]any{}
	key := JobIDStaticListRefresh
	if listName != "" {
		params[ParamList] = listName
		key = key + "::" + listName
	}
	return &job.ExecutionMessage{
		JobID:          JobIDStaticListRefresh,
		Parameters:     params,
		IdempotencyKey: key,
		DedupPolicy:    "drop",
	}
}

// Scheduler places maintenance messages on a go-job queue.
type Scheduler struct {
	enqueuer queue.Enqueuer
}

func NewScheduler(enqueuer queue.Enqueuer) (*Scheduler, error) {
	if enqueuer == nil {
		return nil, fmt.Errorf("maintenance: enqueuer is required")
	}
	return &Scheduler{enqueuer: enqueuer}, nil
}

func (s *Scheduler) EnqueueAuditPrune(ctx context.Context, retention time.Duration) error {
	if s == nil || s.enqueuer == nil {
		return fmt.Errorf("maintenance: scheduler is not configured")
	}
	_, err := s.enqueuer.Enqueue(ctx, PruneMessage(retention))
	return err
}

func (s *Scheduler) EnqueueListRefresh(ctx context.Context, listName string) error {
	if s == nil || s.enqueuer == nil {
		return fmt.Errorf("maintenance: scheduler is not configured")
	}
	_, err := s.enqueuer.Enqueue(ctx, RefreshMessage(listName))
	return err
}
