// Package maintenance runs the connector's background upkeep as go-job
// tasks: pruning aged operation audit rows and refreshing cached static
// lists so edits to the list files become visible without a restart.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/clearskye/epic-connector/adapters/gologger"
)

const (
	JobIDAuditPrune        = "connector.maintenance.audit.prune"
	JobIDStaticListRefresh = "connector.maintenance.staticlist.refresh"
)

// Parameter keys recognized on execution messages.
const (
	ParamRetention = "retention"
	ParamList      = "list"
)

const defaultAuditRetention = 90 * 24 * time.Hour

// ErrUnknownJob marks messages whose JobID no runner handles; workers
// dead-letter these instead of requeueing.
var ErrUnknownJob = errors.New("maintenance: unknown job")

// AuditPruner deletes audit rows older than the retention window.
type AuditPruner interface {
	Prune(ctx context.Context, retention time.Duration) (int, error)
}

// ListInvalidator drops a cached static list so the next read re-parses
// the backing file.
type ListInvalidator interface {
	Invalidate(ctx context.Context) error
}

type Config struct {
	AuditStore     AuditPruner
	AuditRetention time.Duration
	Lists          map[string]ListInvalidator
	LoggerProvider glog.LoggerProvider
	Logger         glog.Logger
}

// Runner executes maintenance messages against the configured targets.
type Runner struct {
	pruner    AuditPruner
	retention time.Duration
	lists     map[string]ListInvalidator
	logger    job.Logger
}

func NewRunner(cfg Config) (*Runner, error) {
	if cfg.AuditStore == nil && len(cfg.Lists) == 0 {
		return nil, fmt.Errorf("maintenance: at least one maintenance target is required")
	}
	retention := cfg.AuditRetention
	if retention <= 0 {
		retention = defaultAuditRetention
	}
	bridge := gologger.NewBridge("epic-connector.maintenance", cfg.LoggerProvider, cfg.Logger)
	return &Runner{
		pruner:    cfg.AuditStore,
		retention: retention,
		lists:     cfg.Lists,
		logger:    bridge.JobLogger,
	}, nil
}

func (r *Runner) Run(ctx context.Context, msg *job.ExecutionMessage) error {
	if r == nil {
		return fmt.Errorf("maintenance: runner is not configured")
	}
	if msg == nil {
		return fmt.Errorf("maintenance: execution message is required")
	}
	switch msg.JobID {
	case JobIDAuditPrune:
		return r.pruneAudits(ctx, msg.Parameters)
	case JobIDStaticListRefresh:
		return r.refreshLists(ctx, msg.Parameters)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownJob, msg.JobID)
	}
}

func (r *Runner) pruneAudits(ctx context.Context, params map[string]any) error {
	if r.pruner == nil {
		return fmt.Errorf("maintenance: audit pruner is not configured")
	}
	retention := r.retention
	if raw, ok := params[ParamRetention].(string); ok && strings.TrimSpace(raw) != "" {
		parsed, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("maintenance: invalid retention %q: %w", raw, err)
		}
		retention = parsed
	}
	pruned, err := r.pruner.Prune(ctx, retention)
	if err != nil {
		return err
	}
	r.logger.Info("pruned audit rows",
		"count", pruned,
		"retention", retention.String(),
	)
	return nil
}

// refreshLists invalidates one named list, or every configured list when
// no name is given.
func (r *Runner) refreshLists(ctx context.Context, params map[string]any) error {
	name, _ := params[ParamList].(string)
	name = strings.TrimSpace(name)
	if name != "" {
		list, ok := r.lists[name]
		if !ok {
			return fmt.Errorf("maintenance: unknown static list %q", name)
		}
		return r.refreshList(ctx, name, list)
	}

	names := make([]string, 0, len(r.lists))
	for listName := range r.lists {
		names = append(names, listName)
	}
	sort.Strings(names)
	for _, listName := range names {
		if err := r.refreshList(ctx, listName, r.lists[listName]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) refreshList(ctx context.Context, name string, list ListInvalidator) error {
	if err := list.Invalidate(ctx); err != nil {
		return fmt.Errorf("maintenance: refresh static list %q: %w", name, err)
	}
	r.logger.Info("refreshed static list", "list", name)
	return nil
}
