// Package connector orchestrates the canonical user-management
// operations over the vendor's two API surfaces. Composite operations
// run as explicit stage lists: each stage is recorded, a failing stage
// short-circuits the rest, and applied stages are never compensated.
package connector

import (
	"context"
	"fmt"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"

	"github.com/clearskye/epic-connector/core"
	"github.com/clearskye/epic-connector/mapping"
)

const defaultListConcurrency = 4

type Service struct {
	executor        core.RequestExecutor
	searcher        core.RecordSearcher
	mapper          *mapping.Mapper
	auditStore      core.OperationAuditStore
	logger          core.Logger
	loggerProvider  core.LoggerProvider
	metricsRecorder core.MetricsRecorder
	listConcurrency int
	newID           func() string
	now             func() time.Time
}

type Option func(*Service)

func WithLogger(logger core.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(s *Service) {
		s.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(s *Service) {
		s.metricsRecorder = recorder
	}
}

func WithAuditStore(store core.OperationAuditStore) Option {
	return func(s *Service) {
		s.auditStore = store
	}
}

func WithMapper(mapper *mapping.Mapper) Option {
	return func(s *Service) {
		s.mapper = mapper
	}
}

func WithListConcurrency(workers int) Option {
	return func(s *Service) {
		s.listConcurrency = workers
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(executor core.RequestExecutor, searcher core.RecordSearcher, options ...Option) (*Service, error) {
	if executor == nil {
		return nil, fmt.Errorf("connector: request executor is required")
	}
	if searcher == nil {
		return nil, fmt.Errorf("connector: record searcher is required")
	}

	loggerProvider, logger := glog.Resolve("epic-connector", nil, nil)
	service := &Service{
		executor:        executor,
		searcher:        searcher,
		mapper:          mapping.NewMapper(),
		logger:          logger,
		loggerProvider:  loggerProvider,
		metricsRecorder: core.NopMetricsRecorder{},
		listConcurrency: defaultListConcurrency,
		newID:           uuid.NewString,
		now:             func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(service)
	}
	if service.mapper == nil {
		service.mapper = mapping.NewMapper()
	}
	if service.listConcurrency <= 0 {
		service.listConcurrency = defaultListConcurrency
	}
	if service.logger == nil {
		service.logger = glog.Nop()
	}
	if service.metricsRecorder == nil {
		service.metricsRecorder = core.NopMetricsRecorder{}
	}
	if service.newID == nil {
		service.newID = uuid.NewString
	}
	if service.now == nil {
		service.now = func() time.Time { return time.Now().UTC() }
	}
	return service, nil
}

// stepRun accumulates the stage records for one composite operation.
type stepRun struct {
	steps []core.StepRecord
}

func (r *stepRun) applied(name string, statusCode int) {
	r.steps = append(r.steps, core.StepRecord{
		Name:       name,
		Status:     core.StepStatusApplied,
		StatusCode: statusCode,
	})
}

func (r *stepRun) failed(name string, statusCode int, message string) {
	r.steps = append(r.steps, core.StepRecord{
		Name:       name,
		Status:     core.StepStatusFailed,
		StatusCode: statusCode,
		Error:      message,
	})
}

func (r *stepRun) skipped(name string) {
	r.steps = append(r.steps, core.StepRecord{
		Name:   name,
		Status: core.StepStatusSkipped,
	})
}

// persistAudit records the operation trail; audit failures are logged
// and never change the operation outcome.
func (s *Service) persistAudit(ctx context.Context, operation, userID string, startedAt time.Time, result core.OperationResult) {
	if s.auditStore == nil {
		return
	}
	audit := core.OperationAudit{
		ID:          s.newID(),
		Operation:   operation,
		UserID:      userID,
		StatusCode:  result.StatusCode,
		Steps:       append([]core.StepRecord(nil), result.Steps...),
		StartedAt:   startedAt,
		CompletedAt: s.now(),
	}
	if err := s.auditStore.RecordOperation(ctx, audit); err != nil {
		s.logWithLevel(ctx, "warn", "operation audit write failed", map[string]any{
			"operation": operation,
			"error":     err.Error(),
		})
	}
}
