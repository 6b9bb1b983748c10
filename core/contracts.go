package core

import (
	"context"
	"net/http"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// HTTPDoer is the transport seam; *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource yields a bearer token, refreshing it when the cached one
// expired. Implementations must be safe for concurrent use.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// RequestExecutor runs one authenticated REST call against a vendor
// endpoint path. Vendor error statuses come back inside Response; a
// non-nil error means the call itself failed.
type RequestExecutor interface {
	Execute(ctx context.Context, endpoint, method string, params []QueryParam, body map[string]any) (Response, error)
}

// RecordSearcher runs one page of a record search against the vendor's
// query surface.
type RecordSearcher interface {
	Search(ctx context.Context, query SearchQuery) (SearchResult, error)
}

// OperationAudit is one persisted composite-operation trail.
type OperationAudit struct {
	ID          string
	Operation   string
	UserID      string
	StatusCode  int
	Steps       []StepRecord
	StartedAt   time.Time
	CompletedAt time.Time
}

// OperationAuditStore persists operation step trails. Audit failures are
// logged by callers, never surfaced to the operation result.
type OperationAuditStore interface {
	RecordOperation(ctx context.Context, audit OperationAudit) error
}

// MetricsRecorder receives operation counters and latency histograms.
type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}
