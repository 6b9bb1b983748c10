// Package soap implements the vendor's WS-Security query surface: a
// GetRecords request with UsernameToken credentials, flat record
// parsing, and cursor-based resume through the echoed search context.
package soap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/clearskye/epic-connector/core"
)

const defaultListenerTimeout = 600 * time.Second
const maxListenerResponseBodyLen int64 = 32 << 20 // 32 MiB

type EngineConfig struct {
	// ListenerURL is the resolved query listener endpoint.
	ListenerURL string

	Username string
	Password string

	// ClientID is sent as the Epic-Client-ID header on every call.
	ClientID string

	// MaxRecordsPerFetch is the page size used when a query does not set
	// its own; zero falls back to the vendor default of 50.
	MaxRecordsPerFetch int

	Timeout time.Duration
	Client  core.HTTPDoer
	Logger  core.Logger
}

// Engine runs record searches. The HTTP client is created lazily on the
// first search and shared by every subsequent call.
type Engine struct {
	config EngineConfig

	clientOnce sync.Once
	client     core.HTTPDoer
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if strings.TrimSpace(cfg.ListenerURL) == "" {
		return nil, fmt.Errorf("soap: listener url is required")
	}
	if strings.TrimSpace(cfg.Username) == "" {
		return nil, fmt.Errorf("soap: username is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultListenerTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = glog.Nop()
	}
	cfg.ListenerURL = strings.TrimSpace(cfg.ListenerURL)
	cfg.Username = strings.TrimSpace(cfg.Username)
	return &Engine{config: cfg}, nil
}

// Search runs one page of a record search and returns the parsed rows
// plus the cursor for the next page, nil when the vendor reports none.
func (e *Engine) Search(ctx context.Context, query core.SearchQuery) (core.SearchResult, error) {
	if e == nil {
		return core.SearchResult{}, fmt.Errorf("soap: engine is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(query.RecordType) == "" {
		return core.SearchResult{}, core.NewBadInputError("soap: record type is required", nil)
	}

	pageSize := e.resolvePageSize(query.PageSize)
	envelope, err := buildEnvelope(e.config.Username, e.config.Password, query, pageSize)
	if err != nil {
		return core.SearchResult{}, core.WrapInternalError(err, "soap: build request envelope", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.ListenerURL, bytes.NewReader(envelope))
	if err != nil {
		return core.SearchResult{}, core.WrapInternalError(err, "soap: create listener request", nil)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	if strings.TrimSpace(e.config.ClientID) != "" {
		req.Header.Set("Epic-Client-ID", strings.TrimSpace(e.config.ClientID))
	}

	startedAt := time.Now().UTC()
	res, err := e.httpClient().Do(req)
	if err != nil {
		return core.SearchResult{}, core.WrapTransportError(err, "soap: execute listener request", map[string]any{
			"listener_url": e.config.ListenerURL,
		})
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxListenerResponseBodyLen))
	if err != nil {
		return core.SearchResult{}, core.WrapTransportError(err, "soap: read listener response", map[string]any{
			"status_code": res.StatusCode,
		})
	}

	result, err := parseSearchResponse(raw)
	if err != nil {
		return core.SearchResult{}, err
	}

	e.config.Logger.Debug("record search completed",
		"record_type", query.RecordType,
		"record_count", len(result.Records),
		"has_next_context", result.NextContext != nil,
		"duration_ms", time.Since(startedAt).Milliseconds(),
	)
	return result, nil
}

func (e *Engine) resolvePageSize(requested int) int {
	if requested > 0 {
		return requested
	}
	if e.config.MaxRecordsPerFetch > 0 {
		return e.config.MaxRecordsPerFetch
	}
	return core.DefaultMaxRecordsPerFetch
}

func (e *Engine) httpClient() core.HTTPDoer {
	e.clientOnce.Do(func() {
		if e.config.Client != nil {
			e.client = e.config.Client
			return
		}
		e.client = &http.Client{Timeout: e.config.Timeout}
	})
	return e.client
}

var _ core.RecordSearcher = (*Engine)(nil)
