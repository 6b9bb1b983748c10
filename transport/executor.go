// Package transport executes authenticated REST calls against the
// vendor's operation endpoints. Query strings are built in caller order
// with spaces rendered as %20, and vendor error statuses are returned as
// values so orchestration can decide what a failure means.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/clearskye/epic-connector/core"
)

const defaultClientTimeout = 30 * time.Second
const defaultResponseBodyLimit int64 = 10 << 20 // 10 MiB

type ExecutorConfig struct {
	// BaseURL is the root every endpoint path is resolved against.
	BaseURL string

	Tokens core.TokenSource
	Client core.HTTPDoer
	Logger core.Logger

	MaxResponseBodyBytes int64
}

type Executor struct {
	config ExecutorConfig
}

func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("transport: base url is required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("transport: token source is required")
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: defaultClientTimeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = glog.Nop()
	}
	if cfg.MaxResponseBodyBytes <= 0 {
		cfg.MaxResponseBodyBytes = defaultResponseBodyLimit
	}
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	return &Executor{config: cfg}, nil
}

// Execute runs one call against endpoint. Query parameters are appended
// in slice order; a JSON body is attached for POST and PUT only. Statuses
// of 300 and above come back inside the Response, never as an error.
func (e *Executor) Execute(
	ctx context.Context,
	endpoint string,
	method string,
	params []core.QueryParam,
	body map[string]any,
) (core.Response, error) {
	if e == nil {
		return core.Response{}, fmt.Errorf("transport: executor is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	method = strings.TrimSpace(strings.ToUpper(method))
	if method == "" {
		method = http.MethodGet
	}

	token, err := e.config.Tokens.Token(ctx)
	if err != nil {
		return core.Response{}, err
	}

	requestURL := buildRequestURL(e.config.BaseURL, endpoint, params)

	var bodyReader io.Reader
	if len(body) > 0 && (method == http.MethodPost || method == http.MethodPut) {
		encoded, err := json.Marshal(body)
		if err != nil {
			return core.Response{}, core.WrapInternalError(err, "transport: encode request body", map[string]any{
				"endpoint": endpoint,
				"method":   method,
			})
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return core.Response{}, core.WrapInternalError(err, "transport: create http request", map[string]any{
			"endpoint": endpoint,
			"method":   method,
		})
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	startedAt := time.Now().UTC()
	res, err := e.config.Client.Do(req)
	if err != nil {
		return core.Response{}, core.WrapTransportError(err, "transport: execute http request", map[string]any{
			"endpoint": endpoint,
			"method":   method,
		})
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, e.config.MaxResponseBodyBytes+1))
	if err != nil {
		return core.Response{}, core.WrapTransportError(err, "transport: read response body", map[string]any{
			"endpoint":    endpoint,
			"status_code": res.StatusCode,
		})
	}
	if int64(len(raw)) > e.config.MaxResponseBodyBytes {
		return core.Response{}, core.WrapTransportError(nil,
			fmt.Sprintf("transport: response body exceeds limit of %d bytes", e.config.MaxResponseBodyBytes),
			map[string]any{
				"endpoint":    endpoint,
				"status_code": res.StatusCode,
			})
	}

	response := core.Response{StatusCode: res.StatusCode, Raw: raw}
	if len(raw) > 0 {
		var decoded map[string]any
		if err := json.Unmarshal(raw, &decoded); err == nil {
			response.Body = decoded
		}
	}

	e.config.Logger.Debug("vendor request completed",
		"endpoint", endpoint,
		"method", method,
		"status_code", res.StatusCode,
		"duration_ms", time.Since(startedAt).Milliseconds(),
	)
	return response, nil
}

// buildRequestURL appends params to the resolved endpoint in insertion
// order. Only spaces are escaped (as %20); the vendor expects the rest of
// the value text verbatim.
func buildRequestURL(base, endpoint string, params []core.QueryParam) string {
	requestURL := joinURL(base, endpoint)
	if len(params) == 0 {
		return requestURL
	}
	var sb strings.Builder
	sb.WriteString(requestURL)
	for i, param := range params {
		if i == 0 {
			sb.WriteString("?")
		} else {
			sb.WriteString("&")
		}
		sb.WriteString(escapeSpaces(param.Name))
		sb.WriteString("=")
		sb.WriteString(escapeSpaces(param.Value))
	}
	return sb.String()
}

func escapeSpaces(value string) string {
	return strings.ReplaceAll(value, " ", "%20")
}

func joinURL(base, endpoint string) string {
	endpoint = strings.TrimPrefix(strings.TrimSpace(endpoint), "/")
	if base == "" {
		return endpoint
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + endpoint
}

var _ core.RequestExecutor = (*Executor)(nil)
