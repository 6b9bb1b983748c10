package connector

import (
	"context"
	"sort"
	"strings"
	"time"
)

func (s *Service) observeOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	statusCode int,
	err error,
) {
	if s == nil {
		return
	}
	status := "success"
	if err != nil || statusCode >= 300 {
		status = "failure"
	}

	fields := map[string]any{
		"operation":   operation,
		"status":      status,
		"status_code": statusCode,
		"duration_ms": time.Since(startedAt).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	tags := map[string]string{
		"operation": operation,
		"status":    status,
	}
	s.metricsRecorder.IncCounter(ctx, "connector."+operation+".total", 1, tags)
	s.metricsRecorder.ObserveHistogram(ctx, "connector."+operation+".duration_ms", float64(time.Since(startedAt).Milliseconds()), tags)

	if status == "failure" {
		s.logWithLevel(ctx, "error", operation+" failed", fields)
		return
	}
	s.logWithLevel(ctx, "info", operation+" succeeded", fields)
}

func (s *Service) logWithLevel(ctx context.Context, level string, message string, fields map[string]any) {
	if s == nil || s.logger == nil {
		return
	}
	logger := s.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	args := flattenFields(fields)
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		logger.Error(message, args...)
	case "warn":
		logger.Warn(message, args...)
	case "debug":
		logger.Debug(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}
