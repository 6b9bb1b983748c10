// Package gologger adapts the connector's glog loggers to the go-job
// logging contracts consumed by the maintenance runtime, so background
// upkeep logs through the same pipeline as the operations themselves.
package gologger

import (
	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

// Bridge carries both sides of a resolved logger: the glog pair used by
// connector code and the go-job pair handed to the job runtime.
type Bridge struct {
	Provider    glog.LoggerProvider
	Logger      glog.Logger
	JobProvider job.LoggerProvider
	JobLogger   job.Logger
}

// NewBridge resolves with precedence provider > logger > nop, then wraps
// the resolved pair in the go-job contracts. The returned bridge always
// has a usable JobLogger.
func NewBridge(name string, provider glog.LoggerProvider, logger glog.Logger) Bridge {
	resolvedProvider, resolvedLogger := glog.Resolve(name, provider, logger)
	return Bridge{
		Provider:    resolvedProvider,
		Logger:      resolvedLogger,
		JobProvider: toJobProvider(resolvedProvider),
		JobLogger:   toJobLogger(resolvedLogger),
	}
}

func toJobProvider(provider glog.LoggerProvider) job.LoggerProvider {
	if provider == nil {
		return nil
	}
	return job.GoLoggerProvider(provider)
}

func toJobLogger(logger glog.Logger) job.Logger {
	if logger == nil {
		return nil
	}
	return job.GoLogger(logger)
}
