package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// NewTestLogger creates an in-memory logger that records every entry
// down to trace level for assertion in tests.
func NewTestLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, observed := observer.New(TraceLevel)
	return zap.New(core), observed
}
