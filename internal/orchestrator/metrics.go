package orchestrator

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/designd/internal/orchestrator"

// engineMetrics holds all orchestration metrics.
type engineMetrics struct {
	meter             metric.Meter
	logger            *zap.Logger
	runsTotal         metric.Int64Counter
	stageInvocations  metric.Int64Counter
	improvementCycles metric.Int64Counter
	runDuration       metric.Float64Histogram
}

// newEngineMetrics creates the engine metric instruments. Creation failures
// are logged and the affected instrument stays nil; recording is nil-guarded.
func newEngineMetrics(logger *zap.Logger) *engineMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &engineMetrics{
		meter:  otel.Meter(instrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *engineMetrics) init() {
	var err error

	m.runsTotal, err = m.meter.Int64Counter(
		"designd.engine.runs_total",
		metric.WithDescription("Completed orchestration runs labeled by final verdict (approved, needs_improvement) and ambiguity."),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		m.logger.Warn("failed to create runs counter", zap.Error(err))
	}

	m.stageInvocations, err = m.meter.Int64Counter(
		"designd.engine.stage_invocations_total",
		metric.WithDescription("Agent invocations labeled by role. Includes evaluator calls and improvement re-runs."),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		m.logger.Warn("failed to create stage invocations counter", zap.Error(err))
	}

	m.improvementCycles, err = m.meter.Int64Counter(
		"designd.engine.improvement_cycles_total",
		metric.WithDescription("Improvement cycles executed across all runs."),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		m.logger.Warn("failed to create improvement cycles counter", zap.Error(err))
	}

	m.runDuration, err = m.meter.Float64Histogram(
		"designd.engine.run_duration_seconds",
		metric.WithDescription("Wall-clock duration of complete orchestration runs including all improvement cycles."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600),
	)
	if err != nil {
		m.logger.Warn("failed to create run duration histogram", zap.Error(err))
	}
}

func (m *engineMetrics) recordStage(ctx context.Context, role string) {
	if m.stageInvocations != nil {
		m.stageInvocations.Add(ctx, 1, metric.WithAttributes(attribute.String("role", role)))
	}
}

func (m *engineMetrics) recordCycle(ctx context.Context) {
	if m.improvementCycles != nil {
		m.improvementCycles.Add(ctx, 1)
	}
}

func (m *engineMetrics) recordRun(ctx context.Context, verdict Verdict, started time.Time) {
	outcome := "approved"
	if !verdict.Approved {
		outcome = "needs_improvement"
	}
	attrs := []attribute.KeyValue{
		attribute.String("verdict", outcome),
		attribute.Bool("ambiguous", verdict.Ambiguous),
	}

	if m.runsTotal != nil {
		m.runsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if m.runDuration != nil {
		m.runDuration.Record(ctx, time.Since(started).Seconds(), metric.WithAttributes(attrs...))
	}
}
