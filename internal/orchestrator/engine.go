package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/designd/internal/conversation"
	"github.com/fyrsmithlabs/designd/internal/registry"
)

// Engine executes design-pipeline runs against a stage registry.
type Engine struct {
	invoker  StageInvoker
	registry *registry.Registry
	policy   Policy
	logger   *zap.Logger
	metrics  *engineMetrics
	progress ProgressCallback
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithPolicy selects the context-propagation policy for the main pipeline.
func WithPolicy(p Policy) EngineOption {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithProgress sets a callback invoked after each stage completes.
func WithProgress(cb ProgressCallback) EngineOption {
	return func(e *Engine) {
		e.progress = cb
	}
}

// NewEngine creates an engine with the given invoker and registry.
func NewEngine(invoker StageInvoker, reg *registry.Registry, opts ...EngineOption) (*Engine, error) {
	if invoker == nil {
		return nil, fmt.Errorf("invoker is required")
	}
	if reg == nil {
		return nil, fmt.Errorf("registry is required")
	}

	e := &Engine{
		invoker:  invoker,
		registry: reg,
		policy:   PolicySequential,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if !e.policy.Valid() {
		return nil, fmt.Errorf("unknown policy %q", e.policy)
	}
	e.metrics = newEngineMetrics(e.logger)

	return e, nil
}

// Run executes one orchestration: main pipeline, evaluation, and up to
// maxIterations improvement cycles. It blocks until the run completes.
//
// maxIterations = 0 means the pipeline runs once, is evaluated once, and
// the result is returned regardless of verdict.
//
// The returned Result is valid whenever the error is nil. Run state and the
// transcript belong to the run and are discarded by the caller when no
// longer needed; nothing persists across runs.
func (e *Engine) Run(ctx context.Context, input string, maxIterations int) (*Result, error) {
	if maxIterations < 0 {
		return nil, fmt.Errorf("max iterations must be >= 0, got %d", maxIterations)
	}

	started := time.Now()
	transcript := conversation.New(input)
	state := make(RunState)

	e.logger.Info("run started",
		zap.String("policy", string(e.policy)),
		zap.Int("max_iterations", maxIterations))

	// Main pipeline, once.
	var err error
	if e.policy == PolicyFanOut {
		err = e.runFanOut(ctx, transcript, state)
	} else {
		err = e.runStages(ctx, e.registry.Pipeline(), 0, transcript, state)
	}
	if err != nil {
		return nil, err
	}

	verdict, err := e.evaluate(ctx, transcript, state)
	if err != nil {
		return nil, err
	}

	// Improvement loop: bounded by budget, terminated early by approval.
	iterations := 0
	for !verdict.Approved && iterations < maxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e.logger.Info("improvement cycle",
			zap.Int("cycle", iterations+1),
			zap.String("feedback_preview", preview(verdict.Feedback)))

		// The feedback becomes part of the conversation so improvement
		// stages can react to it.
		transcript.Append(e.registry.Evaluator(), verdict.Feedback)

		if err := e.runStages(ctx, e.registry.ImprovementFlow(), iterations+1, transcript, state); err != nil {
			return nil, err
		}
		iterations++
		e.metrics.recordCycle(ctx)

		verdict, err = e.evaluate(ctx, transcript, state)
		if err != nil {
			return nil, err
		}
	}

	e.metrics.recordRun(ctx, verdict, started)
	e.logger.Info("run finished",
		zap.Bool("approved", verdict.Approved),
		zap.Bool("ambiguous", verdict.Ambiguous),
		zap.Int("iterations", iterations),
		zap.Duration("duration", time.Since(started)))

	return &Result{State: state, Verdict: verdict, Iterations: iterations}, nil
}

// runStages executes the named roles in order under the sequential-context
// policy: each stage sees the transcript as accumulated so far, and its
// output is appended before the next stage runs. Later stage output for the
// same role overwrites its run-state entry.
func (e *Engine) runStages(ctx context.Context, names []string, cycle int, transcript *conversation.Transcript, state RunState) error {
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}

		role, err := e.registry.Role(name)
		if err != nil {
			return fmt.Errorf("resolving stage: %w", err)
		}

		output := e.invoker.Invoke(ctx, role, transcript)
		state[name] = output
		transcript.Append(name, output)
		e.metrics.recordStage(ctx, name)

		e.logger.Debug("stage completed",
			zap.String("role", name),
			zap.Int("cycle", cycle),
			zap.Int("output_len", len(output)))

		e.reportProgress(StageProgress{Role: name, Cycle: cycle, Output: output})
	}
	return nil
}

// evaluate invokes the evaluator against the accumulated conversation and
// parses its output. The raw text is recorded in run state under the
// evaluator's role name; it is not appended to the transcript here. On an
// improvement cycle the loop appends it as the feedback turn instead.
func (e *Engine) evaluate(ctx context.Context, transcript *conversation.Transcript, state RunState) (Verdict, error) {
	if err := ctx.Err(); err != nil {
		return Verdict{}, err
	}

	name := e.registry.Evaluator()
	role, err := e.registry.Role(name)
	if err != nil {
		return Verdict{}, fmt.Errorf("resolving evaluator: %w", err)
	}

	raw := e.invoker.Invoke(ctx, role, transcript)
	state[name] = raw
	e.metrics.recordStage(ctx, name)

	verdict := ParseVerdict(raw)
	if verdict.Ambiguous {
		e.logger.Warn("evaluator output matched neither marker, treating as approval",
			zap.String("raw_preview", preview(raw)))
	}

	e.reportProgress(StageProgress{Role: name, Cycle: -1, Output: raw})
	return verdict, nil
}

func (e *Engine) reportProgress(p StageProgress) {
	if e.progress != nil {
		e.progress(p)
	}
}

// preview truncates text for log fields.
func preview(s string) string {
	const max = 120
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
