package orchestrator

import (
	"context"

	"github.com/fyrsmithlabs/designd/internal/agent"
	"github.com/fyrsmithlabs/designd/internal/conversation"
)

// Policy selects how conversation context propagates through the main
// pipeline.
type Policy string

const (
	// PolicySequential gives each stage the full conversation accumulated
	// so far. This is the default: it models the real dependency between
	// design stages (test generation sees the system design, and so on).
	PolicySequential Policy = "sequential"

	// PolicyFanOut gives every main-pipeline stage only the original user
	// input and runs them concurrently. First pass only; improvement
	// cycles always run sequentially.
	PolicyFanOut Policy = "fanout"
)

// Valid reports whether the policy is one of the supported values.
func (p Policy) Valid() bool {
	return p == PolicySequential || p == PolicyFanOut
}

// StageInvoker issues one agent call per stage. Implemented by
// agent.Invoker; substituted in tests with deterministic stubs.
type StageInvoker interface {
	Invoke(ctx context.Context, role agent.Role, transcript *conversation.Transcript) string
}

// RunState is the per-run mapping from role name to that role's latest
// output. Improvement cycles overwrite a role's entry: the value always
// reflects the most recent draft, not history.
type RunState map[string]string

// Result is the outcome of one orchestration run.
type Result struct {
	// State holds each executed role's latest output, including the
	// evaluator's own text under its role name.
	State RunState `json:"state"`

	// Verdict is the final parsed evaluation.
	Verdict Verdict `json:"verdict"`

	// Iterations is the number of improvement cycles that ran.
	Iterations int `json:"iterations"`
}

// StageProgress reports stage completion during a run.
type StageProgress struct {
	// Role is the stage that just completed.
	Role string `json:"role"`

	// Cycle is 0 for the main pipeline, n for the nth improvement cycle,
	// and -1 for evaluator calls.
	Cycle int `json:"cycle"`

	// Output is the text the stage produced (sentinel error text for a
	// failed stage).
	Output string `json:"output"`
}

// ProgressCallback receives progress updates during execution.
type ProgressCallback func(progress StageProgress)
