package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/fyrsmithlabs/designd/internal/agent"
	"github.com/fyrsmithlabs/designd/internal/conversation"
)

// runFanOut executes the main pipeline under the fan-out policy: every
// stage receives only the original user input and the stages run
// concurrently. Outputs are aggregated into run state and appended to the
// transcript in declaration order once all stages complete, so the
// evaluator sees a deterministic conversation regardless of completion
// order.
//
// Each goroutine writes only its own result slot; run state and the
// transcript are touched only after the join, keeping the single-writer
// contract.
func (e *Engine) runFanOut(ctx context.Context, transcript *conversation.Transcript, state RunState) error {
	names := e.registry.Pipeline()
	seed := transcript.Seed()

	// Resolve all roles up front so configuration errors surface before
	// any backend call is made.
	roles := make([]agent.Role, len(names))
	for i, name := range names {
		role, err := e.registry.Role(name)
		if err != nil {
			return fmt.Errorf("resolving stage: %w", err)
		}
		roles[i] = role
	}

	results := make([]string, len(roles))
	var wg sync.WaitGroup
	for i, role := range roles {
		wg.Add(1)
		go func(i int, role agent.Role) {
			defer wg.Done()
			// Each stage gets an independent transcript holding only the
			// seed turn: no cross-visibility during the first pass. A
			// failed stage contributes sentinel text and never blocks the
			// others.
			results[i] = e.invoker.Invoke(ctx, role, conversation.New(seed))
		}(i, role)
	}
	wg.Wait()

	for i, name := range names {
		state[name] = results[i]
		transcript.Append(name, results[i])
		e.metrics.recordStage(ctx, name)
		e.reportProgress(StageProgress{Role: name, Cycle: 0, Output: results[i]})
	}

	return ctx.Err()
}
