package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/designd/internal/agent"
	"github.com/fyrsmithlabs/designd/internal/conversation"
	"github.com/fyrsmithlabs/designd/internal/registry"
)

// invocation records one stub call: the role invoked and the transcript
// turns visible to it at the time.
type invocation struct {
	role  string
	turns []conversation.Turn
}

// scriptedInvoker returns deterministic text per role. A role can be given
// a queue of scripted responses (consumed in order, last one repeating);
// unscripted roles answer "<role> response".
type scriptedInvoker struct {
	mu      sync.Mutex
	scripts map[string][]string
	served  map[string]int
	calls   []invocation
}

func newScriptedInvoker() *scriptedInvoker {
	return &scriptedInvoker{
		scripts: make(map[string][]string),
		served:  make(map[string]int),
	}
}

func (s *scriptedInvoker) script(role string, responses ...string) {
	s.scripts[role] = responses
}

func (s *scriptedInvoker) Invoke(_ context.Context, role agent.Role, transcript *conversation.Transcript) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, invocation{role: role.Name, turns: transcript.Turns()})

	queue, ok := s.scripts[role.Name]
	if !ok || len(queue) == 0 {
		return role.Name + " response"
	}
	idx := s.served[role.Name]
	if idx >= len(queue) {
		idx = len(queue) - 1
	}
	s.served[role.Name]++
	return queue[idx]
}

func (s *scriptedInvoker) callsFor(role string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.role == role {
			n++
		}
	}
	return n
}

// smallRegistry builds a four-stage registry with a two-stage improvement
// flow, small enough for counting assertions.
func smallRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	roles := []agent.Role{
		{Name: "architect", Instruction: "design the system"},
		{Name: "dba", Instruction: "design the schema"},
		{Name: "coder", Instruction: "write the code"},
		{Name: "qa", Instruction: "test the code"},
		{Name: "judge", Instruction: "approve or improve"},
	}
	r, err := registry.New(roles,
		[]string{"architect", "dba", "coder", "qa"},
		[]string{"coder", "qa"},
		"judge")
	require.NoError(t, err)
	return r
}

func newTestEngine(t *testing.T, inv StageInvoker, reg *registry.Registry, opts ...EngineOption) *Engine {
	t.Helper()
	e, err := NewEngine(inv, reg, opts...)
	require.NoError(t, err)
	return e
}

func TestNewEngine_Validation(t *testing.T) {
	reg := smallRegistry(t)

	_, err := NewEngine(nil, reg)
	assert.Error(t, err)

	_, err = NewEngine(newScriptedInvoker(), nil)
	assert.Error(t, err)

	_, err = NewEngine(newScriptedInvoker(), reg, WithPolicy(Policy("bogus")))
	assert.Error(t, err)
}

func TestRun_NegativeIterations(t *testing.T) {
	e := newTestEngine(t, newScriptedInvoker(), smallRegistry(t))

	_, err := e.Run(context.Background(), "input", -1)

	assert.Error(t, err)
}

func TestRun_ZeroIterations_SingleEvaluation(t *testing.T) {
	inv := newScriptedInvoker()
	// Evaluator keeps demanding improvement; with a zero budget the result
	// is returned regardless of verdict.
	inv.script("judge", "IMPROVE: everything")
	e := newTestEngine(t, inv, smallRegistry(t))

	result, err := e.Run(context.Background(), "input", 0)
	require.NoError(t, err)

	assert.Equal(t, 1, inv.callsFor("judge"))
	assert.Equal(t, 0, result.Iterations)
	assert.False(t, result.Verdict.Approved)

	// One entry per main-pipeline role plus the evaluator's own entry.
	assert.Len(t, result.State, 5)
	for _, role := range []string{"architect", "dba", "coder", "qa"} {
		assert.Equal(t, role+" response", result.State[role])
	}
	assert.Equal(t, "IMPROVE: everything", result.State["judge"])
}

func TestRun_ApprovedFirstEvaluation_NoImprovementRuns(t *testing.T) {
	inv := newScriptedInvoker()
	inv.script("judge", "APPROVED")
	e := newTestEngine(t, inv, smallRegistry(t))

	result, err := e.Run(context.Background(), "input", 3)
	require.NoError(t, err)

	assert.True(t, result.Verdict.Approved)
	assert.Equal(t, 0, result.Iterations)
	assert.Equal(t, 1, inv.callsFor("judge"))
	// Improvement subset never re-ran: one call each from the main pass.
	assert.Equal(t, 1, inv.callsFor("coder"))
	assert.Equal(t, 1, inv.callsFor("qa"))
}

func TestRun_PersistentDisapproval_StopsAtBudget(t *testing.T) {
	inv := newScriptedInvoker()
	inv.script("judge", "IMPROVE: never good enough")
	e := newTestEngine(t, inv, smallRegistry(t))

	result, err := e.Run(context.Background(), "input", 3)
	require.NoError(t, err)

	// Evaluator invocations = min(improve signals, max) + 1.
	assert.Equal(t, 4, inv.callsFor("judge"))
	assert.Equal(t, 3, result.Iterations)
	assert.False(t, result.Verdict.Approved)
	// Improvement roles: one main-pass call + three cycles.
	assert.Equal(t, 4, inv.callsFor("coder"))
	assert.Equal(t, 4, inv.callsFor("qa"))
	// Non-improvement roles ran only once.
	assert.Equal(t, 1, inv.callsFor("architect"))
	assert.Equal(t, 1, inv.callsFor("dba"))
}

func TestRun_TodoAppScenario(t *testing.T) {
	inv := newScriptedInvoker()
	inv.script("judge", "IMPROVE: add auth", "APPROVED")
	e := newTestEngine(t, inv, smallRegistry(t))

	result, err := e.Run(context.Background(), "build a todo app", 1)
	require.NoError(t, err)

	assert.Equal(t, 2, inv.callsFor("judge"))
	assert.Equal(t, 1, result.Iterations)
	assert.True(t, result.Verdict.Approved)
	assert.Equal(t, "APPROVED", result.Verdict.Raw)
}

func TestRun_Idempotent(t *testing.T) {
	run := func() *Result {
		inv := newScriptedInvoker()
		inv.script("judge", "IMPROVE: tighten it up", "APPROVED")
		e := newTestEngine(t, inv, smallRegistry(t))
		result, err := e.Run(context.Background(), "same input", 2)
		require.NoError(t, err)
		return result
	}

	first := run()
	second := run()

	assert.Equal(t, first.State, second.State)
	assert.Equal(t, first.Verdict, second.Verdict)
	assert.Equal(t, first.Iterations, second.Iterations)
}

func TestRun_SequentialContextAccumulates(t *testing.T) {
	inv := newScriptedInvoker()
	inv.script("judge", "APPROVED")
	e := newTestEngine(t, inv, smallRegistry(t))

	_, err := e.Run(context.Background(), "input", 0)
	require.NoError(t, err)

	// architect saw only the seed; qa saw seed + three prior stage outputs.
	byRole := make(map[string]invocation)
	for _, c := range inv.calls {
		byRole[c.role] = c
	}
	assert.Len(t, byRole["architect"].turns, 1)
	require.Len(t, byRole["qa"].turns, 4)
	assert.Equal(t, "coder", byRole["qa"].turns[3].Speaker)
	assert.Equal(t, "coder response", byRole["qa"].turns[3].Content)
	// The evaluator saw the full conversation.
	assert.Len(t, byRole["judge"].turns, 5)
}

func TestRun_ImprovementCycleSeesFeedbackAndFreshOutput(t *testing.T) {
	inv := newScriptedInvoker()
	inv.script("judge", "IMPROVE: add auth", "APPROVED")
	inv.script("coder", "code v1", "code v2")
	e := newTestEngine(t, inv, smallRegistry(t))

	result, err := e.Run(context.Background(), "input", 1)
	require.NoError(t, err)

	// qa's second call (the improvement cycle) must see the feedback turn
	// and the coder's fresh output from the same cycle.
	var qaCalls []invocation
	for _, c := range inv.calls {
		if c.role == "qa" {
			qaCalls = append(qaCalls, c)
		}
	}
	require.Len(t, qaCalls, 2)

	second := qaCalls[1].turns
	var sawFeedback, sawFreshCode bool
	for _, turn := range second {
		if turn.Speaker == "judge" && turn.Content == "IMPROVE: add auth" {
			sawFeedback = true
		}
		if turn.Speaker == "coder" && turn.Content == "code v2" {
			sawFreshCode = true
		}
	}
	assert.True(t, sawFeedback, "improvement cycle should see the evaluator feedback turn")
	assert.True(t, sawFreshCode, "later improvement stages should see earlier stages' fresh output")

	// Run state holds the latest draft, not history.
	assert.Equal(t, "code v2", result.State["coder"])
}

func TestRun_EmptyImprovementFlow_ConsumesBudget(t *testing.T) {
	roles := []agent.Role{
		{Name: "architect", Instruction: "design"},
		{Name: "judge", Instruction: "judge"},
	}
	reg, err := registry.New(roles, []string{"architect"}, nil, "judge")
	require.NoError(t, err)

	inv := newScriptedInvoker()
	inv.script("judge", "IMPROVE: cannot be satisfied")
	e := newTestEngine(t, inv, reg)

	result, err := e.Run(context.Background(), "input", 2)
	require.NoError(t, err)

	// Looping still consumed the budget even though no stage re-ran.
	assert.Equal(t, 3, inv.callsFor("judge"))
	assert.Equal(t, 2, result.Iterations)
	assert.Equal(t, 1, inv.callsFor("architect"))
}

func TestRun_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newTestEngine(t, newScriptedInvoker(), smallRegistry(t))

	_, err := e.Run(ctx, "input", 1)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_SentinelTextFlowsThroughPipeline(t *testing.T) {
	inv := newScriptedInvoker()
	inv.script("dba", agent.ErrorText("dba", fmt.Errorf("connection refused")))
	inv.script("judge", "APPROVED")
	e := newTestEngine(t, inv, smallRegistry(t))

	result, err := e.Run(context.Background(), "input", 0)
	require.NoError(t, err)

	// The failed stage's sentinel appears inline where its contribution
	// would have been; the run still completes.
	assert.Equal(t, "[Error from dba agent: connection refused]", result.State["dba"])
	assert.Equal(t, "coder response", result.State["coder"])
}

func TestRun_ProgressCallback(t *testing.T) {
	inv := newScriptedInvoker()
	inv.script("judge", "APPROVED")

	var events []StageProgress
	e := newTestEngine(t, inv, smallRegistry(t), WithProgress(func(p StageProgress) {
		events = append(events, p)
	}))

	_, err := e.Run(context.Background(), "input", 0)
	require.NoError(t, err)

	// Four pipeline stages plus the evaluator.
	require.Len(t, events, 5)
	assert.Equal(t, "architect", events[0].Role)
	assert.Equal(t, 0, events[0].Cycle)
	assert.Equal(t, "judge", events[4].Role)
	assert.Equal(t, -1, events[4].Cycle)
}
