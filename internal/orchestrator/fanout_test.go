package orchestrator

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/designd/internal/agent"
	"github.com/fyrsmithlabs/designd/internal/conversation"
)

func TestRunFanOut_StagesSeeOnlySeed(t *testing.T) {
	inv := newScriptedInvoker()
	inv.script("judge", "APPROVED")
	e := newTestEngine(t, inv, smallRegistry(t), WithPolicy(PolicyFanOut))

	_, err := e.Run(context.Background(), "the brief", 0)
	require.NoError(t, err)

	for _, c := range inv.calls {
		if c.role == "judge" {
			continue
		}
		require.Len(t, c.turns, 1, "stage %s should see only the seed turn", c.role)
		assert.Equal(t, conversation.SpeakerUser, c.turns[0].Speaker)
		assert.Equal(t, "the brief", c.turns[0].Content)
	}
}

func TestRunFanOut_AggregatesInPipelineOrder(t *testing.T) {
	inv := newScriptedInvoker()
	inv.script("judge", "APPROVED")
	e := newTestEngine(t, inv, smallRegistry(t), WithPolicy(PolicyFanOut))

	_, err := e.Run(context.Background(), "input", 0)
	require.NoError(t, err)

	// The evaluator sees the seed plus every stage output, appended in
	// pipeline declaration order regardless of completion order.
	var judgeTurns []conversation.Turn
	for _, c := range inv.calls {
		if c.role == "judge" {
			judgeTurns = c.turns
		}
	}
	require.Len(t, judgeTurns, 5)
	want := []string{conversation.SpeakerUser, "architect", "dba", "coder", "qa"}
	for i, speaker := range want {
		assert.Equal(t, speaker, judgeTurns[i].Speaker)
	}
}

func TestRunFanOut_OneFailureDoesNotAbort(t *testing.T) {
	inv := newScriptedInvoker()
	sentinel := agent.ErrorText("dba", fmt.Errorf("timeout"))
	inv.script("dba", sentinel)
	inv.script("judge", "APPROVED")
	e := newTestEngine(t, inv, smallRegistry(t), WithPolicy(PolicyFanOut))

	result, err := e.Run(context.Background(), "input", 0)
	require.NoError(t, err)

	assert.Equal(t, sentinel, result.State["dba"])
	for _, role := range []string{"architect", "coder", "qa"} {
		assert.Equal(t, role+" response", result.State[role])
	}
	assert.True(t, result.Verdict.Approved)
}

func TestRunFanOut_ImprovementCyclesStaySequential(t *testing.T) {
	inv := newScriptedInvoker()
	inv.script("judge", "IMPROVE: not yet", "APPROVED")
	inv.script("coder", "code v1", "code v2")
	e := newTestEngine(t, inv, smallRegistry(t), WithPolicy(PolicyFanOut))

	_, err := e.Run(context.Background(), "input", 1)
	require.NoError(t, err)

	// The improvement pass runs with accumulated context even under the
	// fan-out policy: qa's second call sees the coder's fresh draft.
	var qaCalls []invocation
	for _, c := range inv.calls {
		if c.role == "qa" {
			qaCalls = append(qaCalls, c)
		}
	}
	require.Len(t, qaCalls, 2)

	var sawFreshCode bool
	for _, turn := range qaCalls[1].turns {
		if turn.Speaker == "coder" && turn.Content == "code v2" {
			sawFreshCode = true
		}
	}
	assert.True(t, sawFreshCode)
}
