package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SeedsUserTurn(t *testing.T) {
	tr := New("build a todo app")

	require.Equal(t, 1, tr.Len())
	turns := tr.Turns()
	assert.Equal(t, SpeakerUser, turns[0].Speaker)
	assert.Equal(t, "build a todo app", turns[0].Content)
	assert.Equal(t, "build a todo app", tr.Seed())
}

func TestTranscript_AppendPreservesOrder(t *testing.T) {
	tr := New("input")
	tr.Append("market_research", "findings")
	tr.Append("demand_analysis", "pain points")

	turns := tr.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, "market_research", turns[1].Speaker)
	assert.Equal(t, "demand_analysis", turns[2].Speaker)
}

func TestTranscript_TurnsReturnsCopy(t *testing.T) {
	tr := New("input")
	snapshot := tr.Turns()

	tr.Append("market_research", "findings")

	// Snapshot taken before the append must not grow.
	assert.Len(t, snapshot, 1)
	assert.Equal(t, 2, tr.Len())
}

func TestTranscript_SeedEmpty(t *testing.T) {
	tr := &Transcript{}
	assert.Equal(t, "", tr.Seed())
}
