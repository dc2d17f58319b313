// Package conversation provides the ordered transcript shared by agent
// invocations within a single orchestration run. A transcript is append-only
// and single-writer: only the orchestrating goroutine mutates it, and it is
// discarded when the run completes.
package conversation

// SpeakerUser identifies the human turn that seeds a run.
const SpeakerUser = "user"

// Turn is a single entry in a transcript: who spoke and what they said.
// Speaker is either SpeakerUser or the name of the role that produced the
// content.
type Turn struct {
	Speaker string `json:"speaker"`
	Content string `json:"content"`
}

// Transcript is the ordered conversation accumulated during one run.
//
// It is not safe for concurrent mutation. The orchestrator appends to it
// only after each awaited agent call resolves, so no locking is needed.
type Transcript struct {
	turns []Turn
}

// New creates a transcript seeded with the user's input as the first turn.
func New(userInput string) *Transcript {
	return &Transcript{
		turns: []Turn{{Speaker: SpeakerUser, Content: userInput}},
	}
}

// Append adds a turn to the end of the transcript.
func (t *Transcript) Append(speaker, content string) {
	t.turns = append(t.turns, Turn{Speaker: speaker, Content: content})
}

// Turns returns a copy of the accumulated turns. Callers may hold the
// returned slice across later appends without seeing them.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Len returns the number of turns recorded so far.
func (t *Transcript) Len() int {
	return len(t.turns)
}

// Seed returns the first turn's content, the original user input.
// Returns empty string for an empty transcript.
func (t *Transcript) Seed() string {
	if len(t.turns) == 0 {
		return ""
	}
	return t.turns[0].Content
}
