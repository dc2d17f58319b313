package orchestrator

import "strings"

// Markers the evaluator role is instructed to emit.
const (
	markerImprove  = "IMPROVE"
	markerApproved = "APPROVED"
)

// Verdict is the parsed approve-or-improve decision.
type Verdict struct {
	// Approved is false only when the evaluator asked for improvement.
	Approved bool `json:"approved"`

	// Feedback carries the evaluator's full text when improvement was
	// requested, empty otherwise.
	Feedback string `json:"feedback,omitempty"`

	// Raw is the evaluator's unparsed output.
	Raw string `json:"raw"`

	// Ambiguous is set when the text contained neither marker. Such
	// verdicts count as approval (fail-open) but are flagged so callers
	// can surface off-format evaluator output instead of silently
	// trusting it.
	Ambiguous bool `json:"ambiguous,omitempty"`
}

// ParseVerdict classifies the evaluator's raw text.
//
// The match is a deliberately brittle case-insensitive substring check: the
// evaluator's system instruction tells it to answer with exactly "APPROVED"
// or an "IMPROVE:" prefix, and the gate trusts that instruction rather than
// validating a grammar. Any text containing "improve" is a request for
// improvement, and the entire text (not just the part after the marker) is
// retained as feedback, so the improvement stages see the evaluator's full
// reasoning.
func ParseVerdict(raw string) Verdict {
	upper := strings.ToUpper(raw)

	if strings.Contains(upper, markerImprove) {
		return Verdict{
			Approved: false,
			Feedback: raw,
			Raw:      raw,
		}
	}

	return Verdict{
		Approved:  true,
		Raw:       raw,
		Ambiguous: !strings.Contains(upper, markerApproved),
	}
}
