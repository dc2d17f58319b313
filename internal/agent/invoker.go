// Package agent wraps single-role language-model calls.
//
// An Invoker issues exactly one request per call: it combines a role's
// system instruction with the conversation visible to the call, sends it to
// the configured Backend, and returns the completion text. Failures degrade
// to attributable sentinel text rather than propagating, so a single stage's
// failure never aborts the whole pipeline.
package agent

import (
	"context"
	"strings"

	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/designd/internal/conversation"
)

// Invoker issues single agent requests against a Backend.
type Invoker struct {
	backend Backend
	limiter *rate.Limiter
	notes   []string
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithRateLimiter throttles backend calls. Useful against provider rate
// limits; the limiter is shared across all roles using this invoker.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(i *Invoker) {
		i.limiter = l
	}
}

// WithSystemNote appends an extra paragraph to every role's system
// instruction. Used to advertise optional capabilities (e.g. a configured
// toolset) without the roles knowing about them.
func WithSystemNote(note string) Option {
	return func(i *Invoker) {
		if note != "" {
			i.notes = append(i.notes, note)
		}
	}
}

// NewInvoker creates an invoker backed by the given Backend.
func NewInvoker(backend Backend, opts ...Option) *Invoker {
	inv := &Invoker{backend: backend}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke sends one request for the role against the supplied transcript and
// returns the completion text.
//
// Any error, whether from the rate-limit wait, the network, or a malformed
// response, is converted into the sentinel text from ErrorText. One attempt
// per call, no retry, no backoff.
func (i *Invoker) Invoke(ctx context.Context, role Role, transcript *conversation.Transcript) string {
	if i.limiter != nil {
		if err := i.limiter.Wait(ctx); err != nil {
			return ErrorText(role.Name, err)
		}
	}

	text, err := i.backend.Complete(ctx, i.systemFor(role), transcript.Turns())
	if err != nil {
		return ErrorText(role.Name, err)
	}
	return text
}

// systemFor builds the full system instruction for a role, including any
// configured capability notes.
func (i *Invoker) systemFor(role Role) string {
	if len(i.notes) == 0 {
		return role.Instruction
	}
	parts := append([]string{role.Instruction}, i.notes...)
	return strings.Join(parts, "\n\n")
}
