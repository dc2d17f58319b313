package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/designd/internal/conversation"
)

// Role is the immutable identity of one pipeline stage: a name and the
// system instruction that shapes its behavior. Roles are created at
// configuration time and never mutated.
type Role struct {
	Name        string `json:"name"`
	Instruction string `json:"instruction"`
}

// Backend is the single boundary to the language-model provider. Given a
// system instruction and the ordered turns visible to the call, it returns
// one textual completion or fails with a *BackendError.
//
// Implementations must tolerate arbitrary turn content and must not retry;
// retry policy belongs to the caller, and the invoker deliberately has none.
type Backend interface {
	Complete(ctx context.Context, system string, turns []conversation.Turn) (string, error)
}

// BackendError wraps any failure from the provider: network errors,
// malformed responses, rate limits. It is recovered at the invoker boundary
// and never propagates out of a pipeline run.
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend: %v", e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// ErrorText formats the sentinel text substituted for a failed agent call.
// The text appears inline where the role's contribution would have been, so
// downstream stages and the evaluator can see and attribute the failure.
func ErrorText(roleName string, err error) string {
	msg := err.Error()
	var berr *BackendError
	if errors.As(err, &berr) {
		msg = berr.Err.Error()
	}
	return fmt.Sprintf("[Error from %s agent: %s]", roleName, msg)
}
