// Package registry holds the static stage configuration for the design
// pipeline: which roles exist, the system instruction each one carries, the
// order of the main pipeline, the improvement subset re-run on each
// disapproval cycle, and the evaluator role.
//
// The pipeline shape is fixed at load time. Instruction text may be
// overridden from a YAML file and hot-reloaded (see Loader and Watcher), but
// role membership and ordering never change while runs are in flight.
package registry

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/fyrsmithlabs/designd/internal/agent"
)

// Errors for registry operations.
var (
	ErrRoleNotFound    = errors.New("role not found")
	ErrInvalidRoleName = errors.New("invalid role name: must be lowercase alphanumeric with underscores")
	ErrEmptyPipeline   = errors.New("main pipeline cannot be empty")
	ErrNoEvaluator     = errors.New("evaluator role is required")
)

// roleNamePattern validates role names. Role names double as run-state keys
// and log senders, so they stay conservative.
var roleNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateRoleName checks that a role name is safe to use as a key.
func ValidateRoleName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidRoleName)
	}
	if !roleNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidRoleName, name)
	}
	return nil
}

// Registry is the static mapping from role names to system instructions plus
// the pipeline declarations consumed by the orchestrator.
//
// Reads are concurrent-safe. The only mutation after construction is
// instruction replacement via SetInstruction (hot reload).
type Registry struct {
	mu              sync.RWMutex
	roles           map[string]agent.Role
	pipeline        []string
	improvementFlow []string
	evaluator       string
}

// New creates a registry from explicit configuration and validates it.
func New(roles []agent.Role, pipeline, improvementFlow []string, evaluator string) (*Registry, error) {
	r := &Registry{
		roles:           make(map[string]agent.Role, len(roles)),
		pipeline:        append([]string(nil), pipeline...),
		improvementFlow: append([]string(nil), improvementFlow...),
		evaluator:       evaluator,
	}
	for _, role := range roles {
		if _, exists := r.roles[role.Name]; exists {
			return nil, fmt.Errorf("duplicate role %q", role.Name)
		}
		r.roles[role.Name] = role
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the registry invariants: valid unique role names, every
// pipeline role resolvable, the improvement flow a subset of the pipeline,
// and an evaluator that exists and is not itself a pipeline stage.
//
// An empty improvement flow is valid: looping then consumes iteration budget
// without producing new stage output.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for name := range r.roles {
		if err := ValidateRoleName(name); err != nil {
			return err
		}
	}

	if len(r.pipeline) == 0 {
		return ErrEmptyPipeline
	}
	seen := make(map[string]bool, len(r.pipeline))
	for _, name := range r.pipeline {
		if _, ok := r.roles[name]; !ok {
			return fmt.Errorf("%w: pipeline role %q", ErrRoleNotFound, name)
		}
		if seen[name] {
			return fmt.Errorf("duplicate pipeline role %q", name)
		}
		seen[name] = true
	}

	for _, name := range r.improvementFlow {
		if !seen[name] {
			return fmt.Errorf("improvement role %q is not part of the main pipeline", name)
		}
	}

	if r.evaluator == "" {
		return ErrNoEvaluator
	}
	if _, ok := r.roles[r.evaluator]; !ok {
		return fmt.Errorf("%w: evaluator role %q", ErrRoleNotFound, r.evaluator)
	}
	if seen[r.evaluator] {
		return fmt.Errorf("evaluator role %q cannot be a pipeline stage", r.evaluator)
	}

	return nil
}

// Role returns the role identity for a name.
func (r *Registry) Role(name string) (agent.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.roles[name]
	if !ok {
		return agent.Role{}, fmt.Errorf("%w: %q", ErrRoleNotFound, name)
	}
	return role, nil
}

// Pipeline returns the ordered main-pipeline role names.
func (r *Registry) Pipeline() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.pipeline...)
}

// ImprovementFlow returns the ordered improvement-subset role names.
func (r *Registry) ImprovementFlow() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.improvementFlow...)
}

// Evaluator returns the evaluator role name.
func (r *Registry) Evaluator() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.evaluator
}

// Roles returns all roles sorted by name, for listings.
func (r *Registry) Roles() []agent.Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]agent.Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SetInstruction replaces a role's system instruction. Used by the hot
// reload path; unknown roles are rejected rather than created, so reload can
// never change the pipeline shape.
func (r *Registry) SetInstruction(name, instruction string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrRoleNotFound, name)
	}
	role.Instruction = instruction
	r.roles[name] = role
	return nil
}
