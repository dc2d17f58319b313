package http

import (
	"github.com/fyrsmithlabs/designd/internal/agent"
	"github.com/fyrsmithlabs/designd/internal/chatlog"
	"github.com/fyrsmithlabs/designd/internal/orchestrator"
)

// RunRequest is the request body for POST /api/v1/runs.
type RunRequest struct {
	Input string `json:"input"`
	// MaxIterations overrides the server's improvement budget for this
	// run. Zero means evaluate once and never loop.
	MaxIterations *int `json:"max_iterations,omitempty"`
}

// RunResponse is the response body for POST /api/v1/runs.
type RunResponse struct {
	SessionID  string                `json:"session_id"`
	State      orchestrator.RunState `json:"state"`
	Verdict    orchestrator.Verdict  `json:"verdict"`
	Iterations int                   `json:"iterations"`
}

// RolesResponse is the response body for GET /api/v1/roles.
type RolesResponse struct {
	Pipeline        []string     `json:"pipeline"`
	ImprovementFlow []string     `json:"improvement_flow"`
	Evaluator       string       `json:"evaluator"`
	Roles           []agent.Role `json:"roles"`
}

// SessionLogResponse is the response body for GET /api/v1/sessions/:id/log.
type SessionLogResponse struct {
	SessionID string          `json:"session_id"`
	Entries   []chatlog.Entry `json:"entries"`
	// Archived holds entries already spilled from the live window to the
	// session's log file.
	Archived string `json:"archived,omitempty"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`

	// Toolset is the configured tool endpoint URL, omitted when no
	// toolset is wired.
	Toolset string `json:"toolset,omitempty"`
}
