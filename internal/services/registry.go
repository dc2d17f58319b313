// Package services provides the centralized service registry for designd.
//
// Registry pattern for accessing the core services (orchestration engine,
// role registry, chat log, toolset). Use NewRegistry() to create a
// registry with service instances, then accessor methods to retrieve
// individual services.
package services

import (
	"github.com/fyrsmithlabs/designd/internal/chatlog"
	"github.com/fyrsmithlabs/designd/internal/orchestrator"
	"github.com/fyrsmithlabs/designd/internal/registry"
	"github.com/fyrsmithlabs/designd/internal/toolset"
)

// Registry provides access to all designd services.
// Use accessor methods to retrieve individual services.
type Registry interface {
	Engine() *orchestrator.Engine
	Roles() *registry.Registry
	ChatLog() *chatlog.Store
	LogSink() *chatlog.FileSink
	Toolset() *toolset.Toolset
}

// Options configures the registry with service instances.
type Options struct {
	Engine  *orchestrator.Engine
	Roles   *registry.Registry
	ChatLog *chatlog.Store
	LogSink *chatlog.FileSink
	Toolset *toolset.Toolset
}

type serviceRegistry struct {
	engine  *orchestrator.Engine
	roles   *registry.Registry
	chatLog *chatlog.Store
	logSink *chatlog.FileSink
	toolset *toolset.Toolset
}

// NewRegistry creates a new service registry.
func NewRegistry(opts Options) Registry {
	return &serviceRegistry{
		engine:  opts.Engine,
		roles:   opts.Roles,
		chatLog: opts.ChatLog,
		logSink: opts.LogSink,
		toolset: opts.Toolset,
	}
}

func (r *serviceRegistry) Engine() *orchestrator.Engine  { return r.engine }
func (r *serviceRegistry) Roles() *registry.Registry     { return r.roles }
func (r *serviceRegistry) ChatLog() *chatlog.Store       { return r.chatLog }
func (r *serviceRegistry) LogSink() *chatlog.FileSink    { return r.logSink }
func (r *serviceRegistry) Toolset() *toolset.Toolset     { return r.toolset }
