// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package builder provides the fluent API for assembling swarms and
// workflows in code. It produces the same definition objects the YAML
// loader produces and validates them the same way.
package builder

import (
	"errors"

	"go.uber.org/zap"

	"github.com/teradata-labs/weft/pkg/hooks"
	"github.com/teradata-labs/weft/pkg/observability"
	"github.com/teradata-labs/weft/pkg/swarm"
	"github.com/teradata-labs/weft/pkg/tools"
	"github.com/teradata-labs/weft/pkg/types"
	"github.com/teradata-labs/weft/pkg/workflow"
)

// AgentBuilder accumulates one agent definition.
type AgentBuilder struct {
	def *types.AgentDefinition
}

// NewAgent starts building an agent definition.
func NewAgent(name string) *AgentBuilder {
	return &AgentBuilder{def: types.NewAgentDefinition(name)}
}

// WithDescription sets the description shown to delegating agents.
func (b *AgentBuilder) WithDescription(description string) *AgentBuilder {
	b.def.Description = description
	return b
}

// WithModel sets the model identifier.
func (b *AgentBuilder) WithModel(model string) *AgentBuilder {
	b.def.Model = model
	return b
}

// WithProvider sets the LLM provider (default "anthropic").
func (b *AgentBuilder) WithProvider(provider string) *AgentBuilder {
	b.def.Provider = provider
	return b
}

// WithBaseURL overrides the provider endpoint.
func (b *AgentBuilder) WithBaseURL(url string) *AgentBuilder {
	b.def.BaseURL = url
	return b
}

// WithSystemPrompt sets the system prompt.
func (b *AgentBuilder) WithSystemPrompt(prompt string) *AgentBuilder {
	b.def.SystemPrompt = prompt
	return b
}

// WithDirectory sets the agent's working directory.
func (b *AgentBuilder) WithDirectory(dir string) *AgentBuilder {
	b.def.Directory = dir
	return b
}

// WithTools restricts the agent to the named tools, in order.
func (b *AgentBuilder) WithTools(names ...string) *AgentBuilder {
	for _, name := range names {
		b.def.Tools = append(b.def.Tools, types.ToolSpec{Name: name})
	}
	return b
}

// WithToolPermissions adds one tool with a path permission ruleset.
func (b *AgentBuilder) WithToolPermissions(name string, allowed, denied []string) *AgentBuilder {
	b.def.Tools = append(b.def.Tools, types.ToolSpec{
		Name: name,
		Permissions: &tools.PermissionConfig{
			AllowedPaths: allowed,
			DeniedPaths:  denied,
		},
	})
	return b
}

// DelegatesTo names the agents this agent may delegate to.
func (b *AgentBuilder) DelegatesTo(names ...string) *AgentBuilder {
	b.def.DelegatesTo = append(b.def.DelegatesTo, names...)
	return b
}

// WithTimeout bounds each LLM call, in seconds.
func (b *AgentBuilder) WithTimeout(seconds int) *AgentBuilder {
	b.def.Timeout = seconds
	return b
}

// WithContextWindow overrides the model's context window, in tokens.
func (b *AgentBuilder) WithContextWindow(tokens int) *AgentBuilder {
	b.def.ContextWindow = tokens
	return b
}

// WithLocalSemaphore caps concurrent tool tasks for this agent.
func (b *AgentBuilder) WithLocalSemaphore(n int) *AgentBuilder {
	b.def.LocalSemaphore = n
	return b
}

// WithParameter passes one opaque parameter to the LLM driver.
func (b *AgentBuilder) WithParameter(key string, value interface{}) *AgentBuilder {
	if b.def.Parameters == nil {
		b.def.Parameters = make(map[string]interface{})
	}
	b.def.Parameters[key] = value
	return b
}

// WithHeader passes one opaque header to the LLM driver transport.
func (b *AgentBuilder) WithHeader(key, value string) *AgentBuilder {
	if b.def.Headers == nil {
		b.def.Headers = make(map[string]string)
	}
	b.def.Headers[key] = value
	return b
}

// WithMCPServer attaches one external tool source.
func (b *AgentBuilder) WithMCPServer(def types.MCPServerDef) *AgentBuilder {
	b.def.MCPServers = append(b.def.MCPServers, def)
	return b
}

// WithoutDefaultTools drops the built-in tool set.
func (b *AgentBuilder) WithoutDefaultTools() *AgentBuilder {
	b.def.IncludeDefaultTools = false
	return b
}

// WithBypassPermissions disables permission wrapping for this agent.
func (b *AgentBuilder) WithBypassPermissions() *AgentBuilder {
	b.def.BypassPermissions = true
	return b
}

// Definition applies defaults and returns the accumulated definition.
// Validation happens at swarm construction.
func (b *AgentBuilder) Definition() *types.AgentDefinition {
	b.def.ApplyDefaults()
	return b.def
}

// SwarmBuilder accumulates a swarm configuration.
type SwarmBuilder struct {
	cfg    swarm.Config
	agents []*AgentBuilder
}

// NewSwarm starts building a swarm.
func NewSwarm(name string) *SwarmBuilder {
	return &SwarmBuilder{cfg: swarm.Config{Name: name}}
}

// WithLead names the lead agent.
func (b *SwarmBuilder) WithLead(name string) *SwarmBuilder {
	b.cfg.Lead = name
	return b
}

// AddAgent adds one agent.
func (b *SwarmBuilder) AddAgent(agent *AgentBuilder) *SwarmBuilder {
	b.agents = append(b.agents, agent)
	return b
}

// WithGlobalSemaphore caps concurrent outbound work swarm-wide.
func (b *SwarmBuilder) WithGlobalSemaphore(n int) *SwarmBuilder {
	b.cfg.GlobalSemaphore = n
	return b
}

// WithDrivers sets the per-agent LLM driver factory. Required.
func (b *SwarmBuilder) WithDrivers(factory swarm.DriverFactory) *SwarmBuilder {
	b.cfg.Drivers = factory
	return b
}

// WithDriver uses one driver for every agent.
func (b *SwarmBuilder) WithDriver(driver types.LLMDriver) *SwarmBuilder {
	b.cfg.Drivers = func(*types.AgentDefinition) (types.LLMDriver, error) {
		return driver, nil
	}
	return b
}

// WithSourceOpener sets the MCP tool source opener.
func (b *SwarmBuilder) WithSourceOpener(opener swarm.SourceOpener) *SwarmBuilder {
	b.cfg.OpenSource = opener
	return b
}

// WithHook adds a swarm-default hook registration.
func (b *SwarmBuilder) WithHook(reg *hooks.Registration) *SwarmBuilder {
	b.cfg.Hooks = append(b.cfg.Hooks, swarm.HookDecl{Registration: reg})
	return b
}

// WithAgentHook adds a hook registration scoped to one agent.
func (b *SwarmBuilder) WithAgentHook(agent string, reg *hooks.Registration) *SwarmBuilder {
	b.cfg.Hooks = append(b.cfg.Hooks, swarm.HookDecl{Agent: agent, Registration: reg})
	return b
}

// WithLogger sets the logger.
func (b *SwarmBuilder) WithLogger(logger *zap.Logger) *SwarmBuilder {
	b.cfg.Logger = logger
	return b
}

// WithTracer sets the tracer.
func (b *SwarmBuilder) WithTracer(tracer observability.Tracer) *SwarmBuilder {
	b.cfg.Tracer = tracer
	return b
}

// Build validates the accumulated configuration and constructs the
// swarm. Validation matches the YAML loader: required fields, known
// lead and delegation targets, acyclic delegation.
func (b *SwarmBuilder) Build() (*swarm.Swarm, error) {
	if len(b.agents) == 0 {
		return nil, errors.New("builder: at least one agent is required")
	}
	for _, agent := range b.agents {
		b.cfg.Agents = append(b.cfg.Agents, agent.Definition())
	}
	return swarm.New(b.cfg)
}

// NodeBuilder accumulates one workflow node.
type NodeBuilder struct {
	def *types.NodeDefinition
}

// NewNode starts building a workflow node.
func NewNode(name string) *NodeBuilder {
	return &NodeBuilder{def: &types.NodeDefinition{Name: name}}
}

// WithAgents names the agents participating in this node.
func (b *NodeBuilder) WithAgents(names ...string) *NodeBuilder {
	b.def.Agents = append(b.def.Agents, names...)
	return b
}

// WithLead names the node's lead agent (default: first declared).
func (b *NodeBuilder) WithLead(name string) *NodeBuilder {
	b.def.Lead = name
	return b
}

// DependsOn names the upstream nodes.
func (b *NodeBuilder) DependsOn(names ...string) *NodeBuilder {
	b.def.DependsOn = append(b.def.DependsOn, names...)
	return b
}

// WithInputTransformer sets an in-process input transformer.
func (b *NodeBuilder) WithInputTransformer(fn types.TransformerFunc) *NodeBuilder {
	b.def.InputTransformer = &types.TransformerDef{Func: fn}
	return b
}

// WithInputCommand sets a command input transformer.
func (b *NodeBuilder) WithInputCommand(command string, timeoutSeconds int) *NodeBuilder {
	b.def.InputTransformer = &types.TransformerDef{Command: command, TimeoutSeconds: timeoutSeconds}
	return b
}

// WithOutputTransformer sets an in-process output transformer.
func (b *NodeBuilder) WithOutputTransformer(fn types.TransformerFunc) *NodeBuilder {
	b.def.OutputTransformer = &types.TransformerDef{Func: fn}
	return b
}

// WithOutputCommand sets a command output transformer.
func (b *NodeBuilder) WithOutputCommand(command string, timeoutSeconds int) *NodeBuilder {
	b.def.OutputTransformer = &types.TransformerDef{Command: command, TimeoutSeconds: timeoutSeconds}
	return b
}

// Definition returns the accumulated node definition.
func (b *NodeBuilder) Definition() *types.NodeDefinition { return b.def }

// WorkflowBuilder accumulates a workflow configuration.
type WorkflowBuilder struct {
	name   string
	start  string
	nodes  []*NodeBuilder
	agents []*AgentBuilder
	cfg    workflow.Config
}

// NewWorkflow starts building a workflow.
func NewWorkflow(name string) *WorkflowBuilder {
	return &WorkflowBuilder{name: name}
}

// WithStartNode names the start node. Required.
func (b *WorkflowBuilder) WithStartNode(name string) *WorkflowBuilder {
	b.start = name
	return b
}

// AddNode adds one node.
func (b *WorkflowBuilder) AddNode(node *NodeBuilder) *WorkflowBuilder {
	b.nodes = append(b.nodes, node)
	return b
}

// AddAgent adds one agent to the pool nodes draw from.
func (b *WorkflowBuilder) AddAgent(agent *AgentBuilder) *WorkflowBuilder {
	b.agents = append(b.agents, agent)
	return b
}

// WithGlobalSemaphore caps concurrent outbound work per node sub-swarm.
func (b *WorkflowBuilder) WithGlobalSemaphore(n int) *WorkflowBuilder {
	b.cfg.GlobalSemaphore = n
	return b
}

// WithDrivers sets the per-agent LLM driver factory. Required.
func (b *WorkflowBuilder) WithDrivers(factory swarm.DriverFactory) *WorkflowBuilder {
	b.cfg.Drivers = factory
	return b
}

// WithDriver uses one driver for every agent.
func (b *WorkflowBuilder) WithDriver(driver types.LLMDriver) *WorkflowBuilder {
	b.cfg.Drivers = func(*types.AgentDefinition) (types.LLMDriver, error) {
		return driver, nil
	}
	return b
}

// WithSourceOpener sets the MCP tool source opener.
func (b *WorkflowBuilder) WithSourceOpener(opener swarm.SourceOpener) *WorkflowBuilder {
	b.cfg.OpenSource = opener
	return b
}

// WithHook adds a hook registration carried into every node sub-swarm.
func (b *WorkflowBuilder) WithHook(reg *hooks.Registration) *WorkflowBuilder {
	b.cfg.Hooks = append(b.cfg.Hooks, swarm.HookDecl{Registration: reg})
	return b
}

// WithAgentHook adds a hook registration scoped to one agent.
func (b *WorkflowBuilder) WithAgentHook(agent string, reg *hooks.Registration) *WorkflowBuilder {
	b.cfg.Hooks = append(b.cfg.Hooks, swarm.HookDecl{Agent: agent, Registration: reg})
	return b
}

// WithLogger sets the logger.
func (b *WorkflowBuilder) WithLogger(logger *zap.Logger) *WorkflowBuilder {
	b.cfg.Logger = logger
	return b
}

// WithTracer sets the tracer.
func (b *WorkflowBuilder) WithTracer(tracer observability.Tracer) *WorkflowBuilder {
	b.cfg.Tracer = tracer
	return b
}

// Build validates the graph and constructs the orchestrator.
func (b *WorkflowBuilder) Build() (*workflow.Orchestrator, error) {
	nodes := make([]*types.NodeDefinition, 0, len(b.nodes))
	for _, node := range b.nodes {
		nodes = append(nodes, node.Definition())
	}
	graph, err := workflow.NewGraph(b.name, b.start, nodes)
	if err != nil {
		return nil, err
	}
	b.cfg.Graph = graph

	for _, agent := range b.agents {
		b.cfg.Agents = append(b.cfg.Agents, agent.Definition())
	}
	return workflow.NewOrchestrator(b.cfg)
}
