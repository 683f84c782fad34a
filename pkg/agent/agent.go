// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package agent implements the weft agent runtime: per-agent
// conversation state, the tool set, and the Runner that drives one agent
// turn — LLM call, parallel tool execution, delegation — until the model
// produces a final message.
package agent

import (
	"fmt"
	"sync"

	"github.com/teradata-labs/weft/pkg/llm"
	"github.com/teradata-labs/weft/pkg/state"
	"github.com/teradata-labs/weft/pkg/tools"
	"github.com/teradata-labs/weft/pkg/tools/builtin"
	"github.com/teradata-labs/weft/pkg/types"
)

// Context warning thresholds, in percent of the context window.
var warningThresholds = []int{80, 90}

// Agent is the runtime state of one agent: its definition, conversation
// history, tool registry, and context accounting. Agents are created
// lazily on the swarm's first execute and live until the swarm is
// disposed.
type Agent struct {
	def *types.AgentDefinition

	mu       sync.Mutex
	messages []types.Message

	registry *tools.Registry

	// Context accounting.
	contextWindow          int
	cumulativeInputTokens  int
	cumulativeOutputTokens int
	cumulativeTotalTokens  int
	lastTotalTokens        int
	hitThresholds          map[int]bool

	// delegationCallIDs maps a tool-call ID to its delegate target for
	// the current turn, so the scheduler can tell delegation from
	// regular tool use.
	delegationCallIDs map[string]string

	// delegates is the set of agent names this agent may delegate to.
	delegates map[string]struct{}

	// Reminder bookkeeping.
	firstTurnDone     bool
	firstMessageFired bool
	messagesSinceTodo int

	// Semaphore for this agent's concurrent tool tasks.
	local chan struct{}
}

// New creates an agent from a validated definition. Built-in tools are
// registered per the definition; delegation tools are attached later by
// the swarm once all agents exist.
func New(def *types.AgentDefinition, shared *SharedState) (*Agent, error) {
	if def == nil {
		return nil, fmt.Errorf("agent: nil definition")
	}

	window := def.ContextWindow
	if window == 0 {
		if info, ok := llm.Lookup(def.Model); ok {
			window = info.ContextWindow
		} else {
			window = types.DefaultContextWindow
		}
	}

	localSize := def.LocalSemaphore
	if localSize <= 0 {
		localSize = types.DefaultLocalSemaphore
	}

	a := &Agent{
		def:               def,
		registry:          tools.NewRegistry(),
		contextWindow:     window,
		hitThresholds:     make(map[int]bool),
		delegationCallIDs: make(map[string]string),
		delegates:         make(map[string]struct{}),
		local:             make(chan struct{}, localSize),
	}
	for _, name := range def.DelegatesTo {
		a.delegates[name] = struct{}{}
	}

	if err := a.buildTools(shared); err != nil {
		return nil, err
	}

	a.appendMessage(types.NewSystemMessage(BuildSystemPrompt(def)))
	return a, nil
}

// SharedState bundles the swarm-owned stores the agent's builtin tools
// operate on.
type SharedState struct {
	Tracker    *state.ReadTracker
	Todos      *state.TodoStore
	Scratchpad *state.Scratchpad
}

// buildTools registers the agent's tool set: builtins (unless disabled),
// filtered and permission-wrapped per the definition's tools list.
func (a *Agent) buildTools(shared *SharedState) error {
	if shared == nil {
		shared = &SharedState{
			Tracker: state.NewReadTracker(),
			Todos:   state.NewTodoStore(),
		}
	}
	if shared.Scratchpad == nil {
		pad, err := state.NewScratchpad(nil)
		if err != nil {
			return err
		}
		shared.Scratchpad = pad
	}

	deps := builtin.Deps{
		Agent:       a.def.Name,
		BaseDir:     a.def.Directory,
		Tracker:     shared.Tracker,
		Todos:       shared.Todos,
		Scratchpad:  shared.Scratchpad,
		OnTodoWrite: a.resetTodoCounter,
	}

	available := make(map[string]tools.Tool)
	var order []string
	if a.def.IncludeDefaultTools {
		for _, t := range builtin.DefaultTools(deps) {
			available[t.Name()] = t
			order = append(order, t.Name())
		}
	}

	// Explicit tools list: restricts and orders the set, and carries
	// per-tool permissions.
	if len(a.def.Tools) > 0 {
		listed := make(map[string]*types.ToolSpec, len(a.def.Tools))
		var listedOrder []string
		for i := range a.def.Tools {
			spec := &a.def.Tools[i]
			listed[spec.Name] = spec
			listedOrder = append(listedOrder, spec.Name)
		}
		for _, name := range listedOrder {
			spec := listed[name]
			tool, ok := available[name]
			if !ok {
				return fmt.Errorf("agent %q: unknown tool %q", a.def.Name, name)
			}
			wrapped, err := a.wrapPermissions(tool, spec.Permissions)
			if err != nil {
				return err
			}
			a.registry.Register(wrapped)
		}
		return nil
	}

	for _, name := range order {
		a.registry.Register(available[name])
	}
	return nil
}

// wrapPermissions applies the tool's permission ruleset unless the agent
// bypasses permissions.
func (a *Agent) wrapPermissions(tool tools.Tool, cfg *tools.PermissionConfig) (tools.Tool, error) {
	if a.def.BypassPermissions || cfg.IsEmpty() {
		return tool, nil
	}
	rules, err := tools.CompileRules(cfg, a.def.Directory)
	if err != nil {
		return nil, fmt.Errorf("agent %q: tool %q permissions: %w", a.def.Name, tool.Name(), err)
	}
	return tools.NewPermissionedTool(tool, rules), nil
}

// RegisterTool adds a tool to the agent's set. The swarm uses this to
// attach delegation tools and MCP source tools during init.
func (a *Agent) RegisterTool(tool tools.Tool) {
	a.registry.Register(tool)
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.def.Name }

// Definition returns the agent's definition.
func (a *Agent) Definition() *types.AgentDefinition { return a.def }

// ContextWindow returns the resolved context window in tokens.
func (a *Agent) ContextWindow() int { return a.contextWindow }

// Tools returns the agent's tools in registration order.
func (a *Agent) Tools() []tools.Tool { return a.registry.ListTools() }

// ToolNames returns the agent's tool names in registration order.
func (a *Agent) ToolNames() []string { return a.registry.List() }

// Usage returns the agent's cumulative token counters.
func (a *Agent) Usage() (input, output, total int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cumulativeInputTokens, a.cumulativeOutputTokens, a.cumulativeTotalTokens
}

// Messages returns a copy of the conversation history.
func (a *Agent) Messages() []types.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]types.Message, len(a.messages))
	copy(out, a.messages)
	return out
}

// MessageCount returns the history length.
func (a *Agent) MessageCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.messages)
}

// IsDelegate reports whether name is one of this agent's delegation
// targets.
func (a *Agent) IsDelegate(name string) bool {
	_, ok := a.delegates[name]
	return ok
}

func (a *Agent) appendMessage(m types.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, m)
	a.messagesSinceTodo++
}

func (a *Agent) resetTodoCounter() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messagesSinceTodo = 0
}

// recordUsage folds one response's usage into the counters and returns
// the thresholds crossed for the first time, in ascending order.
func (a *Agent) recordUsage(u types.Usage) []int {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cumulativeInputTokens += u.InputTokens
	a.cumulativeOutputTokens += u.OutputTokens
	a.cumulativeTotalTokens += u.TotalTokens
	a.lastTotalTokens = u.TotalTokens

	var crossed []int
	if a.contextWindow <= 0 {
		return crossed
	}
	percent := float64(u.TotalTokens) / float64(a.contextWindow) * 100
	for _, t := range warningThresholds {
		if percent >= float64(t) && !a.hitThresholds[t] {
			a.hitThresholds[t] = true
			crossed = append(crossed, t)
		}
	}
	return crossed
}

// noteDelegationCalls records which of the turn's tool calls are
// delegations. Called once per assistant response before scheduling.
func (a *Agent) noteDelegationCalls(calls []types.ToolCall) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.delegationCallIDs = make(map[string]string, len(calls))
	for _, c := range calls {
		if _, ok := a.delegates[c.Name]; ok {
			a.delegationCallIDs[c.ID] = c.Name
		}
	}
}

// delegationTarget returns the delegate name for a call ID, if the call
// is a delegation.
func (a *Agent) delegationTarget(callID string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	target, ok := a.delegationCallIDs[callID]
	return target, ok
}
