// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package swarm owns a set of agents and executes prompts against the
// lead agent: it provides the shared scheduler resources (global
// semaphore, scratchpad, hook registry, event collector), wires
// delegation between agents, and aggregates the run into a Result.
package swarm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teradata-labs/weft/pkg/agent"
	"github.com/teradata-labs/weft/pkg/events"
	"github.com/teradata-labs/weft/pkg/hooks"
	"github.com/teradata-labs/weft/pkg/llm"
	"github.com/teradata-labs/weft/pkg/observability"
	"github.com/teradata-labs/weft/pkg/state"
	"github.com/teradata-labs/weft/pkg/types"
)

// DefaultGlobalSemaphore caps concurrent outbound work swarm-wide.
const DefaultGlobalSemaphore = 50

// Swarm errors.
var (
	ErrNoLead         = errors.New("swarm: lead agent is not set")
	ErrUnknownLead    = errors.New("swarm: lead agent is not among the agents")
	ErrUnknownTarget  = errors.New("swarm: delegation target does not resolve")
	ErrCycleDetected  = errors.New("swarm: delegation cycle detected")
	ErrExecuteStarted = errors.New("swarm: execution already started")
)

// DriverFactory builds the LLM driver for one agent definition.
type DriverFactory func(def *types.AgentDefinition) (types.LLMDriver, error)

// SourceOpener opens one MCP tool source. Wired by callers that use MCP;
// nil skips mcp_servers entries.
type SourceOpener func(ctx context.Context, def types.MCPServerDef) (types.ToolSource, error)

// HookDecl is a hook registration carried by configuration: swarm-scoped
// when Agent is empty, agent-scoped otherwise.
type HookDecl struct {
	Agent        string
	Registration *hooks.Registration
}

// Config assembles a swarm.
type Config struct {
	Name   string
	Lead   string
	Agents []*types.AgentDefinition

	// Drivers supplies per-agent LLM drivers. Required.
	Drivers DriverFactory

	// OpenSource opens MCP tool sources for agents that declare
	// mcp_servers. Optional.
	OpenSource SourceOpener

	// GlobalSemaphore caps concurrent outbound work (default 50).
	GlobalSemaphore int

	// Hooks carried from configuration, applied during init.
	Hooks []HookDecl

	// NodeName marks sub-swarms built for a workflow node; hook contexts
	// carry it through to shell hooks.
	NodeName string

	Logger *zap.Logger
	Tracer observability.Tracer
}

// Swarm is a named set of agents with one lead.
type Swarm struct {
	name     string
	lead     string
	defs     map[string]*types.AgentDefinition
	order    []string
	driver   DriverFactory
	opener   SourceOpener
	nodeName string

	global    chan struct{}
	registry  *hooks.Registry
	collector *events.Collector
	shared    *agent.SharedState
	hookDecls []HookDecl

	mu          sync.Mutex
	initialized bool
	executing   bool
	runID       string
	runners     map[string]*agent.Runner
	sources     []types.ToolSource

	logger *zap.Logger
	tracer observability.Tracer
}

// New validates the configuration and creates the swarm. Agents are
// constructed lazily on the first Execute.
func New(cfg Config) (*Swarm, error) {
	if cfg.Name == "" {
		return nil, errors.New("swarm: name is required")
	}
	if cfg.Lead == "" {
		return nil, ErrNoLead
	}
	if cfg.Drivers == nil {
		return nil, errors.New("swarm: driver factory is required")
	}
	if len(cfg.Agents) == 0 {
		return nil, errors.New("swarm: at least one agent is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = observability.NewNoOpTracer()
	}

	defs := make(map[string]*types.AgentDefinition, len(cfg.Agents))
	order := make([]string, 0, len(cfg.Agents))
	for _, def := range cfg.Agents {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, dup := defs[def.Name]; dup {
			return nil, fmt.Errorf("swarm: duplicate agent %q", def.Name)
		}
		defs[def.Name] = def
		order = append(order, def.Name)
	}

	if _, ok := defs[cfg.Lead]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLead, cfg.Lead)
	}
	for _, def := range cfg.Agents {
		for _, target := range def.DelegatesTo {
			if _, ok := defs[target]; !ok {
				return nil, fmt.Errorf("%w: %q delegates to unknown agent %q", ErrUnknownTarget, def.Name, target)
			}
		}
	}
	if cycle := findDelegationCycle(defs, order); cycle != nil {
		return nil, fmt.Errorf("%w: %v", ErrCycleDetected, cycle)
	}

	size := cfg.GlobalSemaphore
	if size <= 0 {
		size = DefaultGlobalSemaphore
	}

	scratchpad, err := state.NewScratchpad(logger)
	if err != nil {
		return nil, err
	}

	return &Swarm{
		name:     cfg.Name,
		lead:     cfg.Lead,
		defs:     defs,
		order:    order,
		driver:   cfg.Drivers,
		opener:   cfg.OpenSource,
		nodeName: cfg.NodeName,
		global:   make(chan struct{}, size),
		registry: hooks.NewRegistry(logger.Named("hooks")),
		collector: events.NewCollector(logger.Named("events")),
		shared: &agent.SharedState{
			Tracker:    state.NewReadTracker(),
			Todos:      state.NewTodoStore(),
			Scratchpad: scratchpad,
		},
		hookDecls: cfg.Hooks,
		logger:    logger,
		tracer:    tracer,
	}, nil
}

// findDelegationCycle DFS-checks the delegates_to graph and returns one
// cycle path, or nil.
func findDelegationCycle(defs map[string]*types.AgentDefinition, order []string) []string {
	const (
		unvisited = iota
		visiting
		done
	)
	states := make(map[string]int, len(defs))
	var cycle []string

	var visit func(name string, path []string) bool
	visit = func(name string, path []string) bool {
		switch states[name] {
		case visiting:
			cycle = append(append([]string{}, path...), name)
			return true
		case done:
			return false
		}
		states[name] = visiting
		for _, target := range defs[name].DelegatesTo {
			if visit(target, append(path, name)) {
				return true
			}
		}
		states[name] = done
		return false
	}

	for _, name := range order {
		if states[name] == unvisited && visit(name, nil) {
			return cycle
		}
	}
	return nil
}

// Name implements hooks.SwarmInfo.
func (s *Swarm) Name() string { return s.name }

// Lead returns the lead agent's name.
func (s *Swarm) Lead() string { return s.lead }

// AgentNames implements hooks.SwarmInfo.
func (s *Swarm) AgentNames() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Hooks exposes the registry for programmatic registration before
// Execute.
func (s *Swarm) Hooks() *hooks.Registry { return s.registry }

// Subscribe registers an event subscriber. Fails once execution started.
func (s *Swarm) Subscribe(fn events.Subscriber) error {
	return s.collector.Subscribe(fn)
}

// Scratchpad returns the shared scratchpad.
func (s *Swarm) Scratchpad() *state.Scratchpad { return s.shared.Scratchpad }

// RunnerFor implements agent.DelegateResolver.
func (s *Swarm) RunnerFor(name string) (*agent.Runner, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runners[name]
	return r, ok
}

// init builds the runtime graph once: (a) agents and their tools,
// (b) delegation tools, (c) per-agent runners with catalog checks,
// (d) default logging hooks, (e) configuration-declared hooks.
func (s *Swarm) init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}

	agents := make(map[string]*agent.Agent, len(s.order))
	for _, name := range s.order {
		a, err := agent.New(s.defs[name], s.shared)
		if err != nil {
			return err
		}
		agents[name] = a

		if s.opener != nil {
			for _, srv := range s.defs[name].MCPServers {
				source, err := s.opener(ctx, srv)
				if err != nil {
					return fmt.Errorf("swarm: open mcp server %q for agent %q: %w", srv.Name, name, err)
				}
				s.sources = append(s.sources, source)
				srcTools, err := source.Tools(ctx)
				if err != nil {
					return fmt.Errorf("swarm: list tools of mcp server %q: %w", srv.Name, err)
				}
				for _, t := range srcTools {
					a.RegisterTool(t)
				}
			}
		}
	}

	for _, name := range s.order {
		a := agents[name]
		for _, target := range s.defs[name].DelegatesTo {
			a.RegisterTool(agent.NewDelegationTool(target, s.defs[target].Description))
		}
	}

	s.runners = make(map[string]*agent.Runner, len(s.order))
	for _, name := range s.order {
		def := s.defs[name]
		if def.Model != "" {
			if _, ok := llm.Lookup(def.Model); !ok {
				s.collector.Emit(&events.ModelLookupWarning{
					Base:         events.NewBase(events.TypeModelLookupWarning),
					Agent:        name,
					Model:        def.Model,
					ErrorMessage: llm.LookupError(def.Model),
					Suggestions:  llm.Suggestions(def.Model),
				})
			}
		}
		driver, err := s.driver(def)
		if err != nil {
			return fmt.Errorf("swarm: driver for agent %q: %w", name, err)
		}
		s.runners[name] = agent.NewRunner(agent.RunnerConfig{
			Agent:    agents[name],
			Driver:   driver,
			Hooks:    s.registry,
			Events:   s.collector,
			Resolver: s,
			Global:   s.global,
			Swarm:    s,
			NodeName: s.nodeName,
			Logger:   s.logger.Named(name),
		})
	}

	if err := s.registerDefaultHooks(); err != nil {
		return err
	}
	for _, decl := range s.hookDecls {
		var err error
		if decl.Agent == "" {
			err = s.registry.Register(decl.Registration)
		} else {
			if _, ok := s.defs[decl.Agent]; !ok {
				return fmt.Errorf("swarm: hook declared for unknown agent %q", decl.Agent)
			}
			err = s.registry.RegisterForAgent(decl.Agent, decl.Registration)
		}
		if err != nil {
			return err
		}
	}

	s.initialized = true
	return nil
}

// registerDefaultHooks installs the observe-only logging callbacks at
// the lowest priority so user hooks always run first.
func (s *Swarm) registerDefaultHooks() error {
	log := s.logger.Named("lifecycle")
	for _, event := range []hooks.Event{
		hooks.EventFirstMessage, hooks.EventUserPrompt, hooks.EventAgentStop,
		hooks.EventPreToolUse, hooks.EventPostToolUse,
		hooks.EventPreDelegation, hooks.EventPostDelegation,
		hooks.EventContextWarning,
	} {
		if err := s.registry.Register(&hooks.Registration{
			Event:    event,
			Priority: hooks.DefaultLogPriority,
			Callback: func(ctx context.Context, hc *hooks.Context) (*hooks.Result, error) {
				log.Debug(string(hc.Event),
					zap.String("agent", hc.Agent),
					zap.String("subject", hc.MatcherSubject()))
				return nil, nil
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs prompt against the lead agent. Subscribers passed here
// join the frozen subscriber list for this run.
func (s *Swarm) Execute(ctx context.Context, prompt string, subscribers ...events.Subscriber) (*Result, error) {
	s.mu.Lock()
	if s.executing {
		s.mu.Unlock()
		return nil, ErrExecuteStarted
	}
	s.executing = true
	s.runID = uuid.NewString()
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.executing = false
		s.mu.Unlock()
	}()

	start := time.Now()
	for _, fn := range subscribers {
		if err := s.collector.Subscribe(fn); err != nil {
			return nil, err
		}
	}
	s.collector.Freeze()

	ctx, span := s.tracer.StartSpan(ctx, "swarm.execute")
	defer s.tracer.EndSpan(span)
	if span != nil {
		span.SetAttribute("swarm.name", s.name)
		span.SetAttribute("swarm.lead", s.lead)
	}

	defer s.closeSources()

	if err := s.init(ctx); err != nil {
		return nil, err
	}
	s.registry.Freeze()

	s.collector.Emit(&events.SwarmStart{
		Base:      events.NewBase(events.TypeSwarmStart),
		RunID:     s.runID,
		SwarmName: s.name,
		LeadAgent: s.lead,
		Prompt:    prompt,
	})

	if res := s.registry.Dispatch(ctx, &hooks.Context{
		Event:  hooks.EventSwarmStart,
		Agent:  s.lead,
		Prompt: prompt,
		Swarm:  s,
	}); res.Kind == hooks.KindHalt {
		return s.finish(start, "", res.Message, events.StatusError), nil
	}

	lead, _ := s.RunnerFor(s.lead)

	content := ""
	var runErr error
	next := prompt
	for {
		var msg types.Message
		msg, runErr = lead.Ask(ctx, next)
		if runErr == nil {
			content = msg.Content
		}

		stop := s.registry.Dispatch(ctx, &hooks.Context{
			Event:  hooks.EventSwarmStop,
			Agent:  s.lead,
			Prompt: content,
			Swarm:  s,
		})
		if stop.Kind == hooks.KindReprompt && runErr == nil {
			// Restart the lead with the new prompt, history and
			// counters preserved; first_message does not refire.
			next = stop.Prompt
			continue
		}
		break
	}

	status := events.StatusSuccess
	errText := ""
	if runErr != nil {
		status = events.StatusError
		errText = runErr.Error()
		if errors.Is(runErr, context.Canceled) {
			status = events.StatusCancelled
			errText = "cancelled"
		}
		s.logger.Error("swarm execution failed",
			zap.String("swarm", s.name),
			zap.Error(runErr))
	}
	if ctx.Err() != nil {
		status = events.StatusCancelled
	}

	return s.finish(start, content, errText, status), nil
}

// finish aggregates the run log into a Result and emits swarm_stop.
func (s *Swarm) finish(start time.Time, content, errText, status string) *Result {
	duration := time.Since(start).Seconds()
	agg := aggregate(s.collector.Events())

	s.collector.Emit(&events.SwarmStop{
		Base:           events.NewBase(events.TypeSwarmStop),
		Status:         status,
		Duration:       duration,
		TotalCost:      agg.totalCost,
		TotalTokens:    agg.totalTokens,
		LLMRequests:    agg.llmRequests,
		ToolCalls:      agg.toolCalls,
		AgentsInvolved: agg.agents,
	})

	return &Result{
		RunID:          s.runID,
		Content:        content,
		Agent:          s.lead,
		Success:        status == events.StatusSuccess,
		Error:          errText,
		Logs:           s.collector.Events(),
		TotalCost:      agg.totalCost,
		TotalTokens:    agg.totalTokens,
		LLMRequests:    agg.llmRequests,
		ToolCallsCount: agg.toolCalls,
		AgentsInvolved: agg.agents,
		Duration:       duration,
	}
}

// closeSources releases MCP clients opened during init.
func (s *Swarm) closeSources() {
	s.mu.Lock()
	sources := s.sources
	s.sources = nil
	s.mu.Unlock()
	for _, src := range sources {
		if err := src.Close(); err != nil {
			s.logger.Warn("tool source close failed",
				zap.String("source", src.Name()),
				zap.Error(err))
		}
	}
}
