// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/weft/pkg/events"
	"github.com/teradata-labs/weft/pkg/observability"
	"github.com/teradata-labs/weft/pkg/swarm"
	"github.com/teradata-labs/weft/pkg/types"
)

// Config assembles a workflow orchestrator.
type Config struct {
	Graph *NodeGraph

	// Agents is the pool nodes draw their sub-swarms from.
	Agents []*types.AgentDefinition

	// Drivers supplies per-agent LLM drivers, shared by every node.
	Drivers swarm.DriverFactory

	// OpenSource opens MCP tool sources. Optional.
	OpenSource swarm.SourceOpener

	// GlobalSemaphore caps concurrent outbound work per node sub-swarm.
	GlobalSemaphore int

	// Hooks carried from configuration; each node sub-swarm receives the
	// registrations that apply to its agent subset.
	Hooks []swarm.HookDecl

	Logger *zap.Logger
	Tracer observability.Tracer
}

// Result is the outcome of one workflow run.
type Result struct {
	// Content is the terminal node's content.
	Content string `json:"content"`

	// Node is the terminal node's name.
	Node string `json:"node"`

	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	// Results maps every executed node to its result.
	Results map[string]types.NodeResult `json:"results"`

	// Logs is the full event stream: node events interleaved with the
	// sub-swarms' own events.
	Logs []events.Event `json:"logs"`

	// Duration of the run in seconds.
	Duration float64 `json:"duration"`
}

// Orchestrator executes a node graph: topological order, one disposable
// sub-swarm per node, transformers between.
type Orchestrator struct {
	graph     *NodeGraph
	pool      map[string]*types.AgentDefinition
	cfg       Config
	collector *events.Collector
	logger    *zap.Logger
	tracer    observability.Tracer
}

// NewOrchestrator validates that every node's agents exist in the pool
// and returns the orchestrator.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Graph == nil {
		return nil, errors.New("workflow: graph is required")
	}
	if cfg.Drivers == nil {
		return nil, errors.New("workflow: driver factory is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = observability.NewNoOpTracer()
	}

	pool := make(map[string]*types.AgentDefinition, len(cfg.Agents))
	for _, def := range cfg.Agents {
		pool[def.Name] = def
	}
	for _, node := range cfg.Graph.Nodes() {
		for _, name := range node.Agents {
			if _, ok := pool[name]; !ok {
				return nil, fmt.Errorf("workflow: node %q references unknown agent %q", node.Name, name)
			}
		}
	}

	return &Orchestrator{
		graph:     cfg.Graph,
		pool:      pool,
		cfg:       cfg,
		collector: events.NewCollector(logger.Named("events")),
		logger:    logger,
		tracer:    tracer,
	}, nil
}

// Subscribe registers an event subscriber for the whole workflow run.
func (o *Orchestrator) Subscribe(fn events.Subscriber) error {
	return o.collector.Subscribe(fn)
}

// Execute runs the workflow: nodes in topological order, each fed the
// transformed output of its dependencies (or the original prompt),
// each executing a fresh sub-swarm unless a transformer skips it. The
// terminal node's result becomes the workflow output.
func (o *Orchestrator) Execute(ctx context.Context, prompt string, subscribers ...events.Subscriber) (*Result, error) {
	start := time.Now()
	for _, fn := range subscribers {
		if err := o.collector.Subscribe(fn); err != nil {
			return nil, err
		}
	}
	o.collector.Freeze()

	ctx, span := o.tracer.StartSpan(ctx, "workflow.execute")
	defer o.tracer.EndSpan(span)
	span.SetAttribute("workflow.name", o.graph.Name())

	order := o.graph.TopoOrder()
	results := make(map[string]types.NodeResult, len(order))

	fail := func(nodeName string, err error) (*Result, error) {
		return &Result{
			Node:     nodeName,
			Success:  false,
			Error:    err.Error(),
			Results:  results,
			Logs:     o.collector.Events(),
			Duration: time.Since(start).Seconds(),
		}, err
	}

	var lastNode string
	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return fail(name, err)
		}

		node, _ := o.graph.Node(name)
		res, err := o.runNode(ctx, node, prompt, results)
		if err != nil {
			return fail(name, err)
		}
		results[name] = *res
		lastNode = name

		if !res.Success {
			return fail(name, fmt.Errorf("workflow: node %q failed: %s", name, res.Error))
		}
	}

	final := results[lastNode]
	return &Result{
		Content:  final.Content,
		Node:     lastNode,
		Success:  true,
		Results:  results,
		Logs:     o.collector.Events(),
		Duration: time.Since(start).Seconds(),
	}, nil
}

// runNode executes one node: node_start event, input transformer,
// sub-swarm (unless skipped or agent-less), output transformer,
// node_stop event.
func (o *Orchestrator) runNode(ctx context.Context, node *types.NodeDefinition, prompt string, results map[string]types.NodeResult) (*types.NodeResult, error) {
	nodeStart := time.Now()

	o.collector.Emit(&events.NodeStart{
		Base:         events.NewBase(events.TypeNodeStart),
		Node:         node.Name,
		AgentLess:    node.AgentLess(),
		Agents:       node.Agents,
		Dependencies: node.DependsOn,
	})

	tc := o.transformerContext(node, prompt, results)

	in, err := applyTransformer(ctx, node.InputTransformer, tc)
	if err != nil {
		return nil, err
	}

	var res types.NodeResult
	switch {
	case in.skip:
		res = types.NodeResult{Content: in.content, Success: true, Skipped: true}

	case node.AgentLess():
		res = types.NodeResult{Content: in.content, Success: true}

	default:
		swarmRes, err := o.runSubSwarm(ctx, node, in.content)
		if err != nil {
			return nil, err
		}
		res = types.NodeResult{
			Content:  swarmRes.Content,
			Agent:    swarmRes.Agent,
			Success:  swarmRes.Success,
			Duration: swarmRes.Duration,
			Error:    swarmRes.Error,
			Usage: types.Usage{
				TotalTokens: swarmRes.TotalTokens,
				TotalCost:   swarmRes.TotalCost,
			},
		}
	}

	if res.Success && !res.Skipped && node.OutputTransformer != nil {
		tc.Content = res.Content
		tc.AllResults = cloneResults(results)
		out, err := applyTransformer(ctx, node.OutputTransformer, tc)
		if err != nil {
			return nil, err
		}
		res.Content = out.content
	}

	res.Duration = time.Since(nodeStart).Seconds()

	o.collector.Emit(&events.NodeStop{
		Base:      events.NewBase(events.TypeNodeStop),
		Node:      node.Name,
		AgentLess: node.AgentLess(),
		Skipped:   res.Skipped,
		Agents:    node.Agents,
		Duration:  res.Duration,
	})
	return &res, nil
}

// transformerContext composes the input handed to the node's
// transformers: the joined output of its dependencies (original prompt
// for roots), the prompt, and all results so far.
func (o *Orchestrator) transformerContext(node *types.NodeDefinition, prompt string, results map[string]types.NodeResult) *types.TransformerContext {
	content := prompt
	if len(node.DependsOn) > 0 {
		parts := make([]string, 0, len(node.DependsOn))
		for _, dep := range node.DependsOn {
			parts = append(parts, results[dep].Content)
		}
		content = strings.Join(parts, "\n\n")
	}
	return &types.TransformerContext{
		Node:           node.Name,
		Content:        content,
		OriginalPrompt: prompt,
		AllResults:     cloneResults(results),
		Dependencies:   node.DependsOn,
	}
}

// runSubSwarm builds the node's disposable swarm from the agent subset
// and executes it, forwarding its events onto the workflow stream.
// Delegation targets a declared agent references but the node does not
// list are auto-added with no delegation of their own; targets missing
// from the pool are dropped.
func (o *Orchestrator) runSubSwarm(ctx context.Context, node *types.NodeDefinition, content string) (*swarm.Result, error) {
	subset := make(map[string]bool, len(node.Agents))
	for _, name := range node.Agents {
		subset[name] = true
	}

	defs := make([]*types.AgentDefinition, 0, len(node.Agents))
	var extras []string
	for _, name := range node.Agents {
		def := *o.pool[name]
		kept := make([]string, 0, len(def.DelegatesTo))
		for _, target := range def.DelegatesTo {
			if !subset[target] {
				if _, ok := o.pool[target]; !ok {
					continue
				}
				subset[target] = true
				extras = append(extras, target)
			}
			kept = append(kept, target)
		}
		def.DelegatesTo = kept
		defs = append(defs, &def)
	}
	for _, name := range extras {
		def := *o.pool[name]
		def.DelegatesTo = nil
		defs = append(defs, &def)
	}

	var decls []swarm.HookDecl
	for _, decl := range o.cfg.Hooks {
		if decl.Agent == "" || subset[decl.Agent] {
			decls = append(decls, decl)
		}
	}

	sub, err := swarm.New(swarm.Config{
		Name:            o.graph.Name() + ":" + node.Name,
		Lead:            node.Lead,
		Agents:          defs,
		Drivers:         o.cfg.Drivers,
		OpenSource:      o.cfg.OpenSource,
		GlobalSemaphore: o.cfg.GlobalSemaphore,
		Hooks:           decls,
		NodeName:        node.Name,
		Logger:          o.logger.Named(node.Name),
		Tracer:          o.tracer,
	})
	if err != nil {
		return nil, fmt.Errorf("workflow: node %q: %w", node.Name, err)
	}

	return sub.Execute(ctx, content, func(ev events.Event) {
		o.collector.Emit(ev)
	})
}

func cloneResults(results map[string]types.NodeResult) map[string]types.NodeResult {
	out := make(map[string]types.NodeResult, len(results))
	for k, v := range results {
		out[k] = v
	}
	return out
}
