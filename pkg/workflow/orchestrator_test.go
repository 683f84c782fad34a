// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teradata-labs/weft/pkg/events"
	"github.com/teradata-labs/weft/pkg/tools"
	"github.com/teradata-labs/weft/pkg/types"
	"go.uber.org/zap/zaptest"
)

// recordDriver answers with a fixed reply and records the prompts it saw.
type recordDriver struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (d *recordDriver) Chat(ctx context.Context, messages []types.Message, toolset []tools.Tool, params map[string]interface{}) (*types.LLMResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	// The prompt is the last non-reminder user message.
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == types.RoleUser && !strings.Contains(messages[i].Content, "<system-reminder>") {
			d.prompts = append(d.prompts, messages[i].Content)
			break
		}
	}
	return &types.LLMResponse{Content: d.reply, FinishReason: "end_turn"}, nil
}

func (d *recordDriver) Name() string  { return "stub" }
func (d *recordDriver) Model() string { return "stub-model" }

func (d *recordDriver) seen() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.prompts))
	copy(out, d.prompts)
	return out
}

type driverPool map[string]*recordDriver

func (p driverPool) factory(def *types.AgentDefinition) (types.LLMDriver, error) {
	d, ok := p[def.Name]
	if !ok {
		d = &recordDriver{reply: "ok"}
		p[def.Name] = d
	}
	return d, nil
}

func poolDef(t *testing.T, name string) *types.AgentDefinition {
	t.Helper()
	def := types.NewAgentDefinition(name)
	def.Description = name + " agent"
	def.SystemPrompt = "You are " + name + "."
	def.Directory = t.TempDir()
	def.Model = "claude-sonnet-4-5-20250929"
	return def
}

func agentNode(name, agent string, deps ...string) *types.NodeDefinition {
	return &types.NodeDefinition{Name: name, Agents: []string{agent}, DependsOn: deps}
}

func newTestOrchestrator(t *testing.T, graph *NodeGraph, pool driverPool, agents ...*types.AgentDefinition) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(Config{
		Graph:   graph,
		Agents:  agents,
		Drivers: pool.factory,
		Logger:  zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return o
}

func TestNewOrchestratorValidation(t *testing.T) {
	graph, err := NewGraph("wf", "a", []*types.NodeDefinition{agentNode("a", "writer")})
	require.NoError(t, err)

	_, err = NewOrchestrator(Config{Drivers: driverPool{}.factory})
	assert.Error(t, err, "graph required")

	_, err = NewOrchestrator(Config{Graph: graph})
	assert.Error(t, err, "driver factory required")

	_, err = NewOrchestrator(Config{Graph: graph, Drivers: driverPool{}.factory})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown agent")
}

func TestExecuteLinearPipeline(t *testing.T) {
	graph, err := NewGraph("pipeline", "research", []*types.NodeDefinition{
		agentNode("research", "researcher"),
		agentNode("write", "writer", "research"),
		agentNode("review", "reviewer", "write"),
	})
	require.NoError(t, err)

	pool := driverPool{
		"researcher": {reply: "findings"},
		"writer":     {reply: "article"},
		"reviewer":   {reply: "approved"},
	}
	o := newTestOrchestrator(t, graph, pool,
		poolDef(t, "researcher"), poolDef(t, "writer"), poolDef(t, "reviewer"))

	res, err := o.Execute(context.Background(), "cover the release")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "approved", res.Content)
	assert.Equal(t, "review", res.Node)
	require.Len(t, res.Results, 3)
	assert.Equal(t, "findings", res.Results["research"].Content)

	// Content flows node to node.
	assert.Equal(t, []string{"cover the release"}, pool["researcher"].seen())
	assert.Equal(t, []string{"findings"}, pool["writer"].seen())
	assert.Equal(t, []string{"article"}, pool["reviewer"].seen())
}

func TestExecuteJoinsDependencyOutputs(t *testing.T) {
	graph, err := NewGraph("fanin", "left", []*types.NodeDefinition{
		agentNode("left", "a"),
		agentNode("right", "b"),
		agentNode("merge", "c", "left", "right"),
	})
	require.NoError(t, err)

	pool := driverPool{
		"a": {reply: "alpha"},
		"b": {reply: "beta"},
		"c": {reply: "merged"},
	}
	o := newTestOrchestrator(t, graph, pool, poolDef(t, "a"), poolDef(t, "b"), poolDef(t, "c"))

	res, err := o.Execute(context.Background(), "go")
	require.NoError(t, err)
	assert.True(t, res.Success)

	// Dependency outputs join in depends_on order, separated by a blank
	// line.
	assert.Equal(t, []string{"alpha\n\nbeta"}, pool["c"].seen())
}

func TestExecuteInputTransformerSkipsNode(t *testing.T) {
	nodes := []*types.NodeDefinition{
		agentNode("a", "first"),
		{
			Name:      "b",
			Agents:    []string{"second"},
			DependsOn: []string{"a"},
			InputTransformer: &types.TransformerDef{
				Func: func(ctx context.Context, tc *types.TransformerContext) (*types.TransformerOutput, error) {
					return &types.TransformerOutput{Content: "cached", SkipExecution: true}, nil
				},
			},
		},
		agentNode("c", "third", "b"),
	}
	graph, err := NewGraph("skip", "a", nodes)
	require.NoError(t, err)

	pool := driverPool{
		"first":  {reply: "fresh"},
		"second": {reply: "never produced"},
		"third":  {reply: "done"},
	}
	o := newTestOrchestrator(t, graph, pool,
		poolDef(t, "first"), poolDef(t, "second"), poolDef(t, "third"))

	res, err := o.Execute(context.Background(), "go")
	require.NoError(t, err)
	assert.True(t, res.Success)

	// The skipped node's sub-swarm never ran; its content came from the
	// transformer and fed the next node.
	assert.Empty(t, pool["second"].seen())
	assert.True(t, res.Results["b"].Skipped)
	assert.Equal(t, "cached", res.Results["b"].Content)
	assert.Equal(t, []string{"cached"}, pool["third"].seen())

	var stops []*events.NodeStop
	for _, ev := range res.Logs {
		if s, ok := ev.(*events.NodeStop); ok {
			stops = append(stops, s)
		}
	}
	require.Len(t, stops, 3)
	assert.False(t, stops[0].Skipped)
	assert.True(t, stops[1].Skipped)
	assert.Equal(t, "b", stops[1].Node)
	assert.False(t, stops[2].Skipped)
}

func TestExecuteAgentLessNode(t *testing.T) {
	nodes := []*types.NodeDefinition{
		agentNode("draft", "writer"),
		{
			Name:      "stamp",
			DependsOn: []string{"draft"},
			InputTransformer: &types.TransformerDef{
				Func: func(ctx context.Context, tc *types.TransformerContext) (*types.TransformerOutput, error) {
					return &types.TransformerOutput{Content: "[stamped] " + tc.Content}, nil
				},
			},
		},
	}
	graph, err := NewGraph("stamped", "draft", nodes)
	require.NoError(t, err)

	pool := driverPool{"writer": {reply: "the draft"}}
	o := newTestOrchestrator(t, graph, pool, poolDef(t, "writer"))

	res, err := o.Execute(context.Background(), "go")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "[stamped] the draft", res.Content)

	var sawAgentLess bool
	for _, ev := range res.Logs {
		if s, ok := ev.(*events.NodeStart); ok && s.Node == "stamp" {
			sawAgentLess = s.AgentLess
		}
	}
	assert.True(t, sawAgentLess)
}

func TestExecuteOutputTransformer(t *testing.T) {
	nodes := []*types.NodeDefinition{
		{
			Name:   "only",
			Agents: []string{"writer"},
			OutputTransformer: &types.TransformerDef{
				Func: func(ctx context.Context, tc *types.TransformerContext) (*types.TransformerOutput, error) {
					return &types.TransformerOutput{Content: tc.Content + " (edited)"}, nil
				},
			},
		},
	}
	graph, err := NewGraph("edited", "only", nodes)
	require.NoError(t, err)

	pool := driverPool{"writer": {reply: "raw"}}
	o := newTestOrchestrator(t, graph, pool, poolDef(t, "writer"))

	res, err := o.Execute(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, "raw (edited)", res.Content)
}

func TestExecuteTransformerHaltFailsWorkflow(t *testing.T) {
	nodes := []*types.NodeDefinition{
		agentNode("a", "writer"),
		{
			Name:      "gate",
			Agents:    []string{"writer"},
			DependsOn: []string{"a"},
			InputTransformer: &types.TransformerDef{
				Func: func(ctx context.Context, tc *types.TransformerContext) (*types.TransformerOutput, error) {
					return nil, errors.New("quality gate failed")
				},
			},
		},
	}
	graph, err := NewGraph("gated", "a", nodes)
	require.NoError(t, err)

	pool := driverPool{"writer": {reply: "work"}}
	o := newTestOrchestrator(t, graph, pool, poolDef(t, "writer"))

	res, err := o.Execute(context.Background(), "go")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWorkflowHalted)
	assert.False(t, res.Success)
	assert.Equal(t, "gate", res.Node)
	assert.Contains(t, res.Error, "quality gate failed")

	// The first node's result is preserved.
	assert.Equal(t, "work", res.Results["a"].Content)
}

func TestExecuteNodeFailureStopsWorkflow(t *testing.T) {
	graph, err := NewGraph("failing", "a", []*types.NodeDefinition{
		agentNode("a", "writer"),
		agentNode("b", "broken", "a"),
	})
	require.NoError(t, err)

	pool := driverPool{
		"writer": {reply: "fine"},
		"broken": {err: errors.New("model unreachable")},
	}
	o := newTestOrchestrator(t, graph, pool, poolDef(t, "writer"), poolDef(t, "broken"))

	res, err := o.Execute(context.Background(), "go")
	require.Error(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "b", res.Node)
	assert.Contains(t, res.Error, "model unreachable")
}

// turnDriver replays a fixed response sequence, then answers "done".
type turnDriver struct {
	mu    sync.Mutex
	turns []*types.LLMResponse
}

func (d *turnDriver) Chat(ctx context.Context, messages []types.Message, toolset []tools.Tool, params map[string]interface{}) (*types.LLMResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.turns) == 0 {
		return &types.LLMResponse{Content: "done", FinishReason: "end_turn"}, nil
	}
	resp := d.turns[0]
	d.turns = d.turns[1:]
	return resp, nil
}

func (d *turnDriver) Name() string  { return "stub" }
func (d *turnDriver) Model() string { return "stub-model" }

func TestExecuteNodeAutoAddsDelegateAgents(t *testing.T) {
	lead := poolDef(t, "lead")
	lead.DelegatesTo = []string{"helper"}
	helper := poolDef(t, "helper")
	helper.DelegatesTo = []string{"archivist"}
	archivist := poolDef(t, "archivist")

	// The node declares only the lead; helper joins its sub-swarm
	// because the lead delegates to it, with helper's own delegation
	// stripped so archivist stays out.
	graph, err := NewGraph("wf", "solo", []*types.NodeDefinition{agentNode("solo", "lead")})
	require.NoError(t, err)

	leadDriver := &turnDriver{turns: []*types.LLMResponse{
		{FinishReason: "tool_use", ToolCalls: []types.ToolCall{{
			ID:        "d1",
			Name:      "helper",
			Arguments: map[string]interface{}{"task": "check the archives"},
		}}},
		{Content: "synthesis", FinishReason: "end_turn"},
	}}
	helperDriver := &recordDriver{reply: "nothing on file"}
	archivistDriver := &recordDriver{reply: "never consulted"}
	factory := func(def *types.AgentDefinition) (types.LLMDriver, error) {
		switch def.Name {
		case "lead":
			return leadDriver, nil
		case "helper":
			return helperDriver, nil
		default:
			return archivistDriver, nil
		}
	}

	o, err := NewOrchestrator(Config{
		Graph:   graph,
		Agents:  []*types.AgentDefinition{lead, helper, archivist},
		Drivers: factory,
		Logger:  zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	res, err := o.Execute(context.Background(), "investigate")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "synthesis", res.Content)

	assert.Equal(t, []string{"check the archives"}, helperDriver.seen())
	assert.Empty(t, archivistDriver.seen())

	var sawResult bool
	for _, ev := range res.Logs {
		if dr, ok := ev.(*events.DelegationResult); ok {
			sawResult = true
			assert.Equal(t, "nothing on file", dr.Result)
		}
	}
	assert.True(t, sawResult)
}

func TestExecuteForwardsSubSwarmEvents(t *testing.T) {
	graph, err := NewGraph("wf", "only", []*types.NodeDefinition{agentNode("only", "writer")})
	require.NoError(t, err)

	pool := driverPool{"writer": {reply: "done"}}
	o := newTestOrchestrator(t, graph, pool, poolDef(t, "writer"))

	var captured []events.Event
	res, err := o.Execute(context.Background(), "go", events.CaptureSubscriber(&captured))
	require.NoError(t, err)
	require.True(t, res.Success)

	seen := make(map[events.Type]bool)
	for _, ev := range captured {
		seen[ev.EventType()] = true
	}
	assert.True(t, seen[events.TypeNodeStart])
	assert.True(t, seen[events.TypeNodeStop])
	assert.True(t, seen[events.TypeSwarmStart], "sub-swarm events interleave with node events")
	assert.True(t, seen[events.TypeAgentStop])
}
