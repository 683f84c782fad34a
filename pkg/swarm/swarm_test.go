// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package swarm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teradata-labs/weft/pkg/events"
	"github.com/teradata-labs/weft/pkg/hooks"
	"github.com/teradata-labs/weft/pkg/tools"
	"github.com/teradata-labs/weft/pkg/types"
	"go.uber.org/zap/zaptest"
)

// scriptDriver replays a per-agent response sequence, then answers "done".
type scriptDriver struct {
	mu    sync.Mutex
	turns []*types.LLMResponse
	calls int
	block chan struct{} // when set, Chat waits on it first
}

func (d *scriptDriver) Chat(ctx context.Context, messages []types.Message, toolset []tools.Tool, params map[string]interface{}) (*types.LLMResponse, error) {
	if d.block != nil {
		select {
		case <-d.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if len(d.turns) == 0 {
		return &types.LLMResponse{Content: "done", FinishReason: "end_turn"}, nil
	}
	resp := d.turns[0]
	d.turns = d.turns[1:]
	return resp, nil
}

func (d *scriptDriver) Name() string  { return "stub" }
func (d *scriptDriver) Model() string { return "stub-model" }

func (d *scriptDriver) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// scriptFactory hands each agent its own driver, creating empty ones on
// demand.
type scriptFactory map[string]*scriptDriver

func (f scriptFactory) driver(def *types.AgentDefinition) (types.LLMDriver, error) {
	d, ok := f[def.Name]
	if !ok {
		d = &scriptDriver{}
		f[def.Name] = d
	}
	return d, nil
}

func testAgentDef(t *testing.T, name string) *types.AgentDefinition {
	t.Helper()
	def := types.NewAgentDefinition(name)
	def.Description = name + " agent"
	def.SystemPrompt = "You are " + name + "."
	def.Directory = t.TempDir()
	def.Model = "claude-sonnet-4-5-20250929"
	return def
}

func testConfig(t *testing.T, factory scriptFactory, agents ...*types.AgentDefinition) Config {
	t.Helper()
	return Config{
		Name:    "test-swarm",
		Lead:    agents[0].Name,
		Agents:  agents,
		Drivers: factory.driver,
		Logger:  zaptest.NewLogger(t),
	}
}

func TestNewValidation(t *testing.T) {
	factory := scriptFactory{}
	lead := func() *types.AgentDefinition { return testAgentDef(t, "lead") }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "missing name",
			mutate: func(c *Config) { c.Name = "" },
		},
		{
			name:    "missing lead",
			mutate:  func(c *Config) { c.Lead = "" },
			wantErr: ErrNoLead,
		},
		{
			name:   "missing driver factory",
			mutate: func(c *Config) { c.Drivers = nil },
		},
		{
			name:   "no agents",
			mutate: func(c *Config) { c.Agents = nil },
		},
		{
			name:    "unknown lead",
			mutate:  func(c *Config) { c.Lead = "phantom" },
			wantErr: ErrUnknownLead,
		},
		{
			name: "duplicate agent",
			mutate: func(c *Config) {
				dup := testAgentDef(t, "lead")
				c.Agents = append(c.Agents, dup)
			},
		},
		{
			name: "unknown delegation target",
			mutate: func(c *Config) {
				c.Agents[0].DelegatesTo = []string{"phantom"}
			},
			wantErr: ErrUnknownTarget,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, factory, lead())
			tt.mutate(&cfg)
			_, err := New(cfg)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestNewRejectsDelegationCycle(t *testing.T) {
	a := testAgentDef(t, "a")
	a.DelegatesTo = []string{"b"}
	b := testAgentDef(t, "b")
	b.DelegatesTo = []string{"a"}

	_, err := New(testConfig(t, scriptFactory{}, a, b))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCycleDetected)
}

func TestNewAllowsDiamondDelegation(t *testing.T) {
	// a→b, a→c, b→d, c→d is a DAG, not a cycle.
	a := testAgentDef(t, "a")
	a.DelegatesTo = []string{"b", "c"}
	b := testAgentDef(t, "b")
	b.DelegatesTo = []string{"d"}
	c := testAgentDef(t, "c")
	c.DelegatesTo = []string{"d"}
	d := testAgentDef(t, "d")

	_, err := New(testConfig(t, scriptFactory{}, a, b, c, d))
	assert.NoError(t, err)
}

func TestExecuteSimple(t *testing.T) {
	factory := scriptFactory{"lead": {turns: []*types.LLMResponse{{
		Content:      "the answer",
		FinishReason: "end_turn",
		Usage:        types.Usage{TotalTokens: 120, TotalCost: 0.004},
	}}}}
	s, err := New(testConfig(t, factory, testAgentDef(t, "lead")))
	require.NoError(t, err)

	res, err := s.Execute(context.Background(), "what is the answer?")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "the answer", res.Content)
	assert.Equal(t, "lead", res.Agent)
	assert.Equal(t, 1, res.LLMRequests)
	assert.Equal(t, 120, res.TotalTokens)
	assert.InDelta(t, 0.004, res.TotalCost, 1e-9)
	assert.Equal(t, []string{"lead"}, res.AgentsInvolved)

	require.NotEmpty(t, res.Logs)
	start, ok := res.Logs[0].(*events.SwarmStart)
	require.True(t, ok)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, res.RunID, start.RunID)
}

func TestExecuteFreezesSubscribersAndHooks(t *testing.T) {
	factory := scriptFactory{}
	s, err := New(testConfig(t, factory, testAgentDef(t, "lead")))
	require.NoError(t, err)

	var captured []events.Event
	_, err = s.Execute(context.Background(), "go", events.CaptureSubscriber(&captured))
	require.NoError(t, err)
	assert.NotEmpty(t, captured, "run subscribers receive the stream")

	assert.ErrorIs(t, s.Subscribe(func(events.Event) {}), events.ErrSubscribersFrozen)
	assert.True(t, s.Hooks().Frozen())
}

func TestExecuteSwarmStartHaltFailsRun(t *testing.T) {
	factory := scriptFactory{}
	s, err := New(testConfig(t, factory, testAgentDef(t, "lead")))
	require.NoError(t, err)

	require.NoError(t, s.Hooks().Register(&hooks.Registration{
		Event: hooks.EventSwarmStart,
		Callback: func(ctx context.Context, hc *hooks.Context) (*hooks.Result, error) {
			return hooks.Halt("budget exhausted"), nil
		},
	}))

	res, err := s.Execute(context.Background(), "go")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "budget exhausted", res.Error)
	assert.Empty(t, res.Content)
	assert.Zero(t, factory["lead"].callCount(), "halt prevents the lead from running")
}

func TestExecuteSwarmStopReprompt(t *testing.T) {
	factory := scriptFactory{"lead": {turns: []*types.LLMResponse{
		{Content: "first draft", FinishReason: "end_turn"},
		{Content: "final draft", FinishReason: "end_turn"},
	}}}
	s, err := New(testConfig(t, factory, testAgentDef(t, "lead")))
	require.NoError(t, err)

	var fired int
	require.NoError(t, s.Hooks().Register(&hooks.Registration{
		Event: hooks.EventSwarmStop,
		Callback: func(ctx context.Context, hc *hooks.Context) (*hooks.Result, error) {
			fired++
			if fired == 1 {
				return hooks.Reprompt("revise the draft"), nil
			}
			return nil, nil
		},
	}))

	res, err := s.Execute(context.Background(), "write a draft")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "final draft", res.Content)
	assert.Equal(t, 2, fired)
	assert.Equal(t, 2, factory["lead"].callCount())
}

func TestExecuteRejectsConcurrentRuns(t *testing.T) {
	gate := make(chan struct{})
	factory := scriptFactory{"lead": {block: gate}}
	s, err := New(testConfig(t, factory, testAgentDef(t, "lead")))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Execute(context.Background(), "slow")
	}()

	// Wait for the first run to reach the driver.
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.executing
	}, time.Second, time.Millisecond)

	_, err = s.Execute(context.Background(), "second")
	assert.ErrorIs(t, err, ErrExecuteStarted)

	close(gate)
	<-done
}

func TestExecuteCancelledStatus(t *testing.T) {
	gate := make(chan struct{}) // never opened; the driver waits on ctx
	factory := scriptFactory{"lead": {block: gate}}
	s, err := New(testConfig(t, factory, testAgentDef(t, "lead")))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var res *Result
	done := make(chan struct{})
	go func() {
		defer close(done)
		res, _ = s.Execute(ctx, "long haul")
	}()

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.executing
	}, time.Second, time.Millisecond)
	cancel()
	<-done

	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Equal(t, "cancelled", res.Error)

	stop, ok := res.Logs[len(res.Logs)-1].(*events.SwarmStop)
	require.True(t, ok)
	assert.Equal(t, events.StatusCancelled, stop.Status)
}

func TestExecuteDelegation(t *testing.T) {
	lead := testAgentDef(t, "lead")
	lead.DelegatesTo = []string{"worker"}
	worker := testAgentDef(t, "worker")

	factory := scriptFactory{
		"lead": {turns: []*types.LLMResponse{
			{FinishReason: "tool_use", ToolCalls: []types.ToolCall{{
				ID:        "d1",
				Name:      "worker",
				Arguments: map[string]interface{}{"task": "dig into the logs"},
			}}},
			{Content: "synthesis", FinishReason: "end_turn"},
		}},
		"worker": {turns: []*types.LLMResponse{
			{Content: "found the smoking gun", FinishReason: "end_turn"},
		}},
	}
	s, err := New(testConfig(t, factory, lead, worker))
	require.NoError(t, err)

	res, err := s.Execute(context.Background(), "investigate")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "synthesis", res.Content)
	assert.Equal(t, []string{"lead", "worker"}, res.AgentsInvolved)
	assert.Equal(t, 3, res.LLMRequests, "two lead turns plus one worker turn")
	assert.Equal(t, 1, res.ToolCallsCount, "the delegation counts as one call")

	var sawResult bool
	for _, ev := range res.Logs {
		if dr, ok := ev.(*events.DelegationResult); ok {
			sawResult = true
			assert.Equal(t, "found the smoking gun", dr.Result)
		}
	}
	assert.True(t, sawResult)
}

func TestExecuteEmitsModelLookupWarning(t *testing.T) {
	lead := testAgentDef(t, "lead")
	lead.Model = "claude-sonet-4-5" // typo on purpose
	lead.ContextWindow = 100000

	factory := scriptFactory{}
	s, err := New(testConfig(t, factory, lead))
	require.NoError(t, err)

	res, err := s.Execute(context.Background(), "go")
	require.NoError(t, err)

	var warning *events.ModelLookupWarning
	for _, ev := range res.Logs {
		if w, ok := ev.(*events.ModelLookupWarning); ok {
			warning = w
		}
	}
	require.NotNil(t, warning, "unknown model warns but does not fail")
	assert.Equal(t, "claude-sonet-4-5", warning.Model)
	assert.NotEmpty(t, warning.Suggestions)
	assert.True(t, res.Success)
}

func TestExecuteDriverFactoryError(t *testing.T) {
	cfg := testConfig(t, scriptFactory{}, testAgentDef(t, "lead"))
	cfg.Drivers = func(def *types.AgentDefinition) (types.LLMDriver, error) {
		return nil, errors.New("no credentials")
	}
	s, err := New(cfg)
	require.NoError(t, err)

	_, err = s.Execute(context.Background(), "go")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credentials")
}

func TestExecuteLLMErrorFailsResult(t *testing.T) {
	factory := scriptFactory{}
	cfg := testConfig(t, factory, testAgentDef(t, "lead"))
	cfg.Drivers = func(def *types.AgentDefinition) (types.LLMDriver, error) {
		return failingDriver{}, nil
	}
	s, err := New(cfg)
	require.NoError(t, err)

	res, err := s.Execute(context.Background(), "go")
	require.NoError(t, err, "run failures are reported in the result")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "model melted")

	last := res.Logs[len(res.Logs)-1]
	stop, ok := last.(*events.SwarmStop)
	require.True(t, ok)
	assert.Equal(t, events.StatusError, stop.Status)
}

type failingDriver struct{}

func (failingDriver) Chat(ctx context.Context, messages []types.Message, toolset []tools.Tool, params map[string]interface{}) (*types.LLMResponse, error) {
	return nil, errors.New("model melted")
}
func (failingDriver) Name() string  { return "stub" }
func (failingDriver) Model() string { return "stub-model" }

func TestHookDeclsForUnknownAgent(t *testing.T) {
	cfg := testConfig(t, scriptFactory{}, testAgentDef(t, "lead"))
	cfg.Hooks = []HookDecl{{
		Agent: "phantom",
		Registration: &hooks.Registration{
			Event: hooks.EventPreToolUse,
			Callback: func(ctx context.Context, hc *hooks.Context) (*hooks.Result, error) {
				return nil, nil
			},
		},
	}}
	s, err := New(cfg)
	require.NoError(t, err)

	_, err = s.Execute(context.Background(), "go")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown agent")
}

func TestAggregateCounts(t *testing.T) {
	log := []events.Event{
		&events.AgentStop{Base: events.NewBase(events.TypeAgentStop), Agent: "lead", Usage: types.Usage{TotalTokens: 100, TotalCost: 0.01}},
		&events.ToolCall{Base: events.NewBase(events.TypeToolCall), Agent: "lead"},
		&events.ToolCall{Base: events.NewBase(events.TypeToolCall), Agent: "lead"},
		&events.AgentDelegation{Base: events.NewBase(events.TypeAgentDelegation), Agent: "lead", DelegateTo: "worker"},
		&events.AgentStop{Base: events.NewBase(events.TypeAgentStop), Agent: "worker", Usage: types.Usage{TotalTokens: 50, TotalCost: 0.002}},
		&events.AgentStop{Base: events.NewBase(events.TypeAgentStop), Agent: "lead", Usage: types.Usage{TotalTokens: 30}},
	}

	agg := aggregate(log)
	assert.Equal(t, 3, agg.llmRequests)
	assert.Equal(t, 3, agg.toolCalls)
	assert.Equal(t, 180, agg.totalTokens)
	assert.InDelta(t, 0.012, agg.totalCost, 1e-9)
	assert.Equal(t, []string{"lead", "worker"}, agg.agents)
}
