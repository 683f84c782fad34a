// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teradata-labs/weft/pkg/hooks"
	"github.com/teradata-labs/weft/pkg/tools"
	"github.com/teradata-labs/weft/pkg/types"
	"github.com/teradata-labs/weft/pkg/workflow"
	"go.uber.org/zap/zaptest"
)

type stubDriver struct{}

func (stubDriver) Chat(ctx context.Context, messages []types.Message, toolset []tools.Tool, params map[string]interface{}) (*types.LLMResponse, error) {
	return &types.LLMResponse{Content: "ok", FinishReason: "end_turn"}, nil
}

func (stubDriver) Name() string  { return "stub" }
func (stubDriver) Model() string { return "stub-model" }

func TestAgentBuilderAccumulates(t *testing.T) {
	dir := t.TempDir()
	def := NewAgent("researcher").
		WithDescription("Finds things out").
		WithModel("claude-sonnet-4-5-20250929").
		WithProvider("anthropic").
		WithBaseURL("https://example.invalid/v1").
		WithSystemPrompt("You research.").
		WithDirectory(dir).
		WithTools("Read", "Grep").
		WithToolPermissions("Write", []string{"notes/**"}, []string{"notes/private/**"}).
		DelegatesTo("archivist").
		WithTimeout(120).
		WithContextWindow(100000).
		WithLocalSemaphore(4).
		WithParameter("temperature", 0.3).
		WithHeader("X-Team", "research").
		Definition()

	assert.Equal(t, "researcher", def.Name)
	assert.Equal(t, "Finds things out", def.Description)
	assert.Equal(t, "claude-sonnet-4-5-20250929", def.Model)
	assert.Equal(t, "https://example.invalid/v1", def.BaseURL)
	assert.Equal(t, dir, def.Directory)
	assert.Equal(t, []string{"archivist"}, def.DelegatesTo)
	assert.Equal(t, 120, def.Timeout)
	assert.Equal(t, 100000, def.ContextWindow)
	assert.Equal(t, 4, def.LocalSemaphore)
	assert.Equal(t, 0.3, def.Parameters["temperature"])
	assert.Equal(t, "research", def.Headers["X-Team"])

	require.Len(t, def.Tools, 3)
	assert.Equal(t, "Read", def.Tools[0].Name)
	assert.Equal(t, "Grep", def.Tools[1].Name)
	assert.Equal(t, "Write", def.Tools[2].Name)
	require.NotNil(t, def.Tools[2].Permissions)
	assert.Equal(t, []string{"notes/**"}, def.Tools[2].Permissions.AllowedPaths)
	assert.Nil(t, def.Tools[0].Permissions)
}

func TestAgentBuilderDefaults(t *testing.T) {
	def := NewAgent("plain").
		WithDescription("Plain agent").
		WithSystemPrompt("Work.").
		WithDirectory(t.TempDir()).
		Definition()

	assert.Equal(t, "anthropic", def.Provider)
	assert.Equal(t, types.DefaultAgentTimeout, def.Timeout)
	assert.Equal(t, types.DefaultLocalSemaphore, def.LocalSemaphore)
	assert.True(t, def.IncludeDefaultTools)
	assert.False(t, def.BypassPermissions)
}

func TestAgentBuilderFlags(t *testing.T) {
	def := NewAgent("bare").
		WithDescription("Bare agent").
		WithSystemPrompt("Work.").
		WithDirectory(t.TempDir()).
		WithoutDefaultTools().
		WithBypassPermissions().
		Definition()

	assert.False(t, def.IncludeDefaultTools)
	assert.True(t, def.BypassPermissions)
}

func testAgent(t *testing.T, name string) *AgentBuilder {
	t.Helper()
	return NewAgent(name).
		WithDescription(name + " agent").
		WithModel("claude-sonnet-4-5-20250929").
		WithSystemPrompt("You are " + name + ".").
		WithDirectory(t.TempDir())
}

func TestSwarmBuilderBuild(t *testing.T) {
	s, err := NewSwarm("editorial").
		WithLead("chief").
		AddAgent(testAgent(t, "chief").DelegatesTo("reporter")).
		AddAgent(testAgent(t, "reporter")).
		WithDriver(stubDriver{}).
		WithGlobalSemaphore(5).
		WithHook(&hooks.Registration{
			Event:    hooks.EventSwarmStop,
			Callback: func(ctx context.Context, hc *hooks.Context) (*hooks.Result, error) { return nil, nil },
		}).
		WithLogger(zaptest.NewLogger(t)).
		Build()
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestSwarmBuilderRequiresAgents(t *testing.T) {
	_, err := NewSwarm("empty").
		WithLead("ghost").
		WithDriver(stubDriver{}).
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one agent")
}

func TestSwarmBuilderPropagatesValidation(t *testing.T) {
	_, err := NewSwarm("broken").
		WithLead("ghost").
		AddAgent(testAgent(t, "worker")).
		WithDriver(stubDriver{}).
		Build()
	require.Error(t, err, "unknown lead surfaces from swarm construction")
}

func TestWorkflowBuilderBuild(t *testing.T) {
	o, err := NewWorkflow("pipeline").
		WithStartNode("research").
		AddNode(NewNode("research").WithAgents("researcher")).
		AddNode(NewNode("draft").
			WithAgents("writer").
			DependsOn("research").
			WithInputTransformer(func(ctx context.Context, tc *types.TransformerContext) (*types.TransformerOutput, error) {
				return &types.TransformerOutput{Content: tc.Content}, nil
			})).
		AddNode(NewNode("stamp").
			DependsOn("draft").
			WithOutputCommand("echo stamped", 10)).
		AddAgent(testAgent(t, "researcher")).
		AddAgent(testAgent(t, "writer")).
		WithDriver(stubDriver{}).
		WithLogger(zaptest.NewLogger(t)).
		Build()
	require.NoError(t, err)
	require.NotNil(t, o)
}

func TestWorkflowBuilderRejectsBadGraph(t *testing.T) {
	_, err := NewWorkflow("broken").
		WithStartNode("a").
		AddNode(NewNode("a").WithAgents("solo")).
		AddNode(NewNode("b").WithAgents("solo").DependsOn("ghost")).
		AddAgent(testAgent(t, "solo")).
		WithDriver(stubDriver{}).
		Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, workflow.ErrUnknownDependency)
}
