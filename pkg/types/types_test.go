// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package types

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageAdd(t *testing.T) {
	u := Usage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150, InputCost: 0.01, OutputCost: 0.02, TotalCost: 0.03}
	u.Add(Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15, InputCost: 0.001, OutputCost: 0.002, TotalCost: 0.003})

	assert.Equal(t, 110, u.InputTokens)
	assert.Equal(t, 55, u.OutputTokens)
	assert.Equal(t, 165, u.TotalTokens)
	assert.InDelta(t, 0.011, u.InputCost, 1e-9)
	assert.InDelta(t, 0.022, u.OutputCost, 1e-9)
	assert.InDelta(t, 0.033, u.TotalCost, 1e-9)
}

func TestMessageConstructors(t *testing.T) {
	user := NewUserMessage("hello")
	assert.Equal(t, RoleUser, user.Role)
	assert.Equal(t, "hello", user.Content)
	assert.False(t, user.Timestamp.IsZero())

	resp := &LLMResponse{
		Content:   "on it",
		ToolCalls: []ToolCall{{ID: "tc_1", Name: "read_file"}},
	}
	assistant := NewAssistantMessage(resp)
	assert.Equal(t, RoleAssistant, assistant.Role)
	assert.Equal(t, "on it", assistant.Content)
	require.Len(t, assistant.ToolCalls, 1)

	tool := NewToolMessage(ToolResult{ToolCallID: "tc_1", Content: "data", Success: true})
	assert.Equal(t, RoleTool, tool.Role)
	assert.Equal(t, "tc_1", tool.ToolCallID)
}

func TestAgentDefinitionDefaults(t *testing.T) {
	def := NewAgentDefinition("researcher")
	assert.True(t, def.IncludeDefaultTools)
	assert.Equal(t, DefaultAgentTimeout, def.Timeout)
	assert.Equal(t, DefaultLocalSemaphore, def.LocalSemaphore)

	def.ApplyDefaults()
	assert.Equal(t, "anthropic", def.Provider)
	assert.NotEmpty(t, def.Directory)
}

func TestAgentDefinitionValidate(t *testing.T) {
	dir := t.TempDir()

	valid := func() *AgentDefinition {
		def := NewAgentDefinition("researcher")
		def.Description = "Finds things"
		def.SystemPrompt = "You research."
		def.Directory = dir
		return def
	}

	tests := []struct {
		name    string
		mutate  func(*AgentDefinition)
		wantErr string
	}{
		{"valid", func(d *AgentDefinition) {}, ""},
		{"missing description", func(d *AgentDefinition) { d.Description = "" }, "description is required"},
		{"missing system prompt", func(d *AgentDefinition) { d.SystemPrompt = "" }, "system_prompt is required"},
		{"missing directory", func(d *AgentDefinition) { d.Directory = "" }, "directory is required"},
		{"nonexistent directory", func(d *AgentDefinition) { d.Directory = "/no/such/dir/weft" }, "does not exist"},
		{"unnamed tool entry", func(d *AgentDefinition) { d.Tools = []ToolSpec{{}} }, "tool entries need a name"},
		{"stdio server without command", func(d *AgentDefinition) {
			d.MCPServers = []MCPServerDef{{Name: "db", Transport: "stdio"}}
		}, "needs a command"},
		{"http server without url", func(d *AgentDefinition) {
			d.MCPServers = []MCPServerDef{{Name: "db", Transport: "http"}}
		}, "needs a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := valid()
			tt.mutate(def)
			err := def.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestAgentDefinitionValidateResolvesRelativeDirectory(t *testing.T) {
	def := NewAgentDefinition("local")
	def.Description = "Works here"
	def.SystemPrompt = "You work."
	def.Directory = "."

	require.NoError(t, def.Validate())
	assert.True(t, len(def.Directory) > 1 && def.Directory[0] == '/')
}

func TestNodeDefinitionValidate(t *testing.T) {
	t.Run("lead defaults to first agent", func(t *testing.T) {
		node := &NodeDefinition{Name: "review", Agents: []string{"critic", "editor"}}
		require.NoError(t, node.Validate())
		assert.Equal(t, "critic", node.Lead)
	})

	t.Run("lead must be a node agent", func(t *testing.T) {
		node := &NodeDefinition{Name: "review", Agents: []string{"critic"}, Lead: "outsider"}
		require.Error(t, node.Validate())
	})

	t.Run("agent-less node needs a transformer", func(t *testing.T) {
		node := &NodeDefinition{Name: "relabel"}
		require.Error(t, node.Validate())

		node.InputTransformer = &TransformerDef{Command: "tr a-z A-Z"}
		require.NoError(t, node.Validate())
	})

	t.Run("transformer must pick one kind", func(t *testing.T) {
		both := &TransformerDef{Command: "cat", Func: func(ctx context.Context, tc *TransformerContext) (*TransformerOutput, error) {
			return &TransformerOutput{Content: tc.Content}, nil
		}}
		require.Error(t, both.Validate())

		neither := &TransformerDef{}
		require.Error(t, neither.Validate())
	})
}
