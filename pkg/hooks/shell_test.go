// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package hooks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teradata-labs/weft/pkg/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestShellCallbackContinueOnSilentExit(t *testing.T) {
	cb := ShellCallback("exit 0", 5, nil)
	res, err := cb(context.Background(), &Context{Event: EventUserPrompt, ProjectDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, KindContinue, res.Kind)
}

func TestShellCallbackReplacesToolResult(t *testing.T) {
	cb := ShellCallback(`echo "sanitized output"`, 5, nil)
	res, err := cb(context.Background(), &Context{
		Event:      EventPostToolUse,
		ProjectDir: t.TempDir(),
		ToolCall:   &types.ToolCall{Name: "read_file"},
	})
	require.NoError(t, err)
	assert.Equal(t, KindReplace, res.Kind)
	assert.Equal(t, "sanitized output", res.Value)
}

func TestShellCallbackStdoutIgnoredForNonReplaceEvents(t *testing.T) {
	cb := ShellCallback(`echo "noise"`, 5, nil)
	res, err := cb(context.Background(), &Context{Event: EventAgentStop, ProjectDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, KindContinue, res.Kind)
}

func TestShellCallbackRepromptOnSwarmStop(t *testing.T) {
	cb := ShellCallback(`echo "one more pass"`, 5, nil)
	res, err := cb(context.Background(), &Context{Event: EventSwarmStop, ProjectDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, KindReprompt, res.Kind)
	assert.Equal(t, "one more pass", res.Prompt)
}

func TestShellCallbackHaltOnExit2(t *testing.T) {
	cb := ShellCallback(`echo "blocked by policy" >&2; exit 2`, 5, nil)
	res, err := cb(context.Background(), &Context{
		Event:      EventPreToolUse,
		ProjectDir: t.TempDir(),
		ToolCall:   &types.ToolCall{Name: "execute_bash"},
	})
	require.NoError(t, err)
	assert.Equal(t, KindHalt, res.Kind)
	assert.Equal(t, "blocked by policy", res.Message)
}

func TestShellCallbackWarnContinuesOnExit1(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cb := ShellCallback(`echo "disk almost full" >&2; exit 1`, 5, zap.New(core))
	res, err := cb(context.Background(), &Context{Event: EventPreToolUse, ProjectDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, KindContinue, res.Kind)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "shell hook warned", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Contains(t, fields["command"], "exit 1")
	assert.Equal(t, int64(1), fields["exit_code"])
	assert.Equal(t, "disk almost full", fields["stderr"])
}

func TestShellCallbackReceivesPayloadAndEnv(t *testing.T) {
	// jq-free payload check: grep stdin for the tool name, confirm env var.
	cb := ShellCallback(`grep -q '"grep_files"' && test -n "$SWARM_PROJECT_DIR" && test "$SWARM_NODE_NAME" = "review"`, 5, nil)
	res, err := cb(context.Background(), &Context{
		Event:      EventPreToolUse,
		Agent:      "worker",
		NodeName:   "review",
		ProjectDir: t.TempDir(),
		ToolCall:   &types.ToolCall{Name: "grep_files"},
	})
	require.NoError(t, err)
	assert.Equal(t, KindContinue, res.Kind, "exit 0 with empty stdout continues")
}
