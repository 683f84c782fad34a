// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teradata-labs/weft/pkg/state"
)

func TestTodoWriteReplacesList(t *testing.T) {
	deps := newDeps(t)
	var notified int
	deps.OnTodoWrite = func() { notified++ }
	todo := NewTodoWriteTool(deps)

	res, err := todo.Execute(context.Background(), map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"content": "survey repos", "status": state.TodoCompleted, "activeForm": "Surveying repos"},
			map[string]interface{}{"content": "draft summary", "status": state.TodoInProgress, "activeForm": "Drafting summary"},
		},
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 1, notified)

	items := deps.Todos.Get("tester")
	require.Len(t, items, 2)
	assert.Equal(t, "draft summary", items[1].Content)

	// A second write replaces, never appends.
	res, err = todo.Execute(context.Background(), map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"content": "ship it", "status": state.TodoPending, "activeForm": "Shipping"},
		},
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Len(t, deps.Todos.Get("tester"), 1)
	assert.Equal(t, 2, notified)
}

func TestTodoWriteValidation(t *testing.T) {
	deps := newDeps(t)
	todo := NewTodoWriteTool(deps)

	tests := []struct {
		name   string
		params map[string]interface{}
	}{
		{"items not an array", map[string]interface{}{"items": "nope"}},
		{"missing content", map[string]interface{}{"items": []interface{}{
			map[string]interface{}{"status": state.TodoPending},
		}}},
		{"invalid status", map[string]interface{}{"items": []interface{}{
			map[string]interface{}{"content": "x", "status": "paused"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := todo.Execute(context.Background(), tt.params)
			require.NoError(t, err)
			require.False(t, res.Success)
			assert.Equal(t, "INVALID_PARAMS", res.Error.Code)
		})
	}
}

func TestScratchpadToolsRoundTrip(t *testing.T) {
	deps := newDeps(t)
	write := NewScratchpadWriteTool(deps)
	read := NewScratchpadReadTool(deps)
	list := NewScratchpadListTool(deps)

	res, err := write.Execute(context.Background(), map[string]interface{}{
		"file_path": "research/findings",
		"content":   "three candidate libraries",
		"title":     "Library survey",
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.EqualValues(t, 1, res.Metadata["version"])

	res, err = read.Execute(context.Background(), map[string]interface{}{
		"file_path": "research/findings",
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "three candidate libraries", res.ContentString())
	assert.Equal(t, "Library survey", res.Metadata["title"])
	assert.Equal(t, "tester", res.Metadata["updated_by"])

	res, err = list.Execute(context.Background(), map[string]interface{}{
		"prefix": "research/",
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 1, res.Metadata["entries"])
	assert.Contains(t, res.ContentString(), "research/findings")
}

func TestScratchpadReadMissingEntry(t *testing.T) {
	deps := newDeps(t)
	read := NewScratchpadReadTool(deps)

	res, err := read.Execute(context.Background(), map[string]interface{}{
		"file_path": "nothing/here",
	})
	require.NoError(t, err)
	require.False(t, res.Success)
	assert.Equal(t, "NOT_FOUND", res.Error.Code)
}

func TestScratchpadListEmpty(t *testing.T) {
	deps := newDeps(t)
	list := NewScratchpadListTool(deps)

	res, err := list.Execute(context.Background(), map[string]interface{}{})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "Scratchpad is empty", res.ContentString())
}

func TestThinkTool(t *testing.T) {
	think := NewThinkTool()

	res, err := think.Execute(context.Background(), map[string]interface{}{
		"thought": "the scheduler needs a second semaphore tier",
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "Thought recorded.", res.ContentString())

	res, err = think.Execute(context.Background(), map[string]interface{}{})
	require.NoError(t, err)
	require.False(t, res.Success)
	assert.Equal(t, "INVALID_PARAMS", res.Error.Code)
}
