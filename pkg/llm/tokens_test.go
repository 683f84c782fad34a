// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teradata-labs/weft/pkg/types"
)

func TestCountText(t *testing.T) {
	tc := GetTokenCounter()

	assert.Equal(t, 0, tc.CountText(""))
	short := tc.CountText("hello world")
	assert.Greater(t, short, 0)
	assert.Less(t, short, 10)

	long := tc.CountText("the quick brown fox jumps over the lazy dog, repeatedly and without pause")
	assert.Greater(t, long, short)
}

func TestCountMessages(t *testing.T) {
	tc := GetTokenCounter()

	messages := []types.Message{
		{Role: types.RoleSystem, Content: "You are a careful researcher."},
		{Role: types.RoleUser, Content: "Summarize the report."},
		{Role: types.RoleAssistant, ToolCalls: []types.ToolCall{
			{ID: "tc_1", Name: "read_file", Arguments: map[string]interface{}{"file_path": "/work/report.md"}},
		}},
	}

	total := tc.CountMessages(messages)
	require.Greater(t, total, 0)

	// Per-message overhead means more messages cost more than their text.
	textOnly := tc.CountText(messages[0].Content) + tc.CountText(messages[1].Content)
	assert.Greater(t, total, textOnly)
}

func TestGetTokenCounterIsShared(t *testing.T) {
	assert.Same(t, GetTokenCounter(), GetTokenCounter())
}
