// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	info, ok := Lookup("claude-sonnet-4-5-20250929")
	require.True(t, ok)
	assert.Equal(t, "anthropic", info.Provider)
	assert.Equal(t, 200000, info.ContextWindow)

	_, ok = Lookup("claude-sonnet-99")
	assert.False(t, ok)
}

func TestModelCost(t *testing.T) {
	info, ok := Lookup("claude-sonnet-4-5-20250929")
	require.True(t, ok)

	inputCost, outputCost := info.Cost(1_000_000, 1_000_000)
	assert.InDelta(t, 3.0, inputCost, 1e-9)
	assert.InDelta(t, 15.0, outputCost, 1e-9)

	inputCost, outputCost = info.Cost(0, 0)
	assert.Zero(t, inputCost)
	assert.Zero(t, outputCost)
}

func TestSuggestions(t *testing.T) {
	suggestions := Suggestions("claude-sonet-4-5")
	require.NotEmpty(t, suggestions)
	assert.LessOrEqual(t, len(suggestions), 3)
	assert.Contains(t, suggestions[0], "claude")

	assert.Empty(t, Suggestions("zzzzqqqq"))
}

func TestKnownModelsSorted(t *testing.T) {
	ids := KnownModels()
	require.NotEmpty(t, ids)
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i])
	}
}

func TestLookupError(t *testing.T) {
	msg := LookupError("mystery-model")
	assert.Contains(t, msg, "mystery-model")
	assert.Contains(t, msg, "not found")
}
