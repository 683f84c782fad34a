// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teradata-labs/weft/pkg/state"
	"go.uber.org/zap/zaptest"
)

// newDeps builds a Deps wired to fresh shared state and a temp working
// directory.
func newDeps(t *testing.T) Deps {
	t.Helper()
	sp, err := state.NewScratchpad(zaptest.NewLogger(t))
	require.NoError(t, err)
	return Deps{
		Agent:      "tester",
		BaseDir:    t.TempDir(),
		Tracker:    state.NewReadTracker(),
		Todos:      state.NewTodoStore(),
		Scratchpad: sp,
	}
}

func TestDefaultToolsOrder(t *testing.T) {
	all := DefaultTools(newDeps(t))

	var names []string
	for _, tool := range all {
		names = append(names, tool.Name())
	}
	assert.Equal(t, []string{
		"Read", "Write", "Edit", "MultiEdit", "Bash", "Grep", "Glob",
		"TodoWrite", "ScratchpadWrite", "ScratchpadRead", "ScratchpadList", "Think",
	}, names)
}
