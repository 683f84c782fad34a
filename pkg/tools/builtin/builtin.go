// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package builtin implements the default tool set every weft agent
// carries: file access gated by read-before-write tracking, shell
// execution, search, todo management, the shared scratchpad, and a
// think stub. One concrete type per tool; failures are structured
// results the model can read, never Go errors.
package builtin

import (
	"time"

	"github.com/teradata-labs/weft/pkg/state"
	"github.com/teradata-labs/weft/pkg/tools"
)

// Deps wires one agent's builtin tools to the swarm's shared state.
type Deps struct {
	// Agent is the owning agent's name; tracker and todo entries are
	// partitioned by it.
	Agent string

	// BaseDir is the agent's working directory. File tools resolve
	// relative paths against it.
	BaseDir string

	// Tracker records reads for the write-after-read rule.
	Tracker *state.ReadTracker

	// Todos holds the agent's task list.
	Todos *state.TodoStore

	// Scratchpad is the swarm-wide shared store.
	Scratchpad *state.Scratchpad

	// OnTodoWrite, when set, is called after each successful TodoWrite.
	// The agent runner uses it to reset its reminder counter.
	OnTodoWrite func()
}

// DefaultTools returns the builtin tool set in its canonical order.
func DefaultTools(deps Deps) []tools.Tool {
	return []tools.Tool{
		NewReadTool(deps),
		NewWriteTool(deps),
		NewEditTool(deps),
		NewMultiEditTool(deps),
		NewBashTool(deps),
		NewGrepTool(deps),
		NewGlobTool(deps),
		NewTodoWriteTool(deps),
		NewScratchpadWriteTool(deps),
		NewScratchpadReadTool(deps),
		NewScratchpadListTool(deps),
		NewThinkTool(),
	}
}

// stringParam extracts a required non-empty string parameter, or returns
// a failed result naming it.
func stringParam(params map[string]interface{}, key string, start time.Time) (string, *tools.Result) {
	v, ok := params[key].(string)
	if !ok || v == "" {
		res := tools.Errorf("INVALID_PARAMS", key+" is required",
			"Provide a non-empty "+key+" parameter")
		res.ExecutionTimeMs = time.Since(start).Milliseconds()
		return "", res
	}
	return v, nil
}

func finish(res *tools.Result, start time.Time) (*tools.Result, error) {
	res.ExecutionTimeMs = time.Since(start).Milliseconds()
	return res, nil
}
