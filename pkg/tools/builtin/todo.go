// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package builtin

import (
	"context"
	"fmt"
	"time"

	"github.com/teradata-labs/weft/pkg/state"
	"github.com/teradata-labs/weft/pkg/tools"
)

// TodoWriteTool replaces the agent's todo list wholesale.
type TodoWriteTool struct {
	deps Deps
}

// NewTodoWriteTool creates the TodoWrite tool for one agent.
func NewTodoWriteTool(deps Deps) *TodoWriteTool {
	return &TodoWriteTool{deps: deps}
}

func (t *TodoWriteTool) Name() string { return "TodoWrite" }

func (t *TodoWriteTool) Description() string {
	return `Replaces your task list. Use it to plan multi-step work and show progress.

Each item needs content, a status (pending, in_progress, completed), and an activeForm shown while the item is in progress.`
}

func (t *TodoWriteTool) InputSchema() *tools.JSONSchema {
	item := tools.NewObjectSchema(
		"One task",
		map[string]*tools.JSONSchema{
			"content": tools.NewStringSchema("Imperative description of the task"),
			"status": tools.NewStringSchema("Task state").
				WithEnum(state.TodoPending, state.TodoInProgress, state.TodoCompleted),
			"activeForm": tools.NewStringSchema("Present-continuous form shown during execution"),
		},
		[]string{"content", "status", "activeForm"},
	)
	return tools.NewObjectSchema(
		"Parameters for replacing the todo list",
		map[string]*tools.JSONSchema{
			"items": tools.NewArraySchema("The full new task list", item),
		},
		[]string{"items"},
	)
}

func (t *TodoWriteTool) Execute(ctx context.Context, params map[string]interface{}) (*tools.Result, error) {
	start := time.Now()

	rawItems, ok := params["items"].([]interface{})
	if !ok {
		return finish(tools.Errorf("INVALID_PARAMS", "items must be an array",
			"Provide the complete task list, replacing the previous one"), start)
	}

	items := make([]state.TodoItem, 0, len(rawItems))
	for i, raw := range rawItems {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return finish(tools.Errorf("INVALID_PARAMS",
				fmt.Sprintf("item %d: must be an object", i+1), ""), start)
		}
		content, _ := m["content"].(string)
		status, _ := m["status"].(string)
		activeForm, _ := m["activeForm"].(string)
		if content == "" {
			return finish(tools.Errorf("INVALID_PARAMS",
				fmt.Sprintf("item %d: content is required", i+1), ""), start)
		}
		if !state.ValidTodoStatus(status) {
			return finish(tools.Errorf("INVALID_PARAMS",
				fmt.Sprintf("item %d: invalid status %q", i+1, status),
				"Use pending, in_progress, or completed"), start)
		}
		items = append(items, state.TodoItem{Content: content, Status: status, ActiveForm: activeForm})
	}

	t.deps.Todos.Set(t.deps.Agent, items)
	if t.deps.OnTodoWrite != nil {
		t.deps.OnTodoWrite()
	}

	res := tools.Ok(fmt.Sprintf("Todo list updated (%d items)", len(items)))
	res.Metadata = map[string]interface{}{"items": len(items)}
	return finish(res, start)
}

var _ tools.Tool = (*TodoWriteTool)(nil)
