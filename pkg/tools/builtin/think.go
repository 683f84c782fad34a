// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package builtin

import (
	"context"
	"time"

	"github.com/teradata-labs/weft/pkg/tools"
)

// ThinkTool lets the model externalize reasoning without side effects.
type ThinkTool struct{}

// NewThinkTool creates the Think tool.
func NewThinkTool() *ThinkTool {
	return &ThinkTool{}
}

func (t *ThinkTool) Name() string { return "Think" }

func (t *ThinkTool) Description() string {
	return "Records a thought. Use it to reason through a problem step by step before acting. Has no side effects."
}

func (t *ThinkTool) InputSchema() *tools.JSONSchema {
	return tools.NewObjectSchema(
		"Parameters for thinking",
		map[string]*tools.JSONSchema{
			"thought": tools.NewStringSchema("The thought to record (required)"),
		},
		[]string{"thought"},
	)
}

func (t *ThinkTool) Execute(ctx context.Context, params map[string]interface{}) (*tools.Result, error) {
	start := time.Now()
	if _, fail := stringParam(params, "thought", start); fail != nil {
		return fail, nil
	}
	return finish(tools.Ok("Thought recorded."), start)
}

var _ tools.Tool = (*ThinkTool)(nil)
