// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package agent

import (
	"context"
	"fmt"

	"github.com/teradata-labs/weft/pkg/tools"
)

// DelegationTool is the synthetic tool an agent sees for each of its
// delegation targets. The tool's name is the target agent's name; its
// schema takes a single task string.
//
// The scheduler intercepts delegation calls and routes them through the
// delegate's runner (firing delegation hooks, not tool hooks), so
// Execute never runs during normal operation.
type DelegationTool struct {
	target      string
	description string
}

// NewDelegationTool creates the delegation tool for one target agent.
func NewDelegationTool(target, description string) *DelegationTool {
	return &DelegationTool{target: target, description: description}
}

func (t *DelegationTool) Name() string { return t.target }

func (t *DelegationTool) Description() string {
	return fmt.Sprintf("Delegate a task to the %s agent. %s", t.target, t.description)
}

func (t *DelegationTool) InputSchema() *tools.JSONSchema {
	return tools.NewObjectSchema(
		fmt.Sprintf("Task for the %s agent", t.target),
		map[string]*tools.JSONSchema{
			"task": tools.NewStringSchema("The complete, self-contained task description. The delegate sees only this text, not your conversation."),
		},
		[]string{"task"},
	)
}

// Target returns the delegate agent's name.
func (t *DelegationTool) Target() string { return t.target }

func (t *DelegationTool) Execute(ctx context.Context, params map[string]interface{}) (*tools.Result, error) {
	return tools.Errorf("DELEGATION_OUTSIDE_SCHEDULER",
		fmt.Sprintf("delegation to %q must run through the agent scheduler", t.target),
		""), nil
}

var _ tools.Tool = (*DelegationTool)(nil)
