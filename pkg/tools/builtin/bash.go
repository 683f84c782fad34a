// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package builtin

import (
	"context"
	"fmt"
	"time"

	"github.com/teradata-labs/weft/internal/shellrun"
	"github.com/teradata-labs/weft/pkg/tools"
)

const (
	// DefaultBashTimeout is the default command timeout in seconds.
	DefaultBashTimeout = 120

	// MaxBashTimeout is the maximum allowed timeout in seconds.
	MaxBashTimeout = 600

	// maxBashOutput caps combined output returned to the model.
	maxBashOutput = 100 * 1024
)

// BashTool executes shell commands in the agent's working directory.
type BashTool struct {
	deps Deps
}

// NewBashTool creates the Bash tool for one agent.
func NewBashTool(deps Deps) *BashTool {
	return &BashTool{deps: deps}
}

func (t *BashTool) Name() string { return "Bash" }

func (t *BashTool) Description() string {
	return `Executes a shell command in the agent's working directory and returns combined stdout/stderr prefixed with the exit code.

Default timeout 120s, maximum 600s. A timed-out command reports an error string; it never fails the swarm.`
}

func (t *BashTool) InputSchema() *tools.JSONSchema {
	min := float64(1)
	max := float64(MaxBashTimeout)
	return tools.NewObjectSchema(
		"Parameters for shell execution",
		map[string]*tools.JSONSchema{
			"command": tools.NewStringSchema("Shell command to execute (required)"),
			"timeout": tools.NewIntegerSchema("Timeout in seconds (default 120, max 600)").
				WithDefault(DefaultBashTimeout).
				WithRange(&min, &max),
		},
		[]string{"command"},
	)
}

func (t *BashTool) Execute(ctx context.Context, params map[string]interface{}) (*tools.Result, error) {
	start := time.Now()

	command, fail := stringParam(params, "command", start)
	if fail != nil {
		return fail, nil
	}

	timeout := DefaultBashTimeout
	if ts, ok := numberParam(params, "timeout"); ok {
		timeout = ts
		if timeout < 1 {
			timeout = 1
		}
		if timeout > MaxBashTimeout {
			timeout = MaxBashTimeout
		}
	}

	resp, err := shellrun.Run(ctx, &shellrun.Request{
		Command: command,
		Dir:     t.deps.BaseDir,
		Timeout: time.Duration(timeout) * time.Second,
	})
	if err != nil {
		if ctx.Err() != nil {
			return finish(tools.Errorf("CANCELLED", "cancelled", ""), start)
		}
		return finish(tools.Errorf("EXEC_FAILED",
			fmt.Sprintf("Failed to start command: %v", err), ""), start)
	}

	if resp.TimedOut {
		return finish(tools.Errorf("TIMEOUT",
			fmt.Sprintf("Error: Command timed out after %ds", timeout),
			"Increase the timeout parameter or split the command into smaller steps"), start)
	}

	output := resp.Combined()
	truncated := false
	if len(output) > maxBashOutput {
		output = output[:maxBashOutput] + "\n... (output truncated)"
		truncated = true
	}

	content := fmt.Sprintf("Exit code: %d\n%s", resp.ExitCode, output)
	res := tools.Ok(content)
	res.Success = resp.ExitCode == 0
	if !res.Success {
		res.Error = &tools.Error{
			Code:    "NONZERO_EXIT",
			Message: content,
		}
	}
	res.Metadata = map[string]interface{}{
		"exit_code": resp.ExitCode,
		"truncated": truncated,
	}
	return finish(res, start)
}

var _ tools.Tool = (*BashTool)(nil)
