// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/weft/internal/shellrun"
	"github.com/teradata-labs/weft/pkg/types"
)

// DefaultShellHookTimeout bounds shell hook execution, in seconds.
const DefaultShellHookTimeout = 60

// shellPayload is the JSON object written to a shell hook's stdin.
type shellPayload struct {
	Event            Event             `json:"event"`
	Agent            string            `json:"agent,omitempty"`
	Node             string            `json:"node,omitempty"`
	Prompt           string            `json:"prompt,omitempty"`
	ToolCall         *types.ToolCall   `json:"tool_call,omitempty"`
	ToolResult       *types.ToolResult `json:"tool_result,omitempty"`
	DelegationTarget string            `json:"delegation_target,omitempty"`
	DelegationResult string            `json:"delegation_result,omitempty"`
}

// ShellCallback wraps a shell command as a Callback.
//
// The command receives the hook context as JSON on stdin and
// SWARM_PROJECT_DIR / SWARM_NODE_NAME in its environment. Exit code 0
// continues (non-empty stdout becomes the replacement value on
// replace-capable events, or the reprompt on swarm_stop); exit 1 warns
// and continues; exit 2 halts with stderr as the message. A nil logger
// defaults to no-op.
func ShellCallback(command string, timeoutSeconds int, logger *zap.Logger) Callback {
	if timeoutSeconds <= 0 {
		timeoutSeconds = DefaultShellHookTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(ctx context.Context, hc *Context) (*Result, error) {
		payload, err := json.Marshal(shellPayload{
			Event:            hc.Event,
			Agent:            hc.Agent,
			Node:             hc.NodeName,
			Prompt:           hc.Prompt,
			ToolCall:         hc.ToolCall,
			ToolResult:       hc.ToolResult,
			DelegationTarget: hc.DelegationTarget,
			DelegationResult: hc.DelegationResult,
		})
		if err != nil {
			return nil, fmt.Errorf("hooks: marshal shell payload: %w", err)
		}

		env := []string{"SWARM_PROJECT_DIR=" + hc.ProjectDir}
		if hc.NodeName != "" {
			env = append(env, "SWARM_NODE_NAME="+hc.NodeName)
		}

		resp, err := shellrun.Run(ctx, &shellrun.Request{
			Command: command,
			Dir:     hc.ProjectDir,
			Stdin:   payload,
			Env:     env,
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("hooks: shell hook %q: %w", command, err)
		}
		if resp.TimedOut {
			return nil, fmt.Errorf("hooks: shell hook %q timed out after %ds", command, timeoutSeconds)
		}

		switch resp.ExitCode {
		case 0:
			stdout := strings.TrimSpace(resp.Stdout)
			if stdout == "" {
				return Continue(), nil
			}
			switch hc.Event {
			case EventPreToolUse, EventPostToolUse, EventPreDelegation, EventPostDelegation:
				return Replace(stdout), nil
			case EventSwarmStop:
				return Reprompt(stdout), nil
			}
			return Continue(), nil
		case 2:
			msg := strings.TrimSpace(resp.Stderr)
			if msg == "" {
				msg = fmt.Sprintf("shell hook %q requested halt", command)
			}
			return Halt(msg), nil
		default:
			// Exit 1 (and anything else): warn and continue.
			logger.Warn("shell hook warned",
				zap.String("command", command),
				zap.String("event", string(hc.Event)),
				zap.Int("exit_code", resp.ExitCode),
				zap.String("stderr", strings.TrimSpace(resp.Stderr)))
			return Continue(), nil
		}
	}
}
