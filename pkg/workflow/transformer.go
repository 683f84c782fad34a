// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teradata-labs/weft/internal/shellrun"
	"github.com/teradata-labs/weft/pkg/types"
)

// ErrWorkflowHalted is returned when a transformer halts the workflow:
// an in-process transformer error, or a command transformer exiting 2.
var ErrWorkflowHalted = errors.New("workflow: halted by transformer")

// Command transformer exit codes.
const (
	transformerExitSkip = 1
	transformerExitHalt = 2
)

// transformOutcome is the normalized result of running one transformer.
type transformOutcome struct {
	content string
	skip    bool
}

// applyTransformer runs one transformer against the context and
// normalizes its outcome. In-process transformers skip via
// SkipExecution; command transformers receive the context as JSON on
// stdin and steer via exit code (0 replace, 1 skip, 2 halt).
func applyTransformer(ctx context.Context, def *types.TransformerDef, tc *types.TransformerContext) (*transformOutcome, error) {
	if def == nil {
		return &transformOutcome{content: tc.Content}, nil
	}

	if def.Func != nil {
		out, err := def.Func(ctx, tc)
		if err != nil {
			return nil, fmt.Errorf("%w: node %q: %v", ErrWorkflowHalted, tc.Node, err)
		}
		if out == nil {
			return &transformOutcome{content: tc.Content}, nil
		}
		return &transformOutcome{content: out.Content, skip: out.SkipExecution}, nil
	}

	payload, err := json.Marshal(tc)
	if err != nil {
		return nil, fmt.Errorf("workflow: node %q: marshal transformer context: %w", tc.Node, err)
	}

	timeout := def.TimeoutSeconds
	if timeout <= 0 {
		timeout = types.DefaultTransformerTimeout
	}

	resp, err := shellrun.Run(ctx, &shellrun.Request{
		Command: def.Command,
		Stdin:   payload,
		Env:     []string{"SWARM_NODE_NAME=" + tc.Node},
		Timeout: time.Duration(timeout) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("workflow: node %q: transformer command: %w", tc.Node, err)
	}
	if resp.TimedOut {
		return nil, fmt.Errorf("%w: node %q: transformer timed out after %ds", ErrWorkflowHalted, tc.Node, timeout)
	}

	switch resp.ExitCode {
	case 0:
		return &transformOutcome{content: strings.TrimRight(resp.Stdout, "\n")}, nil
	case transformerExitSkip:
		return &transformOutcome{content: strings.TrimRight(resp.Stdout, "\n"), skip: true}, nil
	case transformerExitHalt:
		msg := strings.TrimSpace(resp.Stderr)
		if msg == "" {
			msg = "transformer requested halt"
		}
		return nil, fmt.Errorf("%w: node %q: %s", ErrWorkflowHalted, tc.Node, msg)
	default:
		return nil, fmt.Errorf("%w: node %q: transformer exited %d: %s",
			ErrWorkflowHalted, tc.Node, resp.ExitCode, strings.TrimSpace(resp.Stderr))
	}
}
