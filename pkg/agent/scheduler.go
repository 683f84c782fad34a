// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/teradata-labs/weft/pkg/events"
	"github.com/teradata-labs/weft/pkg/hooks"
	"github.com/teradata-labs/weft/pkg/tools"
	"github.com/teradata-labs/weft/pkg/types"
)

// runToolCalls executes one turn's tool calls and returns their results
// in the assistant-requested order, regardless of completion order.
//
// A single call runs inline under the local semaphore only. Multiple
// calls fan out to goroutines, each acquiring the global semaphore and
// then the agent's local slot (delegations take only the local slot; the
// delegate's own LLM calls acquire their own global slots).
func (r *Runner) runToolCalls(ctx context.Context, calls []types.ToolCall) []types.ToolResult {
	results := make([]types.ToolResult, len(calls))

	if len(calls) == 1 {
		results[0] = r.guardedCall(ctx, calls[0], false)
		return results
	}

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call types.ToolCall) {
			defer wg.Done()
			results[i] = r.guardedCall(ctx, call, true)
		}(i, call)
	}
	wg.Wait()
	return results
}

// guardedCall runs one call under the applicable semaphores.
func (r *Runner) guardedCall(ctx context.Context, call types.ToolCall, useGlobal bool) types.ToolResult {
	if target, ok := r.agent.delegationTarget(call.ID); ok {
		if err := acquire(ctx, r.agent.local); err != nil {
			return cancelledResult(call)
		}
		defer release(r.agent.local)
		return r.runDelegation(ctx, call, target)
	}

	if useGlobal {
		if err := acquire(ctx, r.global); err != nil {
			return cancelledResult(call)
		}
		defer release(r.global)
	}
	if err := acquire(ctx, r.agent.local); err != nil {
		return cancelledResult(call)
	}
	defer release(r.agent.local)
	return r.runTool(ctx, call)
}

// runTool executes one regular tool call: pre_tool_use hook, argument
// validation, invocation, post_tool_use hook, tool_call/tool_result
// events. Failures are data in the returned result.
func (r *Runner) runTool(ctx context.Context, call types.ToolCall) types.ToolResult {
	agentName := r.agent.Name()

	pre := r.fire(ctx, &hooks.Context{
		Event:    hooks.EventPreToolUse,
		Agent:    agentName,
		ToolCall: &call,
	})
	switch pre.Kind {
	case hooks.KindHalt:
		return types.ToolResult{
			ToolCallID: call.ID,
			Content:    pre.Message,
			Success:    false,
			Error:      pre.Message,
		}
	case hooks.KindReplace:
		res := types.ToolResult{ToolCallID: call.ID, Content: pre.Value, Success: true}
		r.emitToolEvents(call, res)
		return res
	}

	r.events.Emit(&events.ToolCall{
		Base:       events.NewBase(events.TypeToolCall),
		Agent:      agentName,
		ToolCallID: call.ID,
		Tool:       call.Name,
		Arguments:  call.Arguments,
	})

	result := r.invokeTool(ctx, call)

	post := r.fire(ctx, &hooks.Context{
		Event:      hooks.EventPostToolUse,
		Agent:      agentName,
		ToolCall:   &call,
		ToolResult: &result,
	})
	if post.Kind == hooks.KindReplace {
		result.Content = post.Value
		result.Success = true
		result.Error = ""
	}

	r.events.Emit(&events.ToolResult{
		Base:       events.NewBase(events.TypeToolResult),
		Agent:      agentName,
		ToolCallID: call.ID,
		Result:     result.Content,
	})
	return result
}

// invokeTool looks up and runs the tool, converting every failure mode
// into a structured result.
func (r *Runner) invokeTool(ctx context.Context, call types.ToolCall) types.ToolResult {
	tool, ok := r.agent.registry.Get(call.Name)
	if !ok {
		msg := fmt.Sprintf("unknown tool %q", call.Name)
		return types.ToolResult{ToolCallID: call.ID, Content: msg, Success: false, Error: msg}
	}

	if err := tools.ValidateArguments(tool.InputSchema(), call.Arguments); err != nil {
		return types.ToolResult{
			ToolCallID: call.ID,
			Content:    err.Error(),
			Success:    false,
			Error:      err.Error(),
		}
	}

	res, err := tool.Execute(ctx, call.Arguments)
	if err != nil {
		if ctx.Err() != nil {
			return cancelledResult(call)
		}
		return types.ToolResult{
			ToolCallID: call.ID,
			Content:    err.Error(),
			Success:    false,
			Error:      err.Error(),
		}
	}

	out := types.ToolResult{
		ToolCallID: call.ID,
		Content:    res.ContentString(),
		Success:    res.Success,
	}
	if !res.Success && res.Error != nil {
		out.Error = res.Error.Message
	}
	return out
}

// emitToolEvents logs a tool call that was answered without invocation
// (hook replacement), keeping the event stream complete.
func (r *Runner) emitToolEvents(call types.ToolCall, result types.ToolResult) {
	r.events.Emit(&events.ToolCall{
		Base:       events.NewBase(events.TypeToolCall),
		Agent:      r.agent.Name(),
		ToolCallID: call.ID,
		Tool:       call.Name,
		Arguments:  call.Arguments,
	})
	r.events.Emit(&events.ToolResult{
		Base:       events.NewBase(events.TypeToolResult),
		Agent:      r.agent.Name(),
		ToolCallID: call.ID,
		Result:     result.Content,
	})
}

// runDelegation hands a task to a delegate agent and returns its final
// content as the tool result. Fires pre_delegation/post_delegation, and
// never the tool hooks.
func (r *Runner) runDelegation(ctx context.Context, call types.ToolCall, target string) types.ToolResult {
	agentName := r.agent.Name()

	pre := r.fire(ctx, &hooks.Context{
		Event:            hooks.EventPreDelegation,
		Agent:            agentName,
		ToolCall:         &call,
		DelegationTarget: target,
	})
	switch pre.Kind {
	case hooks.KindHalt:
		return types.ToolResult{
			ToolCallID: call.ID,
			Content:    pre.Message,
			Success:    false,
			Error:      pre.Message,
		}
	case hooks.KindReplace:
		// Skip the delegate entirely.
		return types.ToolResult{ToolCallID: call.ID, Content: pre.Value, Success: true}
	}

	r.events.Emit(&events.AgentDelegation{
		Base:       events.NewBase(events.TypeAgentDelegation),
		Agent:      agentName,
		ToolCallID: call.ID,
		DelegateTo: target,
		Arguments:  call.Arguments,
	})

	task, _ := call.Arguments["task"].(string)
	if task == "" {
		msg := "delegation requires a task argument"
		return types.ToolResult{ToolCallID: call.ID, Content: msg, Success: false, Error: msg}
	}

	delegate, ok := r.resolver.RunnerFor(target)
	if !ok {
		msg := fmt.Sprintf("unknown delegate agent %q", target)
		r.emitDelegationError(target, "UnknownAgent", msg)
		return types.ToolResult{ToolCallID: call.ID, Content: msg, Success: false, Error: msg}
	}

	reply, err := delegate.Ask(ctx, task)
	if err != nil {
		if ctx.Err() != nil {
			return cancelledResult(call)
		}
		r.emitDelegationError(target, fmt.Sprintf("%T", err), err.Error())
		return types.ToolResult{
			ToolCallID: call.ID,
			Content:    err.Error(),
			Success:    false,
			Error:      err.Error(),
		}
	}

	content := reply.Content
	post := r.fire(ctx, &hooks.Context{
		Event:            hooks.EventPostDelegation,
		Agent:            agentName,
		ToolCall:         &call,
		DelegationTarget: target,
		DelegationResult: content,
	})
	if post.Kind == hooks.KindReplace {
		content = post.Value
	}

	r.events.Emit(&events.DelegationResult{
		Base:         events.NewBase(events.TypeDelegationResult),
		Agent:        agentName,
		DelegateFrom: target,
		ToolCallID:   call.ID,
		Result:       content,
	})

	return types.ToolResult{ToolCallID: call.ID, Content: content, Success: true}
}

func (r *Runner) emitDelegationError(target, class, message string) {
	r.events.Emit(&events.DelegationError{
		Base:         events.NewBase(events.TypeDelegationError),
		Agent:        r.agent.Name(),
		DelegateTo:   target,
		ErrorClass:   class,
		ErrorMessage: message,
	})
}

func cancelledResult(call types.ToolCall) types.ToolResult {
	return types.ToolResult{
		ToolCallID: call.ID,
		Content:    "cancelled",
		Success:    false,
		Error:      "cancelled",
	}
}
