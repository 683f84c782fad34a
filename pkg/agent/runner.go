// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package agent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/weft/pkg/events"
	"github.com/teradata-labs/weft/pkg/hooks"
	"github.com/teradata-labs/weft/pkg/llm"
	"github.com/teradata-labs/weft/pkg/types"
)

// DelegateResolver finds the runner for a delegate agent by name. The
// swarm implements this; delegation tools hold names, never pointers, so
// mutually delegating agents need no back references.
type DelegateResolver interface {
	RunnerFor(name string) (*Runner, bool)
}

// RunnerConfig wires one agent's runner into the swarm.
type RunnerConfig struct {
	Agent    *Agent
	Driver   types.LLMDriver
	Hooks    *hooks.Registry
	Events   *events.Collector
	Resolver DelegateResolver

	// Global is the swarm-wide semaphore, acquired around every LLM
	// call and (before the local slot) around every tool task.
	Global chan struct{}

	// Swarm is the read-only handle passed to hook contexts.
	Swarm hooks.SwarmInfo

	// NodeName marks runners created inside a workflow node; hook
	// contexts carry it through to shell hooks.
	NodeName string

	// Retry policy for transient driver failures (default
	// llm.DefaultRetryPolicy).
	Retry *llm.RetryPolicy

	Logger *zap.Logger
}

// Runner executes turns for one agent.
type Runner struct {
	agent    *Agent
	driver   types.LLMDriver
	hooks    *hooks.Registry
	events   *events.Collector
	resolver DelegateResolver
	global   chan struct{}
	swarm    hooks.SwarmInfo
	nodeName string
	retry    *llm.RetryPolicy
	counter  *llm.TokenCounter
	logger   *zap.Logger
}

// NewRunner creates a runner from the config, defaulting the logger and
// retry policy.
func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	retry := cfg.Retry
	if retry == nil {
		retry = llm.DefaultRetryPolicy()
	}
	return &Runner{
		agent:    cfg.Agent,
		driver:   cfg.Driver,
		hooks:    cfg.Hooks,
		events:   cfg.Events,
		resolver: cfg.Resolver,
		global:   cfg.Global,
		swarm:    cfg.Swarm,
		nodeName: cfg.NodeName,
		retry:    retry,
		counter:  llm.GetTokenCounter(),
		logger:   logger,
	}
}

// Agent returns the runner's agent.
func (r *Runner) Agent() *Agent { return r.agent }

// Ask runs one agent turn to completion: reminders, prompt hooks, then
// the drive-and-tools loop until the model stops calling tools. The
// returned message is the agent's final assistant message.
//
// Only driver failures return an error (as *LLMError); every tool-level
// failure is folded into the conversation as data.
func (r *Runner) Ask(ctx context.Context, prompt string) (types.Message, error) {
	a := r.agent

	if !a.firstTurnDone {
		a.appendMessage(types.NewUserMessage(beforeFirstMessageReminder))
		a.appendMessage(types.NewUserMessage(prompt))
		a.appendMessage(types.NewUserMessage(afterFirstMessageReminder))
		a.firstTurnDone = true
	} else {
		if a.messagesSinceTodo >= todoReminderInterval {
			a.appendMessage(types.NewUserMessage(periodicTodoReminder))
		}
		a.appendMessage(types.NewUserMessage(prompt))
	}

	if !a.firstMessageFired {
		a.firstMessageFired = true
		if res := r.fire(ctx, &hooks.Context{
			Event:  hooks.EventFirstMessage,
			Agent:  a.Name(),
			Prompt: prompt,
		}); res.Kind == hooks.KindHalt {
			return r.haltMessage(res.Message), nil
		}
	}
	if res := r.fire(ctx, &hooks.Context{
		Event:  hooks.EventUserPrompt,
		Agent:  a.Name(),
		Prompt: prompt,
	}); res.Kind == hooks.KindHalt {
		return r.haltMessage(res.Message), nil
	}

	return r.complete(ctx)
}

// haltMessage synthesizes the assistant message a halt produces and
// appends it to the history.
func (r *Runner) haltMessage(text string) types.Message {
	msg := types.Message{
		Role:      types.RoleAssistant,
		Content:   text,
		Timestamp: time.Now().UTC(),
	}
	r.agent.appendMessage(msg)
	return msg
}

// complete drives the LLM until it stops requesting tools.
func (r *Runner) complete(ctx context.Context) (types.Message, error) {
	a := r.agent

	for {
		if err := ctx.Err(); err != nil {
			return types.Message{}, &LLMError{Agent: a.Name(), Err: err}
		}

		r.events.Emit(&events.UserRequest{
			Base:         events.NewBase(events.TypeUserRequest),
			Agent:        a.Name(),
			Model:        a.def.Model,
			Provider:     a.def.Provider,
			MessageCount: a.MessageCount(),
			Tools:        a.ToolNames(),
			DelegatesTo:  a.def.DelegatesTo,
		})

		resp, err := r.chat(ctx)
		if err != nil {
			return types.Message{}, &LLMError{Agent: a.Name(), Err: err}
		}

		r.fillUsage(resp)
		for _, threshold := range a.recordUsage(resp.Usage) {
			r.emitContextWarning(ctx, threshold, resp.Usage.TotalTokens)
		}

		callNames := make([]string, len(resp.ToolCalls))
		for i, c := range resp.ToolCalls {
			callNames[i] = c.Name
		}
		r.events.Emit(&events.AgentStop{
			Base:         events.NewBase(events.TypeAgentStop),
			Agent:        a.Name(),
			Model:        resp.Model,
			Content:      resp.Content,
			ToolCalls:    callNames,
			FinishReason: resp.FinishReason,
			Usage:        resp.Usage,
		})
		r.fire(ctx, &hooks.Context{
			Event: hooks.EventAgentStop,
			Agent: a.Name(),
		})

		msg := types.NewAssistantMessage(resp)
		a.appendMessage(msg)

		if len(resp.ToolCalls) == 0 {
			return msg, nil
		}

		a.noteDelegationCalls(resp.ToolCalls)
		results := r.runToolCalls(ctx, resp.ToolCalls)
		for _, res := range results {
			a.appendMessage(types.NewToolMessage(res))
		}
	}
}

// chat performs one driver call under the global semaphore, with the
// per-agent timeout and the retry policy. Streaming drivers forward
// their deltas as llm_stream_delta events.
func (r *Runner) chat(ctx context.Context) (*types.LLMResponse, error) {
	if err := acquire(ctx, r.global); err != nil {
		return nil, err
	}
	defer release(r.global)

	callCtx := ctx
	if r.agent.def.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, time.Duration(r.agent.def.Timeout)*time.Second)
		defer cancel()
	}

	messages := r.agent.Messages()
	toolset := r.agent.Tools()
	params := r.agent.def.Parameters

	var resp *types.LLMResponse
	err := r.retry.Do(callCtx, func(ctx context.Context) error {
		var callErr error
		if streamer, ok := r.driver.(types.StreamingLLMDriver); ok {
			resp, callErr = streamer.ChatStream(ctx, messages, toolset, params, func(delta string) {
				r.events.Emit(&events.LLMStreamDelta{
					Base:         events.NewBase(events.TypeLLMStreamDelta),
					Agent:        r.agent.Name(),
					ContentDelta: delta,
				})
			})
		} else {
			resp, callErr = r.driver.Chat(ctx, messages, toolset, params)
		}
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// fillUsage estimates token counts when the driver reported none and
// prices the call from the catalog when it reported no cost.
func (r *Runner) fillUsage(resp *types.LLMResponse) {
	if resp.Usage.TotalTokens == 0 {
		resp.Usage.InputTokens = r.counter.CountMessages(r.agent.Messages())
		resp.Usage.OutputTokens = r.counter.CountText(resp.Content)
		resp.Usage.TotalTokens = resp.Usage.InputTokens + resp.Usage.OutputTokens
	}
	if resp.Usage.TotalCost == 0 {
		if info, ok := llm.Lookup(r.agent.def.Model); ok {
			in, out := info.Cost(resp.Usage.InputTokens, resp.Usage.OutputTokens)
			resp.Usage.InputCost = in
			resp.Usage.OutputCost = out
			resp.Usage.TotalCost = in + out
		}
	}
}

// emitContextWarning emits the context_limit_warning event and fires the
// context_warning hook for one first-crossed threshold.
func (r *Runner) emitContextWarning(ctx context.Context, threshold, tokensUsed int) {
	a := r.agent
	r.events.Emit(&events.ContextLimitWarning{
		Base:            events.NewBase(events.TypeContextLimitWarning),
		Agent:           a.Name(),
		Threshold:       threshold,
		CurrentUsage:    float64(tokensUsed) / float64(a.contextWindow) * 100,
		TokensUsed:      tokensUsed,
		TokensRemaining: a.contextWindow - tokensUsed,
		ContextLimit:    a.contextWindow,
	})
	r.fire(ctx, &hooks.Context{
		Event: hooks.EventContextWarning,
		Agent: a.Name(),
	})
	r.logger.Warn("context limit warning",
		zap.String("agent", a.Name()),
		zap.Int("threshold", threshold),
		zap.Int("tokens_used", tokensUsed),
		zap.Int("context_limit", a.contextWindow))
}

// fire dispatches a hook event, filling the shared context fields.
func (r *Runner) fire(ctx context.Context, hc *hooks.Context) *hooks.Result {
	if r.hooks == nil {
		return hooks.Continue()
	}
	hc.Swarm = r.swarm
	hc.ProjectDir = r.agent.def.Directory
	hc.NodeName = r.nodeName
	return r.hooks.Dispatch(ctx, hc)
}

// acquire takes one slot from sem, honoring cancellation. A nil
// semaphore is unlimited.
func acquire(ctx context.Context, sem chan struct{}) error {
	if sem == nil {
		return nil
	}
	select {
	case sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func release(sem chan struct{}) {
	if sem != nil {
		<-sem
	}
}
