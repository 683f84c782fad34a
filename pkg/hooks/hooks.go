// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package hooks implements weft's lifecycle callback system. Callbacks
// register for typed events with a priority and an optional matcher, and
// can steer execution: halt an operation, replace its value, or reprompt
// the lead agent when the swarm stops. Callback failures never crash the
// swarm; they convert to halts the caller observes as data.
package hooks

import (
	"context"
	"fmt"

	"github.com/teradata-labs/weft/pkg/types"
)

// Event identifies a lifecycle point callbacks can attach to.
type Event string

// Lifecycle events.
const (
	EventSwarmStart     Event = "swarm_start"
	EventFirstMessage   Event = "first_message"
	EventUserPrompt     Event = "user_prompt"
	EventAgentStop      Event = "agent_stop"
	EventPreToolUse     Event = "pre_tool_use"
	EventPostToolUse    Event = "post_tool_use"
	EventPreDelegation  Event = "pre_delegation"
	EventPostDelegation Event = "post_delegation"
	EventContextWarning Event = "context_warning"
	EventSwarmStop      Event = "swarm_stop"
)

// ValidEvent reports whether e is a recognized event.
func ValidEvent(e Event) bool {
	switch e {
	case EventSwarmStart, EventFirstMessage, EventUserPrompt, EventAgentStop,
		EventPreToolUse, EventPostToolUse, EventPreDelegation,
		EventPostDelegation, EventContextWarning, EventSwarmStop:
		return true
	}
	return false
}

// Kind discriminates the steering outcomes a callback can return.
type Kind int

// Steering outcomes.
const (
	// KindContinue proceeds to the next callback (a nil *Result means
	// the same).
	KindContinue Kind = iota

	// KindHalt stops the operation; Message becomes the visible outcome.
	KindHalt

	// KindReplace substitutes Value for the operation's result and skips
	// the operation where it has not run yet.
	KindReplace

	// KindReprompt restarts the lead agent with Prompt. Only valid for
	// swarm_stop.
	KindReprompt
)

// Result is a callback's steering decision.
type Result struct {
	Kind    Kind
	Message string
	Value   string
	Prompt  string
}

// Continue returns a pass-through result.
func Continue() *Result { return &Result{Kind: KindContinue} }

// Halt stops the operation with the given message.
func Halt(message string) *Result { return &Result{Kind: KindHalt, Message: message} }

// Replace substitutes value for the operation's result.
func Replace(value string) *Result { return &Result{Kind: KindReplace, Value: value} }

// Reprompt restarts the lead agent with a new prompt (swarm_stop only).
func Reprompt(prompt string) *Result { return &Result{Kind: KindReprompt, Prompt: prompt} }

// Steers reports whether the result ends dispatch.
func (r *Result) Steers() bool {
	return r != nil && r.Kind != KindContinue
}

// SwarmInfo is the narrow view of the owning swarm handed to callbacks.
type SwarmInfo interface {
	// Name returns the swarm name.
	Name() string

	// AgentNames returns the names of all agents in the swarm.
	AgentNames() []string
}

// Context carries the state of the firing lifecycle point. Callbacks may
// read everything and write Metadata; later callbacks in the chain see
// earlier callbacks' metadata.
type Context struct {
	// Event is the lifecycle point being dispatched.
	Event Event

	// Agent is the name of the agent the event concerns.
	Agent string

	// Prompt carries the user prompt for swarm_start, first_message,
	// user_prompt, and swarm_stop events.
	Prompt string

	// ToolCall is set for pre_tool_use/post_tool_use and the delegation
	// events.
	ToolCall *types.ToolCall

	// ToolResult is set for post_tool_use.
	ToolResult *types.ToolResult

	// DelegationTarget is the delegate agent name for delegation events.
	DelegationTarget string

	// DelegationResult is the delegate's final content for
	// post_delegation.
	DelegationResult string

	// Swarm is a read-only handle on the owning swarm.
	Swarm SwarmInfo

	// ProjectDir is the agent's working directory, exported to shell
	// hooks as SWARM_PROJECT_DIR.
	ProjectDir string

	// NodeName is set when the event fires inside a workflow node,
	// exported to shell hooks as SWARM_NODE_NAME.
	NodeName string

	// Metadata is shared scratch space across the callback chain.
	Metadata map[string]interface{}
}

// MatcherSubject returns the string matchers are evaluated against: the
// tool name for tool events, the delegate name for delegation events,
// empty otherwise (matching everything).
func (c *Context) MatcherSubject() string {
	switch c.Event {
	case EventPreToolUse, EventPostToolUse:
		if c.ToolCall != nil {
			return c.ToolCall.Name
		}
	case EventPreDelegation, EventPostDelegation:
		return c.DelegationTarget
	}
	return ""
}

// Callback is one registered hook. Returning a nil Result (or a Continue
// result) passes control to the next callback; returning an error halts
// the operation with the error message.
type Callback func(ctx context.Context, hc *Context) (*Result, error)

// repromptAllowed reports whether the event may be steered by Reprompt.
func repromptAllowed(e Event) bool { return e == EventSwarmStop }

// validateResult rejects steering results the event does not permit.
func validateResult(e Event, r *Result) error {
	if r != nil && r.Kind == KindReprompt && !repromptAllowed(e) {
		return fmt.Errorf("hooks: reprompt is only valid for swarm_stop, not %s", e)
	}
	return nil
}
