// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package events defines the structured log events a swarm emits and
// the collector that fans them out to subscribers. Every event carries a
// type and a UTC timestamp and marshals to one flat JSON object, so a
// subscriber writing newline-delimited JSON produces the canonical
// event stream.
package events

import (
	"time"

	"github.com/teradata-labs/weft/pkg/types"
)

// Type enumerates the event types a swarm can emit.
type Type string

// Event types.
const (
	TypeSwarmStart          Type = "swarm_start"
	TypeSwarmStop           Type = "swarm_stop"
	TypeUserRequest         Type = "user_request"
	TypeLLMStreamDelta      Type = "llm_stream_delta"
	TypeAgentStop           Type = "agent_stop"
	TypeToolCall            Type = "tool_call"
	TypeToolResult          Type = "tool_result"
	TypeAgentDelegation     Type = "agent_delegation"
	TypeDelegationResult    Type = "delegation_result"
	TypeDelegationError     Type = "delegation_error"
	TypeContextLimitWarning Type = "context_limit_warning"
	TypeModelLookupWarning  Type = "model_lookup_warning"
	TypeNodeStart           Type = "node_start"
	TypeNodeStop            Type = "node_stop"
)

// Swarm stop statuses.
const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

// Event is implemented by every log event.
type Event interface {
	// EventType returns the enumerated type.
	EventType() Type

	// OccurredAt returns the emission timestamp (UTC).
	OccurredAt() time.Time
}

// Base carries the fields every event shares. Embed it first so the
// marshalled JSON leads with type and timestamp.
type Base struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// EventType implements Event.
func (b Base) EventType() Type { return b.Type }

// OccurredAt implements Event.
func (b Base) OccurredAt() time.Time { return b.Timestamp }

// NewBase stamps a Base for the given type, now, in UTC.
func NewBase(t Type) Base {
	return Base{Type: t, Timestamp: time.Now().UTC()}
}

// SwarmStart is emitted when Swarm.Execute begins.
type SwarmStart struct {
	Base
	RunID     string `json:"run_id"`
	SwarmName string `json:"swarm_name"`
	LeadAgent string `json:"lead_agent"`
	Prompt    string `json:"prompt"`
}

// SwarmStop is emitted when Swarm.Execute finishes, whatever the outcome.
type SwarmStop struct {
	Base
	Status         string   `json:"status"`
	Duration       float64  `json:"duration"`
	TotalCost      float64  `json:"total_cost"`
	TotalTokens    int      `json:"total_tokens"`
	LLMRequests    int      `json:"llm_requests"`
	ToolCalls      int      `json:"tool_calls"`
	AgentsInvolved []string `json:"agents_involved"`
}

// UserRequest is emitted before each LLM call.
type UserRequest struct {
	Base
	Agent        string   `json:"agent"`
	Model        string   `json:"model"`
	Provider     string   `json:"provider"`
	MessageCount int      `json:"message_count"`
	Tools        []string `json:"tools"`
	DelegatesTo  []string `json:"delegates_to"`
}

// LLMStreamDelta forwards one streamed content fragment.
type LLMStreamDelta struct {
	Base
	Agent        string `json:"agent"`
	ContentDelta string `json:"content_delta"`
}

// AgentStop is emitted after each LLM response.
type AgentStop struct {
	Base
	Agent        string      `json:"agent"`
	Model        string      `json:"model"`
	Content      string      `json:"content"`
	ToolCalls    []string    `json:"tool_calls"`
	FinishReason string      `json:"finish_reason"`
	Usage        types.Usage `json:"usage"`
}

// ToolCall is emitted before each non-delegation tool invocation.
type ToolCall struct {
	Base
	Agent      string                 `json:"agent"`
	ToolCallID string                 `json:"tool_call_id"`
	Tool       string                 `json:"tool"`
	Arguments  map[string]interface{} `json:"arguments"`
}

// ToolResult is emitted after each non-delegation tool invocation.
type ToolResult struct {
	Base
	Agent      string `json:"agent"`
	ToolCallID string `json:"tool_call_id"`
	Result     string `json:"result"`
}

// AgentDelegation is emitted when an agent hands a task to a delegate.
type AgentDelegation struct {
	Base
	Agent      string                 `json:"agent"`
	ToolCallID string                 `json:"tool_call_id"`
	DelegateTo string                 `json:"delegate_to"`
	Arguments  map[string]interface{} `json:"arguments"`
}

// DelegationResult is emitted when a delegate finishes its task.
type DelegationResult struct {
	Base
	Agent        string `json:"agent"`
	DelegateFrom string `json:"delegate_from"`
	ToolCallID   string `json:"tool_call_id"`
	Result       string `json:"result"`
}

// DelegationError is emitted when a delegation fails.
type DelegationError struct {
	Base
	Agent        string `json:"agent"`
	DelegateTo   string `json:"delegate_to"`
	ErrorClass   string `json:"error_class"`
	ErrorMessage string `json:"error_message"`
}

// ContextLimitWarning is emitted the first time an agent crosses a
// context usage threshold (80% or 90%).
type ContextLimitWarning struct {
	Base
	Agent           string  `json:"agent"`
	Threshold       int     `json:"threshold"`
	CurrentUsage    float64 `json:"current_usage"`
	TokensUsed      int     `json:"tokens_used"`
	TokensRemaining int     `json:"tokens_remaining"`
	ContextLimit    int     `json:"context_limit"`
}

// ModelLookupWarning is emitted when an agent's model is not in the
// catalog; Suggestions carries fuzzy-ranked near-misses.
type ModelLookupWarning struct {
	Base
	Agent        string   `json:"agent"`
	Model        string   `json:"model"`
	ErrorMessage string   `json:"error_message"`
	Suggestions  []string `json:"suggestions"`
}

// NodeStart is emitted when a workflow node begins.
type NodeStart struct {
	Base
	Node         string   `json:"node"`
	AgentLess    bool     `json:"agent_less"`
	Agents       []string `json:"agents"`
	Dependencies []string `json:"dependencies"`
}

// NodeStop is emitted when a workflow node finishes or is skipped.
type NodeStop struct {
	Base
	Node      string   `json:"node"`
	AgentLess bool     `json:"agent_less"`
	Skipped   bool     `json:"skipped"`
	Agents    []string `json:"agents"`
	Duration  float64  `json:"duration"`
}
