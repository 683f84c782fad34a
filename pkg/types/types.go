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

// Package types holds the shared data model of the weft core: messages,
// tool calls, usage accounting, and the capability interfaces the core
// depends on (LLM drivers and tool sources). Keeping these here breaks
// import cycles between the agent, swarm, and workflow packages.
package types

import (
	"time"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry in an agent's conversation history.
// Messages are immutable once appended.
type Message struct {
	// Role is one of system, user, assistant, or tool.
	Role string `json:"role"`

	// Content is the text content.
	Content string `json:"content"`

	// ToolCalls holds the tool invocations requested by an assistant
	// message, in the order the model listed them.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID links a tool-role message to the call it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// Timestamp records when the message was appended.
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	// ID is unique within one assistant turn.
	ID string `json:"id"`

	// Name is the tool name as the model sees it.
	Name string `json:"name"`

	// Arguments is the structured input matching the tool's schema.
	Arguments map[string]interface{} `json:"arguments"`
}

// ToolResult is the outcome of one tool call, fed back to the model as a
// tool-role message. Errors are data, not exceptions: a failed call sets
// Success false and carries the error text in Error and Content.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// Usage captures token and cost accounting for one LLM call.
type Usage struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	InputCost    float64 `json:"input_cost"`
	OutputCost   float64 `json:"output_cost"`
	TotalCost    float64 `json:"total_cost"`
}

// Add folds another usage record into this one.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
	u.InputCost += other.InputCost
	u.OutputCost += other.OutputCost
	u.TotalCost += other.TotalCost
}

// LLMResponse is one chat completion from a driver.
type LLMResponse struct {
	// Content is the assistant text (may be empty when the model only
	// calls tools).
	Content string `json:"content"`

	// ToolCalls lists requested tool invocations in model order.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// FinishReason is the provider's stop reason (end_turn, tool_use, …).
	FinishReason string `json:"finish_reason"`

	// Usage holds token counts and cost for this call.
	Usage Usage `json:"usage"`

	// Model is the model that produced the response.
	Model string `json:"model,omitempty"`
}

// NewUserMessage builds a user message stamped now.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: time.Now().UTC()}
}

// NewSystemMessage builds a system message stamped now.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content, Timestamp: time.Now().UTC()}
}

// NewAssistantMessage builds an assistant message from a driver response.
func NewAssistantMessage(resp *LLMResponse) Message {
	return Message{
		Role:      RoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
		Timestamp: time.Now().UTC(),
	}
}

// NewToolMessage builds a tool-role message from a tool result.
func NewToolMessage(result ToolResult) Message {
	return Message{
		Role:       RoleTool,
		Content:    result.Content,
		ToolCallID: result.ToolCallID,
		Timestamp:  time.Now().UTC(),
	}
}
