// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package swarm

import "github.com/teradata-labs/weft/pkg/events"

// Result is the outcome of one Swarm.Execute call.
type Result struct {
	// RunID uniquely identifies this run; it matches the swarm_start
	// event's run_id.
	RunID string `json:"run_id"`

	// Content is the lead agent's final assistant message.
	Content string `json:"content"`

	// Agent is the lead agent's name.
	Agent string `json:"agent"`

	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	// Logs is the complete event stream of the run, in emission order.
	Logs []events.Event `json:"logs"`

	TotalCost      float64  `json:"total_cost"`
	TotalTokens    int      `json:"total_tokens"`
	LLMRequests    int      `json:"llm_requests"`
	ToolCallsCount int      `json:"tool_calls_count"`
	AgentsInvolved []string `json:"agents_involved"`

	// Duration of the run in seconds.
	Duration float64 `json:"duration"`
}

type aggregates struct {
	totalCost   float64
	totalTokens int
	llmRequests int
	toolCalls   int
	agents      []string
}

// aggregate folds the run log into totals. Each agent_stop carries one
// LLM response's usage; tool calls count regular invocations and
// delegations alike.
func aggregate(log []events.Event) aggregates {
	var agg aggregates
	seen := make(map[string]bool)

	for _, ev := range log {
		switch e := ev.(type) {
		case *events.AgentStop:
			agg.llmRequests++
			agg.totalCost += e.Usage.TotalCost
			agg.totalTokens += e.Usage.TotalTokens
			if !seen[e.Agent] {
				seen[e.Agent] = true
				agg.agents = append(agg.agents, e.Agent)
			}
		case *events.ToolCall:
			agg.toolCalls++
		case *events.AgentDelegation:
			agg.toolCalls++
		}
	}
	return agg
}
