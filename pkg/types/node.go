// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package types

import (
	"context"
	"fmt"
)

// DefaultTransformerTimeout bounds command transformers, in seconds.
const DefaultTransformerTimeout = 60

// TransformerContext is the input handed to node transformers.
type TransformerContext struct {
	// Node is the node being transformed for.
	Node string `json:"node"`

	// Content is the working text: the previous node's transformed
	// output, or the original prompt for nodes without dependencies.
	Content string `json:"content"`

	// OriginalPrompt is the prompt the workflow was started with.
	OriginalPrompt string `json:"original_prompt"`

	// AllResults maps completed node names to their results.
	AllResults map[string]NodeResult `json:"all_results"`

	// Dependencies lists the node's depends_on entries.
	Dependencies []string `json:"dependencies"`
}

// TransformerOutput is what an in-process transformer returns.
type TransformerOutput struct {
	// Content is the transformed text.
	Content string `json:"content"`

	// SkipExecution short-circuits the node: no sub-swarm runs and
	// Content becomes the node's result.
	SkipExecution bool `json:"skip_execution"`
}

// TransformerFunc is an in-process transformer. Returning an error halts
// the whole workflow.
type TransformerFunc func(ctx context.Context, tc *TransformerContext) (*TransformerOutput, error)

// TransformerDef declares a node transformer: exactly one of Func or
// Command. Command transformers receive the TransformerContext as JSON
// on stdin; exit 0 replaces content with stdout, exit 1 skips the node,
// exit 2 halts the workflow.
type TransformerDef struct {
	Func    TransformerFunc `yaml:"-" json:"-"`
	Command string          `yaml:"command,omitempty" json:"command,omitempty"`

	// TimeoutSeconds bounds Command execution (default 60).
	TimeoutSeconds int `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// Validate checks that exactly one transformer kind is set.
func (t *TransformerDef) Validate() error {
	if t == nil {
		return nil
	}
	if t.Func != nil && t.Command != "" {
		return fmt.Errorf("transformer declares both a function and a command")
	}
	if t.Func == nil && t.Command == "" {
		return fmt.Errorf("transformer declares neither a function nor a command")
	}
	return nil
}

// NodeDefinition is one stage in a workflow DAG. Each node runs a
// disposable sub-swarm built from the listed agents.
type NodeDefinition struct {
	// Name is unique within the workflow.
	Name string `yaml:"-" json:"name"`

	// Agents lists the agent names participating in this node. Empty is
	// allowed for pure transformer nodes.
	Agents []string `yaml:"agents,omitempty" json:"agents,omitempty"`

	// Lead is the node's lead agent; defaults to the first declared.
	Lead string `yaml:"lead,omitempty" json:"lead,omitempty"`

	// DependsOn lists upstream node names.
	DependsOn []string `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`

	// InputTransformer rewrites the node input before execution.
	InputTransformer *TransformerDef `yaml:"input_transformer,omitempty" json:"input_transformer,omitempty"`

	// OutputTransformer rewrites the node output after execution.
	OutputTransformer *TransformerDef `yaml:"output_transformer,omitempty" json:"output_transformer,omitempty"`
}

// AgentLess reports whether the node declares no agents.
func (n *NodeDefinition) AgentLess() bool {
	return len(n.Agents) == 0
}

// Validate checks structural constraints local to the node. Cross-node
// checks (unknown dependencies, cycles) happen in the workflow graph.
func (n *NodeDefinition) Validate() error {
	if n.Name == "" {
		return fmt.Errorf("node name is required")
	}
	if n.AgentLess() && n.InputTransformer == nil && n.OutputTransformer == nil {
		return fmt.Errorf("node %q: agent-less nodes need at least one transformer", n.Name)
	}
	if n.Lead == "" && len(n.Agents) > 0 {
		n.Lead = n.Agents[0]
	}
	if n.Lead != "" {
		found := false
		for _, a := range n.Agents {
			if a == n.Lead {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("node %q: lead %q is not among the node's agents", n.Name, n.Lead)
		}
	}
	if err := n.InputTransformer.Validate(); err != nil {
		return fmt.Errorf("node %q: input transformer: %w", n.Name, err)
	}
	if err := n.OutputTransformer.Validate(); err != nil {
		return fmt.Errorf("node %q: output transformer: %w", n.Name, err)
	}
	return nil
}

// NodeResult is the outcome of one node execution.
type NodeResult struct {
	Content  string  `json:"content"`
	Agent    string  `json:"agent,omitempty"`
	Success  bool    `json:"success"`
	Skipped  bool    `json:"skipped,omitempty"`
	Duration float64 `json:"duration"`
	Usage    Usage   `json:"usage"`
	Error    string  `json:"error,omitempty"`
}
