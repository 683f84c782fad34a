// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package workflow runs a DAG of nodes, each node a disposable sub-swarm
// built from a subset of the agent pool, with optional input/output
// transformers rewriting the content flowing between nodes.
package workflow

import (
	"errors"
	"fmt"

	"github.com/teradata-labs/weft/pkg/types"
)

// Graph validation errors.
var (
	ErrCycleDetected     = errors.New("workflow: dependency cycle detected")
	ErrDuplicateNode     = errors.New("workflow: duplicate node name")
	ErrUnknownDependency = errors.New("workflow: unknown dependency")
	ErrUnknownStartNode  = errors.New("workflow: unknown start node")
)

// NodeGraph is a validated workflow DAG.
type NodeGraph struct {
	name   string
	start  string
	nodes  []*types.NodeDefinition
	byName map[string]*types.NodeDefinition
}

// NewGraph validates the node set and returns the graph. Checks: unique
// names, node-local constraints, known dependencies, a known start node
// without dependencies, and acyclicity.
func NewGraph(name, start string, nodes []*types.NodeDefinition) (*NodeGraph, error) {
	if name == "" {
		return nil, errors.New("workflow: name is required")
	}
	if len(nodes) == 0 {
		return nil, errors.New("workflow: at least one node is required")
	}

	byName := make(map[string]*types.NodeDefinition, len(nodes))
	for _, node := range nodes {
		if err := node.Validate(); err != nil {
			return nil, fmt.Errorf("workflow: %w", err)
		}
		if _, dup := byName[node.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNode, node.Name)
		}
		byName[node.Name] = node
	}
	for _, node := range nodes {
		for _, dep := range node.DependsOn {
			if _, ok := byName[dep]; !ok {
				return nil, fmt.Errorf("%w: node %q depends on %q", ErrUnknownDependency, node.Name, dep)
			}
		}
	}

	startNode, ok := byName[start]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStartNode, start)
	}
	if len(startNode.DependsOn) > 0 {
		return nil, fmt.Errorf("workflow: start node %q must not have dependencies", start)
	}

	g := &NodeGraph{name: name, start: start, nodes: nodes, byName: byName}
	if cycle := g.findCycle(); cycle != nil {
		return nil, fmt.Errorf("%w: %v", ErrCycleDetected, cycle)
	}
	return g, nil
}

// Name returns the workflow name.
func (g *NodeGraph) Name() string { return g.name }

// Start returns the start node's name.
func (g *NodeGraph) Start() string { return g.start }

// Node returns the named node definition.
func (g *NodeGraph) Node(name string) (*types.NodeDefinition, bool) {
	n, ok := g.byName[name]
	return n, ok
}

// Nodes returns the node definitions in declaration order.
func (g *NodeGraph) Nodes() []*types.NodeDefinition {
	out := make([]*types.NodeDefinition, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// findCycle DFS-checks the depends_on graph and returns one cycle path,
// or nil.
func (g *NodeGraph) findCycle() []string {
	const (
		unvisited = iota
		visiting
		done
	)
	states := make(map[string]int, len(g.nodes))
	var cycle []string

	var visit func(name string, path []string) bool
	visit = func(name string, path []string) bool {
		switch states[name] {
		case visiting:
			cycle = append(append([]string{}, path...), name)
			return true
		case done:
			return false
		}
		states[name] = visiting
		for _, dep := range g.byName[name].DependsOn {
			if visit(dep, append(path, name)) {
				return true
			}
		}
		states[name] = done
		return false
	}

	for _, node := range g.nodes {
		if states[node.Name] == unvisited && visit(node.Name, nil) {
			return cycle
		}
	}
	return nil
}

// TopoOrder returns every node name in execution order: a node appears
// only after all its dependencies, and among simultaneously ready nodes
// declaration order decides.
func (g *NodeGraph) TopoOrder() []string {
	remaining := make(map[string]int, len(g.nodes))
	for _, node := range g.nodes {
		remaining[node.Name] = len(node.DependsOn)
	}

	order := make([]string, 0, len(g.nodes))
	done := make(map[string]bool, len(g.nodes))
	for len(order) < len(g.nodes) {
		progressed := false
		for _, node := range g.nodes {
			if done[node.Name] || remaining[node.Name] != 0 {
				continue
			}
			done[node.Name] = true
			order = append(order, node.Name)
			progressed = true
			for _, other := range g.nodes {
				for _, dep := range other.DependsOn {
					if dep == node.Name {
						remaining[other.Name]--
					}
				}
			}
		}
		if !progressed {
			// Unreachable: NewGraph rejected cycles.
			break
		}
	}
	return order
}
