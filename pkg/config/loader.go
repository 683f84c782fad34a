// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package config loads swarm and workflow documents from version-2 YAML.
// Loading runs in four steps: read, environment interpolation, strict
// parse with validation, and conversion into the definition objects the
// builder DSL also produces.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teradata-labs/weft/pkg/hooks"
	"github.com/teradata-labs/weft/pkg/swarm"
	"github.com/teradata-labs/weft/pkg/tools"
	"github.com/teradata-labs/weft/pkg/types"
	"github.com/teradata-labs/weft/pkg/workflow"
)

// Loader errors.
var (
	ErrVersionRequired = errors.New("config: version: 2 is required")
	ErrInvalidConfig   = errors.New("config: invalid document")
	ErrCycleDetected   = errors.New("config: delegation cycle detected")
)

// Document is a loaded configuration: exactly one of Swarm or Workflow
// is set.
type Document struct {
	Swarm    *SwarmSpec
	Workflow *WorkflowSpec
}

// SwarmSpec is everything needed to assemble a swarm, minus the LLM
// drivers the caller supplies.
type SwarmSpec struct {
	Name            string
	Lead            string
	GlobalSemaphore int
	Agents          []*types.AgentDefinition
	Hooks           []swarm.HookDecl
}

// WorkflowSpec is everything needed to assemble a workflow orchestrator.
type WorkflowSpec struct {
	Name            string
	GlobalSemaphore int
	Graph           *workflow.NodeGraph
	Agents          []*types.AgentDefinition
	Hooks           []swarm.HookDecl
}

// Load reads and parses a configuration file. Relative agent
// directories resolve against the file's directory.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse loads a configuration document from raw YAML. baseDir anchors
// relative agent directories; empty means the current directory.
func Parse(data []byte, baseDir string) (*Document, error) {
	text, err := interpolateEnv(string(data))
	if err != nil {
		return nil, err
	}

	var doc documentYAML
	dec := yaml.NewDecoder(bytes.NewReader([]byte(text)))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	if doc.Version != 2 {
		return nil, fmt.Errorf("%w (got %d)", ErrVersionRequired, doc.Version)
	}
	if (doc.Swarm == nil) == (doc.Workflow == nil) {
		return nil, fmt.Errorf("%w: needs exactly one of swarm or workflow", ErrInvalidConfig)
	}

	// Key order is lost in the strict decode; recover it so agent and
	// node declaration order is deterministic.
	order, err := keyOrder([]byte(text))
	if err != nil {
		return nil, err
	}

	if doc.Swarm != nil {
		spec, err := convertSwarm(doc.Swarm, order.agents, baseDir)
		if err != nil {
			return nil, err
		}
		return &Document{Swarm: spec}, nil
	}
	spec, err := convertWorkflow(doc.Workflow, order, baseDir)
	if err != nil {
		return nil, err
	}
	return &Document{Workflow: spec}, nil
}

// documentYAML is the raw document shape. Unknown fields are rejected
// everywhere except inside parameters and headers.
type documentYAML struct {
	Version  int           `yaml:"version"`
	Swarm    *swarmYAML    `yaml:"swarm"`
	Workflow *workflowYAML `yaml:"workflow"`
}

type swarmYAML struct {
	Name            string                 `yaml:"name"`
	Lead            string                 `yaml:"lead"`
	GlobalSemaphore int                    `yaml:"global_semaphore"`
	AllAgents       *agentYAML             `yaml:"all_agents"`
	Agents          map[string]agentYAML   `yaml:"agents"`
	Hooks           map[string][]hookYAML  `yaml:"hooks"`
}

type workflowYAML struct {
	Name            string                `yaml:"name"`
	StartNode       string                `yaml:"start_node"`
	GlobalSemaphore int                   `yaml:"global_semaphore"`
	AllAgents       *agentYAML            `yaml:"all_agents"`
	Agents          map[string]agentYAML  `yaml:"agents"`
	Nodes           map[string]nodeYAML   `yaml:"nodes"`
	Hooks           map[string][]hookYAML `yaml:"hooks"`
}

type agentYAML struct {
	Description         string                 `yaml:"description"`
	Model               string                 `yaml:"model"`
	Provider            string                 `yaml:"provider"`
	BaseURL             string                 `yaml:"base_url"`
	APIVersion          string                 `yaml:"api_version"`
	ContextWindow       int                    `yaml:"context_window"`
	SystemPrompt        string                 `yaml:"system_prompt"`
	Directory           string                 `yaml:"directory"`
	Tools               []toolEntry            `yaml:"tools"`
	DelegatesTo         []string               `yaml:"delegates_to"`
	IncludeDefaultTools *bool                  `yaml:"include_default_tools"`
	BypassPermissions   *bool                  `yaml:"bypass_permissions"`
	Timeout             int                    `yaml:"timeout"`
	LocalSemaphore      int                    `yaml:"local_semaphore"`
	Parameters          map[string]interface{} `yaml:"parameters"`
	Headers             map[string]string      `yaml:"headers"`
	MCPServers          []types.MCPServerDef   `yaml:"mcp_servers"`
	Hooks               map[string][]hookYAML  `yaml:"hooks"`
}

type nodeYAML struct {
	Agents            []string         `yaml:"agents"`
	Lead              string           `yaml:"lead"`
	DependsOn         []string         `yaml:"depends_on"`
	InputTransformer  *transformerYAML `yaml:"input_transformer"`
	OutputTransformer *transformerYAML `yaml:"output_transformer"`
}

type transformerYAML struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout"`
}

type hookYAML struct {
	Matcher  string `yaml:"matcher"`
	Command  string `yaml:"command"`
	Timeout  int    `yaml:"timeout"`
	Priority int    `yaml:"priority"`
}

// toolEntry accepts either a bare tool name or a mapping with a
// per-tool permission ruleset.
type toolEntry struct {
	Name         string   `yaml:"name"`
	AllowedPaths []string `yaml:"allowed_paths"`
	DeniedPaths  []string `yaml:"denied_paths"`
}

func (t *toolEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		t.Name = value.Value
		return nil
	}

	type raw toolEntry
	var r raw
	if err := value.Decode(&r); err != nil {
		return err
	}
	if r.Name == "" {
		return errors.New("tool entries need a name")
	}
	*t = toolEntry(r)
	return nil
}

// documentOrder holds the declaration order of the order-sensitive maps.
type documentOrder struct {
	agents []string
	nodes  []string
}

// keyOrder re-parses the document as a node tree and records the key
// order of the agents and nodes mappings.
func keyOrder(data []byte) (*documentOrder, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	order := &documentOrder{}
	if len(root.Content) == 0 {
		return order, nil
	}
	doc := root.Content[0]

	for _, sectionKey := range []string{"swarm", "workflow"} {
		section := mappingValue(doc, sectionKey)
		if section == nil {
			continue
		}
		if agents := mappingValue(section, "agents"); agents != nil {
			order.agents = mappingKeys(agents)
		}
		if nodes := mappingValue(section, "nodes"); nodes != nil {
			order.nodes = mappingKeys(nodes)
		}
	}
	return order, nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func mappingKeys(node *yaml.Node) []string {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keys = append(keys, node.Content[i].Value)
	}
	return keys
}

// convertSwarm validates and converts a swarm document.
func convertSwarm(doc *swarmYAML, agentOrder []string, baseDir string) (*SwarmSpec, error) {
	if doc.Name == "" {
		return nil, fmt.Errorf("%w: swarm.name is required", ErrInvalidConfig)
	}
	if doc.Lead == "" {
		return nil, fmt.Errorf("%w: swarm.lead is required", ErrInvalidConfig)
	}

	defs, decls, err := convertAgents(doc.Agents, agentOrder, doc.AllAgents, baseDir)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*types.AgentDefinition, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
	}
	if _, ok := byName[doc.Lead]; !ok {
		return nil, fmt.Errorf("config: lead %q is not among the agents", doc.Lead)
	}
	for _, def := range defs {
		for _, target := range def.DelegatesTo {
			if _, ok := byName[target]; !ok {
				return nil, fmt.Errorf("config: agent %q delegates to unknown agent %q", def.Name, target)
			}
		}
	}
	if cycle := delegationCycle(defs); cycle != nil {
		return nil, fmt.Errorf("%w: %s", ErrCycleDetected, strings.Join(cycle, " -> "))
	}

	swarmDecls, err := convertHooks("", doc.Hooks, true)
	if err != nil {
		return nil, err
	}

	return &SwarmSpec{
		Name:            doc.Name,
		Lead:            doc.Lead,
		GlobalSemaphore: doc.GlobalSemaphore,
		Agents:          defs,
		Hooks:           append(swarmDecls, decls...),
	}, nil
}

// convertWorkflow validates and converts a workflow document.
func convertWorkflow(doc *workflowYAML, order *documentOrder, baseDir string) (*WorkflowSpec, error) {
	if doc.Name == "" {
		return nil, fmt.Errorf("%w: workflow.name is required", ErrInvalidConfig)
	}
	if doc.StartNode == "" {
		return nil, fmt.Errorf("%w: workflow.start_node is required", ErrInvalidConfig)
	}
	if len(doc.Nodes) == 0 {
		return nil, fmt.Errorf("%w: workflow.nodes is required", ErrInvalidConfig)
	}

	defs, decls, err := convertAgents(doc.Agents, order.agents, doc.AllAgents, baseDir)
	if err != nil {
		return nil, err
	}
	if cycle := delegationCycle(defs); cycle != nil {
		return nil, fmt.Errorf("%w: %s", ErrCycleDetected, strings.Join(cycle, " -> "))
	}

	nodes := make([]*types.NodeDefinition, 0, len(doc.Nodes))
	for _, name := range order.nodes {
		raw, ok := doc.Nodes[name]
		if !ok {
			continue
		}
		nodes = append(nodes, &types.NodeDefinition{
			Name:              name,
			Agents:            raw.Agents,
			Lead:              raw.Lead,
			DependsOn:         raw.DependsOn,
			InputTransformer:  convertTransformer(raw.InputTransformer),
			OutputTransformer: convertTransformer(raw.OutputTransformer),
		})
	}

	graph, err := workflow.NewGraph(doc.Name, doc.StartNode, nodes)
	if err != nil {
		return nil, err
	}

	swarmDecls, err := convertHooks("", doc.Hooks, true)
	if err != nil {
		return nil, err
	}

	return &WorkflowSpec{
		Name:            doc.Name,
		GlobalSemaphore: doc.GlobalSemaphore,
		Graph:           graph,
		Agents:          defs,
		Hooks:           append(swarmDecls, decls...),
	}, nil
}

func convertTransformer(raw *transformerYAML) *types.TransformerDef {
	if raw == nil {
		return nil
	}
	return &types.TransformerDef{Command: raw.Command, TimeoutSeconds: raw.Timeout}
}

// convertAgents merges all_agents into each agent, applies defaults, and
// validates the resulting definitions in declaration order.
func convertAgents(agents map[string]agentYAML, order []string, base *agentYAML, baseDir string) ([]*types.AgentDefinition, []swarm.HookDecl, error) {
	if len(agents) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one agent is required", ErrInvalidConfig)
	}

	defs := make([]*types.AgentDefinition, 0, len(agents))
	var decls []swarm.HookDecl
	for _, name := range order {
		raw, ok := agents[name]
		if !ok {
			continue
		}
		merged := mergeAgent(base, raw)

		def, err := buildDefinition(name, &merged, baseDir)
		if err != nil {
			return nil, nil, err
		}
		defs = append(defs, def)

		agentDecls, err := convertHooks(name, merged.Hooks, false)
		if err != nil {
			return nil, nil, err
		}
		decls = append(decls, agentDecls...)
	}
	return defs, decls, nil
}

// buildDefinition converts one merged agent entry into a validated
// AgentDefinition.
func buildDefinition(name string, raw *agentYAML, baseDir string) (*types.AgentDefinition, error) {
	def := types.NewAgentDefinition(name)
	def.Description = raw.Description
	def.Model = raw.Model
	def.Provider = raw.Provider
	def.BaseURL = raw.BaseURL
	def.APIVersion = raw.APIVersion
	def.ContextWindow = raw.ContextWindow
	def.SystemPrompt = raw.SystemPrompt
	def.Directory = raw.Directory
	def.DelegatesTo = raw.DelegatesTo
	def.Timeout = raw.Timeout
	def.LocalSemaphore = raw.LocalSemaphore
	def.Parameters = raw.Parameters
	def.Headers = raw.Headers
	def.MCPServers = raw.MCPServers

	if raw.IncludeDefaultTools != nil {
		def.IncludeDefaultTools = *raw.IncludeDefaultTools
	}
	if raw.BypassPermissions != nil {
		def.BypassPermissions = *raw.BypassPermissions
	}

	for _, entry := range raw.Tools {
		spec := types.ToolSpec{Name: entry.Name}
		if len(entry.AllowedPaths) > 0 || len(entry.DeniedPaths) > 0 {
			spec.Permissions = &tools.PermissionConfig{
				AllowedPaths: entry.AllowedPaths,
				DeniedPaths:  entry.DeniedPaths,
			}
		}
		def.Tools = append(def.Tools, spec)
	}

	if def.Directory == "" {
		def.Directory = baseDir
	} else if !filepath.IsAbs(def.Directory) && baseDir != "" {
		def.Directory = filepath.Join(baseDir, def.Directory)
	}
	def.ApplyDefaults()
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return def, nil
}

// mergeAgent overlays one agent entry on the all_agents base: arrays
// concatenate (base first), maps merge with the agent winning per key,
// scalars take the agent's value when set.
func mergeAgent(base *agentYAML, a agentYAML) agentYAML {
	if base == nil {
		return a
	}
	out := *base

	if a.Description != "" {
		out.Description = a.Description
	}
	if a.Model != "" {
		out.Model = a.Model
	}
	if a.Provider != "" {
		out.Provider = a.Provider
	}
	if a.BaseURL != "" {
		out.BaseURL = a.BaseURL
	}
	if a.APIVersion != "" {
		out.APIVersion = a.APIVersion
	}
	if a.ContextWindow != 0 {
		out.ContextWindow = a.ContextWindow
	}
	if a.SystemPrompt != "" {
		out.SystemPrompt = a.SystemPrompt
	}
	if a.Directory != "" {
		out.Directory = a.Directory
	}
	if a.Timeout != 0 {
		out.Timeout = a.Timeout
	}
	if a.LocalSemaphore != 0 {
		out.LocalSemaphore = a.LocalSemaphore
	}
	if a.IncludeDefaultTools != nil {
		out.IncludeDefaultTools = a.IncludeDefaultTools
	}
	if a.BypassPermissions != nil {
		out.BypassPermissions = a.BypassPermissions
	}

	out.Tools = append(append([]toolEntry{}, base.Tools...), a.Tools...)
	out.DelegatesTo = append(append([]string{}, base.DelegatesTo...), a.DelegatesTo...)
	out.MCPServers = append(append([]types.MCPServerDef{}, base.MCPServers...), a.MCPServers...)

	out.Parameters = mergeMap(base.Parameters, a.Parameters)
	out.Headers = mergeStringMap(base.Headers, a.Headers)

	out.Hooks = make(map[string][]hookYAML, len(base.Hooks)+len(a.Hooks))
	for event, hs := range base.Hooks {
		out.Hooks[event] = append(out.Hooks[event], hs...)
	}
	for event, hs := range a.Hooks {
		out.Hooks[event] = append(out.Hooks[event], hs...)
	}
	return out
}

func mergeMap(base, over map[string]interface{}) map[string]interface{} {
	if len(base) == 0 {
		return over
	}
	out := make(map[string]interface{}, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

func mergeStringMap(base, over map[string]string) map[string]string {
	if len(base) == 0 {
		return over
	}
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// convertHooks turns one hooks mapping into registrations. Swarm-level
// mappings accept only swarm_start and swarm_stop.
func convertHooks(agent string, raw map[string][]hookYAML, swarmLevel bool) ([]swarm.HookDecl, error) {
	events := make([]string, 0, len(raw))
	for event := range raw {
		events = append(events, event)
	}
	sort.Strings(events)

	var decls []swarm.HookDecl
	for _, event := range events {
		entries := raw[event]
		ev := hooks.Event(event)
		if !hooks.ValidEvent(ev) {
			return nil, fmt.Errorf("config: unknown hook event %q", event)
		}
		if swarmLevel && ev != hooks.EventSwarmStart && ev != hooks.EventSwarmStop {
			return nil, fmt.Errorf("config: swarm-level hooks support only swarm_start and swarm_stop, got %q", event)
		}
		for _, h := range entries {
			if h.Command == "" {
				return nil, fmt.Errorf("config: hook for %q needs a command", event)
			}
			decls = append(decls, swarm.HookDecl{
				Agent: agent,
				Registration: &hooks.Registration{
					Event:          ev,
					Matcher:        h.Matcher,
					Priority:       h.Priority,
					Command:        h.Command,
					TimeoutSeconds: h.Timeout,
				},
			})
		}
	}
	return decls, nil
}

// delegationCycle DFS-checks delegates_to and returns one cycle path,
// or nil.
func delegationCycle(defs []*types.AgentDefinition) []string {
	byName := make(map[string]*types.AgentDefinition, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
	}

	const (
		unvisited = iota
		visiting
		done
	)
	states := make(map[string]int, len(defs))
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
		if def, ok := byName[name]; ok {
			for _, target := range def.DelegatesTo {
				if visit(target, append(path, name)) {
					return true
				}
			}
		}
		states[name] = done
		return false
	}

	for _, def := range defs {
		if states[def.Name] == unvisited && visit(def.Name, nil) {
			return cycle
		}
	}
	return nil
}
