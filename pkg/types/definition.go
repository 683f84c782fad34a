// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package types

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/teradata-labs/weft/pkg/tools"
)

// Default resource limits for agents.
const (
	// DefaultAgentTimeout is the per-agent LLM call timeout in seconds.
	DefaultAgentTimeout = 300

	// DefaultContextWindow is assumed when neither the definition nor
	// the model catalog supplies a window.
	DefaultContextWindow = 200000

	// DefaultLocalSemaphore caps concurrent tool tasks per agent.
	DefaultLocalSemaphore = 10

	// DefaultMCPTimeout bounds each MCP request, in seconds.
	DefaultMCPTimeout = 30
)

// ToolSpec names one tool an agent may use, with an optional per-tool
// permission ruleset.
type ToolSpec struct {
	Name        string                  `yaml:"name" json:"name"`
	Permissions *tools.PermissionConfig `yaml:"permissions,omitempty" json:"permissions,omitempty"`
}

// MCPServerDef describes one MCP server an agent pulls tools from.
type MCPServerDef struct {
	// Name prefixes the server's tool names (name:tool).
	Name string `yaml:"name" json:"name"`

	// Transport is "stdio" or "http".
	Transport string `yaml:"transport" json:"transport"`

	// Command and Args launch the stdio subprocess.
	Command string   `yaml:"command,omitempty" json:"command,omitempty"`
	Args    []string `yaml:"args,omitempty" json:"args,omitempty"`

	// Env adds environment variables for the subprocess.
	Env map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	// URL is the HTTP endpoint for the http transport.
	URL string `yaml:"url,omitempty" json:"url,omitempty"`

	// TimeoutSeconds bounds each MCP request (default 30).
	TimeoutSeconds int `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// AgentDefinition is the validated description of one agent: identity,
// model, prompt, tool set, and delegation targets. The configuration
// loader and the builder both produce these.
type AgentDefinition struct {
	// Name is the agent's unique name within its swarm.
	Name string `yaml:"-" json:"name"`

	// Description is shown to agents that can delegate here. Required.
	Description string `yaml:"description" json:"description"`

	// Model is the model identifier (resolved against the catalog).
	Model string `yaml:"model,omitempty" json:"model,omitempty"`

	// Provider names the LLM provider (default "anthropic").
	Provider string `yaml:"provider,omitempty" json:"provider,omitempty"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`

	// APIVersion overrides the provider API version header.
	APIVersion string `yaml:"api_version,omitempty" json:"api_version,omitempty"`

	// ContextWindow is the model context size in tokens. Zero means
	// "look up the catalog, fall back to DefaultContextWindow".
	ContextWindow int `yaml:"context_window,omitempty" json:"context_window,omitempty"`

	// SystemPrompt seeds the conversation. Required.
	SystemPrompt string `yaml:"system_prompt" json:"system_prompt"`

	// Directory is the agent's working directory; file tools resolve
	// relative paths against it. Must exist.
	Directory string `yaml:"directory,omitempty" json:"directory,omitempty"`

	// Tools lists the tools the agent may call, in order.
	Tools []ToolSpec `yaml:"tools,omitempty" json:"tools,omitempty"`

	// DelegatesTo lists agent names this agent may delegate to.
	DelegatesTo []string `yaml:"delegates_to,omitempty" json:"delegates_to,omitempty"`

	// IncludeDefaultTools adds the built-in tool set (default true).
	IncludeDefaultTools bool `yaml:"-" json:"include_default_tools"`

	// BypassPermissions disables permission wrapping for this agent.
	BypassPermissions bool `yaml:"bypass_permissions,omitempty" json:"bypass_permissions,omitempty"`

	// Timeout bounds each LLM call, in seconds (default 300).
	Timeout int `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// Parameters is passed opaquely to the LLM driver.
	Parameters map[string]interface{} `yaml:"parameters,omitempty" json:"parameters,omitempty"`

	// Headers is passed opaquely to the LLM driver transport.
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`

	// MCPServers lists external tool sources for this agent.
	MCPServers []MCPServerDef `yaml:"mcp_servers,omitempty" json:"mcp_servers,omitempty"`

	// LocalSemaphore caps concurrent tool tasks for this agent
	// (default 10).
	LocalSemaphore int `yaml:"local_semaphore,omitempty" json:"local_semaphore,omitempty"`
}

// NewAgentDefinition returns a definition with defaults applied.
func NewAgentDefinition(name string) *AgentDefinition {
	return &AgentDefinition{
		Name:                name,
		IncludeDefaultTools: true,
		Timeout:             DefaultAgentTimeout,
		LocalSemaphore:      DefaultLocalSemaphore,
	}
}

// ApplyDefaults fills zero-valued optional fields. The YAML loader calls
// this after decoding; the builder calls it on Build.
func (d *AgentDefinition) ApplyDefaults() {
	if d.Provider == "" {
		d.Provider = "anthropic"
	}
	if d.Timeout <= 0 {
		d.Timeout = DefaultAgentTimeout
	}
	if d.LocalSemaphore <= 0 {
		d.LocalSemaphore = DefaultLocalSemaphore
	}
	if d.Directory == "" {
		if cwd, err := os.Getwd(); err == nil {
			d.Directory = cwd
		}
	}
}

// Validate checks required fields and resolves Directory to an existing
// absolute path. Delegation targets are resolved at swarm scope, not
// here.
func (d *AgentDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("agent name is required")
	}
	if d.Description == "" {
		return fmt.Errorf("agent %q: description is required", d.Name)
	}
	if d.SystemPrompt == "" {
		return fmt.Errorf("agent %q: system_prompt is required", d.Name)
	}

	dir := d.Directory
	if dir == "" {
		return fmt.Errorf("agent %q: directory is required", d.Name)
	}
	if !filepath.IsAbs(dir) {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("agent %q: cannot resolve directory %q: %w", d.Name, dir, err)
		}
		dir = abs
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("agent %q: directory %q does not exist", d.Name, dir)
	}
	if !info.IsDir() {
		return fmt.Errorf("agent %q: %q is not a directory", d.Name, dir)
	}
	d.Directory = dir

	for _, ts := range d.Tools {
		if ts.Name == "" {
			return fmt.Errorf("agent %q: tool entries need a name", d.Name)
		}
	}
	for _, srv := range d.MCPServers {
		if srv.Name == "" {
			return fmt.Errorf("agent %q: mcp_servers entries need a name", d.Name)
		}
		switch srv.Transport {
		case "stdio":
			if srv.Command == "" {
				return fmt.Errorf("agent %q: mcp server %q: stdio transport needs a command", d.Name, srv.Name)
			}
		case "http":
			if srv.URL == "" {
				return fmt.Errorf("agent %q: mcp server %q: http transport needs a url", d.Name, srv.Name)
			}
		default:
			return fmt.Errorf("agent %q: mcp server %q: unknown transport %q", d.Name, srv.Name, srv.Transport)
		}
	}
	return nil
}
