// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/teradata-labs/weft/pkg/tools"
	"github.com/teradata-labs/weft/pkg/types"
	"go.uber.org/zap"
)

// Source exposes one MCP server's tools to a weft agent. Each tool is
// registered under "server:tool" so names stay unique across sources.
type Source struct {
	name    string
	client  *Client
	timeout time.Duration
	logger  *zap.Logger
}

// Open connects to the server a definition describes, runs the
// initialize handshake, and returns the source. It matches the
// signature the swarm expects for opening sources.
func Open(ctx context.Context, def types.MCPServerDef) (types.ToolSource, error) {
	return OpenWithLogger(ctx, def, zap.NewNop())
}

// OpenWithLogger is Open with an explicit logger for the transport
// and client.
func OpenWithLogger(ctx context.Context, def types.MCPServerDef, logger *zap.Logger) (types.ToolSource, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("mcp: server definition requires a name")
	}

	var (
		transport Transport
		err       error
	)
	switch def.Transport {
	case "stdio", "":
		transport, err = NewStdioTransport(StdioConfig{
			Command: def.Command,
			Args:    def.Args,
			Env:     def.Env,
			Logger:  logger,
		})
	case "http":
		transport, err = NewHTTPTransport(HTTPConfig{
			Endpoint: def.URL,
			Logger:   logger,
		})
	default:
		return nil, fmt.Errorf("mcp: unknown transport %q for server %s", def.Transport, def.Name)
	}
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(def.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(types.DefaultMCPTimeout) * time.Second
	}

	client := NewClient(transport, logger)

	initCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Initialize(initCtx, "weft"); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Source{
		name:    def.Name,
		client:  client,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Name returns the server name used as the tool prefix.
func (s *Source) Name() string {
	return s.name
}

// Tools lists the server's tools wrapped for agent use.
func (s *Source) Tools(ctx context.Context) ([]tools.Tool, error) {
	listCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	descriptors, err := s.client.ListTools(listCtx)
	if err != nil {
		return nil, err
	}

	out := make([]tools.Tool, 0, len(descriptors))
	for i := range descriptors {
		out = append(out, &remoteTool{source: s, desc: descriptors[i]})
	}
	return out, nil
}

// Close shuts down the client and its transport.
func (s *Source) Close() error {
	return s.client.Close()
}

// remoteTool adapts one server tool to the weft tool contract.
type remoteTool struct {
	source *Source
	desc   ToolDescriptor
}

func (t *remoteTool) Name() string {
	return t.source.name + ":" + t.desc.Name
}

func (t *remoteTool) Description() string {
	if t.desc.Description != "" {
		return t.desc.Description
	}
	return fmt.Sprintf("Tool %s from MCP server %s", t.desc.Name, t.source.name)
}

func (t *remoteTool) InputSchema() *tools.JSONSchema {
	if len(t.desc.InputSchema) > 0 {
		if schema, err := tools.FromJSON(t.desc.InputSchema); err == nil {
			return schema
		}
	}
	return tools.NewObjectSchema(t.Description(), nil, nil)
}

// Execute validates params against the server's schema, then calls
// the tool. Server-reported failures come back as failed results the
// model can read, not Go errors.
func (t *remoteTool) Execute(ctx context.Context, params map[string]interface{}) (*tools.Result, error) {
	start := time.Now()

	if err := t.desc.ValidateArguments(params); err != nil {
		res := tools.Errorf("invalid_params", err.Error(),
			"Check the tool's input schema and fix the argument types")
		res.ExecutionTimeMs = time.Since(start).Milliseconds()
		return res, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, t.source.timeout)
	defer cancel()

	result, err := t.source.client.CallTool(callCtx, t.desc.Name, params)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		res := tools.Errorf("mcp_call_failed", err.Error(),
			"The server may be down or the call may have timed out; retry or check the server")
		res.ExecutionTimeMs = time.Since(start).Milliseconds()
		return res, nil
	}

	var res *tools.Result
	if result.IsError {
		res = tools.Errorf("mcp_tool_error", result.Text(), "")
	} else {
		res = tools.Ok(result.Text())
	}
	res.ExecutionTimeMs = time.Since(start).Milliseconds()
	return res, nil
}
