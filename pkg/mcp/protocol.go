// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package mcp connects weft agents to Model Context Protocol servers.
// A Source wraps one server and exposes its tools as weft tools named
// "server:tool"; the swarm opens sources lazily on first execution and
// closes them on teardown. Stdio servers run as subprocesses speaking
// line-delimited JSON-RPC; HTTP servers receive POSTed requests and
// push responses over SSE.
package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// JSONRPCVersion is the JSON-RPC protocol version.
const JSONRPCVersion = "2.0"

// ProtocolVersion is the MCP protocol revision this client speaks.
const ProtocolVersion = "2024-11-05"

// Standard JSON-RPC error codes.
const (
	ParseErrorCode     = -32700
	InvalidRequestCode = -32600
	MethodNotFoundCode = -32601
	InvalidParamsCode  = -32602
	InternalErrorCode  = -32603
)

// RequestID is a JSON-RPC request identifier, which may be a string or
// a number on the wire.
type RequestID struct {
	Str   string
	Num   int64
	IsNum bool
}

// NewRequestID creates a numeric request ID.
func NewRequestID(n int64) *RequestID {
	return &RequestID{Num: n, IsNum: true}
}

// String renders the ID for use as a correlation key.
func (id *RequestID) String() string {
	if id == nil {
		return ""
	}
	if id.IsNum {
		return fmt.Sprintf("%d", id.Num)
	}
	return id.Str
}

// MarshalJSON implements json.Marshaler.
func (id RequestID) MarshalJSON() ([]byte, error) {
	if id.IsNum {
		return json.Marshal(id.Num)
	}
	return json.Marshal(id.Str)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *RequestID) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		id.Num = n
		id.IsNum = true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("request id must be a string or number: %w", err)
	}
	id.Str = s
	id.IsNum = false
	return nil
}

// Request is a JSON-RPC request or, when ID is nil, a notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *RequestID      `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *RequestID      `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Implementation identifies a client or server.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ClientCapabilities advertises what this client supports. Weft's
// client is tools-only.
type ClientCapabilities struct{}

// ServerCapabilities describes what the server offers.
type ServerCapabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

// ToolsCapability marks tool support.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// InitializeParams is the payload of the initialize request.
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      Implementation     `json:"clientInfo"`
}

// InitializeResult is the server's initialize response.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
}

// ToolDescriptor is one tool advertised by a server.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ValidateArguments checks args against the tool's input schema. A
// descriptor without a schema accepts anything.
func (t *ToolDescriptor) ValidateArguments(args map[string]interface{}) error {
	if len(t.InputSchema) == 0 {
		return nil
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(t.InputSchema),
		gojsonschema.NewGoLoader(args),
	)
	if err != nil {
		// Servers occasionally publish schemas the validator cannot
		// compile; let the server reject the call instead.
		return nil
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("invalid arguments for %s: %v", t.Name, msgs)
}

// ListToolsResult is the tools/list response payload.
type ListToolsResult struct {
	Tools []ToolDescriptor `json:"tools"`
}

// CallToolParams is the tools/call request payload.
type CallToolParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// CallToolResult is the tools/call response payload.
type CallToolResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// ContentItem is one piece of tool output. Weft consumes text items
// and ignores other media types.
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Text joins the result's text content.
func (r *CallToolResult) Text() string {
	var out string
	for _, item := range r.Content {
		if item.Type != "text" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += item.Text
	}
	return out
}
