// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teradata-labs/weft/pkg/types"
	"go.uber.org/zap/zaptest"
)

func typesServerDef(name, transport string) types.MCPServerDef {
	return types.MCPServerDef{Name: name, Transport: transport, Command: "true"}
}

func newTestSource(t *testing.T, handler func(req *Request) *Response) *Source {
	t.Helper()
	client := NewClient(newFakeTransport(handler), zaptest.NewLogger(t))
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Initialize(context.Background(), "weft"))
	return &Source{
		name:    "db",
		client:  client,
		timeout: 5 * time.Second,
		logger:  zaptest.NewLogger(t),
	}
}

func TestSourceToolNaming(t *testing.T) {
	source := newTestSource(t, echoServer(t))

	list, err := source.Tools(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)

	tool := list[0]
	assert.Equal(t, "db:echo", tool.Name())
	assert.Equal(t, "Echoes its input", tool.Description())

	schema := tool.InputSchema()
	require.NotNil(t, schema)
	assert.Equal(t, "object", schema.Type)
	assert.Contains(t, schema.Required, "text")
}

func TestRemoteToolExecute(t *testing.T) {
	source := newTestSource(t, echoServer(t))
	list, err := source.Tools(context.Background())
	require.NoError(t, err)

	res, err := list[0].Execute(context.Background(), map[string]interface{}{"text": "hello"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "hello", res.ContentString())
}

func TestRemoteToolRejectsInvalidParams(t *testing.T) {
	source := newTestSource(t, echoServer(t))
	list, err := source.Tools(context.Background())
	require.NoError(t, err)

	// Missing required "text": rejected locally, the server never sees it.
	res, err := list[0].Execute(context.Background(), map[string]interface{}{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "invalid_params", res.Error.Code)
}

func TestRemoteToolServerError(t *testing.T) {
	handler := func(req *Request) *Response {
		switch req.Method {
		case "initialize":
			return &Response{Result: mustResult(t, InitializeResult{
				ProtocolVersion: ProtocolVersion,
				ServerInfo:      Implementation{Name: "flaky", Version: "0.1.0"},
			})}
		case "tools/list":
			return &Response{Result: mustResult(t, ListToolsResult{
				Tools: []ToolDescriptor{{Name: "query", InputSchema: json.RawMessage(`{"type":"object"}`)}},
			})}
		case "tools/call":
			return &Response{Result: mustResult(t, CallToolResult{
				Content: []ContentItem{{Type: "text", Text: "table not found"}},
				IsError: true,
			})}
		default:
			return &Response{Error: &RPCError{Code: MethodNotFoundCode, Message: "unknown method"}}
		}
	}

	source := newTestSource(t, handler)
	list, err := source.Tools(context.Background())
	require.NoError(t, err)

	res, err := list[0].Execute(context.Background(), map[string]interface{}{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "mcp_tool_error", res.Error.Code)
	assert.Equal(t, "table not found", res.Error.Message)
}

func TestOpenRejectsUnknownTransport(t *testing.T) {
	_, err := Open(context.Background(), typesServerDef("bad", "carrier-pigeon"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
}

func TestOpenRequiresName(t *testing.T) {
	_, err := Open(context.Background(), typesServerDef("", "stdio"))
	require.Error(t, err)
}
