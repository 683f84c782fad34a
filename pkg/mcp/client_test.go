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
	"go.uber.org/zap/zaptest"
)

// fakeTransport answers requests synchronously through a handler,
// standing in for a live server.
type fakeTransport struct {
	handler func(req *Request) *Response
	inbox   chan []byte
	closed  chan struct{}
}

func newFakeTransport(handler func(req *Request) *Response) *fakeTransport {
	return &fakeTransport{
		handler: handler,
		inbox:   make(chan []byte, 16),
		closed:  make(chan struct{}),
	}
}

func (f *fakeTransport) Send(ctx context.Context, message []byte) error {
	var req Request
	if err := json.Unmarshal(message, &req); err != nil {
		return err
	}
	if req.ID == nil {
		return nil // notification
	}
	resp := f.handler(&req)
	resp.JSONRPC = JSONRPCVersion
	resp.ID = req.ID
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	f.inbox <- data
	return nil
}

func (f *fakeTransport) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.closed:
		return nil, ErrTransportClosed
	case data := <-f.inbox:
		return data, nil
	}
}

func (f *fakeTransport) Close() error {
	select {
	case <-f.closed:
	default:
		close(f.closed)
	}
	return nil
}

func mustResult(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func echoServer(t *testing.T) func(req *Request) *Response {
	return func(req *Request) *Response {
		switch req.Method {
		case "initialize":
			return &Response{Result: mustResult(t, InitializeResult{
				ProtocolVersion: ProtocolVersion,
				ServerInfo:      Implementation{Name: "echo", Version: "0.1.0"},
			})}
		case "tools/list":
			return &Response{Result: mustResult(t, ListToolsResult{
				Tools: []ToolDescriptor{
					{
						Name:        "echo",
						Description: "Echoes its input",
						InputSchema: json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`),
					},
				},
			})}
		case "tools/call":
			var params CallToolParams
			require.NoError(t, json.Unmarshal(req.Params, &params))
			text, _ := params.Arguments["text"].(string)
			return &Response{Result: mustResult(t, CallToolResult{
				Content: []ContentItem{{Type: "text", Text: text}},
			})}
		default:
			return &Response{Error: &RPCError{Code: MethodNotFoundCode, Message: "unknown method"}}
		}
	}
}

func TestClientInitialize(t *testing.T) {
	client := NewClient(newFakeTransport(echoServer(t)), zaptest.NewLogger(t))
	defer client.Close()

	require.NoError(t, client.Initialize(context.Background(), "weft"))
	assert.Equal(t, "echo", client.ServerInfo().Name)
}

func TestClientListTools(t *testing.T) {
	client := NewClient(newFakeTransport(echoServer(t)), zaptest.NewLogger(t))
	defer client.Close()
	require.NoError(t, client.Initialize(context.Background(), "weft"))

	descriptors, err := client.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "echo", descriptors[0].Name)
}

func TestClientCallTool(t *testing.T) {
	client := NewClient(newFakeTransport(echoServer(t)), zaptest.NewLogger(t))
	defer client.Close()
	require.NoError(t, client.Initialize(context.Background(), "weft"))

	result, err := client.CallTool(context.Background(), "echo", map[string]interface{}{"text": "hello"})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "hello", result.Text())
}

func TestClientServerError(t *testing.T) {
	client := NewClient(newFakeTransport(echoServer(t)), zaptest.NewLogger(t))
	defer client.Close()

	_, err := client.call(context.Background(), "bogus/method", nil)
	require.Error(t, err)
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, MethodNotFoundCode, rpcErr.Code)
}

func TestClientContextTimeout(t *testing.T) {
	// A server that accepts requests but never answers.
	silent := silentTransport{newFakeTransport(nil)}
	client := NewClient(silent, zaptest.NewLogger(t))
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.call(ctx, "tools/list", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

// silentTransport accepts sends but never produces a response.
type silentTransport struct {
	*fakeTransport
}

func (s silentTransport) Send(ctx context.Context, message []byte) error {
	return nil
}

func TestClientClosedRejectsCalls(t *testing.T) {
	client := NewClient(newFakeTransport(echoServer(t)), zaptest.NewLogger(t))
	require.NoError(t, client.Close())

	_, err := client.ListTools(context.Background())
	require.ErrorIs(t, err, ErrClientClosed)
}

func TestRequestIDWireForms(t *testing.T) {
	var id RequestID
	require.NoError(t, json.Unmarshal([]byte(`42`), &id))
	assert.True(t, id.IsNum)
	assert.Equal(t, "42", id.String())

	require.NoError(t, json.Unmarshal([]byte(`"abc"`), &id))
	assert.False(t, id.IsNum)
	assert.Equal(t, "abc", id.String())

	data, err := json.Marshal(NewRequestID(7))
	require.NoError(t, err)
	assert.Equal(t, "7", string(data))
}

func TestValidateArguments(t *testing.T) {
	desc := ToolDescriptor{
		Name:        "echo",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`),
	}

	assert.NoError(t, desc.ValidateArguments(map[string]interface{}{"text": "hi"}))
	assert.Error(t, desc.ValidateArguments(map[string]interface{}{"text": 3}))
	assert.Error(t, desc.ValidateArguments(map[string]interface{}{}))

	// No schema accepts anything.
	open := ToolDescriptor{Name: "anything"}
	assert.NoError(t, open.ValidateArguments(map[string]interface{}{"x": 1}))
}
