// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ErrClientClosed is returned by calls made after Close.
var ErrClientClosed = errors.New("mcp: client closed")

// clientVersion is reported to servers in the initialize handshake.
const clientVersion = "1.0.0"

// Client is a tools-only MCP client over a Transport. It correlates
// responses to in-flight requests by ID; server-initiated requests and
// notifications are ignored.
type Client struct {
	transport Transport
	logger    *zap.Logger

	nextID    atomic.Int64
	pending   map[string]chan *Response
	pendingMu sync.Mutex

	serverInfo  Implementation
	initialized bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewClient wraps a transport and starts its receive loop. Callers
// must Initialize before listing or calling tools.
func NewClient(transport Transport, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		transport: transport,
		logger:    logger,
		pending:   make(map[string]chan *Response),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go c.receiveLoop()
	return c
}

// receiveLoop dispatches incoming responses to their waiting callers.
func (c *Client) receiveLoop() {
	defer close(c.done)
	for {
		data, err := c.transport.Receive(c.ctx)
		if err != nil {
			if c.ctx.Err() == nil && !errors.Is(err, ErrTransportClosed) {
				c.logger.Debug("mcp receive loop ended", zap.Error(err))
			}
			c.failPending()
			return
		}

		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil {
			c.logger.Warn("mcp: malformed message from server", zap.Error(err))
			continue
		}
		if resp.ID == nil {
			// Notification from the server; weft has no handlers.
			continue
		}

		c.pendingMu.Lock()
		ch, ok := c.pending[resp.ID.String()]
		if ok {
			delete(c.pending, resp.ID.String())
		}
		c.pendingMu.Unlock()
		if ok {
			ch <- &resp
		}
	}
}

// failPending unblocks every waiter after the transport dies.
func (c *Client) failPending() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for id, ch := range c.pending {
		delete(c.pending, id)
		close(ch)
	}
}

// call sends a request and blocks until its response or ctx expiry.
func (c *Client) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	c.mu.Unlock()

	id := NewRequestID(c.nextID.Add(1))
	req := Request{JSONRPC: JSONRPCVersion, ID: id, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("mcp: marshal %s params: %w", method, err)
		}
		req.Params = raw
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	ch := make(chan *Response, 1)
	c.pendingMu.Lock()
	c.pending[id.String()] = ch
	c.pendingMu.Unlock()

	if err := c.transport.Send(ctx, data); err != nil {
		c.pendingMu.Lock()
		delete(c.pending, id.String())
		c.pendingMu.Unlock()
		return nil, err
	}

	select {
	case <-ctx.Done():
		c.pendingMu.Lock()
		delete(c.pending, id.String())
		c.pendingMu.Unlock()
		return nil, ctx.Err()
	case resp, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("mcp: connection lost waiting for %s", method)
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	}
}

// notify sends a notification (no response expected).
func (c *Client) notify(ctx context.Context, method string, params interface{}) error {
	req := Request{JSONRPC: JSONRPCVersion, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return err
		}
		req.Params = raw
	}
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return c.transport.Send(ctx, data)
}

// Initialize performs the MCP handshake.
func (c *Client) Initialize(ctx context.Context, clientName string) error {
	raw, err := c.call(ctx, "initialize", InitializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    ClientCapabilities{},
		ClientInfo:      Implementation{Name: clientName, Version: clientVersion},
	})
	if err != nil {
		return fmt.Errorf("mcp: initialize: %w", err)
	}

	var result InitializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("mcp: initialize result: %w", err)
	}
	c.serverInfo = result.ServerInfo
	c.initialized = true

	if err := c.notify(ctx, "notifications/initialized", nil); err != nil {
		return fmt.Errorf("mcp: initialized notification: %w", err)
	}

	c.logger.Debug("mcp server initialized",
		zap.String("server", result.ServerInfo.Name),
		zap.String("version", result.ServerInfo.Version),
		zap.String("protocol", result.ProtocolVersion),
	)
	return nil
}

// ServerInfo returns the server's reported identity after Initialize.
func (c *Client) ServerInfo() Implementation {
	return c.serverInfo
}

// ListTools fetches the server's tool descriptors.
func (c *Client) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	raw, err := c.call(ctx, "tools/list", nil)
	if err != nil {
		return nil, fmt.Errorf("mcp: tools/list: %w", err)
	}
	var result ListToolsResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("mcp: tools/list result: %w", err)
	}
	return result.Tools, nil
}

// CallTool invokes a tool by its server-side name.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (*CallToolResult, error) {
	raw, err := c.call(ctx, "tools/call", CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("mcp: tools/call %s: %w", name, err)
	}
	var result CallToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("mcp: tools/call result: %w", err)
	}
	return &result, nil
}

// Close stops the receive loop and closes the transport.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	err := c.transport.Close()
	<-c.done
	return err
}
