// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package mcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/r3labs/sse/v2"
	"go.uber.org/zap"
)

// HTTPTransport talks to an MCP server over HTTP: requests are POSTed
// to <endpoint>/messages and responses arrive on an SSE stream at
// <endpoint>/sse.
type HTTPTransport struct {
	endpoint   string
	sseClient  *sse.Client
	httpClient *http.Client

	events chan []byte
	errs   chan error
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool

	logger *zap.Logger
}

// HTTPConfig configures an HTTP/SSE transport.
type HTTPConfig struct {
	Endpoint string
	Headers  map[string]string
	Logger   *zap.Logger
}

// NewHTTPTransport subscribes to the server's SSE stream in the
// background; connection failures surface on the first Receive.
func NewHTTPTransport(cfg HTTPConfig) (*HTTPTransport, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("mcp: http transport requires an endpoint")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sseClient := sse.NewClient(cfg.Endpoint + "/sse")
	for k, v := range cfg.Headers {
		sseClient.Headers[k] = v
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &HTTPTransport{
		endpoint:  cfg.Endpoint,
		sseClient: sseClient,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		events: make(chan []byte, 100),
		errs:   make(chan error, 1),
		cancel: cancel,
		logger: logger,
	}

	sseClient.OnDisconnect(func(c *sse.Client) {
		select {
		case t.errs <- fmt.Errorf("mcp: sse stream disconnected"):
		default:
		}
	})

	go func() {
		err := sseClient.SubscribeWithContext(ctx, "message", func(msg *sse.Event) {
			select {
			case t.events <- msg.Data:
			case <-ctx.Done():
			}
		})
		if err != nil && ctx.Err() == nil {
			logger.Warn("sse subscribe failed",
				zap.String("endpoint", cfg.Endpoint),
				zap.Error(err))
			select {
			case t.errs <- fmt.Errorf("mcp: sse subscribe: %w", err):
			default:
			}
		}
	}()

	return t, nil
}

// Send POSTs one JSON-RPC message.
func (t *HTTPTransport) Send(ctx context.Context, message []byte) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return ErrTransportClosed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint+"/messages", bytes.NewReader(message))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mcp: http %d: %s", resp.StatusCode, body)
	}
	return nil
}

// Receive returns the next SSE message.
func (t *HTTPTransport) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-t.errs:
		return nil, err
	case data, ok := <-t.events:
		if !ok {
			return nil, ErrTransportClosed
		}
		return data, nil
	}
}

// Close stops the SSE subscription.
func (t *HTTPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	t.cancel()
	return nil
}
