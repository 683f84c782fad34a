// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package mcp

import (
	"context"
	"errors"
)

// ErrTransportClosed is returned by Send and Receive after Close.
var ErrTransportClosed = errors.New("mcp: transport closed")

// Transport moves raw JSON-RPC messages between client and server.
// Send and Receive are independently safe for concurrent use; the
// client serializes Sends and owns the single Receive loop.
type Transport interface {
	// Send delivers one message to the server.
	Send(ctx context.Context, message []byte) error

	// Receive blocks until the next message from the server arrives.
	Receive(ctx context.Context) ([]byte, error)

	// Close shuts the transport down and releases its resources.
	Close() error
}
