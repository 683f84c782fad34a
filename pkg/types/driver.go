// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package types

import (
	"context"

	"github.com/teradata-labs/weft/pkg/tools"
)

// LLMDriver issues one chat completion given messages and tools. Real
// provider clients implement this; the core never sees wire formats.
type LLMDriver interface {
	// Chat sends the conversation and returns the model's response.
	// params carries provider-opaque options from the agent definition
	// (temperature, max_tokens, …) and may be nil.
	Chat(ctx context.Context, messages []Message, toolset []tools.Tool, params map[string]interface{}) (*LLMResponse, error)

	// Name returns the provider name (e.g. "anthropic").
	Name() string

	// Model returns the model identifier this driver targets.
	Model() string
}

// TokenCallback receives streamed content deltas as they arrive.
type TokenCallback func(delta string)

// StreamingLLMDriver is implemented by drivers that can stream content
// deltas while producing the same final response as Chat.
type StreamingLLMDriver interface {
	LLMDriver

	// ChatStream behaves like Chat but invokes onDelta for each content
	// fragment as it arrives.
	ChatStream(ctx context.Context, messages []Message, toolset []tools.Tool, params map[string]interface{}, onDelta TokenCallback) (*LLMResponse, error)
}

// SupportsStreaming reports whether the driver implements
// StreamingLLMDriver.
func SupportsStreaming(driver LLMDriver) bool {
	_, ok := driver.(StreamingLLMDriver)
	return ok
}

// ToolSource supplies tool descriptors plus their invocation callables.
// MCP server adapters implement this; the swarm closes every source it
// opened when execution finishes.
type ToolSource interface {
	// Name identifies the source (e.g. the MCP server name).
	Name() string

	// Tools returns the tools this source currently offers.
	Tools(ctx context.Context) ([]tools.Tool, error)

	// Close releases the source's resources (subprocesses, connections).
	Close() error
}
