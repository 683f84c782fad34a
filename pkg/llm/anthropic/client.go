// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package anthropic implements the LLM driver for Anthropic's Messages
// API, with tool use and SSE streaming.
package anthropic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/teradata-labs/weft/pkg/llm"
	"github.com/teradata-labs/weft/pkg/tools"
	"github.com/teradata-labs/weft/pkg/types"
)

const (
	// DefaultModel is used when the agent definition names none.
	DefaultModel = "claude-sonnet-4-5-20250929"

	// DefaultEndpoint is the Messages API endpoint.
	DefaultEndpoint = "https://api.anthropic.com/v1/messages"

	// DefaultAPIVersion is sent as the anthropic-version header.
	DefaultAPIVersion = "2023-06-01"

	// DefaultMaxTokens caps the response length per request.
	DefaultMaxTokens = 8192

	// DefaultTimeout bounds each HTTP request.
	DefaultTimeout = 300 * time.Second
)

// Config holds the client configuration.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	APIVersion string
	Timeout    time.Duration
	MaxTokens  int

	// Headers are added verbatim to every request.
	Headers map[string]string
}

// Client is the Anthropic Messages API driver.
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	apiVersion string
	maxTokens  int
	headers    map[string]string
	httpClient *http.Client
}

// NewClient creates a client, filling defaults from the environment
// (ANTHROPIC_API_KEY, ANTHROPIC_DEFAULT_MODEL, ANTHROPIC_API_ENDPOINT).
func NewClient(cfg Config) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.Model == "" {
		if envModel := os.Getenv("ANTHROPIC_DEFAULT_MODEL"); envModel != "" {
			cfg.Model = envModel
		} else {
			cfg.Model = DefaultModel
		}
	}
	if cfg.BaseURL == "" {
		if envEndpoint := os.Getenv("ANTHROPIC_API_ENDPOINT"); envEndpoint != "" {
			cfg.BaseURL = envEndpoint
		} else {
			cfg.BaseURL = DefaultEndpoint
		}
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	return &Client{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		endpoint:   cfg.BaseURL,
		apiVersion: cfg.APIVersion,
		maxTokens:  cfg.MaxTokens,
		headers:    cfg.Headers,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// FromDefinition builds a client for one agent definition: model,
// endpoint, API version, headers, and timeout all come from the
// definition.
func FromDefinition(def *types.AgentDefinition, apiKey string) *Client {
	cfg := Config{
		APIKey:     apiKey,
		Model:      def.Model,
		BaseURL:    def.BaseURL,
		APIVersion: def.APIVersion,
		Headers:    def.Headers,
	}
	if def.Timeout > 0 {
		cfg.Timeout = time.Duration(def.Timeout) * time.Second
	}
	return NewClient(cfg)
}

// Name implements types.LLMDriver.
func (c *Client) Name() string { return "anthropic" }

// Model implements types.LLMDriver.
func (c *Client) Model() string { return c.model }

// Chat implements types.LLMDriver.
func (c *Client) Chat(ctx context.Context, messages []types.Message, toolset []tools.Tool, params map[string]interface{}) (*types.LLMResponse, error) {
	req, nameMap := c.buildRequest(messages, toolset, params, false)

	resp, err := c.callAPI(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.convertResponse(resp, nameMap), nil
}

// buildRequest converts the conversation and tool set to the wire
// format. Returns the sanitized-to-original tool name map for the
// response path.
func (c *Client) buildRequest(messages []types.Message, toolset []tools.Tool, params map[string]interface{}, stream bool) (*messagesRequest, map[string]string) {
	system, apiMessages := convertMessages(messages)

	names := make([]string, len(toolset))
	for i, t := range toolset {
		names[i] = t.Name()
	}
	nameMap := llm.BuildToolNameMap(names)

	req := &messagesRequest{
		Model:     c.model,
		Messages:  apiMessages,
		MaxTokens: c.maxTokens,
		System:    system,
		Tools:     convertTools(toolset),
		Stream:    stream,
	}

	if v, ok := params["max_tokens"].(float64); ok && v > 0 {
		req.MaxTokens = int(v)
	}
	if v, ok := params["max_tokens"].(int); ok && v > 0 {
		req.MaxTokens = v
	}
	if v, ok := params["temperature"].(float64); ok {
		req.Temperature = v
	}

	return req, nameMap
}

// convertMessages splits out system messages (the API takes them as a
// separate field) and maps the rest to content blocks. Tool-role
// messages become user-role tool_result blocks.
func convertMessages(messages []types.Message) (string, []message) {
	var systemParts []string
	var apiMessages []message

	for _, msg := range messages {
		switch msg.Role {
		case types.RoleSystem:
			if msg.Content != "" {
				systemParts = append(systemParts, msg.Content)
			}

		case types.RoleUser:
			apiMessages = append(apiMessages, message{
				Role:    "user",
				Content: []contentBlock{{Type: "text", Text: msg.Content}},
			})

		case types.RoleAssistant:
			var content []contentBlock
			if msg.Content != "" {
				content = append(content, contentBlock{Type: "text", Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				content = append(content, contentBlock{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  llm.SanitizeToolName(tc.Name),
					Input: tc.Arguments,
				})
			}
			if len(content) > 0 {
				apiMessages = append(apiMessages, message{Role: "assistant", Content: content})
			}

		case types.RoleTool:
			apiMessages = append(apiMessages, message{
				Role: "user",
				Content: []contentBlock{{
					Type:      "tool_result",
					ToolUseID: msg.ToolCallID,
					Content:   msg.Content,
				}},
			})
		}
	}

	return strings.Join(systemParts, "\n\n"), apiMessages
}

// convertTools maps the tool set to the wire format, sanitizing names
// for provider compatibility.
func convertTools(toolset []tools.Tool) []tool {
	var apiTools []tool
	for _, t := range toolset {
		apiTool := tool{
			Name:        llm.SanitizeToolName(t.Name()),
			Description: t.Description(),
		}
		if schema := t.InputSchema(); schema != nil {
			apiTool.InputSchema = inputSchema{
				Type:       schema.Type,
				Properties: convertSchemaProperties(schema.Properties),
				Required:   schema.Required,
			}
		}
		apiTools = append(apiTools, apiTool)
	}
	return apiTools
}

func convertSchemaProperties(props map[string]*tools.JSONSchema) map[string]map[string]interface{} {
	if props == nil {
		return nil
	}
	result := make(map[string]map[string]interface{}, len(props))
	for key, schema := range props {
		prop := map[string]interface{}{"type": schema.Type}
		if schema.Description != "" {
			prop["description"] = schema.Description
		}
		if schema.Enum != nil {
			prop["enum"] = schema.Enum
		}
		if schema.Default != nil {
			prop["default"] = schema.Default
		}
		if schema.Properties != nil {
			prop["properties"] = convertSchemaProperties(schema.Properties)
		}
		if schema.Items != nil {
			prop["items"] = map[string]interface{}{"type": schema.Items.Type}
		}
		result[key] = prop
	}
	return result
}

// convertResponse maps the wire response back to the driver model and
// prices it from the catalog.
func (c *Client) convertResponse(resp *messagesResponse, nameMap map[string]string) *types.LLMResponse {
	out := &types.LLMResponse{
		FinishReason: resp.StopReason,
		Model:        resp.Model,
		Usage:        c.priceUsage(resp.Usage.InputTokens, resp.Usage.OutputTokens),
	}

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			out.Content += block.Text
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, types.ToolCall{
				ID:        block.ID,
				Name:      llm.ReverseToolName(nameMap, block.Name),
				Arguments: block.Input,
			})
		}
	}
	return out
}

// priceUsage fills token counts and catalog-derived cost.
func (c *Client) priceUsage(inputTokens, outputTokens int) types.Usage {
	u := types.Usage{
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
	}
	if info, ok := llm.Lookup(c.model); ok {
		in, out := info.Cost(inputTokens, outputTokens)
		u.InputCost = in
		u.OutputCost = out
		u.TotalCost = in + out
	}
	return u
}

// ChatStream implements types.StreamingLLMDriver using the Messages API
// with stream=true. onDelta receives each text fragment; the returned
// response matches what Chat would have produced.
func (c *Client) ChatStream(ctx context.Context, messages []types.Message, toolset []tools.Tool, params map[string]interface{}, onDelta types.TokenCallback) (*types.LLMResponse, error) {
	req, nameMap := c.buildRequest(messages, toolset, params, true)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic: marshal request: %w", err)
	}

	httpReq, err := c.newRequest(ctx, body)
	if err != nil {
		return nil, err
	}
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return nil, apiError(httpResp.StatusCode, respBody)
	}

	return c.readStream(ctx, httpResp.Body, nameMap, onDelta)
}

// readStream consumes the SSE stream, forwarding text deltas and
// accumulating tool calls block by block.
func (c *Client) readStream(ctx context.Context, body io.Reader, nameMap map[string]string, onDelta types.TokenCallback) (*types.LLMResponse, error) {
	var content strings.Builder
	var toolCalls []types.ToolCall
	var stopReason, model string
	var inputTokens, outputTokens int

	inputBuffers := make(map[int]*strings.Builder)
	callIndex := make(map[int]int)

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &event); err != nil {
			continue
		}

		switch event.Type {
		case "message_start":
			if event.Message != nil {
				model = event.Message.Model
				inputTokens = event.Message.Usage.InputTokens
			}

		case "content_block_start":
			if event.ContentBlock != nil && event.ContentBlock.Type == "tool_use" {
				callIndex[event.Index] = len(toolCalls)
				toolCalls = append(toolCalls, types.ToolCall{
					ID:        event.ContentBlock.ID,
					Name:      llm.ReverseToolName(nameMap, event.ContentBlock.Name),
					Arguments: map[string]interface{}{},
				})
				inputBuffers[event.Index] = &strings.Builder{}
			}

		case "content_block_delta":
			if event.Delta == nil {
				continue
			}
			switch event.Delta.Type {
			case "text_delta":
				if event.Delta.Text != "" {
					content.WriteString(event.Delta.Text)
					if onDelta != nil {
						onDelta(event.Delta.Text)
					}
				}
			case "input_json_delta":
				if buf, ok := inputBuffers[event.Index]; ok {
					buf.WriteString(event.Delta.PartialJSON)
				}
			}

		case "content_block_stop":
			if buf, ok := inputBuffers[event.Index]; ok && buf.Len() > 0 {
				var input map[string]interface{}
				if err := json.Unmarshal([]byte(buf.String()), &input); err == nil {
					if idx, ok := callIndex[event.Index]; ok && idx < len(toolCalls) {
						toolCalls[idx].Arguments = input
					}
				}
			}
			delete(inputBuffers, event.Index)
			delete(callIndex, event.Index)

		case "message_delta":
			if event.Delta != nil && event.Delta.StopReason != "" {
				stopReason = event.Delta.StopReason
			}
			if event.Usage != nil {
				outputTokens = event.Usage.OutputTokens
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("anthropic: read stream: %w", err)
	}

	if model == "" {
		model = c.model
	}
	return &types.LLMResponse{
		Content:      content.String(),
		ToolCalls:    toolCalls,
		FinishReason: stopReason,
		Model:        model,
		Usage:        c.priceUsage(inputTokens, outputTokens),
	}, nil
}

// callAPI sends one non-streaming request.
func (c *Client) callAPI(ctx context.Context, req *messagesRequest) (*messagesResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic: marshal request: %w", err)
	}

	httpReq, err := c.newRequest(ctx, body)
	if err != nil {
		return nil, err
	}
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("anthropic: read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, apiError(httpResp.StatusCode, respBody)
	}

	var resp messagesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("anthropic: unmarshal response: %w", err)
	}
	return &resp, nil
}

// newRequest builds one HTTP request with auth and version headers plus
// any definition-supplied extras.
func (c *Client) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", c.apiVersion)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// apiError converts a non-200 response into a retryable-aware error:
// 429 and 5xx wrap llm.RetryableError so the caller's retry policy
// fires.
func apiError(status int, body []byte) error {
	err := fmt.Errorf("anthropic: API error (status %d): %s", status, string(body))
	if status == http.StatusTooManyRequests || status >= 500 {
		return &llm.RetryableError{Err: err}
	}
	return err
}

var (
	_ types.LLMDriver          = (*Client)(nil)
	_ types.StreamingLLMDriver = (*Client)(nil)
)
