// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/weft/pkg/observability"
	"github.com/teradata-labs/weft/pkg/tools"
	"github.com/teradata-labs/weft/pkg/types"
)

// instrumentedDriver wraps a driver with structured logging and a span
// per request. It is transparent: streaming capability of the wrapped
// driver is preserved.
type instrumentedDriver struct {
	driver types.LLMDriver
	logger *zap.Logger
	tracer observability.Tracer
}

// Instrument wraps driver so every call is logged with model, latency,
// token usage, and cost. A nil logger or tracer falls back to no-ops.
func Instrument(driver types.LLMDriver, logger *zap.Logger, tracer observability.Tracer) types.LLMDriver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tracer == nil {
		tracer = observability.NewNoOpTracer()
	}
	d := &instrumentedDriver{driver: driver, logger: logger, tracer: tracer}
	if streaming, ok := driver.(types.StreamingLLMDriver); ok {
		return &instrumentedStreamingDriver{instrumentedDriver: d, streaming: streaming}
	}
	return d
}

func (d *instrumentedDriver) Name() string  { return d.driver.Name() }
func (d *instrumentedDriver) Model() string { return d.driver.Model() }

func (d *instrumentedDriver) Chat(ctx context.Context, messages []types.Message, toolset []tools.Tool, params map[string]interface{}) (*types.LLMResponse, error) {
	ctx, span := d.tracer.StartSpan(ctx, "llm.chat")
	defer d.tracer.EndSpan(span)

	start := time.Now()
	resp, err := d.driver.Chat(ctx, messages, toolset, params)
	d.record(span, start, len(messages), resp, err)
	return resp, err
}

func (d *instrumentedDriver) record(span *observability.Span, start time.Time, messageCount int, resp *types.LLMResponse, err error) {
	elapsed := time.Since(start)
	fields := []zap.Field{
		zap.String("provider", d.driver.Name()),
		zap.String("model", d.driver.Model()),
		zap.Int("messages", messageCount),
		zap.Duration("duration", elapsed),
	}
	if span != nil {
		span.SetAttribute("llm.provider", d.driver.Name())
		span.SetAttribute("llm.model", d.driver.Model())
	}

	if err != nil {
		d.logger.Warn("llm request failed", append(fields, zap.Error(err))...)
		return
	}

	fields = append(fields,
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Float64("cost", resp.Usage.TotalCost),
		zap.Int("tool_calls", len(resp.ToolCalls)),
		zap.String("finish_reason", resp.FinishReason),
	)
	if span != nil {
		span.SetAttribute("llm.tokens", resp.Usage.TotalTokens)
		span.SetAttribute("llm.cost", resp.Usage.TotalCost)
	}
	d.logger.Debug("llm request completed", fields...)
}

// instrumentedStreamingDriver adds the streaming path for drivers that
// support it.
type instrumentedStreamingDriver struct {
	*instrumentedDriver
	streaming types.StreamingLLMDriver
}

func (d *instrumentedStreamingDriver) ChatStream(ctx context.Context, messages []types.Message, toolset []tools.Tool, params map[string]interface{}, onDelta types.TokenCallback) (*types.LLMResponse, error) {
	ctx, span := d.tracer.StartSpan(ctx, "llm.chat_stream")
	defer d.tracer.EndSpan(span)

	start := time.Now()
	resp, err := d.streaming.ChatStream(ctx, messages, toolset, params, onDelta)
	d.record(span, start, len(messages), resp, err)
	return resp, err
}

var (
	_ types.LLMDriver          = (*instrumentedDriver)(nil)
	_ types.StreamingLLMDriver = (*instrumentedStreamingDriver)(nil)
)
