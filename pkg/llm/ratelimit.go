// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/weft/pkg/tools"
	"github.com/teradata-labs/weft/pkg/types"
)

// RateLimitConfig paces requests through a wrapped driver. The limiter
// sits below the retry policy, so throttled providers see a steady
// request rate instead of retry bursts.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained request rate. Zero or negative
	// disables the limiter.
	RequestsPerSecond float64

	// Burst is how many requests may start immediately before pacing
	// kicks in (default 1).
	Burst int

	// QueueTimeout caps how long one request may wait for its slot
	// (default 5 minutes).
	QueueTimeout time.Duration

	Logger *zap.Logger
}

// ErrRateLimitQueueFull is returned when a request would wait longer
// than the configured queue timeout.
var ErrRateLimitQueueFull = fmt.Errorf("llm: rate limiter queue timeout")

type rateLimitedDriver struct {
	driver       types.LLMDriver
	logger       *zap.Logger
	interval     time.Duration
	burst        int
	queueTimeout time.Duration

	mu   sync.Mutex
	next time.Time
}

// RateLimit wraps driver so calls are paced at the configured rate.
// Streaming capability of the wrapped driver is preserved.
func RateLimit(driver types.LLMDriver, cfg RateLimitConfig) types.LLMDriver {
	if cfg.RequestsPerSecond <= 0 {
		return driver
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.QueueTimeout <= 0 {
		cfg.QueueTimeout = 5 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	d := &rateLimitedDriver{
		driver:       driver,
		logger:       cfg.Logger,
		interval:     time.Duration(float64(time.Second) / cfg.RequestsPerSecond),
		burst:        cfg.Burst,
		queueTimeout: cfg.QueueTimeout,
	}
	if streaming, ok := driver.(types.StreamingLLMDriver); ok {
		return &rateLimitedStreamingDriver{rateLimitedDriver: d, streaming: streaming}
	}
	return d
}

func (d *rateLimitedDriver) Name() string  { return d.driver.Name() }
func (d *rateLimitedDriver) Model() string { return d.driver.Model() }

func (d *rateLimitedDriver) Chat(ctx context.Context, messages []types.Message, toolset []tools.Tool, params map[string]interface{}) (*types.LLMResponse, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	return d.driver.Chat(ctx, messages, toolset, params)
}

// wait reserves the next request slot and sleeps until it opens. The
// schedule is a virtual clock: each reservation pushes it one interval
// forward, and it may lag real time by up to burst intervals.
func (d *rateLimitedDriver) wait(ctx context.Context) error {
	d.mu.Lock()
	now := time.Now()
	floor := now.Add(-time.Duration(d.burst-1) * d.interval)
	if d.next.Before(floor) {
		d.next = floor
	}
	wait := d.next.Sub(now)
	if wait > d.queueTimeout {
		d.mu.Unlock()
		return fmt.Errorf("%w (would wait %s)", ErrRateLimitQueueFull, wait.Round(time.Millisecond))
	}
	d.next = d.next.Add(d.interval)
	d.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	d.logger.Debug("rate limiter pacing request",
		zap.String("model", d.driver.Model()),
		zap.Duration("wait", wait))

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type rateLimitedStreamingDriver struct {
	*rateLimitedDriver
	streaming types.StreamingLLMDriver
}

func (d *rateLimitedStreamingDriver) ChatStream(ctx context.Context, messages []types.Message, toolset []tools.Tool, params map[string]interface{}, onDelta types.TokenCallback) (*types.LLMResponse, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	return d.streaming.ChatStream(ctx, messages, toolset, params, onDelta)
}

var (
	_ types.LLMDriver          = (*rateLimitedDriver)(nil)
	_ types.StreamingLLMDriver = (*rateLimitedStreamingDriver)(nil)
)
