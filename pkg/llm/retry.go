// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package llm

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"
)

// RetryPolicy retries transient driver failures with exponential backoff
// and jitter. Non-retryable errors surface immediately.
type RetryPolicy struct {
	// MaxAttempts includes the first try (default 3).
	MaxAttempts int

	// InitialBackoff doubles after each failed attempt (default 1s).
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff growth (default 30s).
	MaxBackoff time.Duration
}

// DefaultRetryPolicy returns the policy weft uses for LLM calls.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// RetryableError marks a driver error as safe to retry.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err so the policy will retry it.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether the policy should retry err: explicit
// RetryableError wrappers, plus the usual throttling and transient
// transport signatures.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var re *RetryableError
	if errors.As(err, &re) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range []string{
		"429", "rate limit", "throttl", "overloaded",
		"500", "502", "503", "504",
		"connection reset", "connection refused", "timeout", "temporarily unavailable",
	} {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// Do runs call, retrying transient failures per the policy. The last
// error is returned when attempts are exhausted; context cancellation
// stops retrying immediately.
func (p *RetryPolicy) Do(ctx context.Context, call func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := p.InitialBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = call(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) || attempt == attempts {
			return lastErr
		}

		// Full jitter keeps concurrent retries from synchronizing.
		sleep := time.Duration(rand.Int63n(int64(backoff)) + 1)
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
		if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}
	return lastErr
}
