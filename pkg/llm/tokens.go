// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/teradata-labs/weft/pkg/types"
)

// TokenCounter estimates token counts with tiktoken's cl100k_base
// encoding (a good approximation for Claude and GPT families). Drivers
// that report real usage win; the counter fills in when they report
// zero.
type TokenCounter struct {
	encoder *tiktoken.Tiktoken
	mu      sync.Mutex
}

var (
	globalCounter *TokenCounter
	counterOnce   sync.Once
)

// GetTokenCounter returns the shared counter. Encoding setup happens
// once; if tiktoken cannot load, counting falls back to len/4.
func GetTokenCounter() *TokenCounter {
	counterOnce.Do(func() {
		tkm, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			globalCounter = &TokenCounter{}
			return
		}
		globalCounter = &TokenCounter{encoder: tkm}
	})
	return globalCounter
}

// CountText returns the token count for one string.
func (tc *TokenCounter) CountText(text string) int {
	if tc.encoder == nil {
		return len(text) / 4
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.encoder.Encode(text, nil, nil))
}

// messageOverhead approximates per-message framing tokens.
const messageOverhead = 4

// CountMessages estimates the token footprint of a conversation.
func (tc *TokenCounter) CountMessages(messages []types.Message) int {
	total := 0
	for _, m := range messages {
		total += messageOverhead
		total += tc.CountText(m.Content)
		for _, call := range m.ToolCalls {
			total += tc.CountText(call.Name)
			for k, v := range call.Arguments {
				total += tc.CountText(k)
				if s, ok := v.(string); ok {
					total += tc.CountText(s)
				} else {
					total += 4
				}
			}
		}
	}
	return total
}
