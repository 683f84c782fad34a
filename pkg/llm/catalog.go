// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package llm holds provider-independent LLM support: the model catalog
// with context windows and pricing, token estimation, the retry policy
// for transient driver failures, and provider-safe tool naming.
package llm

import (
	"fmt"
	"sort"

	"github.com/sahilm/fuzzy"
)

// ModelInfo describes one known model.
type ModelInfo struct {
	ID            string
	Name          string
	Provider      string
	ContextWindow int

	// Cost in USD per million tokens.
	InputCostPerMTok  float64
	OutputCostPerMTok float64
}

// Cost returns the USD cost of a call with the given token counts.
func (m *ModelInfo) Cost(inputTokens, outputTokens int) (inputCost, outputCost float64) {
	inputCost = float64(inputTokens) / 1e6 * m.InputCostPerMTok
	outputCost = float64(outputTokens) / 1e6 * m.OutputCostPerMTok
	return inputCost, outputCost
}

// catalog lists the models weft knows pricing and window sizes for.
// Unknown models still run; they just get the default window and zero
// cost, plus a model_lookup_warning with suggestions.
var catalog = []ModelInfo{
	{ID: "claude-sonnet-4-5-20250929", Name: "Claude Sonnet 4.5", Provider: "anthropic", ContextWindow: 200000, InputCostPerMTok: 3.0, OutputCostPerMTok: 15.0},
	{ID: "claude-opus-4-5-20251101", Name: "Claude Opus 4.5", Provider: "anthropic", ContextWindow: 200000, InputCostPerMTok: 15.0, OutputCostPerMTok: 75.0},
	{ID: "claude-haiku-4-5-20251001", Name: "Claude Haiku 4.5", Provider: "anthropic", ContextWindow: 200000, InputCostPerMTok: 0.8, OutputCostPerMTok: 4.0},
	{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet", Provider: "anthropic", ContextWindow: 200000, InputCostPerMTok: 3.0, OutputCostPerMTok: 15.0},
	{ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku", Provider: "anthropic", ContextWindow: 200000, InputCostPerMTok: 0.8, OutputCostPerMTok: 4.0},
	{ID: "claude-3-opus-20240229", Name: "Claude 3 Opus", Provider: "anthropic", ContextWindow: 200000, InputCostPerMTok: 15.0, OutputCostPerMTok: 75.0},
	{ID: "gpt-4o", Name: "GPT-4o", Provider: "openai", ContextWindow: 128000, InputCostPerMTok: 2.5, OutputCostPerMTok: 10.0},
	{ID: "gpt-4o-mini", Name: "GPT-4o mini", Provider: "openai", ContextWindow: 128000, InputCostPerMTok: 0.15, OutputCostPerMTok: 0.6},
	{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", Provider: "openai", ContextWindow: 128000, InputCostPerMTok: 10.0, OutputCostPerMTok: 30.0},
	{ID: "o3-mini", Name: "o3-mini", Provider: "openai", ContextWindow: 200000, InputCostPerMTok: 1.1, OutputCostPerMTok: 4.4},
	{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", Provider: "gemini", ContextWindow: 1000000, InputCostPerMTok: 0.1, OutputCostPerMTok: 0.4},
	{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", Provider: "gemini", ContextWindow: 2000000, InputCostPerMTok: 1.25, OutputCostPerMTok: 5.0},
	{ID: "llama3.1", Name: "Llama 3.1", Provider: "ollama", ContextWindow: 128000},
	{ID: "mistral-large-latest", Name: "Mistral Large", Provider: "mistral", ContextWindow: 128000, InputCostPerMTok: 2.0, OutputCostPerMTok: 6.0},
}

var catalogByID = func() map[string]*ModelInfo {
	m := make(map[string]*ModelInfo, len(catalog))
	for i := range catalog {
		m[catalog[i].ID] = &catalog[i]
	}
	return m
}()

// Lookup returns the catalog entry for a model ID.
func Lookup(model string) (*ModelInfo, bool) {
	info, ok := catalogByID[model]
	return info, ok
}

// KnownModels returns every catalog model ID, sorted.
func KnownModels() []string {
	out := make([]string, 0, len(catalogByID))
	for id := range catalogByID {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// maxSuggestions bounds the fuzzy suggestion list.
const maxSuggestions = 3

// Suggestions returns fuzzy-ranked catalog IDs close to the unknown
// model name, best match first.
func Suggestions(model string) []string {
	ids := KnownModels()
	matches := fuzzy.Find(model, ids)
	n := len(matches)
	if n > maxSuggestions {
		n = maxSuggestions
	}
	out := make([]string, 0, n)
	for _, m := range matches[:n] {
		out = append(out, m.Str)
	}
	return out
}

// LookupError describes a failed catalog lookup for the
// model_lookup_warning event.
func LookupError(model string) string {
	return fmt.Sprintf("model %q not found in catalog; using default context window and zero cost", model)
}
