// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package llm

import "strings"

// SanitizeToolName converts a tool name to a provider-compatible format.
// Providers restrict tool names to patterns like ^[a-zA-Z0-9_-]{1,64}$;
// MCP tools use colon namespacing ("server:tool") which breaks them, so
// colons become underscores.
func SanitizeToolName(name string) string {
	if !strings.ContainsRune(name, ':') {
		return name
	}
	return strings.ReplaceAll(name, ":", "_")
}

// BuildToolNameMap maps sanitized names back to their originals.
func BuildToolNameMap(names []string) map[string]string {
	m := make(map[string]string, len(names))
	for _, name := range names {
		m[SanitizeToolName(name)] = name
	}
	return m
}

// ReverseToolName returns the original name for a sanitized one, or the
// input unchanged when no mapping exists.
func ReverseToolName(nameMap map[string]string, sanitized string) string {
	if original, ok := nameMap[sanitized]; ok {
		return original
	}
	return sanitized
}
