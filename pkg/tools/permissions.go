// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package tools

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// PermissionConfig is the per-tool path ruleset as declared in
// configuration: globs the tool may touch and globs it must not.
type PermissionConfig struct {
	AllowedPaths []string `yaml:"allowed_paths,omitempty" json:"allowed_paths,omitempty"`
	DeniedPaths  []string `yaml:"denied_paths,omitempty" json:"denied_paths,omitempty"`
}

// IsEmpty reports whether the config carries no rules at all.
func (c *PermissionConfig) IsEmpty() bool {
	return c == nil || (len(c.AllowedPaths) == 0 && len(c.DeniedPaths) == 0)
}

type compiledGlob struct {
	pattern string
	re      *regexp.Regexp
}

// PathRules is a compiled PermissionConfig, resolved against an agent's
// directory. Decision order:
//  1. any denied pattern matches → deny
//  2. allowed list empty → allow
//  3. any allowed pattern matches → allow, otherwise deny
type PathRules struct {
	baseDir string
	allowed []compiledGlob
	denied  []compiledGlob
}

// CompileRules compiles a PermissionConfig against baseDir. Relative
// patterns are rooted at baseDir before compilation; the original
// pattern strings are preserved for error messages.
func CompileRules(cfg *PermissionConfig, baseDir string) (*PathRules, error) {
	rules := &PathRules{baseDir: baseDir}
	if cfg == nil {
		return rules, nil
	}

	compile := func(patterns []string) ([]compiledGlob, error) {
		out := make([]compiledGlob, 0, len(patterns))
		for _, p := range patterns {
			resolved := p
			if !filepath.IsAbs(p) && baseDir != "" {
				resolved = filepath.Join(baseDir, p)
			}
			re, err := CompileGlob(resolved)
			if err != nil {
				return nil, err
			}
			out = append(out, compiledGlob{pattern: p, re: re})
		}
		return out, nil
	}

	var err error
	if rules.allowed, err = compile(cfg.AllowedPaths); err != nil {
		return nil, err
	}
	if rules.denied, err = compile(cfg.DeniedPaths); err != nil {
		return nil, err
	}
	return rules, nil
}

// Allows decides whether path (already resolved and canonical) may be
// touched under these rules.
func (r *PathRules) Allows(path string) bool {
	if r == nil {
		return true
	}
	for _, g := range r.denied {
		if g.re.MatchString(path) {
			return false
		}
	}
	if len(r.allowed) == 0 {
		return true
	}
	for _, g := range r.allowed {
		if g.re.MatchString(path) {
			return true
		}
	}
	return false
}

// Denied reports whether path matches a denied pattern, ignoring the
// allow list.
func (r *PathRules) Denied(path string) bool {
	if r == nil {
		return false
	}
	for _, g := range r.denied {
		if g.re.MatchString(path) {
			return true
		}
	}
	return false
}

// AllowedPatterns returns the configured allow globs as written.
func (r *PathRules) AllowedPatterns() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.allowed))
	for i, g := range r.allowed {
		out[i] = g.pattern
	}
	return out
}

// ResolvePath resolves a tool path argument against baseDir and cleans
// it. Symlinks are resolved when the target exists so the rules see the
// real path.
func (r *PathRules) ResolvePath(path string) string {
	return ResolveAgentPath(r.baseDir, path)
}

// ResolveAgentPath resolves path relative to an agent directory and
// canonicalizes it.
func ResolveAgentPath(baseDir, path string) string {
	if path == "" {
		return path
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	path = filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}

// pathParams are the argument names treated as path-like, in the order
// they are checked.
var pathParams = []string{"file_path", "path"}

// PathFilterer is implemented by directory-scoped tools whose results
// enumerate filesystem paths (Grep, Glob). The permission wrapper
// installs its ruleset so entries outside the allowed paths never
// surface in results, not only as arguments.
type PathFilterer interface {
	SetPathRules(rules *PathRules)
}

// PermissionedTool wraps a Tool and enforces a PathRules ruleset on its
// path-like arguments. The wrapped tool keeps its name, description, and
// schema; denial produces a structured tool failure, never a Go error.
type PermissionedTool struct {
	inner   Tool
	rules   *PathRules
	filters bool
}

// NewPermissionedTool wraps tool with the given compiled rules. Tools
// implementing PathFilterer receive the rules and post-filter their own
// result entries.
func NewPermissionedTool(tool Tool, rules *PathRules) *PermissionedTool {
	filters := false
	if f, ok := tool.(PathFilterer); ok {
		f.SetPathRules(rules)
		filters = true
	}
	return &PermissionedTool{inner: tool, rules: rules, filters: filters}
}

// Unwrap returns the wrapped tool.
func (t *PermissionedTool) Unwrap() Tool { return t.inner }

func (t *PermissionedTool) Name() string             { return t.inner.Name() }
func (t *PermissionedTool) Description() string      { return t.inner.Description() }
func (t *PermissionedTool) InputSchema() *JSONSchema { return t.inner.InputSchema() }

// Execute checks every path-like argument against the ruleset before
// delegating to the wrapped tool.
func (t *PermissionedTool) Execute(ctx context.Context, params map[string]interface{}) (*Result, error) {
	start := time.Now()

	for _, key := range pathParams {
		raw, ok := params[key].(string)
		if !ok || raw == "" {
			continue
		}
		resolved := t.rules.ResolvePath(raw)
		denied := !t.rules.Allows(resolved)
		if denied && t.filters && !t.rules.Denied(resolved) {
			// Filtering tools may search above the allowed subtree; the
			// allow list applies to the entries they return instead.
			denied = false
		}
		if denied {
			allowed := t.rules.AllowedPatterns()
			msg := fmt.Sprintf("Permission denied: %s is not an allowed path for tool %s", resolved, t.inner.Name())
			if len(allowed) > 0 {
				msg += fmt.Sprintf(". Allowed paths: [%s]", strings.Join(allowed, ", "))
			}
			return &Result{
				Success: false,
				Error: &Error{
					Code:       "PERMISSION_DENIED",
					Message:    msg,
					Details:    map[string]interface{}{"path": resolved, "allowed_paths": allowed},
					Suggestion: "Use a path matching the tool's allowed_paths globs, or adjust the agent's permissions",
				},
				ExecutionTimeMs: time.Since(start).Milliseconds(),
			}, nil
		}
	}

	return t.inner.Execute(ctx, params)
}

var _ Tool = (*PermissionedTool)(nil)
