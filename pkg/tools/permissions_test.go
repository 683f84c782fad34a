// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTool remembers the params of its last execution.
type recordingTool struct {
	name   string
	called bool
	params map[string]interface{}
}

func (r *recordingTool) Name() string        { return r.name }
func (r *recordingTool) Description() string { return "records calls" }
func (r *recordingTool) InputSchema() *JSONSchema {
	return NewObjectSchema("", map[string]*JSONSchema{
		"file_path": NewStringSchema("path"),
	}, []string{"file_path"})
}
func (r *recordingTool) Execute(ctx context.Context, params map[string]interface{}) (*Result, error) {
	r.called = true
	r.params = params
	return Ok("done"), nil
}

func TestPathRulesDecisionOrder(t *testing.T) {
	rules, err := CompileRules(&PermissionConfig{
		AllowedPaths: []string{"/work/**"},
		DeniedPaths:  []string{"/work/secrets/**"},
	}, "")
	require.NoError(t, err)

	assert.True(t, rules.Allows("/work/notes.txt"))
	assert.True(t, rules.Allows("/work/sub/deep/file.go"))
	assert.False(t, rules.Allows("/work/secrets/key.pem"), "deny wins over allow")
	assert.False(t, rules.Allows("/etc/passwd"), "outside the allow list")
}

func TestPathRulesEmptyAllowListAllowsAll(t *testing.T) {
	rules, err := CompileRules(&PermissionConfig{
		DeniedPaths: []string{"/tmp/**"},
	}, "")
	require.NoError(t, err)

	assert.True(t, rules.Allows("/anywhere/else"))
	assert.False(t, rules.Allows("/tmp/scratch"))
}

func TestCompileRulesRootsRelativePatterns(t *testing.T) {
	rules, err := CompileRules(&PermissionConfig{
		AllowedPaths: []string{"data/**"},
	}, "/agents/alpha")
	require.NoError(t, err)

	assert.True(t, rules.Allows("/agents/alpha/data/x.csv"))
	assert.False(t, rules.Allows("/agents/beta/data/x.csv"))
	// Error messages show the pattern as written.
	assert.Equal(t, []string{"data/**"}, rules.AllowedPatterns())
}

func TestPermissionedToolDeniesWithContext(t *testing.T) {
	inner := &recordingTool{name: "write_file"}
	rules, err := CompileRules(&PermissionConfig{
		AllowedPaths: []string{"/work/**"},
	}, "")
	require.NoError(t, err)

	wrapped := NewPermissionedTool(inner, rules)
	res, err := wrapped.Execute(context.Background(), map[string]interface{}{
		"file_path": "/etc/shadow",
	})
	require.NoError(t, err, "denial is data, not a Go error")
	require.NotNil(t, res.Error)
	assert.False(t, res.Success)
	assert.Equal(t, "PERMISSION_DENIED", res.Error.Code)
	assert.Contains(t, res.Error.Message, "/etc/shadow")
	assert.Contains(t, res.Error.Message, "/work/**")
	assert.False(t, inner.called, "denied call must not reach the tool")
}

func TestPermissionedToolPassesAllowedPaths(t *testing.T) {
	inner := &recordingTool{name: "read_file"}
	rules, err := CompileRules(&PermissionConfig{
		AllowedPaths: []string{"/work/**"},
	}, "")
	require.NoError(t, err)

	wrapped := NewPermissionedTool(inner, rules)
	res, err := wrapped.Execute(context.Background(), map[string]interface{}{
		"file_path": "/work/readme.md",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, inner.called)
	assert.Equal(t, "read_file", wrapped.Name())
}

func TestResolveAgentPath(t *testing.T) {
	assert.Equal(t, "/base/sub/f.txt", ResolveAgentPath("/base", "sub/f.txt"))
	assert.Equal(t, "/abs/f.txt", ResolveAgentPath("/base", "/abs/f.txt"))
	assert.Equal(t, "/base/f.txt", ResolveAgentPath("/base", "sub/../f.txt"))
	assert.Equal(t, "", ResolveAgentPath("/base", ""))
}
