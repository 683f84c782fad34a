// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package builtin

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/teradata-labs/weft/pkg/tools"
)

// MaxReadBytes caps how much of a file Read returns in one call.
const MaxReadBytes = 256 * 1024

// readDirective is prepended to every Read result so the model treats
// the payload as file content, not instructions.
const readDirective = "<file_contents>\n"

// ReadTool returns file content and registers the read with the agent's
// ReadTracker, unlocking Write and Edit for that path.
type ReadTool struct {
	deps Deps
}

// NewReadTool creates the Read tool for one agent.
func NewReadTool(deps Deps) *ReadTool {
	return &ReadTool{deps: deps}
}

func (t *ReadTool) Name() string { return "Read" }

func (t *ReadTool) Description() string {
	return `Reads a file from the local filesystem. Relative paths resolve against the agent's working directory.

You must read a file before writing or editing it. Optional offset/limit select a line range for large files.`
}

func (t *ReadTool) InputSchema() *tools.JSONSchema {
	return tools.NewObjectSchema(
		"Parameters for reading a file",
		map[string]*tools.JSONSchema{
			"file_path": tools.NewStringSchema("Path of the file to read (required)"),
			"offset":    tools.NewIntegerSchema("Line number to start reading from (1-based, optional)"),
			"limit":     tools.NewIntegerSchema("Maximum number of lines to return (optional)"),
		},
		[]string{"file_path"},
	)
}

func (t *ReadTool) Execute(ctx context.Context, params map[string]interface{}) (*tools.Result, error) {
	start := time.Now()

	path, fail := stringParam(params, "file_path", start)
	if fail != nil {
		return fail, nil
	}

	resolved := tools.ResolveAgentPath(t.deps.BaseDir, path)
	info, err := os.Stat(resolved)
	if err != nil {
		return finish(tools.Errorf("FILE_NOT_FOUND",
			fmt.Sprintf("File does not exist: %s", resolved),
			"Check the path or use Glob to locate the file"), start)
	}
	if info.IsDir() {
		return finish(tools.Errorf("IS_DIRECTORY",
			fmt.Sprintf("%s is a directory, not a file", resolved),
			"Use Glob or Grep to inspect directories"), start)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return finish(tools.Errorf("READ_FAILED",
			fmt.Sprintf("Failed to read %s: %v", resolved, err), ""), start)
	}

	// Line selection first, so offset can reach any part of the file;
	// the byte cap applies to what is actually returned.
	content := string(data)
	if off, ok := numberParam(params, "offset"); ok && off > 0 {
		lines := strings.Split(content, "\n")
		if off > len(lines) {
			lines = nil
		} else {
			lines = lines[off-1:]
		}
		if lim, ok := numberParam(params, "limit"); ok && lim > 0 && lim < len(lines) {
			lines = lines[:lim]
		}
		content = strings.Join(lines, "\n")
	} else if lim, ok := numberParam(params, "limit"); ok && lim > 0 {
		lines := strings.Split(content, "\n")
		if lim < len(lines) {
			content = strings.Join(lines[:lim], "\n")
		}
	}

	truncated := false
	if len(content) > MaxReadBytes {
		content = content[:MaxReadBytes]
		truncated = true
	}

	if t.deps.Tracker != nil {
		t.deps.Tracker.MarkRead(t.deps.Agent, resolved)
	}

	res := tools.Ok(readDirective + content + "\n</file_contents>")
	res.Metadata = map[string]interface{}{
		"file_path": resolved,
		"size":      info.Size(),
		"truncated": truncated,
	}
	return finish(res, start)
}

// numberParam extracts an integer-ish parameter. JSON numbers arrive as
// float64.
func numberParam(params map[string]interface{}, key string) (int, bool) {
	switch v := params[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

var _ tools.Tool = (*ReadTool)(nil)
