// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package builtin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/teradata-labs/weft/pkg/tools"
)

// WriteTool writes a file atomically. Overwriting an existing file
// requires a prior Read by the same agent.
type WriteTool struct {
	deps Deps
}

// NewWriteTool creates the Write tool for one agent.
func NewWriteTool(deps Deps) *WriteTool {
	return &WriteTool{deps: deps}
}

func (t *WriteTool) Name() string { return "Write" }

func (t *WriteTool) Description() string {
	return `Writes content to a file, creating parent directories as needed.

Overwriting an existing file requires reading it first with the Read tool. Writes are atomic (temp file plus rename).`
}

func (t *WriteTool) InputSchema() *tools.JSONSchema {
	return tools.NewObjectSchema(
		"Parameters for writing a file",
		map[string]*tools.JSONSchema{
			"file_path": tools.NewStringSchema("Path of the file to write (required)"),
			"content":   tools.NewStringSchema("Content to write (required)"),
		},
		[]string{"file_path", "content"},
	)
}

func (t *WriteTool) Execute(ctx context.Context, params map[string]interface{}) (*tools.Result, error) {
	start := time.Now()

	path, fail := stringParam(params, "file_path", start)
	if fail != nil {
		return fail, nil
	}
	content, ok := params["content"].(string)
	if !ok {
		return finish(tools.Errorf("INVALID_PARAMS", "content is required",
			"Provide the content parameter (an empty string is allowed)"), start)
	}

	resolved := tools.ResolveAgentPath(t.deps.BaseDir, path)

	if _, err := os.Stat(resolved); err == nil {
		if t.deps.Tracker == nil || !t.deps.Tracker.HasRead(t.deps.Agent, resolved) {
			return finish(tools.Errorf("READ_REQUIRED",
				fmt.Sprintf("Cannot write without reading first: %s", resolved),
				"Read the file with the Read tool, then retry the write"), start)
		}
	}

	if err := atomicWrite(resolved, []byte(content)); err != nil {
		return finish(tools.Errorf("WRITE_FAILED",
			fmt.Sprintf("Failed to write %s: %v", resolved, err), ""), start)
	}

	// The writer has seen the content it just wrote.
	if t.deps.Tracker != nil {
		t.deps.Tracker.MarkRead(t.deps.Agent, resolved)
	}

	res := tools.Ok(fmt.Sprintf("Wrote %d bytes to %s", len(content), resolved))
	res.Metadata = map[string]interface{}{
		"file_path": resolved,
		"size":      len(content),
	}
	return finish(res, start)
}

// atomicWrite writes data to a temp file in the target directory and
// renames it into place.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".weft-write-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

var _ tools.Tool = (*WriteTool)(nil)
