// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package builtin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/teradata-labs/weft/pkg/state"
	"github.com/teradata-labs/weft/pkg/tools"
)

// ScratchpadWriteTool stores a document in the swarm-wide scratchpad.
type ScratchpadWriteTool struct {
	deps Deps
}

// NewScratchpadWriteTool creates the ScratchpadWrite tool for one agent.
func NewScratchpadWriteTool(deps Deps) *ScratchpadWriteTool {
	return &ScratchpadWriteTool{deps: deps}
}

func (t *ScratchpadWriteTool) Name() string { return "ScratchpadWrite" }

func (t *ScratchpadWriteTool) Description() string {
	return `Stores a document in the shared scratchpad, visible to every agent in the swarm.

Paths are hierarchical (e.g. research/findings). Limits: 1MB per entry, 100MB total.`
}

func (t *ScratchpadWriteTool) InputSchema() *tools.JSONSchema {
	return tools.NewObjectSchema(
		"Parameters for a scratchpad write",
		map[string]*tools.JSONSchema{
			"file_path": tools.NewStringSchema("Hierarchical entry path (required)"),
			"content":   tools.NewStringSchema("Document content (required)"),
			"title":     tools.NewStringSchema("Short human-readable title (required)"),
		},
		[]string{"file_path", "content", "title"},
	)
}

func (t *ScratchpadWriteTool) Execute(ctx context.Context, params map[string]interface{}) (*tools.Result, error) {
	start := time.Now()

	path, fail := stringParam(params, "file_path", start)
	if fail != nil {
		return fail, nil
	}
	content, ok := params["content"].(string)
	if !ok {
		return finish(tools.Errorf("INVALID_PARAMS", "content is required", ""), start)
	}
	title, _ := params["title"].(string)

	entry, err := t.deps.Scratchpad.Write(t.deps.Agent, path, title, content)
	if err != nil {
		code := "WRITE_FAILED"
		suggestion := ""
		switch {
		case errors.Is(err, state.ErrEntryTooLarge):
			code = "ENTRY_TOO_LARGE"
			suggestion = "Split the document across multiple scratchpad entries"
		case errors.Is(err, state.ErrStoreFull):
			code = "STORE_FULL"
			suggestion = "Remove or shrink existing entries before adding more"
		}
		return finish(tools.Errorf(code, err.Error(), suggestion), start)
	}

	res := tools.Ok(fmt.Sprintf("Stored %s (%d bytes, version %d)", entry.Path, entry.Size, entry.Version))
	res.Metadata = map[string]interface{}{
		"path":    entry.Path,
		"size":    entry.Size,
		"version": entry.Version,
	}
	return finish(res, start)
}

// ScratchpadReadTool returns a scratchpad document.
type ScratchpadReadTool struct {
	deps Deps
}

// NewScratchpadReadTool creates the ScratchpadRead tool for one agent.
func NewScratchpadReadTool(deps Deps) *ScratchpadReadTool {
	return &ScratchpadReadTool{deps: deps}
}

func (t *ScratchpadReadTool) Name() string { return "ScratchpadRead" }

func (t *ScratchpadReadTool) Description() string {
	return "Reads a document from the shared scratchpad by its entry path."
}

func (t *ScratchpadReadTool) InputSchema() *tools.JSONSchema {
	return tools.NewObjectSchema(
		"Parameters for a scratchpad read",
		map[string]*tools.JSONSchema{
			"file_path": tools.NewStringSchema("Entry path to read (required)"),
		},
		[]string{"file_path"},
	)
}

func (t *ScratchpadReadTool) Execute(ctx context.Context, params map[string]interface{}) (*tools.Result, error) {
	start := time.Now()

	path, fail := stringParam(params, "file_path", start)
	if fail != nil {
		return fail, nil
	}

	content, entry, err := t.deps.Scratchpad.Read(path)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return finish(tools.Errorf("NOT_FOUND",
				fmt.Sprintf("No scratchpad entry at %s", path),
				"Use ScratchpadList to see available entries"), start)
		}
		return finish(tools.Errorf("READ_FAILED", err.Error(), ""), start)
	}

	res := tools.Ok(content)
	res.Metadata = map[string]interface{}{
		"path":       entry.Path,
		"title":      entry.Title,
		"version":    entry.Version,
		"updated_by": entry.UpdatedBy,
	}
	return finish(res, start)
}

// ScratchpadListTool lists scratchpad entries, optionally under a prefix.
type ScratchpadListTool struct {
	deps Deps
}

// NewScratchpadListTool creates the ScratchpadList tool for one agent.
func NewScratchpadListTool(deps Deps) *ScratchpadListTool {
	return &ScratchpadListTool{deps: deps}
}

func (t *ScratchpadListTool) Name() string { return "ScratchpadList" }

func (t *ScratchpadListTool) Description() string {
	return "Lists shared scratchpad entries (path, title, size, version, last writer), optionally filtered by a path prefix."
}

func (t *ScratchpadListTool) InputSchema() *tools.JSONSchema {
	return tools.NewObjectSchema(
		"Parameters for a scratchpad listing",
		map[string]*tools.JSONSchema{
			"prefix": tools.NewStringSchema("Only list entries whose path starts with this prefix (optional)"),
		},
		nil,
	)
}

func (t *ScratchpadListTool) Execute(ctx context.Context, params map[string]interface{}) (*tools.Result, error) {
	start := time.Now()

	prefix, _ := params["prefix"].(string)
	summaries := t.deps.Scratchpad.List(prefix)
	if len(summaries) == 0 {
		return finish(tools.Ok("Scratchpad is empty"), start)
	}

	res := tools.Ok(summaries)
	res.Metadata = map[string]interface{}{"entries": len(summaries)}
	return finish(res, start)
}

var (
	_ tools.Tool = (*ScratchpadWriteTool)(nil)
	_ tools.Tool = (*ScratchpadReadTool)(nil)
	_ tools.Tool = (*ScratchpadListTool)(nil)
)
