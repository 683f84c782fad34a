// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package builtin

import (
	"context"
	"fmt"
	"time"

	"github.com/teradata-labs/weft/pkg/tools"
)

// MultiEditTool applies a sequence of edits to one file atomically:
// either every edit applies or the file is left untouched.
type MultiEditTool struct {
	deps Deps
}

// NewMultiEditTool creates the MultiEdit tool for one agent.
func NewMultiEditTool(deps Deps) *MultiEditTool {
	return &MultiEditTool{deps: deps}
}

func (t *MultiEditTool) Name() string { return "MultiEdit" }

func (t *MultiEditTool) Description() string {
	return `Applies several exact string replacements to one file in order, all-or-nothing.

Each edit sees the result of the previous one. Any failing edit aborts the whole call and leaves the file unchanged. You must read the file first.`
}

func (t *MultiEditTool) InputSchema() *tools.JSONSchema {
	edit := tools.NewObjectSchema(
		"One replacement",
		map[string]*tools.JSONSchema{
			"old_string":  tools.NewStringSchema("Exact text to replace"),
			"new_string":  tools.NewStringSchema("Replacement text"),
			"replace_all": tools.NewBooleanSchema("Replace every occurrence").WithDefault(false),
		},
		[]string{"old_string", "new_string"},
	)
	return tools.NewObjectSchema(
		"Parameters for multi-edit",
		map[string]*tools.JSONSchema{
			"file_path": tools.NewStringSchema("Path of the file to edit (required)"),
			"edits":     tools.NewArraySchema("Edits to apply in order (required, non-empty)", edit),
		},
		[]string{"file_path", "edits"},
	)
}

func (t *MultiEditTool) Execute(ctx context.Context, params map[string]interface{}) (*tools.Result, error) {
	start := time.Now()

	path, fail := stringParam(params, "file_path", start)
	if fail != nil {
		return fail, nil
	}

	rawEdits, ok := params["edits"].([]interface{})
	if !ok || len(rawEdits) == 0 {
		return finish(tools.Errorf("INVALID_PARAMS", "edits must be a non-empty array",
			"Provide at least one {old_string, new_string} entry"), start)
	}

	edits := make([]editOp, 0, len(rawEdits))
	for i, raw := range rawEdits {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return finish(tools.Errorf("INVALID_PARAMS",
				"edits entries must be objects",
				"Each edit needs old_string and new_string fields"), start)
		}
		oldStr, _ := m["old_string"].(string)
		newStr, _ := m["new_string"].(string)
		if oldStr == "" {
			return finish(tools.Errorf("INVALID_PARAMS",
				fmt.Sprintf("edit %d: old_string is required", i+1), ""), start)
		}
		if oldStr == newStr {
			return finish(tools.Errorf("INVALID_PARAMS",
				fmt.Sprintf("edit %d: old_string and new_string are identical", i+1), ""), start)
		}
		replaceAll, _ := m["replace_all"].(bool)
		edits = append(edits, editOp{Old: oldStr, New: newStr, ReplaceAll: replaceAll})
	}

	resolved := tools.ResolveAgentPath(t.deps.BaseDir, path)
	return finish(applyEdits(t.deps, resolved, edits), start)
}

var _ tools.Tool = (*MultiEditTool)(nil)
