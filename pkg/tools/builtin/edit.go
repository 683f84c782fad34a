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

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/teradata-labs/weft/pkg/tools"
)

// EditTool performs exact string replacement in a file. Requires a prior
// Read by the same agent.
type EditTool struct {
	deps Deps
}

// NewEditTool creates the Edit tool for one agent.
func NewEditTool(deps Deps) *EditTool {
	return &EditTool{deps: deps}
}

func (t *EditTool) Name() string { return "Edit" }

func (t *EditTool) Description() string {
	return `Performs an exact string replacement in a file.

The old string must appear exactly once unless replace_all is set. You must read the file first with the Read tool.`
}

func (t *EditTool) InputSchema() *tools.JSONSchema {
	return tools.NewObjectSchema(
		"Parameters for editing a file",
		map[string]*tools.JSONSchema{
			"file_path":   tools.NewStringSchema("Path of the file to edit (required)"),
			"old_string":  tools.NewStringSchema("Exact text to replace (required)"),
			"new_string":  tools.NewStringSchema("Replacement text (required, must differ from old_string)"),
			"replace_all": tools.NewBooleanSchema("Replace every occurrence instead of requiring a unique match").WithDefault(false),
		},
		[]string{"file_path", "old_string", "new_string"},
	)
}

func (t *EditTool) Execute(ctx context.Context, params map[string]interface{}) (*tools.Result, error) {
	start := time.Now()

	path, fail := stringParam(params, "file_path", start)
	if fail != nil {
		return fail, nil
	}
	oldStr, ok := params["old_string"].(string)
	if !ok || oldStr == "" {
		return finish(tools.Errorf("INVALID_PARAMS", "old_string is required",
			"Provide the exact text to replace"), start)
	}
	newStr, ok := params["new_string"].(string)
	if !ok {
		return finish(tools.Errorf("INVALID_PARAMS", "new_string is required",
			"Provide the replacement text"), start)
	}
	if oldStr == newStr {
		return finish(tools.Errorf("INVALID_PARAMS", "old_string and new_string are identical",
			"Make new_string different from old_string"), start)
	}
	replaceAll, _ := params["replace_all"].(bool)

	resolved := tools.ResolveAgentPath(t.deps.BaseDir, path)
	res := applyEdits(t.deps, resolved, []editOp{{Old: oldStr, New: newStr, ReplaceAll: replaceAll}})
	return finish(res, start)
}

// editOp is one replacement within an edit sequence.
type editOp struct {
	Old        string
	New        string
	ReplaceAll bool
}

// applyEdits loads the file, applies every edit in order, and writes the
// result atomically. Any failure leaves the file untouched.
func applyEdits(deps Deps, resolved string, edits []editOp) *tools.Result {
	if _, err := os.Stat(resolved); err != nil {
		return tools.Errorf("FILE_NOT_FOUND",
			fmt.Sprintf("File does not exist: %s", resolved),
			"Use Write to create new files")
	}
	if deps.Tracker == nil || !deps.Tracker.HasRead(deps.Agent, resolved) {
		return tools.Errorf("READ_REQUIRED",
			fmt.Sprintf("Cannot write without reading first: %s", resolved),
			"Read the file with the Read tool, then retry the edit")
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return tools.Errorf("READ_FAILED",
			fmt.Sprintf("Failed to read %s: %v", resolved, err), "")
	}
	original := string(data)
	content := original

	for i, e := range edits {
		count := strings.Count(content, e.Old)
		switch {
		case count == 0:
			return tools.Errorf("STRING_NOT_FOUND",
				fmt.Sprintf("Edit %d: old_string not found in %s", i+1, resolved),
				"Read the file again and copy the text exactly, including whitespace")
		case count > 1 && !e.ReplaceAll:
			return tools.Errorf("AMBIGUOUS_MATCH",
				fmt.Sprintf("Edit %d: old_string matches %d times in %s", i+1, count, resolved),
				"Add surrounding context to make the match unique, or set replace_all")
		}
		if e.ReplaceAll {
			content = strings.ReplaceAll(content, e.Old, e.New)
		} else {
			content = strings.Replace(content, e.Old, e.New, 1)
		}
	}

	if err := atomicWrite(resolved, []byte(content)); err != nil {
		return tools.Errorf("WRITE_FAILED",
			fmt.Sprintf("Failed to write %s: %v", resolved, err), "")
	}

	added, removed := lineDelta(original, content)
	res := tools.Ok(fmt.Sprintf("Applied %d edit(s) to %s (+%d -%d lines)",
		len(edits), resolved, added, removed))
	res.Metadata = map[string]interface{}{
		"file_path":     resolved,
		"edits":         len(edits),
		"lines_added":   added,
		"lines_removed": removed,
	}
	return res
}

// lineDelta summarizes a change as lines added and removed.
func lineDelta(before, after string) (added, removed int) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		if n == 0 && d.Text != "" {
			n = 1
		}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			removed += n
		}
	}
	return added, removed
}

var _ tools.Tool = (*EditTool)(nil)
