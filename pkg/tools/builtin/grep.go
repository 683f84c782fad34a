// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package builtin

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/teradata-labs/weft/pkg/tools"
)

// Grep output modes.
const (
	GrepModeContent = "content"
	GrepModeFiles   = "files_with_matches"
	GrepModeCount   = "count"
)

// grep limits keep runaway searches from flooding the model.
const (
	maxGrepFileBytes = 4 << 20 // skip files larger than 4 MB
	maxGrepMatches   = 500
)

// GrepTool searches file contents under a directory with a regular
// expression.
type GrepTool struct {
	deps  Deps
	rules *tools.PathRules
}

// NewGrepTool creates the Grep tool for one agent.
func NewGrepTool(deps Deps) *GrepTool {
	return &GrepTool{deps: deps}
}

// SetPathRules implements tools.PathFilterer: files the ruleset rejects
// are skipped during the walk.
func (t *GrepTool) SetPathRules(rules *tools.PathRules) { t.rules = rules }

func (t *GrepTool) Name() string { return "Grep" }

func (t *GrepTool) Description() string {
	return `Recursively searches file contents under a path with a Go regular expression.

Output modes: content (matching lines with file:line prefixes), files_with_matches (paths only), count (per-file match counts).`
}

func (t *GrepTool) InputSchema() *tools.JSONSchema {
	return tools.NewObjectSchema(
		"Parameters for content search",
		map[string]*tools.JSONSchema{
			"pattern":          tools.NewStringSchema("Regular expression to search for (required)"),
			"path":             tools.NewStringSchema("Directory or file to search (required)"),
			"case_insensitive": tools.NewBooleanSchema("Match case-insensitively").WithDefault(false),
			"output_mode": tools.NewStringSchema("content, files_with_matches, or count").
				WithEnum(GrepModeContent, GrepModeFiles, GrepModeCount).
				WithDefault(GrepModeFiles),
		},
		[]string{"pattern", "path"},
	)
}

func (t *GrepTool) Execute(ctx context.Context, params map[string]interface{}) (*tools.Result, error) {
	start := time.Now()

	pattern, fail := stringParam(params, "pattern", start)
	if fail != nil {
		return fail, nil
	}
	path, fail := stringParam(params, "path", start)
	if fail != nil {
		return fail, nil
	}

	caseInsensitive, _ := params["case_insensitive"].(bool)
	mode := GrepModeFiles
	if m, ok := params["output_mode"].(string); ok && m != "" {
		mode = m
	}
	switch mode {
	case GrepModeContent, GrepModeFiles, GrepModeCount:
	default:
		return finish(tools.Errorf("INVALID_PARAMS",
			fmt.Sprintf("unknown output_mode %q", mode),
			"Use content, files_with_matches, or count"), start)
	}

	expr := pattern
	if caseInsensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return finish(tools.Errorf("INVALID_PATTERN",
			fmt.Sprintf("invalid regular expression %q: %v", pattern, err),
			"Use Go (RE2) regular expression syntax"), start)
	}

	root := tools.ResolveAgentPath(t.deps.BaseDir, path)
	if _, err := os.Stat(root); err != nil {
		return finish(tools.Errorf("PATH_NOT_FOUND",
			fmt.Sprintf("Path does not exist: %s", root), ""), start)
	}

	var lines []string
	counts := make(map[string]int)
	var files []string
	total := 0

	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || total >= maxGrepMatches {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !t.rules.Allows(p) {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > maxGrepFileBytes {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil || !isText(data) {
			return nil
		}
		matched := false
		for i, line := range strings.Split(string(data), "\n") {
			if !re.MatchString(line) {
				continue
			}
			matched = true
			counts[p]++
			total++
			if mode == GrepModeContent {
				lines = append(lines, fmt.Sprintf("%s:%d:%s", p, i+1, line))
			}
			if total >= maxGrepMatches {
				break
			}
		}
		if matched {
			files = append(files, p)
		}
		return nil
	})
	if walkErr != nil && ctx.Err() != nil {
		return finish(tools.Errorf("CANCELLED", "cancelled", ""), start)
	}

	var content string
	switch mode {
	case GrepModeContent:
		content = strings.Join(lines, "\n")
	case GrepModeFiles:
		sort.Strings(files)
		content = strings.Join(files, "\n")
	case GrepModeCount:
		sort.Strings(files)
		parts := make([]string, len(files))
		for i, f := range files {
			parts[i] = fmt.Sprintf("%s:%d", f, counts[f])
		}
		content = strings.Join(parts, "\n")
	}
	if content == "" {
		content = "No matches found"
	}

	res := tools.Ok(content)
	res.Metadata = map[string]interface{}{
		"matches": total,
		"files":   len(files),
	}
	return finish(res, start)
}

// isText reports whether data looks like text (no NUL in the first 8 KB).
func isText(data []byte) bool {
	n := len(data)
	if n > 8192 {
		n = 8192
	}
	for _, b := range data[:n] {
		if b == 0 {
			return false
		}
	}
	return true
}

var (
	_ tools.Tool         = (*GrepTool)(nil)
	_ tools.PathFilterer = (*GrepTool)(nil)
)
