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
	"sort"
	"strings"
	"time"

	"github.com/teradata-labs/weft/pkg/tools"
)

// maxGlobResults caps the number of paths returned per call.
const maxGlobResults = 500

// GlobTool matches file paths under a directory against a glob pattern.
type GlobTool struct {
	deps  Deps
	rules *tools.PathRules
}

// NewGlobTool creates the Glob tool for one agent.
func NewGlobTool(deps Deps) *GlobTool {
	return &GlobTool{deps: deps}
}

// SetPathRules implements tools.PathFilterer: files the ruleset rejects
// are skipped during the walk.
func (t *GlobTool) SetPathRules(rules *tools.PathRules) { t.rules = rules }

func (t *GlobTool) Name() string { return "Glob" }

func (t *GlobTool) Description() string {
	return `Finds files under a path matching a glob pattern.

Supports *, **, ?, [set], and {a,b}. Patterns are matched against paths relative to the search root.`
}

func (t *GlobTool) InputSchema() *tools.JSONSchema {
	return tools.NewObjectSchema(
		"Parameters for path matching",
		map[string]*tools.JSONSchema{
			"pattern": tools.NewStringSchema("Glob pattern, e.g. '**/*.go' (required)"),
			"path":    tools.NewStringSchema("Directory to search under (required)"),
		},
		[]string{"pattern", "path"},
	)
}

func (t *GlobTool) Execute(ctx context.Context, params map[string]interface{}) (*tools.Result, error) {
	start := time.Now()

	pattern, fail := stringParam(params, "pattern", start)
	if fail != nil {
		return fail, nil
	}
	path, fail := stringParam(params, "path", start)
	if fail != nil {
		return fail, nil
	}

	re, err := tools.CompileGlob(pattern)
	if err != nil {
		return finish(tools.Errorf("INVALID_PATTERN", err.Error(),
			"Use the glob dialect: *, **, ?, [set], {a,b}"), start)
	}

	root := tools.ResolveAgentPath(t.deps.BaseDir, path)
	info, err := os.Stat(root)
	if err != nil {
		return finish(tools.Errorf("PATH_NOT_FOUND",
			fmt.Sprintf("Path does not exist: %s", root), ""), start)
	}
	if !info.IsDir() {
		return finish(tools.Errorf("NOT_A_DIRECTORY",
			fmt.Sprintf("%s is not a directory", root),
			"Pass a directory as the path argument"), start)
	}

	var matches []string
	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || len(matches) >= maxGlobResults {
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
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		if re.MatchString(filepath.ToSlash(rel)) {
			matches = append(matches, p)
		}
		return nil
	})
	if walkErr != nil && ctx.Err() != nil {
		return finish(tools.Errorf("CANCELLED", "cancelled", ""), start)
	}

	sort.Strings(matches)
	content := strings.Join(matches, "\n")
	if content == "" {
		content = "No files found"
	}

	res := tools.Ok(content)
	res.Metadata = map[string]interface{}{"matches": len(matches)}
	return finish(res, start)
}

var (
	_ tools.Tool         = (*GlobTool)(nil)
	_ tools.PathFilterer = (*GlobTool)(nil)
)
