// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"os"
	"path/filepath"
	"strings"
)

// GetWeftDataDir returns the weft data directory.
//
// Priority:
// 1. WEFT_DATA_DIR environment variable (if set and non-empty)
// 2. ~/.weft (default)
//
// The returned path is always absolute; ~ in WEFT_DATA_DIR expands to
// the user's home directory. Reads os.Getenv directly because this runs
// during bootstrap, before any config file is loaded.
func GetWeftDataDir() string {
	if dataDir := os.Getenv("WEFT_DATA_DIR"); dataDir != "" {
		return expandPath(dataDir)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".weft"
	}
	return filepath.Join(homeDir, ".weft")
}

// GetWeftSubDir returns a subdirectory within the weft data directory.
// Example: GetWeftSubDir("logs") returns ~/.weft/logs.
func GetWeftSubDir(subdir string) string {
	return filepath.Join(GetWeftDataDir(), subdir)
}

// expandPath expands ~ and resolves to an absolute path.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}
