// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package state holds the in-process shared state of a swarm: per-agent
// read tracking for the write-after-read rule, per-agent todo lists, and
// the swarm-wide scratchpad.
package state

import (
	"sync"
)

// ReadTracker records which files each agent has read. Write and Edit on
// an existing file require a prior Read by the same agent; the tracker
// is the source of truth for that rule.
//
// Partitioned by agent name: no cross-agent contention, and one agent's
// reads never satisfy another agent's write precondition.
type ReadTracker struct {
	mu    sync.RWMutex
	reads map[string]map[string]struct{}
}

// NewReadTracker creates an empty tracker.
func NewReadTracker() *ReadTracker {
	return &ReadTracker{reads: make(map[string]map[string]struct{})}
}

// MarkRead records that agent has read the canonical path.
func (t *ReadTracker) MarkRead(agent, path string) {
	if agent == "" || path == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.reads[agent]
	if !ok {
		set = make(map[string]struct{})
		t.reads[agent] = set
	}
	set[path] = struct{}{}
}

// HasRead reports whether agent has read the canonical path.
func (t *ReadTracker) HasRead(agent, path string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	set, ok := t.reads[agent]
	if !ok {
		return false
	}
	_, read := set[path]
	return read
}

// Count returns how many distinct paths agent has read.
func (t *ReadTracker) Count(agent string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.reads[agent])
}
