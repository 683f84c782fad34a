// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package state

import (
	"sync"
	"time"
)

// Todo item statuses.
const (
	TodoPending    = "pending"
	TodoInProgress = "in_progress"
	TodoCompleted  = "completed"
)

// ValidTodoStatus reports whether s is a recognized status.
func ValidTodoStatus(s string) bool {
	switch s {
	case TodoPending, TodoInProgress, TodoCompleted:
		return true
	}
	return false
}

// TodoItem is one entry in an agent's task list.
type TodoItem struct {
	Content    string `json:"content"`
	Status     string `json:"status"`
	ActiveForm string `json:"activeForm"`
}

// TodoStore holds each agent's todo list. TodoWrite replaces the list
// wholesale; there is no partial update.
type TodoStore struct {
	mu        sync.RWMutex
	lists     map[string][]TodoItem
	updatedAt map[string]time.Time
}

// NewTodoStore creates an empty store.
func NewTodoStore() *TodoStore {
	return &TodoStore{
		lists:     make(map[string][]TodoItem),
		updatedAt: make(map[string]time.Time),
	}
}

// Set replaces agent's todo list.
func (s *TodoStore) Set(agent string, items []TodoItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]TodoItem, len(items))
	copy(list, items)
	s.lists[agent] = list
	s.updatedAt[agent] = time.Now().UTC()
}

// Get returns a copy of agent's todo list.
func (s *TodoStore) Get(agent string) []TodoItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.lists[agent]
	out := make([]TodoItem, len(list))
	copy(out, list)
	return out
}

// UpdatedAt returns when agent's list last changed (zero if never).
func (s *TodoStore) UpdatedAt(agent string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt[agent]
}
