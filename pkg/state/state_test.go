// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadTrackerIsPerAgent(t *testing.T) {
	tracker := NewReadTracker()

	tracker.MarkRead("alice", "/work/a.txt")
	assert.True(t, tracker.HasRead("alice", "/work/a.txt"))
	assert.False(t, tracker.HasRead("bob", "/work/a.txt"), "one agent's read never satisfies another's")
	assert.False(t, tracker.HasRead("alice", "/work/b.txt"))

	tracker.MarkRead("alice", "/work/b.txt")
	tracker.MarkRead("alice", "/work/b.txt")
	assert.Equal(t, 2, tracker.Count("alice"))
	assert.Equal(t, 0, tracker.Count("bob"))
}

func TestReadTrackerIgnoresEmptyKeys(t *testing.T) {
	tracker := NewReadTracker()
	tracker.MarkRead("", "/x")
	tracker.MarkRead("alice", "")
	assert.Equal(t, 0, tracker.Count("alice"))
	assert.False(t, tracker.HasRead("", "/x"))
}

func TestTodoStoreReplacesWholesale(t *testing.T) {
	store := NewTodoStore()
	assert.Empty(t, store.Get("alice"))
	assert.True(t, store.UpdatedAt("alice").IsZero())

	store.Set("alice", []TodoItem{
		{Content: "outline", Status: TodoCompleted, ActiveForm: "Outlining"},
		{Content: "draft", Status: TodoInProgress, ActiveForm: "Drafting"},
	})
	store.Set("alice", []TodoItem{
		{Content: "revise", Status: TodoPending, ActiveForm: "Revising"},
	})

	list := store.Get("alice")
	assert.Len(t, list, 1)
	assert.Equal(t, "revise", list[0].Content)
	assert.False(t, store.UpdatedAt("alice").IsZero())
}

func TestTodoStoreGetReturnsCopy(t *testing.T) {
	store := NewTodoStore()
	store.Set("alice", []TodoItem{{Content: "task", Status: TodoPending}})

	list := store.Get("alice")
	list[0].Status = TodoCompleted

	assert.Equal(t, TodoPending, store.Get("alice")[0].Status)
}

func TestValidTodoStatus(t *testing.T) {
	assert.True(t, ValidTodoStatus(TodoPending))
	assert.True(t, ValidTodoStatus(TodoInProgress))
	assert.True(t, ValidTodoStatus(TodoCompleted))
	assert.False(t, ValidTodoStatus("done"))
	assert.False(t, ValidTodoStatus(""))
}
