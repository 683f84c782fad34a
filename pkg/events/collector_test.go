// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package events

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCollectorEmitFansOutInOrder(t *testing.T) {
	c := NewCollector(zaptest.NewLogger(t))

	var first, second []Type
	require.NoError(t, c.Subscribe(func(ev Event) { first = append(first, ev.EventType()) }))
	require.NoError(t, c.Subscribe(func(ev Event) { second = append(second, ev.EventType()) }))
	c.Freeze()

	c.Emit(&SwarmStart{Base: NewBase(TypeSwarmStart), SwarmName: "demo", LeadAgent: "lead"})
	c.Emit(&ToolCall{Base: NewBase(TypeToolCall), Agent: "lead", Tool: "read_file"})
	c.Emit(&SwarmStop{Base: NewBase(TypeSwarmStop), Status: StatusSuccess})

	want := []Type{TypeSwarmStart, TypeToolCall, TypeSwarmStop}
	assert.Equal(t, want, first)
	assert.Equal(t, want, second)
	assert.Equal(t, 3, c.Len())

	log := c.Events()
	require.Len(t, log, 3)
	assert.Equal(t, TypeSwarmStart, log[0].EventType())
}

func TestCollectorSubscribeAfterFreeze(t *testing.T) {
	c := NewCollector(nil)
	c.Freeze()

	err := c.Subscribe(func(ev Event) {})
	assert.ErrorIs(t, err, ErrSubscribersFrozen)
	assert.True(t, c.Frozen())
}

func TestCollectorRejectsNilSubscriberAndEvent(t *testing.T) {
	c := NewCollector(nil)
	assert.Error(t, c.Subscribe(nil))

	c.Emit(nil)
	assert.Equal(t, 0, c.Len())
}

func TestCollectorEventsReturnsCopy(t *testing.T) {
	c := NewCollector(nil)
	c.Emit(&SwarmStart{Base: NewBase(TypeSwarmStart)})

	log := c.Events()
	log[0] = nil
	assert.NotNil(t, c.Events()[0])
}

func TestNDJSONSubscriber(t *testing.T) {
	var buf bytes.Buffer
	sub := NDJSONSubscriber(&buf)

	sub(&SwarmStart{Base: NewBase(TypeSwarmStart), SwarmName: "demo", LeadAgent: "lead", Prompt: "go"})
	sub(&NodeStop{Base: NewBase(TypeNodeStop), Node: "b", Skipped: true})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var start map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &start))
	assert.Equal(t, "swarm_start", start["type"])
	assert.Equal(t, "demo", start["swarm_name"])
	assert.NotEmpty(t, start["timestamp"])

	var stop map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[1], &stop))
	assert.Equal(t, "node_stop", stop["type"])
	assert.Equal(t, true, stop["skipped"])
}

func TestCaptureSubscriber(t *testing.T) {
	var captured []Event
	sub := CaptureSubscriber(&captured)

	sub(&SwarmStart{Base: NewBase(TypeSwarmStart)})
	sub(&SwarmStop{Base: NewBase(TypeSwarmStop), Status: StatusError})

	require.Len(t, captured, 2)
	stop, ok := captured[1].(*SwarmStop)
	require.True(t, ok)
	assert.Equal(t, StatusError, stop.Status)
}
