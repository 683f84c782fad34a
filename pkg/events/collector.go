// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package events

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrSubscribersFrozen is returned by Subscribe once execution has
// started: the subscriber list freezes so every subscriber sees every
// event of the run, in order.
var ErrSubscribersFrozen = errors.New("events: subscriber list is frozen (swarm execution already started)")

// Subscriber receives every event emitted after it subscribes, in
// emission order. Subscribers run on the emitting goroutine and must not
// block.
type Subscriber func(Event)

// Collector gathers a swarm run's events and fans them out.
//
// Lifecycle: subscribe before execution; Freeze() at execute start pins
// the subscriber list; Emit() appends to the run log and dispatches.
// Emission is serialized so subscribers observe one global order.
type Collector struct {
	mu          sync.Mutex
	logger      *zap.Logger
	subscribers []Subscriber
	frozen      bool
	log         []Event
}

// NewCollector creates a collector. A nil logger defaults to no-op.
func NewCollector(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{logger: logger}
}

// Subscribe registers a subscriber. Fails after Freeze.
func (c *Collector) Subscribe(fn Subscriber) error {
	if fn == nil {
		return errors.New("events: nil subscriber")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return ErrSubscribersFrozen
	}
	c.subscribers = append(c.subscribers, fn)
	return nil
}

// Freeze pins the subscriber list. Idempotent.
func (c *Collector) Freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = true
}

// Frozen reports whether the subscriber list is pinned.
func (c *Collector) Frozen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frozen
}

// Emit appends the event to the run log and dispatches it to every
// subscriber in registration order.
func (c *Collector) Emit(ev Event) {
	if ev == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.log = append(c.log, ev)
	for _, fn := range c.subscribers {
		fn(ev)
	}
	c.logger.Debug("event emitted", zap.String("type", string(ev.EventType())))
}

// Events returns a copy of the run log in emission order.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.log))
	copy(out, c.log)
	return out
}

// Len returns the number of emitted events.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.log)
}
