// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package hooks

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// DefaultLogPriority is where the swarm registers its event-logging
// callbacks: below any user hook, so they always run last and never
// steer.
const DefaultLogPriority = -100

// ErrRegistryFrozen is returned by registration once execution has
// started.
var ErrRegistryFrozen = errors.New("hooks: registry is frozen (swarm execution already started)")

// Registration binds a callback to an event with priority and an
// optional matcher. Exactly one of Callback or Command must be set; a
// Command is a shell hook run through the shell callback protocol.
type Registration struct {
	// Event the callback fires on. Required.
	Event Event

	// Matcher restricts dispatch to contexts whose subject matches this
	// anchored regular expression (a literal tool name works as-is).
	// Empty matches everything.
	Matcher string

	// Priority orders callbacks, highest first. Ties keep registration
	// order.
	Priority int

	// Callback is the native hook body.
	Callback Callback

	// Command is a shell hook (mutually exclusive with Callback).
	Command string

	// TimeoutSeconds bounds Command execution (default 60).
	TimeoutSeconds int

	matcher *regexp.Regexp
	seq     int
}

// compile validates the registration and prepares the matcher and shell
// callback.
func (r *Registration) compile(logger *zap.Logger) error {
	if !ValidEvent(r.Event) {
		return fmt.Errorf("hooks: unknown event %q", r.Event)
	}
	if (r.Callback == nil) == (r.Command == "") {
		return fmt.Errorf("hooks: registration for %s needs exactly one of callback or command", r.Event)
	}
	if r.Command != "" {
		r.Callback = ShellCallback(r.Command, r.TimeoutSeconds, logger)
	}
	if r.Matcher != "" {
		re, err := regexp.Compile("^(?:" + r.Matcher + ")$")
		if err != nil {
			return fmt.Errorf("hooks: invalid matcher %q: %w", r.Matcher, err)
		}
		r.matcher = re
	}
	return nil
}

// matches reports whether the registration applies to the context.
func (r *Registration) matches(hc *Context) bool {
	if r.Event != hc.Event {
		return false
	}
	if r.matcher == nil {
		return true
	}
	return r.matcher.MatchString(hc.MatcherSubject())
}

// Registry holds a swarm's hook registrations: swarm-wide defaults that
// apply to every agent plus per-agent registrations. The registry
// freezes when execution starts; later registration attempts fail.
type Registry struct {
	mu       sync.RWMutex
	frozen   bool
	seq      int
	defaults []*Registration
	perAgent map[string][]*Registration
	logger   *zap.Logger
}

// NewRegistry creates an empty registry. A nil logger defaults to no-op.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		perAgent: make(map[string][]*Registration),
		logger:   logger,
	}
}

// Register adds a swarm-default registration (applies to every agent).
func (r *Registry) Register(reg *Registration) error {
	return r.add("", reg)
}

// RegisterForAgent adds a registration scoped to one agent.
func (r *Registry) RegisterForAgent(agent string, reg *Registration) error {
	if agent == "" {
		return errors.New("hooks: agent name is required")
	}
	return r.add(agent, reg)
}

func (r *Registry) add(agent string, reg *Registration) error {
	if reg == nil {
		return errors.New("hooks: nil registration")
	}
	if err := reg.compile(r.logger); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrRegistryFrozen
	}
	reg.seq = r.seq
	r.seq++
	if agent == "" {
		r.defaults = append(r.defaults, reg)
	} else {
		r.perAgent[agent] = append(r.perAgent[agent], reg)
	}
	return nil
}

// Freeze pins the registry. Idempotent.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Frozen reports whether the registry is pinned.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Dispatch runs every matching callback for the context, swarm defaults
// and the agent's own registrations together, ordered by priority
// descending (ties keep registration order). The first Halt, Replace, or
// Reprompt ends the chain and becomes the outcome; otherwise Dispatch
// returns a Continue result.
//
// A callback error or panic converts to Halt with the error message. A
// Reprompt from any event but swarm_stop is itself an error and halts.
func (r *Registry) Dispatch(ctx context.Context, hc *Context) *Result {
	r.mu.RLock()
	matched := make([]*Registration, 0, len(r.defaults))
	for _, reg := range r.defaults {
		if reg.matches(hc) {
			matched = append(matched, reg)
		}
	}
	for _, reg := range r.perAgent[hc.Agent] {
		if reg.matches(hc) {
			matched = append(matched, reg)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Priority != matched[j].Priority {
			return matched[i].Priority > matched[j].Priority
		}
		return matched[i].seq < matched[j].seq
	})

	if hc.Metadata == nil {
		hc.Metadata = make(map[string]interface{})
	}

	for _, reg := range matched {
		res, err := r.invoke(ctx, reg, hc)
		if err != nil {
			r.logger.Error("callback_error",
				zap.String("event", string(hc.Event)),
				zap.String("agent", hc.Agent),
				zap.Error(err))
			return Halt(err.Error())
		}
		if err := validateResult(hc.Event, res); err != nil {
			r.logger.Error("callback_error",
				zap.String("event", string(hc.Event)),
				zap.String("agent", hc.Agent),
				zap.Error(err))
			return Halt(err.Error())
		}
		if res.Steers() {
			return res
		}
	}
	return Continue()
}

// invoke runs one callback, converting panics to errors.
func (r *Registry) invoke(ctx context.Context, reg *Registration, hc *Context) (res *Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("hooks: callback panicked: %v", rec)
		}
	}()
	return reg.Callback(ctx, hc)
}
