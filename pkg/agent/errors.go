// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package agent

import "fmt"

// LLMError is a driver-level failure: timeout, transport, or protocol.
// It propagates to the top of Swarm.Execute and fails the run; tool and
// delegation failures never become LLMErrors.
type LLMError struct {
	// Agent is the agent whose LLM call failed.
	Agent string

	// Err is the underlying driver error.
	Err error
}

func (e *LLMError) Error() string {
	return fmt.Sprintf("llm call failed for agent %q: %v", e.Agent, e.Err)
}

func (e *LLMError) Unwrap() error { return e.Err }
