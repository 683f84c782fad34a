// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package agent

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/teradata-labs/weft/pkg/types"
)

// environmentBlock is appended to every agent's system prompt with a
// fixed set of parameters: working directory, platform, OS version, and
// date.
var environmentBlock = heredoc.Doc(`
	<env>
	Working directory: %s
	Platform: %s
	OS version: %s
	Today's date: %s
	</env>
`)

// BuildSystemPrompt assembles the agent's full system prompt: the
// configured prompt plus the environment block.
func BuildSystemPrompt(def *types.AgentDefinition) string {
	env := fmt.Sprintf(environmentBlock,
		def.Directory,
		runtime.GOOS,
		osVersion(),
		time.Now().UTC().Format("2006-01-02"),
	)
	return strings.TrimRight(def.SystemPrompt, "\n") + "\n\n" + env
}

// osVersion is a coarse OS identifier; the kernel release is more than
// the model needs.
func osVersion() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}
