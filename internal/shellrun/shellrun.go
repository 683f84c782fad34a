// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package shellrun is the shared subprocess runner behind the Bash tool,
// shell-command hooks, and command transformers. One code path handles
// timeouts, cancellation, stdin payloads, and environment assembly so the
// three callers behave identically.
package shellrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// Request describes one shell invocation.
type Request struct {
	// Command is passed to the shell with -c (cmd /C on Windows).
	Command string

	// Dir is the working directory; empty means inherit.
	Dir string

	// Stdin is written to the subprocess before it runs.
	Stdin []byte

	// Env entries (KEY=VALUE) appended to the inherited environment.
	Env []string

	// Timeout bounds execution. Zero means no timeout beyond ctx.
	Timeout time.Duration
}

// Response is the outcome of one shell invocation.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// Combined returns stdout and stderr joined the way the Bash tool reports
// them: stdout first, stderr after a separator when present.
func (r *Response) Combined() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// Run executes the request and returns the response. A non-zero exit code
// is not a Go error; only failures to start the process (or a cancelled
// context) are. Timeouts set TimedOut and report exit code -1.
func Run(ctx context.Context, req *Request) (*Response, error) {
	if strings.TrimSpace(req.Command) == "" {
		return nil, errors.New("shellrun: empty command")
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	shell, flag := shellBinary()
	cmd := exec.CommandContext(ctx, shell, flag, req.Command)
	cmd.Dir = req.Dir
	cmd.Env = append(os.Environ(), req.Env...)
	if len(req.Stdin) > 0 {
		cmd.Stdin = bytes.NewReader(req.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	resp := &Response{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if ctx.Err() == context.DeadlineExceeded {
		resp.TimedOut = true
		resp.ExitCode = -1
		return resp, nil
	}
	if ctx.Err() == context.Canceled {
		return resp, ctx.Err()
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			resp.ExitCode = exitErr.ExitCode()
			return resp, nil
		}
		return nil, fmt.Errorf("shellrun: %w", err)
	}

	resp.ExitCode = 0
	return resp, nil
}

func shellBinary() (string, string) {
	if runtime.GOOS == "windows" {
		return "cmd", "/C"
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh, "-c"
	}
	return "/bin/sh", "-c"
}
