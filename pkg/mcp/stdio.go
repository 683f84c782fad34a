// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package mcp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"go.uber.org/zap"
)

// StdioTransport runs an MCP server as a subprocess and exchanges
// newline-delimited JSON-RPC messages over its stdin/stdout.
type StdioTransport struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser

	lines    chan []byte
	readErr  chan error
	sendMu   sync.Mutex
	closeMu  sync.Mutex
	closed   bool
	doneWait chan struct{}

	logger *zap.Logger
}

// StdioConfig configures a stdio transport.
type StdioConfig struct {
	Command string
	Args    []string
	Env     map[string]string
	Dir     string
	Logger  *zap.Logger
}

// NewStdioTransport launches the server subprocess and starts reading
// its output.
func NewStdioTransport(cfg StdioConfig) (*StdioTransport, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Command == "" {
		return nil, fmt.Errorf("mcp: stdio transport requires a command")
	}

	// #nosec G204 -- server commands come from the operator's config
	cmd := exec.Command(cfg.Command, cfg.Args...)
	if cfg.Dir != "" {
		cmd.Dir = cfg.Dir
	}
	cmd.Env = os.Environ()
	for k, v := range cfg.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("mcp: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("mcp: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("mcp: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		stderr.Close()
		return nil, fmt.Errorf("mcp: start %s: %w", cfg.Command, err)
	}

	t := &StdioTransport{
		cmd:      cmd,
		stdin:    stdin,
		lines:    make(chan []byte, 16),
		readErr:  make(chan error, 1),
		doneWait: make(chan struct{}),
		logger:   cfg.Logger,
	}

	go t.readLoop(stdout)
	go t.drainStderr(stderr)

	cfg.Logger.Debug("mcp server started",
		zap.String("command", cfg.Command),
		zap.Strings("args", cfg.Args),
		zap.Int("pid", cmd.Process.Pid),
	)

	return t, nil
}

// readLoop forwards stdout lines to the Receive channel. bufio.Reader
// rather than Scanner: tool results can exceed any fixed token limit.
func (t *StdioTransport) readLoop(stdout io.Reader) {
	defer close(t.doneWait)
	reader := bufio.NewReader(stdout)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			trimmed := bytes.TrimSpace(line)
			if len(trimmed) > 0 {
				t.lines <- trimmed
			}
		}
		if err != nil {
			if err != io.EOF {
				t.readErr <- fmt.Errorf("mcp: read stdout: %w", err)
			} else {
				t.readErr <- io.EOF
			}
			return
		}
	}
}

// drainStderr consumes the server's stderr so the pipe never fills.
// Servers log there; weft surfaces the lines at debug level only.
func (t *StdioTransport) drainStderr(stderr io.Reader) {
	reader := bufio.NewReader(stderr)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			t.logger.Debug("mcp server stderr", zap.ByteString("line", bytes.TrimSpace(line)))
		}
		if err != nil {
			return
		}
	}
}

// Send writes one message followed by a newline.
func (t *StdioTransport) Send(ctx context.Context, message []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	if t.isClosed() {
		return ErrTransportClosed
	}
	if _, err := t.stdin.Write(append(message, '\n')); err != nil {
		return fmt.Errorf("mcp: write stdin: %w", err)
	}
	return nil
}

// Receive returns the next message from the server.
func (t *StdioTransport) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case line := <-t.lines:
		return line, nil
	case err := <-t.readErr:
		if t.isClosed() {
			return nil, ErrTransportClosed
		}
		return nil, err
	}
}

func (t *StdioTransport) isClosed() bool {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	return t.closed
}

// Close closes stdin (the conventional stdio shutdown signal) and
// kills the process unless its output already reached EOF.
func (t *StdioTransport) Close() error {
	t.closeMu.Lock()
	if t.closed {
		t.closeMu.Unlock()
		return nil
	}
	t.closed = true
	t.closeMu.Unlock()

	_ = t.stdin.Close()

	select {
	case <-t.doneWait:
	default:
		if t.cmd.Process != nil {
			_ = t.cmd.Process.Kill()
		}
	}
	err := t.cmd.Wait()
	if err != nil {
		// Killed or non-zero exit is expected on teardown.
		t.logger.Debug("mcp server exited", zap.Error(err))
	}
	return nil
}
