// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/teradata-labs/weft/pkg/config"
	"github.com/teradata-labs/weft/pkg/events"
	"github.com/teradata-labs/weft/pkg/llm"
	"github.com/teradata-labs/weft/pkg/llm/anthropic"
	"github.com/teradata-labs/weft/pkg/mcp"
	"github.com/teradata-labs/weft/pkg/swarm"
	"github.com/teradata-labs/weft/pkg/types"
	"github.com/teradata-labs/weft/pkg/workflow"
	"github.com/zalando/go-keyring"
	"go.uber.org/zap"
)

var (
	runOutput  string
	runLogFile string
)

var runCmd = &cobra.Command{
	Use:   "run <config.yaml> <prompt>",
	Short: "Execute a swarm or workflow configuration",
	Long: `Loads a weft configuration file and executes it with the given prompt.
Swarm configurations hand the prompt to the lead agent; workflow
configurations feed it to the start node.`,
	Args: cobra.ExactArgs(2),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "pretty",
		"event output: pretty (logs to stderr) or ndjson (events to stdout)")
	runCmd.Flags().StringVar(&runLogFile, "log-file", "",
		"write the full event stream as NDJSON to this file (.zst compresses with zstd)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	logger, err := buildLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	doc, err := config.Load(args[0])
	if err != nil {
		return err
	}
	prompt := args[1]

	apiKey, err := resolveAnthropicKey()
	if err != nil {
		return err
	}

	drivers := driverFactory(apiKey, logger)
	opener := func(ctx context.Context, def types.MCPServerDef) (types.ToolSource, error) {
		return mcp.OpenWithLogger(ctx, def, logger)
	}

	var subscribers []events.Subscriber
	switch runOutput {
	case "ndjson":
		subscribers = append(subscribers, events.NDJSONSubscriber(os.Stdout))
	case "pretty":
		subscribers = append(subscribers, events.ZapSubscriber(logger))
	default:
		return fmt.Errorf("unknown output format %q", runOutput)
	}

	if runLogFile != "" {
		w, closeLog, err := openEventLog(runLogFile)
		if err != nil {
			return err
		}
		defer func() { _ = closeLog() }()
		subscribers = append(subscribers, events.NDJSONSubscriber(w))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if doc.Swarm != nil {
		return runSwarm(ctx, doc.Swarm, prompt, drivers, opener, subscribers, logger)
	}
	return runWorkflow(ctx, doc.Workflow, prompt, drivers, opener, subscribers, logger)
}

// openEventLog opens the run log sink. Names ending in .zst stream
// through a zstd writer.
func openEventLog(path string) (io.Writer, func() error, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	if !strings.HasSuffix(path, ".zst") {
		return f, f.Close, nil
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return zw, func() error {
		if err := zw.Close(); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	}, nil
}

func runSwarm(ctx context.Context, spec *config.SwarmSpec, prompt string, drivers swarm.DriverFactory, opener swarm.SourceOpener, subscribers []events.Subscriber, logger *zap.Logger) error {
	s, err := swarm.New(swarm.Config{
		Name:            spec.Name,
		Lead:            spec.Lead,
		Agents:          spec.Agents,
		Drivers:         drivers,
		OpenSource:      opener,
		GlobalSemaphore: spec.GlobalSemaphore,
		Hooks:           spec.Hooks,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	result, err := s.Execute(ctx, prompt, subscribers...)
	if err != nil {
		return err
	}
	if runOutput != "ndjson" {
		fmt.Println(result.Content)
	}
	fmt.Fprintf(os.Stderr, "agents=%d llm_requests=%d tool_calls=%d tokens=%d cost=$%.4f duration=%.1fs\n",
		len(result.AgentsInvolved), result.LLMRequests, result.ToolCallsCount,
		result.TotalTokens, result.TotalCost, result.Duration)
	if !result.Success {
		return fmt.Errorf("swarm failed: %s", result.Error)
	}
	return nil
}

func runWorkflow(ctx context.Context, spec *config.WorkflowSpec, prompt string, drivers swarm.DriverFactory, opener swarm.SourceOpener, subscribers []events.Subscriber, logger *zap.Logger) error {
	o, err := workflow.NewOrchestrator(workflow.Config{
		Graph:           spec.Graph,
		Agents:          spec.Agents,
		Drivers:         drivers,
		OpenSource:      opener,
		GlobalSemaphore: spec.GlobalSemaphore,
		Hooks:           spec.Hooks,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	result, err := o.Execute(ctx, prompt, subscribers...)
	if result == nil {
		return err
	}
	if runOutput != "ndjson" && result.Content != "" {
		fmt.Println(result.Content)
	}
	fmt.Fprintf(os.Stderr, "nodes=%d terminal=%s duration=%.1fs\n",
		len(result.Results), result.Node, result.Duration)
	if !result.Success {
		return fmt.Errorf("workflow failed at %s: %s", result.Node, result.Error)
	}
	return nil
}

// driverFactory builds Anthropic drivers; definitions with another
// provider are rejected rather than silently mis-routed. Drivers are
// instrumented, and paced when llm.requests_per_second is configured.
func driverFactory(apiKey string, logger *zap.Logger) swarm.DriverFactory {
	return func(def *types.AgentDefinition) (types.LLMDriver, error) {
		var driver types.LLMDriver
		switch def.Provider {
		case "", "anthropic":
			driver = anthropic.FromDefinition(def, apiKey)
		default:
			return nil, fmt.Errorf("unsupported provider %q for agent %s", def.Provider, def.Name)
		}
		driver = llm.RateLimit(driver, llm.RateLimitConfig{
			RequestsPerSecond: viper.GetFloat64("llm.requests_per_second"),
			Burst:             viper.GetInt("llm.burst"),
			Logger:            logger,
		})
		return llm.Instrument(driver, logger, nil), nil
	}
}

// resolveAnthropicKey resolves the API key: flag, then environment,
// then system keyring.
func resolveAnthropicKey() (string, error) {
	if key := viper.GetString("llm.anthropic_api_key"); key != "" {
		return key, nil
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key, nil
	}
	if key, err := keyring.Get(keyringService, "anthropic_api_key"); err == nil && key != "" {
		return key, nil
	}
	return "", fmt.Errorf("no Anthropic API key: set --anthropic-key, ANTHROPIC_API_KEY, or run 'weft keys set anthropic_api_key'")
}
