// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/teradata-labs/weft/internal/version"
	"github.com/teradata-labs/weft/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var rootCmd = &cobra.Command{
	Use:   "weft",
	Short: "Weft - multi-agent LLM orchestration",
	Long: heredoc.Doc(`
		Weft runs swarms of LLM agents from declarative YAML configuration:
		a lead agent answers the prompt, delegating to specialist agents and
		executing tools in parallel under concurrency limits. Workflow
		configurations chain swarms through a dependency graph of nodes.
	`),
	Version:       version.Get(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("anthropic-key", "", "Anthropic API key (or use keyring/env)")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("llm.anthropic_api_key", rootCmd.PersistentFlags().Lookup("anthropic-key"))

	viper.SetEnvPrefix("WEFT")
	viper.AutomaticEnv()

	// Optional config file at <data-dir>/config.yaml.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(config.GetWeftDataDir())
	_ = viper.ReadInConfig()
}

// buildLogger constructs the CLI logger from the logging flags. Output
// goes to stderr so stdout stays clean for results and NDJSON events.
func buildLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", viper.GetString("logging.level"))
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if viper.GetString("logging.format") == "console" {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return cfg.Build()
}
