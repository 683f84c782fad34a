// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/teradata-labs/weft/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate <config.yaml>",
	Short: "Validate a configuration file without executing it",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	doc, err := config.Load(args[0])
	if err != nil {
		return err
	}

	if doc.Swarm != nil {
		spec := doc.Swarm
		fmt.Printf("✓ Valid swarm configuration: %s\n", spec.Name)
		fmt.Printf("  Lead: %s\n", spec.Lead)
		fmt.Printf("  Agents (%d):\n", len(spec.Agents))
		for _, def := range spec.Agents {
			line := fmt.Sprintf("    - %s (%s)", def.Name, def.Model)
			if len(def.DelegatesTo) > 0 {
				line += " -> " + strings.Join(def.DelegatesTo, ", ")
			}
			fmt.Println(line)
		}
		if len(spec.Hooks) > 0 {
			fmt.Printf("  Hooks: %d\n", len(spec.Hooks))
		}
		return nil
	}

	spec := doc.Workflow
	fmt.Printf("✓ Valid workflow configuration: %s\n", spec.Name)
	fmt.Printf("  Agents: %d\n", len(spec.Agents))
	fmt.Printf("  Execution order:\n")
	for _, name := range spec.Graph.TopoOrder() {
		node, _ := spec.Graph.Node(name)
		line := "    - " + name
		if node != nil && len(node.DependsOn) > 0 {
			line += " (after " + strings.Join(node.DependsOn, ", ") + ")"
		}
		fmt.Println(line)
	}
	return nil
}
