// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

// keyringService namespaces weft secrets in the system keyring.
const keyringService = "weft"

var validKeyNames = []string{
	"anthropic_api_key",
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage provider API keys in the system keyring",
}

var keysSetCmd = &cobra.Command{
	Use:   "set <key-name>",
	Short: "Store a key (prompted without echo)",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysSet,
}

var keysShowCmd = &cobra.Command{
	Use:   "show <key-name>",
	Short: "Show a stored key, partially masked",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysShow,
}

var keysDeleteCmd = &cobra.Command{
	Use:   "delete <key-name>",
	Short: "Remove a key from the keyring",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysDelete,
}

func init() {
	keysCmd.AddCommand(keysSetCmd, keysShowCmd, keysDeleteCmd)
	rootCmd.AddCommand(keysCmd)
}

func checkKeyName(name string) error {
	for _, valid := range validKeyNames {
		if name == valid {
			return nil
		}
	}
	return fmt.Errorf("unknown key name %q (available: %s)", name, strings.Join(validKeyNames, ", "))
}

func runKeysSet(cmd *cobra.Command, args []string) error {
	keyName := args[0]
	if err := checkKeyName(keyName); err != nil {
		return err
	}

	fmt.Printf("Enter %s (input hidden): ", keyName)
	secretBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	secret := string(secretBytes)
	if secret == "" {
		return fmt.Errorf("secret cannot be empty")
	}

	if err := keyring.Set(keyringService, keyName, secret); err != nil {
		return fmt.Errorf("saving to keyring: %w", err)
	}
	fmt.Printf("✓ Saved %s to system keyring\n", keyName)
	return nil
}

func runKeysShow(cmd *cobra.Command, args []string) error {
	keyName := args[0]
	if err := checkKeyName(keyName); err != nil {
		return err
	}

	secret, err := keyring.Get(keyringService, keyName)
	if err != nil {
		return fmt.Errorf("key not found; set it with 'weft keys set %s'", keyName)
	}
	fmt.Printf("%s: %s\n", keyName, maskSecret(secret))
	return nil
}

func runKeysDelete(cmd *cobra.Command, args []string) error {
	keyName := args[0]
	if err := checkKeyName(keyName); err != nil {
		return err
	}

	if err := keyring.Delete(keyringService, keyName); err != nil {
		return fmt.Errorf("deleting key: %w", err)
	}
	fmt.Printf("✓ Deleted %s from system keyring\n", keyName)
	return nil
}

// maskSecret keeps enough of the secret visible to recognize it.
func maskSecret(secret string) string {
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}
