// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpolateEnv(t *testing.T) {
	t.Setenv("WEFT_TEST_MODEL", "claude-sonnet-4-5-20250929")
	t.Setenv("WEFT_TEST_EMPTY", "")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no references", "model: fixed", "model: fixed"},
		{"set variable", "model: ${WEFT_TEST_MODEL}", "model: claude-sonnet-4-5-20250929"},
		{"default unused", "model: ${WEFT_TEST_MODEL:=fallback}", "model: claude-sonnet-4-5-20250929"},
		{"default used", "model: ${WEFT_TEST_UNSET_VAR:=fallback}", "model: fallback"},
		{"empty default", "model: '${WEFT_TEST_UNSET_VAR:=}'", "model: ''"},
		{"empty value kept", "model: '${WEFT_TEST_EMPTY}'", "model: ''"},
		{"multiple references", "a: ${WEFT_TEST_MODEL} b: ${WEFT_TEST_UNSET_VAR:=x}", "a: claude-sonnet-4-5-20250929 b: x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := interpolateEnv(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInterpolateEnvMissing(t *testing.T) {
	_, err := interpolateEnv("key: ${WEFT_TEST_MISSING_ONE} other: ${WEFT_TEST_MISSING_TWO}")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingEnvVar)
	assert.Contains(t, err.Error(), "WEFT_TEST_MISSING_ONE")
	assert.Contains(t, err.Error(), "WEFT_TEST_MISSING_TWO")
}
