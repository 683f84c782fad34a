// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// ErrMissingEnvVar is returned when a ${VAR} reference has no value and
// no default.
var ErrMissingEnvVar = errors.New("config: environment variable is not set")

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:=([^}]*))?\}`)

// interpolateEnv substitutes ${VAR} and ${VAR:=default} references in
// the raw document before parsing. A reference without a default fails
// when the variable is unset; an empty value set in the environment is
// kept as-is.
func interpolateEnv(data string) (string, error) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(data, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		name, hasDefault, fallback := groups[1], groups[2] != "", groups[3]

		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		if hasDefault {
			return fallback
		}
		missing = append(missing, name)
		return match
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingEnvVar, strings.Join(missing, ", "))
	}
	return out, nil
}
