// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package tools

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateArguments checks the given arguments against a tool's input
// schema. A nil schema or a schema without properties validates anything.
// The returned error message lists every violation so the model can fix
// all of them in one retry.
func ValidateArguments(schema *JSONSchema, arguments map[string]interface{}) error {
	if schema == nil || (len(schema.Properties) == 0 && len(schema.Required) == 0) {
		return nil
	}

	raw, err := schema.ToJSON()
	if err != nil {
		return fmt.Errorf("schema serialization failed: %w", err)
	}

	schemaLoader := gojsonschema.NewBytesLoader(raw)
	argsLoader := gojsonschema.NewGoLoader(arguments)

	result, err := gojsonschema.Validate(schemaLoader, argsLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		violations := make([]string, len(result.Errors()))
		for i, verr := range result.Errors() {
			violations[i] = verr.String()
		}
		return fmt.Errorf("invalid arguments: %s", strings.Join(violations, "; "))
	}

	return nil
}
