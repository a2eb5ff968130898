//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidateJSON validates a decoded JSON value against a raw JSON schema
// document. Used for structured-output formats supplied by callers, where no
// Structured type has been declared.
func ValidateJSON(schemaDoc map[string]any, value any) error {
	compiled, err := compileSchema(schemaDoc)
	if err != nil {
		return err
	}
	// The validator expects plain decoded JSON; normalize Go values through a
	// marshal round trip.
	bts, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("value is not serializable: %w", err)
	}
	decoded, err := jsonschema.UnmarshalJSON(bytes.NewReader(bts))
	if err != nil {
		return fmt.Errorf("value is not valid JSON: %w", err)
	}
	if err := compiled.Validate(decoded); err != nil {
		return fmt.Errorf("value does not match schema: %w", err)
	}
	return nil
}

func compileSchema(schemaDoc map[string]any) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", schemaDoc); err != nil {
		return nil, fmt.Errorf("invalid schema document: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("invalid schema document: %w", err)
	}
	return compiled, nil
}
