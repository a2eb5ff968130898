//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

// Package tool provides the tool contract shared by the agentic loop, the
// graph runtime and the MCP substrate.
package tool

import "context"

// Tool is the interface that all tools must implement.
type Tool interface {
	// Declaration returns the metadata the LLM function-calling API sees.
	Declaration() *Declaration
}

// CallableTool is a tool that can be invoked with JSON-encoded arguments.
type CallableTool interface {
	Tool

	// Call executes the tool with the given JSON arguments and returns the
	// result. Implementations must honor ctx cancellation.
	Call(ctx context.Context, jsonArgs []byte) (any, error)
}

// Declaration describes a single tool: its name, what it does, and the JSON
// schema of its parameters.
type Declaration struct {
	// Name is the tool name. Must match ^[a-zA-Z0-9_-]+$ for LLM API compatibility.
	Name string `json:"name"`
	// Description tells the model when and how to call the tool.
	Description string `json:"description"`
	// InputSchema is the JSON schema of the tool parameters.
	InputSchema *Schema `json:"input_schema,omitempty"`
	// OutputSchema is the JSON schema of the tool result, if declared.
	OutputSchema *Schema `json:"output_schema,omitempty"`
}

// Schema is a JSON-schema fragment describing a tool parameter or object.
type Schema struct {
	// Type is the JSON type: "object", "string", "number", "integer",
	// "boolean", "array", "null".
	Type string `json:"type,omitempty"`
	// Description documents the field for the model.
	Description string `json:"description,omitempty"`
	// Properties holds the fields of an object schema.
	Properties map[string]*Schema `json:"properties,omitempty"`
	// Required lists the mandatory property names of an object schema.
	Required []string `json:"required,omitempty"`
	// Items is the element schema of an array schema.
	Items *Schema `json:"items,omitempty"`
	// Enum restricts the value to a fixed set.
	Enum []any `json:"enum,omitempty"`
	// Default is the default value, if any.
	Default any `json:"default,omitempty"`
	// AdditionalProperties controls whether extra object keys are allowed.
	AdditionalProperties *bool `json:"additionalProperties,omitempty"`
}
