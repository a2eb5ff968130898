//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

// Package component defines the polymorphic node contract of the graph
// runtime: the NodeData packet, the Component interface, the invocation
// wrapper and the component registry.
package component

import (
	"context"

	"trpc.group/trpc-go/trpc-flowgraph-go/schema"
	"trpc.group/trpc-go/trpc-flowgraph-go/tool"
)

// Ports names the default input and output used when an edge is drawn
// without explicit port names.
type Ports struct {
	Input  string
	Output string
}

// Component is the contract every graph node implements.
type Component interface {
	// InputsSchema describes the named input ports.
	InputsSchema() *schema.Structured

	// OutputsSchema describes the named output ports.
	OutputsSchema() *schema.Structured

	// CanonicalPorts returns the default ports for implicit edges. Empty
	// names mean the component declares no canonical port on that side.
	CanonicalPorts() Ports

	// ToolDescriptions returns the tool declarations this component exposes
	// to LLM function calling. Single-tool components return one entry;
	// MCP multiplexers return one per wrapped server tool.
	ToolDescriptions() []*tool.Declaration

	// Run executes the component. Inputs are fully materialized before the
	// call; the returned packet must not be mutated afterwards.
	Run(ctx context.Context, input *NodeData) (*NodeData, error)

	// Migrated reports whether the component uses strict typed I/O. Legacy
	// components (false) bypass schema validation and receive a wrapped
	// message payload.
	Migrated() bool
}

// Disposable is implemented by components holding external resources (e.g.
// an MCP stdio subprocess); the graph owner calls Close when tearing down.
type Disposable interface {
	Close() error
}

// Base provides default Component behavior for embedding: empty schemas, no
// canonical ports, one tool description derived from the inputs schema, and
// strict typed I/O.
type Base struct {
	Name        string
	Description string
}

// InputsSchema implements Component.
func (b *Base) InputsSchema() *schema.Structured { return schema.NewStructured() }

// OutputsSchema implements Component.
func (b *Base) OutputsSchema() *schema.Structured { return schema.NewStructured() }

// CanonicalPorts implements Component.
func (b *Base) CanonicalPorts() Ports { return Ports{} }

// ToolDescriptions implements Component.
func (b *Base) ToolDescriptions() []*tool.Declaration {
	return []*tool.Declaration{{Name: b.Name, Description: b.Description}}
}

// Migrated implements Component.
func (b *Base) Migrated() bool { return true }

// ToolSchema lowers a structured port type to the JSON schema exposed to LLM
// function calling. Only fields flagged IsToolInput are exposed; when none
// are flagged, every wireable (non-disabled) field is exposed.
func ToolSchema(st *schema.Structured) *tool.Schema {
	out := &tool.Schema{
		Type:       "object",
		Properties: make(map[string]*tool.Schema),
	}
	names := st.ToolFields()
	restricted := len(names) > 0
	if !restricted {
		names = st.Names()
	}
	for _, name := range names {
		field, ok := st.Field(name)
		if !ok {
			continue
		}
		if !restricted && field.DisabledAsInput {
			continue
		}
		out.Properties[name] = fieldSchema(field)
		if field.Required && field.Default == nil {
			out.Required = append(out.Required, name)
		}
	}
	return out
}

func fieldSchema(field schema.Field) *tool.Schema {
	s := &tool.Schema{Description: field.Description, Default: field.Default}
	switch field.Type.Kind {
	case schema.KindString:
		s.Type = "string"
	case schema.KindInt:
		s.Type = "integer"
	case schema.KindFloat:
		s.Type = "number"
	case schema.KindBool:
		s.Type = "boolean"
	case schema.KindMessages:
		s.Type = "array"
		s.Items = &tool.Schema{Type: "object"}
	case schema.KindMap, schema.KindRecord:
		s.Type = "object"
	}
	return s
}
