//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

// Package schema defines the typed port model of the graph runtime and the
// coercion matrix that decides which values may flow across port boundaries.
package schema

import "fmt"

// Kind enumerates the declared type of a port.
type Kind string

// Port type kinds.
const (
	// KindString is a plain string.
	KindString Kind = "string"
	// KindInt is a 64-bit integer.
	KindInt Kind = "int"
	// KindFloat is a 64-bit float.
	KindFloat Kind = "float"
	// KindBool is a boolean.
	KindBool Kind = "bool"
	// KindMessages is an ordered sequence of chat messages.
	KindMessages Kind = "messages"
	// KindMap is a free-form string-keyed mapping.
	KindMap Kind = "map"
	// KindRecord is a structured record with a declared field set.
	KindRecord Kind = "record"
	// KindAny accepts any value.
	KindAny Kind = "any"
)

// Type is the declared type of a port.
type Type struct {
	// Kind is the type kind.
	Kind Kind
	// Record holds the field set for KindRecord types.
	Record *Structured
}

// String returns a human-readable form of the type.
func (t Type) String() string {
	if t.Kind == KindRecord && t.Record != nil {
		return fmt.Sprintf("record(%d fields)", len(t.Record.fields))
	}
	return string(t.Kind)
}

// Convenience constructors.

// String returns the string port type.
func String() Type { return Type{Kind: KindString} }

// Int returns the integer port type.
func Int() Type { return Type{Kind: KindInt} }

// Float returns the float port type.
func Float() Type { return Type{Kind: KindFloat} }

// Bool returns the boolean port type.
func Bool() Type { return Type{Kind: KindBool} }

// Messages returns the chat-message-sequence port type.
func Messages() Type { return Type{Kind: KindMessages} }

// Map returns the free-form mapping port type.
func Map() Type { return Type{Kind: KindMap} }

// Record returns a structured record port type with the given field set.
func Record(s *Structured) Type { return Type{Kind: KindRecord, Record: s} }

// Any returns the unconstrained port type.
func Any() Type { return Type{Kind: KindAny} }

// Field describes a single named port within a structured type.
type Field struct {
	// Type is the declared type of the port.
	Type Type
	// Required marks the port as mandatory.
	Required bool
	// Nullable allows the port to be absent or nil even when required upstream
	// data is missing.
	Nullable bool
	// Default is used when the port receives no value.
	Default any
	// DisabledAsInput keeps the port in the schema but forbids wiring it from
	// upstream; its value is supplied at construction time.
	DisabledAsInput bool
	// IsToolInput exposes the port as an LLM function-calling parameter.
	IsToolInput bool
	// Description documents the port.
	Description string
	// UIHints is opaque presentation metadata, propagated untouched.
	UIHints map[string]any
}

// Structured is a typed record describing named ports. Field iteration order
// is insertion order, which keeps downstream merges deterministic.
type Structured struct {
	fields map[string]Field
	order  []string
}

// NewStructured creates an empty structured type.
func NewStructured() *Structured {
	return &Structured{fields: make(map[string]Field)}
}

// AddField adds or replaces a field and returns the structured type for chaining.
func (s *Structured) AddField(name string, field Field) *Structured {
	if _, exists := s.fields[name]; !exists {
		s.order = append(s.order, name)
	}
	s.fields[name] = field
	return s
}

// Field returns the named field.
func (s *Structured) Field(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Names returns the field names in insertion order.
func (s *Structured) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of fields.
func (s *Structured) Len() int {
	return len(s.fields)
}

// SoleField returns the only field name when the type declares exactly one
// field, used for canonical-port fallback.
func (s *Structured) SoleField() (string, bool) {
	if len(s.order) == 1 {
		return s.order[0], true
	}
	return "", false
}

// ToolFields returns the names of fields flagged as tool inputs, in order.
func (s *Structured) ToolFields() []string {
	var out []string
	for _, name := range s.order {
		if s.fields[name].IsToolInput {
			out = append(out, name)
		}
	}
	return out
}
