//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package component

import (
	"context"

	"trpc.group/trpc-go/trpc-flowgraph-go/schema"
	"trpc.group/trpc-go/trpc-flowgraph-go/tool"
)

// RunFunc is the execution body of a function component.
type RunFunc func(ctx context.Context, input *NodeData) (*NodeData, error)

// Func adapts a plain function into a Component with declared ports.
type Func struct {
	name        string
	description string
	inputs      *schema.Structured
	outputs     *schema.Structured
	canonical   Ports
	run         RunFunc
}

// FuncOption configures a function component.
type FuncOption func(*Func)

// WithDescription sets the tool description.
func WithDescription(description string) FuncOption {
	return func(f *Func) { f.description = description }
}

// WithInputs declares the input ports.
func WithInputs(st *schema.Structured) FuncOption {
	return func(f *Func) { f.inputs = st }
}

// WithOutputs declares the output ports.
func WithOutputs(st *schema.Structured) FuncOption {
	return func(f *Func) { f.outputs = st }
}

// WithCanonicalPorts declares the default ports used by implicit edges.
func WithCanonicalPorts(input, output string) FuncOption {
	return func(f *Func) { f.canonical = Ports{Input: input, Output: output} }
}

// NewFunc creates a component from a function. Ports default to empty
// schemas, which skip validation.
func NewFunc(name string, run RunFunc, opt ...FuncOption) *Func {
	f := &Func{
		name:    name,
		inputs:  schema.NewStructured(),
		outputs: schema.NewStructured(),
		run:     run,
	}
	for _, o := range opt {
		o(f)
	}
	return f
}

// InputsSchema implements Component.
func (f *Func) InputsSchema() *schema.Structured { return f.inputs }

// OutputsSchema implements Component.
func (f *Func) OutputsSchema() *schema.Structured { return f.outputs }

// CanonicalPorts implements Component.
func (f *Func) CanonicalPorts() Ports {
	if f.canonical != (Ports{}) {
		return f.canonical
	}
	ports := Ports{}
	if name, ok := f.inputs.SoleField(); ok {
		ports.Input = name
	}
	if name, ok := f.outputs.SoleField(); ok {
		ports.Output = name
	}
	return ports
}

// ToolDescriptions implements Component.
func (f *Func) ToolDescriptions() []*tool.Declaration {
	return []*tool.Declaration{{
		Name:         f.name,
		Description:  f.description,
		InputSchema:  ToolSchema(f.inputs),
		OutputSchema: ToolSchema(f.outputs),
	}}
}

// Run implements Component.
func (f *Func) Run(ctx context.Context, input *NodeData) (*NodeData, error) {
	return f.run(ctx, input)
}

// Migrated implements Component.
func (f *Func) Migrated() bool { return true }
