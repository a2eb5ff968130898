//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"trpc.group/trpc-go/trpc-flowgraph-go/component"
	"trpc.group/trpc-go/trpc-flowgraph-go/schema"
	"trpc.group/trpc-go/trpc-flowgraph-go/telemetry"
	"trpc.group/trpc-go/trpc-flowgraph-go/tool"
)

// Port names of the multiplexer component.
const (
	// KeyToolName selects which discovered tool an invocation targets.
	KeyToolName = "tool_name"
	// KeyOutput carries the normalized textual result.
	KeyOutput = "output"
	// KeyIsError flags a server-reported tool failure.
	KeyIsError = "is_error"
)

// statusCaller is the call surface carrying the server-reported error flag
// alongside the normalized output.
type statusCaller interface {
	callNormalized(ctx context.Context, jsonArgs []byte) (string, bool, error)
}

// Component exposes an MCP server as one graph node. It multiplexes every
// discovered tool: the agent registers each as a distinct LLM function, and
// an invocation routes on the tool_name input.
type Component struct {
	toolSet *ToolSet
	byName  map[string]statusCaller
}

var (
	_ component.Component  = (*Component)(nil)
	_ component.Disposable = (*Component)(nil)
)

// NewComponent connects to the server and wraps its tool set as a component.
func NewComponent(ctx context.Context, config ConnectionConfig, opts ...ToolSetOption) (*Component, error) {
	ts, err := NewToolSet(ctx, config, opts...)
	if err != nil {
		return nil, err
	}
	c := &Component{toolSet: ts, byName: make(map[string]statusCaller)}
	for _, t := range ts.tools {
		if callable, ok := t.(statusCaller); ok {
			c.byName[t.Declaration().Name] = callable
		}
	}
	return c, nil
}

// InputsSchema implements component.Component. Tool arguments are dynamic,
// so only the selector is declared.
func (c *Component) InputsSchema() *schema.Structured {
	st := schema.NewStructured()
	st.AddField(KeyToolName, schema.Field{
		Type: schema.String(), Required: true,
		Description: "name of the server tool to invoke",
	})
	return st
}

// OutputsSchema implements component.Component.
func (c *Component) OutputsSchema() *schema.Structured {
	st := schema.NewStructured()
	st.AddField(KeyOutput, schema.Field{Type: schema.String(), Required: true})
	st.AddField(KeyIsError, schema.Field{Type: schema.Bool()})
	return st
}

// CanonicalPorts implements component.Component.
func (c *Component) CanonicalPorts() component.Ports {
	return component.Ports{Output: KeyOutput}
}

// ToolDescriptions implements component.Component: one declaration per
// discovered server tool.
func (c *Component) ToolDescriptions() []*tool.Declaration {
	out := make([]*tool.Declaration, 0, len(c.toolSet.tools))
	for _, t := range c.toolSet.tools {
		out = append(out, t.Declaration())
	}
	return out
}

// Migrated implements component.Component. Arguments beyond the selector are
// tool-specific, so strict input validation is skipped.
func (c *Component) Migrated() bool { return false }

// Run implements component.Component. The tool_name input selects the server
// tool; every other data field is forwarded as arguments.
func (c *Component) Run(ctx context.Context, input *component.NodeData) (*component.NodeData, error) {
	name, _ := input.Data[KeyToolName].(string)
	if name == "" {
		return nil, fmt.Errorf("missing %s input", KeyToolName)
	}
	callable, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown MCP tool %q", name)
	}
	arguments := make(map[string]any, len(input.Data))
	for k, v := range input.Data {
		if k == KeyToolName || k == component.KeyDirective {
			continue
		}
		arguments[k] = v
	}
	ctx, span := telemetry.Tracer.Start(ctx, fmt.Sprintf("mcp %s", name))
	defer span.End()
	telemetry.TraceToolCall(span, name, arguments)
	telemetry.Add(ctx, telemetry.ToolCallCounter, 1)

	jsonArgs, err := json.Marshal(arguments)
	if err != nil {
		return nil, err
	}
	output, isError, err := callable.callNormalized(ctx, jsonArgs)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	out := component.New()
	out.Ctx = input.Ctx
	out.Set(KeyOutput, output)
	out.Set(KeyIsError, isError)
	return out, nil
}

// Close implements component.Disposable.
func (c *Component) Close() error {
	return c.toolSet.Close()
}
