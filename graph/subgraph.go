//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package graph

import (
	"context"

	"trpc.group/trpc-go/trpc-flowgraph-go/component"
	"trpc.group/trpc-go/trpc-flowgraph-go/schema"
	"trpc.group/trpc-go/trpc-flowgraph-go/tool"
)

// RunnerBlock wraps an inner graph executor as a single component, so a
// graph can nest another graph as one node. The outer scheduler treats it
// opaquely: ctx flows in with the packet and the inner terminal output flows
// out.
type RunnerBlock struct {
	name     string
	executor *Executor
}

// NewRunnerBlock wraps an executor as a component.
func NewRunnerBlock(name string, ex *Executor) *RunnerBlock {
	return &RunnerBlock{name: name, executor: ex}
}

// InputsSchema implements component.Component. The inner graph validates its
// own entry nodes.
func (b *RunnerBlock) InputsSchema() *schema.Structured { return schema.NewStructured() }

// OutputsSchema implements component.Component.
func (b *RunnerBlock) OutputsSchema() *schema.Structured { return schema.NewStructured() }

// CanonicalPorts implements component.Component.
func (b *RunnerBlock) CanonicalPorts() component.Ports { return component.Ports{} }

// ToolDescriptions implements component.Component.
func (b *RunnerBlock) ToolDescriptions() []*tool.Declaration {
	return []*tool.Declaration{{Name: b.name, Description: "runs a nested graph"}}
}

// Run implements component.Component by executing the inner graph.
func (b *RunnerBlock) Run(ctx context.Context, input *component.NodeData) (*component.NodeData, error) {
	return b.executor.Execute(ctx, input)
}

// Migrated implements component.Component.
func (b *RunnerBlock) Migrated() bool { return true }

// Close implements component.Disposable, tearing down the inner graph.
func (b *RunnerBlock) Close() error {
	return b.executor.Close()
}
