//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

// Package graph implements the typed DAG runtime: construction and port
// resolution, and a concurrent ready-set scheduler honoring routing
// directives.
package graph

import (
	"trpc.group/trpc-go/trpc-flowgraph-go/component"
	"trpc.group/trpc-go/trpc-flowgraph-go/schema"
)

// MappingStrategy selects how a port mapping moves data across an edge.
type MappingStrategy string

// Mapping strategies.
const (
	// MappingDirect copies the source port value, coercing across the type
	// matrix. Checked at build time.
	MappingDirect MappingStrategy = "direct"
	// MappingFunctionCall passes the value as LLM function-call arguments;
	// no build-time coercion check.
	MappingFunctionCall MappingStrategy = "function_call"
	// MappingBypass forwards the source node's own upstream input instead of
	// its output. Used by branching nodes.
	MappingBypass MappingStrategy = "bypass"
)

// Mapping wires one source port to one target port along an edge.
type Mapping struct {
	Source     string
	SourcePort string
	Target     string
	TargetPort string
	Strategy   MappingStrategy
}

// Node is a component instance bound to a graph-unique id.
type Node struct {
	ID        string
	Component component.Component

	wrapper *component.Wrapper
}

// resolvedMapping is a build-time resolved entry of the per-node mapping
// table. Port types are captured for runtime coercion; KindAny on either side
// means pass-through.
type resolvedMapping struct {
	source     string
	sourcePort string
	targetPort string
	strategy   MappingStrategy
	sourceType schema.Type
	targetType schema.Type
}

// Graph is a validated, resolved DAG ready for execution. Build it with a
// Builder; a Graph is immutable afterwards and safe for concurrent runs as
// long as its components are.
type Graph struct {
	nodes map[string]*Node
	order []string // node ids in insertion order

	succs map[string][]string
	preds map[string][]string

	startNodes []string

	// resolved maps each target node id to its incoming mapping table, in
	// deterministic mapping order.
	resolved map[string][]resolvedMapping

	// terminals are the nodes with no outgoing edges, in insertion order.
	terminals []string
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// StartNodes returns the entry nodes in dispatch order.
func (g *Graph) StartNodes() []string {
	out := make([]string, len(g.startNodes))
	copy(out, g.startNodes)
	return out
}

// Terminals returns the nodes with no outgoing edges, in insertion order.
func (g *Graph) Terminals() []string {
	out := make([]string, len(g.terminals))
	copy(out, g.terminals)
	return out
}

// Close disposes every component holding external resources.
func (g *Graph) Close() error {
	var first error
	for _, id := range g.order {
		if d, ok := g.nodes[id].Component.(component.Disposable); ok {
			if err := d.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
