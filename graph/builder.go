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
	"fmt"

	"trpc.group/trpc-go/trpc-flowgraph-go/component"
)

type edge struct {
	source string
	target string
}

// Builder accumulates nodes, edges and port mappings and resolves them into
// an executable Graph. Errors are deferred to Build so calls can chain.
type Builder struct {
	nodes      map[string]*Node
	order      []string
	edges      []edge
	mappings   []Mapping
	startOrder []string
	errs       []error
}

// NewBuilder creates an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{nodes: make(map[string]*Node)}
}

// AddNode adds a component under a graph-unique id.
func (b *Builder) AddNode(id string, c component.Component) *Builder {
	if c == nil {
		b.errs = append(b.errs, fmt.Errorf("node %q has no runnable", id))
		return b
	}
	if _, exists := b.nodes[id]; exists {
		b.errs = append(b.errs, fmt.Errorf("node %q is already defined", id))
		return b
	}
	b.nodes[id] = &Node{ID: id, Component: c, wrapper: component.Wrap(id, c)}
	b.order = append(b.order, id)
	return b
}

// AddEdge draws an edge with no explicit port mapping; ports are synthesized
// from the endpoints' canonical ports at build time.
func (b *Builder) AddEdge(source, target string) *Builder {
	b.edges = append(b.edges, edge{source: source, target: target})
	return b
}

// AddMapping wires a source port to a target port. The edge is implied.
func (b *Builder) AddMapping(m Mapping) *Builder {
	if m.Strategy == "" {
		m.Strategy = MappingDirect
	}
	b.mappings = append(b.mappings, m)
	return b
}

// SetStartOrder fixes the dispatch order of entry nodes. Without it, entry
// nodes run in insertion order.
func (b *Builder) SetStartOrder(ids ...string) *Builder {
	b.startOrder = ids
	return b
}

// Build validates the DAG and resolves the per-node mapping tables.
func (b *Builder) Build() (*Graph, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	g := &Graph{
		nodes:    b.nodes,
		order:    b.order,
		succs:    make(map[string][]string),
		preds:    make(map[string][]string),
		resolved: make(map[string][]resolvedMapping),
	}
	if err := g.resolve(b.edges, b.mappings, b.startOrder); err != nil {
		return nil, err
	}
	return g, nil
}
