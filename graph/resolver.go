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

	"trpc.group/trpc-go/trpc-flowgraph-go/schema"
)

// resolve turns the user-supplied edge and mapping lists into the per-node
// mapping tables. It rejects cycles, validates endpoints and ports, enforces
// mapping coverage for merge nodes, synthesizes canonical-port defaults for
// single-predecessor nodes, and runs the coercion matrix in check-only mode
// on every direct mapping.
func (g *Graph) resolve(edges []edge, mappings []Mapping, startOrder []string) error {
	all := g.combineEdges(edges, mappings)
	if err := g.checkAcyclic(all); err != nil {
		return err
	}
	if err := g.validateMappings(mappings); err != nil {
		return err
	}
	if err := g.resolveTables(mappings); err != nil {
		return err
	}
	if err := g.resolveStartNodes(startOrder); err != nil {
		return err
	}
	for _, id := range g.order {
		if len(g.succs[id]) == 0 {
			g.terminals = append(g.terminals, id)
		}
	}
	return nil
}

// combineEdges merges explicit edges with mapping-implied ones, populating
// the deduplicated adjacency lists in insertion order.
func (g *Graph) combineEdges(edges []edge, mappings []Mapping) []edge {
	seen := make(map[edge]bool)
	var all []edge
	add := func(e edge) {
		if seen[e] {
			return
		}
		seen[e] = true
		all = append(all, e)
		g.succs[e.source] = append(g.succs[e.source], e.target)
		g.preds[e.target] = append(g.preds[e.target], e.source)
	}
	for _, e := range edges {
		add(e)
	}
	for _, m := range mappings {
		add(edge{source: m.Source, target: m.Target})
	}
	return all
}

// checkAcyclic validates endpoints and rejects cycles, self-loops included.
func (g *Graph) checkAcyclic(all []edge) error {
	for _, e := range all {
		if _, ok := g.nodes[e.source]; !ok {
			return fmt.Errorf("edge references unknown node %q", e.source)
		}
		if _, ok := g.nodes[e.target]; !ok {
			return fmt.Errorf("edge references unknown node %q", e.target)
		}
		if e.source == e.target {
			return ErrCycle
		}
	}
	indegree := make(map[string]int, len(g.nodes))
	for _, id := range g.order {
		indegree[id] = len(g.preds[id])
	}
	var queue []string
	for _, id := range g.order {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	processed := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		processed++
		for _, succ := range g.succs[id] {
			indegree[succ]--
			if indegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}
	if processed != len(g.nodes) {
		return ErrCycle
	}
	return nil
}

// validateMappings checks every mapping's endpoints and ports. Migrated
// components must declare the named port; legacy components accept unknown
// ports.
func (g *Graph) validateMappings(mappings []Mapping) error {
	for _, m := range mappings {
		src, ok := g.nodes[m.Source]
		if !ok {
			return fmt.Errorf("mapping references unknown node %q", m.Source)
		}
		dst, ok := g.nodes[m.Target]
		if !ok {
			return fmt.Errorf("mapping references unknown node %q", m.Target)
		}
		// Bypass mappings still name a routed output port on the source;
		// only the forwarded value comes from the source's upstream input.
		srcSchema := src.Component.OutputsSchema()
		if src.Component.Migrated() && m.SourcePort != "" && srcSchema.Len() > 0 {
			if _, ok := srcSchema.Field(m.SourcePort); !ok {
				return fmt.Errorf("unknown port %q on node %q", m.SourcePort, m.Source)
			}
		}
		if dst.Component.Migrated() && m.TargetPort != "" && dst.Component.InputsSchema().Len() > 0 {
			if _, ok := dst.Component.InputsSchema().Field(m.TargetPort); !ok {
				return fmt.Errorf("unknown port %q on node %q", m.TargetPort, m.Target)
			}
		}
	}
	return nil
}

// resolveTables builds the per-target mapping tables, enforcing coverage for
// merge nodes and synthesizing defaults for single-predecessor nodes, then
// checks direct mappings against the coercion matrix.
func (g *Graph) resolveTables(mappings []Mapping) error {
	byTarget := make(map[string][]Mapping)
	for _, m := range mappings {
		byTarget[m.Target] = append(byTarget[m.Target], m)
	}
	for _, id := range g.order {
		preds := g.preds[id]
		if len(preds) == 0 {
			continue
		}
		explicit := byTarget[id]
		if len(preds) >= 2 {
			covered := make(map[string]bool, len(explicit))
			for _, m := range explicit {
				covered[m.Source] = true
			}
			var missing []string
			for _, p := range preds {
				if !covered[p] {
					missing = append(missing, p)
				}
			}
			if len(missing) > 0 {
				return &CoverageError{Node: id, Missing: missing}
			}
		}
		if len(preds) == 1 && len(explicit) == 0 {
			m, err := g.synthesize(preds[0], id)
			if err != nil {
				return err
			}
			explicit = []Mapping{m}
		}
		for _, m := range explicit {
			rm, err := g.resolveOne(m)
			if err != nil {
				return err
			}
			g.resolved[id] = append(g.resolved[id], rm)
		}
	}
	return nil
}

// synthesize derives the implicit mapping for a single-predecessor node:
// canonical ports first, then sole-port fallback. Legacy endpoints fall back
// to whole-packet pass-through.
func (g *Graph) synthesize(source, target string) (Mapping, error) {
	src := g.nodes[source].Component
	dst := g.nodes[target].Component

	sourcePort := src.CanonicalPorts().Output
	if sourcePort == "" {
		sourcePort, _ = src.OutputsSchema().SoleField()
	}
	targetPort := dst.CanonicalPorts().Input
	if targetPort == "" {
		targetPort, _ = dst.InputsSchema().SoleField()
	}
	if sourcePort == "" && src.Migrated() && src.OutputsSchema().Len() > 0 {
		return Mapping{}, fmt.Errorf(
			"cannot synthesize mapping %s -> %s: node %q has no canonical or sole output port",
			source, target, source)
	}
	if targetPort == "" && dst.Migrated() && dst.InputsSchema().Len() > 0 {
		return Mapping{}, fmt.Errorf(
			"cannot synthesize mapping %s -> %s: node %q has no canonical or sole input port",
			source, target, target)
	}
	return Mapping{
		Source: source, SourcePort: sourcePort,
		Target: target, TargetPort: targetPort,
		Strategy: MappingDirect,
	}, nil
}

// resolveOne captures the declared port types and runs the check-only
// coercion pass for direct mappings.
func (g *Graph) resolveOne(m Mapping) (resolvedMapping, error) {
	rm := resolvedMapping{
		source:     m.Source,
		sourcePort: m.SourcePort,
		targetPort: m.TargetPort,
		strategy:   m.Strategy,
		sourceType: schema.Any(),
		targetType: schema.Any(),
	}
	src := g.nodes[m.Source].Component
	dst := g.nodes[m.Target].Component
	// A bypass forwards the source's upstream input, whose type is unknown
	// until runtime; its source type stays Any.
	if src.Migrated() && m.SourcePort != "" && m.Strategy != MappingBypass {
		if f, ok := src.OutputsSchema().Field(m.SourcePort); ok {
			rm.sourceType = f.Type
		}
	}
	if dst.Migrated() && m.TargetPort != "" {
		if f, ok := dst.InputsSchema().Field(m.TargetPort); ok {
			rm.targetType = f.Type
		}
	}
	if m.Strategy == MappingDirect {
		if err := schema.Check(rm.sourceType, rm.targetType); err != nil {
			return resolvedMapping{}, &BuildCoercionError{Mapping: m, Cause: err}
		}
	}
	return rm, nil
}

// resolveStartNodes fixes the entry dispatch order. Entry nodes default to
// insertion order; an explicit order must name each entry node exactly once.
func (g *Graph) resolveStartNodes(startOrder []string) error {
	var entries []string
	isEntry := make(map[string]bool)
	for _, id := range g.order {
		if len(g.preds[id]) == 0 {
			entries = append(entries, id)
			isEntry[id] = true
		}
	}
	if len(entries) == 0 {
		return fmt.Errorf("graph has no entry node")
	}
	if len(startOrder) == 0 {
		g.startNodes = entries
		return nil
	}
	seen := make(map[string]bool, len(startOrder))
	for _, id := range startOrder {
		if !isEntry[id] {
			return fmt.Errorf("start node %q is not an entry node", id)
		}
		if seen[id] {
			return fmt.Errorf("duplicate start node %q in ordering", id)
		}
		seen[id] = true
	}
	if len(startOrder) != len(entries) {
		return fmt.Errorf("start ordering names %d of %d entry nodes", len(startOrder), len(entries))
	}
	g.startNodes = startOrder
	return nil
}
