//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package react

import (
	"context"

	"trpc.group/trpc-go/trpc-flowgraph-go/component"
	"trpc.group/trpc-go/trpc-flowgraph-go/log"
	"trpc.group/trpc-go/trpc-flowgraph-go/tool"
)

// registeredTool binds one LLM-visible function name to what executes it:
// either a child graph component or a directly callable tool. Exactly one of
// runnable and callable is set. It satisfies tool.Tool so the registry can be
// handed to the completion request directly.
type registeredTool struct {
	runnable    component.Component
	callable    tool.CallableTool
	declaration *tool.Declaration
}

// Declaration implements tool.Tool.
func (r *registeredTool) Declaration() *tool.Declaration {
	return r.declaration
}

// registry is the per-agent map from tool name to registered tool, with the
// LLM-facing order preserved.
type registry struct {
	byName map[string]*registeredTool
	order  []string
}

// buildRegistry indexes every tool source by name: child components through
// their tool descriptions (an MCP multiplexer contributes one entry per
// server tool, all dispatching to the same runnable), standalone callable
// tools, and tool sets. Duplicate names warn and overwrite; a configured
// filter drops rejected names from every source.
func buildRegistry(children []component.Component, opts options) *registry {
	r := &registry{byName: make(map[string]*registeredTool)}
	for _, child := range children {
		for _, declaration := range child.ToolDescriptions() {
			r.add(&registeredTool{runnable: child, declaration: declaration}, opts.toolFilter)
		}
	}
	for _, t := range opts.tools {
		r.add(&registeredTool{callable: t, declaration: t.Declaration()}, opts.toolFilter)
	}
	for _, set := range opts.toolSets {
		for _, t := range set.Tools(context.Background()) {
			callable, ok := t.(tool.CallableTool)
			if !ok {
				log.Warnf("tool %q from set %q is not callable, skipping",
					t.Declaration().Name, set.Name())
				continue
			}
			r.add(&registeredTool{callable: callable, declaration: t.Declaration()}, opts.toolFilter)
		}
	}
	return r
}

func (r *registry) add(entry *registeredTool, filter tool.ToolFilter) {
	declaration := entry.declaration
	if declaration == nil || declaration.Name == "" {
		return
	}
	if filter != nil && !filter(declaration.Name) {
		return
	}
	if _, exists := r.byName[declaration.Name]; exists {
		log.Warnf("tool %q is registered more than once, overriding", declaration.Name)
	} else {
		r.order = append(r.order, declaration.Name)
	}
	r.byName[declaration.Name] = entry
}

// lookup returns the registered tool for a name.
func (r *registry) lookup(name string) (*registeredTool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// asTools lowers the registry to the completion-request tool map.
func (r *registry) asTools() map[string]tool.Tool {
	out := make(map[string]tool.Tool, len(r.byName))
	for name, t := range r.byName {
		out[name] = t
	}
	return out
}

// has reports whether any registered name satisfies the predicate.
func (r *registry) has(pred func(string) bool) bool {
	for _, name := range r.order {
		if pred(name) {
			return true
		}
	}
	return false
}

// len reports the number of distinct registered names.
func (r *registry) len() int { return len(r.byName) }
