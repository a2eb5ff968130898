//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package tool

import "context"

// ToolSet groups tools that come and go together, such as everything one MCP
// server exposes. An agent registers a set as a whole and closes it when the
// agent is disposed.
type ToolSet interface {
	// Tools returns the tools currently in the set.
	Tools(context.Context) []Tool

	// Close releases whatever backs the set, e.g. a server session.
	Close() error

	// Name identifies the set in logs and duplicate-registration warnings.
	Name() string
}

// ToolFilter accepts or rejects a tool by name.
type ToolFilter func(string) bool

// FilterTools wraps a set so that only tools the filter accepts are visible.
// The underlying set still owns its resources; closing the wrapper closes it.
func FilterTools(set ToolSet, filter ToolFilter) ToolSet {
	return &filteredSet{set: set, filter: filter}
}

type filteredSet struct {
	set    ToolSet
	filter ToolFilter
}

// Tools implements ToolSet.
func (f *filteredSet) Tools(ctx context.Context) []Tool {
	all := f.set.Tools(ctx)
	if f.filter == nil {
		return all
	}
	var kept []Tool
	for _, t := range all {
		if f.filter(t.Declaration().Name) {
			kept = append(kept, t)
		}
	}
	return kept
}

// Close implements ToolSet.
func (f *filteredSet) Close() error {
	return f.set.Close()
}

// Name implements ToolSet.
func (f *filteredSet) Name() string {
	return f.set.Name()
}

// IncludeNames builds a filter accepting exactly the given names.
func IncludeNames(names ...string) ToolFilter {
	allowed := make(map[string]bool, len(names))
	for _, name := range names {
		allowed[name] = true
	}
	return func(name string) bool { return allowed[name] }
}

// ExcludeNames builds a filter rejecting the given names.
func ExcludeNames(names ...string) ToolFilter {
	blocked := make(map[string]bool, len(names))
	for _, name := range names {
		blocked[name] = true
	}
	return func(name string) bool { return !blocked[name] }
}
