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
	"errors"
	"fmt"
)

// ErrCycle is returned at build time when the node set is not a DAG.
var ErrCycle = errors.New("Graph contains cycles")

// CoverageError is returned at build time when a merge node lacks explicit
// mappings for its inbound edges.
type CoverageError struct {
	// Node is the under-covered target node.
	Node string
	// Missing lists the inbound sources with no mapping.
	Missing []string
}

// Error implements the error interface.
func (e *CoverageError) Error() string {
	return fmt.Sprintf("node %q has multiple incoming connections and no explicit mapping covering %v",
		e.Node, e.Missing)
}

// BuildCoercionError is returned at build time when a direct mapping joins
// incompatible port types.
type BuildCoercionError struct {
	Mapping Mapping
	Cause   error
}

// Error implements the error interface.
func (e *BuildCoercionError) Error() string {
	return fmt.Sprintf("Cannot coerce %s.%s to %s.%s: %v",
		e.Mapping.Source, e.Mapping.SourcePort, e.Mapping.Target, e.Mapping.TargetPort, e.Cause)
}

// Unwrap exposes the underlying coercion failure.
func (e *BuildCoercionError) Unwrap() error { return e.Cause }

// NoMatchingRouteError is raised by a Router whose conditions all failed.
type NoMatchingRouteError struct {
	// NumRoutes is the number of conditions evaluated.
	NumRoutes int
}

// Error implements the error interface.
func (e *NoMatchingRouteError) Error() string {
	return fmt.Sprintf("no route matched after evaluating %d conditions", e.NumRoutes)
}
