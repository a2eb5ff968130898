//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package mcp

import "fmt"

// ConnectionError wraps any transport failure against an MCP server: failed
// discovery, a broken session, or a timed-out tool call.
type ConnectionError struct {
	// Endpoint identifies the server: the URL for remote transports, the
	// command line for stdio.
	Endpoint string
	// Reason is the failure detail.
	Reason string
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("MCP connection error (%s): %s", e.Endpoint, e.Reason)
}

// Unwrap exposes the underlying transport error.
func (e *ConnectionError) Unwrap() error { return e.Err }

// connErr builds a ConnectionError from an underlying error.
func connErr(endpoint string, err error) *ConnectionError {
	return &ConnectionError{Endpoint: endpoint, Reason: err.Error(), Err: err}
}
