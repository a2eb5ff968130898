//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

// Package event carries the streaming execution events emitted while a graph
// runs.
package event

import (
	"time"

	"github.com/google/uuid"

	"trpc.group/trpc-go/trpc-flowgraph-go/component"
)

// Kind names an execution event type.
type Kind string

// Event kinds.
const (
	KindGraphStarted   Kind = "graph.started"
	KindGraphCompleted Kind = "graph.completed"
	KindGraphFailed    Kind = "graph.failed"
	KindNodeStarted    Kind = "node.started"
	KindNodeCompleted  Kind = "node.completed"
	KindNodeHalted     Kind = "node.halted"
	KindNodeFailed     Kind = "node.failed"
	KindAgentThought   Kind = "agent.thought"
	KindToolCalled     Kind = "tool.called"
)

// Event is one observation of a running execution.
type Event struct {
	// ID is a unique event identifier.
	ID string `json:"id"`
	// RunID identifies the graph execution this event belongs to.
	RunID string `json:"runId"`
	// Kind is the event type.
	Kind Kind `json:"kind"`
	// NodeID names the node the event concerns, empty for graph-level events.
	NodeID string `json:"nodeId,omitempty"`
	// Timestamp is the emission time in Unix seconds.
	Timestamp float64 `json:"timestamp"`
	// Output carries the node or graph output for completion events.
	Output *component.NodeData `json:"output,omitempty"`
	// Error carries the failure message for failure events.
	Error string `json:"error,omitempty"`
}

// Option configures a new event.
type Option func(*Event)

// WithNode attaches the node identity.
func WithNode(nodeID string) Option {
	return func(e *Event) { e.NodeID = nodeID }
}

// WithOutput attaches an output packet.
func WithOutput(output *component.NodeData) Option {
	return func(e *Event) { e.Output = output }
}

// WithError attaches a failure message.
func WithError(err error) Option {
	return func(e *Event) {
		if err != nil {
			e.Error = err.Error()
		}
	}
}

// New creates an event with a generated ID and current timestamp.
func New(runID string, kind Kind, opts ...Option) *Event {
	e := &Event{
		ID:        uuid.New().String(),
		RunID:     runID,
		Kind:      kind,
		Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
