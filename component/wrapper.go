//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package component

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trpc.group/trpc-go/trpc-flowgraph-go/schema"
	"trpc.group/trpc-go/trpc-flowgraph-go/telemetry"
)

// traceLogKey carries the per-invocation trace sink through the context.
type traceLogKey struct{}

// traceSink buffers side-channel log lines emitted during an invocation so
// they can be flushed onto the span.
type traceSink struct {
	mu     sync.Mutex
	events []traceEvent
}

type traceEvent struct {
	name  string
	attrs []attribute.KeyValue
}

// LogTrace records a free-form trace line against the current invocation
// span. Outside an invocation it is a no-op.
func LogTrace(ctx context.Context, format string, args ...any) {
	sink, ok := ctx.Value(traceLogKey{}).(*traceSink)
	if !ok {
		return
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.events = append(sink.events, traceEvent{name: fmt.Sprintf(format, args...)})
}

// LogTraceEvent records a named trace event with attributes against the
// current invocation span. Outside an invocation it is a no-op.
func LogTraceEvent(ctx context.Context, name string, attrs map[string]string) {
	sink, ok := ctx.Value(traceLogKey{}).(*traceSink)
	if !ok {
		return
	}
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, attribute.String(k, v))
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.events = append(sink.events, traceEvent{name: name, attrs: kvs})
}

// Wrapper binds a component to its node identity and mediates every
// invocation: it opens a span, validates inputs against the declared ports
// (applying defaults), runs the component, and validates outputs. Legacy
// components skip both validations.
type Wrapper struct {
	// ID is the node identity within the graph.
	ID string
	// Component is the wrapped implementation.
	Component Component
	// SpanKind overrides the span kind attribute; defaults to "component".
	SpanKind string
}

// Wrap creates a Wrapper for the given node.
func Wrap(id string, c Component) *Wrapper {
	return &Wrapper{ID: id, Component: c}
}

// Invoke runs the wrapped component with validation and tracing.
func (w *Wrapper) Invoke(ctx context.Context, input *NodeData) (*NodeData, error) {
	spanKind := w.SpanKind
	if spanKind == "" {
		spanKind = telemetry.SpanKindComponent
	}
	ctx, span := telemetry.Tracer.Start(ctx, fmt.Sprintf("invoke %s", w.ID))
	defer span.End()
	telemetry.TraceComponentStart(span, spanKind, w.ID, input)
	telemetry.Add(ctx, telemetry.NodeRunCounter, 1)

	sink := &traceSink{}
	ctx = context.WithValue(ctx, traceLogKey{}, sink)

	output, err := w.invoke(ctx, input)
	flushTrace(span, sink)
	telemetry.TraceComponentEnd(span, output, err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return output, nil
}

func (w *Wrapper) invoke(ctx context.Context, input *NodeData) (*NodeData, error) {
	if !w.Component.Migrated() {
		// Legacy components own their payload shape; pass through untouched.
		return w.Component.Run(ctx, input)
	}
	validated, err := w.validate(w.Component.InputsSchema(), input)
	if err != nil {
		return nil, err
	}
	output, err := w.Component.Run(ctx, validated)
	if err != nil {
		return nil, err
	}
	if output == nil {
		return nil, fmt.Errorf("component %q returned no output", w.ID)
	}
	return w.validateOutput(output)
}

// validate checks the packet against the declared input ports, applying
// defaults for absent optional fields. The incoming packet is not mutated.
func (w *Wrapper) validate(st *schema.Structured, input *NodeData) (*NodeData, error) {
	if st.Len() == 0 {
		return input, nil
	}
	data, err := schema.ValidateRecord(st, input.Data, schema.Record(st))
	if err != nil {
		return nil, w.named(err)
	}
	out := input.Clone()
	out.Data = data
	if d := input.Directive(); d != nil {
		out.SetDirective(d)
	}
	return out, nil
}

func (w *Wrapper) validateOutput(output *NodeData) (*NodeData, error) {
	st := w.Component.OutputsSchema()
	if st.Len() == 0 {
		return output, nil
	}
	for _, name := range st.Names() {
		field, _ := st.Field(name)
		if !field.Required || field.Default != nil || field.Nullable {
			continue
		}
		if v, ok := output.Data[name]; !ok || v == nil {
			return nil, w.named(&schema.CoercionError{
				Source: schema.Map(), Target: schema.Record(st),
				Reason: fmt.Sprintf("output field %q is missing", name),
			})
		}
	}
	return output, nil
}

// named attaches the node identity to coercion failures so validation errors
// report which component rejected the value.
func (w *Wrapper) named(err error) error {
	var ce *schema.CoercionError
	if errors.As(err, &ce) && ce.Component == "" {
		ce.Component = w.ID
	}
	return err
}

func flushTrace(span trace.Span, sink *traceSink) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	for _, ev := range sink.events {
		if len(ev.attrs) > 0 {
			span.AddEvent(ev.name, trace.WithAttributes(ev.attrs...))
			continue
		}
		span.AddEvent(ev.name)
	}
}
