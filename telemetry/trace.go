//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

// Package telemetry provides tracing and metrics for the flowgraph engine.
package telemetry

import (
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Service identity constants.
const (
	ServiceName    = "flowgraph"
	ServiceVersion = "v0.1.0"
	InstrumentName = "trpc.flowgraph.go"
)

// Span attribute keys.
const (
	KeySpanKind       = "flowgraph.span.kind"
	KeyComponentID    = "flowgraph.component.id"
	KeyInputValue     = "flowgraph.input.value"
	KeyOutputValue    = "flowgraph.output.value"
	KeyToolName       = "flowgraph.tool.name"
	KeyToolParameters = "flowgraph.tool.parameters"
	KeyModelName      = "flowgraph.model.name"
	KeyInputMessages  = "flowgraph.input.messages"
	KeyOutputMessages = "flowgraph.output.messages"
	KeyGraphID        = "flowgraph.graph.id"
	KeyNodeID         = "flowgraph.node.id"
	KeyErrorMessage   = "flowgraph.error.message"
)

// Span kind values.
const (
	SpanKindComponent = "component"
	SpanKindAgent     = "agent"
	SpanKindTool      = "tool"
	SpanKindLLM       = "llm"
	SpanKindGraph     = "graph"
)

// SpanNameReflexion is the span opened around each LLM round of the agentic loop.
const SpanNameReflexion = "Agentic reflexion"

// maxAttributeValueLen caps serialized payload attributes so traces stay small.
const maxAttributeValueLen = 2048

// Tracer is the process-wide tracer. It defaults to a no-op tracer and is
// replaced by Start.
var Tracer trace.Tracer = noop.NewTracerProvider().Tracer(InstrumentName)

// ResetTracer re-reads the global otel tracer provider. Call after installing
// a custom provider.
func ResetTracer() {
	Tracer = otel.Tracer(InstrumentName)
}

// Truncate shortens a payload attribute to the configured cap.
func Truncate(s string) string {
	if len(s) <= maxAttributeValueLen {
		return s
	}
	return s[:maxAttributeValueLen] + "...(truncated)"
}

// MarshalAttr serializes a value for use as a span attribute, truncated.
func MarshalAttr(v any) string {
	bts, err := json.Marshal(v)
	if err != nil {
		return "<not json serializable>"
	}
	return Truncate(string(bts))
}

// TraceComponentStart sets the invocation attributes on a component span.
func TraceComponentStart(span trace.Span, spanKind, componentID string, input any) {
	span.SetAttributes(
		attribute.String(KeySpanKind, spanKind),
		attribute.String(KeyComponentID, componentID),
		attribute.String(KeyInputValue, MarshalAttr(input)),
	)
}

// TraceComponentEnd records the outcome of a component invocation.
func TraceComponentEnd(span trace.Span, output any, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(KeyErrorMessage, err.Error()))
		return
	}
	span.SetAttributes(attribute.String(KeyOutputValue, MarshalAttr(output)))
}

// TraceToolCall sets tool-invocation attributes on a span.
func TraceToolCall(span trace.Span, toolName string, params any) {
	span.SetAttributes(
		attribute.String(KeySpanKind, SpanKindTool),
		attribute.String(KeyToolName, toolName),
		attribute.String(KeyToolParameters, MarshalAttr(params)),
	)
}

// TraceLLMCall sets LLM round-trip attributes on a span.
func TraceLLMCall(span trace.Span, modelName string, inputMessages, outputMessages any) {
	span.SetAttributes(
		attribute.String(KeySpanKind, SpanKindLLM),
		attribute.String(KeyModelName, modelName),
		attribute.String(KeyInputMessages, MarshalAttr(inputMessages)),
		attribute.String(KeyOutputMessages, MarshalAttr(outputMessages)),
	)
}
