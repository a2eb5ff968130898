//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metric names.
const (
	MetricGraphRunCnt     = "flowgraph.graph.run.count"
	MetricNodeRunCnt      = "flowgraph.node.run.count"
	MetricToolCallCnt     = "flowgraph.tool.call.count"
	MetricAgentIterateCnt = "flowgraph.agent.iteration.count"
)

// Meter is the process-wide meter. It defaults to a no-op meter and is
// replaced by Start.
var Meter metric.Meter = noop.NewMeterProvider().Meter(InstrumentName)

// Counters populated by Start. They stay nil until a meter provider is
// installed; use the Add helpers which tolerate that.
var (
	GraphRunCounter     metric.Int64Counter
	NodeRunCounter      metric.Int64Counter
	ToolCallCounter     metric.Int64Counter
	AgentIterateCounter metric.Int64Counter
)

func initMeter(mp metric.MeterProvider) error {
	Meter = mp.Meter(InstrumentName)
	var err error
	if GraphRunCounter, err = Meter.Int64Counter(
		MetricGraphRunCnt,
		metric.WithDescription("Total number of graph executions"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("create metric %s: %w", MetricGraphRunCnt, err)
	}
	if NodeRunCounter, err = Meter.Int64Counter(
		MetricNodeRunCnt,
		metric.WithDescription("Total number of node invocations"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("create metric %s: %w", MetricNodeRunCnt, err)
	}
	if ToolCallCounter, err = Meter.Int64Counter(
		MetricToolCallCnt,
		metric.WithDescription("Total number of tool calls"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("create metric %s: %w", MetricToolCallCnt, err)
	}
	if AgentIterateCounter, err = Meter.Int64Counter(
		MetricAgentIterateCnt,
		metric.WithDescription("Total number of agentic loop iterations"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("create metric %s: %w", MetricAgentIterateCnt, err)
	}
	return nil
}

// Add increments a counter if it has been initialized.
func Add(ctx context.Context, counter metric.Int64Counter, incr int64, opts ...metric.AddOption) {
	if counter == nil {
		return
	}
	counter.Add(ctx, incr, opts...)
}
