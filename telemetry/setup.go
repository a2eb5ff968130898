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
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const defaultGRPCEndpoint = "localhost:4317"

// options configures the exporter setup.
type options struct {
	endpoint string
	protocol string // "grpc" or "http"
	headers  map[string]string
}

// Option configures Start.
type Option func(*options)

// WithEndpoint sets the OTLP collector endpoint (host:port).
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// WithProtocol selects the OTLP transport, "grpc" (default) or "http".
func WithProtocol(protocol string) Option {
	return func(o *options) { o.protocol = protocol }
}

// WithHeaders adds headers to every export request.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) { o.headers = headers }
}

// Start installs OTLP trace and metric pipelines and rebinds the package
// Tracer and Meter. The returned function flushes and shuts the pipelines
// down.
func Start(ctx context.Context, opt ...Option) (func() error, error) {
	opts := options{protocol: "grpc"}
	for _, o := range opt {
		o(&opts)
	}
	if opts.endpoint == "" {
		opts.endpoint = endpointFromEnv()
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create telemetry resource: %w", err)
	}

	traceExp, err := traceExporter(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	metricExp, err := metricExporter(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(traceExp),
	)
	otel.SetTracerProvider(tp)
	ResetTracer()

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
	)
	otel.SetMeterProvider(mp)
	if err := initMeter(mp); err != nil {
		return nil, err
	}

	clean := func() error {
		ctx := context.Background()
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}
	return clean, nil
}

func traceExporter(ctx context.Context, opts options) (sdktrace.SpanExporter, error) {
	if opts.protocol == "http" {
		endpoint, path, err := parseEndpointURL(opts.endpoint)
		if err != nil {
			return nil, err
		}
		httpOpts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(endpoint),
			otlptracehttp.WithInsecure(),
		}
		if path != "/" {
			httpOpts = append(httpOpts, otlptracehttp.WithURLPath(path))
		}
		if len(opts.headers) > 0 {
			httpOpts = append(httpOpts, otlptracehttp.WithHeaders(opts.headers))
		}
		return otlptracehttp.New(ctx, httpOpts...)
	}
	grpcOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(opts.endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	}
	if len(opts.headers) > 0 {
		grpcOpts = append(grpcOpts, otlptracegrpc.WithHeaders(opts.headers))
	}
	return otlptracegrpc.New(ctx, grpcOpts...)
}

func metricExporter(ctx context.Context, opts options) (sdkmetric.Exporter, error) {
	if opts.protocol == "http" {
		endpoint, path, err := parseEndpointURL(opts.endpoint)
		if err != nil {
			return nil, err
		}
		httpOpts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		}
		if path != "/" {
			httpOpts = append(httpOpts, otlpmetrichttp.WithURLPath(path))
		}
		if len(opts.headers) > 0 {
			httpOpts = append(httpOpts, otlpmetrichttp.WithHeaders(opts.headers))
		}
		return otlpmetrichttp.New(ctx, httpOpts...)
	}
	grpcOpts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(opts.endpoint),
		otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	}
	if len(opts.headers) > 0 {
		grpcOpts = append(grpcOpts, otlpmetricgrpc.WithHeaders(opts.headers))
	}
	return otlpmetricgrpc.New(ctx, grpcOpts...)
}

// endpointFromEnv resolves the collector endpoint from the standard OTLP
// environment variables, specific before generic.
func endpointFromEnv() string {
	if ep := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); ep != "" {
		return ep
	}
	if ep := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); ep != "" {
		return ep
	}
	return defaultGRPCEndpoint
}

// parseEndpointURL splits an endpoint URL into host:port and URL path. A bare
// host is accepted and yields path "/".
func parseEndpointURL(raw string) (endpoint, path string, err error) {
	in := raw
	if !strings.Contains(in, "://") {
		in = "http://" + in
	}
	u, err := url.Parse(in)
	if err != nil {
		return "", "", fmt.Errorf("invalid endpoint URL %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("invalid endpoint URL %q: missing host", raw)
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return u.Host, path, nil
}
