//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

// Package mcp exposes tools served over the Model Context Protocol as graph
// components and LLM-callable tools.
package mcp

import (
	"fmt"
	"time"

	mcp "trpc.group/trpc-go/trpc-mcp-go"

	"trpc.group/trpc-go/trpc-flowgraph-go/tool"
)

// transport specifies the transport method.
type transport string

const (
	// transportStdio runs the server as a subprocess with a persistent
	// stdio session.
	transportStdio transport = "stdio"
	// transportSSE is the Server-Sent Events transport; each tool call uses
	// a fresh session.
	transportSSE transport = "sse"
	// transportStreamable is the streamable HTTP transport; each tool call
	// uses a fresh session.
	transportStreamable transport = "streamable"
)

var defaultClientInfo = mcp.Implementation{
	Name:    "trpc-flowgraph-go",
	Version: "1.0.0",
}

// defaultRetryConfig keeps retries conservative.
var defaultRetryConfig = RetryConfig{
	MaxRetries:     2,
	InitialBackoff: 500 * time.Millisecond,
	BackoffFactor:  2.0,
	MaxBackoff:     8 * time.Second,
}

// ConnectionConfig defines how to reach an MCP server.
type ConnectionConfig struct {
	// Transport specifies the transport method: "stdio", "sse", "streamable".
	Transport string `json:"transport"`

	// Streamable/SSE configuration.
	ServerURL string            `json:"server_url,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`

	// Stdio configuration.
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`

	// Timeout bounds each tool call. Zero means no bound.
	Timeout time.Duration `json:"timeout,omitempty"`

	// ClientInfo identifies this client during the MCP handshake.
	ClientInfo mcp.Implementation `json:"client_info,omitempty"`
}

// endpoint returns the identity used in connection errors.
func (c *ConnectionConfig) endpoint() string {
	if c.Command != "" {
		return c.Command
	}
	return c.ServerURL
}

// RetryConfig defines retry behavior for MCP tool calls.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts for tool calls.
	MaxRetries int `json:"max_retries"`
	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration `json:"initial_backoff"`
	// BackoffFactor multiplies the backoff after each retry.
	BackoffFactor float64 `json:"backoff_factor"`
	// MaxBackoff caps the exponential growth.
	MaxBackoff time.Duration `json:"max_backoff"`
}

// toolSetConfig holds internal configuration for ToolSet.
type toolSetConfig struct {
	connectionConfig ConnectionConfig
	toolFilter       tool.ToolFilter
	retryConfig      *RetryConfig
	name             string
}

// ToolSetOption configures a ToolSet.
type ToolSetOption func(*toolSetConfig)

// WithToolFilter keeps only the tools the filter accepts.
func WithToolFilter(filter tool.ToolFilter) ToolSetOption {
	return func(c *toolSetConfig) { c.toolFilter = filter }
}

// WithSimpleRetry enables retries with default backoff settings.
func WithSimpleRetry(maxRetries int) ToolSetOption {
	return func(c *toolSetConfig) {
		config := defaultRetryConfig
		config.MaxRetries = maxRetries
		c.retryConfig = &config
	}
}

// WithRetry enables retries with full control over the backoff settings.
func WithRetry(config RetryConfig) ToolSetOption {
	return func(c *toolSetConfig) {
		validated := validateRetryConfig(config)
		c.retryConfig = &validated
	}
}

// WithName sets the tool-set name used for identification.
func WithName(name string) ToolSetOption {
	return func(c *toolSetConfig) { c.name = name }
}

func validateRetryConfig(config RetryConfig) RetryConfig {
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = defaultRetryConfig.InitialBackoff
	}
	if config.BackoffFactor < 1.0 {
		config.BackoffFactor = defaultRetryConfig.BackoffFactor
	}
	if config.MaxBackoff < config.InitialBackoff {
		config.MaxBackoff = defaultRetryConfig.MaxBackoff
	}
	return config
}

func validateTransport(t string) (transport, error) {
	switch transport(t) {
	case transportStdio, transportSSE, transportStreamable:
		return transport(t), nil
	case "":
		return transportStreamable, nil
	default:
		return "", fmt.Errorf("unsupported transport: %s", t)
	}
}
