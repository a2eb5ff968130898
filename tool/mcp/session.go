//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	mcp "trpc.group/trpc-go/trpc-mcp-go"

	"trpc.group/trpc-go/trpc-flowgraph-go/log"
)

// sessionManager mediates every JSON-RPC exchange with one MCP server. Stdio
// servers get a persistent subprocess session established once and reused;
// remote servers get a fresh session per exchange.
type sessionManager struct {
	config    ConnectionConfig
	transport transport

	mu     sync.Mutex
	client mcp.Connector // persistent stdio session, nil until first use
}

func newSessionManager(config ConnectionConfig) (*sessionManager, error) {
	t, err := validateTransport(config.Transport)
	if err != nil {
		return nil, err
	}
	return &sessionManager{config: config, transport: t}, nil
}

// session returns an initialized connector and a release function. For stdio
// the connector is the persistent session and release is a no-op; for remote
// transports a fresh session is opened and release closes it.
func (m *sessionManager) session(ctx context.Context) (mcp.Connector, func(), error) {
	if m.transport == transportStdio {
		client, err := m.ensureStdioSession(ctx)
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil
	}
	client, err := m.openSession(ctx)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := client.Close(); err != nil {
			log.Debugf("closing MCP session: %v", err)
		}
	}
	return client, release, nil
}

// ensureStdioSession spawns the subprocess and initializes the session once;
// subsequent calls reuse it.
func (m *sessionManager) ensureStdioSession(ctx context.Context) (mcp.Connector, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		return m.client, nil
	}
	client, err := m.openSession(ctx)
	if err != nil {
		return nil, err
	}
	m.client = client
	return client, nil
}

// openSession creates a transport client and runs the initialize handshake.
func (m *sessionManager) openSession(ctx context.Context) (mcp.Connector, error) {
	client, err := m.createClient()
	if err != nil {
		return nil, connErr(m.config.endpoint(), err)
	}
	initReq := &mcp.InitializeRequest{}
	initRsp, err := client.Initialize(ctx, initReq)
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			log.Debugf("closing MCP client after failed initialize: %v", closeErr)
		}
		return nil, connErr(m.config.endpoint(), fmt.Errorf("initialize: %w", err))
	}
	log.Debugf("MCP session initialized: server=%s version=%s protocol=%s",
		initRsp.ServerInfo.Name, initRsp.ServerInfo.Version, initRsp.ProtocolVersion)
	return client, nil
}

func (m *sessionManager) createClient() (mcp.Connector, error) {
	clientInfo := m.config.ClientInfo
	if clientInfo.Name == "" {
		clientInfo = defaultClientInfo
	}
	switch m.transport {
	case transportStdio:
		config := mcp.StdioTransportConfig{
			ServerParams: mcp.StdioServerParameters{
				Command: m.config.Command,
				Args:    m.config.Args,
			},
			Timeout: m.config.Timeout,
		}
		return mcp.NewStdioClient(config, clientInfo)
	default:
		// Both SSE and streamable HTTP ride the HTTP client.
		var options []mcp.ClientOption
		if len(m.config.Headers) > 0 {
			headers := http.Header{}
			for k, v := range m.config.Headers {
				headers.Set(k, v)
			}
			options = append(options, mcp.WithHTTPHeaders(headers))
		}
		return mcp.NewClient(m.config.ServerURL, clientInfo, options...)
	}
}

// listTools fetches the server's tool list over a session.
func (m *sessionManager) listTools(ctx context.Context) ([]mcp.Tool, error) {
	client, release, err := m.session(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	listRsp, err := client.ListTools(ctx, &mcp.ListToolsRequest{})
	if err != nil {
		return nil, connErr(m.config.endpoint(), fmt.Errorf("list tools: %w", err))
	}
	return listRsp.Tools, nil
}

// callTool invokes one tool, bounded by the configured timeout. A timeout is
// surfaced as a ConnectionError naming the elapsed bound.
func (m *sessionManager) callTool(ctx context.Context, name string, arguments map[string]any) (*mcp.CallToolResult, error) {
	client, release, err := m.session(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	callCtx := ctx
	if m.config.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, m.config.Timeout)
		defer cancel()
	}
	callReq := &mcp.CallToolRequest{}
	callReq.Params.Name = name
	callReq.Params.Arguments = arguments

	result, err := client.CallTool(callCtx, callReq)
	if err != nil {
		if m.config.Timeout > 0 && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, &ConnectionError{
				Endpoint: m.config.endpoint(),
				Reason:   fmt.Sprintf("Tool call timed out after %ds", int(m.config.Timeout.Seconds())),
				Err:      err,
			}
		}
		return nil, connErr(m.config.endpoint(), fmt.Errorf("call tool %s: %w", name, err))
	}
	return result, nil
}

// close tears down the persistent stdio session, if one exists.
func (m *sessionManager) close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil
	}
	err := m.client.Close()
	m.client = nil
	return err
}
