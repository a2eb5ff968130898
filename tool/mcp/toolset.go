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
	"encoding/json"
	"strings"

	mcp "trpc.group/trpc-go/trpc-mcp-go"

	"trpc.group/trpc-go/trpc-flowgraph-go/internal/jsonx"
	"trpc.group/trpc-go/trpc-flowgraph-go/log"
	"trpc.group/trpc-go/trpc-flowgraph-go/tool"
)

// Result normalization constants: the exact payloads substituted when a tool
// call returns no content.
const (
	emptySuccessResult = `{"result":"success"}`
	emptyErrorResult   = `{"result":"error","message":"MCP tool call failed with no output."}`
)

// ToolSet exposes every tool of one MCP server. Discovery happens at
// construction; each discovered tool becomes a distinct LLM-visible
// function dispatched through the shared session manager.
type ToolSet struct {
	config  toolSetConfig
	session *sessionManager
	tools   []tool.Tool
}

var _ tool.ToolSet = (*ToolSet)(nil)

// NewToolSet connects to the server, lists its tools and converts each into
// a callable tool. For remote transports the discovery session is transient;
// stdio servers keep their session for the tool set's lifetime.
func NewToolSet(ctx context.Context, config ConnectionConfig, opts ...ToolSetOption) (*ToolSet, error) {
	cfg := toolSetConfig{connectionConfig: config, name: config.endpoint()}
	for _, opt := range opts {
		opt(&cfg)
	}
	session, err := newSessionManager(config)
	if err != nil {
		return nil, err
	}
	mcpTools, err := session.listTools(ctx)
	if err != nil {
		return nil, err
	}
	ts := &ToolSet{config: cfg, session: session}
	for _, mt := range mcpTools {
		if cfg.toolFilter != nil && !cfg.toolFilter(mt.Name) {
			continue
		}
		ts.tools = append(ts.tools, newMCPTool(mt, session, cfg.retryConfig))
	}
	log.Infof("MCP tool set %q discovered %d tools", cfg.name, len(ts.tools))
	return ts, nil
}

// Tools implements tool.ToolSet.
func (ts *ToolSet) Tools(_ context.Context) []tool.Tool {
	out := make([]tool.Tool, len(ts.tools))
	copy(out, ts.tools)
	return out
}

// Close implements tool.ToolSet, tearing down any persistent session.
func (ts *ToolSet) Close() error {
	return ts.session.close()
}

// Name implements tool.ToolSet.
func (ts *ToolSet) Name() string {
	return ts.config.name
}

// mcpTool adapts one discovered MCP tool to the callable tool contract.
type mcpTool struct {
	declaration *tool.Declaration
	session     *sessionManager
	retryConfig *RetryConfig
}

var _ tool.CallableTool = (*mcpTool)(nil)

func newMCPTool(mt mcp.Tool, session *sessionManager, retryConfig *RetryConfig) *mcpTool {
	return &mcpTool{
		declaration: &tool.Declaration{
			Name:        mt.Name,
			Description: mt.Description,
			InputSchema: convertInputSchema(mt),
		},
		session:     session,
		retryConfig: retryConfig,
	}
}

// Declaration implements tool.Tool.
func (t *mcpTool) Declaration() *tool.Declaration {
	return t.declaration
}

// Call implements tool.CallableTool. The JSON arguments are the LLM-supplied
// function-call payload; the result is the server content normalized to one
// string. A server-reported failure still surfaces as content, shaped as the
// error payload, so the LLM can react to it.
func (t *mcpTool) Call(ctx context.Context, jsonArgs []byte) (any, error) {
	output, _, err := t.callNormalized(ctx, jsonArgs)
	if err != nil {
		return nil, err
	}
	return output, nil
}

// callNormalized performs the call and returns the normalized output together
// with the server-reported error flag.
func (t *mcpTool) callNormalized(ctx context.Context, jsonArgs []byte) (string, bool, error) {
	arguments := make(map[string]any)
	if len(jsonArgs) > 0 {
		if err := jsonx.Unmarshal(jsonArgs, &arguments); err != nil {
			return "", false, err
		}
	}
	result, err := executeWithRetry(ctx, t.retryConfig, func() (any, error) {
		return t.session.callTool(ctx, t.declaration.Name, arguments)
	}, t.declaration.Name)
	if err != nil {
		return "", false, err
	}
	output, isError := NormalizeResult(result.(*mcp.CallToolResult))
	return output, isError, nil
}

// NormalizeResult lowers a tool-call result to a single textual output plus
// the error flag. Text items concatenate with newlines; empty content is
// substituted with a fixed success or error payload.
func NormalizeResult(result *mcp.CallToolResult) (output string, isError bool) {
	if result == nil {
		return emptyErrorResult, true
	}
	var texts []string
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			texts = append(texts, textContent.Text)
		}
	}
	if len(texts) == 0 {
		if result.IsError {
			return emptyErrorResult, true
		}
		return emptySuccessResult, false
	}
	return strings.Join(texts, "\n"), result.IsError
}

// convertInputSchema lifts the server-declared JSON schema into the tool
// declaration. The wire shape is decoded through a JSON round trip to stay
// independent of the SDK's schema representation.
func convertInputSchema(mt mcp.Tool) *tool.Schema {
	bts, err := json.Marshal(mt.InputSchema)
	if err != nil {
		return &tool.Schema{Type: "object"}
	}
	schema := &tool.Schema{}
	if err := json.Unmarshal(bts, schema); err != nil || schema.Type == "" {
		return &tool.Schema{Type: "object"}
	}
	return schema
}
