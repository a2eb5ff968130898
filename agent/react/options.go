//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package react

import (
	"trpc.group/trpc-go/trpc-flowgraph-go/model"
	"trpc.group/trpc-go/trpc-flowgraph-go/tool"
)

// Defaults for the agentic loop.
const (
	defaultMaxIterations        = 3
	defaultMaxToolsPerIteration = 4
	defaultFirstHistoryMessages = 1
	defaultLastHistoryMessages  = 50
	defaultMessagesField        = "messages"
	defaultFallbackMessage      = "I could not produce a final answer within the allowed number of steps."
)

// options holds the agent configuration.
type options struct {
	systemPrompt         string
	maxIterations        int
	maxToolsPerIteration int
	runToolsInParallel   bool
	allowToolShortcuts   bool
	dateInSystemPrompt   bool
	firstHistoryMessages int
	lastHistoryMessages  int
	messagesField        string
	fallbackMessage      string
	outputFormat         map[string]any
	generationConfig     model.GenerationConfig
	tools                []tool.CallableTool
	toolSets             []tool.ToolSet
	toolFilter           tool.ToolFilter
}

var defaultAgentOptions = options{
	maxIterations:        defaultMaxIterations,
	maxToolsPerIteration: defaultMaxToolsPerIteration,
	runToolsInParallel:   true,
	firstHistoryMessages: defaultFirstHistoryMessages,
	lastHistoryMessages:  defaultLastHistoryMessages,
	messagesField:        defaultMessagesField,
	fallbackMessage:      defaultFallbackMessage,
}

// Option configures an Agent.
type Option func(*options)

// WithSystemPrompt sets the system prompt template. Placeholders use {name}
// substitution filled from the inputs and ctx.
func WithSystemPrompt(template string) Option {
	return func(o *options) { o.systemPrompt = template }
}

// WithMaxIterations bounds the number of LLM rounds per run.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// WithMaxToolsPerIteration caps the tool calls executed per round.
func WithMaxToolsPerIteration(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxToolsPerIteration = n
		}
	}
}

// WithSerialToolExecution runs tool calls one at a time instead of
// concurrently.
func WithSerialToolExecution() Option {
	return func(o *options) { o.runToolsInParallel = false }
}

// WithToolShortcuts lets a tool's final payload terminate the loop verbatim.
func WithToolShortcuts() Option {
	return func(o *options) { o.allowToolShortcuts = true }
}

// WithDateInSystemPrompt prepends the current date to the system prompt.
func WithDateInSystemPrompt() Option {
	return func(o *options) { o.dateInSystemPrompt = true }
}

// WithHistoryWindow keeps the first and last message counts when truncating
// conversation history.
func WithHistoryWindow(first, last int) Option {
	return func(o *options) {
		if first >= 0 {
			o.firstHistoryMessages = first
		}
		if last > 0 {
			o.lastHistoryMessages = last
		}
	}
}

// WithMessagesField names the input data field carrying the conversation
// history.
func WithMessagesField(field string) Option {
	return func(o *options) {
		if field != "" {
			o.messagesField = field
		}
	}
}

// WithFallbackMessage sets the terminal text returned when the iteration
// budget is exhausted.
func WithFallbackMessage(message string) Option {
	return func(o *options) { o.fallbackMessage = message }
}

// WithOutputFormat compels a structured final answer matching the JSON
// schema, elicited through a synthetic formatting tool.
func WithOutputFormat(schema map[string]any) Option {
	return func(o *options) { o.outputFormat = schema }
}

// WithGenerationConfig sets the sampling parameters passed to the model.
func WithGenerationConfig(config model.GenerationConfig) Option {
	return func(o *options) { o.generationConfig = config }
}

// WithTools registers standalone callable tools alongside the child
// components, typically function tools wrapping plain Go functions.
func WithTools(tools ...tool.CallableTool) Option {
	return func(o *options) { o.tools = append(o.tools, tools...) }
}

// WithToolSets registers every tool of the given sets. Wrap a set with
// tool.FilterTools to expose only part of it. The agent closes registered
// sets when it is disposed.
func WithToolSets(sets ...tool.ToolSet) Option {
	return func(o *options) { o.toolSets = append(o.toolSets, sets...) }
}

// WithToolFilter drops any registered tool whose name the filter rejects,
// regardless of where it came from.
func WithToolFilter(filter tool.ToolFilter) Option {
	return func(o *options) { o.toolFilter = filter }
}
