//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

// Package react implements the agentic loop component: an LLM that may emit
// tool calls, and the execution of those calls as child runnables, iterated
// until a terminal response or the iteration budget runs out.
package react

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"trpc.group/trpc-go/trpc-flowgraph-go/component"
	"trpc.group/trpc-go/trpc-flowgraph-go/internal/jsonx"
	"trpc.group/trpc-go/trpc-flowgraph-go/log"
	"trpc.group/trpc-go/trpc-flowgraph-go/model"
	"trpc.group/trpc-go/trpc-flowgraph-go/schema"
	"trpc.group/trpc-go/trpc-flowgraph-go/telemetry"
	"trpc.group/trpc-go/trpc-flowgraph-go/tool"
)

// StructuredOutputToolName is the synthetic function registered with the LLM
// to elicit a schema-shaped final answer.
const StructuredOutputToolName = "chat_formatting_output_tool"

// Port names of the agent component.
const (
	KeyInitialPrompt = "initial_prompt"
	KeyOutputFormat  = "output_format"
	KeyOutput        = "output"
	KeyFullMessage   = "full_message"
	KeyIsFinal       = "is_final"
	KeyArtifacts     = "artifacts"
)

// citationInstruction is appended to the system prompt when a retriever tool
// is registered.
const citationInstruction = "When you use retrieved passages, cite them inline " +
	"with bracketed numbers like [1] matching the order of the sources you used."

// Agent is the ReAct component: one graph node driving an LLM-mediated
// tool-use loop over its child runnables.
type Agent struct {
	name        string
	description string
	model       model.Model
	registry    *registry
	opts        options
}

var (
	_ component.Component  = (*Agent)(nil)
	_ component.Disposable = (*Agent)(nil)
)

// New creates an agent over a completion model and its child tools. Every
// child's tool descriptions are registered at construction; an MCP
// multiplexer contributes each of its server tools as a distinct function.
// Standalone tools and tool sets register through WithTools and WithToolSets.
func New(name string, m model.Model, children []component.Component, opt ...Option) *Agent {
	opts := defaultAgentOptions
	for _, o := range opt {
		o(&opts)
	}
	return &Agent{
		name:        name,
		description: "LLM agent that reasons over its tools to answer the conversation",
		model:       m,
		registry:    buildRegistry(children, opts),
		opts:        opts,
	}
}

// Close implements component.Disposable, releasing registered tool sets.
func (a *Agent) Close() error {
	var first error
	for _, set := range a.opts.toolSets {
		if err := set.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// InputsSchema implements component.Component.
func (a *Agent) InputsSchema() *schema.Structured {
	st := schema.NewStructured()
	st.AddField(a.opts.messagesField, schema.Field{
		Type: schema.Messages(), Required: true, IsToolInput: true,
		Description: "conversation history, at minimum one user turn",
	})
	st.AddField(KeyInitialPrompt, schema.Field{
		Type: schema.String(), Nullable: true,
		Description: "system prompt template with {name} placeholders",
	})
	st.AddField(KeyOutputFormat, schema.Field{
		Type: schema.Map(), Nullable: true,
		Description: "JSON schema compelling a structured final answer",
	})
	return st
}

// OutputsSchema implements component.Component.
func (a *Agent) OutputsSchema() *schema.Structured {
	st := schema.NewStructured()
	st.AddField(KeyOutput, schema.Field{Type: schema.String(), Required: true})
	st.AddField(KeyFullMessage, schema.Field{Type: schema.Map(), Nullable: true})
	st.AddField(KeyIsFinal, schema.Field{Type: schema.Bool(), Required: true})
	st.AddField(KeyArtifacts, schema.Field{Type: schema.Map(), Nullable: true})
	return st
}

// CanonicalPorts implements component.Component.
func (a *Agent) CanonicalPorts() component.Ports {
	return component.Ports{Input: a.opts.messagesField, Output: KeyOutput}
}

// ToolDescriptions implements component.Component, so an agent can itself be
// a tool of another agent.
func (a *Agent) ToolDescriptions() []*tool.Declaration {
	return []*tool.Declaration{{
		Name:        a.name,
		Description: a.description,
		InputSchema: component.ToolSchema(a.InputsSchema()),
	}}
}

// Migrated implements component.Component.
func (a *Agent) Migrated() bool { return true }

// Run implements component.Component: the main loop.
func (a *Agent) Run(ctx context.Context, input *component.NodeData) (*component.NodeData, error) {
	raw, ok := input.Get(a.opts.messagesField)
	if !ok {
		return nil, fmt.Errorf("agent %q: missing %q input", a.name, a.opts.messagesField)
	}
	messages, ok := asMessageHistory(raw)
	if !ok {
		return nil, fmt.Errorf("agent %q: %q input is not a message history", a.name, a.opts.messagesField)
	}

	systemPrompt, err := a.buildSystemPrompt(input)
	if err != nil {
		return nil, err
	}
	messages = ensureSystemMessage(messages, systemPrompt)
	messages = truncateHistory(messages, a.opts.firstHistoryMessages, a.opts.lastHistoryMessages)

	structuredTool, outputSchema, err := a.structuredOutputTool(input)
	if err != nil {
		return nil, err
	}

	artifacts := make(map[string]any)
	for iteration := 0; iteration < a.opts.maxIterations; iteration++ {
		telemetry.Add(ctx, telemetry.AgentIterateCounter, 1)
		toolChoice := model.ToolChoiceAuto
		if iteration+1 >= a.opts.maxIterations {
			// The last allowed round must yield a terminal text response.
			toolChoice = model.ToolChoiceNone
		}
		rsp, err := a.callModel(ctx, messages, toolChoice, structuredTool)
		if err != nil {
			return nil, err
		}
		toolCalls := rsp.ToolCalls()

		if call, ok := pickStructuredCall(toolCalls); ok {
			return a.finishStructured(input, call, outputSchema, artifacts)
		}
		if len(toolCalls) == 0 {
			return a.finishFinal(input, rsp, artifacts)
		}

		if len(toolCalls) > a.opts.maxToolsPerIteration {
			log.Warnf("agent %q clipped %d tool calls to %d",
				a.name, len(toolCalls), a.opts.maxToolsPerIteration)
			toolCalls = toolCalls[:a.opts.maxToolsPerIteration]
		}
		results := a.dispatchToolCalls(ctx, input, toolCalls)

		messages = append(messages, model.Message{Role: model.RoleAssistant, ToolCalls: toolCalls})
		var finalChildren []*component.NodeData
		for _, result := range results {
			messages = append(messages,
				model.NewToolMessage(result.call.ID, result.call.Function.Name, result.content))
			if result.child == nil {
				continue
			}
			if childArtifacts, ok := result.child.Data[KeyArtifacts].(map[string]any); ok {
				mergeArtifacts(artifacts, childArtifacts)
			}
			if isFinal, _ := result.child.Data[KeyIsFinal].(bool); isFinal {
				finalChildren = append(finalChildren, result.child)
			}
		}
		if a.opts.allowToolShortcuts && len(finalChildren) == 1 {
			return a.finishShortcut(finalChildren[0], artifacts), nil
		}
	}
	out := component.New()
	out.Ctx = input.Ctx
	out.Set(KeyOutput, a.opts.fallbackMessage)
	out.Set(KeyIsFinal, false)
	out.Set(KeyArtifacts, artifacts)
	return out, nil
}

// callModel performs one LLM round trip under an "Agentic reflexion" span
// and returns the final response of the stream.
func (a *Agent) callModel(ctx context.Context, messages []model.Message,
	toolChoice model.ToolChoice, structuredTool *tool.Declaration) (*model.Response, error) {
	ctx, span := telemetry.Tracer.Start(ctx, telemetry.SpanNameReflexion)
	defer span.End()

	request := &model.Request{
		Messages:             messages,
		GenerationConfig:     a.opts.generationConfig,
		Tools:                a.registry.asTools(),
		StructuredOutputTool: structuredTool,
	}
	if a.registry.len() > 0 || structuredTool != nil {
		request.ToolChoice = toolChoice
	}
	ch, err := a.model.GenerateContent(ctx, request)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	var last *model.Response
	for rsp := range ch {
		if rsp.Error != nil {
			err := fmt.Errorf("agent %q: model error: %w", a.name, rsp.Error)
			span.RecordError(err)
			return nil, err
		}
		last = rsp
	}
	if last == nil {
		return nil, fmt.Errorf("agent %q: model returned no response", a.name)
	}
	telemetry.TraceLLMCall(span, a.model.Info().Name, messages, last.Choices)
	return last, nil
}

// toolResult is the outcome of one dispatched tool call, in source order.
type toolResult struct {
	call    model.ToolCall
	content string
	child   *component.NodeData
}

// dispatchToolCalls executes the selected calls, concurrently or in order.
// A failing tool is folded into its result content; it never aborts the
// iteration.
func (a *Agent) dispatchToolCalls(ctx context.Context, input *component.NodeData,
	toolCalls []model.ToolCall) []toolResult {
	results := make([]toolResult, len(toolCalls))
	if a.opts.runToolsInParallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, call := range toolCalls {
			g.Go(func() error {
				results[i] = a.executeToolCall(gctx, input, call)
				return nil
			})
		}
		_ = g.Wait()
		return results
	}
	for i, call := range toolCalls {
		results[i] = a.executeToolCall(ctx, input, call)
	}
	return results
}

// executeToolCall runs one call against its registered runnable. The child
// input data is the LLM-supplied arguments merged over the agent's original
// inputs; the agent's ctx flows through.
func (a *Agent) executeToolCall(ctx context.Context, input *component.NodeData,
	call model.ToolCall) toolResult {
	name := call.Function.Name
	ctx, span := telemetry.Tracer.Start(ctx, fmt.Sprintf("tool %s", name))
	defer span.End()
	telemetry.Add(ctx, telemetry.ToolCallCounter, 1)

	entry, ok := a.registry.lookup(name)
	if !ok {
		err := fmt.Errorf("unknown tool %q", name)
		span.RecordError(err)
		return toolResult{call: call, content: err.Error()}
	}
	arguments := make(map[string]any)
	if len(call.Function.Arguments) > 0 {
		if err := jsonx.Unmarshal(call.Function.Arguments, &arguments); err != nil {
			err = fmt.Errorf("invalid arguments for tool %q: %w", name, err)
			span.RecordError(err)
			return toolResult{call: call, content: err.Error()}
		}
	}
	telemetry.TraceToolCall(span, name, arguments)

	if entry.callable != nil {
		result, err := entry.callable.Call(ctx, call.Function.Arguments)
		if err != nil {
			span.RecordError(err)
			return toolResult{call: call, content: err.Error()}
		}
		return toolResult{call: call, content: callableContent(result)}
	}

	childInput := component.New()
	childInput.Ctx = input.Ctx
	for k, v := range input.Data {
		if k == component.KeyDirective || k == a.opts.messagesField {
			continue
		}
		childInput.Data[k] = v
	}
	for k, v := range arguments {
		childInput.Data[k] = v
	}
	// Multiplexing components route on the selected function name.
	childInput.Data["tool_name"] = name

	child, err := entry.runnable.Run(ctx, childInput)
	if err != nil {
		span.RecordError(err)
		return toolResult{call: call, content: err.Error()}
	}
	return toolResult{call: call, content: toolContent(child), child: child}
}

// callableContent lowers a callable tool's result to the tool-role message
// text.
func callableContent(result any) string {
	if s, ok := result.(string); ok {
		return s
	}
	bts, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(bts)
}

// toolContent lowers a child's output packet to the tool-role message text.
func toolContent(child *component.NodeData) string {
	if child == nil {
		return ""
	}
	if output, ok := child.Data[KeyOutput].(string); ok {
		return output
	}
	visible := make(map[string]any, len(child.Data))
	for k, v := range child.Data {
		if k == component.KeyDirective {
			continue
		}
		visible[k] = v
	}
	if len(visible) == 1 {
		for _, v := range visible {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	bts, err := json.Marshal(visible)
	if err != nil {
		return fmt.Sprintf("%v", visible)
	}
	return string(bts)
}

// finishFinal assembles the terminal payload from a plain text response.
func (a *Agent) finishFinal(input *component.NodeData, rsp *model.Response,
	artifacts map[string]any) (*component.NodeData, error) {
	content := rsp.Content()
	if sources, ok := artifacts[artifactSources].([]any); ok && len(sources) > 0 {
		content, sources = renumberCitations(content, sources)
		artifacts[artifactSources] = sources
	}
	if images := mineImages(content); len(images) > 0 {
		mergeArtifacts(artifacts, map[string]any{artifactImages: images})
	}
	out := component.New()
	out.Ctx = input.Ctx
	out.Set(KeyOutput, content)
	out.Set(KeyFullMessage, messageAsMap(model.NewAssistantMessage(content)))
	out.Set(KeyIsFinal, true)
	out.Set(KeyArtifacts, artifacts)
	return out, nil
}

// finishShortcut returns a final child's payload verbatim, with the
// accumulated artifacts folded in.
func (a *Agent) finishShortcut(child *component.NodeData, artifacts map[string]any) *component.NodeData {
	out := child.Clone()
	if childArtifacts, ok := out.Data[KeyArtifacts].(map[string]any); ok {
		merged := make(map[string]any, len(artifacts))
		mergeArtifacts(merged, artifacts)
		mergeArtifacts(merged, childArtifacts)
		out.Set(KeyArtifacts, merged)
	} else {
		out.Set(KeyArtifacts, artifacts)
	}
	return out
}

// finishStructured parses and validates the synthetic formatting call,
// lifting the parsed fields to root output ports alongside their JSON
// serialization.
func (a *Agent) finishStructured(input *component.NodeData, call model.ToolCall,
	outputSchema map[string]any, artifacts map[string]any) (*component.NodeData, error) {
	fields := make(map[string]any)
	if err := jsonx.Unmarshal(call.Function.Arguments, &fields); err != nil {
		return nil, fmt.Errorf("agent %q: structured output is not valid JSON: %w", a.name, err)
	}
	if err := schema.ValidateJSON(outputSchema, fields); err != nil {
		return nil, fmt.Errorf("agent %q: %w", a.name, err)
	}
	serialized, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	out := component.New()
	out.Ctx = input.Ctx
	for k, v := range fields {
		out.Set(k, v)
	}
	out.Set(KeyOutput, string(serialized))
	out.Set(KeyFullMessage, messageAsMap(model.NewAssistantMessage(string(serialized))))
	out.Set(KeyIsFinal, true)
	out.Set(KeyArtifacts, artifacts)
	return out, nil
}

// structuredOutputTool builds the synthetic formatting tool when an output
// format is configured or supplied at runtime. A bare properties map is
// wrapped into an object schema.
func (a *Agent) structuredOutputTool(input *component.NodeData) (*tool.Declaration, map[string]any, error) {
	format := a.opts.outputFormat
	if runtime, ok := input.Data[KeyOutputFormat].(map[string]any); ok && len(runtime) > 0 {
		format = runtime
	}
	if len(format) == 0 {
		return nil, nil, nil
	}
	doc := format
	if _, hasType := format["type"]; !hasType {
		doc = map[string]any{"type": "object", "properties": format}
	}
	toolSchema := &tool.Schema{}
	bts, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, err
	}
	if err := json.Unmarshal(bts, toolSchema); err != nil {
		return nil, nil, fmt.Errorf("agent %q: invalid output format: %w", a.name, err)
	}
	return &tool.Declaration{
		Name:        StructuredOutputToolName,
		Description: "Format the final answer. Call this exactly once with the complete answer fields.",
		InputSchema: toolSchema,
	}, doc, nil
}

// pickStructuredCall returns the synthetic formatting call, if present.
func pickStructuredCall(toolCalls []model.ToolCall) (model.ToolCall, bool) {
	for _, call := range toolCalls {
		if call.Function.Name == StructuredOutputToolName {
			return call, true
		}
	}
	return model.ToolCall{}, false
}

// buildSystemPrompt fills the template and appends the conditional sections:
// current date, citation instruction, and the ctx file manifest.
func (a *Agent) buildSystemPrompt(input *component.NodeData) (string, error) {
	template := a.opts.systemPrompt
	if ip, ok := input.Data[KeyInitialPrompt].(string); ok && ip != "" {
		template = ip
	}
	var prompt string
	if template != "" {
		filled, err := fillTemplate(template, input.Data, input.Ctx)
		if err != nil {
			return "", err
		}
		prompt = filled
	}
	var sections []string
	if a.opts.dateInSystemPrompt {
		sections = append(sections, "Current date: "+time.Now().Format("2006-01-02"))
	}
	if prompt != "" {
		sections = append(sections, prompt)
	}
	if a.registry.has(func(name string) bool { return strings.Contains(name, "retriev") }) {
		sections = append(sections, citationInstruction)
	}
	if manifest := fileManifest(input.Ctx); manifest != "" {
		sections = append(sections, manifest)
	}
	return strings.Join(sections, "\n\n"), nil
}

// fileManifest lists ctx file attachments so the LLM can reference them by
// name.
func fileManifest(ctx map[string]any) string {
	files, ok := ctx["files"].([]any)
	if !ok || len(files) == 0 {
		return ""
	}
	var names []string
	for _, f := range files {
		switch v := f.(type) {
		case string:
			names = append(names, v)
		case map[string]any:
			if name, ok := v["filename"].(string); ok && name != "" {
				names = append(names, name)
			} else if name, ok := v["name"].(string); ok && name != "" {
				names = append(names, name)
			}
		}
	}
	if len(names) == 0 {
		return ""
	}
	return "Files available to your tools:\n- " + strings.Join(names, "\n- ")
}

// messageAsMap lowers a message to its wire map form for the full_message
// output port.
func messageAsMap(msg model.Message) map[string]any {
	bts, err := json.Marshal(msg)
	if err != nil {
		return map[string]any{"role": string(msg.Role), "content": msg.Content}
	}
	out := make(map[string]any)
	if err := json.Unmarshal(bts, &out); err != nil {
		return map[string]any{"role": string(msg.Role), "content": msg.Content}
	}
	return out
}
