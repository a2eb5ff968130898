//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package model

import (
	"strings"

	"trpc.group/trpc-go/trpc-flowgraph-go/tool"
)

// Role represents the role of a message author.
type Role string

// Role constants for message authors.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is one of the defined constants.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	default:
		return false
	}
}

// Message represents a single message in a conversation.
type Message struct {
	// Role is the role of the message author.
	Role Role `json:"role"`
	// Content is the message content.
	// Only one of Content or ContentParts should be provided.
	// If both are provided, ContentParts will be used.
	Content string `json:"content,omitempty"`
	// ContentParts is the content parts for multimodal messages.
	ContentParts []ContentPart `json:"content_parts,omitempty"`
	// ToolID is the ID of the tool call this message responds to.
	ToolID string `json:"tool_id,omitempty"`
	// ToolName is the name of the tool used by a tool response.
	ToolName string `json:"tool_name,omitempty"`
	// ToolCalls is the optional tool calls emitted by the assistant.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Text lowers the message content to a plain string for prompt templating.
// Multimodal parts contribute their text parts joined by newlines.
func (m Message) Text() string {
	if len(m.ContentParts) == 0 {
		return m.Content
	}
	var parts []string
	for _, p := range m.ContentParts {
		if p.Type == ContentTypeText && p.Text != nil {
			parts = append(parts, *p.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ContentType represents the type of content.
type ContentType string

// ContentType constants for content types.
const (
	ContentTypeText  ContentType = "text"
	ContentTypeImage ContentType = "image_url"
	ContentTypeFile  ContentType = "file"
)

// ContentPart represents a single content part in a multimodal message.
type ContentPart struct {
	// Type is the type of content: "text", "image_url", "file".
	Type ContentType `json:"type"`
	// Text is the text content.
	Text *string `json:"text,omitempty"`
	// Image is the image data.
	Image *Image `json:"image_url,omitempty"`
	// File is the file data.
	File *File `json:"file,omitempty"`
}

// Image represents an image reference for vision models.
type Image struct {
	// URL is the URL of the image.
	URL string `json:"url"`
	// Detail is the detail level: "low", "high", "auto".
	Detail string `json:"detail,omitempty"`
}

// File represents file content for file input models.
type File struct {
	// Filename is the name of the file.
	Filename string `json:"filename,omitempty"`
	// FileData is the base64 encoded file data. Pick one from FileData or FileID.
	FileData string `json:"file_data,omitempty"`
	// FileID is the ID of an uploaded file to use as input.
	FileID string `json:"file_id,omitempty"`
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewToolMessage creates a new tool message.
func NewToolMessage(toolID, toolName, content string) Message {
	return Message{
		Role:     RoleTool,
		ToolID:   toolID,
		ToolName: toolName,
		Content:  content,
	}
}

// NewTextContentPart creates a new text content part.
func NewTextContentPart(text string) ContentPart {
	return ContentPart{Type: ContentTypeText, Text: &text}
}

// NewImageContentPart creates a new image content part.
func NewImageContentPart(url, detail string) ContentPart {
	return ContentPart{Type: ContentTypeImage, Image: &Image{URL: url, Detail: detail}}
}

// NewFileContentPart creates a new file content part using file data.
func NewFileContentPart(filename, data string) ContentPart {
	return ContentPart{Type: ContentTypeFile, File: &File{Filename: filename, FileData: data}}
}

// ToolChoice controls how the model selects tools during function calling.
type ToolChoice string

// Tool choice constants.
const (
	// ToolChoiceAuto lets the model decide whether to call tools.
	ToolChoiceAuto ToolChoice = "auto"
	// ToolChoiceNone forbids tool calls, forcing a plain text response.
	ToolChoiceNone ToolChoice = "none"
	// ToolChoiceRequired forces the model to call at least one tool.
	ToolChoiceRequired ToolChoice = "required"
)

// GenerationConfig contains configuration for text generation.
type GenerationConfig struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens *int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0 to 2.0).
	Temperature *float64 `json:"temperature,omitempty"`

	// TopP controls nucleus sampling (0.0 to 1.0).
	TopP *float64 `json:"top_p,omitempty"`

	// Stream indicates whether to stream the response.
	Stream bool `json:"stream"`

	// Stop sequences where the API will stop generating further tokens.
	Stop []string `json:"stop,omitempty"`

	// PresencePenalty penalizes new tokens based on their existing frequency.
	PresencePenalty *float64 `json:"presence_penalty,omitempty"`

	// FrequencyPenalty penalizes new tokens based on their frequency so far.
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
}

// Request is the request to the model.
type Request struct {
	// Messages is the conversation history.
	Messages []Message `json:"messages"`

	// GenerationConfig contains the generation parameters.
	GenerationConfig `json:",inline"`

	// Tools are the functions exposed to the model. Not serialized, handled separately.
	Tools map[string]tool.Tool `json:"-"`

	// ToolChoice controls tool selection; empty means provider default.
	ToolChoice ToolChoice `json:"tool_choice,omitempty"`

	// StructuredOutputTool, when set, is appended to Tools and compels the model
	// to produce a schema-shaped final answer through a synthetic function call.
	StructuredOutputTool *tool.Declaration `json:"-"`
}

// ToolCall represents a call to a tool (function) in the model response.
type ToolCall struct {
	// Type of the tool. Currently, only `function` is supported.
	Type string `json:"type"`
	// Function definition for the tool.
	Function FunctionDefinitionParam `json:"function,omitempty"`
	// The ID of the tool call returned by the model.
	ID string `json:"id,omitempty"`
	// Index is the index of the tool call in the message for streaming responses.
	Index *int `json:"index,omitempty"`
}

// FunctionDefinitionParam represents the parameters for a function definition in tool calls.
type FunctionDefinitionParam struct {
	// The name of the function to be called.
	Name string `json:"name"`
	// A description of what the function does.
	Description string `json:"description,omitempty"`
	// Optional arguments to pass to the function, json-encoded.
	Arguments []byte `json:"arguments,omitempty"`
}
