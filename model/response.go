//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package model

// Response is the response from the model.
type Response struct {
	// ID is a unique identifier of the completion.
	ID string `json:"id,omitempty"`
	// Object is the object type, e.g. "chat.completion".
	Object string `json:"object,omitempty"`
	// Created is the unix timestamp of when the completion was created.
	Created int64 `json:"created,omitempty"`
	// Model is the model used for the completion.
	Model string `json:"model,omitempty"`
	// Choices is the list of completion choices.
	Choices []Choice `json:"choices,omitempty"`
	// Usage is the token usage of the completion.
	Usage *Usage `json:"usage,omitempty"`
	// Error carries a provider error, if any.
	Error *ResponseError `json:"error,omitempty"`
	// Done indicates the final chunk of a streaming response.
	Done bool `json:"done,omitempty"`
}

// Choice is one completion choice.
type Choice struct {
	// Index of the choice.
	Index int `json:"index"`
	// Message is the complete message for non-streaming responses.
	Message Message `json:"message,omitempty"`
	// Delta is the incremental message content for streaming responses.
	Delta Message `json:"delta,omitempty"`
	// FinishReason is the reason generation stopped.
	FinishReason *string `json:"finish_reason,omitempty"`
}

// Usage represents token usage of a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ResponseError is an error returned by a provider.
type ResponseError struct {
	// Message is the human-readable error message.
	Message string `json:"message"`
	// Type classifies the error.
	Type string `json:"type,omitempty"`
	// Code is the provider error code, if any.
	Code string `json:"code,omitempty"`
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	return e.Message
}

// Error type constants for responses.
const (
	ErrorTypeAPIError    = "api_error"
	ErrorTypeStreamError = "stream_error"
)

// ToolCalls returns the tool calls of the first choice, if any.
func (r *Response) ToolCalls() []ToolCall {
	if r == nil || len(r.Choices) == 0 {
		return nil
	}
	return r.Choices[0].Message.ToolCalls
}

// Content returns the text content of the first choice, if any.
func (r *Response) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}
