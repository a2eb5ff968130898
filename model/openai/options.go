//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package openai

import (
	openaiopt "github.com/openai/openai-go/option"
)

// options holds the configuration for the OpenAI-compatible model.
type options struct {
	apiKey            string
	baseURL           string
	channelBufferSize int
	extraFields       map[string]any
	openaiOptions     []openaiopt.RequestOption
}

var defaultOptions = options{
	channelBufferSize: 256,
}

// Option configures the model.
type Option func(*options)

// WithAPIKey sets the API key. Defaults to the OPENAI_API_KEY environment
// variable.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint. Defaults to
// the OPENAI_BASE_URL environment variable.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithChannelBufferSize sets the response channel buffer size.
func WithChannelBufferSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.channelBufferSize = size
		}
	}
}

// WithExtraFields injects provider-specific JSON fields into every request.
func WithExtraFields(fields map[string]any) Option {
	return func(o *options) { o.extraFields = fields }
}

// WithOpenAIOptions appends raw client options to the underlying SDK client.
func WithOpenAIOptions(opts ...openaiopt.RequestOption) Option {
	return func(o *options) { o.openaiOptions = append(o.openaiOptions, opts...) }
}
