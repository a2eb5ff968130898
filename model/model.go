//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

// Package model defines the completion-service abstraction the engine consumes.
// Concrete providers live in subpackages (e.g. model/openai).
package model

import "context"

// Info describes a model implementation.
type Info struct {
	// Name is the model name, e.g. "gpt-4o-mini".
	Name string
}

// Model is the completion service consumed by the engine. A single
// GenerateContent entry point covers plain completion, function calling and
// structured completion: tools, tool choice and the structured output tool
// ride on the Request. Provider errors surface either as an error return or
// as Response.Error on the final chunk.
type Model interface {
	// GenerateContent generates content based on the request.
	// The returned channel yields one or more responses; the final response
	// of a stream has Done set.
	GenerateContent(ctx context.Context, request *Request) (<-chan *Response, error)

	// Info returns basic information about the model.
	Info() Info
}

// Embedder is the optional embedding capability of a completion service.
type Embedder interface {
	// Embed returns one embedding vector per input text.
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// VisionModel is the optional image-understanding capability.
type VisionModel interface {
	// Vision analyzes images with an optional prompt and JSON schema for the
	// shape of the answer.
	Vision(ctx context.Context, images [][]byte, prompt string, schema map[string]any) (string, error)
}

// OCRModel is the optional text-extraction capability.
type OCRModel interface {
	// OCR extracts text from the given document bytes.
	OCR(ctx context.Context, document []byte) (string, error)
}

// WebSearcher is the optional web-search capability.
type WebSearcher interface {
	// WebSearch runs a search query, optionally restricted to the given domains.
	WebSearch(ctx context.Context, query string, allowedDomains []string) (string, error)
}
