//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

// Package openai provides the completion service over any OpenAI-compatible
// chat completions API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"trpc.group/trpc-go/trpc-flowgraph-go/model"
	"trpc.group/trpc-go/trpc-flowgraph-go/tool"
)

// Model is an OpenAI-compatible chat completion backend.
type Model struct {
	client            openai.Client
	name              string
	channelBufferSize int
	extraFields       map[string]any
}

var _ model.Model = (*Model)(nil)

// New creates a model speaking the chat completions API under the given
// model name.
func New(name string, opts ...Option) *Model {
	o := defaultOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.apiKey == "" {
		o.apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if o.baseURL == "" {
		o.baseURL = os.Getenv("OPENAI_BASE_URL")
	}

	var clientOpts []openaiopt.RequestOption
	if o.apiKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(o.apiKey))
	}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(o.baseURL))
	}
	clientOpts = append(clientOpts, o.openaiOptions...)

	return &Model{
		client:            openai.NewClient(clientOpts...),
		name:              name,
		channelBufferSize: o.channelBufferSize,
		extraFields:       o.extraFields,
	}
}

// Info implements the model.Model interface.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.name}
}

// GenerateContent implements the model.Model interface.
func (m *Model) GenerateContent(
	ctx context.Context,
	request *model.Request,
) (<-chan *model.Response, error) {
	if request == nil {
		return nil, errors.New("request cannot be nil")
	}
	responseChan := make(chan *model.Response, m.channelBufferSize)
	chatRequest, opts := m.buildChatRequest(request)

	go func() {
		defer close(responseChan)
		if request.Stream {
			m.handleStreamingResponse(ctx, chatRequest, responseChan, opts...)
		} else {
			m.handleNonStreamingResponse(ctx, chatRequest, responseChan, opts...)
		}
	}()
	return responseChan, nil
}

func (m *Model) buildChatRequest(request *model.Request) (openai.ChatCompletionNewParams, []openaiopt.RequestOption) {
	chatRequest := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(m.name),
		Messages: m.convertMessages(request.Messages),
		Tools:    m.convertTools(request),
	}
	switch request.ToolChoice {
	case model.ToolChoiceAuto, model.ToolChoiceNone, model.ToolChoiceRequired:
		chatRequest.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(string(request.ToolChoice)),
		}
	}
	if request.MaxTokens != nil {
		chatRequest.MaxCompletionTokens = openai.Int(int64(*request.MaxTokens))
	}
	if request.Temperature != nil {
		chatRequest.Temperature = openai.Float(*request.Temperature)
	}
	if request.TopP != nil {
		chatRequest.TopP = openai.Float(*request.TopP)
	}
	if len(request.Stop) > 0 {
		chatRequest.Stop = openai.ChatCompletionNewParamsStopUnion{
			OfString: openai.String(request.Stop[0]),
		}
	}
	if request.PresencePenalty != nil {
		chatRequest.PresencePenalty = openai.Float(*request.PresencePenalty)
	}
	if request.FrequencyPenalty != nil {
		chatRequest.FrequencyPenalty = openai.Float(*request.FrequencyPenalty)
	}
	var opts []openaiopt.RequestOption
	for key, value := range m.extraFields {
		opts = append(opts, openaiopt.WithJSONSet(key, value))
	}
	if request.Stream {
		chatRequest.StreamOptions = openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		}
	}
	return chatRequest, opts
}

func (m *Model) convertMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			})
		case model.RoleAssistant:
			assistantMsg := &openai.ChatCompletionAssistantMessageParam{}
			if msg.Content != "" {
				assistantMsg.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(msg.Content),
				}
			}
			assistantMsg.ToolCalls = m.convertToolCalls(msg.ToolCalls)
			result = append(result, openai.ChatCompletionMessageParamUnion{OfAssistant: assistantMsg})
		case model.RoleTool:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfTool: &openai.ChatCompletionToolMessageParam{
					Content: openai.ChatCompletionToolMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
					ToolCallID: msg.ToolID,
				},
			})
		default:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: m.convertUserContent(msg),
				},
			})
		}
	}
	return result
}

func (m *Model) convertUserContent(msg model.Message) openai.ChatCompletionUserMessageParamContentUnion {
	if len(msg.ContentParts) == 0 {
		return openai.ChatCompletionUserMessageParamContentUnion{
			OfString: openai.String(msg.Content),
		}
	}
	var parts []openai.ChatCompletionContentPartUnionParam
	if msg.Content != "" {
		parts = append(parts, openai.ChatCompletionContentPartUnionParam{
			OfText: &openai.ChatCompletionContentPartTextParam{Text: msg.Content},
		})
	}
	for _, part := range msg.ContentParts {
		switch part.Type {
		case model.ContentTypeText:
			if part.Text != nil {
				parts = append(parts, openai.ChatCompletionContentPartUnionParam{
					OfText: &openai.ChatCompletionContentPartTextParam{Text: *part.Text},
				})
			}
		case model.ContentTypeImage:
			if part.Image != nil {
				parts = append(parts, openai.ChatCompletionContentPartUnionParam{
					OfImageURL: &openai.ChatCompletionContentPartImageParam{
						ImageURL: openai.ChatCompletionContentPartImageImageURLParam{
							URL:    part.Image.URL,
							Detail: part.Image.Detail,
						},
					},
				})
			}
		case model.ContentTypeFile:
			if part.File != nil {
				parts = append(parts, openai.ChatCompletionContentPartUnionParam{
					OfFile: &openai.ChatCompletionContentPartFileParam{
						File: openai.ChatCompletionContentPartFileFileParam{
							FileID:   openai.String(part.File.FileID),
							FileData: openai.String(part.File.FileData),
							Filename: openai.String(part.File.Filename),
						},
					},
				})
			}
		}
	}
	return openai.ChatCompletionUserMessageParamContentUnion{OfArrayOfContentParts: parts}
}

func (m *Model) convertToolCalls(toolCalls []model.ToolCall) []openai.ChatCompletionMessageToolCallParam {
	var result []openai.ChatCompletionMessageToolCallParam
	for _, tc := range toolCalls {
		result = append(result, openai.ChatCompletionMessageToolCallParam{
			ID: tc.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      tc.Function.Name,
				Arguments: string(tc.Function.Arguments),
			},
		})
	}
	return result
}

// convertTools lowers the registry declarations, plus the synthetic
// structured-output tool when set, into function-calling parameters.
func (m *Model) convertTools(request *model.Request) []openai.ChatCompletionToolParam {
	var result []openai.ChatCompletionToolParam
	add := func(declaration *tool.Declaration) {
		schemaMap := make(map[string]any)
		if declaration.InputSchema != nil {
			if bts, err := json.Marshal(declaration.InputSchema); err == nil {
				_ = json.Unmarshal(bts, &schemaMap)
			}
		}
		result = append(result, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        declaration.Name,
				Description: openai.String(declaration.Description),
				Parameters:  schemaMap,
			},
		})
	}
	for _, t := range request.Tools {
		if declaration := t.Declaration(); declaration != nil {
			add(declaration)
		}
	}
	if request.StructuredOutputTool != nil {
		add(request.StructuredOutputTool)
	}
	return result
}

func (m *Model) handleNonStreamingResponse(
	ctx context.Context,
	chatRequest openai.ChatCompletionNewParams,
	responseChan chan<- *model.Response,
	opts ...openaiopt.RequestOption,
) {
	chatCompletion, err := m.client.Chat.Completions.New(ctx, chatRequest, opts...)
	if err != nil {
		sendResponse(ctx, responseChan, &model.Response{
			Error: &model.ResponseError{Message: err.Error(), Type: model.ErrorTypeAPIError},
			Done:  true,
		})
		return
	}
	sendResponse(ctx, responseChan, completionToResponse(chatCompletion))
}

func (m *Model) handleStreamingResponse(
	ctx context.Context,
	chatRequest openai.ChatCompletionNewParams,
	responseChan chan<- *model.Response,
	opts ...openaiopt.RequestOption,
) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, chatRequest, opts...)
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		partial := &model.Response{
			ID:      chunk.ID,
			Object:  string(chunk.Object),
			Created: chunk.Created,
			Model:   chunk.Model,
			Choices: []model.Choice{{
				Index: int(chunk.Choices[0].Index),
				Delta: model.Message{
					Role:    model.RoleAssistant,
					Content: chunk.Choices[0].Delta.Content,
				},
			}},
		}
		if !sendResponse(ctx, responseChan, partial) {
			return
		}
	}
	if err := stream.Err(); err != nil {
		sendResponse(ctx, responseChan, &model.Response{
			Error: &model.ResponseError{Message: err.Error(), Type: model.ErrorTypeStreamError},
			Done:  true,
		})
		return
	}
	sendResponse(ctx, responseChan, completionToResponse(&acc.ChatCompletion))
}

func completionToResponse(cc *openai.ChatCompletion) *model.Response {
	response := &model.Response{
		ID:      cc.ID,
		Object:  string(cc.Object),
		Created: cc.Created,
		Model:   cc.Model,
		Done:    true,
	}
	response.Choices = make([]model.Choice, len(cc.Choices))
	for i, choice := range cc.Choices {
		msg := model.Message{
			Role:    model.RoleAssistant,
			Content: choice.Message.Content,
		}
		for j, tc := range choice.Message.ToolCalls {
			id := tc.ID
			if id == "" {
				// Some providers omit call ids.
				id = fmt.Sprintf("auto_call_%d", j)
			}
			msg.ToolCalls = append(msg.ToolCalls, model.ToolCall{
				ID:   id,
				Type: string(tc.Type),
				Function: model.FunctionDefinitionParam{
					Name:      tc.Function.Name,
					Arguments: []byte(tc.Function.Arguments),
				},
			})
		}
		response.Choices[i] = model.Choice{Index: int(choice.Index), Message: msg}
		if choice.FinishReason != "" {
			reason := choice.FinishReason
			response.Choices[i].FinishReason = &reason
		}
	}
	if cc.Usage.PromptTokens > 0 || cc.Usage.CompletionTokens > 0 {
		response.Usage = &model.Usage{
			PromptTokens:     int(cc.Usage.PromptTokens),
			CompletionTokens: int(cc.Usage.CompletionTokens),
			TotalTokens:      int(cc.Usage.TotalTokens),
		}
	}
	return response
}

func sendResponse(ctx context.Context, ch chan<- *model.Response, rsp *model.Response) bool {
	select {
	case ch <- rsp:
		return true
	case <-ctx.Done():
		return false
	}
}
