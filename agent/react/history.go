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
	"encoding/json"

	"trpc.group/trpc-go/trpc-flowgraph-go/model"
)

// truncateHistory keeps the first and last windows of a long conversation.
// If stitching the windows together would place two same-role messages next
// to each other, the first message of the tail window is dropped.
func truncateHistory(messages []model.Message, first, last int) []model.Message {
	if first < 0 {
		first = 0
	}
	if last < 0 {
		last = 0
	}
	if len(messages) <= first+last {
		return messages
	}
	head := messages[:first]
	tail := messages[len(messages)-last:]
	if len(head) > 0 && len(tail) > 0 && head[len(head)-1].Role == tail[0].Role {
		tail = tail[1:]
	}
	out := make([]model.Message, 0, len(head)+len(tail))
	out = append(out, head...)
	out = append(out, tail...)
	return out
}

// ensureSystemMessage inserts or replaces the leading system message. The
// caller's slice shares its backing array with the node input, so replacement
// happens on a copy.
func ensureSystemMessage(messages []model.Message, systemPrompt string) []model.Message {
	if systemPrompt == "" {
		return messages
	}
	if len(messages) > 0 && messages[0].Role == model.RoleSystem {
		out := append([]model.Message(nil), messages...)
		out[0] = model.NewSystemMessage(systemPrompt)
		return out
	}
	return append([]model.Message{model.NewSystemMessage(systemPrompt)}, messages...)
}

// asMessageHistory lowers the messages input field to a message slice. It
// accepts a typed slice, the decoded-JSON shape, a single message, or a bare
// string treated as one user turn.
func asMessageHistory(value any) ([]model.Message, bool) {
	switch v := value.(type) {
	case []model.Message:
		return v, true
	case model.Message:
		return []model.Message{v}, true
	case string:
		return []model.Message{model.NewUserMessage(v)}, true
	case []any, []map[string]any:
		bts, err := json.Marshal(v)
		if err != nil {
			return nil, false
		}
		var msgs []model.Message
		if err := json.Unmarshal(bts, &msgs); err != nil {
			return nil, false
		}
		return msgs, true
	default:
		return nil, false
	}
}
