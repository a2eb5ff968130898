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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-flowgraph-go/model"
)

func conversation(n int) []model.Message {
	msgs := make([]model.Message, 0, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			msgs = append(msgs, model.NewUserMessage(fmt.Sprintf("u%d", i)))
		} else {
			msgs = append(msgs, model.NewAssistantMessage(fmt.Sprintf("a%d", i)))
		}
	}
	return msgs
}

func TestTruncateHistory(t *testing.T) {
	t.Run("short history untouched", func(t *testing.T) {
		msgs := conversation(4)
		assert.Equal(t, msgs, truncateHistory(msgs, 1, 50))
	})

	t.Run("keeps first and last windows", func(t *testing.T) {
		msgs := conversation(10) // u0 a1 u2 ... u8 a9
		out := truncateHistory(msgs, 1, 3)
		require.Len(t, out, 4)
		assert.Equal(t, "u0", out[0].Content)
		assert.Equal(t, "a7", out[1].Content)
		assert.Equal(t, "a9", out[len(out)-1].Content)
	})

	t.Run("drops tail head on same-role join", func(t *testing.T) {
		msgs := conversation(10)
		// first=1 keeps u0 (user); last=4 starts the tail at u6, colliding
		// with u0's role, so u6 is dropped.
		out := truncateHistory(msgs, 1, 4)
		require.Len(t, out, 4)
		assert.NotEqual(t, out[0].Role, out[1].Role)
		assert.Equal(t, "a7", out[1].Content)
	})

	t.Run("zero windows", func(t *testing.T) {
		msgs := conversation(6)
		out := truncateHistory(msgs, 0, 2)
		require.Len(t, out, 2)
		assert.Equal(t, "u4", out[0].Content)
	})
}

func TestEnsureSystemMessage(t *testing.T) {
	t.Run("prepends when absent", func(t *testing.T) {
		out := ensureSystemMessage([]model.Message{model.NewUserMessage("hi")}, "be nice")
		require.Len(t, out, 2)
		assert.Equal(t, model.RoleSystem, out[0].Role)
		assert.Equal(t, "be nice", out[0].Content)
	})

	t.Run("replaces existing", func(t *testing.T) {
		msgs := []model.Message{
			model.NewSystemMessage("old"),
			model.NewUserMessage("hi"),
		}
		out := ensureSystemMessage(msgs, "new")
		require.Len(t, out, 2)
		assert.Equal(t, "new", out[0].Content)
	})

	t.Run("empty prompt is a no-op", func(t *testing.T) {
		msgs := []model.Message{model.NewUserMessage("hi")}
		assert.Equal(t, msgs, ensureSystemMessage(msgs, ""))
	})

	t.Run("replacement leaves the caller's slice intact", func(t *testing.T) {
		msgs := []model.Message{
			model.NewSystemMessage("original system prompt"),
			model.NewUserMessage("hi"),
		}
		out := ensureSystemMessage(msgs, "agent prompt")
		assert.Equal(t, "agent prompt", out[0].Content)
		assert.Equal(t, "original system prompt", msgs[0].Content,
			"input history must not be mutated in place")
	})
}

func TestAsMessageHistory(t *testing.T) {
	t.Run("typed slice", func(t *testing.T) {
		msgs := conversation(2)
		out, ok := asMessageHistory(msgs)
		require.True(t, ok)
		assert.Equal(t, msgs, out)
	})

	t.Run("bare string becomes a user turn", func(t *testing.T) {
		out, ok := asMessageHistory("hello")
		require.True(t, ok)
		require.Len(t, out, 1)
		assert.Equal(t, model.RoleUser, out[0].Role)
		assert.Equal(t, "hello", out[0].Content)
	})

	t.Run("decoded JSON shape", func(t *testing.T) {
		raw := []any{
			map[string]any{"role": "user", "content": "q"},
			map[string]any{"role": "assistant", "content": "a"},
		}
		out, ok := asMessageHistory(raw)
		require.True(t, ok)
		require.Len(t, out, 2)
		assert.Equal(t, model.RoleAssistant, out[1].Role)
	})

	t.Run("unsupported shape", func(t *testing.T) {
		_, ok := asMessageHistory(42)
		assert.False(t, ok)
	})
}
