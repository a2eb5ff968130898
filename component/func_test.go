//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package component

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-flowgraph-go/schema"
)

func TestFuncCanonicalPorts(t *testing.T) {
	echo := func(_ context.Context, in *NodeData) (*NodeData, error) { return in, nil }

	t.Run("sole field fallback", func(t *testing.T) {
		f := NewFunc("f", echo,
			WithInputs(schema.NewStructured().AddField("text", schema.Field{Type: schema.String()})),
			WithOutputs(schema.NewStructured().AddField("result", schema.Field{Type: schema.String()})))
		assert.Equal(t, Ports{Input: "text", Output: "result"}, f.CanonicalPorts())
	})

	t.Run("explicit ports win", func(t *testing.T) {
		f := NewFunc("f", echo, WithCanonicalPorts("in", "out"))
		assert.Equal(t, Ports{Input: "in", Output: "out"}, f.CanonicalPorts())
	})

	t.Run("ambiguous schema yields no port", func(t *testing.T) {
		inputs := schema.NewStructured().
			AddField("a", schema.Field{Type: schema.String()}).
			AddField("b", schema.Field{Type: schema.String()})
		f := NewFunc("f", echo, WithInputs(inputs))
		assert.Equal(t, Ports{}, f.CanonicalPorts())
	})
}

func TestToolSchema(t *testing.T) {
	t.Run("tool-input flags restrict the exposure", func(t *testing.T) {
		st := schema.NewStructured().
			AddField("query", schema.Field{Type: schema.String(), Required: true, IsToolInput: true}).
			AddField("internal", schema.Field{Type: schema.Map()})
		s := ToolSchema(st)
		assert.Equal(t, "object", s.Type)
		assert.Contains(t, s.Properties, "query")
		assert.NotContains(t, s.Properties, "internal")
		assert.Equal(t, []string{"query"}, s.Required)
	})

	t.Run("no flags exposes wireable fields", func(t *testing.T) {
		st := schema.NewStructured().
			AddField("n", schema.Field{Type: schema.Int()}).
			AddField("hidden", schema.Field{Type: schema.String(), DisabledAsInput: true})
		s := ToolSchema(st)
		assert.Contains(t, s.Properties, "n")
		assert.Equal(t, "integer", s.Properties["n"].Type)
		assert.NotContains(t, s.Properties, "hidden")
	})

	t.Run("defaulted required fields are not required on the wire", func(t *testing.T) {
		st := schema.NewStructured().
			AddField("mode", schema.Field{Type: schema.String(), Required: true, Default: "fast"})
		s := ToolSchema(st)
		assert.Empty(t, s.Required)
	})

	t.Run("declaration from func", func(t *testing.T) {
		f := NewFunc("search", func(_ context.Context, in *NodeData) (*NodeData, error) { return in, nil },
			WithDescription("finds things"),
			WithInputs(schema.NewStructured().AddField("q", schema.Field{Type: schema.String(), IsToolInput: true})))
		decls := f.ToolDescriptions()
		require.Len(t, decls, 1)
		assert.Equal(t, "search", decls[0].Name)
		assert.Equal(t, "finds things", decls[0].Description)
		assert.Contains(t, decls[0].InputSchema.Properties, "q")
	})
}
