//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package function

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-flowgraph-go/tool"
)

type sumArgs struct {
	A int `json:"a" description:"first addend"`
	B int `json:"b"`
}

type sumResult struct {
	Total int `json:"total"`
}

func sum(_ context.Context, in sumArgs) (sumResult, error) {
	return sumResult{Total: in.A + in.B}, nil
}

func TestFunctionToolCall(t *testing.T) {
	ft := NewFunctionTool(sum, WithName("sum"), WithDescription("Adds two integers."))

	result, err := ft.Call(context.Background(), []byte(`{"a":2,"b":3}`))
	require.NoError(t, err)
	assert.Equal(t, sumResult{Total: 5}, result)

	t.Run("empty arguments use zero values", func(t *testing.T) {
		result, err := ft.Call(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, sumResult{}, result)
	})

	t.Run("malformed arguments fail", func(t *testing.T) {
		_, err := ft.Call(context.Background(), []byte(`{"a":`))
		require.Error(t, err)
	})
}

func TestFunctionToolDeclaration(t *testing.T) {
	ft := NewFunctionTool(sum, WithName("sum"), WithDescription("Adds two integers."))
	declaration := ft.Declaration()

	assert.Equal(t, "sum", declaration.Name)
	assert.Equal(t, "Adds two integers.", declaration.Description)

	require.NotNil(t, declaration.InputSchema)
	assert.Equal(t, "object", declaration.InputSchema.Type)
	require.Contains(t, declaration.InputSchema.Properties, "a")
	assert.Equal(t, "integer", declaration.InputSchema.Properties["a"].Type)
	assert.Equal(t, "first addend", declaration.InputSchema.Properties["a"].Description)
	assert.ElementsMatch(t, []string{"a", "b"}, declaration.InputSchema.Required)

	require.NotNil(t, declaration.OutputSchema)
	assert.Contains(t, declaration.OutputSchema.Properties, "total")

	t.Run("custom schema overrides reflection", func(t *testing.T) {
		custom := &tool.Schema{Type: "object", Properties: map[string]*tool.Schema{
			"expr": {Type: "string"},
		}}
		ft := NewFunctionTool(sum, WithName("sum"), WithDescription("d"),
			WithInputSchema(custom))
		assert.Same(t, custom, ft.Declaration().InputSchema)
	})
}
