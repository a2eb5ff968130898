//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedTool string

func (n namedTool) Declaration() *Declaration {
	return &Declaration{Name: string(n)}
}

type fixedSet struct {
	name     string
	tools    []Tool
	closeErr error
	closed   bool
}

func (s *fixedSet) Tools(context.Context) []Tool { return s.tools }
func (s *fixedSet) Close() error                 { s.closed = true; return s.closeErr }
func (s *fixedSet) Name() string                 { return s.name }

func setOf(names ...string) *fixedSet {
	s := &fixedSet{name: "set"}
	for _, n := range names {
		s.tools = append(s.tools, namedTool(n))
	}
	return s
}

func toolNames(tools []Tool) []string {
	var out []string
	for _, t := range tools {
		out = append(out, t.Declaration().Name)
	}
	return out
}

func TestFilterTools(t *testing.T) {
	ctx := context.Background()

	t.Run("include keeps only the named tools", func(t *testing.T) {
		filtered := FilterTools(setOf("a", "b", "c"), IncludeNames("a", "c"))
		assert.Equal(t, []string{"a", "c"}, toolNames(filtered.Tools(ctx)))
	})

	t.Run("exclude drops the named tools", func(t *testing.T) {
		filtered := FilterTools(setOf("a", "b", "c"), ExcludeNames("b"))
		assert.Equal(t, []string{"a", "c"}, toolNames(filtered.Tools(ctx)))
	})

	t.Run("nil filter passes everything through", func(t *testing.T) {
		filtered := FilterTools(setOf("a", "b"), nil)
		assert.Equal(t, []string{"a", "b"}, toolNames(filtered.Tools(ctx)))
	})

	t.Run("close and name delegate to the wrapped set", func(t *testing.T) {
		closeErr := errors.New("session gone")
		inner := setOf("a")
		inner.closeErr = closeErr
		filtered := FilterTools(inner, IncludeNames("a"))

		assert.Equal(t, "set", filtered.Name())
		require.ErrorIs(t, filtered.Close(), closeErr)
		assert.True(t, inner.closed)
	})
}
