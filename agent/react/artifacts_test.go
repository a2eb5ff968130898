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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeArtifacts(t *testing.T) {
	acc := map[string]any{
		"sources": []any{"s1"},
		"note":    "old",
	}
	mergeArtifacts(acc, map[string]any{
		"sources": []any{"s2", "s3"},
		"images":  []any{"i1"},
		"note":    "new",
	})
	assert.Equal(t, []any{"s1", "s2", "s3"}, acc["sources"])
	assert.Equal(t, []any{"i1"}, acc["images"])
	assert.Equal(t, "new", acc["note"])

	// Scalar list values promote to one-element lists.
	mergeArtifacts(acc, map[string]any{"images": "i2"})
	assert.Equal(t, []any{"i1", "i2"}, acc["images"])
}

func TestRenumberCitations(t *testing.T) {
	sources := []any{"alpha", "beta", "gamma"}

	t.Run("first appearance ordering", func(t *testing.T) {
		content := "See [3] and then [1], and [3] again."
		out, ordered := renumberCitations(content, sources)
		assert.Equal(t, "See [1] and then [2], and [1] again.", out)
		assert.Equal(t, []any{"gamma", "alpha"}, ordered)
	})

	t.Run("out of range markers untouched", func(t *testing.T) {
		out, ordered := renumberCitations("Only [7] here and [2].", sources)
		assert.Equal(t, "Only [7] here and [1].", out)
		assert.Equal(t, []any{"beta"}, ordered)
	})

	t.Run("no markers", func(t *testing.T) {
		out, ordered := renumberCitations("no citations", sources)
		assert.Equal(t, "no citations", out)
		assert.Equal(t, sources, ordered)
	})

	t.Run("empty sources", func(t *testing.T) {
		out, ordered := renumberCitations("see [1]", nil)
		assert.Equal(t, "see [1]", out)
		assert.Nil(t, ordered)
	})
}

func TestMineImages(t *testing.T) {
	images := mineImages(`{"text": "done", "images": ["a.png", "b.png"]}`)
	require.Len(t, images, 2)
	assert.Equal(t, "a.png", images[0])

	assert.Nil(t, mineImages("plain text answer"))
	assert.Nil(t, mineImages(`{"no_images": true}`))
}
