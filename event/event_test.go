//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package event

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-flowgraph-go/component"
)

func TestNew(t *testing.T) {
	out := component.NewWithData(map[string]any{"text": "x"})
	ev := New("run-1", KindNodeCompleted,
		WithNode("a"),
		WithOutput(out),
		WithError(errors.New("boom")))

	require.NotEmpty(t, ev.ID)
	assert.Equal(t, "run-1", ev.RunID)
	assert.Equal(t, KindNodeCompleted, ev.Kind)
	assert.Equal(t, "a", ev.NodeID)
	assert.Same(t, out, ev.Output)
	assert.Equal(t, "boom", ev.Error)
	assert.Greater(t, ev.Timestamp, 0.0)

	other := New("run-1", KindGraphStarted)
	assert.NotEqual(t, ev.ID, other.ID)
	assert.Empty(t, other.NodeID)
}
