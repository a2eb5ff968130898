//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateJSON(t *testing.T) {
	doc := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"answer":     map[string]any{"type": "string"},
			"confidence": map[string]any{"type": "number"},
		},
		"required": []any{"answer"},
	}

	require.NoError(t, ValidateJSON(doc, map[string]any{"answer": "42", "confidence": 0.9}))

	err := ValidateJSON(doc, map[string]any{"confidence": 0.9})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match schema")

	err = ValidateJSON(doc, map[string]any{"answer": 42})
	require.Error(t, err)
}

func TestValidateJSONBadSchema(t *testing.T) {
	err := ValidateJSON(map[string]any{"type": 12}, map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schema document")
}
