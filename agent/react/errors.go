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
	"strings"
)

// MissingKeyPromptTemplateError reports placeholders in the system prompt
// template with no value in the inputs or ctx.
type MissingKeyPromptTemplateError struct {
	// Keys are the unresolved placeholder names.
	Keys []string
}

// Error implements the error interface.
func (e *MissingKeyPromptTemplateError) Error() string {
	return fmt.Sprintf("prompt template is missing values for keys: %s", strings.Join(e.Keys, ", "))
}

// KeyTypePromptTemplateError reports a template value that could not be
// rendered as text.
type KeyTypePromptTemplateError struct {
	// Key is the placeholder name.
	Key string
	// Cause is the rendering failure.
	Cause error
}

// Error implements the error interface.
func (e *KeyTypePromptTemplateError) Error() string {
	return fmt.Sprintf("prompt template value for key %q cannot be rendered: %v", e.Key, e.Cause)
}

// Unwrap exposes the rendering failure.
func (e *KeyTypePromptTemplateError) Unwrap() error { return e.Cause }
