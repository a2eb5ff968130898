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
	"fmt"
	"regexp"
	"strconv"
)

// placeholderRe matches {name} template placeholders. Double braces escape a
// literal brace.
var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// fillTemplate substitutes {name} placeholders from the inputs and ctx, with
// inputs taking precedence. Unresolved placeholders are collected into one
// MissingKeyPromptTemplateError.
func fillTemplate(template string, inputs, ctx map[string]any) (string, error) {
	var missing []string
	var renderErr error
	out := placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		if renderErr != nil {
			return match
		}
		key := match[1 : len(match)-1]
		value, ok := inputs[key]
		if !ok {
			value, ok = ctx[key]
		}
		if !ok {
			missing = append(missing, key)
			return match
		}
		rendered, err := renderValue(value)
		if err != nil {
			renderErr = &KeyTypePromptTemplateError{Key: key, Cause: err}
			return match
		}
		return rendered
	})
	if renderErr != nil {
		return "", renderErr
	}
	if len(missing) > 0 {
		return "", &MissingKeyPromptTemplateError{Keys: missing}
	}
	return out, nil
}

// renderValue lowers a template value to text. Scalars render directly;
// anything else renders as JSON.
func renderValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case nil:
		return "", fmt.Errorf("value is nil")
	default:
		bts, err := json.Marshal(value)
		if err != nil {
			return "", err
		}
		return string(bts), nil
	}
}
