//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

// Package jsonx parses JSON produced by LLMs, tolerating the usual defects:
// markdown code fences, trailing commas and single-quoted strings.
package jsonx

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// Unmarshal parses data into v. It first tries strict JSON and falls back to
// a repaired form of the input.
func Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err == nil {
		return nil
	}
	repaired := Repair(string(data))
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("malformed JSON input: %w", err)
	}
	return nil
}

// Repair rewrites common LLM JSON defects into strict JSON. The output is
// best-effort; callers must still handle an unmarshal failure.
func Repair(s string) string {
	s = stripCodeFence(s)
	s = rewrite(s)
	return strings.TrimSpace(s)
}

// stripCodeFence removes a surrounding markdown code block, if present.
func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s
	}
	t = strings.TrimPrefix(t, "```")
	// Drop an optional language tag such as "json".
	if idx := strings.IndexByte(t, '\n'); idx >= 0 {
		first := strings.TrimSpace(t[:idx])
		if first == "" || isIdent(first) {
			t = t[idx+1:]
		}
	}
	t = strings.TrimSpace(t)
	t = strings.TrimSuffix(t, "```")
	return t
}

func isIdent(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}

// rewrite walks the input once, converting single-quoted strings to
// double-quoted ones and dropping trailing commas before ] or }.
func rewrite(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	runes := []rune(s)
	inString := false
	var quote rune
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if inString {
			switch {
			case r == '\\' && i+1 < len(runes):
				out.WriteRune(r)
				i++
				out.WriteRune(runes[i])
			case r == quote:
				inString = false
				out.WriteRune('"')
			case r == '"' && quote == '\'':
				// A literal double quote inside a single-quoted string must be escaped.
				out.WriteString(`\"`)
			default:
				out.WriteRune(r)
			}
			continue
		}
		switch r {
		case '"', '\'':
			inString = true
			quote = r
			out.WriteRune('"')
		case ',':
			if next := nextNonSpace(runes, i+1); next == ']' || next == '}' {
				continue // trailing comma
			}
			out.WriteRune(r)
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}

func nextNonSpace(runes []rune, i int) rune {
	for ; i < len(runes); i++ {
		if !unicode.IsSpace(runes[i]) {
			return runes[i]
		}
	}
	return 0
}
