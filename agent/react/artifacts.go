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
	"regexp"
	"strconv"
)

// Artifact keys with merge semantics.
const (
	artifactSources = "sources"
	artifactImages  = "images"
)

// mergeArtifacts folds a child's artifacts into the accumulated set. The
// sources and images lists concatenate; any other key overwrites.
func mergeArtifacts(acc, incoming map[string]any) {
	for key, value := range incoming {
		switch key {
		case artifactSources, artifactImages:
			existing, _ := acc[key].([]any)
			added, ok := value.([]any)
			if !ok {
				if value != nil {
					added = []any{value}
				}
			}
			acc[key] = append(existing, added...)
		default:
			acc[key] = value
		}
	}
}

// citationRe matches [n] citation markers.
var citationRe = regexp.MustCompile(`\[(\d+)\]`)

// renumberCitations rewrites [n] markers so they number 1..k in order of
// first appearance, and reorders the sources list to match. Markers pointing
// outside the list are left untouched.
func renumberCitations(content string, sources []any) (string, []any) {
	if len(sources) == 0 {
		return content, sources
	}
	oldToNew := make(map[int]int)
	var orderedSources []any
	out := citationRe.ReplaceAllStringFunc(content, func(match string) string {
		old, err := strconv.Atoi(match[1 : len(match)-1])
		if err != nil || old < 1 || old > len(sources) {
			return match
		}
		renumbered, ok := oldToNew[old]
		if !ok {
			orderedSources = append(orderedSources, sources[old-1])
			renumbered = len(orderedSources)
			oldToNew[old] = renumbered
		}
		return "[" + strconv.Itoa(renumbered) + "]"
	})
	if len(orderedSources) == 0 {
		return content, sources
	}
	return out, orderedSources
}

// mineImages extracts an images list from a JSON-shaped final message, so
// providers that inline image artifacts surface them alongside the text.
func mineImages(content string) []any {
	var decoded map[string]any
	if err := json.Unmarshal([]byte(content), &decoded); err != nil {
		return nil
	}
	images, _ := decoded[artifactImages].([]any)
	return images
}
