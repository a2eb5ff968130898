//
// Tencent is pleased to support the open source community by making trpc-flowgraph-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-flowgraph-go is licensed under the Apache License Version 2.0.
//
//

// Package tool holds schema-generation helpers shared by the tool implementations.
package tool

import (
	"reflect"
	"strings"

	"trpc.group/trpc-go/trpc-flowgraph-go/tool"
)

// GenerateJSONSchema derives a JSON schema from a Go type via reflection.
// Struct fields use their json tags for naming; fields without omitempty are
// required. Unknown kinds degrade to an empty schema.
func GenerateJSONSchema(t reflect.Type) *tool.Schema {
	if t == nil {
		return &tool.Schema{}
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return &tool.Schema{Type: "string"}
	case reflect.Bool:
		return &tool.Schema{Type: "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &tool.Schema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &tool.Schema{Type: "number"}
	case reflect.Slice, reflect.Array:
		return &tool.Schema{Type: "array", Items: GenerateJSONSchema(t.Elem())}
	case reflect.Map:
		return &tool.Schema{Type: "object"}
	case reflect.Struct:
		return generateStructSchema(t)
	case reflect.Interface:
		return &tool.Schema{}
	default:
		return &tool.Schema{}
	}
}

func generateStructSchema(t reflect.Type) *tool.Schema {
	schema := &tool.Schema{
		Type:       "object",
		Properties: make(map[string]*tool.Schema),
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitempty, skip := parseJSONTag(field)
		if skip {
			continue
		}
		prop := GenerateJSONSchema(field.Type)
		if desc := field.Tag.Get("description"); desc != "" {
			prop.Description = desc
		}
		schema.Properties[name] = prop
		if !omitempty {
			schema.Required = append(schema.Required, name)
		}
	}
	return schema
}

func parseJSONTag(field reflect.StructField) (name string, omitempty, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name = field.Name
	if tag != "" {
		parts := strings.Split(tag, ",")
		if parts[0] != "" {
			name = parts[0]
		}
		for _, p := range parts[1:] {
			if p == "omitempty" {
				omitempty = true
			}
		}
	}
	return name, omitempty, false
}
