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
	"encoding/json"
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-flowgraph-go/internal/jsonx"
	"trpc.group/trpc-go/trpc-flowgraph-go/model"
)

// CoercionError reports a rejected or failed conversion across a port boundary.
type CoercionError struct {
	// Source is the declared source type.
	Source Type
	// Target is the declared target type.
	Target Type
	// Value is the offending value (nil for check-only failures).
	Value any
	// Component names the component whose port rejected the value, when known.
	Component string
	// Reason is the human-readable failure reason.
	Reason string
}

// Error implements the error interface.
func (e *CoercionError) Error() string {
	msg := fmt.Sprintf("cannot coerce %s to %s: %s", e.Source, e.Target, e.Reason)
	if e.Component != "" {
		msg = fmt.Sprintf("component %q: %s", e.Component, msg)
	}
	return msg
}

// truthyLiterals is the set of strings coerced to boolean true. Anything else
// lowers to false.
var truthyLiterals = map[string]bool{
	"true": true, "1": true, "yes": true, "y": true, "on": true,
}

// Check reports whether the matrix accepts a source→target conversion,
// without a concrete value. Used by the port-mapping resolver at build time.
func Check(source, target Type) error {
	if source.Kind == KindAny || target.Kind == KindAny {
		return nil
	}
	if source.Kind == target.Kind {
		return nil
	}
	ok := false
	switch target.Kind {
	case KindString:
		ok = source.Kind == KindMessages || source.Kind == KindInt || source.Kind == KindFloat
	case KindMessages:
		ok = source.Kind == KindString
	case KindMap:
		ok = source.Kind == KindRecord || source.Kind == KindString
	case KindRecord:
		ok = source.Kind == KindMap || source.Kind == KindString
	case KindFloat:
		ok = source.Kind == KindInt
	case KindBool:
		ok = source.Kind == KindString
	}
	if !ok {
		return &CoercionError{Source: source, Target: target, Reason: "no conversion in the coercion matrix"}
	}
	return nil
}

// Coerce converts value from the source type to the target type, or returns a
// *CoercionError. The matrix is deliberately small; see Check for the
// accepted pairs.
func Coerce(source, target Type, value any) (any, error) {
	if err := Check(source, target); err != nil {
		return nil, err
	}
	if target.Kind == KindAny {
		return value, nil
	}
	if source.Kind == KindAny {
		// An untyped source resolves against the runtime value.
		source = inferType(value)
		if err := Check(source, target); err != nil {
			return nil, err
		}
	}
	if source.Kind == target.Kind && source.Kind != KindRecord {
		return value, nil
	}

	switch target.Kind {
	case KindString:
		return coerceToString(source, target, value)
	case KindMessages:
		s, ok := value.(string)
		if !ok {
			return nil, reject(source, target, value, "expected a string")
		}
		return []model.Message{model.NewUserMessage(s)}, nil
	case KindMap:
		return coerceToMap(source, target, value)
	case KindRecord:
		return coerceToRecord(source, target, value)
	case KindFloat:
		return toFloat(source, target, value)
	case KindBool:
		s, ok := value.(string)
		if !ok {
			return nil, reject(source, target, value, "expected a string literal")
		}
		return truthyLiterals[strings.ToLower(strings.TrimSpace(s))], nil
	}
	return value, nil
}

func coerceToString(source, target Type, value any) (any, error) {
	switch source.Kind {
	case KindMessages:
		msgs, ok := asMessages(value)
		if !ok {
			return nil, reject(source, target, value, "expected a message sequence")
		}
		return messagesToString(msgs), nil
	case KindInt, KindFloat:
		return fmt.Sprintf("%v", value), nil
	default:
		s, ok := value.(string)
		if !ok {
			return nil, reject(source, target, value, "expected a string")
		}
		return s, nil
	}
}

// messagesToString concatenates the content of the last user-role message, or
// the final message's content if no user message exists.
func messagesToString(msgs []model.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == model.RoleUser {
			return msgs[i].Text()
		}
	}
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Text()
}

func asMessages(value any) ([]model.Message, bool) {
	switch v := value.(type) {
	case []model.Message:
		return v, true
	case model.Message:
		return []model.Message{v}, true
	default:
		return nil, false
	}
}

func coerceToMap(source, target Type, value any) (any, error) {
	switch v := value.(type) {
	case string:
		var out map[string]any
		if err := jsonx.Unmarshal([]byte(v), &out); err != nil {
			return nil, reject(source, target, value, err.Error())
		}
		return out, nil
	case map[string]any:
		return v, nil
	default:
		// Structured record values dump to a mapping through their JSON form.
		bts, err := json.Marshal(v)
		if err != nil {
			return nil, reject(source, target, value, "value is not serializable")
		}
		var out map[string]any
		if err := json.Unmarshal(bts, &out); err != nil {
			return nil, reject(source, target, value, "value does not dump to a mapping")
		}
		return out, nil
	}
}

func coerceToRecord(source, target Type, value any) (any, error) {
	var in map[string]any
	switch v := value.(type) {
	case string:
		if err := jsonx.Unmarshal([]byte(v), &in); err != nil {
			return nil, reject(source, target, value, err.Error())
		}
	case map[string]any:
		in = v
	default:
		return nil, reject(source, target, value, "expected a mapping or a JSON string")
	}
	if target.Record == nil {
		return in, nil
	}
	return ValidateRecord(target.Record, in, target)
}

// ValidateRecord checks a mapping against a structured type: required fields
// must be present or defaulted, and present fields are converted to their
// declared scalar types where the matrix allows it.
func ValidateRecord(st *Structured, in map[string]any, target Type) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	for _, name := range st.Names() {
		field, _ := st.Field(name)
		v, present := out[name]
		if !present || v == nil {
			switch {
			case field.Default != nil:
				out[name] = field.Default
			case !field.Required || field.Nullable:
				// Absent optional fields stay absent.
			default:
				return nil, &CoercionError{
					Source: Map(), Target: target, Value: in,
					Reason: fmt.Sprintf("required field %q is missing", name),
				}
			}
			continue
		}
		coerced, err := Coerce(inferType(v), field.Type, v)
		if err != nil {
			return nil, err
		}
		out[name] = coerced
	}
	return out, nil
}

// inferType guesses a matrix type for a runtime value.
func inferType(v any) Type {
	switch v.(type) {
	case string:
		return String()
	case bool:
		return Bool()
	case int, int32, int64:
		return Int()
	case float32, float64:
		return Float()
	case []model.Message, model.Message:
		return Messages()
	case map[string]any:
		return Map()
	default:
		return Any()
	}
}

func toFloat(source, target Type, value any) (any, error) {
	switch v := value.(type) {
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, reject(source, target, value, "not a number")
		}
		return f, nil
	default:
		return nil, reject(source, target, value, "expected an integer")
	}
}

func reject(source, target Type, value any, reason string) *CoercionError {
	return &CoercionError{Source: source, Target: target, Value: value, Reason: reason}
}
