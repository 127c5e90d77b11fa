package actions

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xkilldash9x/browsepilot/api/schemas"
)

// Arguments are the keyword arguments of a function call, as decoded from the model.
type Arguments map[string]any

// ArgumentError reports arguments that do not match an action's parameter schema.
type ArgumentError struct {
	Action string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for action '%s': %s", e.Action, e.Reason)
}

// String returns the string argument named key.
func (a Arguments) String(key string) (string, error) {
	raw, ok := a[key]
	if !ok {
		return "", fmt.Errorf("missing argument '%s'", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("argument '%s' must be a string, got %T", key, raw)
	}
	return s, nil
}

// Strings returns the list-of-strings argument named key.
func (a Arguments) Strings(key string) ([]string, error) {
	raw, ok := a[key]
	if !ok {
		return nil, fmt.Errorf("missing argument '%s'", key)
	}
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("argument '%s' item %d must be a string, got %T", key, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("argument '%s' must be a list of strings, got %T", key, raw)
	}
}

// validateArguments checks args against the descriptor: every required
// parameter is present, no undeclared parameter is passed, and each value has
// the declared type.
func validateArguments(d schemas.ActionDescriptor, args Arguments) error {
	var problems []string

	required := d.RequiredParameters()
	sort.Strings(required)
	for _, name := range required {
		if _, ok := args[name]; !ok {
			problems = append(problems, fmt.Sprintf("missing required argument '%s'", name))
		}
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		schema, ok := d.Parameters[k]
		if !ok {
			problems = append(problems, fmt.Sprintf("unexpected argument '%s'", k))
			continue
		}
		if !matchesType(schema, args[k]) {
			problems = append(problems, fmt.Sprintf("argument '%s' must be of type %s, got %T", k, schema.Type, args[k]))
		}
	}

	if len(problems) > 0 {
		return &ArgumentError{Action: d.Name, Reason: strings.Join(problems, "; ")}
	}
	return nil
}

func matchesType(schema schemas.ParameterSchema, v any) bool {
	switch schema.Type {
	case schemas.ParamString:
		_, ok := v.(string)
		return ok
	case schemas.ParamBoolean:
		_, ok := v.(bool)
		return ok
	case schemas.ParamNumber:
		switch v.(type) {
		case float64, float32, int, int32, int64:
			return true
		}
		return false
	case schemas.ParamInteger:
		switch n := v.(type) {
		case int, int32, int64:
			return true
		case float64:
			return n == float64(int64(n))
		}
		return false
	case schemas.ParamArray:
		switch items := v.(type) {
		case []string:
			return schema.Items == nil || schema.Items.Type == schemas.ParamString
		case []any:
			if schema.Items == nil {
				return true
			}
			for _, item := range items {
				if !matchesType(*schema.Items, item) {
					return false
				}
			}
			return true
		}
		return false
	case schemas.ParamObject:
		_, ok := v.(map[string]any)
		return ok
	}
	return true
}
