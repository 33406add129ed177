package mcpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// optionalString returns the string argument key, or nil when absent.
func optionalString(args map[string]any, key string) (*string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("parameter %s must be a string", key)
	}
	return &s, nil
}

// optionalInt returns the whole-number argument key, or nil when absent.
// JSON numbers arrive as float64.
func optionalInt(args map[string]any, key string) (*int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	var n int
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("parameter %s must be a whole number", key)
		}
		n = int(v)
	case int:
		n = v
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("parameter %s must be a whole number", key)
		}
		n = int(i)
	default:
		return nil, fmt.Errorf("parameter %s must be a number", key)
	}
	return &n, nil
}

// requiredInt is optionalInt for mandatory arguments.
func requiredInt(args map[string]any, key string) (int, error) {
	n, err := optionalInt(args, key)
	if err != nil {
		return 0, err
	}
	if n == nil {
		return 0, fmt.Errorf("missing required parameter: %s", key)
	}
	return *n, nil
}

// decodeObject converts the object argument key into dst, rejecting fields
// dst does not have.
func decodeObject(args map[string]any, key string, dst any) error {
	raw, ok := args[key].(map[string]any)
	if !ok {
		return fmt.Errorf("missing required parameter: %s", key)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	return nil
}
