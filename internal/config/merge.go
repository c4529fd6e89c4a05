package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DeepMerge merges src into dst and returns dst.
// Nested maps merge key-wise with src winning per key; every other value
// in src, arrays included, replaces the one in dst. Arrays at the
// dot-separated appendPaths are concatenated (dst first) instead.
// Values taken from src are deep-copied.
func DeepMerge(dst, src map[string]any, appendPaths ...string) map[string]any {
	appendSet := make(map[string]bool, len(appendPaths))
	for _, p := range appendPaths {
		appendSet[p] = true
	}
	return deepMerge(dst, src, "", appendSet)
}

func deepMerge(dst, src map[string]any, prefix string, appendSet map[string]bool) map[string]any {
	if dst == nil {
		dst = make(map[string]any)
	}

	for key, srcVal := range src {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		dstVal, exists := dst[key]
		if !exists {
			dst[key] = cloneValue(srcVal)
			continue
		}

		if srcMap, ok := srcVal.(map[string]any); ok {
			if dstMap, ok := dstVal.(map[string]any); ok {
				dst[key] = deepMerge(dstMap, srcMap, path, appendSet)
				continue
			}
		}

		if appendSet[path] {
			srcSlice, srcOK := srcVal.([]any)
			dstSlice, dstOK := dstVal.([]any)
			if srcOK && dstOK {
				merged := make([]any, 0, len(dstSlice)+len(srcSlice))
				merged = append(merged, dstSlice...)
				merged = append(merged, cloneSlice(srcSlice)...)
				dst[key] = merged
				continue
			}
		}

		dst[key] = cloneValue(srcVal)
	}

	return dst
}

func cloneValue(val any) any {
	switch v := val.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		return cloneSlice(v)
	default:
		return val
	}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneSlice(s []any) []any {
	if s == nil {
		return nil
	}
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = cloneValue(v)
	}
	return out
}

// GetByPath retrieves a value from a nested map using a dot-separated path.
func GetByPath(data map[string]any, path string) (any, bool) {
	if data == nil {
		return nil, false
	}

	current := any(data)
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		val, exists := m[part]
		if !exists {
			return nil, false
		}
		current = val
	}

	return current, true
}

// SetByPath sets a value in a nested map using a dot-separated path,
// creating intermediate maps as needed. A non-map value on the way is
// replaced by a map.
func SetByPath(data map[string]any, path string, value any) {
	if data == nil || path == "" {
		return
	}

	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}

	current[parts[len(parts)-1]] = value
}

// FlattenMap flattens a nested map into dot-separated keys.
func FlattenMap(data map[string]any) map[string]any {
	result := make(map[string]any)
	flattenInto(data, "", result)
	return result
}

func flattenInto(data map[string]any, prefix string, result map[string]any) {
	for key, val := range data {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := val.(map[string]any); ok && len(nested) > 0 {
			flattenInto(nested, fullKey, result)
		} else {
			result[fullKey] = val
		}
	}
}

// normalize converts v to the value space of encoding/json: maps become
// map[string]any, sequences []any and numbers float64. Every map the store
// holds goes through here so that published and in-process views agree.
func normalize(v map[string]any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("value is not representable as JSON: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
