package realityconf

import (
	"encoding/json"
	"fmt"
)

// DefaultIdentifiers are the field names used to match array elements when
// merging. Engine config arrays (inbounds, outbounds, dns servers, rule
// sets) key their elements by tag; name and id cover auxiliary arrays.
var DefaultIdentifiers = []string{"tag", "name", "id"}

// MergeJSON layers raw JSON configuration fragments, later fragments
// overriding earlier ones. This backs config templating: a base profile
// merged with a host-specific overlay before validation.
//
// Merge rules:
//   - scalars: later value overwrites earlier
//   - objects: recursively merged, later keys winning
//   - arrays: elements matched by identifier and merged; unmatched
//     elements appended, exact duplicates dropped
func MergeJSON(configs [][]byte, identifiers []string) ([]byte, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("no configs to merge")
	}
	if identifiers == nil {
		identifiers = DefaultIdentifiers
	}

	result := make(map[string]any)
	for i, cfg := range configs {
		var layer map[string]any
		if err := json.Unmarshal(cfg, &layer); err != nil {
			return nil, fmt.Errorf("unmarshal config[%d]: %w", i, err)
		}
		result = mergeMaps(result, layer, identifiers)
	}
	return json.Marshal(result)
}

// mergeMaps deep merges override onto base and returns a fresh map; the
// inputs are never mutated.
func mergeMaps(base, override map[string]any, identifiers []string) map[string]any {
	if base == nil {
		return copyMap(override)
	}
	if override == nil {
		return copyMap(base)
	}

	result := copyMap(base)
	for key, overrideVal := range override {
		baseVal, exists := result[key]
		if !exists {
			result[key] = copyValue(overrideVal)
			continue
		}
		switch overrideVal := overrideVal.(type) {
		case map[string]any:
			if baseMap, ok := baseVal.(map[string]any); ok {
				result[key] = mergeMaps(baseMap, overrideVal, identifiers)
			} else {
				result[key] = copyValue(overrideVal)
			}
		case []any:
			if baseSlice, ok := baseVal.([]any); ok {
				result[key] = mergeSlices(baseSlice, overrideVal, identifiers)
			} else {
				result[key] = copyValue(overrideVal)
			}
		default:
			result[key] = copyValue(overrideVal)
		}
	}
	return result
}

// mergeSlices merges two arrays. Map elements carrying one of the
// identifier fields are matched and merged in place; everything else is
// appended, with exact duplicates skipped.
//
// Example with identifiers=["tag"]:
//
//	base:     [{"tag": "vless-in", "listen_port": 443}]
//	override: [{"tag": "vless-in", "listen_port": 8443}, {"tag": "dns-in"}]
//	result:   [{"tag": "vless-in", "listen_port": 8443}, {"tag": "dns-in"}]
func mergeSlices(base, override []any, identifiers []string) []any {
	if len(base) == 0 {
		return copySlice(override)
	}
	if len(override) == 0 {
		return copySlice(base)
	}

	baseIndex := make(map[any]int)
	for i, el := range base {
		if m, ok := el.(map[string]any); ok {
			if id := elementIdentifier(m, identifiers); id != nil {
				baseIndex[id] = i
			}
		}
	}

	result := copySlice(base)
	for _, overrideEl := range override {
		if containsEqual(result, overrideEl) {
			continue
		}
		if m, ok := overrideEl.(map[string]any); ok {
			if id := elementIdentifier(m, identifiers); id != nil {
				if idx, found := baseIndex[id]; found {
					if baseMap, ok := result[idx].(map[string]any); ok {
						result[idx] = mergeMaps(baseMap, m, identifiers)
						continue
					}
				}
			}
		}
		result = append(result, copyValue(overrideEl))
	}
	return result
}

// elementIdentifier returns the first non-empty identifier value in m,
// checked in identifier order.
func elementIdentifier(m map[string]any, identifiers []string) any {
	for _, key := range identifiers {
		if val, ok := m[key]; ok && val != nil && val != "" {
			return val
		}
	}
	return nil
}

// containsEqual reports whether el already exists in slice, using JSON
// serialization for deep equality.
func containsEqual(slice []any, el any) bool {
	elJSON, err := json.Marshal(el)
	if err != nil {
		return false
	}
	for _, item := range slice {
		itemJSON, err := json.Marshal(item)
		if err != nil {
			continue
		}
		if string(elJSON) == string(itemJSON) {
			return true
		}
	}
	return false
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = copyValue(v)
	}
	return result
}

func copySlice(s []any) []any {
	if s == nil {
		return nil
	}
	result := make([]any, len(s))
	for i, v := range s {
		result[i] = copyValue(v)
	}
	return result
}

func copyValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return copyMap(v)
	case []any:
		return copySlice(v)
	default:
		return v
	}
}
