package compiler

import (
	"github.com/aion-proxy/aion-data-parser/internal/types"
)

// asObject accepts a map[string]any or nil; nil encodes every child field as
// its zero value.
func asObject(v any) (map[string]any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return x, nil
	}
	return nil, &types.ValidationError{Type: "object", Value: v, Reason: "must be a map[string]any"}
}

// asArray accepts []map[string]any, []any of maps, or nil.
func asArray(v any) ([]map[string]any, error) {
	var items []map[string]any
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []map[string]any:
		items = x
	case []any:
		items = make([]map[string]any, len(x))
		for i, item := range x {
			obj, err := asObject(item)
			if err != nil {
				return nil, indexErr(i, err)
			}
			items[i] = obj
		}
	default:
		return nil, &types.ValidationError{Type: "array", Value: v, Reason: "must be a slice of map[string]any"}
	}

	if len(items) > MaxArrayLen {
		return nil, &types.ValidationError{Type: "array", Value: len(items), Reason: "too many elements"}
	}
	return items, nil
}
