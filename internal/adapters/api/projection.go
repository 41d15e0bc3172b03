package api

import (
	"encoding/json"
)

// project keeps only the requested top-level fields of v's JSON shape.
// An empty field list returns v unchanged.
func project(v any, fields []string) (any, error) {
	if len(fields) == 0 {
		return v, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(fields))
	for _, f := range fields {
		if val, ok := doc[f]; ok {
			out[f] = val
		}
	}
	return out, nil
}

// projectAll applies project to every item
func projectAll[T any](items []T, fields []string) (any, error) {
	if len(fields) == 0 {
		return items, nil
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		p, err := project(item, fields)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
