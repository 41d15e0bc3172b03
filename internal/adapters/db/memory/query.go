package memory

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"tourbook/internal/domain/query"
)

// document is the JSON view of a stored record. Field names in a query.Spec are
// JSON names, so evaluating on this view keeps the memory store in step with the API.
type document map[string]any

func toDocument(v any) (document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// applySpec filters, sorts and paginates items. Projection is left to the caller.
func applySpec[T any](items []*T, spec query.Spec) ([]*T, error) {
	type entry struct {
		item *T
		doc  document
	}

	entries := make([]entry, 0, len(items))
	for _, item := range items {
		doc, err := toDocument(item)
		if err != nil {
			return nil, err
		}
		ok, err := matchAll(doc, spec.Conditions)
		if err != nil {
			return nil, err
		}
		if ok {
			entries = append(entries, entry{item: item, doc: doc})
		}
	}

	var sortErr error
	sort.SliceStable(entries, func(i, j int) bool {
		for _, key := range spec.Sort {
			c, err := compareValues(entries[i].doc[key.Field], entries[j].doc[key.Field])
			if err != nil {
				sortErr = err
				return false
			}
			if c == 0 {
				continue
			}
			if key.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	if sortErr != nil {
		return nil, sortErr
	}

	start := spec.Offset()
	if start > len(entries) {
		start = len(entries)
	}
	end := len(entries)
	if spec.Limit > 0 && start+spec.Limit < end {
		end = start + spec.Limit
	}

	out := make([]*T, 0, end-start)
	for _, e := range entries[start:end] {
		out = append(out, e.item)
	}
	return out, nil
}

func matchAll(doc document, conds []query.Condition) (bool, error) {
	for _, cond := range conds {
		ok, err := match(doc[cond.Field], cond)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func match(docValue any, cond query.Condition) (bool, error) {
	if docValue == nil {
		return false, nil
	}
	c, err := compareValues(docValue, normalize(cond.Value))
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", query.ErrUnsupported, cond.Field, err)
	}
	switch cond.Op {
	case query.OpEq:
		return c == 0, nil
	case query.OpLt:
		return c < 0, nil
	case query.OpLte:
		return c <= 0, nil
	case query.OpGt:
		return c > 0, nil
	case query.OpGte:
		return c >= 0, nil
	default:
		return false, fmt.Errorf("%w: operator %q", query.ErrUnsupported, cond.Op)
	}
}

// normalize maps condition values onto the types produced by encoding/json
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	default:
		return v
	}
}

// compareValues orders two JSON values. Missing values sort first.
func compareValues(a, b any) (int, error) {
	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil:
		return -1, nil
	case b == nil:
		return 1, nil
	}

	if t, ok := b.(time.Time); ok {
		s, ok := a.(string)
		if !ok {
			return 0, fmt.Errorf("cannot compare %T with a date", a)
		}
		at, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return 0, err
		}
		return at.Compare(t), nil
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("cannot compare string with %T", b)
		}
		if at, aerr := time.Parse(time.RFC3339Nano, av); aerr == nil {
			if bt, berr := time.Parse(time.RFC3339Nano, bv); berr == nil {
				return at.Compare(bt), nil
			}
		}
		return strings.Compare(av, bv), nil
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, fmt.Errorf("cannot compare number with %T", b)
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		}
		return 0, nil
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, fmt.Errorf("cannot compare bool with %T", b)
		}
		switch {
		case av == bv:
			return 0, nil
		case !av:
			return -1, nil
		}
		return 1, nil
	default:
		return 0, fmt.Errorf("cannot compare %T", a)
	}
}
