// Package query translates a request query string into a bounded, typed list query.
//
// The stages run in a fixed order: Filter, Sort, ProjectFields, Paginate. Sorting and
// projection work on the filtered query and pagination is computed last over the final
// configuration. Calling a stage out of order is a programming error reported by Spec.
package query

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"tourbook/internal/apperr"
	domainQuery "tourbook/internal/domain/query"
)

// Reserved control keys, never interpreted as filters
const (
	KeyPage   = "page"
	KeyLimit  = "limit"
	KeySort   = "sort"
	KeyFields = "fields"
)

// IDField is the identity field appended as the final sort key
const IDField = "id"

// ErrStageOrder is returned by Spec when stages were called out of order
var ErrStageOrder = errors.New("query stages called out of order")

var operatorKey = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_.]*)\[([A-Za-z]+)\]$`)

func isReserved(key string) bool {
	switch key {
	case KeyPage, KeyLimit, KeySort, KeyFields:
		return true
	}
	return false
}

// Limits bounds pagination
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits are used when a zero Limits is passed
var DefaultLimits = Limits{Default: 4, Max: 100}

type stage int

const (
	stageNew stage = iota
	stageFilter
	stageSort
	stageFields
	stagePaginate
)

// Builder runs the translation stages over one query string
type Builder struct {
	schema *Schema
	values url.Values
	limits Limits

	stage   stage
	spec    domainQuery.Spec
	details []string
	err     error
}

// New creates a builder for values against schema
func New(schema *Schema, values url.Values, limits Limits) *Builder {
	if limits.Default <= 0 {
		limits.Default = DefaultLimits.Default
	}
	if limits.Max < limits.Default {
		limits.Max = limits.Default
	}
	return &Builder{schema: schema, values: values, limits: limits}
}

// Translate runs every stage in order. Base conditions scope the result and take
// precedence over any condition the query string produces on the same field.
func Translate(schema *Schema, values url.Values, limits Limits, base ...domainQuery.Condition) (domainQuery.Spec, error) {
	return New(schema, values, limits).
		Filter(base...).
		Sort().
		ProjectFields().
		Paginate().
		Spec()
}

func (b *Builder) enter(s stage) bool {
	if b.err != nil {
		return false
	}
	if s <= b.stage {
		b.err = fmt.Errorf("%w: stage %d after %d", ErrStageOrder, s, b.stage)
		return false
	}
	b.stage = s
	return true
}

// Filter turns non-reserved keys into conditions. Keys that are not filterable fields
// are ignored. On a filterable field, a malformed bracket suffix, an unknown operator,
// a repeated key or a value that does not fit the field kind is rejected.
func (b *Builder) Filter(base ...domainQuery.Condition) *Builder {
	if !b.enter(stageFilter) {
		return b
	}

	scoped := make(map[string]bool, len(base))
	for _, c := range base {
		scoped[c.Field] = true
	}

	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var conds []domainQuery.Condition
	for _, key := range keys {
		if isReserved(key) {
			continue
		}

		name, opText := key, ""
		malformed := false
		if m := operatorKey.FindStringSubmatch(key); m != nil {
			name, opText = m[1], m[2]
		} else if i := strings.IndexByte(key, '['); i >= 0 {
			name, malformed = key[:i], true
		}

		field, ok := b.schema.filterable(name)
		if !ok || scoped[name] {
			continue
		}
		if malformed {
			b.details = append(b.details, fmt.Sprintf("unsupported filter %q on %s, expected %s[lt|lte|gt|gte]", key, name, name))
			continue
		}
		if len(b.values[key]) > 1 {
			b.details = append(b.details, fmt.Sprintf("%s must be given once", key))
			continue
		}

		op := domainQuery.OpEq
		if opText != "" {
			parsed, ok := domainQuery.ParseOperator(strings.ToLower(opText))
			if !ok {
				b.details = append(b.details, fmt.Sprintf("unsupported operator %q on %s", opText, name))
				continue
			}
			op = parsed
		}
		if op != domainQuery.OpEq && !ordered(field.Kind) {
			b.details = append(b.details, fmt.Sprintf("operator %q is not supported on %s", op, name))
			continue
		}

		value, err := coerce(field.Kind, b.values.Get(key))
		if err != nil {
			b.details = append(b.details, fmt.Sprintf("%s must be %s", name, err.Error()))
			continue
		}
		conds = append(conds, domainQuery.Condition{Field: name, Op: op, Value: value})
	}

	b.spec.Conditions = append(conds, base...)
	return b
}

// Sort parses a comma separated list of fields, "-" marking descending order.
// Unknown fields are dropped. The id field is always the last key so that pages are stable.
func (b *Builder) Sort() *Builder {
	if !b.enter(stageSort) {
		return b
	}

	var keys []domainQuery.SortKey
	seen := make(map[string]bool)
	for _, part := range strings.Split(b.values.Get(KeySort), ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		if name == "" || seen[name] || !b.schema.sortable(name) {
			continue
		}
		seen[name] = true
		keys = append(keys, domainQuery.SortKey{Field: name, Descending: desc})
	}

	if len(keys) == 0 {
		keys = append(keys, b.schema.defaultSort()...)
		for _, k := range keys {
			seen[k.Field] = true
		}
	}
	if !seen[IDField] {
		keys = append(keys, domainQuery.SortKey{Field: IDField})
	}

	b.spec.Sort = keys
	return b
}

// ProjectFields keeps the selectable fields of a comma separated list. The id field
// is always returned. An empty result keeps the default shape.
func (b *Builder) ProjectFields() *Builder {
	if !b.enter(stageFields) {
		return b
	}

	var fields []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(b.values.Get(KeyFields), ",") {
		name := strings.TrimSpace(part)
		if name == "" || seen[name] || !b.schema.selectable(name) {
			continue
		}
		seen[name] = true
		fields = append(fields, name)
	}
	if len(fields) > 0 && !seen[IDField] {
		fields = append([]string{IDField}, fields...)
	}

	b.spec.Fields = fields
	return b
}

// Paginate reads page and limit. Malformed, zero or negative values never fail:
// they fall back to the default. The limit is capped at the configured maximum.
func (b *Builder) Paginate() *Builder {
	if !b.enter(stagePaginate) {
		return b
	}

	b.spec.Page = positiveInt(b.values.Get(KeyPage), 1, math.MaxInt32)
	b.spec.Limit = positiveInt(b.values.Get(KeyLimit), b.limits.Default, b.limits.Max)
	return b
}

// Spec returns the translated query, a validation error for rejected filters, or
// ErrStageOrder wrapped as an internal error.
func (b *Builder) Spec() (domainQuery.Spec, error) {
	if b.err != nil {
		return domainQuery.Spec{}, apperr.Internal(b.err)
	}
	if len(b.details) > 0 {
		return domainQuery.Spec{}, apperr.Validation(b.details...)
	}
	return b.spec, nil
}

func positiveInt(raw string, def, upper int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	if n > upper {
		return upper
	}
	return n
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

func coerce(kind domainQuery.Kind, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case domainQuery.KindNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errors.New("a number")
		}
		return f, nil
	case domainQuery.KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errors.New("an integer")
		}
		return n, nil
	case domainQuery.KindBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.New("true or false")
		}
		return v, nil
	case domainQuery.KindTime:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.UTC(), nil
			}
		}
		return nil, errors.New("a date")
	default:
		if raw == "" {
			return nil, errors.New("a non-empty string")
		}
		return raw, nil
	}
}
