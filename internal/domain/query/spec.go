// Package query holds the resource-independent description of a list query:
// typed filter conditions, sort keys, field projection and pagination.
package query

import "errors"

// ErrUnsupported is returned by stores for conditions they cannot evaluate
var ErrUnsupported = errors.New("unsupported query")

// Operator is a comparison understood by every persistence adapter
type Operator string

const (
	OpEq  Operator = "eq"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
)

// ParseOperator maps a query-string suffix to an Operator
func ParseOperator(s string) (Operator, bool) {
	switch Operator(s) {
	case OpEq, OpLt, OpLte, OpGt, OpGte:
		return Operator(s), true
	}
	return "", false
}

// Kind is the value type of a filterable field
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindInt
	KindBool
	KindTime
)

// Condition compares a document field against a typed value.
// Value is a string, float64, int64, bool or time.Time according to the field kind.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

// SortKey orders results by one field
type SortKey struct {
	Field      string
	Descending bool
}

// Spec is a translated list query
type Spec struct {
	Conditions []Condition
	Sort       []SortKey
	Fields     []string
	Page       int
	Limit      int
}

// Offset returns the number of records to skip
func (s Spec) Offset() int {
	if s.Page < 1 || s.Limit < 1 {
		return 0
	}
	return (s.Page - 1) * s.Limit
}

// Eq builds an equality condition, the usual shape of a scoping filter
func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

// All returns an unbounded spec with only the given conditions
func All(conds ...Condition) Spec {
	return Spec{Conditions: conds}
}
