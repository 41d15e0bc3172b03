package mongo

import (
	"fmt"

	"tourbook/internal/domain/query"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var operators = map[query.Operator]string{
	query.OpEq:  "$eq",
	query.OpLt:  "$lt",
	query.OpLte: "$lte",
	query.OpGt:  "$gt",
	query.OpGte: "$gte",
}

// documentField maps a query field name to its stored name
func documentField(field string) string {
	if field == "id" {
		return "_id"
	}
	return field
}

// filterOf builds a bson filter. Conditions on the same field are merged into one
// operator document so ranges like 100 < price < 500 keep both bounds.
func filterOf(conds []query.Condition) (bson.D, error) {
	filter := bson.D{}
	index := map[string]int{}
	for _, c := range conds {
		op, ok := operators[c.Op]
		if !ok {
			return nil, fmt.Errorf("operator %q: %w", c.Op, query.ErrUnsupported)
		}
		field := documentField(c.Field)
		i, seen := index[field]
		if !seen {
			index[field] = len(filter)
			filter = append(filter, bson.E{Key: field, Value: bson.D{{Key: op, Value: c.Value}}})
			continue
		}
		ops := filter[i].Value.(bson.D)
		filter[i].Value = append(ops, bson.E{Key: op, Value: c.Value})
	}
	return filter, nil
}

// findOptions applies sort, projection and pagination
func findOptions(spec query.Spec) *options.FindOptions {
	opts := options.Find()

	if len(spec.Sort) > 0 {
		sort := make(bson.D, 0, len(spec.Sort))
		for _, k := range spec.Sort {
			dir := 1
			if k.Descending {
				dir = -1
			}
			sort = append(sort, bson.E{Key: documentField(k.Field), Value: dir})
		}
		opts.SetSort(sort)
	}

	if len(spec.Fields) > 0 {
		projection := make(bson.D, 0, len(spec.Fields))
		for _, f := range spec.Fields {
			projection = append(projection, bson.E{Key: documentField(f), Value: 1})
		}
		opts.SetProjection(projection)
	}

	if spec.Limit > 0 {
		opts.SetSkip(int64(spec.Offset()))
		opts.SetLimit(int64(spec.Limit))
	}
	return opts
}
