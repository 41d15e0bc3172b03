package mongo

import (
	"testing"

	"tourbook/internal/domain/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestFilterOf_MergesRangeOnSameField(t *testing.T) {
	filter, err := filterOf([]query.Condition{
		{Field: "price", Op: query.OpGt, Value: 100.0},
		{Field: "difficulty", Op: query.OpEq, Value: "easy"},
		{Field: "price", Op: query.OpLte, Value: 500.0},
	})
	require.NoError(t, err)

	assert.Equal(t, bson.D{
		{Key: "price", Value: bson.D{{Key: "$gt", Value: 100.0}, {Key: "$lte", Value: 500.0}}},
		{Key: "difficulty", Value: bson.D{{Key: "$eq", Value: "easy"}}},
	}, filter)
}

func TestFilterOf_MapsID(t *testing.T) {
	filter, err := filterOf([]query.Condition{query.Eq("id", "abc")})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "_id", Value: bson.D{{Key: "$eq", Value: "abc"}}}}, filter)
}

func TestFilterOf_Empty(t *testing.T) {
	filter, err := filterOf(nil)
	require.NoError(t, err)
	assert.Empty(t, filter)
}

func TestFilterOf_UnknownOperator(t *testing.T) {
	_, err := filterOf([]query.Condition{{Field: "price", Op: "ne", Value: 1.0}})
	assert.ErrorIs(t, err, query.ErrUnsupported)
}

func TestFindOptions(t *testing.T) {
	opts := findOptions(query.Spec{
		Sort:   []query.SortKey{{Field: "price", Descending: true}, {Field: "id"}},
		Fields: []string{"name", "price"},
		Page:   3,
		Limit:  10,
	})

	assert.Equal(t, bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: 1}}, opts.Sort)
	assert.Equal(t, bson.D{{Key: "name", Value: 1}, {Key: "price", Value: 1}}, opts.Projection)
	require.NotNil(t, opts.Skip)
	require.NotNil(t, opts.Limit)
	assert.EqualValues(t, 20, *opts.Skip)
	assert.EqualValues(t, 10, *opts.Limit)
}

func TestFindOptions_Unbounded(t *testing.T) {
	opts := findOptions(query.Spec{})
	assert.Nil(t, opts.Sort)
	assert.Nil(t, opts.Projection)
	assert.Nil(t, opts.Skip)
	assert.Nil(t, opts.Limit)
}

func TestDatabaseFromURI(t *testing.T) {
	assert.Equal(t, "bookings", databaseFromURI("mongodb://localhost:27017/bookings?retryWrites=true"))
	assert.Equal(t, defaultDBName, databaseFromURI("mongodb://localhost:27017"))
	assert.Equal(t, defaultDBName, databaseFromURI("mongodb://localhost:27017/"))
}
