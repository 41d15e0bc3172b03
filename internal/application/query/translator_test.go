package query

import (
	"net/url"
	"testing"
	"time"

	"tourbook/internal/apperr"
	domainQuery "tourbook/internal/domain/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) url.Values {
	t.Helper()
	v, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return v
}

func TestTranslate_RangeFilter(t *testing.T) {
	spec, err := Translate(Tours, mustParse(t, "price[gt]=100&price[lt]=500"), DefaultLimits)
	require.NoError(t, err)

	assert.ElementsMatch(t, []domainQuery.Condition{
		{Field: "price", Op: domainQuery.OpGt, Value: 100.0},
		{Field: "price", Op: domainQuery.OpLt, Value: 500.0},
	}, spec.Conditions)
}

func TestTranslate_EqualityAndIgnoredKeys(t *testing.T) {
	spec, err := Translate(Tours, mustParse(t, "difficulty=easy&duration=5&secret=1&password=x&slug=abc"), DefaultLimits)
	require.NoError(t, err)

	assert.ElementsMatch(t, []domainQuery.Condition{
		{Field: "difficulty", Op: domainQuery.OpEq, Value: "easy"},
		{Field: "duration", Op: domainQuery.OpEq, Value: int64(5)},
	}, spec.Conditions)
}

func TestTranslate_ReservedKeysNeverFilter(t *testing.T) {
	spec, err := Translate(Tours, mustParse(t, "page=2&limit=3&sort=price&fields=name"), DefaultLimits)
	require.NoError(t, err)
	assert.Empty(t, spec.Conditions)
}

func TestTranslate_RejectsUnknownOperator(t *testing.T) {
	_, err := Translate(Tours, mustParse(t, "price[ne]=100"), DefaultLimits)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "unsupported operator")

	for _, key := range []string{"price[]", "price[gt][lt]", "price[1]", "price[gt"} {
		t.Run(key, func(t *testing.T) {
			values := url.Values{key: []string{"5"}}
			_, err := Translate(Tours, values, DefaultLimits)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
			assert.Contains(t, err.Error(), "unsupported filter")
		})
	}
}

func TestTranslate_MalformedKeyOnUnknownFieldIgnored(t *testing.T) {
	spec, err := Translate(Tours, url.Values{"secret[": []string{"1"}, "other[x][y]": []string{"2"}}, DefaultLimits)
	require.NoError(t, err)
	assert.Empty(t, spec.Conditions)
}

func TestTranslate_RejectsRepeatedFilterKey(t *testing.T) {
	_, err := Translate(Tours, mustParse(t, "price=100&price=200"), DefaultLimits)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "price must be given once")

	_, err = Translate(Tours, mustParse(t, "price[gt]=1&price[gt]=2"), DefaultLimits)
	assert.ErrorContains(t, err, "price[gt] must be given once")
}

func TestTranslate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{name: "number", query: "price[gte]=cheap", want: "price must be a number"},
		{name: "integer", query: "duration=1.5", want: "duration must be an integer"},
		{name: "bool", query: "paid=maybe", want: "paid must be true or false"},
		{name: "range on bool", query: "paid[gt]=true", want: "not supported on paid"},
		{name: "date", query: "createdAt[gte]=yesterday", want: "createdAt must be a date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := Tours
			if tt.name == "bool" || tt.name == "range on bool" {
				schema = Bookings
			}
			_, err := Translate(schema, mustParse(t, tt.query), DefaultLimits)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTranslate_TimeFilter(t *testing.T) {
	spec, err := Translate(Reviews, mustParse(t, "createdAt[gte]=2024-03-01"), DefaultLimits)
	require.NoError(t, err)
	require.Len(t, spec.Conditions, 1)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), spec.Conditions[0].Value)
}

func TestTranslate_Sort(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []domainQuery.SortKey
	}{
		{
			name:  "descending then ascending",
			query: "sort=-price,name",
			want: []domainQuery.SortKey{
				{Field: "price", Descending: true},
				{Field: "name"},
				{Field: "id"},
			},
		},
		{
			name:  "default newest first",
			query: "",
			want: []domainQuery.SortKey{
				{Field: "createdAt", Descending: true},
				{Field: "id"},
			},
		},
		{
			name:  "unknown fields dropped",
			query: "sort=-bogus,description",
			want: []domainQuery.SortKey{
				{Field: "createdAt", Descending: true},
				{Field: "id"},
			},
		},
		{
			name:  "explicit id not repeated",
			query: "sort=-id,price",
			want: []domainQuery.SortKey{
				{Field: "id", Descending: true},
				{Field: "price"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Translate(Tours, mustParse(t, tt.query), DefaultLimits)
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec.Sort)
		})
	}
}

func TestTranslate_Fields(t *testing.T) {
	spec, err := Translate(Tours, mustParse(t, "fields=name,price,password,name"), DefaultLimits)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "price"}, spec.Fields)

	spec, err = Translate(Tours, mustParse(t, ""), DefaultLimits)
	require.NoError(t, err)
	assert.Nil(t, spec.Fields)
}

func TestTranslate_Paginate(t *testing.T) {
	tests := []struct {
		query     string
		wantPage  int
		wantLimit int
	}{
		{query: "", wantPage: 1, wantLimit: 4},
		{query: "page=0&limit=-5", wantPage: 1, wantLimit: 4},
		{query: "page=abc&limit=xyz", wantPage: 1, wantLimit: 4},
		{query: "page=-3&limit=0", wantPage: 1, wantLimit: 4},
		{query: "page=3&limit=-20", wantPage: 3, wantLimit: 4},
		{query: "page=2&limit=10", wantPage: 2, wantLimit: 10},
		{query: "limit=100000", wantPage: 1, wantLimit: 100},
		{query: "page=-9223372036854775808", wantPage: 1, wantLimit: 4},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			spec, err := Translate(Tours, mustParse(t, tt.query), DefaultLimits)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, spec.Page)
			assert.Equal(t, tt.wantLimit, spec.Limit)
			assert.Equal(t, (tt.wantPage-1)*tt.wantLimit, spec.Offset())
		})
	}
}

func TestTranslate_BaseFilterWins(t *testing.T) {
	base := domainQuery.Eq("tour", "t-1")
	spec, err := Translate(Reviews, mustParse(t, "tour=t-2&tour[gt]=a&rating[gte]=4"), DefaultLimits, base)
	require.NoError(t, err)

	assert.ElementsMatch(t, []domainQuery.Condition{
		{Field: "rating", Op: domainQuery.OpGte, Value: int64(4)},
		{Field: "tour", Op: domainQuery.OpEq, Value: "t-1"},
	}, spec.Conditions)
}

func TestTranslate_BaseFilterOnUnlistedField(t *testing.T) {
	spec, err := Translate(Bookings, mustParse(t, ""), DefaultLimits, domainQuery.Eq("user", "u-1"))
	require.NoError(t, err)
	assert.Equal(t, []domainQuery.Condition{domainQuery.Eq("user", "u-1")}, spec.Conditions)
}

func TestBuilder_StageOrder(t *testing.T) {
	_, err := New(Tours, url.Values{}, DefaultLimits).Paginate().Filter().Spec()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStageOrder)
	assert.True(t, apperr.Is(err, apperr.KindInternal))

	_, err = New(Tours, url.Values{}, DefaultLimits).Filter().Filter().Spec()
	assert.ErrorIs(t, err, ErrStageOrder)

	spec, err := New(Tours, mustParse(t, "limit=7"), DefaultLimits).Filter().Paginate().Spec()
	require.NoError(t, err)
	assert.Equal(t, 7, spec.Limit)
	assert.Nil(t, spec.Sort)
}

func TestNew_ZeroLimitsUseDefaults(t *testing.T) {
	spec, err := Translate(Tours, url.Values{}, Limits{})
	require.NoError(t, err)
	assert.Equal(t, 4, spec.Limit)
}
