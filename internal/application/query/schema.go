package query

import (
	domainQuery "tourbook/internal/domain/query"
)

// Field describes how a query string may use one resource field
type Field struct {
	Kind   domainQuery.Kind
	Filter bool
	Sort   bool
}

// Schema is the allow-list of a resource. Fields not listed are invisible to the query string.
type Schema struct {
	Name        string
	Fields      map[string]Field
	DefaultSort []domainQuery.SortKey
}

func (s *Schema) filterable(name string) (Field, bool) {
	f, ok := s.Fields[name]
	return f, ok && f.Filter
}

func (s *Schema) sortable(name string) bool {
	if name == IDField {
		return true
	}
	f, ok := s.Fields[name]
	return ok && f.Sort
}

func (s *Schema) selectable(name string) bool {
	if name == IDField {
		return true
	}
	_, ok := s.Fields[name]
	return ok
}

func (s *Schema) defaultSort() []domainQuery.SortKey {
	if len(s.DefaultSort) > 0 {
		return s.DefaultSort
	}
	return []domainQuery.SortKey{{Field: "createdAt", Descending: true}}
}

func ordered(kind domainQuery.Kind) bool {
	switch kind {
	case domainQuery.KindNumber, domainQuery.KindInt, domainQuery.KindTime:
		return true
	}
	return false
}

var (
	filterString = Field{Kind: domainQuery.KindString, Filter: true, Sort: true}
	filterNumber = Field{Kind: domainQuery.KindNumber, Filter: true, Sort: true}
	filterInt    = Field{Kind: domainQuery.KindInt, Filter: true, Sort: true}
	filterBool   = Field{Kind: domainQuery.KindBool, Filter: true, Sort: true}
	filterTime   = Field{Kind: domainQuery.KindTime, Filter: true, Sort: true}
	plain        = Field{}
)

// Tours is the schema of the tour collection
var Tours = &Schema{
	Name: "tours",
	Fields: map[string]Field{
		"name":            filterString,
		"slug":            plain,
		"difficulty":      filterString,
		"duration":        filterInt,
		"maxGroupSize":    filterInt,
		"price":           filterNumber,
		"priceDiscount":   plain,
		"ratingsAverage":  filterNumber,
		"ratingsQuantity": filterInt,
		"summary":         plain,
		"description":     plain,
		"imageCover":      plain,
		"images":          plain,
		"startDates":      plain,
		"guides":          plain,
		"createdAt":       filterTime,
		"updatedAt":       plain,
	},
}

// Reviews is the schema of the review collection
var Reviews = &Schema{
	Name: "reviews",
	Fields: map[string]Field{
		"review":    plain,
		"rating":    filterInt,
		"tour":      filterString,
		"user":      filterString,
		"createdAt": filterTime,
		"updatedAt": plain,
	},
}

// Bookings is the schema of the booking collection
var Bookings = &Schema{
	Name: "bookings",
	Fields: map[string]Field{
		"tour":      filterString,
		"user":      filterString,
		"price":     filterNumber,
		"paid":      filterBool,
		"createdAt": filterTime,
		"updatedAt": plain,
	},
}

// Users is the schema of the user collection. The password hash is never listed.
var Users = &Schema{
	Name: "users",
	Fields: map[string]Field{
		"name":      filterString,
		"email":     filterString,
		"photo":     plain,
		"role":      filterString,
		"active":    filterBool,
		"createdAt": filterTime,
		"updatedAt": plain,
	},
}
