package repository

import "sort"

const (
	ProductIDField QueryField = "product_id"
	TitleField     QueryField = "title"
	AuthorField    QueryField = "author"
	StatusField    QueryField = "status"
	CreatedAtField QueryField = "created_at"
)

// Query is an exact-equality filter. An empty query matches everything.
type Query struct {
	Values map[QueryField]string
}

type QueryField string

func NewQuery() *Query {
	return &Query{
		Values: map[QueryField]string{},
	}
}

func (q *Query) With(field QueryField, val string) *Query {
	q.Values[field] = val
	return q
}

// ByProductID is shorthand for a single-product lookup.
func ByProductID(productID string) Query {
	return *NewQuery().With(ProductIDField, productID)
}

// Fields returns the filtered fields in a stable order.
func (q Query) Fields() []QueryField {
	fields := make([]QueryField, 0, len(q.Values))
	for field := range q.Values {
		fields = append(fields, field)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}
