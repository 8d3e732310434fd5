package sql

import (
	"fmt"
	"strings"

	"github.com/iyhunko/product-listings/internal/repository"
)

var productColumns = map[repository.QueryField]bool{
	repository.ProductIDField: true,
	repository.TitleField:     true,
	repository.AuthorField:    true,
	repository.StatusField:    true,
	repository.CreatedAtField: true,
}

// whereClause renders the query as an equality filter over product columns.
// Placeholders start at argIndex. An empty query renders an empty clause.
func whereClause(query repository.Query, argIndex int) (string, []interface{}, error) {
	fields := query.Fields()
	if len(fields) == 0 {
		return "", nil, nil
	}

	conditions := make([]string, 0, len(fields))
	args := make([]interface{}, 0, len(fields))
	for _, field := range fields {
		if !productColumns[field] {
			return "", nil, fmt.Errorf("unsupported filter field %q", field)
		}
		conditions = append(conditions, fmt.Sprintf("%s = $%d", field, argIndex))
		args = append(args, query.Values[field])
		argIndex++
	}

	return " WHERE " + strings.Join(conditions, " AND "), args, nil
}
