package sql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/iyhunko/product-listings/internal/model"
	"github.com/iyhunko/product-listings/internal/repository"
)

const productSelect = `SELECT product_id, title, content, author, password, status, created_at FROM products`

// ProductRepository implements repository.ProductRepository on Postgres.
type ProductRepository struct {
	db  *sql.DB
	txn *sql.Tx
}

// NewProductRepository creates a new ProductRepository instance.
func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// getExecutor returns the active executor (transaction if exists, otherwise db)
func (r *ProductRepository) getExecutor() dbExecutor {
	if r.txn != nil {
		return r.txn
	}
	return r.db
}

// Find returns every product matching the query, newest first.
func (r *ProductRepository) Find(ctx context.Context, query repository.Query) ([]*model.Product, error) {
	where, args, err := whereClause(query, 1)
	if err != nil {
		return nil, err
	}
	sqlQuery := productSelect + where + " ORDER BY created_at DESC"

	stmt, err := r.getExecutor().PrepareContext(ctx, sqlQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []*model.Product{}
	for rows.Next() {
		var product model.Product
		err := rows.Scan(&product.ProductID, &product.Title, &product.Content, &product.Author,
			&product.Password, &product.Status, &product.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, &product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}

// CreateIfAbsent inserts the product unless a product with the same id exists.
func (r *ProductRepository) CreateIfAbsent(ctx context.Context, product *model.Product) (bool, error) {
	query := `INSERT INTO products (product_id, title, content, author, password, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          ON CONFLICT (product_id) DO NOTHING`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return false, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, product.ProductID, product.Title, product.Content, product.Author,
		product.Password, product.Status, product.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		slog.WarnContext(ctx, "product id already taken", slog.String("product_id", product.ProductID))
		return false, nil
	}

	return true, nil
}

// UpdateOne sets title, content and status on the first product matching the query.
func (r *ProductRepository) UpdateOne(ctx context.Context, query repository.Query, fields repository.ProductFields) (bool, error) {
	where, args, err := whereClause(query, 4)
	if err != nil {
		return false, err
	}
	sqlQuery := `UPDATE products SET title = $1, content = $2, status = $3
	             WHERE product_id IN (SELECT product_id FROM products` + where + ` LIMIT 1)`

	stmt, err := r.getExecutor().PrepareContext(ctx, sqlQuery)
	if err != nil {
		return false, fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	args = append([]interface{}{fields.Title, fields.Content, fields.Status}, args...)
	result, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// DeleteOne removes the first product matching the query.
func (r *ProductRepository) DeleteOne(ctx context.Context, query repository.Query) (bool, error) {
	where, args, err := whereClause(query, 1)
	if err != nil {
		return false, err
	}
	sqlQuery := `DELETE FROM products WHERE product_id IN (SELECT product_id FROM products` + where + ` LIMIT 1)`

	stmt, err := r.getExecutor().PrepareContext(ctx, sqlQuery)
	if err != nil {
		return false, fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return false, fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}
