package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iyhunko/product-listings/internal/model"
	"github.com/iyhunko/product-listings/internal/repository"
)

// TransactionalRepository provides methods to work with multiple repositories in a single transaction
type TransactionalRepository struct {
	db *sql.DB
}

// NewTransactionalRepository creates a new TransactionalRepository
func NewTransactionalRepository(db *sql.DB) *TransactionalRepository {
	return &TransactionalRepository{db: db}
}

// withinTransaction runs fn against repositories bound to one transaction.
// fn reports whether its work should be committed; false rolls back without an error.
func (tr *TransactionalRepository) withinTransaction(ctx context.Context, fn func(products *ProductRepository, events *EventRepository) (bool, error)) (bool, error) {
	tx, err := tr.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}

	commit, err := fn(&ProductRepository{db: tr.db, txn: tx}, &EventRepository{db: tr.db, txn: tx})
	if err != nil || !commit {
		if rbErr := tx.Rollback(); rbErr != nil {
			return false, fmt.Errorf("failed to rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// CreateProductWithEvent inserts the product and its event in one transaction.
// It reports false, writing nothing, when the product id is already taken.
func (tr *TransactionalRepository) CreateProductWithEvent(ctx context.Context, product *model.Product, event *model.Event) (bool, error) {
	return tr.withinTransaction(ctx, func(products *ProductRepository, events *EventRepository) (bool, error) {
		created, err := products.CreateIfAbsent(ctx, product)
		if err != nil {
			return false, fmt.Errorf("failed to create product: %w", err)
		}
		if !created {
			return false, nil
		}

		if _, err := events.Create(ctx, event); err != nil {
			return false, fmt.Errorf("failed to create event: %w", err)
		}
		return true, nil
	})
}

// UpdateProductWithEvent updates the first matching product and records the event in one transaction.
func (tr *TransactionalRepository) UpdateProductWithEvent(ctx context.Context, query repository.Query, fields repository.ProductFields, event *model.Event) (bool, error) {
	return tr.withinTransaction(ctx, func(products *ProductRepository, events *EventRepository) (bool, error) {
		found, err := products.UpdateOne(ctx, query, fields)
		if err != nil {
			return false, fmt.Errorf("failed to update product: %w", err)
		}
		if !found {
			return false, nil
		}

		if _, err := events.Create(ctx, event); err != nil {
			return false, fmt.Errorf("failed to create event: %w", err)
		}
		return true, nil
	})
}

// DeleteProductWithEvent deletes the first matching product and records the event in one transaction.
func (tr *TransactionalRepository) DeleteProductWithEvent(ctx context.Context, query repository.Query, event *model.Event) (bool, error) {
	return tr.withinTransaction(ctx, func(products *ProductRepository, events *EventRepository) (bool, error) {
		found, err := products.DeleteOne(ctx, query)
		if err != nil {
			return false, fmt.Errorf("failed to delete product: %w", err)
		}
		if !found {
			return false, nil
		}

		if _, err := events.Create(ctx, event); err != nil {
			return false, fmt.Errorf("failed to create event: %w", err)
		}
		return true, nil
	})
}
