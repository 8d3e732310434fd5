package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/iyhunko/product-listings/internal/model"
)

var (
	// ErrNotFound is returned when no stored record matches a lookup.
	ErrNotFound = errors.New("resource not found")
)

// ProductRepository is the product store contract.
// Find with an empty query returns every product; the order of the result is not part of the contract.
type ProductRepository interface {
	Find(ctx context.Context, query Query) ([]*model.Product, error)
	// CreateIfAbsent inserts the product unless its ProductID is already taken.
	// It reports false, with a nil error, on an id collision.
	CreateIfAbsent(ctx context.Context, product *model.Product) (created bool, err error)
	UpdateOne(ctx context.Context, query Query, fields ProductFields) (found bool, err error)
	DeleteOne(ctx context.Context, query Query) (found bool, err error)
}

// ProductEventWriter applies a product mutation and records its outbox event atomically.
type ProductEventWriter interface {
	CreateProductWithEvent(ctx context.Context, product *model.Product, event *model.Event) (created bool, err error)
	UpdateProductWithEvent(ctx context.Context, query Query, fields ProductFields, event *model.Event) (found bool, err error)
	DeleteProductWithEvent(ctx context.Context, query Query, event *model.Event) (found bool, err error)
}

// EventRepository stores outbox events.
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	ListPending(ctx context.Context, limit int) ([]*model.Event, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.EventStatus) error
}

// ProductFields holds the mutable part of a product.
type ProductFields struct {
	Title   string
	Content string
	Status  model.Status
}
