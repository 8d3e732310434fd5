package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/iyhunko/product-listings/internal/metrics"
	"github.com/iyhunko/product-listings/internal/model"
	"github.com/iyhunko/product-listings/internal/repository"
	"github.com/iyhunko/product-listings/internal/sqs"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxIDAttempts bounds the generate-and-reserve loop of CreateProduct.
const maxIDAttempts = 10

// CreateProductInput is the client-supplied part of a new product.
type CreateProductInput struct {
	Title    string
	Content  string
	Author   string
	Password string
}

// UpdateProductInput carries the fields an update may change plus the ownership password.
type UpdateProductInput struct {
	Title    string
	Content  string
	Password string
	Status   model.Status
}

type ProductService struct {
	repo       repository.ProductRepository
	writer     repository.ProductEventWriter
	authorizer Authorizer
	newID      IDGenerator
	tracer     trace.Tracer
}

// Option customizes a ProductService.
type Option func(*ProductService)

// WithAuthorizer replaces the default plaintext password check.
func WithAuthorizer(authorizer Authorizer) Option {
	return func(ps *ProductService) {
		ps.authorizer = authorizer
	}
}

// WithIDGenerator replaces the random product id source.
func WithIDGenerator(gen IDGenerator) Option {
	return func(ps *ProductService) {
		ps.newID = gen
	}
}

// NewProductService builds the service. Reads go through repo, mutations through writer
// so that each one records its outbox event in the same transaction.
func NewProductService(repo repository.ProductRepository, writer repository.ProductEventWriter, opts ...Option) *ProductService {
	ps := &ProductService{
		repo:       repo,
		writer:     writer,
		authorizer: PlaintextAuthorizer{},
		newID:      RandomProductID,
		tracer:     otel.Tracer("github.com/iyhunko/product-listings/internal/service"),
	}
	for _, opt := range opts {
		opt(ps)
	}
	return ps
}

// ListProducts returns every product, most recently created first.
func (ps *ProductService) ListProducts(ctx context.Context) ([]*model.Product, error) {
	ctx, span := ps.tracer.Start(ctx, "ProductService.ListProducts")
	defer span.End()

	products, err := ps.repo.Find(ctx, *repository.NewQuery())
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	span.SetAttributes(attribute.Int("product.count", len(products)))

	return products, nil
}

// GetProduct returns the product with the given id.
// An unknown id is reported as a bad request, like an empty one.
func (ps *ProductService) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	ctx, span := ps.tracer.Start(ctx, "ProductService.GetProduct", trace.WithAttributes(attribute.String("product.id", productID)))
	defer span.End()

	if productID == "" {
		return nil, newError(http.StatusBadRequest, MsgInvalidDataFormat, nil)
	}

	products, err := ps.repo.Find(ctx, repository.ByProductID(productID))
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if len(products) == 0 {
		return nil, newError(http.StatusBadRequest, MsgLookupFailed, nil)
	}

	return products[0], nil
}

// CreateProduct stores a new FOR_SALE product under a freshly reserved id.
func (ps *ProductService) CreateProduct(ctx context.Context, in CreateProductInput) (*model.Product, error) {
	ctx, span := ps.tracer.Start(ctx, "ProductService.CreateProduct")
	defer span.End()

	if in.Password == "" {
		return nil, newError(http.StatusBadRequest, MsgPasswordRequired, nil)
	}

	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		productID, err := ps.newID()
		if err != nil {
			recordError(span, err)
			return nil, fmt.Errorf("failed to generate product id: %w", err)
		}

		product := &model.Product{
			ProductID: productID,
			Title:     in.Title,
			Content:   in.Content,
			Author:    in.Author,
			Password:  in.Password,
		}
		product.InitMeta()

		event, err := newProductEvent(model.EventTypeProductCreated, sqs.ActionCreated, product)
		if err != nil {
			return nil, err
		}

		created, err := ps.writer.CreateProductWithEvent(ctx, product, event)
		if err != nil {
			recordError(span, err)
			return nil, fmt.Errorf("failed to create product: %w", err)
		}
		if created {
			metrics.ProductsCreated.Inc()
			span.SetAttributes(attribute.String("product.id", productID), attribute.Int("product.id_attempts", attempt))
			slog.InfoContext(ctx, "product created", slog.String("product_id", productID))
			return product, nil
		}

		metrics.ProductIDCollisions.Inc()
		slog.WarnContext(ctx, "generated product id collided, regenerating", slog.Int("attempt", attempt))
	}

	recordError(span, ErrIDExhausted)
	return nil, ErrIDExhausted
}

// UpdateProduct changes title, content and status of a product whose password matches.
func (ps *ProductService) UpdateProduct(ctx context.Context, productID string, in UpdateProductInput) error {
	ctx, span := ps.tracer.Start(ctx, "ProductService.UpdateProduct", trace.WithAttributes(attribute.String("product.id", productID)))
	defer span.End()

	product, err := ps.lookup(ctx, span, productID)
	if err != nil {
		return err
	}

	if !in.Status.Valid() {
		return newError(http.StatusPaymentRequired, MsgInvalidStatus, nil)
	}

	if !ps.authorizer.Authorize(product, in.Password) {
		metrics.AuthorizationFailures.WithLabelValues("update").Inc()
		slog.WarnContext(ctx, "product update rejected", slog.String("product_id", productID))
		return newError(http.StatusUnauthorized, MsgNotAuthorized, nil)
	}

	updated := *product
	updated.Title = in.Title
	updated.Content = in.Content
	updated.Status = in.Status
	event, err := newProductEvent(model.EventTypeProductUpdated, sqs.ActionUpdated, &updated)
	if err != nil {
		return err
	}

	fields := repository.ProductFields{Title: in.Title, Content: in.Content, Status: in.Status}
	found, err := ps.writer.UpdateProductWithEvent(ctx, repository.ByProductID(productID), fields, event)
	if err != nil {
		return ps.lookupFailed(ctx, span, productID, err)
	}
	if !found {
		return missingProduct(productID)
	}

	metrics.ProductsUpdated.Inc()
	slog.InfoContext(ctx, "product updated", slog.String("product_id", productID))
	return nil
}

// DeleteProduct removes a product whose password matches.
func (ps *ProductService) DeleteProduct(ctx context.Context, productID, password string) error {
	ctx, span := ps.tracer.Start(ctx, "ProductService.DeleteProduct", trace.WithAttributes(attribute.String("product.id", productID)))
	defer span.End()

	product, err := ps.lookup(ctx, span, productID)
	if err != nil {
		return err
	}

	if !ps.authorizer.Authorize(product, password) {
		metrics.AuthorizationFailures.WithLabelValues("delete").Inc()
		slog.WarnContext(ctx, "product delete rejected", slog.String("product_id", productID))
		return newError(http.StatusUnauthorized, MsgNotAuthorized, nil)
	}

	event, err := newProductEvent(model.EventTypeProductDeleted, sqs.ActionDeleted, product)
	if err != nil {
		return err
	}

	found, err := ps.writer.DeleteProductWithEvent(ctx, repository.ByProductID(productID), event)
	if err != nil {
		return ps.lookupFailed(ctx, span, productID, err)
	}
	if !found {
		return missingProduct(productID)
	}

	metrics.ProductsDeleted.Inc()
	slog.InfoContext(ctx, "product deleted", slog.String("product_id", productID))
	return nil
}

// lookup loads the product a mutation targets.
func (ps *ProductService) lookup(ctx context.Context, span trace.Span, productID string) (*model.Product, error) {
	products, err := ps.repo.Find(ctx, repository.ByProductID(productID))
	if err != nil {
		return nil, ps.lookupFailed(ctx, span, productID, err)
	}
	if len(products) == 0 {
		return nil, missingProduct(productID)
	}
	return products[0], nil
}

func (ps *ProductService) lookupFailed(ctx context.Context, span trace.Span, productID string, cause error) error {
	recordError(span, cause)
	slog.ErrorContext(ctx, "product store failure", slog.String("product_id", productID), slog.Any("err", cause))
	return newError(http.StatusNotFound, MsgLookupFailed, cause)
}

func newProductEvent(eventType, action string, product *model.Product) (*model.Event, error) {
	data, err := json.Marshal(sqs.ProductMessage{
		Action:    action,
		ProductID: product.ProductID,
		Title:     product.Title,
		Author:    product.Author,
		Status:    string(product.Status),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}

	return &model.Event{
		EventType: eventType,
		EventData: data,
		Status:    model.EventStatusPending,
	}, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
