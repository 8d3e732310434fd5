package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/product-listings/internal/model"
	"github.com/iyhunko/product-listings/internal/service"
)

// ProductService is the product use-case surface the controller drives.
type ProductService interface {
	ListProducts(ctx context.Context) ([]*model.Product, error)
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	CreateProduct(ctx context.Context, in service.CreateProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, productID string, in service.UpdateProductInput) error
	DeleteProduct(ctx context.Context, productID, password string) error
}

// ProductController handles HTTP requests for product operations.
type ProductController struct {
	productService ProductService
}

// NewProductController creates a new ProductController with the given product service.
func NewProductController(productService ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// CreateProductRequest represents the request body for creating a product.
type CreateProductRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Author   string `json:"author"`
	Password string `json:"password"`
}

// UpdateProductRequest represents the request body for updating a product.
type UpdateProductRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Password string `json:"password"`
	Status   string `json:"status"`
}

// DeleteProductRequest represents the request body for deleting a product.
type DeleteProductRequest struct {
	Password string `json:"password"`
}

// ProductSummary is a product as shown in the list.
type ProductSummary struct {
	Title     string       `json:"title"`
	Author    string       `json:"author"`
	Status    model.Status `json:"status"`
	ProductID string       `json:"productId"`
	CreatedAt time.Time    `json:"createdAt"`
}

// ProductDetail is a single product without its id and password.
type ProductDetail struct {
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Author    string       `json:"author"`
	Status    model.Status `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

// ListProductsResponse represents the response body for listing products.
type ListProductsResponse struct {
	Data []ProductSummary `json:"data"`
}

// CreateProductResponse echoes the stored product, password included, to its creator.
type CreateProductResponse struct {
	Products *model.Product `json:"products"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage"`
}

// ListProducts handles the HTTP GET request for listing products, newest first.
func (pc *ProductController) ListProducts(c *gin.Context) {
	products, err := pc.productService.ListProducts(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}

	response := ListProductsResponse{Data: make([]ProductSummary, 0, len(products))}
	for _, product := range products {
		response.Data = append(response.Data, ProductSummary{
			Title:     product.Title,
			Author:    product.Author,
			Status:    product.Status,
			ProductID: product.ProductID,
			CreatedAt: product.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, response)
}

// GetProduct handles the HTTP GET request for a single product.
func (pc *ProductController) GetProduct(c *gin.Context) {
	product, err := pc.productService.GetProduct(c.Request.Context(), c.Param("productId"))
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, ProductDetail{
		Title:     product.Title,
		Content:   product.Content,
		Author:    product.Author,
		Status:    product.Status,
		CreatedAt: product.CreatedAt,
	})
}

// CreateProduct handles the HTTP POST request for creating a new product.
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if !bindBody(c, &req) {
		req = CreateProductRequest{}
	}

	product, err := pc.productService.CreateProduct(c.Request.Context(), service.CreateProductInput{
		Title:    req.Title,
		Content:  req.Content,
		Author:   req.Author,
		Password: req.Password,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, CreateProductResponse{Products: product})
}

// UpdateProduct handles the HTTP PUT request for updating a product.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	var req UpdateProductRequest
	if !bindBody(c, &req) {
		req = UpdateProductRequest{}
	}

	err := pc.productService.UpdateProduct(c.Request.Context(), c.Param("productId"), service.UpdateProductInput{
		Title:    req.Title,
		Content:  req.Content,
		Password: req.Password,
		Status:   model.Status(req.Status),
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "product updated"})
}

// DeleteProduct handles the HTTP DELETE request for deleting a product.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	var req DeleteProductRequest
	if !bindBody(c, &req) {
		req = DeleteProductRequest{}
	}

	if err := pc.productService.DeleteProduct(c.Request.Context(), c.Param("productId"), req.Password); err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

// bindBody decodes a JSON body into req and reports whether it succeeded.
// Callers treat a missing or malformed body as one with every field empty.
func bindBody(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		slog.DebugContext(c.Request.Context(), "ignoring undecodable request body", slog.Any("err", err))
		return false
	}
	return true
}

func renderError(c *gin.Context, err error) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		c.JSON(svcErr.Code, ErrorResponse{Success: false, ErrorMessage: svcErr.Message})
		return
	}

	slog.ErrorContext(c.Request.Context(), "request failed",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Any("err", err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false, ErrorMessage: service.MsgInternal})
}
