package service_test

import (
	"context"
	"database/sql"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/iyhunko/product-listings/internal/model"
	reposql "github.com/iyhunko/product-listings/internal/repository/sql"
	"github.com/iyhunko/product-listings/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

var productRowColumns = []string{"product_id", "title", "content", "author", "password", "status", "created_at"}

func newSQLService(db *sql.DB) *service.ProductService {
	return service.NewProductService(reposql.NewProductRepository(db), reposql.NewTransactionalRepository(db))
}

func expectProductLookup(mock sqlmock.Sqlmock, productID string, rows *sqlmock.Rows) {
	mock.ExpectPrepare(regexp.QuoteMeta("FROM products WHERE product_id = $1 ORDER BY created_at DESC")).
		ExpectQuery().
		WithArgs(productID).
		WillReturnRows(rows)
}

// TestCreateProduct_OutboxPattern verifies that product creation and event creation
// happen within the same transaction (outbox pattern).
func TestCreateProduct_OutboxPattern(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO products").
		ExpectExec().
		WithArgs(sqlmock.AnyArg(), "Test Product", "Test Content", "alice", "secret", "FOR_SALE", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectPrepare("INSERT INTO events").
		ExpectExec().
		WithArgs(sqlmock.AnyArg(), model.EventTypeProductCreated, sqlmock.AnyArg(), string(model.EventStatusPending), sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	product, err := newSQLService(db).CreateProduct(ctx, service.CreateProductInput{
		Title: "Test Product", Content: "Test Content", Author: "alice", Password: "secret",
	})

	require.NoError(t, err)
	assert.Equal(t, "Test Product", product.Title)
	assert.Equal(t, model.StatusForSale, product.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCreateProduct_OutboxPattern_Collision verifies that a taken id rolls back and is retried.
func TestCreateProduct_OutboxPattern_Collision(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO products").
		ExpectExec().
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO products").
		ExpectExec().
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectPrepare("INSERT INTO events").
		ExpectExec().
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	product, err := newSQLService(db).CreateProduct(ctx, service.CreateProductInput{Title: "Test Product", Password: "secret"})

	require.NoError(t, err)
	assert.NotNil(t, product)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCreateProduct_OutboxPattern_Rollback verifies that when an error occurs
// during event creation, the entire transaction is rolled back.
func TestCreateProduct_OutboxPattern_Rollback(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO products").
		ExpectExec().
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectPrepare("INSERT INTO events").
		ExpectExec().
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	product, err := newSQLService(db).CreateProduct(ctx, service.CreateProductInput{Title: "Test Product", Password: "secret"})

	require.Error(t, err)
	assert.Nil(t, product)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUpdateProduct_OutboxPattern verifies that product update and event creation
// happen within the same transaction.
func TestUpdateProduct_OutboxPattern(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	productID := "Ab3dEf6hIj9kLm2oPq5sTu8wXy1zA4"

	rows := sqlmock.NewRows(productRowColumns).
		AddRow(productID, "Old", "Old content", "alice", "secret", "FOR_SALE", time.Now().UTC())
	expectProductLookup(mock, productID, rows)

	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta("UPDATE products SET title = $1, content = $2, status = $3")).
		ExpectExec().
		WithArgs("New", "New content", "SOLD_OUT", productID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectPrepare("INSERT INTO events").
		ExpectExec().
		WithArgs(sqlmock.AnyArg(), model.EventTypeProductUpdated, sqlmock.AnyArg(), string(model.EventStatusPending), sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = newSQLService(db).UpdateProduct(ctx, productID, service.UpdateProductInput{
		Title: "New", Content: "New content", Password: "secret", Status: model.StatusSoldOut,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUpdateProduct_WrongPassword verifies that nothing is written without authorization.
func TestUpdateProduct_WrongPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	productID := "Ab3dEf6hIj9kLm2oPq5sTu8wXy1zA4"
	rows := sqlmock.NewRows(productRowColumns).
		AddRow(productID, "Old", "Old content", "alice", "secret", "FOR_SALE", time.Now().UTC())
	expectProductLookup(mock, productID, rows)

	err = newSQLService(db).UpdateProduct(context.Background(), productID, service.UpdateProductInput{
		Title: "New", Password: "guess", Status: model.StatusSoldOut,
	})

	var svcErr *service.Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, http.StatusUnauthorized, svcErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestDeleteProduct_OutboxPattern verifies that product deletion and event creation
// happen within the same transaction (outbox pattern).
func TestDeleteProduct_OutboxPattern(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	productID := "Ab3dEf6hIj9kLm2oPq5sTu8wXy1zA4"

	rows := sqlmock.NewRows(productRowColumns).
		AddRow(productID, "Title", "Content", "alice", "secret", "FOR_SALE", time.Now().UTC())
	expectProductLookup(mock, productID, rows)

	mock.ExpectBegin()
	mock.ExpectPrepare("DELETE FROM products WHERE product_id IN").
		ExpectExec().
		WithArgs(productID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectPrepare("INSERT INTO events").
		ExpectExec().
		WithArgs(sqlmock.AnyArg(), model.EventTypeProductDeleted, sqlmock.AnyArg(), string(model.EventStatusPending), sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = newSQLService(db).DeleteProduct(ctx, productID, "secret")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestDeleteProduct_StoreFailure verifies that a failing store is reported as a lookup failure.
func TestDeleteProduct_StoreFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPrepare("FROM products WHERE product_id").
		ExpectQuery().
		WillReturnError(sql.ErrConnDone)

	err = newSQLService(db).DeleteProduct(context.Background(), "whatever", "secret")

	var svcErr *service.Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, http.StatusNotFound, svcErr.Code)
	assert.Equal(t, service.MsgLookupFailed, svcErr.Message)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}
