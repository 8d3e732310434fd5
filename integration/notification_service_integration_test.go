package integration

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/iyhunko/product-listings/internal/model"
	"github.com/iyhunko/product-listings/internal/repository"
	reposql "github.com/iyhunko/product-listings/internal/repository/sql"
	"github.com/iyhunko/product-listings/internal/service"
	sqspkg "github.com/iyhunko/product-listings/internal/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testQueueURL = "https://sqs.us-east-1.amazonaws.com/123456789/test-queue"

// MockSQSClient implements the ConsumerAPI interface for testing.
type MockSQSClient struct {
	mock.Mock
}

func (m *MockSQSClient) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.ReceiveMessageOutput), args.Error(1)
}

func (m *MockSQSClient) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.DeleteMessageOutput), args.Error(1)
}

// memoryQueue is an in-process stand-in for a single SQS queue.
type memoryQueue struct {
	mu       sync.Mutex
	messages []types.Message
	deleted  []string
	seq      int
}

func (q *memoryQueue) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	handle := "receipt-" + string(rune('a'+q.seq))
	q.messages = append(q.messages, types.Message{Body: params.MessageBody, ReceiptHandle: aws.String(handle)})
	return &sqs.SendMessageOutput{}, nil
}

func (q *memoryQueue) ReceiveMessage(_ context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := &sqs.ReceiveMessageOutput{Messages: q.messages}
	q.messages = nil
	return out, nil
}

func (q *memoryQueue) DeleteMessage(_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deleted = append(q.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (q *memoryQueue) deletedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.deleted)
}

func bodyOf(t *testing.T, msg sqspkg.ProductMessage) *string {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	return aws.String(string(data))
}

func runConsumer(t *testing.T, consumer *sqspkg.Consumer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- consumer.Start(ctx)
	}()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Test timed out")
	}
}

func TestNotificationService_Integration(t *testing.T) {
	tests := []struct {
		name       string
		messages   []types.Message
		wantDelete []string
	}{
		{
			name: "product created message is acknowledged",
			messages: []types.Message{{
				Body:          bodyOf(t, sqspkg.ProductMessage{Action: "created", ProductID: "Ab3dEf6hIj9kLm2oPq5sTu8wXy1zA4", Title: "Bike", Author: "alice", Status: "FOR_SALE"}),
				ReceiptHandle: aws.String("receipt-created"),
			}},
			wantDelete: []string{"receipt-created"},
		},
		{
			name: "product deleted message is acknowledged",
			messages: []types.Message{{
				Body:          bodyOf(t, sqspkg.ProductMessage{Action: "deleted", ProductID: "Ab3dEf6hIj9kLm2oPq5sTu8wXy1zA4"}),
				ReceiptHandle: aws.String("receipt-deleted"),
			}},
			wantDelete: []string{"receipt-deleted"},
		},
		{
			name: "batch of messages",
			messages: []types.Message{
				{Body: bodyOf(t, sqspkg.ProductMessage{Action: "created", ProductID: "one"}), ReceiptHandle: aws.String("receipt-1")},
				{Body: bodyOf(t, sqspkg.ProductMessage{Action: "updated", ProductID: "two"}), ReceiptHandle: aws.String("receipt-2")},
				{Body: bodyOf(t, sqspkg.ProductMessage{Action: "deleted", ProductID: "three"}), ReceiptHandle: aws.String("receipt-3")},
			},
			wantDelete: []string{"receipt-1", "receipt-2", "receipt-3"},
		},
		{
			name:     "invalid json is left on the queue",
			messages: []types.Message{{Body: aws.String("invalid json message"), ReceiptHandle: aws.String("receipt-invalid")}},
		},
		{
			name:     "nil body is left on the queue",
			messages: []types.Message{{ReceiptHandle: aws.String("receipt-nil")}},
		},
		{
			name: "message without product id is left on the queue",
			messages: []types.Message{{
				Body:          bodyOf(t, sqspkg.ProductMessage{Action: "created", Title: "Bike"}),
				ReceiptHandle: aws.String("receipt-anonymous"),
			}},
		},
		{
			name: "message with unknown action is left on the queue",
			messages: []types.Message{{
				Body:          bodyOf(t, sqspkg.ProductMessage{Action: "archived", ProductID: "Ab3dEf6hIj9kLm2oPq5sTu8wXy1zA4"}),
				ReceiptHandle: aws.String("receipt-archived"),
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := new(MockSQSClient)
			consumer := sqspkg.NewConsumer(mockClient, testQueueURL)

			mockClient.On("ReceiveMessage", mock.Anything, mock.Anything).
				Return(&sqs.ReceiveMessageOutput{Messages: tt.messages}, nil).Once()
			for _, handle := range tt.wantDelete {
				handle := handle
				mockClient.On("DeleteMessage", mock.Anything, mock.MatchedBy(func(params *sqs.DeleteMessageInput) bool {
					return aws.ToString(params.ReceiptHandle) == handle
				})).Return(&sqs.DeleteMessageOutput{}, nil).Once()
			}
			// Return empty messages on subsequent calls
			mockClient.On("ReceiveMessage", mock.Anything, mock.Anything).
				Return(&sqs.ReceiveMessageOutput{Messages: []types.Message{}}, nil)

			runConsumer(t, consumer)

			mockClient.AssertExpectations(t)
			mockClient.AssertNumberOfCalls(t, "DeleteMessage", len(tt.wantDelete))
		})
	}
}

func TestOutboxToConsumer_Integration(t *testing.T) {
	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)
	testDB.TruncateTables(t)

	ctx := context.Background()
	queue := &memoryQueue{}

	productRepo := reposql.NewProductRepository(testDB.DB)
	eventRepo := reposql.NewEventRepository(testDB.DB)
	productService := service.NewProductService(productRepo, reposql.NewTransactionalRepository(testDB.DB))

	product, err := productService.CreateProduct(ctx, service.CreateProductInput{Title: "Bike", Content: "Barely used", Author: "alice", Password: "secret"})
	require.NoError(t, err)
	require.NoError(t, productService.UpdateProduct(ctx, product.ProductID, service.UpdateProductInput{
		Title: "Bike", Content: "Sold", Password: "secret", Status: model.StatusSoldOut,
	}))
	require.NoError(t, productService.DeleteProduct(ctx, product.ProductID, "secret"))

	pending, err := eventRepo.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, model.EventTypeProductCreated, pending[0].EventType)
	assert.Equal(t, model.EventTypeProductUpdated, pending[1].EventType)
	assert.Equal(t, model.EventTypeProductDeleted, pending[2].EventType)

	worker := service.NewOutboxWorker(eventRepo, sqspkg.NewPublisher(queue, testQueueURL), time.Second)
	worker.ProcessEvents(ctx)

	pending, err = eventRepo.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	processed, err := testDB.Event(t, testDB.EventIDByType(t, model.EventTypeProductDeleted))
	require.NoError(t, err)
	assert.Equal(t, model.EventStatusProcessed, processed.Status)
	assert.NotNil(t, processed.ProcessedAt)

	for _, msg := range queue.messages {
		assert.NotContains(t, aws.ToString(msg.Body), "secret")
	}

	runConsumer(t, sqspkg.NewConsumer(queue, testQueueURL))
	assert.Equal(t, 3, queue.deletedCount())

	remaining, err := productRepo.Find(ctx, repository.ByProductID(product.ProductID))
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
