package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/iyhunko/product-listings/internal/metrics"
)

const (
	receiveBatchSize   = 10
	longPollWaitSecond = 20
)

// ErrRejectedMessage marks a queue message that is not a usable listing notification.
// Rejected messages stay on the queue so the redrive policy can move them aside.
var ErrRejectedMessage = errors.New("rejected listing message")

// ConsumerAPI defines the interface for SQS operations used by Consumer.
type ConsumerAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// ListingHandler reacts to one listing lifecycle notification.
// Returning an error leaves the message on the queue for redelivery.
type ListingHandler func(ctx context.Context, msg ProductMessage) error

// ConsumerOption customizes a Consumer.
type ConsumerOption func(*Consumer)

// WithListingHandler replaces the default handler, which only logs the notification.
func WithListingHandler(h ListingHandler) ConsumerOption {
	return func(c *Consumer) {
		c.handle = h
	}
}

// Consumer reads listing notifications from SQS and acknowledges the ones it handled.
type Consumer struct {
	client   ConsumerAPI
	queueURL string
	handle   ListingHandler
}

// NewConsumer creates a new SQS Consumer with the given client and queue URL.
func NewConsumer(client ConsumerAPI, queueURL string, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		client:   client,
		queueURL: queueURL,
		handle:   LogListingNotification,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LogListingNotification writes one log line per listing change.
func LogListingNotification(ctx context.Context, msg ProductMessage) error {
	attrs := []any{
		slog.String("product_id", msg.ProductID),
		slog.String("action", msg.Action),
	}
	if msg.Action != ActionDeleted {
		attrs = append(attrs,
			slog.String("title", msg.Title),
			slog.String("author", msg.Author),
			slog.String("status", msg.Status),
		)
	}
	slog.InfoContext(ctx, "Listing "+msg.Action, attrs...)
	return nil
}

// Start polls the queue until the context is cancelled and returns the context error.
func (c *Consumer) Start(ctx context.Context) error {
	slog.Info("Listening for listing notifications", slog.String("queue_url", c.queueURL))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Notification consumer stopped")
			return ctx.Err()
		default:
			if err := c.receiveMessages(ctx); err != nil {
				slog.Error("Polling listing notifications failed", slog.Any("err", err))
			}
		}
	}
}

func (c *Consumer) receiveMessages(ctx context.Context) error {
	result, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: receiveBatchSize,
		WaitTimeSeconds:     longPollWaitSecond,
	})
	if err != nil {
		return fmt.Errorf("failed to receive messages: %w", err)
	}

	for _, message := range result.Messages {
		msg, err := c.processMessage(ctx, message)
		if err != nil {
			metrics.NotificationsConsumed.WithLabelValues(msg.Action, "rejected").Inc()
			slog.Warn("Listing notification left on queue",
				slog.String("message_id", aws.ToString(message.MessageId)),
				slog.String("product_id", msg.ProductID),
				slog.Any("err", err))
			continue
		}
		metrics.NotificationsConsumed.WithLabelValues(msg.Action, "handled").Inc()

		if err := c.deleteMessage(ctx, message); err != nil {
			slog.Error("Acknowledging listing notification failed",
				slog.String("product_id", msg.ProductID),
				slog.Any("err", err))
		}
	}

	return nil
}

// processMessage decodes and validates one notification, then hands it to the handler.
// The decoded message is returned even on failure so callers can label it.
func (c *Consumer) processMessage(ctx context.Context, message types.Message) (ProductMessage, error) {
	var msg ProductMessage
	if message.Body == nil {
		return msg, fmt.Errorf("%w: message body is nil", ErrRejectedMessage)
	}
	if err := json.Unmarshal([]byte(*message.Body), &msg); err != nil {
		return msg, fmt.Errorf("%w: failed to unmarshal message: %v", ErrRejectedMessage, err)
	}
	if msg.ProductID == "" {
		return msg, fmt.Errorf("%w: message has no product_id", ErrRejectedMessage)
	}
	switch msg.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return msg, fmt.Errorf("%w: unknown action %q", ErrRejectedMessage, msg.Action)
	}

	if err := c.handle(ctx, msg); err != nil {
		return msg, fmt.Errorf("handling %s notification for %s: %w", msg.Action, msg.ProductID, err)
	}
	return msg, nil
}

func (c *Consumer) deleteMessage(ctx context.Context, message types.Message) error {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: message.ReceiptHandle,
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}
