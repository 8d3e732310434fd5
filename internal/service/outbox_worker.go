package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iyhunko/product-listings/internal/metrics"
	"github.com/iyhunko/product-listings/internal/model"
	"github.com/iyhunko/product-listings/internal/repository"
	"github.com/iyhunko/product-listings/internal/sqs"
)

const outboxBatchSize = 100

// EventPublisher sends product messages to the broker.
type EventPublisher interface {
	PublishProductMessage(ctx context.Context, msg sqs.ProductMessage) error
}

// OutboxWorker polls the events table and processes pending events
type OutboxWorker struct {
	eventRepo repository.EventRepository
	publisher EventPublisher
	interval  time.Duration
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// NewOutboxWorker creates a new OutboxWorker
func NewOutboxWorker(eventRepo repository.EventRepository, publisher EventPublisher, interval time.Duration) *OutboxWorker {
	return &OutboxWorker{
		eventRepo: eventRepo,
		publisher: publisher,
		interval:  interval,
		stopChan:  make(chan struct{}),
	}
}

// Start begins processing events from the outbox
func (w *OutboxWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("Outbox worker started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox worker stopped by context")
			return
		case <-w.stopChan:
			slog.Info("Outbox worker stopped")
			return
		case <-ticker.C:
			w.ProcessEvents(ctx)
		}
	}
}

// Stop ends the Start loop. It is safe to call more than once.
func (w *OutboxWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
}

// ProcessEvents publishes one batch of pending events and marks each processed or failed.
func (w *OutboxWorker) ProcessEvents(ctx context.Context) {
	events, err := w.eventRepo.ListPending(ctx, outboxBatchSize)
	if err != nil {
		slog.Error("Failed to retrieve pending events", slog.Any("err", err))
		return
	}

	if len(events) == 0 {
		return
	}

	slog.Info("Processing pending events", slog.Int("count", len(events)))

	for _, event := range events {
		status := model.EventStatusProcessed
		if err := w.processEvent(ctx, event); err != nil {
			slog.Error("Failed to process event",
				slog.String("event_id", event.ID.String()),
				slog.String("event_type", event.EventType),
				slog.Any("err", err))
			status = model.EventStatusFailed
		}
		metrics.OutboxEvents.WithLabelValues(string(status)).Inc()

		if updateErr := w.eventRepo.UpdateStatus(ctx, event.ID, status); updateErr != nil {
			slog.Error("Failed to update event status",
				slog.String("event_id", event.ID.String()),
				slog.String("status", string(status)),
				slog.Any("err", updateErr))
		}
	}
}

// processEvent publishes a single event to SQS
func (w *OutboxWorker) processEvent(ctx context.Context, event *model.Event) error {
	var productMsg sqs.ProductMessage
	if err := json.Unmarshal(event.EventData, &productMsg); err != nil {
		return fmt.Errorf("failed to decode event data: %w", err)
	}

	return w.publisher.PublishProductMessage(ctx, productMsg)
}
