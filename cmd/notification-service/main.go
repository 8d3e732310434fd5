package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/iyhunko/product-listings/internal/config"
	"github.com/iyhunko/product-listings/internal/logger"
	sqspkg "github.com/iyhunko/product-listings/internal/sqs"
)

func main() {
	conf, err := config.LoadAWSFromEnv()
	handleErr("loading config", err)

	logger.InitJSONLogger(false)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqsClient, err := sqspkg.NewClient(ctx, *conf)
	handleErr("creating SQS client", err)
	consumer := sqspkg.NewConsumer(sqsClient, conf.SQSQueueURL)

	slog.Info("Notification service started. Listening for messages...")

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Consumer error", slog.Any("err", err))
	}

	slog.Info("Shutting down gracefully...")
}

func handleErr(msg string, err error) {
	if err != nil {
		log.Fatalf("error while %s: %v", msg, err)
	}
}
