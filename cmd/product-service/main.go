package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/product-listings/internal/config"
	httpAPI "github.com/iyhunko/product-listings/internal/http"
	"github.com/iyhunko/product-listings/internal/http/controller"
	"github.com/iyhunko/product-listings/internal/logger"
	"github.com/iyhunko/product-listings/internal/metrics"
	"github.com/iyhunko/product-listings/internal/repository/sql"
	"github.com/iyhunko/product-listings/internal/service"
	sqspkg "github.com/iyhunko/product-listings/internal/sqs"
	"github.com/iyhunko/product-listings/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const shutdownTimeout = 10 * time.Second

func main() {
	conf, err := config.LoadFromEnv()
	handleErr("loading config", err)

	logger.InitJSONLogger(conf.DebugMode)
	if !conf.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracerProvider, err := telemetry.InitTracing(ctx, conf.Telemetry)
	handleErr("initializing tracing", err)

	db, err := sql.StartDB(ctx, conf.Database, conf.MigrationsPath)
	handleErr("starting database", err)

	// Create repositories
	productRepository := sql.NewProductRepository(db)
	eventRepository := sql.NewEventRepository(db)
	transactionalRepository := sql.NewTransactionalRepository(db)

	sqsClient, err := sqspkg.NewClient(ctx, conf.AWS)
	handleErr("creating SQS client", err)
	sqsPublisher := sqspkg.NewPublisher(sqsClient, conf.AWS.SQSQueueURL)

	productService := service.NewProductService(productRepository, transactionalRepository)

	outboxWorker := service.NewOutboxWorker(eventRepository, sqsPublisher, conf.OutboxInterval)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		outboxWorker.Start(ctx)
	}()

	router := httpAPI.InitRouter(gin.New(), controller.New(), controller.NewProductController(productService))
	httpServer := &http.Server{
		Addr:              ":" + conf.HTTPServer.Port,
		Handler:           otelhttp.NewHandler(router, "product-service"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("HTTP server starting", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			handleErr("listening to HTTP requests", err)
		}
	}()

	metricsServer := metrics.NewServer(conf.MetricsServer.Port)
	metrics.StartMetricsServer(metricsServer)

	<-ctx.Done()
	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", slog.Any("err", err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics server shutdown failed", slog.Any("err", err))
	}
	outboxWorker.Stop()
	<-workerDone
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		slog.Error("tracer provider shutdown failed", slog.Any("err", err))
	}
	if err := db.Close(); err != nil {
		slog.Error("closing database failed", slog.Any("err", err))
	}
	slog.Info("Shutdown complete")
}

func handleErr(msg string, err error) {
	if err != nil {
		log.Fatalf("error while %s: %v", msg, err)
	}
}
