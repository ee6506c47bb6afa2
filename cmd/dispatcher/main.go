// cmd/dispatcher/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	http_api "video-dispatcher/internal/api/http"
	"video-dispatcher/internal/app"
	"video-dispatcher/internal/config"
	"video-dispatcher/internal/infra/kafka"
	"video-dispatcher/internal/logging"
	"video-dispatcher/internal/tracing"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize logger and tracer
	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	tracerShutdown, err := tracing.InitTracer(cfg.TracingOptions())
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tracerShutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", "error", err)
		}
	}()

	logger.Info("starting video dispatcher", "cluster", cfg.Cluster, "task_definition", cfg.TaskDefinition)

	// 3. Create root context for lifecycle management
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupGracefulShutdown(cancel, logger)

	// 4. Instantiate components
	dispatcher, err := app.NewDispatcher(rootCtx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to build dispatcher: %v", err)
	}

	// 5. Optional kafka intake
	if len(cfg.KafkaBrokers) > 0 {
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.KafkaTopic, dispatcher, logger)
		if err != nil {
			log.Fatalf("Failed to create kafka consumer: %v", err)
		}
		defer consumer.Close()

		go func() {
			if err := consumer.Run(rootCtx); err != nil {
				logger.Error("kafka consumer stopped with error", "error", err)
			}
		}()
	}

	// 6. Start HTTP webhook server
	gin.SetMode(gin.ReleaseMode)
	handler := http_api.NewEventHandler(dispatcher, logger)
	server := &http.Server{
		Addr:              cfg.HttpListenAddr,
		Handler:           http_api.SetupRouter(handler, cfg.WebhookAuthToken),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", cfg.HttpListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// 7. Block until shutdown
	<-rootCtx.Done()
	logger.Info("shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	logger.Info("dispatcher shut down")
}

func setupGracefulShutdown(cancel context.CancelFunc, logger *slog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received signal, initiating graceful shutdown", "signal", sig.String())
		cancel()
	}()
}
