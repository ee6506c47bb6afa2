// cmd/lambda/main.go
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"video-dispatcher/internal/app"
	"video-dispatcher/internal/config"
	"video-dispatcher/internal/domain"
	"video-dispatcher/internal/logging"
	"video-dispatcher/internal/tracing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
)

// toBatch converts the runtime's event type into a domain batch. Keys stay
// URL-encoded; the domain decodes them.
func toBatch(event events.S3Event) domain.Batch {
	batch := domain.Batch{Records: make([]domain.ChangeNotification, 0, len(event.Records))}
	for _, rec := range event.Records {
		batch.Records = append(batch.Records, domain.ChangeNotification{
			EventName: rec.EventName,
			S3: domain.S3Entity{
				Bucket: domain.S3Bucket{Name: rec.S3.Bucket.Name},
				Object: domain.S3Object{Key: rec.S3.Object.Key, Size: rec.S3.Object.Size},
			},
		})
	}
	return batch
}

// newHandler returns the invocation handler. A failed batch is returned as an
// error so the runtime records the invocation as failed.
func newHandler(d domain.Dispatcher) func(ctx context.Context, event events.S3Event) error {
	return func(ctx context.Context, event events.S3Event) error {
		return d.DispatchBatch(ctx, toBatch(event)).Err()
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	tracerShutdown, err := tracing.InitTracer(cfg.TracingOptions())
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		_ = tracerShutdown(context.Background())
	}()

	dispatcher, err := app.NewDispatcher(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("Failed to build dispatcher: %v", err)
	}

	lambda.Start(newHandler(dispatcher))
}
