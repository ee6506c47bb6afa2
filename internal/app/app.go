// Package app wires the dispatcher to its storage, compute and tracking adapters.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"video-dispatcher/internal/config"
	"video-dispatcher/internal/dispatcher"
	"video-dispatcher/internal/infra/ecs"
	trackinghttp "video-dispatcher/internal/infra/http"
	"video-dispatcher/internal/infra/storage"
)

// NewDispatcher builds a dispatcher from validated configuration. Clients are
// created once and reused across batches.
func NewDispatcher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dispatcher.Dispatcher, error) {
	store, err := storage.NewMinioObjectStore(storage.Options{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.AWSRegion,
		UseSSL:    cfg.S3UseSSL,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	launcher, err := ecs.NewEcsTaskLauncher(ctx, cfg.AWSRegion, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create ecs client: %w", err)
	}

	reporter := trackinghttp.NewTrackingClient(cfg.APIBaseURL, cfg.APIKey, cfg.TrackingTimeout, logger)

	return dispatcher.New(store, launcher, reporter, cfg.LaunchSpec(),
		dispatcher.Options{ContinueOnError: cfg.ContinueOnError}, logger), nil
}
