package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"video-dispatcher/internal/domain"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Options configure the connection to S3 or an S3-compatible endpoint.
type Options struct {
	Endpoint  string
	Region    string
	UseSSL    bool
	AccessKey string
	SecretKey string
}

// statAPI is the part of *minio.Client the store needs.
type statAPI interface {
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

type minioObjectStore struct {
	client statAPI
	logger *slog.Logger
	tracer trace.Tracer
}

// NewMinioObjectStore connects to the storage endpoint. Static keys are used when
// given, otherwise credentials come from the AWS environment variables or the
// instance/task role.
func NewMinioObjectStore(opts Options, logger *slog.Logger) (domain.ObjectStore, error) {
	creds := credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, "")
	if opts.AccessKey == "" {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.IAM{Client: &http.Client{Transport: http.DefaultTransport}},
		})
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio connection: %w", err)
	}
	return newObjectStore(client, logger), nil
}

func newObjectStore(client statAPI, logger *slog.Logger) *minioObjectStore {
	return &minioObjectStore{
		client: client,
		logger: logger.With("component", "object-store"),
		tracer: otel.Tracer("video-dispatcher-storage"),
	}
}

// HeadObject returns the object's user metadata with lower-cased keys.
func (s *minioObjectStore) HeadObject(ctx context.Context, bucket, key string) (domain.ObjectMetadata, error) {
	ctx, span := s.tracer.Start(ctx, "storage.HeadObject", trace.WithAttributes(
		attribute.String("s3.bucket", bucket),
		attribute.String("s3.key", key),
	))
	defer span.End()

	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		lookupErr := &domain.LookupError{Bucket: bucket, Key: key, Err: classify(err)}
		span.RecordError(lookupErr)
		span.SetStatus(codes.Error, "stat object failed")
		return nil, lookupErr
	}

	md := make(domain.ObjectMetadata, len(info.UserMetadata))
	for k, v := range info.UserMetadata {
		md[strings.ToLower(k)] = v
	}
	s.logger.Debug("read object metadata", "bucket", bucket, "key", key, "size", info.Size, "keys", len(md))
	return md, nil
}

// classify maps a minio error onto the domain lookup sentinels, keeping the minio message.
func classify(err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.Code == "NotFound" || resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %v", domain.ErrObjectNotFound, err)
	case resp.Code == "AccessDenied" || resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %v", domain.ErrAccessDenied, err)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
}
