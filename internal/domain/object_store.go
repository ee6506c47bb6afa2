package domain

import "context"

// ObjectStore reads object metadata from the storage service.
type ObjectStore interface {
	// HeadObject returns the user metadata of an object. Errors wrap one of
	// ErrObjectNotFound, ErrAccessDenied or ErrStorageUnavailable.
	HeadObject(ctx context.Context, bucket, key string) (ObjectMetadata, error)
}
