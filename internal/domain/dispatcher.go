// internal/domain/dispatcher.go
package domain

import "context"

// Dispatcher turns a batch of storage notifications into processing task launches.
type Dispatcher interface {
	DispatchBatch(ctx context.Context, batch Batch) *BatchResult
}
