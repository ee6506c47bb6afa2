package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"video-dispatcher/internal/domain"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDispatcher struct {
	result *domain.BatchResult
	got    domain.Batch
}

func (m *mockDispatcher) DispatchBatch(ctx context.Context, batch domain.Batch) *domain.BatchResult {
	m.got = batch
	return m.result
}

const s3Event = `{"Records":[
	{"eventName":"ObjectCreated:Put","s3":{"bucket":{"name":"vids-in"},"object":{"key":"raw/a%2Bb+c.mp4","size":42}}},
	{"eventName":"ObjectRemoved:Delete","s3":{"bucket":{"name":"vids-in"},"object":{"key":"raw/old.mp4"}}}
]}`

func TestToBatch(t *testing.T) {
	var event events.S3Event
	require.NoError(t, json.Unmarshal([]byte(s3Event), &event))

	batch := toBatch(event)
	require.Len(t, batch.Records, 2)
	assert.True(t, batch.Records[0].IsCreation())
	assert.Equal(t, "vids-in", batch.Records[0].Bucket())
	assert.Equal(t, "raw/a+b c.mp4", batch.Records[0].ObjectKey())
	assert.Equal(t, int64(42), batch.Records[0].Size())
	assert.False(t, batch.Records[1].IsCreation())
}

func TestHandler(t *testing.T) {
	var event events.S3Event
	require.NoError(t, json.Unmarshal([]byte(s3Event), &event))

	t.Run("successful batch", func(t *testing.T) {
		d := &mockDispatcher{result: &domain.BatchResult{}}
		assert.NoError(t, newHandler(d)(context.Background(), event))
		assert.Len(t, d.got.Records, 2)
	})

	t.Run("failed batch fails the invocation", func(t *testing.T) {
		cause := errors.New("launch rejected")
		d := &mockDispatcher{result: &domain.BatchResult{Outcomes: []domain.RecordOutcome{
			domain.Failed("vids-in", "raw/a.mp4", "L1", cause),
		}}}
		err := newHandler(d)(context.Background(), event)
		assert.ErrorIs(t, err, cause)
	})
}
