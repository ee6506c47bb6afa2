package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCreation(t *testing.T) {
	tests := []struct {
		event string
		want  bool
	}{
		{"ObjectCreated:Put", true},
		{"ObjectCreated:Post", true},
		{"ObjectCreated:Copy", true},
		{"ObjectCreated:CompleteMultipartUpload", true},
		{"s3:ObjectCreated:Put", true},
		{"ObjectRemoved:Delete", false},
		{"s3:ObjectAccessed:Get", false},
		{"objectcreated:Put", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			n := ChangeNotification{EventName: tt.event}
			assert.Equal(t, tt.want, n.IsCreation())
		})
	}
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "raw/video.mp4", "raw/video.mp4"},
		{"plus is a space", "raw/my+video.mp4", "raw/my video.mp4"},
		{"encoded plus stays a plus", "raw/a%2Bb.mp4", "raw/a+b.mp4"},
		{"percent encoded utf8", "raw/le%C3%A7on.mp4", "raw/leçon.mp4"},
		{"malformed escape is kept verbatim", "raw/100%.mp4", "raw/100%.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := ChangeNotification{S3: S3Entity{Object: S3Object{Key: tt.raw}}}
			assert.Equal(t, tt.want, n.ObjectKey())
		})
	}
}

func TestParseBatch(t *testing.T) {
	body := []byte(`{"Records":[
		{"eventVersion":"2.1","eventSource":"aws:s3","eventName":"ObjectCreated:Put",
		 "s3":{"bucket":{"name":"vids-in","arn":"arn:aws:s3:::vids-in"},"object":{"key":"raw/a.mp4","size":1048576,"eTag":"abc"}}},
		{"eventName":"ObjectRemoved:Delete","s3":{"bucket":{"name":"vids-in"},"object":{"key":"raw/b.mp4"}}}
	]}`)

	batch, err := ParseBatch(body)
	require.NoError(t, err)
	require.Len(t, batch.Records, 2)
	assert.Equal(t, "vids-in", batch.Records[0].Bucket())
	assert.Equal(t, "raw/a.mp4", batch.Records[0].ObjectKey())
	assert.Equal(t, int64(1048576), batch.Records[0].Size())
	assert.False(t, batch.Records[1].IsCreation())

	t.Run("empty batch", func(t *testing.T) {
		batch, err := ParseBatch([]byte(`{"Records":[]}`))
		require.NoError(t, err)
		assert.Empty(t, batch.Records)
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := ParseBatch([]byte(`{"Records":`))
		assert.Error(t, err)
	})
}
