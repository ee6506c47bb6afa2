// internal/domain/notification.go
package domain

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

const (
	// CreatedEventPrefix marks every "object created" variant (Put, Post, Copy, CompleteMultipartUpload).
	CreatedEventPrefix = "ObjectCreated:"
	// MinIO prefixes its event names with the "s3:" namespace.
	minioEventNamespace = "s3:"
)

// Batch is one delivery of storage-change notifications, in delivery order.
type Batch struct {
	Records []ChangeNotification `json:"Records"`
}

// ChangeNotification is a single record of an S3 (or S3-compatible) event notification.
type ChangeNotification struct {
	EventName string   `json:"eventName"`
	S3        S3Entity `json:"s3"`
}

// S3Entity locates the object a notification refers to.
type S3Entity struct {
	Bucket S3Bucket `json:"bucket"`
	Object S3Object `json:"object"`
}

// S3Bucket names the bucket holding the object.
type S3Bucket struct {
	Name string `json:"name"`
}

// S3Object carries the key as delivered, still URL-encoded.
type S3Object struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// ParseBatch decodes the JSON body of an S3 event notification.
func ParseBatch(data []byte) (Batch, error) {
	var b Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return Batch{}, fmt.Errorf("failed to decode event notification: %w", err)
	}
	return b, nil
}

// IsCreation reports whether the notification announces a newly stored object.
func (n ChangeNotification) IsCreation() bool {
	name := strings.TrimPrefix(n.EventName, minioEventNamespace)
	return strings.HasPrefix(name, CreatedEventPrefix)
}

// Bucket returns the name of the bucket holding the object.
func (n ChangeNotification) Bucket() string {
	return n.S3.Bucket.Name
}

// ObjectKey returns the URL-decoded object key. Notification keys are form-encoded,
// so "+" is a space and "%2B" is a literal plus. A key that does not decode is
// returned verbatim.
func (n ChangeNotification) ObjectKey() string {
	key, err := url.QueryUnescape(n.S3.Object.Key)
	if err != nil {
		return n.S3.Object.Key
	}
	return key
}

// Size returns the object size in bytes as reported by the notification.
func (n ChangeNotification) Size() int64 {
	return n.S3.Object.Size
}
