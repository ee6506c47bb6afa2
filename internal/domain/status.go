// internal/domain/status.go
package domain

import (
	"context"
	"errors"
	"strings"
)

// Status is a lesson processing state as understood by the tracking API.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusFailed     Status = "failed"
)

// ProgressDispatched is reported once the job passed validation and a task is about to be launched.
const ProgressDispatched = 10

// MaxErrorLength bounds the error text sent to the tracking API.
const MaxErrorLength = 1024

// StatusUpdate is the body of a processing-update call.
type StatusUpdate struct {
	Status   Status `json:"status" validate:"oneof=processing failed"`
	Progress int    `json:"progress" validate:"min=0,max=100"`
	Error    string `json:"error,omitempty"`
}

// ProcessingUpdate reports that work on the lesson is underway.
func ProcessingUpdate(progress int) StatusUpdate {
	return StatusUpdate{Status: StatusProcessing, Progress: progress}
}

// FailedUpdate reports a terminal failure. Progress is always reset to 0.
func FailedUpdate(cause error) StatusUpdate {
	u := StatusUpdate{Status: StatusFailed, Progress: 0}
	if cause != nil {
		msg := cause.Error()
		if msg == "" {
			msg = "unknown error"
		}
		u.Error = truncate(msg, MaxErrorLength)
	}
	return u
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "")
}

// ReportResult is the outcome of a best-effort call to the tracking API.
// A failed report never aborts record processing; callers inspect it to log
// or surface a warning.
type ReportResult struct {
	Delivered  bool
	StatusCode int
	Err        error
}

// Warning returns the delivery error, or nil when the report went through.
func (r ReportResult) Warning() error {
	if r.Delivered {
		return nil
	}
	if r.Err != nil {
		return r.Err
	}
	return errors.New("status report not delivered")
}

// StatusReporter sends job lifecycle updates to the tracking API.
type StatusReporter interface {
	ReportStatus(ctx context.Context, lessonID string, update StatusUpdate) ReportResult
	ReportTaskHandle(ctx context.Context, lessonID string, handle TaskHandle) ReportResult
}
