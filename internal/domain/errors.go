package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel causes for a failed metadata lookup.
var (
	ErrObjectNotFound     = errors.New("object not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ErrNoTaskHandle is returned when the compute service accepted a launch but returned no task.
var ErrNoTaskHandle = errors.New("launch response contained no task")

// ValidationError means the uploaded object lacks the metadata needed to start a job.
// The record is skipped; it is never retried.
type ValidationError struct {
	Bucket  string
	Key     string
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required metadata %s on s3://%s/%s", strings.Join(e.Missing, ", "), e.Bucket, e.Key)
}

// LookupError wraps a failure of the storage metadata lookup.
type LookupError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("failed to read metadata of s3://%s/%s: %v", e.Bucket, e.Key, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// LaunchError wraps a rejected or malformed compute task launch.
type LaunchError struct {
	Cluster        string
	TaskDefinition string
	// Reasons holds per-task failure reasons returned by the compute service, if any.
	Reasons []string
	Err     error
}

func (e *LaunchError) Error() string {
	msg := fmt.Sprintf("failed to launch task %s on cluster %s", e.TaskDefinition, e.Cluster)
	if len(e.Reasons) > 0 {
		msg += ": " + strings.Join(e.Reasons, "; ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ReportingError describes a tracking API call that did not succeed.
// It is carried in a ReportResult and never propagated.
type ReportingError struct {
	Endpoint   string
	LessonID   string
	StatusCode int
	Err        error
}

func (e *ReportingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tracking %s for lesson %s failed: %v", e.Endpoint, e.LessonID, e.Err)
	}
	return fmt.Sprintf("tracking %s for lesson %s returned status %d", e.Endpoint, e.LessonID, e.StatusCode)
}

func (e *ReportingError) Unwrap() error { return e.Err }
