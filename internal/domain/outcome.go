// internal/domain/outcome.go
package domain

// OutcomeKind tags how a single record ended.
type OutcomeKind string

const (
	OutcomeLaunched OutcomeKind = "launched"
	OutcomeSkipped  OutcomeKind = "skipped"
	OutcomeFailed   OutcomeKind = "failed"
)

// RecordOutcome is the result of processing one creation notification.
type RecordOutcome struct {
	Kind     OutcomeKind
	Bucket   string
	Key      string
	LessonID string

	TaskHandle TaskHandle // set when Kind == OutcomeLaunched
	Reason     error      // set when Kind == OutcomeSkipped
	Err        error      // set when Kind == OutcomeFailed

	// Warnings collects best-effort reporting failures. They never change Kind.
	Warnings []error
}

// Launched records a started task for the job.
func Launched(job *JobContext, handle TaskHandle) RecordOutcome {
	return RecordOutcome{Kind: OutcomeLaunched, Bucket: job.InputBucket, Key: job.InputKey, LessonID: job.LessonID, TaskHandle: handle}
}

// Skipped records an object left unprocessed, with the reason.
func Skipped(bucket, key string, reason error) RecordOutcome {
	return RecordOutcome{Kind: OutcomeSkipped, Bucket: bucket, Key: key, Reason: reason}
}

// Failed records a record failure; lessonID is empty when the metadata was never read.
func Failed(bucket, key, lessonID string, err error) RecordOutcome {
	return RecordOutcome{Kind: OutcomeFailed, Bucket: bucket, Key: key, LessonID: lessonID, Err: err}
}

// BatchResult aggregates the outcomes of one batch invocation.
type BatchResult struct {
	BatchID  string
	Received int
	// Ignored counts notifications that were not creation events.
	Ignored  int
	Outcomes []RecordOutcome
}

// Err returns the first record failure, or nil when no record failed.
func (r *BatchResult) Err() error {
	for _, o := range r.Outcomes {
		if o.Kind == OutcomeFailed {
			return o.Err
		}
	}
	return nil
}

// Failed reports whether any record failed.
func (r *BatchResult) Failed() bool {
	return r.Err() != nil
}

// Count returns how many outcomes are of the given kind.
func (r *BatchResult) Count(kind OutcomeKind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}
