// internal/dispatcher/dispatcher.go
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"video-dispatcher/internal/domain"
	"video-dispatcher/internal/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Options tune batch handling.
type Options struct {
	// ContinueOnError keeps processing the remaining records after a failure.
	// The batch is still reported as failed.
	ContinueOnError bool
}

// Dispatcher launches one processing task per uploaded video.
type Dispatcher struct {
	store    domain.ObjectStore
	launcher domain.TaskLauncher
	reporter domain.StatusReporter
	spec     domain.LaunchSpec
	opts     Options
	logger   *slog.Logger
	tracer   trace.Tracer
}

// New creates a dispatcher around its three collaborators.
func New(store domain.ObjectStore, launcher domain.TaskLauncher, reporter domain.StatusReporter, spec domain.LaunchSpec, opts Options, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:    store,
		launcher: launcher,
		reporter: reporter,
		spec:     spec,
		opts:     opts,
		logger:   logger.With("component", "dispatcher"),
		tracer:   otel.Tracer("video-dispatcher"),
	}
}

var _ domain.Dispatcher = (*Dispatcher)(nil)

// FilterCreated returns the creation events of a batch, in delivery order.
func FilterCreated(records []domain.ChangeNotification) []domain.ChangeNotification {
	var created []domain.ChangeNotification
	for _, rec := range records {
		if rec.IsCreation() {
			created = append(created, rec)
		}
	}
	return created
}

// DispatchBatch processes the creation events of a batch one after another.
// The result fails if any record failed; records launched before the failure stay launched.
func (d *Dispatcher) DispatchBatch(ctx context.Context, batch domain.Batch) *domain.BatchResult {
	result := &domain.BatchResult{
		BatchID:  uuid.NewString(),
		Received: len(batch.Records),
	}

	ctx, span := d.tracer.Start(ctx, "dispatcher.DispatchBatch", trace.WithAttributes(
		attribute.String("batch.id", result.BatchID),
		attribute.Int("batch.records", result.Received),
	))
	defer span.End()

	logger := d.logger.With("batch_id", result.BatchID)

	created := FilterCreated(batch.Records)
	result.Ignored = result.Received - len(created)
	metrics.RecordsTotal.WithLabelValues("ignored").Add(float64(result.Ignored))

	logger.Info("received notification batch", "records", result.Received, "created", len(created))

	for _, rec := range created {
		outcome := d.dispatchRecord(ctx, logger, rec)
		result.Outcomes = append(result.Outcomes, outcome)
		metrics.RecordsTotal.WithLabelValues(string(outcome.Kind)).Inc()

		if outcome.Kind == domain.OutcomeFailed && !d.opts.ContinueOnError {
			break
		}
	}

	if err := result.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch failed")
		metrics.BatchesTotal.WithLabelValues("failed").Inc()
		logger.Error("notification batch failed",
			"launched", result.Count(domain.OutcomeLaunched),
			"skipped", result.Count(domain.OutcomeSkipped),
			"failed", result.Count(domain.OutcomeFailed),
			"error", err)
		return result
	}

	metrics.BatchesTotal.WithLabelValues("success").Inc()
	logger.Info("notification batch dispatched",
		"launched", result.Count(domain.OutcomeLaunched),
		"skipped", result.Count(domain.OutcomeSkipped))
	return result
}

// dispatchRecord runs the per-record pipeline: metadata lookup, validation,
// processing report, task launch and task handle report.
func (d *Dispatcher) dispatchRecord(ctx context.Context, logger *slog.Logger, rec domain.ChangeNotification) (outcome domain.RecordOutcome) {
	bucket, key := rec.Bucket(), rec.ObjectKey()

	ctx, span := d.tracer.Start(ctx, "dispatcher.dispatchRecord", trace.WithAttributes(
		attribute.String("s3.bucket", bucket),
		attribute.String("s3.key", key),
		attribute.Int64("s3.size", rec.Size()),
	))
	defer span.End()

	logger = logger.With("bucket", bucket, "key", key)
	logger.Info("processing uploaded object", "size", rec.Size())

	var lessonID string
	var warnings []error

	// Any panic below becomes a record failure.
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic while dispatching s3://%s/%s: %v", bucket, key, r)
			outcome = d.fail(ctx, logger, bucket, key, lessonID, err)
			outcome.Warnings = append(warnings, outcome.Warnings...)
		}
		if outcome.Kind == domain.OutcomeFailed {
			span.RecordError(outcome.Err)
			span.SetStatus(codes.Error, "record failed")
		}
	}()

	// 1. Resolve the object's metadata.
	md, err := d.store.HeadObject(ctx, bucket, key)
	if err != nil {
		var lookupErr *domain.LookupError
		if !errors.As(err, &lookupErr) {
			err = &domain.LookupError{Bucket: bucket, Key: key, Err: err}
		}
		return d.fail(ctx, logger, bucket, key, "", err)
	}

	// 2. Validate the required identifiers.
	job, err := domain.NewJobContext(bucket, key, md)
	if err != nil {
		logger.Error("missing required metadata, skipping object", "error", err)
		return domain.Skipped(bucket, key, err)
	}
	lessonID = job.LessonID
	span.SetAttributes(attribute.String("lesson.id", job.LessonID))
	logger = logger.With("lesson_id", job.LessonID, "creator_id", job.CreatorID, "upload_id", job.UploadID)
	logger.Info("found job metadata")

	// 3. Signal that processing has started.
	if w := d.report(ctx, logger, "processing-update", d.reporter.ReportStatus(ctx, job.LessonID, domain.ProcessingUpdate(domain.ProgressDispatched))); w != nil {
		warnings = append(warnings, w)
	}

	// 4. Launch the processing task.
	req := domain.NewTaskLaunchRequest(job, d.spec)
	handle, err := d.launcher.RunTask(ctx, req)
	metrics.TaskLaunchesTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		var launchErr *domain.LaunchError
		if !errors.As(err, &launchErr) {
			err = &domain.LaunchError{Cluster: req.Cluster, TaskDefinition: req.TaskDefinition, Err: err}
		}
		outcome = d.fail(ctx, logger, bucket, key, job.LessonID, err)
		outcome.Warnings = append(warnings, outcome.Warnings...)
		return outcome
	}
	logger = logger.With("task_arn", handle.String())
	span.SetAttributes(attribute.String("task.arn", handle.String()))

	// 5. Record the task handle for later correlation.
	if w := d.report(ctx, logger, "task-id", d.reporter.ReportTaskHandle(ctx, job.LessonID, handle)); w != nil {
		warnings = append(warnings, w)
	}

	logger.Info("started processing task")
	outcome = domain.Launched(job, handle)
	outcome.Warnings = warnings
	return outcome
}

// fail reports a failed status when the lesson is known and returns the failure outcome.
func (d *Dispatcher) fail(ctx context.Context, logger *slog.Logger, bucket, key, lessonID string, err error) domain.RecordOutcome {
	logger.Error("failed to dispatch object", "error", err)
	outcome := domain.Failed(bucket, key, lessonID, err)
	if lessonID == "" {
		return outcome
	}
	if w := d.report(ctx, logger, "processing-update", d.reporter.ReportStatus(ctx, lessonID, domain.FailedUpdate(err))); w != nil {
		outcome.Warnings = append(outcome.Warnings, w)
	}
	return outcome
}

// report turns a best-effort result into a warning, if any. The reporter logs its own failures.
func (d *Dispatcher) report(ctx context.Context, logger *slog.Logger, endpoint string, res domain.ReportResult) error {
	w := res.Warning()
	if w != nil {
		logger.Debug("continuing after undelivered tracking update", "endpoint", endpoint, "status_code", res.StatusCode)
		trace.SpanFromContext(ctx).AddEvent("tracking report failed", trace.WithAttributes(
			attribute.String("tracking.endpoint", endpoint),
			attribute.String("error", w.Error()),
		))
	}
	return w
}
