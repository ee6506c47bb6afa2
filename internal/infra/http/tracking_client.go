package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"video-dispatcher/internal/domain"
	"video-dispatcher/internal/metrics"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	endpointProcessingUpdate = "processing-update"
	endpointTaskID           = "task-id"
)

type taskIDPayload struct {
	TaskArn string `json:"taskArn"`
}

// TrackingClient reports lesson processing state to the course platform API.
// Every call is best-effort: failures come back in the ReportResult, never as a panic or error return.
type TrackingClient struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	timeout  time.Duration
	validate *validator.Validate
	logger   *slog.Logger
}

// NewTrackingClient creates a client bound by the given per-call timeout.
func NewTrackingClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *TrackingClient {
	return &TrackingClient{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiKey:   apiKey,
		timeout:  timeout,
		validate: validator.New(),
		logger:   logger.With("component", "tracking-client"),
	}
}

var _ domain.StatusReporter = (*TrackingClient)(nil)

// ReportStatus posts a processing-update for the lesson.
func (c *TrackingClient) ReportStatus(ctx context.Context, lessonID string, update domain.StatusUpdate) domain.ReportResult {
	if err := c.validate.Struct(update); err != nil {
		return c.result(endpointProcessingUpdate, lessonID, 0, fmt.Errorf("invalid status update: %w", err))
	}
	res := c.post(ctx, endpointProcessingUpdate, lessonID, update)
	if res.Delivered {
		c.logger.Info("updated lesson status", "lesson_id", lessonID, "status", update.Status, "progress", update.Progress)
	}
	return res
}

// ReportTaskHandle stores the task ARN for the lesson.
func (c *TrackingClient) ReportTaskHandle(ctx context.Context, lessonID string, handle domain.TaskHandle) domain.ReportResult {
	res := c.post(ctx, endpointTaskID, lessonID, taskIDPayload{TaskArn: handle.String()})
	if res.Delivered {
		c.logger.Info("stored task arn", "lesson_id", lessonID, "task_arn", handle.String())
	}
	return res
}

// post performs a single request. Only HTTP 200 counts as delivered.
func (c *TrackingClient) post(ctx context.Context, endpoint, lessonID string, payload any) domain.ReportResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return c.result(endpoint, lessonID, 0, fmt.Errorf("failed to encode payload: %w", err))
	}

	target := fmt.Sprintf("%s/api/lessons/%s/%s", c.baseURL, url.PathEscape(lessonID), endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return c.result(endpoint, lessonID, 0, fmt.Errorf("failed to create http request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return c.result(endpoint, lessonID, 0, fmt.Errorf("http request failed: %w", err))
	}
	defer resp.Body.Close()

	// Read a small portion of the body for the log line.
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("tracking api response", "endpoint", endpoint, "status", resp.Status, "body", string(bodyBytes))
	}
	return c.result(endpoint, lessonID, resp.StatusCode, nil)
}

func (c *TrackingClient) result(endpoint, lessonID string, statusCode int, err error) domain.ReportResult {
	if err == nil && statusCode == http.StatusOK {
		metrics.TrackingReportsTotal.WithLabelValues(endpoint, "delivered").Inc()
		return domain.ReportResult{Delivered: true, StatusCode: statusCode}
	}

	metrics.TrackingReportsTotal.WithLabelValues(endpoint, "failed").Inc()
	repErr := &domain.ReportingError{Endpoint: endpoint, LessonID: lessonID, StatusCode: statusCode, Err: err}
	c.logger.Error("tracking api call failed", "endpoint", endpoint, "lesson_id", lessonID, "status_code", statusCode, "error", repErr)
	return domain.ReportResult{StatusCode: statusCode, Err: repErr}
}
