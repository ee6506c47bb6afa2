// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HttpRequestsTotal counts webhook requests by path, method and status code.
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of http requests handled by the service.",
		},
		[]string{"path", "method", "code"},
	)

	// BatchesTotal counts batch invocations by result (success/failed).
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatcher_batches_total",
			Help: "Total number of notification batches dispatched.",
		},
		[]string{"result"},
	)

	// RecordsTotal counts notification records by outcome (ignored/skipped/launched/failed).
	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatcher_records_total",
			Help: "Total number of notification records processed.",
		},
		[]string{"outcome"},
	)

	// TaskLaunchesTotal counts compute task launch attempts by result.
	TaskLaunchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatcher_task_launches_total",
			Help: "Total number of processing task launches attempted.",
		},
		[]string{"result"},
	)

	// ConsumedMessagesTotal counts notification messages read from the broker by result (dispatched/failed/malformed).
	ConsumedMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatcher_consumed_messages_total",
			Help: "Total number of notification messages consumed from kafka.",
		},
		[]string{"result"},
	)

	// TrackingReportsTotal counts tracking API calls by endpoint and result (delivered/failed).
	TrackingReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatcher_tracking_reports_total",
			Help: "Total number of status reports sent to the tracking API.",
		},
		[]string{"endpoint", "result"},
	)
)

// Result returns the label value for an error outcome.
func Result(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}
