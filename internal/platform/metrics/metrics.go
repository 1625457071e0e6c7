package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	FeedbackCreated      prometheus.Counter
	FeedbackEdited       prometheus.Counter
	FeedbackAcknowledged prometheus.Counter
	FeedbackDeleted      prometheus.Counter
	FeedbackRestored     prometheus.Counter
	BulkBatchesAccepted  prometheus.Counter
	BulkBatchesRejected  prometheus.Counter
	ExportsDenied        prometheus.Counter
	RequestDuration      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		FeedbackCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "teampulse_feedback_created_total",
			Help: "Total number of feedback records created",
		}),
		FeedbackEdited: promauto.NewCounter(prometheus.CounterOpts{
			Name: "teampulse_feedback_edited_total",
			Help: "Total number of committed feedback edits",
		}),
		FeedbackAcknowledged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "teampulse_feedback_acknowledged_total",
			Help: "Total number of feedback acknowledgments",
		}),
		FeedbackDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "teampulse_feedback_soft_deleted_total",
			Help: "Total number of feedback soft-deletions",
		}),
		FeedbackRestored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "teampulse_feedback_restored_total",
			Help: "Total number of feedback restores",
		}),
		BulkBatchesAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "teampulse_bulk_batches_accepted_total",
			Help: "Total number of bulk feedback batches committed",
		}),
		BulkBatchesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "teampulse_bulk_batches_rejected_total",
			Help: "Total number of bulk feedback batches rejected",
		}),
		ExportsDenied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "teampulse_exports_denied_total",
			Help: "Total number of exports denied by the rate limiter",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "teampulse_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route pattern and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}
