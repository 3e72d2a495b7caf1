package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	BatchRuns         *prometheus.CounterVec
	CallsPlaced       *prometheus.CounterVec
	PipelineFailures  *prometheus.CounterVec
	WebhookEvents     *prometheus.CounterVec
	TranscriptsStored prometheus.Counter
	MonitorEvents     *prometheus.CounterVec
	BatchDuration     prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		BatchRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_runs_total",
			Help:      "Batch orchestrations by batch label and result.",
		}, []string{"batch", "result"}),
		CallsPlaced: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_placed_total",
			Help:      "Outbound calls placed by batch label.",
		}, []string{"batch"}),
		PipelineFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "call_pipeline_failures_total",
			Help:      "Per-call pipeline failures by batch label and stage.",
		}, []string{"batch", "stage"}),
		WebhookEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Webhook deliveries by outcome.",
		}, []string{"result"}),
		TranscriptsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_stored_total",
			Help:      "Transcript records inserted from end-of-call reports.",
		}),
		MonitorEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_events_total",
			Help:      "Live-call monitor events by type.",
		}, []string{"type"}),
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Wall-clock duration of a batch orchestration in seconds.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		}),
	}
}

func (m *Metrics) ObserveBatchDuration(d time.Duration) {
	m.BatchDuration.Observe(d.Seconds())
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
