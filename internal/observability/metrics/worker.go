package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// IndexMetrics instruments the document indexing worker. The registry is
// private so the worker's /metrics endpoint serves exactly what this
// package registers.
type IndexMetrics struct {
	registry *prometheus.Registry
	service  string

	indexTotal    *prometheus.CounterVec
	indexDuration *prometheus.HistogramVec
	indexInFlight prometheus.Gauge
	queueLag      prometheus.Histogram
	indexedChunks prometheus.Histogram
}

func NewIndexMetrics(service string) *IndexMetrics {
	registry := prometheus.NewRegistry()

	indexTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dsf",
			Subsystem: "worker",
			Name:      "document_index_total",
			Help:      "Total indexed documents by status.",
		},
		[]string{"service", "status"},
	)
	indexDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dsf",
			Subsystem: "worker",
			Name:      "document_index_duration_seconds",
			Help:      "Document indexing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	indexInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dsf",
			Subsystem: "worker",
			Name:      "documents_in_flight",
			Help:      "Number of documents being indexed right now.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "dsf",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between document registration and indexing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	indexedChunks := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "dsf",
			Subsystem: "worker",
			Name:      "indexed_chunks",
			Help:      "Distribution of chunks indexed per document.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100, 250, 500},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(indexTotal, indexDuration, indexInFlight, queueLag, indexedChunks)

	return &IndexMetrics{
		registry:      registry,
		service:       service,
		indexTotal:    indexTotal,
		indexDuration: indexDuration,
		indexInFlight: indexInFlight,
		queueLag:      queueLag,
		indexedChunks: indexedChunks,
	}
}

func (m *IndexMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// MustRegister adds extra collectors to the worker's /metrics endpoint.
func (m *IndexMetrics) MustRegister(collectors ...prometheus.Collector) {
	m.registry.MustRegister(collectors...)
}

func (m *IndexMetrics) StartDocument() {
	m.indexInFlight.Inc()
}

func (m *IndexMetrics) FinishDocument(duration time.Duration, chunks int, err error) {
	m.indexInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.indexTotal.WithLabelValues(m.service, status).Inc()
	m.indexDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
	if err == nil {
		m.indexedChunks.Observe(float64(chunks))
	}
}

func (m *IndexMetrics) ObserveQueueLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.Observe(lag.Seconds())
}
