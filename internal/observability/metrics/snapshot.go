package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/docsift/docsift/internal/core/stats"
)

// SnapshotCollector exposes the pipeline's rolling tracker state as
// Prometheus metrics. Values are read at scrape time, so the collector
// and the pipeline share one source of truth.
type SnapshotCollector struct {
	tracker *stats.Tracker

	queriesTotal   *prometheus.Desc
	successRate    *prometheus.Desc
	avgResponse    *prometheus.Desc
	avgRelevance   *prometheus.Desc
	temperature    *prometheus.Desc
	documentsTotal *prometheus.Desc
	chunksTotal    *prometheus.Desc
}

func NewSnapshotCollector(tracker *stats.Tracker) *SnapshotCollector {
	return &SnapshotCollector{
		tracker: tracker,
		queriesTotal: prometheus.NewDesc(
			"dsf_pipeline_queries_total",
			"Total answered queries by outcome.",
			[]string{"status"}, nil,
		),
		successRate: prometheus.NewDesc(
			"dsf_pipeline_success_rate",
			"Fraction of queries answered without a pipeline error.",
			nil, nil,
		),
		avgResponse: prometheus.NewDesc(
			"dsf_pipeline_avg_response_seconds",
			"Mean answer latency over the rolling window.",
			nil, nil,
		),
		avgRelevance: prometheus.NewDesc(
			"dsf_pipeline_avg_relevance",
			"Mean retrieval relevance over the rolling window.",
			nil, nil,
		),
		temperature: prometheus.NewDesc(
			"dsf_pipeline_temperature",
			"Sampling temperature the next synthesis call will use.",
			nil, nil,
		),
		documentsTotal: prometheus.NewDesc(
			"dsf_pipeline_documents_processed_total",
			"Total documents run through ingestion.",
			nil, nil,
		),
		chunksTotal: prometheus.NewDesc(
			"dsf_pipeline_chunks_indexed_total",
			"Total chunks written to the indexes.",
			nil, nil,
		),
	}
}

func (c *SnapshotCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.queriesTotal
	ch <- c.successRate
	ch <- c.avgResponse
	ch <- c.avgRelevance
	ch <- c.temperature
	ch <- c.documentsTotal
	ch <- c.chunksTotal
}

func (c *SnapshotCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.tracker.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.queriesTotal, prometheus.CounterValue, float64(snap.SuccessfulQueries), "success")
	ch <- prometheus.MustNewConstMetric(c.queriesTotal, prometheus.CounterValue, float64(snap.FailedQueries), "failure")
	ch <- prometheus.MustNewConstMetric(c.successRate, prometheus.GaugeValue, snap.SuccessRate)
	ch <- prometheus.MustNewConstMetric(c.avgResponse, prometheus.GaugeValue, snap.AvgResponseTime)
	ch <- prometheus.MustNewConstMetric(c.avgRelevance, prometheus.GaugeValue, snap.AvgRelevance)
	ch <- prometheus.MustNewConstMetric(c.temperature, prometheus.GaugeValue, snap.CurrentTemperature)
	ch <- prometheus.MustNewConstMetric(c.documentsTotal, prometheus.CounterValue, float64(snap.DocumentsProcessed))
	ch <- prometheus.MustNewConstMetric(c.chunksTotal, prometheus.CounterValue, float64(snap.ChunksIndexed))
}
