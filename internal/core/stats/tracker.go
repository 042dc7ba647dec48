package stats

import (
	"sync"

	"github.com/docsift/docsift/internal/core/domain"
)

// Tracker owns the process-wide metrics state. Every mutation happens
// under one mutex; readers get copies, never references into live state.
type Tracker struct {
	mu sync.Mutex

	controller Controller
	windowSize int

	responseTimes []float64
	relevance     []float64

	temperature float64
	history     []float64

	documents int64
	chunks    int64
	total     int64
	succeeded int64
	failed    int64
}

func NewTracker(initialTemperature float64, windowSize int, controller Controller) *Tracker {
	if windowSize <= 0 {
		windowSize = 100
	}
	return &Tracker{
		controller:  controller,
		windowSize:  windowSize,
		temperature: clamp(initialTemperature, controller.Min, controller.Max),
	}
}

// Record folds one answer outcome into the rolling state, then lets the
// controller react to the updated relevance window. Failed queries are
// recorded too; their relevance of zero correctly drags the window down.
func (t *Tracker) Record(result domain.AnswerResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total++
	if result.Failed() {
		t.failed++
	} else {
		t.succeeded++
	}
	t.responseTimes = appendBounded(t.responseTimes, result.ResponseTime, t.windowSize)
	t.relevance = appendBounded(t.relevance, result.RelevanceScore, t.windowSize)

	next := t.controller.Next(t.temperature, t.relevance)
	if next != t.temperature {
		t.temperature = next
		t.history = append(t.history, next)
	}
}

// RecordDocument counts one processed document and its indexed chunks.
func (t *Tracker) RecordDocument(chunkCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.documents++
	t.chunks += int64(chunkCount)
}

// Temperature reads the value the next synthesis call should use.
func (t *Tracker) Temperature() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.temperature
}

// Snapshot returns a deep copy for external reporting.
func (t *Tracker) Snapshot() domain.MetricsSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := domain.MetricsSnapshot{
		TotalQueries:       t.total,
		SuccessfulQueries:  t.succeeded,
		FailedQueries:      t.failed,
		AvgResponseTime:    mean(t.responseTimes),
		AvgRelevance:       mean(t.relevance),
		DocumentsProcessed: t.documents,
		ChunksIndexed:      t.chunks,
		CurrentTemperature: t.temperature,
		TemperatureHistory: append([]float64(nil), t.history...),
		ResponseTimes:      append([]float64(nil), t.responseTimes...),
		RelevanceScores:    append([]float64(nil), t.relevance...),
	}
	if t.total > 0 {
		snap.SuccessRate = float64(t.succeeded) / float64(t.total)
	}
	return snap
}

func appendBounded(window []float64, v float64, size int) []float64 {
	window = append(window, v)
	if len(window) > size {
		window = window[len(window)-size:]
	}
	return window
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
