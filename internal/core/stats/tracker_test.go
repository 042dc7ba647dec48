package stats

import (
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/docsift/docsift/internal/core/domain"
)

func TestRecordCounts(t *testing.T) {
	tr := NewTracker(0.7, 100, testController())

	tr.Record(domain.AnswerResult{RelevanceScore: 0.9, ResponseTime: 0.5})
	tr.Record(domain.AnswerResult{RelevanceScore: 0.8, ResponseTime: 0.3})
	tr.Record(domain.AnswerResult{RelevanceScore: 0.7, ResponseTime: 0.4})
	tr.Record(domain.AnswerResult{Error: "generate: boom", ResponseTime: 1.1})

	snap := tr.Snapshot()
	if snap.TotalQueries != 4 || snap.SuccessfulQueries != 3 || snap.FailedQueries != 1 {
		t.Fatalf("unexpected counts: %+v", snap)
	}
	if math.Abs(snap.SuccessRate-0.75) > 1e-9 {
		t.Fatalf("success rate = %f, want 0.75", snap.SuccessRate)
	}
	if len(snap.RelevanceScores) != 4 {
		t.Fatalf("failed query not recorded in the relevance window: %v", snap.RelevanceScores)
	}
}

func TestWindowEviction(t *testing.T) {
	tr := NewTracker(0.7, 3, testController())
	for _, rt := range []float64{1, 2, 3, 4, 5} {
		tr.Record(domain.AnswerResult{RelevanceScore: 0.6, ResponseTime: rt})
	}

	snap := tr.Snapshot()
	if !reflect.DeepEqual(snap.ResponseTimes, []float64{3, 4, 5}) {
		t.Fatalf("window not bounded: %v", snap.ResponseTimes)
	}
	if math.Abs(snap.AvgResponseTime-4) > 1e-9 {
		t.Fatalf("avg over window = %f, want 4", snap.AvgResponseTime)
	}
	if snap.TotalQueries != 5 {
		t.Fatalf("eviction must not touch counters: %+v", snap)
	}
}

func TestTwentyLowQueriesStepOnce(t *testing.T) {
	tr := NewTracker(0.7, 100, testController())
	for i := 0; i < 20; i++ {
		tr.Record(domain.AnswerResult{RelevanceScore: 0.1, ResponseTime: 0.2})
	}

	if got := tr.Temperature(); math.Abs(got-0.6) > 1e-9 {
		t.Fatalf("temperature = %f, want exactly one step down to 0.6", got)
	}
	snap := tr.Snapshot()
	if len(snap.TemperatureHistory) != 1 {
		t.Fatalf("expected one recorded adjustment, got %v", snap.TemperatureHistory)
	}
}

func TestFewerThanWindowNeverAdjusts(t *testing.T) {
	tr := NewTracker(0.7, 100, testController())
	for i := 0; i < 19; i++ {
		tr.Record(domain.AnswerResult{RelevanceScore: 0.1, ResponseTime: 0.2})
	}
	if got := tr.Temperature(); got != 0.7 {
		t.Fatalf("temperature = %f, want untouched 0.7", got)
	}
}

func TestHighRelevanceStepsUp(t *testing.T) {
	tr := NewTracker(0.7, 100, testController())
	for i := 0; i < 20; i++ {
		tr.Record(domain.AnswerResult{RelevanceScore: 0.95, ResponseTime: 0.2})
	}
	if got := tr.Temperature(); math.Abs(got-0.8) > 1e-9 {
		t.Fatalf("temperature = %f, want 0.8", got)
	}
}

func TestInitialTemperatureClamped(t *testing.T) {
	tr := NewTracker(5.0, 100, testController())
	if got := tr.Temperature(); got != 1.0 {
		t.Fatalf("temperature = %f, want clamped 1.0", got)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	tr := NewTracker(0.7, 100, testController())
	tr.Record(domain.AnswerResult{RelevanceScore: 0.9, ResponseTime: 0.5})

	snap := tr.Snapshot()
	tr.Record(domain.AnswerResult{RelevanceScore: 0.1, ResponseTime: 9.9})

	if snap.TotalQueries != 1 || len(snap.ResponseTimes) != 1 {
		t.Fatalf("snapshot changed after later records: %+v", snap)
	}

	// Mutating the copy must not leak back into the tracker.
	snap.ResponseTimes[0] = 123
	if got := tr.Snapshot().ResponseTimes[0]; got == 123 {
		t.Fatalf("snapshot shares backing storage with the tracker")
	}
}

func TestRecordDocument(t *testing.T) {
	tr := NewTracker(0.7, 100, testController())
	tr.RecordDocument(3)
	tr.RecordDocument(5)

	snap := tr.Snapshot()
	if snap.DocumentsProcessed != 2 || snap.ChunksIndexed != 8 {
		t.Fatalf("unexpected document counters: %+v", snap)
	}
}

func TestConcurrentRecords(t *testing.T) {
	tr := NewTracker(0.7, 100, testController())

	var wg sync.WaitGroup
	for g := 0; g < 20; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				tr.Record(domain.AnswerResult{RelevanceScore: 0.6, ResponseTime: 0.1})
				_ = tr.Snapshot()
			}
		}()
	}
	wg.Wait()

	snap := tr.Snapshot()
	if snap.TotalQueries != 1000 || snap.SuccessfulQueries != 1000 {
		t.Fatalf("lost updates under concurrency: %+v", snap)
	}
}
