package authcore

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsCountersConcurrent(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const workers = 8
	const perWorker = 1000
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(MetricSessionCreated)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricSessionCreated); got != workers*perWorker {
		t.Fatalf("counter = %d, want %d", got, workers*perWorker)
	}
}

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{})
	m.Inc(MetricSessionCreated)
	m.Observe(MetricSessionReadLatency, time.Millisecond)

	if m.Enabled() {
		t.Fatal("expected metrics disabled")
	}
	if got := m.Value(MetricSessionCreated); got != 0 {
		t.Fatalf("disabled counter = %d, want 0", got)
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatal("disabled snapshot must be empty")
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricSessionCreated)
	m.Observe(MetricSessionReadLatency, time.Millisecond)
	if m.Enabled() {
		t.Fatal("nil metrics cannot be enabled")
	}
	if m.Value(MetricSessionCreated) != 0 {
		t.Fatal("nil metrics hold no values")
	}
}

func TestMetricsLatencyHistogram(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	m.Observe(MetricSessionReadLatency, 2*time.Millisecond)   // bucket 0
	m.Observe(MetricSessionReadLatency, 8*time.Millisecond)   // bucket 1
	m.Observe(MetricSessionReadLatency, 400*time.Millisecond) // bucket 6
	m.Observe(MetricSessionReadLatency, 2*time.Second)        // overflow

	snap := m.Snapshot()
	buckets, ok := snap.Histograms[MetricSessionReadLatency]
	if !ok {
		t.Fatal("expected latency histogram in snapshot")
	}
	want := map[int]uint64{0: 1, 1: 1, 6: 1, 7: 1}
	for i, count := range buckets {
		if count != want[i] {
			t.Fatalf("bucket %d = %d, want %d", i, count, want[i])
		}
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricLogout)

	snap := m.Snapshot()
	snap.Counters[MetricLogout] = 99

	if got := m.Value(MetricLogout); got != 1 {
		t.Fatalf("mutating a snapshot leaked into live counters: %d", got)
	}
}
