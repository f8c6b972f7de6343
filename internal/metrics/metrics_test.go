// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordMessageRouted(t *testing.T) {
	outcomes := []string{"emitted", "unchanged", "suppressed", "alias_updated", "alias_emitted", "alias_malformed"}

	for _, outcome := range outcomes {
		t.Run(outcome, func(t *testing.T) {
			before := testutil.ToFloat64(MessagesRouted.WithLabelValues(outcome))
			RecordMessageRouted(outcome, 50*time.Microsecond)
			after := testutil.ToFloat64(MessagesRouted.WithLabelValues(outcome))
			if after != before+1 {
				t.Errorf("MessagesRouted[%s] = %v, want %v", outcome, after, before+1)
			}
		})
	}
}

func TestRecordMessageReceivedAndDropped(t *testing.T) {
	before := testutil.ToFloat64(MessagesReceived.WithLabelValues("mqtt"))
	RecordMessageReceived("mqtt")
	if got := testutil.ToFloat64(MessagesReceived.WithLabelValues("mqtt")); got != before+1 {
		t.Errorf("MessagesReceived = %v, want %v", got, before+1)
	}

	before = testutil.ToFloat64(MessagesDropped.WithLabelValues("panic"))
	RecordMessageDropped("panic")
	if got := testutil.ToFloat64(MessagesDropped.WithLabelValues("panic")); got != before+1 {
		t.Errorf("MessagesDropped = %v, want %v", got, before+1)
	}
}

func TestUpdateStateGauges(t *testing.T) {
	UpdateStateGauges(12, 3, 5)

	if got := testutil.ToFloat64(TrackedTopics); got != 12 {
		t.Errorf("TrackedTopics = %v, want 12", got)
	}
	if got := testutil.ToFloat64(AliasRecords.WithLabelValues("complete")); got != 3 {
		t.Errorf("AliasRecords[complete] = %v, want 3", got)
	}
	if got := testutil.ToFloat64(AliasRecords.WithLabelValues("partial")); got != 2 {
		t.Errorf("AliasRecords[partial] = %v, want 2", got)
	}
}

func TestRecordSourceEvent(t *testing.T) {
	tests := []struct {
		event string
		want  float64
	}{
		{"connected", 1},
		{"reconnecting", 1},
		{"lost", 0},
		{"connected", 1},
		{"disconnected", 0},
	}

	for _, tt := range tests {
		RecordSourceEvent("test-source", tt.event)
		if got := testutil.ToFloat64(SourceConnected.WithLabelValues("test-source")); got != tt.want {
			t.Errorf("after %q SourceConnected = %v, want %v", tt.event, got, tt.want)
		}
	}
}

func TestRecordStoreWrite(t *testing.T) {
	tests := []struct {
		name        string
		points      int
		err         error
		wantResult  string
		wantWritten float64
	}{
		{"success", 3, nil, "success", 3},
		{"failure", 3, errors.New("connection refused"), "failure", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := "test-" + tt.name
			writes := testutil.ToFloat64(StoreWrites.WithLabelValues(backend, tt.wantResult))
			written := testutil.ToFloat64(StorePointsWritten.WithLabelValues(backend))

			RecordStoreWrite(backend, tt.points, 5*time.Millisecond, tt.err)

			if got := testutil.ToFloat64(StoreWrites.WithLabelValues(backend, tt.wantResult)); got != writes+1 {
				t.Errorf("StoreWrites[%s] = %v, want %v", tt.wantResult, got, writes+1)
			}
			if got := testutil.ToFloat64(StorePointsWritten.WithLabelValues(backend)); got != written+tt.wantWritten {
				t.Errorf("StorePointsWritten = %v, want %v", got, written+tt.wantWritten)
			}
		})
	}
}

func TestRecordStoreWrite_Duration(t *testing.T) {
	backend := "test-duration"
	RecordStoreWrite(backend, 1, 20*time.Millisecond, nil)
	RecordStoreWrite(backend, 1, 2*time.Second, errors.New("timeout"))

	observer, err := StoreWriteDuration.GetMetricWithLabelValues(backend)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues() error = %v", err)
	}
	var m dto.Metric
	if err := observer.(prometheus.Metric).Write(&m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	h := m.GetHistogram()
	if got := h.GetSampleCount(); got != 2 {
		t.Errorf("sample count = %d, want 2 (failures are timed too)", got)
	}
	if got := h.GetSampleSum(); got < 2.02 || got > 2.03 {
		t.Errorf("sample sum = %v, want ~2.02", got)
	}
}

func TestTrackInFlightWrite(t *testing.T) {
	initial := testutil.ToFloat64(StoreWritesInFlight)

	TrackInFlightWrite(true)
	TrackInFlightWrite(true)
	if got := testutil.ToFloat64(StoreWritesInFlight); got != initial+2 {
		t.Errorf("in flight = %v, want %v", got, initial+2)
	}

	TrackInFlightWrite(false)
	TrackInFlightWrite(false)
	if got := testutil.ToFloat64(StoreWritesInFlight); got != initial {
		t.Errorf("in flight = %v, want %v", got, initial)
	}
}

func TestRecordBreakerTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     float64
	}{
		{"closed", "open", 2},
		{"open", "half-open", 1},
		{"half-open", "closed", 0},
	}

	for _, tt := range tests {
		RecordBreakerTransition("test-breaker", tt.from, tt.to)
		if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("test-breaker")); got != tt.want {
			t.Errorf("%s -> %s: state gauge = %v, want %v", tt.from, tt.to, got, tt.want)
		}
		if got := testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues("test-breaker", tt.from, tt.to)); got < 1 {
			t.Errorf("%s -> %s: transition not counted", tt.from, tt.to)
		}
	}

	before := testutil.ToFloat64(CircuitBreakerRequests.WithLabelValues("test-breaker", "rejected"))
	RecordBreakerRequest("test-breaker", "rejected")
	if got := testutil.ToFloat64(CircuitBreakerRequests.WithLabelValues("test-breaker", "rejected")); got != before+1 {
		t.Errorf("rejected requests = %v, want %v", got, before+1)
	}
}

// TestConcurrentMetricRecording tests thread-safety of metric recording
func TestConcurrentMetricRecording(t *testing.T) {
	before := testutil.ToFloat64(MessagesReceived.WithLabelValues("concurrent"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RecordMessageReceived("concurrent")
			RecordStoreWrite("concurrent", 1, time.Millisecond, nil)
			TrackInFlightWrite(true)
			TrackInFlightWrite(false)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(MessagesReceived.WithLabelValues("concurrent")); got != before+50 {
		t.Errorf("MessagesReceived = %v, want %v", got, before+50)
	}
}

func TestMetricsRegistration(t *testing.T) {
	collectors := []prometheus.Collector{
		MessagesReceived,
		MessagesRouted,
		MessageHandleDuration,
		MessagesDropped,
		TrackedTopics,
		AliasRecords,
		SourceConnected,
		SourceConnectionEvents,
		StoreWrites,
		StorePointsWritten,
		StoreWriteDuration,
		StoreWritesInFlight,
		CircuitBreakerState,
		CircuitBreakerRequests,
		CircuitBreakerTransitions,
		APIRequestsTotal,
		APIRequestDuration,
		AppInfo,
	}

	for _, m := range collectors {
		ch := make(chan *prometheus.Desc, 10)
		m.Describe(ch)
		close(ch)

		count := 0
		for range ch {
			count++
		}
		if count == 0 {
			t.Errorf("Metric has no descriptors")
		}
	}
}

// TestMetricGathering tests that metrics can be gathered using testutil
func TestMetricGathering(t *testing.T) {
	RecordMessageRouted("emitted", time.Microsecond)
	RecordAPIRequest("GET", "/test", "200", time.Millisecond)

	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Logf("Lint errors (may be expected): %v", err)
	}
	for _, p := range problems {
		t.Logf("Metric lint problem: %s", p.Text)
	}
}

func BenchmarkRecordMessageRouted(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordMessageRouted("emitted", 20*time.Microsecond)
	}
}

func BenchmarkRecordStoreWrite(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordStoreWrite("influxdb", 1, time.Millisecond, nil)
	}
}
