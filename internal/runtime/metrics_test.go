package runtime

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestPipelineMetricsSnapshot(t *testing.T) {
	m := NewPipelineMetrics(prometheus.NewRegistry())

	m.RecordPublish("session-events", nil)
	m.RecordPublish("session-events", nil)
	m.RecordPublish("payment-events", errors.New("broker down"))
	m.RecordDLQFallback("payment-events")
	m.RecordDrop("agent-events")

	snap := m.GetSnapshot()
	if snap.TotalPublished != 2 {
		t.Fatalf("expected 2 published, got %d", snap.TotalPublished)
	}
	if snap.TotalFailed != 1 {
		t.Fatalf("expected 1 failed, got %d", snap.TotalFailed)
	}
	if snap.TotalDLQFallbacks != 1 {
		t.Fatalf("expected 1 dead letter fallback, got %d", snap.TotalDLQFallbacks)
	}
	if snap.TotalDropped != 1 {
		t.Fatalf("expected 1 dropped, got %d", snap.TotalDropped)
	}
	if snap.CollectedAt.IsZero() {
		t.Fatal("expected collection timestamp")
	}

	session := snap.TopicMetrics["session-events"]
	if session == nil || session.Published != 2 || session.Failed != 0 {
		t.Fatalf("unexpected session-events metrics: %+v", session)
	}
}

func TestPipelineMetricsTopicLookup(t *testing.T) {
	m := NewPipelineMetrics(prometheus.NewRegistry())
	m.RecordPublish("user-events", nil)

	topic := m.GetTopicMetrics("user-events")
	if topic == nil || topic.Published != 1 {
		t.Fatalf("unexpected topic metrics: %+v", topic)
	}

	// Returned copy must be detached.
	topic.Published = 99
	if m.GetTopicMetrics("user-events").Published != 1 {
		t.Fatal("expected GetTopicMetrics to return a copy")
	}

	if m.GetTopicMetrics("unseen-topic") != nil {
		t.Fatal("expected nil for unseen topic")
	}
}

func TestPipelineMetricsRegisterIsIdempotent(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewPipelineMetrics(registry)

	if err := m.Register(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Register(); err != nil {
		t.Fatalf("unexpected error on second register: %v", err)
	}
}

func TestPipelineMetricsReset(t *testing.T) {
	m := NewPipelineMetrics(prometheus.NewRegistry())
	m.RecordPublish("session-events", nil)
	m.Reset()

	snap := m.GetSnapshot()
	if snap.TotalPublished != 0 || len(snap.TopicMetrics) != 0 {
		t.Fatalf("expected empty snapshot after reset, got %+v", snap)
	}
}
