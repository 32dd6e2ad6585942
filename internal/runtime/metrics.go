package runtime

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Publish and consume outcomes used as metric label values.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeDLQ       = "dlq"
	OutcomeDropped   = "dropped"
	OutcomeSkipped   = "skipped"
	OutcomeMalformed = "malformed"
)

// PipelineMetrics tracks publish, consume, dead-letter and bridge activity.
type PipelineMetrics struct {
	mu sync.RWMutex

	// Per-topic counts
	topicCounts map[string]*TopicMetrics

	// Prometheus collectors
	publishesTotal      *prometheus.CounterVec
	dlqFallbacksTotal   *prometheus.CounterVec
	eventsDroppedTotal  *prometheus.CounterVec
	consumesTotal       *prometheus.CounterVec
	bridgeForwardsTotal *prometheus.CounterVec

	registerer prometheus.Registerer
	registered bool
}

// TopicMetrics holds publish statistics for a single topic.
type TopicMetrics struct {
	Published     uint64    `json:"published"`
	Failed        uint64    `json:"failed"`
	DLQFallbacks  uint64    `json:"dlq_fallbacks"`
	Dropped       uint64    `json:"dropped"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// MetricsSnapshot provides a point-in-time view of pipeline metrics.
type MetricsSnapshot struct {
	TotalPublished    uint64                   `json:"total_published"`
	TotalFailed       uint64                   `json:"total_failed"`
	TotalDLQFallbacks uint64                   `json:"total_dlq_fallbacks"`
	TotalDropped      uint64                   `json:"total_dropped"`
	TopicMetrics      map[string]*TopicMetrics `json:"topic_metrics"`
	CollectedAt       time.Time                `json:"collected_at"`
}

// newPipelineCounterVec creates a counter vec in the standard eventbus/pipeline namespace.
func newPipelineCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventbus",
			Subsystem: "pipeline",
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// NewPipelineMetrics creates a new pipeline metrics collector.
func NewPipelineMetrics(registerer prometheus.Registerer) *PipelineMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &PipelineMetrics{
		topicCounts:         make(map[string]*TopicMetrics),
		registerer:          registerer,
		publishesTotal:      newPipelineCounterVec("publishes_total", "Total number of publish attempts by topic and outcome", []string{"topic", "outcome"}),
		dlqFallbacksTotal:   newPipelineCounterVec("dlq_fallbacks_total", "Total number of events diverted to a dead letter topic after a publish failure", []string{"topic"}),
		eventsDroppedTotal:  newPipelineCounterVec("events_dropped_total", "Total number of events lost because both primary and dead letter publishes failed", []string{"topic"}),
		consumesTotal:       newPipelineCounterVec("consumes_total", "Total number of consumed messages by category and outcome", []string{"category", "outcome"}),
		bridgeForwardsTotal: newPipelineCounterVec("bridge_forwards_total", "Total number of live notifications forwarded by the bridge", []string{"notification", "outcome"}),
	}
}

// Register registers the Prometheus collectors. Safe to call multiple times.
func (m *PipelineMetrics) Register() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	collectors := []prometheus.Collector{
		m.publishesTotal,
		m.dlqFallbacksTotal,
		m.eventsDroppedTotal,
		m.consumesTotal,
		m.bridgeForwardsTotal,
	}

	for _, c := range collectors {
		if err := m.registerer.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}

	m.registered = true
	return nil
}

// RecordPublish records the outcome of a primary publish attempt.
func (m *PipelineMetrics) RecordPublish(topic string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := m.getOrCreateTopicMetrics(topic)
	metrics.LastUpdatedAt = time.Now()

	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
		metrics.Failed++
	} else {
		metrics.Published++
	}
	m.publishesTotal.WithLabelValues(topic, outcome).Inc()
}

// RecordDLQFallback records an event diverted to the topic's dead letter
// counterpart after a failed primary publish.
func (m *PipelineMetrics) RecordDLQFallback(topic string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := m.getOrCreateTopicMetrics(topic)
	metrics.DLQFallbacks++
	metrics.LastUpdatedAt = time.Now()

	m.dlqFallbacksTotal.WithLabelValues(topic).Inc()
}

// RecordDrop records an event lost because the dead letter publish failed
// too. This counter should stay at zero in a healthy system.
func (m *PipelineMetrics) RecordDrop(topic string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := m.getOrCreateTopicMetrics(topic)
	metrics.Dropped++
	metrics.LastUpdatedAt = time.Now()

	m.eventsDroppedTotal.WithLabelValues(topic).Inc()
}

// RecordConsume records a consumed message outcome for a category.
func (m *PipelineMetrics) RecordConsume(category, outcome string) {
	m.consumesTotal.WithLabelValues(category, outcome).Inc()
}

// RecordBridgeForward records a live notification forward attempt.
func (m *PipelineMetrics) RecordBridgeForward(notification string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.bridgeForwardsTotal.WithLabelValues(notification, outcome).Inc()
}

// GetSnapshot returns a point-in-time snapshot of publish-side metrics.
func (m *PipelineMetrics) GetSnapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := MetricsSnapshot{
		TopicMetrics: make(map[string]*TopicMetrics),
		CollectedAt:  time.Now(),
	}

	for topic, metrics := range m.topicCounts {
		metricsCopy := &TopicMetrics{
			Published:     metrics.Published,
			Failed:        metrics.Failed,
			DLQFallbacks:  metrics.DLQFallbacks,
			Dropped:       metrics.Dropped,
			LastUpdatedAt: metrics.LastUpdatedAt,
		}
		snapshot.TopicMetrics[topic] = metricsCopy
		snapshot.TotalPublished += metrics.Published
		snapshot.TotalFailed += metrics.Failed
		snapshot.TotalDLQFallbacks += metrics.DLQFallbacks
		snapshot.TotalDropped += metrics.Dropped
	}

	return snapshot
}

// GetTopicMetrics returns metrics for a specific topic, or nil if the topic
// has not been published to yet.
func (m *PipelineMetrics) GetTopicMetrics(topic string) *TopicMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if metrics, ok := m.topicCounts[topic]; ok {
		return &TopicMetrics{
			Published:     metrics.Published,
			Failed:        metrics.Failed,
			DLQFallbacks:  metrics.DLQFallbacks,
			Dropped:       metrics.Dropped,
			LastUpdatedAt: metrics.LastUpdatedAt,
		}
	}
	return nil
}

func (m *PipelineMetrics) getOrCreateTopicMetrics(topic string) *TopicMetrics {
	if metrics, ok := m.topicCounts[topic]; ok {
		return metrics
	}
	metrics := &TopicMetrics{}
	m.topicCounts[topic] = metrics
	return metrics
}

// Reset resets all metrics (useful for testing).
func (m *PipelineMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.topicCounts = make(map[string]*TopicMetrics)
	m.publishesTotal.Reset()
	m.dlqFallbacksTotal.Reset()
	m.eventsDroppedTotal.Reset()
	m.consumesTotal.Reset()
	m.bridgeForwardsTotal.Reset()
}
