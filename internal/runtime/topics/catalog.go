// Package topics manages the backbone's Kafka topic catalog: the fixed set
// of category topics, their dead-letter counterparts, and the default
// fallback topic, with per-category partition counts and retention.
package topics

import "github.com/learnloop/eventbus/internal/runtime/events"

// Topic names for the fixed catalog.
const (
	UserEvents         = "user-events"
	SessionEvents      = "session-events"
	AgentEvents        = "agent-events"
	ContentEvents      = "content-events"
	PaymentEvents      = "payment-events"
	SystemEvents       = "system-events"
	AnalyticsEvents    = "analytics-events"
	NotificationEvents = "notification-events"

	// DefaultTopic receives events whose category is not in the routing
	// table, so nothing is ever dropped for want of a route.
	DefaultTopic = "platform-events"

	// DLQSuffix is appended to a topic name to form its dead-letter
	// counterpart.
	DLQSuffix = "-dlq"
)

// Retention periods in milliseconds.
const (
	retention7d   = int64(604800000)
	retention14d  = int64(1209600000)
	retention30d  = int64(2592000000)
	retention60d  = int64(5184000000)
	retention90d  = int64(7776000000)
	retention180d = int64(15552000000)
	retention365d = int64(31536000000)
)

// Cleanup policies and compression codecs.
const (
	CleanupDelete = "delete"

	compressionSnappy = "snappy"
	compressionLZ4    = "lz4"
)

// Config is the administrative record for one topic.
type Config struct {
	Name              string
	Partitions        int32
	ReplicationFactor int16
	RetentionMillis   int64
	CleanupPolicy     string
}

// routing maps an event category to its destination topic.
var routing = map[string]string{
	"user":         UserEvents,
	"session":      SessionEvents,
	"agent":        AgentEvents,
	"content":      ContentEvents,
	"payment":      PaymentEvents,
	"system":       SystemEvents,
	"analytics":    AnalyticsEvents,
	"notification": NotificationEvents,
}

// TopicFor resolves the destination topic for an event type. Unrecognised
// categories fall back to the shared default topic; the caller is expected
// to surface that via logging, not swallow it.
func TopicFor(eventType string) (topic string, known bool) {
	return TopicForCategory(events.Category(eventType))
}

// TopicForCategory resolves the destination topic for an event category.
func TopicForCategory(category string) (topic string, known bool) {
	topic, known = routing[category]
	if !known {
		topic = DefaultTopic
	}
	return topic, known
}

// DLQTopic returns the dead-letter counterpart for a topic.
func DLQTopic(topic string) string {
	return topic + DLQSuffix
}

// Catalog returns every topic the backbone requires, in a stable order:
// the eight category topics, the dead-letter counterparts for the six
// categories that publish through the backbone, and the default topic.
// Dead-letter retention is always >= the source topic's needs for
// inspection; payment dead letters keep the full 365 days because financial
// reconciliation must never lose a failed event.
func Catalog() []Config {
	return []Config{
		{Name: UserEvents, Partitions: 3, ReplicationFactor: 1, RetentionMillis: retention30d, CleanupPolicy: CleanupDelete},
		{Name: SessionEvents, Partitions: 5, ReplicationFactor: 1, RetentionMillis: retention90d, CleanupPolicy: CleanupDelete},
		{Name: AgentEvents, Partitions: 8, ReplicationFactor: 1, RetentionMillis: retention14d, CleanupPolicy: CleanupDelete},
		{Name: ContentEvents, Partitions: 3, ReplicationFactor: 1, RetentionMillis: retention60d, CleanupPolicy: CleanupDelete},
		{Name: PaymentEvents, Partitions: 2, ReplicationFactor: 1, RetentionMillis: retention365d, CleanupPolicy: CleanupDelete},
		{Name: SystemEvents, Partitions: 1, ReplicationFactor: 1, RetentionMillis: retention7d, CleanupPolicy: CleanupDelete},
		{Name: AnalyticsEvents, Partitions: 3, ReplicationFactor: 1, RetentionMillis: retention180d, CleanupPolicy: CleanupDelete},
		{Name: NotificationEvents, Partitions: 2, ReplicationFactor: 1, RetentionMillis: retention30d, CleanupPolicy: CleanupDelete},

		{Name: DLQTopic(UserEvents), Partitions: 1, ReplicationFactor: 1, RetentionMillis: retention30d, CleanupPolicy: CleanupDelete},
		{Name: DLQTopic(SessionEvents), Partitions: 1, ReplicationFactor: 1, RetentionMillis: retention30d, CleanupPolicy: CleanupDelete},
		{Name: DLQTopic(AgentEvents), Partitions: 1, ReplicationFactor: 1, RetentionMillis: retention30d, CleanupPolicy: CleanupDelete},
		{Name: DLQTopic(ContentEvents), Partitions: 1, ReplicationFactor: 1, RetentionMillis: retention30d, CleanupPolicy: CleanupDelete},
		{Name: DLQTopic(PaymentEvents), Partitions: 1, ReplicationFactor: 1, RetentionMillis: retention365d, CleanupPolicy: CleanupDelete},
		{Name: DLQTopic(SystemEvents), Partitions: 1, ReplicationFactor: 1, RetentionMillis: retention30d, CleanupPolicy: CleanupDelete},

		{Name: DefaultTopic, Partitions: 5, ReplicationFactor: 1, RetentionMillis: retention30d, CleanupPolicy: CleanupDelete},
	}
}
