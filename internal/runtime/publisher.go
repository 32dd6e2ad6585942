package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	errspkg "github.com/learnloop/eventbus/internal/runtime/errors"
	"github.com/learnloop/eventbus/internal/runtime/events"
	idspkg "github.com/learnloop/eventbus/internal/runtime/ids"
	"github.com/learnloop/eventbus/internal/runtime/jsoncodec"
	loggingpkg "github.com/learnloop/eventbus/internal/runtime/logging"
	metadatapkg "github.com/learnloop/eventbus/internal/runtime/metadata"
	"github.com/learnloop/eventbus/internal/runtime/topics"
)

// stalenessThreshold is how old an event timestamp may be before the
// publisher re-stamps it on the wire form. Events are expected to be
// published right after creation; anything older was likely held in a retry
// loop and would mislead consumers windowing by event time.
const stalenessThreshold = 60 * time.Second

// dlqRecord is the wire format written to a dead letter topic when the
// primary publish fails. The original event is preserved verbatim so it can
// be replayed once the incident is resolved.
type dlqRecord struct {
	OriginalEvent    json.RawMessage `json:"originalEvent"`
	Error            string          `json:"error"`
	FailedTopic      string          `json:"failedTopic"`
	FailureTimestamp time.Time       `json:"failureTimestamp"`
}

// Publisher routes events onto their category topics with a dead letter
// fallback. Enrichment (provenance stamping, timestamp refresh, missing
// identifiers) happens on the encoded wire form; the caller's event is
// never mutated.
type Publisher struct {
	pub     message.Publisher
	log     loggingpkg.ServiceLogger
	metrics *PipelineMetrics

	source      string
	environment string
	region      string

	now func() time.Time
}

// PublisherOption customises a Publisher.
type PublisherOption func(*Publisher)

// WithProvenance sets the source, environment and region stamped into every
// published envelope. Empty values leave the envelope's own values alone.
func WithProvenance(source, environment, region string) PublisherOption {
	return func(p *Publisher) {
		p.source = source
		p.environment = environment
		p.region = region
	}
}

// WithPublisherMetrics attaches a metrics collector.
func WithPublisherMetrics(m *PipelineMetrics) PublisherOption {
	return func(p *Publisher) { p.metrics = m }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) { p.now = now }
}

// NewPublisher builds a Publisher on top of a transport publisher.
func NewPublisher(pub message.Publisher, log loggingpkg.ServiceLogger, opts ...PublisherOption) (*Publisher, error) {
	if pub == nil {
		return nil, errspkg.ErrPublisherRequired
	}
	if log == nil {
		return nil, errspkg.ErrServiceRequired
	}
	p := &Publisher{
		pub: pub,
		log: log,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Publish routes the event to its category topic and sends it. On a broker
// failure the event is diverted to the topic's dead letter counterpart and
// the original error is returned; the caller must not retry, the dead
// letter copy is the retry.
func (p *Publisher) Publish(ctx context.Context, evt events.Event) error {
	if evt == nil {
		return errspkg.ErrEventRequired
	}

	return p.publishTo(ctx, p.route(evt.Base()), evt, events.PartitionKey(evt))
}

// route resolves the category topic and logs when an unrouted category
// falls back to the default topic.
func (p *Publisher) route(base *events.Envelope) string {
	topic, known := topics.TopicFor(base.EventType)
	if !known {
		p.log.Info("no route for event category, using default topic", loggingpkg.LogFields{
			"event_type": base.EventType,
			"topic":      topic,
		})
	}
	return topic
}

// PublishAll publishes each event independently and returns one error slot
// per event, nil where the publish succeeded.
func (p *Publisher) PublishAll(ctx context.Context, evts []events.Event) []error {
	errs := make([]error, len(evts))
	for i, evt := range evts {
		errs[i] = p.Publish(ctx, evt)
	}
	return errs
}

// PublishToTopic bypasses category routing and sends the event to an
// explicit topic, keeping enrichment and the dead letter fallback.
func (p *Publisher) PublishToTopic(ctx context.Context, topic string, evt events.Event) error {
	if topic == "" {
		return errspkg.ErrTopicRequired
	}
	if evt == nil {
		return errspkg.ErrEventRequired
	}
	return p.publishTo(ctx, topic, evt, events.PartitionKey(evt))
}

// PublishWithKey routes the event normally but overrides the partition key.
func (p *Publisher) PublishWithKey(ctx context.Context, evt events.Event, key string) error {
	if evt == nil {
		return errspkg.ErrEventRequired
	}
	if key == "" {
		return p.Publish(ctx, evt)
	}
	return p.publishTo(ctx, p.route(evt.Base()), evt, key)
}

// PublishRaw sends an already-encoded payload to a topic with the provided
// metadata. No enrichment and no dead letter fallback; intended for replay
// tooling that moves dead letter records back onto their source topic.
func (p *Publisher) PublishRaw(ctx context.Context, topic string, payload []byte, md metadatapkg.Metadata) error {
	if topic == "" {
		return errspkg.ErrTopicRequired
	}
	msg := message.NewMessage(idspkg.CreateULID(), payload)
	for k, v := range md {
		msg.Metadata.Set(k, v)
	}
	if ctx != nil {
		msg.SetContext(ctx)
	}
	err := p.pub.Publish(topic, msg)
	if p.metrics != nil {
		p.metrics.RecordPublish(topic, err)
	}
	return err
}

// encodeEnriched serializes the event and applies enrichment to the wire
// form only: missing identifiers are generated, provenance is stamped, and
// a timestamp older than the staleness threshold is refreshed. The returned
// envelope mirrors what is on the wire; the caller's event stays untouched
// because consumers in other groups may still be reading the original.
func (p *Publisher) encodeEnriched(evt events.Event) ([]byte, events.Envelope, error) {
	wire := *evt.Base()
	now := p.now()

	changed := false
	if wire.EventID == uuid.Nil {
		wire.EventID = uuid.New()
		changed = true
	}
	if wire.CorrelationID == uuid.Nil {
		wire.CorrelationID = uuid.New()
		changed = true
	}
	if wire.Timestamp.IsZero() || now.Sub(wire.Timestamp) > stalenessThreshold {
		wire.Timestamp = now
		changed = true
	}
	if p.source != "" && wire.Metadata.Source != p.source {
		wire.Metadata.Source = p.source
		changed = true
	}
	if p.environment != "" && wire.Metadata.Environment != p.environment {
		wire.Metadata.Environment = p.environment
		changed = true
	}
	if p.region != "" && wire.Metadata.Region != p.region {
		wire.Metadata.Region = p.region
		changed = true
	}

	payload, err := events.Encode(evt)
	if err != nil {
		return nil, events.Envelope{}, err
	}
	if !changed {
		return payload, wire, nil
	}

	// Patch the envelope fields into the encoded form. Working on the
	// document keeps this independent of the concrete variant, so events
	// outside the registered union still publish fine.
	var doc map[string]any
	if err := jsoncodec.Unmarshal(payload, &doc); err != nil {
		return nil, events.Envelope{}, fmt.Errorf("eventbus: re-encode for enrichment failed: %w", err)
	}
	doc["eventId"] = wire.EventID.String()
	doc["correlationId"] = wire.CorrelationID.String()
	doc["timestamp"] = wire.Timestamp.UTC().Format(time.RFC3339Nano)
	doc["metadata"] = wire.Metadata

	payload, err = jsoncodec.Marshal(doc)
	if err != nil {
		return nil, events.Envelope{}, fmt.Errorf("eventbus: re-encode for enrichment failed: %w", err)
	}
	return payload, wire, nil
}

func (p *Publisher) publishTo(ctx context.Context, topic string, evt events.Event, partitionKey string) error {
	payload, wire, err := p.encodeEnriched(evt)
	if err != nil {
		return err
	}

	msg := message.NewMessage(idspkg.CreateULID(), payload)
	msg.Metadata.Set(metadatapkg.KeyEventType, wire.EventType)
	msg.Metadata.Set(metadatapkg.KeyEventID, wire.EventID.String())
	msg.Metadata.Set(metadatapkg.KeyCorrelationID, wire.CorrelationID.String())
	msg.Metadata.Set(metadatapkg.KeyPartitionKey, partitionKey)
	if wire.Metadata.Source != "" {
		msg.Metadata.Set(metadatapkg.KeySource, wire.Metadata.Source)
	}
	if ctx != nil {
		msg.SetContext(ctx)
	}

	err = p.pub.Publish(topic, msg)
	if p.metrics != nil {
		p.metrics.RecordPublish(topic, err)
	}
	if err == nil {
		p.log.Debug("published event", loggingpkg.LogFields{
			"event_type": wire.EventType,
			"event_id":   wire.EventID.String(),
			"topic":      topic,
		})
		return nil
	}

	p.log.Error("publish failed, diverting to dead letter topic", err, loggingpkg.LogFields{
		"event_type": wire.EventType,
		"event_id":   wire.EventID.String(),
		"topic":      topic,
	})
	p.publishToDLQ(ctx, topic, payload, wire, err)

	return err
}

// publishToDLQ writes the failed event to the topic's dead letter
// counterpart. A second failure is terminal: the event is logged in full
// and dropped, and the drop counter records it.
func (p *Publisher) publishToDLQ(ctx context.Context, failedTopic string, payload []byte, wire events.Envelope, cause error) {
	record := dlqRecord{
		OriginalEvent:    payload,
		Error:            cause.Error(),
		FailedTopic:      failedTopic,
		FailureTimestamp: p.now(),
	}
	encoded, err := jsoncodec.Marshal(record)
	if err != nil {
		p.dropEvent(failedTopic, payload, wire, err)
		return
	}

	key := "unknown"
	if wire.UserID != nil {
		key = wire.UserID.String()
	}

	msg := message.NewMessage(idspkg.CreateULID(), encoded)
	msg.Metadata.Set(metadatapkg.KeyEventType, wire.EventType)
	msg.Metadata.Set(metadatapkg.KeyEventID, wire.EventID.String())
	msg.Metadata.Set(metadatapkg.KeyPartitionKey, key)
	if ctx != nil {
		msg.SetContext(ctx)
	}

	dlqTopic := topics.DLQTopic(failedTopic)
	if err := p.pub.Publish(dlqTopic, msg); err != nil {
		p.dropEvent(failedTopic, payload, wire, err)
		return
	}

	if p.metrics != nil {
		p.metrics.RecordDLQFallback(failedTopic)
	}
	p.log.Info("event diverted to dead letter topic", loggingpkg.LogFields{
		"event_type": wire.EventType,
		"event_id":   wire.EventID.String(),
		"dlq_topic":  dlqTopic,
	})
}

// dropEvent is the double-failure path: primary and dead letter publishes
// both failed. The full payload goes into the log so the event is at least
// recoverable from log storage.
func (p *Publisher) dropEvent(failedTopic string, payload []byte, wire events.Envelope, err error) {
	if p.metrics != nil {
		p.metrics.RecordDrop(failedTopic)
	}
	p.log.Error("dead letter publish failed, event dropped", err, loggingpkg.LogFields{
		"event_type": wire.EventType,
		"event_id":   wire.EventID.String(),
		"topic":      failedTopic,
		"payload":    string(payload),
	})
}
