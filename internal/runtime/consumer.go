package runtime

import (
	"context"
	"errors"
	"sort"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/learnloop/eventbus/internal/runtime/errors"
	"github.com/learnloop/eventbus/internal/runtime/events"
	loggingpkg "github.com/learnloop/eventbus/internal/runtime/logging"
	"github.com/learnloop/eventbus/internal/runtime/transport"
)

// HandlerFunc processes one decoded event. Returning nil acknowledges the
// message; returning an error leaves it unacknowledged so the transport
// redelivers it. Handlers must therefore be idempotent.
type HandlerFunc func(ctx context.Context, evt events.Event, delivery transport.Delivery) error

// Dispatcher fans consumed events of one category out to per-type handlers.
type Dispatcher struct {
	category string
	handlers map[string]HandlerFunc
}

// NewDispatcher creates an empty dispatcher for an event category, e.g.
// "session" for the session-events topic.
func NewDispatcher(category string) (*Dispatcher, error) {
	if category == "" {
		return nil, errspkg.ErrCategoryRequired
	}
	return &Dispatcher{
		category: category,
		handlers: make(map[string]HandlerFunc),
	}, nil
}

// Category returns the event category this dispatcher serves.
func (d *Dispatcher) Category() string { return d.category }

// Handle registers a handler for an event type. Returns the dispatcher so
// registrations can be chained.
func (d *Dispatcher) Handle(eventType string, fn HandlerFunc) *Dispatcher {
	if eventType == "" || fn == nil {
		panic("eventbus: Handle requires an event type and a handler")
	}
	d.handlers[eventType] = fn
	return d
}

// Types returns the registered event types, sorted.
func (d *Dispatcher) Types() []string {
	types := make([]string, 0, len(d.handlers))
	for t := range d.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Dispatch routes a decoded event to its handler. Events without a handler
// are acknowledged untouched: a category topic carries every subtype and a
// consumer is free to care about only some of them.
func (d *Dispatcher) Dispatch(ctx context.Context, evt events.Event, delivery transport.Delivery, log loggingpkg.ServiceLogger) error {
	fn, ok := d.handlers[evt.Base().EventType]
	if !ok {
		log.Debug("no handler for event type, acknowledging", loggingpkg.LogFields{
			"event_type": evt.Base().EventType,
			"category":   d.category,
		})
		return nil
	}
	return fn(ctx, evt, delivery)
}

// consumeHandler adapts a dispatcher into a Watermill no-publish handler.
//
// Acknowledgement discipline:
//   - unknown event type: ack, the schema is newer than this consumer
//   - malformed payload of a known type: ack and count it, redelivery
//     would poison the partition forever
//   - handler error: nack so the transport redelivers
func consumeHandler(topic string, d *Dispatcher, log loggingpkg.ServiceLogger, metrics *PipelineMetrics) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		ctx := msg.Context()
		delivery := transport.DeliveryFromContext(ctx, topic)

		evt, err := events.Decode(msg.Payload)
		if err != nil {
			var unknown *events.UnknownEventTypeError
			if errors.As(err, &unknown) {
				log.Info("skipping unknown event type", loggingpkg.LogFields{
					"event_type": unknown.EventType,
					"topic":      topic,
				})
				if metrics != nil {
					metrics.RecordConsume(d.category, OutcomeSkipped)
				}
				return nil
			}

			log.Error("malformed event payload, acknowledging to avoid poison", err, loggingpkg.LogFields{
				"topic":        topic,
				"message_uuid": msg.UUID,
			})
			if metrics != nil {
				metrics.RecordConsume(d.category, OutcomeMalformed)
			}
			return nil
		}

		if err := d.Dispatch(ctx, evt, delivery, log); err != nil {
			log.Error("event handler failed", err, loggingpkg.LogFields{
				"event_type": evt.Base().EventType,
				"topic":      topic,
				"partition":  delivery.Partition,
				"offset":     delivery.Offset,
			})
			if metrics != nil {
				metrics.RecordConsume(d.category, OutcomeError)
			}
			return err
		}

		if metrics != nil {
			metrics.RecordConsume(d.category, OutcomeOK)
		}
		return nil
	}
}
