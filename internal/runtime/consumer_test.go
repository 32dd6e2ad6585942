package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	errspkg "github.com/learnloop/eventbus/internal/runtime/errors"
	"github.com/learnloop/eventbus/internal/runtime/events"
	"github.com/learnloop/eventbus/internal/runtime/transport"
)

func TestNewDispatcherRequiresCategory(t *testing.T) {
	if _, err := NewDispatcher(""); !errors.Is(err, errspkg.ErrCategoryRequired) {
		t.Fatalf("expected category required error, got %v", err)
	}
}

func TestDispatcherHandleChaining(t *testing.T) {
	d, err := NewDispatcher("session")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	noop := func(context.Context, events.Event, transport.Delivery) error { return nil }
	d.Handle(events.TypeSessionStarted, noop).Handle(events.TypeSessionCompleted, noop)

	types := d.Types()
	if len(types) != 2 || types[0] != events.TypeSessionCompleted || types[1] != events.TypeSessionStarted {
		t.Fatalf("unexpected registered types: %v", types)
	}
}

func TestDispatchRoutesToHandler(t *testing.T) {
	d, _ := NewDispatcher("session")

	var got events.Event
	d.Handle(events.TypeSessionStarted, func(ctx context.Context, evt events.Event, delivery transport.Delivery) error {
		got = evt
		return nil
	})

	evt := sessionStarted(uuid.New())
	if err := d.Dispatch(context.Background(), evt, transport.Delivery{}, testLogger()); err != nil {
		t.Fatalf("unexpected dispatch error: %v", err)
	}
	if got != evt {
		t.Fatal("expected handler to receive the event")
	}
}

func TestDispatchAcknowledgesUnhandledTypes(t *testing.T) {
	d, _ := NewDispatcher("session")
	d.Handle(events.TypeSessionCompleted, func(context.Context, events.Event, transport.Delivery) error {
		t.Fatal("handler must not run for unregistered type")
		return nil
	})

	if err := d.Dispatch(context.Background(), sessionStarted(uuid.New()), transport.Delivery{}, testLogger()); err != nil {
		t.Fatalf("expected nil for unhandled type, got %v", err)
	}
}

func TestConsumeHandlerDecodesAndAcks(t *testing.T) {
	d, _ := NewDispatcher("session")

	var handled *events.SessionStarted
	d.Handle(events.TypeSessionStarted, func(ctx context.Context, evt events.Event, delivery transport.Delivery) error {
		handled = evt.(*events.SessionStarted)
		if delivery.Topic != "session-events" {
			t.Fatalf("unexpected delivery topic: %s", delivery.Topic)
		}
		return nil
	})

	metrics := NewPipelineMetrics(nil)
	handler := consumeHandler("session-events", d, testLogger(), metrics)

	evt := sessionStarted(uuid.New())
	payload, err := events.Encode(evt)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	if err := handler(message.NewMessage("m1", payload)); err != nil {
		t.Fatalf("expected ack, got %v", err)
	}
	if handled == nil || handled.SessionID != evt.SessionID {
		t.Fatal("expected decoded event to reach the handler")
	}
}

func TestConsumeHandlerAcksUnknownEventType(t *testing.T) {
	d, _ := NewDispatcher("session")
	d.Handle(events.TypeSessionStarted, func(context.Context, events.Event, transport.Delivery) error {
		t.Fatal("handler must not run for unknown type")
		return nil
	})

	handler := consumeHandler("session-events", d, testLogger(), nil)
	payload := []byte(`{"eventType":"session.archived.v2"}`)

	if err := handler(message.NewMessage("m1", payload)); err != nil {
		t.Fatalf("expected unknown type to be acknowledged, got %v", err)
	}
}

func TestConsumeHandlerAcksMalformedPayload(t *testing.T) {
	d, _ := NewDispatcher("session")
	handler := consumeHandler("session-events", d, testLogger(), nil)

	// Redelivering garbage forever would poison the partition, so it must
	// be acknowledged.
	if err := handler(message.NewMessage("m1", []byte(`{broken`))); err != nil {
		t.Fatalf("expected malformed payload to be acknowledged, got %v", err)
	}
}

func TestConsumeHandlerNacksOnHandlerError(t *testing.T) {
	handlerErr := errors.New("database unavailable")
	d, _ := NewDispatcher("session")

	attempts := 0
	d.Handle(events.TypeSessionStarted, func(context.Context, events.Event, transport.Delivery) error {
		attempts++
		if attempts < 3 {
			return handlerErr
		}
		return nil
	})

	handler := consumeHandler("session-events", d, testLogger(), nil)
	payload, _ := events.Encode(sessionStarted(uuid.New()))

	// Simulate transport redelivery until the handler succeeds.
	for i := 0; i < 2; i++ {
		if err := handler(message.NewMessage("m1", payload)); !errors.Is(err, handlerErr) {
			t.Fatalf("expected handler error on attempt %d, got %v", i+1, err)
		}
	}
	if err := handler(message.NewMessage("m1", payload)); err != nil {
		t.Fatalf("expected ack once the handler recovers, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}
