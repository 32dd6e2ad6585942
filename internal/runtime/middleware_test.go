package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"

	metadatapkg "github.com/learnloop/eventbus/internal/runtime/metadata"
)

func newMiddlewareTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(channelConfig(), testLogger(), context.Background(), ServiceDependencies{
		DisableDefaultMiddlewares: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func TestCorrelationIDMiddlewareInjectsWhenMissing(t *testing.T) {
	svc := newMiddlewareTestService(t)
	mw := svc.correlationIDMiddleware()

	handler := mw(func(msg *message.Message) ([]*message.Message, error) {
		return nil, nil
	})

	msg := message.NewMessage("m1", nil)
	if _, err := handler(msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Metadata.Get(metadatapkg.KeyCorrelationID) == "" {
		t.Fatal("expected correlation ID to be injected")
	}
}

func TestCorrelationIDMiddlewarePreservesExisting(t *testing.T) {
	svc := newMiddlewareTestService(t)
	mw := svc.correlationIDMiddleware()

	handler := mw(func(msg *message.Message) ([]*message.Message, error) {
		return nil, nil
	})

	msg := message.NewMessage("m1", nil)
	msg.Metadata.Set(metadatapkg.KeyCorrelationID, "existing-id")
	if _, err := handler(msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := msg.Metadata.Get(metadatapkg.KeyCorrelationID); got != "existing-id" {
		t.Fatalf("expected existing correlation ID to be preserved, got %s", got)
	}
}

func TestRegisterMiddlewareValidations(t *testing.T) {
	svc := newMiddlewareTestService(t)

	if err := svc.RegisterMiddleware(MiddlewareRegistration{Name: "empty"}); err == nil {
		t.Fatal("expected error for registration without middleware or builder")
	}

	buildErr := errors.New("boom")
	err := svc.RegisterMiddleware(MiddlewareRegistration{
		Name: "failing",
		Builder: func(*Service) (message.HandlerMiddleware, error) {
			return nil, buildErr
		},
	})
	if !errors.Is(err, buildErr) {
		t.Fatalf("expected builder error, got %v", err)
	}

	// A builder returning a nil middleware is skipped without error, the
	// metrics middleware does this when metrics are disabled.
	err = svc.RegisterMiddleware(MiddlewareRegistration{
		Name: "disabled",
		Builder: func(*Service) (message.HandlerMiddleware, error) {
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDefaultMiddlewareChain(t *testing.T) {
	names := make([]string, 0)
	for _, reg := range DefaultMiddlewares() {
		names = append(names, reg.Name)
	}
	want := []string{"correlation_id", "log_messages", "tracer", "metrics", "recoverer"}
	if len(names) != len(want) {
		t.Fatalf("unexpected middleware chain: %v", names)
	}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("expected %s at position %d, got %v", name, i, names)
		}
	}
}
