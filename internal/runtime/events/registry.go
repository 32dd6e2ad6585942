package events

import (
	"fmt"

	jsoncodec "github.com/learnloop/eventbus/internal/runtime/jsoncodec"
)

// UnknownEventTypeError marks payloads whose discriminator has no registered
// variant. Consumers log and skip these rather than failing the batch, so an
// older consumer survives a newer, additive-only event.
type UnknownEventTypeError struct {
	EventType string
}

func (e *UnknownEventTypeError) Error() string {
	return "events: unknown event type: " + e.EventType
}

var registry = map[string]func() Event{}

// register panics on duplicate discriminators so a clash between two
// variants surfaces at process start, not at decode time.
func register(eventType string, factory func() Event) {
	if _, exists := registry[eventType]; exists {
		panic(fmt.Sprintf("events: duplicate registration for event type %q", eventType))
	}
	registry[eventType] = factory
}

func init() {
	register(TypeUserRegistered, func() Event { return &UserRegistered{} })
	register(TypeUserUpdated, func() Event { return &UserUpdated{} })
	register(TypeUserRoleChanged, func() Event { return &UserRoleChanged{} })
	register(TypeSessionStarted, func() Event { return &SessionStarted{} })
	register(TypeSessionCompleted, func() Event { return &SessionCompleted{} })
	register(TypeSessionFailed, func() Event { return &SessionFailed{} })
	register(TypeAgentStarted, func() Event { return &AgentStarted{} })
	register(TypeAgentCompleted, func() Event { return &AgentCompleted{} })
	register(TypeAgentFailed, func() Event { return &AgentFailed{} })
	register(TypeContentGenerated, func() Event { return &ContentGenerated{} })
	register(TypeContentUpdated, func() Event { return &ContentUpdated{} })
	register(TypePaymentSubscriptionActivated, func() Event { return &PaymentSubscriptionActivated{} })
	register(TypePaymentSubscriptionCancelled, func() Event { return &PaymentSubscriptionCancelled{} })
	register(TypeSystemMaintenanceStarted, func() Event { return &SystemMaintenanceStarted{} })
	register(TypeSystemAlertTriggered, func() Event { return &SystemAlertTriggered{} })
}

// Registered reports whether the discriminator maps to a known variant.
func Registered(eventType string) bool {
	_, ok := registry[eventType]
	return ok
}

// Types returns every registered discriminator.
func Types() []string {
	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	return types
}

// Encode serializes an event to its flat JSON wire form.
func Encode(evt Event) ([]byte, error) {
	if evt == nil {
		return nil, fmt.Errorf("events: cannot encode nil event")
	}
	return jsoncodec.Marshal(evt)
}

// Decode reads the eventType discriminator and unmarshals the payload into
// the matching variant. Unknown additional fields are tolerated; an unknown
// discriminator returns *UnknownEventTypeError.
func Decode(payload []byte) (Event, error) {
	var probe struct {
		EventType string `json:"eventType"`
	}
	if err := jsoncodec.Unmarshal(payload, &probe); err != nil {
		return nil, fmt.Errorf("events: malformed event payload: %w", err)
	}
	factory, ok := registry[probe.EventType]
	if !ok {
		return nil, &UnknownEventTypeError{EventType: probe.EventType}
	}

	evt := factory()
	if err := jsoncodec.Unmarshal(payload, evt); err != nil {
		return nil, fmt.Errorf("events: failed to decode %s: %w", probe.EventType, err)
	}
	return evt, nil
}

// Clone deep-copies an event by round-tripping it through the codec.
// Replay tooling uses this to detach a dead-lettered event from its buffer
// before mutating it.
func Clone(evt Event) (Event, error) {
	payload, err := Encode(evt)
	if err != nil {
		return nil, err
	}
	return Decode(payload)
}
