// Package events defines the common event envelope and the closed set of
// domain event variants exchanged over the platform's event backbone. Every
// event is a flat JSON object whose "eventType" field doubles as the
// discriminator for the type registry and as the routing hint for the
// publisher (first dot-segment = category).
package events

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Envelope carries the metadata common to all events. It is embedded by
// value in every variant so the wire format stays a single flat object.
// Envelopes are never mutated after creation; corrections are new events
// with CausationID pointing at the original, and publish-time enrichment
// happens on the encoded wire form only.
type Envelope struct {
	EventType     string        `json:"eventType"`
	EventID       uuid.UUID     `json:"eventId"`
	Timestamp     time.Time     `json:"timestamp"`
	CorrelationID uuid.UUID     `json:"correlationId"`
	CausationID   *uuid.UUID    `json:"causationId,omitempty"`
	UserID        *uuid.UUID    `json:"userId,omitempty"`
	Metadata      EventMetadata `json:"metadata"`
}

// EventMetadata is the provenance block attached to every envelope.
type EventMetadata struct {
	Source        string `json:"source"`
	Version       string `json:"version"`
	Environment   string `json:"environment"`
	Region        string `json:"region"`
	SchemaVersion string `json:"schemaVersion"`
}

// DefaultMetadata returns the provenance defaults used when the emitting
// service supplies nothing.
func DefaultMetadata() EventMetadata {
	return EventMetadata{
		Source:        "unknown",
		Version:       "1.0.0",
		Environment:   "development",
		Region:        "us-east-1",
		SchemaVersion: "1.0",
	}
}

// Event is implemented by every variant in the closed union.
// Base returns the embedded envelope for metadata access.
type Event interface {
	Base() *Envelope
}

// EnvelopeOption customises envelope construction.
type EnvelopeOption func(*Envelope)

// WithUser sets the subject of the event.
func WithUser(userID uuid.UUID) EnvelopeOption {
	return func(e *Envelope) {
		id := userID
		e.UserID = &id
	}
}

// WithCorrelation ties the event into an existing causal chain.
func WithCorrelation(correlationID uuid.UUID) EnvelopeOption {
	return func(e *Envelope) {
		e.CorrelationID = correlationID
	}
}

// WithCausation points at the event or request that caused this one.
func WithCausation(causationID uuid.UUID) EnvelopeOption {
	return func(e *Envelope) {
		id := causationID
		e.CausationID = &id
	}
}

// WithMetadata replaces the default provenance block.
func WithMetadata(md EventMetadata) EnvelopeOption {
	return func(e *Envelope) {
		e.Metadata = md
	}
}

// WithTimestamp overrides the occurrence time. Mostly useful in tests and
// when replaying buffered domain facts.
func WithTimestamp(ts time.Time) EnvelopeOption {
	return func(e *Envelope) {
		e.Timestamp = ts
	}
}

// NewEnvelope constructs an envelope with a fresh event ID, the current
// time, and a fresh correlation ID unless the originator supplies one.
func NewEnvelope(eventType string, opts ...EnvelopeOption) Envelope {
	e := Envelope{
		EventType:     eventType,
		EventID:       uuid.New(),
		Timestamp:     time.Now().UTC(),
		CorrelationID: uuid.New(),
		Metadata:      DefaultMetadata(),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// Category returns the first dot-segment of an event type, lowercased.
// It selects the destination topic ("session" in "session.started.v1").
func Category(eventType string) string {
	segment, _, _ := strings.Cut(eventType, ".")
	return strings.ToLower(segment)
}

// PartitionKey computes the broker ordering key for an event: the user ID
// when present, so all of one user's events share a partition and arrive in
// send order, otherwise the event type, so system-wide events of the same
// kind stay ordered relative to each other.
func PartitionKey(evt Event) string {
	base := evt.Base()
	if base.UserID != nil {
		return base.UserID.String()
	}
	return base.EventType
}
