// Package eventbus is the asynchronous event backbone for the learning
// platform: a typed event envelope with a versioned registry, category
// topics with managed lifecycle, a routed publisher with a dead letter
// fallback, a consumer framework with manual acknowledgement discipline,
// and a real-time bridge that projects selected events into client-facing
// notifications.
//
// Events are JSON envelopes discriminated by a dotted, versioned type such
// as "session.completed.v1". The first segment is the category and selects
// the destination topic (session-events, agent-events, and so on); the
// partition key is the user ID when present so each user's events stay
// ordered. When a publish fails the event is diverted to the topic's
// dead letter counterpart and the original error is surfaced to the caller.
//
// Consumers register per-type handlers on a Dispatcher and attach it to a
// Service with ConsumeCategory; each category runs under its own consumer
// group. A handler returning nil acknowledges the message, an error leaves
// it for redelivery, so handlers must be idempotent. Unknown event types
// are acknowledged and skipped, which makes schema evolution additive.
//
// The bridge (AttachBridge) consumes the agent, session, content, and
// system categories under separate consumer groups and forwards trimmed
// projections to a Notifier (Redis pub/sub, NATS, or an in-process channel
// for tests).
//
// A minimal setup fills Config, creates a Service with NewService,
// registers dispatchers, and calls Start; the channel transport runs the
// whole pipeline in memory. See examples/simple for a runnable setup.
package eventbus
