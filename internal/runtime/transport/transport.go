// Package transport wires the event backbone onto a concrete message
// infrastructure. Kafka is the production transport; the channel transport
// keeps tests and local development broker-free.
package transport

import (
	"context"
	"fmt"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/learnloop/eventbus/internal/runtime/config"
)

// Transport combines a publisher with a per-consumer-group subscriber
// source. Every consumer group gets its own subscriber so each group
// receives its own copy of the stream and commits its own offsets.
type Transport struct {
	Publisher     message.Publisher
	SubscriberFor func(consumerGroup string) (message.Subscriber, error)
}

// Factory abstracts how the backbone initialises message transports.
type Factory interface {
	Build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (Transport, error)
}

// DefaultFactory returns the built-in factory that selects the transport
// from Config.PubSubSystem.
func DefaultFactory() Factory {
	return defaultFactory{}
}

type defaultFactory struct{}

func (defaultFactory) Build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (Transport, error) {
	if conf == nil {
		return Transport{}, fmt.Errorf("config is required")
	}

	switch strings.ToLower(conf.PubSubSystem) {
	case "kafka":
		return kafkaTransport(conf, logger)
	case "channel", "":
		return channelTransport(conf, logger)
	default:
		return Transport{}, fmt.Errorf("unsupported pubsub system: %s", conf.PubSubSystem)
	}
}
