package transport

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/learnloop/eventbus/internal/runtime/config"
)

var (
	GoChannelFactory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber) {
		pubSub := gochannel.NewGoChannel(cfg, logger)
		return pubSub, pubSub
	}
)

// channelTransport shares one in-memory pub/sub between all consumer
// groups. gochannel has no consumer-group semantics, so every subscriber
// sees every message; close enough for tests and local runs.
func channelTransport(conf *config.Config, logger watermill.LoggerAdapter) (Transport, error) {
	// gochannel delivers each message on its own goroutine by default, which
	// can reorder sequential publishes. Blocking until the subscriber acks
	// keeps publish order intact, matching the broker's per-key ordering.
	pub, sub := GoChannelFactory(gochannel.Config{
		BlockPublishUntilSubscriberAck: true,
	}, logger)

	return Transport{
		Publisher: pub,
		SubscriberFor: func(string) (message.Subscriber, error) {
			return sub, nil
		},
	}, nil
}
