package transport

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/learnloop/eventbus/internal/runtime/config"
	"github.com/learnloop/eventbus/internal/runtime/metadata"
)

var (
	KafkaPublisherFactory = func(cfg kafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		return kafka.NewPublisher(cfg, logger)
	}
	KafkaSubscriberFactory = func(cfg kafka.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
		return kafka.NewSubscriber(cfg, logger)
	}
)

// partitioningMarshaler keys Kafka records off the partition_key metadata
// entry so all events for one user land on one partition, in order.
// Messages without the key fall back to the message UUID, which spreads
// them evenly.
func partitioningMarshaler() kafka.MarshalerUnmarshaler {
	return kafka.NewWithPartitioningMarshaler(func(topic string, msg *message.Message) (string, error) {
		if key := msg.Metadata.Get(metadata.KeyPartitionKey); key != "" {
			return key, nil
		}
		return msg.UUID, nil
	})
}

func kafkaTransport(conf *config.Config, logger watermill.LoggerAdapter) (Transport, error) {
	marshaler := partitioningMarshaler()

	publisher, err := KafkaPublisherFactory(
		kafka.PublisherConfig{
			Brokers:   conf.KafkaBrokers,
			Marshaler: marshaler,
		},
		logger,
	)
	if err != nil {
		return Transport{}, err
	}

	brokers := conf.KafkaBrokers
	return Transport{
		Publisher: publisher,
		SubscriberFor: func(consumerGroup string) (message.Subscriber, error) {
			return KafkaSubscriberFactory(
				kafka.SubscriberConfig{
					Brokers:       brokers,
					Unmarshaler:   marshaler,
					ConsumerGroup: consumerGroup,
				},
				logger,
			)
		},
	}, nil
}
