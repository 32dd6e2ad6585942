package transport

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
)

// Delivery describes where a consumed message came from. On the channel
// transport only ReceivedAt is meaningful.
type Delivery struct {
	Topic      string
	Partition  int32
	Offset     int64
	ReceivedAt time.Time
}

// DeliveryFromContext extracts Kafka delivery coordinates from a message
// context, filled in by the Kafka subscriber. Missing values stay zero.
func DeliveryFromContext(ctx context.Context, topic string) Delivery {
	d := Delivery{Topic: topic, ReceivedAt: time.Now()}
	if partition, ok := kafka.MessagePartitionFromCtx(ctx); ok {
		d.Partition = partition
	}
	if offset, ok := kafka.MessagePartitionOffsetFromCtx(ctx); ok {
		d.Offset = offset
	}
	if ts, ok := kafka.MessageTimestampFromCtx(ctx); ok {
		d.ReceivedAt = ts
	}
	return d
}
