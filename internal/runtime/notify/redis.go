package notify

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/learnloop/eventbus/internal/runtime/jsoncodec"
)

// RedisNotifier publishes notifications over Redis pub/sub channels. A
// WebSocket gateway subscribed on the matching channels forwards them to
// browsers.
type RedisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier connects to Redis at addr. password may be empty.
func NewRedisNotifier(addr, password string) *RedisNotifier {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	return &RedisNotifier{client: client}
}

// NewRedisNotifierFromClient wraps an existing client, which the notifier
// then owns.
func NewRedisNotifierFromClient(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (r *RedisNotifier) Publish(ctx context.Context, dest Destination, n Notification) error {
	payload, err := jsoncodec.Marshal(n)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, dest.Channel(), payload).Err()
}

func (r *RedisNotifier) Close() error {
	return r.client.Close()
}
