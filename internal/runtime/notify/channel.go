package notify

import (
	"context"
	"sync"
)

// Delivery pairs a notification with the destination it was sent to.
type Delivery struct {
	Destination  Destination
	Notification Notification
}

// ChannelNotifier is an in-process notifier for tests and local development.
// Subscribers receive every published notification.
type ChannelNotifier struct {
	mu     sync.Mutex
	subs   []chan Delivery
	closed bool
}

// NewChannelNotifier builds an empty in-process notifier.
func NewChannelNotifier() *ChannelNotifier {
	return &ChannelNotifier{}
}

// Subscribe registers a buffered channel that receives all future
// deliveries. The channel is closed when the notifier closes.
func (c *ChannelNotifier) Subscribe() <-chan Delivery {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan Delivery, 64)
	if c.closed {
		close(ch)
		return ch
	}
	c.subs = append(c.subs, ch)
	return ch
}

func (c *ChannelNotifier) Publish(ctx context.Context, dest Destination, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return context.Canceled
	}
	for _, ch := range c.subs {
		select {
		case ch <- Delivery{Destination: dest, Notification: n}:
		default:
			// A slow subscriber must not block the bridge.
		}
	}
	return nil
}

func (c *ChannelNotifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	for _, ch := range c.subs {
		close(ch)
	}
	c.subs = nil
	return nil
}
