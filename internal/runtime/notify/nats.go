package notify

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/learnloop/eventbus/internal/runtime/jsoncodec"
)

// NATSNotifier publishes notifications on NATS subjects in dot notation.
type NATSNotifier struct {
	conn *nats.Conn
}

// NewNATSNotifier dials the NATS server at url.
func NewNATSNotifier(url string) (*NATSNotifier, error) {
	conn, err := nats.Connect(url, nats.Name("eventbus-notifier"))
	if err != nil {
		return nil, err
	}
	return &NATSNotifier{conn: conn}, nil
}

// NewNATSNotifierFromConn wraps an existing connection, which the notifier
// then owns.
func NewNATSNotifierFromConn(conn *nats.Conn) *NATSNotifier {
	return &NATSNotifier{conn: conn}
}

func (n *NATSNotifier) Publish(ctx context.Context, dest Destination, note Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := jsoncodec.Marshal(note)
	if err != nil {
		return err
	}
	return n.conn.Publish(dest.Subject(), payload)
}

func (n *NATSNotifier) Close() error {
	n.conn.Close()
	return nil
}
