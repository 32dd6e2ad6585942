package notify

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/learnloop/eventbus/internal/runtime/jsoncodec"
)

func TestDestinationChannel(t *testing.T) {
	userID := uuid.New()
	sessionID := uuid.New()

	cases := []struct {
		name string
		dest Destination
		want string
	}{
		{"broadcast", Destination{Broadcast: true}, "system"},
		{"user and session", Destination{UserID: &userID, SessionID: &sessionID}, "user/" + userID.String() + "/session/" + sessionID.String()},
		{"user only", Destination{UserID: &userID}, "user/" + userID.String()},
		{"session only", Destination{SessionID: &sessionID}, "session/" + sessionID.String()},
		{"empty falls back to system", Destination{}, "system"},
	}

	for _, tc := range cases {
		if got := tc.dest.Channel(); got != tc.want {
			t.Fatalf("%s: Channel() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestDestinationSubject(t *testing.T) {
	userID := uuid.New()
	sessionID := uuid.New()
	dest := Destination{UserID: &userID, SessionID: &sessionID}

	want := "user." + userID.String() + ".session." + sessionID.String()
	if got := dest.Subject(); got != want {
		t.Fatalf("Subject() = %q, want %q", got, want)
	}
}

func TestChannelNotifierDeliversToSubscribers(t *testing.T) {
	notifier := NewChannelNotifier()
	defer notifier.Close()

	first := notifier.Subscribe()
	second := notifier.Subscribe()

	sessionID := uuid.New()
	n := Notification{
		Type:      "session.started",
		SessionID: &sessionID,
		Timestamp: time.Now(),
		Data:      map[string]any{"topic": "Interfaces"},
	}
	dest := Destination{Broadcast: true}

	if err := notifier.Publish(context.Background(), dest, n); err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}

	for _, ch := range []<-chan Delivery{first, second} {
		select {
		case d := <-ch:
			if d.Notification.Type != "session.started" {
				t.Fatalf("unexpected notification type: %s", d.Notification.Type)
			}
			if d.Destination.Channel() != "system" {
				t.Fatalf("unexpected channel: %s", d.Destination.Channel())
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for delivery")
		}
	}
}

func TestChannelNotifierCloseIsIdempotent(t *testing.T) {
	notifier := NewChannelNotifier()
	sub := notifier.Subscribe()

	if err := notifier.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if err := notifier.Close(); err != nil {
		t.Fatalf("unexpected second close error: %v", err)
	}

	if _, open := <-sub; open {
		t.Fatal("expected subscriber channel to be closed")
	}

	if err := notifier.Publish(context.Background(), Destination{Broadcast: true}, Notification{}); err == nil {
		t.Fatal("expected error publishing on closed notifier")
	}
}

func TestChannelNotifierHonoursContext(t *testing.T) {
	notifier := NewChannelNotifier()
	defer notifier.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := notifier.Publish(ctx, Destination{Broadcast: true}, Notification{}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestRedisNotifierPublishesToChannel(t *testing.T) {
	server := miniredis.RunT(t)

	notifier := NewRedisNotifier(server.Addr(), "")
	defer notifier.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	ctx := context.Background()
	userID := uuid.New()
	sessionID := uuid.New()
	dest := Destination{UserID: &userID, SessionID: &sessionID}

	sub := client.Subscribe(ctx, dest.Channel())
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("unexpected subscribe error: %v", err)
	}

	n := Notification{
		Type:      "agent.progress",
		SessionID: &sessionID,
		Timestamp: time.Now().UTC(),
		Data:      map[string]any{"status": "started"},
	}
	if err := notifier.Publish(ctx, dest, n); err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var got Notification
		if err := jsoncodec.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("unexpected decode error: %v", err)
		}
		if got.Type != "agent.progress" {
			t.Fatalf("unexpected notification type: %s", got.Type)
		}
		if got.SessionID == nil || *got.SessionID != sessionID {
			t.Fatal("expected session ID to survive the wire")
		}
		if got.Data["status"] != "started" {
			t.Fatalf("unexpected data: %+v", got.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for redis delivery")
	}
}
